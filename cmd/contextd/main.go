package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"

	"github.com/fathom-chat/contextd/internal/api"
	"github.com/fathom-chat/contextd/internal/assemble"
	"github.com/fathom-chat/contextd/internal/budget"
	"github.com/fathom-chat/contextd/internal/config"
	"github.com/fathom-chat/contextd/internal/database"
	"github.com/fathom-chat/contextd/internal/deltacache"
	"github.com/fathom-chat/contextd/internal/events"
	"github.com/fathom-chat/contextd/internal/imaging"
	"github.com/fathom-chat/contextd/internal/middleware"
	iredis "github.com/fathom-chat/contextd/internal/redis"
	"github.com/fathom-chat/contextd/internal/score"
	"github.com/fathom-chat/contextd/internal/server"
	"github.com/fathom-chat/contextd/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("validating config", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.Log)

	ctx := context.Background()

	// Redis
	redisClient, err := iredis.NewClient(ctx, cfg.Redis)
	if err != nil {
		slog.Error("connecting to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	// Recent window, always present
	recent := store.NewRecentStore(redisClient, cfg.Engine.RecentWindowTurns, cfg.Engine.RecentWindowTTL)

	// Optional durable store
	var durable *store.PostgresStore
	var pgPool *pgxpool.Pool
	if cfg.DB.Enabled {
		if err := database.RunMigrations(cfg.DB.DSN(), cfg.DB.MigrationsPath); err != nil {
			slog.Error("running migrations", "error", err)
			os.Exit(1)
		}
		pgPool, err = database.NewPostgresPool(ctx, cfg.DB)
		if err != nil {
			slog.Error("connecting to postgres", "error", err)
			os.Exit(1)
		}
		defer pgPool.Close()
		durable = store.NewPostgresStore(pgPool)
	}

	// Optional event bus
	var eventsClient *events.Client
	var publisher *events.Publisher
	if cfg.NATS.Enabled {
		eventsClient, err = events.NewClient(ctx, cfg.NATS)
		if err != nil {
			slog.Error("connecting to NATS", "error", err)
			os.Exit(1)
		}
		defer eventsClient.Close()
		publisher = events.NewPublisher(eventsClient.JetStream())
	}

	// Assembly pipeline
	var assets store.AssetStore = recent
	if durable != nil {
		assets = durable
	}
	processor := imaging.NewProcessor(imaging.Config{
		ThumbnailDim:    cfg.Engine.ThumbnailDim,
		Quality:         cfg.Engine.CompressionQuality,
		SkipBelowBytes:  cfg.Engine.SkipBelowBytes,
		TriggerKeywords: cfg.Engine.TriggerKeywords,
	})
	cache := deltacache.NewRedisCache(redisClient, cfg.Engine.DeltaCacheTTL, cfg.Engine.MaxDeltaSize)
	assembler := assemble.New(assets, cache, score.NewScorer(), processor, assemble.DefaultEstimator(), assemble.Config{
		MaxMessages:        cfg.Engine.MaxMessages,
		SinceMinutes:       cfg.Engine.SinceMinutes,
		PreserveRecentN:    cfg.Engine.PreserveRecentN,
		MinImportanceScore: cfg.Engine.MinImportanceScore,
		MaxDeltaSize:       cfg.Engine.MaxDeltaSize,
		TokenBudget:        cfg.Engine.TokenBudget,
	})

	assembleHandler := assemble.NewHandler(assembler, budget.Planner{}, publisher)
	turnsHandler := store.NewHandler(recent, durable, publisher)

	// Periodic sweep of the thumbnail cache
	c := cron.New()
	if _, err := c.AddFunc("@every 5m", func() {
		if n := processor.Sweep(); n > 0 {
			slog.Debug("swept thumbnail cache", "evicted", n)
		}
	}); err != nil {
		slog.Error("scheduling cache sweep", "error", err)
		os.Exit(1)
	}
	c.Start()
	defer c.Stop()

	// Router
	var limiter func(http.Handler) http.Handler
	if cfg.HTTP.AssembleRateLimit > 0 {
		limiter = middleware.NewRateLimiter(redisClient, "assemble", cfg.HTTP.AssembleRateLimit, 60).Middleware
	}
	router := api.NewRouter(redisClient, pgPool, eventsClient, api.RouterConfig{
		CORSAllowedOrigins:  cfg.HTTP.CORSAllowedOrigins,
		AssembleRateLimiter: limiter,
	}, api.HandlerSet{
		Assemble:     assembleHandler.Assemble,
		AppendTurn:   turnsHandler.Append,
		ClearHistory: turnsHandler.Clear,
	})

	// Start server
	srv := server.New(cfg.Server, router)
	if err := srv.Start(); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func setupLogger(cfg config.LogConfig) {
	var handler slog.Handler

	opts := &slog.HandlerOptions{}
	switch cfg.Level {
	case "debug":
		opts.Level = slog.LevelDebug
	case "info":
		opts.Level = slog.LevelInfo
	case "warn":
		opts.Level = slog.LevelWarn
	case "error":
		opts.Level = slog.LevelError
	default:
		opts.Level = slog.LevelInfo
	}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
