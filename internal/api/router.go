package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/fathom-chat/contextd/internal/database"
	"github.com/fathom-chat/contextd/internal/events"
	mw "github.com/fathom-chat/contextd/internal/middleware"
)

// HandlerSet holds handler functions injected from main.go to avoid
// import cycles.
type HandlerSet struct {
	Assemble     http.HandlerFunc
	AppendTurn   http.HandlerFunc
	ClearHistory http.HandlerFunc
}

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	CORSAllowedOrigins  []string
	AssembleRateLimiter func(http.Handler) http.Handler
}

// NewRouter builds the service router. pool and eventsClient may be nil
// when the deployment runs without the durable store or the event bus.
func NewRouter(redisClient redis.UniversalClient, pool *pgxpool.Pool, eventsClient *events.Client, cfg RouterConfig, h HandlerSet) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.SecurityHeaders)
	r.Use(mw.Logging)
	r.Use(mw.Recovery)
	r.Use(mw.Metrics)
	r.Use(cors.Handler(mw.CORS(cfg.CORSAllowedOrigins)))

	// Liveness probe: always 200, no dependency checks
	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		JSON(w, http.StatusOK, map[string]string{"status": "alive"})
	})

	// Readiness probe: checks Redis plus the optional backends
	readinessHandler := func(w http.ResponseWriter, r *http.Request) {
		health := map[string]string{
			"status":   "healthy",
			"redis":    "healthy",
			"database": "healthy",
			"events":   "healthy",
		}

		status := http.StatusOK

		if err := redisClient.Ping(r.Context()).Err(); err != nil {
			health["redis"] = "unhealthy"
			health["status"] = "degraded"
			status = http.StatusServiceUnavailable
		}

		if pool != nil {
			if err := database.HealthCheck(r.Context(), pool); err != nil {
				health["database"] = "unhealthy"
				health["status"] = "degraded"
				status = http.StatusServiceUnavailable
			}
		} else {
			health["database"] = "not configured"
		}

		if eventsClient != nil {
			if !eventsClient.Healthy() {
				health["events"] = "unhealthy"
				health["status"] = "degraded"
			}
		} else {
			health["events"] = "not configured"
		}

		JSON(w, status, health)
	}

	r.Get("/health/ready", readinessHandler)
	r.Get("/health", readinessHandler)

	// Prometheus metrics
	r.Handle("/metrics", promhttp.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/context", func(r chi.Router) {
			if cfg.AssembleRateLimiter != nil {
				r.Use(cfg.AssembleRateLimiter)
			}
			r.Post("/assemble", h.Assemble)
		})

		r.Route("/turns", func(r chi.Router) {
			if h.AppendTurn != nil {
				r.Post("/", h.AppendTurn)
			}
			if h.ClearHistory != nil {
				r.Delete("/{userID}", h.ClearHistory)
			}
		})
	})

	return r
}
