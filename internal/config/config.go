package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server ServerConfig
	Redis  RedisConfig
	DB     DBConfig
	NATS   NATSConfig
	Log    LogConfig
	Engine EngineConfig
	HTTP   HTTPConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DBConfig configures the optional durable turn store. When Enabled is
// false the service runs Redis-only.
type DBConfig struct {
	Enabled        bool
	Host           string
	Port           int
	User           string
	Password       string
	Name           string
	SSLMode        string
	MaxConns       int32
	MigrationsPath string
}

func (c DBConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

// NATSConfig configures the optional assembly-event bus.
type NATSConfig struct {
	Enabled bool
	URL     string
}

type LogConfig struct {
	Level  string
	Format string
}

// HTTPConfig holds the HTTP-facing knobs.
type HTTPConfig struct {
	CORSAllowedOrigins []string
	AssembleRateLimit  int // requests per minute per IP; 0 disables
}

// EngineConfig holds the assembly-engine knobs surfaced through the
// environment. Every field has a documented default and each request
// may override the assembly subset per call.
type EngineConfig struct {
	MaxMessages        int
	SinceMinutes       int
	PreserveRecentN    int
	MinImportanceScore float64
	MaxDeltaSize       int
	DeltaCacheTTL      time.Duration
	TokenBudget        int
	ThumbnailDim       int
	CompressionQuality int
	SkipBelowBytes     int
	TriggerKeywords    []string
	RecentWindowTurns  int
	RecentWindowTTL    time.Duration
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Load .env file if it exists (ignore error if missing)
	_ = k.Load(file.Provider(".env"), dotenv.Parser())

	// Load environment variables (override .env)
	err := k.Load(env.Provider("", ".", func(s string) string {
		return strings.ToLower(strings.ReplaceAll(s, "_", "."))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: k.String("server.host"),
			Port: k.Int("server.port"),
		},
		Redis: RedisConfig{
			Host:     k.String("redis.host"),
			Port:     k.Int("redis.port"),
			Password: k.String("redis.password"),
			DB:       k.Int("redis.db"),
		},
		DB: DBConfig{
			Enabled:        k.Bool("db.enabled"),
			Host:           k.String("db.host"),
			Port:           k.Int("db.port"),
			User:           k.String("db.user"),
			Password:       k.String("db.password"),
			Name:           k.String("db.name"),
			SSLMode:        k.String("db.sslmode"),
			MaxConns:       int32(k.Int("db.max.conns")),
			MigrationsPath: k.String("db.migrations.path"),
		},
		NATS: NATSConfig{
			Enabled: k.Bool("nats.enabled"),
			URL:     k.String("nats.url"),
		},
		Log: LogConfig{
			Level:  k.String("log.level"),
			Format: k.String("log.format"),
		},
		HTTP: HTTPConfig{
			CORSAllowedOrigins: splitList(k.String("http.cors.origins")),
			AssembleRateLimit:  k.Int("http.assemble.ratelimit"),
		},
		Engine: EngineConfig{
			MaxMessages:        k.Int("engine.max.messages"),
			SinceMinutes:       k.Int("engine.since.minutes"),
			PreserveRecentN:    k.Int("engine.preserve.recent"),
			MinImportanceScore: k.Float64("engine.min.score"),
			MaxDeltaSize:       k.Int("engine.max.delta.size"),
			TokenBudget:        k.Int("engine.token.budget"),
			ThumbnailDim:       k.Int("engine.thumbnail.dim"),
			CompressionQuality: k.Int("engine.compression.quality"),
			SkipBelowBytes:     k.Int("engine.skip.below.bytes"),
			TriggerKeywords:    splitList(k.String("engine.trigger.keywords")),
			RecentWindowTurns:  k.Int("engine.recent.window.turns"),
		},
	}

	applyDefaults(cfg)

	cfg.Engine.DeltaCacheTTL, err = parseDurationOr(k.String("engine.delta.cache.ttl"), "30m")
	if err != nil {
		return nil, fmt.Errorf("parsing delta cache ttl: %w", err)
	}
	cfg.Engine.RecentWindowTTL, err = parseDurationOr(k.String("engine.recent.window.ttl"), "24h")
	if err != nil {
		return nil, fmt.Errorf("parsing recent window ttl: %w", err)
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.DB.Host == "" {
		cfg.DB.Host = "localhost"
	}
	if cfg.DB.Port == 0 {
		cfg.DB.Port = 5432
	}
	if cfg.DB.User == "" {
		cfg.DB.User = "contextd"
	}
	if cfg.DB.Name == "" {
		cfg.DB.Name = "contextd"
	}
	if cfg.DB.SSLMode == "" {
		cfg.DB.SSLMode = "disable"
	}
	if cfg.DB.MaxConns == 0 {
		cfg.DB.MaxConns = 25
	}
	if cfg.DB.MigrationsPath == "" {
		cfg.DB.MigrationsPath = "migrations"
	}
	if cfg.NATS.URL == "" {
		cfg.NATS.URL = "nats://localhost:4222"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	if cfg.HTTP.AssembleRateLimit == 0 {
		cfg.HTTP.AssembleRateLimit = 60
	}

	e := &cfg.Engine
	if e.MaxMessages == 0 {
		e.MaxMessages = 50
	}
	if e.SinceMinutes == 0 {
		e.SinceMinutes = 24 * 60
	}
	if e.PreserveRecentN == 0 {
		e.PreserveRecentN = 5
	}
	if e.MinImportanceScore == 0 {
		e.MinImportanceScore = 20
	}
	if e.MaxDeltaSize == 0 {
		e.MaxDeltaSize = 10
	}
	if e.TokenBudget == 0 {
		e.TokenBudget = 4096
	}
	if e.ThumbnailDim == 0 {
		e.ThumbnailDim = 256
	}
	if e.CompressionQuality == 0 {
		e.CompressionQuality = 60
	}
	if e.SkipBelowBytes == 0 {
		e.SkipBelowBytes = 50 * 1024
	}
	if e.RecentWindowTurns == 0 {
		e.RecentWindowTurns = 200
	}
}

func parseDurationOr(s, fallback string) (time.Duration, error) {
	if s == "" {
		s = fallback
	}
	return time.ParseDuration(s)
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
