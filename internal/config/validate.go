package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Validate checks Config for problems that would break the service at
// runtime. It collects all errors into a single joined error.
func (c *Config) Validate() error {
	var errs []string

	// Port ranges
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT must be 1–65535, got %d", c.Server.Port))
	}
	if c.Redis.Port < 1 || c.Redis.Port > 65535 {
		errs = append(errs, fmt.Sprintf("REDIS_PORT must be 1–65535, got %d", c.Redis.Port))
	}
	if c.DB.Enabled {
		if c.DB.Port < 1 || c.DB.Port > 65535 {
			errs = append(errs, fmt.Sprintf("DB_PORT must be 1–65535, got %d", c.DB.Port))
		}
		if c.DB.Password == "" {
			errs = append(errs, "DB_PASSWORD is required when DB_ENABLED is true")
		}
	}
	if c.NATS.Enabled && c.NATS.URL == "" {
		errs = append(errs, "NATS_URL is required when NATS_ENABLED is true")
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("LOG_LEVEL must be debug, info, warn or error, got %q", c.Log.Level))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("LOG_FORMAT must be text or json, got %q", c.Log.Format))
	}

	e := c.Engine
	if e.MaxMessages < 1 {
		errs = append(errs, fmt.Sprintf("ENGINE_MAX_MESSAGES must be positive, got %d", e.MaxMessages))
	}
	if e.SinceMinutes < 1 {
		errs = append(errs, fmt.Sprintf("ENGINE_SINCE_MINUTES must be positive, got %d", e.SinceMinutes))
	}
	if e.PreserveRecentN < 0 {
		errs = append(errs, fmt.Sprintf("ENGINE_PRESERVE_RECENT must not be negative, got %d", e.PreserveRecentN))
	}
	if e.PreserveRecentN > e.MaxMessages {
		errs = append(errs, fmt.Sprintf("ENGINE_PRESERVE_RECENT (%d) must not exceed ENGINE_MAX_MESSAGES (%d)", e.PreserveRecentN, e.MaxMessages))
	}
	if e.MinImportanceScore < 0 || e.MinImportanceScore > 100 {
		errs = append(errs, fmt.Sprintf("ENGINE_MIN_SCORE must be 0–100, got %g", e.MinImportanceScore))
	}
	if e.MaxDeltaSize < 1 {
		errs = append(errs, fmt.Sprintf("ENGINE_MAX_DELTA_SIZE must be positive, got %d", e.MaxDeltaSize))
	}
	if e.DeltaCacheTTL <= 0 {
		errs = append(errs, fmt.Sprintf("ENGINE_DELTA_CACHE_TTL must be positive, got %s", e.DeltaCacheTTL))
	}
	if e.TokenBudget < 1 {
		errs = append(errs, fmt.Sprintf("ENGINE_TOKEN_BUDGET must be positive, got %d", e.TokenBudget))
	}
	if e.ThumbnailDim < 16 {
		errs = append(errs, fmt.Sprintf("ENGINE_THUMBNAIL_DIM must be at least 16, got %d", e.ThumbnailDim))
	}
	if e.CompressionQuality < 1 || e.CompressionQuality > 100 {
		errs = append(errs, fmt.Sprintf("ENGINE_COMPRESSION_QUALITY must be 1–100, got %d", e.CompressionQuality))
	}
	if e.SkipBelowBytes < 0 {
		errs = append(errs, fmt.Sprintf("ENGINE_SKIP_BELOW_BYTES must not be negative, got %d", e.SkipBelowBytes))
	}
	if e.RecentWindowTurns < e.MaxMessages {
		errs = append(errs, fmt.Sprintf("ENGINE_RECENT_WINDOW_TURNS (%d) must be at least ENGINE_MAX_MESSAGES (%d)", e.RecentWindowTurns, e.MaxMessages))
	}
	if e.RecentWindowTTL <= 0 {
		errs = append(errs, fmt.Sprintf("ENGINE_RECENT_WINDOW_TTL must be positive, got %s", e.RecentWindowTTL))
	}

	// Rate limit of zero just disables the limiter: warn only.
	if c.HTTP.AssembleRateLimit < 0 {
		slog.Warn("HTTP_ASSEMBLE_RATELIMIT is negative, treating as disabled")
	}

	if len(errs) > 0 {
		return errors.New("config validation failed:\n  " + strings.Join(errs, "\n  "))
	}
	return nil
}
