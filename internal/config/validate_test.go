package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 8080},
		Redis:  RedisConfig{Host: "localhost", Port: 6379},
		DB: DBConfig{
			Host: "localhost", Port: 5432, User: "contextd",
			Password: "secret", Name: "contextd", SSLMode: "disable", MaxConns: 25,
		},
		NATS: NATSConfig{URL: "nats://localhost:4222"},
		Log:  LogConfig{Level: "info", Format: "text"},
		HTTP: HTTPConfig{AssembleRateLimit: 60},
		Engine: EngineConfig{
			MaxMessages:        50,
			SinceMinutes:       1440,
			PreserveRecentN:    5,
			MinImportanceScore: 20,
			MaxDeltaSize:       10,
			DeltaCacheTTL:      30 * time.Minute,
			TokenBudget:        4096,
			ThumbnailDim:       256,
			CompressionQuality: 60,
			SkipBelowBytes:     50 * 1024,
			RecentWindowTurns:  200,
			RecentWindowTTL:    24 * time.Hour,
		},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
}

func TestValidate_ServerPortOutOfRange(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 70000
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "SERVER_PORT") {
		t.Fatalf("expected SERVER_PORT error, got: %v", err)
	}
}

func TestValidate_DBPasswordRequiredWhenEnabled(t *testing.T) {
	cfg := validConfig()
	cfg.DB.Enabled = true
	cfg.DB.Password = ""
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "DB_PASSWORD") {
		t.Fatalf("expected DB_PASSWORD error, got: %v", err)
	}
}

func TestValidate_DBIgnoredWhenDisabled(t *testing.T) {
	cfg := validConfig()
	cfg.DB.Enabled = false
	cfg.DB.Password = ""
	cfg.DB.Port = 0
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected no error for disabled DB, got: %v", err)
	}
}

func TestValidate_NATSURLRequiredWhenEnabled(t *testing.T) {
	cfg := validConfig()
	cfg.NATS.Enabled = true
	cfg.NATS.URL = ""
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "NATS_URL") {
		t.Fatalf("expected NATS_URL error, got: %v", err)
	}
}

func TestValidate_LogLevel(t *testing.T) {
	cfg := validConfig()
	cfg.Log.Level = "verbose"
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "LOG_LEVEL") {
		t.Fatalf("expected LOG_LEVEL error, got: %v", err)
	}
}

func TestValidate_MinScoreRange(t *testing.T) {
	cfg := validConfig()
	cfg.Engine.MinImportanceScore = 150
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "ENGINE_MIN_SCORE") {
		t.Fatalf("expected ENGINE_MIN_SCORE error, got: %v", err)
	}
}

func TestValidate_FloorCannotExceedMaxMessages(t *testing.T) {
	cfg := validConfig()
	cfg.Engine.PreserveRecentN = 60
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "ENGINE_PRESERVE_RECENT") {
		t.Fatalf("expected ENGINE_PRESERVE_RECENT error, got: %v", err)
	}
}

func TestValidate_CompressionQualityRange(t *testing.T) {
	cfg := validConfig()
	cfg.Engine.CompressionQuality = 0
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "ENGINE_COMPRESSION_QUALITY") {
		t.Fatalf("expected ENGINE_COMPRESSION_QUALITY error, got: %v", err)
	}
}

func TestValidate_CollectsMultipleErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 0
	cfg.Engine.TokenBudget = 0
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "SERVER_PORT") || !strings.Contains(err.Error(), "ENGINE_TOKEN_BUDGET") {
		t.Fatalf("expected both errors reported, got: %v", err)
	}
}
