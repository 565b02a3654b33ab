package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr != ":8080" {
		t.Fatalf("unexpected listen addr %q", cfg.ListenAddr)
	}
	if cfg.Session.TTL != 2*time.Hour {
		t.Fatalf("unexpected session ttl %v", cfg.Session.TTL)
	}
	if cfg.Rate.PerHour != 60 {
		t.Fatalf("unexpected rate limit %d", cfg.Rate.PerHour)
	}
	if cfg.Redis.Addr != "" {
		t.Fatalf("redis should be disabled by default, got %q", cfg.Redis.Addr)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LISTEN_ADDR", ":9999")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("DB_KIND", "Postgres")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("HTTP_MAX_RETRIES", "5")
	t.Setenv("RATE_LIMIT_PER_HOUR", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr != ":9999" {
		t.Fatalf("unexpected listen addr %q", cfg.ListenAddr)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("log level not lowercased: %q", cfg.Log.Level)
	}
	if cfg.DB.Kind != "postgres" {
		t.Fatalf("db kind not lowercased: %q", cfg.DB.Kind)
	}
	if cfg.Session.TTL != 30*time.Minute {
		t.Fatalf("unexpected session ttl %v", cfg.Session.TTL)
	}
	if cfg.Groq.MaxRetries != 5 {
		t.Fatalf("unexpected max retries %d", cfg.Groq.MaxRetries)
	}
	// Unparseable values fall back to the default.
	if cfg.Rate.PerHour != 60 {
		t.Fatalf("expected default rate limit, got %d", cfg.Rate.PerHour)
	}
}
