package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ListenAddr  string
	HealthPath  string
	MetricsPath string

	Groq    GroqConfig
	DB      DBConfig
	Redis   RedisConfig
	Rate    RateConfig
	Session SessionConfig
	Log     LogConfig
}

// GroqConfig holds the LLM side. APIKey may be empty at startup: sessions
// created over the API carry their own key.
type GroqConfig struct {
	APIKey      string
	BaseURL     string
	Timeout     time.Duration
	MaxRetries  int
	BackoffBase time.Duration
}

// DBConfig is the optional default connection used when a session request
// does not carry its own. Kind empty means no default.
type DBConfig struct {
	Kind          string
	Host          string
	Port          int
	User          string
	Password      string
	Database      string
	SQLitePath    string
	MaxResultRows int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type RateConfig struct {
	PerHour int64
}

type SessionConfig struct {
	TTL           time.Duration
	SweepInterval time.Duration
}

type LogConfig struct {
	Level string
}

func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:  mustEnv("LISTEN_ADDR", ":8080"),
		HealthPath:  mustEnv("HEALTH_PATH", "/healthz"),
		MetricsPath: mustEnv("METRICS_PATH", "/metrics"),
		Groq: GroqConfig{
			APIKey:      mustEnv("GROQ_API_KEY", ""),
			BaseURL:     mustEnv("GROQ_BASE_URL", ""),
			Timeout:     mustDuration("HTTP_TIMEOUT", 60*time.Second),
			MaxRetries:  mustInt("HTTP_MAX_RETRIES", 2),
			BackoffBase: mustDuration("HTTP_BACKOFF_BASE", 400*time.Millisecond),
		},
		DB: DBConfig{
			Kind:          strings.ToLower(mustEnv("DB_KIND", "")),
			Host:          mustEnv("DB_HOST", ""),
			Port:          mustInt("DB_PORT", 0),
			User:          mustEnv("DB_USER", ""),
			Password:      mustEnv("DB_PASSWORD", ""),
			Database:      mustEnv("DB_NAME", ""),
			SQLitePath:    mustEnv("SQLITE_PATH", "student.db"),
			MaxResultRows: mustInt("MAX_RESULT_ROWS", 0),
		},
		Redis: RedisConfig{
			Addr:     mustEnv("REDIS_ADDR", ""),
			Password: mustEnv("REDIS_PASSWORD", ""),
			DB:       mustInt("REDIS_DB", 0),
		},
		Rate: RateConfig{
			PerHour: int64(mustInt("RATE_LIMIT_PER_HOUR", 60)),
		},
		Session: SessionConfig{
			TTL:           mustDuration("SESSION_TTL", 2*time.Hour),
			SweepInterval: mustDuration("SESSION_SWEEP_INTERVAL", 5*time.Minute),
		},
		Log: LogConfig{
			Level: strings.ToLower(mustEnv("LOG_LEVEL", "info")),
		},
	}
	return cfg, nil
}

func mustEnv(key string, def string) string {
	if v := os.Getenv(key); v != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func mustInt(key string, def int) int {
	v := mustEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func mustDuration(key string, def time.Duration) time.Duration {
	v := mustEnv(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
