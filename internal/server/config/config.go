// Package config загружает настройки ретранслятора из переменных окружения.
package config

import (
	"flag"
	"os"
	"strconv"
	"time"
)

// Config - настройки сервера.
type Config struct {
	Addr   string
	DBPath string
	// PostgresURL, если задан, переключает хранилище снимков на PostgreSQL
	PostgresURL string
	// RedisURL, если задан, включает обмен обновлениями между экземплярами
	RedisURL         string
	LogFormat        string
	SnapshotInterval time.Duration
	// RateLimit - запросов к REST API в минуту с одного IP
	RateLimit int
}

// Load читает конфигурацию из окружения, подставляя значения по умолчанию.
func Load() Config {
	return Config{
		Addr:             getenv("EDITGRID_ADDR", ":8080"),
		DBPath:           getenv("EDITGRID_DB", "editgrid-server.db"),
		PostgresURL:      getenv("EDITGRID_POSTGRES_URL", ""),
		RedisURL:         getenv("EDITGRID_REDIS_URL", ""),
		SnapshotInterval: getenvDuration("EDITGRID_SNAPSHOT_INTERVAL", 30*time.Second),
		RateLimit:        getenvInt("EDITGRID_RATE_LIMIT", 120),
		LogFormat:        getenv("EDITGRID_LOG_FORMAT", "json"),
	}
}

// RegisterFlags привязывает поля к флагам командной строки. Значения из
// окружения становятся значениями флагов по умолчанию.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Addr, "addr", c.Addr, "HTTP listen address")
	fs.StringVar(&c.DBPath, "db", c.DBPath, "Path to SQLite snapshot database")
	fs.StringVar(&c.PostgresURL, "postgres-url", c.PostgresURL, "PostgreSQL URL for snapshots (overrides -db)")
	fs.StringVar(&c.RedisURL, "redis-url", c.RedisURL, "Redis URL for cross-instance fan-out")
	fs.DurationVar(&c.SnapshotInterval, "snapshot-interval", c.SnapshotInterval, "How often changed rooms are saved")
	fs.IntVar(&c.RateLimit, "rate-limit", c.RateLimit, "REST requests per minute per IP")
	fs.StringVar(&c.LogFormat, "log-format", c.LogFormat, "Log format: json or text")
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

// getenvDuration принимает "45s", "2m" или число секунд.
func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
