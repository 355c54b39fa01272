package config

import (
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// RateLimitConfig is the per-connection chat throttling policy.
type RateLimitConfig struct {
	Limit        int
	Window       time.Duration
	MuteDuration time.Duration
}

type Config struct {
	Port           string
	LogLevel       string
	HistoryLimit   int
	DataFile       string
	RedisURL       string
	RabbitMQURL    string
	AllowedOrigins []string
	MaxFrameSize   int64
	RateLimit      RateLimitConfig
}

const (
	defaultPort         = "3000"
	defaultHistoryLimit = 200
	defaultDataFile     = "messages.json"
	// base64 images of up to 2 MiB plus the JSON envelope around them.
	defaultMaxFrameSize = 4 << 20
)

func Load() *Config {
	if os.Getenv("GO_ENV") != "production" {
		err := godotenv.Load()
		if err != nil {
			log.Println("Warning: Could not find .env file, using system environment variables.")
		}
	}

	return &Config{
		Port:           getEnv("PORT", defaultPort),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		HistoryLimit:   getInt("HISTORY_LIMIT", defaultHistoryLimit),
		DataFile:       getEnv("DATA_FILE", defaultDataFile),
		RedisURL:       getEnv("REDIS_URL", ""),
		RabbitMQURL:    getEnv("RABBITMQ_URL", ""),
		AllowedOrigins: parseList(getEnv("ALLOWED_ORIGINS", "*")),
		MaxFrameSize:   int64(getInt("MAX_FRAME_SIZE", defaultMaxFrameSize)),
		RateLimit: RateLimitConfig{
			Limit:        getInt("RATE_LIMIT_COUNT", 3),
			Window:       getDuration("RATE_LIMIT_WINDOW", 5*time.Second),
			MuteDuration: getDuration("RATE_LIMIT_MUTE", 10*time.Second),
		},
	}
}

// SlogLevel maps LogLevel onto a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}

// getDuration accepts Go duration strings ("5s") or a bare number of milliseconds.
func getDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value = strings.TrimSpace(value)
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d
	}
	if ms, err := strconv.Atoi(value); err == nil && ms > 0 {
		return time.Duration(ms) * time.Millisecond
	}
	return fallback
}

func parseList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
