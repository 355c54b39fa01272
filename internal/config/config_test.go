package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadEmptyNumbersUseDefaults(t *testing.T) {
	t.Setenv("GO_ENV", "production")
	for _, key := range []string{"HISTORY_LIMIT", "RATE_LIMIT_COUNT", "RATE_LIMIT_WINDOW", "RATE_LIMIT_MUTE", "MAX_FRAME_SIZE"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.HistoryLimit != defaultHistoryLimit {
		t.Errorf("HistoryLimit = %d, want %d", cfg.HistoryLimit, defaultHistoryLimit)
	}
	if cfg.RateLimit.Limit != 3 || cfg.RateLimit.Window != 5*time.Second || cfg.RateLimit.MuteDuration != 10*time.Second {
		t.Errorf("unexpected rate limit defaults: %+v", cfg.RateLimit)
	}
	if cfg.MaxFrameSize != defaultMaxFrameSize {
		t.Errorf("MaxFrameSize = %d, want %d", cfg.MaxFrameSize, defaultMaxFrameSize)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("GO_ENV", "production")
	t.Setenv("PORT", "9000")
	t.Setenv("HISTORY_LIMIT", "100")
	t.Setenv("ALLOWED_ORIGINS", " http://a.test , ,http://b.test")
	t.Setenv("RATE_LIMIT_COUNT", "4")
	t.Setenv("RATE_LIMIT_WINDOW", "4000")
	t.Setenv("RATE_LIMIT_MUTE", "30s")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg := Load()

	if cfg.Port != "9000" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.HistoryLimit != 100 {
		t.Errorf("HistoryLimit = %d", cfg.HistoryLimit)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[0] != "http://a.test" || cfg.AllowedOrigins[1] != "http://b.test" {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
	if cfg.RateLimit.Limit != 4 {
		t.Errorf("Limit = %d", cfg.RateLimit.Limit)
	}
	if cfg.RateLimit.Window != 4*time.Second {
		t.Errorf("Window = %s", cfg.RateLimit.Window)
	}
	if cfg.RateLimit.MuteDuration != 30*time.Second {
		t.Errorf("MuteDuration = %s", cfg.RateLimit.MuteDuration)
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Errorf("SlogLevel = %v", cfg.SlogLevel())
	}
}

func TestLoadInvalidNumbersFallBack(t *testing.T) {
	t.Setenv("GO_ENV", "production")
	t.Setenv("HISTORY_LIMIT", "-5")
	t.Setenv("RATE_LIMIT_WINDOW", "soon")

	cfg := Load()

	if cfg.HistoryLimit != defaultHistoryLimit {
		t.Errorf("HistoryLimit = %d, want default", cfg.HistoryLimit)
	}
	if cfg.RateLimit.Window != 5*time.Second {
		t.Errorf("Window = %s, want default", cfg.RateLimit.Window)
	}
}
