package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BindAddr != ":8080" {
		t.Fatalf("BindAddr = %q", cfg.BindAddr)
	}
	if cfg.LLMProvider != "auto" {
		t.Fatalf("LLMProvider = %q", cfg.LLMProvider)
	}
	if cfg.SQLDefaultLimit != 50 || cfg.SQLMaxLimit != 1000 {
		t.Fatalf("SQL limits = %d/%d", cfg.SQLDefaultLimit, cfg.SQLMaxLimit)
	}
	if cfg.CompressThreshold != 10 || cfg.KeepRecentTurns != 10 || cfg.RecentTurnWindow != 5 {
		t.Fatalf("context settings = %d/%d/%d", cfg.CompressThreshold, cfg.KeepRecentTurns, cfg.RecentTurnWindow)
	}
	if cfg.ResultCacheTTL != 120*time.Second {
		t.Fatalf("ResultCacheTTL = %v", cfg.ResultCacheTTL)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("APP_BIND_ADDR", ":9999")
	t.Setenv("SQL_DEFAULT_LIMIT", "25")
	t.Setenv("RESULT_CACHE_TTL", "45s")
	t.Setenv("DATABASE_URL", " postgres://localhost/chat ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BindAddr != ":9999" {
		t.Fatalf("BindAddr = %q", cfg.BindAddr)
	}
	if cfg.SQLDefaultLimit != 25 {
		t.Fatalf("SQLDefaultLimit = %d", cfg.SQLDefaultLimit)
	}
	if cfg.ResultCacheTTL != 45*time.Second {
		t.Fatalf("ResultCacheTTL = %v", cfg.ResultCacheTTL)
	}
	if cfg.DatabaseURL != "postgres://localhost/chat" {
		t.Fatalf("DatabaseURL = %q, want trimmed", cfg.DatabaseURL)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := []struct {
		key   string
		value string
	}{
		{"SQL_DEFAULT_LIMIT", "0"},
		{"SQL_DEFAULT_LIMIT", "5000"},
		{"SQL_MAX_LIMIT", "not-a-number"},
		{"CHAT_RECENT_TURNS", "-1"},
		{"CHAT_COMPRESS_THRESHOLD", "0"},
		{"CHAT_COMPRESS_THRESHOLD", "5"},
		{"CHAT_KEEP_RECENT", "15"},
		{"RESULT_CACHE_TTL", "two minutes"},
		{"SESSION_IDLE_TIMEOUT", "1s"},
	}
	for _, tc := range cases {
		t.Run(tc.key+"="+tc.value, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			if _, err := Load(); err == nil {
				t.Fatalf("Load() accepted %s=%s", tc.key, tc.value)
			}
		})
	}
}
