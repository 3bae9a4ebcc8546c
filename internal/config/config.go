package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the chat query service.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string

	// DatabaseURL backs the turn/summary store; empty falls back to memory.
	DatabaseURL string
	// EmployeeDatabaseURL backs the queried dataset; empty uses a mock.
	EmployeeDatabaseURL string

	LLMProvider        string
	OpenRouterBaseURL  string
	OpenRouterAPIKey   string
	OpenRouterModel    string
	AnthropicModel     string
	AnthropicMaxTokens int

	RecentTurnWindow  int
	CompressThreshold int
	KeepRecentTurns   int

	SQLDefaultLimit int
	SQLMaxLimit     int

	ResultCacheTTL     time.Duration
	SessionIdleTimeout time.Duration
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:            envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace:    envOrDefault("APP_METRICS_NAMESPACE", "staffql"),
		DatabaseURL:         trimmedEnv("DATABASE_URL"),
		EmployeeDatabaseURL: trimmedEnv("EMPLOYEE_DATABASE_URL"),
		LLMProvider:         envOrDefault("LLM_PROVIDER", "auto"),
		OpenRouterBaseURL:   envOrDefault("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		OpenRouterAPIKey:    trimmedEnv("OPENROUTER_API_KEY"),
		OpenRouterModel:     envOrDefault("OPENROUTER_MODEL", "openai/gpt-oss-20b:free"),
		AnthropicModel:      envOrDefault("ANTHROPIC_MODEL", "claude-3-5-haiku-latest"),
		AnthropicMaxTokens:  1024,
		RecentTurnWindow:    5,
		CompressThreshold:   10,
		KeepRecentTurns:     10,
		SQLDefaultLimit:     50,
		SQLMaxLimit:         1000,
		ShutdownTimeout:     15 * time.Second,
		ResultCacheTTL:      120 * time.Second,
		SessionIdleTimeout:  10 * time.Minute,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.ResultCacheTTL, err = durationFromEnv("RESULT_CACHE_TTL", cfg.ResultCacheTTL)
	if err != nil {
		return Config{}, err
	}
	cfg.SessionIdleTimeout, err = durationFromEnv("SESSION_IDLE_TIMEOUT", cfg.SessionIdleTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.AnthropicMaxTokens, err = intFromEnv("ANTHROPIC_MAX_TOKENS", cfg.AnthropicMaxTokens)
	if err != nil {
		return Config{}, err
	}
	cfg.RecentTurnWindow, err = intFromEnv("CHAT_RECENT_TURNS", cfg.RecentTurnWindow)
	if err != nil {
		return Config{}, err
	}
	cfg.CompressThreshold, err = intFromEnv("CHAT_COMPRESS_THRESHOLD", cfg.CompressThreshold)
	if err != nil {
		return Config{}, err
	}
	cfg.KeepRecentTurns, err = intFromEnv("CHAT_KEEP_RECENT", cfg.KeepRecentTurns)
	if err != nil {
		return Config{}, err
	}
	cfg.SQLDefaultLimit, err = intFromEnv("SQL_DEFAULT_LIMIT", cfg.SQLDefaultLimit)
	if err != nil {
		return Config{}, err
	}
	cfg.SQLMaxLimit, err = intFromEnv("SQL_MAX_LIMIT", cfg.SQLMaxLimit)
	if err != nil {
		return Config{}, err
	}

	if cfg.RecentTurnWindow <= 0 {
		return Config{}, fmt.Errorf("CHAT_RECENT_TURNS must be positive")
	}
	if cfg.CompressThreshold <= 0 {
		return Config{}, fmt.Errorf("CHAT_COMPRESS_THRESHOLD must be positive")
	}
	if cfg.KeepRecentTurns <= 0 {
		return Config{}, fmt.Errorf("CHAT_KEEP_RECENT must be positive")
	}
	if cfg.KeepRecentTurns > cfg.CompressThreshold {
		return Config{}, fmt.Errorf("CHAT_KEEP_RECENT must not exceed CHAT_COMPRESS_THRESHOLD")
	}
	if cfg.SQLDefaultLimit <= 0 || cfg.SQLDefaultLimit > cfg.SQLMaxLimit {
		return Config{}, fmt.Errorf("SQL_DEFAULT_LIMIT must be positive and at most SQL_MAX_LIMIT")
	}
	if cfg.SessionIdleTimeout < 5*time.Second {
		return Config{}, fmt.Errorf("SESSION_IDLE_TIMEOUT must be at least 5s")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func trimmedEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}
