// Package config loads terminal configuration from the environment,
// with an optional .env file for local development.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"trading-terminal/internal/model"
)

// Config holds all application configuration. Fields are populated from
// TERMINAL_* environment variables.
type Config struct {
	// Watchlist is a comma-separated symbol list.
	Watchlist string `envconfig:"WATCHLIST" default:"AAPL,MSFT,GOOGL,BTC-USD,ETH-USD"`

	// Interval is the bar interval the terminal trades on ("1m".."1d").
	Interval string `envconfig:"INTERVAL" default:"5m"`

	// Loop timing
	TickEvery time.Duration `envconfig:"TICK_EVERY" default:"5s"`
	ScanEvery time.Duration `envconfig:"SCAN_EVERY" default:"60s"`

	// Lookback is how many sealed bars to seed and scan over.
	Lookback int `envconfig:"LOOKBACK" default:"300"`

	// Trade lifecycle
	MaxHold     time.Duration `envconfig:"MAX_HOLD" default:"4h"`
	SessionExit bool          `envconfig:"SESSION_EXIT" default:"true"`
	SkipClosed  bool          `envconfig:"SKIP_CLOSED" default:"false"`

	// Strategies is a comma-separated strategy key filter. Empty runs all.
	Strategies string `envconfig:"STRATEGIES" default:""`

	// Feed selects the price source: "sim" or "ws".
	Feed    string `envconfig:"FEED" default:"sim"`
	FeedURL string `envconfig:"FEED_URL" default:"ws://localhost:9001/ws"`

	// Simulator tuning (Feed == "sim")
	SimBasePrice float64 `envconfig:"SIM_BASE_PRICE" default:"100"`
	SimVol       float64 `envconfig:"SIM_VOL" default:"0.002"`

	// Infrastructure
	RedisEnabled  bool   `envconfig:"REDIS_ENABLED" default:"true"`
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	SQLiteEnabled bool   `envconfig:"SQLITE_ENABLED" default:"true"`
	SQLitePath    string `envconfig:"SQLITE_PATH" default:"data/terminal.db"`

	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9090"`

	// Alerting. Alerts always log; Telegram/webhook fire when configured.
	AlertsEnabled    bool   `envconfig:"ALERTS_ENABLED" default:"true"`
	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN" default:""`
	TelegramChatID   string `envconfig:"TELEGRAM_CHAT_ID" default:""`
	AlertWebhookURL  string `envconfig:"ALERT_WEBHOOK_URL" default:""`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads .env (if present) and the TERMINAL_* environment variables.
func Load() (*Config, error) {
	// .env is a development convenience; absence is not an error.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("terminal", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if _, err := model.ParseInterval(c.Interval); err != nil {
		return fmt.Errorf("config: TERMINAL_INTERVAL: %w", err)
	}
	switch c.Feed {
	case "sim", "ws":
	default:
		return fmt.Errorf("config: TERMINAL_FEED must be sim or ws, got %q", c.Feed)
	}
	if c.TickEvery <= 0 || c.ScanEvery <= 0 {
		return fmt.Errorf("config: tick/scan periods must be positive")
	}
	if strings.TrimSpace(c.Watchlist) == "" {
		return fmt.Errorf("config: TERMINAL_WATCHLIST must not be empty")
	}
	return nil
}

// BarInterval returns the parsed trading interval.
func (c *Config) BarInterval() model.Interval {
	iv, _ := model.ParseInterval(c.Interval)
	return iv
}

// StrategyKeys returns the configured strategy filter, nil for "run all".
func (c *Config) StrategyKeys() []string {
	s := strings.TrimSpace(c.Strategies)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	keys := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			keys = append(keys, p)
		}
	}
	return keys
}

// SlogLevel maps LogLevel onto a slog.Level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
