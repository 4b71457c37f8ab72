// Package config provides configuration management for the stock tracking application.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Monitor       MonitorConfig      `mapstructure:"monitor"`
	Cache         CacheConfig        `mapstructure:"cache"`
	Providers     ProviderConfig     `mapstructure:"providers"`
	Advisor       AdvisorConfig      `mapstructure:"advisor"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Web           WebConfig          `mapstructure:"web"`
	Storage       StorageConfig      `mapstructure:"storage"`
	Logging       LoggingConfig      `mapstructure:"logging"`
}

// MonitorConfig holds alert monitor configuration.
type MonitorConfig struct {
	ThresholdPercent float64 `mapstructure:"threshold_percent"`
	IntervalMinutes  int     `mapstructure:"interval_minutes"`
	HistorySyncHour  int     `mapstructure:"history_sync_hour"`
}

// Interval returns the poll interval as a duration.
func (m MonitorConfig) Interval() time.Duration {
	return time.Duration(m.IntervalMinutes) * time.Minute
}

// CacheConfig holds data cache configuration.
type CacheConfig struct {
	QuoteTTLSeconds   int `mapstructure:"quote_ttl_seconds"`
	HistoryTTLSeconds int `mapstructure:"history_ttl_seconds"`
}

// QuoteTTL returns the quote cache TTL as a duration.
func (c CacheConfig) QuoteTTL() time.Duration {
	return time.Duration(c.QuoteTTLSeconds) * time.Second
}

// HistoryTTL returns the history cache TTL as a duration.
func (c CacheConfig) HistoryTTL() time.Duration {
	return time.Duration(c.HistoryTTLSeconds) * time.Second
}

// ProviderConfig holds external data provider configuration.
type ProviderConfig struct {
	YahooEndpoint      string `mapstructure:"yahoo_endpoint"`
	AlphaVantageKey    string `mapstructure:"alpha_vantage_key"`
	RequestTimeoutSecs int    `mapstructure:"request_timeout_seconds"`
}

// RequestTimeout returns the per-request timeout as a duration.
func (p ProviderConfig) RequestTimeout() time.Duration {
	return time.Duration(p.RequestTimeoutSecs) * time.Second
}

// AdvisorConfig holds AI advisor configuration.
type AdvisorConfig struct {
	OpenAIKey string `mapstructure:"openai_key"`
	Model     string `mapstructure:"model"`
	MaxTokens int    `mapstructure:"max_tokens"`
}

// NotificationConfig holds alert delivery configuration.
type NotificationConfig struct {
	Terminal bool           `mapstructure:"terminal"`
	Webhook  WebhookConfig  `mapstructure:"webhook"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

// WebhookConfig holds webhook delivery configuration.
type WebhookConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
}

// TelegramConfig holds Telegram delivery configuration.
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
}

// WebConfig holds the keepalive status server configuration.
type WebConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
}

// StorageConfig holds persistence paths.
type StorageConfig struct {
	DataDir     string `mapstructure:"data_dir"`
	TrackedFile string `mapstructure:"tracked_file"`
	DBPath      string `mapstructure:"db_path"`
}

// TrackedPath returns the full path of the tracked-stocks JSON file.
func (s StorageConfig) TrackedPath() string {
	return filepath.Join(s.DataDir, s.TrackedFile)
}

// DatabasePath returns the full path of the SQLite history database.
func (s StorageConfig) DatabasePath() string {
	return filepath.Join(s.DataDir, s.DBPath)
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
	File    bool   `mapstructure:"file"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/stock-sentry"
	}
	return filepath.Join(home, ".config", "stock-sentry")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory. A missing config
// file produces a template plus defaults; it is never a startup failure.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	setDefaults(v, configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config.toml: %w", err)
		}
		// First run: write a commented template alongside the data dir.
		if werr := writeTemplateConfig(configDir); werr != nil {
			return nil, fmt.Errorf("creating config template: %w", werr)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config.toml: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("monitor.threshold_percent", 2.0)
	v.SetDefault("monitor.interval_minutes", 5)
	v.SetDefault("monitor.history_sync_hour", 22)

	v.SetDefault("cache.quote_ttl_seconds", 60)
	v.SetDefault("cache.history_ttl_seconds", 900)

	v.SetDefault("providers.yahoo_endpoint", "https://query1.finance.yahoo.com")
	v.SetDefault("providers.request_timeout_seconds", 10)

	v.SetDefault("advisor.model", "gpt-4o-mini")
	v.SetDefault("advisor.max_tokens", 800)

	v.SetDefault("notifications.terminal", true)

	v.SetDefault("web.enabled", true)
	v.SetDefault("web.host", "0.0.0.0")
	v.SetDefault("web.port", 5000)

	v.SetDefault("storage.data_dir", filepath.Join(configDir, "data"))
	v.SetDefault("storage.tracked_file", "tracked_stocks.json")
	v.SetDefault("storage.db_path", "sentry.db")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console", true)
	v.SetDefault("logging.file", true)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ALPHA_VANTAGE_API_KEY"); v != "" {
		cfg.Providers.AlphaVantageKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Advisor.OpenAIKey = v
	}
	if v := os.Getenv("PRICE_ALERT_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Monitor.ThresholdPercent = f
		}
	}
	if v := os.Getenv("MONITOR_INTERVAL_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Monitor.IntervalMinutes = n
		}
	}
	if v := os.Getenv("CACHE_TTL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Cache.QuoteTTLSeconds = n
		}
	}
	if v := os.Getenv("WEB_HOST"); v != "" {
		cfg.Web.Host = v
	}
	if v := os.Getenv("WEB_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Web.Port = n
		}
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Notifications.Telegram.BotToken = v
		cfg.Notifications.Telegram.Enabled = true
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Notifications.Telegram.ChatID = v
	}
	if v := os.Getenv("ALERT_WEBHOOK_URL"); v != "" {
		cfg.Notifications.Webhook.URL = v
		cfg.Notifications.Webhook.Enabled = true
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Monitor.ThresholdPercent <= 0 {
		return fmt.Errorf("monitor.threshold_percent must be positive, got %.2f", c.Monitor.ThresholdPercent)
	}
	if c.Monitor.IntervalMinutes < 1 {
		return fmt.Errorf("monitor.interval_minutes must be at least 1, got %d", c.Monitor.IntervalMinutes)
	}
	if c.Cache.QuoteTTLSeconds < 0 {
		return fmt.Errorf("cache.quote_ttl_seconds must be non-negative, got %d", c.Cache.QuoteTTLSeconds)
	}
	if c.Monitor.HistorySyncHour < 0 || c.Monitor.HistorySyncHour > 23 {
		return fmt.Errorf("monitor.history_sync_hour must be between 0 and 23, got %d", c.Monitor.HistorySyncHour)
	}
	if c.Web.Enabled && (c.Web.Port < 1 || c.Web.Port > 65535) {
		return fmt.Errorf("web.port must be a valid port, got %d", c.Web.Port)
	}
	return nil
}

// FallbackEnabled reports whether the Alpha Vantage fallback provider can be
// constructed. Its absence disables the fallback, not the whole system.
func (c *Config) FallbackEnabled() bool {
	return c.Providers.AlphaVantageKey != ""
}

// AdvisorEnabled reports whether the AI advisor can be constructed.
func (c *Config) AdvisorEnabled() bool {
	return c.Advisor.OpenAIKey != ""
}
