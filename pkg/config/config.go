package config

import "time"

// Config holds runtime configuration for the mensa bot.
type Config struct {
	AppEnv       string             `mapstructure:"app_env"`
	Bot          BotConfig          `mapstructure:"bot"`
	Logger       LoggerConfig       `mapstructure:"logger"`
	Sentry       SentryConfig       `mapstructure:"sentry"`
	Server       ServerConfig       `mapstructure:"server"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Menu         MenuConfig         `mapstructure:"menu"`
	Matcher      MatcherConfig      `mapstructure:"matcher"`
	Store        StoreConfig        `mapstructure:"store"`
	Schedule     ScheduleConfig     `mapstructure:"schedule"`
	Conversation ConversationConfig `mapstructure:"conversation"`
	RateLimit    RateLimitConfig    `mapstructure:"rate_limit"`
}

// BotConfig configures the Telegram connection.
type BotConfig struct {
	Token         string        `mapstructure:"token" validate:"required"`
	Mode          string        `mapstructure:"mode" validate:"oneof=polling webhook"`
	Timeout       time.Duration `mapstructure:"timeout" validate:"gt=0"`
	WebhookListen string        `mapstructure:"webhook_listen" validate:"required_if=Mode webhook"`
	WebhookURL    string        `mapstructure:"webhook_url" validate:"required_if=Mode webhook"`
	AuthorizedID  int64         `mapstructure:"authorized_id" validate:"required"`
	Language      string        `mapstructure:"language" validate:"oneof=en de"`
}

// LoggerConfig configures log output and rotation.
type LoggerConfig struct {
	Level      string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format     string `mapstructure:"format" validate:"oneof=json text"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `mapstructure:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `mapstructure:"max_age_days" validate:"gte=0"`
	Compress   bool   `mapstructure:"compress"`
}

// SentryConfig configures error reporting.
type SentryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	DSN         string `mapstructure:"dsn" validate:"required_if=Enabled true"`
	Environment string `mapstructure:"environment"`
}

// ServerConfig configures the HTTP side server exposing metrics and health.
type ServerConfig struct {
	Port            string        `mapstructure:"port" validate:"required"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// RedisConfig configures the optional Redis connection.
type RedisConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Addr            string        `mapstructure:"addr" validate:"required_if=Enabled true"`
	Password        string        `mapstructure:"password"`
	DB              int           `mapstructure:"db" validate:"gte=0"`
	PoolSize        int           `mapstructure:"pool_size" validate:"gte=0"`
	MinIdleConns    int           `mapstructure:"min_idle_conns" validate:"gte=0"`
	PoolTimeout     time.Duration `mapstructure:"pool_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	MaxRetries      int           `mapstructure:"max_retries"`
	MinRetryBackoff time.Duration `mapstructure:"min_retry_backoff"`
	MaxRetryBackoff time.Duration `mapstructure:"max_retry_backoff"`
}

// MenuConfig configures the remote menu API.
type MenuConfig struct {
	BaseURL string        `mapstructure:"base_url" validate:"required,url"`
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

// MatcherConfig configures the language model used for matching.
type MatcherConfig struct {
	APIKey    string        `mapstructure:"api_key" validate:"required"`
	BaseURL   string        `mapstructure:"base_url" validate:"omitempty,url"`
	Model     string        `mapstructure:"model" validate:"required"`
	MaxTokens int           `mapstructure:"max_tokens" validate:"gt=0"`
	Timeout   time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

// StoreConfig selects and configures the record store.
type StoreConfig struct {
	Driver        string `mapstructure:"driver" validate:"oneof=file postgres"`
	DataFile      string `mapstructure:"data_file" validate:"required_if=Driver file"`
	DSN           string `mapstructure:"dsn" validate:"required_if=Driver postgres"`
	MigrationsDir string `mapstructure:"migrations_dir"`
}

// ScheduleConfig configures the daily prompt.
type ScheduleConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Hour     int           `mapstructure:"hour" validate:"gte=0,lte=23"`
	MaxDelay time.Duration `mapstructure:"max_delay" validate:"gte=0"`
	Timezone string        `mapstructure:"timezone" validate:"required,timezone"`
}

// ConversationConfig configures expiry of abandoned conversations.
type ConversationConfig struct {
	TTL             time.Duration `mapstructure:"ttl" validate:"gte=0"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval" validate:"gte=0"`
}

// RateLimitConfig configures the per-user limit on inbound updates.
type RateLimitConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Limit   int           `mapstructure:"limit" validate:"required_if=Enabled true,gte=0"`
	Window  time.Duration `mapstructure:"window" validate:"required_if=Enabled true,gte=0"`
}

// Location resolves the schedule time zone.
func (c ScheduleConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

var defaults = map[string]any{
	"app_env": "development",

	"bot.mode":           "polling",
	"bot.timeout":        "10s",
	"bot.webhook_listen": ":8443",
	"bot.webhook_url":    "",
	"bot.token":          "",
	"bot.authorized_id":  0,
	"bot.language":       "en",

	"logger.level":        "info",
	"logger.format":       "json",
	"logger.file":         "",
	"logger.max_size_mb":  50,
	"logger.max_backups":  3,
	"logger.max_age_days": 28,
	"logger.compress":     true,

	"sentry.enabled":     false,
	"sentry.dsn":         "",
	"sentry.environment": "",

	"server.port":             ":8080",
	"server.shutdown_timeout": "10s",

	"redis.enabled":           false,
	"redis.addr":              "localhost:6379",
	"redis.password":          "",
	"redis.db":                0,
	"redis.pool_size":         10,
	"redis.min_idle_conns":    2,
	"redis.pool_timeout":      "4s",
	"redis.idle_timeout":      "5m",
	"redis.max_retries":       3,
	"redis.min_retry_backoff": "8ms",
	"redis.max_retry_backoff": "512ms",

	"menu.base_url": "https://mensa.leonschreiber.de",
	"menu.timeout":  "10s",

	"matcher.api_key":    "",
	"matcher.base_url":   "",
	"matcher.model":      "gpt-4o-mini",
	"matcher.max_tokens": 1000,
	"matcher.timeout":    "30s",

	"store.driver":         "file",
	"store.data_file":      "",
	"store.dsn":            "",
	"store.migrations_dir": "migrations",

	"schedule.enabled":   true,
	"schedule.hour":      15,
	"schedule.max_delay": "5h",
	"schedule.timezone":  "Europe/Berlin",

	"conversation.ttl":              "6h",
	"conversation.cleanup_interval": "10m",

	"rate_limit.enabled": true,
	"rate_limit.limit":   20,
	"rate_limit.window":  "1m",
}

// envAliases keeps the environment variable names of earlier deployments working.
var envAliases = map[string]string{
	"bot.token":         "TELEGRAM_BOT_TOKEN",
	"bot.authorized_id": "MY_CHAT_ID",
	"store.data_file":   "DATA_FILE",
	"matcher.api_key":   "OPENAI_API_KEY",
}
