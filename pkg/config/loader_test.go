package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()

	t.Setenv("APP_ENV", "test")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("MY_CHAT_ID", "4242")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("DATA_FILE", "/tmp/meals.json")
}

func TestLoadFrom_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, _, err := LoadFrom(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.AppEnv)
	assert.Equal(t, "123:abc", cfg.Bot.Token)
	assert.Equal(t, int64(4242), cfg.Bot.AuthorizedID)
	assert.Equal(t, "polling", cfg.Bot.Mode)
	assert.Equal(t, 10*time.Second, cfg.Bot.Timeout)
	assert.Equal(t, "sk-test", cfg.Matcher.APIKey)
	assert.Equal(t, "gpt-4o-mini", cfg.Matcher.Model)
	assert.Equal(t, 1000, cfg.Matcher.MaxTokens)
	assert.Equal(t, "/tmp/meals.json", cfg.Store.DataFile)
	assert.Equal(t, "file", cfg.Store.Driver)
	assert.Equal(t, "https://mensa.leonschreiber.de", cfg.Menu.BaseURL)
	assert.Equal(t, 15, cfg.Schedule.Hour)
	assert.Equal(t, 5*time.Hour, cfg.Schedule.MaxDelay)
	assert.Equal(t, "Europe/Berlin", cfg.Schedule.Timezone)
	assert.Equal(t, 6*time.Hour, cfg.Conversation.TTL)
	assert.Equal(t, "test", cfg.Sentry.Environment)
	assert.False(t, cfg.Redis.Enabled)

	loc, err := cfg.Schedule.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", loc.String())
}

func TestLoadFrom_CanonicalEnvNames(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("BOT_TOKEN", "456:def")
	t.Setenv("SCHEDULE_HOUR", "12")
	t.Setenv("SCHEDULE_MAX_DELAY", "30m")
	t.Setenv("BOT_LANGUAGE", "de")

	cfg, _, err := LoadFrom(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "456:def", cfg.Bot.Token)
	assert.Equal(t, 12, cfg.Schedule.Hour)
	assert.Equal(t, 30*time.Minute, cfg.Schedule.MaxDelay)
	assert.Equal(t, "de", cfg.Bot.Language)
}

func TestLoadFrom_File(t *testing.T) {
	setRequiredEnv(t)
	dir := t.TempDir()
	yaml := `
bot:
  mode: polling
logger:
  level: debug
  format: text
redis:
  enabled: true
  addr: redis:6379
schedule:
  hour: 14
  timezone: UTC
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "test.yaml"), []byte(yaml), 0o644))

	cfg, v, err := LoadFrom(dir)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "text", cfg.Logger.Format)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, 14, cfg.Schedule.Hour)
	assert.Equal(t, "UTC", cfg.Schedule.Timezone)
	assert.Equal(t, filepath.Join(dir, "test.yaml"), v.ConfigFileUsed())
}

func TestLoadFrom_MissingRequired(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("MY_CHAT_ID", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("DATA_FILE", "")

	_, _, err := LoadFrom(t.TempDir())
	require.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, "missing required setting bot.token (env TELEGRAM_BOT_TOKEN)")
	assert.Contains(t, msg, "missing required setting bot.authorized_id (env MY_CHAT_ID)")
	assert.Contains(t, msg, "missing required setting matcher.api_key (env OPENAI_API_KEY)")
	assert.Contains(t, msg, "missing required setting store.data_file (env DATA_FILE)")
}

func TestLoadFrom_InvalidValues(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SCHEDULE_HOUR", "25")
	t.Setenv("BOT_MODE", "carrier-pigeon")

	_, _, err := LoadFrom(t.TempDir())
	require.Error(t, err)

	assert.Contains(t, err.Error(), "invalid setting schedule.hour=25")
	assert.Contains(t, err.Error(), "(env SCHEDULE_HOUR)")
	assert.Contains(t, err.Error(), "invalid setting bot.mode=carrier-pigeon")
}

func TestLoadFrom_PostgresNeedsDSN(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DATA_FILE", "")
	t.Setenv("STORE_DRIVER", "postgres")

	_, _, err := LoadFrom(t.TempDir())
	require.Error(t, err)

	assert.Contains(t, err.Error(), "missing required setting store.dsn (env STORE_DSN)")
	assert.NotContains(t, err.Error(), "store.data_file")
}

func TestWatchLogLevel_NoFile(t *testing.T) {
	setRequiredEnv(t)

	_, v, err := LoadFrom(t.TempDir())
	require.NoError(t, err)

	assert.False(t, WatchLogLevel(v, func(string) {}))
}
