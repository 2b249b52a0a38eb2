package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 500*time.Millisecond, cfg.Progress.PollInterval)
	assert.Equal(t, 3*time.Second, cfg.Progress.ClearDelay)
	assert.Equal(t, 500, cfg.Progress.WordThreshold)
	assert.Equal(t, 7*24*time.Hour, cfg.Session.TTL)
	assert.False(t, cfg.Session.Secure)
	assert.Equal(t, "/api/v1/ai-config/progress", cfg.Backend.ProgressPath)
	assert.False(t, cfg.HTTP.TrustProxy)
	assert.Equal(t, 600, cfg.RateLimit.AdminLimit)
}

func TestLoad_ProductionMakesCookiesSecure(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.App.IsProduction())
	assert.True(t, cfg.Session.Secure)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("BACKEND_BASE_URL", "https://api.pryve.test/")
	t.Setenv("AI_CONFIG_PROGRESS", "/api/v1/ai-config/upload-progress/")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("PROGRESS_POLL_INTERVAL", "250ms")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.pryve.test", cfg.Backend.BaseURL)
	assert.Equal(t, "/api/v1/ai-config/upload-progress", cfg.Backend.ProgressPath)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 250*time.Millisecond, cfg.Progress.PollInterval)
}

func TestLoad_RejectsNonPositivePollInterval(t *testing.T) {
	t.Setenv("PROGRESS_POLL_INTERVAL", "0s")

	_, err := Load()
	assert.Error(t, err)
}
