package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViperDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/isa")
	t.Setenv("SERVICE_TOKEN", "secret")

	cfg, err := FromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "5200", cfg.Port)
	assert.Equal(t, 24*time.Hour, cfg.NotificationTTL)
	assert.Equal(t, time.Hour, cfg.NotificationCleanupInterval)
	assert.Equal(t, 200, cfg.ProjectionBatchSize)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.False(t, cfg.R2Config.Enabled())
}

func TestFromViperEnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/isa")
	t.Setenv("SERVICE_TOKEN", "secret")
	t.Setenv("NOTIFICATION_TTL", "2h")
	t.Setenv("PROJECTION_BATCH_SIZE", "50")
	t.Setenv("R2_BUCKET_NAME", "media")
	t.Setenv("CLOUDFLARE_ACCOUNT_ID", "acc")
	t.Setenv("R2_ACCESS_KEY_ID", "key")

	cfg, err := FromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, 2*time.Hour, cfg.NotificationTTL)
	assert.Equal(t, 50, cfg.ProjectionBatchSize)
	assert.True(t, cfg.R2Config.Enabled())
}

func TestFromViperRequiresDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SERVICE_TOKEN", "secret")

	_, err := FromViper(viper.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestOrigins(t *testing.T) {
	cfg := &Config{AllowedOrigins: " https://a.example , ,https://b.example"}
	assert.Equal(t, "https://a.example,https://b.example", cfg.Origins())
}
