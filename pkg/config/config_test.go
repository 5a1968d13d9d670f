package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "test-token")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "test-token", cfg.DiscordToken)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "bgman.sqlite", cfg.DBDSN)
	assert.Equal(t, "https://boardgamegeek.com/xmlapi2", cfg.BGGBaseURL)
	assert.Equal(t, 30*time.Second, cfg.SelectTimeout)
	assert.Equal(t, 30*time.Second, cfg.ConfirmTimeout)
	assert.Equal(t, 60*time.Second, cfg.PagingTimeout)
	assert.Equal(t, 10*time.Minute, cfg.DetailsCacheTTL)
	assert.Empty(t, cfg.RedisAddr)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "test-token")
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("DB_DSN", "root:root@tcp(127.0.0.1:3306)/bgman")
	t.Setenv("SELECT_TIMEOUT", "5s")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.Equal(t, "root:root@tcp(127.0.0.1:3306)/bgman", cfg.DBDSN)
	assert.Equal(t, 5*time.Second, cfg.SelectTimeout)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
}

func TestLoadMissingToken(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "")

	_, err := Load()
	require.Error(t, err)
}
