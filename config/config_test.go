package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, 200, cfg.Feed.ListLimit)
	assert.Equal(t, 20, cfg.Feed.PageSize)
	assert.Equal(t, 24*time.Hour, cfg.Feed.ListTTL)
	assert.Equal(t, 1000, cfg.Fanout.BatchSize)
	assert.Equal(t, time.Hour, cfg.Fanout.TimeLimit)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("FEED_LIST_LIMIT", "20")
	t.Setenv("FEED_PAGE_SIZE", "10")
	t.Setenv("FANOUT_BATCH_SIZE", "2")
	t.Setenv("FANOUT_TIME_LIMIT", "90s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 20, cfg.Feed.ListLimit)
	assert.Equal(t, 10, cfg.Feed.PageSize)
	assert.Equal(t, 2, cfg.Fanout.BatchSize)
	assert.Equal(t, 90*time.Second, cfg.Fanout.TimeLimit)
}

func TestLoadRejectsPageLargerThanWindow(t *testing.T) {
	t.Setenv("FEED_LIST_LIMIT", "5")
	t.Setenv("FEED_PAGE_SIZE", "10")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FEED_LIST_LIMIT")
}
