package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadRateLimitConfigClamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "4")
	t.Setenv("RATE_LIMIT_RENDER_COST", "10")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")
	t.Setenv("RATE_LIMIT_ENABLED", "off")

	c := LoadRateLimitConfig()
	assert.False(t, c.Enabled)
	assert.Equal(t, 4, c.Capacity)
	assert.Equal(t, 4, c.RenderCost)
	assert.Equal(t, 10*time.Second, c.TTL)
	assert.Equal(t, "ip_user", c.KeyStrategy)
}

func TestLoadCacheConfig(t *testing.T) {
	t.Setenv("CACHE_METHODS", " get, head ,")
	t.Setenv("CACHE_TTL", "garbage")

	c := LoadCacheConfig()
	assert.True(t, c.Enabled)
	assert.Equal(t, map[string]bool{"GET": true, "HEAD": true}, c.Methods)
	assert.Equal(t, 30*time.Second, c.TTL)
	assert.Equal(t, "venue-cache", c.Prefix)
}

func TestSessionAndCartDefaults(t *testing.T) {
	t.Setenv("SESSION_TTL", "10s")
	t.Setenv("SESSION_CLEANUP_INTERVAL", "1m")
	t.Setenv("CART_TTL", "-5m")

	s := LoadSessionConfig()
	assert.Equal(t, time.Minute, s.TTL)
	assert.Equal(t, 800, s.DefaultWidth)
	assert.Equal(t, 4096, s.MaxWidth)
	assert.Equal(t, 4096, s.MaxHeight)

	t.Setenv("SESSION_MAX_WIDTH", "640")
	t.Setenv("SESSION_MAX_HEIGHT", "-1")
	s = LoadSessionConfig()
	assert.Equal(t, 640, s.MaxWidth)
	assert.Equal(t, 640, s.DefaultWidth)
	assert.Equal(t, 4096, s.MaxHeight)

	assert.Equal(t, 15*time.Minute, LoadCartConfig().TTL)
}

func TestRedisOptionsFromEnv(t *testing.T) {
	t.Setenv("REDIS_ADDR", "cache:6380")
	assert.Equal(t, "cache:6380", RedisOptions().Addr)

	t.Setenv("REDIS_HOST", "redis")
	t.Setenv("REDIS_PORT", "6379")
	t.Setenv("REDIS_DB", "2")
	opts := RedisOptions()
	assert.Equal(t, "redis:6379", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Nil(t, opts.TLSConfig)
}
