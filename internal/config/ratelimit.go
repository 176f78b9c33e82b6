package config

import "time"

// RateLimitConfig configures the Redis token bucket in front of the API.
// Every request takes one token except raster frames, which take
// RenderCost because PNG encoding dominates server CPU.  Pointer events
// arrive in batches, so Capacity allows short bursts while Refill tops the
// bucket up every RefillInterval.
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int // bucket size
	RefillTokens   int // tokens added per interval
	RefillInterval time.Duration
	RenderCost     int           // tokens taken by a format=png render or frame
	TTL            time.Duration // idle buckets expire after this
	KeyStrategy    string        // ip, user or ip_user
	Prefix         string
	Debug          bool          // exposes X-RateLimit-Key and logs blocks
}

// LoadRateLimitConfig reads RATE_LIMIT_* variables with defaults.
func LoadRateLimitConfig() RateLimitConfig {
	c := RateLimitConfig{
		Enabled:        envBool("RATE_LIMIT_ENABLED", true),
		Capacity:       envInt("RATE_LIMIT_CAPACITY", 120),
		RefillTokens:   envInt("RATE_LIMIT_REFILL_TOKENS", 20),
		RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", time.Second),
		RenderCost:     envInt("RATE_LIMIT_RENDER_COST", 5),
		TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
		KeyStrategy:    envStr("RATE_LIMIT_KEY_STRATEGY", "ip_user"),
		Prefix:         envStr("RATE_LIMIT_PREFIX", "seatmap-rl"),
		Debug:          envBool("RATE_LIMIT_DEBUG", false),
	}
	if c.Capacity < 1 {
		c.Capacity = 1
	}
	if c.RefillTokens < 1 {
		c.RefillTokens = 1
	}
	if c.RefillInterval <= 0 {
		c.RefillInterval = time.Second
	}
	if c.RenderCost < 1 {
		c.RenderCost = 1
	}
	if c.RenderCost > c.Capacity {
		c.RenderCost = c.Capacity // a full bucket must always admit one frame
	}
	if min := 5 * c.RefillInterval; c.TTL < min {
		c.TTL = min
	}
	return c
}
