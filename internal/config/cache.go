package config

import (
	"strings"
	"time"
)

// CacheConfig defines settings for the response cache middleware that sits
// in front of the venue read endpoints.  When Enabled is false or no Redis
// client is configured, caching is disabled.  Methods lists the HTTP methods
// to cache.  KeyStrategy decides which parts of the request feed the key:
// "route" (path only) or "route_query" (path plus sorted query, needed for
// the render endpoint).  Entries for a venue are dropped when a seat status
// changes, so TTL only bounds staleness for out-of-band edits.
type CacheConfig struct {
	Enabled      bool
	Methods      map[string]bool
	TTL          time.Duration
	KeyStrategy  string
	Prefix       string
	MaxBodyBytes int
}

// LoadCacheConfig reads CACHE_* variables.  All methods are upper-cased.
func LoadCacheConfig() CacheConfig {
	c := CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		Methods:      parseMethods(envStr("CACHE_METHODS", "GET")),
		TTL:          envDur("CACHE_TTL", 30*time.Second),
		KeyStrategy:  envStr("CACHE_KEY_STRATEGY", "route_query"),
		Prefix:       envStr("CACHE_PREFIX", "venue-cache"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 4<<20), // PNG frames can be large
	}
	if c.TTL <= 0 {
		c.TTL = time.Second
	}
	if c.MaxBodyBytes < 0 {
		c.MaxBodyBytes = 0 // unlimited
	}
	return c
}

func parseMethods(s string) map[string]bool {
	m := map[string]bool{}
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(strings.ToUpper(p))
		if p != "" {
			m[p] = true
		}
	}
	return m
}
