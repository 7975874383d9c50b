package config

import "time"

// CacheConfig defines settings for the response cache middleware.  Only
// GET requests of read-mostly routes (catalog lookups, dashboard stats) go
// through the cache.  When Enabled is false or no Redis client is
// available, caching is disabled.
type CacheConfig struct {
    Enabled      bool
    TTL          time.Duration
    KeyStrategy  string // "route" or "route_query"
    Prefix       string
    MaxBodyBytes int
}

// LoadCacheConfig reads the CACHE_* variables.
func LoadCacheConfig() CacheConfig {
    cfg := CacheConfig{
        Enabled:      envBool("CACHE_ENABLED", true),
        TTL:          envDur("CACHE_TTL", 15*time.Second),
        KeyStrategy:  envStr("CACHE_KEY_STRATEGY", "route_query"),
        Prefix:       envStr("CACHE_PREFIX", "spaces:cache"),
        MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
    }
    if cfg.TTL <= 0 {
        cfg.TTL = 15 * time.Second
    }
    return cfg
}
