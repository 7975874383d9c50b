package config

import "time"

// RateLimitConfig drives the token bucket middleware.  The bucket lives in
// Redis so every instance shares it; when Redis is unavailable a
// per-process limiter with LocalRate and Capacity takes over.
type RateLimitConfig struct {
    Enabled        bool
    Capacity       int
    RefillTokens   int
    RefillInterval time.Duration
    TTL            time.Duration
    KeyStrategy    string
    Prefix         string
    LocalRate      float64 // tokens per second of the in-process fallback
}

func LoadRateLimitConfig() RateLimitConfig {
    def := RateLimitConfig{
        Enabled:        envBool("RATE_LIMIT_ENABLED", true),
        Capacity:       envInt("RATE_LIMIT_CAPACITY", 60),
        RefillTokens:   envInt("RATE_LIMIT_REFILL_TOKENS", 1),
        RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", time.Second),
        TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
        KeyStrategy:    envStr("RATE_LIMIT_KEY_STRATEGY", "ip_user"),
        Prefix:         envStr("RATE_LIMIT_PREFIX", "spaces:rl"),
        LocalRate:      envFloat("RATE_LIMIT_LOCAL_RPS", 0),
    }
    if def.Capacity < 1 {
        def.Capacity = 1
    }
    if def.RefillTokens < 1 {
        def.RefillTokens = 1
    }
    if def.RefillInterval <= 0 {
        def.RefillInterval = time.Second
    }
    if def.LocalRate <= 0 {
        def.LocalRate = float64(def.RefillTokens) / def.RefillInterval.Seconds()
    }
    if minTTL := 5 * def.RefillInterval; def.TTL < minTTL {
        def.TTL = minTTL
    }
    return def
}
