package config // package config loads application configuration from environment variables and the backend file

import (
    "log"
    "os"
    "strconv"
    "time"
)

// Config holds the process settings read from the environment.  Storage
// settings live in the backend file instead; see BackendConfig.
type Config struct {
    Env           string        // application environment (e.g. "dev", "prod")
    Port          string        // HTTP port to listen on
    JWTSecret     string        // secret used to verify (and mint) access tokens
    AccessTTLMin  int           // access token time-to-live in minutes
    ConfigFile    string        // path of the backend selection file
    AMQPURL       string        // RabbitMQ URL; empty disables event publishing
    Timezone      string        // IANA zone used for "today" and "now"
    DashboardCron string        // cron spec of the dashboard refresh
    FinishCron    string        // cron spec of the finish-past-reservations job
    ShutdownWait  time.Duration // grace period for in-flight requests
}

// Load reads the process settings.  Required variables are enforced by
// must() and missing values stop the program.
func Load() Config {
    return Config{
        Env:           envStr("APP_ENV", "dev"),
        Port:          must("APP_PORT"),
        JWTSecret:     must("JWT_SECRET"),
        AccessTTLMin:  envInt("ACCESS_TOKEN_TTL_MIN", 60),
        ConfigFile:    envStr("CONFIG_FILE", "config.json"),
        AMQPURL:       amqpURL(),
        Timezone:      envStr("APP_TIMEZONE", "Local"),
        DashboardCron: envStr("DASHBOARD_REFRESH", "@every 30s"),
        FinishCron:    envStr("FINISH_RESERVATIONS_CRON", "@every 5m"),
        ShutdownWait:  envDur("SHUTDOWN_TIMEOUT", 10*time.Second),
    }
}

// Location resolves Timezone, falling back to time.Local.
func (c Config) Location() *time.Location {
    if c.Timezone == "" || c.Timezone == "Local" {
        return time.Local
    }
    loc, err := time.LoadLocation(c.Timezone)
    if err != nil {
        log.Printf("config: unknown APP_TIMEZONE %q, using local time", c.Timezone)
        return time.Local
    }
    return loc
}

// amqpURL accepts RABBITMQ_URL or AMQP_URL.
func amqpURL() string {
    if v := os.Getenv("RABBITMQ_URL"); v != "" {
        return v
    }
    return os.Getenv("AMQP_URL")
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}

func envStr(k, d string) string {
    if v := os.Getenv(k); v != "" {
        return v
    }
    return d
}

func envBool(k string, d bool) bool {
    v := os.Getenv(k)
    if v == "" {
        return d
    }
    switch v {
    case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
        return true
    case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
        return false
    }
    return d
}

func envInt(k string, d int) int {
    v := os.Getenv(k)
    if v == "" {
        return d
    }
    if n, err := strconv.Atoi(v); err == nil {
        return n
    }
    return d
}

func envFloat(k string, d float64) float64 {
    v := os.Getenv(k)
    if v == "" {
        return d
    }
    if f, err := strconv.ParseFloat(v, 64); err == nil {
        return f
    }
    return d
}

func envDur(k string, d time.Duration) time.Duration {
    v := os.Getenv(k)
    if v == "" {
        return d
    }
    if dur, err := time.ParseDuration(v); err == nil {
        return dur
    }
    return d
}
