package config

import (
    "os"
    "path/filepath"
    "testing"
    "time"
    _ "time/tzdata"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestLoadBackendDefaultsWhenFileMissing(t *testing.T) {
    cfg, err := LoadBackend(filepath.Join(t.TempDir(), "missing.json"))
    require.NoError(t, err)
    assert.Equal(t, "mysql", cfg.Backend)
    assert.Equal(t, "3306", cfg.MySQL.Port)
    assert.Equal(t, "spaces_", cfg.DynamoDB.TablePrefix)
}

func TestLoadBackendFileAndEnvOverride(t *testing.T) {
    path := filepath.Join(t.TempDir(), "config.json")
    require.NoError(t, os.WriteFile(path, []byte(`{
        "backend": "dynamodb",
        "dynamodb": {"region": "sa-east-1", "endpoint": "http://localhost:8000", "table_prefix": "dev_"},
        "mysql": {"host": "db.internal"}
    }`), 0o644))

    cfg, err := LoadBackend(path)
    require.NoError(t, err)
    assert.Equal(t, "dynamodb", cfg.Backend)
    assert.Equal(t, "sa-east-1", cfg.DynamoParams().Region)
    assert.Equal(t, "dev_", cfg.DynamoDB.TablePrefix)
    assert.Equal(t, "db.internal", cfg.MySQLParams().Host)

    t.Setenv("SPACES_BACKEND", "mysql")
    t.Setenv("SPACES_MYSQL_HOST", "override")
    cfg, err = LoadBackend(path)
    require.NoError(t, err)
    assert.Equal(t, "mysql", cfg.Backend)
    assert.Equal(t, "override", cfg.MySQL.Host)
}

func TestSetBackendPersists(t *testing.T) {
    path := filepath.Join(t.TempDir(), "config.json")
    require.NoError(t, SetBackend(path, "DynamoDB"))

    cfg, err := LoadBackend(path)
    require.NoError(t, err)
    assert.Equal(t, "dynamodb", cfg.Backend)

    require.NoError(t, SetBackend(path, "mysql"))
    cfg, err = LoadBackend(path)
    require.NoError(t, err)
    assert.Equal(t, "mysql", cfg.Backend)

    assert.ErrorIs(t, SetBackend(path, "postgres"), ErrUnknownBackend)
}

func TestLoadBackendRejectsUnknown(t *testing.T) {
    path := filepath.Join(t.TempDir(), "config.json")
    require.NoError(t, os.WriteFile(path, []byte(`{"backend": "sqlite"}`), 0o644))
    _, err := LoadBackend(path)
    assert.ErrorIs(t, err, ErrUnknownBackend)
}

func TestRateLimitDefaults(t *testing.T) {
    t.Setenv("RATE_LIMIT_CAPACITY", "0")
    t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "500ms")
    cfg := LoadRateLimitConfig()
    assert.Equal(t, 1, cfg.Capacity)
    assert.InDelta(t, 2.0, cfg.LocalRate, 1e-9)
    assert.Equal(t, 10*time.Minute, cfg.TTL)
}

func TestLocation(t *testing.T) {
    assert.Equal(t, time.Local, Config{}.Location())
    assert.Equal(t, "America/Santiago", Config{Timezone: "America/Santiago"}.Location().String())
}

func TestLoadSchedules(t *testing.T) {
    t.Setenv("APP_PORT", "8080")
    t.Setenv("JWT_SECRET", "secret")
    t.Setenv("DASHBOARD_REFRESH", "@every 1m")
    cfg := Load()
    assert.Equal(t, "@every 1m", cfg.DashboardCron)
    assert.Equal(t, "@every 5m", cfg.FinishCron)
    assert.Equal(t, 10*time.Second, cfg.ShutdownWait)
}
