package config

import (
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
    t.Setenv("DB_USER", "catalog")
    t.Setenv("DB_HOST", "db.internal")
    t.Setenv("DB_NAME", "catalog")
    t.Setenv("JWT_SECRET", "s3cret")
}

func TestLoadDefaults(t *testing.T) {
    setRequired(t)
    for _, k := range []string{"APP_ENV", "PORT", "APP_PORT", "SERVER_URL", "DB_PORT", "UPLOAD_BACKEND", "UPLOAD_DIR", "UPLOAD_MAX_BYTES", "PAGE_MAX_LIMIT", "ACCESS_TOKEN_TTL_MIN", "DB_CA_PATH", "AIVEN_CA_PATH"} {
        t.Setenv(k, "")
    }

    cfg, err := Load()
    require.NoError(t, err)
    assert.Equal(t, "5000", cfg.Port)
    assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
    assert.Equal(t, "3306", cfg.DBPort)
    assert.Equal(t, "local", cfg.UploadBackend)
    assert.Equal(t, "uploads", cfg.UploadDir)
    assert.Equal(t, int64(5<<20), cfg.UploadMaxBytes)
    assert.Equal(t, 100, cfg.PageMaxLimit)
    assert.Equal(t, 60, cfg.AccessTTLMin)
    assert.False(t, cfg.IsProd())
}

func TestLoadReportsEveryMissingVar(t *testing.T) {
    for _, k := range []string{"DB_USER", "DB_HOST", "DB_NAME", "JWT_SECRET"} {
        t.Setenv(k, "")
    }
    _, err := Load()
    require.Error(t, err)
    for _, k := range []string{"DB_USER", "DB_HOST", "DB_NAME", "JWT_SECRET"} {
        assert.Contains(t, err.Error(), k)
    }
}

func TestLoadOverrides(t *testing.T) {
    setRequired(t)
    t.Setenv("UPLOAD_BACKEND", "")
    t.Setenv("SERVER_URL", "https://api.example.com/")
    t.Setenv("DB_CA_PATH", "")
    t.Setenv("AIVEN_CA_PATH", "/etc/ca.pem")
    t.Setenv("PAGE_MAX_LIMIT", "0")
    t.Setenv("APP_ENV", "production")

    cfg, err := Load()
    require.NoError(t, err)
    assert.Equal(t, "https://api.example.com", cfg.BaseURL)
    assert.Equal(t, "/etc/ca.pem", cfg.DBCAPath)
    assert.Equal(t, 0, cfg.PageMaxLimit)
    assert.True(t, cfg.IsProd())
}

func TestLoadUploadBackend(t *testing.T) {
    setRequired(t)
    t.Setenv("UPLOAD_BACKEND", "gcs")
    t.Setenv("GCS_BUCKET", "")
    _, err := Load()
    assert.ErrorContains(t, err, "GCS_BUCKET")

    t.Setenv("GCS_BUCKET", "posters")
    cfg, err := Load()
    require.NoError(t, err)
    assert.Equal(t, "gcs", cfg.UploadBackend)

    t.Setenv("UPLOAD_BACKEND", "ftp")
    _, err = Load()
    assert.Error(t, err)
}

func TestSubConfigs(t *testing.T) {
    t.Setenv("RATE_LIMIT_BURST", "5")
    t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "")
    t.Setenv("RATE_LIMIT_TTL", "1s")
    rl := LoadRateLimitConfig()
    assert.Equal(t, 5, rl.Capacity)
    assert.Equal(t, 5*time.Second, rl.TTL, "ttl is raised to five refill intervals")

    t.Setenv("CACHE_METHODS", "get, head")
    assert.Equal(t, map[string]bool{"GET": true, "HEAD": true}, LoadCacheConfig().Methods)

    t.Setenv("RABBITMQ_URL", "")
    t.Setenv("AMQP_URL", "amqp://u:p@mq:5672/")
    ev := LoadEventsConfig()
    assert.Equal(t, "amqp://u:p@mq:5672/", ev.URL)
    assert.Equal(t, "catalog.events", ev.Queue)

    t.Setenv("SWEEP_GRACE", "2h")
    assert.Equal(t, 2*time.Hour, LoadSweepConfig().Grace)

    t.Setenv("REDIS_HOST", "cache")
    t.Setenv("REDIS_PORT", "6380")
    assert.Equal(t, "cache:6380", LoadRedisConfig().Addr)
}
