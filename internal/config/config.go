package config // package config loads application configuration from environment variables

import (
    "fmt"
    "os"
    "strings"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
    Env     string // application environment (dev, test, prod)
    Port    string // HTTP port to listen on
    BaseURL string // public base URL used to resolve local poster paths

    DBUser        string // database username
    DBPass        string // database password (optional)
    DBHost        string // database host address
    DBPort        string // database port number
    DBName        string // database name
    DBCAPath      string // optional CA bundle for a TLS database connection
    DBAutoMigrate bool   // run pending migrations at startup

    UploadBackend    string // "local" or "gcs"
    UploadDir        string // local poster directory, served at /uploads
    UploadMaxBytes   int64  // largest accepted poster file
    GCSBucket        string // bucket for the gcs backend
    GCSPublicBaseURL string // public URL prefix of the bucket
    GCSCredentials   string // optional service account key file

    PageMaxLimit int // largest page size a client may request; 0 disables the cap

    JWTSecret    string // secret used to sign access tokens
    AccessTTLMin int    // access token time-to-live in minutes
    BcryptCost   int    // bcrypt cost for password hashing
}

// DefaultBaseURL is used for poster resolution when SERVER_URL is unset.
const DefaultBaseURL = "http://localhost:5000"

// Load reads configuration values from environment variables.  Every
// missing required variable is reported in the returned error.
func Load() (Config, error) {
    var missing []string
    must := func(key string) string {
        v, ok := os.LookupEnv(key)
        if !ok || v == "" {
            missing = append(missing, key)
        }
        return v
    }

    cfg := Config{
        Env:     envStr("APP_ENV", "dev"),
        Port:    envStr("PORT", envStr("APP_PORT", "5000")),
        BaseURL: strings.TrimRight(envStr("SERVER_URL", DefaultBaseURL), "/"),

        DBUser:        must("DB_USER"),
        DBPass:        os.Getenv("DB_PASS"),
        DBHost:        must("DB_HOST"),
        DBPort:        envStr("DB_PORT", "3306"),
        DBName:        must("DB_NAME"),
        DBCAPath:      envStr("DB_CA_PATH", os.Getenv("AIVEN_CA_PATH")),
        DBAutoMigrate: envBool("DB_AUTO_MIGRATE", false),

        UploadBackend:    strings.ToLower(envStr("UPLOAD_BACKEND", "local")),
        UploadDir:        envStr("UPLOAD_DIR", "uploads"),
        UploadMaxBytes:   int64(envInt("UPLOAD_MAX_BYTES", 5<<20)),
        GCSBucket:        os.Getenv("GCS_BUCKET"),
        GCSPublicBaseURL: envStr("GCS_PUBLIC_BASE_URL", "https://storage.googleapis.com"),
        GCSCredentials:   os.Getenv("GCS_CREDENTIALS_FILE"),

        PageMaxLimit: envInt("PAGE_MAX_LIMIT", 100),

        JWTSecret:    must("JWT_SECRET"),
        AccessTTLMin: envInt("ACCESS_TOKEN_TTL_MIN", 60),
        BcryptCost:   envInt("BCRYPT_COST", 10),
    }
    if len(missing) > 0 {
        return Config{}, fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
    }

    switch cfg.UploadBackend {
    case "local":
    case "gcs":
        if cfg.GCSBucket == "" {
            return Config{}, fmt.Errorf("UPLOAD_BACKEND=gcs requires GCS_BUCKET")
        }
    default:
        return Config{}, fmt.Errorf("invalid UPLOAD_BACKEND %q", cfg.UploadBackend)
    }
    if cfg.PageMaxLimit < 0 {
        return Config{}, fmt.Errorf("invalid int for PAGE_MAX_LIMIT: %d", cfg.PageMaxLimit)
    }
    return cfg, nil
}

// IsProd reports whether the application runs in production.
func (c Config) IsProd() bool {
    return strings.EqualFold(c.Env, "prod") || strings.EqualFold(c.Env, "production")
}
