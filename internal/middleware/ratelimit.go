package middleware

import (
    "context"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "go.uber.org/zap"

    "github.com/iliyamo/movie-catalog/internal/config"
)

// takeToken refills a bucket for the elapsed whole intervals and takes one
// token.  ARGV: now_ms, capacity, refill_tokens, interval_ms, ttl_s.
// Returns {allowed, remaining, retry_after_ms}.
var takeToken = redis.NewScript(`
local now, cap, refill, every, ttl = tonumber(ARGV[1]), tonumber(ARGV[2]), tonumber(ARGV[3]), tonumber(ARGV[4]), tonumber(ARGV[5])
local tokens = tonumber(redis.call('HGET', KEYS[1], 'tokens'))
local last = tonumber(redis.call('HGET', KEYS[1], 'last_ms'))
if tokens == nil or last == nil then
  tokens, last = cap, now
end
if every > 0 then
  local steps = math.floor(math.max(0, now - last) / every)
  if steps > 0 then
    tokens = math.min(cap, tokens + steps * refill)
    last = last + steps * every
  end
end
local allowed, wait = 0, 0
if tokens > 0 then
  allowed, tokens = 1, tokens - 1
else
  wait = math.max(0, every - (now - last))
end
redis.call('HSET', KEYS[1], 'tokens', tokens, 'last_ms', last)
redis.call('EXPIRE', KEYS[1], ttl)
return {allowed, tokens, wait}
`)

// decision is the outcome of one takeToken call.
type decision struct {
    allowed   bool
    remaining int64
    retry     time.Duration
}

// bucket is one token-bucket policy backed by Redis.
type bucket struct {
    rdb *redis.Client
    cfg config.RateLimitConfig
}

func (b bucket) take(ctx context.Context, key string, now time.Time) (decision, error) {
    res, err := takeToken.Run(ctx, b.rdb, []string{key},
        now.UnixMilli(), b.cfg.Capacity, b.cfg.RefillTokens,
        b.cfg.RefillInterval.Milliseconds(), int64(b.cfg.TTL/time.Second),
    ).Int64Slice()
    if err != nil {
        return decision{}, err
    }
    if len(res) != 3 {
        return decision{}, redis.Nil
    }
    return decision{allowed: res[0] == 1, remaining: res[1], retry: time.Duration(res[2]) * time.Millisecond}, nil
}

// NewTokenBucket limits catalog requests per key (see
// RateLimitConfig.KeyStrategy).  Multipart writes, which may store a
// poster, also draw from the tighter per-client upload bucket when one is
// configured.  Redis failures let the request through.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client, log *zap.Logger) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    if log == nil {
        log = zap.NewNop()
    }
    general := bucket{rdb: rdb, cfg: cfg}
    var uploads *bucket
    if cfg.Upload.Capacity > 0 {
        u := cfg
        u.Capacity = cfg.Upload.Capacity
        u.RefillTokens = 1
        u.RefillInterval = cfg.Upload.RefillInterval
        if u.RefillInterval <= 0 {
            u.RefillInterval = time.Minute
        }
        if u.TTL < 5*u.RefillInterval {
            u.TTL = 5 * u.RefillInterval
        }
        uploads = &bucket{rdb: rdb, cfg: u}
    }

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            ctx := c.Request().Context()
            now := time.Now()

            key := buildRateKey(cfg, c)
            d, err := general.take(ctx, key, now)
            if err != nil {
                log.Debug("rate limit skipped", zap.String("key", key), zap.Error(err))
                return next(c)
            }
            setLimitHeaders(c, cfg.Capacity, d)
            if !d.allowed {
                return tooMany(c, log, key, d)
            }

            if uploads != nil && isPosterWrite(c.Request()) {
                ukey := uploadRateKey(cfg, c)
                ud, err := uploads.take(ctx, ukey, now)
                if err != nil {
                    log.Debug("upload rate limit skipped", zap.String("key", ukey), zap.Error(err))
                } else if !ud.allowed {
                    return tooMany(c, log, ukey, ud)
                }
            }

            if cfg.Debug {
                c.Response().Header().Set("X-RateLimit-Key", key)
            }
            return next(c)
        }
    }
}

func setLimitHeaders(c echo.Context, capacity int, d decision) {
    h := c.Response().Header()
    h.Set("X-RateLimit-Limit", strconv.Itoa(capacity))
    h.Set("X-RateLimit-Remaining", strconv.FormatInt(d.remaining, 10))
}

func tooMany(c echo.Context, log *zap.Logger, key string, d decision) error {
    secs := int((d.retry + time.Second - 1) / time.Second)
    c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
    log.Info("rate limited", zap.String("key", key), zap.Duration("retry", d.retry))
    return c.JSON(http.StatusTooManyRequests, echo.Map{
        "message":     "Too many requests",
        "retry_after": secs,
    })
}

// isPosterWrite reports whether r is a create or update that can carry a
// poster file.
func isPosterWrite(r *http.Request) bool {
    if r.Method != http.MethodPost && r.Method != http.MethodPut {
        return false
    }
    return strings.HasPrefix(strings.ToLower(r.Header.Get(echo.HeaderContentType)), echo.MIMEMultipartForm)
}

// buildRateKey joins the identity parts named by the underscore separated
// strategy, e.g. "ip_route".  Unknown strategies key on ip, user and route.
func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
    parts := []string{cfg.Prefix}
    for _, p := range strategyParts(cfg.KeyStrategy) {
        switch p {
        case "ip":
            parts = append(parts, "ip", clientIP(c))
        case "user":
            parts = append(parts, "user", currentUserID(c))
        case "route":
            parts = append(parts, "route", c.Request().Method+" "+c.Path())
        }
    }
    return strings.Join(parts, ":")
}

// uploadRateKey is shared by every poster write of one client.
func uploadRateKey(cfg config.RateLimitConfig, c echo.Context) string {
    return strings.Join([]string{cfg.Prefix, "upload", "ip", clientIP(c), "user", currentUserID(c)}, ":")
}

func strategyParts(strategy string) []string {
    parts := strings.Split(strings.ToLower(strategy), "_")
    for _, p := range parts {
        if p != "ip" && p != "user" && p != "route" {
            return []string{"ip", "user", "route"}
        }
    }
    return parts
}

func clientIP(c echo.Context) string {
    if ip := c.RealIP(); ip != "" {
        return ip
    }
    return "unknown"
}

func currentUserID(c echo.Context) string {
    switch v := c.Get(ContextUserID).(type) {
    case uint64:
        if v != 0 {
            return strconv.FormatUint(v, 10)
        }
    case string:
        if v != "" {
            return v
        }
    }
    return "anon"
}
