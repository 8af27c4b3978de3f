package middleware

import (
    "bytes"
    "context"
    "crypto/sha1"
    "encoding/binary"
    "encoding/json"
    "fmt"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/movie-catalog/internal/config"
)

// captureWriter captures response body/status while forwarding to the client.
type captureWriter struct {
    http.ResponseWriter
    status int
    buf    bytes.Buffer
    size   int64
    limit  int64
}

func (cw *captureWriter) WriteHeader(code int) { cw.status = code; cw.ResponseWriter.WriteHeader(code) }
func (cw *captureWriter) Write(b []byte) (int, error) {
    if cw.limit <= 0 {
        cw.buf.Write(b)
    } else if remain := cw.limit - cw.size; remain > 0 {
        if int64(len(b)) <= remain {
            cw.buf.Write(b)
        } else {
            cw.buf.Write(b[:remain])
        }
    }
    cw.size += int64(len(b))
    return cw.ResponseWriter.Write(b)
}

// generationKey holds a counter that is part of every cache key; bumping it
// orphans all cached reads at once.
func generationKey(cfg config.CacheConfig) string { return cfg.Prefix + ":gen" }

// cacheKeyFrom builds a stable cache key honoring prefix/strategy.  The
// request path is used rather than the route pattern so that /movies/1
// and /movies/2 never share an entry.
func cacheKeyFrom(cfg config.CacheConfig, c echo.Context, gen int64) string {
    r := c.Request()
    p := r.URL.Path
    query := r.URL.Query().Encode() // sorted, so ?a=1&b=2 and ?b=2&a=1 match

    parts := []string{"gen", fmt.Sprint(gen)}
    switch strings.ToLower(cfg.KeyStrategy) {
    case "path":
        parts = append(parts, "path", p)
    case "method_path_query":
        parts = append(parts, "method", r.Method, "path", p, "q", query)
    default: // "path_query"
        parts = append(parts, "path", p, "q", query)
    }
    sum := sha1.Sum([]byte(strings.Join(parts, ":")))
    return fmt.Sprintf("%s:%x", cfg.Prefix, sum[:])
}

// encodePayload packs: [4 bytes status][4 bytes headerLen][headerJSON][body]
func encodePayload(status int, header http.Header, body []byte) ([]byte, error) {
    hdrJSON, err := json.Marshal(header)
    if err != nil {
        return nil, err
    }
    out := make([]byte, 8+len(hdrJSON)+len(body))
    binary.BigEndian.PutUint32(out[0:4], uint32(status))
    binary.BigEndian.PutUint32(out[4:8], uint32(len(hdrJSON)))
    copy(out[8:8+len(hdrJSON)], hdrJSON)
    copy(out[8+len(hdrJSON):], body)
    return out, nil
}

func decodePayload(bs []byte) (status int, header http.Header, body []byte, ok bool) {
    if len(bs) < 8 {
        return 0, nil, nil, false
    }
    status = int(binary.BigEndian.Uint32(bs[0:4]))
    hlen := int(binary.BigEndian.Uint32(bs[4:8]))
    if hlen < 0 || 8+hlen > len(bs) {
        return 0, nil, nil, false
    }
    hdr := make(http.Header)
    if hlen > 0 {
        if err := json.Unmarshal(bs[8:8+hlen], &hdr); err != nil {
            return 0, nil, nil, false
        }
    }
    return status, hdr, bs[8+hlen:], true
}

// handlerHeaders returns the headers the handler added on top of before.
func handlerHeaders(before, after http.Header) http.Header {
    out := make(http.Header)
    for k, vals := range after {
        if _, set := before[k]; set || skipStoredHeader(k) {
            continue
        }
        out[k] = append([]string(nil), vals...)
    }
    return out
}

func skipStoredHeader(k string) bool {
    switch http.CanonicalHeaderKey(k) {
    case echo.HeaderContentLength, "X-Cache", echo.HeaderXRequestID, echo.HeaderVary:
        return true
    }
    return strings.HasPrefix(http.CanonicalHeaderKey(k), "Access-Control-")
}

// NewRedisCache serves cacheable methods from Redis and invalidates every
// cached read after a successful write through the same group.  Only the
// headers the handler produced are stored with the body; on a hit they
// never replace headers already set for the live request.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    ttl := cfg.TTL
    if ttl <= 0 {
        ttl = 30 * time.Second
    }
    maxBody := int64(cfg.MaxBodyBytes)
    genKey := generationKey(cfg)

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if !cfg.Methods[strings.ToUpper(c.Request().Method)] {
                return invalidateAfter(c, next, rdb, genKey)
            }

            ctx := c.Request().Context()
            gen, err := rdb.Get(ctx, genKey).Int64()
            if err != nil && err != redis.Nil {
                return next(c) // redis unavailable: serve uncached
            }
            key := cacheKeyFrom(cfg, c, gen)

            if bs, err := rdb.Get(ctx, key).Bytes(); err == nil {
                if status, hdr, body, ok := decodePayload(bs); ok {
                    live := c.Response().Header()
                    for k, vals := range hdr {
                        // headers set by outer middleware for this request win
                        if _, set := live[k]; set || skipStoredHeader(k) {
                            continue
                        }
                        live[k] = append([]string(nil), vals...)
                    }
                    live.Set("X-Cache", "HIT")
                    c.Response().WriteHeader(status)
                    if len(body) > 0 {
                        _, _ = c.Response().Write(body)
                    }
                    return nil
                }
            }

            // Miss: capture.  Headers already on the response belong to
            // this request (CORS, request id) and are not stored.
            before := c.Response().Header().Clone()
            cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: maxBody}
            c.Response().Writer = cw
            c.Response().Header().Set("X-Cache", "MISS")

            if err := next(c); err != nil {
                return err
            }
            if cw.status != http.StatusOK || (maxBody > 0 && cw.size > maxBody) {
                return nil
            }
            hdr := handlerHeaders(before, c.Response().Header())
            if payload, err := encodePayload(cw.status, hdr, cw.buf.Bytes()); err == nil {
                _ = rdb.SetEx(context.WithoutCancel(ctx), key, payload, ttl).Err()
            }
            return nil
        }
    }
}

// invalidateAfter runs a write and bumps the generation counter when it
// succeeded.
func invalidateAfter(c echo.Context, next echo.HandlerFunc, rdb *redis.Client, genKey string) error {
    if err := next(c); err != nil {
        return err
    }
    if s := c.Response().Status; s >= 200 && s < 300 {
        _ = rdb.Incr(context.WithoutCancel(c.Request().Context()), genKey).Err()
    }
    return nil
}
