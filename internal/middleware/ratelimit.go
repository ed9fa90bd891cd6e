package middleware

import (
    "fmt"
    "math"
    "strconv"
    "strings"
    "sync"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "github.com/rs/zerolog"
    "golang.org/x/time/rate"

    "github.com/iliyamo/car-marketplace/internal/apperr"
    "github.com/iliyamo/car-marketplace/internal/config"
)

// unlimitedPaths are never rate limited so probes keep working under load.
var unlimitedPaths = map[string]bool{
    "/health":  true,
    "/ready":   true,
    "/live":    true,
    "/metrics": true,
}

const rateLimitMessage = "Too many requests, please try again later"

var limiterScript = redis.NewScript(`
    local key = KEYS[1]
    local now_ms = tonumber(ARGV[1])
    local capacity = tonumber(ARGV[2])
    local refill_tokens = tonumber(ARGV[3])
    local interval_ms = tonumber(ARGV[4])
    local ttl_seconds = tonumber(ARGV[5])

    local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
    local tokens = tonumber(state[1])
    local last_refill = tonumber(state[2])

    if tokens == nil or last_refill == nil then
        tokens = capacity
        last_refill = now_ms
    end

    if interval_ms > 0 and refill_tokens > 0 then
        local elapsed = math.max(0, now_ms - last_refill)
        local intervals = math.floor(elapsed / interval_ms)
        if intervals > 0 then
            tokens = math.min(capacity, tokens + (intervals * refill_tokens))
            last_refill = last_refill + (intervals * interval_ms)
        end
    end

    local allowed = 0
    local retry_after_ms = 0
    if tokens > 0 then
        allowed = 1
        tokens = tokens - 1
    else
        local until_next = interval_ms - (now_ms - last_refill)
        if until_next < 0 then until_next = 0 end
        retry_after_ms = until_next
    end

    redis.call('HMSET', key, 'tokens', tokens, 'last_refill_ms', last_refill, 'capacity', capacity)
    redis.call('EXPIRE', key, ttl_seconds)

    return { allowed, tokens, retry_after_ms }
`)

// RateLimiter throttles requests per key (client IP and route by default).
// With a Redis client the buckets are shared by every instance; without
// one each process keeps its own buckets in memory and sweeps idle ones.
type RateLimiter struct {
    cfg config.RateLimitConfig
    rdb *redis.Client
    log zerolog.Logger

    mu      sync.Mutex
    buckets map[string]*bucket
    stop    chan struct{}
    once    sync.Once
}

type bucket struct {
    lim      *rate.Limiter
    lastSeen time.Time
}

// NewRateLimiter builds the limiter.  Call Start to run the sweep of idle
// in-memory buckets and Stop on shutdown.
func NewRateLimiter(cfg config.RateLimitConfig, rdb *redis.Client, log zerolog.Logger) *RateLimiter {
    return &RateLimiter{
        cfg:     cfg,
        rdb:     rdb,
        log:     log,
        buckets: map[string]*bucket{},
        stop:    make(chan struct{}),
    }
}

// Start launches the sweep goroutine.  It is a no-op when Redis holds the
// buckets.
func (rl *RateLimiter) Start() {
    if rl.rdb != nil || !rl.cfg.Enabled {
        return
    }
    go func() {
        t := time.NewTicker(rl.cfg.SweepInterval)
        defer t.Stop()
        for {
            select {
            case <-rl.stop:
                return
            case now := <-t.C:
                rl.Sweep(now)
            }
        }
    }()
}

// Stop ends the sweep goroutine.
func (rl *RateLimiter) Stop() { rl.once.Do(func() { close(rl.stop) }) }

// Sweep drops in-memory buckets idle for longer than the configured TTL.
func (rl *RateLimiter) Sweep(now time.Time) int {
    rl.mu.Lock()
    defer rl.mu.Unlock()
    removed := 0
    for k, b := range rl.buckets {
        if now.Sub(b.lastSeen) > rl.cfg.TTL {
            delete(rl.buckets, k)
            removed++
        }
    }
    return removed
}

func (rl *RateLimiter) local(key string, now time.Time) (bool, int64, time.Duration) {
    rl.mu.Lock()
    defer rl.mu.Unlock()
    b, ok := rl.buckets[key]
    if !ok {
        every := rl.cfg.RefillInterval / time.Duration(rl.cfg.RefillTokens)
        b = &bucket{lim: rate.NewLimiter(rate.Every(every), rl.cfg.Capacity)}
        rl.buckets[key] = b
    }
    b.lastSeen = now
    r := b.lim.ReserveN(now, 1)
    if delay := r.DelayFrom(now); delay > 0 {
        r.CancelAt(now)
        return false, 0, delay
    }
    return true, int64(b.lim.TokensAt(now)), 0
}

func (rl *RateLimiter) shared(c echo.Context, key string, now time.Time) (bool, int64, time.Duration, error) {
    args := []interface{}{
        now.UnixMilli(),
        rl.cfg.Capacity,
        rl.cfg.RefillTokens,
        rl.cfg.RefillInterval.Milliseconds(),
        int64(rl.cfg.TTL / time.Second),
    }
    vals, err := limiterScript.Run(c.Request().Context(), rl.rdb, []string{key}, args...).Result()
    if err != nil {
        return false, 0, 0, err
    }
    arr, ok := vals.([]interface{})
    if !ok || len(arr) != 3 {
        return false, 0, 0, fmt.Errorf("unexpected script result %#v", vals)
    }
    allowed := asInt64(arr[0]) == 1
    return allowed, asInt64(arr[1]), time.Duration(asInt64(arr[2])) * time.Millisecond, nil
}

// Middleware applies the limiter.  Blocked requests fail with a
// RATE_LIMIT_EXCEEDED error and a Retry-After header.  A Redis failure lets
// the request through.
func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        if !rl.cfg.Enabled {
            return next
        }
        return func(c echo.Context) error {
            if unlimitedPaths[c.Request().URL.Path] {
                return next(c)
            }
            key := buildRateKey(rl.cfg, c)
            now := time.Now()

            var (
                allowed   bool
                remaining int64
                retry     time.Duration
            )
            if rl.rdb != nil {
                var err error
                allowed, remaining, retry, err = rl.shared(c, key, now)
                if err != nil {
                    rl.log.Warn().Err(err).Str("key", key).Msg("ratelimit: redis error")
                    return next(c)
                }
            } else {
                allowed, remaining, retry = rl.local(key, now)
            }

            h := c.Response().Header()
            h.Set("X-RateLimit-Limit", strconv.Itoa(rl.cfg.Capacity))
            h.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
            if !allowed {
                secs := int(math.Ceil(retry.Seconds()))
                if secs < 1 {
                    secs = 1
                }
                h.Set("Retry-After", strconv.Itoa(secs))
                if rl.cfg.Debug {
                    rl.log.Info().Str("key", key).Dur("retry", retry).Msg("ratelimit: blocked")
                }
                return apperr.RateLimited(rateLimitMessage)
            }
            if rl.cfg.Debug {
                h.Set("X-RateLimit-Key", key)
            }
            return next(c)
        }
    }
}

func asInt64(v interface{}) int64 {
    switch t := v.(type) {
    case int64:
        return t
    case int32:
        return int64(t)
    case int:
        return int64(t)
    case float64:
        return int64(t)
    case string:
        if n, err := strconv.ParseInt(t, 10, 64); err == nil {
            return n
        }
    }
    return 0
}

func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
    parts := []string{cfg.Prefix}
    ip := c.RealIP()
    if ip == "" {
        ip = "unknown"
    }
    uid := userID(c)
    route := c.Request().Method + " " + c.Path()
    if c.Path() == "" {
        route = c.Request().Method + " " + c.Request().URL.Path
    }

    switch strings.ToLower(cfg.KeyStrategy) {
    case "ip":
        parts = append(parts, "ip", ip)
    case "user":
        parts = append(parts, "user", uid)
    case "route":
        parts = append(parts, "route", route)
    case "ip_user":
        parts = append(parts, "ip", ip, "user", uid)
    case "ip_route":
        parts = append(parts, "ip", ip, "route", route)
    case "user_route":
        parts = append(parts, "user", uid, "route", route)
    default:
        parts = append(parts, "ip", ip, "user", uid, "route", route)
    }
    return strings.Join(parts, ":")
}
