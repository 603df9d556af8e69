package middleware

import (
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/resolvenow/internal/config"
)

// MsgTooManyRequests is the body message of a throttled request.
const MsgTooManyRequests = "Too many requests from this IP, please try again later."

// limiterScript refills the bucket by whole intervals, takes one token if
// available and returns {allowed, remaining, retry_after_ms}.  Running it as
// one script keeps the read-modify-write atomic across API instances.
var limiterScript = redis.NewScript(`
local now, cap, step, every, ttl = tonumber(ARGV[1]), tonumber(ARGV[2]), tonumber(ARGV[3]), tonumber(ARGV[4]), tonumber(ARGV[5])
local b = redis.call('HMGET', KEYS[1], 'tokens', 'last_refill_ms')
local left, since = tonumber(b[1]) or cap, tonumber(b[2]) or now

if every > 0 and step > 0 and now > since then
  local n = math.floor((now - since) / every)
  if n > 0 then
    left = math.min(cap, left + n * step)
    since = since + n * every
  end
end

local ok, wait = 0, 0
if left >= 1 then
  ok, left = 1, left - 1
else
  wait = math.max(0, every - (now - since))
end

redis.call('HSET', KEYS[1], 'tokens', left, 'last_refill_ms', since)
redis.call('EXPIRE', KEYS[1], ttl)
return { ok, left, wait }
`)

// NewTokenBucket returns a Redis-backed token bucket limiter.  When limiting
// is disabled or Redis is unavailable it passes every request through, and a
// Redis error on a single request fails open.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client, log *slog.Logger) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	if log == nil {
		log = slog.Default()
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := buildRateKey(cfg, c)
			args := []any{
				time.Now().UnixMilli(),
				cfg.Capacity,
				cfg.RefillTokens,
				cfg.RefillInterval.Milliseconds(),
				int64(cfg.TTL / time.Second),
			}

			vals, err := limiterScript.Run(c.Request().Context(), rdb, []string{key}, args...).Result()
			if err != nil {
				log.Warn("rate limiter unavailable, allowing request", "key", key, "error", err)
				return next(c)
			}

			arr, ok := vals.([]any)
			if !ok || len(arr) != 3 {
				log.Warn("rate limiter returned unexpected result", "key", key, "result", fmt.Sprintf("%#v", vals))
				return next(c)
			}
			allowed := asInt64(arr[0]) == 1
			remaining := asInt64(arr[1])
			retryMs := asInt64(arr[2])

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

			if !allowed {
				h.Set("Retry-After", strconv.Itoa(int(math.Ceil(float64(max(retryMs, 0))/1000))))
				log.Debug("request throttled", "key", key, "retry_ms", retryMs)
				return c.JSON(http.StatusTooManyRequests, echo.Map{
					"success": false,
					"message": MsgTooManyRequests,
				})
			}

			if cfg.Debug {
				h.Set("X-RateLimit-Key", key)
			}
			return next(c)
		}
	}
}

func asInt64(v any) int64 {
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

// buildRateKey composes the bucket key from the underscore-separated parts of
// the configured strategy ("ip", "user", "route" or combinations such as
// "ip_route").  An unknown strategy keys on all three.
func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	values := map[string]string{
		"ip":    ip,
		"user":  userKey(c),
		"route": c.Request().Method + " " + c.Path(),
	}

	names := strings.Split(strings.ToLower(cfg.KeyStrategy), "_")
	for _, n := range names {
		if _, ok := values[n]; !ok {
			names = []string{"ip", "user", "route"}
			break
		}
	}

	parts := []string{cfg.Prefix}
	for _, n := range names {
		parts = append(parts, n, values[n])
	}
	return strings.Join(parts, ":")
}
