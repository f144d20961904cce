package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	loginLimitKeyPrefix = "loginlimit:"
	loginMaxAttempts    = 5
	loginWindowDuration = time.Minute
)

var loginLimitScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

local windowStart = now - window

redis.call('ZREMRANGEBYSCORE', key, '-inf', windowStart)

local count = redis.call('ZCARD', key)

if count >= limit then
    return 0
end

redis.call('ZADD', key, now, now .. '-' .. math.random())
redis.call('EXPIRE', key, window + 10)

return 1
`)

// LoginRateLimiter throttles login attempts per client IP using a Redis
// sliding window. It fails open: if Redis is unreachable the attempt is
// allowed, since locking every admin out is worse than missing a window.
type LoginRateLimiter struct {
	client *redis.Client
}

func NewLoginRateLimiter(client *redis.Client) *LoginRateLimiter {
	return &LoginRateLimiter{client: client}
}

func (l *LoginRateLimiter) isAllowed(ctx context.Context, ip string) bool {
	now := time.Now().Unix()
	key := loginLimitKeyPrefix + ip

	result, err := loginLimitScript.Run(ctx, l.client, []string{key},
		now, int64(loginWindowDuration.Seconds()), loginMaxAttempts).Int64()
	if err != nil {
		log.Warn().Err(err).Str("ip", ip).Msg("login rate limit check failed, allowing attempt")
		return true
	}

	return result == 1
}

func (l *LoginRateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
			ip = forwarded
		}

		if !l.isAllowed(r.Context(), ip) {
			log.Warn().Str("ip", ip).Msg("login rate limit exceeded")
			w.Header().Set("Retry-After", "60")
			writeJSON(w, http.StatusTooManyRequests, map[string]string{
				"error": "Too many login attempts. Please try again later.",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}
