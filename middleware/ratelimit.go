package middleware

import (
	"context"
	"net"
	"net/http"
	"notevault/pkg/apperror"
	"notevault/pkg/logger"
	"notevault/pkg/response"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const LoginRateLimitKeyPrefix = "ratelimit:login:"

// Counter counts hits on key inside a fixed window starting at the first
// hit.
type Counter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, error)
}

type RedisCounter struct {
	Client *redis.Client
}

func NewRedisCounter(client *redis.Client) *RedisCounter {
	return &RedisCounter{Client: client}
}

func (c *RedisCounter) Hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	pipe := c.Client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// RateLimit allows at most limit requests per client IP per window. If the
// counter is unavailable the request is let through.
func RateLimit(counter Counter, prefix string, limit int64, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
			n, err := counter.Hit(ctx, prefix+clientIP(r), window)
			cancel()
			if err != nil {
				logger.Sugar.Warnf("Rate limiter unavailable, allowing request: %v", err)
				next.ServeHTTP(w, r)
				return
			}

			if n > limit {
				w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
				response.Error(w, apperror.New(apperror.RateLimited, "Too many attempts, try again later"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP uses the connection address only; forwarding headers are
// client-controlled and would let a caller pick its own bucket.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
