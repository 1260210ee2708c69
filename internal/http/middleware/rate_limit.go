package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/yungbote/assets-backend/internal/http/response"
	"github.com/yungbote/assets-backend/internal/observability"
	"github.com/yungbote/assets-backend/internal/platform/apierr"
	"github.com/yungbote/assets-backend/internal/platform/logger"
)

// Limiter counts hits per key in fixed windows.
type Limiter interface {
	// Allow records one hit. When the key is over its limit it returns false
	// and the time until the window resets.
	Allow(ctx context.Context, key string) (bool, time.Duration, error)
}

type RedisLimiter struct {
	rdb    redis.UniversalClient
	max    int64
	window time.Duration
	prefix string
}

func NewRedisLimiter(rdb redis.UniversalClient, max int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, max: int64(max), window: window, prefix: "assets:ratelimit:"}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	k := l.prefix + key
	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := l.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, k)
		p.ExpireNX(ctx, k, l.window)
		ttl = p.PTTL(ctx, k)
		return nil
	})
	if err != nil {
		return true, 0, err
	}
	if incr.Val() <= l.max {
		return true, 0, nil
	}
	wait := ttl.Val()
	if wait <= 0 {
		wait = l.window
	}
	return false, wait, nil
}

type memoryWindow struct {
	count int
	reset time.Time
}

// MemoryLimiter is the single-process fallback when no redis is configured.
type MemoryLimiter struct {
	mu       sync.Mutex
	visitors map[string]*memoryWindow
	max      int
	window   time.Duration
	now      func() time.Time
	sweepAt  time.Time
}

func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		visitors: make(map[string]*memoryWindow),
		max:      max,
		window:   window,
		now:      time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if !now.Before(l.sweepAt) {
		for k, w := range l.visitors {
			if !now.Before(w.reset) {
				delete(l.visitors, k)
			}
		}
		l.sweepAt = now.Add(l.window)
	}

	w, ok := l.visitors[key]
	if !ok || !now.Before(w.reset) {
		w = &memoryWindow{reset: now.Add(l.window)}
		l.visitors[key] = w
	}
	w.count++
	if w.count > l.max {
		return false, w.reset.Sub(now), nil
	}
	return true, 0, nil
}

// RateLimit rejects clients over their per-IP budget with 429. Limiter
// errors let the request through.
func RateLimit(log *logger.Logger, limiter Limiter, m *observability.Metrics) gin.HandlerFunc {
	log = log.With("middleware", "RateLimit")
	return func(c *gin.Context) {
		ok, wait, err := limiter.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			log.Warn("rate limiter unavailable, allowing request", "error", err)
			c.Next()
			return
		}
		if !ok {
			m.IncRateLimited()
			secs := int(wait.Round(time.Second) / time.Second)
			if secs < 1 {
				secs = 1
			}
			c.Header("Retry-After", strconv.Itoa(secs))
			response.RespondAPIError(c, apierr.New(http.StatusTooManyRequests, "rate_limited", errors.New("Too many requests, please try again later")))
			return
		}
		c.Next()
	}
}
