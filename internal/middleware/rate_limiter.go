package middleware

import (
	"context"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	apperrors "github.com/ikkim/userhub-backend/internal/errors"
)

// Limiter records a hit for key and reports whether it is within limit for
// the current window, plus the time until the window resets.
// *redis.FixedWindow satisfies it.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error)
}

// MemoryLimiter is a single-process fixed window limiter.
type MemoryLimiter struct {
	mu      sync.Mutex
	now     func() time.Time
	clients map[string]*clientBucket
}

type clientBucket struct {
	count     int
	windowEnd time.Time
}

func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{
		now:     time.Now,
		clients: make(map[string]*clientBucket),
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.clients[key]
	if !ok || !now.Before(b.windowEnd) {
		b = &clientBucket{windowEnd: now.Add(window)}
		l.clients[key] = b
		l.evictExpired(now)
	}
	b.count++
	return b.count <= limit, b.windowEnd.Sub(now), nil
}

// evictExpired drops finished windows so the map does not grow without bound.
func (l *MemoryLimiter) evictExpired(now time.Time) {
	for key, b := range l.clients {
		if !now.Before(b.windowEnd) {
			delete(l.clients, key)
		}
	}
}

// RateLimit allows limit requests per client IP per window for the named
// route group. Limiter failures let the request through.
func RateLimit(limiter Limiter, name string, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)
		key := name + ":" + clientIP(c)

		allowed, retryAfter, err := limiter.Allow(c.Request.Context(), key, limit, window)
		if err != nil {
			log.Warn("Rate limiter unavailable, allowing request", map[string]interface{}{
				"limiter": name,
				"error":   err.Error(),
			})
			c.Next()
			return
		}
		if !allowed {
			seconds := int(retryAfter.Round(time.Second).Seconds())
			if seconds < 1 {
				seconds = 1
			}
			log.Warn("Rate limit exceeded", map[string]interface{}{
				"limiter":     name,
				"retry_after": seconds,
			})
			c.Header("Retry-After", strconv.Itoa(seconds))
			apperrors.AbortTooManyRequests(c, "")
			return
		}

		c.Next()
	}
}

func clientIP(c *gin.Context) string {
	ip := c.ClientIP()
	if host, _, err := net.SplitHostPort(ip); err == nil && host != "" {
		return host
	}
	return ip
}
