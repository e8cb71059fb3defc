package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

type ipWindow struct {
	count   int
	resetAt time.Time
}

// IPRateLimiter caps requests per client IP over a fixed window. Counters are
// in-process; behind multiple replicas the effective limit is per replica.
type IPRateLimiter struct {
	mu      sync.Mutex
	windows map[string]*ipWindow
	limit   int
	window  time.Duration
}

func NewIPRateLimiter(limit int, window time.Duration) *IPRateLimiter {
	l := &IPRateLimiter{
		windows: make(map[string]*ipWindow),
		limit:   limit,
		window:  window,
	}
	go l.sweep()
	return l
}

func (l *IPRateLimiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	w, ok := l.windows[ip]
	if !ok || now.After(w.resetAt) {
		l.windows[ip] = &ipWindow{count: 1, resetAt: now.Add(l.window)}
		return true
	}
	if w.count >= l.limit {
		return false
	}
	w.count++
	return true
}

// sweep drops expired windows so idle IPs do not accumulate.
func (l *IPRateLimiter) sweep() {
	for range time.Tick(time.Minute) {
		l.mu.Lock()
		now := time.Now()
		for ip, w := range l.windows {
			if now.After(w.resetAt) {
				delete(l.windows, ip)
			}
		}
		l.mu.Unlock()
	}
}

func RateLimit(limiter *IPRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
