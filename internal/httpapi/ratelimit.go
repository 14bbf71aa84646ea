package httpapi

import (
	"sync"
	"time"

	"voice-gateway/internal/apperr"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// ClientLimiter is a token bucket per client IP.
//
// Idle buckets are swept once the table grows past sweepAt, so the map stays
// bounded by the number of recently active clients.
type ClientLimiter struct {
	rps   rate.Limit
	burst int
	idle  time.Duration
	now   func() time.Time

	mu      sync.Mutex
	clients map[string]*clientBucket
	sweepAt int
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewClientLimiter(rps float64, burst int) *ClientLimiter {
	return &ClientLimiter{
		rps:     rate.Limit(rps),
		burst:   burst,
		idle:    10 * time.Minute,
		now:     time.Now,
		clients: make(map[string]*clientBucket),
		sweepAt: 1024,
	}
}

// Allow reports whether key may proceed now.
func (l *ClientLimiter) Allow(key string) bool {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.clients[key]
	if !ok {
		if len(l.clients) >= l.sweepAt {
			l.sweepLocked(now)
		}
		b = &clientBucket{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.clients[key] = b
	}
	b.lastSeen = now
	return b.limiter.AllowN(now, 1)
}

func (l *ClientLimiter) sweepLocked(now time.Time) {
	for k, b := range l.clients {
		if now.Sub(b.lastSeen) > l.idle {
			delete(l.clients, k)
		}
	}
	if len(l.clients) >= l.sweepAt {
		l.sweepAt *= 2
	}
}

// Middleware rejects requests over the caller's budget with 429.
func (l *ClientLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP()) {
			WriteError(c, apperr.RateLimited("rate limit exceeded"))
			return
		}
		c.Next()
	}
}
