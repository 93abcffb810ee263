package http

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// limiters hands out one token bucket per client IP. The whole set is
// dropped every cleanup interval so idle clients do not accumulate.
type limiters struct {
	mu          sync.Mutex
	limit       rate.Limit
	burst       int
	cleanup     time.Duration
	lastCleanup time.Time
	byIP        map[string]*rate.Limiter
	now         func() time.Time
}

func newLimiters(perSecond float64, burst int) *limiters {
	return &limiters{
		limit:   rate.Limit(perSecond),
		burst:   burst,
		cleanup: time.Hour,
		byIP:    make(map[string]*rate.Limiter),
		now:     time.Now,
	}
}

func (l *limiters) allow(ip string) bool {
	l.mu.Lock()
	now := l.now()
	if l.lastCleanup.IsZero() || now.Sub(l.lastCleanup) > l.cleanup {
		l.byIP = make(map[string]*rate.Limiter)
		l.lastCleanup = now
	}
	limiter, ok := l.byIP[ip]
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.byIP[ip] = limiter
	}
	l.mu.Unlock()
	return limiter.AllowN(now, 1)
}
