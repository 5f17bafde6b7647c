// Package ratelimit throttles requests made while materializing remote sources.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter combines a global token bucket with one bucket per host. A host
// can be paused, e.g. after a 429 with Retry-After.
type Limiter struct {
	mu           sync.Mutex
	limiter      *rate.Limiter
	perHost      map[string]*rate.Limiter
	defaultRate  rate.Limit
	defaultBurst int
	pausedUntil  map[string]time.Time
}

// NewLimiter creates a limiter allowing requestsPerSecond overall and per host.
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	return &Limiter{
		limiter:      rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
		perHost:      make(map[string]*rate.Limiter),
		defaultRate:  rate.Limit(requestsPerSecond),
		defaultBurst: burst,
		pausedUntil:  make(map[string]time.Time),
	}
}

// WaitHost blocks until a request to host is allowed or ctx is done.
func (l *Limiter) WaitHost(ctx context.Context, host string) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return err
	}

	l.mu.Lock()
	hostLimiter, exists := l.perHost[host]
	if !exists {
		hostLimiter = rate.NewLimiter(l.defaultRate, l.defaultBurst)
		l.perHost[host] = hostLimiter
	}
	var wait time.Duration
	if until, ok := l.pausedUntil[host]; ok {
		if wait = time.Until(until); wait <= 0 {
			delete(l.pausedUntil, host)
		}
	}
	l.mu.Unlock()

	if wait > 0 {
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return hostLimiter.Wait(ctx)
}

// Pause holds back requests to host for d. A shorter pause never cuts an
// existing one short.
func (l *Limiter) Pause(host string, d time.Duration) {
	if d <= 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	until := time.Now().Add(d)
	if cur, ok := l.pausedUntil[host]; !ok || until.After(cur) {
		l.pausedUntil[host] = until
	}
}
