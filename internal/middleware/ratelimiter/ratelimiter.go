package ratelimiter

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// UserRateLimiter keeps one token bucket per key. Buckets idle for longer
// than expirationTime are dropped by Prune.
type UserRateLimiter struct {
	limiters       map[string]*entry
	mu             sync.Mutex
	every          time.Duration
	burst          int
	expirationTime time.Duration
	now            func() time.Time
}

// NewUserRateLimiter allows burst events at once, then one per every.
func NewUserRateLimiter(every time.Duration, burst int, expirationTime time.Duration) *UserRateLimiter {
	return &UserRateLimiter{
		limiters:       make(map[string]*entry),
		every:          every,
		burst:          burst,
		expirationTime: expirationTime,
		now:            time.Now,
	}
}

func (url *UserRateLimiter) getLimiter(key string) *rate.Limiter {
	url.mu.Lock()
	defer url.mu.Unlock()

	e, ok := url.limiters[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(rate.Every(url.every), url.burst)}
		url.limiters[key] = e
	}
	e.lastSeen = url.now()
	return e.limiter
}

// Allow checks if a request should be allowed for a given key
func (url *UserRateLimiter) Allow(key string) bool {
	return url.getLimiter(key).AllowN(url.now(), 1)
}

// Prune drops buckets not used since expirationTime and returns how many were removed.
func (url *UserRateLimiter) Prune() int {
	url.mu.Lock()
	defer url.mu.Unlock()

	cutoff := url.now().Add(-url.expirationTime)
	removed := 0
	for key, e := range url.limiters {
		if e.lastSeen.Before(cutoff) {
			delete(url.limiters, key)
			removed++
		}
	}
	return removed
}

// Run prunes every interval until stop is closed.
func (url *UserRateLimiter) Run(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			url.Prune()
		case <-stop:
			return
		}
	}
}

func (url *UserRateLimiter) Len() int {
	url.mu.Lock()
	defer url.mu.Unlock()
	return len(url.limiters)
}
