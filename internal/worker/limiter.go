package worker

import (
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64 // unix nanoseconds
	pinned   bool         // configured override; never pruned
}

// Limiter implements per-client rate limiting, keyed by e.g. remote IP
type Limiter struct {
	limiters     map[string]*clientLimiter
	mu           sync.RWMutex
	defaultRate  rate.Limit
	defaultBurst int
}

// NewLimiter creates a new rate limiter. A non-positive rate disables limiting.
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 5
	}

	return &Limiter{
		limiters:     make(map[string]*clientLimiter),
		defaultRate:  limitFor(requestsPerSecond),
		defaultBurst: burst,
	}
}

// limitFor maps a non-positive rate to no limit
func limitFor(requestsPerSecond float64) rate.Limit {
	if requestsPerSecond <= 0 {
		return rate.Inf
	}
	return rate.Limit(requestsPerSecond)
}

// Allow checks if a request is allowed without waiting
func (l *Limiter) Allow(key string) bool {
	return l.getLimiter(key).Allow()
}

// getLimiter returns the rate limiter for a client
func (l *Limiter) getLimiter(key string) *rate.Limiter {
	now := time.Now().UnixNano()

	l.mu.RLock()
	client, exists := l.limiters[key]
	l.mu.RUnlock()

	if exists {
		client.lastSeen.Store(now)
		return client.limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Double-check after acquiring write lock
	if client, exists := l.limiters[key]; exists {
		client.lastSeen.Store(now)
		return client.limiter
	}

	client = &clientLimiter{limiter: rate.NewLimiter(l.defaultRate, l.defaultBurst)}
	client.lastSeen.Store(now)
	l.limiters[key] = client

	return client.limiter
}

// SetClientRate pins a custom limit for one client. A non-positive rate
// exempts the client; a non-positive burst uses the default. Pinned clients
// survive Prune.
func (l *Limiter) SetClientRate(key string, requestsPerSecond float64, burst int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if burst <= 0 {
		burst = l.defaultBurst
	}

	client := &clientLimiter{
		limiter: rate.NewLimiter(limitFor(requestsPerSecond), burst),
		pinned:  true,
	}
	client.lastSeen.Store(time.Now().UnixNano())
	l.limiters[key] = client
}

// Prune forgets unpinned clients idle for longer than idle and returns how many were removed
func (l *Limiter) Prune(idle time.Duration) int {
	cutoff := time.Now().Add(-idle).UnixNano()

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, client := range l.limiters {
		if !client.pinned && client.lastSeen.Load() < cutoff {
			delete(l.limiters, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked clients
func (l *Limiter) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.limiters)
}
