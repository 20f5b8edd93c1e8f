// Package rate keeps one token bucket per client id and forgets
// clients that have gone quiet.
package rate

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type Limiter struct {
	burst  int
	rps    float64
	expiry time.Duration

	mu      sync.Mutex
	clients map[string]*client
}

type client struct {
	bucket *rate.Limiter
	seen   time.Time
}

// NewLimiter allows rps requests per second with the given burst per
// client id. A client idle for more than expiryMn minutes is dropped
// by a background sweep.
func NewLimiter(burst int, expiryMn int, rps float64) *Limiter {
	l := &Limiter{
		burst:   burst,
		rps:     rps,
		expiry:  time.Duration(expiryMn) * time.Minute,
		clients: make(map[string]*client),
	}
	go l.sweep()
	return l
}

// Check reports whether the client may proceed, creating its bucket on
// first sight.
func (l *Limiter) Check(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.clients[id]
	if !ok {
		c = &client{bucket: rate.NewLimiter(rate.Limit(l.rps), l.burst)}
		l.clients[id] = c
	}
	c.seen = time.Now()
	return c.bucket.Allow()
}

func (l *Limiter) sweep() {
	tick := time.NewTicker(time.Minute)
	for range tick.C {
		l.mu.Lock()
		for id, c := range l.clients {
			if time.Since(c.seen) > l.expiry {
				delete(l.clients, id)
			}
		}
		l.mu.Unlock()
	}
}

// Every converts a per-event interval into a requests-per-second rate.
func Every(interval time.Duration) float64 {
	return float64(rate.Every(interval))
}
