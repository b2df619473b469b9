// Package rate throttles quote requests per client with token buckets.
package rate

import (
	"sync"
	"time"

	xrate "golang.org/x/time/rate"
)

// Config defines rate limiting parameters for one client.
type Config struct {
	RequestsPerSecond float64
	Burst             int
}

// Enabled reports whether cfg limits anything.
func (c Config) Enabled() bool { return c.RequestsPerSecond > 0 && c.Burst > 0 }

// Limiter is one client's token bucket plus the time it was last used.
type Limiter struct {
	bucket *xrate.Limiter
	now    func() time.Time

	mu       sync.Mutex
	lastSeen time.Time
}

// New creates a new limiter with a full bucket.
func New(cfg Config) *Limiter {
	return newLimiter(cfg, time.Now)
}

func newLimiter(cfg Config, now func() time.Time) *Limiter {
	return &Limiter{
		bucket:   xrate.NewLimiter(xrate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		now:      now,
		lastSeen: now(),
	}
}

func (l *Limiter) touch() time.Time {
	t := l.now()
	l.mu.Lock()
	l.lastSeen = t
	l.mu.Unlock()
	return t
}

// Allow takes a token if one is available.
func (l *Limiter) Allow() bool {
	return l.bucket.AllowN(l.touch(), 1)
}

// RetryAfter is how long until the next token is available. The
// reservation taken to measure it is cancelled and consumes nothing.
func (l *Limiter) RetryAfter() time.Duration {
	t := l.now()
	r := l.bucket.ReserveN(t, 1)
	if !r.OK() {
		return 0
	}
	d := r.DelayFrom(t)
	r.CancelAt(t)
	return d
}

func (l *Limiter) idleSince() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastSeen
}

// Manager holds per-client limiters.
type Manager struct {
	mu       sync.RWMutex
	limiters map[string]*Limiter
	defaults Config
	now      func() time.Time
}

func NewManager(defaults Config) *Manager {
	return &Manager{
		limiters: make(map[string]*Limiter),
		defaults: defaults,
		now:      time.Now,
	}
}

func (m *Manager) GetLimiter(clientKey string) *Limiter {
	m.mu.RLock()
	if lim, ok := m.limiters[clientKey]; ok {
		m.mu.RUnlock()
		return lim
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	if lim, ok := m.limiters[clientKey]; ok {
		return lim
	}
	lim := newLimiter(m.defaults, m.now)
	m.limiters[clientKey] = lim
	return lim
}

// Allow reports whether key may make another request. A disabled config
// always allows.
func (m *Manager) Allow(key string) bool {
	if !m.defaults.Enabled() {
		return true
	}
	return m.GetLimiter(key).Allow()
}

// Prune drops limiters untouched for longer than idle and returns how many
// were removed.
func (m *Manager) Prune(idle time.Duration) int {
	cutoff := m.now().Add(-idle)
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for k, lim := range m.limiters {
		if lim.idleSince().Before(cutoff) {
			delete(m.limiters, k)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked clients.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.limiters)
}
