// Package ratelimit provides a sliding window request counter per client
// identity and endpoint class
package ratelimit

import (
	"sync"
	"time"
)

// Class groups endpoints that share an upstream cost profile
type Class string

const (
	// ClassText covers text estimation and parsing endpoints
	ClassText Class = "text"
	// ClassPhoto covers photo identification, the most expensive upstream path
	ClassPhoto Class = "photo"
	// ClassChat covers conversational coaching calls
	ClassChat Class = "chat"
)

// Budget is the window size and max request count for one class
type Budget struct {
	Max    int
	Window time.Duration
}

// DefaultBudgets mirror the upstream cost ordering: photo and chat calls are
// far more expensive than text lookups
func DefaultBudgets() map[Class]Budget {
	return map[Class]Budget{
		ClassText:  {Max: 30, Window: 15 * time.Minute},
		ClassPhoto: {Max: 10, Window: 15 * time.Minute},
		ClassChat:  {Max: 20, Window: 15 * time.Minute},
	}
}

// Key identifies one counting bucket
type Key struct {
	Client string
	Class  Class
}

// Decision is the structured outcome of an Allow check. A denial always
// carries a positive RetryAfter so callers can surface time-to-reset
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// window is the per key counter; reset when now-start exceeds the class window
type window struct {
	start time.Time
	count int
}

// Limiter is the process wide sliding window limiter
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*window
	budgets map[Class]Budget
	now     func() time.Time

	lastPrune time.Time
}

// Option configures a Limiter
type Option func(*Limiter)

// WithBudget overrides the budget for one class
func WithBudget(c Class, b Budget) Option {
	return func(l *Limiter) {
		if b.Max > 0 && b.Window > 0 {
			l.budgets[c] = b
		}
	}
}

// WithClock injects a clock for tests
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// New builds a limiter with the default budgets
func New(opts ...Option) *Limiter {
	l := &Limiter{
		windows: make(map[string]*window),
		budgets: DefaultBudgets(),
		now:     time.Now,
	}
	for _, o := range opts {
		o(l)
	}
	l.lastPrune = l.now()
	return l
}

// Allow counts one request against key and reports whether it may proceed.
// Denied requests are never queued; the caller returns the decision to the client
func (l *Limiter) Allow(key Key) Decision {
	b, ok := l.budgets[key.Class]
	if !ok {
		// unknown classes are not limited; better than silently dropping traffic
		return Decision{Allowed: true, Remaining: -1}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.maybePrune(now)

	w := l.windows[key.Client+"|"+string(key.Class)]
	if w == nil || now.Sub(w.start) > b.Window {
		w = &window{start: now}
		l.windows[key.Client+"|"+string(key.Class)] = w
	}

	if w.count >= b.Max {
		return Decision{
			Allowed:    false,
			Remaining:  0,
			RetryAfter: w.start.Add(b.Window).Sub(now),
		}
	}
	w.count++
	return Decision{Allowed: true, Remaining: b.Max - w.count}
}

// Budget returns the configured budget for a class
func (l *Limiter) Budget(c Class) (Budget, bool) {
	b, ok := l.budgets[c]
	return b, ok
}

// maybePrune drops windows stale past every budget; throttled to once a minute.
// Caller holds the lock
func (l *Limiter) maybePrune(now time.Time) {
	if now.Sub(l.lastPrune) < time.Minute {
		return
	}
	l.lastPrune = now
	var longest time.Duration
	for _, b := range l.budgets {
		if b.Window > longest {
			longest = b.Window
		}
	}
	for k, w := range l.windows {
		if now.Sub(w.start) > longest {
			delete(l.windows, k)
		}
	}
}

// windows is keyed by "client|class" to keep the map flat; the Key struct
// stays the public surface
func (l *Limiter) windowCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}
