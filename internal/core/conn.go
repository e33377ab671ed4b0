package core

import (
	"sync"
	"time"
)

// Conn is the per-connection state a transport hands to the gateway with
// every line: the handle the session registry is keyed by, the connection's
// sink, and its command budget.
type Conn struct {
	Handle  string
	Sink    Sink
	limiter *rateLimiter
}

// NewConn binds handle to sink. commandsPerMinute <= 0 disables the limit.
func NewConn(handle string, sink Sink, commandsPerMinute int) *Conn {
	return &Conn{
		Handle:  handle,
		Sink:    sink,
		limiter: newRateLimiter(commandsPerMinute, time.Minute),
	}
}

// rateLimiter counts events in fixed windows. The window resets lazily on
// the first event after it expires.
type rateLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	counter int
	resetAt time.Time
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	if limit <= 0 {
		return nil
	}
	return &rateLimiter{limit: limit, window: window, now: time.Now}
}

func (r *rateLimiter) allow() bool {
	if r == nil {
		return true
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if now.After(r.resetAt) {
		r.counter = 0
		r.resetAt = now.Add(r.window)
	}
	r.counter++
	return r.counter <= r.limit
}
