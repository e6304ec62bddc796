package chatfmt

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter enforces a per-chat minimum gap between outbound API
// calls using the reservation pattern (spec §4.5, §9): under the
// mutex, reserve the next allowed instant and release before
// sleeping, so concurrent callers for the same chat serialize without
// holding the lock across the wait.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	minGap   time.Duration
}

// NewRateLimiter builds a limiter enforcing minGap between calls for
// any given key (e.g. chat id). Telegram uses 3000ms, Discord 1000ms
// per spec §4.5.
func NewRateLimiter(minGap time.Duration) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		minGap:   minGap,
	}
}

// Wait blocks the caller until key's next call is allowed, then
// returns. It never holds the internal mutex during the sleep.
func (r *RateLimiter) Wait(key string) {
	r.mu.Lock()
	l, ok := r.limiters[key]
	if !ok {
		// One token per minGap, burst of 1: exactly the "earliest next
		// allowed instant" semantics spec §4.5 calls for.
		l = rate.NewLimiter(rate.Every(r.minGap), 1)
		r.limiters[key] = l
	}
	reservation := l.Reserve()
	r.mu.Unlock()

	delay := reservation.Delay()
	if delay > 0 {
		time.Sleep(delay)
	}
}
