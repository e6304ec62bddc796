package chatfmt

import (
	"testing"
	"time"
)

func TestRateLimiter_SerializesCallsWithMinGap(t *testing.T) {
	rl := NewRateLimiter(30 * time.Millisecond)

	start := time.Now()
	rl.Wait("chat-1")
	rl.Wait("chat-1")
	elapsed := time.Since(start)

	if elapsed < 25*time.Millisecond {
		t.Errorf("two calls on the same key returned after %v, want at least ~minGap apart", elapsed)
	}
}

func TestRateLimiter_DifferentKeysDoNotBlockEachOther(t *testing.T) {
	rl := NewRateLimiter(200 * time.Millisecond)

	rl.Wait("chat-a")
	start := time.Now()
	rl.Wait("chat-b")
	elapsed := time.Since(start)

	if elapsed > 50*time.Millisecond {
		t.Errorf("a fresh key waited %v, want near-immediate return", elapsed)
	}
}
