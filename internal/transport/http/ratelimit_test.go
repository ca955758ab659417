package http

import (
	"testing"
	"time"
)

func TestRateLimiter_EnforcesBurst(t *testing.T) {
	rl := NewRateLimiter(1, 2)

	l := rl.GetLimiter("9.9.9.9")
	if !l.Allow() || !l.Allow() {
		t.Fatal("a burst of 2 must allow two immediate requests")
	}
	if l.Allow() {
		t.Error("third immediate request must be limited")
	}
}

func TestRateLimiter_SweepsIdleBuckets(t *testing.T) {
	rl := NewRateLimiter(10, 20)
	rl.GetLimiter("1.2.3.4")
	rl.GetLimiter("5.6.7.8")

	// Backdate one bucket past the TTL and open the next sweep window.
	rl.mu.Lock()
	rl.ips["1.2.3.4"].lastSeen = time.Now().Add(-rl.idleTTL - time.Minute)
	rl.lastSweep = time.Now().Add(-rl.sweepEvery - time.Second)
	rl.mu.Unlock()

	rl.GetLimiter("5.6.7.8")

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if _, ok := rl.ips["1.2.3.4"]; ok {
		t.Error("idle bucket must be swept")
	}
	if _, ok := rl.ips["5.6.7.8"]; !ok {
		t.Error("active bucket must survive the sweep")
	}
}
