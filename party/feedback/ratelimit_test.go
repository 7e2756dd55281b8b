package feedback

import (
	"fmt"
	"testing"
)

func TestRateLimiterPerKey(t *testing.T) {
	rl := NewRateLimiter(0.001, 1)
	if !rl.Allow("a") {
		t.Fatal("first request should pass")
	}
	if rl.Allow("a") {
		t.Fatal("second request should be limited")
	}
	if !rl.Allow("b") {
		t.Fatal("other key should have its own bucket")
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	rl := NewRateLimiter(0, 1)
	for i := 0; i < 10; i++ {
		if !rl.Allow("a") {
			t.Fatalf("request %d limited with limiting disabled", i)
		}
	}
	var nilLimiter *RateLimiter
	if !nilLimiter.Allow("a") {
		t.Fatal("nil limiter should allow")
	}
}

func TestRateLimiterPrunesFullBuckets(t *testing.T) {
	rl := NewRateLimiter(1000, 1)
	for i := 0; i < pruneThreshold; i++ {
		rl.getLimiter(fmt.Sprintf("k%d", i))
	}
	if rl.Len() != pruneThreshold {
		t.Fatalf("expected %d limiters, got %d", pruneThreshold, rl.Len())
	}
	rl.Allow("new")
	if rl.Len() >= pruneThreshold {
		t.Fatalf("expected idle limiters to be pruned, got %d", rl.Len())
	}
}
