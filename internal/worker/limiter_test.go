package worker

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_New(t *testing.T) {
	limiter := NewLimiter(10, 5)
	if limiter.defaultBurst != 5 {
		t.Errorf("expected burst 5, got %d", limiter.defaultBurst)
	}

	l2 := NewLimiter(10, -1)
	if l2.defaultBurst != 5 {
		t.Errorf("expected default burst 5 for negative input, got %d", l2.defaultBurst)
	}
}

func TestLimiter_Wait(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "openai"); err != nil {
		t.Errorf("wait failed: %v", err)
	}

	// Different backend should also work
	if err := limiter.Wait(ctx, "ollama"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
}

// waitBriefly reports whether the key is cleared within a few milliseconds
func waitBriefly(l *Limiter, key string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	return l.Wait(ctx, key) == nil
}

func TestLimiter_RateLimit(t *testing.T) {
	limiter := NewLimiter(1, 1)

	if !waitBriefly(limiter, "openai") {
		t.Errorf("first wait failed")
	}

	// Burst 1 is consumed
	if waitBriefly(limiter, "openai") {
		t.Errorf("expected wait to fail (exhausted tokens)")
	}

	// Keys are case-insensitive
	if waitBriefly(limiter, " OpenAI ") {
		t.Errorf("expected normalized key to share the bucket")
	}

	if !waitBriefly(limiter, "anthropic") {
		t.Errorf("expected clearance for other backend")
	}
}

func TestLimiter_Unlimited(t *testing.T) {
	limiter := NewLimiter(0, 1)
	for i := 0; i < 10; i++ {
		if !waitBriefly(limiter, "openai") {
			t.Fatalf("request %d: expected unlimited rate to allow", i)
		}
	}
}

func TestLimiter_WaitCancelled(t *testing.T) {
	limiter := NewLimiter(0.01, 1)
	if err := limiter.Wait(context.Background(), "slow"); err != nil {
		t.Fatalf("first request should pass: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := limiter.Wait(ctx, "slow"); err == nil {
		t.Error("expected wait to fail on a cancelled context")
	}
}
