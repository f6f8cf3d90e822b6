package generate

import (
	"context"
	"errors"
	"testing"
	"time"
)

func noSleep(ctx context.Context, d time.Duration) error { return nil }

func TestRetrier_SucceedsAfterFailures(t *testing.T) {
	var delays []time.Duration
	r := Retrier{
		MaxAttempts: 3,
		Delay:       time.Second,
		Sleep: func(ctx context.Context, d time.Duration) error {
			delays = append(delays, d)
			return nil
		},
	}

	calls := 0
	err := r.Do(context.Background(), Job{Operation: "event"}, func(ctx context.Context, attempt int) error {
		calls++
		if attempt < 3 {
			return &TransportError{Provider: "openai", Err: errors.New("503")}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if calls != 3 {
		t.Errorf("Expected 3 calls, got %d", calls)
	}
	if len(delays) != 2 || delays[0] != time.Second || delays[1] != 2*time.Second {
		t.Errorf("Expected backoff [1s 2s], got %v", delays)
	}
}

func TestRetrier_Exhausted(t *testing.T) {
	r := Retrier{MaxAttempts: 4, Delay: time.Millisecond, Sleep: noSleep}

	calls := 0
	err := r.Do(context.Background(), Job{Operation: "scoring", EventID: 7}, func(ctx context.Context, attempt int) error {
		calls++
		return malformed("missing veracityScore", nil)
	})

	var failed *GenerationFailedError
	if !errors.As(err, &failed) {
		t.Fatalf("Expected GenerationFailedError, got %v", err)
	}
	if failed.Attempts != 4 || calls != 4 {
		t.Errorf("Expected 4 attempts, got %d (calls %d)", failed.Attempts, calls)
	}
	if failed.EventID != 7 || failed.Operation != "scoring" {
		t.Errorf("Expected job context in error, got %+v", failed)
	}
}

func TestRetrier_NonRetryableStops(t *testing.T) {
	r := Retrier{MaxAttempts: 3, Sleep: noSleep}
	boom := errors.New("database is locked")

	calls := 0
	err := r.Do(context.Background(), Job{}, func(ctx context.Context, attempt int) error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Expected the original error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected a single call, got %d", calls)
	}
}

func TestRetrier_DefaultAttempts(t *testing.T) {
	calls := 0
	err := Retrier{Sleep: noSleep}.Do(context.Background(), Job{}, func(ctx context.Context, attempt int) error {
		calls++
		return &TransportError{Err: errors.New("refused")}
	})
	if err == nil || calls != DefaultMaxAttempts {
		t.Errorf("Expected %d calls and an error, got %d calls, err %v", DefaultMaxAttempts, calls, err)
	}
}

func TestRetrier_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := Retrier{MaxAttempts: 5, Delay: time.Hour}

	calls := 0
	err := r.Do(ctx, Job{}, func(ctx context.Context, attempt int) error {
		calls++
		cancel()
		return &TransportError{Err: ctx.Err()}
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected a single call, got %d", calls)
	}
}
