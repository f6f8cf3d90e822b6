package generate

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DefaultMaxAttempts bounds a generation cycle when no limit is configured
const DefaultMaxAttempts = 3

// Job identifies a retried cycle in logs and in the terminal error
type Job struct {
	Operation   string
	EventTypeID int64
	EventID     int64
	CycleID     string
}

// Retrier re-runs a whole generation cycle on transport or malformed failures
type Retrier struct {
	MaxAttempts int
	Delay       time.Duration // Doubled after every failed attempt
	Sleep       func(ctx context.Context, d time.Duration) error
	Logger      *zap.Logger
}

// Do runs fn until it succeeds, fails with a non-retryable error, or the
// attempt bound is reached. Exhaustion returns *GenerationFailedError.
func (r Retrier) Do(ctx context.Context, job Job, fn func(ctx context.Context, attempt int) error) error {
	maxAttempts := r.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	sleep := r.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var last error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn(ctx, attempt)
		if err == nil {
			return nil
		}
		last = err
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if !IsRetryable(err) {
			return err
		}

		logger.Warn("generation attempt failed",
			zap.String("operation", job.Operation),
			zap.String("cycle_id", job.CycleID),
			zap.Int64("event_type_id", job.EventTypeID),
			zap.Int64("event_id", job.EventID),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", maxAttempts),
			zap.Error(err))

		if attempt < maxAttempts && r.Delay > 0 {
			backoff := r.Delay * time.Duration(1<<uint(attempt-1))
			if err := sleep(ctx, backoff); err != nil {
				return err
			}
		}
	}

	return &GenerationFailedError{
		Operation:   job.Operation,
		EventTypeID: job.EventTypeID,
		EventID:     job.EventID,
		Attempts:    maxAttempts,
		Last:        last,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
