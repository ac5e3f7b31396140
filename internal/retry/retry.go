// Package retry provides a bounded retry-with-backoff wrapper used by the
// generation pipelines.
//
// Failures are retried uniformly: a transport error from the model service
// and a parse failure on its output are treated the same way. The loop is
// explicit (never recursive) so stack depth and cancellation stay obvious.
package retry

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Policy configures a bounded retry loop.
type Policy struct {
	// MaxAttempts is the total number of invocations, including the first.
	MaxAttempts int
	// Backoff returns the delay before the given retry. attempt is the
	// 1-based number of the attempt that just failed.
	Backoff func(attempt int) time.Duration
}

// FixedBackoff returns a backoff function that always waits d.
func FixedBackoff(d time.Duration) func(int) time.Duration {
	return func(int) time.Duration { return d }
}

// ExhaustedError reports that all attempts failed. Last holds the failure
// from the final attempt.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("exhausted %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error { return e.Last }

// Do invokes task until it succeeds or the policy is exhausted. The task
// receives the 1-based attempt number. Between attempts Do sleeps for
// Backoff(attempt), honoring context cancellation; a canceled context
// returns ctx.Err() immediately with the zero value.
func Do[T any](ctx context.Context, p Policy, task func(ctx context.Context, attempt int) (T, error)) (T, error) {
	var zero T

	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		val, err := task(ctx, attempt)
		if err == nil {
			return val, nil
		}
		lastErr = err
		slog.Debug("retry attempt failed", "attempt", attempt, "max_attempts", attempts, "error", err)

		if attempt == attempts {
			break
		}
		if p.Backoff != nil {
			if delay := p.Backoff(attempt); delay > 0 {
				timer := time.NewTimer(delay)
				select {
				case <-ctx.Done():
					timer.Stop()
					return zero, ctx.Err()
				case <-timer.C:
				}
			}
		}
	}

	return zero, &ExhaustedError{Attempts: attempts, Last: lastErr}
}
