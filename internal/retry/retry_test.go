package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	val, err := Do(context.Background(), Policy{MaxAttempts: 2}, func(ctx context.Context, attempt int) (string, error) {
		calls++
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if val != "ok" {
		t.Errorf("expected 'ok', got %q", val)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_FailOnceThenSucceed(t *testing.T) {
	calls := 0
	val, err := Do(context.Background(), Policy{MaxAttempts: 2}, func(ctx context.Context, attempt int) (int, error) {
		calls++
		if calls == 1 {
			return 0, errors.New("transient")
		}
		return 42, nil
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if val != 42 {
		t.Errorf("expected 42, got %d", val)
	}
	if calls != 2 {
		t.Errorf("expected exactly 2 calls, got %d", calls)
	}
}

func TestDo_Exhausted(t *testing.T) {
	permanent := errors.New("permanent failure")
	calls := 0
	_, err := Do(context.Background(), Policy{MaxAttempts: 2}, func(ctx context.Context, attempt int) (string, error) {
		calls++
		return "", permanent
	})
	if calls != 2 {
		t.Errorf("expected exactly 2 calls, got %d", calls)
	}
	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected ExhaustedError, got %v", err)
	}
	if exhausted.Attempts != 2 {
		t.Errorf("expected 2 attempts recorded, got %d", exhausted.Attempts)
	}
	if !errors.Is(err, permanent) {
		t.Errorf("expected wrapped last failure, got %v", err)
	}
}

func TestDo_AttemptNumbersPassed(t *testing.T) {
	var seen []int
	_, _ = Do(context.Background(), Policy{MaxAttempts: 3}, func(ctx context.Context, attempt int) (struct{}, error) {
		seen = append(seen, attempt)
		return struct{}{}, errors.New("fail")
	})
	if len(seen) != 3 || seen[0] != 1 || seen[1] != 2 || seen[2] != 3 {
		t.Errorf("expected attempts [1 2 3], got %v", seen)
	}
}

func TestDo_ContextCanceledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	done := make(chan struct{})
	var err error
	go func() {
		_, err = Do(ctx, Policy{MaxAttempts: 2, Backoff: FixedBackoff(time.Minute)}, func(ctx context.Context, attempt int) (string, error) {
			calls++
			return "", errors.New("fail")
		})
		close(done)
	}()

	// Let the first attempt fail and the backoff timer start.
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Do did not return after cancellation")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call before cancellation, got %d", calls)
	}
}

func TestDo_ZeroMaxAttemptsRunsOnce(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), Policy{}, func(ctx context.Context, attempt int) (string, error) {
		calls++
		return "", errors.New("fail")
	})
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected ExhaustedError, got %v", err)
	}
}

func TestFixedBackoff(t *testing.T) {
	fn := FixedBackoff(2 * time.Second)
	if fn(1) != 2*time.Second || fn(5) != 2*time.Second {
		t.Error("expected fixed delay regardless of attempt")
	}
}
