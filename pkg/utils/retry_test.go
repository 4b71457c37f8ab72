package utils

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastConfig(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:   attempts,
		InitialDelay:  time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
		BackoffFactor: 2.0,
	}
}

func TestRetrySucceedsFirstTry(t *testing.T) {
	calls := 0
	v, err := RetryWithResult(context.Background(), fastConfig(3), func() (int, error) {
		calls++
		return 42, nil
	}, nil)

	if err != nil || v != 42 {
		t.Fatalf("got (%d, %v)", v, err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetryRecoversFromTransientError(t *testing.T) {
	transient := errors.New("transient")
	calls := 0
	v, err := RetryWithResult(context.Background(), fastConfig(3), func() (string, error) {
		calls++
		if calls < 3 {
			return "", transient
		}
		return "ok", nil
	}, nil)

	if err != nil || v != "ok" {
		t.Fatalf("got (%q, %v)", v, err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryExhaustsAttempts(t *testing.T) {
	failure := errors.New("still broken")
	calls := 0
	_, err := RetryWithResult(context.Background(), fastConfig(3), func() (int, error) {
		calls++
		return 0, failure
	}, nil)

	if !errors.Is(err, failure) {
		t.Fatalf("err = %v, want last failure", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryClassifierStopsEarly(t *testing.T) {
	transient := errors.New("transient")
	fatal := errors.New("fatal")
	calls := 0
	_, err := RetryWithResult(context.Background(), fastConfig(5), func() (int, error) {
		calls++
		if calls == 1 {
			return 0, transient
		}
		return 0, fatal
	}, func(err error) bool {
		return errors.Is(err, transient)
	})

	if !errors.Is(err, fatal) {
		t.Fatalf("err = %v, want fatal", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2 (no retry after a non-retryable error)", calls)
	}
}

func TestRetryHonorsCancellation(t *testing.T) {
	failure := errors.New("upstream down")
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := RetryWithResult(ctx, fastConfig(10), func() (int, error) {
		calls++
		cancel()
		return 0, failure
	}, nil)

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	// The last attempt's error stays in the chain so callers can still
	// classify the failure.
	if !errors.Is(err, failure) {
		t.Errorf("err = %v, want the last attempt error preserved", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetryMinimumOneAttempt(t *testing.T) {
	calls := 0
	RetryWithResult(context.Background(), fastConfig(0), func() (int, error) {
		calls++
		return 0, errors.New("x")
	}, nil)

	if calls != 1 {
		t.Errorf("calls = %d, want 1 even with a zero attempt budget", calls)
	}
}
