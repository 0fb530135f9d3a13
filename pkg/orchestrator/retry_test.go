package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errPermanent = errors.New("permanent")

func isPermanentTest(err error) bool { return errors.Is(err, errPermanent) }

func TestWithRetrySucceedsFirstTry(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), 3, time.Millisecond, isPermanentTest, func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestWithRetryRecoversFromTransient(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), 3, time.Millisecond, isPermanentTest, func() error {
		calls++
		if calls < 2 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestWithRetryExhaustsAttempts(t *testing.T) {
	calls := 0
	want := errors.New("still broken")
	err := withRetry(context.Background(), 3, time.Millisecond, isPermanentTest, func() error {
		calls++
		return want
	})
	if !errors.Is(err, want) {
		t.Errorf("err = %v, want last error", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestWithRetryPermanentAbortsImmediately(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), 3, time.Millisecond, isPermanentTest, func() error {
		calls++
		return errPermanent
	})
	if !errors.Is(err, errPermanent) {
		t.Errorf("err = %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 for permanent error", calls)
	}
}

func TestWithRetryCancelDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	start := time.Now()
	err := withRetry(ctx, 3, time.Hour, isPermanentTest, func() error {
		calls++
		cancel()
		return errors.New("transient")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if time.Since(start) > time.Second {
		t.Error("cancellation did not interrupt the backoff sleep")
	}
}
