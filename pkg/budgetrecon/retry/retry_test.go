package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDoSucceedsAfterRetries(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Policy{Attempts: 3}, "op", func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("flaky")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if calls != 3 {
		t.Errorf("Expected 3 calls, got %d", calls)
	}
}

func TestDoExhausted(t *testing.T) {
	sentinel := errors.New("down")
	calls := 0
	err := Do(context.Background(), Policy{Attempts: 2}, "upload", func(context.Context) error {
		calls++
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Errorf("Expected wrapped sentinel, got %v", err)
	}
	if calls != 2 {
		t.Errorf("Expected 2 calls, got %d", calls)
	}
}

func TestDoStopAndRetryable(t *testing.T) {
	sentinel := errors.New("bad request")
	calls := 0
	err := Do(context.Background(), Policy{Attempts: 5}, "op", func(context.Context) error {
		calls++
		return Stop(sentinel)
	})
	if !errors.Is(err, sentinel) || calls != 1 {
		t.Errorf("Expected one call and the sentinel, got %d calls and %v", calls, err)
	}

	calls = 0
	err = Do(context.Background(), Policy{
		Attempts:  5,
		Retryable: func(error) bool { return false },
	}, "op", func(context.Context) error {
		calls++
		return sentinel
	})
	if !errors.Is(err, sentinel) || calls != 1 {
		t.Errorf("Expected one call for a non-retryable error, got %d calls and %v", calls, err)
	}

	if Stop(nil) != nil {
		t.Error("Stop(nil) should be nil")
	}
}

func TestDoCancelledDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Do(ctx, Policy{Attempts: 3, Backoff: Fixed(time.Hour)}, "op", func(context.Context) error {
		calls++
		cancel()
		return errors.New("flaky")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected 1 call, got %d", calls)
	}
}

func TestBackoffs(t *testing.T) {
	tests := []struct {
		name     string
		backoff  Backoff
		attempt  int
		expected time.Duration
	}{
		{"fixed", Fixed(30 * time.Second), 3, 30 * time.Second},
		{"linear", Linear(5 * time.Second), 2, 10 * time.Second},
		{"exponential", Exponential(time.Second), 3, 4 * time.Second},
	}

	for _, tt := range tests {
		if got := tt.backoff(tt.attempt); got != tt.expected {
			t.Errorf("%s(%d) = %v, expected %v", tt.name, tt.attempt, got, tt.expected)
		}
	}
}
