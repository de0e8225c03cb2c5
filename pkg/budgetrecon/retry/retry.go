// Package retry runs flaky operations (Drive calls, whole job steps) a
// bounded number of times with a sleep between attempts.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Backoff returns the wait after the given failed attempt (1-based).
type Backoff func(attempt int) time.Duration

// Fixed waits d after every attempt.
func Fixed(d time.Duration) Backoff {
	return func(int) time.Duration { return d }
}

// Linear waits d times the attempt number.
func Linear(d time.Duration) Backoff {
	return func(attempt int) time.Duration { return d * time.Duration(attempt) }
}

// Exponential doubles d after every attempt.
func Exponential(d time.Duration) Backoff {
	return func(attempt int) time.Duration { return d * time.Duration(1<<(attempt-1)) }
}

// Policy describes how an operation is retried.
type Policy struct {
	// Attempts is the total number of tries. Values below 1 mean 1.
	Attempts int
	Backoff  Backoff
	// Retryable decides whether an error is worth another attempt. Nil
	// retries every error not wrapped by Stop.
	Retryable func(error) bool
	Logger    zerolog.Logger
}

type permanent struct{ err error }

func (p permanent) Error() string { return p.err.Error() }
func (p permanent) Unwrap() error { return p.err }

// Stop marks err as not retryable.
func Stop(err error) error {
	if err == nil {
		return nil
	}
	return permanent{err}
}

// Do calls fn until it succeeds, returns a non-retryable error, the
// attempts run out or ctx is done.
func Do(ctx context.Context, p Policy, op string, fn func(context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if cerr := ctx.Err(); cerr != nil {
			return fmt.Errorf("%s cancelled before attempt %d: %w", op, attempt, cerr)
		}

		err = fn(ctx)
		if err == nil {
			return nil
		}

		var perm permanent
		if errors.As(err, &perm) {
			return fmt.Errorf("%s: %w", op, perm.err)
		}
		if p.Retryable != nil && !p.Retryable(err) {
			return fmt.Errorf("%s: %w", op, err)
		}
		if attempt == attempts {
			break
		}

		var delay time.Duration
		if p.Backoff != nil {
			delay = p.Backoff(attempt)
		}
		p.Logger.Warn().Err(err).
			Str("op", op).
			Int("attempt", attempt).
			Int("max_attempts", attempts).
			Dur("wait", delay).
			Msg("tentativa falhou, tentando novamente")

		if delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return fmt.Errorf("%s cancelled during retry wait: %w", op, ctx.Err())
			}
		}
	}
	return fmt.Errorf("%s failed after %d attempts: %w", op, attempts, err)
}
