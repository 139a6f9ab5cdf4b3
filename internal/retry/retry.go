package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

type permanentError struct {
	err error
}

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying. Do returns it immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// Policy is a bounded attempt count with a fixed delay between attempts.
type Policy struct {
	Attempts int
	Delay    time.Duration
	// OnRetry is called after a failed attempt that will be retried.
	OnRetry func(attempt int, err error)
}

// Do runs fn up to p.Attempts times, sleeping p.Delay between attempts.
// The returned error wraps the last attempt's error.
func Do[T any](ctx context.Context, p Policy, fn func(ctx context.Context, attempt int) (T, error)) (T, error) {
	var zero T
	var lastErr error

	attempts := p.Attempts
	if attempts <= 0 {
		attempts = 1
	}

	for i := 1; i <= attempts; i++ {
		result, err := fn(ctx, i)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if IsPermanent(err) {
			return zero, err
		}
		if i == attempts {
			break
		}
		if p.OnRetry != nil {
			p.OnRetry(i, err)
		}

		if p.Delay > 0 {
			timer := time.NewTimer(p.Delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return zero, fmt.Errorf("retry aborted after %d attempts: %w", i, errors.Join(ctx.Err(), lastErr))
			case <-timer.C:
			}
		} else if ctx.Err() != nil {
			return zero, fmt.Errorf("retry aborted after %d attempts: %w", i, errors.Join(ctx.Err(), lastErr))
		}
	}
	return zero, fmt.Errorf("after %d attempts: %w", attempts, lastErr)
}
