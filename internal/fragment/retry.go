package fragment

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

// MaxRetries is how many times a retryable fetch is repeated.
const MaxRetries = 3

// RetryableError marks a failure that may succeed on a later attempt, such
// as a 5xx or 429 response.
type RetryableError struct {
	StatusCode int
	Err        error
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var retryErr *RetryableError
	return errors.As(err, &retryErr)
}

// Backoff returns a duration for attempt n (0-indexed) with jitter, starting
// at base and capped at 30 times base.
func Backoff(attempt int, base time.Duration) time.Duration {
	d := base << uint(attempt)
	if limit := 30 * base; d > limit || d <= 0 {
		d = limit
	}
	jitter := time.Duration(rand.Int64N(int64(d)/2 + 1))
	return d + jitter
}

// withRetry runs fn until it succeeds, fails with a non-retryable error, or
// MaxRetries extra attempts have been made.
func withRetry(ctx context.Context, base time.Duration, fn func() ([]byte, error)) ([]byte, error) {
	var err error
	for attempt := 0; ; attempt++ {
		var data []byte
		data, err = fn()
		if err == nil || !IsRetryable(err) || attempt >= MaxRetries {
			return data, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(Backoff(attempt, base)):
		}
	}
}
