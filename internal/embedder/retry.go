package embedder

import (
	"context"
	"time"
)

// RetryConfig tunes retryWithBackoff.
type RetryConfig struct {
	MaxRetries int           // total attempts, counting the first call
	BaseDelay  time.Duration // wait after the first failure
	MaxDelay   time.Duration // ceiling on the wait
	Multiplier float64       // growth factor applied per failure
}

// DefaultRetryConfig mirrors the package retry constants.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: MaxRetries,
		Multiplier: BackoffMultiplier,
		BaseDelay:  time.Duration(InitialBackoffMs) * time.Millisecond,
		MaxDelay:   time.Duration(MaxBackoffMs) * time.Millisecond,
	}
}

// retryWithBackoff calls fn until it succeeds or cfg.MaxRetries attempts
// have failed, sleeping between attempts with exponentially growing waits
// capped at MaxDelay. A cancelled context stops the loop and its error is
// returned unwrapped.
func retryWithBackoff[T any](ctx context.Context, cfg RetryConfig, fn func() (T, error)) (T, error) {
	var zero T

	delay := cfg.BaseDelay
	for attempt := 1; ; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		if attempt >= cfg.MaxRetries {
			return zero, err
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
		delay = time.Duration(float64(delay) * cfg.Multiplier)
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}
}
