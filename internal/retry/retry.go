package retry

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// Strategy determines how long to wait between retry attempts.
type Strategy interface {
	// Duration returns the wait time before attempt n (zero-based).
	Duration(attempt int) time.Duration
}

// ExponentialStrategy doubles the wait on each attempt, starting at Min
// and capped at Max, with up to MaxJitter of random jitter added.
type ExponentialStrategy struct {
	Min       time.Duration
	Max       time.Duration
	MaxJitter time.Duration
}

func (s *ExponentialStrategy) Duration(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	var jitter time.Duration
	if s.MaxJitter > 0 {
		jitter = time.Duration(rand.Int63n(int64(s.MaxJitter)))
	}
	d := time.Duration(float64(s.Min) * math.Pow(2, float64(attempt)))
	if d > s.Max {
		d = s.Max
	}
	return d + jitter
}

// FixedStrategy waits a constant duration between attempts.
type FixedStrategy struct {
	Dur time.Duration
}

func (s *FixedStrategy) Duration(attempt int) time.Duration {
	return s.Dur
}

// Do executes op up to maxAttempts times, waiting per the strategy between
// attempts. It returns the first successful result, or the last error once
// attempts are exhausted. Context cancellation aborts the wait immediately.
func Do[T any](ctx context.Context, maxAttempts int, strategy Strategy, op func() (T, error)) (T, error) {
	var empty T
	if maxAttempts < 1 {
		return empty, fmt.Errorf("maxAttempts must be at least 1, got %d", maxAttempts)
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if ctx.Err() != nil {
			return empty, ctx.Err()
		}
		result, err := op()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt == maxAttempts-1 {
			break
		}
		timer := time.NewTimer(strategy.Duration(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return empty, ctx.Err()
		case <-timer.C:
		}
	}
	return empty, fmt.Errorf("operation failed after %d attempts: %w", maxAttempts, lastErr)
}
