package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoSucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	result, err := Do(context.Background(), 5, &FixedStrategy{Dur: time.Microsecond}, func() (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("transient")
		}
		return "done", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "done", result)
	assert.Equal(t, 3, calls)
}

func TestDoExhaustsAttempts(t *testing.T) {
	calls := 0
	sentinel := errors.New("persistent failure")
	_, err := Do(context.Background(), 3, &FixedStrategy{Dur: time.Microsecond}, func() (int, error) {
		calls++
		return 0, sentinel
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Equal(t, 3, calls)
}

func TestDoRejectsZeroAttempts(t *testing.T) {
	_, err := Do(context.Background(), 0, &FixedStrategy{}, func() (int, error) {
		t.Fatal("op must not run")
		return 0, nil
	})
	assert.Error(t, err)
}

func TestDoStopsOnContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := Do(ctx, 10, &FixedStrategy{Dur: time.Minute}, func() (int, error) {
		calls++
		cancel()
		return 0, errors.New("failing")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestExponentialStrategyDoublesAndCaps(t *testing.T) {
	s := &ExponentialStrategy{Min: 100 * time.Millisecond, Max: 500 * time.Millisecond}

	assert.Equal(t, 100*time.Millisecond, s.Duration(0))
	assert.Equal(t, 200*time.Millisecond, s.Duration(1))
	assert.Equal(t, 400*time.Millisecond, s.Duration(2))
	assert.Equal(t, 500*time.Millisecond, s.Duration(3))
	assert.Equal(t, 500*time.Millisecond, s.Duration(10))
}

func TestExponentialStrategyJitterIsBounded(t *testing.T) {
	s := &ExponentialStrategy{Min: time.Millisecond, Max: time.Millisecond, MaxJitter: 10 * time.Millisecond}
	for i := 0; i < 100; i++ {
		d := s.Duration(0)
		assert.GreaterOrEqual(t, d, time.Millisecond)
		assert.Less(t, d, 11*time.Millisecond)
	}
}
