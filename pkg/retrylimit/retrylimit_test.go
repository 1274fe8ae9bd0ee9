package retrylimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestRetrySucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := WithRetryConfig(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}, nil, fastConfig(5))

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryStopsAtMaxAttempts(t *testing.T) {
	calls := 0
	sentinel := errors.New("always fails")
	err := WithRetryConfig(context.Background(), func() error {
		calls++
		return sentinel
	}, nil, fastConfig(3))

	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 3, calls)
}

func TestFatalErrorStopsImmediately(t *testing.T) {
	calls := 0
	err := WithRetryConfig(context.Background(), func() error {
		calls++
		return &FatalError{Err: errors.New("bad input")}
	}, nil, fastConfig(5))

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := fastConfig(5)
	cfg.InitialDelay = time.Second
	err := WithRetryConfig(ctx, func() error {
		return errors.New("transient")
	}, nil, cfg)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestAdaptiveLimiterAdjusts(t *testing.T) {
	lim := NewAdaptiveLimiter(4, 1, 8, 1, 0.5)

	lim.Failure()
	assert.Equal(t, 2.0, lim.CurrentLimit())

	lim.Failure()
	lim.Failure()
	assert.Equal(t, 1.0, lim.CurrentLimit(), "rate never drops below the minimum")
}
