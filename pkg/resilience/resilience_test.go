package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBackend = errors.New("backend down")

func fail() error { return errBackend }
func ok() error { return nil }

func TestBreakerOpensAfterThreshold(t *testing.T) {
	b := NewBreaker("redis", BreakerConfig{FailureThreshold: 2, ResetTimeout: time.Minute})

	assert.ErrorIs(t, b.Execute(fail), errBackend)
	assert.Equal(t, StateClosed, b.State())
	assert.ErrorIs(t, b.Execute(fail), errBackend)
	assert.Equal(t, StateOpen, b.State())

	called := false
	err := b.Execute(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestBreakerSuccessResetsFailures(t *testing.T) {
	b := NewBreaker("redis", BreakerConfig{FailureThreshold: 2})

	_ = b.Execute(fail)
	require.NoError(t, b.Execute(ok))
	_ = b.Execute(fail)
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerHalfOpenProbe(t *testing.T) {
	now := time.Unix(1000, 0)
	b := NewBreaker("redis", BreakerConfig{FailureThreshold: 1, ResetTimeout: 10 * time.Second})
	b.now = func() time.Time { return now }

	_ = b.Execute(fail)
	require.Equal(t, StateOpen, b.State())

	now = now.Add(10 * time.Second)
	assert.ErrorIs(t, b.Execute(fail), errBackend)
	assert.Equal(t, StateOpen, b.State())
	assert.ErrorIs(t, b.Execute(ok), ErrCircuitOpen)

	now = now.Add(10 * time.Second)
	require.NoError(t, b.Execute(ok))
	assert.Equal(t, StateClosed, b.State())
}

func TestRetrySucceedsEventually(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), "ping", RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond},
		func(context.Context) error {
			calls++
			if calls < 3 {
				return errBackend
			}
			return nil
		})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryGivesUp(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), "ping", RetryConfig{MaxAttempts: 2, InitialDelay: time.Millisecond},
		func(context.Context) error {
			calls++
			return errBackend
		})
	assert.ErrorIs(t, err, errBackend)
	assert.Equal(t, 2, calls)
}

func TestRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Retry(ctx, "ping", RetryConfig{MaxAttempts: 5, InitialDelay: time.Hour},
		func(context.Context) error { return errBackend })
	assert.ErrorIs(t, err, context.Canceled)
}
