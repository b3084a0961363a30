package utils

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRetryStopsOnSuccess(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		if calls < 2 {
			return errors.New("flaky")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 2, calls)
}

func TestRetryWrapsLastError(t *testing.T) {
	sentinel := errors.New("page never loaded")
	calls := 0
	err := Retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)
	require.Equal(t, 3, calls)
}

func TestRetryHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Retry(ctx, 5, time.Hour, func() error {
		calls++
		cancel()
		return errors.New("boom")
	})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, calls)
}

func TestPauseReturnsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Pause(ctx, time.Hour, 2*time.Hour, false, "waiting")
	require.ErrorIs(t, err, context.Canceled)
}

func TestRandomDuration(t *testing.T) {
	for i := 0; i < 50; i++ {
		d := RandomDuration(10*time.Millisecond, 20*time.Millisecond)
		require.GreaterOrEqual(t, d, 10*time.Millisecond)
		require.Less(t, d, 20*time.Millisecond)
	}
	require.Equal(t, 5*time.Millisecond, RandomDuration(5*time.Millisecond, 5*time.Millisecond))
}

func TestSetupLoggerRejectsUnknownValues(t *testing.T) {
	require.NoError(t, SetupLogger("debug", "json"))
	require.NoError(t, SetupLogger("info", "text"))
	require.Error(t, SetupLogger("loud", "text"))
	require.Error(t, SetupLogger("info", "xml"))
}
