package browser

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWithRetryRecoversTransientFailure(t *testing.T) {
	attempts := 0
	err := WithRetry(context.Background(), 3, func() error {
		attempts++
		if attempts < 3 {
			return fmt.Errorf("%w: slow page", ErrNavigationTimeout)
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, attempts)
}

func TestWithRetryExhaustionReturnsLastError(t *testing.T) {
	attempts := 0
	err := WithRetry(context.Background(), 3, func() error {
		attempts++
		return fmt.Errorf("%w: listing", ErrElementNotFound)
	})
	require.ErrorIs(t, err, ErrElementNotFound)
	require.Equal(t, 3, attempts)
}

func TestWithRetryDoesNotRetryPermanentErrors(t *testing.T) {
	attempts := 0
	err := WithRetry(context.Background(), 5, func() error {
		attempts++
		return fmt.Errorf("%w: chrome missing", ErrLaunchFailure)
	})
	require.ErrorIs(t, err, ErrLaunchFailure)
	require.Equal(t, 1, attempts)
}

func TestIsTransient(t *testing.T) {
	require.True(t, IsTransient(fmt.Errorf("wrapped: %w", ErrNavigationTimeout)))
	require.True(t, IsTransient(ErrElementNotFound))
	require.False(t, IsTransient(ErrLaunchFailure))
	require.False(t, IsTransient(fmt.Errorf("other")))
}

func TestStateString(t *testing.T) {
	require.Equal(t, "idle", StateIdle.String())
	require.Equal(t, "ready", StateReady.String())
	require.Equal(t, "closed", StateClosed.String())
}
