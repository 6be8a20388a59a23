package commands

import (
	"errors"
	"fmt"
	"testing"

	"tigerfare-backend/lib/browser"
	"tigerfare-backend/services/fares"

	"github.com/stretchr/testify/require"
)

func TestPartialFailureKeepsUsableResults(t *testing.T) {
	withResults := map[string]fares.RoutePair{"TPE_NRT": {}}

	// a single route's session crash leaves the other routes' ranking
	// worth rendering and exporting
	crash := errors.Join(fmt.Errorf("route TPE_OKA: %w", errors.New("session crashed")))
	require.True(t, partialFailure(crash, withResults))

	// launch failure means no browser at all; nothing partial about it
	launch := fmt.Errorf("route TPE_NRT: %w", browser.ErrLaunchFailure)
	require.False(t, partialFailure(launch, withResults))

	// every route failed, there is nothing to keep
	require.False(t, partialFailure(crash, map[string]fares.RoutePair{}))
	require.False(t, partialFailure(crash, nil))
}
