package browser

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

var (
	// the browser engine could not start at all. this is the only
	// failure the rest of the pipeline treats as fatal.
	ErrLaunchFailure = errors.New("browser launch failure")
	// a page did not reach a ready state within its wait bound.
	ErrNavigationTimeout = errors.New("navigation timeout")
	// an expected element never showed up on the rendered page,
	// usually a sign the site layout changed underneath us.
	ErrElementNotFound = errors.New("element not found")
)

// IsTransient reports whether an error is worth retrying. Launch
// failures and validation problems are not; timeouts and missing
// elements often resolve themselves on a slow page.
func IsTransient(err error) bool {
	return errors.Is(err, ErrNavigationTimeout) || errors.Is(err, ErrElementNotFound)
}

type State int32

const (
	StateIdle State = iota
	StateLaunching
	StateReady
	StateNavigating
	StateRendered
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLaunching:
		return "launching"
	case StateReady:
		return "ready"
	case StateNavigating:
		return "navigating"
	case StateRendered:
		return "rendered"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Browser is the narrow automation capability the scraping pipeline
// depends on. A single Browser must only ever be driven by one
// logical caller at a time; run multiple instances for parallelism.
type Browser interface {
	Navigate(ctx context.Context, url string) error
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error
	Click(ctx context.Context, selector string) error
	SendKeys(ctx context.Context, selector, value string) error
	Content(ctx context.Context) (string, error)
	Close() error
}

// WithRetry runs op with exponential backoff, retrying only transient
// failures up to maxAttempts total attempts. The last error is
// returned once attempts are exhausted; nothing here ever panics or
// kills the process.
func WithRetry(ctx context.Context, maxAttempts uint64, op func() error) error {
	if maxAttempts == 0 {
		maxAttempts = 1
	}
	policy := backoff.WithContext(
		backoff.WithMaxRetries(newExponentialPolicy(), maxAttempts-1),
		ctx,
	)
	return backoff.Retry(func() error {
		err := op()
		if err != nil && !IsTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}, policy)
}

func newExponentialPolicy() *backoff.ExponentialBackOff {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = time.Second
	policy.MaxInterval = time.Second * 15
	policy.MaxElapsedTime = 0
	return policy
}
