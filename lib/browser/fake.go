package browser

import (
	"context"
	"fmt"
	"time"
)

// Fake is a scripted Browser for tests: it serves canned page content
// keyed by URL and can be told to fail specific navigations. It keeps
// the extraction and controller tests fully deterministic with no
// Chrome process involved.
type Fake struct {
	// Pages maps a URL to the HTML Content should return after
	// navigating there.
	Pages map[string]string
	// FailNavigate maps a URL to the error Navigate returns for it.
	FailNavigate map[string]error
	// MissingSelectors lists selectors WaitVisible reports as absent.
	MissingSelectors map[string]bool

	// NavigateCalls records every URL in navigation order.
	NavigateCalls []string

	current string
	closed  bool
}

var _ Browser = (*Fake)(nil)

func NewFake() *Fake {
	return &Fake{
		Pages:            map[string]string{},
		FailNavigate:     map[string]error{},
		MissingSelectors: map[string]bool{},
	}
}

func (f *Fake) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.NavigateCalls = append(f.NavigateCalls, url)
	if err := f.FailNavigate[url]; err != nil {
		return err
	}
	f.current = url
	return nil
}

func (f *Fake) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.MissingSelectors[selector] {
		return fmt.Errorf("%w: %s", ErrElementNotFound, selector)
	}
	return nil
}

func (f *Fake) Click(ctx context.Context, selector string) error {
	return f.WaitVisible(ctx, selector, 0)
}

func (f *Fake) SendKeys(ctx context.Context, selector, value string) error {
	return f.WaitVisible(ctx, selector, 0)
}

func (f *Fake) Content(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	page, ok := f.Pages[f.current]
	if !ok {
		return "<html><body></body></html>", nil
	}
	return page, nil
}

func (f *Fake) Close() error {
	f.closed = true
	return nil
}

func (f *Fake) Closed() bool {
	return f.closed
}
