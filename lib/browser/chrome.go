package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/chromedp/chromedp"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("lib/browser")

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

type Options struct {
	// show the browser window, for debugging form filling
	Headless bool
	// bound on every page navigation before it counts as timed out
	NavigationTimeout time.Duration
	UserAgent         string
}

func (o Options) withDefaults() Options {
	if o.NavigationTimeout == 0 {
		o.NavigationTimeout = time.Second * 30
	}
	if o.UserAgent == "" {
		o.UserAgent = defaultUserAgent
	}
	return o
}

// Session drives one Chrome instance over the devtools protocol.
// It implements Browser and is not safe for concurrent use.
type Session struct {
	opts        Options
	ctx         context.Context
	cancelAlloc context.CancelFunc
	cancelCtx   context.CancelFunc
	state       atomic.Int32
}

var _ Browser = (*Session)(nil)

// Open launches a Chrome instance. A failure here is ErrLaunchFailure,
// the one fatal error in the taxonomy.
func Open(ctx context.Context, opts Options) (*Session, error) {
	opts = opts.withDefaults()

	s := &Session{opts: opts}
	s.setState(StateLaunching)

	allocOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(opts.UserAgent),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, cancelCtx := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	// an empty Run starts the browser process eagerly so launch
	// failures surface here instead of on the first navigation
	if err := chromedp.Run(browserCtx); err != nil {
		cancelCtx()
		cancelAlloc()
		s.setState(StateClosed)
		return nil, fmt.Errorf("%w: %v", ErrLaunchFailure, err)
	}

	s.ctx = browserCtx
	s.cancelAlloc = cancelAlloc
	s.cancelCtx = cancelCtx
	s.setState(StateReady)

	slog.Debug("browser session launched", "headless", opts.Headless)
	return s, nil
}

func (s *Session) setState(state State) {
	s.state.Store(int32(state))
}

func (s *Session) State() State {
	return State(s.state.Load())
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	ctx, span := tracer.Start(ctx, "Navigate")
	defer span.End()

	if s.State() == StateClosed {
		return fmt.Errorf("navigate on closed session")
	}
	s.setState(StateNavigating)

	tctx, cancel := context.WithTimeout(s.ctx, s.opts.NavigationTimeout)
	defer cancel()
	stop := propagateCancel(ctx, cancel)
	defer stop()

	err := chromedp.Run(tctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		// a timed out wait leaves the session reusable
		s.setState(StateReady)
		span.RecordError(err)
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return fmt.Errorf("%w: %s", ErrNavigationTimeout, url)
		}
		return err
	}

	s.setState(StateRendered)
	return nil
}

func (s *Session) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	ctx, span := tracer.Start(ctx, "WaitVisible")
	defer span.End()

	prev := s.State()
	tctx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()
	stop := propagateCancel(ctx, cancel)
	defer stop()

	err := chromedp.Run(tctx, chromedp.WaitVisible(selector, chromedp.ByQuery))
	if err != nil {
		s.setState(prev)
		span.RecordError(err)
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return fmt.Errorf("%w: %s", ErrElementNotFound, selector)
		}
		return err
	}
	return nil
}

func (s *Session) Click(ctx context.Context, selector string) error {
	tctx, cancel := context.WithTimeout(s.ctx, s.opts.NavigationTimeout)
	defer cancel()
	stop := propagateCancel(ctx, cancel)
	defer stop()

	err := chromedp.Run(tctx, chromedp.Click(selector, chromedp.ByQuery))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return fmt.Errorf("%w: %s", ErrElementNotFound, selector)
		}
		return err
	}
	return nil
}

func (s *Session) SendKeys(ctx context.Context, selector, value string) error {
	tctx, cancel := context.WithTimeout(s.ctx, s.opts.NavigationTimeout)
	defer cancel()
	stop := propagateCancel(ctx, cancel)
	defer stop()

	err := chromedp.Run(tctx,
		chromedp.Clear(selector, chromedp.ByQuery),
		chromedp.SendKeys(selector, value, chromedp.ByQuery),
	)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return fmt.Errorf("%w: %s", ErrElementNotFound, selector)
		}
		return err
	}
	return nil
}

func (s *Session) Content(ctx context.Context) (string, error) {
	ctx, span := tracer.Start(ctx, "Content")
	defer span.End()

	tctx, cancel := context.WithTimeout(s.ctx, s.opts.NavigationTimeout)
	defer cancel()
	stop := propagateCancel(ctx, cancel)
	defer stop()

	var html string
	err := chromedp.Run(tctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	return html, nil
}

func (s *Session) Close() error {
	if s.State() == StateClosed {
		return nil
	}
	s.setState(StateClosed)
	if s.cancelCtx != nil {
		s.cancelCtx()
	}
	if s.cancelAlloc != nil {
		s.cancelAlloc()
	}
	return nil
}

// chromedp operations run on the session's own context so the browser
// survives individual calls; the caller's context still needs to be
// able to abort a wait in flight.
func propagateCancel(caller context.Context, cancel context.CancelFunc) (stop func()) {
	done := make(chan struct{})
	go func() {
		select {
		case <-caller.Done():
			cancel()
		case <-done:
		}
	}()
	return func() { close(done) }
}
