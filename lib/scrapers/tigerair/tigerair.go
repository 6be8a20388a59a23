// Package tigerair scrapes flight schedules, fares and seat
// availability from the Tigerair Taiwan public booking flow by
// driving a browser session. The scrape of a single date is mostly
// stateless: the output depends solely on the rendered page, so
// extraction stays deterministic and testable against canned HTML.
package tigerair

import (
	"context"
	"errors"
	"fmt"
	"net/http/cookiejar"
	"net/url"
	"time"

	"tigerfare-backend/lib/browser"
	"tigerfare-backend/lib/telemetry"
	"tigerfare-backend/lib/timezone"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	browserua "github.com/EDDYCJY/fake-useragent"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/tigerair")

const (
	DefaultBaseURL = "https://www.tigerairtw.com"

	// selector lists mirror the variants the booking site has been
	// seen serving; chromedp and goquery both take them as-is
	oneWaySelector      = "input[value='oneway']"
	originSelector      = "input[name*='origin'], input[placeholder*='出發地']"
	destinationSelector = "input[name*='destination'], input[placeholder*='目的地']"
	dateSelector        = "input[name*='departure'], input[placeholder*='出發']"
	searchSelector      = "button[type='submit'], .search-button, .btn-search"
	listingSelector     = ".flight-card, .flight-result, .flight-item"
)

type ClientOptions struct {
	BaseUrl string
	// bound on waiting for the listing structure after a search
	ElementTimeout time.Duration
	// settle time after submitting the form before reading content
	RenderDelay time.Duration
}

func (o ClientOptions) withDefaults() ClientOptions {
	if o.BaseUrl == "" {
		o.BaseUrl = DefaultBaseURL
	}
	if o.ElementTimeout == 0 {
		o.ElementTimeout = time.Second * 15
	}
	if o.RenderDelay == 0 {
		o.RenderDelay = time.Second * 2
	}
	return o
}

// Client drives one browser session through the booking flow. Like
// the session it wraps, a Client serves one logical caller at a time.
type Client struct {
	Browser browser.Browser
	Http    *resty.Client
	opts    ClientOptions
}

func NewClient(b browser.Browser, opts ClientOptions) (*Client, error) {
	opts = opts.withDefaults()

	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	client.SetHeader("user-agent", browserua.Chrome())
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseUrl.Hostname()))
	client.SetTimeout(time.Second * 30)
	telemetry.InstrumentResty(client, "scrapers/tigerair/http")

	return &Client{
		Browser: b,
		Http:    client,
		opts:    opts,
	}, nil
}

// Preflight checks that the booking site is reachable over plain HTTP
// before a browser gets launched at it. An unreachable site fails in
// a couple of seconds here instead of a full navigation timeout per
// date.
func (c *Client) Preflight(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Preflight")
	defer span.End()

	res, err := c.Http.R().SetContext(ctx).Get("/")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "site unreachable")
		return fmt.Errorf("preflight %s: %w", c.opts.BaseUrl, err)
	}
	if res.IsError() {
		err := fmt.Errorf("preflight %s: status %s", c.opts.BaseUrl, res.Status())
		span.SetStatus(codes.Error, res.Status())
		return err
	}
	return nil
}

// SearchRequest is one (departure, arrival, date) search.
type SearchRequest struct {
	Departure string
	Arrival   string
	Date      time.Time
}

func (r SearchRequest) Validate() error {
	if _, ok := LookupAirports(r.Departure, r.Arrival); !ok {
		return ValidationError{
			Field: "route",
			Reason: fmt.Sprintf(
				"no supported route between %q and %q", r.Departure, r.Arrival,
			),
		}
	}
	if r.Date.Before(timezone.Today()) {
		return ValidationError{
			Field:  "date",
			Reason: fmt.Sprintf("%s is in the past", timezone.FormatDate(r.Date)),
		}
	}
	return nil
}

// SearchURL is the select-flight deep link for one request.
func (c *Client) SearchURL(req SearchRequest) string {
	query := url.Values{}
	query.Set("departure", req.Departure)
	query.Set("arrival", req.Arrival)
	query.Set("date", timezone.FormatDate(req.Date))
	query.Set("type", "oneway")
	return c.opts.BaseUrl + "/zh-tw/book/select-flight?" + query.Encode()
}

// FetchListing navigates the booking flow for one request and returns
// the rendered results page. The select-flight deep link is tried
// first; when the listing never materializes there, the search form
// on the landing page is driven by hand.
func (c *Client) FetchListing(ctx context.Context, req SearchRequest) (string, error) {
	ctx, span := tracer.Start(ctx, "FetchListing")
	defer span.End()

	if err := c.Browser.Navigate(ctx, c.SearchURL(req)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "navigate")
		return "", err
	}

	err := c.Browser.WaitVisible(ctx, listingSelector, c.opts.ElementTimeout)
	if errors.Is(err, browser.ErrElementNotFound) {
		err = c.searchViaForm(ctx, req)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "wait listing")
		return "", err
	}

	// results keep streaming in briefly after the container appears
	select {
	case <-time.After(c.opts.RenderDelay):
	case <-ctx.Done():
		return "", ctx.Err()
	}

	return c.Browser.Content(ctx)
}

func (c *Client) searchViaForm(ctx context.Context, req SearchRequest) error {
	if err := c.Browser.Navigate(ctx, c.opts.BaseUrl); err != nil {
		return err
	}
	if err := c.fillSearchForm(ctx, req); err != nil {
		return err
	}
	return c.Browser.WaitVisible(ctx, listingSelector, c.opts.ElementTimeout)
}

func (c *Client) fillSearchForm(ctx context.Context, req SearchRequest) error {
	if err := c.Browser.Click(ctx, oneWaySelector); err != nil {
		return fmt.Errorf("select one-way: %w", err)
	}
	if err := c.Browser.SendKeys(ctx, originSelector, req.Departure); err != nil {
		return fmt.Errorf("set origin: %w", err)
	}
	if err := c.Browser.SendKeys(ctx, destinationSelector, req.Arrival); err != nil {
		return fmt.Errorf("set destination: %w", err)
	}
	if err := c.Browser.SendKeys(ctx, dateSelector, timezone.FormatDate(req.Date)); err != nil {
		return fmt.Errorf("set date: %w", err)
	}
	if err := c.Browser.Click(ctx, searchSelector); err != nil {
		return fmt.Errorf("submit search: %w", err)
	}
	return nil
}
