package tigerair

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"tigerfare-backend/lib/browser"
	"tigerfare-backend/lib/timezone"

	"github.com/mazen160/go-random"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type ControllerOptions struct {
	// fixed delay between consecutive date requests, to bound the
	// request rate against the site
	PacingDelay time.Duration
	// upper bound of the random extra added on top of PacingDelay
	PacingJitter time.Duration
	// total attempts per date for transient failures
	MaxAttempts uint64
}

func (o ControllerOptions) withDefaults() ControllerOptions {
	if o.PacingDelay == 0 {
		o.PacingDelay = time.Second * 2
	}
	if o.PacingJitter == 0 {
		o.PacingJitter = time.Second
	}
	if o.MaxAttempts == 0 {
		o.MaxAttempts = 3
	}
	return o
}

// SearchController runs one route's search across a set of dates,
// absorbing per-date failures so a single bad date never sinks the
// rest of the window.
type SearchController struct {
	client *Client
	opts   ControllerOptions
}

func NewSearchController(client *Client, opts ControllerOptions) *SearchController {
	return &SearchController{
		client: client,
		opts:   opts.withDefaults(),
	}
}

// SearchRoute scrapes every date in ascending order. Flights keep
// date order; each failed date becomes a DateError instead of an
// abort. Cancelling ctx stops the walk at the current date.
func (s *SearchController) SearchRoute(ctx context.Context, route Route, dates []time.Time) RouteResult {
	ctx, span := tracer.Start(ctx, "SearchRoute")
	defer span.End()
	span.SetAttributes(attribute.String("route", route.Code))

	sorted := make([]time.Time, len(dates))
	copy(sorted, dates)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	result := RouteResult{
		Route: route,
		SearchParams: SearchParams{
			Departure: route.From,
			Arrival:   route.To,
		},
	}
	for _, date := range sorted {
		result.SearchParams.Dates = append(result.SearchParams.Dates, timezone.FormatDate(date))
	}

	today := timezone.Today()
	for i, date := range sorted {
		if i > 0 {
			if err := s.pace(ctx); err != nil {
				break
			}
		}
		if ctx.Err() != nil {
			break
		}

		if date.Before(today) {
			result.Errors = append(result.Errors, DateError{
				Date:  timezone.FormatDate(date),
				Cause: "date is in the past",
			})
			continue
		}

		flights, skipped, err := s.searchDate(ctx, route, date)
		if err != nil {
			slog.WarnContext(ctx, "date search failed",
				"route", route.Code,
				"date", timezone.FormatDate(date),
				"err", err,
			)
			result.Errors = append(result.Errors, DateError{
				Date:  timezone.FormatDate(date),
				Cause: err.Error(),
			})
			continue
		}

		result.Flights = append(result.Flights, flights...)
		result.SkippedRows += skipped
		slog.DebugContext(ctx, "date scraped",
			"route", route.Code,
			"date", timezone.FormatDate(date),
			"flights", len(flights),
			"skipped_rows", skipped,
		)
	}

	span.SetAttributes(
		attribute.Int("flights", len(result.Flights)),
		attribute.Int("failed_dates", len(result.Errors)),
	)
	if len(result.Flights) == 0 && len(result.Errors) > 0 {
		span.SetStatus(codes.Error, "no date produced flights")
	}
	return result
}

// SearchWindow scrapes the next daysAhead dates starting tomorrow.
func (s *SearchController) SearchWindow(ctx context.Context, route Route, daysAhead int) RouteResult {
	return s.SearchRoute(ctx, route, Window(daysAhead))
}

// Window lists the rolling search dates [tomorrow, today+daysAhead].
func Window(daysAhead int) []time.Time {
	today := timezone.Today()
	dates := make([]time.Time, 0, daysAhead)
	for i := 1; i <= daysAhead; i++ {
		dates = append(dates, today.AddDate(0, 0, i))
	}
	return dates
}

func (s *SearchController) searchDate(ctx context.Context, route Route, date time.Time) ([]Flight, int, error) {
	var flights []Flight
	var skipped int

	err := browser.WithRetry(ctx, s.opts.MaxAttempts, func() error {
		html, err := s.client.FetchListing(ctx, SearchRequest{
			Departure: route.From,
			Arrival:   route.To,
			Date:      date,
		})
		if err != nil {
			return err
		}
		flights, skipped, err = Extract(route, date, html)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return flights, skipped, nil
}

func (s *SearchController) pace(ctx context.Context) error {
	delay := s.opts.PacingDelay
	if s.opts.PacingJitter > 0 {
		extra, err := random.IntRange(0, int(s.opts.PacingJitter.Milliseconds()))
		if err == nil {
			delay += time.Duration(extra) * time.Millisecond
		}
	}
	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Reversed is the return leg of a route: same code, mirrored airports.
func (r Route) Reversed() Route {
	return Route{Code: r.Code, From: r.To, To: r.From, Name: r.Name}
}
