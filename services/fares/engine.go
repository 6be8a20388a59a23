// Package fares turns scraped flight windows into ranked round-trip
// fare combinations and everything downstream of that: aggregation,
// persistence, export and alerting.
package fares

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"tigerfare-backend/lib/browser"
	"tigerfare-backend/lib/scrapers/tigerair"
	"tigerfare-backend/lib/timezone"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("services/fares")

// WindowSearcher is the slice of the route search controller the
// engine needs; tests substitute canned results.
type WindowSearcher interface {
	SearchRoute(ctx context.Context, route tigerair.Route, dates []time.Time) tigerair.RouteResult
}

// SearcherFactory builds one searcher per route. Each call must
// return an independent instance (its own browser session) because
// route searches run concurrently; close releases the session.
type SearcherFactory func(ctx context.Context, route tigerair.Route) (searcher WindowSearcher, close func() error, err error)

// PairingPolicy decides how the two legs of a candidate date are
// matched up.
type PairingPolicy int

const (
	// cheapest available flight on the outbound date paired with the
	// cheapest available flight on the return date
	PairCheapestPerDay PairingPolicy = iota
	// every outbound x inbound pair on the candidate dates evaluated,
	// cheapest valid total kept
	PairExhaustive
)

type EngineOptions struct {
	// rolling window size in days ahead of today
	DaysAhead int
	// nights between the outbound and return departure dates;
	// the 5-day-4-night search fixes this to 4
	TripLengthDays int
	MaxResults     int
	Policy         PairingPolicy
}

func (o EngineOptions) withDefaults() EngineOptions {
	if o.DaysAhead == 0 {
		o.DaysAhead = 30
	}
	if o.TripLengthDays == 0 {
		o.TripLengthDays = 4
	}
	if o.MaxResults == 0 {
		o.MaxResults = 10
	}
	return o
}

// TripCombination is one matched outbound+inbound pair forming a
// fixed-length round trip. Derived and read-only.
type TripCombination struct {
	Route          string          `json:"route"`
	RouteName      string          `json:"route_name"`
	DepartureDate  string          `json:"departure_date"`
	ReturnDate     string          `json:"return_date"`
	Outbound       tigerair.Flight `json:"outbound_flight"`
	Inbound        tigerair.Flight `json:"inbound_flight"`
	TotalPrice     float64         `json:"total_price"`
	TripLengthDays int             `json:"trip_length_days"`
}

// AverageDailyCost spreads the total over the calendar days of the
// trip (nights + 1).
func (t TripCombination) AverageDailyCost() float64 {
	return t.TotalPrice / float64(t.TripLengthDays+1)
}

// RoutePair holds both scraped directions of one route's window.
type RoutePair struct {
	Outbound tigerair.RouteResult
	Inbound  tigerair.RouteResult
}

type Engine struct {
	factory SearcherFactory
	opts    EngineOptions
}

func NewEngine(factory SearcherFactory, opts EngineOptions) *Engine {
	return &Engine{factory: factory, opts: opts.withDefaults()}
}

// FindCheapestTrips scrapes every route's window in both directions,
// enumerates valid fixed-length pairs and ranks them by total price.
// A route with no flights contributes nothing; only a browser launch
// failure aborts the whole search.
func (e *Engine) FindCheapestTrips(ctx context.Context, routes []tigerair.Route) ([]TripCombination, map[string]RoutePair, error) {
	ctx, span := tracer.Start(ctx, "FindCheapestTrips")
	defer span.End()
	span.SetAttributes(
		attribute.Int("routes", len(routes)),
		attribute.Int("days_ahead", e.opts.DaysAhead),
	)

	outboundDates, inboundDates := e.windowDates()

	perRoute := make(map[string]RoutePair, len(routes))
	var errList []error
	var lock sync.Mutex
	var wg sync.WaitGroup

	for _, route := range routes {
		route := route
		wg.Add(1)
		go func() {
			defer wg.Done()

			searcher, closeSession, err := e.factory(ctx, route)
			if err != nil {
				lock.Lock()
				errList = append(errList, fmt.Errorf("route %s: %w", route.Code, err))
				lock.Unlock()
				return
			}
			defer closeSession()

			pair := RoutePair{
				Outbound: searcher.SearchRoute(ctx, route, outboundDates),
				Inbound:  searcher.SearchRoute(ctx, route.Reversed(), inboundDates),
			}

			lock.Lock()
			perRoute[route.Code] = pair
			lock.Unlock()
		}()
	}
	wg.Wait()

	// the aggregated list is built strictly after the join point
	for _, err := range errList {
		if errors.Is(err, browser.ErrLaunchFailure) {
			return nil, nil, err
		}
	}

	var trips []TripCombination
	for _, route := range routes {
		pair, ok := perRoute[route.Code]
		if !ok {
			continue
		}
		trips = append(trips, e.combine(route, pair)...)
	}

	sortTrips(trips)
	if len(trips) > e.opts.MaxResults {
		trips = trips[:e.opts.MaxResults]
	}

	span.SetAttributes(attribute.Int("combinations", len(trips)))
	return trips, perRoute, errors.Join(errList...)
}

// windowDates returns the candidate outbound dates and the matching
// set of return dates inside the horizon.
func (e *Engine) windowDates() (outbound, inbound []time.Time) {
	today := timezone.Today()
	horizon := today.AddDate(0, 0, e.opts.DaysAhead)
	for i := 1; i <= e.opts.DaysAhead; i++ {
		d := today.AddDate(0, 0, i)
		outbound = append(outbound, d)
		ret := d.AddDate(0, 0, e.opts.TripLengthDays)
		if !ret.After(horizon) {
			inbound = append(inbound, ret)
		}
	}
	return outbound, inbound
}

func (e *Engine) combine(route tigerair.Route, pair RoutePair) []TripCombination {
	outByDate := flightsByDate(pair.Outbound.Available())
	inByDate := flightsByDate(pair.Inbound.Available())

	today := timezone.Today()
	horizon := today.AddDate(0, 0, e.opts.DaysAhead)

	var trips []TripCombination
	for i := 1; i <= e.opts.DaysAhead; i++ {
		depart := today.AddDate(0, 0, i)
		ret := depart.AddDate(0, 0, e.opts.TripLengthDays)
		if ret.After(horizon) {
			break
		}

		outbound, inbound, ok := e.pickLegs(
			outByDate[timezone.FormatDate(depart)],
			inByDate[timezone.FormatDate(ret)],
		)
		if !ok {
			continue
		}

		trips = append(trips, TripCombination{
			Route:          route.Code,
			RouteName:      route.Name,
			DepartureDate:  timezone.FormatDate(depart),
			ReturnDate:     timezone.FormatDate(ret),
			Outbound:       outbound,
			Inbound:        inbound,
			TotalPrice:     outbound.Price + inbound.Price,
			TripLengthDays: e.opts.TripLengthDays,
		})
	}
	return trips
}

// pickLegs applies the pairing policy to one candidate date. Either
// leg having no available flights skips the pairing.
func (e *Engine) pickLegs(outbound, inbound []tigerair.Flight) (tigerair.Flight, tigerair.Flight, bool) {
	if len(outbound) == 0 || len(inbound) == 0 {
		return tigerair.Flight{}, tigerair.Flight{}, false
	}

	switch e.opts.Policy {
	case PairExhaustive:
		best := TripCombination{TotalPrice: -1}
		for _, out := range outbound {
			for _, in := range inbound {
				total := out.Price + in.Price
				if best.TotalPrice < 0 || total < best.TotalPrice {
					best = TripCombination{Outbound: out, Inbound: in, TotalPrice: total}
				}
			}
		}
		return best.Outbound, best.Inbound, true
	default:
		return cheapestFlight(outbound), cheapestFlight(inbound), true
	}
}

func cheapestFlight(flights []tigerair.Flight) tigerair.Flight {
	best := flights[0]
	for _, f := range flights[1:] {
		if f.Price < best.Price {
			best = f
		}
	}
	return best
}

func flightsByDate(flights []tigerair.Flight) map[string][]tigerair.Flight {
	out := map[string][]tigerair.Flight{}
	for _, f := range flights {
		out[f.DepartureDate] = append(out[f.DepartureDate], f)
	}
	return out
}

// sortTrips orders ascending by total price; ties break on earlier
// outbound date and then route code so equal-priced results are
// deterministic.
func sortTrips(trips []TripCombination) {
	sort.SliceStable(trips, func(i, j int) bool {
		a, b := trips[i], trips[j]
		if a.TotalPrice != b.TotalPrice {
			return a.TotalPrice < b.TotalPrice
		}
		if a.DepartureDate != b.DepartureDate {
			return a.DepartureDate < b.DepartureDate
		}
		return a.Route < b.Route
	})
}
