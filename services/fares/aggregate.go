package fares

import (
	"sort"
	"time"

	"tigerfare-backend/lib/scrapers/tigerair"
	"tigerfare-backend/lib/timezone"
)

// RouteSummary is the per-route slice of a report.
type RouteSummary struct {
	TotalCount     int `json:"total_count"`
	AvailableCount int `json:"available_count"`
	ErrorCount     int `json:"error_count"`
	SkippedRows    int `json:"skipped_rows"`
}

type RouteReport struct {
	RouteName    string                `json:"route_name"`
	Flights      []tigerair.Flight     `json:"flights"`
	Errors       []tigerair.DateError  `json:"errors,omitempty"`
	SearchParams tigerair.SearchParams `json:"search_params"`
	Summary      RouteSummary          `json:"summary"`
}

// TopNReport is the merged output of a whole search: every route's
// flights plus the ranked combinations. It is assembled once, after
// all route searches have joined, and never mutated after that.
type TopNReport struct {
	Timestamp    string                 `json:"timestamp"`
	TotalFlights int                    `json:"total_flights"`
	Routes       map[string]RouteReport `json:"routes"`
	Trips        []TripCombination      `json:"trips,omitempty"`
}

// Aggregate merges per-route results into one report. Ordering of
// trips is whatever the engine produced; this is a pure merge.
func Aggregate(results []tigerair.RouteResult, trips []TripCombination) TopNReport {
	report := TopNReport{
		Timestamp: timezone.Now().Format(time.RFC3339),
		Routes:    map[string]RouteReport{},
		Trips:     trips,
	}

	for _, result := range results {
		report.TotalFlights += len(result.Flights)
		report.Routes[result.Route.Code] = RouteReport{
			RouteName:    result.Route.Name,
			Flights:      result.Flights,
			Errors:       result.Errors,
			SearchParams: result.SearchParams,
			Summary: RouteSummary{
				TotalCount:     len(result.Flights),
				AvailableCount: len(result.Available()),
				ErrorCount:     len(result.Errors),
				SkippedRows:    result.SkippedRows,
			},
		}
	}
	return report
}

// AggregatePairs flattens engine output into the report shape, one
// entry per route direction.
func AggregatePairs(perRoute map[string]RoutePair, trips []TripCombination) TopNReport {
	var results []tigerair.RouteResult
	for _, code := range sortedKeys(perRoute) {
		pair := perRoute[code]
		merged := pair.Outbound
		merged.Flights = append(append([]tigerair.Flight{}, pair.Outbound.Flights...), pair.Inbound.Flights...)
		merged.Errors = append(append([]tigerair.DateError{}, pair.Outbound.Errors...), pair.Inbound.Errors...)
		merged.SkippedRows = pair.Outbound.SkippedRows + pair.Inbound.SkippedRows
		results = append(results, merged)
	}
	return Aggregate(results, trips)
}

func sortedKeys(m map[string]RoutePair) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
