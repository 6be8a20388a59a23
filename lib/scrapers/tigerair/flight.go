package tigerair

import (
	"strconv"
	"strings"
	"time"

	"tigerfare-backend/lib/timezone"
)

// TimeSlot is the coarse departure-time bucket the booking site
// groups flights into.
type TimeSlot string

const (
	SlotEarly     TimeSlot = "early"
	SlotMorning   TimeSlot = "morning"
	SlotAfternoon TimeSlot = "afternoon"
	SlotEvening   TimeSlot = "evening"
	SlotUnknown   TimeSlot = "unknown"
)

// SlotForTime buckets an "HH:MM" departure time:
// early < 08:00 <= morning < 12:00 <= afternoon < 18:00 <= evening.
func SlotForTime(hhmm string) TimeSlot {
	sep := strings.IndexByte(hhmm, ':')
	if sep <= 0 {
		return SlotUnknown
	}
	hour, err := strconv.Atoi(hhmm[:sep])
	if err != nil || hour < 0 || hour > 23 {
		return SlotUnknown
	}
	switch {
	case hour < 8:
		return SlotEarly
	case hour < 12:
		return SlotMorning
	case hour < 18:
		return SlotAfternoon
	default:
		return SlotEvening
	}
}

// Flight is one scraped offer. It is immutable once extracted; prices
// are a point-in-time snapshot of whatever the site showed.
type Flight struct {
	FlightNumber   string   `json:"flight_number"`
	DepartureTime  string   `json:"departure_time"`
	ArrivalTime    string   `json:"arrival_time"`
	DepartureDate  string   `json:"departure_date"`
	Price          float64  `json:"price"`
	SeatsAvailable bool     `json:"seats_available"`
	TimeSlot       TimeSlot `json:"time_slot"`
	Route          string   `json:"route"`
}

func (f Flight) DepartureDay() (time.Time, error) {
	return timezone.ParseDate(f.DepartureDate)
}

// DateError records one date of a window that could not be scraped.
// Per-date failures never abort a multi-date search.
type DateError struct {
	Date  string `json:"date"`
	Cause string `json:"cause"`
}

// SearchParams echoes back what a RouteResult was searched with.
type SearchParams struct {
	Departure string   `json:"departure"`
	Arrival   string   `json:"arrival"`
	Dates     []string `json:"dates"`
}

// RouteResult is everything one route search produced: the flights
// that extracted cleanly, plus an explicit record of each failed date.
type RouteResult struct {
	Route        Route        `json:"route"`
	Flights      []Flight     `json:"flights"`
	Errors       []DateError  `json:"errors"`
	SkippedRows  int          `json:"skipped_rows"`
	SearchParams SearchParams `json:"search_params"`
}

// Available filters to flights with seats and a usable price.
func (r RouteResult) Available() []Flight {
	var out []Flight
	for _, f := range r.Flights {
		if f.SeatsAvailable {
			out = append(out, f)
		}
	}
	return out
}
