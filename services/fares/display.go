package fares

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
)

// RenderTrips prints the ranked combinations as a terminal table.
func RenderTrips(w io.Writer, trips []TripCombination) {
	if len(trips) == 0 {
		fmt.Fprintln(w, "no round-trip combinations found")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{
		"#", "Route", "Depart", "Return",
		"Outbound", "Inbound", "Total (TWD)", "Per day",
	})

	for i, trip := range trips {
		t.AppendRow(table.Row{
			i + 1,
			trip.RouteName,
			trip.DepartureDate,
			trip.ReturnDate,
			fmt.Sprintf("%s %s-%s %.0f",
				trip.Outbound.FlightNumber,
				trip.Outbound.DepartureTime, trip.Outbound.ArrivalTime,
				trip.Outbound.Price),
			fmt.Sprintf("%s %s-%s %.0f",
				trip.Inbound.FlightNumber,
				trip.Inbound.DepartureTime, trip.Inbound.ArrivalTime,
				trip.Inbound.Price),
			fmt.Sprintf("%.0f", trip.TotalPrice),
			fmt.Sprintf("%.0f", trip.AverageDailyCost()),
		})
	}

	t.SetStyle(table.StyleRounded)
	t.Render()
}

// RenderFlights prints one route result's flights.
func RenderFlights(w io.Writer, report TopNReport) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{
		"Flight", "Date", "Departs", "Arrives", "Price", "Seats", "Slot", "Route",
	})

	for _, code := range sortedReportKeys(report.Routes) {
		for _, f := range report.Routes[code].Flights {
			seats := "yes"
			if !f.SeatsAvailable {
				seats = "sold out"
			}
			t.AppendRow(table.Row{
				f.FlightNumber, f.DepartureDate, f.DepartureTime, f.ArrivalTime,
				fmt.Sprintf("%.0f", f.Price), seats, string(f.TimeSlot), f.Route,
			})
		}
	}

	t.SetStyle(table.StyleRounded)
	t.Render()
}
