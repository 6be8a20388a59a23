package fares

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"tigerfare-backend/lib/timezone"
)

var csvHeader = []string{
	"flight_number", "departure_time", "arrival_time", "departure_date",
	"price", "seats_available", "time_slot", "route",
}

// WriteFlightsCSV writes every flight of the report in route order.
func WriteFlightsCSV(w io.Writer, report TopNReport) error {
	out := csv.NewWriter(w)
	if err := out.Write(csvHeader); err != nil {
		return err
	}
	for _, code := range sortedReportKeys(report.Routes) {
		for _, f := range report.Routes[code].Flights {
			record := []string{
				f.FlightNumber,
				f.DepartureTime,
				f.ArrivalTime,
				f.DepartureDate,
				strconv.FormatFloat(f.Price, 'f', -1, 64),
				strconv.FormatBool(f.SeatsAvailable),
				string(f.TimeSlot),
				f.Route,
			}
			if err := out.Write(record); err != nil {
				return err
			}
		}
	}
	out.Flush()
	return out.Error()
}

// ExportFormat selects which files SaveReport writes.
type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatJSON ExportFormat = "json"
	FormatBoth ExportFormat = "both"
)

func ParseExportFormat(s string) (ExportFormat, error) {
	switch ExportFormat(s) {
	case FormatCSV, FormatJSON, FormatBoth:
		return ExportFormat(s), nil
	}
	return "", fmt.Errorf("unknown output format %q (want csv, json or both)", s)
}

// SaveReport writes timestamped CSV/JSON files under dir and returns
// the paths written.
func SaveReport(dir string, report TopNReport, format ExportFormat) (map[string]string, error) {
	if err := os.MkdirAll(dir, 0777); err != nil {
		return nil, err
	}
	stamp := timezone.Now().Format("20060102_150405")
	paths := map[string]string{}

	if format == FormatCSV || format == FormatBoth {
		path := filepath.Join(dir, fmt.Sprintf("tigerair_flights_%s.csv", stamp))
		f, err := os.Create(path)
		if err != nil {
			return nil, err
		}
		err = WriteFlightsCSV(f, report)
		f.Close()
		if err != nil {
			return nil, err
		}
		paths["csv"] = path
	}

	if format == FormatJSON || format == FormatBoth {
		path := filepath.Join(dir, fmt.Sprintf("tigerair_flights_%s.json", stamp))
		f, err := os.Create(path)
		if err != nil {
			return nil, err
		}
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		err = enc.Encode(report)
		f.Close()
		if err != nil {
			return nil, err
		}
		paths["json"] = path
	}

	return paths, nil
}

func sortedReportKeys(m map[string]RouteReport) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
