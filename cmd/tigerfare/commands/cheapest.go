package commands

import (
	"errors"
	"log/slog"
	"os"
	"time"

	"tigerfare-backend/lib/browser"
	"tigerfare-backend/lib/configutil"
	"tigerfare-backend/lib/scrapers/tigerair"
	"tigerfare-backend/lib/serviceutil"
	"tigerfare-backend/services/fares"

	"github.com/spf13/cobra"
)

type CheapestConfig struct {
	Alerts fares.AlertConfig `json:"alerts"`
}

var (
	cheapestRoutes *[]string
	cheapestDays   *int
	cheapestNights *int
	cheapestMax    *int
	cheapestFormat *string
	cheapestOut    *string
)

func init() {
	cheapestRoutes = cheapestCmd.Flags().StringArray("route", nil, "Route code to consider, repeatable. Defaults to TPE_NRT and TPE_OKA.")
	cheapestDays = cheapestCmd.Flags().Int("days", 30, "How many days ahead to search.")
	cheapestNights = cheapestCmd.Flags().Int("nights", 4, "Nights between outbound and return departure.")
	cheapestMax = cheapestCmd.Flags().Int("max", 10, "How many ranked combinations to keep.")
	cheapestFormat = cheapestCmd.Flags().String("format", "json", "Export format: csv, json or both.")
	cheapestOut = cheapestCmd.Flags().String("out", "output", "Directory to write exports to.")
	rootCmd.AddCommand(cheapestCmd)
}

// partialFailure reports whether a search error still left usable
// per-route results behind. Only a browser launch failure, or every
// single route failing, is worth throwing the run away for.
func partialFailure(err error, perRoute map[string]fares.RoutePair) bool {
	return !errors.Is(err, browser.ErrLaunchFailure) && len(perRoute) > 0
}

var cheapestCmd = &cobra.Command{
	Use:   "cheapest [--days <n>] [--nights <n>] [--max <n>]",
	Short: "Searches a rolling window and ranks fixed-length round trips by total price.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		format, err := fares.ParseExportFormat(*cheapestFormat)
		if err != nil {
			serviceutil.Fatal("invalid --format", err)
		}

		codes := *cheapestRoutes
		if len(codes) == 0 {
			codes = []string{"TPE_NRT", "TPE_OKA"}
		}
		var routes []tigerair.Route
		for _, code := range codes {
			route, ok := tigerair.LookupRoute(code)
			if !ok {
				slog.Error("unknown route",
					"route", code,
					"suggestion", tigerair.SuggestRoute(code),
				)
				os.Exit(1)
			}
			routes = append(routes, route)
		}

		engine := fares.NewEngine(searcherFactory, fares.EngineOptions{
			DaysAhead:      *cheapestDays,
			TripLengthDays: *cheapestNights,
			MaxResults:     *cheapestMax,
		})

		t1 := time.Now()
		trips, perRoute, err := engine.FindCheapestTrips(ctx, routes)
		if err != nil && !partialFailure(err, perRoute) {
			serviceutil.Fatal("round-trip search failed", err)
		}
		if err != nil {
			slog.Error("some routes failed, continuing with partial results", "err", err)
		}
		t2 := time.Now()

		fares.RenderTrips(os.Stdout, trips)

		report := fares.AggregatePairs(perRoute, trips)
		written, err := fares.SaveReport(*cheapestOut, report, format)
		if err != nil {
			serviceutil.Fatal("failed to export results", err)
		}
		for kind, path := range written {
			slog.Info("export written", "format", kind, "path", path)
		}

		cfg, err := configutil.ReadConfig[CheapestConfig]("config.json5")
		if err != nil {
			slog.Debug("no alert config, skipping alerts", "err", err)
		} else {
			notifier := fares.NewNotifier(cfg.Alerts)
			if notifier.Enabled() {
				sent, err := notifier.MaybeSend(ctx, trips)
				if err != nil {
					slog.Error("failed to send fare alert", "err", err)
				} else if sent {
					slog.Info("fare alert sent", "to", cfg.Alerts.To)
				}
			}
		}

		slog.Info("search time", "seconds", t2.Sub(t1).Seconds())
	},
}
