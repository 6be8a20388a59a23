package commands

import (
	"log/slog"
	"os"
	"time"

	"tigerfare-backend/lib/scrapers/tigerair"
	"tigerfare-backend/lib/serviceutil"
	"tigerfare-backend/lib/sqliteutil"
	"tigerfare-backend/lib/timezone"
	"tigerfare-backend/services/fares"
	"tigerfare-backend/services/fares/db"

	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"
)

var (
	scrapeRoutes    *[]string
	scrapeAllRoutes *bool
	scrapeDates     *[]string
	scrapeDays      *int
	scrapeFormat    *string
	scrapeOut       *string
	scrapeDb        *string
)

func init() {
	scrapeRoutes = scrapeCmd.Flags().StringArray("route", nil, "Route code to scrape, repeatable (e.g. TPE_NRT).")
	scrapeAllRoutes = scrapeCmd.Flags().Bool("all-routes", false, "Scrape every supported route.")
	scrapeDates = scrapeCmd.Flags().StringArray("date", nil, "Departure date (YYYY-MM-DD), repeatable. Defaults to a rolling window.")
	scrapeDays = scrapeCmd.Flags().Int("days", 7, "Window size in days when no --date is given.")
	scrapeFormat = scrapeCmd.Flags().String("format", "both", "Export format: csv, json or both.")
	scrapeOut = scrapeCmd.Flags().String("out", "output", "Directory to write exports to.")
	scrapeDb = scrapeCmd.Flags().String("db", "", "Optionally also record results to this sqlite database.")
	rootCmd.AddCommand(scrapeCmd)
}

func selectedRoutes() []tigerair.Route {
	if *scrapeAllRoutes {
		return tigerair.Routes()
	}
	if len(*scrapeRoutes) == 0 {
		serviceutil.Fatal("no routes selected, pass --route or --all-routes", nil)
	}
	var routes []tigerair.Route
	for _, code := range *scrapeRoutes {
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
	return routes
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape [--route <code>]... [--date <YYYY-MM-DD>] [--format csv|json|both]",
	Short: "Scrapes fares for the given routes and exports the results.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		format, err := fares.ParseExportFormat(*scrapeFormat)
		if err != nil {
			serviceutil.Fatal("invalid --format", err)
		}
		routes := selectedRoutes()

		var dates []time.Time
		if len(*scrapeDates) > 0 {
			for _, raw := range *scrapeDates {
				date, err := timezone.ParseDate(raw)
				if err != nil {
					serviceutil.Fatal("invalid --date", err)
				}
				dates = append(dates, date)
			}
		} else {
			dates = tigerair.Window(*scrapeDays)
		}

		controller, closeSession, err := openController(ctx)
		if err != nil {
			serviceutil.Fatal("failed to open browser session", err)
		}
		defer closeSession()

		var store *fares.Store
		if *scrapeDb != "" {
			database, err := sqliteutil.OpenDB(db.Schema, *scrapeDb)
			if err != nil {
				serviceutil.Fatal("failed to open db", err)
			}
			defer database.Close()
			s := fares.NewStore(database)
			store = &s
		}

		t1 := time.Now()
		var results []tigerair.RouteResult
		for _, route := range routes {
			result := controller.SearchRoute(ctx, route, dates)
			slog.Info("route scraped",
				"route", route.Code,
				"flights", len(result.Flights),
				"failed_dates", len(result.Errors),
				"skipped_rows", result.SkippedRows,
			)
			results = append(results, result)

			if store != nil {
				crawlId, err := store.SaveResult(ctx, result)
				if err != nil {
					slog.Error("failed to record crawl", "route", route.Code, "err", err)
				} else {
					slog.Debug("crawl recorded", "route", route.Code, "crawl_id", crawlId)
				}
			}
		}
		t2 := time.Now()

		report := fares.Aggregate(results, nil)
		fares.RenderFlights(os.Stdout, report)

		written, err := fares.SaveReport(*scrapeOut, report, format)
		if err != nil {
			serviceutil.Fatal("failed to export results", err)
		}
		for kind, path := range written {
			slog.Info("export written", "format", kind, "path", path)
		}
		slog.Info("scraping time", "seconds", t2.Sub(t1).Seconds())
	},
}
