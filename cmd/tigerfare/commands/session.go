package commands

import (
	"context"

	"tigerfare-backend/lib/browser"
	"tigerfare-backend/lib/scrapers/tigerair"
	"tigerfare-backend/services/fares"
)

var showBrowser *bool

func init() {
	showBrowser = rootCmd.PersistentFlags().Bool(
		"show-browser", false,
		"Run the browser with a visible window instead of headless.",
	)
}

// openController launches a browser session and preflights the booking
// site. The returned close func tears the session down.
func openController(ctx context.Context) (*tigerair.SearchController, func() error, error) {
	session, err := browser.Open(ctx, browser.Options{Headless: !*showBrowser})
	if err != nil {
		return nil, nil, err
	}

	client, err := tigerair.NewClient(session, tigerair.ClientOptions{})
	if err != nil {
		session.Close()
		return nil, nil, err
	}
	if err := client.Preflight(ctx); err != nil {
		session.Close()
		return nil, nil, err
	}

	return tigerair.NewSearchController(client, tigerair.ControllerOptions{}), session.Close, nil
}

// searcherFactory adapts openController to the fare engine, one
// session per concurrent route.
func searcherFactory(ctx context.Context, _ tigerair.Route) (fares.WindowSearcher, func() error, error) {
	controller, closeSession, err := openController(ctx)
	if err != nil {
		return nil, nil, err
	}
	return controller, closeSession, nil
}
