package commands

import (
	"tigerfare-backend/lib/serviceutil"
	"tigerfare-backend/services/fares/server"

	"github.com/spf13/cobra"
)

var servePort *int

func init() {
	servePort = serveCmd.Flags().Int("port", 8000, "Port to listen on.")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve [--port <port>]",
	Short: "Serves the fare search HTTP API.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := serviceutil.SignalContext()

		backend := server.BrowserBackend{Headless: !*showBrowser}
		if err := server.Serve(ctx, *servePort, backend); err != nil {
			serviceutil.Fatal("api server failed", err)
		}
	},
}
