package main

import (
	"context"

	"tigerfare-backend/cmd/tigerfare/commands"
	"tigerfare-backend/lib/serviceutil"
	"tigerfare-backend/lib/telemetry"
)

func main() {
	ctx := context.Background()
	if err := telemetry.SetupFromEnv(ctx, "tigerfare"); err != nil {
		serviceutil.Fatal("failed to setup telemetry", err)
	}
	telemetry.InitSlog(true)
	commands.ExecuteContext(ctx)
}
