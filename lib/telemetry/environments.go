package telemetry

import (
	"context"
	"os"

	"tigerfare-backend/lib/configutil"
)

var setupTestEnvironments = map[string]bool{}

// sets up telemetry in a testing environment, ensuring that it isn't
// set up more than once
func SetupForTesting(serviceName string) func() {
	if setupTestEnvironments[serviceName] {
		return func() {}
	}
	setupTestEnvironments[serviceName] = true

	InitSlog(true)
	err := SetupFromEnv(context.Background(), serviceName)
	if err != nil && !os.IsNotExist(err) {
		panic(err)
	}

	return func() {
		err := Shutdown(context.Background())
		if err != nil {
			panic(err)
		}
	}
}

// searches up the filesystem from the cwd to find a file
// called telemetry.json5, once found it will then use it
// as a config to setup telemetry. a missing config file means
// telemetry stays a no-op, which is fine for local scraping runs.
func SetupFromEnv(ctx context.Context, serviceName string) error {
	config, err := configutil.ReadRecursively[config]("telemetry.json5")
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := Setup(ctx, serviceName, config); err != nil {
		return err
	}
	InstrumentPerfStats(ctx)
	return nil
}
