package telemetry

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"go.opentelemetry.io/otel"
)

var perfMeter = otel.Meter("tigerfare.perf")

const perfSampleInterval = time.Second * 30

// InstrumentPerfStats samples process stats in the background for the
// lifetime of ctx. Long scraping runs with a browser attached are the
// main consumer; an idle Chrome still costs memory and cpu.
func InstrumentPerfStats(ctx context.Context) {
	cpuGauge, _ := perfMeter.Float64Gauge("process.cpu_percent")
	heapGauge, _ := perfMeter.Int64Gauge("process.heap_mb")
	liveObjectsGauge, _ := perfMeter.Int64Gauge("process.live_objects")
	goroutineGauge, _ := perfMeter.Int64Gauge("process.goroutines")

	go func() {
		ticker := time.NewTicker(perfSampleInterval)
		defer ticker.Stop()

		var memStats runtime.MemStats
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			runtime.ReadMemStats(&memStats)
			heapGauge.Record(ctx, int64(memStats.Alloc/1_000_000))
			liveObjectsGauge.Record(ctx, int64(memStats.Mallocs-memStats.Frees))
			goroutineGauge.Record(ctx, int64(runtime.NumGoroutine()))

			usage, err := cpu.Percent(0, false)
			if err != nil {
				slog.Debug("failed to read cpu usage", "err", err)
				continue
			}
			if len(usage) > 0 {
				cpuGauge.Record(ctx, usage[0])
			}
		}
	}()
}
