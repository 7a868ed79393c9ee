package infrastructure

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// RuntimeStats is a point-in-time view of the process, reported by the
// health endpoint of the dashboard server.
type RuntimeStats struct {
	Goroutines    int64         `json:"goroutines"`
	HeapAllocMB   int64         `json:"heap_alloc_mb"`
	SystemMB      int64         `json:"system_mb"`
	GCCount       uint32        `json:"gc_count"`
	CPUCount      int           `json:"cpu_count"`
	Uptime        time.Duration `json:"-"`
	UptimeSeconds float64       `json:"uptime_seconds"`
	Timestamp     time.Time     `json:"timestamp"`
}

// RuntimeCollector samples Go runtime statistics and mirrors them into
// gauges on the configured meter.
type RuntimeCollector struct {
	startTime  time.Time
	goroutines metric.Int64Gauge
	heapAlloc  metric.Int64Gauge
	uptime     metric.Float64Gauge
}

// NewRuntimeCollector creates the runtime gauges on meter
func NewRuntimeCollector(meter metric.Meter) (*RuntimeCollector, error) {
	goroutines, err := meter.Int64Gauge(
		"system_goroutines",
		metric.WithDescription("Number of active goroutines"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create goroutine gauge: %w", err)
	}

	heapAlloc, err := meter.Int64Gauge(
		"system_memory_usage_bytes",
		metric.WithDescription("Heap bytes allocated and in use"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create memory gauge: %w", err)
	}

	uptime, err := meter.Float64Gauge(
		"system_uptime_seconds",
		metric.WithDescription("Seconds since the process started serving"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create uptime gauge: %w", err)
	}

	return &RuntimeCollector{
		startTime:  time.Now(),
		goroutines: goroutines,
		heapAlloc:  heapAlloc,
		uptime:     uptime,
	}, nil
}

// Collect samples the runtime and records the gauges
func (c *RuntimeCollector) Collect(ctx context.Context) RuntimeStats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	uptime := time.Since(c.startTime)
	stats := RuntimeStats{
		Goroutines:    int64(runtime.NumGoroutine()),
		HeapAllocMB:   int64(mem.Alloc / 1024 / 1024),
		SystemMB:      int64(mem.Sys / 1024 / 1024),
		GCCount:       mem.NumGC,
		CPUCount:      runtime.NumCPU(),
		Uptime:        uptime,
		UptimeSeconds: uptime.Seconds(),
		Timestamp:     time.Now(),
	}

	c.goroutines.Record(ctx, stats.Goroutines)
	c.heapAlloc.Record(ctx, int64(mem.Alloc))
	c.uptime.Record(ctx, uptime.Seconds())

	return stats
}
