package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"tabclean/internal/config"
	"tabclean/internal/infrastructure"
	"tabclean/pkg/contracts"
)

// HealthService provides health check functionality
type HealthService struct {
	version   string
	session   *Session
	paths     *config.Paths
	collector *infrastructure.RuntimeCollector
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                       `json:"status"`
	Timestamp time.Time                    `json:"timestamp"`
	Version   string                       `json:"version"`
	Runtime   *infrastructure.RuntimeStats `json:"runtime,omitempty"`
	Services  map[string]ServiceHealth     `json:"services,omitempty"`
}

// ServiceHealth represents individual component health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// NewHealthService creates a health service for the dashboard serving
// session. collector may be nil, in which case no runtime gauges are
// recorded.
func NewHealthService(session *Session, paths *config.Paths, collector *infrastructure.RuntimeCollector, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		version:   contracts.Version,
		session:   session,
		paths:     paths,
		collector: collector,
		startTime: time.Now(),
		logger:    logger,
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime:   hs.runtimeStats(ctx),
	}
	hs.logger.DebugContext(ctx, "health_check",
		slog.String("status", status.Status),
		slog.Duration("uptime", time.Since(hs.startTime)))
	return status
}

// ReadinessCheck reports ready once a dataset is loaded and the output
// directory is usable.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services: map[string]ServiceHealth{
			"dataset": hs.checkDataset(),
			"output":  hs.checkOutputDir(),
		},
	}
	for _, sh := range status.Services {
		if sh.Status != "ready" {
			status.Status = "not_ready"
			break
		}
	}
	if status.Status != "ready" {
		hs.logger.WarnContext(ctx, "readiness_check_failed", slog.Any("services", status.Services))
	}
	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime:   hs.runtimeStats(ctx),
	}
}

// Version returns build information and uptime.
func (hs *HealthService) Version() map[string]interface{} {
	info := contracts.GetVersionInfo()
	return map[string]interface{}{
		"version":       info.Version,
		"build_time":    info.BuildTime,
		"git_commit":    info.GitCommit,
		"go_version":    info.GoVersion,
		"platform":      info.Platform,
		"report_format": info.ReportFormat,
		"api_version":   info.APIVersion,
		"uptime":        time.Since(hs.startTime).Seconds(),
		"start_time":    hs.startTime.Format(time.RFC3339),
	}
}

func (hs *HealthService) runtimeStats(ctx context.Context) *infrastructure.RuntimeStats {
	if hs.collector != nil {
		stats := hs.collector.Collect(ctx)
		return &stats
	}
	uptime := time.Since(hs.startTime)
	return &infrastructure.RuntimeStats{
		Goroutines:    int64(runtime.NumGoroutine()),
		CPUCount:      runtime.NumCPU(),
		Uptime:        uptime,
		UptimeSeconds: uptime.Seconds(),
		Timestamp:     time.Now(),
	}
}

func (hs *HealthService) checkDataset() ServiceHealth {
	if !hs.session.valid() {
		return ServiceHealth{Status: "not_ready", Message: ErrNoDataset.Error()}
	}
	return ServiceHealth{
		Status:  "ready",
		Message: fmt.Sprintf("%d rows from %s", hs.session.Table().NumRows(), hs.session.Source()),
	}
}

func (hs *HealthService) checkOutputDir() ServiceHealth {
	if hs.paths == nil {
		return ServiceHealth{Status: "ready", Message: "no output directory configured"}
	}
	info, err := os.Stat(hs.paths.OutputDir)
	if err != nil {
		if os.IsNotExist(err) {
			// created on first export
			return ServiceHealth{Status: "ready", Message: "output directory not created yet"}
		}
		return ServiceHealth{Status: "not_ready", Message: err.Error()}
	}
	if !info.IsDir() {
		return ServiceHealth{Status: "not_ready", Message: fmt.Sprintf("%s is not a directory", hs.paths.OutputDir)}
	}
	return ServiceHealth{Status: "ready"}
}
