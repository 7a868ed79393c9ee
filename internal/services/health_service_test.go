package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"tabclean/internal/config"
	"tabclean/internal/infrastructure"
	"tabclean/internal/shared/testutil"
	"tabclean/pkg/contracts"
)

func TestHealthService_HealthCheck(t *testing.T) {
	collector, err := infrastructure.NewRuntimeCollector(sdkmetric.NewMeterProvider().Meter("test"))
	require.NoError(t, err)
	hs := NewHealthService(ordersSession(), nil, collector, nil)

	status := hs.HealthCheck(context.Background())
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, contracts.Version, status.Version)
	require.NotNil(t, status.Runtime)
	assert.Positive(t, status.Runtime.Goroutines)
	assert.Positive(t, status.Runtime.CPUCount)
}

func TestHealthService_ReadinessCheck(t *testing.T) {
	dir := t.TempDir()
	notADir := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(notADir, nil, 0o644))

	tests := []struct {
		name       string
		session    *Session
		paths      *config.Paths
		wantStatus string
		failing    string
	}{
		{name: "ready", session: ordersSession(), paths: config.NewPaths(dir, config.PathsConfig{}), wantStatus: "ready"},
		{name: "no dataset", session: nil, wantStatus: "not_ready", failing: "dataset"},
		{
			name:       "output is a file",
			session:    ordersSession(),
			paths:      config.NewPaths(dir, config.PathsConfig{OutputDir: notADir}),
			wantStatus: "not_ready",
			failing:    "output",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, handler := testutil.NewTestLogger(t)
			hs := NewHealthService(tt.session, tt.paths, nil, logger)

			status := hs.ReadinessCheck(context.Background())
			assert.Equal(t, tt.wantStatus, status.Status)
			if tt.failing != "" {
				assert.Equal(t, "not_ready", status.Services[tt.failing].Status)
				assert.True(t, handler.ContainsMessage("readiness_check_failed"))
			}
		})
	}
}

func TestHealthService_LivenessAndVersion(t *testing.T) {
	hs := NewHealthService(nil, nil, nil, nil)

	live := hs.LivenessCheck(context.Background())
	assert.Equal(t, "alive", live.Status)
	require.NotNil(t, live.Runtime)

	v := hs.Version()
	assert.Equal(t, contracts.Version, v["version"])
	assert.Equal(t, contracts.APIVersion, v["api_version"])
}
