package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tabclean/internal/config"
	apperrors "tabclean/internal/errors"
	"tabclean/internal/shared/testutil"
)

const dashboardPlan = `
name: titanic
source:
  path: %s
stages:
  - kind: fill-missing
    params:
      strategies:
        Age: {method: median}
        Embarked: {method: mode}
  - kind: deduplicate
    params:
      keys: [PassengerId]
`

func newTestApp(t *testing.T, dashboard config.DashboardConfig) *Application {
	t.Helper()
	dir := t.TempDir()
	logger, _ := testutil.NewTestLogger(t)

	cfg := config.Default()
	cfg.Server.Port = 0
	cfg.Dashboard.Plan = dashboard.Plan
	cfg.Dashboard.Source = dashboard.Source

	a, err := New(context.Background(), cfg, config.NewPaths(dir, cfg.Paths), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.OTelProviders.Shutdown(context.Background()) })
	return a
}

func serve(t *testing.T, a *Application, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)

	var decoded map[string]interface{}
	if strings.Contains(rec.Header().Get("Content-Type"), "json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

func TestApplication_ServesSource(t *testing.T) {
	source := testutil.WriteFile(t, "titanic.csv", testutil.TitanicCSV)
	a := newTestApp(t, config.DashboardConfig{Source: source})

	require.NotNil(t, a.Session)
	assert.Equal(t, 9, a.Session.Table().NumRows())

	rec, body := serve(t, a, http.MethodGet, "/api/dataset", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	data := body["data"].(map[string]interface{})
	assert.EqualValues(t, 9, data["rows"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	rec, body = serve(t, a, http.MethodPost, "/api/dataset/aggregate",
		`{"keys":["Sex"],"aggregations":[{"column":"Fare","metrics":["mean","count"]}]}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, body["data"].(map[string]interface{})["total"])
}

func TestApplication_ServesPlanOutput(t *testing.T) {
	source := testutil.WriteFile(t, "titanic.csv", testutil.TitanicCSV)
	planPath := filepath.Join(t.TempDir(), "titanic.yaml")
	require.NoError(t, os.WriteFile(planPath, []byte(fmt.Sprintf(dashboardPlan, source)), 0o644))

	a := newTestApp(t, config.DashboardConfig{Plan: planPath})

	require.NotNil(t, a.Session)
	require.NotNil(t, a.Session.Summary())
	assert.Equal(t, 8, a.Session.Table().NumRows())

	rec, body := serve(t, a, http.MethodGet, "/api/dataset/missing?only_missing=true", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 0, body["data"].(map[string]interface{})["total"])

	rec, body = serve(t, a, http.MethodGet, "/api/dataset", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "titanic", body["data"].(map[string]interface{})["plan"])
}

func TestApplication_WithoutDataset(t *testing.T) {
	a := newTestApp(t, config.DashboardConfig{})
	assert.Nil(t, a.Session)

	rec, body := serve(t, a, http.MethodGet, "/api/dataset/describe", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "DATASET_NOT_FOUND", body["error_code"])

	rec, body = serve(t, a, http.MethodGet, "/healthz/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "not_ready", body["status"])

	rec, body = serve(t, a, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestApplication_Routing(t *testing.T) {
	source := testutil.WriteFile(t, "titanic.csv", testutil.TitanicCSV)
	a := newTestApp(t, config.DashboardConfig{Source: source})

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
		wantType   string
	}{
		{name: "unknown route", method: http.MethodGet, path: "/api/nothing", wantStatus: http.StatusNotFound, wantType: apperrors.TypeNotFound},
		{name: "write method", method: http.MethodDelete, path: "/api/dataset", wantStatus: http.StatusMethodNotAllowed, wantType: apperrors.TypeMethod},
		{name: "put", method: http.MethodPut, path: "/api/dataset/rows", wantStatus: http.StatusMethodNotAllowed, wantType: apperrors.TypeMethod},
		{name: "version", method: http.MethodGet, path: "/version", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := serve(t, a, tt.method, tt.path, "")
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantType != "" {
				assert.Equal(t, tt.wantType, body["type"])
			}
		})
	}
}

func TestApplication_Metrics(t *testing.T) {
	source := testutil.WriteFile(t, "titanic.csv", testutil.TitanicCSV)
	a := newTestApp(t, config.DashboardConfig{Source: source})

	serve(t, a, http.MethodGet, "/api/dataset", "")
	rec, _ := serve(t, a, http.MethodGet, "/metrics", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestApplication_BadPlanFailsStartup(t *testing.T) {
	dir := t.TempDir()
	logger, _ := testutil.NewTestLogger(t)
	cfg := config.Default()
	cfg.Dashboard.Plan = filepath.Join(dir, "missing.yaml")

	_, err := New(context.Background(), cfg, config.NewPaths(dir, cfg.Paths), logger)
	assert.ErrorContains(t, err, "failed to open dataset")
}

func TestApplication_StartStop(t *testing.T) {
	a := newTestApp(t, config.DashboardConfig{})
	a.Server.Addr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, a.Start(ctx, cancel))

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()
	assert.NoError(t, a.Stop(stopCtx))
}
