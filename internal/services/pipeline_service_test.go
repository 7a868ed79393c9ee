package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tabclean/internal/config"
	apperrors "tabclean/internal/errors"
	"tabclean/internal/shared/testutil"
)

const titanicPlanTemplate = `
name: titanic
source:
  path: %s
stages:
  - name: fill
    kind: fill-missing
    params:
      strategies:
        Age: {method: median}
        Embarked: {method: mode}
  - kind: deduplicate
    params:
      keys: [PassengerId]
`

func newTestPipelineService(t *testing.T) (*PipelineService, string) {
	t.Helper()
	dir := t.TempDir()
	logger, _ := testutil.NewTestLogger(t)
	cfg := config.Default()
	return NewPipelineService(cfg, config.NewPaths(dir, cfg.Paths), nil, nil, logger), dir
}

func writePlan(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestPipelineService_Clean(t *testing.T) {
	ps, dir := newTestPipelineService(t)
	source := testutil.WriteFile(t, "titanic.csv", testutil.TitanicCSV)
	planPath := writePlan(t, dir, "titanic.yaml", fmt.Sprintf(titanicPlanTemplate, source))

	res, err := ps.Clean(context.Background(), CleanRequest{PlanPath: planPath})
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, "titanic", res.Plan)
	assert.Equal(t, 9, res.Summary.RowsIn)
	assert.Equal(t, 8, res.Summary.RowsOut)
	assert.Equal(t, 4, res.Report.MissingBefore.Total())
	assert.Zero(t, res.Report.MissingAfter.Total())

	assert.Equal(t, filepath.Join(dir, "out", "titanic_cleaned.csv"), res.Written.CSV)
	assert.Equal(t, filepath.Join(dir, "out", "titanic_report.txt"), res.Written.Report)
	assert.FileExists(t, res.Written.CSV)
	assert.FileExists(t, res.Written.Report)

	age, ok := res.Table.Column("Age")
	require.True(t, ok)
	assert.Zero(t, age.NullCount())
}

func TestPipelineService_Clean_Overrides(t *testing.T) {
	ps, dir := newTestPipelineService(t)
	source := testutil.WriteFile(t, "titanic.csv", testutil.TitanicCSV)
	planPath := writePlan(t, dir, "titanic.yaml", fmt.Sprintf(titanicPlanTemplate, source))

	res, err := ps.Clean(context.Background(), CleanRequest{
		PlanPath:  planPath,
		Overrides: []string{"fill.strategies.Age.method=constant", "fill.strategies.Age.value=0"},
	})
	require.NoError(t, err)

	age, ok := res.Table.Column("Age")
	require.True(t, ok)
	var zeros int
	for _, f := range age.Floats() {
		if f == 0 {
			zeros++
		}
	}
	// passengers 5 (deduplicated) and 6
	assert.Equal(t, 2, zeros)
}

func TestPipelineService_Clean_SourceOverride(t *testing.T) {
	ps, dir := newTestPipelineService(t)
	source := testutil.WriteFile(t, "passengers.csv", testutil.TitanicCSV)
	planPath := writePlan(t, dir, "titanic.yaml", fmt.Sprintf(titanicPlanTemplate, "missing.csv"))

	res, err := ps.Clean(context.Background(), CleanRequest{PlanPath: planPath, Source: source})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "out", "passengers_cleaned.csv"), res.Written.CSV)
}

func TestPipelineService_Clean_FailedRunWritesReportOnly(t *testing.T) {
	ps, dir := newTestPipelineService(t)
	source := testutil.WriteFile(t, "titanic.csv", testutil.TitanicCSV)
	plan := fmt.Sprintf(`
name: broken
source:
  path: %s
stages:
  - kind: deduplicate
  - kind: fill-missing
    params:
      strategies:
        Cabin: {method: mode}
`, source)
	planPath := writePlan(t, dir, "broken.yaml", plan)

	res, err := ps.Clean(context.Background(), CleanRequest{PlanPath: planPath})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindSchemaMismatch))

	require.NotNil(t, res)
	assert.Equal(t, "fill-missing", res.Summary.FailedStage)
	assert.Len(t, res.Summary.Stages, 1)
	assert.Empty(t, res.Written.CSV)
	assert.FileExists(t, res.Written.Report)
	assert.NoFileExists(t, filepath.Join(dir, "out", "titanic_cleaned.csv"))

	report, err := os.ReadFile(res.Written.Report)
	require.NoError(t, err)
	assert.Contains(t, string(report), `failed at stage "fill-missing"`)
}

func TestPipelineService_Clean_Errors(t *testing.T) {
	ps, dir := newTestPipelineService(t)

	tests := []struct {
		name  string
		req   CleanRequest
		check func(t *testing.T, err error)
	}{
		{
			name:  "no plan",
			req:   CleanRequest{},
			check: func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrInvalidInput) },
		},
		{
			name: "unknown override stage",
			req: CleanRequest{
				PlanPath:  writePlan(t, dir, "a.yaml", fmt.Sprintf(titanicPlanTemplate, "a.csv")),
				Overrides: []string{"clip.k=3"},
			},
			check: func(t *testing.T, err error) { assert.ErrorContains(t, err, `no stage named "clip"`) },
		},
		{
			name: "missing source",
			req:  CleanRequest{PlanPath: writePlan(t, dir, "b.yaml", fmt.Sprintf(titanicPlanTemplate, "nope.csv"))},
			check: func(t *testing.T, err error) {
				assert.Error(t, err)
			},
		},
		{
			name: "fill and drop on the same column",
			req: CleanRequest{Plan: &config.Plan{
				Source: config.SourceConfig{Path: "a.csv"},
				Stages: []config.StageConfig{
					{Kind: "fill-missing", Params: map[string]interface{}{
						"strategies": map[string]interface{}{"Age": map[string]interface{}{"method": "median"}},
					}},
					{Kind: "drop-missing", Params: map[string]interface{}{"subset": []interface{}{"Age"}}},
				},
			}},
			check: func(t *testing.T, err error) {
				assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidStrategy))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ps.Clean(context.Background(), tt.req)
			tt.check(t, err)
		})
	}
}

func TestPipelineService_Batch(t *testing.T) {
	ps, dir := newTestPipelineService(t)
	titanic := testutil.WriteFile(t, "titanic.csv", testutil.TitanicCSV)
	retail := testutil.WriteFile(t, "retail.csv", testutil.RetailCSV)

	plans := []string{
		writePlan(t, dir, "titanic.yaml", fmt.Sprintf(titanicPlanTemplate, titanic)),
		writePlan(t, dir, "retail.yaml", fmt.Sprintf(`
name: retail
source: {path: %s}
stages:
  - kind: drop-missing
    params: {subset: [CustomerID]}
  - kind: derive-product
    params: {output: TotalPrice, left: Quantity, right: UnitPrice}
`, retail)),
		writePlan(t, dir, "broken.yaml", fmt.Sprintf(titanicPlanTemplate, filepath.Join(dir, "absent.csv"))),
	}

	results, err := ps.Batch(context.Background(), plans, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.yaml")
	require.Len(t, results, 3)

	require.NoError(t, results[0].Err)
	assert.Equal(t, 8, results[0].Result.Summary.RowsOut)

	require.NoError(t, results[1].Err)
	assert.Equal(t, 5, results[1].Result.Summary.RowsOut)
	assert.True(t, results[1].Result.Table.HasColumn("TotalPrice"))

	assert.Error(t, results[2].Err)
	assert.Equal(t, plans[2], results[2].PlanPath)
}

func TestPipelineService_Profile(t *testing.T) {
	ps, _ := newTestPipelineService(t)
	source := testutil.WriteFile(t, "titanic.csv", testutil.TitanicCSV)

	prof, err := ps.Profile(context.Background(), source)
	require.NoError(t, err)

	assert.Equal(t, 9, prof.Load.Rows)
	require.Len(t, prof.Schema, 8)
	assert.Equal(t, "PassengerId", prof.Schema[0].Name)
	assert.Equal(t, 5, prof.Head.NumRows())

	require.NotEmpty(t, prof.Missing)
	assert.Equal(t, "Age", prof.Missing[0].Name)
	assert.Equal(t, 3, prof.Missing[0].Count)

	var names []string
	for _, d := range prof.Describe {
		names = append(names, d.Column)
	}
	assert.Contains(t, names, "Fare")
	assert.NotContains(t, names, "Name")
}

func TestPipelineService_OpenSession(t *testing.T) {
	ps, dir := newTestPipelineService(t)
	source := testutil.WriteFile(t, "titanic.csv", testutil.TitanicCSV)
	planPath := writePlan(t, dir, "titanic.yaml", fmt.Sprintf(titanicPlanTemplate, source))

	t.Run("plan", func(t *testing.T) {
		s, err := ps.OpenSession(context.Background(), config.DashboardConfig{Plan: planPath})
		require.NoError(t, err)
		assert.Equal(t, 8, s.Table().NumRows())
		require.NotNil(t, s.Summary())
		assert.Equal(t, "titanic", s.Summary().Plan)
	})

	t.Run("source", func(t *testing.T) {
		s, err := ps.OpenSession(context.Background(), config.DashboardConfig{Source: source})
		require.NoError(t, err)
		assert.Equal(t, 9, s.Table().NumRows())
		assert.Nil(t, s.Summary())
		assert.NotNil(t, s.LoadReport())
	})

	t.Run("nothing configured", func(t *testing.T) {
		_, err := ps.OpenSession(context.Background(), config.DashboardConfig{})
		assert.ErrorIs(t, err, ErrNoSource)
	})
}
