package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"tabclean/internal/analysis"
	"tabclean/internal/cleaning"
	"tabclean/internal/config"
	"tabclean/internal/exporter"
	"tabclean/internal/infrastructure"
	"tabclean/internal/loader"
	"tabclean/internal/pipeline"
	"tabclean/internal/table"
)

// profileHeadRows is how many rows a profile shows.
const profileHeadRows = 5

// CleanRequest describes one cleaning run.
type CleanRequest struct {
	// PlanPath is read when Plan is nil.
	PlanPath string
	Plan     *config.Plan
	// Source replaces the plan's source path when set.
	Source string
	// Overrides are applied after the configured ones.
	Overrides []string
}

// CleanResult is the outcome of a run.
type CleanResult struct {
	RunID   string             `json:"run_id"`
	Plan    string             `json:"plan"`
	Source  string             `json:"source"`
	Table   *table.Table       `json:"-"`
	Load    *loader.Report     `json:"load,omitempty"`
	Summary *pipeline.Summary  `json:"summary,omitempty"`
	Report  exporter.RunReport `json:"-"`
	Written exporter.Written   `json:"written"`
}

// ProfileResult describes a file without cleaning it.
type ProfileResult struct {
	Load     *loader.Report           `json:"load"`
	Schema   []table.ColumnSpec       `json:"schema"`
	Missing  []cleaning.MissingColumn `json:"missing"`
	Describe []analysis.ColumnSummary `json:"describe"`
	Head     *table.Table             `json:"-"`
}

// BatchResult is the outcome of one plan in a batch.
type BatchResult struct {
	PlanPath string       `json:"plan_path"`
	Result   *CleanResult `json:"result,omitempty"`
	Err      error        `json:"-"`
}

// PipelineService loads, cleans and exports datasets.
type PipelineService struct {
	cfg      *config.Config
	paths    *config.Paths
	registry *pipeline.Registry
	tracer   *pipeline.RunTracer
	exporter *exporter.Exporter
	logger   *slog.Logger
}

// NewPipelineService creates a pipeline service. A nil registry selects the
// built-in stages and a nil tracer records spans on the global provider
// without metrics.
func NewPipelineService(cfg *config.Config, paths *config.Paths, registry *pipeline.Registry, tracer *pipeline.RunTracer, logger *slog.Logger) *PipelineService {
	if cfg == nil {
		cfg = config.Default()
	}
	if paths == nil {
		paths = config.NewPaths(".", cfg.Paths)
	}
	if registry == nil {
		registry = pipeline.DefaultRegistry()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PipelineService{
		cfg:      cfg,
		paths:    paths,
		registry: registry,
		tracer:   tracer,
		exporter: exporter.New(paths),
		logger:   logger,
	}
}

// PreparePlan reads the plan of req and applies configured defaults, the
// source override and every override in order: configuration first, then
// the request.
func (ps *PipelineService) PreparePlan(req CleanRequest) (*config.Plan, error) {
	plan := req.Plan
	if plan == nil {
		if req.PlanPath == "" {
			return nil, fmt.Errorf("%w: no plan given", ErrInvalidInput)
		}
		loaded, err := config.LoadPlan(ps.paths.Resolve(req.PlanPath))
		if err != nil {
			return nil, err
		}
		plan = loaded
	}

	if req.Source != "" {
		plan.Source.Path = req.Source
	}
	plan.ApplyDefaults(ps.cfg.Pipeline)

	overrides := append(append([]string(nil), ps.cfg.Pipeline.Overrides...), req.Overrides...)
	if len(overrides) > 0 {
		if err := plan.ApplyOverrides(overrides); err != nil {
			return nil, err
		}
	}
	return plan, nil
}

// Clean runs one plan: load, run the stages, then export. A failed run
// still writes its report, but never the cleaned table.
func (ps *PipelineService) Clean(ctx context.Context, req CleanRequest) (*CleanResult, error) {
	plan, err := ps.PreparePlan(req)
	if err != nil {
		return nil, err
	}

	runID := infrastructure.GenerateRunID()
	ctx = infrastructure.WithRunID(ctx, runID)
	logger := ps.logger.With(slog.String("run_id", runID), slog.String("plan", plan.Name))

	p, err := pipeline.Build(plan, ps.registry,
		pipeline.WithTracer(ps.tracer),
		pipeline.WithLogger(infrastructure.WithComponent(ps.logger, "pipeline")))
	if err != nil {
		infrastructure.WithError(logger, err).ErrorContext(ctx, "plan_rejected")
		return nil, err
	}

	source := ps.paths.Resolve(plan.Source.Path)
	opts, err := loader.OptionsFromPlan(plan)
	if err != nil {
		return nil, err
	}
	raw, load, err := loader.Load(ctx, source, opts)
	if err != nil {
		return nil, err
	}

	before := cleaning.DetectMissing(raw)
	cleaned, summary, runErr := p.Run(ctx, raw)
	after := cleaning.DetectMissing(cleaned)

	result := &CleanResult{
		RunID:   runID,
		Plan:    p.Name(),
		Source:  source,
		Table:   cleaned,
		Load:    load,
		Summary: summary,
		Report:  exporter.NewRunReport(load, summary, before, after),
	}

	if runErr != nil {
		written, err := ps.exporter.ExportReport(ctx, source, result.Report, plan.Output)
		result.Written = written
		if err != nil {
			infrastructure.WithError(logger, err).ErrorContext(ctx, "report_export_failed")
		}
		return result, runErr
	}

	written, err := ps.exporter.Export(ctx, source, cleaned, result.Report, plan.Output)
	result.Written = written
	if err != nil {
		return result, err
	}

	logger.InfoContext(ctx, "clean_completed",
		slog.Int("rows_in", summary.RowsIn),
		slog.Int("rows_out", summary.RowsOut),
		slog.Int("missing_before", before.Total()),
		slog.Int("missing_after", after.Total()),
		slog.Duration("duration", summary.Duration))
	return result, nil
}

// Batch runs independent plans concurrently, at most
// Pipeline.BatchConcurrency at a time. One failing plan does not stop the
// others; the returned error joins every failure.
func (ps *PipelineService) Batch(ctx context.Context, planPaths []string, overrides []string) ([]BatchResult, error) {
	results := make([]BatchResult, len(planPaths))
	limit := ps.cfg.Pipeline.BatchConcurrency
	if limit < 1 {
		limit = config.DefaultBatchConcurrency
	}

	// Every run of one batch shares a trace id.
	ctx = infrastructure.EnsureTraceID(ctx)
	start := time.Now()
	var g errgroup.Group
	g.SetLimit(limit)

	var mu sync.Mutex
	var errs []error
	for i, path := range planPaths {
		g.Go(func() error {
			res, err := ps.Clean(ctx, CleanRequest{PlanPath: path, Overrides: overrides})
			results[i] = BatchResult{PlanPath: path, Result: res, Err: err}
			if err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("plan %s: %w", path, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	ps.logger.InfoContext(ctx, "batch_completed",
		slog.Int("plans", len(planPaths)),
		slog.Int("failed", len(errs)),
		slog.Int("concurrency", limit),
		slog.Duration("duration", time.Since(start)))
	return results, errors.Join(errs...)
}

// Profile loads path with the configured defaults and summarises it.
func (ps *PipelineService) Profile(ctx context.Context, path string) (*ProfileResult, error) {
	t, load, err := ps.loadSource(ctx, path)
	if err != nil {
		return nil, err
	}
	return &ProfileResult{
		Load:     load,
		Schema:   t.Specs(),
		Missing:  analysis.MissingTable(t, false),
		Describe: analysis.Describe(t),
		Head:     analysis.Head(t, profileHeadRows),
	}, nil
}

// OpenSession prepares the dataset the dashboard serves: the output of
// cfg.Plan when set, otherwise cfg.Source loaded as is.
func (ps *PipelineService) OpenSession(ctx context.Context, cfg config.DashboardConfig) (*Session, error) {
	switch {
	case cfg.Plan != "":
		res, err := ps.Clean(ctx, CleanRequest{PlanPath: cfg.Plan})
		if err != nil {
			return nil, fmt.Errorf("failed to clean dashboard dataset: %w", err)
		}
		return NewSession(res.Table, res.Source, res.Load, res.Summary), nil
	case cfg.Source != "":
		t, load, err := ps.loadSource(ctx, cfg.Source)
		if err != nil {
			return nil, err
		}
		return NewSession(t, ps.paths.Resolve(cfg.Source), load, nil), nil
	default:
		return nil, ErrNoSource
	}
}

func (ps *PipelineService) loadSource(ctx context.Context, path string) (*table.Table, *loader.Report, error) {
	plan := &config.Plan{Source: config.SourceConfig{Path: path}}
	plan.ApplyDefaults(ps.cfg.Pipeline)
	opts, err := loader.OptionsFromPlan(plan)
	if err != nil {
		return nil, nil, err
	}
	return loader.Load(ctx, ps.paths.Resolve(path), opts)
}
