package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tabclean/internal/cleaning"
	"tabclean/internal/config"
	apperrors "tabclean/internal/errors"
	"tabclean/internal/infrastructure"
	"tabclean/internal/table"
)

// Pipeline is an ordered, validated list of cleaning stages.
type Pipeline struct {
	name   string
	stages []cleaning.Stage
	tracer *RunTracer
	logger *slog.Logger
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithTracer records spans and metrics through rt
func WithTracer(rt *RunTracer) Option {
	return func(p *Pipeline) { p.tracer = rt }
}

// WithLogger sets the logger used for run and stage events
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New validates stages and assembles a pipeline. A column that one stage
// fills and another drops on is rejected with an InvalidStrategyError.
func New(name string, stages []cleaning.Stage, opts ...Option) (*Pipeline, error) {
	if err := checkFillDropConflicts(stages); err != nil {
		return nil, err
	}

	p := &Pipeline{
		name:   name,
		stages: append([]cleaning.Stage(nil), stages...),
		logger: infrastructure.WithComponent(infrastructure.GetLogger(), "pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Build creates the stages of plan from registry and assembles a pipeline.
func Build(plan *config.Plan, registry *Registry, opts ...Option) (*Pipeline, error) {
	if registry == nil {
		registry = DefaultRegistry()
	}

	policy, err := cleaning.ParsePolicy(plan.Source.Policy)
	if err != nil {
		return nil, err
	}
	bc := BuildContext{
		Columns:     plan.Columns,
		DateLayouts: plan.Source.DateLayouts,
		Policy:      policy,
	}

	stages := make([]cleaning.Stage, 0, len(plan.Stages))
	for _, sc := range plan.Stages {
		stage, err := registry.Build(sc, bc)
		if err != nil {
			return nil, err
		}
		stages = append(stages, stage)
	}

	name := plan.Name
	if name == "" {
		name = "unnamed"
	}
	return New(name, stages, opts...)
}

// Name returns the plan name the pipeline was built for
func (p *Pipeline) Name() string { return p.name }

// Stages returns the stages in execution order
func (p *Pipeline) Stages() []cleaning.Stage {
	return append([]cleaning.Stage(nil), p.stages...)
}

// Run threads t through every stage in order. If a stage fails, or ctx is
// cancelled between stages, Run stops and returns the table produced by the
// last successful stage, the summary so far and the error. The input table
// is never modified.
func (p *Pipeline) Run(ctx context.Context, t *table.Table) (*table.Table, *Summary, error) {
	runID := infrastructure.GetRunID(ctx)
	if runID == "" {
		runID = infrastructure.GenerateRunID()
		ctx = infrastructure.WithRunID(ctx, runID)
	}

	start := time.Now()
	summary := &Summary{
		RunID:     runID,
		Plan:      p.name,
		StartedAt: start,
		RowsIn:    t.NumRows(),
		ColumnsIn: t.NumColumns(),
		Stages:    make([]cleaning.ChangeReport, 0, len(p.stages)),
	}

	ctx, span := p.tracer.StartRun(ctx, p.name, runID, len(p.stages), t.NumRows())
	p.logger.InfoContext(ctx, "pipeline_run_start",
		slog.String("plan", p.name),
		slog.Int("stage_count", len(p.stages)),
		slog.Int("rows", t.NumRows()),
		slog.Int("columns", t.NumColumns()))

	current := t
	var runErr error
	for i, stage := range p.stages {
		if err := ctx.Err(); err != nil {
			p.logger.WarnContext(ctx, "pipeline_cancelled",
				slog.String("plan", p.name),
				slog.String("stage", stage.Name()))
			runErr = fmt.Errorf("pipeline %s cancelled before stage %q: %w", p.name, stage.Name(), err)
			summary.FailedStage = stage.Name()
			break
		}

		next, report, err := p.runStage(ctx, i, stage, current)
		if err != nil {
			runErr = err
			summary.FailedStage = stage.Name()
			break
		}
		summary.Stages = append(summary.Stages, report)
		current = next
	}

	summary.Duration = time.Since(start)
	summary.RowsOut = current.NumRows()
	summary.ColumnsOut = current.NumColumns()
	if runErr != nil {
		summary.Error = runErr.Error()
	}
	p.tracer.EndRun(ctx, span, p.name, summary.Duration, current.NumRows(), runErr)

	if runErr != nil {
		p.logger.ErrorContext(ctx, "pipeline_run_failed",
			slog.String("plan", p.name),
			slog.String("failed_stage", summary.FailedStage),
			slog.Int("completed_stages", len(summary.Stages)),
			slog.String("error", runErr.Error()))
		return current, summary, runErr
	}

	p.logger.InfoContext(ctx, "pipeline_run_completed",
		slog.String("plan", p.name),
		slog.Int("rows_in", summary.RowsIn),
		slog.Int("rows_out", summary.RowsOut),
		slog.Duration("duration", summary.Duration))
	return current, summary, nil
}

func (p *Pipeline) runStage(ctx context.Context, i int, stage cleaning.Stage, in *table.Table) (*table.Table, cleaning.ChangeReport, error) {
	ctx, span := p.tracer.StartStage(ctx, stage, i+1)
	p.logger.DebugContext(ctx, "executing_stage",
		slog.String("stage", stage.Name()),
		slog.String("kind", string(stage.Kind())),
		slog.Int("stage_number", i+1),
		slog.Int("total_stages", len(p.stages)))

	start := time.Now()
	out, report, err := stage.Apply(in)
	duration := time.Since(start)
	report.Stage = stage.Name()
	report.Kind = stage.Kind()

	if err != nil {
		err = attributeError(stage.Name(), err)
		p.tracer.EndStage(ctx, span, stage, duration, report, err)
		p.logger.ErrorContext(ctx, "stage_failed",
			slog.String("stage", stage.Name()),
			slog.String("kind", string(stage.Kind())),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return nil, report, err
	}

	p.tracer.EndStage(ctx, span, stage, duration, report, nil)
	p.logger.InfoContext(ctx, "stage_completed",
		slog.String("stage", stage.Name()),
		slog.String("kind", string(stage.Kind())),
		slog.Duration("duration", duration),
		slog.Int("rows_in", report.RowsIn),
		slog.Int("rows_out", report.RowsOut),
		slog.Int("rows_dropped", report.RowsDropped),
		slog.Int("cells_filled", report.CellsFilled),
		slog.Int("cells_changed", report.CellsChanged),
		slog.Int("cells_nulled", report.CellsNulled),
		slog.Int("duplicates_removed", report.DuplicatesRemoved))
	return out, report, nil
}

// attributeError names the failing stage on a DataError, or wraps any
// other error with the stage name.
func attributeError(stage string, err error) error {
	if de, ok := err.(*apperrors.DataError); ok {
		return de.InStage(stage)
	}
	if de, ok := apperrors.AsDataError(err); ok && de.Stage == "" {
		return fmt.Errorf("stage %q: %w", stage, de.InStage(stage))
	}
	return fmt.Errorf("stage %q: %w", stage, err)
}

func checkFillDropConflicts(stages []cleaning.Stage) error {
	filled := make(map[string]string)
	for _, s := range stages {
		if s.Kind() != cleaning.KindFillMissing {
			continue
		}
		if ct, ok := s.(cleaning.ColumnTargeter); ok {
			for _, col := range ct.TargetColumns() {
				if _, seen := filled[col]; !seen {
					filled[col] = s.Name()
				}
			}
		}
	}

	for _, s := range stages {
		if s.Kind() != cleaning.KindDropMissing {
			continue
		}
		ct, ok := s.(cleaning.ColumnTargeter)
		if !ok {
			continue
		}
		for _, col := range ct.TargetColumns() {
			if fill, conflict := filled[col]; conflict {
				de := apperrors.NewInvalidStrategyError(col, fmt.Sprintf(
					"column is filled by stage %q and dropped on by stage %q; configure one or the other", fill, s.Name()))
				return de.InStage(s.Name())
			}
		}
	}
	return nil
}
