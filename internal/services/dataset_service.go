package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tabclean/internal/analysis"
	api "tabclean/pkg/contracts/api/v1"
)

// DatasetService answers read-only queries over a session's table. It
// holds no dataset itself.
type DatasetService struct {
	maxPageSize int
	logger      *slog.Logger
}

// NewDatasetService creates a dataset service. Page sizes above
// maxPageSize are capped.
func NewDatasetService(maxPageSize int, logger *slog.Logger) *DatasetService {
	if logger == nil {
		logger = slog.Default()
	}
	if maxPageSize <= 0 {
		maxPageSize = 100
	}
	return &DatasetService{maxPageSize: maxPageSize, logger: logger}
}

// MaxPageSize is the largest number of rows returned by one request.
func (ds *DatasetService) MaxPageSize() int { return ds.maxPageSize }

// Info describes the dataset.
func (ds *DatasetService) Info(ctx context.Context, s *Session) (*api.DatasetResponse, error) {
	if !s.valid() {
		return nil, ErrNoDataset
	}
	resp := &api.DatasetResponse{
		Source:   s.Source(),
		Rows:     s.Table().NumRows(),
		Columns:  columnInfo(s.Table().Specs()),
		LoadedAt: s.LoadedAt(),
	}
	if sum := s.Summary(); sum != nil {
		resp.Plan = sum.Plan
		resp.RunID = sum.RunID
	}
	return resp, nil
}

// Missing lists null counts, most missing first.
func (ds *DatasetService) Missing(ctx context.Context, s *Session, onlyMissing bool) (*api.MissingResponse, error) {
	if !s.valid() {
		return nil, ErrNoDataset
	}
	return missingResponse(s.Table().NumRows(), analysis.MissingTable(s.Table(), onlyMissing)), nil
}

// Aggregate groups the dataset and computes the requested metrics.
func (ds *DatasetService) Aggregate(ctx context.Context, s *Session, req api.AggregateRequest) (*api.TableResponse, error) {
	if !s.valid() {
		return nil, ErrNoDataset
	}
	start := time.Now()
	out, err := analysis.Aggregate(s.Table(), req.Keys, aggregations(req.Aggregations), analysis.AggregateOptions{
		SortBy:     req.SortBy,
		Descending: req.Descending,
	})
	if err != nil {
		return nil, err
	}

	ds.logger.DebugContext(ctx, "aggregate_completed",
		slog.Any("keys", req.Keys),
		slog.Int("groups", out.NumRows()),
		slog.Duration("duration", time.Since(start)))
	return tableResponse(out, req.Offset, ds.pageSize(req.Limit)), nil
}

// Describe summarises the numeric columns.
func (ds *DatasetService) Describe(ctx context.Context, s *Session) (*api.DescribeResponse, error) {
	if !s.valid() {
		return nil, ErrNoDataset
	}
	summaries := analysis.Describe(s.Table())
	resp := &api.DescribeResponse{Columns: make([]api.ColumnStats, len(summaries))}
	for i, c := range summaries {
		resp.Columns[i] = api.ColumnStats{
			Column: c.Column, Count: c.Count, Mean: c.Mean, Std: c.Std,
			Min: c.Min, Q1: c.Q1, Median: c.Median, Q3: c.Q3, Max: c.Max,
		}
	}
	return resp, nil
}

// ValueCounts returns the most frequent values of column.
func (ds *DatasetService) ValueCounts(ctx context.Context, s *Session, column string, limit int) (*api.ValueCountsResponse, error) {
	if !s.valid() {
		return nil, ErrNoDataset
	}
	if !s.Table().HasColumn(column) {
		return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, column)
	}
	counts, err := analysis.ValueCounts(s.Table(), column, 0)
	if err != nil {
		return nil, err
	}

	resp := &api.ValueCountsResponse{Column: column, Unique: len(counts)}
	limit = ds.pageSize(limit)
	if len(counts) > limit {
		counts = counts[:limit]
	}
	resp.Values = make([]api.ValueCount, len(counts))
	for i, c := range counts {
		resp.Values[i] = api.ValueCount{Value: jsonCell(c.Value), Count: c.Count, Percent: c.Percent}
	}
	return resp, nil
}

// Filter returns a page of the rows matching every predicate.
func (ds *DatasetService) Filter(ctx context.Context, s *Session, req api.FilterRequest) (*api.TableResponse, error) {
	if !s.valid() {
		return nil, ErrNoDataset
	}
	out, err := analysis.Filter(s.Table(), predicates(req.Predicates))
	if err != nil {
		return nil, err
	}
	return tableResponse(out, req.Offset, ds.pageSize(req.Limit)), nil
}

// Rows returns a page of rows, optionally sorted.
func (ds *DatasetService) Rows(ctx context.Context, s *Session, req api.PaginationRequest) (*api.TableResponse, error) {
	if !s.valid() {
		return nil, ErrNoDataset
	}
	t := s.Table()
	if req.SortBy != "" {
		if !t.HasColumn(req.SortBy) {
			return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, req.SortBy)
		}
		sorted, err := analysis.SortBy(t, req.SortBy, req.Descending())
		if err != nil {
			return nil, err
		}
		t = sorted
	}
	return tableResponse(t, req.Offset, ds.pageSize(req.Limit)), nil
}

// Correlations returns the Pearson matrix of the numeric columns and the
// pairs whose |r| exceeds threshold.
func (ds *DatasetService) Correlations(ctx context.Context, s *Session, threshold float64) (*api.CorrelationsResponse, error) {
	if !s.valid() {
		return nil, ErrNoDataset
	}
	if threshold <= 0 {
		threshold = analysis.DefaultCorrelationThreshold
	}
	if threshold >= 1 {
		return nil, fmt.Errorf("%w: threshold must be below 1, got %g", ErrInvalidInput, threshold)
	}

	m := analysis.Correlation(s.Table())
	strong := analysis.StrongCorrelations(m, threshold)
	resp := &api.CorrelationsResponse{
		Columns:   m.Columns,
		Values:    m.Values,
		Threshold: threshold,
		Strong:    make([]api.CorrelatedPair, len(strong)),
	}
	for i, p := range strong {
		resp.Strong[i] = api.CorrelatedPair{A: p.A, B: p.B, R: p.R}
	}
	return resp, nil
}

// Pivot cross tabulates two key columns.
func (ds *DatasetService) Pivot(ctx context.Context, s *Session, req api.PivotRequest) (*api.TableResponse, error) {
	if !s.valid() {
		return nil, ErrNoDataset
	}
	out, err := analysis.Pivot(s.Table(), analysis.PivotSpec{
		Row:    req.Row,
		Column: req.Column,
		Value:  req.Value,
		Metric: analysis.Metric(req.Metric),
	})
	if err != nil {
		return nil, err
	}
	ds.logger.DebugContext(ctx, "pivot_completed",
		slog.String("row", req.Row),
		slog.String("column", req.Column),
		slog.Int("rows", out.NumRows()),
		slog.Int("columns", out.NumColumns()))
	return tableResponse(out, req.Offset, ds.pageSize(req.Limit)), nil
}

func (ds *DatasetService) pageSize(limit int) int {
	if limit <= 0 || limit > ds.maxPageSize {
		return ds.maxPageSize
	}
	return limit
}
