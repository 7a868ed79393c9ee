package http

import (
	"context"

	"tabclean/internal/services"
	api "tabclean/pkg/contracts/api/v1"
)

// DatasetServiceInterface defines the read-only queries served over a
// session's table.
type DatasetServiceInterface interface {
	Info(ctx context.Context, s *services.Session) (*api.DatasetResponse, error)
	Missing(ctx context.Context, s *services.Session, onlyMissing bool) (*api.MissingResponse, error)
	Aggregate(ctx context.Context, s *services.Session, req api.AggregateRequest) (*api.TableResponse, error)
	Describe(ctx context.Context, s *services.Session) (*api.DescribeResponse, error)
	ValueCounts(ctx context.Context, s *services.Session, column string, limit int) (*api.ValueCountsResponse, error)
	Filter(ctx context.Context, s *services.Session, req api.FilterRequest) (*api.TableResponse, error)
	Rows(ctx context.Context, s *services.Session, req api.PaginationRequest) (*api.TableResponse, error)
	Correlations(ctx context.Context, s *services.Session, threshold float64) (*api.CorrelationsResponse, error)
	Pivot(ctx context.Context, s *services.Session, req api.PivotRequest) (*api.TableResponse, error)
	MaxPageSize() int
}

var _ DatasetServiceInterface = (*services.DatasetService)(nil)
