package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "tabclean/internal/errors"
	tcmw "tabclean/internal/middleware"
	"tabclean/internal/services"
	api "tabclean/pkg/contracts/api/v1"
)

// DatasetHandler serves the read-only dataset dashboard. The session is
// fixed at construction; a nil session answers every query with 404.
type DatasetHandler struct {
	service      DatasetServiceInterface
	session      *services.Session
	validator    *tcmw.ValidationMiddleware
	query        *tcmw.QueryParamValidator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDatasetHandler creates a dataset handler over session.
func NewDatasetHandler(service DatasetServiceInterface, session *services.Session, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DatasetHandler {
	return &DatasetHandler{
		service:      service,
		session:      session,
		validator:    tcmw.NewValidationMiddleware(logger, errorHandler),
		query:        tcmw.NewQueryParamValidator(errorHandler),
		logger:       logger.With(slog.String("component", "dataset_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the dataset routes, mounted under /api/dataset.
func (h *DatasetHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Use(h.validator.ValidateRequest)
	r.Use(tcmw.ContentTypeValidator("application/json"))

	r.Get("/", h.GetDataset)
	r.Get("/missing", h.GetMissing)
	r.Get("/describe", h.GetDescribe)
	r.Get("/value-counts/{column}", h.GetValueCounts)
	r.Get("/rows", h.GetRows)
	r.Get("/correlations", h.GetCorrelations)

	r.Post("/aggregate", h.PostAggregate)
	r.Post("/filter", h.PostFilter)
	r.Post("/pivot", h.PostPivot)

	return r
}

// GetDataset handles GET /api/dataset
func (h *DatasetHandler) GetDataset(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Info(r.Context(), h.session)
	if err != nil {
		h.handleError(w, r, "info", err)
		return
	}
	h.respond(w, r, resp)
}

// GetMissing handles GET /api/dataset/missing
func (h *DatasetHandler) GetMissing(w http.ResponseWriter, r *http.Request) {
	onlyMissing, ok := h.query.ValidateBool(w, r, "only_missing", false)
	if !ok {
		return
	}
	resp, err := h.service.Missing(r.Context(), h.session, onlyMissing)
	if err != nil {
		h.handleError(w, r, "missing", err)
		return
	}
	h.respond(w, r, resp)
}

// GetDescribe handles GET /api/dataset/describe
func (h *DatasetHandler) GetDescribe(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Describe(r.Context(), h.session)
	if err != nil {
		h.handleError(w, r, "describe", err)
		return
	}
	h.respond(w, r, resp)
}

// GetValueCounts handles GET /api/dataset/value-counts/{column}
func (h *DatasetHandler) GetValueCounts(w http.ResponseWriter, r *http.Request) {
	column := chi.URLParam(r, "column")
	limit, ok := h.query.ValidateInt(w, r, "limit", 0, h.service.MaxPageSize(), 0)
	if !ok {
		return
	}
	resp, err := h.service.ValueCounts(r.Context(), h.session, column, limit)
	if err != nil {
		h.handleError(w, r, "value_counts", err)
		return
	}
	h.respond(w, r, resp)
}

// GetRows handles GET /api/dataset/rows
func (h *DatasetHandler) GetRows(w http.ResponseWriter, r *http.Request) {
	offset, ok := h.query.ValidateInt(w, r, "offset", 0, int(^uint(0)>>1), 0)
	if !ok {
		return
	}
	limit, ok := h.query.ValidateInt(w, r, "limit", 0, h.service.MaxPageSize(), 0)
	if !ok {
		return
	}
	order, ok := h.query.ValidateEnum(w, r, "order", []string{"asc", "desc"}, "asc")
	if !ok {
		return
	}

	req := api.PaginationRequest{
		Offset: offset,
		Limit:  limit,
		SortBy: r.URL.Query().Get("sort_by"),
		Order:  order,
	}
	resp, err := h.service.Rows(r.Context(), h.session, req)
	if err != nil {
		h.handleError(w, r, "rows", err)
		return
	}
	h.respond(w, r, resp)
}

// GetCorrelations handles GET /api/dataset/correlations
func (h *DatasetHandler) GetCorrelations(w http.ResponseWriter, r *http.Request) {
	threshold, ok := h.query.ValidateFloat(w, r, "threshold", 0, 1, 0)
	if !ok {
		return
	}
	resp, err := h.service.Correlations(r.Context(), h.session, threshold)
	if err != nil {
		h.handleError(w, r, "correlations", err)
		return
	}
	h.respond(w, r, resp)
}

// PostAggregate handles POST /api/dataset/aggregate
func (h *DatasetHandler) PostAggregate(w http.ResponseWriter, r *http.Request) {
	var req api.AggregateRequest
	if err := h.validator.DecodeAndValidate(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	start := time.Now()
	resp, err := h.service.Aggregate(r.Context(), h.session, req)
	if err != nil {
		h.handleError(w, r, "aggregate", err)
		return
	}
	h.logger.InfoContext(r.Context(), "aggregate_served",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.Any("keys", req.Keys),
		slog.Int("groups", resp.Total),
		slog.Duration("duration", time.Since(start)))
	h.respond(w, r, resp)
}

// PostFilter handles POST /api/dataset/filter
func (h *DatasetHandler) PostFilter(w http.ResponseWriter, r *http.Request) {
	var req api.FilterRequest
	if err := h.validator.DecodeAndValidate(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	resp, err := h.service.Filter(r.Context(), h.session, req)
	if err != nil {
		h.handleError(w, r, "filter", err)
		return
	}
	h.respond(w, r, resp)
}

// PostPivot handles POST /api/dataset/pivot
func (h *DatasetHandler) PostPivot(w http.ResponseWriter, r *http.Request) {
	var req api.PivotRequest
	if err := h.validator.DecodeAndValidate(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	resp, err := h.service.Pivot(r.Context(), h.session, req)
	if err != nil {
		h.handleError(w, r, "pivot", err)
		return
	}
	h.respond(w, r, resp)
}

func (h *DatasetHandler) respond(w http.ResponseWriter, r *http.Request, data interface{}) {
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   data,
	})
}

// handleError maps service errors to API errors. Data errors pass through
// and become problem details of their own kind.
func (h *DatasetHandler) handleError(w http.ResponseWriter, r *http.Request, query string, err error) {
	h.logger.WarnContext(r.Context(), "dataset_query_failed",
		slog.String("query", query),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("error", err.Error()))

	switch {
	case errors.Is(err, services.ErrNoDataset):
		h.errorHandler.HandleError(w, r, apierrors.ErrDatasetNotFound)
	case errors.Is(err, services.ErrColumnNotFound):
		h.errorHandler.HandleError(w, r, apierrors.ColumnNotFound(err.Error()))
	case errors.Is(err, services.ErrInvalidInput):
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation(query, err.Error()))
	default:
		h.errorHandler.HandleError(w, r, err)
	}
}
