package errors

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError_Render(t *testing.T) {
	apiErr := NewWithDetails(http.StatusNotFound, CodeColumnNotFound, "column not found", "Age")

	req := httptest.NewRequest(http.MethodGet, "/api/dataset/value-counts/Age", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, render.Render(rec, req, apiErr))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, CodeColumnNotFound, body["error_code"])
	assert.Equal(t, "column not found", body["message"])
	assert.Equal(t, "Age", body["details"])
}

func TestErrorConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *APIError
		wantStatus int
		wantCode   string
		wantType   string
	}{
		{name: "dataset not found", err: ErrDatasetNotFound, wantStatus: http.StatusNotFound, wantCode: CodeDatasetNotFound, wantType: TypeNotFound},
		{name: "body required", err: ErrBodyRequired, wantStatus: http.StatusBadRequest, wantCode: CodeInvalidRequest, wantType: TypeValidation},
		{name: "invalid json", err: ErrInvalidJSON, wantStatus: http.StatusBadRequest, wantCode: CodeInvalidJSON, wantType: TypeValidation},
		{name: "rate limit", err: ErrRateLimitExceeded, wantStatus: http.StatusTooManyRequests, wantCode: CodeRateLimit, wantType: TypeRateLimit},
		{name: "undecodable body", err: InvalidRequestWithError(errors.New("unexpected EOF")), wantStatus: http.StatusBadRequest, wantCode: CodeInvalidRequest, wantType: TypeValidation},
		{name: "single field", err: ErrValidation("limit", "limit must be a valid integer"), wantStatus: http.StatusBadRequest, wantCode: CodeValidation, wantType: TypeValidation},
		{name: "column", err: ColumnNotFound(`column "Fare" not found`), wantStatus: http.StatusNotFound, wantCode: CodeColumnNotFound, wantType: TypeNotFound},
		{name: "too large", err: PayloadTooLarge(10, 20), wantStatus: http.StatusRequestEntityTooLarge, wantCode: CodePayloadTooLarge, wantType: TypeValidation},
		{name: "media type", err: UnsupportedMediaType("text/plain", []string{"application/json"}), wantStatus: http.StatusUnsupportedMediaType, wantCode: CodeUnsupportedMedia, wantType: TypeValidation},
		{name: "unknown code", err: New(http.StatusTeapot, "TEAPOT", "short and stout"), wantStatus: http.StatusTeapot, wantCode: "TEAPOT", wantType: TypeInternal},
	}

	h := NewErrorHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), false)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantStatus, tt.err.StatusCode)
			assert.Equal(t, tt.wantCode, tt.err.ErrorCode)
			assert.Equal(t, tt.err.Message, tt.err.Error())

			problem := h.ErrorToProblem(tt.err, httptest.NewRequest(http.MethodGet, "/api/dataset", nil))
			assert.Equal(t, tt.wantType, problem.Type)
			assert.Equal(t, tt.wantCode, problem.Extensions["error_code"])
		})
	}
}

func TestNewValidationErrors(t *testing.T) {
	errs := []ValidationError{
		{Field: "row", Message: "row is required"},
		{Field: "column", Message: "column must differ from Row"},
	}
	apiErr := NewValidationErrors(errs)

	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	details, ok := apiErr.Details.([]ValidationError)
	require.True(t, ok)
	assert.Equal(t, errs, details)
}
