package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tabclean/internal/shared/testutil"
)

func TestNewErrorHandler(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)

	handler := NewErrorHandler(logger, true)

	assert.NotNil(t, handler)
	assert.True(t, handler.includeStack)
	assert.NotNil(t, handler.logger)
}

func TestErrorHandler_HandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
		wantExt    map[string]interface{}
	}{
		{
			name:       "context deadline exceeded",
			err:        context.DeadlineExceeded,
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
		},
		{
			name:       "api error",
			err:        ErrBodyRequired,
			wantStatus: http.StatusBadRequest,
			wantType:   TypeValidation,
			wantExt:    map[string]interface{}{"error_code": CodeInvalidRequest},
		},
		{
			name:       "dataset not loaded",
			err:        fmt.Errorf("query: %w", ErrDatasetNotFound),
			wantStatus: http.StatusNotFound,
			wantType:   TypeNotFound,
		},
		{
			name:       "invalid strategy",
			err:        NewInvalidStrategyError("name", "mean requires a numeric column").InStage("fill"),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeInvalidStrategy,
			wantExt:    map[string]interface{}{"column": "name", "stage": "fill"},
		},
		{
			name:       "type coercion keeps row",
			err:        NewTypeCoercionError(7, "age", "x", "not an integer", nil),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeTypeCoercion,
			wantExt:    map[string]interface{}{"row": float64(7)},
		},
		{
			name:       "schema mismatch",
			err:        NewSchemaMismatchError("country", "column not found"),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeSchemaMismatch,
		},
		{
			name:       "column not found",
			err:        ColumnNotFound("column \"x\" not found"),
			wantStatus: http.StatusNotFound,
			wantType:   TypeNotFound,
		},
		{
			name:       "unknown error",
			err:        fmt.Errorf("something broke"),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)
			handler := NewErrorHandler(logger, false)

			req := httptest.NewRequest(http.MethodGet, "/api/dataset", nil)
			w := httptest.NewRecorder()

			handler.HandleError(w, req, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantType, body["type"])
			assert.Equal(t, float64(tt.wantStatus), body["status"])
			assert.Equal(t, "/api/dataset", body["instance"])
			assert.Contains(t, body, "trace_id")
			for k, v := range tt.wantExt {
				assert.Equal(t, v, body[k], "extension %s", k)
			}
		})
	}
}

func TestErrorHandler_HandleErrorNil(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	eh := NewErrorHandler(logger, false)

	w := httptest.NewRecorder()
	eh.HandleError(w, httptest.NewRequest(http.MethodGet, "/", nil), nil)

	assert.Equal(t, 0, handler.Count())
	assert.Empty(t, w.Body.String())
}

func TestErrorHandler_NotFoundAndMethod(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	eh := NewErrorHandler(logger, false)

	w := httptest.NewRecorder()
	eh.NotFound(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	eh.MethodNotAllowed(w, httptest.NewRequest(http.MethodDelete, "/api/dataset", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Contains(t, w.Body.String(), "DELETE")
}

func TestProblemDetails_MarshalJSON(t *testing.T) {
	pd := NewProblemDetails(http.StatusBadRequest, TypeValidation, "Bad", "", "/x").
		WithExtension("errors", []ValidationError{{Field: "keys", Message: "required"}})

	data, err := json.Marshal(pd)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, TypeValidation, decoded["type"])
	assert.NotContains(t, decoded, "detail")
	assert.Len(t, decoded["errors"], 1)
}
