package errors

import (
	"fmt"
	"net/http"

	"github.com/go-chi/render"
)

// Error codes carried in the error_code member of a problem response.
const (
	CodeValidation       = "VALIDATION_FAILED"
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeInvalidJSON      = "INVALID_JSON"
	CodePayloadTooLarge  = "PAYLOAD_TOO_LARGE"
	CodeUnsupportedMedia = "UNSUPPORTED_MEDIA_TYPE"
	CodeColumnNotFound   = "COLUMN_NOT_FOUND"
	CodeDatasetNotFound  = "DATASET_NOT_FOUND"
	CodeRateLimit        = "RATE_LIMIT_EXCEEDED"
)

// codeTypes maps an error code to its problem type. Codes not listed are
// reported as internal errors.
var codeTypes = map[string]string{
	CodeValidation:       TypeValidation,
	CodeInvalidRequest:   TypeValidation,
	CodeInvalidJSON:      TypeValidation,
	CodePayloadTooLarge:  TypeValidation,
	CodeUnsupportedMedia: TypeValidation,
	CodeColumnNotFound:   TypeNotFound,
	CodeDatasetNotFound:  TypeNotFound,
	CodeRateLimit:        TypeRateLimit,
}

// APIError is a dashboard failure with a stable error code.
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// Render implements render.Renderer.
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// ValidationError names one rejected field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// New creates an APIError.
func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{StatusCode: statusCode, ErrorCode: errorCode, Message: message}
}

// NewWithDetails creates an APIError carrying details.
func NewWithDetails(statusCode int, errorCode, message string, details interface{}) *APIError {
	return &APIError{StatusCode: statusCode, ErrorCode: errorCode, Message: message, Details: details}
}

var (
	ErrDatasetNotFound   = New(http.StatusNotFound, CodeDatasetNotFound, "No dataset is loaded")
	ErrBodyRequired      = New(http.StatusBadRequest, CodeInvalidRequest, "Request body is required")
	ErrInvalidJSON       = New(http.StatusBadRequest, CodeInvalidJSON, "Request body contains invalid JSON")
	ErrRateLimitExceeded = New(http.StatusTooManyRequests, CodeRateLimit, "Rate limit exceeded")
)

// InvalidRequestWithError reports a body that could not be decoded.
func InvalidRequestWithError(err error) *APIError {
	return NewWithDetails(http.StatusBadRequest, CodeInvalidRequest, "Invalid request format", err.Error())
}

// ErrValidation reports a single rejected field.
func ErrValidation(field, message string) *APIError {
	return NewValidationErrors([]ValidationError{{Field: field, Message: message}})
}

// NewValidationErrors reports every rejected field of a request.
func NewValidationErrors(errs []ValidationError) *APIError {
	return NewWithDetails(http.StatusBadRequest, CodeValidation, "Request validation failed", errs)
}

// ColumnNotFound reports a query naming a column the dataset lacks.
func ColumnNotFound(message string) *APIError {
	return New(http.StatusNotFound, CodeColumnNotFound, message)
}

// PayloadTooLarge reports a body above limit bytes.
func PayloadTooLarge(limit, size int64) *APIError {
	return NewWithDetails(http.StatusRequestEntityTooLarge, CodePayloadTooLarge,
		fmt.Sprintf("Request body exceeds %d bytes", limit),
		map[string]interface{}{"max_size": limit, "size": size})
}

// UnsupportedMediaType reports a body whose Content-Type is not allowed.
func UnsupportedMediaType(contentType string, allowed []string) *APIError {
	return NewWithDetails(http.StatusUnsupportedMediaType, CodeUnsupportedMedia, "Unsupported content type",
		map[string]interface{}{"content_type": contentType, "allowed": allowed})
}
