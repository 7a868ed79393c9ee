package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies failures raised while loading or cleaning a table.
type Kind string

const (
	// KindParse is a malformed row, usually a field count that does not match the header.
	KindParse Kind = "PARSE"
	// KindTypeCoercion is a value that cannot be converted to its declared column type.
	KindTypeCoercion Kind = "TYPE_COERCION"
	// KindInvalidStrategy is a stage parameter that does not fit the column it targets.
	KindInvalidStrategy Kind = "INVALID_STRATEGY"
	// KindSchemaMismatch is an expected column that is missing from the table.
	KindSchemaMismatch Kind = "SCHEMA_MISMATCH"
)

// NoRow marks a DataError that is not tied to a single row.
const NoRow = -1

// DataError carries the row and column context of a table failure.
// Row is the table row index, or NoRow.
type DataError struct {
	Kind    Kind
	Stage   string
	Row     int
	Column  string
	Value   string
	Message string
	Cause   error
}

// Error implements the error interface
func (e *DataError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s]", e.Kind)
	if e.Stage != "" {
		fmt.Fprintf(&b, " stage %q:", e.Stage)
	}
	var loc []string
	if e.Row != NoRow {
		loc = append(loc, fmt.Sprintf("row %d", e.Row))
	}
	if e.Column != "" {
		loc = append(loc, fmt.Sprintf("column %q", e.Column))
	}
	if e.Value != "" {
		loc = append(loc, fmt.Sprintf("value %q", e.Value))
	}
	if len(loc) > 0 {
		b.WriteString(" " + strings.Join(loc, ", ") + ":")
	}
	b.WriteString(" " + e.Message)
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

// Unwrap returns the underlying cause
func (e *DataError) Unwrap() error {
	return e.Cause
}

// InStage returns a copy of the error attributed to the named stage.
func (e *DataError) InStage(stage string) *DataError {
	cp := *e
	cp.Stage = stage
	return &cp
}

// NewParseError creates a ParseError for a malformed row
func NewParseError(row int, message string, cause error) *DataError {
	return &DataError{Kind: KindParse, Row: row, Message: message, Cause: cause}
}

// NewTypeCoercionError creates a TypeCoercionError for a single cell
func NewTypeCoercionError(row int, column, value, message string, cause error) *DataError {
	return &DataError{Kind: KindTypeCoercion, Row: row, Column: column, Value: value, Message: message, Cause: cause}
}

// NewInvalidStrategyError creates an InvalidStrategyError for a column
func NewInvalidStrategyError(column, message string) *DataError {
	return &DataError{Kind: KindInvalidStrategy, Row: NoRow, Column: column, Message: message}
}

// NewSchemaMismatchError creates a SchemaMismatchError for a missing column
func NewSchemaMismatchError(column, message string) *DataError {
	return &DataError{Kind: KindSchemaMismatch, Row: NoRow, Column: column, Message: message}
}

// IsKind reports whether err is a DataError of the given kind.
func IsKind(err error, kind Kind) bool {
	var de *DataError
	if errors.As(err, &de) {
		return de.Kind == kind
	}
	return false
}

// AsDataError extracts the DataError from err's chain.
func AsDataError(err error) (*DataError, bool) {
	var de *DataError
	ok := errors.As(err, &de)
	return de, ok
}
