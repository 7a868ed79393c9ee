package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *DataError
		expected string
	}{
		{
			name:     "parse error with row",
			err:      NewParseError(4, "expected 3 fields, got 2", nil),
			expected: `[PARSE] row 4: expected 3 fields, got 2`,
		},
		{
			name:     "coercion error with full location",
			err:      NewTypeCoercionError(2, "age", "abc", "not an integer", nil),
			expected: `[TYPE_COERCION] row 2, column "age", value "abc": not an integer`,
		},
		{
			name:     "strategy error with stage",
			err:      NewInvalidStrategyError("name", "mean requires a numeric column").InStage("fill"),
			expected: `[INVALID_STRATEGY] stage "fill": column "name": mean requires a numeric column`,
		},
		{
			name:     "schema mismatch with cause",
			err:      &DataError{Kind: KindSchemaMismatch, Row: NoRow, Column: "id", Message: "missing", Cause: fmt.Errorf("boom")},
			expected: `[SCHEMA_MISMATCH] column "id": missing: boom`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestDataError_InStageCopies(t *testing.T) {
	original := NewSchemaMismatchError("price", "column not found")
	staged := original.InStage("clip")

	assert.Empty(t, original.Stage)
	assert.Equal(t, "clip", staged.Stage)
	assert.Equal(t, original.Column, staged.Column)
}

func TestIsKind(t *testing.T) {
	base := NewTypeCoercionError(0, "date", "tomorrow", "bad date", nil)
	wrapped := fmt.Errorf("load: %w", base)

	assert.True(t, IsKind(wrapped, KindTypeCoercion))
	assert.False(t, IsKind(wrapped, KindParse))
	assert.False(t, IsKind(errors.New("plain"), KindParse))
	assert.False(t, IsKind(nil, KindParse))

	de, ok := AsDataError(wrapped)
	require.True(t, ok)
	assert.Equal(t, "date", de.Column)
	assert.Equal(t, 0, de.Row)
}
