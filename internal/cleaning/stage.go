package cleaning

import (
	"fmt"

	apperrors "tabclean/internal/errors"
	"tabclean/internal/table"
)

// Kind identifies a stage implementation.
type Kind string

const (
	KindFillMissing      Kind = "fill-missing"
	KindDropMissing      Kind = "drop-missing"
	KindDeduplicate      Kind = "deduplicate"
	KindCoerceTypes      Kind = "coerce-types"
	KindClipOutliers     Kind = "clip-outliers"
	KindNormalizeStrings Kind = "normalize-strings"
	KindReplaceValues    Kind = "replace-values"
	KindFilterRows       Kind = "filter-rows"
	KindDeriveDateParts  Kind = "derive-date-parts"
	KindDeriveProduct    Kind = "derive-product"
	KindRenameColumns    Kind = "rename-columns"
	KindSplitExplode     Kind = "split-explode"
)

// Stage is one deterministic table transformation. Apply must not modify
// its input and must return either a new table and report, or an error.
type Stage interface {
	// Name is the stage's label in reports and logs.
	Name() string
	// Kind identifies the transformation.
	Kind() Kind
	// Apply runs the transformation.
	Apply(t *table.Table) (*table.Table, ChangeReport, error)
}

// ColumnTargeter is implemented by stages that can name the columns they
// touch before running.
type ColumnTargeter interface {
	TargetColumns() []string
}

// CoercionPolicy decides what happens to a value that cannot take its
// declared type.
type CoercionPolicy string

const (
	// FailFast aborts with a TypeCoercionError on the first bad value.
	FailFast CoercionPolicy = "fail-fast"
	// CoerceToNull replaces bad values with null and records them.
	CoerceToNull CoercionPolicy = "coerce-to-null"
)

// ParsePolicy converts a policy name; the empty string means FailFast.
func ParsePolicy(s string) (CoercionPolicy, error) {
	switch CoercionPolicy(s) {
	case "", FailFast:
		return FailFast, nil
	case CoerceToNull:
		return CoerceToNull, nil
	default:
		return "", fmt.Errorf("unknown coercion policy %q", s)
	}
}

// stageBase carries the configured name of a stage.
type stageBase struct {
	name string
	kind Kind
}

func (b stageBase) Name() string {
	if b.name == "" {
		return string(b.kind)
	}
	return b.name
}

func (b stageBase) Kind() Kind { return b.kind }

func requireColumn(t *table.Table, name string) (*table.Column, error) {
	col, ok := t.Column(name)
	if !ok {
		return nil, apperrors.NewSchemaMismatchError(name, "column not found")
	}
	return col, nil
}

func requireNumeric(t *table.Table, name, what string) (*table.Column, error) {
	col, err := requireColumn(t, name)
	if err != nil {
		return nil, err
	}
	if !col.Type().IsNumeric() {
		return nil, apperrors.NewInvalidStrategyError(name,
			fmt.Sprintf("%s requires a numeric column, got %s", what, col.Type()))
	}
	return col, nil
}

func requireText(t *table.Table, name, what string) (*table.Column, error) {
	col, err := requireColumn(t, name)
	if err != nil {
		return nil, err
	}
	if !col.Type().IsText() {
		return nil, apperrors.NewInvalidStrategyError(name,
			fmt.Sprintf("%s requires a string or categorical column, got %s", what, col.Type()))
	}
	return col, nil
}
