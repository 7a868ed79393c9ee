package pipeline

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"

	"tabclean/internal/cleaning"
	apperrors "tabclean/internal/errors"
	"tabclean/internal/table"
)

var validate = validator.New()

// FillParams configure a fill-missing stage.
type FillParams struct {
	Strategies map[string]cleaning.FillStrategy `yaml:"strategies" validate:"required,min=1,dive"`
}

// DropParams configure a drop-missing stage.
type DropParams struct {
	cleaning.DropOptions `yaml:",inline"`
}

// DedupeParams configure a deduplicate stage.
type DedupeParams struct {
	Keys []string      `yaml:"keys,omitempty"`
	Keep cleaning.Keep `yaml:"keep,omitempty" validate:"omitempty,oneof=first last"`
}

// CoerceParams configure a coerce-types stage. Without columns the plan's
// column specs are used.
type CoerceParams struct {
	Columns     []table.ColumnSpec `yaml:"columns,omitempty" validate:"dive"`
	Policy      string             `yaml:"policy,omitempty" validate:"omitempty,oneof=fail-fast coerce-to-null"`
	DateLayouts []string           `yaml:"date_layouts,omitempty"`
}

// ClipParams configure a clip-outliers stage.
type ClipParams struct {
	Columns []string            `yaml:"columns" validate:"required,min=1"`
	Method  cleaning.ClipMethod `yaml:"method,omitempty" validate:"omitempty,oneof=iqr zscore"`
	K       *float64            `yaml:"k,omitempty" validate:"omitempty,gte=0"`
}

// NormalizeParams configure a normalize-strings stage.
type NormalizeParams struct {
	Columns []string            `yaml:"columns" validate:"required,min=1"`
	Ops     []cleaning.StringOp `yaml:"ops" validate:"required,min=1,dive,oneof=trim lower upper title collapse-space"`
}

// ReplaceParams configure a replace-values stage. A null mapping value
// turns the matched token into a missing value.
type ReplaceParams struct {
	Column  string                 `yaml:"column" validate:"required"`
	Mapping map[string]interface{} `yaml:"mapping" validate:"required,min=1"`
}

// FilterParams configure a filter-rows stage.
type FilterParams struct {
	Predicates []cleaning.Predicate `yaml:"predicates" validate:"required,min=1,dive"`
}

// DatePartsParams configure a derive-date-parts stage.
type DatePartsParams struct {
	Column string              `yaml:"column" validate:"required"`
	Prefix string              `yaml:"prefix,omitempty"`
	Parts  []cleaning.DatePart `yaml:"parts,omitempty" validate:"dive,oneof=year month month_name day day_of_week hour"`
}

// ProductParams configure a derive-product stage.
type ProductParams struct {
	Output string `yaml:"output" validate:"required"`
	Left   string `yaml:"left" validate:"required"`
	Right  string `yaml:"right" validate:"required"`
}

// RenameParams configure a rename-columns stage.
type RenameParams struct {
	Mapping map[string]string `yaml:"mapping" validate:"required,min=1"`
}

// ExplodeParams configure a split-explode stage.
type ExplodeParams struct {
	Column    string `yaml:"column" validate:"required"`
	Separator string `yaml:"separator,omitempty"`
	Trim      *bool  `yaml:"trim,omitempty"`
}

// decodeParams maps a generic params block onto a typed struct by round
// tripping it through YAML, then checks the struct's validate tags.
// Unknown keys are rejected.
func decodeParams(stage string, params map[string]interface{}, out interface{}) error {
	if params == nil {
		params = map[string]interface{}{}
	}
	data, err := yaml.Marshal(params)
	if err != nil {
		return invalidParams(stage, err)
	}
	if err := yaml.UnmarshalStrict(data, out); err != nil {
		return invalidParams(stage, err)
	}
	if err := validate.Struct(out); err != nil {
		return invalidParams(stage, err)
	}
	return nil
}

func invalidParams(stage string, err error) error {
	de := apperrors.NewInvalidStrategyError("", fmt.Sprintf("invalid params: %v", err))
	return de.InStage(stage)
}
