package cleaning

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	apperrors "tabclean/internal/errors"
	"tabclean/internal/table"
)

// StringOp is one string normalisation step.
type StringOp string

const (
	OpTrim          StringOp = "trim"
	OpLower         StringOp = "lower"
	OpUpper         StringOp = "upper"
	OpTitle         StringOp = "title"
	OpCollapseSpace StringOp = "collapse-space"
)

func stringFunc(op StringOp) (func(string) string, error) {
	switch op {
	case OpTrim:
		return strings.TrimSpace, nil
	case OpLower:
		return cases.Lower(language.Und).String, nil
	case OpUpper:
		return cases.Upper(language.Und).String, nil
	case OpTitle:
		return cases.Title(language.Und).String, nil
	case OpCollapseSpace:
		return func(s string) string { return strings.Join(strings.Fields(s), " ") }, nil
	default:
		return nil, fmt.Errorf("unknown string operation %q", op)
	}
}

// NormalizeStrings applies ops left to right to every cell of each column.
// Columns must be string or categorical.
func NormalizeStrings(t *table.Table, columns []string, ops []StringOp) (*table.Table, ChangeReport, error) {
	report := newReport(KindNormalizeStrings, t)

	funcs := make([]func(string) string, 0, len(ops))
	for _, op := range ops {
		fn, err := stringFunc(op)
		if err != nil {
			return nil, report, apperrors.NewInvalidStrategyError("", err.Error())
		}
		funcs = append(funcs, fn)
	}

	out := t
	for _, name := range columns {
		col, err := requireText(t, name, "string normalisation")
		if err != nil {
			return nil, report, err
		}
		values := col.Values()
		changed := 0
		for i, v := range values {
			s, ok := v.(string)
			if !ok {
				continue
			}
			norm := s
			for _, fn := range funcs {
				norm = fn(norm)
			}
			if norm != s {
				values[i] = norm
				changed++
			}
		}
		if changed == 0 {
			continue
		}
		next, err := col.WithValues(values)
		if err != nil {
			return nil, report, err
		}
		if out, err = out.WithColumn(next); err != nil {
			return nil, report, err
		}
		report.CellsChanged += changed
		report.addColumn(name, changed)
	}

	report.finish(out)
	return out, report, nil
}

// ReplaceValues replaces cells whose text form matches a mapping key. A nil
// replacement turns the cell into null; other replacements are converted
// to the column type. Null cells are never matched.
func ReplaceValues(t *table.Table, column string, mapping map[string]any) (*table.Table, ChangeReport, error) {
	report := newReport(KindReplaceValues, t)

	col, err := requireColumn(t, column)
	if err != nil {
		return nil, report, err
	}

	replacements := make(map[string]any, len(mapping))
	for from, to := range mapping {
		if to == nil {
			replacements[from] = nil
			continue
		}
		v, err := table.Convert(to, col.Type(), nil)
		if err != nil {
			return nil, report, apperrors.NewInvalidStrategyError(column,
				fmt.Sprintf("replacement %v for %q does not fit a %s column", to, from, col.Type()))
		}
		replacements[from] = v
	}

	values := col.Values()
	changed, nulled := 0, 0
	for i, v := range values {
		if v == nil {
			continue
		}
		to, ok := replacements[table.Format(v)]
		if !ok {
			continue
		}
		values[i] = to
		if to == nil {
			nulled++
		} else {
			changed++
		}
	}

	if changed+nulled == 0 {
		report.finish(t)
		return t, report, nil
	}

	next, err := col.WithValues(values)
	if err != nil {
		return nil, report, err
	}
	out, err := t.WithColumn(next)
	if err != nil {
		return nil, report, err
	}
	report.CellsChanged = changed
	report.CellsNulled = nulled
	report.addColumn(column, changed+nulled)
	report.finish(out)
	return out, report, nil
}

// NormalizeStringsStage wraps NormalizeStrings.
type NormalizeStringsStage struct {
	stageBase
	Columns []string
	Ops     []StringOp
}

// NewNormalizeStringsStage creates a string-normalize stage.
func NewNormalizeStringsStage(name string, columns []string, ops []StringOp) *NormalizeStringsStage {
	return &NormalizeStringsStage{stageBase: stageBase{name: name, kind: KindNormalizeStrings}, Columns: columns, Ops: ops}
}

// Apply implements Stage.
func (s *NormalizeStringsStage) Apply(t *table.Table) (*table.Table, ChangeReport, error) {
	return NormalizeStrings(t, s.Columns, s.Ops)
}

// ReplaceValuesStage wraps ReplaceValues.
type ReplaceValuesStage struct {
	stageBase
	Column  string
	Mapping map[string]any
}

// NewReplaceValuesStage creates a value-replace stage.
func NewReplaceValuesStage(name, column string, mapping map[string]any) *ReplaceValuesStage {
	return &ReplaceValuesStage{stageBase: stageBase{name: name, kind: KindReplaceValues}, Column: column, Mapping: mapping}
}

// Apply implements Stage.
func (s *ReplaceValuesStage) Apply(t *table.Table) (*table.Table, ChangeReport, error) {
	return ReplaceValues(t, s.Column, s.Mapping)
}
