package cleaning

import (
	"fmt"

	apperrors "tabclean/internal/errors"
	"tabclean/internal/table"
)

// CoerceOptions configure CoerceTypes.
type CoerceOptions struct {
	// DateLayouts are Go time layouts tried in order for date columns.
	DateLayouts []string
	Policy      CoercionPolicy
}

// CoerceTypes converts each column named in specs to its declared type.
// Columns not named in specs are left alone. A value that cannot be
// converted raises a TypeCoercionError under FailFast, or becomes null and
// is recorded on the report under CoerceToNull. A spec that is not Nullable
// rejects every null, whether present or produced by a failed conversion.
func CoerceTypes(t *table.Table, specs []table.ColumnSpec, opts CoerceOptions) (*table.Table, ChangeReport, error) {
	report := newReport(KindCoerceTypes, t)

	out := t
	for _, spec := range specs {
		col, err := requireColumn(t, spec.Name)
		if err != nil {
			return nil, report, err
		}
		typ, err := table.ParseType(string(spec.Type))
		if err != nil {
			return nil, report, apperrors.NewInvalidStrategyError(spec.Name, err.Error())
		}
		spec.Type = typ

		values := make([]any, col.Len())
		changed := 0
		for i := 0; i < col.Len(); i++ {
			orig := col.Value(i)
			v, err := table.Convert(orig, typ, opts.DateLayouts)
			if err == nil && v == nil && !spec.Nullable {
				return nil, report, apperrors.NewTypeCoercionError(
					t.RowIndex(i), spec.Name, "", "missing value in a non-nullable column", nil)
			}
			if err != nil {
				if !spec.Nullable {
					return nil, report, apperrors.NewTypeCoercionError(
						t.RowIndex(i), spec.Name, table.Format(orig),
						fmt.Sprintf("cannot convert to %s in a non-nullable column", typ), err)
				}
				if opts.Policy != CoerceToNull {
					return nil, report, apperrors.NewTypeCoercionError(
						t.RowIndex(i), spec.Name, table.Format(orig),
						fmt.Sprintf("cannot convert to %s", typ), err)
				}
				report.addFailure(CellFailure{
					Row:    t.RowIndex(i),
					Column: spec.Name,
					Value:  table.Format(orig),
					Reason: err.Error(),
				})
				report.addColumn(spec.Name, 1)
				continue
			}
			values[i] = v
			if col.Type() != typ && orig != nil {
				changed++
			}
		}

		converted, err := table.NewColumn(spec, values)
		if err != nil {
			return nil, report, err
		}
		if out, err = out.WithColumn(converted); err != nil {
			return nil, report, err
		}
		report.CellsChanged += changed
		if col.Type() != typ {
			report.Notes = append(report.Notes, fmt.Sprintf("%s: %s -> %s", spec.Name, col.Type(), typ))
		}
	}

	report.finish(out)
	return out, report, nil
}

// CoerceTypesStage wraps CoerceTypes.
type CoerceTypesStage struct {
	stageBase
	Specs   []table.ColumnSpec
	Options CoerceOptions
}

// NewCoerceTypesStage creates a type-coercion stage.
func NewCoerceTypesStage(name string, specs []table.ColumnSpec, opts CoerceOptions) *CoerceTypesStage {
	return &CoerceTypesStage{stageBase: stageBase{name: name, kind: KindCoerceTypes}, Specs: specs, Options: opts}
}

// Apply implements Stage.
func (s *CoerceTypesStage) Apply(t *table.Table) (*table.Table, ChangeReport, error) {
	return CoerceTypes(t, s.Specs, s.Options)
}
