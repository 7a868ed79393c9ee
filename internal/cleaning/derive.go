package cleaning

import (
	"fmt"
	"strings"
	"time"

	apperrors "tabclean/internal/errors"
	"tabclean/internal/table"
)

// DatePart is a component extracted from a date column.
type DatePart string

const (
	PartYear      DatePart = "year"
	PartMonth     DatePart = "month"
	PartMonthName DatePart = "month_name"
	PartDay       DatePart = "day"
	PartDayOfWeek DatePart = "day_of_week"
	PartHour      DatePart = "hour"
)

// AllDateParts lists every part in output order.
var AllDateParts = []DatePart{PartYear, PartMonth, PartMonthName, PartDay, PartDayOfWeek, PartHour}

var datePartColumns = map[DatePart]string{
	PartYear:      "Year",
	PartMonth:     "Month",
	PartMonthName: "Month_Name",
	PartDay:       "Day",
	PartDayOfWeek: "DayOfWeek",
	PartHour:      "Hour",
}

func datePartValue(part DatePart, t time.Time) any {
	switch part {
	case PartYear:
		return int64(t.Year())
	case PartMonth:
		return int64(t.Month())
	case PartMonthName:
		return t.Month().String()
	case PartDay:
		return int64(t.Day())
	case PartDayOfWeek:
		return t.Weekday().String()
	case PartHour:
		return int64(t.Hour())
	}
	return nil
}

// DatePartColumn returns the name of the column DeriveDateParts creates.
func DatePartColumn(prefix string, part DatePart) string {
	return prefix + datePartColumns[part]
}

// DeriveDateParts adds one column per requested part of a date column.
// Existing columns with the same name are replaced.
func DeriveDateParts(t *table.Table, column, prefix string, parts []DatePart) (*table.Table, ChangeReport, error) {
	report := newReport(KindDeriveDateParts, t)

	col, err := requireColumn(t, column)
	if err != nil {
		return nil, report, err
	}
	if col.Type() != table.Date {
		return nil, report, apperrors.NewInvalidStrategyError(column,
			fmt.Sprintf("date parts require a date column, got %s", col.Type()))
	}
	if len(parts) == 0 {
		parts = AllDateParts
	}

	out := t
	for _, part := range parts {
		if _, ok := datePartColumns[part]; !ok {
			return nil, report, apperrors.NewInvalidStrategyError(column, fmt.Sprintf("unknown date part %q", part))
		}
		typ := table.Integer
		if part == PartMonthName || part == PartDayOfWeek {
			typ = table.Categorical
		}
		values := make([]any, col.Len())
		for i := 0; i < col.Len(); i++ {
			if ts, ok := col.Value(i).(time.Time); ok {
				values[i] = datePartValue(part, ts)
			}
		}
		name := DatePartColumn(prefix, part)
		derived, err := table.NewColumn(table.ColumnSpec{Name: name, Type: typ, Nullable: col.NullCount() > 0}, values)
		if err != nil {
			return nil, report, err
		}
		if out, err = out.WithColumn(derived); err != nil {
			return nil, report, err
		}
		report.ColumnsAdded = append(report.ColumnsAdded, name)
	}

	report.finish(out)
	return out, report, nil
}

// DeriveProduct adds a float column holding left*right. The result is null
// where either operand is null.
func DeriveProduct(t *table.Table, name, left, right string) (*table.Table, ChangeReport, error) {
	report := newReport(KindDeriveProduct, t)

	l, err := requireNumeric(t, left, "product")
	if err != nil {
		return nil, report, err
	}
	r, err := requireNumeric(t, right, "product")
	if err != nil {
		return nil, report, err
	}

	values := make([]any, t.NumRows())
	nulls := false
	for i := range values {
		a, okA := table.ToFloat(l.Value(i))
		b, okB := table.ToFloat(r.Value(i))
		if okA && okB {
			values[i] = a * b
		} else {
			nulls = true
		}
	}

	derived, err := table.NewColumn(table.ColumnSpec{Name: name, Type: table.Float, Nullable: nulls}, values)
	if err != nil {
		return nil, report, err
	}
	out, err := t.WithColumn(derived)
	if err != nil {
		return nil, report, err
	}
	report.ColumnsAdded = []string{name}
	report.finish(out)
	return out, report, nil
}

// RenameColumns renames columns by mapping old to new names.
func RenameColumns(t *table.Table, mapping map[string]string) (*table.Table, ChangeReport, error) {
	report := newReport(KindRenameColumns, t)

	for from, to := range mapping {
		if _, err := requireColumn(t, from); err != nil {
			return nil, report, err
		}
		if to == "" {
			return nil, report, apperrors.NewInvalidStrategyError(from, "new column name is empty")
		}
		if _, renamed := mapping[to]; t.HasColumn(to) && !renamed && to != from {
			return nil, report, apperrors.NewInvalidStrategyError(from,
				fmt.Sprintf("cannot rename to %q: column already exists", to))
		}
	}

	out, err := t.Rename(mapping)
	if err != nil {
		return nil, report, apperrors.NewInvalidStrategyError("", err.Error())
	}
	for _, from := range sortedKeys(mapping) {
		report.Notes = append(report.Notes, fmt.Sprintf("%s -> %s", from, mapping[from]))
	}
	report.finish(out)
	return out, report, nil
}

// SplitExplode splits a text column on sep and emits one row per element.
// The first element keeps the row's index; further elements get fresh
// index entries above the current maximum. Null cells stay a single row.
func SplitExplode(t *table.Table, column, sep string, trim bool) (*table.Table, ChangeReport, error) {
	report := newReport(KindSplitExplode, t)

	col, err := requireText(t, column, "split")
	if err != nil {
		return nil, report, err
	}
	if sep == "" {
		return nil, report, apperrors.NewInvalidStrategyError(column, "separator must not be empty")
	}

	nextID := 0
	for _, id := range t.Index() {
		if id >= nextID {
			nextID = id + 1
		}
	}

	var positions, index []int
	var parts []any
	for i := 0; i < t.NumRows(); i++ {
		s, ok := col.Value(i).(string)
		if !ok {
			positions = append(positions, i)
			index = append(index, t.RowIndex(i))
			parts = append(parts, nil)
			continue
		}
		pieces := strings.Split(s, sep)
		for j, piece := range pieces {
			if trim {
				piece = strings.TrimSpace(piece)
			}
			positions = append(positions, i)
			parts = append(parts, piece)
			if j == 0 {
				index = append(index, t.RowIndex(i))
			} else {
				index = append(index, nextID)
				nextID++
			}
		}
	}

	// Take assumes distinct positions, so rebuild every column explicitly.
	cols := make([]*table.Column, 0, t.NumColumns())
	for _, c := range t.Columns() {
		values := make([]any, len(positions))
		if c.Name() == column {
			copy(values, parts)
		} else {
			for k, p := range positions {
				values[k] = c.Value(p)
			}
		}
		next, err := c.WithValues(values)
		if err != nil {
			return nil, report, err
		}
		cols = append(cols, next)
	}
	out, err := table.New(cols, index)
	if err != nil {
		return nil, report, err
	}

	report.RowsAdded = out.NumRows() - t.NumRows()
	report.finish(out)
	return out, report, nil
}

// DeriveDatePartsStage wraps DeriveDateParts.
type DeriveDatePartsStage struct {
	stageBase
	Column string
	Prefix string
	Parts  []DatePart
}

// NewDeriveDatePartsStage creates a date-part stage.
func NewDeriveDatePartsStage(name, column, prefix string, parts []DatePart) *DeriveDatePartsStage {
	return &DeriveDatePartsStage{stageBase: stageBase{name: name, kind: KindDeriveDateParts}, Column: column, Prefix: prefix, Parts: parts}
}

// Apply implements Stage.
func (s *DeriveDatePartsStage) Apply(t *table.Table) (*table.Table, ChangeReport, error) {
	return DeriveDateParts(t, s.Column, s.Prefix, s.Parts)
}

// DeriveProductStage wraps DeriveProduct.
type DeriveProductStage struct {
	stageBase
	Output, Left, Right string
}

// NewDeriveProductStage creates a product-column stage.
func NewDeriveProductStage(name, output, left, right string) *DeriveProductStage {
	return &DeriveProductStage{stageBase: stageBase{name: name, kind: KindDeriveProduct}, Output: output, Left: left, Right: right}
}

// Apply implements Stage.
func (s *DeriveProductStage) Apply(t *table.Table) (*table.Table, ChangeReport, error) {
	return DeriveProduct(t, s.Output, s.Left, s.Right)
}

// RenameColumnsStage wraps RenameColumns.
type RenameColumnsStage struct {
	stageBase
	Mapping map[string]string
}

// NewRenameColumnsStage creates a rename stage.
func NewRenameColumnsStage(name string, mapping map[string]string) *RenameColumnsStage {
	return &RenameColumnsStage{stageBase: stageBase{name: name, kind: KindRenameColumns}, Mapping: mapping}
}

// Apply implements Stage.
func (s *RenameColumnsStage) Apply(t *table.Table) (*table.Table, ChangeReport, error) {
	return RenameColumns(t, s.Mapping)
}

// SplitExplodeStage wraps SplitExplode.
type SplitExplodeStage struct {
	stageBase
	Column    string
	Separator string
	Trim      bool
}

// NewSplitExplodeStage creates a split-explode stage.
func NewSplitExplodeStage(name, column, sep string, trim bool) *SplitExplodeStage {
	return &SplitExplodeStage{stageBase: stageBase{name: name, kind: KindSplitExplode}, Column: column, Separator: sep, Trim: trim}
}

// Apply implements Stage.
func (s *SplitExplodeStage) Apply(t *table.Table) (*table.Table, ChangeReport, error) {
	return SplitExplode(t, s.Column, s.Separator, s.Trim)
}
