package cleaning

import (
	"fmt"
	"math"

	apperrors "tabclean/internal/errors"
	"tabclean/internal/stats"
	"tabclean/internal/table"
)

// MissingColumn is the null count of one column.
type MissingColumn struct {
	Name    string  `json:"name"`
	Type    string  `json:"type"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// MissingReport lists null counts per column in table order.
type MissingReport struct {
	Rows    int             `json:"rows"`
	Columns []MissingColumn `json:"columns"`
}

// Count returns the null count of a column, or 0 if it is unknown.
func (m MissingReport) Count(name string) int {
	for _, c := range m.Columns {
		if c.Name == name {
			return c.Count
		}
	}
	return 0
}

// Total returns the number of null cells in the table.
func (m MissingReport) Total() int {
	n := 0
	for _, c := range m.Columns {
		n += c.Count
	}
	return n
}

// WithMissing returns only the columns that have at least one null.
func (m MissingReport) WithMissing() []MissingColumn {
	var out []MissingColumn
	for _, c := range m.Columns {
		if c.Count > 0 {
			out = append(out, c)
		}
	}
	return out
}

// DetectMissing counts null cells per column. It never modifies t.
func DetectMissing(t *table.Table) MissingReport {
	report := MissingReport{Rows: t.NumRows(), Columns: make([]MissingColumn, 0, t.NumColumns())}
	for _, col := range t.Columns() {
		n := col.NullCount()
		pct := 0.0
		if t.NumRows() > 0 {
			pct = float64(n) / float64(t.NumRows()) * 100
		}
		report.Columns = append(report.Columns, MissingColumn{
			Name:    col.Name(),
			Type:    string(col.Type()),
			Count:   n,
			Percent: pct,
		})
	}
	return report
}

// FillMethod selects how nulls are replaced.
type FillMethod string

const (
	FillConstant    FillMethod = "constant"
	FillMean        FillMethod = "mean"
	FillMedian      FillMethod = "median"
	FillMode        FillMethod = "mode"
	FillForward     FillMethod = "ffill"
	FillInterpolate FillMethod = "interpolate"
)

// FillStrategy is the fill method for one column. Value is only used by
// FillConstant and is converted to the column type.
type FillStrategy struct {
	Method FillMethod `yaml:"method" json:"method" validate:"required,oneof=constant mean median mode ffill interpolate"`
	Value  any        `yaml:"value,omitempty" json:"value,omitempty"`
}

// FillMissing replaces nulls column by column. Columns are processed in
// table order; a strategy naming an unknown column is a SchemaMismatchError
// and a numeric-only method on a non-numeric column is an
// InvalidStrategyError.
func FillMissing(t *table.Table, strategies map[string]FillStrategy) (*table.Table, ChangeReport, error) {
	report := newReport(KindFillMissing, t)

	for _, name := range sortedKeys(strategies) {
		if _, err := requireColumn(t, name); err != nil {
			return nil, report, err
		}
	}

	out := t
	for _, col := range t.Columns() {
		strategy, ok := strategies[col.Name()]
		if !ok {
			continue
		}
		filled, n, err := fillColumn(col, strategy)
		if err != nil {
			return nil, report, err
		}
		if n == 0 {
			continue
		}
		if out, err = out.WithColumn(filled); err != nil {
			return nil, report, err
		}
		report.CellsFilled += n
		report.addColumn(col.Name(), n)
	}

	report.finish(out)
	return out, report, nil
}

func fillColumn(col *table.Column, s FillStrategy) (*table.Column, int, error) {
	switch s.Method {
	case FillMean, FillMedian, FillInterpolate:
		if !col.Type().IsNumeric() {
			return nil, 0, apperrors.NewInvalidStrategyError(col.Name(),
				fmt.Sprintf("%s fill requires a numeric column, got %s", s.Method, col.Type()))
		}
	case FillConstant, FillMode, FillForward:
	default:
		return nil, 0, apperrors.NewInvalidStrategyError(col.Name(), fmt.Sprintf("unknown fill method %q", s.Method))
	}

	if col.NullCount() == 0 {
		return col, 0, nil
	}

	values := col.Values()
	var fill any
	switch s.Method {
	case FillConstant:
		if s.Value == nil {
			return nil, 0, apperrors.NewInvalidStrategyError(col.Name(), "constant fill requires a value")
		}
		v, err := table.Convert(s.Value, col.Type(), nil)
		if err != nil || v == nil {
			return nil, 0, apperrors.NewInvalidStrategyError(col.Name(),
				fmt.Sprintf("constant %v does not fit a %s column", s.Value, col.Type()))
		}
		fill = v
	case FillMean:
		xs := col.Floats()
		if len(xs) == 0 {
			return col, 0, nil
		}
		fill = numericFill(col.Type(), stats.Mean(xs))
	case FillMedian:
		xs := col.Floats()
		if len(xs) == 0 {
			return col, 0, nil
		}
		fill = numericFill(col.Type(), stats.Median(xs))
	case FillMode:
		fill = modeValue(values)
		if fill == nil {
			return col, 0, nil
		}
	case FillForward:
		return forwardFill(col, values)
	case FillInterpolate:
		return interpolate(col, values)
	}

	n := 0
	for i, v := range values {
		if v == nil {
			values[i] = fill
			n++
		}
	}
	out, err := col.WithValues(values)
	return out, n, err
}

func numericFill(typ table.Type, v float64) any {
	if typ == table.Integer {
		return int64(math.Round(v))
	}
	return v
}

// modeValue returns the most frequent non-null value, ties going to the
// value seen first.
func modeValue(values []any) any {
	counts := make(map[string]int)
	first := make(map[string]any)
	var order []string
	for _, v := range values {
		if v == nil {
			continue
		}
		k := table.Key(v)
		if _, seen := first[k]; !seen {
			first[k] = v
			order = append(order, k)
		}
		counts[k]++
	}
	if len(order) == 0 {
		return nil
	}
	best := order[0]
	for _, k := range order[1:] {
		if counts[k] > counts[best] {
			best = k
		}
	}
	return first[best]
}

// forwardFill carries the last seen value forward. Leading nulls stay null.
func forwardFill(col *table.Column, values []any) (*table.Column, int, error) {
	var last any
	n := 0
	for i, v := range values {
		if v != nil {
			last = v
			continue
		}
		if last != nil {
			values[i] = last
			n++
		}
	}
	out, err := col.WithValues(values)
	return out, n, err
}

// interpolate fills interior nulls linearly by position. Leading and
// trailing nulls stay null.
func interpolate(col *table.Column, values []any) (*table.Column, int, error) {
	prev := -1
	n := 0
	for i, v := range values {
		if v == nil {
			continue
		}
		if prev >= 0 && i-prev > 1 {
			x0, _ := table.ToFloat(values[prev])
			x1, _ := table.ToFloat(v)
			span := float64(i - prev)
			for j := prev + 1; j < i; j++ {
				frac := float64(j-prev) / span
				values[j] = numericFill(col.Type(), x0+(x1-x0)*frac)
				n++
			}
		}
		prev = i
	}
	out, err := col.WithValues(values)
	return out, n, err
}

// Axis selects whether DropMissing removes rows or columns.
type Axis string

const (
	AxisRows    Axis = "rows"
	AxisColumns Axis = "columns"
)

// DropOptions configure DropMissing.
type DropOptions struct {
	Axis Axis `yaml:"axis" json:"axis" validate:"omitempty,oneof=rows columns"`
	// Threshold is the largest null count that is kept; 0 drops on any null.
	Threshold int `yaml:"threshold" json:"threshold" validate:"gte=0"`
	// Subset limits the columns inspected when dropping rows.
	Subset []string `yaml:"subset,omitempty" json:"subset,omitempty"`
}

// DropMissing removes rows or columns whose null count exceeds the threshold.
func DropMissing(t *table.Table, opts DropOptions) (*table.Table, ChangeReport, error) {
	report := newReport(KindDropMissing, t)

	if opts.Threshold < 0 {
		return nil, report, apperrors.NewInvalidStrategyError("", "threshold must not be negative")
	}

	switch opts.Axis {
	case AxisColumns:
		var drop []string
		for _, col := range t.Columns() {
			if col.NullCount() > opts.Threshold {
				drop = append(drop, col.Name())
			}
		}
		out := t.Drop(drop...)
		report.ColumnsDropped = drop
		report.finish(out)
		return out, report, nil

	case AxisRows, "":
		cols := t.Columns()
		if len(opts.Subset) > 0 {
			cols = cols[:0]
			for _, name := range opts.Subset {
				col, err := requireColumn(t, name)
				if err != nil {
					return nil, report, err
				}
				cols = append(cols, col)
			}
		}

		keep := make([]int, 0, t.NumRows())
		for i := 0; i < t.NumRows(); i++ {
			nulls := 0
			for _, col := range cols {
				if col.IsNull(i) {
					nulls++
				}
			}
			if nulls <= opts.Threshold {
				keep = append(keep, i)
			}
		}
		out := t.Take(keep)
		report.RowsDropped = t.NumRows() - len(keep)
		report.finish(out)
		return out, report, nil

	default:
		return nil, report, apperrors.NewInvalidStrategyError("", fmt.Sprintf("unknown axis %q", opts.Axis))
	}
}

// FillMissingStage wraps FillMissing.
type FillMissingStage struct {
	stageBase
	Strategies map[string]FillStrategy
}

// NewFillMissingStage creates a fill stage.
func NewFillMissingStage(name string, strategies map[string]FillStrategy) *FillMissingStage {
	return &FillMissingStage{stageBase: stageBase{name: name, kind: KindFillMissing}, Strategies: strategies}
}

// Apply implements Stage.
func (s *FillMissingStage) Apply(t *table.Table) (*table.Table, ChangeReport, error) {
	return FillMissing(t, s.Strategies)
}

// TargetColumns implements ColumnTargeter.
func (s *FillMissingStage) TargetColumns() []string {
	names := make([]string, 0, len(s.Strategies))
	for name := range s.Strategies {
		names = append(names, name)
	}
	return names
}

// DropMissingStage wraps DropMissing.
type DropMissingStage struct {
	stageBase
	Options DropOptions
}

// NewDropMissingStage creates a drop stage.
func NewDropMissingStage(name string, opts DropOptions) *DropMissingStage {
	return &DropMissingStage{stageBase: stageBase{name: name, kind: KindDropMissing}, Options: opts}
}

// Apply implements Stage.
func (s *DropMissingStage) Apply(t *table.Table) (*table.Table, ChangeReport, error) {
	return DropMissing(t, s.Options)
}

// TargetColumns implements ColumnTargeter. Only an explicit subset counts.
func (s *DropMissingStage) TargetColumns() []string {
	return append([]string(nil), s.Options.Subset...)
}
