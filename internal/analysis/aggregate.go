package analysis

import (
	"fmt"

	apperrors "tabclean/internal/errors"
	"tabclean/internal/stats"
	"tabclean/internal/table"
)

// Metric is a per-group statistic.
type Metric string

const (
	MetricSum     Metric = "sum"
	MetricMean    Metric = "mean"
	MetricCount   Metric = "count"
	MetricMin     Metric = "min"
	MetricMax     Metric = "max"
	MetricStd     Metric = "std"
	MetricVar     Metric = "var"
	MetricMedian  Metric = "median"
	MetricNUnique Metric = "nunique"
)

// Metrics lists every supported metric.
var Metrics = []Metric{MetricSum, MetricMean, MetricCount, MetricMin, MetricMax, MetricStd, MetricVar, MetricMedian, MetricNUnique}

// ParseMetric validates a metric name.
func ParseMetric(s string) (Metric, error) {
	for _, m := range Metrics {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown metric %q", s)
}

func (m Metric) numeric() bool {
	switch m {
	case MetricSum, MetricMean, MetricStd, MetricVar, MetricMedian:
		return true
	}
	return false
}

// resultType is the column type m produces over a column of type in.
func (m Metric) resultType(in table.Type) table.Type {
	switch m {
	case MetricCount, MetricNUnique:
		return table.Integer
	case MetricMin, MetricMax:
		return in
	case MetricSum:
		if in == table.Integer {
			return table.Integer
		}
		return table.Float
	default:
		return table.Float
	}
}

// Aggregation requests metrics over one column.
type Aggregation struct {
	Column  string   `json:"column" yaml:"column" validate:"required"`
	Metrics []Metric `json:"metrics" yaml:"metrics" validate:"required,min=1,dive,oneof=sum mean count min max std var median nunique"`
}

// AggregateOptions control output order. With SortBy empty, groups appear
// in order of first occurrence.
type AggregateOptions struct {
	SortBy     string `json:"sort_by,omitempty"`
	Descending bool   `json:"descending,omitempty"`
}

// Aggregate groups rows by equality of the keys tuple (null equals null)
// and computes each requested metric per group. An aggregated column with
// a single metric keeps its name; otherwise outputs are named
// <column>_<metric>. All metrics ignore nulls; count counts non-null values
// and std and var are sample statistics, null below two values. With no
// keys the whole table is one group.
func Aggregate(t *table.Table, keys []string, aggs []Aggregation, opts AggregateOptions) (*table.Table, error) {
	keyCols := make([]*table.Column, len(keys))
	for i, k := range keys {
		col, err := requireColumn(t, k)
		if err != nil {
			return nil, err
		}
		keyCols[i] = col
	}

	seen := make(map[string]bool, len(aggs))
	for _, a := range aggs {
		col, err := requireColumn(t, a.Column)
		if err != nil {
			return nil, err
		}
		if seen[a.Column] {
			return nil, apperrors.NewInvalidStrategyError(a.Column, "column is aggregated twice; list all its metrics once")
		}
		seen[a.Column] = true
		if len(a.Metrics) == 0 {
			return nil, apperrors.NewInvalidStrategyError(a.Column, "no metrics requested")
		}
		for _, m := range a.Metrics {
			if _, err := ParseMetric(string(m)); err != nil {
				return nil, apperrors.NewInvalidStrategyError(a.Column, err.Error())
			}
			if m.numeric() && !col.Type().IsNumeric() {
				return nil, apperrors.NewInvalidStrategyError(a.Column,
					fmt.Sprintf("%s requires a numeric column, got %s", m, col.Type()))
			}
		}
	}

	groups := groupRows(t, keyCols)

	columns := make([]*table.Column, 0, len(keys)+len(aggs))
	for _, kc := range keyCols {
		values := make([]any, len(groups))
		for g, rows := range groups {
			values[g] = kc.Value(rows[0])
		}
		col, err := table.NewColumn(table.ColumnSpec{Name: kc.Name(), Type: kc.Type(), Nullable: true}, values)
		if err != nil {
			return nil, err
		}
		columns = append(columns, col)
	}

	for _, a := range aggs {
		src, _ := t.Column(a.Column)
		for _, m := range a.Metrics {
			name := a.Column
			if len(a.Metrics) > 1 {
				name = a.Column + "_" + string(m)
			}
			values := make([]any, len(groups))
			for g, rows := range groups {
				values[g] = compute(src, rows, m)
			}
			col, err := table.NewColumn(table.ColumnSpec{Name: name, Type: m.resultType(src.Type()), Nullable: true}, values)
			if err != nil {
				return nil, fmt.Errorf("aggregate %s: %w", name, err)
			}
			columns = append(columns, col)
		}
	}

	out, err := table.New(columns, nil)
	if err != nil {
		return nil, apperrors.NewInvalidStrategyError("", err.Error())
	}
	if opts.SortBy != "" {
		return SortBy(out, opts.SortBy, opts.Descending)
	}
	return out, nil
}

// groupRows returns row positions per distinct key tuple, in order of first
// occurrence.
func groupRows(t *table.Table, keyCols []*table.Column) [][]int {
	if len(keyCols) == 0 {
		all := make([]int, t.NumRows())
		for i := range all {
			all[i] = i
		}
		return [][]int{all}
	}

	index := make(map[string]int)
	var groups [][]int
	key := make([]any, len(keyCols))
	for i := 0; i < t.NumRows(); i++ {
		for k, col := range keyCols {
			key[k] = col.Value(i)
		}
		id := table.Key(key...)
		g, ok := index[id]
		if !ok {
			g = len(groups)
			index[id] = g
			groups = append(groups, nil)
		}
		groups[g] = append(groups[g], i)
	}
	return groups
}

// compute evaluates m over the non-null values of col at rows.
func compute(col *table.Column, rows []int, m Metric) any {
	switch m {
	case MetricCount:
		n := 0
		for _, r := range rows {
			if !col.IsNull(r) {
				n++
			}
		}
		return int64(n)
	case MetricNUnique:
		distinct := make(map[string]struct{})
		for _, r := range rows {
			if v := col.Value(r); v != nil {
				distinct[table.Key(v)] = struct{}{}
			}
		}
		return int64(len(distinct))
	case MetricMin, MetricMax:
		var best any
		for _, r := range rows {
			v := col.Value(r)
			if v == nil {
				continue
			}
			c := table.Compare(v, best)
			if best == nil || (m == MetricMin && c < 0) || (m == MetricMax && c > 0) {
				best = v
			}
		}
		return best
	case MetricSum:
		if col.Type() == table.Integer {
			var sum int64
			for _, r := range rows {
				if v, ok := col.Value(r).(int64); ok {
					sum += v
				}
			}
			return sum
		}
		return stats.Sum(floats(col, rows))
	}

	x := floats(col, rows)
	switch m {
	case MetricMean:
		if len(x) == 0 {
			return nil
		}
		return stats.Mean(x)
	case MetricMedian:
		if len(x) == 0 {
			return nil
		}
		return stats.Median(x)
	case MetricStd:
		if s, ok := stats.Std(x); ok {
			return s
		}
	case MetricVar:
		if v, ok := stats.Variance(x); ok {
			return v
		}
	}
	return nil
}

func floats(col *table.Column, rows []int) []float64 {
	out := make([]float64, 0, len(rows))
	for _, r := range rows {
		if f, ok := table.ToFloat(col.Value(r)); ok {
			out = append(out, f)
		}
	}
	return out
}

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
