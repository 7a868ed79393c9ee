package analysis

import (
	"math"
	"sort"

	"tabclean/internal/stats"
	"tabclean/internal/table"
)

// ColumnSummary holds descriptive statistics for one numeric column.
// Statistics that cannot be computed are nil.
type ColumnSummary struct {
	Column string   `json:"column"`
	Count  int      `json:"count"`
	Mean   *float64 `json:"mean"`
	Std    *float64 `json:"std"`
	Min    *float64 `json:"min"`
	Q1     *float64 `json:"25%"`
	Median *float64 `json:"50%"`
	Q3     *float64 `json:"75%"`
	Max    *float64 `json:"max"`
}

// Describe summarises every numeric column in table order. Nulls are
// ignored; std is the sample standard deviation.
func Describe(t *table.Table) []ColumnSummary {
	var out []ColumnSummary
	for _, col := range t.Columns() {
		if !col.Type().IsNumeric() {
			continue
		}
		x := col.Floats()
		s := ColumnSummary{Column: col.Name(), Count: len(x)}
		if len(x) > 0 {
			sorted := append([]float64(nil), x...)
			sort.Float64s(sorted)
			s.Mean = ptr(stats.Mean(x))
			s.Min = ptr(sorted[0])
			s.Max = ptr(sorted[len(sorted)-1])
			q1, q2, q3 := stats.Quartiles(sorted)
			s.Q1, s.Median, s.Q3 = ptr(q1), ptr(q2), ptr(q3)
			if std, ok := stats.Std(x); ok {
				s.Std = ptr(std)
			}
		}
		out = append(out, s)
	}
	return out
}

// Correlations is a symmetric Pearson matrix over numeric columns. An
// entry is nil when fewer than two rows have both values or either side is
// constant over those rows.
type Correlations struct {
	Columns []string     `json:"columns"`
	Values  [][]*float64 `json:"values"`
}

// Get returns the coefficient for a pair of columns.
func (c Correlations) Get(a, b string) (float64, bool) {
	i, j := -1, -1
	for k, name := range c.Columns {
		if name == a {
			i = k
		}
		if name == b {
			j = k
		}
	}
	if i < 0 || j < 0 || c.Values[i][j] == nil {
		return 0, false
	}
	return *c.Values[i][j], true
}

// Correlation computes pairwise complete Pearson coefficients between the
// numeric columns of t.
func Correlation(t *table.Table) Correlations {
	var cols []*table.Column
	for _, col := range t.Columns() {
		if col.Type().IsNumeric() {
			cols = append(cols, col)
		}
	}

	m := Correlations{Columns: make([]string, len(cols)), Values: make([][]*float64, len(cols))}
	for i, col := range cols {
		m.Columns[i] = col.Name()
		m.Values[i] = make([]*float64, len(cols))
	}
	for i := range cols {
		for j := i; j < len(cols); j++ {
			x, y := pairs(cols[i], cols[j])
			r, ok := stats.Pearson(x, y)
			if !ok {
				continue
			}
			if i == j {
				r = 1
			}
			r = math.Max(-1, math.Min(1, r))
			m.Values[i][j], m.Values[j][i] = ptr(r), ptr(r)
		}
	}
	return m
}

func pairs(a, b *table.Column) (x, y []float64) {
	for i := 0; i < a.Len(); i++ {
		fa, okA := table.ToFloat(a.Value(i))
		fb, okB := table.ToFloat(b.Value(i))
		if okA && okB {
			x = append(x, fa)
			y = append(y, fb)
		}
	}
	return x, y
}

// DefaultCorrelationThreshold is the |r| above which a pair counts as
// strongly correlated.
const DefaultCorrelationThreshold = 0.7

// CorrelatedPair is two distinct columns and their coefficient.
type CorrelatedPair struct {
	A string  `json:"a"`
	B string  `json:"b"`
	R float64 `json:"r"`
}

// StrongCorrelations returns pairs with |r| above threshold, strongest
// first. A threshold of zero or less selects the default.
func StrongCorrelations(m Correlations, threshold float64) []CorrelatedPair {
	if threshold <= 0 {
		threshold = DefaultCorrelationThreshold
	}
	var out []CorrelatedPair
	for i := range m.Columns {
		for j := i + 1; j < len(m.Columns); j++ {
			r := m.Values[i][j]
			if r != nil && math.Abs(*r) > threshold {
				out = append(out, CorrelatedPair{A: m.Columns[i], B: m.Columns[j], R: *r})
			}
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return math.Abs(out[a].R) > math.Abs(out[b].R) })
	return out
}

func ptr(f float64) *float64 { return &f }
