package analysis

import (
	"sort"

	"tabclean/internal/cleaning"
	"tabclean/internal/table"
)

// SortBy orders rows by column. The sort is stable and nulls come last in
// both directions. Row indices travel with their rows.
func SortBy(t *table.Table, column string, descending bool) (*table.Table, error) {
	col, err := requireColumn(t, column)
	if err != nil {
		return nil, err
	}
	positions := make([]int, t.NumRows())
	for i := range positions {
		positions[i] = i
	}
	sort.SliceStable(positions, func(a, b int) bool {
		va, vb := col.Value(positions[a]), col.Value(positions[b])
		if va == nil || vb == nil {
			return va != nil
		}
		c := table.Compare(va, vb)
		if descending {
			return c > 0
		}
		return c < 0
	})
	return t.Take(positions), nil
}

// Head returns the first n rows.
func Head(t *table.Table, n int) *table.Table {
	return Page(t, 0, n)
}

// Page returns up to limit rows starting at offset.
func Page(t *table.Table, offset, limit int) *table.Table {
	if offset < 0 {
		offset = 0
	}
	if offset > t.NumRows() {
		offset = t.NumRows()
	}
	end := t.NumRows()
	if limit >= 0 && offset+limit < end {
		end = offset + limit
	}
	positions := make([]int, 0, end-offset)
	for i := offset; i < end; i++ {
		positions = append(positions, i)
	}
	return t.Take(positions)
}

// NLargest returns the n rows with the largest non-null values of a numeric
// column, largest first. Ties keep their original order.
func NLargest(t *table.Table, n int, column string) (*table.Table, error) {
	col, err := requireNumeric(t, column, "nlargest")
	if err != nil {
		return nil, err
	}
	sorted, err := SortBy(t, column, true)
	if err != nil {
		return nil, err
	}
	nonNull := t.NumRows() - col.NullCount()
	if n > nonNull {
		n = nonNull
	}
	return Head(sorted, n), nil
}

// ValueCount is one distinct value and how often it occurs.
type ValueCount struct {
	Value   any     `json:"value"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// ValueCounts counts the distinct non-null values of column, most frequent
// first with ties in order of first occurrence. Percent is relative to the
// non-null count. A limit of zero or less returns every value.
func ValueCounts(t *table.Table, column string, limit int) ([]ValueCount, error) {
	col, err := requireColumn(t, column)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int)
	var counts []ValueCount
	total := 0
	for i := 0; i < col.Len(); i++ {
		v := col.Value(i)
		if v == nil {
			continue
		}
		total++
		k := table.Key(v)
		pos, ok := index[k]
		if !ok {
			pos = len(counts)
			index[k] = pos
			counts = append(counts, ValueCount{Value: v})
		}
		counts[pos].Count++
	}

	sort.SliceStable(counts, func(a, b int) bool { return counts[a].Count > counts[b].Count })
	for i := range counts {
		counts[i].Percent = float64(counts[i].Count) / float64(total) * 100
	}
	if limit > 0 && len(counts) > limit {
		counts = counts[:limit]
	}
	return counts, nil
}

// Unique returns the distinct non-null values of column in order of first
// occurrence.
func Unique(t *table.Table, column string) ([]any, error) {
	col, err := requireColumn(t, column)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var out []any
	for i := 0; i < col.Len(); i++ {
		v := col.Value(i)
		if v == nil {
			continue
		}
		k := table.Key(v)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, v)
	}
	return out, nil
}

// NUnique counts the distinct non-null values of column.
func NUnique(t *table.Table, column string) (int, error) {
	values, err := Unique(t, column)
	if err != nil {
		return 0, err
	}
	return len(values), nil
}

// MissingTable lists null counts per column, most missing first. With
// onlyMissing set, complete columns are left out.
func MissingTable(t *table.Table, onlyMissing bool) []cleaning.MissingColumn {
	report := cleaning.DetectMissing(t)
	cols := report.Columns
	if onlyMissing {
		cols = report.WithMissing()
	}
	out := append([]cleaning.MissingColumn{}, cols...)
	sort.SliceStable(out, func(a, b int) bool { return out[a].Count > out[b].Count })
	return out
}

// Filter keeps the rows matching every predicate.
func Filter(t *table.Table, predicates []cleaning.Predicate) (*table.Table, error) {
	out, _, err := cleaning.FilterRows(t, predicates)
	return out, err
}
