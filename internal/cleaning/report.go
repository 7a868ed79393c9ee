package cleaning

import (
	"sort"

	"tabclean/internal/table"
)

// maxRecordedFailures caps the per-cell failures kept on a report.
const maxRecordedFailures = 100

// CellFailure records a value that could not be coerced.
type CellFailure struct {
	Row    int    `json:"row"`
	Column string `json:"column"`
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

// ChangeReport counts what one stage changed.
type ChangeReport struct {
	Stage             string         `json:"stage"`
	Kind              Kind           `json:"kind"`
	RowsIn            int            `json:"rows_in"`
	RowsOut           int            `json:"rows_out"`
	RowsDropped       int            `json:"rows_dropped,omitempty"`
	RowsAdded         int            `json:"rows_added,omitempty"`
	ColumnsDropped    []string       `json:"columns_dropped,omitempty"`
	ColumnsAdded      []string       `json:"columns_added,omitempty"`
	CellsFilled       int            `json:"cells_filled,omitempty"`
	CellsChanged      int            `json:"cells_changed,omitempty"`
	CellsNulled       int            `json:"cells_nulled,omitempty"`
	DuplicatesRemoved int            `json:"duplicates_removed,omitempty"`
	PerColumn         map[string]int `json:"per_column,omitempty"`
	Failures          []CellFailure  `json:"failures,omitempty"`
	Notes             []string       `json:"notes,omitempty"`
}

func newReport(kind Kind, in *table.Table) ChangeReport {
	return ChangeReport{Kind: kind, RowsIn: in.NumRows()}
}

func (r *ChangeReport) addColumn(name string, n int) {
	if n == 0 {
		return
	}
	if r.PerColumn == nil {
		r.PerColumn = make(map[string]int)
	}
	r.PerColumn[name] += n
}

func (r *ChangeReport) addFailure(f CellFailure) {
	r.CellsNulled++
	if len(r.Failures) < maxRecordedFailures {
		r.Failures = append(r.Failures, f)
	}
}

func (r *ChangeReport) finish(out *table.Table) {
	r.RowsOut = out.NumRows()
}

// Affected is the total number of rows, columns and cells the stage touched.
// Removed duplicates are already counted in RowsDropped.
func (r ChangeReport) Affected() int {
	return r.RowsDropped + r.RowsAdded + len(r.ColumnsDropped) + len(r.ColumnsAdded) +
		r.CellsFilled + r.CellsChanged + r.CellsNulled
}

// Columns returns the per-column counts sorted by column name.
func (r ChangeReport) Columns() []string {
	names := make([]string, 0, len(r.PerColumn))
	for name := range r.PerColumn {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
