package pipeline

import (
	"time"

	"tabclean/internal/cleaning"
)

// Summary accumulates the change reports of one run. On failure it holds
// the reports of the stages that completed, plus the failing stage.
type Summary struct {
	RunID       string                  `json:"run_id"`
	Plan        string                  `json:"plan"`
	StartedAt   time.Time               `json:"started_at"`
	Duration    time.Duration           `json:"duration_ns"`
	RowsIn      int                     `json:"rows_in"`
	RowsOut     int                     `json:"rows_out"`
	ColumnsIn   int                     `json:"columns_in"`
	ColumnsOut  int                     `json:"columns_out"`
	Stages      []cleaning.ChangeReport `json:"stages"`
	FailedStage string                  `json:"failed_stage,omitempty"`
	Error       string                  `json:"error,omitempty"`
}

// Succeeded reports whether every stage ran.
func (s *Summary) Succeeded() bool {
	return s.Error == ""
}

// Totals sums the counters of every completed stage.
func (s *Summary) Totals() cleaning.ChangeReport {
	total := cleaning.ChangeReport{Stage: "total", RowsIn: s.RowsIn, RowsOut: s.RowsOut}
	for _, r := range s.Stages {
		total.RowsDropped += r.RowsDropped
		total.RowsAdded += r.RowsAdded
		total.ColumnsDropped = append(total.ColumnsDropped, r.ColumnsDropped...)
		total.ColumnsAdded = append(total.ColumnsAdded, r.ColumnsAdded...)
		total.CellsFilled += r.CellsFilled
		total.CellsChanged += r.CellsChanged
		total.CellsNulled += r.CellsNulled
		total.DuplicatesRemoved += r.DuplicatesRemoved
	}
	return total
}

// Report returns the report of the named stage.
func (s *Summary) Report(stage string) (cleaning.ChangeReport, bool) {
	for _, r := range s.Stages {
		if r.Stage == stage {
			return r, true
		}
	}
	return cleaning.ChangeReport{}, false
}
