package exporter

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"tabclean/internal/cleaning"
	"tabclean/internal/loader"
	"tabclean/internal/pipeline"
	"tabclean/pkg/contracts"
)

// RunReport is everything known about one cleaning run.
type RunReport struct {
	FormatVersion string                 `json:"format_version"`
	ToolVersion   string                 `json:"tool_version"`
	Plan          string                 `json:"plan"`
	GeneratedAt   time.Time              `json:"generated_at"`
	Load          *loader.Report         `json:"load,omitempty"`
	Summary       *pipeline.Summary      `json:"summary,omitempty"`
	MissingBefore cleaning.MissingReport `json:"missing_before"`
	MissingAfter  cleaning.MissingReport `json:"missing_after"`
}

// NewRunReport assembles a report. Missing value counts are computed by
// the caller from the loaded and the cleaned table.
func NewRunReport(load *loader.Report, summary *pipeline.Summary, before, after cleaning.MissingReport) RunReport {
	r := RunReport{
		FormatVersion: contracts.ReportFormatVersion,
		ToolVersion:   contracts.Version,
		GeneratedAt:   time.Now().UTC(),
		Load:          load,
		Summary:       summary,
		MissingBefore: before,
		MissingAfter:  after,
	}
	if summary != nil {
		r.Plan = summary.Plan
	}
	return r
}

// Status is "ok", or the failing stage and its error.
func (r RunReport) Status() string {
	if r.Summary == nil || r.Summary.Succeeded() {
		return "ok"
	}
	return fmt.Sprintf("failed at stage %q: %s", r.Summary.FailedStage, r.Summary.Error)
}

// WriteText renders the human readable report.
func WriteText(w io.Writer, r RunReport) error {
	b := &strings.Builder{}

	fmt.Fprintf(b, "Cleaning report: %s\n", r.Plan)
	fmt.Fprintf(b, "Generated: %s\n", r.GeneratedAt.Format(time.RFC3339))
	if r.Summary != nil {
		fmt.Fprintf(b, "Run ID:    %s\n", r.Summary.RunID)
	}
	if r.Load != nil {
		fmt.Fprintf(b, "Source:    %s (%s, %d rows, %d columns)\n", r.Load.Source, r.Load.Format, r.Load.Rows, r.Load.Columns)
		if len(r.Load.Inferred) > 0 {
			fmt.Fprintf(b, "Inferred:  %s\n", strings.Join(r.Load.Inferred, ", "))
		}
		if r.Load.CellsNulled > 0 {
			fmt.Fprintf(b, "Load:      %d cells could not be read and were set to null\n", r.Load.CellsNulled)
		}
	}
	fmt.Fprintf(b, "Status:    %s\n", r.Status())

	if s := r.Summary; s != nil {
		fmt.Fprintf(b, "Rows:      %d -> %d\n", s.RowsIn, s.RowsOut)
		fmt.Fprintf(b, "Columns:   %d -> %d\n", s.ColumnsIn, s.ColumnsOut)
		fmt.Fprintf(b, "Duration:  %s\n\n", s.Duration.Round(time.Millisecond))

		tw := tabwriter.NewWriter(b, 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(tw, "stage\tkind\trows in\trows out\tdropped\tadded\tfilled\tchanged\tnulled\tduplicates\t")
		writeStageRow := func(c cleaning.ChangeReport) {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t\n",
				c.Stage, c.Kind, c.RowsIn, c.RowsOut, c.RowsDropped, c.RowsAdded,
				c.CellsFilled, c.CellsChanged, c.CellsNulled, c.DuplicatesRemoved)
		}
		for _, c := range s.Stages {
			writeStageRow(c)
		}
		writeStageRow(s.Totals())
		if err := tw.Flush(); err != nil {
			return err
		}

		for _, c := range s.Stages {
			if len(c.ColumnsDropped) > 0 {
				fmt.Fprintf(b, "%s dropped columns: %s\n", c.Stage, strings.Join(c.ColumnsDropped, ", "))
			}
			if len(c.ColumnsAdded) > 0 {
				fmt.Fprintf(b, "%s added columns: %s\n", c.Stage, strings.Join(c.ColumnsAdded, ", "))
			}
			for _, f := range c.Failures {
				fmt.Fprintf(b, "%s: row %d column %s value %q: %s\n", c.Stage, f.Row, f.Column, f.Value, f.Reason)
			}
		}
	}

	b.WriteString("\nMissing values (before -> after)\n")
	tw := tabwriter.NewWriter(b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "column\tbefore\tafter\tpercent after\t")
	after := make(map[string]cleaning.MissingColumn, len(r.MissingAfter.Columns))
	for _, c := range r.MissingAfter.Columns {
		after[c.Name] = c
	}
	seen := make(map[string]bool)
	for _, c := range r.MissingBefore.Columns {
		seen[c.Name] = true
		if a, ok := after[c.Name]; ok {
			fmt.Fprintf(tw, "%s\t%d\t%d\t%.2f%%\t\n", c.Name, c.Count, a.Count, a.Percent)
		} else {
			fmt.Fprintf(tw, "%s\t%d\t-\t-\t\n", c.Name, c.Count)
		}
	}
	for _, a := range r.MissingAfter.Columns {
		if !seen[a.Name] {
			fmt.Fprintf(tw, "%s\t-\t%d\t%.2f%%\t\n", a.Name, a.Count, a.Percent)
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteJSON renders the report as indented JSON.
func WriteJSON(w io.Writer, r RunReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteReportFile writes the report to path, as JSON when asJSON is set.
func WriteReportFile(path string, r RunReport, asJSON bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}

	if asJSON {
		err = WriteJSON(f, r)
	} else {
		err = WriteText(f, r)
	}
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to write report %s: %w", path, err)
	}
	return f.Close()
}
