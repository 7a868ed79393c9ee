package exporter

import (
	"context"
	"fmt"
	"log/slog"

	"tabclean/internal/config"
	"tabclean/internal/infrastructure"
	"tabclean/internal/table"
)

// Written lists the files produced by one Export call.
type Written struct {
	CSV        string            `json:"csv,omitempty"`
	Report     string            `json:"report,omitempty"`
	JSONReport string            `json:"json_report,omitempty"`
	XLSX       string            `json:"xlsx,omitempty"`
	Parquet    string            `json:"parquet,omitempty"`
	FieldNames map[string]string `json:"parquet_fields,omitempty"`
}

// Files returns the written paths in a fixed order.
func (w Written) Files() []string {
	var out []string
	for _, p := range []string{w.CSV, w.Report, w.JSONReport, w.XLSX, w.Parquet} {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Exporter writes the outputs a plan asks for.
type Exporter struct {
	paths *config.Paths
	csv   *CSVWriter
}

// New creates an exporter resolving relative output paths against paths.
func New(paths *config.Paths) *Exporter {
	return &Exporter{paths: paths, csv: NewCSVWriter(paths)}
}

// Export writes the cleaned table and the report. CSV and text report paths
// default to names derived from source inside the output directory; the
// other outputs are written only when configured.
func (e *Exporter) Export(ctx context.Context, source string, t *table.Table, r RunReport, out config.OutputConfig) (Written, error) {
	logger := infrastructure.WithComponent(infrastructure.LoggerWithContext(ctx), "exporter")
	var written Written

	csvPath, reportPath := out.CSV, out.Report
	if (csvPath == "" || reportPath == "") && e.paths != nil {
		defCSV, defReport := e.paths.DefaultOutputs(source)
		if csvPath == "" {
			csvPath = defCSV
		}
		if reportPath == "" {
			reportPath = defReport
		}
	}

	if csvPath != "" {
		p, err := e.csv.WriteTable(csvPath, t, out.WriteBOM)
		if err != nil {
			return written, fmt.Errorf("export csv: %w", err)
		}
		written.CSV = p
	}
	if reportPath != "" {
		p := e.resolve(reportPath)
		if err := WriteReportFile(p, r, false); err != nil {
			return written, err
		}
		written.Report = p
	}
	if out.JSONReport != "" {
		p := e.resolve(out.JSONReport)
		if err := WriteReportFile(p, r, true); err != nil {
			return written, err
		}
		written.JSONReport = p
	}
	if out.XLSX != "" {
		p := e.resolve(out.XLSX)
		if err := WriteWorkbook(p, t, r); err != nil {
			return written, fmt.Errorf("export xlsx: %w", err)
		}
		written.XLSX = p
	}
	if out.Parquet != "" {
		p := e.resolve(out.Parquet)
		names, err := WriteParquet(p, t)
		if err != nil {
			return written, fmt.Errorf("export parquet: %w", err)
		}
		written.Parquet = p
		written.FieldNames = renamedOnly(names)
	}

	logger.InfoContext(ctx, "outputs_written",
		slog.Int("rows", t.NumRows()),
		slog.Any("files", written.Files()))
	return written, nil
}

// ExportReport writes only the text and JSON reports. It is used for runs
// that failed, whose table must not be published as cleaned.
func (e *Exporter) ExportReport(ctx context.Context, source string, r RunReport, out config.OutputConfig) (Written, error) {
	logger := infrastructure.WithComponent(infrastructure.LoggerWithContext(ctx), "exporter")
	var written Written

	reportPath := out.Report
	if reportPath == "" && e.paths != nil {
		_, reportPath = e.paths.DefaultOutputs(source)
	}
	if reportPath != "" {
		p := e.resolve(reportPath)
		if err := WriteReportFile(p, r, false); err != nil {
			return written, err
		}
		written.Report = p
	}
	if out.JSONReport != "" {
		p := e.resolve(out.JSONReport)
		if err := WriteReportFile(p, r, true); err != nil {
			return written, err
		}
		written.JSONReport = p
	}

	logger.WarnContext(ctx, "report_written_without_table",
		slog.String("status", r.Status()),
		slog.Any("files", written.Files()))
	return written, nil
}

func (e *Exporter) resolve(path string) string {
	if e.paths == nil {
		return path
	}
	return e.paths.Resolve(path)
}

func renamedOnly(names map[string]string) map[string]string {
	var out map[string]string
	for k, v := range names {
		if k != v {
			if out == nil {
				out = make(map[string]string)
			}
			out[k] = v
		}
	}
	return out
}
