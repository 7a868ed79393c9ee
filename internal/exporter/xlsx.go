package exporter

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"tabclean/internal/table"
)

// Workbook sheet names.
const (
	SheetCleaned = "cleaned"
	SheetReport  = "report"
	SheetMissing = "missing"
)

// WriteWorkbook saves t and r as an XLSX workbook with a cleaned, a report
// and a missing sheet.
func WriteWorkbook(path string, t *table.Table, r RunReport) error {
	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := f.SetSheetName("Sheet1", SheetCleaned); err != nil {
		return err
	}
	if err := writeCleanedSheet(f, t, header); err != nil {
		return err
	}
	if err := writeReportSheet(f, r, header); err != nil {
		return err
	}
	if err := writeMissingSheet(f, r, header); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}

func writeCleanedSheet(f *excelize.File, t *table.Table, headerStyle int) error {
	sw, err := f.NewStreamWriter(SheetCleaned)
	if err != nil {
		return err
	}

	names := t.ColumnNames()
	head := make([]interface{}, len(names))
	for i, n := range names {
		head[i] = n
	}
	if err := sw.SetRow("A1", head, excelize.RowOpts{StyleID: headerStyle}); err != nil {
		return err
	}

	columns := t.Columns()
	for i := 0; i < t.NumRows(); i++ {
		row := make([]interface{}, len(columns))
		for c, col := range columns {
			row[c] = cellValue(col.Value(i))
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", t.RowIndex(i), err)
		}
	}
	return sw.Flush()
}

// cellValue keeps numbers numeric. Dates are written in their text form so
// the sheet needs no number format.
func cellValue(v any) interface{} {
	switch x := v.(type) {
	case nil:
		return nil
	case int64, float64:
		return x
	case time.Time:
		return table.FormatDate(x)
	default:
		return table.Format(x)
	}
}

func writeReportSheet(f *excelize.File, r RunReport, headerStyle int) error {
	if _, err := f.NewSheet(SheetReport); err != nil {
		return err
	}

	rows := [][]interface{}{
		{"plan", r.Plan},
		{"status", r.Status()},
		{"generated", r.GeneratedAt.Format(time.RFC3339)},
	}
	if r.Load != nil {
		rows = append(rows,
			[]interface{}{"source", r.Load.Source},
			[]interface{}{"format", r.Load.Format},
			[]interface{}{"cells nulled on load", r.Load.CellsNulled})
	}
	rows = append(rows, []interface{}{})

	rows = append(rows, []interface{}{"stage", "kind", "rows in", "rows out", "dropped", "added", "filled", "changed", "nulled", "duplicates"})
	headerRow := len(rows)
	if s := r.Summary; s != nil {
		for _, c := range append(s.Stages, s.Totals()) {
			rows = append(rows, []interface{}{
				c.Stage, string(c.Kind), c.RowsIn, c.RowsOut, c.RowsDropped, c.RowsAdded,
				c.CellsFilled, c.CellsChanged, c.CellsNulled, c.DuplicatesRemoved,
			})
		}
	}

	if err := setRows(f, SheetReport, rows); err != nil {
		return err
	}
	return styleRow(f, SheetReport, headerRow, 10, headerStyle)
}

func writeMissingSheet(f *excelize.File, r RunReport, headerStyle int) error {
	if _, err := f.NewSheet(SheetMissing); err != nil {
		return err
	}

	rows := [][]interface{}{{"column", "type", "missing", "percent"}}
	for _, c := range r.MissingAfter.Columns {
		rows = append(rows, []interface{}{c.Name, c.Type, c.Count, c.Percent})
	}
	if err := setRows(f, SheetMissing, rows); err != nil {
		return err
	}
	return styleRow(f, SheetMissing, 1, 4, headerStyle)
}

func setRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := row
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("sheet %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func styleRow(f *excelize.File, sheet string, row, width, style int) error {
	from, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	to, err := excelize.CoordinatesToCellName(width, row)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, from, to, style)
}
