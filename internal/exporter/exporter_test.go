package exporter

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xuri/excelize/v2"

	"tabclean/internal/cleaning"
	"tabclean/internal/config"
	"tabclean/internal/loader"
	"tabclean/internal/pipeline"
	"tabclean/internal/table"
	"tabclean/pkg/contracts"
)

func orders() *table.Table {
	day := time.Date(2010, 12, 1, 8, 26, 0, 0, time.UTC)
	t, err := table.New([]*table.Column{
		table.MustColumn("InvoiceNo", table.String, "536365", "536366", "C536379"),
		table.MustColumn("Quantity", table.Integer, int64(6), nil, int64(-1)),
		table.MustColumn("Unit Price", table.Float, 2.55, 3.39, nil),
		table.MustColumn("InvoiceDate", table.Date, day, time.Date(2010, 12, 2, 0, 0, 0, 0, time.UTC), nil),
		table.MustColumn("Country", table.String, "United Kingdom", "France, \"Paris\"", nil),
	}, []int{0, 4, 7})
	if err != nil {
		panic(err)
	}
	return t
}

func sampleReport(t *table.Table) RunReport {
	summary := &pipeline.Summary{
		RunID:      "run-1",
		Plan:       "retail",
		RowsIn:     5,
		RowsOut:    3,
		ColumnsIn:  5,
		ColumnsOut: 5,
		Duration:   1500 * time.Millisecond,
		Stages: []cleaning.ChangeReport{
			{Stage: "dedupe", Kind: cleaning.KindDeduplicate, RowsIn: 5, RowsOut: 4, RowsDropped: 1, DuplicatesRemoved: 1},
			{Stage: "drop-customer", Kind: cleaning.KindDropMissing, RowsIn: 4, RowsOut: 3, RowsDropped: 1, ColumnsDropped: []string{"CustomerID"}},
		},
	}
	load := &loader.Report{Source: "data/retail.csv", Format: "csv", Rows: 5, Columns: 6, Inferred: []string{"Quantity"}}
	before := cleaning.MissingReport{Rows: 5, Columns: []cleaning.MissingColumn{
		{Name: "Quantity", Type: "integer", Count: 2, Percent: 40},
		{Name: "CustomerID", Type: "integer", Count: 1, Percent: 20},
	}}
	return NewRunReport(load, summary, before, cleaning.DetectMissing(t))
}

func TestCSVWriter_WriteTable(t *testing.T) {
	dir := t.TempDir()
	w := NewCSVWriter(config.NewPaths(dir, config.PathsConfig{}))

	tests := []struct {
		name string
		bom  bool
	}{
		{name: "plain", bom: false},
		{name: "with bom", bom: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, err := w.WriteTable("out/"+strings.ReplaceAll(tt.name, " ", "_")+".csv", orders(), tt.bom)
			require.NoError(t, err)
			assert.Equal(t, dir, filepath.Dir(filepath.Dir(path)))

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.bom, bytes.HasPrefix(data, utf8BOM))

			records, err := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM))).ReadAll()
			require.NoError(t, err)
			require.Len(t, records, 4)
			assert.Equal(t, []string{"InvoiceNo", "Quantity", "Unit Price", "InvoiceDate", "Country"}, records[0])
			assert.Equal(t, []string{"536365", "6", "2.55", "2010-12-01 08:26:00", "United Kingdom"}, records[1])
			assert.Equal(t, []string{"536366", "", "3.39", "2010-12-02", "France, \"Paris\""}, records[2])
			assert.Equal(t, []string{"C536379", "-1", "", "", ""}, records[3])
		})
	}
}

func TestCSVWriter_WriteCSV(t *testing.T) {
	dir := t.TempDir()
	w := NewCSVWriter(nil)
	path := filepath.Join(dir, "nested", "log.csv")

	require.NoError(t, w.WriteCSV(path, WriteOptions{Headers: []string{"a", "b"}, Records: [][]string{{"1", "2"}}, BOMPrefix: true}))
	require.NoError(t, w.WriteCSV(path, WriteOptions{Headers: []string{"a", "b"}, Records: [][]string{{"3", "4"}}, Append: true, BOMPrefix: true}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(utf8BOM)+"a,b\n1,2\n3,4\n", string(data))
}

func TestCSVWriter_AppendRunLog(t *testing.T) {
	dir := t.TempDir()
	w := NewCSVWriter(config.NewPaths(dir, config.PathsConfig{}))

	require.NoError(t, w.AppendRunLog("runs.csv", [][]string{{"r1", "a.yaml", "a.csv", "ok", "9", "8", ""}}))
	require.NoError(t, w.AppendRunLog("runs.csv", [][]string{{"", "b.yaml", "", "failed", "", "", "boom"}}))

	data, err := os.ReadFile(filepath.Join(dir, "runs.csv"))
	require.NoError(t, err)
	assert.Equal(t, "run_id,plan,source,status,rows_in,rows_out,error\n"+
		"r1,a.yaml,a.csv,ok,9,8,\n"+
		",b.yaml,,failed,,,boom\n", string(data))
}

func TestWriteText(t *testing.T) {
	tbl := orders()
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, sampleReport(tbl)))
	out := buf.String()

	assert.Contains(t, out, "Cleaning report: retail")
	assert.Contains(t, out, "Run ID:    run-1")
	assert.Contains(t, out, "Source:    data/retail.csv (csv, 5 rows, 6 columns)")
	assert.Contains(t, out, "Status:    ok")
	assert.Contains(t, out, "Rows:      5 -> 3")
	assert.Contains(t, out, "drop-customer dropped columns: CustomerID")
	assert.Regexp(t, `total\s+\S*\s+5\s+3\s+2\s`, out)
	assert.Regexp(t, `Quantity\s+2\s+1\s+33\.33%`, out)
	assert.Regexp(t, `CustomerID\s+1\s+-\s+-`, out)
}

func TestWriteText_FailedRun(t *testing.T) {
	r := sampleReport(orders())
	r.Summary.FailedStage = "fill"
	r.Summary.Error = "mean needs a numeric column"

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, r))
	assert.Contains(t, buf.String(), `Status:    failed at stage "fill": mean needs a numeric column`)
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleReport(orders())))

	var decoded struct {
		FormatVersion string `json:"format_version"`
		Plan          string `json:"plan"`
		Summary struct {
			RunID  string `json:"run_id"`
			Stages []struct {
				Stage       string `json:"stage"`
				RowsDropped int    `json:"rows_dropped"`
			} `json:"stages"`
		} `json:"summary"`
		MissingAfter cleaning.MissingReport `json:"missing_after"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, contracts.ReportFormatVersion, decoded.FormatVersion)
	assert.Equal(t, "retail", decoded.Plan)
	assert.Equal(t, "run-1", decoded.Summary.RunID)
	require.Len(t, decoded.Summary.Stages, 2)
	assert.Equal(t, 1, decoded.Summary.Stages[0].RowsDropped)
	assert.Equal(t, 1, decoded.MissingAfter.Count("Quantity"))
}

func TestWriteWorkbook(t *testing.T) {
	tbl := orders()
	path := filepath.Join(t.TempDir(), "retail.xlsx")
	require.NoError(t, WriteWorkbook(path, tbl, sampleReport(tbl)))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetCleaned, SheetReport, SheetMissing}, f.GetSheetList())

	rows, err := f.GetRows(SheetCleaned)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"InvoiceNo", "Quantity", "Unit Price", "InvoiceDate", "Country"}, rows[0])
	assert.Equal(t, "6", rows[1][1])
	assert.Equal(t, "2010-12-02", rows[2][3])

	missing, err := f.GetRows(SheetMissing)
	require.NoError(t, err)
	require.Len(t, missing, 6)
	assert.Equal(t, []string{"column", "type", "missing", "percent"}, missing[0])

	status, err := f.GetCellValue(SheetReport, "B2")
	require.NoError(t, err)
	assert.Equal(t, "ok", status)
}

func TestWriteParquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "retail.parquet")
	names, err := WriteParquet(path, orders())
	require.NoError(t, err)
	assert.Equal(t, "Unit_Price", names["Unit Price"])
	assert.Equal(t, "Quantity", names["Quantity"])

	fr, err := local.NewLocalFileReader(path)
	require.NoError(t, err)
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, nil, 1)
	require.NoError(t, err)
	defer pr.ReadStop()

	assert.Equal(t, int64(3), pr.GetNumRows())
	var fields []string
	for _, el := range pr.Footer.Schema[1:] {
		fields = append(fields, el.Name)
	}
	assert.Equal(t, []string{"InvoiceNo", "Quantity", "Unit_Price", "InvoiceDate", "Country"}, fields)
}

func TestParquetNames(t *testing.T) {
	names := parquetNames([]string{"Unit Price", "Unit_Price", "2nd", "", "Crème"})
	assert.Equal(t, map[string]string{
		"Unit Price": "Unit_Price",
		"Unit_Price": "Unit_Price_2",
		"2nd":        "c_2nd",
		"":           "c_",
		"Crème":      "Crème",
	}, names)
}

func TestExporter_Export(t *testing.T) {
	dir := t.TempDir()
	e := New(config.NewPaths(dir, config.PathsConfig{OutputDir: "out"}))
	tbl := orders()

	written, err := e.Export(context.Background(), "data/retail.csv", tbl, sampleReport(tbl), config.OutputConfig{
		JSONReport: "out/retail_report.json",
		Parquet:    "out/retail.parquet",
	})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "out", "retail_cleaned.csv"), written.CSV)
	assert.Equal(t, filepath.Join(dir, "out", "retail_report.txt"), written.Report)
	assert.Equal(t, filepath.Join(dir, "out", "retail_report.json"), written.JSONReport)
	assert.Empty(t, written.XLSX)
	assert.Equal(t, map[string]string{"Unit Price": "Unit_Price"}, written.FieldNames)
	assert.Len(t, written.Files(), 4)

	for _, p := range written.Files() {
		assert.FileExists(t, p)
	}
}
