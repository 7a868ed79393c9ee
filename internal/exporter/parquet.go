package exporter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/xitongsys/parquet-go-source/writerfile"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"tabclean/internal/table"
)

const parquetParallelism = 4

// WriteParquet writes t as a SNAPPY compressed Parquet file. Every column
// is OPTIONAL so nulls survive. Column names are reduced to letters, digits
// and underscores; the mapping from table to Parquet names is returned.
func WriteParquet(path string, t *table.Table) (map[string]string, error) {
	names := parquetNames(t.ColumnNames())
	schema, err := parquetSchema(t, names)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create parquet file: %w", err)
	}
	defer file.Close()

	pfw := writerfile.NewWriterFile(file)
	pw, err := writer.NewJSONWriter(schema, pfw, parquetParallelism)
	if err != nil {
		return nil, fmt.Errorf("failed to create parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	columns := t.Columns()
	row := make(map[string]any, len(columns))
	for i := 0; i < t.NumRows(); i++ {
		for _, col := range columns {
			row[names[col.Name()]] = parquetValue(col.Value(i))
		}
		doc, err := json.Marshal(row)
		if err != nil {
			_ = pw.WriteStop()
			return nil, fmt.Errorf("row %d: %w", t.RowIndex(i), err)
		}
		if err := pw.Write(string(doc)); err != nil {
			_ = pw.WriteStop()
			return nil, fmt.Errorf("failed to write row %d: %w", t.RowIndex(i), err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return nil, fmt.Errorf("failed to finish parquet file: %w", err)
	}
	if err := file.Close(); err != nil {
		return nil, err
	}
	return names, nil
}

func parquetSchema(t *table.Table, names map[string]string) (string, error) {
	fields := make([]map[string]string, 0, t.NumColumns())
	for _, col := range t.Columns() {
		fields = append(fields, map[string]string{
			"Tag": fmt.Sprintf("name=%s, %s, repetitiontype=OPTIONAL", names[col.Name()], parquetType(col.Type())),
		})
	}
	doc := map[string]any{
		"Tag":    "name=parquet_go_root, repetitiontype=REQUIRED",
		"Fields": fields,
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func parquetType(typ table.Type) string {
	switch typ {
	case table.Integer:
		return "type=INT64"
	case table.Float:
		return "type=DOUBLE"
	default:
		return "type=BYTE_ARRAY, convertedtype=UTF8"
	}
}

func parquetValue(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case int64, float64, string:
		return x
	case time.Time:
		return table.FormatDate(x)
	default:
		return table.Format(x)
	}
}

// parquetNames maps column names to unique Parquet field names.
func parquetNames(columns []string) map[string]string {
	out := make(map[string]string, len(columns))
	used := make(map[string]bool, len(columns))
	for _, name := range columns {
		var b strings.Builder
		for _, r := range name {
			if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
				b.WriteRune(r)
			} else {
				b.WriteRune('_')
			}
		}
		base := b.String()
		if base == "" || !unicode.IsLetter([]rune(base)[0]) {
			base = "c_" + base
		}
		candidate := base
		for n := 2; used[candidate]; n++ {
			candidate = fmt.Sprintf("%s_%d", base, n)
		}
		used[candidate] = true
		out[name] = candidate
	}
	return out
}
