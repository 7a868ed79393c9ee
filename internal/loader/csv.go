package loader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	apperrors "tabclean/internal/errors"
	"tabclean/internal/table"
)

const utf8BOM = "\ufeff"

// LoadCSV reads a delimited text file with a header row.
func LoadCSV(ctx context.Context, path string, opts Options) (*table.Table, *Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &Report{Format: "csv"}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return ReadCSV(ctx, f, opts)
}

// ReadCSV reads delimited text with a header row from r. A leading UTF-8
// byte order mark is ignored.
func ReadCSV(ctx context.Context, r io.Reader, opts Options) (*table.Table, *Report, error) {
	reader := csv.NewReader(r)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	// Field counts are checked against the header so the error carries the row.
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, &Report{Format: "csv"}, apperrors.NewParseError(apperrors.NoRow, "missing header row", nil)
	}
	if err != nil {
		return nil, &Report{Format: "csv"}, apperrors.NewParseError(apperrors.NoRow, "malformed header row", err)
	}
	header[0] = strings.TrimPrefix(header[0], utf8BOM)

	var rows [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &Report{Format: "csv"}, apperrors.NewParseError(len(rows), "malformed row", err)
		}
		rows = append(rows, record)
	}

	t, report, err := FromRecords(ctx, header, rows, opts, false)
	report.Format = "csv"
	return t, report, err
}
