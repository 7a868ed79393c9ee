package loader

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	apperrors "tabclean/internal/errors"
	"tabclean/internal/table"
)

// LoadXLSX reads one worksheet of a workbook. The first row is the header.
// Excel drops trailing empty cells, so short rows are padded with empty
// strings, which read as missing under the default null tokens.
func LoadXLSX(ctx context.Context, path string, opts Options) (*table.Table, *Report, error) {
	report := &Report{Format: "xlsx"}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, report, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := opts.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, report, apperrors.NewParseError(apperrors.NoRow, "workbook has no sheets", nil)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, report, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, report, apperrors.NewParseError(apperrors.NoRow, fmt.Sprintf("sheet %q has no header row", sheet), nil)
	}

	t, report, err := FromRecords(ctx, rows[0], rows[1:], opts, true)
	report.Format = "xlsx"
	return t, report, err
}
