package loader

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"tabclean/internal/cleaning"
	"tabclean/internal/config"
	apperrors "tabclean/internal/errors"
	"tabclean/internal/files"
	"tabclean/internal/infrastructure"
	"tabclean/internal/table"
)

// cancelCheckInterval is how many rows are converted between context checks.
const cancelCheckInterval = 4096

// Options control how raw records become a typed table.
type Options struct {
	// Delimiter separates CSV fields; zero means ','.
	Delimiter rune
	// Sheet selects the XLSX worksheet; empty means the first sheet.
	Sheet string
	// NullTokens are the exact raw strings read as missing. Nil selects
	// table.DefaultNullTokens.
	NullTokens []string
	// DateLayouts are tried in order for date columns.
	DateLayouts []string
	// Columns declare expected columns. Header columns without a spec get
	// an inferred type.
	Columns []table.ColumnSpec
	Policy  cleaning.CoercionPolicy
}

// OptionsFromPlan builds load options from a plan's source section and
// column specs.
func OptionsFromPlan(plan *config.Plan) (Options, error) {
	policy, err := cleaning.ParsePolicy(plan.Source.Policy)
	if err != nil {
		return Options{}, err
	}
	opts := Options{
		Sheet:       plan.Source.Sheet,
		NullTokens:  plan.Source.NullTokens,
		DateLayouts: plan.Source.DateLayouts,
		Columns:     plan.Columns,
		Policy:      policy,
	}
	if d := plan.Source.Delimiter; d != "" {
		opts.Delimiter = []rune(d)[0]
	}
	return opts, nil
}

// Report describes what happened while loading.
type Report struct {
	Source      string                 `json:"source"`
	Format      string                 `json:"format"`
	Rows        int                    `json:"rows"`
	Columns     int                    `json:"columns"`
	NullCells   int                    `json:"null_cells"`
	Inferred    []string               `json:"inferred,omitempty"`
	CellsNulled int                    `json:"cells_nulled,omitempty"`
	Failures    []cleaning.CellFailure `json:"failures,omitempty"`
	Duration    time.Duration          `json:"duration_ns"`
}

// maxRecordedFailures caps the per-cell failures kept on a load report.
const maxRecordedFailures = 100

// Load reads the file at path. Files ending in .xlsx are read as
// workbooks, anything else as delimited text.
func Load(ctx context.Context, path string, opts Options) (*table.Table, *Report, error) {
	logger := infrastructure.LoggerWithContext(ctx)
	start := time.Now()

	if err := files.ValidateSource(path); err != nil {
		logger.ErrorContext(ctx, "source_rejected",
			slog.String("source", path),
			slog.String("error", err.Error()))
		return nil, nil, err
	}

	var (
		t      *table.Table
		report *Report
		err    error
	)
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		t, report, err = LoadXLSX(ctx, path, opts)
	} else {
		t, report, err = LoadCSV(ctx, path, opts)
	}
	if err != nil {
		logger.ErrorContext(ctx, "load_failed",
			slog.String("source", path),
			slog.String("error", err.Error()))
		return nil, report, err
	}

	report.Source = path
	report.Duration = time.Since(start)
	logger.InfoContext(ctx, "source_loaded",
		slog.String("source", path),
		slog.String("format", report.Format),
		slog.Int("rows", report.Rows),
		slog.Int("columns", report.Columns),
		slog.Int("null_cells", report.NullCells),
		slog.Int("cells_nulled", report.CellsNulled),
		slog.Duration("duration", report.Duration))
	return t, report, nil
}

// FromRecords builds a typed table from a header and raw string rows. Row
// positions become the table's row index. A row with a different field
// count than the header is a ParseError; rows shorter than the header are
// only accepted when padShort is set.
func FromRecords(ctx context.Context, header []string, rows [][]string, opts Options, padShort bool) (*table.Table, *Report, error) {
	report := &Report{Rows: len(rows), Columns: len(header)}

	if len(header) == 0 {
		return nil, report, apperrors.NewParseError(apperrors.NoRow, "missing header row", nil)
	}
	positions := make(map[string]int, len(header))
	for i, name := range header {
		if prev, dup := positions[name]; dup {
			return nil, report, apperrors.NewParseError(apperrors.NoRow,
				fmt.Sprintf("header repeats column %q at positions %d and %d", name, prev, i), nil)
		}
		positions[name] = i
	}

	schema, err := table.NewSchema(opts.Columns...)
	if err != nil {
		return nil, report, apperrors.NewSchemaMismatchError("", err.Error())
	}
	for _, spec := range schema.Specs() {
		if _, ok := positions[spec.Name]; !ok {
			return nil, report, apperrors.NewSchemaMismatchError(spec.Name, "declared column is not in the header")
		}
	}

	for i, row := range rows {
		switch {
		case len(row) == len(header):
		case len(row) < len(header) && padShort:
			padded := make([]string, len(header))
			copy(padded, row)
			rows[i] = padded
		default:
			return nil, report, apperrors.NewParseError(i,
				fmt.Sprintf("expected %d fields, got %d", len(header), len(row)), nil)
		}
	}

	nulls := opts.NullTokens
	if nulls == nil {
		nulls = table.DefaultNullTokens
	}
	isNull := make(map[string]struct{}, len(nulls))
	for _, tok := range nulls {
		isNull[tok] = struct{}{}
	}

	columns := make([]*table.Column, len(header))
	for c, name := range header {
		spec, declared := schema.Lookup(name)
		if !declared {
			spec = table.ColumnSpec{
				Name:     name,
				Type:     inferType(rows, c, isNull, opts.DateLayouts),
				Nullable: true,
			}
			report.Inferred = append(report.Inferred, name)
		}

		values := make([]any, len(rows))
		for r, row := range rows {
			if r%cancelCheckInterval == 0 {
				if err := ctx.Err(); err != nil {
					return nil, report, fmt.Errorf("load cancelled: %w", err)
				}
			}

			raw := row[c]
			if _, null := isNull[raw]; null {
				if !spec.Nullable {
					return nil, report, apperrors.NewTypeCoercionError(r, name, raw, "missing value in a non-nullable column", nil)
				}
				report.NullCells++
				continue
			}

			v, err := table.Parse(raw, spec.Type, opts.DateLayouts)
			if err != nil {
				if !spec.Nullable {
					return nil, report, apperrors.NewTypeCoercionError(r, name, raw,
						fmt.Sprintf("cannot read as %s in a non-nullable column", spec.Type), err)
				}
				if opts.Policy != cleaning.CoerceToNull {
					return nil, report, apperrors.NewTypeCoercionError(r, name, raw,
						fmt.Sprintf("cannot read as %s", spec.Type), err)
				}
				report.CellsNulled++
				report.NullCells++
				if len(report.Failures) < maxRecordedFailures {
					report.Failures = append(report.Failures, cleaning.CellFailure{
						Row: r, Column: name, Value: raw, Reason: err.Error(),
					})
				}
				continue
			}
			values[r] = v
		}

		col, err := table.NewColumn(spec, values)
		if err != nil {
			return nil, report, fmt.Errorf("column %q: %w", name, err)
		}
		columns[c] = col
	}

	t, err := table.New(columns, nil)
	if err != nil {
		return nil, report, err
	}
	return t, report, nil
}
