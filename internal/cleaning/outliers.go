package cleaning

import (
	"fmt"
	"math"

	apperrors "tabclean/internal/errors"
	"tabclean/internal/stats"
	"tabclean/internal/table"
)

// ClipMethod selects how outlier fences are computed.
type ClipMethod string

const (
	ClipIQR    ClipMethod = "iqr"
	ClipZScore ClipMethod = "zscore"
)

const (
	// DefaultIQRFactor is the k in Q1 - k*IQR, Q3 + k*IQR.
	DefaultIQRFactor = 1.5
	// DefaultZScoreFactor is the k in mean +/- k*std.
	DefaultZScoreFactor = 3.0
)

// ClipOptions configure ClipOutliers. A nil K selects the method default;
// K = 0 clamps to [Q1, Q3] (iqr) or to the mean (zscore).
type ClipOptions struct {
	Method ClipMethod `yaml:"method" json:"method" validate:"omitempty,oneof=iqr zscore"`
	K      *float64   `yaml:"k" json:"k,omitempty" validate:"omitempty,gte=0"`
}

// ClipOutliers clamps the values of a numeric column to outlier fences.
// Rows are never dropped. Integer columns clamp to the nearest integers
// inside the fences; when no integer lies between them, the fences are
// rounded to the nearest integers instead.
func ClipOutliers(t *table.Table, column string, opts ClipOptions) (*table.Table, ChangeReport, error) {
	report := newReport(KindClipOutliers, t)

	col, err := requireNumeric(t, column, "outlier clipping")
	if err != nil {
		return nil, report, err
	}

	if opts.K != nil && (*opts.K < 0 || math.IsNaN(*opts.K)) {
		return nil, report, apperrors.NewInvalidStrategyError(column, fmt.Sprintf("clip factor k must be >= 0, got %g", *opts.K))
	}
	var fences stats.Fences
	switch opts.Method {
	case ClipIQR, "":
		fences = stats.IQRFences(col.Floats(), clipFactor(opts.K, DefaultIQRFactor))
	case ClipZScore:
		fences = stats.ZScoreFences(col.Floats(), clipFactor(opts.K, DefaultZScoreFactor))
	default:
		return nil, report, apperrors.NewInvalidStrategyError(column, fmt.Sprintf("unknown clip method %q", opts.Method))
	}

	if len(col.Floats()) == 0 {
		report.finish(t)
		return t, report, nil
	}

	if col.Type() == table.Integer {
		fences = integerFences(fences)
	}

	values := col.Values()
	changed := 0
	for i, v := range values {
		f, ok := table.ToFloat(v)
		if !ok || fences.Contains(f) {
			continue
		}
		clamped := fences.Clamp(f)
		if col.Type() == table.Integer {
			values[i] = int64(clamped)
		} else {
			values[i] = clamped
		}
		changed++
	}

	report.Notes = append(report.Notes, fmt.Sprintf("%s fences [%g, %g]", column, fences.Lower, fences.Upper))
	if changed == 0 {
		report.finish(t)
		return t, report, nil
	}

	clipped, err := col.WithValues(values)
	if err != nil {
		return nil, report, err
	}
	out, err := t.WithColumn(clipped)
	if err != nil {
		return nil, report, err
	}
	report.CellsChanged = changed
	report.addColumn(column, changed)
	report.finish(out)
	return out, report, nil
}

func clipFactor(k *float64, def float64) float64 {
	if k == nil {
		return def
	}
	return *k
}

// integerFences narrows fences to the integers inside them. Fences closer
// than one integer apart have none inside and are rounded instead, which
// keeps Lower <= Upper.
func integerFences(f stats.Fences) stats.Fences {
	lower, upper := math.Ceil(f.Lower), math.Floor(f.Upper)
	if lower > upper {
		return stats.Fences{Lower: math.Round(f.Lower), Upper: math.Round(f.Upper)}
	}
	return stats.Fences{Lower: lower, Upper: upper}
}

// ClipOutliersStage wraps ClipOutliers for one or more columns.
type ClipOutliersStage struct {
	stageBase
	Columns []string
	Options ClipOptions
}

// NewClipOutliersStage creates an outlier-clip stage.
func NewClipOutliersStage(name string, columns []string, opts ClipOptions) *ClipOutliersStage {
	return &ClipOutliersStage{stageBase: stageBase{name: name, kind: KindClipOutliers}, Columns: columns, Options: opts}
}

// Apply implements Stage.
func (s *ClipOutliersStage) Apply(t *table.Table) (*table.Table, ChangeReport, error) {
	report := newReport(KindClipOutliers, t)
	out := t
	for _, column := range s.Columns {
		next, r, err := ClipOutliers(out, column, s.Options)
		if err != nil {
			return nil, report, err
		}
		out = next
		report.CellsChanged += r.CellsChanged
		report.addColumn(column, r.CellsChanged)
		report.Notes = append(report.Notes, r.Notes...)
	}
	report.finish(out)
	return out, report, nil
}
