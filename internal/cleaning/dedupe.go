package cleaning

import (
	"fmt"

	apperrors "tabclean/internal/errors"
	"tabclean/internal/table"
)

// Keep selects which duplicate survives.
type Keep string

const (
	KeepFirst Keep = "first"
	KeepLast  Keep = "last"
)

// Deduplicate removes rows whose key columns are all equal to an earlier
// (KeepFirst) or later (KeepLast) row. Empty keys compare every column.
// Surviving rows keep their relative order.
func Deduplicate(t *table.Table, keys []string, keep Keep) (*table.Table, int, error) {
	cols := t.Columns()
	if len(keys) > 0 {
		cols = make([]*table.Column, 0, len(keys))
		for _, name := range keys {
			col, err := requireColumn(t, name)
			if err != nil {
				return nil, 0, err
			}
			cols = append(cols, col)
		}
	}

	switch keep {
	case KeepFirst, KeepLast, "":
	default:
		return nil, 0, apperrors.NewInvalidStrategyError("", fmt.Sprintf("unknown keep policy %q", keep))
	}

	n := t.NumRows()
	rowKey := func(i int) string {
		tuple := make([]any, len(cols))
		for j, c := range cols {
			tuple[j] = c.Value(i)
		}
		return table.Key(tuple...)
	}

	// survivor maps each key to the position that is kept.
	survivor := make(map[string]int, n)
	for i := 0; i < n; i++ {
		k := rowKey(i)
		if _, seen := survivor[k]; seen && keep != KeepLast {
			continue
		}
		survivor[k] = i
	}

	keepRows := make([]int, 0, len(survivor))
	for i := 0; i < n; i++ {
		if survivor[rowKey(i)] == i {
			keepRows = append(keepRows, i)
		}
	}

	return t.Take(keepRows), n - len(keepRows), nil
}

// DeduplicateStage wraps Deduplicate.
type DeduplicateStage struct {
	stageBase
	Keys []string
	Keep Keep
}

// NewDeduplicateStage creates a duplicate-removal stage.
func NewDeduplicateStage(name string, keys []string, keep Keep) *DeduplicateStage {
	return &DeduplicateStage{stageBase: stageBase{name: name, kind: KindDeduplicate}, Keys: keys, Keep: keep}
}

// Apply implements Stage.
func (s *DeduplicateStage) Apply(t *table.Table) (*table.Table, ChangeReport, error) {
	report := newReport(KindDeduplicate, t)
	out, removed, err := Deduplicate(t, s.Keys, s.Keep)
	if err != nil {
		return nil, report, err
	}
	report.DuplicatesRemoved = removed
	report.RowsDropped = removed
	report.finish(out)
	return out, report, nil
}
