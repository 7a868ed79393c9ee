package cleaning

import (
	"fmt"

	apperrors "tabclean/internal/errors"
	"tabclean/internal/table"
)

// PredicateOp is a row filter comparison.
type PredicateOp string

const (
	OpIn      PredicateOp = "in"
	OpNotIn   PredicateOp = "not-in"
	OpEquals  PredicateOp = "equals"
	OpBetween PredicateOp = "between"
	OpNotNull PredicateOp = "not-null"
)

// Predicate keeps rows whose column value satisfies Op. KeepNull keeps rows
// where the value is null regardless of Op (the "or is missing" case).
type Predicate struct {
	Column   string      `yaml:"column" json:"column" validate:"required"`
	Op       PredicateOp `yaml:"op" json:"op" validate:"required,oneof=in not-in equals between not-null"`
	Values   []any       `yaml:"values,omitempty" json:"values,omitempty"`
	Min      any         `yaml:"min,omitempty" json:"min,omitempty"`
	Max      any         `yaml:"max,omitempty" json:"max,omitempty"`
	KeepNull bool        `yaml:"keep_null,omitempty" json:"keep_null,omitempty"`
}

type compiledPredicate struct {
	col      *table.Column
	op       PredicateOp
	set      map[string]struct{}
	min, max any
	keepNull bool
}

func compilePredicate(t *table.Table, p Predicate) (*compiledPredicate, error) {
	col, err := requireColumn(t, p.Column)
	if err != nil {
		return nil, err
	}
	cp := &compiledPredicate{col: col, op: p.Op, keepNull: p.KeepNull}

	convert := func(v any) (any, error) {
		c, err := table.Convert(v, col.Type(), nil)
		if err != nil {
			return nil, apperrors.NewInvalidStrategyError(p.Column,
				fmt.Sprintf("filter value %v does not fit a %s column", v, col.Type()))
		}
		return c, nil
	}

	switch p.Op {
	case OpIn, OpNotIn, OpEquals:
		values := p.Values
		if p.Op == OpEquals && len(values) != 1 {
			return nil, apperrors.NewInvalidStrategyError(p.Column, "equals takes exactly one value")
		}
		cp.set = make(map[string]struct{}, len(values))
		for _, v := range values {
			c, err := convert(v)
			if err != nil {
				return nil, err
			}
			cp.set[table.Key(c)] = struct{}{}
		}
	case OpBetween:
		if p.Min == nil && p.Max == nil {
			return nil, apperrors.NewInvalidStrategyError(p.Column, "between needs min or max")
		}
		if p.Min != nil {
			if cp.min, err = convert(p.Min); err != nil {
				return nil, err
			}
		}
		if p.Max != nil {
			if cp.max, err = convert(p.Max); err != nil {
				return nil, err
			}
		}
	case OpNotNull:
	default:
		return nil, apperrors.NewInvalidStrategyError(p.Column, fmt.Sprintf("unknown filter operation %q", p.Op))
	}
	return cp, nil
}

func (p *compiledPredicate) match(i int) bool {
	v := p.col.Value(i)
	if v == nil {
		return p.keepNull
	}
	switch p.op {
	case OpIn, OpEquals:
		_, ok := p.set[table.Key(v)]
		return ok
	case OpNotIn:
		_, ok := p.set[table.Key(v)]
		return !ok
	case OpBetween:
		if p.min != nil && table.Compare(v, p.min) < 0 {
			return false
		}
		if p.max != nil && table.Compare(v, p.max) > 0 {
			return false
		}
		return true
	case OpNotNull:
		return true
	}
	return false
}

// FilterRows keeps the rows that satisfy every predicate.
func FilterRows(t *table.Table, predicates []Predicate) (*table.Table, ChangeReport, error) {
	report := newReport(KindFilterRows, t)

	compiled := make([]*compiledPredicate, 0, len(predicates))
	for _, p := range predicates {
		cp, err := compilePredicate(t, p)
		if err != nil {
			return nil, report, err
		}
		compiled = append(compiled, cp)
	}

	keep := make([]int, 0, t.NumRows())
rows:
	for i := 0; i < t.NumRows(); i++ {
		for _, p := range compiled {
			if !p.match(i) {
				continue rows
			}
		}
		keep = append(keep, i)
	}

	out := t.Take(keep)
	report.RowsDropped = t.NumRows() - len(keep)
	report.finish(out)
	return out, report, nil
}

// FilterRowsStage wraps FilterRows.
type FilterRowsStage struct {
	stageBase
	Predicates []Predicate
}

// NewFilterRowsStage creates a row filter stage.
func NewFilterRowsStage(name string, predicates []Predicate) *FilterRowsStage {
	return &FilterRowsStage{stageBase: stageBase{name: name, kind: KindFilterRows}, Predicates: predicates}
}

// Apply implements Stage.
func (s *FilterRowsStage) Apply(t *table.Table) (*table.Table, ChangeReport, error) {
	return FilterRows(t, s.Predicates)
}
