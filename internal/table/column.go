package table

import (
	"fmt"
)

// Column is an immutable, typed sequence of cells.
type Column struct {
	spec   ColumnSpec
	values []any
}

// NewColumn builds a column after checking that every value matches the
// declared type. The values slice is copied.
func NewColumn(spec ColumnSpec, values []any) (*Column, error) {
	for i, v := range values {
		if !checkValue(v, spec.Type) {
			return nil, fmt.Errorf("column %q position %d: %T is not a valid %s value", spec.Name, i, v, spec.Type)
		}
	}
	cp := make([]any, len(values))
	copy(cp, values)
	for i, v := range cp {
		if IsNull(v) {
			cp[i] = nil
		}
	}
	return &Column{spec: spec, values: cp}, nil
}

// MustColumn is NewColumn that panics on error. Intended for tests and literals.
func MustColumn(name string, typ Type, values ...any) *Column {
	col, err := NewColumn(ColumnSpec{Name: name, Type: typ, Nullable: true}, values)
	if err != nil {
		panic(err)
	}
	return col
}

// Name returns the column name.
func (c *Column) Name() string { return c.spec.Name }

// Type returns the declared type.
func (c *Column) Type() Type { return c.spec.Type }

// Spec returns the column spec.
func (c *Column) Spec() ColumnSpec { return c.spec }

// Len returns the number of cells.
func (c *Column) Len() int { return len(c.values) }

// Value returns the cell at position i.
func (c *Column) Value(i int) any { return c.values[i] }

// IsNull reports whether the cell at position i is missing.
func (c *Column) IsNull(i int) bool { return c.values[i] == nil }

// Values returns a copy of the cells.
func (c *Column) Values() []any {
	out := make([]any, len(c.values))
	copy(out, c.values)
	return out
}

// NullCount returns the number of missing cells.
func (c *Column) NullCount() int {
	n := 0
	for _, v := range c.values {
		if v == nil {
			n++
		}
	}
	return n
}

// Floats returns the non-null numeric cells as float64 in order.
func (c *Column) Floats() []float64 {
	out := make([]float64, 0, len(c.values))
	for _, v := range c.values {
		if f, ok := ToFloat(v); ok {
			out = append(out, f)
		}
	}
	return out
}

// WithValues returns a new column with the same spec and the given cells.
func (c *Column) WithValues(values []any) (*Column, error) {
	return NewColumn(c.spec, values)
}

// Renamed returns a copy of the column under a new name.
func (c *Column) Renamed(name string) *Column {
	spec := c.spec
	spec.Name = name
	return &Column{spec: spec, values: c.values}
}

// take builds a column from the cells at the given positions.
func (c *Column) take(positions []int) *Column {
	values := make([]any, len(positions))
	for i, p := range positions {
		values[i] = c.values[p]
	}
	return &Column{spec: c.spec, values: values}
}
