package table

import (
	"fmt"
)

// Table is an ordered set of equally long columns plus a row index.
// Tables are never mutated after construction; every operation returns a
// new Table that may share columns with its source.
type Table struct {
	columns []*Column
	byName  map[string]int
	index   []int
	rows    int
}

// New builds a table. A nil index numbers rows from 0. Columns must have
// equal length and unique names; index entries must be unique.
func New(columns []*Column, index []int) (*Table, error) {
	t := &Table{
		columns: make([]*Column, 0, len(columns)),
		byName:  make(map[string]int, len(columns)),
	}

	rows := -1
	for _, col := range columns {
		if col == nil {
			return nil, fmt.Errorf("nil column")
		}
		if _, dup := t.byName[col.Name()]; dup {
			return nil, fmt.Errorf("duplicate column %q", col.Name())
		}
		if rows >= 0 && col.Len() != rows {
			return nil, fmt.Errorf("column %q has %d rows, expected %d", col.Name(), col.Len(), rows)
		}
		rows = col.Len()
		t.byName[col.Name()] = len(t.columns)
		t.columns = append(t.columns, col)
	}

	if index == nil {
		if rows < 0 {
			rows = 0
		}
		index = make([]int, rows)
		for i := range index {
			index[i] = i
		}
	} else {
		if rows >= 0 && len(index) != rows {
			return nil, fmt.Errorf("index has %d entries, expected %d", len(index), rows)
		}
		seen := make(map[int]struct{}, len(index))
		for _, id := range index {
			if _, dup := seen[id]; dup {
				return nil, fmt.Errorf("duplicate row index %d", id)
			}
			seen[id] = struct{}{}
		}
		index = append([]int(nil), index...)
		rows = len(index)
	}

	t.index = index
	t.rows = rows
	return t, nil
}

// MustNew is New that panics on error. Intended for tests and literals.
func MustNew(columns ...*Column) *Table {
	t, err := New(columns, nil)
	if err != nil {
		panic(err)
	}
	return t
}

// NumRows returns the row count.
func (t *Table) NumRows() int { return t.rows }

// NumColumns returns the column count.
func (t *Table) NumColumns() int { return len(t.columns) }

// Columns returns the columns in order.
func (t *Table) Columns() []*Column {
	out := make([]*Column, len(t.columns))
	copy(out, t.columns)
	return out
}

// ColumnNames returns the column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name()
	}
	return names
}

// Column looks a column up by name.
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.byName[name]
	if !ok {
		return nil, false
	}
	return t.columns[i], true
}

// HasColumn reports whether the table has a column with the given name.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.byName[name]
	return ok
}

// Specs returns the column specs in order.
func (t *Table) Specs() []ColumnSpec {
	specs := make([]ColumnSpec, len(t.columns))
	for i, c := range t.columns {
		specs[i] = c.Spec()
	}
	return specs
}

// Index returns a copy of the row index.
func (t *Table) Index() []int {
	return append([]int(nil), t.index...)
}

// RowIndex returns the index entry of the row at position i.
func (t *Table) RowIndex(i int) int { return t.index[i] }

// Row returns the cells of the row at position i, in column order.
func (t *Table) Row(i int) []any {
	row := make([]any, len(t.columns))
	for j, c := range t.columns {
		row[j] = c.values[i]
	}
	return row
}

// Take returns a table holding the rows at the given positions, in the
// given order. Positions must not repeat.
func (t *Table) Take(positions []int) *Table {
	cols := make([]*Column, len(t.columns))
	for j, c := range t.columns {
		cols[j] = c.take(positions)
	}
	index := make([]int, len(positions))
	for i, p := range positions {
		index[i] = t.index[p]
	}
	return &Table{columns: cols, byName: t.byName, index: index, rows: len(positions)}
}

// Select returns a table with only the named columns, in the given order.
func (t *Table) Select(names ...string) (*Table, error) {
	cols := make([]*Column, 0, len(names))
	for _, name := range names {
		col, ok := t.Column(name)
		if !ok {
			return nil, fmt.Errorf("column %q not found", name)
		}
		cols = append(cols, col)
	}
	return New(cols, t.index)
}

// Drop returns a table without the named columns. Unknown names are ignored.
func (t *Table) Drop(names ...string) *Table {
	drop := make(map[string]struct{}, len(names))
	for _, n := range names {
		drop[n] = struct{}{}
	}
	cols := make([]*Column, 0, len(t.columns))
	for _, c := range t.columns {
		if _, ok := drop[c.Name()]; !ok {
			cols = append(cols, c)
		}
	}
	out, _ := New(cols, t.index)
	return out
}

// WithColumn returns a table where col replaces the column of the same name,
// or is appended when no such column exists.
func (t *Table) WithColumn(col *Column) (*Table, error) {
	if col.Len() != t.rows {
		return nil, fmt.Errorf("column %q has %d rows, expected %d", col.Name(), col.Len(), t.rows)
	}
	cols := t.Columns()
	if i, ok := t.byName[col.Name()]; ok {
		cols[i] = col
	} else {
		cols = append(cols, col)
	}
	return New(cols, t.index)
}

// WithIndex returns the same columns under a new row index.
func (t *Table) WithIndex(index []int) (*Table, error) {
	return New(t.columns, index)
}

// Rename returns a table with columns renamed by mapping old to new names.
func (t *Table) Rename(mapping map[string]string) (*Table, error) {
	cols := make([]*Column, len(t.columns))
	for i, c := range t.columns {
		if to, ok := mapping[c.Name()]; ok && to != c.Name() {
			cols[i] = c.Renamed(to)
		} else {
			cols[i] = c
		}
	}
	return New(cols, t.index)
}
