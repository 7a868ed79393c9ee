// Package table holds the in-memory columnar model shared by the loader,
// the cleaning stages, the analysis queries and the exporters.
//
// # Model
//
// A Table is an ordered list of Columns of equal length plus a row index.
// Each Column carries a ColumnSpec (name, Type, nullability) and its cells.
// Cells are nil for a missing value, or one of int64 (Integer), float64
// (Float), time.Time (Date) or string (String, Categorical).
//
// The row index records the 0-based data-row position a row had in its
// source. Dropping rows keeps the surviving index entries, so reports can
// always point at the original row.
//
// # Immutability
//
// Tables and Columns are never modified after construction. Operations such
// as Take, Drop, WithColumn and Rename return new values that share the
// untouched columns with their source. A failed operation therefore never
// leaves a half-modified table behind.
package table
