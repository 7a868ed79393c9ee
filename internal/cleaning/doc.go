// Package cleaning implements the table transformations of a cleaning run:
// missing-value detection, fill and drop, duplicate removal, type coercion,
// outlier clipping, string normalisation, value replacement, row filters
// and derived columns.
//
// Each transformation is available as a plain function returning the new
// table and a ChangeReport, and as a Stage value that the pipeline package
// chains together. Inputs are never modified; on error the caller still
// holds the unchanged input table.
//
// Failures are reported as *errors.DataError values: SchemaMismatch for an
// unknown column, InvalidStrategy for a parameter that does not fit the
// column, and TypeCoercion for a cell that cannot take its declared type.
package cleaning
