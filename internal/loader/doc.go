// Package loader reads CSV files and XLSX worksheets into typed tables.
//
// The first record is the header. Raw strings that exactly match a null
// token become missing values. Columns with a declared ColumnSpec are
// parsed to that type; the rest have their type inferred from the values
// present. A value that cannot take its type is either a TypeCoercionError
// or, under the coerce-to-null policy, a missing value recorded on the load
// Report.
package loader
