// Package exporter writes the results of a cleaning run.
//
// CSVWriter streams a table as CSV, optionally prefixed with a UTF-8 BOM.
// WriteText and WriteJSON render a RunReport, WriteWorkbook saves the table
// and report as an XLSX workbook and WriteParquet writes a Parquet file
// whose schema follows the column types. Exporter picks the outputs a
// plan's output section asks for.
package exporter
