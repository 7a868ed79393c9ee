// Package analysis holds the read-only queries run over a cleaned table:
// grouping and aggregation, sorting and paging, descriptive statistics,
// value counts, correlations and pivots. No function modifies its input;
// results are new tables or plain values.
package analysis
