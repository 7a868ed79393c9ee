package api

import "time"

// ColumnInfo describes one dataset column.
type ColumnInfo struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
}

// DatasetResponse describes the dataset a session serves.
type DatasetResponse struct {
	Source   string       `json:"source"`
	Plan     string       `json:"plan,omitempty"`
	RunID    string       `json:"run_id,omitempty"`
	Rows     int          `json:"rows"`
	Columns  []ColumnInfo `json:"columns"`
	LoadedAt time.Time    `json:"loaded_at"`
}

// TableResponse is a window of rows. Index holds the source row positions
// and Total the row count before paging.
type TableResponse struct {
	Columns []ColumnInfo    `json:"columns"`
	Index   []int           `json:"index"`
	Rows    [][]interface{} `json:"rows"`
	Total   int             `json:"total"`
	Offset  int             `json:"offset"`
	Limit   int             `json:"limit"`
}

// MissingColumn is the null count of one column.
type MissingColumn struct {
	Name    string  `json:"name"`
	Type    string  `json:"type"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// MissingResponse lists null counts per column, most missing first.
type MissingResponse struct {
	Rows    int             `json:"rows"`
	Total   int             `json:"total"`
	Columns []MissingColumn `json:"columns"`
}

// ColumnStats holds descriptive statistics of a numeric column.
type ColumnStats struct {
	Column string   `json:"column"`
	Count  int      `json:"count"`
	Mean   *float64 `json:"mean"`
	Std    *float64 `json:"std"`
	Min    *float64 `json:"min"`
	Q1     *float64 `json:"25%"`
	Median *float64 `json:"50%"`
	Q3     *float64 `json:"75%"`
	Max    *float64 `json:"max"`
}

// DescribeResponse summarises every numeric column.
type DescribeResponse struct {
	Columns []ColumnStats `json:"columns"`
}

// ValueCount is one distinct value and its frequency.
type ValueCount struct {
	Value   interface{} `json:"value"`
	Count   int         `json:"count"`
	Percent float64     `json:"percent"`
}

// ValueCountsResponse lists the most frequent values of a column.
type ValueCountsResponse struct {
	Column string       `json:"column"`
	Unique int          `json:"unique"`
	Values []ValueCount `json:"values"`
}

// CorrelatedPair is two columns and their Pearson coefficient.
type CorrelatedPair struct {
	A string  `json:"a"`
	B string  `json:"b"`
	R float64 `json:"r"`
}

// CorrelationsResponse holds the correlation matrix of the numeric columns
// and the pairs above Threshold.
type CorrelationsResponse struct {
	Columns   []string         `json:"columns"`
	Values    [][]*float64     `json:"values"`
	Threshold float64          `json:"threshold"`
	Strong    []CorrelatedPair `json:"strong"`
}
