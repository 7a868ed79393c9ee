package analysis

import (
	"fmt"

	apperrors "tabclean/internal/errors"
	"tabclean/internal/table"
)

// PivotSpec describes a two-key cross tabulation.
type PivotSpec struct {
	Row    string `json:"row" validate:"required"`
	Column string `json:"column" validate:"required"`
	Value  string `json:"value" validate:"required"`
	Metric Metric `json:"metric" validate:"omitempty,oneof=sum mean count min max std var median nunique"`
}

// Pivot spreads the distinct values of spec.Column into columns, one row
// per distinct value of spec.Row, each cell holding spec.Metric over the
// matching rows of spec.Value. Rows and columns appear in order of first
// occurrence. Rows with a null in either key are skipped and combinations
// without rows are null. The metric defaults to sum.
func Pivot(t *table.Table, spec PivotSpec) (*table.Table, error) {
	rowCol, err := requireColumn(t, spec.Row)
	if err != nil {
		return nil, err
	}
	colCol, err := requireColumn(t, spec.Column)
	if err != nil {
		return nil, err
	}
	valCol, err := requireColumn(t, spec.Value)
	if err != nil {
		return nil, err
	}

	metric := spec.Metric
	if metric == "" {
		metric = MetricSum
	}
	if _, err := ParseMetric(string(metric)); err != nil {
		return nil, apperrors.NewInvalidStrategyError(spec.Value, err.Error())
	}
	if metric.numeric() && !valCol.Type().IsNumeric() {
		return nil, apperrors.NewInvalidStrategyError(spec.Value,
			fmt.Sprintf("%s requires a numeric column, got %s", metric, valCol.Type()))
	}

	rowIndex, colIndex := make(map[string]int), make(map[string]int)
	var rowKeys, colKeys []any
	cells := make(map[[2]int][]int)
	for i := 0; i < t.NumRows(); i++ {
		rv, cv := rowCol.Value(i), colCol.Value(i)
		if rv == nil || cv == nil {
			continue
		}
		r, ok := rowIndex[table.Key(rv)]
		if !ok {
			r = len(rowKeys)
			rowIndex[table.Key(rv)] = r
			rowKeys = append(rowKeys, rv)
		}
		c, ok := colIndex[table.Key(cv)]
		if !ok {
			c = len(colKeys)
			colIndex[table.Key(cv)] = c
			colKeys = append(colKeys, cv)
		}
		cells[[2]int{r, c}] = append(cells[[2]int{r, c}], i)
	}

	keyColumn, err := table.NewColumn(table.ColumnSpec{Name: spec.Row, Type: rowCol.Type()}, rowKeys)
	if err != nil {
		return nil, err
	}
	columns := []*table.Column{keyColumn}
	typ := metric.resultType(valCol.Type())
	for c, ck := range colKeys {
		values := make([]any, len(rowKeys))
		for r := range rowKeys {
			if rows, ok := cells[[2]int{r, c}]; ok {
				values[r] = compute(valCol, rows, metric)
			}
		}
		col, err := table.NewColumn(table.ColumnSpec{Name: table.Format(ck), Type: typ, Nullable: true}, values)
		if err != nil {
			return nil, err
		}
		columns = append(columns, col)
	}

	out, err := table.New(columns, nil)
	if err != nil {
		return nil, apperrors.NewInvalidStrategyError(spec.Column, err.Error())
	}
	return out, nil
}
