package services

import (
	"time"

	"tabclean/internal/analysis"
	"tabclean/internal/cleaning"
	"tabclean/internal/table"
	api "tabclean/pkg/contracts/api/v1"
)

func columnInfo(specs []table.ColumnSpec) []api.ColumnInfo {
	out := make([]api.ColumnInfo, len(specs))
	for i, s := range specs {
		out[i] = api.ColumnInfo{Name: s.Name, Type: string(s.Type), Nullable: s.Nullable}
	}
	return out
}

// jsonCell keeps numbers and strings as they are and renders dates in the
// same text form the CSV export uses.
func jsonCell(v any) interface{} {
	if d, ok := v.(time.Time); ok {
		return table.FormatDate(d)
	}
	return v
}

// tableResponse renders rows [offset, offset+limit) of t.
func tableResponse(t *table.Table, offset, limit int) *api.TableResponse {
	page := analysis.Page(t, offset, limit)
	rows := make([][]interface{}, page.NumRows())
	for i := range rows {
		raw := page.Row(i)
		row := make([]interface{}, len(raw))
		for j, v := range raw {
			row[j] = jsonCell(v)
		}
		rows[i] = row
	}
	return &api.TableResponse{
		Columns: columnInfo(t.Specs()),
		Index:   page.Index(),
		Rows:    rows,
		Total:   t.NumRows(),
		Offset:  offset,
		Limit:   limit,
	}
}

func missingResponse(rows int, cols []cleaning.MissingColumn) *api.MissingResponse {
	resp := &api.MissingResponse{Rows: rows, Columns: make([]api.MissingColumn, len(cols))}
	for i, c := range cols {
		resp.Columns[i] = api.MissingColumn{Name: c.Name, Type: c.Type, Count: c.Count, Percent: c.Percent}
		resp.Total += c.Count
	}
	return resp
}

func predicates(in []api.PredicateInput) []cleaning.Predicate {
	out := make([]cleaning.Predicate, len(in))
	for i, p := range in {
		out[i] = cleaning.Predicate{
			Column:   p.Column,
			Op:       cleaning.PredicateOp(p.Op),
			Values:   p.Values,
			Min:      p.Min,
			Max:      p.Max,
			KeepNull: p.KeepNull,
		}
	}
	return out
}

func aggregations(in []api.AggregationInput) []analysis.Aggregation {
	out := make([]analysis.Aggregation, len(in))
	for i, a := range in {
		metrics := make([]analysis.Metric, len(a.Metrics))
		for j, m := range a.Metrics {
			metrics[j] = analysis.Metric(m)
		}
		out[i] = analysis.Aggregation{Column: a.Column, Metrics: metrics}
	}
	return out
}
