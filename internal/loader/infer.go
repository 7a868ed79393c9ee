package loader

import (
	"strconv"
	"strings"

	"tabclean/internal/table"
)

// inferType picks the narrowest type every non-null value of column c can
// take: integer, then float, then date, falling back to string. A column
// with no values at all is a string column.
func inferType(rows [][]string, c int, nulls map[string]struct{}, layouts []string) table.Type {
	isInt, isFloat, isDate := true, true, true
	seen := 0

	for _, row := range rows {
		raw := row[c]
		if _, null := nulls[raw]; null {
			continue
		}
		seen++
		s := strings.TrimSpace(raw)

		if isInt {
			if _, err := strconv.ParseInt(s, 10, 64); err != nil {
				isInt = false
			}
		}
		if isFloat && !isInt {
			if _, err := strconv.ParseFloat(s, 64); err != nil {
				isFloat = false
			}
		}
		if isDate {
			if _, err := table.Parse(s, table.Date, layouts); err != nil {
				isDate = false
			}
		}
		if !isInt && !isFloat && !isDate {
			return table.String
		}
	}

	switch {
	case seen == 0:
		return table.String
	case isInt:
		return table.Integer
	case isFloat:
		return table.Float
	case isDate:
		return table.Date
	default:
		return table.String
	}
}
