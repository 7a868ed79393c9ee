package table

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Cell values are held as one of: nil (null), int64, float64, string or
// time.Time. Integer columns hold int64, Float columns float64, Date columns
// time.Time and text columns string.

const (
	// DateLayout is the default layout for date columns.
	DateLayout = "2006-01-02"
	// DateTimeLayout is used when formatting dates that carry a time of day.
	DateTimeLayout = "2006-01-02 15:04:05"
)

// DefaultDateLayouts are tried in order when no explicit layout is configured.
var DefaultDateLayouts = []string{
	DateLayout,
	DateTimeLayout,
	"2006-01-02 15:04",
	"2006-01-02T15:04:05Z07:00",
	"1/2/2006 15:04",
	"1/2/2006",
	"01/02/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2-Jan-06",
}

// DefaultNullTokens are raw strings treated as missing on load.
var DefaultNullTokens = []string{"", "NA", "N/A", "NaN", "nan", "null", "NULL", "None"}

// IsNull reports whether v is a missing value. NaN floats count as missing.
func IsNull(v any) bool {
	if v == nil {
		return true
	}
	if f, ok := v.(float64); ok && math.IsNaN(f) {
		return true
	}
	return false
}

// ToFloat converts a numeric cell to float64.
func ToFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case float64:
		if math.IsNaN(x) {
			return 0, false
		}
		return x, true
	default:
		return 0, false
	}
}

// Format renders a cell as text. Nulls render as the empty string.
func Format(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		if math.IsNaN(x) {
			return ""
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case string:
		return x
	case time.Time:
		return FormatDate(x)
	default:
		return fmt.Sprint(x)
	}
}

// FormatDate renders a date without a time part when the time is midnight.
func FormatDate(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format(DateLayout)
	}
	return t.Format(DateTimeLayout)
}

// Equal compares two cells. Two nulls are equal; numbers compare by value
// across int64 and float64.
func Equal(a, b any) bool {
	an, bn := IsNull(a), IsNull(b)
	if an || bn {
		return an && bn
	}
	if af, ok := ToFloat(a); ok {
		bf, ok := ToFloat(b)
		return ok && af == bf
	}
	switch x := a.(type) {
	case string:
		y, ok := b.(string)
		return ok && x == y
	case time.Time:
		y, ok := b.(time.Time)
		return ok && x.Equal(y)
	}
	return false
}

// Compare orders two cells: nulls sort after every value, numbers by value,
// dates chronologically and everything else by its text form.
func Compare(a, b any) int {
	an, bn := IsNull(a), IsNull(b)
	switch {
	case an && bn:
		return 0
	case an:
		return 1
	case bn:
		return -1
	}
	if af, ok := ToFloat(a); ok {
		if bf, ok := ToFloat(b); ok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			}
			return 0
		}
	}
	if at, ok := a.(time.Time); ok {
		if bt, ok := b.(time.Time); ok {
			return at.Compare(bt)
		}
	}
	return strings.Compare(Format(a), Format(b))
}

// Key builds a comparable key for a tuple of cells. Cells that are Equal
// produce the same key. Each cell is written as a tag, its length and its
// text, so distinct tuples never share a key.
func Key(values ...any) string {
	var b strings.Builder
	for _, v := range values {
		tag, text := keyPart(v)
		b.WriteByte(tag)
		b.WriteString(strconv.Itoa(len(text)))
		b.WriteByte(':')
		b.WriteString(text)
	}
	return b.String()
}

func keyPart(v any) (byte, string) {
	switch x := v.(type) {
	case nil:
		return 'z', ""
	case int64:
		return 'n', strconv.FormatInt(x, 10)
	case float64:
		if math.IsNaN(x) {
			return 'z', ""
		}
		if x == math.Trunc(x) && math.Abs(x) < 1<<53 {
			return 'n', strconv.FormatInt(int64(x), 10)
		}
		return 'n', strconv.FormatFloat(x, 'g', -1, 64)
	case time.Time:
		return 't', x.UTC().Format(time.RFC3339Nano)
	default:
		return 's', Format(x)
	}
}

// Parse converts raw text into a value of the given type. Date values are
// parsed with the given layouts, or DefaultDateLayouts when none are given.
func Parse(raw string, typ Type, layouts []string) (any, error) {
	switch typ {
	case Integer:
		s := strings.TrimSpace(raw)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("not an integer")
		}
		return floatToInt(f)
	case Float:
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("not a number")
		}
		return f, nil
	case Date:
		return parseDate(strings.TrimSpace(raw), layouts)
	case String, Categorical:
		return raw, nil
	default:
		return nil, fmt.Errorf("unknown column type %q", typ)
	}
}

// Convert changes the type of an already typed cell. Nulls stay null.
func Convert(v any, typ Type, layouts []string) (any, error) {
	v = Normalize(v)
	if IsNull(v) {
		return nil, nil
	}
	switch typ {
	case Integer:
		switch x := v.(type) {
		case int64:
			return x, nil
		case float64:
			return floatToInt(x)
		case time.Time:
			return nil, fmt.Errorf("date cannot become an integer")
		}
	case Float:
		switch x := v.(type) {
		case int64:
			return float64(x), nil
		case float64:
			return x, nil
		case time.Time:
			return nil, fmt.Errorf("date cannot become a number")
		}
	case Date:
		if t, ok := v.(time.Time); ok {
			return t, nil
		}
		if _, ok := v.(string); !ok {
			return nil, fmt.Errorf("number cannot become a date")
		}
	case String, Categorical:
		return Format(v), nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("cannot convert %T to %s", v, typ)
	}
	return Parse(s, typ, layouts)
}

// Normalize maps Go scalar types produced by decoders (int, float32, ...)
// onto the cell representation.
func Normalize(v any) any {
	switch x := v.(type) {
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		return int64(x)
	case float32:
		return float64(x)
	case bool:
		if x {
			return int64(1)
		}
		return int64(0)
	case *time.Time:
		if x == nil {
			return nil
		}
		return *x
	}
	return v
}

func floatToInt(f float64) (any, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return nil, fmt.Errorf("not an integer")
	}
	if f > math.MaxInt64 || f < math.MinInt64 {
		return nil, fmt.Errorf("integer out of range")
	}
	return int64(f), nil
}

func parseDate(s string, layouts []string) (any, error) {
	if len(layouts) == 0 {
		layouts = DefaultDateLayouts
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return nil, fmt.Errorf("does not match date layout %q", layouts[0])
}

// checkValue reports whether v is a valid cell for a column of type typ.
func checkValue(v any, typ Type) bool {
	if IsNull(v) {
		return true
	}
	switch typ {
	case Integer:
		_, ok := v.(int64)
		return ok
	case Float:
		_, ok := v.(float64)
		return ok
	case Date:
		_, ok := v.(time.Time)
		return ok
	default:
		_, ok := v.(string)
		return ok
	}
}
