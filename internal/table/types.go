package table

import (
	"fmt"
	"strings"
)

// Type is the declared semantic type of a column.
type Type string

const (
	Integer     Type = "integer"
	Float       Type = "float"
	String      Type = "string"
	Date        Type = "date"
	Categorical Type = "categorical"
)

// Types lists every supported column type.
var Types = []Type{Integer, Float, String, Date, Categorical}

// ParseType converts a type name (case-insensitive, with a few aliases) to a Type.
func ParseType(name string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "integer", "int", "int64":
		return Integer, nil
	case "float", "float64", "double", "number":
		return Float, nil
	case "string", "str", "text":
		return String, nil
	case "date", "datetime", "timestamp":
		return Date, nil
	case "categorical", "category":
		return Categorical, nil
	default:
		return "", fmt.Errorf("unknown column type %q", name)
	}
}

// IsNumeric reports whether values of the type are numbers.
func (t Type) IsNumeric() bool {
	return t == Integer || t == Float
}

// IsText reports whether values of the type are strings.
func (t Type) IsText() bool {
	return t == String || t == Categorical
}

// ColumnSpec declares the expected name, type and nullability of a column.
type ColumnSpec struct {
	Name     string `yaml:"name" json:"name" validate:"required"`
	Type     Type   `yaml:"type" json:"type" validate:"required"`
	Nullable bool   `yaml:"nullable" json:"nullable"`
}

// Schema is an ordered registry of column specs with unique names.
type Schema struct {
	specs []ColumnSpec
	index map[string]int
}

// NewSchema validates specs and builds a schema. Names must be unique and
// types known.
func NewSchema(specs ...ColumnSpec) (*Schema, error) {
	s := &Schema{
		specs: make([]ColumnSpec, 0, len(specs)),
		index: make(map[string]int, len(specs)),
	}
	for _, spec := range specs {
		if spec.Name == "" {
			return nil, fmt.Errorf("column spec without a name")
		}
		typ, err := ParseType(string(spec.Type))
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", spec.Name, err)
		}
		if _, dup := s.index[spec.Name]; dup {
			return nil, fmt.Errorf("duplicate column spec %q", spec.Name)
		}
		spec.Type = typ
		s.index[spec.Name] = len(s.specs)
		s.specs = append(s.specs, spec)
	}
	return s, nil
}

// Lookup returns the spec for a column name.
func (s *Schema) Lookup(name string) (ColumnSpec, bool) {
	if s == nil {
		return ColumnSpec{}, false
	}
	i, ok := s.index[name]
	if !ok {
		return ColumnSpec{}, false
	}
	return s.specs[i], true
}

// Specs returns the specs in declaration order.
func (s *Schema) Specs() []ColumnSpec {
	if s == nil {
		return nil
	}
	out := make([]ColumnSpec, len(s.specs))
	copy(out, s.specs)
	return out
}

// Len returns the number of specs.
func (s *Schema) Len() int {
	if s == nil {
		return 0
	}
	return len(s.specs)
}
