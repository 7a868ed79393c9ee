package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"

	"tabclean/internal/table"
)

// Plan describes one cleaning run: where the data comes from, how columns
// are typed, which stages run in which order and where results go.
type Plan struct {
	Name    string             `yaml:"name" json:"name"`
	Source  SourceConfig       `yaml:"source" json:"source"`
	Columns []table.ColumnSpec `yaml:"columns,omitempty" json:"columns,omitempty" validate:"dive"`
	Stages  []StageConfig      `yaml:"stages" json:"stages" validate:"dive"`
	Output  OutputConfig       `yaml:"output" json:"output"`
}

// SourceConfig describes the input file.
type SourceConfig struct {
	Path        string   `yaml:"path" json:"path" validate:"required"`
	Delimiter   string   `yaml:"delimiter,omitempty" json:"delimiter,omitempty" validate:"omitempty,len=1"`
	Sheet       string   `yaml:"sheet,omitempty" json:"sheet,omitempty"`
	NullTokens  []string `yaml:"null_tokens,omitempty" json:"null_tokens,omitempty"`
	DateLayouts []string `yaml:"date_layouts,omitempty" json:"date_layouts,omitempty"`
	Policy      string   `yaml:"policy,omitempty" json:"policy,omitempty" validate:"omitempty,oneof=fail-fast coerce-to-null"`
}

// StageConfig is one entry of the stage list. Params are decoded by the
// stage registry according to Kind.
type StageConfig struct {
	Name   string                 `yaml:"name,omitempty" json:"name,omitempty"`
	Kind   string                 `yaml:"kind" json:"kind" validate:"required"`
	Params map[string]interface{} `yaml:"params,omitempty" json:"params,omitempty"`
}

// ID is the name overrides and reports use for the stage.
func (s StageConfig) ID() string {
	if s.Name != "" {
		return s.Name
	}
	return s.Kind
}

// OutputConfig lists the files a run writes. Empty paths are skipped,
// except CSV and Report which default to names derived from the source.
type OutputConfig struct {
	CSV        string `yaml:"csv,omitempty" json:"csv,omitempty"`
	Report     string `yaml:"report,omitempty" json:"report,omitempty"`
	JSONReport string `yaml:"json_report,omitempty" json:"json_report,omitempty"`
	XLSX       string `yaml:"xlsx,omitempty" json:"xlsx,omitempty"`
	Parquet    string `yaml:"parquet,omitempty" json:"parquet,omitempty"`
	WriteBOM   bool   `yaml:"write_bom,omitempty" json:"write_bom,omitempty"`
}

// LoadPlan reads and validates a YAML plan file.
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan %s: %w", path, err)
	}
	plan, err := ParsePlan(data)
	if err != nil {
		return nil, fmt.Errorf("plan %s: %w", path, err)
	}
	return plan, nil
}

// ParsePlan decodes and validates a YAML plan. Unknown fields are rejected.
func ParsePlan(data []byte) (*Plan, error) {
	var plan Plan
	if err := yaml.UnmarshalStrict(data, &plan); err != nil {
		return nil, fmt.Errorf("failed to parse plan: %w", err)
	}
	for i := range plan.Stages {
		if plan.Stages[i].Params != nil {
			plan.Stages[i].Params = normalizeMap(plan.Stages[i].Params)
		}
	}
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	return &plan, nil
}

// Validate checks struct tags and that stage ids are unique and dot-free.
func (p *Plan) Validate() error {
	if err := validator.New().Struct(p); err != nil {
		return fmt.Errorf("invalid plan: %w", err)
	}
	seen := make(map[string]int, len(p.Stages))
	for i, s := range p.Stages {
		id := s.ID()
		if strings.Contains(id, ".") {
			return fmt.Errorf("invalid plan: stage %d: id %q must not contain '.'", i, id)
		}
		if prev, dup := seen[id]; dup {
			return fmt.Errorf("invalid plan: stages %d and %d share the id %q, give them distinct names", prev, i, id)
		}
		seen[id] = i
	}
	return nil
}

// ApplyDefaults fills source options the plan leaves empty.
func (p *Plan) ApplyDefaults(cfg PipelineConfig) {
	if p.Source.Delimiter == "" {
		p.Source.Delimiter = cfg.Delimiter
	}
	if p.Source.Policy == "" {
		p.Source.Policy = cfg.Policy
	}
	if len(p.Source.NullTokens) == 0 {
		p.Source.NullTokens = cfg.NullTokens
	}
	if len(p.Source.DateLayouts) == 0 {
		p.Source.DateLayouts = cfg.DateLayouts
	}
	if cfg.WriteBOM {
		p.Output.WriteBOM = true
	}
}

// ApplyOverrides sets stage parameters from "stage.param=value" strings.
// The param may be a dotted path into nested maps
// (fill.strategies.Age.method=median). Values are decoded as YAML scalars
// or flow collections, so "0" is a number and "[a, b]" a list.
func (p *Plan) ApplyOverrides(overrides []string) error {
	for _, o := range overrides {
		o = strings.TrimSpace(o)
		if o == "" {
			continue
		}
		key, raw, ok := strings.Cut(o, "=")
		if !ok {
			return fmt.Errorf("override %q: expected stage.param=value", o)
		}
		path := strings.Split(strings.TrimSpace(key), ".")
		if len(path) < 2 {
			return fmt.Errorf("override %q: expected stage.param=value", o)
		}

		stage, err := p.findStage(path[0])
		if err != nil {
			return fmt.Errorf("override %q: %w", o, err)
		}
		if stage.Params == nil {
			stage.Params = make(map[string]interface{})
		}
		if err := setPath(stage.Params, path[1:], parseOverrideValue(raw)); err != nil {
			return fmt.Errorf("override %q: %w", o, err)
		}
	}
	return p.Validate()
}

func (p *Plan) findStage(id string) (*StageConfig, error) {
	for i := range p.Stages {
		if p.Stages[i].ID() == id {
			return &p.Stages[i], nil
		}
	}
	return nil, fmt.Errorf("no stage named %q", id)
}

func parseOverrideValue(raw string) interface{} {
	raw = strings.TrimSpace(raw)
	var v interface{}
	if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	return normalize(v)
}

func setPath(m map[string]interface{}, path []string, value interface{}) error {
	cur := m
	for i, key := range path {
		if key == "" {
			return fmt.Errorf("empty path segment")
		}
		if i == len(path)-1 {
			cur[key] = value
			return nil
		}
		switch next := cur[key].(type) {
		case map[string]interface{}:
			cur = next
		case nil:
			child := make(map[string]interface{})
			cur[key] = child
			cur = child
		default:
			return fmt.Errorf("%s is not a mapping", strings.Join(path[:i+1], "."))
		}
	}
	return nil
}

// normalize converts yaml.v2 generic maps into string-keyed maps so params
// can be walked, overridden and encoded as JSON.
func normalize(v interface{}) interface{} {
	switch x := v.(type) {
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(x))
		for k, val := range x {
			m[fmt.Sprint(k)] = normalize(val)
		}
		return m
	case map[string]interface{}:
		return normalizeMap(x)
	case []interface{}:
		out := make([]interface{}, len(x))
		for i, val := range x {
			out[i] = normalize(val)
		}
		return out
	default:
		return v
	}
}

func normalizeMap(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = normalize(v)
	}
	return out
}
