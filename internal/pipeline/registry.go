package pipeline

import (
	"fmt"
	"sort"
	"sync"

	"tabclean/internal/cleaning"
	"tabclean/internal/config"
	apperrors "tabclean/internal/errors"
	"tabclean/internal/table"
)

// BuildContext is the plan-level information factories may need besides
// the stage's own params.
type BuildContext struct {
	Columns     []table.ColumnSpec
	DateLayouts []string
	Policy      cleaning.CoercionPolicy
}

// Factory builds a stage from its configuration.
type Factory func(cfg config.StageConfig, bc BuildContext) (cleaning.Stage, error)

// Registry maps stage kinds to factories
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// DefaultRegistry returns a registry with every built-in stage kind.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	builtins := map[cleaning.Kind]Factory{
		cleaning.KindFillMissing:      newFillStage,
		cleaning.KindDropMissing:      newDropStage,
		cleaning.KindDeduplicate:      newDedupeStage,
		cleaning.KindCoerceTypes:      newCoerceStage,
		cleaning.KindClipOutliers:     newClipStage,
		cleaning.KindNormalizeStrings: newNormalizeStage,
		cleaning.KindReplaceValues:    newReplaceStage,
		cleaning.KindFilterRows:       newFilterStage,
		cleaning.KindDeriveDateParts:  newDatePartsStage,
		cleaning.KindDeriveProduct:    newProductStage,
		cleaning.KindRenameColumns:    newRenameStage,
		cleaning.KindSplitExplode:     newExplodeStage,
	}
	for kind, f := range builtins {
		// Kinds are unique map keys, registration cannot fail.
		_ = r.Register(string(kind), f)
	}
	return r
}

// Register adds a factory for kind
func (r *Registry) Register(kind string, f Factory) error {
	if kind == "" {
		return fmt.Errorf("stage kind cannot be empty")
	}
	if f == nil {
		return fmt.Errorf("cannot register nil factory for %s", kind)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[kind]; exists {
		return fmt.Errorf("stage kind %s already registered", kind)
	}
	r.factories[kind] = f
	return nil
}

// Has checks if a kind is registered
func (r *Registry) Has(kind string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[kind]
	return ok
}

// Kinds returns the registered kinds in sorted order
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]string, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Build creates the stage described by cfg
func (r *Registry) Build(cfg config.StageConfig, bc BuildContext) (cleaning.Stage, error) {
	r.mu.RLock()
	f, ok := r.factories[cfg.Kind]
	r.mu.RUnlock()

	if !ok {
		de := apperrors.NewInvalidStrategyError("", fmt.Sprintf("unknown stage kind %q", cfg.Kind))
		return nil, de.InStage(cfg.ID())
	}
	return f(cfg, bc)
}

func newFillStage(cfg config.StageConfig, _ BuildContext) (cleaning.Stage, error) {
	var p FillParams
	if err := decodeParams(cfg.ID(), cfg.Params, &p); err != nil {
		return nil, err
	}
	return cleaning.NewFillMissingStage(cfg.Name, p.Strategies), nil
}

func newDropStage(cfg config.StageConfig, _ BuildContext) (cleaning.Stage, error) {
	var p DropParams
	if err := decodeParams(cfg.ID(), cfg.Params, &p); err != nil {
		return nil, err
	}
	if p.Axis == "" {
		p.Axis = cleaning.AxisRows
	}
	return cleaning.NewDropMissingStage(cfg.Name, p.DropOptions), nil
}

func newDedupeStage(cfg config.StageConfig, _ BuildContext) (cleaning.Stage, error) {
	var p DedupeParams
	if err := decodeParams(cfg.ID(), cfg.Params, &p); err != nil {
		return nil, err
	}
	if p.Keep == "" {
		p.Keep = cleaning.KeepFirst
	}
	return cleaning.NewDeduplicateStage(cfg.Name, p.Keys, p.Keep), nil
}

func newCoerceStage(cfg config.StageConfig, bc BuildContext) (cleaning.Stage, error) {
	var p CoerceParams
	if err := decodeParams(cfg.ID(), cfg.Params, &p); err != nil {
		return nil, err
	}

	specs := p.Columns
	if len(specs) == 0 {
		specs = bc.Columns
	}
	if len(specs) == 0 {
		de := apperrors.NewInvalidStrategyError("", "no column types to coerce to")
		return nil, de.InStage(cfg.ID())
	}

	policy := bc.Policy
	if p.Policy != "" {
		policy = cleaning.CoercionPolicy(p.Policy)
	}
	layouts := p.DateLayouts
	if len(layouts) == 0 {
		layouts = bc.DateLayouts
	}
	return cleaning.NewCoerceTypesStage(cfg.Name, specs, cleaning.CoerceOptions{
		DateLayouts: layouts,
		Policy:      policy,
	}), nil
}

func newClipStage(cfg config.StageConfig, _ BuildContext) (cleaning.Stage, error) {
	var p ClipParams
	if err := decodeParams(cfg.ID(), cfg.Params, &p); err != nil {
		return nil, err
	}
	if p.Method == "" {
		p.Method = cleaning.ClipIQR
	}
	return cleaning.NewClipOutliersStage(cfg.Name, p.Columns, cleaning.ClipOptions{Method: p.Method, K: p.K}), nil
}

func newNormalizeStage(cfg config.StageConfig, _ BuildContext) (cleaning.Stage, error) {
	var p NormalizeParams
	if err := decodeParams(cfg.ID(), cfg.Params, &p); err != nil {
		return nil, err
	}
	return cleaning.NewNormalizeStringsStage(cfg.Name, p.Columns, p.Ops), nil
}

func newReplaceStage(cfg config.StageConfig, _ BuildContext) (cleaning.Stage, error) {
	var p ReplaceParams
	if err := decodeParams(cfg.ID(), cfg.Params, &p); err != nil {
		return nil, err
	}
	return cleaning.NewReplaceValuesStage(cfg.Name, p.Column, p.Mapping), nil
}

func newFilterStage(cfg config.StageConfig, _ BuildContext) (cleaning.Stage, error) {
	var p FilterParams
	if err := decodeParams(cfg.ID(), cfg.Params, &p); err != nil {
		return nil, err
	}
	return cleaning.NewFilterRowsStage(cfg.Name, p.Predicates), nil
}

func newDatePartsStage(cfg config.StageConfig, _ BuildContext) (cleaning.Stage, error) {
	var p DatePartsParams
	if err := decodeParams(cfg.ID(), cfg.Params, &p); err != nil {
		return nil, err
	}
	parts := p.Parts
	if len(parts) == 0 {
		parts = cleaning.AllDateParts
	}
	return cleaning.NewDeriveDatePartsStage(cfg.Name, p.Column, p.Prefix, parts), nil
}

func newProductStage(cfg config.StageConfig, _ BuildContext) (cleaning.Stage, error) {
	var p ProductParams
	if err := decodeParams(cfg.ID(), cfg.Params, &p); err != nil {
		return nil, err
	}
	return cleaning.NewDeriveProductStage(cfg.Name, p.Output, p.Left, p.Right), nil
}

func newRenameStage(cfg config.StageConfig, _ BuildContext) (cleaning.Stage, error) {
	var p RenameParams
	if err := decodeParams(cfg.ID(), cfg.Params, &p); err != nil {
		return nil, err
	}
	return cleaning.NewRenameColumnsStage(cfg.Name, p.Mapping), nil
}

func newExplodeStage(cfg config.StageConfig, _ BuildContext) (cleaning.Stage, error) {
	var p ExplodeParams
	if err := decodeParams(cfg.ID(), cfg.Params, &p); err != nil {
		return nil, err
	}
	sep := p.Separator
	if sep == "" {
		sep = ","
	}
	trim := true
	if p.Trim != nil {
		trim = *p.Trim
	}
	return cleaning.NewSplitExplodeStage(cfg.Name, p.Column, sep, trim), nil
}
