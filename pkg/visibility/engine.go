package visibility

import (
	"github.com/goliatone/go-configform/pkg/schema"
)

// Option configures an Engine.
type Option func(*Engine)

// WithMatcher overrides the condition equality used by the engine.
func WithMatcher(matcher Matcher) Option {
	return func(e *Engine) {
		if matcher != nil {
			e.matcher = matcher
		}
	}
}

// Engine evaluates field conditions against a schema.Model. It reads values
// through the model and never copies them; only the derived states are kept.
// An Engine belongs to one Model instance. When the schema is replaced, build
// a new Engine rather than reusing the old one.
type Engine struct {
	model      *schema.Model
	matcher    Matcher
	dependents map[string][]string
	states     map[string]*State
}

// New builds the reverse dependency index for model. A condition that names a
// missing field fails with a *schema.DanglingConditionError. States are not
// computed until Initialize is called.
func New(model *schema.Model, options ...Option) (*Engine, error) {
	e := &Engine{
		model:      model,
		matcher:    DefaultMatcher,
		dependents: make(map[string][]string),
		states:     make(map[string]*State, model.Len()),
	}
	for _, opt := range options {
		if opt != nil {
			opt(e)
		}
	}

	for _, field := range model.Fields() {
		if field.Metadata == nil {
			continue
		}
		targets, err := e.targets(field)
		if err != nil {
			return nil, err
		}
		for _, target := range targets {
			e.dependents[target] = append(e.dependents[target], field.Path)
		}
	}
	return e, nil
}

// targets lists the distinct paths a field's conditions reference, checking
// each against the model.
func (e *Engine) targets(field schema.Field) ([]string, error) {
	attributes := []struct {
		name  string
		conds schema.Conditions
	}{
		{name: schema.AttributeHideWhen, conds: field.Metadata.HideWhen},
		{name: schema.AttributeDisableWhen, conds: field.Metadata.DisableWhen},
	}

	var out []string
	seen := make(map[string]struct{})
	for _, attr := range attributes {
		for _, target := range attr.conds.Targets() {
			if !e.model.Has(target) {
				return nil, &schema.DanglingConditionError{Path: field.Path, Attribute: attr.name, Target: target}
			}
			if _, ok := seen[target]; ok {
				continue
			}
			seen[target] = struct{}{}
			out = append(out, target)
		}
	}
	return out, nil
}

// Initialize computes the state of every field from the current values and
// returns a snapshot. Running it again from the same values yields the same
// states.
func (e *Engine) Initialize() map[string]State {
	for _, field := range e.model.Fields() {
		state := e.compute(field)
		e.states[field.Path] = &state
	}
	return e.States()
}

// ValueChanged recomputes the fields whose conditions reference path and
// returns, in schema order, the paths whose state changed. Fields that do not
// depend on path are left untouched.
func (e *Engine) ValueChanged(path string) ([]string, error) {
	if !e.model.Has(path) {
		return nil, schema.NotFound(path)
	}

	var changed []string
	for _, dependent := range e.dependents[path] {
		field, err := e.model.Get(dependent)
		if err != nil {
			return nil, err
		}
		next := e.compute(field)
		previous, known := e.states[dependent]
		e.states[dependent] = &next
		if !known || *previous != next {
			changed = append(changed, dependent)
		}
	}
	return changed, nil
}

// State returns the last computed state of path.
func (e *Engine) State(path string) (State, bool) {
	state, ok := e.states[path]
	if !ok {
		return State{}, false
	}
	return *state, true
}

// Visible reports the computed visibility of path; unknown or uncomputed
// paths are not visible.
func (e *Engine) Visible(path string) bool {
	state, ok := e.State(path)
	return ok && state.Visible
}

// Enabled reports the computed enabled flag of path.
func (e *Engine) Enabled(path string) bool {
	state, ok := e.State(path)
	return ok && state.Enabled
}

// States returns a snapshot of every computed state.
func (e *Engine) States() map[string]State {
	out := make(map[string]State, len(e.states))
	for path, state := range e.states {
		out[path] = *state
	}
	return out
}

// Dependents returns the fields whose conditions reference path, in schema
// order.
func (e *Engine) Dependents(path string) []string {
	return append([]string(nil), e.dependents[path]...)
}

func (e *Engine) compute(field schema.Field) State {
	state := State{Visible: true, Enabled: true}
	if field.Metadata == nil {
		return state
	}
	if field.Metadata.Hidden || e.holds(field.Metadata.HideWhen) {
		state.Visible = false
	}
	if e.holds(field.Metadata.DisableWhen) {
		state.Enabled = false
	}
	return state
}

// holds reports whether every condition is satisfied. An empty list never
// holds.
func (e *Engine) holds(conds schema.Conditions) bool {
	if len(conds) == 0 {
		return false
	}
	for _, cond := range conds {
		value, err := e.model.Value(cond.Field)
		if err != nil {
			return false
		}
		if !e.matcher.Match(value.Interface(), cond.Value) {
			return false
		}
	}
	return true
}
