// Package widgets decides which input widget edits a settings field.
package widgets

import (
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-configform/pkg/schema"
)

// Built-in widget identifiers exposed by the registry.
const (
	WidgetSection    = "section"
	WidgetToggleMap  = "toggle-map"
	WidgetToggle     = "toggle"
	WidgetSelect     = "select"
	WidgetSecret     = "secret"
	WidgetNumber     = "number"
	WidgetPath       = "path"
	WidgetText       = "text"
	WidgetJSONEditor = "json-editor"
)

// Matcher decides whether a widget should handle the supplied field.
type Matcher func(field schema.Field) bool

type rule struct {
	name     string
	priority int
	match    Matcher
	order    int
}

// Registry selects widgets for fields based on per-path assignments or
// registered matchers. Higher priority wins; ties fall back to registration
// order. Fields nothing matches resolve to WidgetJSONEditor.
type Registry struct {
	mu       sync.RWMutex
	rules    []rule
	assigned map[string]string
}

// NewRegistry constructs a registry with the built-in widget matchers
// registered.
func NewRegistry() *Registry {
	reg := &Registry{}
	reg.registerBuiltins()
	return reg
}

// Register adds a widget matcher with the provided name and priority. Higher
// priority values take precedence.
func (r *Registry) Register(name string, priority int, matcher Matcher) {
	if r == nil || matcher == nil {
		return
	}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rules = append(r.rules, rule{
		name:     trimmed,
		priority: priority,
		match:    matcher,
		order:    len(r.rules),
	})
}

// Assign pins the widget for a single path, bypassing matchers. An empty
// name removes the assignment.
func (r *Registry) Assign(path, name string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	name = strings.TrimSpace(name)
	if name == "" {
		delete(r.assigned, path)
		return
	}
	if r.assigned == nil {
		r.assigned = make(map[string]string)
	}
	r.assigned[path] = name
}

// Resolve returns the widget name for a field.
func (r *Registry) Resolve(field schema.Field) string {
	if r == nil {
		return WidgetJSONEditor
	}
	r.mu.RLock()
	if name, ok := r.assigned[field.Path]; ok {
		r.mu.RUnlock()
		return name
	}
	rules := append([]rule(nil), r.rules...)
	r.mu.RUnlock()

	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].priority == rules[j].priority {
			return rules[i].order < rules[j].order
		}
		return rules[i].priority > rules[j].priority
	})
	for _, entry := range rules {
		if entry.match(field) {
			return entry.name
		}
	}
	return WidgetJSONEditor
}

// IsToggleMap reports whether field is a dynamic object of boolean flags.
func IsToggleMap(field schema.Field) bool {
	meta := field.Metadata
	if meta == nil || meta.Type != schema.FieldTypeObject || !meta.Dynamic {
		return false
	}
	switch strings.ToLower(meta.ValueType) {
	case string(schema.FieldTypeCheckbox), "boolean", "bool":
		return true
	default:
		return false
	}
}

func (r *Registry) registerBuiltins() {
	r.Register(WidgetToggleMap, 110, IsToggleMap)

	r.Register(WidgetSection, 100, func(field schema.Field) bool {
		return field.Type() == schema.FieldTypeObject
	})

	r.Register(WidgetToggle, 90, func(field schema.Field) bool {
		return field.Type() == schema.FieldTypeCheckbox
	})

	r.Register(WidgetSelect, 80, func(field schema.Field) bool {
		return field.Type() == schema.FieldTypeDropdown && len(field.Metadata.Options) > 0
	})

	r.Register(WidgetSecret, 70, func(field schema.Field) bool {
		return field.Type() == schema.FieldTypePassword
	})

	r.Register(WidgetNumber, 60, func(field schema.Field) bool {
		return field.Type() == schema.FieldTypeNumber
	})

	r.Register(WidgetPath, 50, func(field schema.Field) bool {
		return field.Type() == schema.FieldTypePath
	})

	// Dropdowns without options degrade to free text.
	r.Register(WidgetText, 40, func(field schema.Field) bool {
		switch field.Type() {
		case schema.FieldTypeText, schema.FieldTypeDropdown:
			return true
		default:
			return false
		}
	})
}
