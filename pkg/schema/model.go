package schema

import (
	"fmt"
	"strings"
)

// Condition attribute names used in DanglingConditionError.
const (
	AttributeHideWhen    = "hideWhen"
	AttributeDisableWhen = "disableWhen"
)

// Model is the live instance of a ConfigSchema. It is not safe for concurrent
// use; a settings session owns it exclusively.
type Model struct {
	fields []Field
	index  map[string]int
}

// New validates s and returns a Model holding a private copy of its fields.
// Paths must be unique and non-empty and every condition must reference an
// existing field. Initial values that do not fit their declared type are
// loaded as opaque values; Validate reports them.
func New(s ConfigSchema) (*Model, error) {
	m := &Model{
		fields: make([]Field, 0, len(s.Fields)),
		index:  make(map[string]int, len(s.Fields)),
	}

	for position, field := range s.Fields {
		path := strings.TrimSpace(field.Path)
		if path == "" {
			return nil, fmt.Errorf("%w at position %d", ErrEmptyPath, position)
		}
		if _, exists := m.index[path]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicatePath, path)
		}

		field.Path = path
		field.Metadata = cloneMetadata(field.Metadata)
		// A value of the wrong shape is kept opaque and reported by Validate.
		field.Value, _ = coerce(field.Type(), field.Value)

		m.index[path] = len(m.fields)
		m.fields = append(m.fields, field)
	}

	if err := m.checkConditions(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Model) checkConditions() error {
	for _, field := range m.fields {
		if field.Metadata == nil {
			continue
		}
		if err := m.checkAttribute(field.Path, AttributeHideWhen, field.Metadata.HideWhen); err != nil {
			return err
		}
		if err := m.checkAttribute(field.Path, AttributeDisableWhen, field.Metadata.DisableWhen); err != nil {
			return err
		}
	}
	return nil
}

func (m *Model) checkAttribute(path, attribute string, conds Conditions) error {
	for _, cond := range conds {
		if !m.Has(cond.Field) {
			return &DanglingConditionError{Path: path, Attribute: attribute, Target: cond.Field}
		}
	}
	return nil
}

// Len returns the number of fields.
func (m *Model) Len() int {
	if m == nil {
		return 0
	}
	return len(m.fields)
}

// Has reports whether a field with path exists.
func (m *Model) Has(path string) bool {
	_, ok := m.lookup(path)
	return ok
}

// Index returns the schema position of path.
func (m *Model) Index(path string) (int, bool) {
	return m.lookup(path)
}

func (m *Model) lookup(path string) (int, bool) {
	if m == nil || m.index == nil {
		return 0, false
	}
	idx, ok := m.index[path]
	return idx, ok
}

// Get returns the field stored at path.
func (m *Model) Get(path string) (Field, error) {
	idx, ok := m.lookup(path)
	if !ok {
		return Field{}, NotFound(path)
	}
	return m.fields[idx], nil
}

// Value returns the current value stored at path.
func (m *Model) Value(path string) (Value, error) {
	idx, ok := m.lookup(path)
	if !ok {
		return Value{}, NotFound(path)
	}
	return m.fields[idx].Value, nil
}

// Values returns a snapshot of current values keyed by path.
func (m *Model) Values() map[string]any {
	out := make(map[string]any, m.Len())
	if m == nil {
		return out
	}
	for _, field := range m.fields {
		out[field.Path] = field.Value.Interface()
	}
	return out
}

// Fields returns the fields in schema order.
func (m *Model) Fields() []Field {
	if m == nil {
		return nil
	}
	return append([]Field(nil), m.fields...)
}

// Schema returns a ConfigSchema snapshot of the current state.
func (m *Model) Schema() ConfigSchema {
	return ConfigSchema{Fields: m.Fields()}
}

// SetValue stores raw at path and returns the updated field. Unknown paths
// fail with ErrNotFound and store nothing. A *TypeMismatchError (the value is
// kept opaque) or *ValidationError is returned alongside an applied write; see
// Applied. SetValue does not touch visibility state.
func (m *Model) SetValue(path string, raw any) (Field, error) {
	idx, ok := m.lookup(path)
	if !ok {
		return Field{}, NotFound(path)
	}

	field := &m.fields[idx]
	value, fitsType := coerce(field.Type(), raw)
	field.Value = value
	if !fitsType {
		return *field, &TypeMismatchError{Path: path, Want: field.Type(), Got: describe(raw)}
	}
	if verr := checkConstraints(*field); verr != nil {
		return *field, verr
	}
	return *field, nil
}
