package schema

// FieldType is the widget-facing kind a field declares in its metadata.
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypePassword FieldType = "password"
	FieldTypeNumber   FieldType = "number"
	FieldTypeCheckbox FieldType = "checkbox"
	FieldTypePath     FieldType = "path"
	FieldTypeDropdown FieldType = "dropdown"
	FieldTypeObject   FieldType = "object"
)

// Known reports whether t is one of the declared field types. Unknown types
// (including the empty string) accept any value.
func (t FieldType) Known() bool {
	switch t {
	case FieldTypeText, FieldTypePassword, FieldTypeNumber, FieldTypeCheckbox,
		FieldTypePath, FieldTypeDropdown, FieldTypeObject:
		return true
	default:
		return false
	}
}

// PathType narrows a path field to files or directories.
type PathType string

const (
	PathTypeFile      PathType = "file"
	PathTypeDirectory PathType = "directory"
)

// Option is a single dropdown entry.
type Option struct {
	Value any    `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

// FieldCondition is an equality predicate against another field's current
// value.
type FieldCondition struct {
	Field string `json:"field" yaml:"field"`
	Value any    `json:"value" yaml:"value"`
}

// FieldMetadata describes how a field is presented, validated and when it is
// conditionally hidden or disabled. Label, Description, Placeholder and
// ValueType are render hints and pass through untouched.
type FieldMetadata struct {
	Label       string     `json:"label,omitempty" yaml:"label,omitempty"`
	Type        FieldType  `json:"type,omitempty" yaml:"type,omitempty"`
	PathType    PathType   `json:"pathType,omitempty" yaml:"pathType,omitempty"`
	Options     []Option   `json:"options,omitempty" yaml:"options,omitempty"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Placeholder string     `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Min         *float64   `json:"min,omitempty" yaml:"min,omitempty"`
	Max         *float64   `json:"max,omitempty" yaml:"max,omitempty"`
	Required    bool       `json:"required,omitempty" yaml:"required,omitempty"`
	Dynamic     bool       `json:"dynamic,omitempty" yaml:"dynamic,omitempty"`
	ValueType   string     `json:"valueType,omitempty" yaml:"valueType,omitempty"`
	Hidden      bool       `json:"hidden,omitempty" yaml:"hidden,omitempty"`
	HideWhen    Conditions `json:"hideWhen,omitempty" yaml:"hideWhen,omitempty"`
	DisableWhen Conditions `json:"disableWhen,omitempty" yaml:"disableWhen,omitempty"`
}

// Field is one configuration entry. Metadata is shared with the owning Model
// and must be treated as read-only by callers.
type Field struct {
	Path     string         `json:"path"`
	Value    Value          `json:"value"`
	Metadata *FieldMetadata `json:"metadata,omitempty"`
}

// Type returns the declared field type, or an empty type when the field has
// no metadata.
func (f Field) Type() FieldType {
	if f.Metadata == nil {
		return ""
	}
	return f.Metadata.Type
}

// Label returns the metadata label, falling back to the field path.
func (f Field) Label() string {
	if f.Metadata != nil && f.Metadata.Label != "" {
		return f.Metadata.Label
	}
	return f.Path
}

// ConfigSchema is the ordered sequence of fields produced by a schema source.
// Order is rendering order only; conditions may reference any field.
type ConfigSchema struct {
	Fields []Field `json:"fields"`
}

func cloneMetadata(meta *FieldMetadata) *FieldMetadata {
	if meta == nil {
		return nil
	}
	out := *meta
	if len(meta.Options) > 0 {
		out.Options = append([]Option(nil), meta.Options...)
	}
	if meta.Min != nil {
		v := *meta.Min
		out.Min = &v
	}
	if meta.Max != nil {
		v := *meta.Max
		out.Max = &v
	}
	if len(meta.HideWhen) > 0 {
		out.HideWhen = append(Conditions(nil), meta.HideWhen...)
	}
	if len(meta.DisableWhen) > 0 {
		out.DisableWhen = append(Conditions(nil), meta.DisableWhen...)
	}
	return &out
}
