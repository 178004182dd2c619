package metadata

import (
	"reflect"
	"strings"
	"unicode"

	"github.com/goliatone/go-configform/pkg/schema"
)

// FieldTypeArray is inferred for list values. It is not a declared schema
// type, so array fields accept any value.
const FieldTypeArray schema.FieldType = "array"

// DetectFieldType maps a decoded value to the widget type that edits it.
func DetectFieldType(value any) schema.FieldType {
	if value == nil {
		return schema.FieldTypeText
	}

	switch reflect.ValueOf(value).Kind() {
	case reflect.Bool:
		return schema.FieldTypeCheckbox
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return schema.FieldTypeNumber
	case reflect.Struct, reflect.Map:
		return schema.FieldTypeObject
	case reflect.Slice, reflect.Array:
		return FieldTypeArray
	default:
		return schema.FieldTypeText
	}
}

// Infer derives metadata for path from its value: a label from the last
// camelCase segment, the detected type, and key-name hints for secrets and
// filesystem paths on string values.
func Infer(path string, value any) schema.FieldMetadata {
	meta := schema.FieldMetadata{
		Label: FormatLabel(path),
		Type:  DetectFieldType(value),
	}
	if _, ok := value.(string); !ok {
		return meta
	}

	lower := strings.ToLower(path)
	switch {
	case strings.Contains(lower, "apikey"),
		strings.Contains(lower, "key") && strings.Contains(lower, "admin"):
		meta.Type = schema.FieldTypePassword
	case strings.Contains(lower, "path"),
		strings.Contains(lower, "directory"),
		strings.Contains(lower, "location"):
		meta.Type = schema.FieldTypePath
		if strings.Contains(lower, "file") || strings.Contains(lower, "executable") {
			meta.PathType = schema.PathTypeFile
		} else {
			meta.PathType = schema.PathTypeDirectory
		}
	}
	return meta
}

// FormatLabel turns the last segment of a dotted path into title words:
// "server.adminKey" becomes "Admin Key" and "useGPU" becomes "Use GPU".
func FormatLabel(path string) string {
	segment := path
	if idx := strings.LastIndex(path, "."); idx >= 0 {
		segment = path[idx+1:]
	}

	runes := []rune(segment)
	var b strings.Builder
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) && wordBoundary(runes, i) {
			b.WriteRune(' ')
		}
		b.WriteRune(r)
	}

	words := strings.Fields(strings.NewReplacer("_", " ", "-", " ").Replace(b.String()))
	for i, word := range words {
		letters := []rune(word)
		letters[0] = unicode.ToUpper(letters[0])
		words[i] = string(letters)
	}
	return strings.Join(words, " ")
}

// wordBoundary reports whether the upper-case rune at i starts a new word.
// Runs of capitals stay together unless the last one starts a lower-case word.
func wordBoundary(runes []rune, i int) bool {
	prev := runes[i-1]
	if unicode.IsLower(prev) || unicode.IsDigit(prev) {
		return true
	}
	return unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1])
}

// Merge overlays explicit metadata on inferred metadata. Every attribute set
// in explicit wins; unset attributes keep the inferred value.
func Merge(inferred, explicit schema.FieldMetadata) schema.FieldMetadata {
	merged := inferred

	if explicit.Label != "" {
		merged.Label = explicit.Label
	}
	if explicit.Type != "" {
		merged.Type = explicit.Type
	}
	if explicit.PathType != "" {
		merged.PathType = explicit.PathType
	}
	if explicit.Options != nil {
		merged.Options = explicit.Options
	}
	if explicit.Description != "" {
		merged.Description = explicit.Description
	}
	if explicit.Placeholder != "" {
		merged.Placeholder = explicit.Placeholder
	}
	if explicit.Min != nil {
		merged.Min = explicit.Min
	}
	if explicit.Max != nil {
		merged.Max = explicit.Max
	}
	if explicit.Required {
		merged.Required = true
	}
	if explicit.Dynamic {
		merged.Dynamic = true
	}
	if explicit.ValueType != "" {
		merged.ValueType = explicit.ValueType
	}
	if explicit.Hidden {
		merged.Hidden = true
	}
	if explicit.HideWhen != nil {
		merged.HideWhen = explicit.HideWhen
	}
	if explicit.DisableWhen != nil {
		merged.DisableWhen = explicit.DisableWhen
	}
	return merged
}
