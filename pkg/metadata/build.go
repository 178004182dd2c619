package metadata

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/goliatone/go-configform/pkg/schema"
)

// ErrRootNotFound is returned by Build when a requested root key is absent
// from the settings document.
var ErrRootNotFound = errors.New("metadata: root not found")

// Build flattens settings into an ordered schema. settings may be any value
// that encodes to a JSON object. Each object is emitted before its children
// and map keys are walked in lexical order. Without roots every top-level
// key is used. Null values produce no field. Fields marked hidden in the
// catalog are kept so conditions may still reference them.
func Build(settings any, catalog *Catalog, roots ...string) (schema.ConfigSchema, error) {
	doc, err := toDocument(settings)
	if err != nil {
		return schema.ConfigSchema{}, err
	}

	if len(roots) == 0 {
		roots = sortedKeys(doc)
	}

	var fields []schema.Field
	for _, root := range roots {
		value, ok := doc[root]
		if !ok {
			return schema.ConfigSchema{}, fmt.Errorf("%w: %q", ErrRootNotFound, root)
		}
		fields = flatten(fields, root, value, catalog)
	}
	return schema.ConfigSchema{Fields: fields}, nil
}

func flatten(fields []schema.Field, path string, value any, catalog *Catalog) []schema.Field {
	if value == nil {
		return fields
	}

	meta := Infer(path, value)
	if explicit, ok := catalog.Lookup(path); ok {
		meta = Merge(meta, explicit)
	}
	fields = append(fields, schema.Field{
		Path:     path,
		Value:    schema.Opaque(value),
		Metadata: &meta,
	})

	if object, ok := value.(map[string]any); ok {
		for _, key := range sortedKeys(object) {
			fields = flatten(fields, path+"."+key, object[key], catalog)
		}
	}
	return fields
}

func toDocument(settings any) (map[string]any, error) {
	var raw []byte
	switch typed := settings.(type) {
	case []byte:
		raw = typed
	case json.RawMessage:
		raw = typed
	default:
		encoded, err := json.Marshal(settings)
		if err != nil {
			return nil, fmt.Errorf("metadata: encode settings: %w", err)
		}
		raw = encoded
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("metadata: decode settings: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("metadata: settings document is not an object")
	}
	return doc, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
