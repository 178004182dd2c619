package schema

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-configform/pkg/visibility/expr"
)

// Conditions is an ordered conjunction of FieldConditions. An empty list never
// holds.
//
// When decoding, a single condition object, an array of condition objects, or
// a compact rule string such as `server.auth.enabled == false` are all
// accepted.
type Conditions []FieldCondition

// ParseConditions converts a compact rule string into conditions.
func ParseConditions(rule string) (Conditions, error) {
	clauses, err := expr.Parse(rule)
	if err != nil {
		return nil, fmt.Errorf("schema: parse conditions: %w", err)
	}
	if len(clauses) == 0 {
		return nil, nil
	}
	out := make(Conditions, 0, len(clauses))
	for _, clause := range clauses {
		out = append(out, FieldCondition{Field: clause.Field, Value: clause.Value})
	}
	return out, nil
}

// Targets returns the distinct field paths referenced by the conditions in
// declaration order.
func (c Conditions) Targets() []string {
	if len(c) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(c))
	out := make([]string, 0, len(c))
	for _, cond := range c {
		if _, ok := seen[cond.Field]; ok {
			continue
		}
		seen[cond.Field] = struct{}{}
		out = append(out, cond.Field)
	}
	return out
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Conditions) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*c = nil
		return nil
	}

	switch trimmed[0] {
	case '[':
		var list []FieldCondition
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return fmt.Errorf("schema: decode conditions: %w", err)
		}
		*c = list
	case '{':
		var single FieldCondition
		if err := json.Unmarshal(trimmed, &single); err != nil {
			return fmt.Errorf("schema: decode condition: %w", err)
		}
		*c = Conditions{single}
	case '"':
		var rule string
		if err := json.Unmarshal(trimmed, &rule); err != nil {
			return fmt.Errorf("schema: decode condition rule: %w", err)
		}
		parsed, err := ParseConditions(rule)
		if err != nil {
			return err
		}
		*c = parsed
	default:
		return fmt.Errorf("schema: conditions must be an object, an array or a rule string, got %s", trimmed)
	}
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *Conditions) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.AliasNode:
		return c.UnmarshalYAML(node.Alias)
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			*c = nil
			return nil
		}
		parsed, err := ParseConditions(node.Value)
		if err != nil {
			return err
		}
		*c = parsed
	case yaml.MappingNode:
		var single FieldCondition
		if err := node.Decode(&single); err != nil {
			return fmt.Errorf("schema: decode condition: %w", err)
		}
		*c = Conditions{single}
	case yaml.SequenceNode:
		var list []FieldCondition
		if err := node.Decode(&list); err != nil {
			return fmt.Errorf("schema: decode conditions: %w", err)
		}
		*c = list
	default:
		return fmt.Errorf("schema: unsupported conditions node at line %d", node.Line)
	}
	return nil
}
