package session

import (
	"errors"
	"strconv"
	"strings"

	"github.com/goliatone/go-configform/pkg/schema"
)

// ErrorMapping splits error messages into field-level messages keyed by
// schema path and form-level messages that match no field.
type ErrorMapping struct {
	Fields map[string][]string
	Form   []string
}

// Empty reports whether the mapping holds no messages.
func (m ErrorMapping) Empty() bool {
	return len(m.Fields) == 0 && len(m.Form) == 0
}

func (m *ErrorMapping) addField(path string, messages ...string) {
	if m.Fields == nil {
		m.Fields = make(map[string][]string)
	}
	m.Fields[path] = append(m.Fields[path], messages...)
}

// tidy trims and dedupes every message list and drops empty entries.
func (m *ErrorMapping) tidy() {
	for path, messages := range m.Fields {
		if cleaned := uniqueMessages(messages); len(cleaned) > 0 {
			m.Fields[path] = cleaned
		} else {
			delete(m.Fields, path)
		}
	}
	if len(m.Fields) == 0 {
		m.Fields = nil
	}
	m.Form = uniqueMessages(m.Form)
}

// MapErrors turns err into an ErrorMapping. Schema type and validation errors
// (including joined ones) map to their field, *FieldErrors payloads from a
// sink are resolved onto schema paths and anything else becomes a form-level
// message.
func (s *Session) MapErrors(err error) ErrorMapping {
	var mapping ErrorMapping
	if err == nil {
		return mapping
	}

	known := make(fieldSet, s.model.Len())
	for _, field := range s.model.Fields() {
		known[field.Path] = struct{}{}
	}

	for _, leaf := range leafErrors(err) {
		var (
			mismatch *schema.TypeMismatchError
			verr     *schema.ValidationError
			rejected *FieldErrors
		)
		switch {
		case errors.As(leaf, &verr):
			mapping.addField(verr.Path, verr.Message)
		case errors.As(leaf, &mismatch):
			mapping.addField(mismatch.Path, "expected a "+string(mismatch.Want)+" value")
		case errors.As(leaf, &rejected):
			known.collect(&mapping, rejected.Fields)
		default:
			mapping.Form = append(mapping.Form, leaf.Error())
		}
	}
	mapping.tidy()
	return mapping
}

// MapErrorPayload resolves a backend error payload keyed by raw paths (dotted,
// slash separated, JSON pointer or bracketed) onto fieldPaths. Messages for
// unknown paths become form-level so none are lost.
func MapErrorPayload(fieldPaths map[string]struct{}, payload map[string][]string) ErrorMapping {
	var mapping ErrorMapping
	fieldSet(fieldPaths).collect(&mapping, payload)
	mapping.tidy()
	return mapping
}

func leafErrors(err error) []error {
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		return []error{err}
	}
	var out []error
	for _, inner := range joined.Unwrap() {
		out = append(out, leafErrors(inner)...)
	}
	return out
}

func uniqueMessages(messages []string) []string {
	var out []string
	seen := make(map[string]bool, len(messages))
	for _, message := range messages {
		message = strings.TrimSpace(message)
		if message == "" || seen[message] {
			continue
		}
		seen[message] = true
		out = append(out, message)
	}
	return out
}

// fieldSet is the set of schema paths error keys resolve against.
type fieldSet map[string]struct{}

func (set fieldSet) collect(mapping *ErrorMapping, payload map[string][]string) {
	for raw, messages := range payload {
		if path, ok := set.resolve(raw); ok {
			mapping.addField(path, messages...)
			continue
		}
		mapping.Form = append(mapping.Form, messages...)
	}
}

// resolve finds the deepest schema path addressed by raw. Leading envelope
// segments (body, request, payload, data, config) and array indexes are
// tolerated; a key naming the whole form never resolves.
func (set fieldSet) resolve(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if formKeys[strings.ToLower(raw)] {
		return "", false
	}
	segments := splitErrorKey(raw)
	if len(segments) == 0 {
		return "", false
	}

	unwrapped := trimEnvelope(segments)
	best, depth := "", 0
	for _, candidate := range [][]string{segments, unwrapped, withoutIndexes(segments), withoutIndexes(unwrapped)} {
		for end := len(candidate); end > depth; end-- {
			path := strings.Join(candidate[:end], ".")
			if _, ok := set[path]; ok {
				best, depth = path, end
				break
			}
		}
	}
	return best, best != ""
}

var formKeys = map[string]bool{
	"": true, ".": true, "/": true, "#": true, "$": true,
	"form": true, "base": true, "__all__": true,
	"non_field_errors": true, "non-field-errors": true,
}

var envelopeKeys = map[string]bool{
	"body": true, "request": true, "payload": true, "data": true, "config": true,
}

// splitErrorKey breaks "#/a/b", "$.a[0].b" or "a.b" style keys into segments,
// unescaping JSON pointer tokens.
func splitErrorKey(raw string) []string {
	clean := strings.TrimLeft(raw, "#$/.")
	clean = strings.NewReplacer("[", ".", "]", "").Replace(clean)
	parts := strings.FieldsFunc(clean, func(r rune) bool { return r == '.' || r == '/' })

	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, strings.NewReplacer("~1", "/", "~0", "~").Replace(part))
	}
	return out
}

func trimEnvelope(segments []string) []string {
	for len(segments) > 0 && envelopeKeys[strings.ToLower(segments[0])] {
		segments = segments[1:]
	}
	return segments
}

func withoutIndexes(segments []string) []string {
	out := make([]string, 0, len(segments))
	for _, segment := range segments {
		if _, err := strconv.Atoi(segment); err != nil {
			out = append(out, segment)
		}
	}
	return out
}
