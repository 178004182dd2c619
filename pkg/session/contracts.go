package session

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-configform/pkg/schema"
)

// Response is the schema source payload. Success false means the backend
// could not produce a schema; the payload is then ignored.
type Response struct {
	Success bool                `json:"success"`
	Schema  schema.ConfigSchema `json:"schema"`
}

// Source supplies the current settings schema.
type Source interface {
	FetchSchema(ctx context.Context) (Response, error)
}

// SourceFunc adapts a function into a Source.
type SourceFunc func(ctx context.Context) (Response, error)

// FetchSchema delegates to the underlying function.
func (fn SourceFunc) FetchSchema(ctx context.Context) (Response, error) {
	return fn(ctx)
}

// Sink persists individual field values.
type Sink interface {
	WriteValue(ctx context.Context, path string, value any) error
}

// SinkFunc adapts a function into a Sink.
type SinkFunc func(ctx context.Context, path string, value any) error

// WriteValue delegates to the underlying function.
func (fn SinkFunc) WriteValue(ctx context.Context, path string, value any) error {
	return fn(ctx, path, value)
}

// FieldErrors is returned by sinks that reject values with per-field
// messages. Keys may use dotted paths, JSON pointers or bracket notation;
// Session.MapErrors normalises them onto schema paths.
type FieldErrors struct {
	Fields map[string][]string
}

func (e *FieldErrors) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "session: value rejected"
	}
	keys := make([]string, 0, len(e.Fields))
	for key := range e.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", key, strings.Join(e.Fields[key], "; ")))
	}
	return "session: value rejected: " + strings.Join(parts, ", ")
}
