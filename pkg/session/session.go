// Package session ties a schema.Model and a visibility.Engine to the outside
// world: it loads schemas from a Source, applies edits and propagates
// visibility, persists dirty values through a Sink and rebuilds everything
// when the notification bus reports an external settings change.
//
// A Session is single-threaded. Bus handlers run synchronously on the
// emitting goroutine, so emit config.changed from the same goroutine that
// edits the session.
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-configform/pkg/events"
	"github.com/goliatone/go-configform/pkg/schema"
	"github.com/goliatone/go-configform/pkg/visibility"
)

var (
	// ErrFetchFailed is returned when the source reports an unsuccessful
	// schema fetch.
	ErrFetchFailed = errors.New("session: schema fetch failed")
	// ErrNoSource is returned by Open without a Source.
	ErrNoSource = errors.New("session: source is required")
	// ErrNoSink is returned by Save when no Sink is configured.
	ErrNoSink = errors.New("session: sink is required to save")
)

// FieldView is what a rendering layer needs for one field.
type FieldView struct {
	Field   schema.Field
	Visible bool
	Enabled bool
}

// Update describes the outcome of Set. Issue holds a recoverable
// *schema.TypeMismatchError or *schema.ValidationError the caller should show
// next to the field; the value was stored either way.
type Update struct {
	Field   schema.Field
	Changed []string
	Issue   error
}

// Option configures a Session.
type Option func(*Session)

// WithSink sets the sink used by Save.
func WithSink(sink Sink) Option {
	return func(s *Session) {
		s.sink = sink
	}
}

// WithBus subscribes the session to events.ConfigChanged on bus. The
// subscription is removed by Close.
func WithBus(bus *events.Bus) Option {
	return func(s *Session) {
		s.bus = bus
	}
}

// WithReloadHook registers fn to observe reloads triggered by the bus. err is
// nil when the reload succeeded.
func WithReloadHook(fn func(err error)) Option {
	return func(s *Session) {
		s.reloadHook = fn
	}
}

// WithEngineOptions forwards options to every visibility.Engine the session
// builds.
func WithEngineOptions(options ...visibility.Option) Option {
	return func(s *Session) {
		s.engineOptions = append(s.engineOptions, options...)
	}
}

// Session is one settings editing session.
type Session struct {
	source        Source
	sink          Sink
	bus           *events.Bus
	reloadHook    func(error)
	engineOptions []visibility.Option

	model   *schema.Model
	engine  *visibility.Engine
	dirty   map[string]struct{}
	dispose func()
}

// Open fetches the schema from source, builds the model and engine and
// computes the initial field states.
func Open(ctx context.Context, source Source, options ...Option) (*Session, error) {
	if ctx == nil {
		return nil, errors.New("session: context is required")
	}
	if source == nil {
		return nil, ErrNoSource
	}

	s := &Session{source: source}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}

	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	if s.bus != nil {
		s.dispose = s.bus.Subscribe(events.ConfigChanged, s.handleConfigChanged)
	}
	return s, nil
}

func (s *Session) handleConfigChanged(any) {
	err := s.Reload(context.Background())
	if s.reloadHook != nil {
		s.reloadHook(err)
	}
}

// Reload replaces the model and engine with a freshly fetched schema and
// clears pending edits. On failure the previous state is kept.
func (s *Session) Reload(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	resp, err := s.source.FetchSchema(ctx)
	if err != nil {
		return fmt.Errorf("session: fetch schema: %w", err)
	}
	if !resp.Success {
		return ErrFetchFailed
	}

	model, err := schema.New(resp.Schema)
	if err != nil {
		return fmt.Errorf("session: load schema: %w", err)
	}
	engine, err := visibility.New(model, s.engineOptions...)
	if err != nil {
		return fmt.Errorf("session: build conditions: %w", err)
	}
	engine.Initialize()

	s.model = model
	s.engine = engine
	s.dirty = make(map[string]struct{})
	return nil
}

// Model exposes the live model.
func (s *Session) Model() *schema.Model {
	return s.model
}

// Engine exposes the live condition engine.
func (s *Session) Engine() *visibility.Engine {
	return s.engine
}

// Set stores value at path and recomputes the dependents of path. Unknown
// paths fail; type and constraint problems are reported through Update.Issue.
func (s *Session) Set(path string, value any) (Update, error) {
	field, err := s.model.SetValue(path, value)
	if !schema.Applied(err) {
		return Update{}, err
	}

	changed, cerr := s.engine.ValueChanged(path)
	if cerr != nil {
		return Update{}, cerr
	}
	s.dirty[path] = struct{}{}
	return Update{Field: field, Changed: changed, Issue: err}, nil
}

// View returns the field at path with its computed state.
func (s *Session) View(path string) (FieldView, error) {
	field, err := s.model.Get(path)
	if err != nil {
		return FieldView{}, err
	}
	return s.view(field), nil
}

// Views returns every field, in schema order, with its computed state.
func (s *Session) Views() []FieldView {
	fields := s.model.Fields()
	out := make([]FieldView, 0, len(fields))
	for _, field := range fields {
		out = append(out, s.view(field))
	}
	return out
}

func (s *Session) view(field schema.Field) FieldView {
	state, _ := s.engine.State(field.Path)
	return FieldView{Field: field, Visible: state.Visible, Enabled: state.Enabled}
}

// Dirty lists the paths edited since the last load or save, in schema order.
func (s *Session) Dirty() []string {
	var out []string
	for _, field := range s.model.Fields() {
		if _, ok := s.dirty[field.Path]; ok {
			out = append(out, field.Path)
		}
	}
	return out
}

// Validate checks required flags, types and constraints of visible fields.
// Hidden fields are never validated.
func (s *Session) Validate() error {
	return s.model.Validate(s.engine.Visible)
}

// Save validates the session and writes every dirty value to the sink in
// schema order. Values already written are no longer dirty when a later
// write fails.
func (s *Session) Save(ctx context.Context) error {
	if s.sink == nil {
		return ErrNoSink
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.Validate(); err != nil {
		return err
	}

	for _, path := range s.Dirty() {
		value, err := s.model.Value(path)
		if err != nil {
			return err
		}
		if err := s.sink.WriteValue(ctx, path, value.Interface()); err != nil {
			return fmt.Errorf("session: write %q: %w", path, err)
		}
		delete(s.dirty, path)
	}
	return nil
}

// Close removes the session's bus subscription.
func (s *Session) Close() {
	if s.dispose != nil {
		s.dispose()
		s.dispose = nil
	}
}
