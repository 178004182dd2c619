package session_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-configform/pkg/events"
	"github.com/goliatone/go-configform/pkg/schema"
	"github.com/goliatone/go-configform/pkg/session"
	"github.com/goliatone/go-configform/pkg/testsupport"
)

type write struct {
	Path  string
	Value any
}

type recordingSink struct {
	writes []write
	fail   map[string]error
}

func (r *recordingSink) WriteValue(_ context.Context, path string, value any) error {
	if err := r.fail[path]; err != nil {
		return err
	}
	r.writes = append(r.writes, write{Path: path, Value: value})
	return nil
}

func staticSource(s schema.ConfigSchema) session.Source {
	return session.SourceFunc(func(context.Context) (session.Response, error) {
		return session.Response{Success: true, Schema: s}, nil
	})
}

func openSession(t *testing.T, options ...session.Option) *session.Session {
	t.Helper()

	sess, err := session.Open(testsupport.Context(), staticSource(testsupport.TTSSchema()), options...)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(sess.Close)
	return sess
}

func TestOpenFailsWhenSourceReportsFailure(t *testing.T) {
	source := session.SourceFunc(func(context.Context) (session.Response, error) {
		return session.Response{Success: false}, nil
	})
	if _, err := session.Open(testsupport.Context(), source); !errors.Is(err, session.ErrFetchFailed) {
		t.Fatalf("expected ErrFetchFailed, got %v", err)
	}
	if _, err := session.Open(testsupport.Context(), nil); !errors.Is(err, session.ErrNoSource) {
		t.Fatalf("expected ErrNoSource, got %v", err)
	}
}

func TestOpenRejectsDanglingConditions(t *testing.T) {
	s := testsupport.TTSSchema()
	s.Fields[0].Metadata.HideWhen = schema.Conditions{{Field: "x.y", Value: true}}

	_, err := session.Open(testsupport.Context(), staticSource(s))
	if !errors.Is(err, schema.ErrDanglingCondition) {
		t.Fatalf("expected ErrDanglingCondition, got %v", err)
	}
}

func TestSetPropagatesVisibility(t *testing.T) {
	sess := openSession(t)

	update, err := sess.Set(testsupport.PathAuthEnabled, false)
	if err != nil {
		t.Fatalf("Set: %v", err)
	}
	if update.Issue != nil {
		t.Fatalf("unexpected issue: %v", update.Issue)
	}
	if diff := cmp.Diff([]string{testsupport.PathAdminKey, testsupport.PathPiperUseGPU}, update.Changed); diff != "" {
		t.Fatalf("changed mismatch (-want +got):\n%s", diff)
	}

	view, err := sess.View(testsupport.PathAdminKey)
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if view.Visible || !view.Enabled {
		t.Fatalf("expected hidden but enabled admin key, got %+v", view)
	}
}

func TestSetReportsRecoverableIssues(t *testing.T) {
	sess := openSession(t)

	update, err := sess.Set(testsupport.PathEngineKind, "unknown")
	if err != nil {
		t.Fatalf("Set: %v", err)
	}
	if !errors.Is(update.Issue, schema.ErrValidation) {
		t.Fatalf("expected validation issue, got %v", update.Issue)
	}
	if diff := cmp.Diff([]string{testsupport.PathEngineKind}, sess.Dirty()); diff != "" {
		t.Fatalf("dirty mismatch (-want +got):\n%s", diff)
	}

	if _, err := sess.Set("missing", 1); !errors.Is(err, schema.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestViewsFollowSchemaOrder(t *testing.T) {
	sess := openSession(t)

	views := sess.Views()
	want := testsupport.TTSSchema().Fields
	if len(views) != len(want) {
		t.Fatalf("expected %d views, got %d", len(want), len(views))
	}
	for i, view := range views {
		if view.Field.Path != want[i].Path {
			t.Fatalf("view %d: got %s, want %s", i, view.Field.Path, want[i].Path)
		}
	}
	if views[4].Visible {
		t.Fatalf("unconditionally hidden field should not be visible")
	}
}

func TestSaveSkipsValidationOfHiddenFields(t *testing.T) {
	sink := &recordingSink{}
	sess := openSession(t, session.WithSink(sink))

	if _, err := sess.Set(testsupport.PathEngineKind, "sapi4"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := sess.Set(testsupport.PathAdminKey, ""); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := sess.Set(testsupport.PathAuthEnabled, false); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if err := sess.Save(testsupport.Context()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	want := []write{
		{Path: testsupport.PathAdminKey, Value: ""},
		{Path: testsupport.PathAuthEnabled, Value: false},
		{Path: testsupport.PathEngineKind, Value: "sapi4"},
	}
	if diff := cmp.Diff(want, sink.writes); diff != "" {
		t.Fatalf("writes mismatch (-want +got):\n%s", diff)
	}
	if len(sess.Dirty()) != 0 {
		t.Fatalf("expected no dirty fields after save, got %v", sess.Dirty())
	}
}

func TestSaveRejectsInvalidVisibleFields(t *testing.T) {
	sink := &recordingSink{}
	sess := openSession(t, session.WithSink(sink))

	if _, err := sess.Set(testsupport.PathVolume, 150); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := sess.Set(testsupport.PathServerPort, nil); err != nil {
		t.Fatalf("Set: %v", err)
	}

	err := sess.Save(testsupport.Context())
	if !errors.Is(err, schema.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(sink.writes) != 0 {
		t.Fatalf("nothing should be written, got %v", sink.writes)
	}

	mapping := sess.MapErrors(err)
	want := map[string][]string{
		testsupport.PathServerPort: {"a value is required"},
		testsupport.PathVolume:     {"value 150 is above the maximum of 100"},
	}
	if diff := cmp.Diff(want, mapping.Fields); diff != "" {
		t.Fatalf("mapped errors mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveMapsSinkFieldErrors(t *testing.T) {
	sink := &recordingSink{fail: map[string]error{
		testsupport.PathVolume: &session.FieldErrors{Fields: map[string][]string{
			"/body/settings/volume": {"volume locked by policy"},
			"__all__":               {"profile is read-only"},
		}},
	}}
	sess := openSession(t, session.WithSink(sink))

	if _, err := sess.Set(testsupport.PathVolume, 10); err != nil {
		t.Fatalf("Set: %v", err)
	}
	err := sess.Save(testsupport.Context())
	if err == nil {
		t.Fatalf("expected save to fail")
	}

	mapping := sess.MapErrors(err)
	if diff := cmp.Diff(map[string][]string{testsupport.PathVolume: {"volume locked by policy"}}, mapping.Fields); diff != "" {
		t.Fatalf("field errors mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"profile is read-only"}, mapping.Form); diff != "" {
		t.Fatalf("form errors mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{testsupport.PathVolume}, sess.Dirty()); diff != "" {
		t.Fatalf("failed write should stay dirty (-want +got):\n%s", diff)
	}
}

func TestSaveRequiresSink(t *testing.T) {
	sess := openSession(t)
	if err := sess.Save(testsupport.Context()); !errors.Is(err, session.ErrNoSink) {
		t.Fatalf("expected ErrNoSink, got %v", err)
	}
}

func TestBusReloadReplacesState(t *testing.T) {
	bus := events.NewBus()
	current := testsupport.TTSSchema()
	source := session.SourceFunc(func(context.Context) (session.Response, error) {
		return session.Response{Success: true, Schema: current}, nil
	})

	var reloadErrs []error
	sess, err := session.Open(testsupport.Context(), source,
		session.WithBus(bus),
		session.WithReloadHook(func(err error) { reloadErrs = append(reloadErrs, err) }),
	)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if _, err := sess.Set(testsupport.PathAuthEnabled, false); err != nil {
		t.Fatalf("Set: %v", err)
	}
	oldEngine := sess.Engine()

	current.Fields = current.Fields[:2]
	bus.Emit(events.ConfigChanged, nil)

	if diff := cmp.Diff([]error{nil}, reloadErrs, cmp.Comparer(func(a, b error) bool { return errors.Is(a, b) })); diff != "" {
		t.Fatalf("reload hook mismatch (-want +got):\n%s", diff)
	}
	if sess.Engine() == oldEngine {
		t.Fatalf("reload must build a new engine")
	}
	if sess.Model().Len() != 2 {
		t.Fatalf("expected reloaded schema with 2 fields, got %d", sess.Model().Len())
	}
	if !sess.Engine().Visible(testsupport.PathAdminKey) {
		t.Fatalf("reloaded values should drive visibility")
	}
	if len(sess.Dirty()) != 0 {
		t.Fatalf("reload should clear pending edits")
	}

	sess.Close()
	if bus.Subscribers(events.ConfigChanged) != 0 {
		t.Fatalf("Close should remove the bus subscription")
	}
}

func TestReloadFailureKeepsState(t *testing.T) {
	fail := false
	source := session.SourceFunc(func(context.Context) (session.Response, error) {
		if fail {
			return session.Response{}, errors.New("backend offline")
		}
		return session.Response{Success: true, Schema: testsupport.TTSSchema()}, nil
	})
	sess, err := session.Open(testsupport.Context(), source)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	model := sess.Model()

	fail = true
	if err := sess.Reload(testsupport.Context()); err == nil {
		t.Fatalf("expected reload error")
	}
	if sess.Model() != model {
		t.Fatalf("failed reload must keep the previous model")
	}
}
