package tui

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-configform/pkg/schema"
	"github.com/goliatone/go-configform/pkg/session"
	"github.com/goliatone/go-configform/pkg/testsupport"
	"github.com/goliatone/go-configform/pkg/widgets"
)

type stubDriver struct {
	inputs       []string
	selectIdx    []int
	multiIdx     [][]int
	confirm      []bool
	textAreas    []string
	passwords    []string
	infoMessages []string
	inputPos     int
	selectPos    int
	multiPos     int
	confirmPos   int
	textPos      int
	passPos      int
	multiCfg     []SelectConfig
}

func (s *stubDriver) Input(_ context.Context, _ InputConfig) (string, error) {
	if s.inputPos >= len(s.inputs) {
		return "", errors.New("no input scripted")
	}
	val := s.inputs[s.inputPos]
	s.inputPos++
	return val, nil
}

func (s *stubDriver) Password(_ context.Context, _ InputConfig) (string, error) {
	if s.passPos >= len(s.passwords) {
		return "", errors.New("no password scripted")
	}
	val := s.passwords[s.passPos]
	s.passPos++
	return val, nil
}

func (s *stubDriver) Confirm(_ context.Context, _ ConfirmConfig) (bool, error) {
	if s.confirmPos >= len(s.confirm) {
		return false, errors.New("no confirm scripted")
	}
	val := s.confirm[s.confirmPos]
	s.confirmPos++
	return val, nil
}

func (s *stubDriver) Select(_ context.Context, _ SelectConfig) (int, error) {
	if s.selectPos >= len(s.selectIdx) {
		return -1, errors.New("no select scripted")
	}
	val := s.selectIdx[s.selectPos]
	s.selectPos++
	return val, nil
}

func (s *stubDriver) MultiSelect(_ context.Context, cfg SelectConfig) ([]int, error) {
	s.multiCfg = append(s.multiCfg, cfg)
	if s.multiPos >= len(s.multiIdx) {
		return nil, errors.New("no multiselect scripted")
	}
	val := s.multiIdx[s.multiPos]
	s.multiPos++
	return val, nil
}

func (s *stubDriver) TextArea(_ context.Context, _ TextAreaConfig) (string, error) {
	if s.textPos >= len(s.textAreas) {
		return "", errors.New("no textarea scripted")
	}
	val := s.textAreas[s.textPos]
	s.textPos++
	return val, nil
}

func (s *stubDriver) Info(_ context.Context, msg string) error {
	s.infoMessages = append(s.infoMessages, msg)
	return nil
}

type write struct {
	Path  string
	Value any
}

type recordingSink struct {
	writes []write
	err    error
}

func (r *recordingSink) WriteValue(_ context.Context, path string, value any) error {
	if r.err != nil {
		return r.err
	}
	r.writes = append(r.writes, write{Path: path, Value: value})
	return nil
}

func openSession(t *testing.T, s schema.ConfigSchema, sink session.Sink) *session.Session {
	t.Helper()
	source := session.SourceFunc(func(context.Context) (session.Response, error) {
		return session.Response{Success: true, Schema: s}, nil
	})
	sess, err := session.Open(testsupport.Context(), source, session.WithSink(sink))
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	t.Cleanup(sess.Close)
	return sess
}

func TestEdit_WalksVisibleFieldsAndSaves(t *testing.T) {
	driver := &stubDriver{
		passwords: []string{""},
		confirm:   []bool{false, true},
		inputs:    []string{"abc", "70000", "9000", "80"},
		selectIdx: []int{1},
	}
	r, err := New(WithPromptDriver(driver))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	sink := &recordingSink{}
	sess := openSession(t, testsupport.TTSSchema(), sink)

	if err := r.Edit(context.Background(), sess); err != nil {
		t.Fatalf("edit: %v", err)
	}

	wantWrites := []write{
		{Path: testsupport.PathAuthEnabled, Value: false},
		{Path: testsupport.PathServerPort, Value: 9000.0},
		{Path: testsupport.PathEngineKind, Value: "sapi4"},
		{Path: testsupport.PathPiperUseGPU, Value: true},
	}
	if diff := cmp.Diff(wantWrites, sink.writes); diff != "" {
		t.Fatalf("writes mismatch (-want +got):\n%s", diff)
	}

	wantInfo := []string{
		`Invalid Port: "abc" is not a number`,
		"Invalid Port: value 70000 is above the maximum of 65535",
		"Model Path: /opt/piper/en_US.onnx (disabled)",
		"Model Toggles",
		"Settings saved.",
	}
	if diff := cmp.Diff(wantInfo, driver.infoMessages); diff != "" {
		t.Fatalf("info mismatch (-want +got):\n%s", diff)
	}
	if driver.passPos != 1 || driver.confirmPos != 2 || driver.selectPos != 1 {
		t.Fatalf("unexpected prompt counts: pass=%d confirm=%d select=%d", driver.passPos, driver.confirmPos, driver.selectPos)
	}
}

func TestEdit_SkipsDisabledFieldsWhenConfigured(t *testing.T) {
	driver := &stubDriver{
		passwords: []string{""},
		confirm:   []bool{true, false},
		inputs:    []string{"8124", "80"},
		selectIdx: []int{1},
	}
	r, err := New(WithPromptDriver(driver), WithShowDisabled(false), WithTheme(Theme{InfoPrefix: "> "}))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	sink := &recordingSink{}
	sess := openSession(t, testsupport.TTSSchema(), sink)

	if err := r.Edit(context.Background(), sess); err != nil {
		t.Fatalf("edit: %v", err)
	}

	wantInfo := []string{"> Model Toggles", "> Settings saved."}
	if diff := cmp.Diff(wantInfo, driver.infoMessages); diff != "" {
		t.Fatalf("info mismatch (-want +got):\n%s", diff)
	}
	wantWrites := []write{{Path: testsupport.PathEngineKind, Value: "sapi4"}}
	if diff := cmp.Diff(wantWrites, sink.writes); diff != "" {
		t.Fatalf("writes mismatch (-want +got):\n%s", diff)
	}
}

func TestEdit_ReportsSinkRejections(t *testing.T) {
	driver := &stubDriver{inputs: []string{"9000"}}
	r, err := New(WithPromptDriver(driver), WithTheme(Theme{ErrorPrefix: "! "}))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	rejection := &session.FieldErrors{Fields: map[string][]string{"/server/port": {"port in use"}}}
	sink := &recordingSink{err: rejection}
	sess := openSession(t, schema.ConfigSchema{Fields: []schema.Field{{
		Path:     "server.port",
		Value:    schema.Number(8124),
		Metadata: &schema.FieldMetadata{Label: "Port", Type: schema.FieldTypeNumber},
	}}}, sink)

	err = r.Edit(context.Background(), sess)
	var rejected *session.FieldErrors
	if !errors.As(err, &rejected) {
		t.Fatalf("expected FieldErrors, got %v", err)
	}
	if diff := cmp.Diff([]string{"! server.port: port in use"}, driver.infoMessages); diff != "" {
		t.Fatalf("info mismatch (-want +got):\n%s", diff)
	}
}

func TestEdit_ToggleMapUsesMultiSelect(t *testing.T) {
	driver := &stubDriver{multiIdx: [][]int{{1}}}
	r, err := New(WithPromptDriver(driver))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	sink := &recordingSink{}
	sess := openSession(t, schema.ConfigSchema{Fields: []schema.Field{{
		Path:  "modelToggles",
		Value: schema.Object(map[string]any{"piper:amy": true, "piper:joe": false, "sapi4:sam": true}),
		Metadata: &schema.FieldMetadata{
			Type:      schema.FieldTypeObject,
			Dynamic:   true,
			ValueType: "checkbox",
		},
	}}}, sink)

	if err := r.Edit(context.Background(), sess); err != nil {
		t.Fatalf("edit: %v", err)
	}

	if len(driver.multiCfg) != 1 {
		t.Fatalf("expected one multiselect prompt, got %d", len(driver.multiCfg))
	}
	if diff := cmp.Diff([]string{"piper:amy", "piper:joe", "sapi4:sam"}, driver.multiCfg[0].Options); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{0, 2}, driver.multiCfg[0].Checked); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}

	want := []write{{Path: "modelToggles", Value: map[string]any{"piper:amy": false, "piper:joe": true, "sapi4:sam": false}}}
	if diff := cmp.Diff(want, sink.writes); diff != "" {
		t.Fatalf("writes mismatch (-want +got):\n%s", diff)
	}
}

func TestEdit_UntypedFieldsEditAsJSON(t *testing.T) {
	driver := &stubDriver{textAreas: []string{"not json", `["en", "de"]`}}
	r, err := New(WithPromptDriver(driver))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	sink := &recordingSink{}
	sess := openSession(t, schema.ConfigSchema{Fields: []schema.Field{{
		Path:  "settings.languages",
		Value: schema.Opaque([]any{"en"}),
	}}}, sink)

	if err := r.Edit(context.Background(), sess); err != nil {
		t.Fatalf("edit: %v", err)
	}

	if len(driver.infoMessages) != 2 || driver.infoMessages[1] != "Settings saved." {
		t.Fatalf("expected one JSON warning and a save message, got %#v", driver.infoMessages)
	}
	want := []write{{Path: "settings.languages", Value: []any{"en", "de"}}}
	if diff := cmp.Diff(want, sink.writes); diff != "" {
		t.Fatalf("writes mismatch (-want +got):\n%s", diff)
	}
}

func TestEdit_AssignedWidgetOverridesType(t *testing.T) {
	registry := widgets.NewRegistry()
	registry.Assign("settings.notes", widgets.WidgetJSONEditor)

	driver := &stubDriver{textAreas: []string{`"hello"`}}
	r, err := New(WithPromptDriver(driver), WithWidgets(registry))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	sink := &recordingSink{}
	sess := openSession(t, schema.ConfigSchema{Fields: []schema.Field{{
		Path:     "settings.notes",
		Value:    schema.Text(""),
		Metadata: &schema.FieldMetadata{Type: schema.FieldTypeText},
	}}}, sink)

	if err := r.Edit(context.Background(), sess); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if driver.textPos != 1 || driver.inputPos != 0 {
		t.Fatalf("expected textarea prompt, got textarea=%d input=%d", driver.textPos, driver.inputPos)
	}
	want := []write{{Path: "settings.notes", Value: "hello"}}
	if diff := cmp.Diff(want, sink.writes); diff != "" {
		t.Fatalf("writes mismatch (-want +got):\n%s", diff)
	}
}

func TestEdit_PropagatesDriverErrors(t *testing.T) {
	driver := &stubDriver{}
	r, err := New(WithPromptDriver(driver))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	sink := &recordingSink{}
	sess := openSession(t, testsupport.TTSSchema(), sink)

	if err := r.Edit(context.Background(), sess); err == nil {
		t.Fatalf("expected error when the driver has no scripted answers")
	}
	if len(sink.writes) != 0 {
		t.Fatalf("nothing should be saved after an aborted edit, got %#v", sink.writes)
	}
	if err := r.Edit(context.Background(), nil); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}

func TestPrint_ListsVisibleFields(t *testing.T) {
	driver := &stubDriver{}
	r, err := New(WithPromptDriver(driver))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	sess := openSession(t, testsupport.TTSSchema(), &recordingSink{})
	if _, err := sess.Set(testsupport.PathEngineKind, "sapi4"); err != nil {
		t.Fatalf("set: %v", err)
	}

	if err := r.Print(context.Background(), sess); err != nil {
		t.Fatalf("print: %v", err)
	}

	want := []string{
		"      Admin Key: ********",
		"      Enabled: true",
		"    Port: 8124",
		"  Volume: 80",
		"  Engine: sapi4",
		"    Model Path: /opt/piper/en_US.onnx (disabled)",
		"    Use GPU: false",
		`Model Toggles: {"piper":true,"sapi4":false}`,
	}
	if diff := cmp.Diff(want, driver.infoMessages); diff != "" {
		t.Fatalf("print mismatch (-want +got):\n%s", diff)
	}
}

func TestEdit_RejectsNonFiniteNumbers(t *testing.T) {
	driver := &stubDriver{inputs: []string{"NaN", "-Inf", "50"}}
	r, err := New(WithPromptDriver(driver))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	sink := &recordingSink{}
	sess := openSession(t, schema.ConfigSchema{Fields: []schema.Field{{
		Path: "settings.volume",
		Metadata: &schema.FieldMetadata{
			Label: "Volume",
			Type:  schema.FieldTypeNumber,
			Min:   testsupport.Float(0),
			Max:   testsupport.Float(100),
		},
	}}}, sink)

	if err := r.Edit(context.Background(), sess); err != nil {
		t.Fatalf("edit: %v", err)
	}

	wantInfo := []string{
		`Invalid Volume: "NaN" is not a number`,
		`Invalid Volume: "-Inf" is not a number`,
		"Settings saved.",
	}
	if diff := cmp.Diff(wantInfo, driver.infoMessages); diff != "" {
		t.Fatalf("info mismatch (-want +got):\n%s", diff)
	}
	want := []write{{Path: "settings.volume", Value: 50.0}}
	if diff := cmp.Diff(want, sink.writes); diff != "" {
		t.Fatalf("writes mismatch (-want +got):\n%s", diff)
	}
}

func TestPrint_AssignedSectionWithoutMetadata(t *testing.T) {
	registry := widgets.NewRegistry()
	registry.Assign("settings", widgets.WidgetSection)

	driver := &stubDriver{}
	r, err := New(WithPromptDriver(driver), WithWidgets(registry))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	sess := openSession(t, schema.ConfigSchema{Fields: []schema.Field{
		{Path: "settings", Value: schema.Object(map[string]any{"debug": true})},
		{Path: "settings.debug", Value: schema.Bool(true), Metadata: &schema.FieldMetadata{Label: "Debug", Type: schema.FieldTypeCheckbox}},
	}}, &recordingSink{})

	if err := r.Print(context.Background(), sess); err != nil {
		t.Fatalf("print: %v", err)
	}

	want := []string{"settings", "  Debug: true"}
	if diff := cmp.Diff(want, driver.infoMessages); diff != "" {
		t.Fatalf("print mismatch (-want +got):\n%s", diff)
	}
}
