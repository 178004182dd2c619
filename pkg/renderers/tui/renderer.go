// Package tui edits a settings session interactively in the terminal. Fields
// are prompted in schema order; visibility is re-read after every answer so
// fields revealed or disabled by earlier answers are handled as they come up.
package tui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-configform/pkg/schema"
	"github.com/goliatone/go-configform/pkg/session"
	"github.com/goliatone/go-configform/pkg/visibility/expr"
	"github.com/goliatone/go-configform/pkg/widgets"
)

// Renderer prompts for every visible, enabled field of a session.
type Renderer struct {
	driver       PromptDriver
	widgets      *widgets.Registry
	out          io.Writer
	theme        Theme
	showDisabled bool
}

// New constructs a TUI renderer backed by survey prompts unless a driver is
// supplied.
func New(options ...Option) (*Renderer, error) {
	r := &Renderer{showDisabled: true}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	if r.driver == nil {
		r.driver = newSurveyDriver(r.out)
	}
	if r.widgets == nil {
		r.widgets = widgets.NewRegistry()
	}
	return r, nil
}

// Edit walks the session fields, applies each answer with Session.Set and
// saves once every field has been visited. Answers rejected for type or
// constraint reasons are re-prompted. Save failures are reported per field
// and returned.
func (r *Renderer) Edit(ctx context.Context, sess *session.Session) error {
	if ctx == nil {
		return errors.New("tui: context is required")
	}
	if sess == nil {
		return ErrNoSession
	}

	for _, path := range fieldPaths(sess) {
		if err := ctx.Err(); err != nil {
			return err
		}
		view, err := sess.View(path)
		if err != nil {
			// Removed by a reload while editing.
			continue
		}
		if err := r.promptView(ctx, sess, view); err != nil {
			return err
		}
	}

	if err := sess.Save(ctx); err != nil {
		r.reportErrors(ctx, sess.MapErrors(err))
		return fmt.Errorf("tui: save: %w", err)
	}
	return r.info(ctx, "Settings saved.")
}

// Print writes every visible field with its current value.
func (r *Renderer) Print(ctx context.Context, sess *session.Session) error {
	if sess == nil {
		return ErrNoSession
	}
	for _, view := range sess.Views() {
		if !view.Visible {
			continue
		}
		line := fmt.Sprintf("%s%s: %s", indent(view.Field.Path), view.Field.Label(), displayValue(view.Field))
		if r.widgets.Resolve(view.Field) == widgets.WidgetSection && (view.Field.Metadata == nil || !view.Field.Metadata.Dynamic) {
			line = indent(view.Field.Path) + view.Field.Label()
		}
		if !view.Enabled {
			line += " (disabled)"
		}
		if err := r.driver.Info(ctx, line); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) promptView(ctx context.Context, sess *session.Session, view session.FieldView) error {
	if !view.Visible {
		return nil
	}
	field := view.Field
	widget := r.widgets.Resolve(field)

	if widget == widgets.WidgetSection {
		return r.info(ctx, field.Label())
	}
	if !view.Enabled {
		if !r.showDisabled {
			return nil
		}
		return r.info(ctx, fmt.Sprintf("%s: %s (disabled)", field.Label(), displayValue(field)))
	}

	for {
		answer, err := r.ask(ctx, widget, field)
		if err != nil {
			var invalid *invalidAnswer
			if errors.As(err, &invalid) {
				r.warn(ctx, field, invalid.Error())
				continue
			}
			return err
		}
		if expr.Equal(answer, field.Value.Interface()) && fieldFits(field) {
			return nil
		}

		update, err := sess.Set(field.Path, answer)
		if err != nil {
			return err
		}
		if update.Issue != nil {
			r.warn(ctx, field, issueMessage(update.Issue))
			field = update.Field
			continue
		}
		return nil
	}
}

// invalidAnswer marks input the renderer could not turn into a value.
type invalidAnswer struct {
	msg string
}

func (e *invalidAnswer) Error() string { return e.msg }

func (r *Renderer) ask(ctx context.Context, widget string, field schema.Field) (any, error) {
	meta := field.Metadata
	if meta == nil {
		meta = &schema.FieldMetadata{}
	}
	label := r.theme.PromptPrefix + field.Label()
	help := meta.Description

	switch widget {
	case widgets.WidgetToggle:
		current, _ := field.Value.Bool()
		return r.driver.Confirm(ctx, ConfirmConfig{Message: label, Default: current, Help: help})

	case widgets.WidgetNumber:
		input, err := r.driver.Input(ctx, InputConfig{
			Message:     label,
			Default:     defaultText(field.Value),
			Help:        help,
			Placeholder: meta.Placeholder,
			Validator:   numberValidator(meta.Required),
		})
		if err != nil {
			return nil, err
		}
		return parseNumber(input, meta.Required)

	case widgets.WidgetSecret:
		input, err := r.driver.Password(ctx, InputConfig{Message: label, Help: help})
		if err != nil {
			return nil, err
		}
		if input == "" {
			// Keep the stored secret when nothing was typed.
			if current, _ := field.Value.Interface().(string); current != "" || !meta.Required {
				return current, nil
			}
			return nil, &invalidAnswer{msg: "a value is required"}
		}
		return input, nil

	case widgets.WidgetSelect:
		return r.askOption(ctx, field, label, help)

	case widgets.WidgetToggleMap:
		return r.askToggles(ctx, field, label, help)

	case widgets.WidgetPath:
		if help == "" && meta.PathType != "" {
			help = fmt.Sprintf("Path to a %s", meta.PathType)
		}
		return r.askText(ctx, field, label, help, meta.Required)

	case widgets.WidgetText:
		return r.askText(ctx, field, label, help, meta.Required)

	default:
		return r.askJSON(ctx, field, label, help)
	}
}

func (r *Renderer) askText(ctx context.Context, field schema.Field, label, help string, required bool) (any, error) {
	placeholder := ""
	if field.Metadata != nil {
		placeholder = field.Metadata.Placeholder
	}
	input, err := r.driver.Input(ctx, InputConfig{
		Message:     label,
		Default:     defaultText(field.Value),
		Help:        help,
		Placeholder: placeholder,
	})
	if err != nil {
		return nil, err
	}
	if required && strings.TrimSpace(input) == "" {
		return nil, &invalidAnswer{msg: "a value is required"}
	}
	return input, nil
}

func (r *Renderer) askOption(ctx context.Context, field schema.Field, label, help string) (any, error) {
	options := field.Metadata.Options
	labels := make([]string, len(options))
	defaultIdx := -1
	current := field.Value.Interface()
	for i, opt := range options {
		labels[i] = opt.Label
		if labels[i] == "" {
			labels[i] = fmt.Sprint(opt.Value)
		}
		if defaultIdx < 0 && fmt.Sprint(opt.Value) == fmt.Sprint(current) {
			defaultIdx = i
		}
	}

	idx, err := r.driver.Select(ctx, SelectConfig{
		Message: label,
		Options: labels,
		Current: defaultIdx,
		Help:    help,
	})
	if err != nil {
		return nil, err
	}
	if idx < 0 || idx >= len(options) {
		return nil, &invalidAnswer{msg: "invalid selection"}
	}
	return options[idx].Value, nil
}

// askToggles edits a dynamic map of booleans as a multi-select over its keys.
func (r *Renderer) askToggles(ctx context.Context, field schema.Field, label, help string) (any, error) {
	current, _ := field.Value.Object()
	keys := make([]string, 0, len(current))
	for key := range current {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	if len(keys) == 0 {
		return current, r.info(ctx, fmt.Sprintf("%s: nothing to toggle", field.Label()))
	}

	var defaults []int
	for i, key := range keys {
		if on, _ := current[key].(bool); on {
			defaults = append(defaults, i)
		}
	}

	indices, err := r.driver.MultiSelect(ctx, SelectConfig{
		Message: label,
		Options: keys,
		Checked: defaults,
		Help:    help,
	})
	if err != nil {
		return nil, err
	}

	selected := make(map[int]struct{}, len(indices))
	for _, idx := range indices {
		selected[idx] = struct{}{}
	}
	out := make(map[string]any, len(keys))
	for i, key := range keys {
		_, on := selected[i]
		out[key] = on
	}
	return out, nil
}

// askJSON edits values without a dedicated widget as JSON text.
func (r *Renderer) askJSON(ctx context.Context, field schema.Field, label, help string) (any, error) {
	encoded, err := json.MarshalIndent(field.Value, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("tui: encode %s: %w", field.Path, err)
	}
	input, err := r.driver.TextArea(ctx, TextAreaConfig{
		Message: label,
		Default: string(encoded),
		Help:    help,
	})
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input) == "" {
		return nil, nil
	}
	var out any
	if err := json.Unmarshal([]byte(input), &out); err != nil {
		return nil, &invalidAnswer{msg: fmt.Sprintf("invalid JSON: %v", err)}
	}
	return out, nil
}

func (r *Renderer) reportErrors(ctx context.Context, mapping session.ErrorMapping) {
	paths := make([]string, 0, len(mapping.Fields))
	for path := range mapping.Fields {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		for _, msg := range mapping.Fields[path] {
			_ = r.driver.Info(ctx, fmt.Sprintf("%s%s: %s", r.theme.ErrorPrefix, path, msg))
		}
	}
	for _, msg := range mapping.Form {
		_ = r.driver.Info(ctx, r.theme.ErrorPrefix+msg)
	}
}

func (r *Renderer) info(ctx context.Context, msg string) error {
	return r.driver.Info(ctx, r.theme.InfoPrefix+msg)
}

func (r *Renderer) warn(ctx context.Context, field schema.Field, msg string) {
	_ = r.driver.Info(ctx, fmt.Sprintf("%sInvalid %s: %s", r.theme.ErrorPrefix, field.Label(), msg))
}

// fieldFits reports whether the stored value is already acceptable, so an
// unchanged answer can be skipped without marking the field dirty.
func fieldFits(field schema.Field) bool {
	return field.Value.Kind() != schema.KindOpaque || !field.Type().Known()
}

func fieldPaths(sess *session.Session) []string {
	views := sess.Views()
	out := make([]string, 0, len(views))
	for _, view := range views {
		out = append(out, view.Field.Path)
	}
	return out
}

// issueMessage strips the path prefix from recoverable model errors.
func issueMessage(err error) string {
	var verr *schema.ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}
	var terr *schema.TypeMismatchError
	if errors.As(err, &terr) {
		return fmt.Sprintf("expected a %s value", terr.Want)
	}
	return err.Error()
}

func numberValidator(required bool) func(string) error {
	return func(input string) error {
		_, err := parseNumber(input, required)
		return err
	}
}

func parseNumber(input string, required bool) (any, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		if required {
			return nil, &invalidAnswer{msg: "a value is required"}
		}
		return nil, nil
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, &invalidAnswer{msg: fmt.Sprintf("%q is not a number", trimmed)}
	}
	return f, nil
}

func defaultText(v schema.Value) string {
	switch v.Kind() {
	case schema.KindNull:
		return ""
	case schema.KindText, schema.KindPath:
		s, _ := v.Interface().(string)
		return s
	default:
		return fmt.Sprint(v.Interface())
	}
}

func displayValue(field schema.Field) string {
	if field.Type() == schema.FieldTypePassword {
		if field.Value.IsEmpty() {
			return "(not set)"
		}
		return "********"
	}
	if field.Value.IsNull() {
		return "(not set)"
	}
	if obj, ok := field.Value.Object(); ok {
		encoded, err := json.Marshal(obj)
		if err == nil {
			return string(encoded)
		}
	}
	return defaultText(field.Value)
}

func indent(path string) string {
	return strings.Repeat("  ", strings.Count(path, "."))
}
