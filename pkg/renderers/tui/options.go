package tui

import (
	"io"

	"github.com/goliatone/go-configform/pkg/widgets"
)

// Theme holds plain-text prefixes for prompt labels, info lines and error
// lines.
type Theme struct {
	PromptPrefix string
	InfoPrefix   string
	ErrorPrefix  string
}

// Option configures the TUI renderer.
type Option func(*Renderer)

// WithPromptDriver overrides the prompt driver used by the renderer.
func WithPromptDriver(driver PromptDriver) Option {
	return func(r *Renderer) {
		if driver != nil {
			r.driver = driver
		}
	}
}

// WithOutput sets where the default driver prints informational messages.
// Ignored when a custom driver is supplied.
func WithOutput(out io.Writer) Option {
	return func(r *Renderer) {
		r.out = out
	}
}

// WithTheme applies optional message prefixes.
func WithTheme(theme Theme) Option {
	return func(r *Renderer) {
		r.theme = theme
	}
}

// WithShowDisabled controls whether disabled fields are reported as
// read-only lines. Defaults to true.
func WithShowDisabled(show bool) Option {
	return func(r *Renderer) {
		r.showDisabled = show
	}
}

// WithWidgets overrides the registry that picks a prompt for each field.
func WithWidgets(registry *widgets.Registry) Option {
	return func(r *Renderer) {
		if registry != nil {
			r.widgets = registry
		}
	}
}
