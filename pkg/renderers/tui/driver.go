package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// InputConfig describes a single-line answer. Placeholder is shown as help
// when Help is empty.
type InputConfig struct {
	Message     string
	Default     string
	Help        string
	Placeholder string
	Validator   func(string) error
}

// ConfirmConfig describes a yes/no answer.
type ConfirmConfig struct {
	Message string
	Default bool
	Help    string
}

// SelectConfig describes a choice among Options. Current preselects one
// option for Select; Checked preselects several for MultiSelect.
type SelectConfig struct {
	Message  string
	Options  []string
	Current  int
	Checked  []int
	Help     string
	PageSize int
}

// TextAreaConfig describes a multi-line answer, used for values edited as
// JSON.
type TextAreaConfig struct {
	Message string
	Default string
	Help    string
}

// PromptDriver is the terminal seam used by Renderer. Tests substitute a
// scripted driver.
type PromptDriver interface {
	Input(ctx context.Context, cfg InputConfig) (string, error)
	Password(ctx context.Context, cfg InputConfig) (string, error)
	Confirm(ctx context.Context, cfg ConfirmConfig) (bool, error)
	// Select returns the chosen index, or -1 when the answer matches no option.
	Select(ctx context.Context, cfg SelectConfig) (int, error)
	MultiSelect(ctx context.Context, cfg SelectConfig) ([]int, error)
	TextArea(ctx context.Context, cfg TextAreaConfig) (string, error)
	Info(ctx context.Context, msg string) error
}

type surveyDriver struct {
	out io.Writer
}

func newSurveyDriver(out io.Writer) PromptDriver {
	if out == nil {
		out = os.Stdout
	}
	return &surveyDriver{out: out}
}

// ask runs one survey prompt, mapping Ctrl-C to ErrAborted.
func (d *surveyDriver) ask(ctx context.Context, prompt survey.Prompt, answer any, opts ...survey.AskOpt) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := survey.AskOne(prompt, answer, opts...)
	if errors.Is(err, terminal.InterruptErr) {
		return ErrAborted
	}
	return err
}

func (d *surveyDriver) Input(ctx context.Context, cfg InputConfig) (string, error) {
	help := cfg.Help
	if help == "" {
		help = cfg.Placeholder
	}
	var answer string
	err := d.ask(ctx, &survey.Input{Message: cfg.Message, Help: help, Default: cfg.Default}, &answer, textValidation(cfg.Validator)...)
	return answer, err
}

func (d *surveyDriver) Password(ctx context.Context, cfg InputConfig) (string, error) {
	var answer string
	err := d.ask(ctx, &survey.Password{Message: cfg.Message, Help: cfg.Help}, &answer, textValidation(cfg.Validator)...)
	return answer, err
}

func (d *surveyDriver) Confirm(ctx context.Context, cfg ConfirmConfig) (bool, error) {
	var answer bool
	err := d.ask(ctx, &survey.Confirm{Message: cfg.Message, Help: cfg.Help, Default: cfg.Default}, &answer)
	return answer, err
}

func (d *surveyDriver) Select(ctx context.Context, cfg SelectConfig) (int, error) {
	prompt := &survey.Select{Message: cfg.Message, Options: cfg.Options, Help: cfg.Help, PageSize: cfg.PageSize}
	if cfg.Current >= 0 && cfg.Current < len(cfg.Options) {
		prompt.Default = cfg.Options[cfg.Current]
	}
	var answer string
	if err := d.ask(ctx, prompt, &answer); err != nil {
		return -1, err
	}
	return slices.Index(cfg.Options, answer), nil
}

func (d *surveyDriver) MultiSelect(ctx context.Context, cfg SelectConfig) ([]int, error) {
	prompt := &survey.MultiSelect{Message: cfg.Message, Options: cfg.Options, Help: cfg.Help, PageSize: cfg.PageSize}
	var checked []string
	for _, idx := range cfg.Checked {
		if idx >= 0 && idx < len(cfg.Options) {
			checked = append(checked, cfg.Options[idx])
		}
	}
	if len(checked) > 0 {
		prompt.Default = checked
	}

	var answer []string
	if err := d.ask(ctx, prompt, &answer); err != nil {
		return nil, err
	}
	var picked []int
	for i, option := range cfg.Options {
		if slices.Contains(answer, option) {
			picked = append(picked, i)
		}
	}
	return picked, nil
}

func (d *surveyDriver) TextArea(ctx context.Context, cfg TextAreaConfig) (string, error) {
	var answer string
	err := d.ask(ctx, &survey.Multiline{Message: cfg.Message, Help: cfg.Help, Default: cfg.Default}, &answer)
	return answer, err
}

func (d *surveyDriver) Info(ctx context.Context, msg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(d.out, msg)
	return err
}

// textValidation adapts a string check to survey's answer validator.
func textValidation(check func(string) error) []survey.AskOpt {
	if check == nil {
		return nil
	}
	return []survey.AskOpt{survey.WithValidator(func(ans interface{}) error {
		s, _ := ans.(string)
		return check(s)
	})}
}
