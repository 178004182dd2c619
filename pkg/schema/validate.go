package schema

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/goliatone/go-configform/pkg/visibility/expr"
)

// Validate checks every field for which include returns true (all fields when
// include is nil) against its declared type, required flag and constraints.
// Failures are joined; each is a *TypeMismatchError or *ValidationError.
func (m *Model) Validate(include func(path string) bool) error {
	if m == nil {
		return nil
	}
	var errs []error
	for _, field := range m.fields {
		if include != nil && !include(field.Path) {
			continue
		}
		if err := validateField(field); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func validateField(field Field) error {
	if field.Metadata == nil {
		return nil
	}
	if field.Metadata.Required && field.Value.IsEmpty() {
		return &ValidationError{Path: field.Path, Rule: RuleRequired, Message: "a value is required"}
	}
	if !fits(field.Type(), field.Value) {
		return &TypeMismatchError{Path: field.Path, Want: field.Type(), Got: field.Value.Kind().String()}
	}
	if verr := checkConstraints(field); verr != nil {
		return verr
	}
	return nil
}

// checkConstraints rejects non-finite numbers, applies min/max to numbers and
// option membership to dropdowns. Null values and dropdowns without options are not checked.
func checkConstraints(field Field) *ValidationError {
	meta := field.Metadata
	if meta == nil || field.Value.IsNull() {
		return nil
	}

	switch meta.Type {
	case FieldTypeNumber:
		n, ok := field.Value.Number()
		if !ok {
			return nil
		}
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return &ValidationError{
				Path:    field.Path,
				Rule:    RuleFinite,
				Message: fmt.Sprintf("value %s is not a finite number", formatNumber(n)),
			}
		}
		if meta.Min != nil && n < *meta.Min {
			return &ValidationError{
				Path:    field.Path,
				Rule:    RuleMin,
				Message: fmt.Sprintf("value %s is below the minimum of %s", formatNumber(n), formatNumber(*meta.Min)),
			}
		}
		if meta.Max != nil && n > *meta.Max {
			return &ValidationError{
				Path:    field.Path,
				Rule:    RuleMax,
				Message: fmt.Sprintf("value %s is above the maximum of %s", formatNumber(n), formatNumber(*meta.Max)),
			}
		}
	case FieldTypeDropdown:
		if len(meta.Options) == 0 {
			return nil
		}
		current := field.Value.Interface()
		for _, opt := range meta.Options {
			if expr.Equal(opt.Value, current) {
				return nil
			}
		}
		return &ValidationError{
			Path:    field.Path,
			Rule:    RuleOptions,
			Message: fmt.Sprintf("value %s is not one of the valid options: %s", field.Value, optionList(meta.Options)),
			Options: append([]Option(nil), meta.Options...),
		}
	}
	return nil
}

func optionList(options []Option) string {
	parts := make([]string, 0, len(options))
	for _, opt := range options {
		parts = append(parts, fmt.Sprint(opt.Value))
	}
	return strings.Join(parts, ", ")
}
