package schema

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no field has the requested path.
	ErrNotFound = errors.New("schema: field not found")
	// ErrTypeMismatch matches every *TypeMismatchError.
	ErrTypeMismatch = errors.New("schema: type mismatch")
	// ErrValidation matches every *ValidationError.
	ErrValidation = errors.New("schema: validation failed")
	// ErrDanglingCondition matches every *DanglingConditionError.
	ErrDanglingCondition = errors.New("schema: dangling condition")
	// ErrDuplicatePath is returned when two fields share a path.
	ErrDuplicatePath = errors.New("schema: duplicate field path")
	// ErrEmptyPath is returned for fields without a path.
	ErrEmptyPath = errors.New("schema: empty field path")
)

// Validation rule identifiers carried by ValidationError.Rule.
const (
	RuleMin      = "min"
	RuleMax      = "max"
	RuleOptions  = "options"
	RuleRequired = "required"
	RuleFinite   = "finite"
)

// TypeMismatchError reports a value whose shape disagrees with the declared
// field type.
type TypeMismatchError struct {
	Path string
	Want FieldType
	Got  string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("schema: field %q expects a %s value, got %s", e.Path, e.Want, e.Got)
}

func (e *TypeMismatchError) Is(target error) bool {
	return target == ErrTypeMismatch
}

// ValidationError reports a value that fails a declared constraint. Options
// lists the valid choices for dropdown failures.
type ValidationError struct {
	Path    string
	Rule    string
	Message string
	Options []Option
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("schema: field %q: %s", e.Path, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// DanglingConditionError reports a condition that references a field path
// missing from the schema.
type DanglingConditionError struct {
	Path      string
	Attribute string
	Target    string
}

func (e *DanglingConditionError) Error() string {
	return fmt.Sprintf("schema: field %q %s references unknown field %q", e.Path, e.Attribute, e.Target)
}

func (e *DanglingConditionError) Is(target error) bool {
	return target == ErrDanglingCondition
}

// Applied reports whether a SetValue call stored its value. It is true for a
// nil error and for the recoverable TypeMismatch and Validation errors.
func Applied(err error) bool {
	if err == nil {
		return true
	}
	return errors.Is(err, ErrTypeMismatch) || errors.Is(err, ErrValidation)
}

// NotFound wraps ErrNotFound with the offending path.
func NotFound(path string) error {
	return fmt.Errorf("%w: %q", ErrNotFound, path)
}
