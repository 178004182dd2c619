// Package visibility derives whether each schema field is visible and enabled
// from its hideWhen/disableWhen conditions and keeps that state current as
// values change.
//
// The Engine indexes conditions in reverse (target path to dependent fields)
// when it is built. A value change recomputes only the direct dependents of
// the changed field, once: a dependent whose computed state flips does not
// trigger further recomputation because its own value did not change. This
// keeps each update bounded by the field's out-degree and makes cyclic
// condition chains harmless. Chains such as A hides on B, B hides on C are not
// followed transitively.
package visibility

import "github.com/goliatone/go-configform/pkg/visibility/expr"

// State is the derived presentation state of a field.
type State struct {
	Visible bool
	Enabled bool
}

// Matcher decides whether a field's current value satisfies a condition.
type Matcher interface {
	Match(current, want any) bool
}

// MatcherFunc adapts a function into a Matcher.
type MatcherFunc func(current, want any) bool

// Match delegates to the underlying function.
func (fn MatcherFunc) Match(current, want any) bool {
	return fn(current, want)
}

// DefaultMatcher compares values with expr.Equal.
var DefaultMatcher Matcher = MatcherFunc(expr.Equal)
