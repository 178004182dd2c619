package expr

import "testing"

func TestEqual(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		a, b any
		want bool
	}{
		{name: "nil nil", a: nil, b: nil, want: true},
		{name: "nil false", a: nil, b: false, want: false},
		{name: "bools", a: true, b: true, want: true},
		{name: "bool mismatch", a: true, b: false, want: false},
		{name: "int float", a: 3, b: float64(3), want: true},
		{name: "uint8 int64", a: uint8(7), b: int64(7), want: true},
		{name: "number string", a: 1, b: "1", want: false},
		{name: "string bool", a: "true", b: true, want: false},
		{name: "strings", a: "piper", b: "piper", want: true},
		{name: "maps", a: map[string]any{"a": 1, "b": "x"}, b: map[string]any{"b": "x", "a": float64(1)}, want: true},
		{name: "typed map", a: map[string]bool{"gpu": true}, b: map[string]any{"gpu": true}, want: true},
		{name: "map size", a: map[string]any{"a": 1}, b: map[string]any{"a": 1, "b": 2}, want: false},
		{name: "slices", a: []any{1, "x"}, b: []string{"1", "x"}, want: false},
		{name: "typed slices", a: []int{1, 2}, b: []any{float64(1), float64(2)}, want: true},
	}

	for _, tc := range cases {
		if got := Equal(tc.a, tc.b); got != tc.want {
			t.Errorf("%s: Equal(%v, %v) = %v, want %v", tc.name, tc.a, tc.b, got, tc.want)
		}
		if got := Equal(tc.b, tc.a); got != tc.want {
			t.Errorf("%s: Equal(%v, %v) = %v, want %v (reversed)", tc.name, tc.b, tc.a, got, tc.want)
		}
	}
}
