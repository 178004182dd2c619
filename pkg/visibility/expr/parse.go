package expr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Clause is one `field == value` predicate.
type Clause struct {
	Field string
	Value any
}

// Parse converts a rule into its clauses. An empty rule yields no clauses.
func Parse(rule string) ([]Clause, error) {
	lx := &lexer{input: strings.TrimSpace(rule)}
	if lx.eof() {
		return nil, nil
	}

	var clauses []Clause
	for {
		clause, err := lx.clause()
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, clause)

		if lx.eof() {
			return clauses, nil
		}
		if !lx.accept("&&") {
			return nil, fmt.Errorf("expr: unexpected %q; clauses are joined with '&&'", lx.rest())
		}
	}
}

// lexer walks a rule left to right. Words run until whitespace or one of the
// operator and quote characters.
type lexer struct {
	input string
	pos   int
}

const stopChars = "()!=&|\"'"

func (lx *lexer) skipSpace() {
	for lx.pos < len(lx.input) && strings.IndexByte(" \t\r\n", lx.input[lx.pos]) >= 0 {
		lx.pos++
	}
}

func (lx *lexer) eof() bool {
	lx.skipSpace()
	return lx.pos >= len(lx.input)
}

func (lx *lexer) rest() string {
	return lx.input[lx.pos:]
}

func (lx *lexer) accept(op string) bool {
	lx.skipSpace()
	if strings.HasPrefix(lx.rest(), op) {
		lx.pos += len(op)
		return true
	}
	return false
}

func (lx *lexer) word() string {
	lx.skipSpace()
	start := lx.pos
	for lx.pos < len(lx.input) {
		c := lx.input[lx.pos]
		if strings.IndexByte(" \t\r\n", c) >= 0 || strings.IndexByte(stopChars, c) >= 0 {
			break
		}
		lx.pos++
	}
	return lx.input[start:lx.pos]
}

func (lx *lexer) clause() (Clause, error) {
	if lx.eof() {
		return Clause{}, errors.New("expr: missing field name")
	}
	field := lx.word()
	if field == "" || isKeyword(field) || looksNumeric(field) {
		return Clause{}, fmt.Errorf("expr: expected field name at %q", lx.rest())
	}
	if lx.eof() {
		return Clause{}, fmt.Errorf("expr: field %q has no comparison", field)
	}
	if !lx.accept("==") {
		return Clause{}, fmt.Errorf("expr: unsupported operator at %q after %q; only '==' is allowed", lx.rest(), field)
	}
	value, err := lx.literal()
	if err != nil {
		return Clause{}, err
	}
	return Clause{Field: field, Value: value}, nil
}

// literal reads a quoted string, bool, null, number or bare word. Bare words
// are strings so rules such as `engine == piper` stay readable.
func (lx *lexer) literal() (any, error) {
	if lx.eof() {
		return nil, errors.New("expr: missing literal")
	}
	if q := lx.input[lx.pos]; q == '"' || q == '\'' {
		return lx.quoted(q)
	}

	raw := lx.word()
	switch {
	case raw == "":
		return nil, fmt.Errorf("expr: expected literal at %q", lx.rest())
	case strings.EqualFold(raw, "true"):
		return true, nil
	case strings.EqualFold(raw, "false"):
		return false, nil
	case strings.EqualFold(raw, "null"), strings.EqualFold(raw, "nil"):
		return nil, nil
	case looksNumeric(raw):
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("expr: invalid number literal %q", raw)
		}
		return f, nil
	default:
		return raw, nil
	}
}

func (lx *lexer) quoted(quote byte) (string, error) {
	lx.pos++
	start := lx.pos
	for lx.pos < len(lx.input) {
		switch lx.input[lx.pos] {
		case '\\':
			lx.pos += 2
			continue
		case quote:
			body := lx.input[start:lx.pos]
			lx.pos++
			if quote == '\'' {
				body = singleToDouble(body)
			}
			s, err := strconv.Unquote(`"` + body + `"`)
			if err != nil {
				return "", fmt.Errorf("expr: invalid string literal: %w", err)
			}
			return s, nil
		}
		lx.pos++
	}
	return "", errors.New("expr: unterminated string literal")
}

// singleToDouble rewrites the body of a single-quoted literal so it can be
// unquoted as a double-quoted one. Escape pairs are copied whole, except \'
// which loses its backslash; bare double quotes gain one.
func singleToDouble(body string) string {
	var b strings.Builder
	for i := 0; i < len(body); i++ {
		switch c := body[i]; {
		case c == '\\' && i+1 < len(body):
			i++
			if body[i] != '\'' {
				b.WriteByte('\\')
			}
			b.WriteByte(body[i])
		case c == '"':
			b.WriteString(`\"`)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func isKeyword(word string) bool {
	switch strings.ToLower(word) {
	case "true", "false", "null", "nil":
		return true
	}
	return false
}

func looksNumeric(raw string) bool {
	return raw != "" && strings.IndexByte("0123456789+-", raw[0]) >= 0
}
