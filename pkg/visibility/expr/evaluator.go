// Package expr implements the default rule-string evaluator for field
// visibility. Rules are tiny boolean expressions over the working draft:
//
//	enabled
//	status == 1
//	kind != 'dir' && parent == null
//	level >= 2 || override
//
// Identifiers read the field's current value by key. Number literals coerce
// both sides (so "1", 1, and 1.0 compare equal), while quoted literals
// compare as strings and never match non-string values. Bare identifiers are
// truthy checks, and !, &&, || with parentheses compose them.
package expr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-formengine/pkg/values"
)

// Evaluator is the default visibility.Evaluator implementation. It is
// stateless and safe for concurrent use.
type Evaluator struct{}

// New returns an Evaluator.
func New() *Evaluator { return &Evaluator{} }

// Eval parses and evaluates the rule against the current values. An empty
// rule is visible by default.
func (e *Evaluator) Eval(fieldKey, rule string, vals values.Map) (bool, error) {
	_ = fieldKey
	trimmed := strings.TrimSpace(rule)
	if trimmed == "" {
		return true, nil
	}
	node, err := parse(trimmed)
	if err != nil {
		return false, err
	}
	if node == nil {
		return true, nil
	}
	return node.eval(vals)
}

type tokKind int

const (
	tokInvalid tokKind = iota
	tokIdent
	tokString
	tokNumber
	tokBool
	tokNull
	tokEq
	tokNeq
	tokLt
	tokLte
	tokGt
	tokGte
	tokAnd
	tokOr
	tokNot
	tokLParen
	tokRParen
)

type tok struct {
	kind tokKind
	raw  string
}

func lex(input string) ([]tok, error) {
	var out []tok
	i := 0
	for i < len(input) {
		ch := input[i]
		switch {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			i++
		case ch == '(':
			out = append(out, tok{tokLParen, "("})
			i++
		case ch == ')':
			out = append(out, tok{tokRParen, ")"})
			i++
		case ch == '!':
			if i+1 < len(input) && input[i+1] == '=' {
				out = append(out, tok{tokNeq, "!="})
				i += 2
			} else {
				out = append(out, tok{tokNot, "!"})
				i++
			}
		case ch == '=':
			if i+1 >= len(input) || input[i+1] != '=' {
				return nil, errors.New("expr: unexpected '='; use '=='")
			}
			out = append(out, tok{tokEq, "=="})
			i += 2
		case ch == '<':
			if i+1 < len(input) && input[i+1] == '=' {
				out = append(out, tok{tokLte, "<="})
				i += 2
			} else {
				out = append(out, tok{tokLt, "<"})
				i++
			}
		case ch == '>':
			if i+1 < len(input) && input[i+1] == '=' {
				out = append(out, tok{tokGte, ">="})
				i += 2
			} else {
				out = append(out, tok{tokGt, ">"})
				i++
			}
		case ch == '&':
			if i+1 >= len(input) || input[i+1] != '&' {
				return nil, errors.New("expr: unexpected '&'; use '&&'")
			}
			out = append(out, tok{tokAnd, "&&"})
			i += 2
		case ch == '|':
			if i+1 >= len(input) || input[i+1] != '|' {
				return nil, errors.New("expr: unexpected '|'; use '||'")
			}
			out = append(out, tok{tokOr, "||"})
			i += 2
		case ch == '"' || ch == '\'':
			lit, width, err := lexString(input[i:])
			if err != nil {
				return nil, err
			}
			out = append(out, tok{tokString, lit})
			i += width
		default:
			raw, width := lexWord(input[i:])
			if raw == "" {
				return nil, fmt.Errorf("expr: unexpected character %q", ch)
			}
			out = append(out, classifyWord(raw))
			i += width
		}
	}
	return out, nil
}

func lexString(input string) (string, int, error) {
	quote := input[0]
	var b strings.Builder
	i := 1
	for i < len(input) {
		c := input[i]
		if c == '\\' && i+1 < len(input) {
			b.WriteByte(input[i+1])
			i += 2
			continue
		}
		if c == quote {
			return b.String(), i + 1, nil
		}
		b.WriteByte(c)
		i++
	}
	return "", 0, errors.New("expr: unterminated string literal")
}

func lexWord(input string) (string, int) {
	i := 0
	for i < len(input) {
		c := input[i]
		if strings.IndexByte(" \t\n\r()!=<>&|", c) >= 0 {
			break
		}
		i++
	}
	return input[:i], i
}

func classifyWord(raw string) tok {
	switch strings.ToLower(raw) {
	case "true", "false":
		return tok{tokBool, strings.ToLower(raw)}
	case "null", "nil":
		return tok{tokNull, "null"}
	}
	if c := raw[0]; (c >= '0' && c <= '9') || c == '-' || c == '+' {
		return tok{tokNumber, raw}
	}
	return tok{tokIdent, raw}
}

// node is the parsed expression tree, evaluated against a values map.
type node interface {
	eval(vals values.Map) (bool, error)
}

type binary struct {
	or          bool
	left, right node
}

func (n binary) eval(vals values.Map) (bool, error) {
	ok, err := n.left.eval(vals)
	if err != nil {
		return false, err
	}
	if n.or == ok {
		return ok, nil
	}
	return n.right.eval(vals)
}

type negate struct{ inner node }

func (n negate) eval(vals values.Map) (bool, error) {
	ok, err := n.inner.eval(vals)
	return !ok, err
}

type truthyCheck struct{ key string }

func (n truthyCheck) eval(vals values.Map) (bool, error) {
	return truthy(vals[n.key]), nil
}

type compare struct {
	key string
	op  tokKind
	lit tok
}

func (n compare) eval(vals values.Map) (bool, error) {
	value := vals[n.key]

	switch n.op {
	case tokLt, tokLte, tokGt, tokGte:
		want, err := strconv.ParseFloat(n.lit.raw, 64)
		if err != nil {
			return false, fmt.Errorf("expr: ordering comparison needs a number literal, got %q", n.lit.raw)
		}
		got, ok := asNumber(value)
		if !ok {
			return false, nil
		}
		switch n.op {
		case tokLt:
			return got < want, nil
		case tokLte:
			return got <= want, nil
		case tokGt:
			return got > want, nil
		default:
			return got >= want, nil
		}
	}

	var equal bool
	switch n.lit.kind {
	case tokNull:
		equal = value == nil
	case tokBool:
		equal = asBool(value) == (n.lit.raw == "true")
	case tokNumber:
		want, err := strconv.ParseFloat(n.lit.raw, 64)
		if err != nil {
			return false, fmt.Errorf("expr: invalid number literal %q", n.lit.raw)
		}
		got, ok := asNumber(value)
		equal = ok && got == want
	default:
		got, ok := asText(value)
		equal = ok && got == n.lit.raw
	}

	if n.op == tokNeq {
		return !equal, nil
	}
	return equal, nil
}

func parse(input string) (node, error) {
	tokens, err := lex(input)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, nil
	}
	p := &parser{tokens: tokens}
	root, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.tokens) {
		return nil, fmt.Errorf("expr: unexpected token %q", p.tokens[p.pos].raw)
	}
	return root, nil
}

type parser struct {
	tokens []tok
	pos    int
}

func (p *parser) parseOr() (node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.match(tokOr) {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = binary{or: true, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.match(tokAnd) {
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = binary{left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (node, error) {
	if p.match(tokNot) {
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return negate{inner: inner}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (node, error) {
	if p.match(tokLParen) {
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if !p.match(tokRParen) {
			return nil, errors.New("expr: missing closing ')'")
		}
		return inner, nil
	}

	if p.pos >= len(p.tokens) {
		return nil, errors.New("expr: empty expression")
	}
	ident := p.tokens[p.pos]
	if ident.kind != tokIdent {
		return nil, fmt.Errorf("expr: expected identifier, got %q", ident.raw)
	}
	p.pos++

	op := p.peekOp()
	if op == tokInvalid {
		return truthyCheck{key: ident.raw}, nil
	}
	p.pos++

	if p.pos >= len(p.tokens) {
		return nil, errors.New("expr: missing literal after operator")
	}
	lit := p.tokens[p.pos]
	switch lit.kind {
	case tokString, tokNumber, tokBool, tokNull:
	case tokIdent:
		// Bare words after an operator read as string literals, so
		// `kind == dir` works without quoting.
		lit.kind = tokString
	default:
		return nil, fmt.Errorf("expr: expected literal, got %q", lit.raw)
	}
	p.pos++

	return compare{key: ident.raw, op: op, lit: lit}, nil
}

func (p *parser) peekOp() tokKind {
	if p.pos >= len(p.tokens) {
		return tokInvalid
	}
	switch k := p.tokens[p.pos].kind; k {
	case tokEq, tokNeq, tokLt, tokLte, tokGt, tokGte:
		return k
	}
	return tokInvalid
}

func (p *parser) match(kind tokKind) bool {
	if p.pos >= len(p.tokens) || p.tokens[p.pos].kind != kind {
		return false
	}
	p.pos++
	return true
}

func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return strings.TrimSpace(v) != ""
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	}
	if n, ok := asNumber(value); ok {
		return n != 0
	}
	return true
}

func asBool(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		if err == nil {
			return parsed
		}
	}
	return truthy(value)
}

func asNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}

// asText reports the value as text only when it actually is text; string
// literals are type-sensitive, unlike number literals.
func asText(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	}
	return "", false
}
