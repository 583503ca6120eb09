package filter

import (
	"fmt"
	"strings"
)

// Expression is a parsed filter expression over component properties.
// The syntax is a parenthesized boolean expression combining key=value
// terms with the operators & (and), | (or) and ! (not):
//
//	(env=prod)
//	(&(type=database)(env=prod))
//	(&(type=cache)(!(region=eu-*)))
//
// Values may use a leading or trailing * as a wildcard; a bare * matches
// any value, so (key=*) tests for presence of the key.
type Expression struct {
	kind     nodeKind
	key      string
	value    string
	children []*Expression
}

type nodeKind int

const (
	kindTerm nodeKind = iota
	kindAnd
	kindOr
	kindNot
)

// Term builds a single key=value term.
func Term(key, value string) *Expression {
	return &Expression{kind: kindTerm, key: key, value: value}
}

// And combines expressions with logical AND. Nil operands are skipped so
// callers can conjoin an optional user predicate with a fixed term without
// special-casing. A single remaining operand is returned as-is.
func And(exprs ...*Expression) *Expression {
	var kept []*Expression
	for _, e := range exprs {
		if e != nil {
			kept = append(kept, e)
		}
	}
	if len(kept) == 1 {
		return kept[0]
	}
	return &Expression{kind: kindAnd, children: kept}
}

// Or combines expressions with logical OR.
func Or(exprs ...*Expression) *Expression {
	return &Expression{kind: kindOr, children: exprs}
}

// Not negates an expression.
func Not(expr *Expression) *Expression {
	return &Expression{kind: kindNot, children: []*Expression{expr}}
}

// Parse parses a filter expression string. An empty string yields a nil
// expression, which matches everything.
func Parse(s string) (*Expression, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	p := &parser{input: s}
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.input) {
		return nil, fmt.Errorf("unexpected trailing input at position %d in %q", p.pos, s)
	}
	return expr, nil
}

// MustParse is like Parse but panics on a malformed expression. Intended
// for filter literals in tests and fixtures.
func MustParse(s string) *Expression {
	expr, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return expr
}

// Matches evaluates the expression against a property map. A nil
// expression matches everything.
func (e *Expression) Matches(props map[string]string) bool {
	if e == nil {
		return true
	}
	switch e.kind {
	case kindTerm:
		v, ok := props[e.key]
		if !ok {
			return false
		}
		return matchValue(e.value, v)
	case kindAnd:
		for _, c := range e.children {
			if !c.Matches(props) {
				return false
			}
		}
		return true
	case kindOr:
		for _, c := range e.children {
			if c.Matches(props) {
				return true
			}
		}
		return false
	case kindNot:
		return len(e.children) == 1 && !e.children[0].Matches(props)
	default:
		return false
	}
}

// String renders the expression back into its canonical parenthesized form.
func (e *Expression) String() string {
	if e == nil {
		return ""
	}
	switch e.kind {
	case kindTerm:
		return "(" + e.key + "=" + e.value + ")"
	case kindAnd:
		return "(&" + joinChildren(e.children) + ")"
	case kindOr:
		return "(|" + joinChildren(e.children) + ")"
	case kindNot:
		return "(!" + joinChildren(e.children) + ")"
	default:
		return ""
	}
}

func joinChildren(children []*Expression) string {
	var b strings.Builder
	for _, c := range children {
		b.WriteString(c.String())
	}
	return b.String()
}

// matchValue compares a pattern (possibly with * wildcards) to a value.
func matchValue(pattern, value string) bool {
	if pattern == "*" {
		return true
	}
	if !strings.Contains(pattern, "*") {
		return pattern == value
	}
	parts := strings.Split(pattern, "*")
	// Anchor the first and last segments, scan the middle ones in order.
	if !strings.HasPrefix(value, parts[0]) {
		return false
	}
	value = value[len(parts[0]):]
	last := parts[len(parts)-1]
	if !strings.HasSuffix(value, last) {
		return false
	}
	value = value[:len(value)-len(last)]
	for _, mid := range parts[1 : len(parts)-1] {
		if mid == "" {
			continue
		}
		idx := strings.Index(value, mid)
		if idx < 0 {
			return false
		}
		value = value[idx+len(mid):]
	}
	return true
}

// parser is a minimal recursive-descent parser for the filter grammar.
type parser struct {
	input string
	pos   int
}

func (p *parser) parseExpression() (*Expression, error) {
	if err := p.expect('('); err != nil {
		return nil, err
	}
	if p.pos >= len(p.input) {
		return nil, fmt.Errorf("unterminated expression in %q", p.input)
	}

	var expr *Expression
	var err error
	switch p.input[p.pos] {
	case '&':
		p.pos++
		expr, err = p.parseChildren(kindAnd)
	case '|':
		p.pos++
		expr, err = p.parseChildren(kindOr)
	case '!':
		p.pos++
		var child *Expression
		child, err = p.parseExpression()
		if err == nil {
			expr = Not(child)
		}
	default:
		expr, err = p.parseTerm()
	}
	if err != nil {
		return nil, err
	}
	if err := p.expect(')'); err != nil {
		return nil, err
	}
	return expr, nil
}

func (p *parser) parseChildren(kind nodeKind) (*Expression, error) {
	var children []*Expression
	for p.pos < len(p.input) && p.input[p.pos] == '(' {
		child, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	if len(children) == 0 {
		return nil, fmt.Errorf("operator without operands at position %d in %q", p.pos, p.input)
	}
	return &Expression{kind: kind, children: children}, nil
}

func (p *parser) parseTerm() (*Expression, error) {
	start := p.pos
	eq := -1
	for p.pos < len(p.input) && p.input[p.pos] != ')' {
		if p.input[p.pos] == '=' && eq < 0 {
			eq = p.pos
		}
		p.pos++
	}
	if eq < 0 {
		return nil, fmt.Errorf("term without '=' at position %d in %q", start, p.input)
	}
	key := strings.TrimSpace(p.input[start:eq])
	value := strings.TrimSpace(p.input[eq+1 : p.pos])
	if key == "" {
		return nil, fmt.Errorf("term with empty key at position %d in %q", start, p.input)
	}
	return Term(key, value), nil
}

func (p *parser) expect(c byte) error {
	if p.pos >= len(p.input) || p.input[p.pos] != c {
		return fmt.Errorf("expected %q at position %d in %q", string(c), p.pos, p.input)
	}
	p.pos++
	return nil
}
