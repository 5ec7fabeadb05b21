package domain

import (
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

// MarkerEnv is the target environment environment markers are evaluated against.
type MarkerEnv struct {
	PythonVersion                string
	PythonFullVersion            string
	SysPlatform                  string
	PlatformSystem               string
	OSName                       string
	PlatformMachine              string
	ImplementationName           string
	PlatformPythonImplementation string
	Extras                       []string
}

// WithExtras returns a copy of e in which the given extras are active.
func (e MarkerEnv) WithExtras(extras []string) MarkerEnv {
	e.Extras = slices.Clone(extras)
	return e
}

func (e MarkerEnv) lookup(name string) (string, bool) {
	switch name {
	case "python_version":
		return e.PythonVersion, true
	case "python_full_version", "implementation_version":
		return e.PythonFullVersion, true
	case "platform_release", "platform_version":
		return "", true
	case "sys_platform":
		return e.SysPlatform, true
	case "platform_system":
		return e.PlatformSystem, true
	case "os_name":
		return e.OSName, true
	case "platform_machine":
		return e.PlatformMachine, true
	case "implementation_name":
		return e.ImplementationName, true
	case "platform_python_implementation":
		return e.PlatformPythonImplementation, true
	}
	return "", false
}

var versionMarkers = map[string]bool{
	"python_version":      true,
	"python_full_version": true,
}

// Marker is a parsed environment marker such as `python_version < "3.11" and sys_platform == "linux"`.
// The zero value always evaluates to true.
type Marker struct {
	root markerNode
	raw  string
}

type markerNode interface {
	eval(env MarkerEnv) bool
}

type markerAnd []markerNode

func (n markerAnd) eval(env MarkerEnv) bool {
	for _, c := range n {
		if !c.eval(env) {
			return false
		}
	}
	return true
}

type markerOr []markerNode

func (n markerOr) eval(env MarkerEnv) bool {
	for _, c := range n {
		if c.eval(env) {
			return true
		}
	}
	return false
}

type markerOperand struct {
	variable string
	literal  string
}

type markerCompare struct {
	left, right markerOperand
	op          string
}

func (n markerCompare) eval(env MarkerEnv) bool {
	if n.left.variable == "extra" || n.right.variable == "extra" {
		return n.evalExtra(env)
	}

	left, right := n.resolve(n.left, env), n.resolve(n.right, env)
	switch n.op {
	case "in":
		return strings.Contains(right, left)
	case "not in":
		return !strings.Contains(right, left)
	}

	if versionMarkers[n.left.variable] || versionMarkers[n.right.variable] {
		if ok, matched := compareAsVersions(left, n.op, right); ok {
			return matched
		}
	}

	switch n.op {
	case "==", "===":
		return left == right
	case "!=":
		return left != right
	case "<":
		return left < right
	case "<=":
		return left <= right
	case ">":
		return left > right
	case ">=":
		return left >= right
	}
	return false
}

func (n markerCompare) evalExtra(env MarkerEnv) bool {
	value := n.left.literal
	if n.left.variable == "extra" {
		value = n.right.literal
	}
	active := slices.Contains(env.Extras, NormalizeName(value))
	if n.op == "!=" || n.op == "not in" {
		return !active
	}
	return active
}

func (n markerCompare) resolve(o markerOperand, env MarkerEnv) string {
	if o.variable == "" {
		return o.literal
	}
	v, _ := env.lookup(o.variable)
	return v
}

func compareAsVersions(left, op, right string) (ok, matched bool) {
	lv, err := ParseVersion(left)
	if err != nil {
		return false, false
	}
	spec, err := ParseSpecifier(op + right)
	if err != nil {
		return false, false
	}
	return true, spec.Allows(lv)
}

// ParseMarker parses an environment marker expression.
func ParseMarker(s string) (Marker, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Marker{}, nil
	}

	tokens, err := tokenizeMarker(s)
	if err != nil {
		return Marker{}, zerr.With(err, "marker", s)
	}

	p := &markerParser{tokens: tokens}
	root, err := p.parseOr()
	if err != nil {
		return Marker{}, zerr.With(err, "marker", s)
	}
	if p.pos != len(p.tokens) {
		return Marker{}, zerr.With(zerr.Wrap(ErrInvalidMarker, "unexpected trailing input"), "marker", s)
	}
	return Marker{root: root, raw: s}, nil
}

// Evaluate reports whether the marker holds in env.
func (m Marker) Evaluate(env MarkerEnv) bool {
	if m.root == nil {
		return true
	}
	return m.root.eval(env)
}

// IsEmpty reports whether the marker has no expression.
func (m Marker) IsEmpty() bool {
	return m.root == nil
}

// String returns the marker text.
func (m Marker) String() string {
	return m.raw
}

type markerToken struct {
	kind  string // "(", ")", "op", "str", "ident"
	value string
}

func tokenizeMarker(s string) ([]markerToken, error) {
	var tokens []markerToken
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c == '(' || c == ')':
			tokens = append(tokens, markerToken{kind: string(c)})
			i++
		case c == '"' || c == '\'':
			end := strings.IndexByte(s[i+1:], c)
			if end < 0 {
				return nil, zerr.Wrap(ErrInvalidMarker, "unterminated string")
			}
			tokens = append(tokens, markerToken{kind: "str", value: s[i+1 : i+1+end]})
			i += end + 2
		case strings.IndexByte("<>=!~", c) >= 0:
			j := i
			for j < len(s) && strings.IndexByte("<>=!~", s[j]) >= 0 {
				j++
			}
			tokens = append(tokens, markerToken{kind: "op", value: s[i:j]})
			i = j
		case isIdentByte(c):
			j := i
			for j < len(s) && isIdentByte(s[j]) {
				j++
			}
			tokens = append(tokens, markerToken{kind: "ident", value: s[i:j]})
			i = j
		default:
			return nil, zerr.With(zerr.Wrap(ErrInvalidMarker, "unexpected character"), "char", string(c))
		}
	}
	return tokens, nil
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '.' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

type markerParser struct {
	tokens []markerToken
	pos    int
}

func (p *markerParser) peek() (markerToken, bool) {
	if p.pos >= len(p.tokens) {
		return markerToken{}, false
	}
	return p.tokens[p.pos], true
}

func (p *markerParser) parseOr() (markerNode, error) {
	first, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	nodes := markerOr{first}
	for {
		tok, ok := p.peek()
		if !ok || tok.kind != "ident" || tok.value != "or" {
			break
		}
		p.pos++
		next, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, next)
	}
	if len(nodes) == 1 {
		return first, nil
	}
	return nodes, nil
}

func (p *markerParser) parseAnd() (markerNode, error) {
	first, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	nodes := markerAnd{first}
	for {
		tok, ok := p.peek()
		if !ok || tok.kind != "ident" || tok.value != "and" {
			break
		}
		p.pos++
		next, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, next)
	}
	if len(nodes) == 1 {
		return first, nil
	}
	return nodes, nil
}

func (p *markerParser) parseAtom() (markerNode, error) {
	tok, ok := p.peek()
	if !ok {
		return nil, zerr.Wrap(ErrInvalidMarker, "unexpected end of marker")
	}
	if tok.kind == "(" {
		p.pos++
		node, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if closing, ok := p.peek(); !ok || closing.kind != ")" {
			return nil, zerr.Wrap(ErrInvalidMarker, "missing closing parenthesis")
		}
		p.pos++
		return node, nil
	}

	left, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	op, err := p.parseOp()
	if err != nil {
		return nil, err
	}
	right, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	return markerCompare{left: left, op: op, right: right}, nil
}

func (p *markerParser) parseOperand() (markerOperand, error) {
	tok, ok := p.peek()
	if !ok {
		return markerOperand{}, zerr.Wrap(ErrInvalidMarker, "expected a variable or string")
	}
	switch tok.kind {
	case "str":
		p.pos++
		return markerOperand{literal: tok.value}, nil
	case "ident":
		if tok.value == "extra" {
			p.pos++
			return markerOperand{variable: tok.value}, nil
		}
		if _, known := (MarkerEnv{}).lookup(tok.value); known {
			p.pos++
			return markerOperand{variable: tok.value}, nil
		}
		return markerOperand{}, zerr.With(zerr.Wrap(ErrInvalidMarker, "unknown marker variable"), "variable", tok.value)
	}
	return markerOperand{}, zerr.Wrap(ErrInvalidMarker, "expected a variable or string")
}

func (p *markerParser) parseOp() (string, error) {
	tok, ok := p.peek()
	if !ok {
		return "", zerr.Wrap(ErrInvalidMarker, "expected an operator")
	}
	switch {
	case tok.kind == "op" && slices.Contains(specifierOps, tok.value):
		p.pos++
		return tok.value, nil
	case tok.kind == "ident" && tok.value == "in":
		p.pos++
		return "in", nil
	case tok.kind == "ident" && tok.value == "not":
		p.pos++
		if next, ok := p.peek(); ok && next.kind == "ident" && next.value == "in" {
			p.pos++
			return "not in", nil
		}
	}
	return "", zerr.With(zerr.Wrap(ErrInvalidMarker, "expected an operator"), "token", tok.value)
}
