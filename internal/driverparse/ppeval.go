package driverparse

import (
	"fmt"

	"github.com/natc-lang/natc/internal/ast"
	"github.com/natc-lang/natc/internal/lexer"
	"github.com/natc-lang/natc/internal/preprocess"
)

// This file compiles the raw text captured by the lexer's three
// preprocess forms (##, #[ ]#, #| |#) into ast.Fragment closures — the
// "(out-of-scope) parser" DESIGN.md's Open Question 1 defers to a
// stand-in. The pp mini-language is a strict subset of the main
// grammar: identifiers, literals, `and`/`or`/`not`/`==`/`~=`, and calls
// to three recognized preprocessor functions
// (staticassert/static_error/injectnode); any other call, hygienize and
// afterinfer included, fails as an unknown preprocess function. It
// evaluates directly against *preprocess.Env rather than lowering to
// the main ast package, since pp fragments run, they aren't emitted.

// ppNode is one node of a compiled pp-fragment expression tree.
type ppNode interface {
	eval(env *preprocess.Env) (any, error)
}

type ppIdent struct{ name string }

func (n *ppIdent) eval(env *preprocess.Env) (any, error) {
	b, ok := env.Get(n.name)
	if !ok {
		return nil, fmt.Errorf("undefined name %q in preprocess fragment", n.name)
	}
	switch b.Kind {
	case preprocess.BindingSymbol:
		if b.Symbol.Value != nil {
			return b.Symbol.Value, nil
		}
		return b.Symbol.Type, nil
	case preprocess.BindingPragma:
		return b.Pragma, nil
	case preprocess.BindingType:
		return b.TypeVal, nil
	default:
		return b.Host, nil
	}
}

type ppLit struct{ value any }

func (n *ppLit) eval(*preprocess.Env) (any, error) { return n.value, nil }

type ppUnary struct {
	op      string
	operand ppNode
}

func (n *ppUnary) eval(env *preprocess.Env) (any, error) {
	v, err := n.operand.eval(env)
	if err != nil {
		return nil, err
	}
	switch n.op {
	case "not":
		b, _ := v.(bool)
		return !b, nil
	case "-":
		switch x := v.(type) {
		case int64:
			return -x, nil
		case float64:
			return -x, nil
		}
		return nil, fmt.Errorf("cannot negate %T", v)
	}
	return nil, fmt.Errorf("unsupported preprocess unary operator %q", n.op)
}

type ppBinary struct {
	op          string
	left, right ppNode
}

func (n *ppBinary) eval(env *preprocess.Env) (any, error) {
	l, err := n.left.eval(env)
	if err != nil {
		return nil, err
	}
	if n.op == "and" {
		if lb, ok := l.(bool); ok && !lb {
			return false, nil
		}
		return n.right.eval(env)
	}
	if n.op == "or" {
		if lb, ok := l.(bool); ok && lb {
			return true, nil
		}
		return n.right.eval(env)
	}
	r, err := n.right.eval(env)
	if err != nil {
		return nil, err
	}
	switch n.op {
	case "==":
		return ppEquals(l, r), nil
	case "~=":
		return !ppEquals(l, r), nil
	default:
		return nil, fmt.Errorf("unsupported preprocess operator %q", n.op)
	}
}

func ppEquals(a, b any) bool {
	return fmt.Sprintf("%#v", a) == fmt.Sprintf("%#v", b)
}

type ppCall struct {
	name string
	args []ppNode
}

func (n *ppCall) eval(env *preprocess.Env) (any, error) {
	args := make([]any, len(n.args))
	for i, a := range n.args {
		v, err := a.eval(env)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	switch n.name {
	case "staticassert":
		if len(args) == 0 {
			return nil, fmt.Errorf("staticassert requires a condition argument")
		}
		cond, _ := args[0].(bool)
		msg := "static assertion failed"
		var rest []any
		if len(args) > 1 {
			if s, ok := args[1].(string); ok {
				msg = s
			}
			rest = args[2:]
		}
		return nil, env.StaticAssert(cond, msg, rest...)
	case "static_error":
		msg := "static error"
		if len(args) > 0 {
			if s, ok := args[0].(string); ok {
				msg = s
			}
		}
		return nil, env.StaticError(msg)
	case "injectnode":
		for _, a := range args {
			if node, ok := a.(ast.Node); ok {
				env.InjectNode(node)
			}
		}
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown preprocess function %q", n.name)
	}
}

// ppParser is a small Pratt parser over the same token stream the main
// parser uses, producing ppNode trees instead of ast nodes.
type ppParser struct {
	l         *lexer.Lexer
	cur, peek lexer.Token
	errors    []string
}

func newPPParser(src string) *ppParser {
	p := &ppParser{l: lexer.New(src)}
	p.advance()
	p.advance()
	return p
}

func (p *ppParser) advance() {
	p.cur = p.peek
	p.peek = p.l.NextToken()
}

var ppPrecedences = map[lexer.TokenType]int{
	lexer.OR:  OR,
	lexer.AND: AND,
	lexer.EQ:  EQUALS,
	lexer.NEQ: EQUALS,
}

func (p *ppParser) peekPrecedence() int {
	if pr, ok := ppPrecedences[p.peek.Type]; ok {
		return pr
	}
	return LOWEST
}

func (p *ppParser) parseExpr(precedence int) ppNode {
	left := p.parsePrefix()
	for p.peek.Type != lexer.EOF && precedence < p.peekPrecedence() {
		op := p.peek.Literal
		p.advance()
		p.advance()
		right := p.parseExpr(ppPrecedences[tokenTypeFor(op)])
		left = &ppBinary{op: op, left: left, right: right}
	}
	return left
}

// tokenTypeFor recovers a binary operator's token type from its
// literal so parseExpr can look its precedence back up after having
// already consumed the token (the parser only keeps literals around).
func tokenTypeFor(op string) lexer.TokenType {
	switch op {
	case "and":
		return lexer.AND
	case "or":
		return lexer.OR
	case "==":
		return lexer.EQ
	case "~=":
		return lexer.NEQ
	default:
		return lexer.ILLEGAL
	}
}

func (p *ppParser) parsePrefix() ppNode {
	switch p.cur.Type {
	case lexer.IDENT:
		name := p.cur.Literal
		if p.peek.Type == lexer.LPAREN {
			return p.parseCall(name)
		}
		return &ppIdent{name: name}
	case lexer.INT:
		digits, _ := splitIntSuffix(p.cur.Literal)
		v, err := parseIntLiteral(digits)
		if err != nil {
			p.errors = append(p.errors, fmt.Sprintf("invalid integer literal %q", p.cur.Literal))
		}
		return &ppLit{value: v}
	case lexer.FLOAT:
		v, err := parseFloatLiteral(p.cur.Literal)
		if err != nil {
			p.errors = append(p.errors, fmt.Sprintf("invalid float literal %q", p.cur.Literal))
		}
		return &ppLit{value: v}
	case lexer.STRING:
		return &ppLit{value: p.cur.Literal}
	case lexer.TRUE:
		return &ppLit{value: true}
	case lexer.FALSE:
		return &ppLit{value: false}
	case lexer.NIL:
		return &ppLit{value: nil}
	case lexer.NOT:
		p.advance()
		return &ppUnary{op: "not", operand: p.parseExpr(PREFIX)}
	case lexer.MINUS:
		p.advance()
		return &ppUnary{op: "-", operand: p.parseExpr(PREFIX)}
	case lexer.LPAREN:
		p.advance()
		e := p.parseExpr(LOWEST)
		if p.peek.Type == lexer.RPAREN {
			p.advance()
		}
		return e
	default:
		p.errors = append(p.errors, fmt.Sprintf("unexpected token %s in preprocess fragment", p.cur.Type))
		return &ppLit{value: nil}
	}
}

func (p *ppParser) parseCall(name string) ppNode {
	p.advance() // (
	var args []ppNode
	if p.peek.Type != lexer.RPAREN {
		p.advance()
		args = append(args, p.parseExpr(LOWEST))
		for p.peek.Type == lexer.COMMA {
			p.advance()
			p.advance()
			args = append(args, p.parseExpr(LOWEST))
		}
	}
	if p.peek.Type == lexer.RPAREN {
		p.advance()
	}
	return &ppCall{name: name, args: args}
}

// parsePPStatements splits src on top-level `;` and parses each part
// as one expression — the pp mini-language has no control flow of its
// own, only a sequence of calls run for effect.
func parsePPStatements(src string) ([]ppNode, []string) {
	var nodes []ppNode
	var errs []string
	for _, part := range splitTopLevel(src, ';') {
		if trimmed := trimSpace(part); trimmed == "" {
			continue
		}
		p := newPPParser(part)
		nodes = append(nodes, p.parseExpr(LOWEST))
		errs = append(errs, p.errors...)
	}
	return nodes, errs
}

func splitTopLevel(s string, sep byte) []string {
	var out []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
		case sep:
			if depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	out = append(out, s[start:])
	return out
}

func trimSpace(s string) string {
	start, end := 0, len(s)
	for start < end && isSpace(s[start]) {
		start++
	}
	for end > start && isSpace(s[end-1]) {
		end--
	}
	return s[start:end]
}

func isSpace(b byte) bool { return b == ' ' || b == '\t' || b == '\n' || b == '\r' }

// CompileFragmentExpr compiles a `#[ ... ]#` expression-position
// directive's source text into an ast.Fragment.
func CompileFragmentExpr(src string) (ast.Fragment, error) {
	p := newPPParser(src)
	node := p.parseExpr(LOWEST)
	if len(p.errors) > 0 {
		return nil, fmt.Errorf("preprocess expression: %s", p.errors[0])
	}
	return func(env any) (any, error) {
		pe, ok := env.(*preprocess.Env)
		if !ok {
			return nil, fmt.Errorf("preprocess expression evaluated outside a preprocess.Env")
		}
		return node.eval(pe)
	}, nil
}

// CompileFragmentName compiles a `#| ... |#` identifier-position
// directive's source text into an ast.Fragment whose result is coerced
// to a string name.
func CompileFragmentName(src string) (ast.Fragment, error) {
	frag, err := CompileFragmentExpr(src)
	if err != nil {
		return nil, err
	}
	return func(env any) (any, error) {
		v, err := frag(env)
		if err != nil {
			return nil, err
		}
		if s, ok := v.(string); ok {
			return s, nil
		}
		return fmt.Sprintf("%v", v), nil
	}, nil
}

// CompileFragmentStmt compiles a `##` statement-position directive's
// source text (to end of line) into an ast.Fragment run for side
// effects only.
func CompileFragmentStmt(src string) (ast.Fragment, error) {
	nodes, errs := parsePPStatements(src)
	if len(errs) > 0 {
		return nil, fmt.Errorf("preprocess statement: %s", errs[0])
	}
	return func(env any) (any, error) {
		pe, ok := env.(*preprocess.Env)
		if !ok {
			return nil, fmt.Errorf("preprocess statement evaluated outside a preprocess.Env")
		}
		var last any
		for _, n := range nodes {
			v, err := n.eval(pe)
			if err != nil {
				return nil, err
			}
			last = v
		}
		return last, nil
	}, nil
}
