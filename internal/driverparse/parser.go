// Package driverparse is the minimal recursive-descent/Pratt parser
// that compiles token streams from internal/lexer into the typed AST
// of internal/ast. It is intentionally small: the surface grammar is
// Lua-shaped (local/function/if/while/return, infix operators, and
// Lua-style no-paren single-argument calls), just enough to drive the
// analyzer, preprocessor, and code generators end to end.
package driverparse

import (
	"fmt"

	"github.com/natc-lang/natc/internal/ast"
	"github.com/natc-lang/natc/internal/lexer"
	"github.com/natc-lang/natc/internal/registry"
)

// Precedence levels, lowest to highest.
const (
	_ int = iota
	LOWEST
	OR
	AND
	EQUALS
	LESSGREATER
	SUM
	PRODUCT
	PREFIX
	CALL
)

var precedences = map[lexer.TokenType]int{
	lexer.OR:      OR,
	lexer.AND:     AND,
	lexer.EQ:      EQUALS,
	lexer.NEQ:     EQUALS,
	lexer.LT:      LESSGREATER,
	lexer.LE:      LESSGREATER,
	lexer.GT:      LESSGREATER,
	lexer.GE:      LESSGREATER,
	lexer.PLUS:    SUM,
	lexer.MINUS:   SUM,
	lexer.STAR:    PRODUCT,
	lexer.SLASH:   PRODUCT,
	lexer.PERCENT: PRODUCT,
	lexer.LPAREN:  CALL,
	lexer.STRING:  CALL, // `print "hello"` — a bare string starts a no-paren call
}

type prefixParseFn func() ast.Expression
type infixParseFn func(ast.Expression) ast.Expression

// Parser turns a token stream into an *ast.Program.
type Parser struct {
	reg *registry.Registry
	l   *lexer.Lexer

	cur, peek lexer.Token
	errors    []string

	prefixFns map[lexer.TokenType]prefixParseFn
	infixFns  map[lexer.TokenType]infixParseFn
}

// New creates a Parser over source, registering nodes against reg.
func New(reg *registry.Registry, source string) *Parser {
	p := &Parser{reg: reg, l: lexer.New(source)}
	p.prefixFns = map[lexer.TokenType]prefixParseFn{
		lexer.IDENT:  p.parseIdent,
		lexer.INT:    p.parseInt,
		lexer.FLOAT:  p.parseFloat,
		lexer.STRING: p.parseString,
		lexer.TRUE:   p.parseBool,
		lexer.FALSE:  p.parseBool,
		lexer.NIL:    p.parseNil,
		lexer.LPAREN: p.parseGroup,
		lexer.MINUS:  p.parseUnary,
		lexer.NOT:    p.parseUnary,
		lexer.PPEXPR: p.parsePreprocessExpr,
	}
	p.infixFns = map[lexer.TokenType]infixParseFn{
		lexer.PLUS:    p.parseBinary,
		lexer.MINUS:   p.parseBinary,
		lexer.STAR:    p.parseBinary,
		lexer.SLASH:   p.parseBinary,
		lexer.PERCENT: p.parseBinary,
		lexer.EQ:      p.parseBinary,
		lexer.NEQ:     p.parseBinary,
		lexer.LT:      p.parseBinary,
		lexer.LE:      p.parseBinary,
		lexer.GT:      p.parseBinary,
		lexer.GE:      p.parseBinary,
		lexer.AND:     p.parseBinary,
		lexer.OR:      p.parseBinary,
		lexer.LPAREN:  p.parseCall,
		lexer.STRING:  p.parseBareStringCall,
	}
	p.advance()
	p.advance()
	return p
}

// Errors returns every syntax error accumulated while parsing.
func (p *Parser) Errors() []string { return p.errors }

func (p *Parser) advance() {
	p.cur = p.peek
	p.peek = p.l.NextToken()
}

func (p *Parser) curIs(t lexer.TokenType) bool  { return p.cur.Type == t }
func (p *Parser) peekIs(t lexer.TokenType) bool { return p.peek.Type == t }

func (p *Parser) expect(t lexer.TokenType) bool {
	if p.peekIs(t) {
		p.advance()
		return true
	}
	p.errorf("expected %s, got %s", t, p.peek.Type)
	return false
}

func (p *Parser) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf("%s: %s", p.cur.Pos, fmt.Sprintf(format, args...)))
}

func (p *Parser) peekPrecedence() int {
	if pr, ok := precedences[p.peek.Type]; ok {
		return pr
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if pr, ok := precedences[p.cur.Type]; ok {
		return pr
	}
	return LOWEST
}

// Parse parses the whole token stream into a Program.
func (p *Parser) Parse() (*ast.Program, error) {
	pos := p.cur.Pos
	var stmts []ast.Statement
	for !p.curIs(lexer.EOF) {
		if s := p.parseStatement(); s != nil {
			stmts = append(stmts, s)
		}
		p.advance()
	}
	if len(p.errors) > 0 {
		return nil, fmt.Errorf("parse error: %s", p.errors[0])
	}
	return ast.NewProgram(p.reg, pos, stmts), nil
}

func (p *Parser) parseBlockUntil(terminators ...lexer.TokenType) *ast.Block {
	pos := p.cur.Pos
	isEnd := func() bool {
		for _, t := range terminators {
			if p.curIs(t) {
				return true
			}
		}
		return p.curIs(lexer.EOF)
	}
	var stmts []ast.Statement
	for !isEnd() {
		if s := p.parseStatement(); s != nil {
			stmts = append(stmts, s)
		}
		p.advance()
	}
	return ast.NewBlock(p.reg, pos, stmts)
}

func (p *Parser) parseStatement() ast.Statement {
	switch p.cur.Type {
	case lexer.LOCAL, lexer.VAR:
		return p.parseVarDecl(false)
	case lexer.FUNCTION:
		return p.parseFuncDecl()
	case lexer.RETURN:
		return p.parseReturn()
	case lexer.IF:
		return p.parseIf()
	case lexer.WHILE:
		return p.parseWhile()
	case lexer.REQUIRE:
		return p.parseRequire()
	case lexer.SEMI:
		return nil
	case lexer.PPSTMT:
		return p.parsePreprocessStmt()
	default:
		return p.parseExprOrAssignStatement()
	}
}

// parseVarDecl handles `local name[: Type|auto] [= expr]` and its
// `var` (top-level) alias — spec.md's surface language treats both as
// plain bindings, and either may omit the initializer. `local
// function f(...) ... end` is the `local`-scoped function form (spec.md
// §8 scenario 6); it shares `local`'s token but delegates to
// parseFuncDecl once the `function` keyword is seen.
func (p *Parser) parseVarDecl(isConst bool) ast.Statement {
	if p.peekIs(lexer.FUNCTION) {
		p.advance() // function
		return p.parseFuncDecl()
	}
	pos := p.cur.Pos
	if !p.expect(lexer.IDENT) {
		return nil
	}
	name := p.cur.Literal

	typeName := ""
	if p.peekIs(lexer.COLON) {
		p.advance() // :
		if p.peekIs(lexer.AUTO) {
			p.advance() // auto
			typeName = "auto"
		} else if p.expect(lexer.IDENT) {
			typeName = p.cur.Literal
		} else {
			return nil
		}
	}

	var init ast.Expression
	if p.peekIs(lexer.ASSIGN) {
		p.advance() // = or :=
		p.advance() // first token of expr
		init = p.parseExpression(LOWEST)
	}
	return ast.NewVarDecl(p.reg, pos, name, typeName, init, isConst)
}

func (p *Parser) parseFuncDecl() ast.Statement {
	pos := p.cur.Pos
	if !p.expect(lexer.IDENT) {
		return nil
	}
	name := p.cur.Literal
	if !p.expect(lexer.LPAREN) {
		return nil
	}

	var params []ast.Param
	for !p.peekIs(lexer.RPAREN) {
		if !p.expect(lexer.IDENT) {
			return nil
		}
		pname := p.cur.Literal
		ptype := ""
		isAuto := false
		if p.peekIs(lexer.COLON) {
			p.advance()
			p.advance()
			if p.curIs(lexer.AUTO) {
				isAuto = true
			} else {
				ptype = p.cur.Literal
			}
		}
		params = append(params, ast.Param{Name: pname, TypeName: ptype, Auto: isAuto})
		if p.peekIs(lexer.COMMA) {
			p.advance()
			continue
		}
		break
	}
	if !p.expect(lexer.RPAREN) {
		return nil
	}

	retType := ""
	if p.peekIs(lexer.COLON) {
		p.advance()
		if !p.expect(lexer.IDENT) {
			return nil
		}
		retType = p.cur.Literal
	}

	p.advance() // first body token
	body := p.parseBlockUntil(lexer.END)
	// cur is END here
	return ast.NewFuncDecl(p.reg, pos, name, params, retType, body)
}

func (p *Parser) parseReturn() ast.Statement {
	pos := p.cur.Pos
	if p.peekIs(lexer.END) || p.peekIs(lexer.SEMI) || p.peekIs(lexer.EOF) ||
		p.peekIs(lexer.ELSE) || p.peekIs(lexer.ELSEIF) {
		return ast.NewReturn(p.reg, pos, nil)
	}
	p.advance()
	return ast.NewReturn(p.reg, pos, p.parseExpression(LOWEST))
}

func (p *Parser) parseIf() ast.Statement {
	pos := p.cur.Pos
	p.advance()
	cond := p.parseExpression(LOWEST)
	if !p.expect(lexer.THEN) {
		return nil
	}
	p.advance()
	then := p.parseBlockUntil(lexer.ELSE, lexer.ELSEIF, lexer.END)

	var elseBlock *ast.Block
	switch p.cur.Type {
	case lexer.ELSEIF:
		// Desugar `elseif` into a nested `if` inside a single-statement else block.
		elseIf := p.parseIf()
		elseBlock = ast.NewBlock(p.reg, p.cur.Pos, []ast.Statement{elseIf})
		return ast.NewIf(p.reg, pos, cond, then, elseBlock)
	case lexer.ELSE:
		p.advance()
		elseBlock = p.parseBlockUntil(lexer.END)
	}
	return ast.NewIf(p.reg, pos, cond, then, elseBlock)
}

func (p *Parser) parseWhile() ast.Statement {
	pos := p.cur.Pos
	p.advance()
	cond := p.parseExpression(LOWEST)
	if !p.expect(lexer.DO) {
		return nil
	}
	p.advance()
	body := p.parseBlockUntil(lexer.END)
	return ast.NewWhile(p.reg, pos, cond, body)
}

func (p *Parser) parseRequire() ast.Statement {
	pos := p.cur.Pos
	if !p.expect(lexer.STRING) {
		return nil
	}
	return ast.NewRequire(p.reg, pos, p.cur.Literal)
}

func (p *Parser) parseExprOrAssignStatement() ast.Statement {
	pos := p.cur.Pos
	expr := p.parseExpression(LOWEST)
	if expr == nil {
		return nil
	}
	if p.peekIs(lexer.ASSIGN) {
		p.advance() // = or :=
		p.advance()
		val := p.parseExpression(LOWEST)
		return ast.NewAssign(p.reg, pos, expr, val)
	}
	return ast.NewExprStmt(p.reg, pos, expr)
}

func (p *Parser) parseExpression(precedence int) ast.Expression {
	prefix, ok := p.prefixFns[p.cur.Type]
	if !ok {
		p.errorf("no prefix parse function for %s", p.cur.Type)
		return nil
	}
	left := prefix()

	for !p.peekIs(lexer.SEMI) && precedence < p.peekPrecedence() {
		infix, ok := p.infixFns[p.peek.Type]
		if !ok {
			return left
		}
		p.advance()
		left = infix(left)
	}
	return left
}

func (p *Parser) parseIdent() ast.Expression {
	return ast.NewId(p.reg, p.cur.Pos, p.cur.Literal)
}

func (p *Parser) parseInt() ast.Expression {
	value, suffix := splitIntSuffix(p.cur.Literal)
	v, err := parseIntLiteral(value)
	if err != nil {
		p.errorf("invalid integer literal %q", p.cur.Literal)
	}
	_ = suffix
	return ast.NewIntLiteral(p.reg, p.cur.Pos, v, p.cur.Literal)
}

func (p *Parser) parseFloat() ast.Expression {
	v, err := parseFloatLiteral(p.cur.Literal)
	if err != nil {
		p.errorf("invalid float literal %q", p.cur.Literal)
	}
	return ast.NewFloatLiteral(p.reg, p.cur.Pos, v)
}

func (p *Parser) parseString() ast.Expression {
	return ast.NewStringLiteral(p.reg, p.cur.Pos, p.cur.Literal)
}

func (p *Parser) parseBool() ast.Expression {
	return ast.NewBoolLiteral(p.reg, p.cur.Pos, p.cur.Type == lexer.TRUE)
}

func (p *Parser) parseNil() ast.Expression {
	return ast.NewNilLiteral(p.reg, p.cur.Pos)
}

func (p *Parser) parseGroup() ast.Expression {
	p.advance()
	expr := p.parseExpression(LOWEST)
	if !p.expect(lexer.RPAREN) {
		return nil
	}
	return expr
}

func (p *Parser) parseUnary() ast.Expression {
	pos := p.cur.Pos
	op := p.cur.Literal
	p.advance()
	operand := p.parseExpression(PREFIX)
	return ast.NewUnaryExpr(p.reg, pos, op, operand)
}

func (p *Parser) parseBinary(left ast.Expression) ast.Expression {
	pos := p.cur.Pos
	op := p.cur.Literal
	precedence := p.curPrecedence()
	p.advance()
	right := p.parseExpression(precedence)
	return ast.NewBinaryExpr(p.reg, pos, op, left, right)
}

func (p *Parser) parseCall(callee ast.Expression) ast.Expression {
	pos := p.cur.Pos
	var args []ast.Expression
	if !p.peekIs(lexer.RPAREN) {
		p.advance()
		args = append(args, p.parseExpression(LOWEST))
		for p.peekIs(lexer.COMMA) {
			p.advance()
			p.advance()
			args = append(args, p.parseExpression(LOWEST))
		}
	}
	if !p.expect(lexer.RPAREN) {
		return nil
	}
	return ast.NewCall(p.reg, pos, callee, args)
}

// parseBareStringCall implements Lua-style `print "hello world"`: a
// single string literal immediately following a callable acts as that
// call's sole argument, no parentheses required (spec.md §8 scenarios
// 1-3).
func (p *Parser) parseBareStringCall(callee ast.Expression) ast.Expression {
	pos := p.cur.Pos
	arg := p.parseString()
	return ast.NewCall(p.reg, pos, callee, []ast.Expression{arg})
}

func (p *Parser) parsePreprocessExpr() ast.Expression {
	src := p.cur.Literal
	frag, err := CompileFragmentExpr(src)
	if err != nil {
		p.errorf("%s", err)
	}
	return ast.NewPreprocessExpr(p.reg, p.cur.Pos, src, frag)
}

func (p *Parser) parsePreprocessStmt() ast.Statement {
	src := p.cur.Literal
	frag, err := CompileFragmentStmt(src)
	if err != nil {
		p.errorf("%s", err)
	}
	return ast.NewPreprocess(p.reg, p.cur.Pos, src, frag)
}
