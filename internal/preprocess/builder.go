package preprocess

import (
	"github.com/natc-lang/natc/internal/ast"
	"github.com/natc-lang/natc/internal/lexer"
	"github.com/natc-lang/natc/internal/registry"
)

// builder is the `aster` environment object: an ergonomic node
// constructor pp fragments use to build injected code, fixed to the
// registry and a default source position (the preprocess directive's
// own position, so generated nodes still point somewhere sensible in
// diagnostics).
type builder struct {
	reg *registry.Registry
	pos lexer.Position
}

func newBuilder(reg *registry.Registry, pos lexer.Position) *builder {
	return &builder{reg: reg, pos: pos}
}

func (b *builder) Int(v int64) *ast.IntLiteral       { return ast.NewIntLiteral(b.reg, b.pos, v, "") }
func (b *builder) Float(v float64) *ast.FloatLiteral { return ast.NewFloatLiteral(b.reg, b.pos, v) }
func (b *builder) Str(s string) *ast.StringLiteral   { return ast.NewStringLiteral(b.reg, b.pos, s) }
func (b *builder) Bool(v bool) *ast.BoolLiteral      { return ast.NewBoolLiteral(b.reg, b.pos, v) }
func (b *builder) Nil() *ast.NilLiteral              { return ast.NewNilLiteral(b.reg, b.pos) }
func (b *builder) Id(name string) *ast.Id            { return ast.NewId(b.reg, b.pos, name) }

func (b *builder) Call(callee ast.Expression, args ...ast.Expression) *ast.Call {
	return ast.NewCall(b.reg, b.pos, callee, args)
}

func (b *builder) Binary(op string, left, right ast.Expression) *ast.BinaryExpr {
	return ast.NewBinaryExpr(b.reg, b.pos, op, left, right)
}

func (b *builder) VarDecl(name, typeName string, init ast.Expression, isConst bool) *ast.VarDecl {
	return ast.NewVarDecl(b.reg, b.pos, name, typeName, init, isConst)
}

func (b *builder) ExprStmt(expr ast.Expression) *ast.ExprStmt {
	return ast.NewExprStmt(b.reg, b.pos, expr)
}
