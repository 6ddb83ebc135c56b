package ast

import (
	"github.com/natc-lang/natc/internal/lexer"
	"github.com/natc-lang/natc/internal/registry"
)

// ---- Program ----

type Program struct {
	Base
	Statements []Statement
}

func NewProgram(reg *registry.Registry, pos lexer.Position, stmts []Statement) *Program {
	n := &Program{Base: newBase(reg, TagProgram, pos), Statements: stmts}
	registerSelf(reg, n, &n.Base)
	return n
}

func (p *Program) statementNode() {}
func (p *Program) Children() []Node {
	out := make([]Node, len(p.Statements))
	for i, s := range p.Statements {
		out[i] = s
	}
	return out
}
func (p *Program) Clone(reg *registry.Registry) Node {
	stmts := make([]Statement, len(p.Statements))
	for i, s := range p.Statements {
		stmts[i] = s.Clone(reg).(Statement)
	}
	n := NewProgram(reg, p.pos, stmts)
	n.attrs = p.attrs.clone()
	return n
}

// ---- Block ----

// Block is the unit of preprocess replay (spec.md glossary). A block
// that transitively contains a preprocess directive is marked
// NeedProcess=true by the analyzer's marker pass (spec.md §4.D step 1).
type Block struct {
	Base
	Statements []Statement
}

func NewBlock(reg *registry.Registry, pos lexer.Position, stmts []Statement) *Block {
	n := &Block{Base: newBase(reg, TagBlock, pos), Statements: stmts}
	registerSelf(reg, n, &n.Base)
	return n
}

func (b *Block) statementNode() {}
func (b *Block) Children() []Node {
	out := make([]Node, len(b.Statements))
	for i, s := range b.Statements {
		out[i] = s
	}
	return out
}
func (b *Block) Clone(reg *registry.Registry) Node {
	stmts := make([]Statement, len(b.Statements))
	for i, s := range b.Statements {
		stmts[i] = s.Clone(reg).(Statement)
	}
	n := NewBlock(reg, b.pos, stmts)
	n.attrs = b.attrs.clone()
	return n
}

// NeedProcess reports whether the marker pass found a preprocess
// directive transitively inside this block.
func (b *Block) NeedProcess() bool { return b.Attrs().Bool(AttrNeedProcess) }

// ---- Id ----

type Id struct {
	Base
	Name string
}

func NewId(reg *registry.Registry, pos lexer.Position, name string) *Id {
	n := &Id{Base: newBase(reg, TagId, pos), Name: name}
	registerSelf(reg, n, &n.Base)
	return n
}

func (i *Id) expressionNode() {}
func (i *Id) Children() []Node { return nil }
func (i *Id) Clone(reg *registry.Registry) Node {
	n := NewId(reg, i.pos, i.Name)
	n.attrs = i.attrs.clone()
	return n
}

// ---- literals ----

type IntLiteral struct {
	Base
	Value int64
	Text  string // original literal text, including any suffix (§8 scenario 4)
}

func NewIntLiteral(reg *registry.Registry, pos lexer.Position, value int64, text string) *IntLiteral {
	n := &IntLiteral{Base: newBase(reg, TagIntLiteral, pos), Value: value, Text: text}
	registerSelf(reg, n, &n.Base)
	return n
}
func (l *IntLiteral) expressionNode()  {}
func (l *IntLiteral) Children() []Node { return nil }
func (l *IntLiteral) Clone(reg *registry.Registry) Node {
	n := NewIntLiteral(reg, l.pos, l.Value, l.Text)
	n.attrs = l.attrs.clone()
	return n
}

type FloatLiteral struct {
	Base
	Value float64
}

func NewFloatLiteral(reg *registry.Registry, pos lexer.Position, value float64) *FloatLiteral {
	n := &FloatLiteral{Base: newBase(reg, TagFloatLiteral, pos), Value: value}
	registerSelf(reg, n, &n.Base)
	return n
}
func (l *FloatLiteral) expressionNode()  {}
func (l *FloatLiteral) Children() []Node { return nil }
func (l *FloatLiteral) Clone(reg *registry.Registry) Node {
	n := NewFloatLiteral(reg, l.pos, l.Value)
	n.attrs = l.attrs.clone()
	return n
}

type StringLiteral struct {
	Base
	Value string
}

func NewStringLiteral(reg *registry.Registry, pos lexer.Position, value string) *StringLiteral {
	n := &StringLiteral{Base: newBase(reg, TagStringLiteral, pos), Value: value}
	registerSelf(reg, n, &n.Base)
	return n
}
func (l *StringLiteral) expressionNode()  {}
func (l *StringLiteral) Children() []Node { return nil }
func (l *StringLiteral) Clone(reg *registry.Registry) Node {
	n := NewStringLiteral(reg, l.pos, l.Value)
	n.attrs = l.attrs.clone()
	return n
}

type BoolLiteral struct {
	Base
	Value bool
}

func NewBoolLiteral(reg *registry.Registry, pos lexer.Position, value bool) *BoolLiteral {
	n := &BoolLiteral{Base: newBase(reg, TagBoolLiteral, pos), Value: value}
	registerSelf(reg, n, &n.Base)
	return n
}
func (l *BoolLiteral) expressionNode()  {}
func (l *BoolLiteral) Children() []Node { return nil }
func (l *BoolLiteral) Clone(reg *registry.Registry) Node {
	n := NewBoolLiteral(reg, l.pos, l.Value)
	n.attrs = l.attrs.clone()
	return n
}

type NilLiteral struct{ Base }

func NewNilLiteral(reg *registry.Registry, pos lexer.Position) *NilLiteral {
	n := &NilLiteral{Base: newBase(reg, TagNilLiteral, pos)}
	registerSelf(reg, n, &n.Base)
	return n
}
func (l *NilLiteral) expressionNode()  {}
func (l *NilLiteral) Children() []Node { return nil }
func (l *NilLiteral) Clone(reg *registry.Registry) Node {
	n := NewNilLiteral(reg, l.pos)
	n.attrs = l.attrs.clone()
	return n
}

// ---- operators ----

type BinaryExpr struct {
	Base
	Op          string
	Left, Right Expression
}

func NewBinaryExpr(reg *registry.Registry, pos lexer.Position, op string, left, right Expression) *BinaryExpr {
	n := &BinaryExpr{Base: newBase(reg, TagBinaryExpr, pos), Op: op, Left: left, Right: right}
	registerSelf(reg, n, &n.Base)
	return n
}
func (b *BinaryExpr) expressionNode()  {}
func (b *BinaryExpr) Children() []Node { return []Node{b.Left, b.Right} }
func (b *BinaryExpr) Clone(reg *registry.Registry) Node {
	n := NewBinaryExpr(reg, b.pos, b.Op, b.Left.Clone(reg).(Expression), b.Right.Clone(reg).(Expression))
	n.attrs = b.attrs.clone()
	return n
}

type UnaryExpr struct {
	Base
	Op      string
	Operand Expression
}

func NewUnaryExpr(reg *registry.Registry, pos lexer.Position, op string, operand Expression) *UnaryExpr {
	n := &UnaryExpr{Base: newBase(reg, TagUnaryExpr, pos), Op: op, Operand: operand}
	registerSelf(reg, n, &n.Base)
	return n
}
func (u *UnaryExpr) expressionNode()  {}
func (u *UnaryExpr) Children() []Node { return []Node{u.Operand} }
func (u *UnaryExpr) Clone(reg *registry.Registry) Node {
	n := NewUnaryExpr(reg, u.pos, u.Op, u.Operand.Clone(reg).(Expression))
	n.attrs = u.attrs.clone()
	return n
}

// ---- Call ----

type Call struct {
	Base
	Callee Expression
	Args   []Expression
}

func NewCall(reg *registry.Registry, pos lexer.Position, callee Expression, args []Expression) *Call {
	n := &Call{Base: newBase(reg, TagCall, pos), Callee: callee, Args: args}
	registerSelf(reg, n, &n.Base)
	return n
}
func (c *Call) expressionNode() {}
func (c *Call) Children() []Node {
	out := make([]Node, 0, len(c.Args)+1)
	out = append(out, c.Callee)
	for _, a := range c.Args {
		out = append(out, a)
	}
	return out
}
func (c *Call) Clone(reg *registry.Registry) Node {
	args := make([]Expression, len(c.Args))
	for i, a := range c.Args {
		args[i] = a.Clone(reg).(Expression)
	}
	n := NewCall(reg, c.pos, c.Callee.Clone(reg).(Expression), args)
	n.attrs = c.attrs.clone()
	return n
}

// ---- VarDecl ----

type VarDecl struct {
	Base
	Name     string
	TypeName string // "" if inferred
	Init     Expression
	IsConst  bool
}

func NewVarDecl(reg *registry.Registry, pos lexer.Position, name, typeName string, init Expression, isConst bool) *VarDecl {
	n := &VarDecl{Base: newBase(reg, TagVarDecl, pos), Name: name, TypeName: typeName, Init: init, IsConst: isConst}
	registerSelf(reg, n, &n.Base)
	return n
}
func (v *VarDecl) statementNode() {}
func (v *VarDecl) Children() []Node {
	if v.Init == nil {
		return nil
	}
	return []Node{v.Init}
}
func (v *VarDecl) Clone(reg *registry.Registry) Node {
	var init Expression
	if v.Init != nil {
		init = v.Init.Clone(reg).(Expression)
	}
	n := NewVarDecl(reg, v.pos, v.Name, v.TypeName, init, v.IsConst)
	n.attrs = v.attrs.clone()
	return n
}

// ---- Param ----

type Param struct {
	Name     string
	TypeName string
	Auto     bool // `auto` parameter type — triggers polymorphic instantiation (§8 scenario 6)
}

// ---- FuncDecl ----

type FuncDecl struct {
	Base
	Name       string
	Params     []Param
	ReturnType string
	Body       *Block
}

func NewFuncDecl(reg *registry.Registry, pos lexer.Position, name string, params []Param, returnType string, body *Block) *FuncDecl {
	n := &FuncDecl{Base: newBase(reg, TagFuncDecl, pos), Name: name, Params: params, ReturnType: returnType, Body: body}
	registerSelf(reg, n, &n.Base)
	return n
}
func (f *FuncDecl) statementNode() {}
func (f *FuncDecl) Children() []Node {
	if f.Body == nil {
		return nil
	}
	return []Node{f.Body}
}
func (f *FuncDecl) Clone(reg *registry.Registry) Node {
	var body *Block
	if f.Body != nil {
		body = f.Body.Clone(reg).(*Block)
	}
	n := NewFuncDecl(reg, f.pos, f.Name, append([]Param(nil), f.Params...), f.ReturnType, body)
	n.attrs = f.attrs.clone()
	return n
}

// ---- Return ----

type Return struct {
	Base
	Value Expression // nil for a bare `return`
}

func NewReturn(reg *registry.Registry, pos lexer.Position, value Expression) *Return {
	n := &Return{Base: newBase(reg, TagReturn, pos), Value: value}
	registerSelf(reg, n, &n.Base)
	return n
}
func (r *Return) statementNode() {}
func (r *Return) Children() []Node {
	if r.Value == nil {
		return nil
	}
	return []Node{r.Value}
}
func (r *Return) Clone(reg *registry.Registry) Node {
	var v Expression
	if r.Value != nil {
		v = r.Value.Clone(reg).(Expression)
	}
	n := NewReturn(reg, r.pos, v)
	n.attrs = r.attrs.clone()
	return n
}

// ---- If ----

type If struct {
	Base
	Cond       Expression
	Then, Else *Block
}

func NewIf(reg *registry.Registry, pos lexer.Position, cond Expression, then, els *Block) *If {
	n := &If{Base: newBase(reg, TagIf, pos), Cond: cond, Then: then, Else: els}
	registerSelf(reg, n, &n.Base)
	return n
}
func (i *If) statementNode() {}
func (i *If) Children() []Node {
	out := []Node{i.Cond, i.Then}
	if i.Else != nil {
		out = append(out, i.Else)
	}
	return out
}
func (i *If) Clone(reg *registry.Registry) Node {
	var els *Block
	if i.Else != nil {
		els = i.Else.Clone(reg).(*Block)
	}
	n := NewIf(reg, i.pos, i.Cond.Clone(reg).(Expression), i.Then.Clone(reg).(*Block), els)
	n.attrs = i.attrs.clone()
	return n
}

// ---- While ----

type While struct {
	Base
	Cond Expression
	Body *Block
}

func NewWhile(reg *registry.Registry, pos lexer.Position, cond Expression, body *Block) *While {
	n := &While{Base: newBase(reg, TagWhile, pos), Cond: cond, Body: body}
	registerSelf(reg, n, &n.Base)
	return n
}
func (w *While) statementNode()   {}
func (w *While) Children() []Node { return []Node{w.Cond, w.Body} }
func (w *While) Clone(reg *registry.Registry) Node {
	n := NewWhile(reg, w.pos, w.Cond.Clone(reg).(Expression), w.Body.Clone(reg).(*Block))
	n.attrs = w.attrs.clone()
	return n
}

// ---- ExprStmt ----

type ExprStmt struct {
	Base
	Expr Expression
}

func NewExprStmt(reg *registry.Registry, pos lexer.Position, expr Expression) *ExprStmt {
	n := &ExprStmt{Base: newBase(reg, TagExprStmt, pos), Expr: expr}
	registerSelf(reg, n, &n.Base)
	return n
}
func (e *ExprStmt) statementNode()   {}
func (e *ExprStmt) Children() []Node { return []Node{e.Expr} }
func (e *ExprStmt) Clone(reg *registry.Registry) Node {
	n := NewExprStmt(reg, e.pos, e.Expr.Clone(reg).(Expression))
	n.attrs = e.attrs.clone()
	return n
}

// ---- Assign ----

type Assign struct {
	Base
	Target Expression
	Value  Expression
}

func NewAssign(reg *registry.Registry, pos lexer.Position, target, value Expression) *Assign {
	n := &Assign{Base: newBase(reg, TagAssign, pos), Target: target, Value: value}
	registerSelf(reg, n, &n.Base)
	return n
}
func (a *Assign) statementNode()   {}
func (a *Assign) Children() []Node { return []Node{a.Target, a.Value} }
func (a *Assign) Clone(reg *registry.Registry) Node {
	n := NewAssign(reg, a.pos, a.Target.Clone(reg).(Expression), a.Value.Clone(reg).(Expression))
	n.attrs = a.attrs.clone()
	return n
}

// ---- Require ----

// Require models a `require 'name'` call: when its path literal is
// resolved at analysis time, the loaded program is attached via the
// AttrLoadedAST attribute (spec.md §4.G "require").
type Require struct {
	Base
	Path string
}

func NewRequire(reg *registry.Registry, pos lexer.Position, path string) *Require {
	n := &Require{Base: newBase(reg, TagRequire, pos), Path: path}
	registerSelf(reg, n, &n.Base)
	return n
}
func (r *Require) statementNode()   {}
func (r *Require) Children() []Node { return nil }
func (r *Require) Clone(reg *registry.Registry) Node {
	n := NewRequire(reg, r.pos, r.Path)
	n.attrs = r.attrs.clone()
	return n
}

// AlreadyRequired reports whether this `require` is a no-op repeat call
// (spec.md §4.G, §8 invariant 5).
func (r *Require) AlreadyRequired() bool { return r.Attrs().Bool(AttrAlreadyRequired) }

// ---- PragmaCall ----

// PragmaCall is the statement form synthesized by `afterinfer` (spec.md
// §4.E), the one call-form pragma internal/pragma recognizes.
// `cflags`/`ldflags`/`linklib` are field pragmas and do not use it.
type PragmaCall struct {
	Base
	Name string
	Args []Expression
}

func NewPragmaCall(reg *registry.Registry, pos lexer.Position, name string, args []Expression) *PragmaCall {
	n := &PragmaCall{Base: newBase(reg, TagPragmaCall, pos), Name: name, Args: args}
	registerSelf(reg, n, &n.Base)
	return n
}
func (p *PragmaCall) statementNode() {}
func (p *PragmaCall) Children() []Node {
	out := make([]Node, len(p.Args))
	for i, a := range p.Args {
		out[i] = a
	}
	return out
}
func (p *PragmaCall) Clone(reg *registry.Registry) Node {
	args := make([]Expression, len(p.Args))
	for i, a := range p.Args {
		args[i] = a.Clone(reg).(Expression)
	}
	n := NewPragmaCall(reg, p.pos, p.Name, args)
	n.attrs = p.attrs.clone()
	return n
}

// ---- Preprocess / PreprocessExpr / PreprocessName ----

// Fragment is a pp program compiled by the (out-of-scope) parser into a
// callable closure — see DESIGN.md Open Question 1.
type Fragment func(env any) (any, error)

// Preprocess is the statement-position directive (`##`), executed for
// side effects.
type Preprocess struct {
	Base
	Source string
	Run    Fragment
}

func NewPreprocess(reg *registry.Registry, pos lexer.Position, source string, run Fragment) *Preprocess {
	n := &Preprocess{Base: newBase(reg, TagPreprocess, pos), Source: source, Run: run}
	registerSelf(reg, n, &n.Base)
	return n
}
func (p *Preprocess) statementNode()   {}
func (p *Preprocess) Children() []Node { return nil }
func (p *Preprocess) Clone(reg *registry.Registry) Node {
	n := NewPreprocess(reg, p.pos, p.Source, p.Run)
	n.attrs = p.attrs.clone()
	return n
}

// PreprocessExpr is the expression-position directive (`#[ ]#`): its
// body evaluates to a value, and the surrounding expression slot is
// replaced by an AST node derived from that value.
type PreprocessExpr struct {
	Base
	Source string
	Run    Fragment
}

func NewPreprocessExpr(reg *registry.Registry, pos lexer.Position, source string, run Fragment) *PreprocessExpr {
	n := &PreprocessExpr{Base: newBase(reg, TagPreprocessExpr, pos), Source: source, Run: run}
	registerSelf(reg, n, &n.Base)
	return n
}
func (p *PreprocessExpr) expressionNode() {}
func (p *PreprocessExpr) Children() []Node { return nil }
func (p *PreprocessExpr) Clone(reg *registry.Registry) Node {
	n := NewPreprocessExpr(reg, p.pos, p.Source, p.Run)
	n.attrs = p.attrs.clone()
	return n
}

// PreprocessName is the identifier-position directive (`#| |#`):
// evaluated to a string, then interned as a name.
type PreprocessName struct {
	Base
	Source string
	Run    Fragment
}

func NewPreprocessName(reg *registry.Registry, pos lexer.Position, source string, run Fragment) *PreprocessName {
	n := &PreprocessName{Base: newBase(reg, TagPreprocessName, pos), Source: source, Run: run}
	registerSelf(reg, n, &n.Base)
	return n
}
func (p *PreprocessName) expressionNode() {}
func (p *PreprocessName) Children() []Node { return nil }
func (p *PreprocessName) Clone(reg *registry.Registry) Node {
	n := NewPreprocessName(reg, p.pos, p.Source, p.Run)
	n.attrs = p.attrs.clone()
	return n
}
