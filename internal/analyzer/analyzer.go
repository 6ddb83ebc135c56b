// Package analyzer implements the single-pass top-down typer of
// spec.md §4.D, cooperating with a preprocessor engine through the
// marker/replay protocol over each Block.
package analyzer

import (
	"fmt"

	"github.com/natc-lang/natc/internal/ast"
	"github.com/natc-lang/natc/internal/lexer"
	"github.com/natc-lang/natc/internal/pragma"
	"github.com/natc-lang/natc/internal/registry"
	"github.com/natc-lang/natc/internal/scope"
	"github.com/natc-lang/natc/internal/types"
)

// PPRunner is implemented by the preprocessor engine. RunBlock executes
// the pp code for a block marked needprocess and returns the
// reconstructed block for the analyzer to resume on (spec.md §4.D step
// 3). Kept as an interface here, rather than importing internal/preprocess
// directly, since the preprocessor itself calls back into the analyzer
// for symbol lookup and type introspection (spec.md §4.E) — the cycle
// is broken at this interface boundary.
type PPRunner interface {
	RunBlock(blk *ast.Block, sc *scope.Scope) (*ast.Block, error)
}

// Loader resolves a `require` path to the module's parsed program, for
// analysis in the root scope (spec.md §4.G "require").
type Loader interface {
	Load(path string) (*ast.Program, error)
}

// Analyzer holds the mutable state threaded through one translation
// unit's analysis: the registry every node was allocated from, the
// root/global scope, the process-wide pragma map, and the optional
// preprocessor/loader collaborators.
type Analyzer struct {
	Reg     *registry.Registry
	Global  *scope.Scope
	Pragmas *pragma.Map
	PP      PPRunner
	Loader  Loader

	namedTypes      map[string]types.Type
	requiredModules map[string]bool
	currentReturn   []types.Type
	afterInfer      []*ast.PragmaCall
	diags           Diagnostics
}

// New creates an Analyzer with a fresh global scope and pragma map.
// pp and loader may be nil — preprocess directives then fail with a
// diagnostic instead of being replayed, and `require` becomes a no-op
// marker (its path is still recorded against double-require).
func New(reg *registry.Registry, pp PPRunner, loader Loader) *Analyzer {
	a := &Analyzer{
		Reg:             reg,
		Global:          scope.New("global"),
		Pragmas:         pragma.New(),
		PP:              pp,
		Loader:          loader,
		namedTypes:      make(map[string]types.Type),
		requiredModules: make(map[string]bool),
	}
	a.declareBuiltins()
	return a
}

// declareBuiltins seeds the global scope with the handful of names the
// language provides without a `require` (spec.md §4.G "Polymorphic
// print"). print takes any argument-type tuple, so it is modeled as a
// variadic function with no fixed parameter list; analyzeCall skips the
// argument-count check once fnType.Variadic is set, and the empty Params
// list leaves no per-argument check to run.
func (a *Analyzer) declareBuiltins() {
	printType := &types.FunctionType{Variadic: true}
	_ = a.Global.Declare("print", &scope.Symbol{Name: "print", Type: printType, Pos: lexer.Position{}})
}

// AnalyzeProgram runs the full marker + analyze pipeline over prog and
// returns the diagnostics collected. The top-level statement list is
// treated as the outermost block for the purposes of the marker/replay
// protocol.
func (a *Analyzer) AnalyzeProgram(prog *ast.Program) *Diagnostics {
	root := ast.NewBlock(a.Reg, prog.Pos(), prog.Statements)
	markNeedProcess(root)
	a.analyzeBlock(root, a.Global)
	prog.Statements = root.Statements
	return &a.diags
}

func (a *Analyzer) analyzeBlock(blk *ast.Block, sc *scope.Scope) {
	if blk.NeedProcess() {
		if a.PP == nil {
			a.diags.Add(newGeneric(blk.Pos(), "block requires preprocessing but no preprocessor engine is configured"))
		} else if newBlk, err := a.PP.RunBlock(blk, sc); err != nil {
			a.diags.Add(newGeneric(blk.Pos(), err.Error()))
		} else if newBlk != nil {
			blk = newBlk
		}
	}

	outerAfterInfer := a.afterInfer
	a.afterInfer = nil
	for _, stmt := range blk.Statements {
		a.analyzeStatement(stmt, sc)
	}
	pending := a.afterInfer
	a.afterInfer = outerAfterInfer

	for _, n := range pending {
		fn, ok := n.Attrs().Get(ast.AttrValue)
		if !ok {
			continue
		}
		if cb, ok := fn.(func() error); ok {
			if err := cb(); err != nil {
				a.diags.Add(newGeneric(n.Pos(), err.Error()))
			}
		}
	}
}

func (a *Analyzer) analyzeStatement(stmt ast.Statement, sc *scope.Scope) {
	switch n := stmt.(type) {
	case *ast.VarDecl:
		a.analyzeVarDecl(n, sc)
	case *ast.FuncDecl:
		a.analyzeFuncDecl(n, sc)
	case *ast.Return:
		a.analyzeReturn(n, sc)
	case *ast.If:
		a.analyzeIf(n, sc)
	case *ast.While:
		a.analyzeWhile(n, sc)
	case *ast.ExprStmt:
		a.analyzeExpression(n.Expr, sc)
	case *ast.Assign:
		a.analyzeAssign(n, sc)
	case *ast.Require:
		a.analyzeRequire(n, sc)
	case *ast.PragmaCall:
		a.analyzePragmaCall(n, sc)
	case *ast.Block:
		a.analyzeBlock(n, sc.Push("block"))
	case *ast.Preprocess:
		a.diags.Add(newGeneric(n.Pos(), "preprocess directive survived replay unexecuted"))
	default:
		a.diags.Add(newGeneric(stmt.Pos(), fmt.Sprintf("unsupported statement %s", stmt.Tag())))
	}
}

func (a *Analyzer) analyzeVarDecl(n *ast.VarDecl, sc *scope.Scope) {
	var declared types.Type
	if n.TypeName != "" && n.TypeName != "auto" {
		t, ok := a.resolveTypeName(n.TypeName)
		if !ok {
			a.diags.Add(newUndefinedType(n.Pos(), n.TypeName))
		} else {
			declared = t
		}
	}

	var initType types.Type
	if n.Init != nil {
		initType = a.analyzeExpression(n.Init, sc)
	}

	final := declared
	if final == nil {
		final = initType
	}
	if final == nil {
		a.diags.Add(newGeneric(n.Pos(), fmt.Sprintf("cannot infer type for '%s'", n.Name)))
		return
	}

	if declared != nil && initType != nil && !declared.Equals(initType) {
		if !types.Assignable(declared, initType) {
			a.diags.Add(newTypeMismatch(n.Pos(), declared, initType))
		} else {
			n.Init.SetAttr(ast.AttrImplicitConv, declared)
		}
	}

	sym := &scope.Symbol{Name: n.Name, Type: final, LValue: !n.IsConst, DeclNode: n, Pos: n.Pos()}
	if n.IsConst && n.Init != nil {
		if v, ok := n.Init.Attrs().Get(ast.AttrValue); ok {
			sym.Value = v
		}
	}
	if err := sc.Declare(n.Name, sym); err != nil {
		a.diags.Add(newRedeclaration(n.Pos(), n.Name, err))
	}
	n.SetAttr(ast.AttrType, final)
}

func (a *Analyzer) analyzeFuncDecl(n *ast.FuncDecl, sc *scope.Scope) {
	paramTypes := make([]types.Type, len(n.Params))
	for i, p := range n.Params {
		if p.Auto {
			// Polymorphic `auto` parameter: its concrete type is resolved
			// per call site, not declared statically (spec.md §8 scenario
			// 6). Left nil here; call-site argument checking skips it.
			continue
		}
		t, ok := a.resolveTypeName(p.TypeName)
		if !ok {
			a.diags.Add(newUndefinedType(n.Pos(), p.TypeName))
			t = types.Void
		}
		paramTypes[i] = t
	}

	var rets []types.Type
	if n.ReturnType != "" && n.ReturnType != "void" {
		rt, ok := a.resolveTypeName(n.ReturnType)
		if !ok {
			a.diags.Add(newUndefinedType(n.Pos(), n.ReturnType))
		} else {
			rets = []types.Type{rt}
		}
	}

	fnType := &types.FunctionType{Params: paramTypes, Returns: rets}
	if err := sc.Declare(n.Name, &scope.Symbol{Name: n.Name, Type: fnType, DeclNode: n, Pos: n.Pos()}); err != nil {
		a.diags.Add(newRedeclaration(n.Pos(), n.Name, err))
	}
	n.SetAttr(ast.AttrType, fnType)

	fnScope := sc.Push(n.Name)
	for i, p := range n.Params {
		if paramTypes[i] == nil {
			continue
		}
		_ = fnScope.Declare(p.Name, &scope.Symbol{Name: p.Name, Type: paramTypes[i], LValue: true, Pos: n.Pos()})
	}

	prevReturn := a.currentReturn
	a.currentReturn = rets
	if n.Body != nil && !hasAutoParam(n) {
		a.analyzeBlock(n.Body, fnScope)
	}
	a.currentReturn = prevReturn
}

func hasAutoParam(n *ast.FuncDecl) bool {
	for _, p := range n.Params {
		if p.Auto {
			return true
		}
	}
	return false
}

// instantiateAuto analyzes fn's body once per call site (spec.md §8
// scenario 6): each `auto` parameter is bound to the corresponding
// call argument's inferred type in a fresh function scope. Diagnostics
// produced during the instantiation are collected separately and, if
// any occurred, surfaced as a single wrapped error at the call site —
// the caller doesn't get to see where inside the body it failed, only
// that it did.
func (a *Analyzer) instantiateAuto(fn *ast.FuncDecl, argTypes []types.Type, pos lexer.Position) {
	saved := a.diags
	a.diags = Diagnostics{}

	fnScope := a.Global.Push(fn.Name + "$instance")
	for i, p := range fn.Params {
		var t types.Type
		if p.Auto {
			if i < len(argTypes) {
				t = argTypes[i]
			}
		} else if t2, ok := a.resolveTypeName(p.TypeName); ok {
			t = t2
		}
		if t != nil {
			_ = fnScope.Declare(p.Name, &scope.Symbol{Name: p.Name, Type: t, LValue: true, Pos: fn.Pos()})
		}
	}

	var rets []types.Type
	if fn.ReturnType != "" && fn.ReturnType != "void" {
		if rt, ok := a.resolveTypeName(fn.ReturnType); ok {
			rets = []types.Type{rt}
		}
	}
	prevReturn := a.currentReturn
	a.currentReturn = rets
	if fn.Body != nil {
		a.analyzeBlock(fn.Body, fnScope)
	}
	a.currentReturn = prevReturn

	instDiags := a.diags
	a.diags = saved
	if instDiags.HasErrors() {
		a.diags.Add(newGeneric(pos, fmt.Sprintf("polymorphic function instantiation failed for '%s': %s", fn.Name, instDiags.Errors()[0].Message)))
	}
}

func (a *Analyzer) analyzeReturn(n *ast.Return, sc *scope.Scope) {
	var got types.Type
	if n.Value != nil {
		got = a.analyzeExpression(n.Value, sc)
	}
	var expected types.Type
	if len(a.currentReturn) == 1 {
		expected = a.currentReturn[0]
	}

	switch {
	case expected == nil && got != nil:
		a.diags.Add(newInvalidReturn(n.Pos(), nil, got))
	case expected != nil && got == nil:
		a.diags.Add(newInvalidReturn(n.Pos(), expected, nil))
	case expected != nil && got != nil && !expected.Equals(got):
		if !types.Assignable(expected, got) {
			a.diags.Add(newInvalidReturn(n.Pos(), expected, got))
		} else {
			n.Value.SetAttr(ast.AttrImplicitConv, expected)
		}
	}
}

func (a *Analyzer) analyzeIf(n *ast.If, sc *scope.Scope) {
	condType := a.analyzeExpression(n.Cond, sc)
	if condType != nil && !condType.Equals(types.Bool) {
		a.diags.Add(newInvalidOperation(n.Pos(), "if-condition", condType, types.Bool))
	}
	a.analyzeBlock(n.Then, sc.Push("if-then"))
	if n.Else != nil {
		a.analyzeBlock(n.Else, sc.Push("if-else"))
	}
}

func (a *Analyzer) analyzeWhile(n *ast.While, sc *scope.Scope) {
	condType := a.analyzeExpression(n.Cond, sc)
	if condType != nil && !condType.Equals(types.Bool) {
		a.diags.Add(newInvalidOperation(n.Pos(), "while-condition", condType, types.Bool))
	}
	a.analyzeBlock(n.Body, sc.Push("while-body"))
}

func (a *Analyzer) analyzeAssign(n *ast.Assign, sc *scope.Scope) {
	targetType := a.analyzeExpression(n.Target, sc)
	if id, ok := n.Target.(*ast.Id); ok {
		if sym, found := sc.Lookup(id.Name); found && !sym.LValue {
			a.diags.Add(newGeneric(n.Pos(), fmt.Sprintf("cannot assign to constant '%s'", id.Name)))
		}
	}
	valType := a.analyzeExpression(n.Value, sc)
	if targetType != nil && valType != nil && !targetType.Equals(valType) {
		if !types.Assignable(targetType, valType) {
			a.diags.Add(newTypeMismatch(n.Pos(), targetType, valType))
		} else {
			n.Value.SetAttr(ast.AttrImplicitConv, targetType)
		}
	}
}

// analyzeRequire resolves a `require` call per spec.md §4.G: the first
// occurrence of a path loads and analyzes that module's AST in the
// *root* scope; repeats are marked alreadyrequired and skipped.
func (a *Analyzer) analyzeRequire(n *ast.Require, sc *scope.Scope) {
	if a.requiredModules[n.Path] {
		n.SetAttr(ast.AttrAlreadyRequired, true)
		return
	}
	a.requiredModules[n.Path] = true
	if a.Loader == nil {
		return
	}
	prog, err := a.Loader.Load(n.Path)
	if err != nil {
		a.diags.Add(newGeneric(n.Pos(), err.Error()))
		return
	}
	n.SetAttr(ast.AttrLoadedAST, prog)
	for _, s := range prog.Statements {
		a.analyzeStatement(s, a.Global)
	}
}

func (a *Analyzer) analyzePragmaCall(n *ast.PragmaCall, sc *scope.Scope) {
	if n.Name == "afterinfer" {
		a.afterInfer = append(a.afterInfer, n)
		return
	}
	args := make([]any, len(n.Args))
	for i, arg := range n.Args {
		a.analyzeExpression(arg, sc)
		v, _ := arg.Attrs().Get(ast.AttrValue)
		args[i] = v
	}
	switch {
	case pragma.IsCall(n.Name):
		if err := a.Pragmas.Call(n.Name, args); err != nil {
			a.diags.Add(newGeneric(n.Pos(), err.Error()))
		}
	case pragma.IsField(n.Name) && len(args) == 1:
		if err := a.Pragmas.SetField(n.Name, args[0]); err != nil {
			a.diags.Add(newGeneric(n.Pos(), err.Error()))
		}
	default:
		a.diags.Add(newGeneric(n.Pos(), fmt.Sprintf("unrecognized pragma '%s'", n.Name)))
	}
}

func (a *Analyzer) analyzeExpression(expr ast.Expression, sc *scope.Scope) types.Type {
	switch n := expr.(type) {
	case *ast.Id:
		return a.analyzeID(n, sc)
	case *ast.IntLiteral:
		t := types.MinWidthInt(n.Value)
		if suffix, ok := intLiteralSuffix(n.Text); ok {
			if st, ok := a.resolveTypeName(suffix); ok && types.IsInteger(st) {
				t = st
			} else {
				a.diags.Add(newGeneric(n.Pos(), fmt.Sprintf("literal suffix '_%s' is undefined", suffix)))
			}
		}
		ast.SetType(n, t)
		n.SetAttr(ast.AttrComptime, true)
		n.SetAttr(ast.AttrValue, n.Value)
		return t
	case *ast.FloatLiteral:
		ast.SetType(n, types.Float64)
		n.SetAttr(ast.AttrComptime, true)
		n.SetAttr(ast.AttrValue, n.Value)
		return types.Float64
	case *ast.StringLiteral:
		ast.SetType(n, types.String)
		n.SetAttr(ast.AttrComptime, true)
		n.SetAttr(ast.AttrValue, n.Value)
		return types.String
	case *ast.BoolLiteral:
		ast.SetType(n, types.Bool)
		n.SetAttr(ast.AttrComptime, true)
		n.SetAttr(ast.AttrValue, n.Value)
		return types.Bool
	case *ast.NilLiteral:
		ast.SetType(n, types.NilType)
		n.SetAttr(ast.AttrComptime, true)
		return types.NilType
	case *ast.BinaryExpr:
		return a.analyzeBinaryExpr(n, sc)
	case *ast.UnaryExpr:
		return a.analyzeUnaryExpr(n, sc)
	case *ast.Call:
		return a.analyzeCall(n, sc)
	case *ast.PreprocessExpr:
		a.diags.Add(newGeneric(n.Pos(), "preprocess expression survived replay unexecuted"))
		return nil
	case *ast.PreprocessName:
		a.diags.Add(newGeneric(n.Pos(), "preprocess name survived replay unexecuted"))
		return nil
	default:
		a.diags.Add(newGeneric(expr.Pos(), fmt.Sprintf("unsupported expression %s", expr.Tag())))
		return nil
	}
}

func (a *Analyzer) analyzeID(n *ast.Id, sc *scope.Scope) types.Type {
	sym, ok := sc.Lookup(n.Name)
	if !ok {
		a.diags.Add(newUndefinedVariable(n.Pos(), n.Name))
		return nil
	}
	ast.SetType(n, sym.Type)
	n.SetAttr(ast.AttrLValue, sym.LValue)
	if sym.Value != nil {
		n.SetAttr(ast.AttrValue, sym.Value)
		n.SetAttr(ast.AttrComptime, true)
	}
	return sym.Type
}

var arithmeticOps = map[string]bool{"+": true, "-": true, "*": true, "/": true, "%": true}
var comparisonOps = map[string]bool{"==": true, "~=": true, "<": true, "<=": true, ">": true, ">=": true}
var logicalOps = map[string]bool{"and": true, "or": true}

func (a *Analyzer) analyzeBinaryExpr(n *ast.BinaryExpr, sc *scope.Scope) types.Type {
	lt := a.analyzeExpression(n.Left, sc)
	rt := a.analyzeExpression(n.Right, sc)
	if lt == nil || rt == nil {
		return nil
	}

	var result types.Type
	switch {
	case arithmeticOps[n.Op]:
		if pt, ok := types.Promote(lt, rt); ok {
			result = pt
		} else {
			a.diags.Add(newInvalidOperation(n.Pos(), n.Op, lt, rt))
		}
	case comparisonOps[n.Op]:
		if !lt.Equals(rt) && !(types.IsNumeric(lt) && types.IsNumeric(rt)) {
			a.diags.Add(newInvalidOperation(n.Pos(), n.Op, lt, rt))
		}
		result = types.Bool
	case logicalOps[n.Op]:
		if !lt.Equals(types.Bool) || !rt.Equals(types.Bool) {
			a.diags.Add(newInvalidOperation(n.Pos(), n.Op, lt, rt))
		}
		result = types.Bool
	default:
		a.diags.Add(newInvalidOperation(n.Pos(), n.Op, lt, rt))
	}
	if result != nil {
		ast.SetType(n, result)
	}
	return result
}

func (a *Analyzer) analyzeUnaryExpr(n *ast.UnaryExpr, sc *scope.Scope) types.Type {
	operandType := a.analyzeExpression(n.Operand, sc)
	if operandType == nil {
		return nil
	}
	var result types.Type
	switch n.Op {
	case "-":
		if types.IsNumeric(operandType) {
			result = operandType
		} else {
			a.diags.Add(newInvalidOperation(n.Pos(), n.Op, operandType, operandType))
		}
	case "not":
		if operandType.Equals(types.Bool) {
			result = types.Bool
		} else {
			a.diags.Add(newInvalidOperation(n.Pos(), n.Op, operandType, operandType))
		}
	default:
		a.diags.Add(newInvalidOperation(n.Pos(), n.Op, operandType, operandType))
	}
	if result != nil {
		ast.SetType(n, result)
	}
	return result
}

func (a *Analyzer) analyzeCall(n *ast.Call, sc *scope.Scope) types.Type {
	calleeType := a.analyzeExpression(n.Callee, sc)

	if id, ok := n.Callee.(*ast.Id); ok && id.Name == "print" {
		n.SetAttr(ast.AttrBuiltinType, "print")
	}

	fnType, ok := calleeType.(*types.FunctionType)
	if !ok {
		if calleeType != nil {
			a.diags.Add(newNotCallable(n.Pos(), calleeType))
		}
		for _, arg := range n.Args {
			a.analyzeExpression(arg, sc)
		}
		return nil
	}

	if id, ok := n.Callee.(*ast.Id); ok {
		if sym, found := sc.Lookup(id.Name); found {
			if fn, ok := sym.DeclNode.(*ast.FuncDecl); ok && hasAutoParam(fn) {
				argTypes := make([]types.Type, len(n.Args))
				for i, arg := range n.Args {
					argTypes[i] = a.analyzeExpression(arg, sc)
				}
				a.instantiateAuto(fn, argTypes, n.Pos())
				var ret types.Type = types.Void
				if len(fnType.Returns) == 1 {
					ret = fnType.Returns[0]
				}
				ast.SetType(n, ret)
				return ret
			}
		}
	}

	if !fnType.Variadic && len(n.Args) != len(fnType.Params) {
		a.diags.Add(newArgumentCount(n.Pos(), calleeName(n.Callee), len(fnType.Params), len(n.Args)))
	}

	for i, arg := range n.Args {
		argType := a.analyzeExpression(arg, sc)
		if i >= len(fnType.Params) || fnType.Params[i] == nil || argType == nil {
			continue
		}
		pt := fnType.Params[i]
		if pt.Equals(argType) {
			continue
		}
		if !types.Assignable(pt, argType) {
			a.diags.Add(newTypeMismatch(arg.Pos(), pt, argType))
		} else {
			arg.SetAttr(ast.AttrImplicitConv, pt)
		}
	}

	var ret types.Type = types.Void
	if len(fnType.Returns) == 1 {
		ret = fnType.Returns[0]
	}
	ast.SetType(n, ret)
	return ret
}

func calleeName(callee ast.Expression) string {
	if id, ok := callee.(*ast.Id); ok {
		return id.Name
	}
	return "<expr>"
}
