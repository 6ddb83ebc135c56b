package cemit

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/natc-lang/natc/internal/ast"
	"github.com/natc-lang/natc/internal/types"
)

// Codegen lowers an analyzed program into the Unit's C regions — the
// other half of spec.md §4.F alongside the cbuiltin helper library:
// operators and calls that need a runtime helper request it through
// u.EnsureBuiltin, so a program only ever pulls in the helpers it
// actually exercises.
type Codegen struct {
	u *Unit
}

// NewCodegen wraps u for AST lowering.
func NewCodegen(u *Unit) *Codegen { return &Codegen{u: u} }

// Generate lowers every top-level statement of prog: function
// declarations become C function definitions, `require` splices in
// the module it loaded, and everything else accumulates into the
// translation unit's main() stub.
func (g *Codegen) Generate(prog *ast.Program) error {
	if _, err := g.u.EnsureBuiltin("runtime_prelude"); err != nil {
		return err
	}
	var main strings.Builder
	for _, stmt := range prog.Statements {
		if err := g.genTopStatement(stmt, &main); err != nil {
			return err
		}
	}
	main.WriteString("  return 0;")
	g.u.SetMainStub(fmt.Sprintf("int main(void) {\n%s\n}\n", main.String()))
	return nil
}

func (g *Codegen) genTopStatement(stmt ast.Statement, main *strings.Builder) error {
	switch n := stmt.(type) {
	case *ast.FuncDecl:
		return g.genFuncDecl(n)
	case *ast.Require:
		return g.genRequire(n, main)
	default:
		return g.genStatement(stmt, main)
	}
}

// genRequire splices a successfully loaded module's own top-level
// statements into this translation unit (spec.md §4.G "require"): its
// function declarations become definitions of their own, and any
// remaining top-level statements append to the *same* main() stub a
// plain top-level statement would. A repeated require, already marked
// alreadyrequired by the analyzer, is skipped entirely.
func (g *Codegen) genRequire(n *ast.Require, main *strings.Builder) error {
	if n.AlreadyRequired() {
		return nil
	}
	loadedAny, ok := n.Attrs().Get(ast.AttrLoadedAST)
	if !ok {
		return nil
	}
	loaded, ok := loadedAny.(*ast.Program)
	if !ok {
		return fmt.Errorf("require %q: loaded AST has unexpected type %T", n.Path, loadedAny)
	}
	mark := g.u.BeginRequire(n.Path)
	for _, stmt := range loaded.Statements {
		if err := g.genTopStatement(stmt, main); err != nil {
			return err
		}
	}
	g.u.CommitRequire(mark)
	return nil
}

func hasAutoParam(n *ast.FuncDecl) bool {
	for _, p := range n.Params {
		if p.Auto {
			return true
		}
	}
	return false
}

// genFuncDecl emits one function definition. Functions with an `auto`
// parameter are polymorphic (spec.md §8 scenario 6) and have no single
// C signature to emit — monomorphizing per call site is future work;
// today they are checked by the analyzer but produce no C code, so a
// program that only uses one through analysis (never actually calling
// it from generated code) still compiles.
func (g *Codegen) genFuncDecl(n *ast.FuncDecl) error {
	if hasAutoParam(n) {
		return nil
	}
	fnType, _ := typeOf(n).(*types.FunctionType)

	ret := "void"
	if fnType != nil && len(fnType.Returns) == 1 {
		ret = ctypeFor(fnType.Returns[0])
	}

	params := make([]Param, len(n.Params))
	for i, p := range n.Params {
		ctype := "void*"
		if fnType != nil && i < len(fnType.Params) && fnType.Params[i] != nil {
			ctype = ctypeFor(fnType.Params[i])
		}
		params[i] = Param{Type: ctype, Name: mangle(p.Name)}
	}

	var body strings.Builder
	if n.Body != nil {
		for _, s := range n.Body.Statements {
			if err := g.genStatement(s, &body); err != nil {
				return err
			}
		}
	}
	g.u.DefineFunctionBuiltin(mangle(n.Name), "static", ret, params, body.String())
	return nil
}

func (g *Codegen) genStatement(stmt ast.Statement, out *strings.Builder) error {
	switch n := stmt.(type) {
	case *ast.VarDecl:
		return g.genVarDecl(n, out)
	case *ast.Assign:
		return g.genAssign(n, out)
	case *ast.ExprStmt:
		expr, err := g.genExpr(n.Expr)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "  %s;\n", expr)
		return nil
	case *ast.If:
		return g.genIf(n, out)
	case *ast.While:
		return g.genWhile(n, out)
	case *ast.Return:
		return g.genReturn(n, out)
	case *ast.Block:
		for _, s := range n.Statements {
			if err := g.genStatement(s, out); err != nil {
				return err
			}
		}
		return nil
	case *ast.FuncDecl, *ast.PragmaCall, *ast.Require:
		// Nested function declarations, pragmas, and requires below the
		// top level carry no direct C statement of their own.
		return nil
	case *ast.Preprocess:
		return fmt.Errorf("preprocess directive at %s survived into codegen unexecuted", n.Pos())
	default:
		return fmt.Errorf("codegen: unsupported statement %s", stmt.Tag())
	}
}

func (g *Codegen) genVarDecl(n *ast.VarDecl, out *strings.Builder) error {
	t := typeOf(n)
	if t == nil {
		return fmt.Errorf("codegen: variable %q has no resolved type", n.Name)
	}
	ctype := ctypeFor(t)
	if n.Init == nil {
		fmt.Fprintf(out, "  %s %s = %s;\n", ctype, mangle(n.Name), zeroValue(t))
		return nil
	}
	init, err := g.genExprConv(n.Init, t)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "  %s %s = %s;\n", ctype, mangle(n.Name), init)
	return nil
}

func (g *Codegen) genAssign(n *ast.Assign, out *strings.Builder) error {
	id, ok := n.Target.(*ast.Id)
	if !ok {
		return fmt.Errorf("codegen: assignment target at %s must be a plain name", n.Pos())
	}
	val, err := g.genExprConv(n.Value, typeOf(n.Target))
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "  %s = %s;\n", mangle(id.Name), val)
	return nil
}

func (g *Codegen) genIf(n *ast.If, out *strings.Builder) error {
	cond, err := g.genExpr(n.Cond)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "  if (%s) {\n", cond)
	for _, s := range n.Then.Statements {
		if err := g.genStatement(s, out); err != nil {
			return err
		}
	}
	if n.Else != nil {
		out.WriteString("  } else {\n")
		for _, s := range n.Else.Statements {
			if err := g.genStatement(s, out); err != nil {
				return err
			}
		}
	}
	out.WriteString("  }\n")
	return nil
}

func (g *Codegen) genWhile(n *ast.While, out *strings.Builder) error {
	cond, err := g.genExpr(n.Cond)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "  while (%s) {\n", cond)
	for _, s := range n.Body.Statements {
		if err := g.genStatement(s, out); err != nil {
			return err
		}
	}
	out.WriteString("  }\n")
	return nil
}

func (g *Codegen) genReturn(n *ast.Return, out *strings.Builder) error {
	if n.Value == nil {
		out.WriteString("  return;\n")
		return nil
	}
	v, err := g.genExpr(n.Value)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "  return %s;\n", v)
	return nil
}

// genExprConv generates expr's C text, wrapping it in the dst-typed
// narrowing check the analyzer recorded via AttrImplicitConv (spec.md
// §4.G "checks"), or passing it through unconverted when no narrowing
// was required.
func (g *Codegen) genExprConv(expr ast.Expression, dst types.Type) (string, error) {
	text, err := g.genExpr(expr)
	if err != nil {
		return "", err
	}
	convAny, ok := expr.Attrs().Get(ast.AttrImplicitConv)
	if !ok {
		return text, nil
	}
	conv, ok := convAny.(types.Type)
	if !ok || dst == nil || !types.IsInteger(conv) || !types.IsInteger(typeOf(expr)) {
		return text, nil
	}
	fn, err := g.u.EnsureBuiltin("assert_narrow", ctypeFor(conv), ctypeFor(typeOf(expr)))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s(%s)", fn, text), nil
}

func (g *Codegen) genExpr(expr ast.Expression) (string, error) {
	switch n := expr.(type) {
	case *ast.Id:
		return mangle(n.Name), nil
	case *ast.IntLiteral:
		return intLiteralText(typeOf(n), n.Value), nil
	case *ast.FloatLiteral:
		return floatLiteralText(typeOf(n), n.Value), nil
	case *ast.StringLiteral:
		return fmt.Sprintf("(natc_string_t){%d, %s}", len(n.Value), escapeCString(n.Value)), nil
	case *ast.BoolLiteral:
		if n.Value {
			return "true", nil
		}
		return "false", nil
	case *ast.NilLiteral:
		return "NULL", nil
	case *ast.BinaryExpr:
		return g.genBinary(n)
	case *ast.UnaryExpr:
		return g.genUnary(n)
	case *ast.Call:
		return g.genCall(n)
	default:
		return "", fmt.Errorf("codegen: unsupported expression %s", expr.Tag())
	}
}

func (g *Codegen) genUnary(n *ast.UnaryExpr) (string, error) {
	operand, err := g.genExpr(n.Operand)
	if err != nil {
		return "", err
	}
	switch n.Op {
	case "-":
		return fmt.Sprintf("(-(%s))", operand), nil
	case "not":
		return fmt.Sprintf("(!(%s))", operand), nil
	default:
		return "", fmt.Errorf("codegen: unsupported unary operator %q", n.Op)
	}
}

func (g *Codegen) genBinary(n *ast.BinaryExpr) (string, error) {
	left, err := g.genExpr(n.Left)
	if err != nil {
		return "", err
	}
	right, err := g.genExpr(n.Right)
	if err != nil {
		return "", err
	}
	lt, rt := typeOf(n.Left), typeOf(n.Right)

	switch n.Op {
	case "and":
		return fmt.Sprintf("(%s && %s)", left, right), nil
	case "or":
		return fmt.Sprintf("(%s || %s)", left, right), nil
	case "+", "-", "*":
		return fmt.Sprintf("(%s %s %s)", left, n.Op, right), nil
	case "/":
		if types.IsInteger(lt) {
			if types.Signed(lt) {
				fn, err := g.u.EnsureBuiltin("idiv", ctypeFor(lt), ctypeFor(types.UnsignedType(lt)))
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("%s(%s, %s)", fn, left, right), nil
			}
			return fmt.Sprintf("(%s / %s)", left, right), nil
		}
		if lt != nil && lt.Equals(types.Float32) {
			return fmt.Sprintf("(%s / %s)", left, right), nil
		}
		return fmt.Sprintf("(%s / %s)", left, right), nil
	case "%":
		if types.IsInteger(lt) {
			if types.Signed(lt) {
				fn, err := g.u.EnsureBuiltin("imod", ctypeFor(lt))
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("%s(%s, %s)", fn, left, right), nil
			}
			return fmt.Sprintf("(%s %% %s)", left, right), nil
		}
		floatArg := "double"
		if lt != nil && lt.Equals(types.Float32) {
			floatArg = "float"
		}
		fn, err := g.u.EnsureBuiltin("fmod", floatArg)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s(%s, %s)", fn, left, right), nil
	case "==", "~=":
		neg := n.Op == "~="
		if lt != nil && lt.Equals(types.String) {
			fn, err := g.u.EnsureBuiltin("streq")
			if err != nil {
				return "", err
			}
			if neg {
				return fmt.Sprintf("(!%s(%s, %s))", fn, left, right), nil
			}
			return fmt.Sprintf("%s(%s, %s)", fn, left, right), nil
		}
		op := "=="
		if neg {
			op = "!="
		}
		return fmt.Sprintf("(%s %s %s)", left, op, right), nil
	case "<", "<=", ">", ">=":
		_ = rt
		return fmt.Sprintf("(%s %s %s)", left, n.Op, right), nil
	default:
		return "", fmt.Errorf("codegen: unsupported binary operator %q", n.Op)
	}
}

// genCall lowers a call expression. `print` is the one builtin the
// surface language provides without a `require`: its C helper is keyed
// by the call's concrete argument-type tuple, so a distinct overload is
// emitted per distinct tuple (spec.md §4.G "Polymorphic print").
func (g *Codegen) genCall(n *ast.Call) (string, error) {
	args := make([]string, len(n.Args))
	for i, a := range n.Args {
		text, err := g.genExpr(a)
		if err != nil {
			return "", err
		}
		args[i] = text
	}

	if bt, _ := n.Attrs().Get(ast.AttrBuiltinType); bt == "print" {
		specs := make([]string, len(n.Args))
		for i, a := range n.Args {
			specs[i] = printSpecFor(typeOf(a))
		}
		fn, err := g.u.EnsureBuiltin("print", specs...)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s(%s)", fn, strings.Join(args, ", ")), nil
	}

	id, ok := n.Callee.(*ast.Id)
	if !ok {
		return "", fmt.Errorf("codegen: call at %s has an unsupported callee", n.Pos())
	}
	return fmt.Sprintf("%s(%s)", mangle(id.Name), strings.Join(args, ", ")), nil
}

// printSpecFor builds the "kind:ctype[:pri]" triple cbuiltin's print
// generator decodes for one argument's runtime type.
func printSpecFor(t types.Type) string {
	if t == nil {
		return "nilval:void*"
	}
	switch {
	case t.Equals(types.String):
		return "string:natc_string_t"
	case t.Equals(types.CString):
		return "cstring:const char*"
	case t.Equals(types.Bool):
		return "bool:bool"
	case t.Equals(types.NilType):
		return "nilval:void*"
	case t.Equals(types.NilPtr):
		return "nullptr:void*"
	case types.IsFloat(t):
		return "float:" + ctypeFor(t)
	case types.IsInteger(t):
		return fmt.Sprintf("int:%s:%s", ctypeFor(t), priSuffix(t))
	case t.Kind() == types.KindPointer:
		return "pointer:void*"
	case t.Kind() == types.KindFunction:
		return "function:void*"
	default:
		return "cstring:const char*"
	}
}

func priSuffix(t types.Type) string {
	signed := types.Signed(t)
	bits := types.BitSize(t)
	switch {
	case t.Equals(types.ISize):
		return "dPTR"
	case t.Equals(types.USize):
		return "uPTR"
	case signed:
		return fmt.Sprintf("d%d", bits)
	default:
		return fmt.Sprintf("u%d", bits)
	}
}

func typeOf(n ast.Node) types.Type {
	v, ok := ast.GetType(n)
	if !ok {
		return nil
	}
	t, _ := v.(types.Type)
	return t
}

// mangle maps a source identifier to its C spelling. Names never
// collide with the natc_ prefix reserved for generated helpers, so a
// straight passthrough is safe except for the handful of C keywords a
// source program might otherwise use as ordinary names.
func mangle(name string) string {
	if cKeywords[name] {
		return "natc_user_" + name
	}
	return name
}

var cKeywords = map[string]bool{
	"auto": true, "break": true, "case": true, "char": true, "const": true,
	"continue": true, "default": true, "do": true, "double": true, "else": true,
	"enum": true, "extern": true, "float": true, "for": true, "goto": true,
	"if": true, "int": true, "long": true, "register": true, "return": true,
	"short": true, "signed": true, "sizeof": true, "static": true, "struct": true,
	"switch": true, "typedef": true, "union": true, "unsigned": true, "void": true,
	"volatile": true, "while": true,
}

// ctypeFor maps a resolved types.Type to the C type its values are
// represented as — the inverse of each primitive's Codename(), which
// names the helper-symbol fragment rather than the storage type.
func ctypeFor(t types.Type) string {
	if t == nil {
		return "void"
	}
	switch {
	case t.Equals(types.Bool):
		return "bool"
	case t.Equals(types.Int8):
		return "int8_t"
	case t.Equals(types.Int16):
		return "int16_t"
	case t.Equals(types.Int32):
		return "int32_t"
	case t.Equals(types.Int64):
		return "int64_t"
	case t.Equals(types.Uint8):
		return "uint8_t"
	case t.Equals(types.Uint16):
		return "uint16_t"
	case t.Equals(types.Uint32):
		return "uint32_t"
	case t.Equals(types.Uint64):
		return "uint64_t"
	case t.Equals(types.ISize):
		return "intptr_t"
	case t.Equals(types.USize):
		return "uintptr_t"
	case t.Equals(types.Float32):
		return "float"
	case t.Equals(types.Float64):
		return "double"
	case t.Equals(types.Float128):
		return "long double"
	case t.Equals(types.String):
		return "natc_string_t"
	case t.Equals(types.CString):
		return "const char*"
	case t.Equals(types.NilType), t.Equals(types.NilPtr):
		return "void*"
	case t.Equals(types.Void):
		return "void"
	}
	if pt, ok := t.(*types.PointerType); ok {
		return ctypeFor(pt.Elem) + "*"
	}
	return "void*"
}

func zeroValue(t types.Type) string {
	switch {
	case t.Equals(types.Bool):
		return "false"
	case types.IsFloat(t):
		return "0"
	case t.Equals(types.String):
		return `(natc_string_t){0, ""}`
	case t.Equals(types.NilType), t.Equals(types.NilPtr), t.Equals(types.CString):
		return "NULL"
	default:
		return "0"
	}
}

func intLiteralText(t types.Type, v int64) string {
	suffix := ""
	if t != nil {
		switch {
		case t.Equals(types.Uint64), t.Equals(types.USize):
			suffix = "ULL"
		case t.Equals(types.Int64), t.Equals(types.ISize):
			suffix = "LL"
		case !types.Signed(t) && t != nil:
			suffix = "U"
		}
	}
	return strconv.FormatInt(v, 10) + suffix
}

func floatLiteralText(t types.Type, v float64) string {
	text := strconv.FormatFloat(v, 'g', -1, 64)
	if t != nil && t.Equals(types.Float32) {
		return text + "f"
	}
	return text
}

// escapeCString renders s as a double-quoted C string literal.
func escapeCString(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\r':
			sb.WriteString(`\r`)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
