// Package luaemit implements the secondary scripting-language backend
// of spec.md §1/§8 scenario 3: a direct, single-pass statement-to-text
// walker producing Lua source a stock Lua interpreter can run unmodified.
// Unlike internal/cemit, Lua needs no builtin runtime helper library —
// its arithmetic, string, and print semantics already match this
// language's surface closely enough that most nodes translate directly.
package luaemit

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/natc-lang/natc/internal/ast"
)

// Emitter accumulates rendered Lua source for one compilation unit.
type Emitter struct {
	out strings.Builder
}

// New creates an empty emitter.
func New() *Emitter { return &Emitter{} }

// Generate renders prog's top-level statements as Lua source.
func (e *Emitter) Generate(prog *ast.Program) error {
	for _, stmt := range prog.Statements {
		if err := e.emitStatement(stmt, 0); err != nil {
			return err
		}
	}
	return nil
}

// Render returns the accumulated Lua source text.
func (e *Emitter) Render() string { return e.out.String() }

func (e *Emitter) indent(depth int) {
	e.out.WriteString(strings.Repeat("  ", depth))
}

func (e *Emitter) emitStatement(stmt ast.Statement, depth int) error {
	switch n := stmt.(type) {
	case *ast.VarDecl:
		e.indent(depth)
		e.out.WriteString("local ")
		e.out.WriteString(n.Name)
		if n.Init != nil {
			e.out.WriteString(" = ")
			expr, err := e.emitExpr(n.Init)
			if err != nil {
				return err
			}
			e.out.WriteString(expr)
		}
		e.out.WriteByte('\n')
		return nil
	case *ast.Assign:
		target, err := e.emitExpr(n.Target)
		if err != nil {
			return err
		}
		value, err := e.emitExpr(n.Value)
		if err != nil {
			return err
		}
		e.indent(depth)
		fmt.Fprintf(&e.out, "%s = %s\n", target, value)
		return nil
	case *ast.ExprStmt:
		expr, err := e.emitExpr(n.Expr)
		if err != nil {
			return err
		}
		e.indent(depth)
		e.out.WriteString(expr)
		e.out.WriteByte('\n')
		return nil
	case *ast.FuncDecl:
		return e.emitFuncDecl(n, depth)
	case *ast.If:
		return e.emitIf(n, depth)
	case *ast.While:
		return e.emitWhile(n, depth)
	case *ast.Return:
		e.indent(depth)
		if n.Value == nil {
			e.out.WriteString("return\n")
			return nil
		}
		v, err := e.emitExpr(n.Value)
		if err != nil {
			return err
		}
		fmt.Fprintf(&e.out, "return %s\n", v)
		return nil
	case *ast.Block:
		for _, s := range n.Statements {
			if err := e.emitStatement(s, depth); err != nil {
				return err
			}
		}
		return nil
	case *ast.Require:
		if n.AlreadyRequired() {
			return nil
		}
		e.indent(depth)
		fmt.Fprintf(&e.out, "require(%s)\n", strconv.Quote(n.Path))
		return nil
	case *ast.PragmaCall:
		// Call-form pragmas (afterinfer) are consumed by the analyzer and
		// produce no Lua text.
		return nil
	case *ast.Preprocess:
		return fmt.Errorf("preprocess directive at %s survived into Lua emission unexecuted", n.Pos())
	default:
		return fmt.Errorf("luaemit: unsupported statement %s", stmt.Tag())
	}
}

func (e *Emitter) emitFuncDecl(n *ast.FuncDecl, depth int) error {
	e.indent(depth)
	names := make([]string, len(n.Params))
	for i, p := range n.Params {
		names[i] = p.Name
	}
	fmt.Fprintf(&e.out, "function %s(%s)\n", n.Name, strings.Join(names, ", "))
	if n.Body != nil {
		for _, s := range n.Body.Statements {
			if err := e.emitStatement(s, depth+1); err != nil {
				return err
			}
		}
	}
	e.indent(depth)
	e.out.WriteString("end\n")
	return nil
}

func (e *Emitter) emitIf(n *ast.If, depth int) error {
	cond, err := e.emitExpr(n.Cond)
	if err != nil {
		return err
	}
	e.indent(depth)
	fmt.Fprintf(&e.out, "if %s then\n", cond)
	for _, s := range n.Then.Statements {
		if err := e.emitStatement(s, depth+1); err != nil {
			return err
		}
	}
	if n.Else != nil {
		e.indent(depth)
		e.out.WriteString("else\n")
		for _, s := range n.Else.Statements {
			if err := e.emitStatement(s, depth+1); err != nil {
				return err
			}
		}
	}
	e.indent(depth)
	e.out.WriteString("end\n")
	return nil
}

func (e *Emitter) emitWhile(n *ast.While, depth int) error {
	cond, err := e.emitExpr(n.Cond)
	if err != nil {
		return err
	}
	e.indent(depth)
	fmt.Fprintf(&e.out, "while %s do\n", cond)
	for _, s := range n.Body.Statements {
		if err := e.emitStatement(s, depth+1); err != nil {
			return err
		}
	}
	e.indent(depth)
	e.out.WriteString("end\n")
	return nil
}

func (e *Emitter) emitExpr(expr ast.Expression) (string, error) {
	switch n := expr.(type) {
	case *ast.Id:
		return n.Name, nil
	case *ast.IntLiteral:
		return strconv.FormatInt(n.Value, 10), nil
	case *ast.FloatLiteral:
		return strconv.FormatFloat(n.Value, 'g', -1, 64), nil
	case *ast.StringLiteral:
		return strconv.Quote(n.Value), nil
	case *ast.BoolLiteral:
		if n.Value {
			return "true", nil
		}
		return "false", nil
	case *ast.NilLiteral:
		return "nil", nil
	case *ast.BinaryExpr:
		return e.emitBinary(n)
	case *ast.UnaryExpr:
		operand, err := e.emitExpr(n.Operand)
		if err != nil {
			return "", err
		}
		if n.Op == "not" {
			return fmt.Sprintf("(not %s)", operand), nil
		}
		return fmt.Sprintf("(%s%s)", n.Op, operand), nil
	case *ast.Call:
		callee, err := e.emitExpr(n.Callee)
		if err != nil {
			return "", err
		}
		args := make([]string, len(n.Args))
		for i, a := range n.Args {
			text, err := e.emitExpr(a)
			if err != nil {
				return "", err
			}
			args[i] = text
		}
		return fmt.Sprintf("%s(%s)", callee, strings.Join(args, ", ")), nil
	default:
		return "", fmt.Errorf("luaemit: unsupported expression %s", expr.Tag())
	}
}

// luaOps maps this language's comparison/equality spelling onto Lua's.
var luaOps = map[string]string{
	"~=": "~=", "==": "==", "and": "and", "or": "or",
	"+": "+", "-": "-", "*": "*", "/": "/", "%": "%",
	"<": "<", "<=": "<=", ">": ">", ">=": ">=",
}

func (e *Emitter) emitBinary(n *ast.BinaryExpr) (string, error) {
	left, err := e.emitExpr(n.Left)
	if err != nil {
		return "", err
	}
	right, err := e.emitExpr(n.Right)
	if err != nil {
		return "", err
	}
	op, ok := luaOps[n.Op]
	if !ok {
		return "", fmt.Errorf("luaemit: unsupported binary operator %q", n.Op)
	}
	return fmt.Sprintf("(%s %s %s)", left, op, right), nil
}
