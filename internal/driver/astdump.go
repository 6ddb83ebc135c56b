package driver

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/natc-lang/natc/internal/ast"
	"github.com/natc-lang/natc/internal/types"
)

// DumpAST renders prog as the tagged-variant text format spec.md §8
// scenarios 1/2 show: `Tag{child, child, ...}`, with leaf nodes printing
// their literal payload. withTypes also prints each node's resolved
// `type` attribute (scenario 2), once analysis has set it.
func DumpAST(prog *ast.Program, withTypes bool) string {
	var sb strings.Builder
	sb.WriteString("Block{")
	for i, stmt := range prog.Statements {
		if i > 0 {
			sb.WriteString(", ")
		}
		dumpNode(&sb, stmt, withTypes)
	}
	sb.WriteString("}")
	return sb.String()
}

func dumpNode(sb *strings.Builder, n ast.Node, withTypes bool) {
	if n == nil {
		sb.WriteString("nil")
		return
	}
	switch v := n.(type) {
	case *ast.Id:
		sb.WriteString("Id{")
		sb.WriteString(strconv.Quote(v.Name))
		sb.WriteString("}")
	case *ast.IntLiteral:
		sb.WriteString("IntLiteral{")
		sb.WriteString(strconv.FormatInt(v.Value, 10))
		dumpTypeSlot(sb, v, withTypes)
		sb.WriteString("}")
	case *ast.FloatLiteral:
		sb.WriteString("FloatLiteral{")
		sb.WriteString(strconv.FormatFloat(v.Value, 'g', -1, 64))
		dumpTypeSlot(sb, v, withTypes)
		sb.WriteString("}")
	case *ast.StringLiteral:
		sb.WriteString("String{")
		sb.WriteString(strconv.Quote(v.Value))
		dumpTypeSlot(sb, v, withTypes)
		sb.WriteString("}")
	case *ast.BoolLiteral:
		sb.WriteString("BoolLiteral{")
		sb.WriteString(strconv.FormatBool(v.Value))
		sb.WriteString("}")
	case *ast.NilLiteral:
		sb.WriteString("NilLiteral{}")
	case *ast.Call:
		sb.WriteString("Call{ {")
		for i, a := range v.Args {
			if i > 0 {
				sb.WriteString(", ")
			}
			dumpNode(sb, a, withTypes)
		}
		sb.WriteString("}, ")
		dumpNode(sb, v.Callee, withTypes)
		sb.WriteString(" }")
	case *ast.BinaryExpr:
		fmt.Fprintf(sb, "BinaryExpr{%q, ", v.Op)
		dumpNode(sb, v.Left, withTypes)
		sb.WriteString(", ")
		dumpNode(sb, v.Right, withTypes)
		sb.WriteString("}")
	case *ast.UnaryExpr:
		fmt.Fprintf(sb, "UnaryExpr{%q, ", v.Op)
		dumpNode(sb, v.Operand, withTypes)
		sb.WriteString("}")
	case *ast.Block:
		sb.WriteString("Block{")
		for i, s := range v.Statements {
			if i > 0 {
				sb.WriteString(", ")
			}
			dumpNode(sb, s, withTypes)
		}
		sb.WriteString("}")
	case *ast.VarDecl:
		fmt.Fprintf(sb, "VarDecl{%q", v.Name)
		if v.Init != nil {
			sb.WriteString(", ")
			dumpNode(sb, v.Init, withTypes)
		}
		sb.WriteString("}")
	case *ast.ExprStmt:
		// Scenario 1 (spec.md §8) shows the Block's direct child as the
		// bare Call, not wrapped in an ExprStmt{} — the wrapper exists
		// purely as a Statement/Expression adapter and carries no
		// information of its own worth printing.
		dumpNode(sb, v.Expr, withTypes)
	case *ast.Assign:
		sb.WriteString("Assign{")
		dumpNode(sb, v.Target, withTypes)
		sb.WriteString(", ")
		dumpNode(sb, v.Value, withTypes)
		sb.WriteString("}")
	case *ast.If:
		sb.WriteString("If{")
		dumpNode(sb, v.Cond, withTypes)
		sb.WriteString(", ")
		dumpNode(sb, v.Then, withTypes)
		if v.Else != nil {
			sb.WriteString(", ")
			dumpNode(sb, v.Else, withTypes)
		}
		sb.WriteString("}")
	case *ast.While:
		sb.WriteString("While{")
		dumpNode(sb, v.Cond, withTypes)
		sb.WriteString(", ")
		dumpNode(sb, v.Body, withTypes)
		sb.WriteString("}")
	case *ast.Return:
		sb.WriteString("Return{")
		if v.Value != nil {
			dumpNode(sb, v.Value, withTypes)
		}
		sb.WriteString("}")
	case *ast.FuncDecl:
		fmt.Fprintf(sb, "FuncDecl{%q, ", v.Name)
		dumpNode(sb, v.Body, withTypes)
		sb.WriteString("}")
	case *ast.Require:
		fmt.Fprintf(sb, "Require{%q}", v.Path)
	case *ast.PragmaCall:
		fmt.Fprintf(sb, "PragmaCall{%q}", v.Name)
	case *ast.Preprocess:
		sb.WriteString("Preprocess{}")
	case *ast.PreprocessExpr:
		sb.WriteString("PreprocessExpr{}")
	case *ast.PreprocessName:
		sb.WriteString("PreprocessName{}")
	default:
		fmt.Fprintf(sb, "%s{}", n.Tag())
	}
}

// dumpTypeSlot prints a literal's second positional slot: `nil` before
// analysis has run (spec.md §8 scenario 1's `String{"hello world", nil}`),
// or `type = "<codename>"` once the analyzer has set AttrType (scenario
// 2's added `type = "stringview"`).
func dumpTypeSlot(sb *strings.Builder, n ast.Node, withTypes bool) {
	sb.WriteString(", ")
	if !withTypes {
		sb.WriteString("nil")
		return
	}
	tv, ok := ast.GetType(n)
	if !ok || tv == nil {
		sb.WriteString("nil")
		return
	}
	t, ok := tv.(types.Type)
	if !ok {
		sb.WriteString("nil")
		return
	}
	name := t.Codename()
	if t.Equals(types.String) {
		name = "stringview"
	}
	fmt.Fprintf(sb, `type = %q`, name)
}
