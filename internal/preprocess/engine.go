package preprocess

import (
	"fmt"
	"strconv"

	"github.com/natc-lang/natc/internal/ast"
	"github.com/natc-lang/natc/internal/lexer"
	"github.com/natc-lang/natc/internal/pragma"
	"github.com/natc-lang/natc/internal/registry"
	"github.com/natc-lang/natc/internal/scope"
)

// Engine implements analyzer.PPRunner: it replays a needprocess-marked
// block per spec.md §4.D step 3 / §4.E.
type Engine struct {
	Reg     *registry.Registry
	Pragmas *pragma.Map
	Config  Config
}

// New creates an Engine sharing the translation unit's registry and
// pragma map with the analyzer.
func New(reg *registry.Registry, pragmas *pragma.Map, cfg Config) *Engine {
	return &Engine{Reg: reg, Pragmas: pragmas, Config: cfg}
}

// RunBlock implements analyzer.PPRunner. It walks blk's direct
// statements in order: a Preprocess directive is executed for side
// effects (its injected nodes, if any, take its place in the output);
// any other statement has its immediate expression positions scanned
// for PreprocessExpr/PreprocessName nodes and substituted, then is
// re-added via `add_statnode` (spec.md §4.E).
//
// Nested blocks (an If branch, a While body, a FuncDecl body) are left
// untouched here — each is itself independently marked and replayed
// when the analyzer later descends into it, per the marker pass having
// already propagated needprocess up from any directive they contain.
func (e *Engine) RunBlock(blk *ast.Block, sc *scope.Scope) (*ast.Block, error) {
	var out []ast.Statement
	for _, stmt := range blk.Statements {
		if pp, ok := stmt.(*ast.Preprocess); ok {
			env := newEnv(e.Reg, sc, e.Pragmas, e.Config, pp.Pos())
			if pp.Run != nil {
				if _, err := pp.Run(env); err != nil {
					return nil, fmt.Errorf("preprocessing %s: %w", pp.Pos(), err)
				}
			}
			for _, injected := range env.drainInjected() {
				if s, ok := injected.(ast.Statement); ok {
					out = append(out, s)
				}
			}
			continue
		}

		env := newEnv(e.Reg, sc, e.Pragmas, e.Config, stmt.Pos())
		rewritten, err := rewriteStatement(stmt, env)
		if err != nil {
			return nil, fmt.Errorf("preprocessing %s: %w", stmt.Pos(), err)
		}
		out = append(out, rewritten)
	}
	return ast.NewBlock(e.Reg, blk.Pos(), out), nil
}

// rewriteStatement substitutes any PreprocessExpr/PreprocessName found
// in stmt's own expression fields, rebuilding stmt only if something
// actually changed (preserving node identity otherwise, since the
// analyzer's scope/type bookkeeping is keyed off that identity).
func rewriteStatement(stmt ast.Statement, env *Env) (ast.Statement, error) {
	switch n := stmt.(type) {
	case *ast.VarDecl:
		if n.Init == nil {
			return n, nil
		}
		init, err := rewriteExpr(n.Init, env)
		if err != nil {
			return nil, err
		}
		if init == n.Init {
			return n, nil
		}
		return ast.NewVarDecl(env.reg, n.Pos(), n.Name, n.TypeName, init, n.IsConst), nil

	case *ast.Return:
		if n.Value == nil {
			return n, nil
		}
		v, err := rewriteExpr(n.Value, env)
		if err != nil {
			return nil, err
		}
		if v == n.Value {
			return n, nil
		}
		return ast.NewReturn(env.reg, n.Pos(), v), nil

	case *ast.If:
		cond, err := rewriteExpr(n.Cond, env)
		if err != nil {
			return nil, err
		}
		if cond == n.Cond {
			return n, nil
		}
		return ast.NewIf(env.reg, n.Pos(), cond, n.Then, n.Else), nil

	case *ast.While:
		cond, err := rewriteExpr(n.Cond, env)
		if err != nil {
			return nil, err
		}
		if cond == n.Cond {
			return n, nil
		}
		return ast.NewWhile(env.reg, n.Pos(), cond, n.Body), nil

	case *ast.ExprStmt:
		expr, err := rewriteExpr(n.Expr, env)
		if err != nil {
			return nil, err
		}
		if expr == n.Expr {
			return n, nil
		}
		return ast.NewExprStmt(env.reg, n.Pos(), expr), nil

	case *ast.Assign:
		target, err := rewriteExpr(n.Target, env)
		if err != nil {
			return nil, err
		}
		value, err := rewriteExpr(n.Value, env)
		if err != nil {
			return nil, err
		}
		if target == n.Target && value == n.Value {
			return n, nil
		}
		return ast.NewAssign(env.reg, n.Pos(), target, value), nil

	case *ast.PragmaCall:
		changed := false
		args := make([]ast.Expression, len(n.Args))
		for i, a := range n.Args {
			ra, err := rewriteExpr(a, env)
			if err != nil {
				return nil, err
			}
			args[i] = ra
			if ra != a {
				changed = true
			}
		}
		if !changed {
			return n, nil
		}
		return ast.NewPragmaCall(env.reg, n.Pos(), n.Name, args), nil

	default:
		return stmt, nil
	}
}

// rewriteExpr recursively substitutes PreprocessExpr/PreprocessName
// nodes found within expr, rebuilding only the ancestor nodes on the
// path to a substitution.
func rewriteExpr(expr ast.Expression, env *Env) (ast.Expression, error) {
	switch n := expr.(type) {
	case *ast.PreprocessExpr:
		if n.Run == nil {
			return nil, fmt.Errorf("preprocess expression at %s has no compiled fragment", n.Pos())
		}
		v, err := n.Run(env)
		if err != nil {
			return nil, err
		}
		return valueToExpr(env.reg, n.Pos(), v)

	case *ast.PreprocessName:
		if n.Run == nil {
			return nil, fmt.Errorf("preprocess name at %s has no compiled fragment", n.Pos())
		}
		v, err := n.Run(env)
		if err != nil {
			return nil, err
		}
		name, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("preprocess name at %s must evaluate to a string, got %T", n.Pos(), v)
		}
		return ast.NewId(env.reg, n.Pos(), name), nil

	case *ast.BinaryExpr:
		left, err := rewriteExpr(n.Left, env)
		if err != nil {
			return nil, err
		}
		right, err := rewriteExpr(n.Right, env)
		if err != nil {
			return nil, err
		}
		if left == n.Left && right == n.Right {
			return n, nil
		}
		return ast.NewBinaryExpr(env.reg, n.Pos(), n.Op, left, right), nil

	case *ast.UnaryExpr:
		operand, err := rewriteExpr(n.Operand, env)
		if err != nil {
			return nil, err
		}
		if operand == n.Operand {
			return n, nil
		}
		return ast.NewUnaryExpr(env.reg, n.Pos(), n.Op, operand), nil

	case *ast.Call:
		callee, err := rewriteExpr(n.Callee, env)
		if err != nil {
			return nil, err
		}
		changed := callee != n.Callee
		args := make([]ast.Expression, len(n.Args))
		for i, a := range n.Args {
			ra, err := rewriteExpr(a, env)
			if err != nil {
				return nil, err
			}
			args[i] = ra
			if ra != a {
				changed = true
			}
		}
		if !changed {
			return n, nil
		}
		return ast.NewCall(env.reg, n.Pos(), callee, args), nil

	default:
		return expr, nil
	}
}

// valueToExpr converts a pp fragment's returned value into the AST
// literal node that represents it, per spec.md §4.E "the surrounding
// parent slot is replaced by an AST node derived from that value". A
// value that is already an ast.Expression (built via the `aster`
// helper) passes through unchanged.
func valueToExpr(reg *registry.Registry, pos lexer.Position, v any) (ast.Expression, error) {
	switch val := v.(type) {
	case ast.Expression:
		return val, nil
	case int64:
		return ast.NewIntLiteral(reg, pos, val, strconv.FormatInt(val, 10)), nil
	case int:
		return ast.NewIntLiteral(reg, pos, int64(val), strconv.Itoa(val)), nil
	case float64:
		return ast.NewFloatLiteral(reg, pos, val), nil
	case string:
		return ast.NewStringLiteral(reg, pos, val), nil
	case bool:
		return ast.NewBoolLiteral(reg, pos, val), nil
	case nil:
		return ast.NewNilLiteral(reg, pos), nil
	default:
		return nil, fmt.Errorf("preprocess expression produced unsupported value type %T", v)
	}
}
