package preprocess_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/natc-lang/natc/internal/ast"
	"github.com/natc-lang/natc/internal/lexer"
	"github.com/natc-lang/natc/internal/pragma"
	"github.com/natc-lang/natc/internal/preprocess"
	"github.com/natc-lang/natc/internal/registry"
	"github.com/natc-lang/natc/internal/scope"
)

func envFor(t *testing.T, reg *registry.Registry, sc *scope.Scope) (*preprocess.Engine, *pragma.Map) {
	t.Helper()
	pm := pragma.New()
	return preprocess.New(reg, pm, preprocess.Config{Generator: "c"}), pm
}

func TestInjectNodeAppendsToReconstructedBlock(t *testing.T) {
	reg := registry.New()
	sc := scope.New("root")
	engine, _ := envFor(t, reg, sc)

	decl := ast.NewVarDecl(reg, lexer.Position{}, "x", "", ast.NewIntLiteral(reg, lexer.Position{}, 1, "1"), false)

	fragment := ast.Fragment(func(envAny any) (any, error) {
		env := envAny.(*preprocess.Env)
		env.InjectNode(decl)
		return nil, nil
	})
	pp := ast.NewPreprocess(reg, lexer.Position{}, "##injectnode(x)", fragment)
	blk := ast.NewBlock(reg, lexer.Position{}, []ast.Statement{pp})

	out, err := engine.RunBlock(blk, sc)
	require.NoError(t, err)
	require.Len(t, out.Statements, 1)
	assert.Same(t, decl, out.Statements[0])
}

func TestStaticAssertFailureAbortsPreprocessing(t *testing.T) {
	reg := registry.New()
	sc := scope.New("root")
	engine, _ := envFor(t, reg, sc)

	fragment := ast.Fragment(func(envAny any) (any, error) {
		env := envAny.(*preprocess.Env)
		return nil, env.StaticAssert(false, "must not happen")
	})
	pp := ast.NewPreprocess(reg, lexer.Position{Line: 3}, "##staticassert(false, ...)", fragment)
	blk := ast.NewBlock(reg, lexer.Position{}, []ast.Statement{pp})

	_, err := engine.RunBlock(blk, sc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must not happen")
}

func TestHygienizeDiscardsSymbolsBetweenCalls(t *testing.T) {
	reg := registry.New()
	sc := scope.New("root")
	engine, _ := envFor(t, reg, sc)

	var hygienic ast.Fragment
	setup := ast.Fragment(func(envAny any) (any, error) {
		env := envAny.(*preprocess.Env)
		inner := ast.Fragment(func(any) (any, error) {
			_ = sc.Declare("temp", &scope.Symbol{Name: "temp"})
			return nil, nil
		})
		hygienic = env.Hygienize(inner)
		return nil, nil
	})
	pp := ast.NewPreprocess(reg, lexer.Position{}, "##setup", setup)
	blk := ast.NewBlock(reg, lexer.Position{}, []ast.Statement{pp})

	_, err := engine.RunBlock(blk, sc)
	require.NoError(t, err)
	require.NotNil(t, hygienic)

	_, err = hygienic(nil)
	require.NoError(t, err)
	if _, ok := sc.Lookup("temp"); ok {
		t.Fatal("hygienize must restore the checkpoint after the call, discarding 'temp'")
	}

	// A second call must behave identically (idempotent hygiene).
	_, err = hygienic(nil)
	require.NoError(t, err)
	if _, ok := sc.Lookup("temp"); ok {
		t.Fatal("second hygienize call leaked a symbol from its own invocation")
	}
}

func TestAfterInferInjectsPragmaCallCarryingTheCallback(t *testing.T) {
	reg := registry.New()
	sc := scope.New("root")
	engine, _ := envFor(t, reg, sc)

	ran := false
	fragment := ast.Fragment(func(envAny any) (any, error) {
		env := envAny.(*preprocess.Env)
		env.AfterInfer(func() error {
			ran = true
			return nil
		})
		return nil, nil
	})
	pp := ast.NewPreprocess(reg, lexer.Position{}, "##afterinfer(...)", fragment)
	blk := ast.NewBlock(reg, lexer.Position{}, []ast.Statement{pp})

	out, err := engine.RunBlock(blk, sc)
	require.NoError(t, err)
	require.Len(t, out.Statements, 1)

	pc, ok := out.Statements[0].(*ast.PragmaCall)
	require.True(t, ok)
	assert.Equal(t, "afterinfer", pc.Name)

	cb, ok := pc.Attrs().Get(ast.AttrValue)
	require.True(t, ok)
	require.NoError(t, cb.(func() error)())
	assert.True(t, ran)
}

func TestPreprocessExprIsReplacedWithLiteral(t *testing.T) {
	reg := registry.New()
	sc := scope.New("root")
	engine, _ := envFor(t, reg, sc)

	fragment := ast.Fragment(func(any) (any, error) {
		return int64(42), nil
	})
	ppExpr := ast.NewPreprocessExpr(reg, lexer.Position{}, "#[ 42 ]#", fragment)
	decl := ast.NewVarDecl(reg, lexer.Position{}, "x", "", ppExpr, false)
	blk := ast.NewBlock(reg, lexer.Position{}, []ast.Statement{decl})

	out, err := engine.RunBlock(blk, sc)
	require.NoError(t, err)
	require.Len(t, out.Statements, 1)

	newDecl, ok := out.Statements[0].(*ast.VarDecl)
	require.True(t, ok)
	lit, ok := newDecl.Init.(*ast.IntLiteral)
	require.True(t, ok, "PreprocessExpr slot must be replaced by a literal node")
	assert.Equal(t, int64(42), lit.Value)
}

func TestGetFallsBackThroughScopePragmaHost(t *testing.T) {
	reg := registry.New()
	sc := scope.New("root")
	_ = sc.Declare("known", &scope.Symbol{Name: "known"})
	engine, pm := envFor(t, reg, sc)
	require.NoError(t, pm.SetField("nochecks", true))

	var gotSymbol, gotPragma, gotHost bool
	fragment := ast.Fragment(func(envAny any) (any, error) {
		env := envAny.(*preprocess.Env)
		if b, ok := env.Get("known"); ok && b.Kind == preprocess.BindingSymbol {
			gotSymbol = true
		}
		if b, ok := env.Get("nochecks"); ok && b.Kind == preprocess.BindingPragma {
			gotPragma = true
		}
		if b, ok := env.Get("primtypes"); ok && b.Kind == preprocess.BindingHost {
			gotHost = true
		}
		return nil, nil
	})
	pp := ast.NewPreprocess(reg, lexer.Position{}, "##probe", fragment)
	blk := ast.NewBlock(reg, lexer.Position{}, []ast.Statement{pp})

	_, err := engine.RunBlock(blk, sc)
	require.NoError(t, err)
	assert.True(t, gotSymbol)
	assert.True(t, gotPragma)
	assert.True(t, gotHost)
}
