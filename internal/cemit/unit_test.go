package cemit_test

import (
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/natc-lang/natc/internal/cemit"
)

func TestEnsureIncludeIsIdempotent(t *testing.T) {
	u := cemit.New(false)
	u.EnsureInclude("stdio.h")
	u.EnsureInclude("stdio.h")
	u.EnsureInclude("stdlib.h")

	out := u.Render()
	assert.Equal(t, 1, countOccurrences(out, "#include <stdio.h>"))
	assert.Equal(t, 1, countOccurrences(out, "#include <stdlib.h>"))
}

func TestAddDeclarationAndDefinitionDedup(t *testing.T) {
	u := cemit.New(true)
	u.AddDeclaration("void foo(void);\n", "foo")
	u.AddDeclaration("void foo(void); /* again */\n", "foo")
	u.AddDefinition("void foo(void) { return; }\n", "foo")
	u.AddDefinition("void foo(void) { return; } /* again */\n", "foo")

	out := u.Render()
	assert.Equal(t, 1, countOccurrences(out, "void foo(void);"))
	assert.Equal(t, 1, countOccurrences(out, "{ return; }"))
}

func TestEnsureBuiltinMemoizesAndOrdersDependencies(t *testing.T) {
	calls := 0
	cemit.RegisterGenerator("test_dep", func(u *cemit.Unit, args ...string) (string, error) {
		calls++
		u.DefineBuiltinDecl("dep_symbol", "int dep_symbol(void);\n")
		return "dep_symbol", nil
	})
	cemit.RegisterGenerator("test_needs_dep", func(u *cemit.Unit, args ...string) (string, error) {
		dep, err := u.EnsureBuiltin("test_dep")
		if err != nil {
			return "", err
		}
		u.DefineFunctionBuiltin("uses_dep", "static inline", "int", nil, "return "+dep+"();")
		return "uses_dep", nil
	})

	u := cemit.New(true)
	sym1, err := u.EnsureBuiltin("test_needs_dep")
	require.NoError(t, err)
	sym2, err := u.EnsureBuiltin("test_needs_dep")
	require.NoError(t, err)

	assert.Equal(t, "uses_dep", sym1)
	assert.Equal(t, sym1, sym2)
	assert.Equal(t, 1, calls, "generator must run exactly once per distinct key")

	out := u.Render()
	declIdx := indexOf(out, "dep_symbol")
	defnIdx := indexOf(out, "uses_dep")
	require.GreaterOrEqual(t, declIdx, 0)
	require.GreaterOrEqual(t, defnIdx, 0)
	assert.Less(t, declIdx, defnIdx, "the dependency's declaration must precede its dependent's definition")
}

func TestEnsureBuiltinUnknownNameErrors(t *testing.T) {
	u := cemit.New(true)
	_, err := u.EnsureBuiltin("does_not_exist")
	require.Error(t, err)
}

func TestRequireRollbackDiscardsEmptyOutput(t *testing.T) {
	u := cemit.New(true)
	mark := u.BeginRequire("empty_module")
	u.RollbackRequire(mark)

	out := u.Render()
	assert.NotContains(t, out, "empty_module")
}

func TestRequireCommitKeepsOutput(t *testing.T) {
	u := cemit.New(true)
	mark := u.BeginRequire("real_module")
	u.AddDefinition("int real_module_init(void) { return 0; }\n", "real_module_init")
	u.CommitRequire(mark)

	out := u.Render()
	assert.Contains(t, out, "require \"real_module\"")
	assert.Contains(t, out, "real_module_init")
}

func TestRenderOmitsMainStubForLibraryBuild(t *testing.T) {
	u := cemit.New(true)
	u.SetMainStub("int main(void) { return 0; }")
	out := u.Render()
	assert.NotContains(t, out, "int main(void)")
}

func TestRenderIncludesMainStubForProgramBuild(t *testing.T) {
	u := cemit.New(false)
	u.SetMainStub("int main(void) { return 0; }")
	out := u.Render()
	assert.Contains(t, out, "int main(void)")
}

func TestEmissionOrderIsDirectivesDeclarationsDefinitionsMain(t *testing.T) {
	u := cemit.New(false)
	u.EnsureInclude("stdio.h")
	u.AddDeclaration("void helper(void);\n", "helper")
	u.AddDefinition("void helper(void) {}\n", "helper")
	u.SetMainStub("int main(void) { helper(); return 0; }")

	out := u.Render()
	iDirective := indexOf(out, "#include")
	iDecl := indexOf(out, "void helper(void);")
	iDefn := indexOf(out, "void helper(void) {}")
	iMain := indexOf(out, "int main")

	require.True(t, iDirective < iDecl)
	require.True(t, iDecl < iDefn)
	require.True(t, iDefn < iMain)
}

func TestRenderedUnitMatchesSnapshot(t *testing.T) {
	u := cemit.New(false)
	u.EnsureInclude("stdio.h")
	u.AddDeclaration("void greet(void);\n", "greet")
	u.AddDefinition("void greet(void) {\n  fputs(\"hello\\n\", stdout);\n}\n", "greet")
	u.SetMainStub("int main(void) {\n  greet();\n  return 0;\n}")

	snaps.MatchSnapshot(t, u.Render())
}

func countOccurrences(haystack, needle string) int {
	count := 0
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			count++
			i += len(needle) - 1
		}
	}
	return count
}

func indexOf(haystack, needle string) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return i
		}
	}
	return -1
}
