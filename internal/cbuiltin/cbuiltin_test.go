package cbuiltin_test

import (
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/natc-lang/natc/internal/cbuiltin"
	"github.com/natc-lang/natc/internal/cemit"
	"github.com/natc-lang/natc/internal/pragma"
)

func TestAbortRespectsNoAbortPragma(t *testing.T) {
	pm := pragma.New()
	require.NoError(t, pm.SetField("noabort", true))
	u := cemit.New(true, pm)

	sym, err := u.EnsureBuiltin("abort")
	require.NoError(t, err)
	assert.Equal(t, "natc_abort", sym)
	assert.Contains(t, u.Render(), "exit(-1);")
}

func TestAbortDefaultsToAbortCall(t *testing.T) {
	u := cemit.New(true)
	_, err := u.EnsureBuiltin("abort")
	require.NoError(t, err)
	assert.Contains(t, u.Render(), "abort();")
}

func TestAssertNarrowElidedUnderNoChecks(t *testing.T) {
	pm := pragma.New()
	require.NoError(t, pm.SetField("nochecks", true))
	u := cemit.New(true, pm)

	_, err := u.EnsureBuiltin("assert_narrow", "int8_t", "int32_t")
	require.NoError(t, err)
	assert.NotContains(t, u.Render(), "narrow casting")
}

func TestAssertNarrowPanicsWhenChecksEnabled(t *testing.T) {
	u := cemit.New(true)
	_, err := u.EnsureBuiltin("assert_narrow", "int8_t", "int32_t")
	require.NoError(t, err)
	out := u.Render()
	assert.Contains(t, out, "narrow casting from int32_t to int8_t failed")
	assert.Contains(t, out, "natc_panic_cstring")
}

func TestPanicCStringPullsInAbortAsADependency(t *testing.T) {
	u := cemit.New(true)
	sym, err := u.EnsureBuiltin("panic_cstring")
	require.NoError(t, err)
	assert.Equal(t, "natc_panic_cstring", sym)
	out := u.Render()
	assert.Contains(t, out, "natc_abort")
}

func TestIdivSpecialCasesIntMinOverNegativeOne(t *testing.T) {
	u := cemit.New(true)
	_, err := u.EnsureBuiltin("idiv", "int32_t", "uint32_t")
	require.NoError(t, err)
	out := u.Render()
	assert.Contains(t, out, "if (b == -1) return -(uint32_t)a;")
}

func TestShlElidesHelperCallForConstantInRangeCount(t *testing.T) {
	two := int64(3)
	cExpr, usesHelper := cbuiltin.ShiftOperator("shl", "int32_t", 32, "x", &two)
	assert.False(t, usesHelper)
	assert.Contains(t, cExpr, "<< 3")
}

func TestShlUsesHelperForNonConstantCount(t *testing.T) {
	_, usesHelper := cbuiltin.ShiftOperator("shl", "int32_t", 32, "x", nil)
	assert.True(t, usesHelper)
}

func TestPrintFormatsEachArgumentKind(t *testing.T) {
	u := cemit.New(true)
	sym, err := u.EnsureBuiltin("print",
		"string:natc_string_t",
		"int:int32_t:d32",
		"bool:bool",
	)
	require.NoError(t, err)
	out := u.Render()
	assert.Contains(t, out, sym)
	assert.Contains(t, out, "fwrite(a0.data, 1, a0.size, stdout)")
	assert.Contains(t, out, "PRId32")
	assert.Contains(t, out, "\"true\" : \"false\"")
}

func TestStreqComparesSizeThenPointerOrMemcmp(t *testing.T) {
	u := cemit.New(true)
	_, err := u.EnsureBuiltin("streq")
	require.NoError(t, err)
	out := u.Render()
	assert.Contains(t, out, "a.size != b.size")
	assert.Contains(t, out, "memcmp(a.data, b.data, a.size)")
}

func TestAssertZeroArityIsMarkedNoreturn(t *testing.T) {
	u := cemit.New(true)
	sym, err := u.EnsureBuiltin("assert0")
	require.NoError(t, err)
	out := u.Render()
	assert.Contains(t, out, "__attribute__((noreturn))")
	assert.Contains(t, out, sym)
}

func TestInt32ArithmeticHelperBundleMatchesSnapshot(t *testing.T) {
	u := cemit.New(true)
	_, err := u.EnsureBuiltin("idiv", "int32_t", "uint32_t")
	require.NoError(t, err)
	_, err = u.EnsureBuiltin("imod", "int32_t")
	require.NoError(t, err)
	_, err = u.EnsureBuiltin("shl", "int32_t", "32")
	require.NoError(t, err)

	snaps.MatchSnapshot(t, u.Render())
}

func TestEqRecordComparesArrayFieldsWithMemcmpAndScalarsWithEquals(t *testing.T) {
	u := cemit.New(true)
	_, err := u.EnsureBuiltin("eq_record", "point_t", "x:primitive", "buf:array:sizeof(a.buf)")
	require.NoError(t, err)
	out := u.Render()
	assert.Contains(t, out, "a.x == b.x")
	assert.Contains(t, out, "memcmp(&a.buf, &b.buf, sizeof(a.buf))")
}
