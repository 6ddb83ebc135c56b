package cbuiltin

import (
	"fmt"

	"github.com/natc-lang/natc/internal/cemit"
)

func init() {
	register("assert_narrow", generateAssertNarrow)
	register("assert_bounds", generateAssertBounds)
	register("assert_deref", generateAssertDeref)
}

// generateAssertNarrow implements spec.md §4.G "Narrowing check": a
// round-trip comparison catches both out-of-range integer narrowing and
// float->int truncation in one shape. args: dst type, src type.
func generateAssertNarrow(u *cemit.Unit, args ...string) (string, error) {
	if len(args) != 2 {
		return "", fmt.Errorf("assert_narrow expects (dst, src) type arguments")
	}
	dst, src := args[0], args[1]
	if u.Pragmas().NoChecks() {
		name := fmt.Sprintf("natc_narrow_%s_from_%s", dst, src)
		u.DefineFunctionBuiltin(name, "static inline", dst,
			[]cemit.Param{{Type: src, Name: "v"}}, fmt.Sprintf("  return (%s)v;", dst))
		return name, nil
	}
	panicFn, err := u.EnsureBuiltin("panic_cstring")
	if err != nil {
		return "", err
	}
	name := fmt.Sprintf("natc_narrow_%s_from_%s", dst, src)
	body := fmt.Sprintf(
		"  %s r = (%s)v;\n"+
			"  if ((%s)r != v) {\n"+
			"    %s(\"narrow casting from %s to %s failed\");\n"+
			"  }\n"+
			"  return r;",
		dst, dst, src, panicFn, src, dst)
	u.DefineFunctionBuiltin(name, "static inline", dst, []cemit.Param{{Type: src, Name: "v"}}, body)
	return name, nil
}

// generateAssertBounds implements spec.md §4.G "Bounds check". args:
// index type, length type.
func generateAssertBounds(u *cemit.Unit, args ...string) (string, error) {
	idxType := "intptr_t"
	lenType := "size_t"
	if len(args) == 2 {
		idxType, lenType = args[0], args[1]
	}
	name := "natc_assert_bounds"
	if u.Pragmas().NoChecks() {
		u.DefineFunctionBuiltin(name, "static inline", "void",
			[]cemit.Param{{Type: idxType, Name: "i"}, {Type: lenType, Name: "len"}}, "  (void)i; (void)len;")
		return name, nil
	}
	panicFn, err := u.EnsureBuiltin("panic_cstring")
	if err != nil {
		return "", err
	}
	body := fmt.Sprintf(
		"  if ((uintmax_t)i >= (uintmax_t)len || i < 0) {\n"+
			"    %s(\"array index: position out of bounds\");\n"+
			"  }",
		panicFn)
	u.EnsureInclude("stdint.h")
	u.DefineFunctionBuiltin(name, "static inline", "void",
		[]cemit.Param{{Type: idxType, Name: "i"}, {Type: lenType, Name: "len"}}, body)
	return name, nil
}

// generateAssertDeref implements spec.md §4.G "Null-deref check".
func generateAssertDeref(u *cemit.Unit, args ...string) (string, error) {
	name := "natc_assert_deref"
	if u.Pragmas().NoChecks() {
		u.DefineFunctionBuiltin(name, "static inline", "void",
			[]cemit.Param{{Type: "const void*", Name: "p"}}, "  (void)p;")
		return name, nil
	}
	panicFn, err := u.EnsureBuiltin("panic_cstring")
	if err != nil {
		return "", err
	}
	body := fmt.Sprintf(
		"  if (p == NULL) {\n"+
			"    %s(\"attempt to dereference a null pointer\");\n"+
			"  }",
		panicFn)
	u.DefineFunctionBuiltin(name, "static inline", "void",
		[]cemit.Param{{Type: "const void*", Name: "p"}}, body)
	return name, nil
}
