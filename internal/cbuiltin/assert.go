package cbuiltin

import (
	"fmt"

	"github.com/natc-lang/natc/internal/cemit"
)

func init() {
	register("assert0", generateAssert(0))
	register("assert1", generateAssert(1))
	register("assert2", generateAssert(2))
}

// generateAssert returns a Generator for one of `assert`'s three
// call-site arities (spec.md §4.G "assert"). The `nochecks` pragma
// elides `check` entirely but never removes `assert` itself — callers
// that want nochecks to disable a check should gate the *call site*,
// not this helper.
func generateAssert(arity int) cemit.Generator {
	return func(u *cemit.Unit, args ...string) (string, error) {
		name := fmt.Sprintf("natc_assert%d", arity)
		u.EnsureInclude("stdio.h")
		panicFn, err := u.EnsureBuiltin("panic_cstring")
		if err != nil {
			return "", err
		}

		var params []cemit.Param
		var body string
		switch arity {
		case 0:
			body = fmt.Sprintf(
				"  char buf[256];\n"+
					"  snprintf(buf, sizeof buf, \"%%s:%%d: assertion failed!\", file, line);\n"+
					"  %s(buf);",
				panicFn)
			params = []cemit.Param{{Type: "const char*", Name: "file"}, {Type: "int", Name: "line"}}
			u.DefineFunctionBuiltin(name, "static inline __attribute__((noreturn))", "void", params, body)
			return name, nil

		case 1:
			body = fmt.Sprintf(
				"  if (cond) return;\n"+
					"  char buf[256];\n"+
					"  snprintf(buf, sizeof buf, \"%%s:%%d: %%s\", file, line, msg);\n"+
					"  %s(buf);",
				panicFn)
			params = []cemit.Param{
				{Type: "int", Name: "cond"},
				{Type: "const char*", Name: "msg"},
				{Type: "const char*", Name: "file"},
				{Type: "int", Name: "line"},
			}

		case 2:
			body = fmt.Sprintf(
				"  if (cond) return;\n"+
					"  char buf[384];\n"+
					"  snprintf(buf, sizeof buf, \"%%s:%%d: %%s%%s%%sassertion failed!%%s\", file, line, prefix, detail, \" \", suffix);\n"+
					"  %s(buf);",
				panicFn)
			params = []cemit.Param{
				{Type: "int", Name: "cond"},
				{Type: "const char*", Name: "prefix"},
				{Type: "const char*", Name: "detail"},
				{Type: "const char*", Name: "suffix"},
				{Type: "const char*", Name: "file"},
				{Type: "int", Name: "line"},
			}

		default:
			return "", fmt.Errorf("assert: unsupported arity %d", arity)
		}
		u.DefineFunctionBuiltin(name, "static inline", "void", params, body)
		return name, nil
	}
}
