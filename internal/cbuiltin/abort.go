package cbuiltin

import "github.com/natc-lang/natc/internal/cemit"

func init() {
	register("abort", generateAbort)
	register("panic_cstring", generatePanicCString)
	register("panic_string", generatePanicString)
	register("warn", generateWarn)
}

// generateAbort implements spec.md §4.G "Abort": flushes stderr, then
// aborts or exits depending on the `noabort` pragma. It prints no
// message of its own; callers such as the panic helpers print first.
func generateAbort(u *cemit.Unit, args ...string) (string, error) {
	u.EnsureInclude("stdio.h")
	u.EnsureInclude("stdlib.h")

	terminate := "abort();"
	if u.Pragmas().NoAbort() {
		terminate = "exit(-1);"
	}
	body := "  fflush(stderr);\n  " + terminate
	u.DefineFunctionBuiltin("natc_abort", "static inline __attribute__((noreturn))", "void", nil, body)
	return "natc_abort", nil
}

func generatePanicCString(u *cemit.Unit, args ...string) (string, error) {
	u.EnsureInclude("stdio.h")
	abortFn, err := u.EnsureBuiltin("abort")
	if err != nil {
		return "", err
	}
	body := "  fprintf(stderr, \"%s\\n\", msg);\n  " + abortFn + "();"
	u.DefineFunctionBuiltin("natc_panic_cstring", "static inline __attribute__((noreturn))", "void",
		[]cemit.Param{{Type: "const char*", Name: "msg"}}, body)
	return "natc_panic_cstring", nil
}

func generatePanicString(u *cemit.Unit, args ...string) (string, error) {
	u.EnsureInclude("stdio.h")
	abortFn, err := u.EnsureBuiltin("abort")
	if err != nil {
		return "", err
	}
	body := "  fwrite(msg.data, 1, msg.size, stderr);\n  fputc('\\n', stderr);\n  " + abortFn + "();"
	u.DefineFunctionBuiltin("natc_panic_string", "static inline __attribute__((noreturn))", "void",
		[]cemit.Param{{Type: "natc_string_t", Name: "msg"}}, body)
	return "natc_panic_string", nil
}

func generateWarn(u *cemit.Unit, args ...string) (string, error) {
	u.EnsureInclude("stdio.h")
	body := "  fprintf(stderr, \"warning: %s\\n\", msg);\n  fflush(stderr);"
	u.DefineFunctionBuiltin("natc_warn", "static inline", "void",
		[]cemit.Param{{Type: "const char*", Name: "msg"}}, body)
	return "natc_warn", nil
}
