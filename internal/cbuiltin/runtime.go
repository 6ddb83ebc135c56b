package cbuiltin

import "github.com/natc-lang/natc/internal/cemit"

func init() {
	register("runtime_prelude", generateRuntimePrelude)
}

// generateRuntimePrelude defines the handful of bootstrap types every
// generated translation unit needs before any other builtin can run:
// natc_string_t, the fat pointer every stringview value and literal is
// represented as (spec.md §4.C "string" — a view, not an owning
// buffer). Everything else in cbuiltin that mentions .data/.size
// assumes this typedef already exists.
func generateRuntimePrelude(u *cemit.Unit, args ...string) (string, error) {
	u.EnsureInclude("stdbool.h")
	u.EnsureInclude("stddef.h")
	u.EnsureInclude("stdint.h")
	u.DefineBuiltinDecl("natc_string_t",
		"typedef struct {\n  size_t size;\n  const char *data;\n} natc_string_t;\n")
	return "natc_string_t", nil
}
