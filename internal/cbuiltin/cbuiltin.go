// Package cbuiltin implements the per-type C runtime helper library of
// spec.md §4.G: one generator per operation whose correct semantics
// can't be expressed with a single C operator, registered with
// internal/cemit's ensure_builtin dispatch so each helper is emitted at
// most once per translation unit, in dependency order.
//
// Grounded on the teacher's builtin/VM split (internal/bytecode's
// compiler only names opcodes; vm_builtins_*.go implement them): cemit
// only knows builtin *names*, cbuiltin supplies what they expand to.
package cbuiltin

import "github.com/natc-lang/natc/internal/cemit"

func register(name string, gen cemit.Generator) {
	cemit.RegisterGenerator(name, gen)
}
