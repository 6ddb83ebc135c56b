package cbuiltin

import (
	"fmt"

	"github.com/natc-lang/natc/internal/cemit"
)

func init() {
	register("likely", generateLikely)
	register("unlikely", generateUnlikely)
	register("extern", generatePlatformMacro("extern", "extern"))
	register("cexport", generateCexport)
	register("cimport", generateCimport)
	register("noinline", generatePlatformMacro("noinline", "__attribute__((noinline))"))
	register("inline", generatePlatformMacro("inline", "__inline__"))
	register("register", generatePlatformMacro("register", "register"))
	register("noreturn", generatePlatformMacro("noreturn", "__attribute__((noreturn))"))
	register("threadlocal", generatePlatformMacro("threadlocal", "__thread"))
	register("packed", generatePlatformMacro("packed", "__attribute__((packed))"))
	register("atomic", generateAtomic)
	register("aligned", generateAligned)
	register("alignas", generateAlignas)
	register("alignof", generateAlignof)
	register("static_assert", generateStaticAssertMacro)
}

// generateLikely/generateUnlikely expand to the compiler's branch hint
// when __builtin_expect is available, identity otherwise.
func generateLikely(u *cemit.Unit, args ...string) (string, error) {
	u.EnsureInclude("natc_platform.h")
	u.AddDeclaration("#if defined(__GNUC__) || defined(__clang__)\n"+
		"#define likely(x) __builtin_expect(!!(x), 1)\n"+
		"#else\n#define likely(x) (x)\n#endif\n", "macro:likely(x)")
	return "likely", nil
}

func generateUnlikely(u *cemit.Unit, args ...string) (string, error) {
	u.EnsureInclude("natc_platform.h")
	u.AddDeclaration("#if defined(__GNUC__) || defined(__clang__)\n"+
		"#define unlikely(x) __builtin_expect(!!(x), 0)\n"+
		"#else\n#define unlikely(x) (x)\n#endif\n", "macro:unlikely(x)")
	return "unlikely", nil
}

// generatePlatformMacro returns a Generator that defines name to a fixed
// body. The body is not feature-tested: every target compiler gets the
// same spelling.
func generatePlatformMacro(name, body string) cemit.Generator {
	return func(u *cemit.Unit, args ...string) (string, error) {
		u.DefineBuiltinMacro(name, body)
		return name, nil
	}
}

func generateCexport(u *cemit.Unit, args ...string) (string, error) {
	u.DefineBuiltinMacro("cexport", "__attribute__((visibility(\"default\")))")
	return "cexport", nil
}

func generateCimport(u *cemit.Unit, args ...string) (string, error) {
	u.DefineBuiltinMacro("cimport", "extern")
	return "cimport", nil
}

// generateAtomic/generateAligned/generateAlignas/generateAlignof are
// type/argument-parameterized, so each distinct T/N gets its own macro
// name to avoid clashing with unrelated uses.
func generateAtomic(u *cemit.Unit, args ...string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("atomic(T) expects exactly one type argument")
	}
	name := fmt.Sprintf("ATOMIC_%s", args[0])
	u.DefineBuiltinMacro(name, fmt.Sprintf("_Atomic(%s)", args[0]))
	return name, nil
}

func generateAligned(u *cemit.Unit, args ...string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("aligned(N) expects exactly one argument")
	}
	name := fmt.Sprintf("ALIGNED_%s", args[0])
	u.DefineBuiltinMacro(name, fmt.Sprintf("__attribute__((aligned(%s)))", args[0]))
	return name, nil
}

func generateAlignas(u *cemit.Unit, args ...string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("alignas(N) expects exactly one argument")
	}
	name := fmt.Sprintf("ALIGNAS_%s", args[0])
	u.DefineBuiltinMacro(name, fmt.Sprintf("_Alignas(%s)", args[0]))
	return name, nil
}

func generateAlignof(u *cemit.Unit, args ...string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("alignof(T) expects exactly one type argument")
	}
	name := fmt.Sprintf("ALIGNOF_%s", args[0])
	u.DefineBuiltinMacro(name, fmt.Sprintf("_Alignof(%s)", args[0]))
	return name, nil
}

func generateStaticAssertMacro(u *cemit.Unit, args ...string) (string, error) {
	u.DefineBuiltinMacro("static_assert(c, m)", "_Static_assert(c, m)")
	return "static_assert", nil
}
