package cbuiltin

import (
	"fmt"

	"github.com/natc-lang/natc/internal/cemit"
)

func init() {
	register("idiv", generateIdiv)
	register("imod", generateImod)
	register("fmod", generateFmod)
}

// generateIdiv implements spec.md §4.G "Integer division" (floor
// division): the b == -1 special case sidesteps INT_MIN/-1 overflow.
// args: integer type, unsigned counterpart type.
func generateIdiv(u *cemit.Unit, args ...string) (string, error) {
	if len(args) != 2 {
		return "", fmt.Errorf("idiv expects (signedType, unsignedType)")
	}
	signed, unsigned := args[0], args[1]
	name := fmt.Sprintf("natc_idiv_%s", signed)

	checkPrefix := ""
	if !u.Pragmas().NoChecks() {
		panicFn, err := u.EnsureBuiltin("panic_cstring")
		if err != nil {
			return "", err
		}
		checkPrefix = fmt.Sprintf("  if (b == 0) { %s(\"division by zero\"); }\n", panicFn)
	}

	body := checkPrefix +
		fmt.Sprintf("  if (b == -1) return -(%s)a;\n", unsigned) +
		"  " + signed + " q = a / b;\n" +
		"  if ((a % b != 0) && ((a < 0) != (b < 0))) q--;\n" +
		"  return q;"
	u.DefineFunctionBuiltin(name, "static inline", signed,
		[]cemit.Param{{Type: signed, Name: "a"}, {Type: signed, Name: "b"}}, body)
	return name, nil
}

// generateImod implements spec.md §4.G "Integer modulo": corrected
// toward positive residues when operand signs differ.
func generateImod(u *cemit.Unit, args ...string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("imod expects (signedType)")
	}
	signed := args[0]
	name := fmt.Sprintf("natc_imod_%s", signed)

	checkPrefix := ""
	if !u.Pragmas().NoChecks() {
		panicFn, err := u.EnsureBuiltin("panic_cstring")
		if err != nil {
			return "", err
		}
		checkPrefix = fmt.Sprintf("  if (b == 0) { %s(\"division by zero\"); }\n", panicFn)
	}

	body := checkPrefix +
		"  " + signed + " r = a % b;\n" +
		"  if (r != 0 && ((r < 0) != (b < 0))) r += b;\n" +
		"  return r;"
	u.DefineFunctionBuiltin(name, "static inline", signed,
		[]cemit.Param{{Type: signed, Name: "a"}, {Type: signed, Name: "b"}}, body)
	return name, nil
}

// generateFmod implements spec.md §4.G "Float modulo": wraps the C
// library fmod/fmodf and corrects the result's sign to match the
// divisor (floor-modulo, not truncate-modulo).
func generateFmod(u *cemit.Unit, args ...string) (string, error) {
	floatType := "double"
	cfn := "fmod"
	if len(args) == 1 && args[0] == "float" {
		floatType = "float"
		cfn = "fmodf"
	}
	u.EnsureInclude("math.h")
	name := "natc_fmod_" + floatType
	body := fmt.Sprintf(
		"  %s r = %s(a, b);\n"+
			"  if (r != 0 && ((r < 0) != (b < 0))) r += b;\n"+
			"  return r;",
		floatType, cfn)
	u.DefineFunctionBuiltin(name, "static inline", floatType,
		[]cemit.Param{{Type: floatType, Name: "a"}, {Type: floatType, Name: "b"}}, body)
	return name, nil
}
