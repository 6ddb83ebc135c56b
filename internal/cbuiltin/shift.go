package cbuiltin

import (
	"fmt"

	"github.com/natc-lang/natc/internal/cemit"
)

func init() {
	register("shl", generateShift("shl"))
	register("shr", generateShift("shr"))
	register("asr", generateShift("asr"))
}

// generateShift returns a Generator for one of shl/shr/asr, each
// handling spec.md §4.G "Shifts"' deterministic out-of-range and
// negative-count semantics. args: the operand's C integer type and its
// bit width (e.g. "int32_t", "32").
func generateShift(kind string) cemit.Generator {
	return func(u *cemit.Unit, args ...string) (string, error) {
		if len(args) != 2 {
			return "", fmt.Errorf("%s expects (type, bitsize)", kind)
		}
		typ, bits := args[0], args[1]
		name := fmt.Sprintf("natc_%s_%s", kind, typ)

		// shiftExpr/oppositeExpr are this direction's and the
		// opposite direction's raw C shifts, inlined together so a
		// negative count can flip direction without a second helper
		// (avoiding mutual shl/shr recursion through ensure_builtin).
		var shiftExpr, oppositeExpr, outOfRangeFill string
		switch kind {
		case "shl":
			shiftExpr = fmt.Sprintf("(%s)((u%s)a << (u%s)b)", typ, typ, typ)
			oppositeExpr = fmt.Sprintf("(%s)((u%s)a >> (u%s)(-b))", typ, typ, typ)
			outOfRangeFill = "0"
		case "shr":
			shiftExpr = fmt.Sprintf("(%s)((u%s)a >> (u%s)b)", typ, typ, typ)
			oppositeExpr = fmt.Sprintf("(%s)((u%s)a << (u%s)(-b))", typ, typ, typ)
			outOfRangeFill = "0"
		case "asr":
			shiftExpr = fmt.Sprintf("(%s)(a >> b)", typ)
			oppositeExpr = fmt.Sprintf("(%s)((u%s)a << (u%s)(-b))", typ, typ, typ)
			outOfRangeFill = fmt.Sprintf("(a < 0 ? (%s)-1 : (%s)0)", typ, typ)
		}

		body := fmt.Sprintf(
			"  if (b >= %s) return %s;\n"+
				"  if (b <= -%s) return 0;\n"+
				"  if (b < 0) return %s;\n"+
				"  return %s;",
			bits, outOfRangeFill, bits, oppositeExpr, shiftExpr)
		u.DefineFunctionBuiltin(name, "static inline", typ,
			[]cemit.Param{{Type: typ, Name: "a"}, {Type: typ, Name: "b"}}, body)
		return name, nil
	}
}

// ShiftOperator picks the direct C shift form when the count is a
// known, in-range, non-negative constant, eliding the helper entirely
// (spec.md §4.G: "a constant-and-in-range b elides the helper and uses
// a direct C shift"). cExpr returns the literal C source for the shift.
func ShiftOperator(kind, typ string, bits int, a string, constB *int64) (cExpr string, usesHelper bool) {
	if constB != nil && *constB >= 0 && *constB < int64(bits) {
		switch kind {
		case "shl":
			return fmt.Sprintf("(%s)((u%s)%s << %d)", typ, typ, a, *constB), false
		case "shr":
			return fmt.Sprintf("(%s)((u%s)%s >> %d)", typ, typ, a, *constB), false
		case "asr":
			return fmt.Sprintf("(%s)(%s >> %d)", typ, a, *constB), false
		}
	}
	return "", true
}
