package cbuiltin

import (
	"fmt"
	"strings"

	"github.com/natc-lang/natc/internal/cemit"
)

func init() {
	register("lt", generateLt)
	register("eq", generateEq)
	register("eq_record", generateEqRecord)
	register("streq", generateStreq)
}

// generateLt implements spec.md §4.G "Cross-sign less-than". args:
// aType, bType, aSigned ("true"/"false"), bSigned.
func generateLt(u *cemit.Unit, args ...string) (string, error) {
	if len(args) != 4 {
		return "", fmt.Errorf("lt expects (aType, bType, aSigned, bSigned)")
	}
	aType, bType, aSigned, bSigned := args[0], args[1], args[2], args[3]
	name := fmt.Sprintf("natc_lt_%s_%s", aType, bType)

	var body string
	switch {
	case aSigned == "true" && bSigned == "false":
		body = fmt.Sprintf(
			"  if (a < 0) return 1;\n  return (uintmax_t)a < (uintmax_t)b;")
	case aSigned == "false" && bSigned == "true":
		body = "  if (b < 0) return 0;\n  return (uintmax_t)a < (uintmax_t)b;"
	default:
		body = "  return a < b;"
	}
	u.EnsureInclude("stdint.h")
	u.DefineFunctionBuiltin(name, "static inline", "int",
		[]cemit.Param{{Type: aType, Name: "a"}, {Type: bType, Name: "b"}}, body)
	return name, nil
}

// generateEq implements spec.md §4.G "Composite equality" for the
// primitive/cross-sign-integer case. args: aType, bType, and
// optionally "cross-sign" to select the (uN)a == (uN)b && a >= 0 form.
func generateEq(u *cemit.Unit, args ...string) (string, error) {
	if len(args) < 2 {
		return "", fmt.Errorf("eq expects at least (aType, bType)")
	}
	aType, bType := args[0], args[1]
	crossSign := len(args) >= 3 && args[2] == "cross-sign"
	name := fmt.Sprintf("natc_eq_%s_%s", aType, bType)

	body := "  return a == b;"
	if crossSign {
		u.EnsureInclude("stdint.h")
		body = "  return (uintmax_t)a == (uintmax_t)b && a >= 0;"
	}
	u.DefineFunctionBuiltin(name, "static inline", "int",
		[]cemit.Param{{Type: aType, Name: "a"}, {Type: bType, Name: "b"}}, body)
	return name, nil
}

// RecordField describes one field compared by generateEqRecord.
type RecordField struct {
	Name string
	Type string
	// Kind is "primitive", "array", or "union"; array and union fields
	// compare via memcmp, every other field with a plain C ==. Nested
	// record fields are not recursed into.
	Kind string
	// Size is the memcmp length expression, required for array/union
	// fields (e.g. "sizeof(a.buf)").
	Size string
}

// generateEqRecordFor builds the field-wise comparator for a specific
// record type and field list, then registers it under a key scoped to
// that record so repeated requests for the same record memoize.
func generateEqRecordFor(u *cemit.Unit, recordType string, fields []RecordField) (string, error) {
	name := "natc_eq_record_" + recordType
	var body strings.Builder
	for _, f := range fields {
		switch f.Kind {
		case "array", "union":
			u.EnsureInclude("string.h")
			fmt.Fprintf(&body, "  if (memcmp(&a.%s, &b.%s, %s) != 0) return 0;\n", f.Name, f.Name, f.Size)
		default:
			fmt.Fprintf(&body, "  if (!(a.%s == b.%s)) return 0;\n", f.Name, f.Name)
		}
	}
	body.WriteString("  return 1;")
	u.DefineFunctionBuiltin(name, "static inline", "int",
		[]cemit.Param{{Type: recordType, Name: "a"}, {Type: recordType, Name: "b"}}, body.String())
	return name, nil
}

// generateEqRecord is the ensure_builtin-compatible entry point for
// record equality; since a record's field list can't travel through a
// []string arg list cleanly, callers should prefer calling
// generateEqRecordFor directly with typed RecordField data and rely on
// Unit's AddDefinition key-dedup for idempotence. This wrapper exists so
// "eq_record" still resolves through the name-based registry: args are
// the record type followed by any number of "name:kind[:size]" field
// specs.
func generateEqRecord(u *cemit.Unit, args ...string) (string, error) {
	if len(args) < 1 {
		return "", fmt.Errorf("eq_record expects at least a record type argument")
	}
	recordType := args[0]
	var fields []RecordField
	for _, raw := range args[1:] {
		parts := strings.SplitN(raw, ":", 3)
		if len(parts) < 2 {
			return "", fmt.Errorf("eq_record field spec %q must be name:kind[:size]", raw)
		}
		f := RecordField{Name: parts[0], Kind: parts[1]}
		if len(parts) == 3 {
			f.Size = parts[2]
		}
		fields = append(fields, f)
	}
	return generateEqRecordFor(u, recordType, fields)
}

// generateStreq implements spec.md §4.G "String equality": same size
// AND (same data pointer OR size zero OR memcmp equal).
func generateStreq(u *cemit.Unit, args ...string) (string, error) {
	u.EnsureInclude("string.h")
	body := "  if (a.size != b.size) return 0;\n" +
		"  if (a.data == b.data || a.size == 0) return 1;\n" +
		"  return memcmp(a.data, b.data, a.size) == 0;"
	u.DefineFunctionBuiltin("natc_streq", "static inline", "int",
		[]cemit.Param{{Type: "natc_string_t", Name: "a"}, {Type: "natc_string_t", Name: "b"}}, body)
	return "natc_streq", nil
}
