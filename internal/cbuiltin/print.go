package cbuiltin

import (
	"fmt"
	"strings"

	"github.com/natc-lang/natc/internal/cemit"
)

func init() {
	register("print", generatePrint)
}

// printArg describes one argument in a print() call's type tuple.
// Kind is one of: string, cstring, bool, nilval, nullptr, pointer,
// function, int, float.
type printArg struct {
	Kind string
	CType string
	PRI   string // PRI* macro suffix for the int case, e.g. "d32"
}

// parsePrintArgs decodes the "kind:ctype[:pri]" triples ensure_builtin
// receives for "print", since a function's argument-type tuple has to
// travel through the generator's []string args.
func parsePrintArgs(args []string) ([]printArg, error) {
	out := make([]printArg, 0, len(args))
	for _, raw := range args {
		parts := strings.SplitN(raw, ":", 3)
		if len(parts) < 2 {
			return nil, fmt.Errorf("print argument spec %q must be kind:ctype[:pri]", raw)
		}
		a := printArg{Kind: parts[0], CType: parts[1]}
		if len(parts) == 3 {
			a.PRI = parts[2]
		}
		out = append(out, a)
	}
	return out, nil
}

// generatePrint implements spec.md §4.G "Polymorphic print": one
// function per distinct argument-type tuple, writing tab-separated,
// newline-terminated output with per-type formatting.
func generatePrint(u *cemit.Unit, args ...string) (string, error) {
	fields, err := parsePrintArgs(args)
	if err != nil {
		return "", err
	}
	u.EnsureInclude("stdio.h")
	u.EnsureInclude("inttypes.h")

	var name strings.Builder
	name.WriteString("natc_print")
	params := make([]cemit.Param, len(fields))
	for i, f := range fields {
		pname := fmt.Sprintf("a%d", i)
		params[i] = cemit.Param{Type: f.CType, Name: pname}
		fmt.Fprintf(&name, "_%s", sanitizeTypeForSymbol(f.CType))
	}

	var body strings.Builder
	for i, f := range fields {
		pname := fmt.Sprintf("a%d", i)
		if i > 0 {
			body.WriteString("  fputc('\\t', stdout);\n")
		}
		switch f.Kind {
		case "string":
			fmt.Fprintf(&body, "  fwrite(%s.data, 1, %s.size, stdout);\n", pname, pname)
		case "cstring":
			fmt.Fprintf(&body, "  fputs(%s, stdout);\n", pname)
		case "bool":
			fmt.Fprintf(&body, "  fputs(%s ? \"true\" : \"false\", stdout);\n", pname)
		case "nilval":
			body.WriteString("  fputs(\"nil\", stdout);\n")
		case "nullptr":
			body.WriteString("  fputs(\"(null)\", stdout);\n")
		case "pointer":
			fmt.Fprintf(&body, "  fprintf(stdout, \"0x%%\" PRIxPTR, (uintptr_t)%s);\n", pname)
		case "function":
			fmt.Fprintf(&body, "  fprintf(stdout, \"function: 0x%%\" PRIxPTR, (uintptr_t)%s);\n", pname)
		case "int":
			fmt.Fprintf(&body, "  fprintf(stdout, \"%%\" PRI%s, %s);\n", f.PRI, pname)
		case "float":
			fmt.Fprintf(&body,
				"  {\n"+
					"    char buf[48];\n"+
					"    snprintf(buf, sizeof buf, \"%%g\", (double)%s);\n"+
					"    if (!strpbrk(buf, \".eEnN\")) {\n"+
					"      snprintf(buf, sizeof buf, \"%%.1f\", (double)%s);\n"+
					"    }\n"+
					"    fputs(buf, stdout);\n"+
					"  }\n", pname, pname)
			u.EnsureInclude("string.h")
		default:
			return "", fmt.Errorf("print: unknown argument kind %q", f.Kind)
		}
	}
	body.WriteString("  fputc('\\n', stdout);")

	u.DefineFunctionBuiltin(name.String(), "static inline", "void", params, body.String())
	return name.String(), nil
}

func sanitizeTypeForSymbol(ctype string) string {
	r := strings.NewReplacer(" ", "_", "*", "ptr", "[", "_", "]", "_")
	return r.Replace(ctype)
}
