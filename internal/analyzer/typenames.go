package analyzer

import "github.com/natc-lang/natc/internal/types"

// primitiveTypeNames maps the surface-syntax primitive type names to
// their interned types.Type singleton. "auto" is handled separately: it
// has no fixed type and instead triggers inference from the
// initializer (spec.md §8 scenario 6, VarDecl with no declared type).
var primitiveTypeNames = map[string]types.Type{
	"boolean":  types.Bool,
	"int8":     types.Int8,
	"int16":    types.Int16,
	"int32":    types.Int32,
	"int64":    types.Int64,
	"uint8":    types.Uint8,
	"uint16":   types.Uint16,
	"uint32":   types.Uint32,
	"uint64":   types.Uint64,
	"isize":    types.ISize,
	"usize":    types.USize,
	"float32":  types.Float32,
	"float64":  types.Float64,
	"float128": types.Float128,
	"string":   types.String,
	"cstring":  types.CString,
	"void":     types.Void,
}

// resolveTypeName resolves a declared-type name against the builtin
// primitive set and any named record/enum types the analyzer has
// registered on the scope's global type table.
func (a *Analyzer) resolveTypeName(name string) (types.Type, bool) {
	if t, ok := primitiveTypeNames[name]; ok {
		return t, true
	}
	if t, ok := a.namedTypes[name]; ok {
		return t, true
	}
	return nil, false
}

// intLiteralSuffix splits an integer literal's original text at its
// first `_`, returning the suffix (if any) the literal was written
// with, e.g. "1_u32" -> ("u32", true). Mirrors
// internal/driverparse.splitIntSuffix without importing the parser
// package, which would create an import cycle (parser -> ast, analyzer
// -> ast; the analyzer never depends on the parser).
func intLiteralSuffix(text string) (string, bool) {
	for i := 0; i < len(text); i++ {
		if text[i] == '_' {
			return text[i+1:], true
		}
	}
	return "", false
}

// declareNamedType registers a composite type under name, for later
// resolveTypeName lookups. Nothing in the repository calls it, so
// namedTypes stays empty and resolveTypeName resolves primitive names
// only.
func (a *Analyzer) declareNamedType(name string, t types.Type) {
	a.namedTypes[name] = t
}
