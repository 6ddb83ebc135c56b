// Package cemit implements the C emitter core of spec.md §4.F: a
// translation unit accumulating deduplicated output across four ordered
// regions, plus the `ensure_include`/`ensure_builtin` memoization that
// lets later helpers assume their dependencies already exist.
package cemit

import (
	"fmt"
	"strings"

	"github.com/natc-lang/natc/internal/pragma"
)

// Generator emits a builtin helper named by key into u on first use and
// returns the C symbol later call sites should reference. Generators are
// supplied by internal/cbuiltin (spec.md §4.G) and registered by name so
// cemit never imports the builtin library — mirroring the compiler/VM
// split in the teacher's bytecode package, where the compiler only knows
// opcode names and the VM owns their implementations.
type Generator func(u *Unit, args ...string) (string, error)

var generators = map[string]Generator{}

// RegisterGenerator installs a builtin generator under name. Called from
// cbuiltin's package init functions.
func RegisterGenerator(name string, gen Generator) {
	generators[name] = gen
}

// Unit is one translation unit's accumulated C output.
type Unit struct {
	directives   strings.Builder
	declarations strings.Builder
	definitions  strings.Builder
	mainStub     strings.Builder

	includedHeaders map[string]bool
	builtinSymbols  map[string]string // ensure_builtin key -> emitted symbol
	declKeys        map[string]bool
	defnKeys        map[string]bool

	pragmas *pragma.Map
	library bool // true suppresses the main() stub
}

// New creates an empty translation unit. library suppresses the trailing
// main stub for builds that only produce a linkable object. pragmas may
// be nil, in which case every field pragma reads as unset (no checks
// disabled, abort used over exit).
func New(library bool, pragmas ...*pragma.Map) *Unit {
	u := &Unit{
		includedHeaders: make(map[string]bool),
		builtinSymbols:  make(map[string]string),
		declKeys:        make(map[string]bool),
		defnKeys:        make(map[string]bool),
		library:         library,
		pragmas:         pragma.New(),
	}
	if len(pragmas) > 0 && pragmas[0] != nil {
		u.pragmas = pragmas[0]
	}
	return u
}

// Pragmas returns the pragma map governing this unit's `nochecks`/
// `noabort` helper generation (spec.md §4.G).
func (u *Unit) Pragmas() *pragma.Map { return u.pragmas }

// EnsureInclude inserts `#include <header>` (or "header" if already
// quoted) into the directives region, at most once.
func (u *Unit) EnsureInclude(header string) {
	if u.includedHeaders[header] {
		return
	}
	u.includedHeaders[header] = true
	if strings.HasPrefix(header, "\"") || strings.HasPrefix(header, "<") {
		fmt.Fprintf(&u.directives, "#include %s\n", header)
		return
	}
	fmt.Fprintf(&u.directives, "#include <%s>\n", header)
}

// EnsureBuiltin looks up the generator registered under name and invokes
// it the first time this exact (name, args) key is requested, memoizing
// the returned symbol. Helpers a generator itself depends on are
// guaranteed to be emitted first, since the generator calls EnsureBuiltin
// on them before returning its own symbol (spec.md §4.F "transitive
// dependency graph implicit in ensure_builtin calls").
func (u *Unit) EnsureBuiltin(name string, args ...string) (string, error) {
	key := builtinKey(name, args)
	if sym, ok := u.builtinSymbols[key]; ok {
		return sym, nil
	}
	gen, ok := generators[name]
	if !ok {
		return "", fmt.Errorf("cemit: no builtin generator registered for %q", name)
	}
	// Reserve the key before running the generator so a helper that
	// recursively requests itself (mutual recursion between two
	// generators) doesn't loop forever; the symbol is filled in once
	// the generator returns.
	u.builtinSymbols[key] = ""
	sym, err := gen(u, args...)
	if err != nil {
		delete(u.builtinSymbols, key)
		return "", err
	}
	u.builtinSymbols[key] = sym
	return sym, nil
}

func builtinKey(name string, args []string) string {
	return name + "(" + strings.Join(args, ",") + ")"
}

// AddDeclaration emits text into the declarations region unless key was
// already used.
func (u *Unit) AddDeclaration(text, key string) {
	if u.declKeys[key] {
		return
	}
	u.declKeys[key] = true
	u.declarations.WriteString(text)
	if !strings.HasSuffix(text, "\n") {
		u.declarations.WriteByte('\n')
	}
}

// AddDefinition emits text into the definitions region unless key was
// already used.
func (u *Unit) AddDefinition(text, key string) {
	if u.defnKeys[key] {
		return
	}
	u.defnKeys[key] = true
	u.definitions.WriteString(text)
	if !strings.HasSuffix(text, "\n") {
		u.definitions.WriteByte('\n')
	}
}

// DefineBuiltinMacro emits `#define name body` as a declaration, keyed by
// name (spec.md §4.F's first builtin-shape template).
func (u *Unit) DefineBuiltinMacro(name, body string) {
	u.AddDeclaration(fmt.Sprintf("#define %s %s\n", name, body), "macro:"+name)
}

// DefineBuiltinDecl emits a forward declaration, keyed by name.
func (u *Unit) DefineBuiltinDecl(name, body string) {
	u.AddDeclaration(body, "decl:"+name)
}

// Param is a single C function parameter (type then name, e.g. "int x").
type Param struct {
	Type string
	Name string
}

// DefineFunctionBuiltin emits a full function definition (qualifiers
// such as "static inline" or "static inline __attribute__((noreturn))",
// return type, parameter list, and brace-delimited body) into the
// definitions region, keyed by name.
func (u *Unit) DefineFunctionBuiltin(name, qualifiers, ret string, params []Param, body string) string {
	var sig strings.Builder
	if qualifiers != "" {
		sig.WriteString(qualifiers)
		sig.WriteByte(' ')
	}
	sig.WriteString(ret)
	sig.WriteByte(' ')
	sig.WriteString(name)
	sig.WriteByte('(')
	for i, p := range params {
		if i > 0 {
			sig.WriteString(", ")
		}
		sig.WriteString(p.Type)
		sig.WriteByte(' ')
		sig.WriteString(p.Name)
	}
	if len(params) == 0 {
		sig.WriteString("void")
	}
	sig.WriteString(") {\n")
	sig.WriteString(body)
	sig.WriteString("\n}\n")
	u.AddDefinition(sig.String(), "fn:"+name)
	return name
}

// requireMark records a rollback point within the definitions region for
// the require-emission protocol of spec.md §4.G "require".
type requireMark struct {
	defnLen int
	name    string
}

// BeginRequire opens a brace-scoped comment block that either gets a
// closing comment via CommitRequire, or is discarded entirely via
// RollbackRequire if the required module produced no output.
func (u *Unit) BeginRequire(name string) *requireMark {
	mark := &requireMark{defnLen: u.definitions.Len(), name: name}
	fmt.Fprintf(&u.definitions, "/* require %q */\n", name)
	return mark
}

// CommitRequire closes the comment block opened by BeginRequire, keeping
// whatever was emitted in between.
func (u *Unit) CommitRequire(mark *requireMark) {
	fmt.Fprintf(&u.definitions, "/* end require %q */\n", mark.name)
}

// RollbackRequire discards everything emitted since the matching
// BeginRequire, used when the required module produced no C output
// (spec.md §4.G: "rolls back the emit position if no output was
// produced").
func (u *Unit) RollbackRequire(mark *requireMark) {
	kept := u.definitions.String()[:mark.defnLen]
	u.definitions.Reset()
	u.definitions.WriteString(kept)
}

// SetMainStub installs the translation unit's `main` function body. A
// no-op on a library build (spec.md §4.F emission order: "main stub (if
// not a library build)").
func (u *Unit) SetMainStub(body string) {
	if u.library {
		return
	}
	u.mainStub.Reset()
	u.mainStub.WriteString(body)
}

// Render concatenates the four regions in spec.md §4.F's fixed emission
// order: directives, declarations (forward declarations), definitions,
// then the main stub.
func (u *Unit) Render() string {
	var out strings.Builder
	out.WriteString(u.directives.String())
	if u.directives.Len() > 0 {
		out.WriteByte('\n')
	}
	out.WriteString(u.declarations.String())
	if u.declarations.Len() > 0 {
		out.WriteByte('\n')
	}
	out.WriteString(u.definitions.String())
	if !u.library && u.mainStub.Len() > 0 {
		out.WriteByte('\n')
		out.WriteString(u.mainStub.String())
	}
	return out.String()
}
