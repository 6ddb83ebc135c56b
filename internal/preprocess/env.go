// Package preprocess implements the compile-time metaprogramming engine
// of spec.md §4.E/§9: the marker/replay protocol's preprocessor side,
// the `injectnode`/`hygienize`/`afterinfer`/`staticassert` primitives,
// and the layered environment lookup pp fragments run against.
package preprocess

import (
	"fmt"

	"github.com/natc-lang/natc/internal/ast"
	"github.com/natc-lang/natc/internal/lexer"
	"github.com/natc-lang/natc/internal/pragma"
	"github.com/natc-lang/natc/internal/registry"
	"github.com/natc-lang/natc/internal/scope"
	"github.com/natc-lang/natc/internal/types"
)

// Config carries driver-supplied state a pp fragment can introspect
// through the `config` environment name (spec.md §4.E).
type Config struct {
	Generator string // "c" or "lua"

	// Defines seeds the host environment tier with `-D NAME[=val]`
	// values (spec.md §6): a bare NAME becomes `true`, NAME=1 an int64,
	// NAME='asd' a string with its quotes stripped — whatever the driver
	// decided the flag meant before handing it here.
	Defines map[string]any
}

// BindingKind discriminates which layer of the environment satisfied a
// lookup, mirroring spec.md §9's Binding variant: Symbol | Pragma |
// Host | Type.
type BindingKind int

const (
	BindingSymbol BindingKind = iota
	BindingPragma
	BindingHost
	BindingType
)

// Binding is the resolved result of an environment lookup.
type Binding struct {
	Kind    BindingKind
	Symbol  *scope.Symbol
	Pragma  any
	Host    any
	TypeVal types.Type
}

// Env is the execution environment a compiled pp Fragment runs
// against: one per block being reconstructed. Its Get/Set methods
// implement the layered lookup/assignment rules of spec.md §4.E.
type Env struct {
	reg     *registry.Registry
	Scope   *scope.Scope
	Pragmas *pragma.Map
	Host    map[string]any
	cfg     Config
	pos     lexer.Position

	vars     map[string]any
	injected []ast.Node
}

func newEnv(reg *registry.Registry, sc *scope.Scope, pragmas *pragma.Map, cfg Config, pos lexer.Position) *Env {
	env := &Env{
		reg:     reg,
		Scope:   sc,
		Pragmas: pragmas,
		cfg:     cfg,
		pos:     pos,
		vars:    make(map[string]any),
	}
	env.Host = map[string]any{
		"primtypes": primtypeHost,
		"ast":       reg,
		"aster":     newBuilder(reg, pos),
		"context":   env,
		"config":    &cfg,
	}
	for name, v := range cfg.Defines {
		env.Host[name] = v
	}
	return env
}

// primtypeHost is the `primtypes` introspection object: a name -> Type
// table for every builtin primitive, exposed to pp code (spec.md §4.E).
var primtypeHost = map[string]types.Type{
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

// InjectNode implements `injectnode(n)`: it appends n to the block
// currently being reassembled. The engine's block-replay loop drains
// this slice after running each Preprocess fragment.
func (env *Env) InjectNode(n ast.Node) { env.injected = append(env.injected, n) }

func (env *Env) drainInjected() []ast.Node {
	out := env.injected
	env.injected = nil
	return out
}

// Get implements the three-tier fallback lookup of spec.md §4.E:
// pp-local variables set via Set shadow everything; failing that, the
// current scope's symbol table, then a recognized pragma field, then
// the host environment (primtypes/ast/aster/context/config), and last
// a bare primitive type name such as `int32`, bound as a type.
func (env *Env) Get(name string) (Binding, bool) {
	if v, ok := env.vars[name]; ok {
		return Binding{Kind: BindingHost, Host: v}, true
	}
	if sym, ok := env.Scope.Lookup(name); ok {
		return Binding{Kind: BindingSymbol, Symbol: sym}, true
	}
	if pragma.IsField(name) {
		if v, ok := env.pragmaFieldValue(name); ok {
			return Binding{Kind: BindingPragma, Pragma: v}, true
		}
	}
	if h, ok := env.Host[name]; ok {
		return Binding{Kind: BindingHost, Host: h}, true
	}
	if t, ok := primtypeHost[name]; ok {
		return Binding{Kind: BindingType, TypeVal: t}, true
	}
	return Binding{}, false
}

func (env *Env) pragmaFieldValue(name string) (any, bool) {
	switch {
	case env.Pragmas.Bool(name):
		return true, true
	case env.Pragmas.String(name) != "":
		return env.Pragmas.String(name), true
	case len(env.Pragmas.List(name)) > 0:
		return env.Pragmas.List(name), true
	}
	return nil, false
}

// Set implements spec.md §4.E's unknown-key-assignment rule: a
// recognized pragma field name validates and stores the value as a
// field pragma; anything else becomes a pp-local variable.
func (env *Env) Set(name string, value any) error {
	if pragma.IsField(name) {
		return env.Pragmas.SetField(name, value)
	}
	env.vars[name] = value
	return nil
}

// StaticAssert implements `staticassert(cond, msg, …)`: preprocessing
// fails with a source-line-resolved error if cond is false.
func (env *Env) StaticAssert(cond bool, msg string, args ...any) error {
	if cond {
		return nil
	}
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	return fmt.Errorf("static assertion failed at %s: %s", env.pos, msg)
}

// StaticError implements `static_error(msg)`: preprocessing fails
// unconditionally with msg, source-line-resolved the same way
// StaticAssert's failure is — used by pp bodies that want to reject a
// polymorphic instantiation outright rather than test a condition.
func (env *Env) StaticError(msg string) error {
	return fmt.Errorf("static error at %s: %s", env.pos, msg)
}

// AfterInfer implements `afterinfer(f)`: it defers f by injecting a
// synthetic PragmaCall{'afterinfer', f} statement (spec.md §4.E), which
// the analyzer recognizes and runs once the enclosing block's
// statements are fully typed, in registration order.
func (env *Env) AfterInfer(f func() error) {
	pc := ast.NewPragmaCall(env.reg, env.pos, "afterinfer", nil)
	pc.SetAttr(ast.AttrValue, f)
	env.InjectNode(pc)
}

// Hygienize implements `hygienize(f)`: the returned Fragment captures
// env.Scope's checkpoint at wrap time (the definition site, not the
// call site — spec.md §5 "Ordering") and restores it after every
// invocation, so repeated calls never leak symbols declared by a prior
// invocation.
func (env *Env) Hygienize(f ast.Fragment) ast.Fragment {
	capturedScope := env.Scope
	cp := capturedScope.Checkpoint()
	return func(callEnv any) (any, error) {
		result, err := f(callEnv)
		capturedScope.Restore(cp)
		return result, err
	}
}
