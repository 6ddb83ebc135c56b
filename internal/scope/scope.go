// Package scope implements the symbol & scope graph of spec.md §4.B:
// lexical scopes with parent-chain lookup, plus the checkpoint facility
// that makes `hygienize` safe to re-apply (spec.md §4.E, §9).
package scope

import (
	"fmt"

	"github.com/natc-lang/natc/internal/lexer"
	"github.com/natc-lang/natc/internal/types"
)

// Symbol is an entry in a Scope: a name bound to a declared type, an
// optional compile-time constant value, and the node it was declared at.
type Symbol struct {
	Name     string
	Type     types.Type
	Value    any // compile-time constant, nil if not constant
	LValue   bool
	DeclNode any // the ast.Node the symbol was declared at (untyped to avoid an import cycle)
	Pos      lexer.Position
}

// revision is one entry in a name's shadow stack: the symbol bound to
// that name.
type revision struct {
	sym *Symbol
}

// Scope is a single lexical environment. Root scopes have no parent and
// are reused for the lifetime of the translation unit (spec.md §3
// "Lifecycle").
type Scope struct {
	parent *Scope
	name   string
	// shadow stacks: each name maps to the history of bindings made to
	// it in this scope, most recent last. A checkpoint just remembers
	// how long each stack was; Restore truncates back to that length,
	// discarding everything bound after the checkpoint without
	// destroying the scope itself (spec.md §9 "Scope checkpoints for
	// hygiene").
	bindings map[string][]revision
	// order records insertion order for deterministic iteration/dumping.
	order []string
}

// New creates a root scope.
func New(name string) *Scope {
	return &Scope{name: name, bindings: make(map[string][]revision)}
}

// Push creates a child scope nested inside s.
func (s *Scope) Push(name string) *Scope {
	return &Scope{parent: s, name: name, bindings: make(map[string][]revision)}
}

// Parent returns the enclosing scope, or nil for a root scope.
func (s *Scope) Parent() *Scope { return s.parent }

// Declare binds name to sym in the current scope. It fails if name is
// already declared in *this* scope with an incompatible type (spec.md
// §4.B); redeclaring with an identical type is treated as a duplicate
// declaration, not a silent shadow.
func (s *Scope) Declare(name string, sym *Symbol) error {
	if existing, ok := s.localLatest(name); ok {
		if existing.Type != nil && sym.Type != nil && !existing.Type.Equals(sym.Type) {
			return fmt.Errorf("'%s' already declared in this scope with incompatible type %s (got %s)",
				name, existing.Type, sym.Type)
		}
		return fmt.Errorf("'%s' is already declared in this scope", name)
	}
	s.bindings[name] = append(s.bindings[name], revision{sym: sym})
	s.order = append(s.order, name)
	return nil
}

// Redefine forcibly rebinds name in the current scope without the
// duplicate-declaration check, appending a new revision. Used by the
// preprocessor when injected code intentionally shadows a prior
// definition within the same reconstruction pass.
func (s *Scope) Redefine(name string, sym *Symbol) {
	s.bindings[name] = append(s.bindings[name], revision{sym: sym})
	s.order = append(s.order, name)
}

func (s *Scope) localLatest(name string) (*Symbol, bool) {
	revs := s.bindings[name]
	if len(revs) == 0 {
		return nil, false
	}
	return revs[len(revs)-1].sym, true
}

// Lookup walks the parent chain, returning the nearest binding of name.
func (s *Scope) Lookup(name string) (*Symbol, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if sym, ok := cur.localLatest(name); ok {
			return sym, true
		}
	}
	return nil, false
}

// LookupLocal looks up name only in the current scope.
func (s *Scope) LookupLocal(name string) (*Symbol, bool) {
	return s.localLatest(name)
}

// Checkpoint is an opaque marker produced by Scope.Checkpoint, capturing
// how many revisions each currently-bound name had at the moment of
// capture.
type Checkpoint struct {
	lengths map[string]int
	order   int
}

// Checkpoint captures the current state of s so it can later be
// restored, undoing any Declare/Redefine calls made after this point
// without destroying the scope.
func (s *Scope) Checkpoint() Checkpoint {
	lengths := make(map[string]int, len(s.bindings))
	for name, revs := range s.bindings {
		lengths[name] = len(revs)
	}
	return Checkpoint{lengths: lengths, order: len(s.order)}
}

// Restore truncates every name's shadow stack back to the length it had
// when cp was captured, discarding newer symbols. Names declared after
// cp that didn't exist at capture time are removed entirely.
func (s *Scope) Restore(cp Checkpoint) {
	for name, revs := range s.bindings {
		want, existed := cp.lengths[name]
		if !existed {
			delete(s.bindings, name)
			continue
		}
		if want < len(revs) {
			s.bindings[name] = revs[:want]
		}
	}
	if cp.order < len(s.order) {
		s.order = s.order[:cp.order]
	}
}

// Names returns every name declared directly in this scope, in
// declaration order.
func (s *Scope) Names() []string {
	seen := make(map[string]bool, len(s.order))
	var out []string
	for _, n := range s.order {
		if seen[n] {
			continue
		}
		if _, ok := s.localLatest(n); ok {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}
