package scope_test

import (
	"testing"

	"github.com/natc-lang/natc/internal/scope"
	"github.com/natc-lang/natc/internal/types"
)

func TestDeclareAndLookupAcrossParentChain(t *testing.T) {
	root := scope.New("root")
	if err := root.Declare("x", &scope.Symbol{Name: "x", Type: types.Int32}); err != nil {
		t.Fatal(err)
	}

	child := root.Push("block")
	sym, ok := child.Lookup("x")
	if !ok || sym.Type != types.Int32 {
		t.Fatalf("expected to resolve 'x' from parent scope, got %v, %v", sym, ok)
	}

	if _, ok := child.LookupLocal("x"); ok {
		t.Fatal("'x' must not be visible as a *local* binding of the child scope")
	}
}

func TestDuplicateDeclarationFails(t *testing.T) {
	s := scope.New("root")
	if err := s.Declare("x", &scope.Symbol{Name: "x", Type: types.Int32}); err != nil {
		t.Fatal(err)
	}
	if err := s.Declare("x", &scope.Symbol{Name: "x", Type: types.Int32}); err == nil {
		t.Fatal("expected a duplicate-declaration error")
	}
}

func TestLookupMissReturnsAbsent(t *testing.T) {
	s := scope.New("root")
	if _, ok := s.Lookup("nope"); ok {
		t.Fatal("expected lookup miss")
	}
}

// TestCheckpointRestoreIsHygienic exercises the exact property
// `hygienize` depends on (spec.md §4.E): after restoring to a
// checkpoint, symbols declared after that point are gone, but the
// scope itself is still usable and symbols from before it remain.
func TestCheckpointRestoreIsHygienic(t *testing.T) {
	s := scope.New("root")
	_ = s.Declare("before", &scope.Symbol{Name: "before", Type: types.Int32})

	cp := s.Checkpoint()

	_ = s.Declare("leaked", &scope.Symbol{Name: "leaked", Type: types.Int32})
	if _, ok := s.Lookup("leaked"); !ok {
		t.Fatal("sanity: 'leaked' should be visible before restore")
	}

	s.Restore(cp)

	if _, ok := s.Lookup("leaked"); ok {
		t.Fatal("'leaked' should have been discarded by Restore")
	}
	if _, ok := s.Lookup("before"); !ok {
		t.Fatal("'before' should have survived Restore")
	}

	// Reapplying the same hygienic operation a second time must behave
	// identically: declare again, then restore to the same checkpoint.
	_ = s.Declare("leaked", &scope.Symbol{Name: "leaked", Type: types.Int32})
	s.Restore(cp)
	if _, ok := s.Lookup("leaked"); ok {
		t.Fatal("second application of the checkpoint must also be hygienic")
	}
}

func TestRestoreDiscardsNamesThatDidNotExistAtCapture(t *testing.T) {
	s := scope.New("root")
	cp := s.Checkpoint()
	_ = s.Declare("fresh", &scope.Symbol{Name: "fresh", Type: types.Bool})
	s.Restore(cp)
	if _, ok := s.Lookup("fresh"); ok {
		t.Fatal("names absent at checkpoint time must be fully removed on restore")
	}
}
