package types_test

import (
	"testing"

	"github.com/natc-lang/natc/internal/types"
)

func TestSignedUnsignedRoundTrip(t *testing.T) {
	if types.SignedType(types.Uint32) != types.Int32 {
		t.Fatal("expected uint32 -> int32")
	}
	if types.UnsignedType(types.Int32) != types.Uint32 {
		t.Fatal("expected int32 -> uint32")
	}
	if types.SignedType(types.String) != types.String {
		t.Fatal("non-integer types should be returned unchanged")
	}
}

func TestMinWidthInt(t *testing.T) {
	cases := []struct {
		v    int64
		want types.Type
	}{
		{0, types.Int8},
		{127, types.Int8},
		{128, types.Int16},
		{40000, types.Int32},
		{1 << 40, types.Int64},
	}
	for _, c := range cases {
		if got := types.MinWidthInt(c.v); got != c.want {
			t.Errorf("MinWidthInt(%d) = %s, want %s", c.v, got, c.want)
		}
	}
}

func TestAssignableWidening(t *testing.T) {
	if !types.Assignable(types.Int32, types.Int8) {
		t.Error("int8 should widen into int32")
	}
	if types.Assignable(types.Int8, types.Int32) {
		t.Error("int32 must not narrow into int8 implicitly")
	}
	if !types.Assignable(types.Float64, types.Int32) {
		t.Error("integer should widen into float")
	}
	if types.Assignable(types.Int32, types.Uint32) {
		t.Error("signedness mismatch must not be implicitly assignable")
	}
}

func TestPromoteWidestWins(t *testing.T) {
	r, ok := types.Promote(types.Int8, types.Int32)
	if !ok || r != types.Int32 {
		t.Fatalf("got %v, %v", r, ok)
	}
	r, ok = types.Promote(types.Int32, types.Float32)
	if !ok || r != types.Float32 {
		t.Fatalf("got %v, %v", r, ok)
	}
}

func TestRecordEqualsNominal(t *testing.T) {
	a := &types.RecordType{Name: "Point", Fields: []types.Field{{Name: "x", Type: types.Int32}}}
	b := &types.RecordType{Name: "Point", Fields: []types.Field{{Name: "x", Type: types.Int32}}}
	if !a.Equals(b) {
		t.Error("records with the same name should be nominally equal")
	}
	c := &types.RecordType{Name: "Other"}
	if a.Equals(c) {
		t.Error("records with different names must not be equal")
	}
}

func TestArrayEqualsStructural(t *testing.T) {
	a := types.Array(types.Int32, 4)
	b := types.Array(types.Int32, 4)
	if !a.Equals(b) {
		t.Error("arrays of the same element type and length should be equal")
	}
	if a.Equals(types.Array(types.Int32, 5)) {
		t.Error("arrays of different length must not be equal")
	}
}

func TestFunctionTypeCodenameIsStable(t *testing.T) {
	ft := &types.FunctionType{Params: []types.Type{types.Int32}, Returns: []types.Type{types.Bool}}
	if ft.Codename() == "" {
		t.Error("expected a non-empty codename")
	}
}
