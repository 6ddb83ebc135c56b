// Package types implements the type system of spec.md §4.C: primitive,
// composite, pointer, array, function and type-of-type variants, with
// structural/nominal deduplication, assignability, arithmetic promotion
// and signed/unsigned helpers.
package types

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Kind discriminates the type variant.
type Kind int

const (
	KindBool Kind = iota
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindISize
	KindUSize
	KindFloat32
	KindFloat64
	KindFloat128
	KindString
	KindCString
	KindNilType
	KindNilPtr
	KindVoid
	KindPointer
	KindArray
	KindRecord
	KindUnion
	KindEnum
	KindFunction
	KindTypeOfType
)

// Type is the common interface every type variant implements.
type Type interface {
	Kind() Kind
	String() string
	// Codename returns the stable identifier fragment used to derive C
	// symbol names for this type's generated helpers (spec.md §3).
	Codename() string
	Equals(other Type) bool
}

var identCaser = cases.Title(language.Und, cases.NoLower)

// sanitizeCodename folds a human-readable type name into a form safe to
// splice into a C identifier, preserving case the way a Title-cased
// word boundary marker would (used for composite type names that may
// contain spaces or punctuation from user-supplied record/enum names).
func sanitizeCodename(name string) string {
	name = identCaser.String(name)
	var sb strings.Builder
	for _, r := range name {
		if r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		} else {
			sb.WriteRune('_')
		}
	}
	return sb.String()
}

// ---- primitive types (interned singletons) ----

type primitive struct {
	kind     Kind
	name     string
	codename string
	bits     int
	signed   bool
	float    bool
}

func (p *primitive) Kind() Kind        { return p.kind }
func (p *primitive) String() string    { return p.name }
func (p *primitive) Codename() string  { return p.codename }
func (p *primitive) Equals(o Type) bool {
	op, ok := o.(*primitive)
	return ok && op.kind == p.kind
}

// BitSize returns the storage width in bits for integer/float primitives.
func (p *primitive) BitSize() int { return p.bits }

// IsSigned reports whether an integer primitive is signed.
func (p *primitive) IsSigned() bool { return p.signed }

// IsFloat reports whether the primitive is a floating-point type.
func (p *primitive) IsFloat() bool { return p.float }

var (
	Bool     = &primitive{kind: KindBool, name: "boolean", codename: "bool"}
	Int8     = &primitive{kind: KindInt8, name: "int8", codename: "int8", bits: 8, signed: true}
	Int16    = &primitive{kind: KindInt16, name: "int16", codename: "int16", bits: 16, signed: true}
	Int32    = &primitive{kind: KindInt32, name: "int32", codename: "int32", bits: 32, signed: true}
	Int64    = &primitive{kind: KindInt64, name: "int64", codename: "int64", bits: 64, signed: true}
	Uint8    = &primitive{kind: KindUint8, name: "uint8", codename: "uint8", bits: 8}
	Uint16   = &primitive{kind: KindUint16, name: "uint16", codename: "uint16", bits: 16}
	Uint32   = &primitive{kind: KindUint32, name: "uint32", codename: "uint32", bits: 32}
	Uint64   = &primitive{kind: KindUint64, name: "uint64", codename: "uint64", bits: 64}
	ISize    = &primitive{kind: KindISize, name: "isize", codename: "isize", bits: 64, signed: true}
	USize    = &primitive{kind: KindUSize, name: "usize", codename: "usize", bits: 64}
	Float32  = &primitive{kind: KindFloat32, name: "float32", codename: "float32", bits: 32, signed: true, float: true}
	Float64  = &primitive{kind: KindFloat64, name: "float64", codename: "float64", bits: 64, signed: true, float: true}
	Float128 = &primitive{kind: KindFloat128, name: "float128", codename: "float128", bits: 128, signed: true, float: true}
	String   = &primitive{kind: KindString, name: "stringview", codename: "string"}
	CString  = &primitive{kind: KindCString, name: "cstring", codename: "cstring"}
	NilType  = &primitive{kind: KindNilType, name: "niltype", codename: "niltype"}
	NilPtr   = &primitive{kind: KindNilPtr, name: "nilptr", codename: "nilptr"}
	Void     = &primitive{kind: KindVoid, name: "void", codename: "void"}
)

// allIntegers lists every integer primitive, used by range metadata and
// signed/unsigned mapping.
var allIntegers = []*primitive{Int8, Int16, Int32, Int64, Uint8, Uint16, Uint32, Uint64, ISize, USize}

// IsInteger reports whether t is one of the integer primitives.
func IsInteger(t Type) bool {
	p, ok := t.(*primitive)
	return ok && !p.float && p.bits > 0
}

// IsFloat reports whether t is one of the float primitives.
func IsFloat(t Type) bool {
	p, ok := t.(*primitive)
	return ok && p.float
}

// IsNumeric reports whether t is an integer or float primitive.
func IsNumeric(t Type) bool { return IsInteger(t) || IsFloat(t) }

// BitSize returns the representable bit width of an integer/float type,
// or 0 if t carries no width (e.g. boolean, string).
func BitSize(t Type) int {
	if p, ok := t.(*primitive); ok {
		return p.bits
	}
	return 0
}

// Signed reports whether integer type t is signed.
func Signed(t Type) bool {
	p, ok := t.(*primitive)
	return ok && p.signed && !p.float
}

// SignedType returns the signed integer type with the same bit width as
// t, or t itself if t is not an integer or is already signed.
func SignedType(t Type) Type {
	p, ok := t.(*primitive)
	if !ok || p.float {
		return t
	}
	switch p.kind {
	case KindUint8:
		return Int8
	case KindUint16:
		return Int16
	case KindUint32:
		return Int32
	case KindUint64:
		return Int64
	case KindUSize:
		return ISize
	}
	return t
}

// UnsignedType returns the unsigned integer type with the same bit
// width as t, or t itself if t is not an integer or is already unsigned.
func UnsignedType(t Type) Type {
	p, ok := t.(*primitive)
	if !ok || p.float {
		return t
	}
	switch p.kind {
	case KindInt8:
		return Uint8
	case KindInt16:
		return Uint16
	case KindInt32:
		return Uint32
	case KindInt64:
		return Uint64
	case KindISize:
		return USize
	}
	return t
}

// Range returns the [min, max] representable by integer type t. Values
// are widened to int64/uint64 via the two return values; callers
// compare against the signedness of t to interpret them correctly.
func Range(t Type) (min int64, max uint64) {
	p, ok := t.(*primitive)
	if !ok || p.float || p.bits == 0 {
		return 0, 0
	}
	if p.signed {
		switch p.bits {
		case 8:
			return -(1 << 7), (1 << 7) - 1
		case 16:
			return -(1 << 15), (1 << 15) - 1
		case 32:
			return -(1 << 31), (1 << 31) - 1
		default:
			return -(1 << 63), (1 << 63) - 1
		}
	}
	switch p.bits {
	case 8:
		return 0, (1 << 8) - 1
	case 16:
		return 0, (1 << 16) - 1
	case 32:
		return 0, (1 << 32) - 1
	default:
		return 0, ^uint64(0)
	}
}

// MinWidthInt returns the narrowest signed integer primitive able to
// represent v, per spec.md §4.C "Integer literals carry a minimum-width
// inference".
func MinWidthInt(v int64) Type {
	switch {
	case v >= -(1<<7) && v <= (1<<7)-1:
		return Int8
	case v >= -(1<<15) && v <= (1<<15)-1:
		return Int16
	case v >= -(1<<31) && v <= (1<<31)-1:
		return Int32
	default:
		return Int64
	}
}

// ---- pointer ----

type PointerType struct{ Elem Type }

func (p *PointerType) Kind() Kind       { return KindPointer }
func (p *PointerType) String() string   { return "*" + p.Elem.String() }
func (p *PointerType) Codename() string { return "ptr_" + p.Elem.Codename() }
func (p *PointerType) Equals(o Type) bool {
	op, ok := o.(*PointerType)
	return ok && p.Elem.Equals(op.Elem)
}

// Pointer interns pointer types structurally: *T and *T always compare
// Equals regardless of allocation site, but callers needing identity
// (e.g. a dedup-keyed map) should key off String()/Codename().
func Pointer(elem Type) *PointerType { return &PointerType{Elem: elem} }

// ---- array ----

type ArrayType struct {
	Elem Type
	N    int // 0 means an open/dynamic array
}

func (a *ArrayType) Kind() Kind     { return KindArray }
func (a *ArrayType) Codename() string {
	if a.N == 0 {
		return "arr_" + a.Elem.Codename()
	}
	return fmt.Sprintf("arr_%s_%d", a.Elem.Codename(), a.N)
}
func (a *ArrayType) String() string {
	if a.N == 0 {
		return "array of " + a.Elem.String()
	}
	return fmt.Sprintf("array of %s[%d]", a.Elem.String(), a.N)
}
func (a *ArrayType) Equals(o Type) bool {
	oa, ok := o.(*ArrayType)
	return ok && oa.N == a.N && a.Elem.Equals(oa.Elem)
}

func Array(elem Type, n int) *ArrayType { return &ArrayType{Elem: elem, N: n} }

// ---- record / union (nominal) ----

type Field struct {
	Name string
	Type Type
}

type RecordType struct {
	Name   string
	Fields []Field
	IsUnion bool
}

func (r *RecordType) Kind() Kind {
	if r.IsUnion {
		return KindUnion
	}
	return KindRecord
}
func (r *RecordType) String() string   { return r.Name }
func (r *RecordType) Codename() string { return sanitizeCodename(r.Name) }
func (r *RecordType) Equals(o Type) bool {
	// Nominal identity: records/unions are equal iff same pointer or
	// same name (the symbol table guarantees at most one definition per
	// name within a translation unit).
	or, ok := o.(*RecordType)
	return ok && (r == or || (r.Name != "" && r.Name == or.Name))
}

func (r *RecordType) Field(name string) (Field, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// ---- enum ----

type EnumType struct {
	Name    string
	Subtype Type
	Members []string
}

func (e *EnumType) Kind() Kind       { return KindEnum }
func (e *EnumType) String() string   { return e.Name }
func (e *EnumType) Codename() string { return sanitizeCodename(e.Name) }
func (e *EnumType) Equals(o Type) bool {
	oe, ok := o.(*EnumType)
	return ok && (e == oe || (e.Name != "" && e.Name == oe.Name))
}

// ---- function ----

type FunctionType struct {
	Params   []Type
	Returns  []Type
	Variadic bool
}

func (f *FunctionType) Kind() Kind { return KindFunction }
func (f *FunctionType) String() string {
	parts := make([]string, len(f.Params))
	for i, p := range f.Params {
		parts[i] = p.String()
	}
	ret := "void"
	if len(f.Returns) == 1 {
		ret = f.Returns[0].String()
	} else if len(f.Returns) > 1 {
		rs := make([]string, len(f.Returns))
		for i, r := range f.Returns {
			rs[i] = r.String()
		}
		ret = "(" + strings.Join(rs, ", ") + ")"
	}
	return "function(" + strings.Join(parts, ", ") + "): " + ret
}
func (f *FunctionType) Codename() string { return sanitizeCodename(f.String()) }
func (f *FunctionType) Equals(o Type) bool {
	of, ok := o.(*FunctionType)
	if !ok || f.Variadic != of.Variadic || len(f.Params) != len(of.Params) || len(f.Returns) != len(of.Returns) {
		return false
	}
	for i := range f.Params {
		if !f.Params[i].Equals(of.Params[i]) {
			return false
		}
	}
	for i := range f.Returns {
		if !f.Returns[i].Equals(of.Returns[i]) {
			return false
		}
	}
	return true
}

// ---- type-of-type (for `typeof(x)` style introspection in pp code) ----

type TypeOfType struct{ Underlying Type }

func (t *TypeOfType) Kind() Kind       { return KindTypeOfType }
func (t *TypeOfType) String() string   { return "type<" + t.Underlying.String() + ">" }
func (t *TypeOfType) Codename() string { return "typeof_" + t.Underlying.Codename() }
func (t *TypeOfType) Equals(o Type) bool {
	ot, ok := o.(*TypeOfType)
	return ok && t.Underlying.Equals(ot.Underlying)
}
