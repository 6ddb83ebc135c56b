package analyzer

import (
	"fmt"
	"strings"

	cerrors "github.com/natc-lang/natc/internal/errors"
	"github.com/natc-lang/natc/internal/lexer"
	"github.com/natc-lang/natc/internal/types"
)

// Kind classifies a semantic diagnostic, mirroring the teacher's
// SemanticErrorType enumeration generalized onto this language's
// operations (spec.md §4.D "typed diagnostics").
type Kind string

const (
	KindTypeMismatch      Kind = "type_mismatch"
	KindUndefinedVariable Kind = "undefined_variable"
	KindUndefinedFunction Kind = "undefined_function"
	KindUndefinedType     Kind = "undefined_type"
	KindRedeclaration     Kind = "redeclaration"
	KindInvalidOperation  Kind = "invalid_operation"
	KindInvalidAssignment Kind = "invalid_assignment"
	KindInvalidReturn     Kind = "invalid_return"
	KindArgumentCount     Kind = "argument_count"
	KindNotCallable       Kind = "not_callable"
	KindStaticAssert      Kind = "static_assert"
	KindGeneric           Kind = "generic"
)

// Error is a single semantic diagnostic attached to the node that
// raised it.
type Error struct {
	Kind     Kind
	Message  string
	Pos      lexer.Position
	Expected types.Type
	Got      types.Type
}

func (e *Error) Error() string { return fmt.Sprintf("%s at %s", e.Message, e.Pos) }

// ToCompilerError renders e using the shared caret-pointing format.
func (e *Error) ToCompilerError(source, file string) *cerrors.CompilerError {
	msg := e.Message
	if e.Kind == KindTypeMismatch && e.Expected != nil && e.Got != nil {
		msg = fmt.Sprintf("%s\nexpected: %s\ngot: %s", e.Message, e.Expected, e.Got)
	}
	return cerrors.New(cerrors.KindType, e.Pos, msg, source, file)
}

func newTypeMismatch(pos lexer.Position, expected, got types.Type) *Error {
	return &Error{
		Kind:     KindTypeMismatch,
		Message:  fmt.Sprintf("cannot assign %s to %s", got, expected),
		Pos:      pos,
		Expected: expected,
		Got:      got,
	}
}

func newInvalidOperation(pos lexer.Position, op string, left, right types.Type) *Error {
	return &Error{
		Kind:    KindInvalidOperation,
		Message: fmt.Sprintf("invalid operation: %s %s %s", left, op, right),
		Pos:     pos,
	}
}

func newUndefinedVariable(pos lexer.Position, name string) *Error {
	return &Error{Kind: KindUndefinedVariable, Message: fmt.Sprintf("undefined variable '%s'", name), Pos: pos}
}

func newUndefinedType(pos lexer.Position, name string) *Error {
	return &Error{Kind: KindUndefinedType, Message: fmt.Sprintf("undefined type '%s'", name), Pos: pos}
}

func newRedeclaration(pos lexer.Position, name string, cause error) *Error {
	return &Error{Kind: KindRedeclaration, Message: fmt.Sprintf("'%s': %s", name, cause), Pos: pos}
}

func newInvalidReturn(pos lexer.Position, expected, got types.Type) *Error {
	msg := "return type mismatch"
	if expected != nil && got != nil {
		msg = fmt.Sprintf("cannot return %s from function returning %s", got, expected)
	}
	return &Error{Kind: KindInvalidReturn, Message: msg, Pos: pos, Expected: expected, Got: got}
}

func newArgumentCount(pos lexer.Position, name string, expected, got int) *Error {
	return &Error{
		Kind:    KindArgumentCount,
		Message: fmt.Sprintf("'%s' expects %d argument(s), got %d", name, expected, got),
		Pos:     pos,
	}
}

func newNotCallable(pos lexer.Position, got types.Type) *Error {
	return &Error{Kind: KindNotCallable, Message: fmt.Sprintf("%s is not callable", got), Pos: pos}
}

func newStaticAssert(pos lexer.Position, msg string) *Error {
	return &Error{Kind: KindStaticAssert, Message: msg, Pos: pos}
}

func newGeneric(pos lexer.Position, msg string) *Error {
	return &Error{Kind: KindGeneric, Message: msg, Pos: pos}
}

// Diagnostics batches every Error raised during one analysis run,
// mirroring the teacher's AnalysisError aggregate (spec.md §4.D).
type Diagnostics struct {
	errs []*Error
}

func (d *Diagnostics) Add(e *Error) { d.errs = append(d.errs, e) }
func (d *Diagnostics) HasErrors() bool { return len(d.errs) > 0 }
func (d *Diagnostics) Errors() []*Error { return d.errs }
func (d *Diagnostics) Count() int       { return len(d.errs) }

func (d *Diagnostics) Error() string {
	if len(d.errs) == 0 {
		return "analysis failed"
	}
	if len(d.errs) == 1 {
		return fmt.Sprintf("semantic error: %s", d.errs[0].Error())
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "analysis failed with %d errors:\n", len(d.errs))
	for i, e := range d.errs {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, e.Error())
	}
	return sb.String()
}
