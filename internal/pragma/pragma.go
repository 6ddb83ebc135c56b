// Package pragma implements the process-wide pragma map of spec.md §3
// and the field/call pragma surface of spec.md §6.
package pragma

import "fmt"

// FieldKind validates the value assigned to a field pragma.
type FieldKind int

const (
	FieldBool FieldKind = iota
	FieldString
	FieldStringList // append-only token list, e.g. cflags/ldflags/linklib
)

// FieldSpec describes one recognized field pragma.
type FieldSpec struct {
	Name string
	Kind FieldKind
}

// recognized field pragmas, spec.md §3/§6.
var recognizedFields = map[string]FieldSpec{
	"nochecks": {Name: "nochecks", Kind: FieldBool},
	"noabort":  {Name: "noabort", Kind: FieldBool},
	"cflags":   {Name: "cflags", Kind: FieldStringList},
	"ldflags":  {Name: "ldflags", Kind: FieldStringList},
	"linklib":  {Name: "linklib", Kind: FieldStringList},
}

// recognized call-form pragmas and their expected argument arity.
// `afterinfer` is emitted by the preprocessor engine itself
// (spec.md §4.E) as a synthetic `PragmaCall{'afterinfer', f}`.
var recognizedCalls = map[string]int{
	"afterinfer": 1,
}

// Map is the process-wide pragma configuration for one translation
// unit. Lookups are case-sensitive (see DESIGN.md Open Question 3).
type Map struct {
	bools   map[string]bool
	strings map[string]string
	lists   map[string][]string
	calls   map[string][]any
}

// New creates an empty Map.
func New() *Map {
	return &Map{
		bools:   make(map[string]bool),
		strings: make(map[string]string),
		lists:   make(map[string][]string),
		calls:   make(map[string][]any),
	}
}

// IsField reports whether name is a recognized field pragma.
func IsField(name string) bool {
	_, ok := recognizedFields[name]
	return ok
}

// SetField validates and assigns a field pragma. value's dynamic type
// must match the field's Kind: bool for FieldBool, string for
// FieldString and FieldStringList (appended as one token).
func (m *Map) SetField(name string, value any) error {
	spec, ok := recognizedFields[name]
	if !ok {
		return fmt.Errorf("unrecognized pragma field %q", name)
	}
	switch spec.Kind {
	case FieldBool:
		b, ok := value.(bool)
		if !ok {
			return fmt.Errorf("pragma %q expects a boolean value, got %T", name, value)
		}
		m.bools[name] = b
	case FieldString:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("pragma %q expects a string value, got %T", name, value)
		}
		m.strings[name] = s
	case FieldStringList:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("pragma %q expects a string token, got %T", name, value)
		}
		m.lists[name] = append(m.lists[name], s)
	}
	return nil
}

func (m *Map) Bool(name string) bool       { return m.bools[name] }
func (m *Map) String(name string) string   { return m.strings[name] }
func (m *Map) List(name string) []string   { return m.lists[name] }

// NoChecks reports the `nochecks` pragma (disables all runtime safety
// helpers — spec.md §4.G).
func (m *Map) NoChecks() bool { return m.Bool("nochecks") }

// NoAbort reports the `noabort` pragma (use exit(-1) instead of abort
// — spec.md §4.G "Abort").
func (m *Map) NoAbort() bool { return m.Bool("noabort") }

// IsCall reports whether name is a recognized call-form pragma.
func IsCall(name string) bool {
	_, ok := recognizedCalls[name]
	return ok
}

// Call validates argument arity and records a call-form pragma
// invocation (e.g. `afterinfer(f)`).
func (m *Map) Call(name string, args []any) error {
	arity, ok := recognizedCalls[name]
	if !ok {
		return fmt.Errorf("unrecognized pragma call %q", name)
	}
	if len(args) != arity {
		return fmt.Errorf("pragma call %q expects %d argument(s), got %d", name, arity, len(args))
	}
	m.calls[name] = append(m.calls[name], args)
	return nil
}

// Calls returns every recorded invocation of the named call-form pragma,
// in registration order.
func (m *Map) Calls(name string) []any { return m.calls[name] }

// Snapshot captures the current field-pragma state for a
// checkpoint/restore cycle mirroring scope hygiene: preprocess code
// that mutates pragmas (e.g. pushing `cflags` inside a `require`d
// module) should not leak those mutations past the module boundary
// unless the source chooses to.
type Snapshot struct {
	bools   map[string]bool
	strings map[string]string
	lists   map[string][]string
}

func (m *Map) Snapshot() Snapshot {
	s := Snapshot{
		bools:   make(map[string]bool, len(m.bools)),
		strings: make(map[string]string, len(m.strings)),
		lists:   make(map[string][]string, len(m.lists)),
	}
	for k, v := range m.bools {
		s.bools[k] = v
	}
	for k, v := range m.strings {
		s.strings[k] = v
	}
	for k, v := range m.lists {
		cp := make([]string, len(v))
		copy(cp, v)
		s.lists[k] = cp
	}
	return s
}

func (m *Map) Restore(s Snapshot) {
	m.bools = s.bools
	m.strings = s.strings
	m.lists = s.lists
}

// SetFieldFromString applies a `-P NAME[=val]` CLI flag (spec.md §6) to
// the recognized field named by name: a bare value (empty string) sets
// a FieldBool field to true; FieldString/FieldStringList fields take
// value verbatim.
func (m *Map) SetFieldFromString(name, value string) error {
	spec, ok := recognizedFields[name]
	if !ok {
		return fmt.Errorf("unrecognized pragma field %q", name)
	}
	if spec.Kind == FieldBool {
		if value == "" {
			return m.SetField(name, true)
		}
		b, err := parseBool(value)
		if err != nil {
			return fmt.Errorf("pragma %q: %w", name, err)
		}
		return m.SetField(name, b)
	}
	return m.SetField(name, value)
}

func parseBool(s string) (bool, error) {
	switch s {
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("expected a boolean value, got %q", s)
	}
}
