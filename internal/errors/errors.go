// Package errors renders compiler diagnostics with source context,
// mirroring the position+caret formatting every collaborator in the
// pipeline (lexer, analyzer, preprocessor, emitter) reports through.
package errors

import (
	"fmt"
	"strings"

	"github.com/natc-lang/natc/internal/lexer"
)

// Kind classifies a diagnostic per spec.md §7.
type Kind string

const (
	KindParse     Kind = "parse"
	KindLookup    Kind = "lookup"
	KindType      Kind = "type"
	KindPreprocess Kind = "preprocess"
	KindRuntime   Kind = "runtime-helper"
	KindDriver    Kind = "driver"
)

// CompilerError is a single diagnostic with enough context to render a
// source-pointing message.
type CompilerError struct {
	Message string
	Source  string
	File    string
	Kind    Kind
	Pos     lexer.Position
}

// New creates a CompilerError.
func New(kind Kind, pos lexer.Position, message, source, file string) *CompilerError {
	return &CompilerError{Kind: kind, Pos: pos, Message: message, Source: source, File: file}
}

func (e *CompilerError) Error() string { return e.Format(false) }

// Format renders the error with a single source line and caret.
func (e *CompilerError) Format(color bool) string {
	var sb strings.Builder

	if e.File != "" {
		fmt.Fprintf(&sb, "Error in %s:%d:%d\n", e.File, e.Pos.Line, e.Pos.Column)
	} else {
		fmt.Fprintf(&sb, "Error at line %d:%d\n", e.Pos.Line, e.Pos.Column)
	}

	if line := e.sourceLine(e.Pos.Line); line != "" {
		prefix := fmt.Sprintf("%4d | ", e.Pos.Line)
		sb.WriteString(prefix)
		sb.WriteString(line)
		sb.WriteString("\n")
		sb.WriteString(strings.Repeat(" ", len(prefix)+e.Pos.Column-1))
		if color {
			sb.WriteString("\033[1;31m")
		}
		sb.WriteString("^")
		if color {
			sb.WriteString("\033[0m")
		}
		sb.WriteString("\n")
	}

	if color {
		sb.WriteString("\033[1m")
	}
	sb.WriteString(e.Message)
	if color {
		sb.WriteString("\033[0m")
	}
	return sb.String()
}

func (e *CompilerError) sourceLine(n int) string {
	if e.Source == "" {
		return ""
	}
	lines := strings.Split(e.Source, "\n")
	if n < 1 || n > len(lines) {
		return ""
	}
	return lines[n-1]
}

// Diagnostics batches CompilerErrors produced over the course of one
// analysis run, per spec.md §7 ("type and lookup errors attach to the
// offending node and are batched; analysis continues where possible").
type Diagnostics struct {
	errs []*CompilerError
}

func (d *Diagnostics) Add(e *CompilerError) { d.errs = append(d.errs, e) }

func (d *Diagnostics) Addf(kind Kind, pos lexer.Position, source, file, format string, args ...any) {
	d.Add(New(kind, pos, fmt.Sprintf(format, args...), source, file))
}

func (d *Diagnostics) HasErrors() bool     { return len(d.errs) > 0 }
func (d *Diagnostics) Errors() []*CompilerError { return d.errs }
func (d *Diagnostics) Count() int          { return len(d.errs) }

// Format renders every collected diagnostic.
func (d *Diagnostics) Format(color bool) string {
	if len(d.errs) == 0 {
		return ""
	}
	if len(d.errs) == 1 {
		return d.errs[0].Format(color)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "compilation failed with %d error(s):\n\n", len(d.errs))
	for i, e := range d.errs {
		fmt.Fprintf(&sb, "[Error %d of %d]\n", i+1, len(d.errs))
		sb.WriteString(e.Format(color))
		if i < len(d.errs)-1 {
			sb.WriteString("\n\n")
		}
	}
	return sb.String()
}
