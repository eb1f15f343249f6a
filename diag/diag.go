// Package diag provides the shared diagnostic type used by every stage of
// the compilation core (parsing, semantic analysis, ABI classification,
// code emission, linking) so that all of them feed one info-log channel
// with one message shape.
package diag

import (
	"fmt"
	"strings"
)

// Kind identifies which stage raised a Diagnostic.
type Kind uint8

const (
	// KindSyntax is raised by the parser on malformed source.
	KindSyntax Kind = iota
	// KindType is raised by the type checker on rule violations.
	KindType
	// KindUnsupported is raised by the emitter when it refuses to lower
	// a construct it does not support, rather than miscompiling it.
	KindUnsupported
	// KindLink is raised by the linker.
	KindLink
	// KindWarning is informational; it does not flip compile/link status.
	KindWarning
)

// InternalError is a self-check violation inside the compilation core:
// a bug, not user error. It is raised by panic so it aborts the host
// with a diagnostic instead of flowing into an info log.
type InternalError struct {
	Message string
}

func (e *InternalError) Error() string {
	return "internal invariant violation: " + e.Message
}

// Internalf panics with an InternalError.
func Internalf(format string, args ...interface{}) {
	panic(&InternalError{Message: fmt.Sprintf(format, args...)})
}

func (k Kind) String() string {
	switch k {
	case KindSyntax:
		return "syntax error"
	case KindType:
		return "type error"
	case KindUnsupported:
		return "unsupported construct"
	case KindLink:
		return "link error"
	case KindWarning:
		return "warning"
	default:
		return "error"
	}
}

// Position is a 1-based source location.
type Position struct {
	Line   int
	Column int
}

// Span is a half-open source range. End is optional (zero value means
// "point span", i.e. only Start is meaningful).
type Span struct {
	Start Position
	End   Position
}

// Diagnostic is one compile or link message.
type Diagnostic struct {
	Kind    Kind
	Message string
	Span    Span
}

// Error implements the error interface.
func (d *Diagnostic) Error() string {
	return d.format()
}

func (d *Diagnostic) format() string {
	if d.Span.Start.Line == 0 {
		return d.Message
	}
	return fmt.Sprintf("%s (%d:%d)", d.Message, d.Span.Start.Line, d.Span.Start.Column)
}

// InfoLogLine renders the diagnostic the way it appears in a Shader or
// Program info log: "ERROR: <message> (line:col)" for errors, a bare
// line (no ERROR: prefix) for warnings.
func (d *Diagnostic) InfoLogLine() string {
	if d.Kind == KindWarning {
		return d.format()
	}
	return "ERROR: " + d.format()
}

// New creates a Diagnostic with a formatted message.
func New(kind Kind, span Span, format string, args ...interface{}) *Diagnostic {
	return &Diagnostic{Kind: kind, Message: fmt.Sprintf(format, args...), Span: span}
}

// Diagnostics is an ordered list of Diagnostic, in the order they were
// raised. It implements error so a stage can return it directly.
type Diagnostics []*Diagnostic

// Error implements the error interface.
func (ds Diagnostics) Error() string {
	if len(ds) == 0 {
		return "no errors"
	}
	if len(ds) == 1 {
		return ds[0].Error()
	}
	return fmt.Sprintf("%s (and %d more)", ds[0].Error(), len(ds)-1)
}

// Add appends a Diagnostic.
func (ds *Diagnostics) Add(d *Diagnostic) {
	*ds = append(*ds, d)
}

// Addf appends a formatted Diagnostic of the given kind and span.
func (ds *Diagnostics) Addf(kind Kind, span Span, format string, args ...interface{}) {
	ds.Add(New(kind, span, format, args...))
}

// HasErrors reports whether any non-warning Diagnostic is present.
func (ds Diagnostics) HasErrors() bool {
	for _, d := range ds {
		if d.Kind != KindWarning {
			return true
		}
	}
	return false
}

// InfoLog renders the full info log: one line per Diagnostic, in order.
func (ds Diagnostics) InfoLog() string {
	if len(ds) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, d := range ds {
		sb.WriteString(d.InfoLogLine())
		sb.WriteByte('\n')
	}
	return sb.String()
}
