// Package diag is the diagnostics sink every other C-component reports
// into: stable GEN### identifiers, a severity, a source span, and a
// message. The Driver collects one Sink per generation run and aborts
// generation for a single method on its first hard error without
// affecting sibling methods (spec §7's propagation policy).
package diag

import "fmt"

// Severity distinguishes a hard error (aborts generation for the offending
// method only) from a warning (never aborts).
type Severity int

const (
	Warning Severity = iota
	Error
)

func (s Severity) String() string {
	if s == Error {
		return "error"
	}
	return "warning"
}

// Span is a source location a Diagnostic points back to, mirroring the
// compiler-diagnostic span every predecessor repo in the pack attaches to
// its own error types.
type Span struct {
	File   string
	Line   int
	Column int
}

func (s Span) String() string {
	if s.File == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d:%d", s.File, s.Line, s.Column)
}

// Code is one of the stable GEN### diagnostic identifiers (spec §6: "stable
// identifiers (GEN001..GENnnn)").
type Code string

// Stable diagnostic codes. New codes are appended; existing codes are
// never renumbered or reused for a different meaning.
const (
	CodeInvalidName             Code = "GEN001"
	CodeTemplateSyntax          Code = "GEN002"
	CodeUnknownPlaceholder      Code = "GEN003"
	CodeUnsupportedExpression   Code = "GEN004"
	CodeTargetNotInterface      Code = "GEN005"
	CodeMissingConnection       Code = "GEN006"
	CodeAmbiguousDialect        Code = "GEN007"
	CodeBatchRequiresCollection Code = "GEN008"
	CodeUnknownColumn           Code = "GEN009"
	CodeUnknownProperty         Code = "GEN010"
	CodeDriverError             Code = "GEN011"
	CodeSkipWithoutOrderBy      Code = "GEN050"
)

// Diagnostic is one reported finding.
type Diagnostic struct {
	Code     Code
	Severity Severity
	Message  string
	Span     Span
	Method   string // empty for repository- or file-level diagnostics.
}

func (d Diagnostic) String() string {
	loc := d.Span.String()
	if loc != "" {
		return fmt.Sprintf("%s: %s: %s (%s)", loc, d.Code, d.Message, d.Severity)
	}
	return fmt.Sprintf("%s: %s (%s)", d.Code, d.Message, d.Severity)
}

// Sink collects Diagnostics for one generation run.
type Sink struct {
	diagnostics []Diagnostic
}

// NewSink returns an empty Sink.
func NewSink() *Sink { return &Sink{} }

// Report appends d to the sink.
func (s *Sink) Report(d Diagnostic) { s.diagnostics = append(s.diagnostics, d) }

// Errorf reports a hard error at span for method (method may be empty).
func (s *Sink) Errorf(code Code, span Span, method, format string, args ...any) {
	s.Report(Diagnostic{Code: code, Severity: Error, Span: span, Method: method, Message: fmt.Sprintf(format, args...)})
}

// Warnf reports a warning at span for method (method may be empty).
func (s *Sink) Warnf(code Code, span Span, method, format string, args ...any) {
	s.Report(Diagnostic{Code: code, Severity: Warning, Span: span, Method: method, Message: fmt.Sprintf(format, args...)})
}

// All returns every diagnostic reported so far, in report order.
func (s *Sink) All() []Diagnostic { return append([]Diagnostic(nil), s.diagnostics...) }

// HasErrors reports whether any Error-severity diagnostic was reported.
func (s *Sink) HasErrors() bool {
	for _, d := range s.diagnostics {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// MethodFailed reports whether method has at least one Error-severity
// diagnostic — the Driver uses this to decide whether to skip emitting
// that one method while continuing with its siblings.
func (s *Sink) MethodFailed(method string) bool {
	for _, d := range s.diagnostics {
		if d.Severity == Error && d.Method == method {
			return true
		}
	}
	return false
}
