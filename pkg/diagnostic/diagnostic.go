package diagnostic

import (
	"fmt"

	"github.com/walteh/t4ls/pkg/position"
)

// Severity represents the severity level of a diagnostic. The values match the
// LSP DiagnosticSeverity numbering.
type Severity int

const (
	SeverityError       Severity = 1
	SeverityWarning     Severity = 2
	SeverityInformation Severity = 3
	SeverityHint        Severity = 4
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInformation:
		return "info"
	case SeverityHint:
		return "hint"
	}
	return "unknown"
}

// Kind tells which stage produced a diagnostic.
type Kind uint8

const (
	KindLex Kind = iota + 1
	KindParse
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindLex:
		return "lex"
	case KindParse:
		return "parse"
	case KindValidation:
		return "validation"
	}
	return "unknown"
}

// Code identifies a diagnostic independently of its message.
type Code uint16

const (
	UnknownCode Code = 0

	LexUnterminatedDirective Code = 1001
	LexUnterminatedCodeBlock Code = 1002

	ParseMissingDirectiveName Code = 2001
	ParseMissingAttributeName Code = 2002
	ParseMissingEqual         Code = 2003
	ParseMissingValue         Code = 2004
	ParseUnquotedValue        Code = 2005
	ParseMissingClosingQuote  Code = 2006
	ParseUnexpectedToken      Code = 2007

	ValidationUnknownDirective  Code = 3001
	ValidationUnknownAttribute  Code = 3002
	ValidationInvalidValue      Code = 3003
	ValidationDuplicateAttr     Code = 3004
	ValidationMissingAttribute  Code = 3005
	ValidationRepeatedDirective Code = 3006
	ValidationIncludeNotFound   Code = 3007
)

func (c Code) String() string {
	switch {
	case c >= 3000:
		return fmt.Sprintf("T4V%04d", int(c))
	case c >= 2000:
		return fmt.Sprintf("T4P%04d", int(c))
	case c >= 1000:
		return fmt.Sprintf("T4L%04d", int(c))
	}
	return "T4"
}

// Diagnostic represents a single diagnostic message
type Diagnostic struct {
	Kind     Kind
	Severity Severity
	Code     Code
	Message  string
	Location position.Span
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s %s [%s] %s", d.Location, d.Severity, d.Kind, d.Message)
}

// HasErrors reports whether any diagnostic is an error.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Count returns the number of diagnostics with the given severity.
func Count(diags []Diagnostic, sev Severity) int {
	n := 0
	for _, d := range diags {
		if d.Severity == sev {
			n++
		}
	}
	return n
}
