package diagnostic

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/t4ls/pkg/position"
)

// Report is the diagnostics of one file, ready for formatting.
type Report struct {
	File        string
	Mapper      *position.Mapper
	Diagnostics []Diagnostic
}

// Formatter formats diagnostics into different output formats
type Formatter interface {
	// Format formats diagnostics into a specific output format
	Format(reports ...*Report) ([]byte, error)
}

// VSCodeFormatter formats diagnostics into VSCode-compatible format
type VSCodeFormatter struct{}

// NewVSCodeFormatter creates a new VSCodeFormatter
func NewVSCodeFormatter() *VSCodeFormatter {
	return &VSCodeFormatter{}
}

type vscodePosition struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

type vscodeRange struct {
	Start vscodePosition `json:"start"`
	End   vscodePosition `json:"end"`
}

type vscodeDiagnostic struct {
	File     string      `json:"file,omitempty"`
	Severity int         `json:"severity"`
	Code     string      `json:"code"`
	Source   string      `json:"source"`
	Message  string      `json:"message"`
	Range    vscodeRange `json:"range"`
}

// Format implements Formatter
func (f *VSCodeFormatter) Format(reports ...*Report) ([]byte, error) {
	result := make([]vscodeDiagnostic, 0)
	for _, r := range reports {
		if r == nil {
			return nil, errors.Errorf("report is nil")
		}
		if r.Mapper == nil {
			return nil, errors.Errorf("report %s has no position mapper", r.File)
		}
		for _, d := range r.Diagnostics {
			rng := r.Mapper.Range(d.Location)
			// VSCode is 0-based, like position.Place
			result = append(result, vscodeDiagnostic{
				File:     r.File,
				Severity: int(d.Severity),
				Code:     d.Code.String(),
				Source:   "t4",
				Message:  d.Message,
				Range: vscodeRange{
					Start: vscodePosition{Line: rng.Start.Line, Character: rng.Start.Character},
					End:   vscodePosition{Line: rng.End.Line, Character: rng.End.Character},
				},
			})
		}
	}
	return json.Marshal(result)
}

// TextFormatter writes one compiler-style line per diagnostic:
//
//	path/to/file.tt:3:12: error: unknown directive 'foo' [T4V3001]
type TextFormatter struct {
	Color bool
}

func NewTextFormatter(colorize bool) *TextFormatter {
	return &TextFormatter{Color: colorize}
}

// Format implements Formatter
func (f *TextFormatter) Format(reports ...*Report) ([]byte, error) {
	var buf bytes.Buffer
	for _, r := range reports {
		if r == nil {
			return nil, errors.Errorf("report is nil")
		}
		if r.Mapper == nil {
			return nil, errors.Errorf("report %s has no position mapper", r.File)
		}
		for _, d := range r.Diagnostics {
			start := r.Mapper.Place(d.Location.Start)
			loc := fmt.Sprintf("%s:%d:%d", r.File, start.Line+1, start.Character+1)
			sev := d.Severity.String()
			code := d.Code.String()
			if f.Color {
				loc = color.New(color.Bold).Sprint(loc)
				sev = severityColor(d.Severity).Sprint(sev)
				code = color.New(color.Faint).Sprint(code)
			}
			fmt.Fprintf(&buf, "%s: %s: %s [%s]\n", loc, sev, d.Message, code)
		}
	}
	return buf.Bytes(), nil
}

func severityColor(s Severity) *color.Color {
	switch s {
	case SeverityError:
		return color.New(color.FgHiRed, color.Bold)
	case SeverityWarning:
		return color.New(color.FgYellow, color.Bold)
	case SeverityInformation:
		return color.New(color.FgCyan)
	}
	return color.New(color.Faint)
}
