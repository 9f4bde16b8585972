package syntax

import (
	"github.com/walteh/t4ls/pkg/diagnostic"
)

// Annotations is the side table written by a validation pass: per node, an
// optional value error and the validation diagnostics reported on it.
type Annotations struct {
	valueErrors map[NodeID]string
	findings    map[NodeID][]diagnostic.Diagnostic
}

func NewAnnotations() *Annotations {
	return &Annotations{
		valueErrors: map[NodeID]string{},
		findings:    map[NodeID][]diagnostic.Diagnostic{},
	}
}

// SetValueError records the value error of an attribute, replacing any previous
// one.
func (a *Annotations) SetValueError(id NodeID, msg string) {
	a.valueErrors[id] = msg
}

// Report attaches a validation diagnostic to id.
func (a *Annotations) Report(id NodeID, d diagnostic.Diagnostic) {
	d.Kind = diagnostic.KindValidation
	a.findings[id] = append(a.findings[id], d)
}

func (a *Annotations) Len() int {
	n := 0
	for _, f := range a.findings {
		n += len(f)
	}
	return n
}

// Annotate replaces the tree's annotation table. Callers must not run two
// validation passes on the same tree concurrently.
func (t *Tree) Annotate(a *Annotations) {
	if a == nil {
		a = NewAnnotations()
	}
	t.annotations = a
}

// ValueError returns the value error attached to an attribute node.
func (t *Tree) ValueError(id NodeID) (string, bool) {
	msg, ok := t.annotations.valueErrors[id]
	return msg, ok
}

// Findings returns the validation diagnostics attached to id.
func (t *Tree) Findings(id NodeID) []diagnostic.Diagnostic {
	return t.annotations.findings[id]
}
