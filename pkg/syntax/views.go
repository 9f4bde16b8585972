package syntax

import (
	"github.com/walteh/t4ls/pkg/position"
	"github.com/walteh/t4ls/pkg/token"
)

// DirectiveNode is a typed view over a Directive node, like
// <#@ import namespace="System" #>.
type DirectiveNode struct {
	tree *Tree
	id   NodeID
}

// AsDirective returns a view over id when it is a directive.
func (t *Tree) AsDirective(id NodeID) (DirectiveNode, bool) {
	if t.Type(id) != Directive {
		return DirectiveNode{}, false
	}
	return DirectiveNode{tree: t, id: id}, true
}

func (d DirectiveNode) ID() NodeID {
	return d.id
}

func (d DirectiveNode) Span() position.Span {
	return d.tree.Span(d.id)
}

// NameToken returns the directive name leaf, or NoNode.
func (d DirectiveNode) NameToken() NodeID {
	return d.tree.ChildByRole(d.id, RoleName)
}

// Name returns the directive name, or "" when it is missing.
func (d DirectiveNode) Name() string {
	return d.tree.Text(d.NameToken())
}

// Attributes returns the attribute nodes in source order.
func (d DirectiveNode) Attributes() []AttributeNode {
	ids := d.tree.ChildrenByRole(d.id, RoleAttribute)
	out := make([]AttributeNode, 0, len(ids))
	for _, id := range ids {
		out = append(out, AttributeNode{tree: d.tree, id: id})
	}
	return out
}

// IsClosed reports whether the directive ends with "#>".
func (d DirectiveNode) IsClosed() bool {
	return d.tree.ChildByRole(d.id, RoleEnd) != NoNode
}

// AttributeNode is a typed view over a DirectiveAttribute node, like
// namespace="System".
type AttributeNode struct {
	tree *Tree
	id   NodeID
}

// AsAttribute returns a view over id when it is a directive attribute.
func (t *Tree) AsAttribute(id NodeID) (AttributeNode, bool) {
	if t.Type(id) != DirectiveAttribute {
		return AttributeNode{}, false
	}
	return AttributeNode{tree: t, id: id}, true
}

func (a AttributeNode) ID() NodeID {
	return a.id
}

func (a AttributeNode) Span() position.Span {
	return a.tree.Span(a.id)
}

// NameToken returns the name leaf, or NoNode.
func (a AttributeNode) NameToken() NodeID {
	return a.tree.ChildByRole(a.id, RoleName)
}

// EqualToken returns the separator leaf, or NoNode.
func (a AttributeNode) EqualToken() NodeID {
	return a.tree.ChildByRole(a.id, RoleSeparator)
}

// ValueToken returns the value leaf, or NoNode. An empty value ("") has no
// value leaf.
func (a AttributeNode) ValueToken() NodeID {
	return a.tree.ChildByRole(a.id, RoleValue)
}

// Name returns the attribute name, or "" when it is missing.
func (a AttributeNode) Name() string {
	return a.tree.Text(a.NameToken())
}

// Value returns the attribute value and whether the value is well formed: both
// quotes present, the content possibly empty.
func (a AttributeNode) Value() (string, bool) {
	if !a.IsQuoted() {
		return "", false
	}
	return a.tree.Text(a.ValueToken()), true
}

// IsQuoted reports whether the value has both quotes.
func (a AttributeNode) IsQuoted() bool {
	return len(a.tree.ChildrenByRole(a.id, RoleQuote)) == 2
}

// ValueSpan returns the span of the value, between the quotes when present.
func (a AttributeNode) ValueSpan() position.Span {
	if v := a.ValueToken(); v != NoNode {
		return a.tree.Span(v)
	}
	quotes := a.tree.ChildrenByRole(a.id, RoleQuote)
	if len(quotes) > 0 {
		end := a.tree.Span(quotes[0]).End
		return position.NewSpan(end, end)
	}
	for _, c := range a.tree.Children(a.id) {
		if a.tree.Kind(c) == token.UnquotedValue {
			return a.tree.Span(c)
		}
	}
	return a.Span()
}

// ValueError returns the error attached to the value by the last validation pass.
func (a AttributeNode) ValueError() (string, bool) {
	return a.tree.ValueError(a.id)
}

// Directive returns the enclosing directive.
func (a AttributeNode) Directive() DirectiveNode {
	return DirectiveNode{tree: a.tree, id: a.tree.Parent(a.id)}
}
