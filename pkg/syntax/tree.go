// Package syntax holds the concrete syntax tree of a T4 template.
//
// Nodes live in an arena and are addressed by NodeID. The structure is immutable
// once the Builder finishes; the only state that changes afterwards is the
// annotation side table written by directive validation, which is swapped in as a
// whole by each validation pass.
package syntax

import (
	"strings"

	"github.com/walteh/t4ls/pkg/diagnostic"
	"github.com/walteh/t4ls/pkg/position"
	"github.com/walteh/t4ls/pkg/token"
)

type node struct {
	typ      NodeType
	tok      token.Token
	parent   NodeID
	children []NodeID
	span     position.Span
}

// Tree is a parsed template.
type Tree struct {
	src         string
	nodes       *Arena[node]
	root        NodeID
	problems    map[NodeID][]diagnostic.Diagnostic
	annotations *Annotations
}

// Source returns the text the tree was parsed from.
func (t *Tree) Source() string {
	return t.src
}

func (t *Tree) Root() NodeID {
	return t.root
}

// Len returns the number of nodes in the tree.
func (t *Tree) Len() int {
	return t.nodes.Len()
}

// Valid reports whether id names a node of this tree.
func (t *Tree) Valid(id NodeID) bool {
	return t.nodes.Get(id) != nil
}

func (t *Tree) Type(id NodeID) NodeType {
	n := t.nodes.Get(id)
	if n == nil {
		return InvalidNode
	}
	return n.typ
}

// IsLeaf reports whether id is a token leaf.
func (t *Tree) IsLeaf(id NodeID) bool {
	return t.Type(id) == TokenNode
}

// Token returns the token of a leaf.
func (t *Tree) Token(id NodeID) (token.Token, bool) {
	n := t.nodes.Get(id)
	if n == nil || n.typ != TokenNode {
		return token.Token{}, false
	}
	return n.tok, true
}

// Kind returns the token kind of a leaf, or token.Invalid for composites.
func (t *Tree) Kind(id NodeID) token.Kind {
	tok, _ := t.Token(id)
	return tok.Kind
}

func (t *Tree) Parent(id NodeID) NodeID {
	n := t.nodes.Get(id)
	if n == nil {
		return NoNode
	}
	return n.parent
}

// Children returns the children of id in source order. The slice must not be
// modified.
func (t *Tree) Children(id NodeID) []NodeID {
	n := t.nodes.Get(id)
	if n == nil {
		return nil
	}
	return n.children
}

// Role returns the role id fills in its parent.
func (t *Tree) Role(id NodeID) Role {
	n := t.nodes.Get(id)
	if n == nil || n.parent == NoNode {
		return RoleUnknown
	}
	return RoleOf(t.Type(n.parent), n.typ, n.tok.Kind)
}

// ChildByRole returns the child of id filling role, or NoNode. Name, Separator
// and Value are unique per node; for other roles the first match is returned.
func (t *Tree) ChildByRole(id NodeID, role Role) NodeID {
	for _, c := range t.Children(id) {
		if t.Role(c) == role {
			return c
		}
	}
	return NoNode
}

// ChildrenByRole returns every child of id filling role.
func (t *Tree) ChildrenByRole(id NodeID, role Role) []NodeID {
	var out []NodeID
	for _, c := range t.Children(id) {
		if t.Role(c) == role {
			out = append(out, c)
		}
	}
	return out
}

func (t *Tree) Span(id NodeID) position.Span {
	n := t.nodes.Get(id)
	if n == nil {
		return position.Span{}
	}
	return n.span
}

// Text returns the token text of a leaf or the source covered by a composite.
func (t *Tree) Text(id NodeID) string {
	n := t.nodes.Get(id)
	if n == nil {
		return ""
	}
	if n.typ == TokenNode {
		return n.tok.Text
	}
	return n.span.Text(t.src)
}

// Walk visits the subtree under id in pre-order, children in source order.
// Returning false from fn skips the children of the current node.
func (t *Tree) Walk(id NodeID, fn func(id NodeID) bool) {
	if t.nodes.Get(id) == nil {
		return
	}
	stack := []NodeID{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(cur) {
			continue
		}
		children := t.Children(cur)
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
}

// Leaves returns every leaf in document order.
func (t *Tree) Leaves() []NodeID {
	out := make([]NodeID, 0, t.nodes.Len())
	t.Walk(t.root, func(id NodeID) bool {
		if t.IsLeaf(id) {
			out = append(out, id)
		}
		return true
	})
	return out
}

// LeafText concatenates the text of all leaves in document order. For any tree
// produced by the parser this equals Source.
func (t *Tree) LeafText() string {
	var sb strings.Builder
	sb.Grow(len(t.src))
	for _, id := range t.Leaves() {
		sb.WriteString(t.Text(id))
	}
	return sb.String()
}

// NodeAt returns the deepest node whose span contains offset.
func (t *Tree) NodeAt(offset int) NodeID {
	cur := t.root
	for {
		next := NoNode
		for _, c := range t.Children(cur) {
			if t.Span(c).Contains(offset) {
				next = c
				break
			}
		}
		if next == NoNode {
			return cur
		}
		cur = next
	}
}

// Problems returns the lex and parse diagnostics attached to id.
func (t *Tree) Problems(id NodeID) []diagnostic.Diagnostic {
	return t.problems[id]
}

// ProblemCount returns the number of lex and parse diagnostics in the tree.
func (t *Tree) ProblemCount() int {
	n := 0
	for _, p := range t.problems {
		n += len(p)
	}
	return n
}

// Items returns the top-level items of the file.
func (t *Tree) Items() []NodeID {
	return t.Children(t.root)
}

// Directives returns every directive of the file in source order.
func (t *Tree) Directives() []DirectiveNode {
	var out []DirectiveNode
	for _, id := range t.Items() {
		if t.Type(id) == Directive {
			out = append(out, DirectiveNode{tree: t, id: id})
		}
	}
	return out
}
