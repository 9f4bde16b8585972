package syntax

import (
	"github.com/walteh/t4ls/pkg/diagnostic"
	"github.com/walteh/t4ls/pkg/position"
	"github.com/walteh/t4ls/pkg/token"
)

// Builder constructs a Tree. It is the only way to create nodes, and it creates
// them in pre-order, so ids grow in document order.
type Builder struct {
	tree  *Tree
	stack []NodeID
	pos   int
}

func NewBuilder(src string, capHint int) *Builder {
	return &Builder{
		tree: &Tree{
			src:         src,
			nodes:       NewArena[node](capHint),
			problems:    map[NodeID][]diagnostic.Diagnostic{},
			annotations: NewAnnotations(),
		},
	}
}

func (b *Builder) current() NodeID {
	if len(b.stack) == 0 {
		return NoNode
	}
	return b.stack[len(b.stack)-1]
}

func (b *Builder) attach(id NodeID) {
	parent := b.current()
	if parent == NoNode {
		if b.tree.root == NoNode {
			b.tree.root = id
		}
		return
	}
	b.tree.nodes.Get(id).parent = parent
	p := b.tree.nodes.Get(parent)
	p.children = append(p.children, id)
}

// Open starts a composite node as the last child of the current node.
func (b *Builder) Open(typ NodeType) NodeID {
	id := b.tree.nodes.Allocate(node{
		typ:  typ,
		span: position.NewSpan(b.pos, b.pos),
	})
	b.attach(id)
	b.stack = append(b.stack, id)
	return id
}

// Token appends a leaf to the current node.
func (b *Builder) Token(tok token.Token) NodeID {
	id := b.tree.nodes.Allocate(node{
		typ:  TokenNode,
		tok:  tok,
		span: position.NewTextSpan(tok.Text, tok.Offset),
	})
	b.attach(id)
	b.pos = tok.End()
	for _, open := range b.stack {
		b.tree.nodes.Get(open).span.End = b.pos
	}
	return id
}

// Close ends the current composite node and returns it.
func (b *Builder) Close() NodeID {
	id := b.current()
	if id == NoNode {
		return NoNode
	}
	b.stack = b.stack[:len(b.stack)-1]
	return id
}

// Current returns the innermost open composite.
func (b *Builder) Current() NodeID {
	return b.current()
}

// Problem attaches a lex or parse diagnostic to id.
func (b *Builder) Problem(id NodeID, d diagnostic.Diagnostic) {
	b.tree.problems[id] = append(b.tree.problems[id], d)
}

// Span returns the span of a node built so far.
func (b *Builder) Span(id NodeID) position.Span {
	return b.tree.Span(id)
}

// Finish closes any open nodes and returns the tree. The builder must not be used
// afterwards.
func (b *Builder) Finish() *Tree {
	for len(b.stack) > 0 {
		b.Close()
	}
	t := b.tree
	b.tree = nil
	return t
}
