package syntax

import (
	"fortio.org/safecast"
)

// NodeID is the stable index of a node in its tree's arena. The zero value means
// "no node".
type NodeID uint32

const NoNode NodeID = 0

// Arena stores values contiguously and hands out 1-based ids.
type Arena[T any] struct {
	data []T
}

func NewArena[T any](capHint int) *Arena[T] {
	if capHint < 0 {
		capHint = 0
	}
	return &Arena[T]{
		data: make([]T, 0, capHint),
	}
}

// Allocate appends value and returns its id.
func (a *Arena[T]) Allocate(value T) NodeID {
	a.data = append(a.data, value)
	id, err := safecast.Conv[uint32](len(a.data))
	if err != nil {
		panic("syntax: arena overflow")
	}
	return NodeID(id)
}

// Get returns the value for id, or nil for NoNode and out-of-range ids.
func (a *Arena[T]) Get(id NodeID) *T {
	if id == NoNode || int(id) > len(a.data) {
		return nil
	}
	return &a.data[id-1]
}

func (a *Arena[T]) Len() int {
	return len(a.data)
}
