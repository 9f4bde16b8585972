package position

import (
	"fmt"
)

// Place is a zero-based line and character.
type Place struct {
	Line      int
	Character int
}

func (p Place) String() string {
	return fmt.Sprintf("%d:%d", p.Line+1, p.Character+1)
}

// Range is a pair of places, End exclusive.
type Range struct {
	Start Place
	End   Place
}

// Span is a half-open byte range [Start, End) in the source text.
type Span struct {
	Start int
	End   int
}

func NewSpan(start, end int) Span {
	return Span{Start: start, End: end}
}

// NewTextSpan returns the span covered by text starting at offset.
func NewTextSpan(text string, offset int) Span {
	return Span{Start: offset, End: offset + len(text)}
}

// Len returns the length of the span in bytes.
func (s Span) Len() int {
	return s.End - s.Start
}

func (s Span) Empty() bool {
	return s.Start == s.End
}

// Contains reports whether offset falls inside the span. An empty span contains
// its own start.
func (s Span) Contains(offset int) bool {
	if s.Empty() {
		return offset == s.Start
	}
	return offset >= s.Start && offset < s.End
}

// HasOverlapWith reports whether the two spans share at least one byte, treating
// empty spans as points.
func (s Span) HasOverlapWith(other Span) bool {
	if s.Empty() {
		return s.Start >= other.Start && s.Start <= other.End
	}
	if other.Empty() {
		return other.Start >= s.Start && other.Start <= s.End
	}
	return other.Start < s.End && other.End > s.Start
}

// Cover returns the smallest span containing both spans.
func (s Span) Cover(other Span) Span {
	if other.Start < s.Start {
		s.Start = other.Start
	}
	if other.End > s.End {
		s.End = other.End
	}
	return s
}

// Text returns the part of src covered by the span.
func (s Span) Text(src string) string {
	return src[s.Start:s.End]
}

func (s Span) String() string {
	return fmt.Sprintf("%d-%d", s.Start, s.End)
}
