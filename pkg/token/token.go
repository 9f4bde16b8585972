// Package token defines the lexical tokens of T4 text templates and the lexer that
// produces them.
//
// The lexer is gap-free: every byte of the source belongs to exactly one token, so
// concatenating the text of the produced tokens always reproduces the input.
//
//	Lexer State Machine:
//	┌──────────────────┐
//	│       Text       │ <──────────────────────────┐
//	└──────────┬───────┘                            │
//	           │ "<#@"            "<#" "<#=" "<#+"  │ "#>" (or the next opener,
//	           ▼                        ▼           │  or end of input, which
//	┌──────────────────┐     ┌──────────────────┐   │  records a LexError)
//	│    Directive     │     │       Code       │ ──┘
//	│ Name = "Value"   │     │  [opaque code]   │
//	└──────────────────┘     └──────────────────┘
package token

import "fmt"

// Kind is the lexical category of a token.
type Kind uint8

const (
	Invalid Kind = iota
	// Text is a run of literal template text outside any block.
	Text
	// DirectiveStart is "<#@".
	DirectiveStart
	// StatementStart is "<#".
	StatementStart
	// ExpressionStart is "<#=".
	ExpressionStart
	// FeatureStart is "<#+".
	FeatureStart
	// BlockEnd is "#>", closing both directives and code blocks.
	BlockEnd
	// Code is the opaque content of a code block.
	Code
	// Space is whitespace inside a directive.
	Space
	// Name is a directive name or an attribute name.
	Name
	// Equal separates an attribute name from its value.
	Equal
	// Quote delimits an attribute value.
	Quote
	// Value is the content between two quotes.
	Value
	// UnquotedValue is a value written without the surrounding quotes.
	UnquotedValue
)

var kindNames = [...]string{
	Invalid:         "Invalid",
	Text:            "Text",
	DirectiveStart:  "DirectiveStart",
	StatementStart:  "StatementStart",
	ExpressionStart: "ExpressionStart",
	FeatureStart:    "FeatureStart",
	BlockEnd:        "BlockEnd",
	Code:            "Code",
	Space:           "Space",
	Name:            "Name",
	Equal:           "Equal",
	Quote:           "Quote",
	Value:           "Value",
	UnquotedValue:   "UnquotedValue",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// IsBlockStart reports whether k opens a directive or a code block.
func (k Kind) IsBlockStart() bool {
	switch k {
	case DirectiveStart, StatementStart, ExpressionStart, FeatureStart:
		return true
	}
	return false
}

// Token is an immutable span of source text.
type Token struct {
	Kind   Kind
	Offset int
	Text   string
}

// Len returns the length of the token in bytes.
func (t Token) Len() int {
	return len(t.Text)
}

// End returns the byte offset just past the token.
func (t Token) End() int {
	return t.Offset + len(t.Text)
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q)@%d", t.Kind, t.Text, t.Offset)
}

// LexError reports a malformed or unterminated region. The lexer recovers from it
// and keeps producing tokens.
type LexError struct {
	// Token is the index in Stream.Tokens of the opener of the broken region.
	Token int
	// Block is the kind of that opener.
	Block Kind

	Offset  int
	End     int
	Message string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("%d: %s", e.Offset, e.Message)
}

// Stream is the ordered output of the lexer.
type Stream struct {
	Source string
	Tokens []Token
	Errors []*LexError
}

// Text reassembles the source from the tokens.
func (s *Stream) Text() string {
	n := 0
	for _, t := range s.Tokens {
		n += len(t.Text)
	}
	buf := make([]byte, 0, n)
	for _, t := range s.Tokens {
		buf = append(buf, t.Text...)
	}
	return string(buf)
}
