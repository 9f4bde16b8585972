/*
Token Types and Modifiers:
------------------------
This file defines the highlighting categories produced for a template.

	+-------------+     +-----------+
	| TokenType   | --> | Span      |
	+-------------+     +-----------+
	      |                  |
	      v                  v
	[Delimiter,        [Start, End)
	 Keyword,           byte offsets
	 Property,
	 etc.]

The numeric value of a TokenType is its index in Legend().Types, so encoded
data can be handed to an LSP client as is.
*/
package semtok

import (
	"github.com/walteh/t4ls/pkg/position"
)

// TokenType represents the highlighting category of a token
type TokenType uint32

const (
	// TokenDelimiter represents block delimiters (<#@, <#, <#=, <#+, #>)
	TokenDelimiter TokenType = iota

	// TokenKeyword represents a directive name (e.g., template)
	TokenKeyword

	// TokenProperty represents an attribute name (e.g., language)
	TokenProperty

	// TokenOperator represents the '=' between attribute name and value
	TokenOperator

	// TokenString represents quotes and attribute values
	TokenString

	// TokenCode represents embedded host-language code
	TokenCode

	// TokenText represents literal template output
	TokenText
)

// TokenModifier is a bit set of additional characteristics
type TokenModifier uint32

const (
	// ModifierNone indicates no special characteristics
	ModifierNone TokenModifier = 0

	// ModifierInvalid marks values that failed validation or are malformed
	ModifierInvalid TokenModifier = 1 << 0
)

// Token is a classified piece of the source
type Token struct {
	Type     TokenType
	Modifier TokenModifier
	Span     position.Span
}

var tokenTypeNames = [...]string{
	TokenDelimiter: "delimiter",
	TokenKeyword:   "keyword",
	TokenProperty:  "property",
	TokenOperator:  "operator",
	TokenString:    "string",
	TokenCode:      "code",
	TokenText:      "text",
}

// String returns a human-readable representation of the token type
func (t TokenType) String() string {
	if int(t) < len(tokenTypeNames) {
		return tokenTypeNames[t]
	}
	return "unknown"
}

// String returns a human-readable representation of the token modifier
func (m TokenModifier) String() string {
	switch m {
	case ModifierNone:
		return "none"
	case ModifierInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Legend describes the token types and modifiers in the order the encoded data
// refers to them.
type Legend struct {
	Types     []string `json:"tokenTypes"`
	Modifiers []string `json:"tokenModifiers"`
}

func NewLegend() Legend {
	return Legend{
		Types:     append([]string(nil), tokenTypeNames[:]...),
		Modifiers: []string{"invalid"},
	}
}
