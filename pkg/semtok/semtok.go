/*
Package semtok classifies the syntax tree of a template for highlighting.

	       Input
	         |
	         v
	  +------------+
	  | syntax     |
	  | Tree       |
	  +------------+
	         |
	  Walk leaves by role
	         |
	         v
	  +------------+
	  | Semantic   |
	  | Tokens     |
	  +------------+
	         |
	     Encode
	         |
	         v
	  [dLine, dChar, len, type, mods]...

Classification reads only roles and value errors, never token text, so it
works the same on malformed input.
*/
package semtok

import (
	"github.com/walteh/t4ls/pkg/syntax"
	"github.com/walteh/t4ls/pkg/token"
)

// Classify returns one token per highlighted leaf in source order. Whitespace
// inside directives is not reported.
func Classify(tree *syntax.Tree) []Token {
	leaves := tree.Leaves()
	tokens := make([]Token, 0, len(leaves))

	for _, id := range leaves {
		typ, mod, ok := classify(tree, id)
		if !ok {
			continue
		}
		span := tree.Span(id)
		if span.Empty() {
			continue
		}
		tokens = append(tokens, Token{Type: typ, Modifier: mod, Span: span})
	}

	return tokens
}

func classify(tree *syntax.Tree, id syntax.NodeID) (TokenType, TokenModifier, bool) {
	parent := tree.Parent(id)
	parentType := tree.Type(parent)

	switch tree.Role(id) {
	case syntax.RoleStart, syntax.RoleEnd:
		return TokenDelimiter, ModifierNone, true
	case syntax.RoleCode:
		return TokenCode, ModifierNone, true
	case syntax.RoleItem:
		return TokenText, ModifierNone, true
	case syntax.RoleSeparator:
		return TokenOperator, ModifierNone, true
	case syntax.RoleName:
		if parentType == syntax.Directive {
			return TokenKeyword, ModifierNone, true
		}
		return TokenProperty, ModifierNone, true
	case syntax.RoleQuote:
		return TokenString, valueModifier(tree, parent), true
	case syntax.RoleValue:
		return TokenString, valueModifier(tree, parent), true
	case syntax.RoleSpace:
		return 0, 0, false
	}

	// leaves without a role are kept visible as malformed input
	switch tree.Kind(id) {
	case token.UnquotedValue, token.Value:
		return TokenString, ModifierInvalid, true
	case token.Name:
		return TokenProperty, ModifierInvalid, true
	case token.Equal:
		return TokenOperator, ModifierInvalid, true
	}
	return 0, 0, false
}

func valueModifier(tree *syntax.Tree, attr syntax.NodeID) TokenModifier {
	if _, bad := tree.ValueError(attr); bad {
		return ModifierInvalid
	}
	return ModifierNone
}
