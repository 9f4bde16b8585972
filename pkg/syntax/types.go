package syntax

import (
	"fmt"

	"github.com/walteh/t4ls/pkg/token"
)

// NodeType is the grammar category of a node.
type NodeType uint8

const (
	InvalidNode NodeType = iota
	// File is the root, holding every top-level item in source order.
	File
	Directive
	DirectiveAttribute
	StatementBlock
	ExpressionBlock
	FeatureBlock
	// TokenNode is the type of every leaf.
	TokenNode
)

var nodeTypeNames = [...]string{
	InvalidNode:        "Invalid",
	File:               "File",
	Directive:          "Directive",
	DirectiveAttribute: "DirectiveAttribute",
	StatementBlock:     "StatementBlock",
	ExpressionBlock:    "ExpressionBlock",
	FeatureBlock:       "FeatureBlock",
	TokenNode:          "Token",
}

func (t NodeType) String() string {
	if int(t) < len(nodeTypeNames) {
		return nodeTypeNames[t]
	}
	return fmt.Sprintf("NodeType(%d)", t)
}

// IsCodeBlock reports whether t is one of the three code block types.
func (t NodeType) IsCodeBlock() bool {
	return t == StatementBlock || t == ExpressionBlock || t == FeatureBlock
}

// BlockTypeFor returns the composite type opened by a block start token.
func BlockTypeFor(k token.Kind) NodeType {
	switch k {
	case token.DirectiveStart:
		return Directive
	case token.StatementStart:
		return StatementBlock
	case token.ExpressionStart:
		return ExpressionBlock
	case token.FeatureStart:
		return FeatureBlock
	}
	return InvalidNode
}

// Role is the semantic slot a child fills within its parent.
type Role uint8

const (
	RoleUnknown Role = iota
	RoleStart
	RoleEnd
	RoleName
	RoleSeparator
	RoleValue
	RoleQuote
	RoleAttribute
	RoleCode
	RoleSpace
	RoleItem
)

var roleNames = [...]string{
	RoleUnknown:   "Unknown",
	RoleStart:     "Start",
	RoleEnd:       "End",
	RoleName:      "Name",
	RoleSeparator: "Separator",
	RoleValue:     "Value",
	RoleQuote:     "Quote",
	RoleAttribute: "Attribute",
	RoleCode:      "Code",
	RoleSpace:     "Space",
	RoleItem:      "Item",
}

func (r Role) String() string {
	if int(r) < len(roleNames) {
		return roleNames[r]
	}
	return fmt.Sprintf("Role(%d)", r)
}

// childKey identifies a child by what it is: a token kind for leaves, a node type
// for composites.
type childKey struct {
	typ  NodeType
	kind token.Kind
}

func leafKey(k token.Kind) childKey {
	return childKey{typ: TokenNode, kind: k}
}

func compositeKey(t NodeType) childKey {
	return childKey{typ: t}
}

// roleTables maps, per composite type, every child kind the grammar allows to its
// role. Kinds missing from a table resolve to RoleUnknown.
var roleTables = map[NodeType]map[childKey]Role{
	File: {
		leafKey(token.Text):           RoleItem,
		compositeKey(Directive):       RoleItem,
		compositeKey(StatementBlock):  RoleItem,
		compositeKey(ExpressionBlock): RoleItem,
		compositeKey(FeatureBlock):    RoleItem,
	},
	Directive: {
		leafKey(token.DirectiveStart):     RoleStart,
		leafKey(token.Name):               RoleName,
		leafKey(token.Space):              RoleSpace,
		compositeKey(DirectiveAttribute): RoleAttribute,
		leafKey(token.BlockEnd):           RoleEnd,
	},
	DirectiveAttribute: {
		leafKey(token.Name):  RoleName,
		leafKey(token.Equal): RoleSeparator,
		leafKey(token.Value): RoleValue,
		leafKey(token.Quote): RoleQuote,
		leafKey(token.Space): RoleSpace,
	},
	StatementBlock: {
		leafKey(token.StatementStart): RoleStart,
		leafKey(token.Code):           RoleCode,
		leafKey(token.BlockEnd):       RoleEnd,
	},
	ExpressionBlock: {
		leafKey(token.ExpressionStart): RoleStart,
		leafKey(token.Code):            RoleCode,
		leafKey(token.BlockEnd):        RoleEnd,
	},
	FeatureBlock: {
		leafKey(token.FeatureStart): RoleStart,
		leafKey(token.Code):         RoleCode,
		leafKey(token.BlockEnd):     RoleEnd,
	},
}

// RoleOf resolves the role of a child inside a composite of type parent. kind is
// only consulted when child is TokenNode.
func RoleOf(parent NodeType, child NodeType, kind token.Kind) Role {
	table, ok := roleTables[parent]
	if !ok {
		return RoleUnknown
	}
	key := compositeKey(child)
	if child == TokenNode {
		key = leafKey(kind)
	}
	return table[key]
}
