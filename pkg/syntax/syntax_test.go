package syntax_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/t4ls/pkg/diagnostic"
	"github.com/walteh/t4ls/pkg/position"
	"github.com/walteh/t4ls/pkg/syntax"
	"github.com/walteh/t4ls/pkg/token"
)

func TestArena(t *testing.T) {
	a := syntax.NewArena[string](0)
	assert.Nil(t, a.Get(syntax.NoNode))

	first := a.Allocate("a")
	second := a.Allocate("b")
	assert.Equal(t, syntax.NodeID(1), first)
	assert.Equal(t, syntax.NodeID(2), second)
	assert.Equal(t, "b", *a.Get(second))
	assert.Nil(t, a.Get(3))
	assert.Equal(t, 2, a.Len())
}

func TestRoleOf(t *testing.T) {
	tests := []struct {
		name   string
		parent syntax.NodeType
		child  syntax.NodeType
		kind   token.Kind
		want   syntax.Role
	}{
		{"attribute_name", syntax.DirectiveAttribute, syntax.TokenNode, token.Name, syntax.RoleName},
		{"attribute_equal", syntax.DirectiveAttribute, syntax.TokenNode, token.Equal, syntax.RoleSeparator},
		{"attribute_value", syntax.DirectiveAttribute, syntax.TokenNode, token.Value, syntax.RoleValue},
		{"attribute_quote", syntax.DirectiveAttribute, syntax.TokenNode, token.Quote, syntax.RoleQuote},
		{"attribute_unquoted_value", syntax.DirectiveAttribute, syntax.TokenNode, token.UnquotedValue, syntax.RoleUnknown},
		{"directive_name", syntax.Directive, syntax.TokenNode, token.Name, syntax.RoleName},
		{"directive_start", syntax.Directive, syntax.TokenNode, token.DirectiveStart, syntax.RoleStart},
		{"directive_end", syntax.Directive, syntax.TokenNode, token.BlockEnd, syntax.RoleEnd},
		{"directive_attribute", syntax.Directive, syntax.DirectiveAttribute, token.Invalid, syntax.RoleAttribute},
		{"directive_stray_equal", syntax.Directive, syntax.TokenNode, token.Equal, syntax.RoleUnknown},
		{"expression_code", syntax.ExpressionBlock, syntax.TokenNode, token.Code, syntax.RoleCode},
		{"feature_start", syntax.FeatureBlock, syntax.TokenNode, token.FeatureStart, syntax.RoleStart},
		{"statement_wrong_start", syntax.StatementBlock, syntax.TokenNode, token.FeatureStart, syntax.RoleUnknown},
		{"file_text", syntax.File, syntax.TokenNode, token.Text, syntax.RoleItem},
		{"file_directive", syntax.File, syntax.Directive, token.Invalid, syntax.RoleItem},
		{"leaf_parent", syntax.TokenNode, syntax.TokenNode, token.Text, syntax.RoleUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, syntax.RoleOf(tt.parent, tt.child, tt.kind))
		})
	}
}

func TestBlockTypeFor(t *testing.T) {
	assert.Equal(t, syntax.Directive, syntax.BlockTypeFor(token.DirectiveStart))
	assert.Equal(t, syntax.ExpressionBlock, syntax.BlockTypeFor(token.ExpressionStart))
	assert.Equal(t, syntax.InvalidNode, syntax.BlockTypeFor(token.Text))
	assert.True(t, syntax.FeatureBlock.IsCodeBlock())
	assert.False(t, syntax.Directive.IsCodeBlock())
}

// buildImport builds <#@ import namespace="System" #> by hand.
func buildImport(t *testing.T) (*syntax.Tree, map[string]syntax.NodeID) {
	t.Helper()

	src := `<#@ import namespace="System" #>`
	b := syntax.NewBuilder(src, 16)
	ids := map[string]syntax.NodeID{}

	ids["file"] = b.Open(syntax.File)
	ids["directive"] = b.Open(syntax.Directive)
	b.Token(token.Token{Kind: token.DirectiveStart, Offset: 0, Text: "<#@"})
	b.Token(token.Token{Kind: token.Space, Offset: 3, Text: " "})
	ids["name"] = b.Token(token.Token{Kind: token.Name, Offset: 4, Text: "import"})
	b.Token(token.Token{Kind: token.Space, Offset: 10, Text: " "})
	ids["attribute"] = b.Open(syntax.DirectiveAttribute)
	ids["attrName"] = b.Token(token.Token{Kind: token.Name, Offset: 11, Text: "namespace"})
	ids["equal"] = b.Token(token.Token{Kind: token.Equal, Offset: 20, Text: "="})
	b.Token(token.Token{Kind: token.Quote, Offset: 21, Text: `"`})
	ids["value"] = b.Token(token.Token{Kind: token.Value, Offset: 22, Text: "System"})
	b.Token(token.Token{Kind: token.Quote, Offset: 28, Text: `"`})
	require.Equal(t, ids["attribute"], b.Close())
	b.Token(token.Token{Kind: token.Space, Offset: 29, Text: " "})
	ids["end"] = b.Token(token.Token{Kind: token.BlockEnd, Offset: 30, Text: "#>"})

	return b.Finish(), ids
}

func TestTreeNavigation(t *testing.T) {
	tree, ids := buildImport(t)

	assert.Equal(t, ids["file"], tree.Root())
	assert.Equal(t, syntax.File, tree.Type(tree.Root()))
	assert.Equal(t, tree.Source(), tree.LeafText())

	assert.Equal(t, position.NewSpan(0, 32), tree.Span(ids["directive"]))
	assert.Equal(t, position.NewSpan(11, 29), tree.Span(ids["attribute"]))
	assert.Equal(t, `namespace="System"`, tree.Text(ids["attribute"]))

	assert.Equal(t, ids["directive"], tree.Parent(ids["attribute"]))
	assert.Equal(t, syntax.RoleAttribute, tree.Role(ids["attribute"]))
	assert.Equal(t, syntax.RoleUnknown, tree.Role(tree.Root()))
	assert.Equal(t, ids["name"], tree.ChildByRole(ids["directive"], syntax.RoleName))
	assert.Equal(t, ids["end"], tree.ChildByRole(ids["directive"], syntax.RoleEnd))
	assert.Len(t, tree.ChildrenByRole(ids["attribute"], syntax.RoleQuote), 2)
	assert.Equal(t, syntax.NoNode, tree.ChildByRole(ids["attribute"], syntax.RoleCode))

	assert.Equal(t, ids["value"], tree.NodeAt(24))
	assert.Equal(t, ids["attribute"], tree.Parent(tree.NodeAt(21)))

	assert.True(t, tree.IsLeaf(ids["value"]))
	assert.Equal(t, token.Value, tree.Kind(ids["value"]))
	assert.Equal(t, token.Invalid, tree.Kind(ids["attribute"]))
	assert.False(t, tree.Valid(syntax.NodeID(999)))
	assert.Equal(t, syntax.InvalidNode, tree.Type(syntax.NodeID(999)))
}

func TestTreeWalkOrder(t *testing.T) {
	tree, _ := buildImport(t)

	var visited []syntax.NodeID
	tree.Walk(tree.Root(), func(id syntax.NodeID) bool {
		visited = append(visited, id)
		return true
	})

	require.Len(t, visited, tree.Len())
	// the builder allocates in pre-order, so a pre-order walk sees ascending ids
	for i, id := range visited {
		assert.Equal(t, syntax.NodeID(i+1), id)
	}

	var skipped []syntax.NodeID
	tree.Walk(tree.Root(), func(id syntax.NodeID) bool {
		skipped = append(skipped, id)
		return tree.Type(id) != syntax.DirectiveAttribute
	})
	assert.Len(t, skipped, tree.Len()-5)
}

func TestDirectiveViews(t *testing.T) {
	tree, ids := buildImport(t)

	directives := tree.Directives()
	require.Len(t, directives, 1)

	d := directives[0]
	assert.Equal(t, "import", d.Name())
	assert.True(t, d.IsClosed())

	attrs := d.Attributes()
	require.Len(t, attrs, 1)

	a := attrs[0]
	assert.Equal(t, ids["attribute"], a.ID())
	assert.Equal(t, "namespace", a.Name())
	assert.Equal(t, ids["equal"], a.EqualToken())
	assert.True(t, a.IsQuoted())
	value, ok := a.Value()
	assert.True(t, ok)
	assert.Equal(t, "System", value)
	assert.Equal(t, position.NewSpan(22, 28), a.ValueSpan())
	assert.Equal(t, d.ID(), a.Directive().ID())

	_, isDirective := tree.AsDirective(ids["attribute"])
	assert.False(t, isDirective)
	_, isAttribute := tree.AsAttribute(ids["attribute"])
	assert.True(t, isAttribute)
}

func TestAnnotations(t *testing.T) {
	tree, ids := buildImport(t)

	_, ok := tree.ValueError(ids["attribute"])
	assert.False(t, ok)

	ann := syntax.NewAnnotations()
	ann.SetValueError(ids["attribute"], "first")
	ann.SetValueError(ids["attribute"], "second")
	ann.Report(ids["attribute"], diagnostic.Diagnostic{
		Kind:     diagnostic.KindParse,
		Severity: diagnostic.SeverityError,
		Message:  "bad value",
	})
	tree.Annotate(ann)

	msg, ok := tree.ValueError(ids["attribute"])
	assert.True(t, ok)
	assert.Equal(t, "second", msg)

	findings := tree.Findings(ids["attribute"])
	require.Len(t, findings, 1)
	assert.Equal(t, diagnostic.KindValidation, findings[0].Kind)
	assert.Equal(t, 1, ann.Len())

	// a new table replaces the old one as a whole
	tree.Annotate(nil)
	_, ok = tree.ValueError(ids["attribute"])
	assert.False(t, ok)
	assert.Empty(t, tree.Findings(ids["attribute"]))
}

func TestBuilderProblems(t *testing.T) {
	b := syntax.NewBuilder("x", 2)
	root := b.Open(syntax.File)
	leaf := b.Token(token.Token{Kind: token.Text, Offset: 0, Text: "x"})
	b.Problem(leaf, diagnostic.Diagnostic{Kind: diagnostic.KindParse, Message: "p"})
	tree := b.Finish()

	assert.Equal(t, root, tree.Root())
	assert.Equal(t, 1, tree.ProblemCount())
	assert.Len(t, tree.Problems(leaf), 1)
	assert.Empty(t, tree.Problems(root))
	assert.Equal(t, []syntax.NodeID{leaf}, tree.Items())
	assert.Equal(t, syntax.RoleItem, tree.Role(leaf))
}
