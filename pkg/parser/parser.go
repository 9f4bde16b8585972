// Package parser builds a syntax.Tree from a T4 token stream.
//
//	Parser State Machine:
//
//	Initial ──> TopLevel ──"<#@"──> Directive ──> AttributeList ──> Attribute* ─┐
//	               ▲  │                                                          │
//	               │  ├──"<#" "<#=" "<#+"──> CodeBlock ──────────────────────────┤
//	               │  └──text──> Text ───────────────────────────────────────────┤
//	               └─────────────────────────── "#>" / resync ───────────────────┘
//
// Parse problems are contained: a malformed attribute becomes a partial node with
// one diagnostic and never removes its siblings or the enclosing directive.
package parser

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/t4ls/pkg/diagnostic"
	"github.com/walteh/t4ls/pkg/position"
	"github.com/walteh/t4ls/pkg/syntax"
	"github.com/walteh/t4ls/pkg/token"
)

type state uint8

const (
	stateInitial state = iota
	stateTopLevel
	stateText
	stateDirective
	stateAttributeList
	stateAttribute
	stateCodeBlock
	stateRecover
)

func (s state) String() string {
	switch s {
	case stateInitial:
		return "initial"
	case stateTopLevel:
		return "top level"
	case stateText:
		return "text"
	case stateDirective:
		return "directive"
	case stateAttributeList:
		return "attribute list"
	case stateAttribute:
		return "attribute"
	case stateCodeBlock:
		return "code block"
	case stateRecover:
		return "error recovery"
	}
	return "unknown"
}

const checkEvery = 256

type parser struct {
	ctx      context.Context
	toks     []token.Token
	pos      int
	steps    int
	state    state
	b        *syntax.Builder
	lexErrs  map[int][]*token.LexError
	attached map[*token.LexError]bool
}

// Parse lexes and parses src. The returned error is non-nil only when ctx is
// cancelled; malformed input always yields a tree.
func Parse(ctx context.Context, src string) (*syntax.Tree, error) {
	stream, err := token.Lex(ctx, src)
	if err != nil {
		return nil, errors.Errorf("lexing template: %w", err)
	}
	return ParseStream(ctx, stream)
}

// ParseStream parses an already lexed stream.
func ParseStream(ctx context.Context, stream *token.Stream) (*syntax.Tree, error) {
	if stream == nil {
		return nil, errors.Errorf("token stream is nil")
	}

	p := &parser{
		ctx:      ctx,
		toks:     stream.Tokens,
		b:        syntax.NewBuilder(stream.Source, len(stream.Tokens)+len(stream.Tokens)/4+1),
		lexErrs:  map[int][]*token.LexError{},
		attached: map[*token.LexError]bool{},
		state:    stateInitial,
	}
	for _, e := range stream.Errors {
		p.lexErrs[e.Token] = append(p.lexErrs[e.Token], e)
	}

	root := p.b.Open(syntax.File)
	p.state = stateTopLevel

	for p.pos < len(p.toks) {
		if err := p.tick(); err != nil {
			return nil, err
		}
		tok := p.toks[p.pos]
		switch {
		case tok.Kind == token.Text:
			p.state = stateText
			p.advance()
		case tok.Kind == token.DirectiveStart:
			p.parseDirective()
		case tok.Kind.IsBlockStart():
			p.parseCodeBlock()
		default:
			p.recover()
		}
		p.state = stateTopLevel
	}

	// errors whose opener never made it into a block still surface somewhere
	for _, e := range stream.Errors {
		if !p.attached[e] {
			p.b.Problem(root, lexDiagnostic(e))
		}
	}

	p.b.Close()
	tree := p.b.Finish()

	zerolog.Ctx(ctx).Trace().
		Int("nodes", tree.Len()).
		Int("problems", tree.ProblemCount()).
		Msg("parsed template")

	return tree, nil
}

func (p *parser) tick() error {
	p.steps++
	if p.steps%checkEvery == 0 {
		if err := p.ctx.Err(); err != nil {
			return errors.Errorf("parsing template: %w", err)
		}
	}
	return nil
}

func (p *parser) peek() token.Kind {
	if p.pos >= len(p.toks) {
		return token.Invalid
	}
	return p.toks[p.pos].Kind
}

func (p *parser) peekAt(n int) token.Kind {
	if p.pos+n >= len(p.toks) {
		return token.Invalid
	}
	return p.toks[p.pos+n].Kind
}

func (p *parser) advance() syntax.NodeID {
	id := p.b.Token(p.toks[p.pos])
	p.pos++
	return id
}

// skipSpaceBefore consumes a space token when the token after it is one of kinds.
func (p *parser) skipSpaceBefore(kinds ...token.Kind) {
	if p.peek() != token.Space {
		return
	}
	next := p.peekAt(1)
	for _, k := range kinds {
		if next == k {
			p.advance()
			return
		}
	}
}

func (p *parser) problem(id syntax.NodeID, code diagnostic.Code, format string, args ...any) {
	p.b.Problem(id, diagnostic.Diagnostic{
		Kind:     diagnostic.KindParse,
		Severity: diagnostic.SeverityError,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Location: p.b.Span(id),
	})
}

// openBlock opens a directive or code block node at the current opener token and
// attaches the lexer errors reported for it. It reports whether the lexer already
// flagged the block as unterminated.
func (p *parser) openBlock(typ syntax.NodeType) (syntax.NodeID, bool) {
	opener := p.pos
	id := p.b.Open(typ)
	p.advance()
	errs := p.lexErrs[opener]
	for _, e := range errs {
		p.b.Problem(id, lexDiagnostic(e))
		p.attached[e] = true
	}
	return id, len(errs) > 0
}

func (p *parser) parseCodeBlock() {
	p.state = stateCodeBlock
	start := p.toks[p.pos]
	id, reported := p.openBlock(syntax.BlockTypeFor(start.Kind))

	for p.peek() == token.Code {
		p.advance()
	}
	closed := false
	if p.peek() == token.BlockEnd {
		p.advance()
		closed = true
	}
	p.b.Close()

	if !closed && !reported {
		p.problem(id, diagnostic.LexUnterminatedCodeBlock, "unterminated code block: missing '#>'")
	}
}

func (p *parser) parseDirective() {
	p.state = stateDirective
	start := p.toks[p.pos]
	id, reported := p.openBlock(syntax.Directive)

	hasName := false
	attributes := 0
	closed := false

loop:
	for p.pos < len(p.toks) {
		switch p.peek() {
		case token.Space:
			p.advance()
		case token.BlockEnd:
			p.advance()
			closed = true
			break loop
		case token.Name:
			if !hasName && attributes == 0 {
				p.advance()
				hasName = true
				p.state = stateAttributeList
				continue
			}
			p.parseAttribute()
			attributes++
		case token.Equal, token.Quote, token.Value, token.UnquotedValue:
			p.parseAttribute()
			attributes++
		default:
			// anything else belongs to the next top-level item
			break loop
		}
	}
	p.b.Close()

	if !hasName {
		p.b.Problem(id, diagnostic.Diagnostic{
			Kind:     diagnostic.KindParse,
			Severity: diagnostic.SeverityError,
			Code:     diagnostic.ParseMissingDirectiveName,
			Message:  "missing directive name",
			Location: position.NewTextSpan(start.Text, start.Offset),
		})
	}
	if !closed && !reported {
		p.problem(id, diagnostic.LexUnterminatedDirective, "unterminated directive: missing '#>'")
	}
}

// parseAttribute builds one attribute from consecutive name, '=' and quoted value
// tokens. Whatever is missing is left absent, and only the first missing piece is
// reported.
func (p *parser) parseAttribute() {
	p.state = stateAttribute
	id := p.b.Open(syntax.DirectiveAttribute)

	var (
		code diagnostic.Code
		msg  string
	)
	report := func(c diagnostic.Code, m string) {
		if code == diagnostic.UnknownCode {
			code, msg = c, m
		}
	}

	name := ""
	if p.peek() == token.Name {
		name = p.toks[p.pos].Text
		p.advance()
	} else {
		report(diagnostic.ParseMissingAttributeName, "missing attribute name")
	}

	p.skipSpaceBefore(token.Equal)
	if p.peek() == token.Equal {
		p.advance()
		p.skipSpaceBefore(token.Quote, token.UnquotedValue)
	} else {
		report(diagnostic.ParseMissingEqual, fmt.Sprintf("missing '=' after attribute name '%s'", name))
		p.skipSpaceBefore(token.Quote)
	}

	switch p.peek() {
	case token.Quote:
		p.advance()
		if p.peek() == token.Value {
			p.advance()
		}
		if p.peek() == token.Quote {
			p.advance()
		} else {
			report(diagnostic.ParseMissingClosingQuote, "missing closing quote in attribute value")
		}
	case token.Value:
		p.advance()
		if p.peek() == token.Quote {
			p.advance()
		}
		report(diagnostic.ParseMissingClosingQuote, "missing opening quote in attribute value")
	case token.UnquotedValue:
		p.advance()
		report(diagnostic.ParseUnquotedValue, "attribute value must be enclosed in quotes")
	default:
		report(diagnostic.ParseMissingValue, "missing attribute value")
	}

	p.b.Close()
	p.state = stateAttributeList

	if code != diagnostic.UnknownCode {
		p.problem(id, code, "%s", msg)
	}
}

// recover keeps a token the grammar does not expect at the top level as a child of
// the file, so no source text is lost, and reports it.
func (p *parser) recover() {
	prev := p.state
	p.state = stateRecover
	tok := p.toks[p.pos]
	leaf := p.advance()
	p.b.Problem(leaf, diagnostic.Diagnostic{
		Kind:     diagnostic.KindParse,
		Severity: diagnostic.SeverityError,
		Code:     diagnostic.ParseUnexpectedToken,
		Message:  fmt.Sprintf("unexpected %s in %s", tok.Kind, prev),
		Location: p.b.Span(leaf),
	})
}

func lexDiagnostic(e *token.LexError) diagnostic.Diagnostic {
	code := diagnostic.LexUnterminatedCodeBlock
	if e.Block == token.DirectiveStart {
		code = diagnostic.LexUnterminatedDirective
	}
	return diagnostic.Diagnostic{
		Kind:     diagnostic.KindLex,
		Severity: diagnostic.SeverityError,
		Code:     code,
		Message:  e.Message,
		Location: position.NewSpan(e.Offset, e.End),
	}
}
