package token

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
)

const (
	openDelim  = "<#"
	closeDelim = "#>"

	// cancellation is polled once per this many tokens
	checkEvery = 512
)

type lexer struct {
	ctx    context.Context
	src    string
	pos    int
	steps  int
	stream *Stream
}

// Lex splits src into tokens. Unterminated blocks never fail the lex: the broken
// region runs to the next block opener (or the end of input) and a LexError is
// recorded. The only error returned is the context's, when it is cancelled.
func Lex(ctx context.Context, src string) (*Stream, error) {
	l := &lexer{
		ctx: ctx,
		src: src,
		stream: &Stream{
			Source: src,
			Tokens: make([]Token, 0, len(src)/8+1),
		},
	}

	for l.pos < len(l.src) {
		if err := l.lexText(); err != nil {
			return nil, err
		}
		if l.pos >= len(l.src) {
			break
		}

		kind, width := openerAt(l.src, l.pos)
		opener := l.emit(kind, width)
		if kind == DirectiveStart {
			if err := l.lexDirective(opener); err != nil {
				return nil, err
			}
		} else {
			l.lexCode(opener)
		}
	}

	zerolog.Ctx(ctx).Trace().
		Int("tokens", len(l.stream.Tokens)).
		Int("errors", len(l.stream.Errors)).
		Msg("lexed template")

	return l.stream, nil
}

// openerAt returns the block opener starting at pos. The caller guarantees that
// src[pos:] starts with "<#".
func openerAt(src string, pos int) (Kind, int) {
	if pos+2 < len(src) {
		switch src[pos+2] {
		case '@':
			return DirectiveStart, 3
		case '=':
			return ExpressionStart, 3
		case '+':
			return FeatureStart, 3
		}
	}
	return StatementStart, 2
}

func (l *lexer) emit(kind Kind, width int) int {
	l.stream.Tokens = append(l.stream.Tokens, Token{
		Kind:   kind,
		Offset: l.pos,
		Text:   l.src[l.pos : l.pos+width],
	})
	l.pos += width
	return len(l.stream.Tokens) - 1
}

func (l *lexer) errorf(opener int, msg string) {
	tok := l.stream.Tokens[opener]
	l.stream.Errors = append(l.stream.Errors, &LexError{
		Token:   opener,
		Block:   tok.Kind,
		Offset:  tok.Offset,
		End:     tok.End(),
		Message: msg,
	})
}

func (l *lexer) tick() error {
	l.steps++
	if l.steps%checkEvery == 0 {
		return l.ctx.Err()
	}
	return nil
}

// lexText consumes literal text up to the next unescaped block opener.
func (l *lexer) lexText() error {
	start := l.pos
	for {
		if err := l.tick(); err != nil {
			return err
		}
		i := strings.Index(l.src[l.pos:], openDelim)
		if i < 0 {
			l.pos = len(l.src)
			break
		}
		at := l.pos + i
		slashes := 0
		for j := at - 1; j >= start && l.src[j] == '\\'; j-- {
			slashes++
		}
		if slashes%2 == 1 {
			// "\<#" is an escaped opener and stays in the text, "\\<#" is an
			// escaped backslash followed by a real opener
			l.pos = at + len(openDelim)
			continue
		}
		l.pos = at
		break
	}
	if l.pos > start {
		end := l.pos
		l.pos = start
		l.emit(Text, end-start)
	}
	return nil
}

// lexCode consumes the body of a statement, expression or feature block.
func (l *lexer) lexCode(opener int) {
	rest := l.src[l.pos:]
	end := strings.Index(rest, closeDelim)
	next := strings.Index(rest, openDelim)

	if end >= 0 && (next < 0 || end < next) {
		if end > 0 {
			l.emit(Code, end)
		}
		l.emit(BlockEnd, len(closeDelim))
		return
	}

	stop := len(rest)
	if next >= 0 {
		stop = next
	}
	if stop > 0 {
		l.emit(Code, stop)
	}
	l.errorf(opener, "unterminated code block: missing '#>'")
}

// lexDirective consumes the inside of a directive up to and including "#>".
func (l *lexer) lexDirective(opener int) error {
	afterEqual := false
	for {
		if err := l.tick(); err != nil {
			return err
		}
		if l.pos >= len(l.src) || strings.HasPrefix(l.src[l.pos:], openDelim) {
			l.errorf(opener, "unterminated directive: missing '#>'")
			return nil
		}
		if strings.HasPrefix(l.src[l.pos:], closeDelim) {
			l.emit(BlockEnd, len(closeDelim))
			return nil
		}

		c := l.src[l.pos]
		switch {
		case isSpace(c):
			n := 1
			for l.pos+n < len(l.src) && isSpace(l.src[l.pos+n]) {
				n++
			}
			l.emit(Space, n)
		case c == '=':
			l.emit(Equal, 1)
			afterEqual = true
		case c == '"':
			l.emit(Quote, 1)
			l.lexQuoted()
			afterEqual = false
		default:
			n := l.wordLen()
			if afterEqual {
				l.emit(UnquotedValue, n)
			} else {
				l.emit(Name, n)
			}
			afterEqual = false
		}
	}
}

// lexQuoted consumes a value after its opening quote, and the closing quote when
// present. A value never extends past the directive's closing delimiter.
func (l *lexer) lexQuoted() {
	n := 0
	for l.pos+n < len(l.src) {
		rest := l.src[l.pos+n:]
		if rest[0] == '"' || strings.HasPrefix(rest, closeDelim) || strings.HasPrefix(rest, openDelim) {
			break
		}
		n++
	}
	if n > 0 {
		l.emit(Value, n)
	}
	if l.pos < len(l.src) && l.src[l.pos] == '"' {
		l.emit(Quote, 1)
	}
}

// wordLen measures a name or unquoted value starting at the current position.
func (l *lexer) wordLen() int {
	n := 0
	for l.pos+n < len(l.src) {
		rest := l.src[l.pos+n:]
		c := rest[0]
		if isSpace(c) || c == '=' || c == '"' || strings.HasPrefix(rest, closeDelim) || strings.HasPrefix(rest, openDelim) {
			break
		}
		n++
	}
	return n
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}
