package semtok

import (
	"github.com/walteh/t4ls/pkg/position"
)

// Encode converts tokens into the relative five-integer form used by LSP
// semantic tokens: delta line, delta start character, length, type, modifiers.
// Tokens spanning several lines are split per line; the line terminator is not
// part of any piece. The mapper should count characters without tab expansion.
func Encode(mapper *position.Mapper, tokens []Token) []uint32 {
	data := make([]uint32, 0, len(tokens)*5)
	prevLine, prevChar := 0, 0

	emit := func(start, end position.Place, tok Token) {
		if end.Character <= start.Character {
			return
		}
		deltaLine := start.Line - prevLine
		deltaChar := start.Character
		if deltaLine == 0 {
			deltaChar = start.Character - prevChar
		}
		data = append(data,
			uint32(deltaLine),
			uint32(deltaChar),
			uint32(end.Character-start.Character),
			uint32(tok.Type),
			uint32(tok.Modifier),
		)
		prevLine, prevChar = start.Line, start.Character
	}

	for _, tok := range tokens {
		r := mapper.Range(tok.Span)
		for line := r.Start.Line; line <= r.End.Line; line++ {
			start := position.Place{Line: line}
			if line == r.Start.Line {
				start = r.Start
			}
			end := r.End
			if line != r.End.Line {
				end = lineEnd(mapper, line)
			}
			emit(start, end, tok)
		}
	}

	return data
}

func lineEnd(mapper *position.Mapper, line int) position.Place {
	start := mapper.Offset(position.Place{Line: line})
	return mapper.Place(start + len(mapper.LineText(line)))
}
