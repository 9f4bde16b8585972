package position

import (
	"sort"
	"strings"

	textseg "github.com/apparentlymart/go-textseg/v13/textseg"
)

// Mapper converts byte offsets into line/character places. Characters are
// counted in grapheme clusters so that a combined emoji or an accented letter
// written with a combining mark occupies a single column.
type Mapper struct {
	src        string
	lineStarts []int
	tabWidth   int
}

type MapperOpt func(*Mapper)

// WithTabWidth expands tabs to the next multiple of width. A width of zero or
// less counts a tab as one character.
func WithTabWidth(width int) MapperOpt {
	return func(m *Mapper) {
		m.tabWidth = width
	}
}

func NewMapper(src string, opts ...MapperOpt) *Mapper {
	m := &Mapper{
		src:        src,
		lineStarts: []int{0},
	}
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			m.lineStarts = append(m.lineStarts, i+1)
		}
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// LineCount returns the number of lines, counting a trailing empty line.
func (m *Mapper) LineCount() int {
	return len(m.lineStarts)
}

// Place returns the place of offset. Offsets outside the source are clamped.
func (m *Mapper) Place(offset int) Place {
	if offset < 0 {
		offset = 0
	}
	if offset > len(m.src) {
		offset = len(m.src)
	}
	line := sort.Search(len(m.lineStarts), func(i int) bool {
		return m.lineStarts[i] > offset
	}) - 1
	start := m.lineStarts[line]
	return Place{Line: line, Character: m.columns(m.src[start:offset])}
}

// Range returns the places of both ends of span.
func (m *Mapper) Range(span Span) Range {
	return Range{Start: m.Place(span.Start), End: m.Place(span.End)}
}

// Offset is the inverse of Place. Characters past the end of the line resolve to
// the end of the line.
func (m *Mapper) Offset(p Place) int {
	if p.Line < 0 {
		return 0
	}
	if p.Line >= len(m.lineStarts) {
		return len(m.src)
	}
	start := m.lineStarts[p.Line]
	end := len(m.src)
	if p.Line+1 < len(m.lineStarts) {
		end = m.lineStarts[p.Line+1] - 1
	}
	line := []byte(m.src[start:end])

	col, off := 0, 0
	for off < len(line) && col < p.Character {
		adv, cluster, err := textseg.ScanGraphemeClusters(line[off:], true)
		if err != nil || adv <= 0 {
			break
		}
		col = m.advance(col, cluster)
		off += adv
	}
	return start + off
}

// LineText returns the text of a zero-based line without its newline.
func (m *Mapper) LineText(line int) string {
	if line < 0 || line >= len(m.lineStarts) {
		return ""
	}
	start := m.lineStarts[line]
	end := len(m.src)
	if line+1 < len(m.lineStarts) {
		end = m.lineStarts[line+1] - 1
	}
	return strings.TrimSuffix(m.src[start:end], "\r")
}

func (m *Mapper) columns(s string) int {
	if m.tabWidth <= 0 {
		n, err := textseg.TokenCount([]byte(s), textseg.ScanGraphemeClusters)
		if err != nil {
			return len(s)
		}
		return n
	}

	b := []byte(s)
	col := 0
	for len(b) > 0 {
		adv, cluster, err := textseg.ScanGraphemeClusters(b, true)
		if err != nil || adv <= 0 {
			return col + len(b)
		}
		col = m.advance(col, cluster)
		b = b[adv:]
	}
	return col
}

func (m *Mapper) advance(col int, cluster []byte) int {
	if m.tabWidth > 0 && len(cluster) == 1 && cluster[0] == '\t' {
		return (col/m.tabWidth + 1) * m.tabWidth
	}
	return col + 1
}
