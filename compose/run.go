package compose

import (
	"image/color"
	"strings"
	"unicode/utf8"

	"github.com/gogpu/chatglyph/glyph"
)

// RunKind distinguishes literal text from glyph runs.
type RunKind uint8

const (
	// RunLiteral is plain text.
	RunLiteral RunKind = iota

	// RunGlyph is a single registry codepoint.
	RunGlyph
)

// String returns the run kind name.
func (k RunKind) String() string {
	switch k {
	case RunLiteral:
		return "literal"
	case RunGlyph:
		return "glyph"
	default:
		return "unknown"
	}
}

// Run is one styled piece of a Text.
type Run struct {
	Kind RunKind

	// Text is the literal text of a RunLiteral.
	Text string

	// Namespace, Name and Codepoint describe a RunGlyph. Codepoint is
	// glyph.NoCodepoint when Name is not registered; hosts draw their
	// default glyph for it.
	Namespace glyph.Namespace
	Name      string
	Codepoint rune

	// Color overrides the host text colour. Nil means the default colour.
	Color color.Color
}

// Literal returns an uncoloured literal run.
func Literal(text string) Run {
	return Run{Kind: RunLiteral, Text: text}
}

// GlyphRun returns a glyph run.
func GlyphRun(ns glyph.Namespace, name string, cp rune) Run {
	return Run{Kind: RunGlyph, Namespace: ns, Name: name, Codepoint: cp}
}

// Resolved reports whether a glyph run carries a registered codepoint.
// Literal runs are always resolved.
func (r Run) Resolved() bool {
	return r.Kind == RunLiteral || r.Codepoint != glyph.NoCodepoint
}

// Text is rich text: literal runs interleaved with glyph runs.
type Text []Run

// String flattens t as the host text system sees it: literal text as is,
// each glyph run as its codepoint, unresolved glyphs as U+FFFD. Codepoints
// beyond utf8.MaxRune also become U+FFFD; hosts that need them use the runs.
func (t Text) String() string {
	var sb strings.Builder
	for _, r := range t {
		switch {
		case r.Kind == RunLiteral:
			sb.WriteString(r.Text)
		case r.Codepoint == glyph.NoCodepoint:
			sb.WriteRune(utf8.RuneError)
		default:
			sb.WriteRune(r.Codepoint)
		}
	}
	return sb.String()
}

// Plain flattens t for narration and logs: glyph runs are written as their
// names.
func (t Text) Plain() string {
	var sb strings.Builder
	for _, r := range t {
		if r.Kind == RunLiteral {
			sb.WriteString(r.Text)
		} else {
			sb.WriteString(r.Name)
		}
	}
	return sb.String()
}

// RuneLen returns the number of codepoints t occupies: the runes of each
// literal run plus one per glyph run.
func (t Text) RuneLen() int {
	n := 0
	for _, r := range t {
		if r.Kind == RunLiteral {
			n += utf8.RuneCountInString(r.Text)
		} else {
			n++
		}
	}
	return n
}

// Colored returns a copy of t where every run without its own colour takes
// c. A nil c returns t unchanged.
func (t Text) Colored(c color.Color) Text {
	if c == nil {
		return t
	}
	out := make(Text, len(t))
	for i, r := range t {
		if r.Color == nil {
			r.Color = c
		}
		out[i] = r
	}
	return out
}
