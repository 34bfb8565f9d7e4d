// Package compose turns a chat message and its out-of-band emote placements
// into styled rich text.
//
// The result is a Text: an ordered list of runs, each either a literal
// string or a glyph codepoint from the glyph registry. Turning glyph runs
// into pixels is the host renderer's job, typically through glyph.Face.
//
// Placement offsets count Unicode codepoints, as chat servers send them, not
// bytes. A message such as "😀 Kappa" places Kappa at 2-6 even though the
// emoji takes four bytes.
package compose
