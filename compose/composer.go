package compose

import (
	"errors"
	"fmt"
	"image/color"

	"github.com/gogpu/chatglyph/glyph"
	"github.com/gogpu/chatglyph/internal/logging"
)

// ErrMalformedPlacement is wrapped by every PlacementError.
var ErrMalformedPlacement = errors.New("compose: malformed placement")

// Placement substitutes an emote for the codepoints Start..End of a
// message. End is inclusive.
type Placement struct {
	Emote string
	Start int
	End   int
}

// PlacementError reports a placement that is unsorted, overlapping, or
// outside the message.
type PlacementError struct {
	Index     int
	Placement Placement
	Length    int // message length in codepoints
	Reason    string
}

func (e *PlacementError) Error() string {
	return fmt.Sprintf("compose: placement %d (%s %d-%d) in message of %d codepoints: %s",
		e.Index, e.Placement.Emote, e.Placement.Start, e.Placement.End, e.Length, e.Reason)
}

func (e *PlacementError) Unwrap() error {
	return ErrMalformedPlacement
}

// Line is one incoming chat message.
type Line struct {
	Timestamp     string
	Username      string
	UsernameColor color.Color // nil means the host default
	Badges        []string    // "set/version", in display order
	Body          string
	Placements    []Placement // sorted, non-overlapping
	Action        bool        // a "/me" message
}

// Resolver looks up registered codepoints. *glyph.Registry implements it.
type Resolver interface {
	Lookup(ns glyph.Namespace, name string) (rune, bool)
}

// Composer builds rich text from chat lines. It only reads from its
// resolver and never blocks on downloads: names that are not registered
// yet degrade as described on each method.
type Composer struct {
	resolver Resolver
}

// NewComposer creates a composer over resolver.
func NewComposer(resolver Resolver) *Composer {
	return &Composer{resolver: resolver}
}

// Username returns one glyph run per registered badge, in order, followed
// by name coloured c. Unregistered badges are left out.
func (c *Composer) Username(name string, col color.Color, badges []string) Text {
	out := make(Text, 0, len(badges)+1)
	for _, badge := range badges {
		cp, ok := c.resolver.Lookup(glyph.NamespaceBadge, badge)
		if !ok {
			logging.Logger().Warn("compose: badge not registered", "badge", badge)
			continue
		}
		out = append(out, GlyphRun(glyph.NamespaceBadge, badge, cp))
	}
	user := Literal(name)
	user.Color = col
	return append(out, user)
}

// Body splits message around placements. Each placement becomes one emote
// glyph run; the text between placements is kept as literal runs. Emotes
// that are not registered become glyph runs with glyph.NoCodepoint.
//
// Placements must be sorted by Start, must not overlap, and must lie inside
// the message; otherwise Body returns a *PlacementError and no text.
func (c *Composer) Body(message string, placements []Placement) (Text, error) {
	if len(placements) == 0 {
		if message == "" {
			return Text{}, nil
		}
		return Text{Literal(message)}, nil
	}

	runes := []rune(message)
	if err := validate(placements, len(runes)); err != nil {
		return nil, err
	}

	out := make(Text, 0, 2*len(placements)+1)
	pos := 0
	for _, p := range placements {
		if p.Start > pos {
			out = append(out, Literal(string(runes[pos:p.Start])))
		}
		cp, ok := c.resolver.Lookup(glyph.NamespaceEmote, p.Emote)
		if !ok {
			logging.Logger().Warn("compose: emote not registered", "emote", p.Emote)
			cp = glyph.NoCodepoint
		}
		out = append(out, GlyphRun(glyph.NamespaceEmote, p.Emote, cp))
		pos = p.End + 1
	}
	if pos < len(runes) {
		out = append(out, Literal(string(runes[pos:])))
	}
	return out, nil
}

func validate(placements []Placement, length int) error {
	pos := 0
	for i, p := range placements {
		var reason string
		switch {
		case p.Start < 0:
			reason = "negative start"
		case p.End < p.Start:
			reason = "end before start"
		case p.End >= length:
			reason = "end beyond message"
		case p.Start < pos:
			reason = "unsorted or overlapping"
		}
		if reason != "" {
			return &PlacementError{Index: i, Placement: p, Length: length, Reason: reason}
		}
		pos = p.End + 1
	}
	return nil
}

// Line assembles timestamp, badges, username, separator and body.
//
// Regular lines read "name: body" with the body in the default colour.
// Action lines read "* name body": the marker is uncoloured, there is no
// colon, and the body takes the username colour.
//
// If the placements are malformed the body is rendered as plain text.
func (c *Composer) Line(l Line) Text {
	body, err := c.Body(l.Body, l.Placements)
	if err != nil {
		logging.Logger().Warn("compose: rendering message as plain text", "user", l.Username, "err", err)
		body = Text{Literal(l.Body)}
	}

	out := make(Text, 0, len(l.Badges)+len(body)+4)
	if l.Timestamp != "" {
		out = append(out, Literal(l.Timestamp))
	}
	if l.Action {
		out = append(out, Literal("* "))
	}
	out = append(out, c.Username(l.Username, l.UsernameColor, l.Badges)...)

	if !l.Action {
		out = append(out, Literal(": "))
		return append(out, body...)
	}
	tail := append(Text{Literal(" ")}, body...)
	return append(out, tail.Colored(l.UsernameColor)...)
}
