package cli

import (
	"fmt"
	"image/color"
	"strconv"
)

// ParseColor parses "#RGB", "#RRGGBB" or "#RRGGBBAA", with or without the
// leading '#'. An empty string returns nil, the default colour.
func ParseColor(hex string) (color.Color, error) {
	if hex == "" {
		return nil, nil
	}
	s := hex
	if s[0] == '#' {
		s = s[1:]
	}

	var r, g, b, a uint64
	a = 255
	var err error
	switch len(s) {
	case 3:
		r, g, b, err = parseNibbles(s)
		r, g, b = r*17, g*17, b*17
	case 6, 8:
		r, err = strconv.ParseUint(s[0:2], 16, 8)
		if err == nil {
			g, err = strconv.ParseUint(s[2:4], 16, 8)
		}
		if err == nil {
			b, err = strconv.ParseUint(s[4:6], 16, 8)
		}
		if err == nil && len(s) == 8 {
			a, err = strconv.ParseUint(s[6:8], 16, 8)
		}
	default:
		return nil, fmt.Errorf("invalid colour %q: want #RGB, #RRGGBB or #RRGGBBAA", hex)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid colour %q: %w", hex, err)
	}
	return color.NRGBA{R: uint8(r), G: uint8(g), B: uint8(b), A: uint8(a)}, nil
}

func parseNibbles(s string) (r, g, b uint64, err error) {
	if r, err = strconv.ParseUint(s[0:1], 16, 8); err != nil {
		return
	}
	if g, err = strconv.ParseUint(s[1:2], 16, 8); err != nil {
		return
	}
	b, err = strconv.ParseUint(s[2:3], 16, 8)
	return
}

// hexColor formats c as "#rrggbb", or "" for nil.
func hexColor(c color.Color) string {
	if c == nil {
		return ""
	}
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return fmt.Sprintf("#%02x%02x%02x", n.R, n.G, n.B)
}

// ansi wraps s in a 24-bit foreground colour escape.
func ansi(s string, c color.Color) string {
	if c == nil {
		return s
	}
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return fmt.Sprintf("\x1b[38;2;%d;%d;%dm%s\x1b[0m", n.R, n.G, n.B, s)
}
