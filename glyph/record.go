package glyph

import (
	"fmt"
	"image"
)

// DefaultScale maps a 1x upstream image (28px emotes, 18px badges) to a
// glyph about the height of the host's default font.
const DefaultScale float32 = 0.3

// Record is a decoded glyph image plus the metrics a renderer needs to lay
// it out. Records are immutable once stored.
type Record struct {
	// Codepoint is the registry codepoint this record is drawn for.
	Codepoint rune

	// Width and Height are the source image size in pixels.
	Width, Height int

	// Advance is how far the pen moves after the glyph, in pixels.
	// It is one pixel wider than the scaled image to leave room for the
	// host's one-pixel text shadow.
	Advance int

	// Ascent is the scaled glyph height above the baseline, in pixels.
	Ascent int

	// Scale is the factor applied to Width and Height.
	Scale float32

	// SourcePath identifies the upstream asset, e.g. "emotes/25" or
	// "badges/subscriber/12".
	SourcePath string

	// Image is the decoded source image.
	Image image.Image
}

// NewRecord derives a record for img at the given scale. A scale <= 0 uses
// DefaultScale.
func NewRecord(cp rune, img image.Image, scale float32, sourcePath string) (*Record, error) {
	if cp == NoCodepoint {
		return nil, ErrNoCodepoint
	}
	if img == nil {
		return nil, fmt.Errorf("%w: %s", ErrNilImage, sourcePath)
	}
	if scale <= 0 {
		scale = DefaultScale
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	return &Record{
		Codepoint:  cp,
		Width:      w,
		Height:     h,
		Advance:    scaled(w, scale) + 1,
		Ascent:     scaled(h, scale),
		Scale:      scale,
		SourcePath: sourcePath,
		Image:      img,
	}, nil
}

// ScaledWidth returns the drawn width of the glyph bitmap, excluding the
// shadow pixel included in Advance.
func (r *Record) ScaledWidth() int {
	return r.Advance - 1
}

// scaled truncates v*scale towards zero; inputs are never negative.
func scaled(v int, scale float32) int {
	return int(float32(v) * scale)
}
