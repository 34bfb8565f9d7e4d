package cli

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"os"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/gogpu/chatglyph/compose"
	"github.com/gogpu/chatglyph/glyph"
)

const previewPadding = 4

var (
	previewBackground = color.NRGBA{R: 0x18, G: 0x18, B: 0x1b, A: 0xff}
	previewForeground = color.NRGBA{R: 0xef, G: 0xef, B: 0xf1, A: 0xff}
)

// fallbackGlyph is drawn for glyph runs without a bitmap.
const fallbackGlyph = "?"

// RenderPreview draws t on one line: literal runs in basicfont, glyph runs
// as their bitmaps from face.
func RenderPreview(t compose.Text, face *glyph.Face) *image.RGBA {
	text := basicfont.Face7x13
	ascent := text.Metrics().Ascent.Ceil()
	descent := text.Metrics().Descent.Ceil()

	width := 0
	for _, r := range t {
		if r.Kind == compose.RunLiteral {
			width += font.MeasureString(text, r.Text).Ceil()
			continue
		}
		if g, ok := face.Resolve(r.Codepoint); ok {
			width += g.Advance
			ascent = max(ascent, g.Ascent)
			continue
		}
		width += font.MeasureString(text, fallbackGlyph).Ceil()
	}

	img := image.NewRGBA(image.Rect(0, 0, width+2*previewPadding, ascent+descent+2*previewPadding))
	xdraw.Draw(img, img.Bounds(), image.NewUniform(previewBackground), image.Point{}, xdraw.Src)

	baseline := previewPadding + ascent
	d := font.Drawer{Dst: img, Face: text, Dot: fixed.P(previewPadding, baseline)}
	for _, r := range t {
		var fg color.Color = previewForeground
		if r.Color != nil {
			fg = r.Color
		}
		d.Src = image.NewUniform(fg)

		if r.Kind == compose.RunLiteral {
			d.DrawString(r.Text)
			continue
		}
		g, ok := face.Resolve(r.Codepoint)
		if !ok {
			d.DrawString(fallbackGlyph)
			continue
		}
		x := d.Dot.X.Round()
		dst := image.Rect(x, baseline-g.Ascent, x+g.Image.Rect.Dx(), baseline)
		xdraw.Draw(img, dst, g.Image, image.Point{}, xdraw.Over)
		d.Dot.X += fixed.I(g.Advance)
	}
	return img
}

// EncodePreview renders t and writes it as PNG.
func EncodePreview(w io.Writer, t compose.Text, face *glyph.Face) error {
	return png.Encode(w, RenderPreview(t, face))
}

func writePNG(path string, t compose.Text, face *glyph.Face) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return EncodePreview(f, t, face)
}
