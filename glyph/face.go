package glyph

import (
	"image"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/gogpu/chatglyph/cache"
	"github.com/gogpu/chatglyph/internal/logging"
)

// Glyph is a resolved, scaled glyph bitmap.
type Glyph struct {
	// Image is the colour bitmap, ScaledWidth x Ascent, origin at (0, 0).
	Image *image.RGBA

	// Advance is the pen advance in pixels.
	Advance int

	// Ascent is the bitmap height above the baseline in pixels.
	Ascent int
}

// FaceOption configures a Face.
type FaceOption func(*faceConfig)

type faceConfig struct {
	ascent     int
	descent    int
	cacheLimit int
	scaler     xdraw.Scaler
}

func defaultFaceConfig() faceConfig {
	return faceConfig{
		ascent:     7,
		descent:    2,
		cacheLimit: 64,
		scaler:     xdraw.ApproxBiLinear,
	}
}

// WithLineMetrics sets the ascent and descent reported by Metrics, in
// pixels. They should match the host font so glyph runs share its baseline.
func WithLineMetrics(ascent, descent int) FaceOption {
	return func(c *faceConfig) {
		c.ascent = ascent
		c.descent = descent
	}
}

// WithBitmapCacheLimit sets how many scaled bitmaps each cache shard keeps.
func WithBitmapCacheLimit(n int) FaceOption {
	return func(c *faceConfig) {
		c.cacheLimit = n
	}
}

// WithScaler sets the interpolator used to scale glyph images.
// The default is golang.org/x/image/draw.ApproxBiLinear.
func WithScaler(s xdraw.Scaler) FaceOption {
	return func(c *faceConfig) {
		c.scaler = s
	}
}

// Face resolves store codepoints to glyph bitmaps. It implements
// golang.org/x/image/font.Face so hosts can draw glyph runs with a
// font.Drawer.
//
// Missing codepoints are reported with ok == false and never panic: the
// host queries per character and glyphs appear asynchronously as downloads
// complete.
type Face struct {
	store   *Store
	config  faceConfig
	bitmaps *cache.Sharded[rune, *image.RGBA]
}

var _ font.Face = (*Face)(nil)

// NewFace creates a face over store.
func NewFace(store *Store, opts ...FaceOption) *Face {
	cfg := defaultFaceConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	limit := cfg.cacheLimit
	if limit <= 0 {
		limit = 64
	}
	return &Face{
		store:   store,
		config:  cfg,
		bitmaps: cache.NewSharded[rune, *image.RGBA](limit, cache.RuneHasher),
	}
}

// record returns the stored record for cp, logging a miss.
func (f *Face) record(cp rune) (*Record, bool) {
	rec, ok := f.store.Get(cp)
	if !ok {
		if cp == NoCodepoint {
			logging.Logger().Debug("glyph: unresolved glyph requested")
		} else {
			logging.Logger().Error("glyph: no glyph exists for codepoint", "codepoint", int32(cp))
		}
	}
	return rec, ok
}

// Resolve returns the scaled glyph for cp.
func (f *Face) Resolve(cp rune) (Glyph, bool) {
	rec, ok := f.record(cp)
	if !ok {
		return Glyph{}, false
	}

	img := f.bitmaps.GetOrCreate(cp, func() *image.RGBA {
		return f.scale(rec)
	})
	return Glyph{Image: img, Advance: rec.Advance, Ascent: rec.Ascent}, true
}

func (f *Face) scale(rec *Record) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, rec.ScaledWidth(), rec.Ascent))
	if dst.Rect.Empty() {
		return dst
	}
	f.config.scaler.Scale(dst, dst.Rect, rec.Image, rec.Image.Bounds(), xdraw.Over, nil)
	return dst
}

// Glyph implements font.Face.
func (f *Face) Glyph(dot fixed.Point26_6, r rune) (
	dr image.Rectangle, mask image.Image, maskp image.Point, advance fixed.Int26_6, ok bool) {

	g, ok := f.Resolve(r)
	if !ok {
		return image.Rectangle{}, nil, image.Point{}, 0, false
	}
	x, y := dot.X.Round(), dot.Y.Round()
	dr = image.Rect(x, y-g.Ascent, x+g.Image.Rect.Dx(), y)
	return dr, g.Image, image.Point{}, fixed.I(g.Advance), true
}

// GlyphBounds implements font.Face.
func (f *Face) GlyphBounds(r rune) (bounds fixed.Rectangle26_6, advance fixed.Int26_6, ok bool) {
	rec, ok := f.record(r)
	if !ok {
		return fixed.Rectangle26_6{}, 0, false
	}
	bounds = fixed.Rectangle26_6{
		Min: fixed.Point26_6{X: 0, Y: -fixed.I(rec.Ascent)},
		Max: fixed.Point26_6{X: fixed.I(rec.ScaledWidth()), Y: 0},
	}
	return bounds, fixed.I(rec.Advance), true
}

// GlyphAdvance implements font.Face.
func (f *Face) GlyphAdvance(r rune) (advance fixed.Int26_6, ok bool) {
	rec, ok := f.record(r)
	if !ok {
		return 0, false
	}
	return fixed.I(rec.Advance), true
}

// Kern implements font.Face. Glyph images are never kerned.
func (f *Face) Kern(r0, r1 rune) fixed.Int26_6 {
	return 0
}

// Metrics implements font.Face.
func (f *Face) Metrics() font.Metrics {
	return font.Metrics{
		Height:     fixed.I(f.config.ascent + f.config.descent),
		Ascent:     fixed.I(f.config.ascent),
		Descent:    fixed.I(f.config.descent),
		XHeight:    fixed.I(f.config.ascent),
		CapHeight:  fixed.I(f.config.ascent),
		CaretSlope: image.Point{X: 0, Y: 1},
	}
}

// CacheStats reports the scaled bitmap cache counters.
func (f *Face) CacheStats() cache.Stats {
	return f.bitmaps.Stats()
}

// Close implements font.Face.
func (f *Face) Close() error {
	f.bitmaps.Clear()
	return nil
}
