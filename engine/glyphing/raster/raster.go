/*
Package raster renders glyph outlines to 8-bit coverage bitmaps.

Bitmaps are what an X server expects for glyphs of an A8 glyph set: one byte
of alpha per pixel, together with the offset of the bitmap's top-left
corner from the glyph origin.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package raster

import (
	"fmt"
	"image"
	"image/draw"
	"sync"

	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/xshape/core"
	"github.com/npillmayer/xshape/core/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// tracer traces with key 'xshape.raster'.
func tracer() tracing.Trace {
	return tracing.Select("xshape.raster")
}

// Bitmap is a glyph image with one coverage byte per pixel, row-major
// without padding. Left is the distance from the glyph origin to the left
// edge of the bitmap, Top the distance from the baseline up to the top edge.
type Bitmap struct {
	Width, Height int
	Left, Top     int
	Pix           []byte
}

func (bm *Bitmap) String() string {
	return fmt.Sprintf("bitmap[%dx%d at (%d,%d)]", bm.Width, bm.Height, bm.Left, bm.Top)
}

// Check asserts that the pixel buffer matches the bitmap's dimensions.
func (bm *Bitmap) Check() error {
	if bm.Width < 0 || bm.Height < 0 || len(bm.Pix) != bm.Width*bm.Height {
		return core.Error(core.EINTERNAL, "%v carries %d bytes of pixel data", bm, len(bm.Pix))
	}
	return nil
}

// Padded returns the pixels with every row padded to a multiple of align
// bytes. If rows are already aligned, Pix is returned as is.
func (bm *Bitmap) Padded(align int) []byte {
	stride := (bm.Width + align - 1) / align * align
	if stride == bm.Width {
		return bm.Pix
	}
	out := make([]byte, stride*bm.Height)
	for y := 0; y < bm.Height; y++ {
		copy(out[y*stride:], bm.Pix[y*bm.Width:(y+1)*bm.Width])
	}
	return out
}

// Rasterizer produces a bitmap for a glyph.
type Rasterizer interface {
	Rasterize(gid uint32) (*Bitmap, error)
}

// --- Outlines --------------------------------------------------------------

// Outlines rasterizes glyph outlines of a typecase, without hinting.
// Outlines is safe for concurrent use.
type Outlines struct {
	tc  *font.TypeCase
	mu  sync.Mutex
	buf sfnt.Buffer
}

var _ Rasterizer = &Outlines{}

// NewOutlines creates a rasterizer for glyphs of typecase tc.
func NewOutlines(tc *font.TypeCase) *Outlines {
	return &Outlines{tc: tc}
}

// Rasterize renders glyph gid at the size of the typecase. Glyphs without
// an outline, e.g. spaces, result in an empty bitmap.
func (o *Outlines) Rasterize(gid uint32) (*Bitmap, error) {
	sf := o.tc.ScalableFontParent()
	o.mu.Lock()
	segs, err := sf.SFNT.LoadGlyph(&o.buf, sfnt.GlyphIndex(gid), o.tc.PPEM(), nil)
	if err != nil {
		o.mu.Unlock()
		return nil, core.WrapError(err, core.EFONT, "cannot load outline of glyph %d", gid)
	}
	// segments are only valid until the buffer is re-used
	segs = append(sfnt.Segments(nil), segs...)
	o.mu.Unlock()
	if len(segs) == 0 {
		tracer().Debugf("glyph %d has no outline", gid)
		return &Bitmap{Pix: []byte{}}, nil
	}
	bounds := segs.Bounds() // y grows downwards
	bm := &Bitmap{
		Left:   bounds.Min.X.Floor(),
		Top:    -bounds.Min.Y.Floor(),
		Width:  bounds.Max.X.Ceil() - bounds.Min.X.Floor(),
		Height: bounds.Max.Y.Ceil() - bounds.Min.Y.Floor(),
	}
	if bm.Width == 0 || bm.Height == 0 {
		return &Bitmap{Pix: []byte{}}, nil
	}
	tx, ty := -float32(bm.Left), float32(bm.Top)
	pt := func(p fixed.Point26_6) (float32, float32) {
		return tx + float32(p.X)/64, ty + float32(p.Y)/64
	}
	rast := vector.NewRasterizer(bm.Width, bm.Height)
	rast.DrawOp = draw.Src
	for _, seg := range segs {
		switch seg.Op {
		case sfnt.SegmentOpMoveTo:
			rast.MoveTo(pt(seg.Args[0]))
		case sfnt.SegmentOpLineTo:
			rast.LineTo(pt(seg.Args[0]))
		case sfnt.SegmentOpQuadTo:
			x1, y1 := pt(seg.Args[0])
			x2, y2 := pt(seg.Args[1])
			rast.QuadTo(x1, y1, x2, y2)
		case sfnt.SegmentOpCubeTo:
			x1, y1 := pt(seg.Args[0])
			x2, y2 := pt(seg.Args[1])
			x3, y3 := pt(seg.Args[2])
			rast.CubeTo(x1, y1, x2, y2, x3, y3)
		}
	}
	img := image.NewAlpha(image.Rect(0, 0, bm.Width, bm.Height))
	rast.Draw(img, img.Bounds(), image.Opaque, image.Point{})
	bm.Pix = img.Pix
	tracer().Debugf("rasterized glyph %d to %v", gid, bm)
	return bm, nil
}

// --- Placeholder -----------------------------------------------------------

// PlaceholderSize is the edge length of placeholder bitmaps.
const PlaceholderSize = 4

// Placeholder is a rasterizer delivering a blank square for every glyph.
// Text composited with placeholder glyphs is invisible, but will still
// exercise every request of the glyph pipeline.
type Placeholder struct{}

var _ Rasterizer = Placeholder{}

// Rasterize returns a blank bitmap, regardless of gid.
func (Placeholder) Rasterize(gid uint32) (*Bitmap, error) {
	return &Bitmap{
		Width:  PlaceholderSize,
		Height: PlaceholderSize,
		Pix:    make([]byte, PlaceholderSize*PlaceholderSize),
	}, nil
}
