package xrender

import (
	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/render"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/npillmayer/xshape/core"
	"github.com/npillmayer/xshape/core/dimen"
	"github.com/npillmayer/xshape/engine/glyphing"
	"github.com/npillmayer/xshape/engine/glyphing/raster"
)

// IssueComposite draws the glyphs of an item stream onto dst, using src as
// the source of color. The first run of the stream is moved to origin, a
// point on the baseline of dst.
//
// Every glyph id of the stream must have been uploaded to gs; if one is
// missing, no request is sent.
func IssueComposite(srv Server, op byte, src, dst render.Picture, gs *GlyphSet,
	origin dimen.Point, stream []byte, width int) error {
	//
	runs, err := DecodeRuns(stream, width)
	if err != nil {
		return core.WrapError(err, core.EINTERNAL, "malformed glyph stream")
	}
	for _, r := range runs {
		for _, id := range r.IDs {
			if !gs.Contains(id) {
				return core.Error(core.EMISSING, "glyph %d has not been uploaded to glyph set 0x%x",
					id, uint32(gs.ID()))
			}
		}
	}
	if len(stream) >= HeaderLen && (origin.X != 0 || origin.Y != 0) {
		stream = append([]byte(nil), stream...)
		dx := int(int16(xgb.Get16(stream[4:]))) + origin.X
		dy := int(int16(xgb.Get16(stream[6:]))) + origin.Y
		xgb.Put16(stream[4:], uint16(dimen.Clamp16(dx)))
		xgb.Put16(stream[6:], uint16(dimen.Clamp16(dy)))
	}
	tracer().Debugf("compositing %d run(s) onto picture 0x%x at %v", len(runs), uint32(dst), origin)
	return srv.CompositeGlyphs(width, op, src, dst, gs.Format(), gs.ID(), 0, 0, stream)
}

// --- Text ------------------------------------------------------------------

// Colors for text and background
var (
	White = render.Color{Red: 0xffff, Green: 0xffff, Blue: 0xffff, Alpha: 0xffff}
	Black = render.Color{Alpha: 0xffff}
)

// Text is a shaped text prepared for drawing onto a window: its glyphs are
// uploaded and the composite request is encoded.
type Text struct {
	srv      Server
	Formats  Formats
	GlyphSet *GlyphSet
	Window   render.Picture // picture for the window
	Source   render.Picture // solid fill with the text color
	Stream   []byte         // encoded glyph runs
	Width    int            // glyph id width of Stream
	Origin   dimen.Point    // start of the baseline within the window
	Size     dimen.Point    // size of the window
	freed    bool
}

// Prepare runs the glyph pipeline up to, but not including, the composite
// request. If any step fails, resources allocated so far are released.
func Prepare(srv Server, visual xproto.Visualid, drawable xproto.Drawable, seq glyphing.GlyphSequence,
	rasterizer raster.Rasterizer, enc Encoder, origin, size dimen.Point) (*Text, error) {
	//
	fmts, err := SelectFormats(srv, visual)
	if err != nil {
		return nil, err
	}
	t := &Text{srv: srv, Formats: fmts, Width: enc.width(), Origin: origin, Size: size}
	if t.GlyphSet, err = BuildGlyphSet(srv, fmts.Mask, seq, rasterizer); err != nil {
		return nil, err
	}
	if t.Stream, err = enc.EncodeFor(seq, t.GlyphSet); err != nil {
		t.Free()
		return nil, err
	}
	if t.Window, err = srv.CreatePicture(drawable, fmts.Window.Id); err != nil {
		t.Free()
		return nil, err
	}
	if t.Source, err = srv.CreateSolidFill(Black); err != nil {
		t.Free()
		return nil, err
	}
	return t, nil
}

// Draw fills the window with white and composites the text onto it.
func (t *Text) Draw() error {
	rect := xproto.Rectangle{Width: dimen.ClampU16(t.Size.X), Height: dimen.ClampU16(t.Size.Y)}
	if err := t.srv.FillRectangles(render.PictOpSrc, t.Window, White, []xproto.Rectangle{rect}); err != nil {
		return err
	}
	return IssueComposite(t.srv, render.PictOpOver, t.Source, t.Window, t.GlyphSet,
		t.Origin, t.Stream, t.Width)
}

// Free releases pictures and the glyph set. It is safe to call Free more than
// once. The first error encountered is returned.
func (t *Text) Free() error {
	if t == nil || t.freed {
		return nil
	}
	t.freed = true
	var errs []error
	if t.Source != 0 {
		errs = append(errs, t.srv.FreePicture(t.Source))
	}
	if t.Window != 0 {
		errs = append(errs, t.srv.FreePicture(t.Window))
	}
	errs = append(errs, t.GlyphSet.Free())
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
