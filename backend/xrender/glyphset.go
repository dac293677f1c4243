package xrender

import (
	"github.com/BurntSushi/xgb/render"
	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/utils"
	"github.com/npillmayer/xshape/core"
	"github.com/npillmayer/xshape/core/dimen"
	"github.com/npillmayer/xshape/engine/glyphing"
	"github.com/npillmayer/xshape/engine/glyphing/raster"
)

// GlyphSet is a server side glyph set, together with the metrics of all
// glyphs uploaded to it, as the server keeps them.
type GlyphSet struct {
	srv      Server
	id       render.Glyphset
	format   render.Pictformat
	uploaded *treemap.Map // uint32 -> render.Glyphinfo
	freed    bool
}

var _ Glyphs = &GlyphSet{}

// BuildGlyphSet creates a glyph set in mask format and uploads a bitmap for
// every glyph of seq. Glyphs are keyed by their glyph id, so a glyph
// occurring more than once is uploaded more than once, replacing the
// previous upload.
//
// Glyphs the rasterizer fails on are skipped and missing from the glyph set.
// Requests rejected by the server are fatal; the glyph set is freed before
// the error is returned.
func BuildGlyphSet(srv Server, mask render.Pictforminfo, seq glyphing.GlyphSequence,
	rasterizer raster.Rasterizer) (*GlyphSet, error) {
	//
	id, err := srv.CreateGlyphSet(mask.Id)
	if err != nil {
		return nil, err
	}
	gs := &GlyphSet{
		srv:      srv,
		id:       id,
		format:   mask.Id,
		uploaded: treemap.NewWith(utils.UInt32Comparator),
	}
	tracer().Debugf("created glyph set 0x%x", uint32(id))
	for i, g := range seq.Glyphs {
		bm, err := rasterizer.Rasterize(g.GID)
		if err != nil {
			tracer().Errorf("skipping glyph #%d (GID %d): %v", i, g.GID, err)
			continue
		}
		if err = gs.add(g, bm); err != nil {
			gs.Free()
			return nil, err
		}
	}
	tracer().Infof("uploaded %d glyph(s), %d distinct", seq.Len(), gs.Len())
	return gs, nil
}

func (gs *GlyphSet) add(g glyphing.GlyphRecord, bm *raster.Bitmap) error {
	if err := bm.Check(); err != nil {
		return core.WrapError(err, core.EINTERNAL, "glyph %d cannot be encoded for upload", g.GID)
	}
	info := GlyphInfo(g, bm)
	// scanlines of glyph images are padded to 32 bits
	if err := gs.srv.AddGlyphs(gs.id, []uint32{g.GID}, []render.Glyphinfo{info}, bm.Padded(4)); err != nil {
		return err
	}
	gs.uploaded.Put(g.GID, info)
	return nil
}

// GlyphInfo creates the metrics the server keeps for an uploaded glyph.
// X and Y locate the glyph origin relative to the top-left corner of the
// bitmap. XOff and YOff move the server's pen after drawing the glyph; they
// are the glyph's rounded advance, with y growing downwards.
func GlyphInfo(g glyphing.GlyphRecord, bm *raster.Bitmap) render.Glyphinfo {
	return render.Glyphinfo{
		Width:  dimen.ClampU16(bm.Width),
		Height: dimen.ClampU16(bm.Height),
		X:      dimen.Clamp16(-bm.Left),
		Y:      dimen.Clamp16(bm.Top),
		XOff:   dimen.Clamp16(dimen.Round(g.XAdvance)),
		YOff:   dimen.Clamp16(-dimen.Round(g.YAdvance)),
	}
}

// ID is the server's id of the glyph set.
func (gs *GlyphSet) ID() render.Glyphset {
	return gs.id
}

// Format is the mask format the glyph set has been created with.
func (gs *GlyphSet) Format() render.Pictformat {
	return gs.format
}

// Contains checks whether a glyph has been uploaded.
func (gs *GlyphSet) Contains(gid uint32) bool {
	_, ok := gs.uploaded.Get(gid)
	return ok
}

// Info returns the metrics of the latest upload of a glyph.
func (gs *GlyphSet) Info(gid uint32) (render.Glyphinfo, bool) {
	info, ok := gs.uploaded.Get(gid)
	if !ok {
		return render.Glyphinfo{}, false
	}
	return info.(render.Glyphinfo), true
}

// Len is the number of distinct glyphs uploaded.
func (gs *GlyphSet) Len() int {
	return gs.uploaded.Size()
}

// Uploaded returns the ids of all uploaded glyphs in ascending order.
func (gs *GlyphSet) Uploaded() []uint32 {
	ids := make([]uint32, 0, gs.uploaded.Size())
	for _, v := range gs.uploaded.Keys() {
		ids = append(ids, v.(uint32))
	}
	return ids
}

// Free releases the glyph set on the server. Calling Free more than once
// is a no-op.
func (gs *GlyphSet) Free() error {
	if gs == nil || gs.freed {
		return nil
	}
	gs.freed = true
	gs.uploaded.Clear()
	tracer().Debugf("freeing glyph set 0x%x", uint32(gs.id))
	return gs.srv.FreeGlyphSet(gs.id)
}
