package xrender_test

import (
	"errors"
	"testing"

	"github.com/BurntSushi/xgb/render"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/npillmayer/xshape/backend/xrender"
	"github.com/npillmayer/xshape/backend/xrender/xrendertest"
	"github.com/npillmayer/xshape/core"
	"github.com/npillmayer/xshape/core/dimen"
	"github.com/npillmayer/xshape/core/font"
	"github.com/npillmayer/xshape/engine/glyphing"
	"github.com/npillmayer/xshape/engine/glyphing/harfbuzz"
	"github.com/npillmayer/xshape/engine/glyphing/raster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"
)

var (
	origin = dimen.Point{X: 18, Y: 54}
	size   = dimen.Point{X: 100, Y: 72}
)

// blank rasterizes every glyph to a 2x2 square.
type blank struct{}

func (blank) Rasterize(gid uint32) (*raster.Bitmap, error) {
	return &raster.Bitmap{Width: 2, Height: 2, Top: 2, Pix: []byte{1, 2, 3, 4}}, nil
}

// failing fails for one glyph.
type failing struct {
	gid uint32
}

func (f failing) Rasterize(gid uint32) (*raster.Bitmap, error) {
	if gid == f.gid {
		return nil, errors.New("no outline")
	}
	return blank{}.Rasterize(gid)
}

// broken produces bitmaps with too few pixels.
type broken struct{}

func (broken) Rasterize(gid uint32) (*raster.Bitmap, error) {
	return &raster.Bitmap{Width: 3, Height: 3, Pix: []byte{1}}, nil
}

func sequenceOf(gids ...uint32) glyphing.GlyphSequence {
	seq := glyphing.GlyphSequence{Direction: glyphing.LeftToRight}
	for i, gid := range gids {
		seq.Glyphs = append(seq.Glyphs, glyphing.GlyphRecord{GID: gid, Cluster: i, XAdvance: 640})
	}
	return seq
}

func mask(t *testing.T, srv xrender.Server) render.Pictforminfo {
	fmts, err := xrender.SelectFormats(srv, xrendertest.Visual)
	require.NoError(t, err)
	return fmts.Mask
}

func TestBuildGlyphSetA(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "xshape.xrender")
	defer teardown()
	//
	f, err := font.ParseOpenTypeFont(goregular.TTF)
	require.NoError(t, err)
	tc, err := f.PrepareCase(36)
	require.NoError(t, err)
	shaper := harfbuzz.NewShaper()
	defer shaper.Close()
	seq, err := shaper.Shape("A", glyphing.Params{Font: tc})
	require.NoError(t, err)
	require.Equal(t, 1, seq.Len())
	assert.Equal(t, 0, seq.Glyphs[0].Cluster)
	//
	srv := xrendertest.New()
	gs, err := xrender.BuildGlyphSet(srv, mask(t, srv), seq, raster.NewOutlines(tc))
	require.NoError(t, err)
	gid := seq.Glyphs[0].GID
	assert.Equal(t, []uint32{gid}, gs.Uploaded())
	assert.Equal(t, 1, srv.Count("CreateGlyphSet"))
	assert.Equal(t, 1, srv.Count("AddGlyphs"))
	req, _ := srv.Last("AddGlyphs")
	require.Len(t, req.Infos, 1)
	info := req.Infos[0]
	assert.Equal(t, int16(dimen.Round(seq.Glyphs[0].XAdvance)), info.XOff)
	assert.Zero(t, info.YOff)
	assert.Equal(t, info.Height, uint16(info.Y), "'A' sits on the baseline")
	stride := (int(info.Width) + 3) &^ 3
	assert.Len(t, req.Data, stride*int(info.Height))
	//
	stream, err := xrender.Encoder{}.Encode(seq)
	require.NoError(t, err)
	require.NoError(t, xrender.IssueComposite(srv, render.PictOpOver, 1, 2, gs, dimen.Point{}, stream, 32))
	assert.Equal(t, 1, srv.Count("CompositeGlyphs"))
	req, _ = srv.Last("CompositeGlyphs")
	assert.Equal(t, []byte{1, 0, 0, 0, 0, 0, 0, 0,
		byte(gid), byte(gid >> 8), byte(gid >> 16), byte(gid >> 24)}, req.Stream)
}

func TestGlyphInfo(t *testing.T) {
	g := glyphing.GlyphRecord{GID: 7, XAdvance: 1000, YAdvance: -96}
	bm := &raster.Bitmap{Width: 12, Height: 20, Left: 1, Top: 15}
	info := xrender.GlyphInfo(g, bm)
	assert.Equal(t, render.Glyphinfo{Width: 12, Height: 20, X: -1, Y: 15, XOff: 16, YOff: 2}, info)
}

func TestBuildGlyphSetUploadsPerRecord(t *testing.T) {
	srv := xrendertest.New()
	gs, err := xrender.BuildGlyphSet(srv, mask(t, srv), sequenceOf(5, 6, 5), blank{})
	require.NoError(t, err)
	assert.Equal(t, 3, srv.Count("AddGlyphs"))
	assert.Equal(t, 2, gs.Len())
	assert.Equal(t, []uint32{5, 6}, gs.Uploaded())
}

func TestBuildGlyphSetSkipsFailedGlyphs(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "xshape.xrender")
	defer teardown()
	//
	srv := xrendertest.New()
	gs, err := xrender.BuildGlyphSet(srv, mask(t, srv), sequenceOf(5, 6, 7), failing{gid: 6})
	require.NoError(t, err)
	assert.True(t, gs.Contains(5))
	assert.False(t, gs.Contains(6))
	assert.True(t, gs.Contains(7))
	// referencing the skipped glyph is caught before a request is sent
	stream, err := xrender.Encoder{}.Encode(sequenceOf(5, 6, 7))
	require.NoError(t, err)
	err = xrender.IssueComposite(srv, render.PictOpOver, 1, 2, gs, dimen.Point{}, stream, 32)
	assert.Equal(t, core.EMISSING, core.Code(err))
	assert.Zero(t, srv.Count("CompositeGlyphs"))
}

func TestBuildGlyphSetRejectsBrokenBitmap(t *testing.T) {
	srv := xrendertest.New()
	_, err := xrender.BuildGlyphSet(srv, mask(t, srv), sequenceOf(5), broken{})
	assert.Equal(t, core.EINTERNAL, core.Code(err))
	assert.Zero(t, srv.Count("AddGlyphs"))
	assert.Equal(t, 1, srv.Count("FreeGlyphSet"))
}

func TestBuildGlyphSetRejected(t *testing.T) {
	srv := xrendertest.New()
	srv.Reject["AddGlyphs"] = xproto.BadAlloc
	_, err := xrender.BuildGlyphSet(srv, mask(t, srv), sequenceOf(5, 6), blank{})
	require.Error(t, err)
	perr, ok := xrender.AsProtocolError(err)
	require.True(t, ok)
	assert.Equal(t, "AddGlyphs", perr.Request)
	assert.Equal(t, xproto.BadAlloc, perr.Code)
	assert.Equal(t, core.EPROTOCOL, core.Code(err))
	assert.Equal(t, 1, srv.Count("AddGlyphs"))
	assert.Empty(t, srv.GlyphSets, "glyph set must have been freed")
}

func TestFreeIsIdempotent(t *testing.T) {
	srv := xrendertest.New()
	gs, err := xrender.BuildGlyphSet(srv, mask(t, srv), sequenceOf(5), blank{})
	require.NoError(t, err)
	require.NoError(t, gs.Free())
	require.NoError(t, gs.Free())
	assert.Equal(t, 1, srv.Count("FreeGlyphSet"))
	assert.Zero(t, gs.Len())
}

func TestBuildGlyphSetPlaceholder(t *testing.T) {
	srv := xrendertest.New()
	gs, err := xrender.BuildGlyphSet(srv, mask(t, srv), sequenceOf(5), raster.Placeholder{})
	require.NoError(t, err)
	assert.True(t, gs.Contains(5))
	req, ok := srv.Last("AddGlyphs")
	require.True(t, ok)
	require.Len(t, req.Infos, 1)
	assert.Equal(t, uint16(raster.PlaceholderSize), req.Infos[0].Width)
	assert.Equal(t, uint16(raster.PlaceholderSize), req.Infos[0].Height)
	assert.Equal(t, make([]byte, 16), req.Data)
}
