package raster

import (
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/npillmayer/xshape/core"
	"github.com/npillmayer/xshape/core/font"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"
)

func TestRasterizeA(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "xshape.raster")
	defer teardown()
	//
	tc := goFont(t, 36)
	gid := glyphIndex(t, tc, 'A')
	bm, err := NewOutlines(tc).Rasterize(gid)
	require.NoError(t, err)
	require.NoError(t, bm.Check())
	assert.Greater(t, bm.Width, 10)
	assert.Greater(t, bm.Height, 20)
	assert.LessOrEqual(t, bm.Height, 36)
	// 'A' sits on the baseline and rises to cap height
	assert.Equal(t, bm.Height, bm.Top)
	assert.GreaterOrEqual(t, bm.Left, 0)
	var inked int
	for _, c := range bm.Pix {
		if c > 0 {
			inked++
		}
	}
	assert.Greater(t, inked, len(bm.Pix)/10)
	assert.Less(t, inked, len(bm.Pix))
}

func TestRasterizeDescender(t *testing.T) {
	tc := goFont(t, 36)
	bm, err := NewOutlines(tc).Rasterize(glyphIndex(t, tc, 'g'))
	require.NoError(t, err)
	assert.Greater(t, bm.Height, bm.Top, "expected 'g' to reach below the baseline")
}

func TestRasterizeSpace(t *testing.T) {
	tc := goFont(t, 36)
	bm, err := NewOutlines(tc).Rasterize(glyphIndex(t, tc, ' '))
	require.NoError(t, err)
	assert.Zero(t, bm.Width)
	assert.Zero(t, bm.Height)
	assert.NoError(t, bm.Check())
}

func TestRasterizeUnknownGlyph(t *testing.T) {
	tc := goFont(t, 36)
	_, err := NewOutlines(tc).Rasterize(65000)
	assert.Equal(t, core.EFONT, core.Code(err))
}

func TestPlaceholder(t *testing.T) {
	bm, err := Placeholder{}.Rasterize(36)
	require.NoError(t, err)
	assert.Equal(t, 4, bm.Width)
	assert.Equal(t, 4, bm.Height)
	assert.Equal(t, make([]byte, 16), bm.Pix)
}

func TestBitmapCheck(t *testing.T) {
	bm := &Bitmap{Width: 3, Height: 2, Pix: make([]byte, 5)}
	assert.Equal(t, core.EINTERNAL, core.Code(bm.Check()))
}

func TestPadded(t *testing.T) {
	bm := &Bitmap{Width: 3, Height: 2, Pix: []byte{1, 2, 3, 4, 5, 6}}
	assert.Equal(t, []byte{1, 2, 3, 0, 4, 5, 6, 0}, bm.Padded(4))
	bm = &Bitmap{Width: 4, Height: 1, Pix: []byte{1, 2, 3, 4}}
	assert.Equal(t, bm.Pix, bm.Padded(4))
}

func goFont(t *testing.T, size float64) *font.TypeCase {
	f, err := font.ParseOpenTypeFont(goregular.TTF)
	require.NoError(t, err)
	tc, err := f.PrepareCase(size)
	require.NoError(t, err)
	return tc
}

func glyphIndex(t *testing.T, tc *font.TypeCase, r rune) uint32 {
	var buf sfnt.Buffer
	gid, err := tc.ScalableFontParent().SFNT.GlyphIndex(&buf, r)
	require.NoError(t, err)
	require.NotZero(t, gid)
	return uint32(gid)
}
