package gotext

import (
	"testing"

	"github.com/go-text/typesetting/di"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/npillmayer/xshape/core"
	"github.com/npillmayer/xshape/core/font"
	"github.com/npillmayer/xshape/engine/glyphing"
	"github.com/npillmayer/xshape/engine/glyphing/harfbuzz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"
)

func TestShape(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "xshape.glyphs")
	defer teardown()
	//
	tc := goFont(t, 36)
	shaper := NewShaper()
	defer shaper.Close()
	seq, err := shaper.Shape("Hello", glyphing.Params{Font: tc})
	require.NoError(t, err)
	require.Equal(t, 5, seq.Len())
	assert.Equal(t, glyphing.LeftToRight, seq.Direction)
	for i, g := range seq.Glyphs {
		assert.Equal(t, i, g.Cluster)
		assert.Greater(t, int(g.XAdvance), 0)
	}
}

func TestShapeAgreesWithHarfBuzz(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "xshape.glyphs")
	defer teardown()
	//
	tc := goFont(t, 36)
	gt := NewShaper()
	defer gt.Close()
	hb := harfbuzz.NewShaper()
	defer hb.Close()
	a, err := gt.Shape("Typesetting", glyphing.Params{Font: tc})
	require.NoError(t, err)
	b, err := hb.Shape("Typesetting", glyphing.Params{Font: tc})
	require.NoError(t, err)
	require.Equal(t, b.Len(), a.Len())
	for i := range a.Glyphs {
		assert.Equal(t, b.Glyphs[i].GID, a.Glyphs[i].GID, "glyph #%d", i)
		assert.InDelta(t, int(b.Glyphs[i].XAdvance), int(a.Glyphs[i].XAdvance), 64, "glyph #%d", i)
	}
}

func TestShapeByteClusters(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "xshape.glyphs")
	defer teardown()
	//
	shaper := NewShaper()
	defer shaper.Close()
	seq, err := shaper.Shape("éA", glyphing.Params{Font: goFont(t, 24)})
	require.NoError(t, err)
	require.Equal(t, 2, seq.Len())
	assert.Equal(t, 0, seq.Glyphs[0].Cluster)
	assert.Equal(t, 2, seq.Glyphs[1].Cluster)
}

func TestShapeCachesFont(t *testing.T) {
	tc := goFont(t, 20)
	shaper := NewShaper()
	_, err := shaper.Shape("x", glyphing.Params{Font: tc})
	require.NoError(t, err)
	assert.Len(t, shaper.fonts, 1)
	_, err = shaper.Shape("y", glyphing.Params{Font: tc})
	require.NoError(t, err)
	assert.Len(t, shaper.fonts, 1)
	require.NoError(t, shaper.Close())
	assert.Len(t, shaper.fonts, 0)
}

func TestShapeWithoutFont(t *testing.T) {
	_, err := NewShaper().Shape("x", glyphing.Params{})
	assert.Equal(t, core.EMISSING, core.Code(err))
}

func TestDirectionGuess(t *testing.T) {
	assert.Equal(t, di.DirectionRTL, direction4GoText(glyphing.DirectionAuto, []rune("  שלום")))
	assert.Equal(t, di.DirectionLTR, direction4GoText(glyphing.DirectionAuto, []rune("1 Hello")))
	assert.Equal(t, di.DirectionTTB, direction4GoText(glyphing.TopToBottom, []rune("abc")))
	assert.Equal(t, glyphing.RightToLeft, direction4Glyphing(di.DirectionRTL))
	assert.Equal(t, glyphing.BottomToTop, direction4Glyphing(di.DirectionBTT))
}

func TestFeatures(t *testing.T) {
	f := features4GoText([]glyphing.FeatureRange{{Feature: "kern", On: false}, {Feature: "liga", On: true}})
	require.Len(t, f, 2)
	assert.Equal(t, uint32(0), f[0].Value)
	assert.Equal(t, uint32(1), f[1].Value)
	assert.Equal(t, "liga", f[1].Tag.String())
}

func goFont(t *testing.T, size float64) *font.TypeCase {
	f, err := font.ParseOpenTypeFont(goregular.TTF)
	require.NoError(t, err)
	tc, err := f.PrepareCase(size)
	require.NoError(t, err)
	return tc
}
