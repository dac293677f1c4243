package monospace

import (
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/npillmayer/xshape/core"
	"github.com/npillmayer/xshape/core/font"
	"github.com/npillmayer/xshape/engine/glyphing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/gomono"
)

func goMono(t *testing.T) *font.TypeCase {
	f, err := font.ParseOpenTypeFont(gomono.TTF)
	require.NoError(t, err)
	tc, err := f.PrepareCase(20)
	require.NoError(t, err)
	return tc
}

func TestMonospaceShape(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "xshape.glyphs")
	defer teardown()
	//
	tc := goMono(t)
	sh := NewShaper(nil)
	defer sh.Close()
	seq, err := sh.Shape("Hi!", glyphing.Params{Font: tc})
	require.NoError(t, err)
	require.Equal(t, 3, seq.Len())
	assert.Equal(t, glyphing.LeftToRight, seq.Direction)
	adv := seq.Glyphs[0].XAdvance
	assert.Greater(t, int(adv), 0)
	for i, g := range seq.Glyphs {
		assert.Equal(t, i, g.Cluster)
		assert.Equal(t, adv, g.XAdvance, "all cells are of equal width")
		assert.NotZero(t, g.GID)
	}
	sf := tc.ScalableFontParent()
	gid, err := sf.SFNT.GlyphIndex(nil, 'H')
	require.NoError(t, err)
	assert.Equal(t, uint32(gid), seq.Glyphs[0].GID)
}

func TestMonospaceClusters(t *testing.T) {
	tc := goMono(t)
	sh := NewShaper(nil)
	// e + combining acute accent form a single cluster
	seq, err := sh.Shape("e\u0301x", glyphing.Params{Font: tc})
	require.NoError(t, err)
	require.Equal(t, 2, seq.Len())
	assert.Equal(t, 0, seq.Glyphs[0].Cluster)
	assert.Equal(t, 3, seq.Glyphs[1].Cluster, "clusters are byte offsets")
}

func TestMonospaceDirection(t *testing.T) {
	tc := goMono(t)
	sh := NewShaper(nil)
	seq, err := sh.Shape("ab", glyphing.Params{Font: tc, Direction: glyphing.RightToLeft})
	require.NoError(t, err)
	assert.Equal(t, 1, seq.Glyphs[0].Cluster)
	assert.Equal(t, 0, seq.Glyphs[1].Cluster)
	_, err = sh.Shape("ab", glyphing.Params{Font: tc, Direction: glyphing.TopToBottom})
	assert.Equal(t, core.EINVALID, core.Code(err))
}

func TestMonospaceEmpty(t *testing.T) {
	sh := NewShaper(nil)
	_, err := sh.Shape("x", glyphing.Params{})
	assert.Equal(t, core.EMISSING, core.Code(err))
	seq, err := sh.Shape("", glyphing.Params{Font: goMono(t)})
	require.NoError(t, err)
	assert.Zero(t, seq.Len())
}
