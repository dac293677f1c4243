package xrender_test

import (
	"testing"

	"github.com/npillmayer/xshape/backend/xrender"
	"github.com/npillmayer/xshape/backend/xrender/xrendertest"
	"github.com/npillmayer/xshape/core"
	"github.com/npillmayer/xshape/engine/glyphing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeSingleGlyph(t *testing.T) {
	stream, err := xrender.Encoder{}.Encode(sequenceOf(0x01020304))
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 0, 0, 0, 0, 0, 0, 0, 4, 3, 2, 1}, stream)
}

func TestEncodeOffsetFlipsY(t *testing.T) {
	seq := glyphing.GlyphSequence{Glyphs: []glyphing.GlyphRecord{
		{GID: 9, XAdvance: 640, XOffset: 128, YOffset: 64},
	}}
	runs, err := xrender.Encoder{}.Runs(seq)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, int16(2), runs[0].DX)
	assert.Equal(t, int16(-1), runs[0].DY, "upward offset must move up on screen")
}

func TestEncodeTracksServerPen(t *testing.T) {
	// advances of 10.4px: the server moves by 10px per glyph, the third
	// glyph is due at round(20.8) = 21
	seq := glyphing.GlyphSequence{Glyphs: []glyphing.GlyphRecord{
		{GID: 1, XAdvance: 666}, {GID: 2, XAdvance: 666}, {GID: 3, XAdvance: 666},
	}}
	runs, err := xrender.Encoder{}.Runs(seq)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, []int16{0, 0, 1}, []int16{runs[0].DX, runs[1].DX, runs[2].DX})
	// a mark offset is undone for the following glyph
	seq = glyphing.GlyphSequence{Glyphs: []glyphing.GlyphRecord{
		{GID: 1, XAdvance: 640},
		{GID: 2, XOffset: -320, YOffset: 640},
		{GID: 3, XAdvance: 640},
	}}
	runs, err = xrender.Encoder{}.Runs(seq)
	require.NoError(t, err)
	assert.Equal(t, xrender.Run{DX: -5, DY: -10, IDs: []uint32{2}}, runs[1])
	assert.Equal(t, xrender.Run{DX: 5, DY: 10, IDs: []uint32{3}}, runs[2])
}

// replay computes where a server draws the glyphs of a stream, moving its
// pen by the advances stored in glyph set gs.
func replay(t *testing.T, srv *xrendertest.Server, gs *xrender.GlyphSet, stream []byte) []int {
	runs, err := xrender.DecodeRuns(stream, 32)
	require.NoError(t, err)
	stored := srv.GlyphSets[gs.ID()]
	var xs []int
	x := 0
	for _, r := range runs {
		x += int(r.DX)
		for _, id := range r.IDs {
			xs = append(xs, x)
			x += int(stored[id].XOff)
		}
	}
	return xs
}

func TestEncodeRepeatedGlyphWithOtherAdvance(t *testing.T) {
	// glyph 5 occurs twice, the second time kerned to 11px
	seq := glyphing.GlyphSequence{Glyphs: []glyphing.GlyphRecord{
		{GID: 5, XAdvance: 640}, {GID: 6, XAdvance: 640}, {GID: 5, XAdvance: 704},
	}}
	srv := xrendertest.New()
	gs, err := xrender.BuildGlyphSet(srv, mask(t, srv), seq, blank{})
	require.NoError(t, err)
	for _, policy := range []xrender.RunPolicy{xrender.OneGlyphPerRun, xrender.Coalesce} {
		enc := xrender.Encoder{Policy: policy}
		stream, err := enc.EncodeFor(seq, gs)
		require.NoError(t, err)
		assert.Equal(t, []int{0, 10, 20}, replay(t, srv, gs, stream), "policy %d", policy)
		standalone, err := enc.Encode(seq)
		require.NoError(t, err)
		assert.Equal(t, stream, standalone, "policy %d", policy)
	}
}

func TestEncodeLeavesOutMissingGlyphs(t *testing.T) {
	seq := sequenceOf(5, 6, 7)
	srv := xrendertest.New()
	gs, err := xrender.BuildGlyphSet(srv, mask(t, srv), seq, failing{gid: 6})
	require.NoError(t, err)
	stream, err := xrender.Encoder{}.EncodeFor(seq, gs)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 20}, replay(t, srv, gs, stream))
}

func TestEncodeVertical(t *testing.T) {
	seq := glyphing.GlyphSequence{
		Direction: glyphing.TopToBottom,
		Glyphs: []glyphing.GlyphRecord{
			{GID: 1, YAdvance: -2304}, {GID: 2, YAdvance: -2304},
		},
	}
	runs, err := xrender.Encoder{}.Runs(seq)
	require.NoError(t, err)
	assert.Equal(t, int16(0), runs[1].DY, "server pen has moved down by the advance")
}

func TestEncodedLength(t *testing.T) {
	for _, w := range []int{8, 16, 32} {
		runs, err := xrender.Encoder{Width: w}.Runs(sequenceOf(1, 2, 3, 4, 5))
		require.NoError(t, err)
		stream := xrender.EncodeRuns(runs, w)
		assert.Len(t, stream, xrender.EncodedLength(runs, w))
		perGlyph := 8 + ((w/8)+3)&^3
		assert.Equal(t, 5*perGlyph, len(stream), "width %d", w)
	}
}

func TestEncodeCoalesce(t *testing.T) {
	enc := xrender.Encoder{Policy: xrender.Coalesce}
	runs, err := enc.Runs(sequenceOf(1, 2, 3))
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, []uint32{1, 2, 3}, runs[0].IDs)
	stream := xrender.EncodeRuns(runs, 16)
	assert.Equal(t, []byte{3, 0, 0, 0, 0, 0, 0, 0, 1, 0, 2, 0, 3, 0, 0, 0}, stream)
	//
	gids := make([]uint32, 300)
	for i := range gids {
		gids[i] = uint32(i)
	}
	runs, err = enc.Runs(sequenceOf(gids...))
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Len(t, runs[0].IDs, xrender.MaxRunLen)
	assert.Len(t, runs[1].IDs, 300-xrender.MaxRunLen)
}

func TestEncodeRejectsWideIDs(t *testing.T) {
	_, err := xrender.Encoder{Width: 8}.Encode(sequenceOf(256))
	assert.Equal(t, core.EINVALID, core.Code(err))
	_, err = xrender.Encoder{Width: 24}.Encode(sequenceOf(1))
	assert.Equal(t, core.EINVALID, core.Code(err))
}

func TestEncodeIsDeterministic(t *testing.T) {
	seq := sequenceOf(3, 1, 4, 1, 5, 9, 2, 6)
	a, err := xrender.Encoder{}.Encode(seq)
	require.NoError(t, err)
	b, err := xrender.Encoder{}.Encode(seq)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestDecodeRuns(t *testing.T) {
	runs := []xrender.Run{{DX: 18, DY: -3, IDs: []uint32{1, 2}}, {DX: -1, DY: 0, IDs: []uint32{3}}}
	decoded, err := xrender.DecodeRuns(xrender.EncodeRuns(runs, 8), 8)
	require.NoError(t, err)
	assert.Equal(t, runs, decoded)
	_, err = xrender.DecodeRuns([]byte{2, 0, 0, 0, 0, 0, 0, 0, 1}, 32)
	assert.Error(t, err)
}
