package xrender

import (
	"fmt"
	"math"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/render"
	"github.com/npillmayer/xshape/core"
	"github.com/npillmayer/xshape/core/dimen"
	"github.com/npillmayer/xshape/engine/glyphing"
	"github.com/npillmayer/xshape/engine/glyphing/raster"
	"golang.org/x/image/math/fixed"
)

// RunPolicy decides how glyphs are grouped into runs.
type RunPolicy int

// Run policies. OneGlyphPerRun positions every glyph explicitly. Coalesce
// appends a glyph to the current run whenever its position delta is zero,
// leaving the positioning to the advances stored with the uploaded glyphs.
const (
	OneGlyphPerRun RunPolicy = iota
	Coalesce
)

// HeaderLen is the length of a run header: count, 3 bytes of padding and
// the position delta.
const HeaderLen = 8

// MaxRunLen is the maximum number of glyphs in a run.
const MaxRunLen = 254

// Run is a group of glyphs drawn at a position relative to the end of the
// previous run.
type Run struct {
	DX, DY int16
	IDs    []uint32
}

func (r Run) String() string {
	return fmt.Sprintf("run(%+d,%+d)%v", r.DX, r.DY, r.IDs)
}

// Encoder encodes glyph sequences to the item stream of a composite-glyphs
// request.
type Encoder struct {
	Policy RunPolicy
	Width  int // glyph id width in bits: 8, 16 or 32; 0 means 32
}

func (e Encoder) width() int {
	if e.Width == 0 {
		return 32
	}
	return e.Width
}

// Glyphs is what the server knows about uploaded glyphs. A glyph id is
// stored once per glyph set, with the metrics of its latest upload.
type Glyphs interface {
	Info(gid uint32) (render.Glyphinfo, bool)
}

// uploads has the metrics BuildGlyphSet stores for seq if every glyph can
// be rasterized: the last record of a glyph id wins.
type uploads map[uint32]render.Glyphinfo

func uploadsOf(seq glyphing.GlyphSequence) uploads {
	u := make(uploads, len(seq.Glyphs))
	for _, g := range seq.Glyphs {
		u[g.GID] = GlyphInfo(g, &raster.Bitmap{})
	}
	return u
}

func (u uploads) Info(gid uint32) (render.Glyphinfo, bool) {
	info, ok := u[gid]
	return info, ok
}

// Runs groups the glyphs of seq into runs, assuming every glyph has been
// uploaded with the advance of its last occurrence in seq.
func (e Encoder) Runs(seq glyphing.GlyphSequence) ([]Run, error) {
	return e.RunsFor(seq, uploadsOf(seq))
}

// RunsFor groups the glyphs of seq into runs, for a glyph set holding
// glyphs. Positions are computed as follows: the encoder keeps the exact pen
// position, summing up glyph advances, and the server's pen position, which
// moves by the deltas of the runs and by the advance the server stores for
// every glyph drawn. A glyph's delta is the difference between its rounded
// target position and the server's pen. The y axis is flipped, as glyph
// positions grow upwards and X coordinates grow downwards.
//
// Glyphs missing from the glyph set are left out; the glyphs following them
// keep their positions. Glyph ids must fit into the encoder's glyph width.
func (e Encoder) RunsFor(seq glyphing.GlyphSequence, glyphs Glyphs) ([]Run, error) {
	w := e.width()
	if w != 8 && w != 16 && w != 32 {
		return nil, core.Error(core.EINVALID, "glyph width must be 8, 16 or 32 bits, is %d", w)
	}
	maxID := uint64(1)<<uint(w) - 1
	var runs []Run
	var pen fixed.Point26_6
	var srvX, srvY int
	for i, g := range seq.Glyphs {
		if uint64(g.GID) > maxID {
			return nil, core.Error(core.EINVALID, "glyph id %d does not fit into %d bits", g.GID, w)
		}
		info, ok := glyphs.Info(g.GID)
		if !ok {
			tracer().Infof("leaving out glyph #%d (GID %d), it has not been uploaded", i, g.GID)
			pen.X += g.XAdvance
			pen.Y += g.YAdvance
			continue
		}
		x := dimen.Round(pen.X + g.XOffset)
		y := -dimen.Round(pen.Y + g.YOffset)
		dx, dy := x-srvX, y-srvY
		if dx < math.MinInt16 || dx > math.MaxInt16 || dy < math.MinInt16 || dy > math.MaxInt16 {
			return nil, core.Error(core.EINVALID, "glyph #%d is out of reach at delta (%d,%d)", i, dx, dy)
		}
		n := len(runs)
		if e.Policy == Coalesce && n > 0 && dx == 0 && dy == 0 && len(runs[n-1].IDs) < MaxRunLen {
			runs[n-1].IDs = append(runs[n-1].IDs, g.GID)
		} else {
			runs = append(runs, Run{DX: int16(dx), DY: int16(dy), IDs: []uint32{g.GID}})
		}
		srvX = x + int(info.XOff)
		srvY = y + int(info.YOff)
		pen.X += g.XAdvance
		pen.Y += g.YAdvance
	}
	return runs, nil
}

// Encode encodes seq to an item stream, see Runs.
func (e Encoder) Encode(seq glyphing.GlyphSequence) ([]byte, error) {
	return e.EncodeFor(seq, uploadsOf(seq))
}

// EncodeFor encodes seq to an item stream for a glyph set, see RunsFor.
func (e Encoder) EncodeFor(seq glyphing.GlyphSequence, glyphs Glyphs) ([]byte, error) {
	runs, err := e.RunsFor(seq, glyphs)
	if err != nil {
		return nil, err
	}
	stream := EncodeRuns(runs, e.width())
	tracer().Debugf("encoded %d glyph(s) into %d run(s), %d bytes", seq.Len(), len(runs), len(stream))
	return stream, nil
}

// EncodedLength is the length in bytes of the item stream for runs: every
// run is a header followed by its glyph ids, padded to a multiple of 4.
func EncodedLength(runs []Run, width int) int {
	l := 0
	for _, r := range runs {
		l += HeaderLen + xgb.Pad(min(len(r.IDs), MaxRunLen)*width/8)
	}
	return l
}

// EncodeRuns encodes runs with glyph ids of width bits. Runs must not be
// longer than MaxRunLen; longer runs are truncated.
func EncodeRuns(runs []Run, width int) []byte {
	stream := make([]byte, EncodedLength(runs, width))
	b := 0
	for _, r := range runs {
		ids := r.IDs
		if len(ids) > MaxRunLen {
			ids = ids[:MaxRunLen]
		}
		stream[b] = byte(len(ids))
		xgb.Put16(stream[b+4:], uint16(r.DX))
		xgb.Put16(stream[b+6:], uint16(r.DY))
		b += HeaderLen
		start := b
		for _, id := range ids {
			switch width {
			case 8:
				stream[b] = byte(id)
				b++
			case 16:
				xgb.Put16(stream[b:], uint16(id))
				b += 2
			default:
				xgb.Put32(stream[b:], id)
				b += 4
			}
		}
		b = start + xgb.Pad(b-start)
	}
	return stream
}

// DecodeRuns decodes an item stream with glyph ids of width bits.
func DecodeRuns(stream []byte, width int) ([]Run, error) {
	if width != 8 && width != 16 && width != 32 {
		return nil, core.Error(core.EINVALID, "glyph width must be 8, 16 or 32 bits, is %d", width)
	}
	var runs []Run
	size := width / 8
	for b := 0; b < len(stream); {
		if len(stream)-b < HeaderLen {
			return nil, core.Error(core.EINVALID, "truncated run header at byte %d", b)
		}
		count := int(stream[b])
		r := Run{
			DX:  int16(xgb.Get16(stream[b+4:])),
			DY:  int16(xgb.Get16(stream[b+6:])),
			IDs: make([]uint32, count),
		}
		if count == 255 {
			return nil, core.Error(core.EINVALID, "glyph set switches are not supported, at byte %d", b)
		}
		b += HeaderLen
		n := xgb.Pad(count * size)
		if len(stream)-b < n {
			return nil, core.Error(core.EINVALID, "truncated run at byte %d", b)
		}
		for i := range r.IDs {
			p := stream[b+i*size:]
			switch size {
			case 1:
				r.IDs[i] = uint32(p[0])
			case 2:
				r.IDs[i] = uint32(xgb.Get16(p))
			default:
				r.IDs[i] = xgb.Get32(p)
			}
		}
		b += n
		runs = append(runs, r)
	}
	return runs, nil
}
