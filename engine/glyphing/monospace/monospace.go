/*
Package monospace implements a simple shaper for monospace output.

Text is split into grapheme clusters. Every cluster is set with the nominal
glyph of its first code-point and advances by its East Asian width (one or
two cells), in cells the size of the font's digit zero. No OpenType features
are applied, which makes the shaper suitable for terminal-like output and
for fonts without layout tables.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package monospace

import (
	"sync"
	"unicode/utf8"

	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/uax/grapheme"
	"github.com/npillmayer/uax/uax11"
	"github.com/npillmayer/xshape/core"
	"github.com/npillmayer/xshape/engine/glyphing"
	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// tracer traces with key 'xshape.glyphs'.
func tracer() tracing.Trace {
	return tracing.Select("xshape.glyphs")
}

var setupGraphemes sync.Once

// Shaper is a shaper for monospace typesetting. It is safe for concurrent use.
type Shaper struct {
	context *uax11.Context
	mu      sync.Mutex // guards buf
	buf     sfnt.Buffer
}

var _ glyphing.Shaper = &Shaper{}

// NewShaper creates a monospace shaper. context determines the width of
// ambiguous characters; if it is nil, a Latin context is used.
func NewShaper(context *uax11.Context) *Shaper {
	if context == nil {
		context = uax11.LatinContext
	}
	setupGraphemes.Do(grapheme.SetupGraphemeClasses)
	return &Shaper{context: context}
}

// Close does nothing, as the shaper does not hold on to fonts.
func (s *Shaper) Close() error {
	return nil
}

// Shape creates a glyph sequence from a text. Only horizontal directions are
// supported; right-to-left text is set in reverse cluster order.
func (s *Shaper) Shape(text string, params glyphing.Params) (glyphing.GlyphSequence, error) {
	if params.Font == nil {
		return glyphing.GlyphSequence{}, core.Error(core.EMISSING, "no font to shape text with")
	}
	dir := params.Direction
	switch dir {
	case glyphing.DirectionAuto:
		dir = glyphing.LeftToRight
	case glyphing.TopToBottom, glyphing.BottomToTop:
		return glyphing.GlyphSequence{}, core.Error(core.EINVALID,
			"monospace shaper cannot set text %s", dir)
	}
	seq := glyphing.GlyphSequence{Direction: dir}
	gstr := grapheme.StringFromString(text)
	if gstr.Len() == 0 {
		return seq, nil
	}
	sf := params.Font.ScalableFontParent()
	ppem := params.Font.PPEM()
	s.mu.Lock()
	defer s.mu.Unlock()
	cell, err := s.cellWidth(sf.SFNT, ppem)
	if err != nil {
		return seq, err
	}
	cluster := 0
	for i := 0; i < gstr.Len(); i++ {
		grphm := gstr.Nth(i)
		r, _ := utf8.DecodeRuneInString(grphm)
		gid, err := sf.SFNT.GlyphIndex(&s.buf, r)
		if err != nil {
			return seq, core.WrapError(err, core.EFONT, "cannot map %#U to a glyph", r)
		}
		w := uax11.Width([]byte(grphm), s.context)
		seq.Glyphs = append(seq.Glyphs, glyphing.GlyphRecord{
			GID:      uint32(gid),
			Cluster:  cluster,
			XAdvance: fixed.Int26_6(w) * cell,
		})
		cluster += len(grphm)
	}
	if dir == glyphing.RightToLeft {
		g := seq.Glyphs
		for i, j := 0, len(g)-1; i < j; i, j = i+1, j-1 {
			g[i], g[j] = g[j], g[i]
		}
	}
	tracer().Debugf("monospace: %d clusters, cell width %d", len(seq.Glyphs), cell)
	return seq, nil
}

// cellWidth is the advance of the digit zero, or half an em if the font
// has no such glyph. The caller must hold s.mu.
func (s *Shaper) cellWidth(f *sfnt.Font, ppem fixed.Int26_6) (fixed.Int26_6, error) {
	gid, err := f.GlyphIndex(&s.buf, '0')
	if err != nil {
		return 0, core.WrapError(err, core.EFONT, "cannot read font's cmap")
	}
	if gid == 0 {
		return ppem / 2, nil
	}
	adv, err := f.GlyphAdvance(&s.buf, gid, ppem, xfont.HintingNone)
	if err != nil {
		return 0, core.WrapError(err, core.EFONT, "cannot read advance of digit zero")
	}
	return adv, nil
}
