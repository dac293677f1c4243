/*
Package glyphing turns text into sequences of positioned glyphs.

Shapers live in sub-packages: harfbuzz (a Go port of HarfBuzz) and gotext
(go-text/typesetting). Both produce the same kind of output, a GlyphSequence.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package glyphing

import (
	"fmt"
	"io"

	"github.com/npillmayer/xshape/core/dimen"
	"github.com/npillmayer/xshape/core/font"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/language"
)

// Direction is the direction to typeset text in.
type Direction int

// Direction to typeset text in. DirectionAuto leaves the decision to the
// shaper, which will guess it from the text.
const (
	DirectionAuto Direction = iota
	LeftToRight
	RightToLeft
	TopToBottom
	BottomToTop
)

func (d Direction) String() string {
	switch d {
	case LeftToRight:
		return "LTR"
	case RightToLeft:
		return "RTL"
	case TopToBottom:
		return "TTB"
	case BottomToTop:
		return "BTT"
	}
	return "auto"
}

// IsVertical is true for top-to-bottom and bottom-to-top.
func (d Direction) IsVertical() bool {
	return d == TopToBottom || d == BottomToTop
}

// ParseDirection parses "ltr", "rtl", "ttb" or "btt". An empty string
// yields DirectionAuto.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "":
		return DirectionAuto, nil
	case "ltr":
		return LeftToRight, nil
	case "rtl":
		return RightToLeft, nil
	case "ttb":
		return TopToBottom, nil
	case "btt":
		return BottomToTop, nil
	}
	return DirectionAuto, fmt.Errorf("unknown text direction %q", s)
}

// A GlyphRecord is a shaped glyph. Advances and offsets are in 26.6
// pixels at the size of the typecase used for shaping. Offsets grow
// upwards, as is usual for typographic coordinates.
type GlyphRecord struct {
	GID      uint32        // glyph index within font
	Cluster  int           // position of code-point(s) for this glyph in the input
	XAdvance fixed.Int26_6 // advance after glyph has been set
	YAdvance fixed.Int26_6 //
	XOffset  fixed.Int26_6 // adjustment of the glyph's position
	YOffset  fixed.Int26_6 //
}

func (g GlyphRecord) String() string {
	return fmt.Sprintf("(GID=%d, cluster=%d, advance=(%g,%g), offset=(%g,%g))", g.GID, g.Cluster,
		dimen.Pixels(g.XAdvance), dimen.Pixels(g.YAdvance),
		dimen.Pixels(g.XOffset), dimen.Pixels(g.YOffset))
}

// A Shaper creates a sequence of glyphs from a text.
// Glyphs are taken from a font, given in a specific point-size.
//
// Shapers may hold on to parsed fonts between calls; Close releases them.
type Shaper interface {
	Shape(text string, params Params) (GlyphSequence, error)
	io.Closer
}

// Params collects shaping parameters.
type Params struct {
	Font      *font.TypeCase  // use a font at a given point-size
	Direction Direction       // writing direction
	Script    language.Script // 4-letter ISO 15924 script identifier
	Language  language.Tag    // BCP 47 language tag
	Features  []FeatureRange  // OpenType features to apply
}

// FeatureRange tells a shaper to turn a certain OpenType feature on or off for a
// run of code-points.
type FeatureRange struct {
	Feature    string // 4-letter feature tag
	Arg        int    // optional argument for this feature
	On         bool   // turn it on or off?
	Start, End int    // position of code-points to apply feature for
}

// GlyphSequence contains a sequence of shaped glyphs, in the order
// produced by the shaper.
type GlyphSequence struct {
	Glyphs    []GlyphRecord // resulting sequence of glyphs
	Direction Direction     // direction the text has been shaped in
}

// Len returns the number of glyphs.
func (seq GlyphSequence) Len() int {
	return len(seq.Glyphs)
}

// Advance returns the sum of all glyph advances.
func (seq GlyphSequence) Advance() fixed.Point26_6 {
	var adv fixed.Point26_6
	for _, g := range seq.Glyphs {
		adv.X += g.XAdvance
		adv.Y += g.YAdvance
	}
	return adv
}

// Positions converts the glyphs to absolute positions, relative to the
// start of the pen. Positions are typographic, i.e. y grows upwards.
func (seq GlyphSequence) Positions() []fixed.Point26_6 {
	pos := make([]fixed.Point26_6, len(seq.Glyphs))
	var current fixed.Point26_6
	for i, g := range seq.Glyphs {
		pos[i] = fixed.Point26_6{X: current.X + g.XOffset, Y: current.Y + g.YOffset}
		current.X += g.XAdvance
		current.Y += g.YAdvance
	}
	return pos
}

// Extent calculates the size of a canvas for the sequence: the advances
// plus a margin on every side, plus size on the axis perpendicular to
// the text direction.
func (seq GlyphSequence) Extent(margin, size float64) (width, height float64) {
	width, height = 2*margin, 2*margin
	adv := seq.Advance()
	width += dimen.Pixels(adv.X)
	height -= dimen.Pixels(adv.Y)
	if seq.Direction.IsVertical() {
		width += size
	} else {
		height += size
	}
	return
}

// ByteClusters changes cluster values from rune indices into text to byte
// offsets into the UTF-8 encoding of text. Shapers working on runes call
// it after shaping. Indices beyond the end of text map to len(text).
func (seq GlyphSequence) ByteClusters(text string) {
	offsets := make([]int, 0, len(text)+1)
	for i := range text {
		offsets = append(offsets, i)
	}
	offsets = append(offsets, len(text))
	for i, g := range seq.Glyphs {
		if g.Cluster < 0 {
			continue
		}
		if g.Cluster >= len(offsets) {
			seq.Glyphs[i].Cluster = len(text)
			continue
		}
		seq.Glyphs[i].Cluster = offsets[g.Cluster]
	}
}
