/*
Package harfbuzz uses HarfBuzz to convert text to sequences of glyphs.

The HarfBuzz implementation is a Go port by Benoit Kugler, part of
github.com/benoitkugler/textlayout.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package harfbuzz

import (
	"bytes"
	"encoding/binary"
	"sync"
	"unicode"

	hbtt "github.com/benoitkugler/textlayout/fonts/truetype"
	hb "github.com/benoitkugler/textlayout/harfbuzz"
	hblang "github.com/benoitkugler/textlayout/language"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/xshape/core"
	"github.com/npillmayer/xshape/core/font"
	"github.com/npillmayer/xshape/engine/glyphing"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/language"
)

// tracer traces with key 'xshape.glyphs'.
func tracer() tracing.Trace {
	return tracing.Select("xshape.glyphs")
}

// --- Type conversion -------------------------------------------------------

// Lang4HB returns a language tag as a HarfBuzz language.
func Lang4HB(l language.Tag) hblang.Language {
	return hblang.NewLanguage(l.String())
}

// Script4HB returns a script as a HarfBuzz script.
func Script4HB(s language.Script) hblang.Script {
	b := []byte(s.String())
	b[0] = byte(unicode.ToLower(rune(b[0])))
	h := binary.BigEndian.Uint32(b)
	return hblang.Script(h)
}

// Direction4HB translates a direction to a HarfBuzz direction.
// DirectionAuto has no HarfBuzz equivalent and maps to left-to-right;
// Shape will derive it from the script of the text instead.
func Direction4HB(d glyphing.Direction) hb.Direction {
	switch d {
	case glyphing.LeftToRight:
		return hb.LeftToRight
	case glyphing.RightToLeft:
		return hb.RightToLeft
	case glyphing.TopToBottom:
		return hb.TopToBottom
	case glyphing.BottomToTop:
		return hb.BottomToTop
	}
	return hb.LeftToRight
}

func direction4Glyphing(d hb.Direction) glyphing.Direction {
	switch d {
	case hb.RightToLeft:
		return glyphing.RightToLeft
	case hb.TopToBottom:
		return glyphing.TopToBottom
	case hb.BottomToTop:
		return glyphing.BottomToTop
	}
	return glyphing.LeftToRight
}

// Feature4HB converts a 4-letter OpenType feature tag to a HarfBuzz truetype tag.
// Tags shorter than 4 letters are padded with spaces.
func Feature4HB(tag string) hbtt.Tag {
	b := []byte("    ")
	copy(b, tag)
	return hbtt.Tag(binary.BigEndian.Uint32(b))
}

// FeatureRange4HB converts a feature range struct to a HarfBuzz Feature switch.
func FeatureRange4HB(frng glyphing.FeatureRange) hb.Feature {
	f := hb.Feature{
		Tag:   Feature4HB(frng.Feature),
		Start: frng.Start,
		End:   frng.End,
	}
	if frng.On {
		if frng.Arg > 0 {
			f.Value = uint32(frng.Arg)
		} else {
			f.Value = 1
		}
	}
	return f
}

// --- Shaper ----------------------------------------------------------------

// Shaper shapes text with HarfBuzz. It keeps a HarfBuzz font per scalable
// font, so repeated shaping with the same font parses the font binary only
// once. A Shaper is safe for concurrent use.
type Shaper struct {
	mu    sync.Mutex
	fonts map[*font.ScalableFont]*hb.Font
}

var _ glyphing.Shaper = &Shaper{}

// NewShaper creates a HarfBuzz shaper.
func NewShaper() *Shaper {
	return &Shaper{fonts: make(map[*font.ScalableFont]*hb.Font)}
}

// Close drops all fonts held by the shaper. The shaper may still be used
// afterwards.
func (s *Shaper) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tracer().Debugf("releasing %d HarfBuzz font(s)", len(s.fonts))
	s.fonts = make(map[*font.ScalableFont]*hb.Font)
	return nil
}

// hbFont returns the HarfBuzz font for a typecase, scaled to deliver
// positions in 26.6 pixels. Clients must hold s.mu.
func (s *Shaper) hbFont(tc *font.TypeCase) (*hb.Font, error) {
	sf := tc.ScalableFontParent()
	if s.fonts == nil {
		s.fonts = make(map[*font.ScalableFont]*hb.Font)
	}
	hbfont, ok := s.fonts[sf]
	if !ok {
		face, err := hbtt.Parse(bytes.NewReader(sf.Binary), true)
		if err != nil {
			return nil, core.WrapError(err, core.EFONT, "HarfBuzz cannot parse font %s", sf.Fontname)
		}
		hbfont = hb.NewFont(face)
		s.fonts[sf] = hbfont
		tracer().Debugf("created HarfBuzz font for %s", sf.Fontname)
	}
	// HarfBuzz computes positions as fontUnits * scale / upem
	hbfont.XScale = int32(tc.PPEM())
	hbfont.YScale = int32(tc.PPEM())
	return hbfont, nil
}

// Shape calls the HarfBuzz shaper.
//
// Shape turns the Unicode characters of text into positioned glyphs.
// It will select a shape plan based on params, including the
// selected font, and the properties of the input text. Properties not set in
// params are guessed from the text.
//
// If `params.Features` is not empty, it will be used to control the
// features applied during shaping. If two features have the same tag but
// overlapping ranges the value of the feature with the higher index takes
// precedence.
//
// Glyph advances and offsets are returned in 26.6 pixels at the size of
// params.Font.
//
func (s *Shaper) Shape(text string, params glyphing.Params) (glyphing.GlyphSequence, error) {
	if params.Font == nil {
		return glyphing.GlyphSequence{}, core.Error(core.EMISSING, "no font to shape with")
	}
	if text == "" {
		return glyphing.GlyphSequence{Direction: params.Direction}, nil
	}
	s.mu.Lock() // fonts are re-scaled per call
	defer s.mu.Unlock()
	hbfont, err := s.hbFont(params.Font)
	if err != nil {
		return glyphing.GlyphSequence{}, err
	}
	features := make([]hb.Feature, 0, len(params.Features))
	for _, feat := range params.Features {
		features = append(features, FeatureRange4HB(feat))
	}
	buf := hb.NewBuffer()
	runes := []rune(text)
	convertParams(&buf.Props, params, runes)
	buf.AddRunes(runes, 0, len(runes))
	buf.Shape(hbfont, features)
	seq := glyphing.GlyphSequence{
		Glyphs:    make([]glyphing.GlyphRecord, len(buf.Info)),
		Direction: direction4Glyphing(buf.Props.Direction),
	}
	for i, ginfo := range buf.Info {
		gpos := buf.Pos[i]
		seq.Glyphs[i] = glyphing.GlyphRecord{
			GID:      uint32(ginfo.Glyph),
			Cluster:  ginfo.Cluster,
			XAdvance: fixed.Int26_6(gpos.XAdvance),
			YAdvance: fixed.Int26_6(gpos.YAdvance),
			XOffset:  fixed.Int26_6(gpos.XOffset),
			YOffset:  fixed.Int26_6(gpos.YOffset),
		}
	}
	seq.ByteClusters(text)
	for i, g := range seq.Glyphs {
		tracer().Debugf("[%3d] %v", i, g)
	}
	return seq, nil
}

// convertParams is a helper function to convert glyphing parameters to
// HarfBuzz's format. HarfBuzz does not guess segment properties on its own:
// an unset script is taken from the first rune with a real script, an unset
// direction follows from the script, and an unset language is the default
// language of the locale.
func convertParams(props *hb.SegmentProperties, params glyphing.Params, runes []rune) {
	if params.Language != language.Und {
		props.Language = Lang4HB(params.Language)
	} else {
		props.Language = hblang.DefaultLanguage()
	}
	var none language.Script
	if params.Script != none {
		props.Script = Script4HB(params.Script)
	} else {
		props.Script = scriptOf(runes)
	}
	if params.Direction != glyphing.DirectionAuto {
		props.Direction = Direction4HB(params.Direction)
	} else {
		props.Direction = directionOf(props.Script)
	}
}

// scriptOf returns the script of the first rune which is not common or
// inherited, or Latin.
func scriptOf(runes []rune) hblang.Script {
	for _, r := range runes {
		switch script := hblang.LookupScript(r); script {
		case hblang.Common, hblang.Inherited, hblang.Unknown:
			continue
		default:
			return script
		}
	}
	return hblang.Latin
}

// directionOf is the horizontal direction of a script.
func directionOf(script hblang.Script) hb.Direction {
	switch script {
	case hblang.Arabic, hblang.Hebrew, hblang.Syriac, hblang.Thaana, hblang.Nko,
		hblang.Samaritan, hblang.Mandaic, hblang.Adlam, hblang.Hanifi_Rohingya:
		return hb.RightToLeft
	}
	return hb.LeftToRight
}
