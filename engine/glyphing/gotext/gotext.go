/*
Package gotext shapes text with go-text/typesetting.

go-text carries its own port of HarfBuzz. It is an alternative to package
harfbuzz and produces glyph sequences of the same kind, which makes it
possible to compare the two engines on the same input.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package gotext

import (
	"bytes"
	"sync"

	"github.com/go-text/typesetting/di"
	gtfont "github.com/go-text/typesetting/font"
	ot "github.com/go-text/typesetting/font/opentype"
	gtlang "github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/xshape/core"
	"github.com/npillmayer/xshape/core/font"
	"github.com/npillmayer/xshape/engine/glyphing"
	"golang.org/x/text/language"
)

// tracer traces with key 'xshape.glyphs'.
func tracer() tracing.Trace {
	return tracing.Select("xshape.glyphs")
}

// Shaper shapes text with go-text. Parsed fonts are cached per scalable
// font; faces are created for every call, as go-text faces must not be
// shared between goroutines. A Shaper is safe for concurrent use.
type Shaper struct {
	shapers sync.Pool // of *shaping.HarfbuzzShaper
	mu      sync.RWMutex
	fonts   map[*font.ScalableFont]*gtfont.Font
}

var _ glyphing.Shaper = &Shaper{}

// NewShaper creates a go-text shaper.
func NewShaper() *Shaper {
	return &Shaper{
		shapers: sync.Pool{
			New: func() any {
				return &shaping.HarfbuzzShaper{}
			},
		},
		fonts: make(map[*font.ScalableFont]*gtfont.Font),
	}
}

// Close drops all parsed fonts.
func (s *Shaper) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tracer().Debugf("releasing %d go-text font(s)", len(s.fonts))
	s.fonts = make(map[*font.ScalableFont]*gtfont.Font)
	return nil
}

func (s *Shaper) face(sf *font.ScalableFont) (*gtfont.Face, error) {
	s.mu.RLock()
	f, ok := s.fonts[sf]
	s.mu.RUnlock()
	if ok {
		return gtfont.NewFace(f), nil
	}
	face, err := gtfont.ParseTTF(bytes.NewReader(sf.Binary))
	if err != nil {
		return nil, core.WrapError(err, core.EFONT, "go-text cannot parse font %s", sf.Fontname)
	}
	s.mu.Lock()
	if s.fonts == nil {
		s.fonts = make(map[*font.ScalableFont]*gtfont.Font)
	}
	s.fonts[sf] = face.Font
	s.mu.Unlock()
	tracer().Debugf("parsed go-text font for %s", sf.Fontname)
	return face, nil
}

// Shape turns the Unicode characters of text into positioned glyphs.
// Script and language are derived from the text if params leaves them unset.
// Feature ranges are applied to the whole text, as go-text does not
// support partial ranges.
//
// Glyph advances and offsets are returned in 26.6 pixels at the size of
// params.Font.
func (s *Shaper) Shape(text string, params glyphing.Params) (glyphing.GlyphSequence, error) {
	if params.Font == nil {
		return glyphing.GlyphSequence{}, core.Error(core.EMISSING, "no font to shape with")
	}
	if text == "" {
		return glyphing.GlyphSequence{Direction: params.Direction}, nil
	}
	face, err := s.face(params.Font.ScalableFontParent())
	if err != nil {
		return glyphing.GlyphSequence{}, err
	}
	runes := []rune(text)
	input := shaping.Input{
		Text:         runes,
		RunStart:     0,
		RunEnd:       len(runes),
		Direction:    direction4GoText(params.Direction, runes),
		Face:         face,
		Size:         params.Font.PPEM(),
		Script:       script4GoText(params.Script, runes),
		Language:     lang4GoText(params.Language),
		FontFeatures: features4GoText(params.Features),
	}
	hbs := s.shapers.Get().(*shaping.HarfbuzzShaper)
	out := hbs.Shape(input)
	s.shapers.Put(hbs)
	seq := glyphing.GlyphSequence{
		Glyphs:    make([]glyphing.GlyphRecord, len(out.Glyphs)),
		Direction: direction4Glyphing(out.Direction),
	}
	vertical := out.Direction.IsVertical()
	for i, g := range out.Glyphs {
		rec := glyphing.GlyphRecord{
			GID:     uint32(g.GlyphID),
			Cluster: g.TextIndex(),
			XOffset: g.XOffset,
			YOffset: g.YOffset,
		}
		if vertical {
			rec.YAdvance = g.Advance
		} else {
			rec.XAdvance = g.Advance
		}
		seq.Glyphs[i] = rec
	}
	seq.ByteClusters(text)
	for i, g := range seq.Glyphs {
		tracer().Debugf("[%3d] %v", i, g)
	}
	return seq, nil
}

// --- Type conversion -------------------------------------------------------

func direction4GoText(d glyphing.Direction, runes []rune) di.Direction {
	switch d {
	case glyphing.RightToLeft:
		return di.DirectionRTL
	case glyphing.TopToBottom:
		return di.DirectionTTB
	case glyphing.BottomToTop:
		return di.DirectionBTT
	case glyphing.LeftToRight:
		return di.DirectionLTR
	}
	for _, r := range runes {
		switch gtlang.LookupScript(r) {
		case gtlang.Arabic, gtlang.Hebrew, gtlang.Syriac, gtlang.Thaana, gtlang.Nko:
			return di.DirectionRTL
		case gtlang.Common, gtlang.Inherited, gtlang.Unknown:
			continue
		}
		break
	}
	return di.DirectionLTR
}

func direction4Glyphing(d di.Direction) glyphing.Direction {
	switch {
	case d.IsVertical() && d.Progression() == di.FromTopLeft:
		return glyphing.TopToBottom
	case d.IsVertical():
		return glyphing.BottomToTop
	case d.Progression() == di.TowardTopLeft:
		return glyphing.RightToLeft
	}
	return glyphing.LeftToRight
}

// script4GoText converts a script, or, if s is unset, looks up the script
// of the first rune with a strong script.
func script4GoText(s language.Script, runes []rune) gtlang.Script {
	var none language.Script
	if s != none {
		if script, err := gtlang.ParseScript(s.String()); err == nil {
			return script
		}
	}
	for _, r := range runes {
		if script := gtlang.LookupScript(r); script.Strong() {
			return script
		}
	}
	return gtlang.Latin
}

func lang4GoText(l language.Tag) gtlang.Language {
	if l == language.Und {
		return ""
	}
	return gtlang.NewLanguage(l.String())
}

func features4GoText(ranges []glyphing.FeatureRange) []shaping.FontFeature {
	if len(ranges) == 0 {
		return nil
	}
	features := make([]shaping.FontFeature, 0, len(ranges))
	for _, frng := range ranges {
		tag := []byte("    ")
		copy(tag, frng.Feature)
		f := shaping.FontFeature{Tag: ot.NewTag(tag[0], tag[1], tag[2], tag[3])}
		if frng.On {
			f.Value = 1
			if frng.Arg > 0 {
				f.Value = uint32(frng.Arg)
			}
		}
		features = append(features, f)
	}
	return features
}
