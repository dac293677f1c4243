/*
Package font is for typeface and font handling.

We stick to the following definitions:

* A "scalable font" is a font, i.e. a variant of a typeface with a
certain weight, slant, etc.  An example is "Helvetica regular".

* A "typecase" is a scaled font, i.e. a font in a certain size.
The name is reminiscend on the wooden boxes of typesetters in the aera
of metal type. An example is "Helvetica regular 36pt".

Please note that Go (Golang) does use the terms "font" and "face"
differently–actually more or less in an opposite manner.

A typecase fixes its size once, when it is prepared. Shaping and
rasterization of a run must use one and the same typecase; mixing sizes
within a run is not supported.

----------------------------------------------------------------------

BSD License

Copyright (c) 2017-21, Norbert Pillmayer

All rights reserved.

Redistribution and use in source and binary forms, with or without
modification, are permitted provided that the following conditions
are met:

1. Redistributions of source code must retain the above copyright
notice, this list of conditions and the following disclaimer.

2. Redistributions in binary form must reproduce the above copyright
notice, this list of conditions and the following disclaimer in the
documentation and/or other materials provided with the distribution.

3. Neither the name of this software nor the names of its contributors
may be used to endorse or promote products derived from this software
without specific prior written permission.

THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS
"AS IS" AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT
LIMITED TO, THE IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR
A PARTICULAR PURPOSE ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT
HOLDER OR CONTRIBUTORS BE LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL,
SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT
LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR SERVICES; LOSS OF USE,
DATA, OR PROFITS; OR BUSINESS INTERRUPTION) HOWEVER CAUSED AND ON ANY
THEORY OF LIABILITY, WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT
(INCLUDING NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH DAMAGE. */
package font

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/xshape/core"
	"github.com/npillmayer/xshape/core/dimen"
	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// tracer traces with key 'xshape.fonts'.
func tracer() tracing.Trace {
	return tracing.Select("xshape.fonts")
}

// Sizes outside of this range are rejected when preparing a typecase.
const (
	MinSize = 5.0
	MaxSize = 500.0
)

// ScalableFont is a parsed font file, together with its raw bytes.
// The raw bytes are needed by shapers which parse the font themselves.
type ScalableFont struct {
	Fontname string
	Filepath string     // file path
	Binary   []byte     // raw data
	SFNT     *sfnt.Font // the font's container
}

// TypeCase is a scalable font prepared at a fixed size.
type TypeCase struct {
	scalableFontParent *ScalableFont
	face               xfont.Face // Go uses 'face' and 'font' in an inverse manner
	size               float64
	ppem               fixed.Int26_6
	mu                 sync.Mutex // guards buf
	buf                sfnt.Buffer
}

// LoadOpenTypeFont loads an OpenType font (TTF or OTF) from a file.
func LoadOpenTypeFont(fontfile string) (*ScalableFont, error) {
	bytez, err := os.ReadFile(fontfile)
	if err != nil {
		return nil, core.WrapError(err, core.EFONT, "cannot read font file %s", fontfile)
	}
	f, err := ParseOpenTypeFont(bytez)
	if err != nil {
		return nil, err
	}
	f.Filepath = fontfile
	if f.Fontname == "" {
		f.Fontname = strings.TrimSuffix(filepath.Base(fontfile), filepath.Ext(fontfile))
	}
	return f, nil
}

// ParseOpenTypeFont loads an OpenType font (TTF or OTF) from memory.
func ParseOpenTypeFont(fbytes []byte) (f *ScalableFont, err error) {
	f = &ScalableFont{Binary: fbytes}
	f.SFNT, err = sfnt.Parse(f.Binary)
	if err != nil {
		return nil, core.WrapError(err, core.EFONT, "cannot parse font")
	}
	f.Fontname, _ = f.SFNT.Name(nil, sfnt.NameIDFull)
	return f, nil
}

// PrepareCase creates a typecase at a given size in points. Sizes are
// interpreted at 72 DPI, thus size equals the pixels per em.
func (sf *ScalableFont) PrepareCase(fontsize float64) (*TypeCase, error) {
	if fontsize < MinSize || fontsize > MaxSize {
		return nil, core.Error(core.EFONT, "font size must be %gpt <= size <= %gpt, is %g",
			MinSize, MaxSize, fontsize)
	}
	options := &opentype.FaceOptions{
		Size:    fontsize,
		DPI:     dimen.DefaultDPI,
		Hinting: xfont.HintingNone,
	}
	f, err := opentype.NewFace(sf.SFNT, options)
	if err != nil {
		return nil, core.WrapError(err, core.EFONT, "cannot set size %g for font %s",
			fontsize, sf.Fontname)
	}
	tracer().Debugf("prepared typecase %s at %.2fpt", sf.Fontname, fontsize)
	return &TypeCase{
		scalableFontParent: sf,
		face:               f,
		size:               fontsize,
		ppem:               dimen.FromPixels(dimen.PPEM(fontsize, dimen.DefaultDPI)),
	}, nil
}

// ScalableFontParent returns the font this typecase has been prepared from.
func (tc *TypeCase) ScalableFontParent() *ScalableFont {
	return tc.scalableFontParent
}

// PtSize returns the size of the typecase in points.
func (tc *TypeCase) PtSize() float64 {
	return tc.size
}

// PPEM returns the pixels per em in 26.6.
func (tc *TypeCase) PPEM() fixed.Int26_6 {
	return tc.ppem
}

// Metrics returns the vertical metrics of the typecase.
func (tc *TypeCase) Metrics() xfont.Metrics {
	return tc.face.Metrics()
}

// Close releases the underlying face. A closed typecase must not be used
// any more.
func (tc *TypeCase) Close() error {
	if tc == nil || tc.face == nil {
		return nil
	}
	err := tc.face.Close()
	tc.face = nil
	return err
}

// maxGlyphName is the length limit for glyph names, excluding a terminator.
const maxGlyphName = 31

// GlyphName returns the name of a glyph, as found in the font's post table.
// If the font does not name the glyph, a name of the form "gid<n>" is
// returned. Names are cut to at most 31 bytes.
func (tc *TypeCase) GlyphName(gid uint32) string {
	tc.mu.Lock()
	name, err := tc.scalableFontParent.SFNT.GlyphName(&tc.buf, sfnt.GlyphIndex(gid))
	tc.mu.Unlock()
	if err != nil || name == "" {
		name = fmt.Sprintf("gid%d", gid)
	}
	if len(name) > maxGlyphName {
		name = name[:maxGlyphName]
	}
	return name
}

// --- Fallback font ---------------------------------------------------------

// FallbackFont returns a font to be used if everything else failes. It is
// always present. Currently we use Go Sans.
func FallbackFont() *ScalableFont {
	fallbackFontLoading.Do(func() {
		fallbackFont = loadFallbackFont()
	})
	return fallbackFont
}

var fallbackFontLoading sync.Once

// fallbackFont is a font that is used if everything else failes.
// Currently we use Go Sans.
var fallbackFont *ScalableFont

func loadFallbackFont() *ScalableFont {
	var err error
	gofont := &ScalableFont{
		Fontname: "Go Sans",
		Filepath: "internal",
		Binary:   goregular.TTF,
	}
	gofont.SFNT, err = sfnt.Parse(gofont.Binary)
	if err != nil {
		panic("cannot load default font") // this cannot happen
	}
	return gofont
}
