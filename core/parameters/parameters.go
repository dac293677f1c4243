/*
Package parameters holds the parameters of a rendering run.

Parameters have defaults and may be overridden from a
schuko.Configuration. Keys are

	font.size          font size in points
	shaper             shaping engine: "harfbuzz", "gotext" or "monospace"
	render.strategy    rendering strategy: "glyphset"
	render.coalesce    "true" to share glyph runs with zero deltas
	render.glyphwidth  glyph id width in bits: 8, 16 or 32
	raster.placeholder "true" to upload blank 4x4 placeholder glyphs
	text.direction     "ltr", "rtl", "ttb" or "btt"; empty for auto
	text.language      BCP 47 tag; empty for auto

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package parameters

import (
	"strconv"
	"strings"

	"github.com/npillmayer/schuko"
	"github.com/npillmayer/xshape/core"
)

// Shaping engines
const (
	HarfBuzz  = "harfbuzz"
	GoText    = "gotext"
	Monospace = "monospace"
)

// Run collects the parameters of one run.
type Run struct {
	FontSize    float64
	Shaper      string
	Strategy    string
	Coalesce    bool
	GlyphWidth  int
	Placeholder bool
	Direction   string
	Language    string
}

// Defaults returns the parameters used if nothing is configured.
func Defaults() Run {
	return Run{
		FontSize:   36,
		Shaper:     HarfBuzz,
		Strategy:   "glyphset",
		GlyphWidth: 32,
	}
}

// Margin is the space around the text, half the font size.
func (r Run) Margin() float64 {
	return r.FontSize * .5
}

// FromConfig reads run parameters from a configuration. Keys not set in
// conf keep their default value. conf may be nil.
func FromConfig(conf schuko.Configuration) (Run, error) {
	run := Defaults()
	if conf == nil {
		return run, nil
	}
	if s := conf.GetString("font.size"); s != "" {
		size, err := strconv.ParseFloat(s, 64)
		if err != nil || size <= 0 {
			return run, core.WrapError(err, core.EINVALID, "invalid font size %q", s)
		}
		run.FontSize = size
	}
	if s := strings.ToLower(conf.GetString("shaper")); s != "" {
		if s != HarfBuzz && s != GoText && s != Monospace {
			return run, core.Error(core.EINVALID, "unknown shaper %q", s)
		}
		run.Shaper = s
	}
	if s := conf.GetString("render.strategy"); s != "" {
		run.Strategy = s
	}
	var err error
	if run.Coalesce, err = flag(conf, "render.coalesce"); err != nil {
		return run, err
	}
	if run.Placeholder, err = flag(conf, "raster.placeholder"); err != nil {
		return run, err
	}
	if s := conf.GetString("render.glyphwidth"); s != "" {
		w, err := strconv.Atoi(s)
		if err != nil || (w != 8 && w != 16 && w != 32) {
			return run, core.WrapError(err, core.EINVALID, "glyph width must be 8, 16 or 32, is %q", s)
		}
		run.GlyphWidth = w
	}
	run.Direction = strings.ToLower(conf.GetString("text.direction"))
	switch run.Direction {
	case "", "ltr", "rtl", "ttb", "btt":
	default:
		return run, core.Error(core.EINVALID, "unknown text direction %q", run.Direction)
	}
	run.Language = conf.GetString("text.language")
	return run, nil
}

func flag(conf schuko.Configuration, key string) (bool, error) {
	s := conf.GetString(key)
	if s == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, core.WrapError(err, core.EINVALID, "%s must be a boolean, is %q", key, s)
	}
	return b, nil
}
