/*
Package xrender draws shaped text with the X Rendering Extension.

Glyphs are uploaded to a server side glyph set, then drawn with a single
composite-glyphs request. The steps are

	1. select picture formats for the window and for glyph masks
	2. build a glyph set from rasterized glyphs
	3. encode glyph positions into a stream of glyph runs
	4. issue the composite request

Requests go through a Server, which package x11 implements on top of an
X connection. Tests use the fake from package xrendertest.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package xrender

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/xgb/render"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/xshape/core"
)

// tracer traces with key 'xshape.xrender'.
func tracer() tracing.Trace {
	return tracing.Select("xshape.xrender")
}

// Server is the part of the X protocol the glyph pipeline needs.
// All requests except QueryPictFormats are checked: they return after the
// server has acknowledged them, and a rejection is returned as a
// *ProtocolError.
type Server interface {
	QueryPictFormats() (*render.QueryPictFormatsReply, error)
	CreateGlyphSet(format render.Pictformat) (render.Glyphset, error)
	AddGlyphs(gs render.Glyphset, ids []uint32, infos []render.Glyphinfo, data []byte) error
	FreeGlyphSet(gs render.Glyphset) error
	CreatePicture(drawable xproto.Drawable, format render.Pictformat) (render.Picture, error)
	CreateSolidFill(color render.Color) (render.Picture, error)
	FillRectangles(op byte, dst render.Picture, color render.Color, rects []xproto.Rectangle) error
	// CompositeGlyphs issues a composite-glyphs request with glyph ids of
	// the given width in bits (8, 16 or 32).
	CompositeGlyphs(width int, op byte, src, dst render.Picture, mask render.Pictformat,
		gs render.Glyphset, srcX, srcY int16, cmds []byte) error
	FreePicture(pic render.Picture) error
}

// ProtocolError is a checked request rejected by the server.
type ProtocolError struct {
	Request string // name of the request, e.g. "AddGlyphs"
	Code    int    // X error code; extension-relative for extension errors
	Name    string // X error name, e.g. "BadMatch"
	Err     error  // underlying error, if any
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s failed with X error %s (%d): %v", e.Request, e.Name, e.Code, e.Err)
	}
	return fmt.Sprintf("%s failed with X error %s (%d)", e.Request, e.Name, e.Code)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// ErrorCode is EPROTOCOL for every rejected request.
func (e *ProtocolError) ErrorCode() int {
	return core.EPROTOCOL
}

// UserMessage is the message to show to users.
func (e *ProtocolError) UserMessage() string {
	return fmt.Sprintf("display server rejected %s with %s (code %d)", e.Request, e.Name, e.Code)
}

var _ core.AppError = &ProtocolError{}

// AsProtocolError checks if err is or wraps a *ProtocolError.
func AsProtocolError(err error) (*ProtocolError, bool) {
	var perr *ProtocolError
	if errors.As(err, &perr) {
		return perr, true
	}
	return nil, false
}

// Strategy is a way to render text. There is only one.
type Strategy int

// GlyphSetCompositing uploads glyphs to a glyph set and draws them with a
// composite-glyphs request.
const GlyphSetCompositing Strategy = 1

func (s Strategy) String() string {
	if s == GlyphSetCompositing {
		return "glyphset"
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// ParseStrategy maps a configuration value to a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(s) {
	case "glyphset", "":
		return GlyphSetCompositing, nil
	}
	return 0, core.Error(core.EINVALID, "unsupported rendering strategy %q", s)
}
