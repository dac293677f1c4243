/*
Package x11 connects to an X server and runs the event loop of the text
window.

Conn implements xrender.Server on top of github.com/BurntSushi/xgb. Every
request the glyph pipeline sends is checked, i.e. waits for the server to
acknowledge it; a rejected request results in an *xrender.ProtocolError.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package x11

import (
	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/render"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/xshape/backend/xrender"
	"github.com/npillmayer/xshape/core"
)

// tracer traces with key 'xshape.x11'.
func tracer() tracing.Trace {
	return tracing.Select("xshape.x11")
}

// Conn is a connection to an X server supporting the RENDER extension.
// All resource ids are allocated from the connection.
type Conn struct {
	X      *xgb.Conn
	Screen *xproto.ScreenInfo
	closed bool
}

var _ xrender.Server = &Conn{}

// Connect opens a connection to display. An empty display name selects the
// display from the environment.
func Connect(display string) (*Conn, error) {
	xc, err := xgb.NewConnDisplay(display)
	if err != nil {
		return nil, core.WrapError(err, core.ECONNECTION, "cannot connect to X display %q", display)
	}
	if err = render.Init(xc); err != nil {
		xc.Close()
		return nil, core.WrapError(err, core.ECONNECTION, "X server does not support RENDER")
	}
	c := &Conn{X: xc, Screen: xproto.Setup(xc).DefaultScreen(xc)}
	tracer().Infof("connected to X server, screen %dx%d, root visual 0x%x",
		c.Screen.WidthInPixels, c.Screen.HeightInPixels, uint32(c.Screen.RootVisual))
	return c, nil
}

// Close closes the connection. Calling Close more than once is a no-op.
func (c *Conn) Close() error {
	if c == nil || c.closed {
		return nil
	}
	c.closed = true
	c.X.Close()
	tracer().Debugf("connection closed")
	return nil
}

// Sync waits until the server has processed all requests sent so far.
func (c *Conn) Sync() error {
	_, err := xproto.GetInputFocus(c.X).Reply()
	return checkRequest("GetInputFocus", err)
}

// QueryPictFormats asks the server for its picture formats. Every call
// sends a request; wrap the connection with xrender.CacheFormats to send
// it once.
func (c *Conn) QueryPictFormats() (*render.QueryPictFormatsReply, error) {
	reply, err := render.QueryPictFormats(c.X).Reply()
	if err != nil {
		return nil, checkRequest("QueryPictFormats", err)
	}
	return reply, nil
}

func (c *Conn) CreateGlyphSet(format render.Pictformat) (render.Glyphset, error) {
	gs, err := render.NewGlyphsetId(c.X)
	if err != nil {
		return 0, core.WrapError(err, core.ECONNECTION, "cannot allocate glyph set id")
	}
	err = render.CreateGlyphSetChecked(c.X, gs, format).Check()
	return gs, checkRequest("CreateGlyphSet", err)
}

func (c *Conn) AddGlyphs(gs render.Glyphset, ids []uint32, infos []render.Glyphinfo, data []byte) error {
	err := render.AddGlyphsChecked(c.X, gs, uint32(len(ids)), ids, infos, data).Check()
	return checkRequest("AddGlyphs", err)
}

func (c *Conn) FreeGlyphSet(gs render.Glyphset) error {
	return checkRequest("FreeGlyphSet", render.FreeGlyphSetChecked(c.X, gs).Check())
}

func (c *Conn) CreatePicture(drawable xproto.Drawable, format render.Pictformat) (render.Picture, error) {
	pic, err := render.NewPictureId(c.X)
	if err != nil {
		return 0, core.WrapError(err, core.ECONNECTION, "cannot allocate picture id")
	}
	err = render.CreatePictureChecked(c.X, pic, drawable, format, 0, nil).Check()
	return pic, checkRequest("CreatePicture", err)
}

func (c *Conn) CreateSolidFill(color render.Color) (render.Picture, error) {
	pic, err := render.NewPictureId(c.X)
	if err != nil {
		return 0, core.WrapError(err, core.ECONNECTION, "cannot allocate picture id")
	}
	err = render.CreateSolidFillChecked(c.X, pic, color).Check()
	return pic, checkRequest("CreateSolidFill", err)
}

func (c *Conn) FillRectangles(op byte, dst render.Picture, color render.Color, rects []xproto.Rectangle) error {
	err := render.FillRectanglesChecked(c.X, op, dst, color, rects).Check()
	return checkRequest("FillRectangles", err)
}

func (c *Conn) CompositeGlyphs(width int, op byte, src, dst render.Picture, mask render.Pictformat,
	gs render.Glyphset, srcX, srcY int16, cmds []byte) error {
	//
	var err error
	switch width {
	case 8:
		err = render.CompositeGlyphs8Checked(c.X, op, src, dst, mask, gs, srcX, srcY, cmds).Check()
	case 16:
		err = render.CompositeGlyphs16Checked(c.X, op, src, dst, mask, gs, srcX, srcY, cmds).Check()
	case 32:
		err = render.CompositeGlyphs32Checked(c.X, op, src, dst, mask, gs, srcX, srcY, cmds).Check()
	default:
		return core.Error(core.EINVALID, "no composite request for glyph width %d", width)
	}
	return checkRequest("CompositeGlyphs", err)
}

func (c *Conn) FreePicture(pic render.Picture) error {
	return checkRequest("FreePicture", render.FreePictureChecked(c.X, pic).Check())
}
