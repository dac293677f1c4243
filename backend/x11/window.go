package x11

import (
	"github.com/BurntSushi/xgb/xproto"
	"github.com/npillmayer/xshape/core"
	"github.com/npillmayer/xshape/core/dimen"
)

// Window is a top-level window of fixed size, together with a pair of
// graphics contexts for foreground and background drawing.
type Window struct {
	conn   *Conn
	ID     xproto.Window
	Size   dimen.Point
	Fg, Bg xproto.Gcontext
	freed  bool
}

// CreateWindow creates (but does not map) a window of the given size on the
// default screen. The window has a white background and listens to exposure
// and key press events.
func (c *Conn) CreateWindow(title string, size dimen.Point) (*Window, error) {
	wid, err := xproto.NewWindowId(c.X)
	if err != nil {
		return nil, core.WrapError(err, core.ECONNECTION, "cannot allocate window id")
	}
	scr := c.Screen
	w := &Window{conn: c, ID: wid, Size: size}
	err = xproto.CreateWindowChecked(c.X, scr.RootDepth, wid, scr.Root,
		0, 0, dimen.ClampU16(size.X), dimen.ClampU16(size.Y), 0,
		xproto.WindowClassInputOutput, scr.RootVisual,
		xproto.CwBackPixel|xproto.CwEventMask,
		[]uint32{
			scr.WhitePixel,
			xproto.EventMaskExposure | xproto.EventMaskKeyPress,
		}).Check()
	if err = checkRequest("CreateWindow", err); err != nil {
		return nil, err
	}
	if title != "" {
		err = xproto.ChangePropertyChecked(c.X, xproto.PropModeReplace, wid,
			xproto.AtomWmName, xproto.AtomString, 8, uint32(len(title)), []byte(title)).Check()
		if err = checkRequest("ChangeProperty", err); err != nil {
			w.Free()
			return nil, err
		}
	}
	if w.Fg, err = c.createGC(xproto.Drawable(wid), scr.BlackPixel, scr.WhitePixel); err != nil {
		w.Free()
		return nil, err
	}
	if w.Bg, err = c.createGC(xproto.Drawable(wid), scr.WhitePixel, scr.BlackPixel); err != nil {
		w.Free()
		return nil, err
	}
	tracer().Debugf("created window 0x%x of size %dx%d", uint32(wid), size.X, size.Y)
	return w, nil
}

func (c *Conn) createGC(d xproto.Drawable, fg, bg uint32) (xproto.Gcontext, error) {
	gc, err := xproto.NewGcontextId(c.X)
	if err != nil {
		return 0, core.WrapError(err, core.ECONNECTION, "cannot allocate graphics context id")
	}
	err = xproto.CreateGCChecked(c.X, gc, d,
		xproto.GcForeground|xproto.GcBackground|xproto.GcGraphicsExposures,
		[]uint32{fg, bg, 0}).Check()
	if err = checkRequest("CreateGC", err); err != nil {
		return 0, err
	}
	return gc, nil
}

// Drawable returns the window as a drawable.
func (w *Window) Drawable() xproto.Drawable {
	return xproto.Drawable(w.ID)
}

// Map maps the window. The request is checked.
func (w *Window) Map() error {
	err := xproto.MapWindowChecked(w.conn.X, w.ID).Check()
	return checkRequest("MapWindow", err)
}

// FreeGCs frees the graphics contexts of the window.
func (w *Window) FreeGCs() error {
	if w == nil || w.freed {
		return nil
	}
	var first error
	for _, gc := range []*xproto.Gcontext{&w.Fg, &w.Bg} {
		if *gc == 0 {
			continue
		}
		err := checkRequest("FreeGC", xproto.FreeGCChecked(w.conn.X, *gc).Check())
		if err != nil && first == nil {
			first = err
		}
		*gc = 0
	}
	return first
}

// Free frees the graphics contexts and destroys the window. Calling Free more
// than once is a no-op.
func (w *Window) Free() error {
	if w == nil || w.freed {
		return nil
	}
	err := w.FreeGCs()
	w.freed = true
	if derr := checkRequest("DestroyWindow", xproto.DestroyWindowChecked(w.conn.X, w.ID).Check()); err == nil {
		err = derr
	}
	return err
}
