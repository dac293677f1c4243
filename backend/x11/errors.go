package x11

import (
	"strings"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/render"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/npillmayer/xshape/backend/xrender"
	"github.com/npillmayer/xshape/core"
)

// errorCodes maps X error names to error codes. Codes of RENDER errors are
// relative to the extension's first error.
var errorCodes = map[string]int{
	"BadRequest":        xproto.BadRequest,
	"BadValue":          xproto.BadValue,
	"BadWindow":         xproto.BadWindow,
	"BadPixmap":         xproto.BadPixmap,
	"BadAtom":           xproto.BadAtom,
	"BadCursor":         xproto.BadCursor,
	"BadFont":           xproto.BadFont,
	"BadMatch":          xproto.BadMatch,
	"BadDrawable":       xproto.BadDrawable,
	"BadAccess":         xproto.BadAccess,
	"BadAlloc":          xproto.BadAlloc,
	"BadColormap":       xproto.BadColormap,
	"BadGContext":       xproto.BadGContext,
	"BadIDChoice":       xproto.BadIDChoice,
	"BadName":           xproto.BadName,
	"BadLength":         xproto.BadLength,
	"BadImplementation": xproto.BadImplementation,
	"BadPictFormat":     render.BadPictFormat,
	"BadPicture":        render.BadPicture,
	"BadPictOp":         render.BadPictOp,
	"BadGlyphSet":       render.BadGlyphSet,
	"BadGlyph":          render.BadGlyph,
}

// errorName extracts the name of an X error from its string form, which
// xgb renders as "BadName {fields}".
func errorName(err error) string {
	s := err.Error()
	if i := strings.IndexAny(s, " {"); i > 0 {
		s = s[:i]
	}
	return s
}

// checkRequest converts the result of a checked request. X errors become
// *xrender.ProtocolError, other errors are connection errors.
func checkRequest(request string, err error) error {
	if err == nil {
		return nil
	}
	if xerr, ok := err.(xgb.Error); ok {
		return protocolError(request, xerr)
	}
	return core.WrapError(err, core.ECONNECTION, "%s failed", request)
}

func protocolError(request string, xerr xgb.Error) *xrender.ProtocolError {
	name := errorName(xerr)
	code, ok := errorCodes[name]
	if !ok {
		code = -1
	}
	perr := &xrender.ProtocolError{Request: request, Code: code, Name: name, Err: xerr}
	tracer().Errorf("%v", perr)
	return perr
}
