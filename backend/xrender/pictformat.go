package xrender

import (
	"fmt"
	"sync"

	"github.com/BurntSushi/xgb/render"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/npillmayer/xshape/core"
)

// FormatMask selects the fields of a format template which have to match.
type FormatMask uint16

// Fields of a picture format
const (
	MatchID FormatMask = 1 << iota
	MatchType
	MatchDepth
	MatchRed
	MatchRedMask
	MatchGreen
	MatchGreenMask
	MatchBlue
	MatchBlueMask
	MatchAlpha
	MatchAlphaMask
	MatchColormap
)

// FormatQuery is a template for picture formats. Fields not selected by
// Mask match anything.
type FormatQuery struct {
	Mask     FormatMask
	Template render.Pictforminfo
}

// Alpha8 is the standard query for 8 bit alpha-only formats, as used for
// glyph masks.
var Alpha8 = FormatQuery{
	Mask: MatchType | MatchDepth | MatchRed | MatchRedMask | MatchGreen | MatchGreenMask |
		MatchBlue | MatchBlueMask | MatchAlpha | MatchAlphaMask,
	Template: render.Pictforminfo{
		Type:  render.PictTypeDirect,
		Depth: 8,
		Direct: render.Directformat{
			AlphaShift: 0,
			AlphaMask:  0xff,
		},
	},
}

// Matches checks a format against the query.
func (q FormatQuery) Matches(f render.Pictforminfo) bool {
	t := q.Template
	checks := []struct {
		mask FormatMask
		ok   bool
	}{
		{MatchID, f.Id == t.Id},
		{MatchType, f.Type == t.Type},
		{MatchDepth, f.Depth == t.Depth},
		{MatchRed, f.Direct.RedShift == t.Direct.RedShift},
		{MatchRedMask, f.Direct.RedMask == t.Direct.RedMask},
		{MatchGreen, f.Direct.GreenShift == t.Direct.GreenShift},
		{MatchGreenMask, f.Direct.GreenMask == t.Direct.GreenMask},
		{MatchBlue, f.Direct.BlueShift == t.Direct.BlueShift},
		{MatchBlueMask, f.Direct.BlueMask == t.Direct.BlueMask},
		{MatchAlpha, f.Direct.AlphaShift == t.Direct.AlphaShift},
		{MatchAlphaMask, f.Direct.AlphaMask == t.Direct.AlphaMask},
		{MatchColormap, f.Colormap == t.Colormap},
	}
	for _, c := range checks {
		if q.Mask&c.mask != 0 && !c.ok {
			return false
		}
	}
	return true
}

// FormatCache is a server which sends the picture format query only once.
// The first successful reply is returned to all later queries; a failed
// query is not cached. All other requests are passed through.
type FormatCache struct {
	Server
	mu    sync.Mutex
	reply *render.QueryPictFormatsReply
}

var _ Server = &FormatCache{}

// CacheFormats wraps srv into a FormatCache.
func CacheFormats(srv Server) *FormatCache {
	return &FormatCache{Server: srv}
}

func (fc *FormatCache) QueryPictFormats() (*render.QueryPictFormatsReply, error) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	if fc.reply != nil {
		return fc.reply, nil
	}
	reply, err := fc.Server.QueryPictFormats()
	if err != nil {
		return nil, err
	}
	fc.reply = reply
	return reply, nil
}

// QueryFormats asks the server for its picture formats.
func QueryFormats(srv Server) (*render.QueryPictFormatsReply, error) {
	reply, err := srv.QueryPictFormats()
	if err != nil {
		return nil, core.WrapError(err, core.ECONNECTION, "cannot query picture formats")
	}
	if reply == nil {
		return nil, core.Error(core.ECONNECTION, "no reply for picture format query")
	}
	tracer().Debugf("server supports %d picture formats on %d screen(s)",
		len(reply.Formats), len(reply.Screens))
	return reply, nil
}

// FindVisualFormat finds the picture format bound to a visual. Screens,
// depths and visuals are searched in the order of the reply; the first match
// wins.
func FindVisualFormat(reply *render.QueryPictFormatsReply, visual xproto.Visualid) (render.Pictforminfo, bool) {
	for _, screen := range reply.Screens {
		for _, depth := range screen.Depths {
			for _, v := range depth.Visuals {
				if v.Visual == visual {
					return FindFormat(reply, FormatQuery{
						Mask:     MatchID,
						Template: render.Pictforminfo{Id: v.Format},
					})
				}
			}
		}
	}
	return render.Pictforminfo{}, false
}

// FindFormat returns the first format matching query.
func FindFormat(reply *render.QueryPictFormatsReply, query FormatQuery) (render.Pictforminfo, bool) {
	for _, f := range reply.Formats {
		if query.Matches(f) {
			return f, true
		}
	}
	return render.Pictforminfo{}, false
}

// Formats are the picture formats selected for drawing text.
type Formats struct {
	Window render.Pictforminfo // format of the window's visual
	Mask   render.Pictforminfo // 8 bit alpha format for glyphs
}

// SelectFormats selects the format for the window's visual and the glyph
// mask format. If either is missing, an error with code EMISSING is returned.
func SelectFormats(srv Server, visual xproto.Visualid) (Formats, error) {
	var fmts Formats
	reply, err := QueryFormats(srv)
	if err != nil {
		return fmts, err
	}
	var ok bool
	if fmts.Window, ok = FindVisualFormat(reply, visual); !ok {
		return fmts, core.Error(core.EMISSING, "no picture format for visual 0x%x", uint32(visual))
	}
	if fmts.Mask, ok = FindFormat(reply, Alpha8); !ok {
		return fmts, core.Error(core.EMISSING, "server offers no 8 bit alpha picture format")
	}
	tracer().Infof("window format %s, mask format %s", formatString(fmts.Window), formatString(fmts.Mask))
	return fmts, nil
}

func formatString(f render.Pictforminfo) string {
	d := f.Direct
	return fmt.Sprintf("#%d[depth=%d, r=%x<<%d g=%x<<%d b=%x<<%d a=%x<<%d]", f.Id, f.Depth,
		d.RedMask, d.RedShift, d.GreenMask, d.GreenShift, d.BlueMask, d.BlueShift,
		d.AlphaMask, d.AlphaShift)
}
