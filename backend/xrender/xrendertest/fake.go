/*
Package xrendertest provides an in-memory display server for tests.

A Server records every request it receives and keeps track of allocated
resources, so tests can check what would have been sent to an X server.
Requests can be made to fail by setting Reject.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package xrendertest

import (
	"fmt"
	"sync"

	"github.com/BurntSushi/xgb/render"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/npillmayer/xshape/backend/xrender"
)

// Formats used by the default reply
const (
	FormatRGB24 render.Pictformat = 0x20
	FormatA8    render.Pictformat = 0x21
	FormatA1    render.Pictformat = 0x22
	Visual      xproto.Visualid   = 0x40
)

// Request is a recorded request.
type Request struct {
	Name   string
	Width  int    // glyph width for composite requests
	Stream []byte // item stream for composite requests
	IDs    []uint32
	Infos  []render.Glyphinfo
	Data   []byte
	Target uint32 // glyph set or picture the request is for
}

// Server is a fake display server. The zero value is not usable; call New.
type Server struct {
	mu        sync.Mutex
	Reply     *render.QueryPictFormatsReply
	Reject    map[string]int // request name -> X error code to fail with
	Requests  []Request
	nextID    uint32
	GlyphSets map[render.Glyphset]map[uint32]render.Glyphinfo
	Pictures  map[render.Picture]bool
}

var _ xrender.Server = &Server{}

// New creates a fake server offering an RGB24 visual format and both an A8
// and an A1 format.
func New() *Server {
	return &Server{
		Reply:     DefaultReply(),
		Reject:    make(map[string]int),
		nextID:    0x200000,
		GlyphSets: make(map[render.Glyphset]map[uint32]render.Glyphinfo),
		Pictures:  make(map[render.Picture]bool),
	}
}

// DefaultReply is a picture format reply as a typical server sends it.
func DefaultReply() *render.QueryPictFormatsReply {
	return &render.QueryPictFormatsReply{
		Formats: []render.Pictforminfo{
			{Id: FormatA1, Type: render.PictTypeDirect, Depth: 1,
				Direct: render.Directformat{AlphaMask: 0x1}},
			{Id: FormatRGB24, Type: render.PictTypeDirect, Depth: 24,
				Direct: render.Directformat{RedShift: 16, RedMask: 0xff, GreenShift: 8, GreenMask: 0xff, BlueMask: 0xff}},
			{Id: FormatA8, Type: render.PictTypeDirect, Depth: 8,
				Direct: render.Directformat{AlphaMask: 0xff}},
		},
		Screens: []render.Pictscreen{{
			Depths: []render.Pictdepth{
				{Depth: 24, Visuals: []render.Pictvisual{{Visual: Visual, Format: FormatRGB24}}},
			},
		}},
	}
}

// Count returns the number of requests of a kind.
func (s *Server) Count(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.Requests {
		if r.Name == name {
			n++
		}
	}
	return n
}

// Last returns the last request of a kind.
func (s *Server) Last(name string) (Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.Requests) - 1; i >= 0; i-- {
		if s.Requests[i].Name == name {
			return s.Requests[i], true
		}
	}
	return Request{}, false
}

func (s *Server) record(r Request) error {
	s.Requests = append(s.Requests, r)
	if code, ok := s.Reject[r.Name]; ok {
		return &xrender.ProtocolError{Request: r.Name, Code: code, Name: fmt.Sprintf("Error%d", code)}
	}
	return nil
}

func (s *Server) newID() uint32 {
	s.nextID++
	return s.nextID
}

func (s *Server) QueryPictFormats() (*render.QueryPictFormatsReply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record(Request{Name: "QueryPictFormats"}); err != nil {
		return nil, err
	}
	return s.Reply, nil
}

func (s *Server) CreateGlyphSet(format render.Pictformat) (render.Glyphset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := render.Glyphset(s.newID())
	if err := s.record(Request{Name: "CreateGlyphSet", Target: uint32(id)}); err != nil {
		return 0, err
	}
	s.GlyphSets[id] = make(map[uint32]render.Glyphinfo)
	return id, nil
}

func (s *Server) AddGlyphs(gs render.Glyphset, ids []uint32, infos []render.Glyphinfo, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.record(Request{Name: "AddGlyphs", Target: uint32(gs), IDs: ids, Infos: infos, Data: data})
	if err != nil {
		return err
	}
	set, ok := s.GlyphSets[gs]
	if !ok {
		return &xrender.ProtocolError{Request: "AddGlyphs", Code: render.BadGlyphSet, Name: "BadGlyphSet"}
	}
	for i, id := range ids {
		set[id] = infos[i]
	}
	return nil
}

func (s *Server) FreeGlyphSet(gs render.Glyphset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record(Request{Name: "FreeGlyphSet", Target: uint32(gs)}); err != nil {
		return err
	}
	if _, ok := s.GlyphSets[gs]; !ok {
		return &xrender.ProtocolError{Request: "FreeGlyphSet", Code: render.BadGlyphSet, Name: "BadGlyphSet"}
	}
	delete(s.GlyphSets, gs)
	return nil
}

func (s *Server) CreatePicture(drawable xproto.Drawable, format render.Pictformat) (render.Picture, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pic := render.Picture(s.newID())
	if err := s.record(Request{Name: "CreatePicture", Target: uint32(pic)}); err != nil {
		return 0, err
	}
	s.Pictures[pic] = true
	return pic, nil
}

func (s *Server) CreateSolidFill(color render.Color) (render.Picture, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pic := render.Picture(s.newID())
	if err := s.record(Request{Name: "CreateSolidFill", Target: uint32(pic)}); err != nil {
		return 0, err
	}
	s.Pictures[pic] = true
	return pic, nil
}

func (s *Server) FillRectangles(op byte, dst render.Picture, color render.Color, rects []xproto.Rectangle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record(Request{Name: "FillRectangles", Target: uint32(dst)})
}

func (s *Server) CompositeGlyphs(width int, op byte, src, dst render.Picture, mask render.Pictformat,
	gs render.Glyphset, srcX, srcY int16, cmds []byte) error {
	//
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.record(Request{Name: "CompositeGlyphs", Target: uint32(dst), Width: width,
		Stream: append([]byte(nil), cmds...)})
	if err != nil {
		return err
	}
	set, ok := s.GlyphSets[gs]
	if !ok {
		return &xrender.ProtocolError{Request: "CompositeGlyphs", Code: render.BadGlyphSet, Name: "BadGlyphSet"}
	}
	runs, err := xrender.DecodeRuns(cmds, width)
	if err != nil {
		return &xrender.ProtocolError{Request: "CompositeGlyphs", Code: xproto.BadLength, Name: "BadLength", Err: err}
	}
	for _, r := range runs {
		for _, id := range r.IDs {
			if _, ok := set[id]; !ok {
				return &xrender.ProtocolError{Request: "CompositeGlyphs", Code: render.BadGlyph, Name: "BadGlyph"}
			}
		}
	}
	return nil
}

func (s *Server) FreePicture(pic render.Picture) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record(Request{Name: "FreePicture", Target: uint32(pic)}); err != nil {
		return err
	}
	if !s.Pictures[pic] {
		return &xrender.ProtocolError{Request: "FreePicture", Code: render.BadPicture, Name: "BadPicture"}
	}
	delete(s.Pictures, pic)
	return nil
}
