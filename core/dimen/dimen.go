// Package dimen implements dimensions and units.
//
// Shaping results are given in 26.6 fixed-point pixels, i.e. in 64ths of
// a device pixel. The display server, on the other hand, positions glyphs
// on integer pixels. This package converts between the two.
//
/*
BSD License

Copyright (c) 2017–21, Norbert Pillmayer (norbert@pillmayer.com)

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
OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH DAMAGE.  */
package dimen

import (
	"fmt"
	"math"

	"golang.org/x/image/math/fixed"
)

// One is one pixel in 26.6 fixed-point.
const One fixed.Int26_6 = 64

// DefaultDPI is the resolution font sizes are interpreted at.
// At 72 DPI a point size equals the pixels-per-em.
const DefaultDPI = 72.0

// Round rounds a 26.6 value to the nearest pixel, halfway cases away
// from zero. fixed.Int26_6.Round rounds halfway cases up, which would
// move negative offsets of exactly one half pixel to 0 instead of -1.
func Round(v fixed.Int26_6) int {
	if v < 0 {
		return -int((-v + 32) >> 6)
	}
	return int((v + 32) >> 6)
}

// Pixels returns a 26.6 value as a floating point number of pixels.
func Pixels(v fixed.Int26_6) float64 {
	return float64(v) / 64.0
}

// FromPixels converts a floating point number of pixels to 26.6.
func FromPixels(px float64) fixed.Int26_6 {
	return fixed.Int26_6(math.Round(px * 64))
}

// PPEM returns the pixels-per-em for a font size in points at a given
// resolution.
func PPEM(ptsize float64, dpi float64) float64 {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return ptsize * dpi / 72.0
}

// Point is a position in device pixels.
type Point struct {
	X, Y int
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Rect is a rectangle in device pixels.
type Rect struct {
	TopL, BotR Point
}

// Width returns the width of a rectangle, i.e. the difference between x-coordinates
// of bottom-right and top-left corner.
func (r Rect) Width() int {
	return r.BotR.X - r.TopL.X
}

// Height returns the height of a rectangle, i.e. the difference between y-coordinates
// of bottom-right and top-left corner.
func (r Rect) Height() int {
	return r.BotR.Y - r.TopL.Y
}

// Clamp16 clamps a pixel value to the range of the 16-bit coordinates
// used on the wire.
func Clamp16(v int) int16 {
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}

// ClampU16 clamps a pixel extent to the range of 16-bit unsigned extents
// used on the wire.
func ClampU16(v int) uint16 {
	if v > math.MaxUint16 {
		return math.MaxUint16
	}
	if v < 0 {
		return 0
	}
	return uint16(v)
}

// Min returns the smaller of two values.
func Min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Max returns the greater of two values.
func Max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
