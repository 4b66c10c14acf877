// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import "math"

// Rect is a device-integer rectangle, half-open: [X0,X1) x [Y0,Y1).
type Rect struct {
	X0, Y0, X1, Y1 int32
}

// NewRect builds a rect from an origin and size.
func NewRect(x, y, w, h int32) Rect {
	return Rect{X0: x, Y0: y, X1: x + w, Y1: y + h}
}

// Width returns the rect's width. Negative if malformed.
func (r Rect) Width() int32 { return r.X1 - r.X0 }

// Height returns the rect's height. Negative if malformed.
func (r Rect) Height() int32 { return r.Y1 - r.Y0 }

// Empty reports whether the rect covers no area.
func (r Rect) Empty() bool { return r.X1 <= r.X0 || r.Y1 <= r.Y0 }

// Intersect returns the intersection of r and o. The result is Empty if the
// rects do not overlap.
func (r Rect) Intersect(o Rect) Rect {
	out := Rect{
		X0: max32(r.X0, o.X0),
		Y0: max32(r.Y0, o.Y0),
		X1: min32(r.X1, o.X1),
		Y1: min32(r.Y1, o.Y1),
	}
	if out.Empty() {
		return Rect{}
	}
	return out
}

// Union returns the smallest rect containing both r and o. An empty operand
// does not contribute.
func (r Rect) Union(o Rect) Rect {
	if r.Empty() {
		return o
	}
	if o.Empty() {
		return r
	}
	return Rect{
		X0: min32(r.X0, o.X0),
		Y0: min32(r.Y0, o.Y0),
		X1: max32(r.X1, o.X1),
		Y1: max32(r.Y1, o.Y1),
	}
}

// Contains reports whether o is fully contained within r.
func (r Rect) Contains(o Rect) bool {
	if o.Empty() {
		return true
	}
	return o.X0 >= r.X0 && o.Y0 >= r.Y0 && o.X1 <= r.X1 && o.Y1 <= r.Y1
}

// Translate shifts the rect by (dx, dy).
func (r Rect) Translate(dx, dy int32) Rect {
	return Rect{X0: r.X0 + dx, Y0: r.Y0 + dy, X1: r.X1 + dx, Y1: r.Y1 + dy}
}

// Origin returns the rect's top-left corner.
func (r Rect) Origin() (int32, int32) { return r.X0, r.Y0 }

// FloatRect is a floating-point rectangle, used as the intermediate result of
// transforming a Rect by an affine Transform, before rounding.
type FloatRect struct {
	X0, Y0, X1, Y1 float64
}

// RoundOut rounds a FloatRect outward to the smallest enclosing Rect, never
// under-sampling the destination. Used for destination rects (spec policy:
// destination rounds outward).
func (r FloatRect) RoundOut() Rect {
	return Rect{
		X0: int32(math.Floor(r.X0)),
		Y0: int32(math.Floor(r.Y0)),
		X1: int32(math.Ceil(r.X1)),
		Y1: int32(math.Ceil(r.Y1)),
	}
}

// RoundNearest rounds a FloatRect to the nearest integer Rect. Used for
// source rects back-projected into surface-local coordinates (spec policy:
// source rounds to nearest).
func (r FloatRect) RoundNearest() Rect {
	return Rect{
		X0: int32(math.Round(r.X0)),
		Y0: int32(math.Round(r.Y0)),
		X1: int32(math.Round(r.X1)),
		Y1: int32(math.Round(r.Y1)),
	}
}

func max32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}

func min32(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}
