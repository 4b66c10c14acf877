// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

// Transform is a 2D affine transformation matrix, reusing the field layout
// and naming of gogpu/gg's Matrix (A,B,C / D,E,F row-major 2x3):
//
//	x' = A*x + B*y + C
//	y' = D*x + E*y + F
//
// Field E is the spec's "m22": a negative E flips the Y axis.
type Transform struct {
	A, B, C float64
	D, E, F float64
}

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{A: 1, B: 0, C: 0, D: 0, E: 1, F: 0}
}

// Translation returns a pure-translation transform.
func Translation(x, y float64) Transform {
	return Transform{A: 1, B: 0, C: x, D: 0, E: 1, F: y}
}

// FlipsY reports whether this transform inverts the vertical axis, i.e.
// whether field E (the spec's m22) is negative.
func (t Transform) FlipsY() bool { return t.E < 0 }

// TransformPoint maps a point through the transform.
func (t Transform) TransformPoint(x, y float64) (float64, float64) {
	return t.A*x + t.B*y + t.C, t.D*x + t.E*y + t.F
}

// Invert returns the inverse transform. Returns the identity if the
// transform is singular (determinant exactly zero); callers that need back-projection
// must not call this on a singular transform, as overlap tests already
// degenerate safely to an empty rect in that case.
func (t Transform) Invert() Transform {
	det := t.A*t.E - t.B*t.D
	if det == 0 {
		return Identity()
	}
	inv := 1 / det
	return Transform{
		A: t.E * inv,
		B: -t.B * inv,
		C: (t.B*t.F - t.C*t.E) * inv,
		D: -t.D * inv,
		E: t.A * inv,
		F: (t.C*t.D - t.A*t.F) * inv,
	}
}

// TransformRectOuter maps a Rect through the transform and returns the
// bounding box of the mapped corners as an unrounded FloatRect; callers
// round it (RoundOut for destination rects, per spec's destination rounding
// policy). This transforms all four corners (not just two), so it is correct under
// rotation as well as the common axis-aligned scale/translate case.
func (t Transform) TransformRectOuter(r Rect) FloatRect {
	return t.transformCorners(r).RoundOutFloat()
}

// transformCorners maps the four corners of r and returns their bounding
// box as a FloatRect (not yet rounded).
func (t Transform) transformCorners(r Rect) floatCorners {
	x0, y0 := t.TransformPoint(float64(r.X0), float64(r.Y0))
	x1, y1 := t.TransformPoint(float64(r.X1), float64(r.Y0))
	x2, y2 := t.TransformPoint(float64(r.X0), float64(r.Y1))
	x3, y3 := t.TransformPoint(float64(r.X1), float64(r.Y1))
	return floatCorners{
		minX: minOf4(x0, x1, x2, x3),
		minY: minOf4(y0, y1, y2, y3),
		maxX: maxOf4(x0, x1, x2, x3),
		maxY: maxOf4(y0, y1, y2, y3),
	}
}

type floatCorners struct {
	minX, minY, maxX, maxY float64
}

// RoundOutFloat converts the corner bounding box to an un-rounded FloatRect,
// letting the caller choose RoundOut or RoundNearest.
func (c floatCorners) RoundOutFloat() FloatRect {
	return FloatRect{X0: c.minX, Y0: c.minY, X1: c.maxX, Y1: c.maxY}
}

func minOf4(a, b, c, d float64) float64 {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	if d < m {
		m = d
	}
	return m
}

func maxOf4(a, b, c, d float64) float64 {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	if d > m {
		m = d
	}
	return m
}
