// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

// Origin returns the tile's top-left corner in surface-local pixel
// coordinates: (x*tile_w, y*tile_h). External surfaces have a single tile
// at (0,0), so Origin is always (0,0) for them.
func (t *Tile) Origin(s *Surface) (int32, int32) {
	return t.ID.X * s.TileSize[0], t.ID.Y * s.TileSize[1]
}

// cell returns the tile's full grid cell in surface-local coordinates
// (origin to origin+tile_size), used as the conservative fallback when the
// tile is Invalid.
func (t *Tile) cell(s *Surface) Rect {
	ox, oy := t.Origin(s)
	return NewRect(ox, oy, s.TileSize[0], s.TileSize[1])
}

// OverlapRect computes the conservative device-space bounding rectangle
// used for dependency tests. If the tile is Invalid, the full tile cell is
// used; otherwise ValidRect translated to surface coordinates is used. The
// rect is forward-transformed (corners rounded out) and intersected with
// clip. ok is false if the result is empty.
func (t *Tile) OverlapRect(s *Surface, transform Transform, clip Rect) (r Rect, ok bool) {
	var local Rect
	if t.Invalid {
		local = t.cell(s)
	} else {
		ox, oy := t.Origin(s)
		local = t.ValidRect.Translate(ox, oy)
	}
	if local.Empty() {
		return Rect{}, false
	}
	dev := transform.TransformRectOuter(local).RoundOut()
	dev = dev.Intersect(clip)
	if dev.Empty() {
		return Rect{}, false
	}
	return dev, true
}

// CompositeRects computes the precise source and destination rectangles
// used when a job is actually issued, plus whether the transform flips the
// Y axis. ok is false if clipping away leaves nothing to composite.
func (t *Tile) CompositeRects(s *Surface, transform Transform, clip Rect) (src, dst Rect, flipY bool, ok bool) {
	if t.ValidRect.Empty() {
		return Rect{}, Rect{}, false, false
	}
	ox, oy := t.Origin(s)
	localValid := t.ValidRect.Translate(ox, oy)

	dev := transform.TransformRectOuter(localValid).RoundOut()
	dst = dev.Intersect(clip)
	if dst.Empty() {
		return Rect{}, Rect{}, false, false
	}

	inv := transform.Invert()
	backprojected := inv.TransformRectOuter(dst).RoundNearest()
	// src is in surface-local coordinates relative to the valid rect's own
	// origin, per spec: "subtract the valid-rect origin".
	vx0, vy0 := t.ValidRect.Origin()
	src = backprojected.Translate(-ox-vx0, -oy-vy0)

	return src, dst, transform.FlipsY(), true
}

// MayOverlap reports whether this tile (as a candidate producer under its
// own surface/transform/clip) may overlap the consumer's conservative
// overlap rect ovR.
func (t *Tile) MayOverlap(s *Surface, transform Transform, clip Rect, ovR Rect) bool {
	r, ok := t.OverlapRect(s, transform, clip)
	if !ok {
		return false
	}
	return !r.Intersect(ovR).Empty()
}
