// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

// GraphNode is the minimal surface a tile's attached dependency-graph node
// must expose to this package: reset-ability at the start of a frame. The
// concrete node (atomic parent/band counters, child list, attached job)
// lives in internal/job, which imports this package for geometry types;
// keeping the dependency direction one-way means this package only needs
// the sliver of the node's API it actually calls.
type GraphNode interface {
	Reset()
}

// Surface is a tiled 2D image with a single affine transform and opacity
// flag, identified by an opaque ID. A Surface either owns CPU-rendered
// tiles updated via Bind/Unbind, or is "external" (zero TileSize, exactly
// one tile at (0,0), pixels supplied by an ExternalImageProvider).
type Surface struct {
	ID       ID
	TileSize [2]int32 // width, height; zero for external surfaces
	Opaque   bool

	// External is non-zero for surfaces whose pixels come from an
	// ExternalImageProvider rather than Bind/Unbind.
	External ExternalImageID

	// Tiles is the ordered list of tiles belonging to this surface. Order
	// has no compositing significance (that is frame_surfaces' job); it
	// only determines iteration order for bookkeeping like init_overlaps.
	Tiles []*Tile

	// CompositeInfo is the locked external image info, valid for one frame,
	// populated by AddSurface on external surfaces and cleared at end_frame.
	CompositeInfo CompositeSurfaceInfo
	hasComposite  bool
}

// IsExternal reports whether the surface is externally sourced.
func (s *Surface) IsExternal() bool { return s.External != 0 || (s.TileSize[0] == 0 && s.TileSize[1] == 0) }

// Tile returns the tile at (x,y), or nil if absent.
func (s *Surface) Tile(x, y int32) *Tile {
	for _, t := range s.Tiles {
		if t.ID.X == x && t.ID.Y == y {
			return t
		}
	}
	return nil
}

// SetCompositeInfo records a successfully locked external image for this
// frame and marks the tile's valid rect to the locked surface size.
func (s *Surface) SetCompositeInfo(info CompositeSurfaceInfo) {
	s.CompositeInfo = info
	s.hasComposite = true
	if t := s.Tile(0, 0); t != nil {
		t.ValidRect = NewRect(0, 0, info.Width, info.Height)
		t.DirtyRect = t.ValidRect
	}
}

// ClearCompositeInfo drops the locked external image (lock failure, or end
// of frame), leaving the tile a no-op for queue_composite.
func (s *Surface) ClearCompositeInfo() {
	s.CompositeInfo = CompositeSurfaceInfo{}
	s.hasComposite = false
	if t := s.Tile(0, 0); t != nil {
		t.ValidRect = Rect{}
	}
}

// HasCompositeInfo reports whether a locked external image is attached.
func (s *Surface) HasCompositeInfo() bool { return s.hasComposite }

// CompositeSurfaceInfo describes an externally-provided surface's locked
// image: plane layout, textures, color space/depth, and source size.
type CompositeSurfaceInfo struct {
	Planes       PlaneCount
	PlaneTexture [3]uint32 // rasterizer texture IDs, one per plane
	ColorSpace   YUVColorSpace
	Depth        ColorDepth
	Width        int32
	Height       int32
}

// Tile is one fixed-size cell of a surface's tile grid, or (for external
// surfaces) the single (0,0) tile spanning the whole external image.
type Tile struct {
	ID TileID

	// Framebuffer and ColorTexture are rasterizer resource IDs for this
	// tile's CPU-rendered contents.
	Framebuffer  uint32
	ColorTexture uint32

	// Staging is a CPU-side staging buffer ID, used only on the hardware-GL
	// fallback path (hwfallback); zero when unused.
	Staging uint32

	// DirtyRect and ValidRect are device-integer rects describing the
	// latest update, set by Bind.
	DirtyRect Rect
	ValidRect Rect

	// Overlaps is the remaining unresolved producer-dependency count for
	// this frame, maintained by the orchestrator's init_overlaps/
	// flush_composites (the "optimistic" dependency mechanism, distinct
	// from the graph node's atomic parents counter).
	Overlaps int

	// Invalid is set by InvalidateTile; forces conservative OverlapRect
	// bounds and a self-dependency for this frame.
	Invalid bool

	// Node is this tile's attached dependency-graph node, reset every
	// frame and populated with a job by the orchestrator.
	Node GraphNode
}

// Reset clears per-frame state at the start of begin_frame: overlaps to
// zero, invalid to false, and (if set) the attached graph node.
func (t *Tile) Reset() {
	t.Overlaps = 0
	t.Invalid = false
	if t.Node != nil {
		t.Node.Reset()
	}
}
