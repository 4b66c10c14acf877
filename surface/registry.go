// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import "fmt"

// Registry tracks every live surface and its tiles, keyed by ID. It is owned
// exclusively by the render thread: the orchestrator never touches it from
// the worker goroutine, so no locking is needed (spec's shared-resource
// policy only requires synchronization for GraphNode and locked rasterizer
// resources, not for this bookkeeping table).
type Registry struct {
	surfaces map[ID]*Surface
}

// NewRegistry creates an empty surface/tile registry.
func NewRegistry() *Registry {
	return &Registry{surfaces: make(map[ID]*Surface)}
}

// ErrSurfaceExists is returned by CreateSurface/CreateExternalSurface when
// the given ID is already in use.
type ErrSurfaceExists struct{ ID ID }

func (e *ErrSurfaceExists) Error() string { return fmt.Sprintf("surface: id %d already exists", e.ID) }

// ErrSurfaceNotFound is a contract violation: an operation referenced a
// surface ID that doesn't exist.
type ErrSurfaceNotFound struct{ ID ID }

func (e *ErrSurfaceNotFound) Error() string { return fmt.Sprintf("surface: id %d not found", e.ID) }

// ErrTileNotFound is a contract violation: an operation referenced a tile
// that doesn't exist.
type ErrTileNotFound struct{ ID TileID }

func (e *ErrTileNotFound) Error() string {
	return fmt.Sprintf("surface: tile (%d,%d,%d) not found", e.ID.Surface, e.ID.X, e.ID.Y)
}

// CreateSurface registers a new CPU-tiled surface. Returns ErrSurfaceExists
// if id is already in use.
func (r *Registry) CreateSurface(id ID, tileSize [2]int32, opaque bool) error {
	if _, ok := r.surfaces[id]; ok {
		return &ErrSurfaceExists{ID: id}
	}
	r.surfaces[id] = &Surface{ID: id, TileSize: tileSize, Opaque: opaque}
	return nil
}

// CreateExternalSurface registers a new externally-sourced surface: zero
// tile size, and a single (0,0) tile is created implicitly encompassing the
// whole externally-sourced image.
func (r *Registry) CreateExternalSurface(id ID, opaque bool) error {
	if _, ok := r.surfaces[id]; ok {
		return &ErrSurfaceExists{ID: id}
	}
	s := &Surface{ID: id, Opaque: opaque}
	s.Tiles = append(s.Tiles, &Tile{ID: TileID{Surface: id, X: 0, Y: 0}})
	r.surfaces[id] = s
	return nil
}

// DestroySurface removes a surface and all its tiles.
func (r *Registry) DestroySurface(id ID) error {
	if _, ok := r.surfaces[id]; !ok {
		return &ErrSurfaceNotFound{ID: id}
	}
	delete(r.surfaces, id)
	return nil
}

// Surface returns the surface with the given ID, or nil.
func (r *Registry) Surface(id ID) *Surface { return r.surfaces[id] }

// CreateTile adds a tile at the given coordinates to an existing surface.
// Returns ErrSurfaceNotFound if the surface doesn't exist. I1 (uniqueness of
// (SurfaceId,x,y)) is enforced by refusing to add a duplicate.
func (r *Registry) CreateTile(id TileID) error {
	s, ok := r.surfaces[id.Surface]
	if !ok {
		return &ErrSurfaceNotFound{ID: id.Surface}
	}
	if s.Tile(id.X, id.Y) != nil {
		return nil // idempotent: tile already present
	}
	s.Tiles = append(s.Tiles, &Tile{ID: id})
	return nil
}

// DestroyTile removes a tile from its surface.
func (r *Registry) DestroyTile(id TileID) error {
	s, ok := r.surfaces[id.Surface]
	if !ok {
		return &ErrSurfaceNotFound{ID: id.Surface}
	}
	for i, t := range s.Tiles {
		if t.ID.X == id.X && t.ID.Y == id.Y {
			s.Tiles = append(s.Tiles[:i], s.Tiles[i+1:]...)
			return nil
		}
	}
	return &ErrTileNotFound{ID: id}
}

// Tile returns the tile with the given ID, or nil.
func (r *Registry) Tile(id TileID) *Tile {
	s, ok := r.surfaces[id.Surface]
	if !ok {
		return nil
	}
	return s.Tile(id.X, id.Y)
}

// MaxTileSize returns the largest tile width/height seen across every
// registered surface, used to size the shared depth texture (spec §4.6 bind).
func (r *Registry) MaxTileSize() (w, h int32) {
	for _, s := range r.surfaces {
		if s.TileSize[0] > w {
			w = s.TileSize[0]
		}
		if s.TileSize[1] > h {
			h = s.TileSize[1]
		}
	}
	return w, h
}

// ForEachTile calls fn for every tile across every surface, in no
// particular order. Used by begin_frame's per-frame reset.
func (r *Registry) ForEachTile(fn func(*Tile)) {
	for _, s := range r.surfaces {
		for _, t := range s.Tiles {
			fn(t)
		}
	}
}
