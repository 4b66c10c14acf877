package nativepass

import "github.com/gogpu/swcompositor/surface"

// Backend is a native compositor that the orchestrator can forward
// surface and tile lifecycle events to, when compositing should be
// shared between the software path and a platform's own compositor.
type Backend interface {
	Name() string

	CreateSurface(id surface.ID, tileSize [2]int32, opaque bool) error
	CreateExternalSurface(id surface.ID, opaque bool) error
	DestroySurface(id surface.ID) error

	CreateTile(id surface.TileID) error
	DestroyTile(id surface.TileID) error

	AttachExternalImage(id surface.ID, external surface.ExternalImageID) error

	Deinit() error
}

// NullBackend is a Backend whose every method is a no-op, registered
// under the name "null" as the always-available fallback when no real
// native compositor is present on the platform.
type NullBackend struct{}

func (NullBackend) Name() string                                         { return "null" }
func (NullBackend) CreateSurface(surface.ID, [2]int32, bool) error        { return nil }
func (NullBackend) CreateExternalSurface(surface.ID, bool) error         { return nil }
func (NullBackend) DestroySurface(surface.ID) error                      { return nil }
func (NullBackend) CreateTile(surface.TileID) error                      { return nil }
func (NullBackend) DestroyTile(surface.TileID) error                     { return nil }
func (NullBackend) AttachExternalImage(surface.ID, surface.ExternalImageID) error { return nil }
func (NullBackend) Deinit() error                                        { return nil }

func init() {
	Register("null", func() Backend { return NullBackend{} })
}
