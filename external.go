package swcompositor

import (
	"context"

	"github.com/gogpu/swcompositor/surface"
)

// ExternalImageProvider supplies pixel data for externally-sourced
// surfaces (typically decoded video frames) that the compositor itself
// never produces. AddSurface calls Lock on every external surface added
// this frame; EndFrame calls Unlock once per successful Lock, regardless
// of how many times AddSurface referenced that surface in the frame.
//
// A provider that cannot currently supply an image (no frame ready,
// decode in flight) returns ok=false rather than blocking; the
// compositor then treats the surface's tile as a no-op for this frame
// (spec §7, "External image lock failure").
type ExternalImageProvider interface {
	Lock(ctx context.Context, id surface.ExternalImageID) (info surface.CompositeSurfaceInfo, ok bool)
	Unlock(ctx context.Context, id surface.ExternalImageID)
}

// NativeSurfaceInfo is returned by Bind: the framebuffer the caller should
// render into, and the origin offset the caller must apply so its drawing
// commands are expressed in surface-local (not valid-rect-local)
// coordinates.
type NativeSurfaceInfo struct {
	Origin [2]int32
	FBO    uint32
}

// CompositorCapabilities describes optional behaviors the orchestrator
// and its native pass-through jointly support, surfaced to the frame
// driver via GetCapabilities so it can decide whether to rely on them.
type CompositorCapabilities struct {
	// VirtualSurfaces is true while native pass-through is enabled.
	// CreateSurface's virtual_offset parameter is not forwarded to the
	// native backend (Backend.CreateSurface has no such parameter) and is
	// unused by the software path, which performs no surface
	// virtualization of its own.
	VirtualSurfaces bool
}
