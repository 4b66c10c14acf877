// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rasterizer

import "sync/atomic"

// ColorFormat is a pixel format for a texture or framebuffer.
type ColorFormat uint8

const (
	ColorFormatBGRA8 ColorFormat = iota
	ColorFormatRGBA8
	ColorFormatR8
	// ColorFormatDepth16 is used only for the orchestrator's shared depth
	// texture rebound alongside a tile's color texture in Bind; the
	// software composite path never depth-tests, so this format exists
	// purely to give that texture a plausible size/format pairing.
	ColorFormatDepth16
)

// BytesPerPixel returns the number of bytes a single pixel occupies.
func (f ColorFormat) BytesPerPixel() int {
	switch f {
	case ColorFormatR8:
		return 1
	case ColorFormatDepth16:
		return 2
	default:
		return 4
	}
}

// TextureID identifies a texture allocated in a Context.
type TextureID uint32

// FramebufferID identifies a framebuffer allocated in a Context.
type FramebufferID uint32

// StagingBufferID identifies a CPU-side staging buffer, used only on the
// hardware-GL fallback path.
type StagingBufferID uint32

// resourceData is the shared, refcounted payload behind a LockedResource.
// Exactly one of these exists per lock acquisition chain; Clone shares it,
// Unlock drops a reference and the last Unlock releases the backing slice.
type resourceData struct {
	refs    atomic.Int32
	pixels  []byte
	width   int
	height  int
	stride  int
	release func()
}

// LockedResource is a Send-safe, reference-counted handle to a texture's or
// framebuffer's backing pixels, obtained via Context.LockTexture or
// Context.LockFramebuffer. It remains valid until every clone has been
// Unlocked. Composite band processing only ever touches an already-locked
// resource — it never calls back into the owning Context.
type LockedResource struct {
	data *resourceData
}

// newLockedResource wraps pixels as a fresh, single-reference locked
// resource. release (if non-nil) is invoked exactly once, when the last
// reference is unlocked.
func newLockedResource(pixels []byte, width, height, stride int, release func()) LockedResource {
	d := &resourceData{pixels: pixels, width: width, height: height, stride: stride, release: release}
	d.refs.Store(1)
	return LockedResource{data: d}
}

// Clone returns a new handle sharing the same backing pixels, incrementing
// the reference count. Safe to call from any goroutine; the clone must be
// independently Unlocked. Cloning an invalid handle returns an invalid
// handle.
func (l LockedResource) Clone() LockedResource {
	if l.data == nil {
		return LockedResource{}
	}
	l.data.refs.Add(1)
	return LockedResource{data: l.data}
}

// Unlock drops this handle's reference. When the last reference is
// dropped, the resource's release callback runs (if any).
func (l LockedResource) Unlock() {
	if l.data.refs.Add(-1) == 0 && l.data.release != nil {
		l.data.release()
	}
}

// Valid reports whether the handle actually wraps pixels (a zero
// LockedResource, as returned on lock failure, is invalid).
func (l LockedResource) Valid() bool { return l.data != nil }

// Pixels returns the backing byte slice. Concurrent readers of the source
// and disjoint-region writers of the destination are safe per the
// rasterizer's contract; callers must not overlap writes.
func (l LockedResource) Pixels() []byte { return l.data.pixels }

// Width, Height and Stride describe the locked buffer's layout.
func (l LockedResource) Width() int  { return l.data.width }
func (l LockedResource) Height() int { return l.data.height }
func (l LockedResource) Stride() int { return l.data.stride }
