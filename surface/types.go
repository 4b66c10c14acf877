// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

// ID identifies a surface, opaque to the orchestrator's caller.
type ID uint64

// ExternalImageID identifies an externally-provided image (typically video)
// locked via an ExternalImageProvider.
type ExternalImageID uint64

// TileID identifies a tile within a surface by integer grid coordinates.
type TileID struct {
	Surface ID
	X, Y    int32
}

// Filter selects the sampling filter used when a job is composited.
type Filter uint8

const (
	// FilterLinear samples with bilinear interpolation.
	FilterLinear Filter = iota
	// FilterPixelated samples with nearest-neighbor (no interpolation).
	FilterPixelated
)

// YUVColorSpace identifies the color space of a planar or semi-planar YUV
// external image, mirroring the original WrYuvColorSpace enum.
type YUVColorSpace uint8

const (
	YUVColorSpaceRec601 YUVColorSpace = iota
	YUVColorSpaceRec709
	YUVColorSpaceRec2020
	YUVColorSpaceIdentity
)

// ColorDepth is the per-channel bit depth of a locked external image.
type ColorDepth uint8

const (
	ColorDepth8  ColorDepth = 8
	ColorDepth10 ColorDepth = 10
	ColorDepth12 ColorDepth = 12
	ColorDepth16 ColorDepth = 16
)

// PlaneCount returns how many texture planes a CompositeSurfaceInfo carries.
// 0 means BGRA single-plane, 1 means interleaved (NV24-like), 2 means NV12,
// 3 means fully planar (I420-like).
type PlaneCount uint8

const (
	PlanesBGRA        PlaneCount = 0
	PlanesInterleaved PlaneCount = 1
	PlanesNV12        PlaneCount = 2
	PlanesPlanar      PlaneCount = 3
)
