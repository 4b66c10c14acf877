// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build hwfallback

package hwfallback

import (
	"fmt"

	"github.com/gogpu/gpucontext"
)

// ErrShaderLinkFailed is returned by NewOverlay when the supplied device
// handle is nil or has no backing Device. It is reported at construction
// time rather than during the first draw. NewOverlay does not compile or
// link debugShaderWGSL itself.
var ErrShaderLinkFailed = fmt.Errorf("hwfallback: debug overlay shader link failed")

// debugShaderWGSL draws a textured quad that samples the uploaded
// band-visualization texture. No code in this package compiles it.
const debugShaderWGSL = `
@group(0) @binding(0) var bandTexture: texture_2d<f32>;
@group(0) @binding(1) var bandSampler: sampler;

struct VertexOut {
    @builtin(position) position: vec4<f32>,
    @location(0) uv: vec2<f32>,
}

@vertex
fn vs_main(@location(0) pos: vec2<f32>, @location(1) uv: vec2<f32>) -> VertexOut {
    var out: VertexOut;
    out.position = vec4<f32>(pos, 0.0, 1.0);
    out.uv = uv;
    return out;
}

@fragment
fn fs_main(in: VertexOut) -> @location(0) vec4<f32> {
    return textureSample(bandTexture, bandSampler, in.uv);
}
`

// textureDestroyer duck-types the Destroy() method that every gogpu
// texture implementation exposes, mirroring ggcanvas.textureDestroyer —
// a local interface avoids requiring a concrete texture type from
// gpucontext, which only commits to the narrower TextureUpdater contract.
type textureDestroyer interface {
	Destroy()
}

// Overlay uploads a BGRA8 band-visualization buffer to a GPU texture each
// frame, via a host-supplied DeviceHandle. It never participates in
// compositing, and the orchestrator does not call Upload.
type Overlay struct {
	device  DeviceHandle
	texture any // lazily created GPU texture; nil until the first Upload
	width   int
	height  int
}

// NewOverlay creates a debug overlay bound to device. Returns
// ErrShaderLinkFailed if device is nil or device.Device() is nil.
func NewOverlay(device DeviceHandle) (*Overlay, error) {
	if device == nil || device.Device() == nil {
		return nil, ErrShaderLinkFailed
	}
	return &Overlay{device: device}, nil
}

// Upload pushes a BGRA8 band-visualization buffer to the overlay texture
// when one exists with unchanged dimensions and implements
// gpucontext.TextureUpdater; otherwise it only records width and height
// and returns nil.
func (o *Overlay) Upload(pixels []byte, width, height int) error {
	if o.texture != nil && o.width == width && o.height == height {
		if updater, ok := o.texture.(gpucontext.TextureUpdater); ok {
			return updater.UpdateData(pixels)
		}
	}
	o.width, o.height = width, height
	// No texture is created here, and nothing else in this package sets
	// o.texture, so it stays nil.
	return nil
}

// Destroy releases the overlay's GPU texture, if one was created.
func (o *Overlay) Destroy() {
	if d, ok := o.texture.(textureDestroyer); ok {
		d.Destroy()
	}
	o.texture = nil
}
