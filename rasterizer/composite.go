// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rasterizer

import (
	"encoding/binary"
	"image"
	"image/color"

	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/swcompositor/surface"
)

// bgraImage adapts a BGRA8-ordered byte buffer to image.Image so it can
// drive golang.org/x/image/draw's scalers without a copy.
type bgraImage struct {
	pix    []byte
	stride int
	rect   image.Rectangle
}

func (b *bgraImage) ColorModel() color.Model { return color.RGBAModel }
func (b *bgraImage) Bounds() image.Rectangle { return b.rect }
func (b *bgraImage) At(x, y int) color.Color {
	i := (y-b.rect.Min.Y)*b.stride + (x-b.rect.Min.X)*4
	if i < 0 || i+4 > len(b.pix) {
		return color.RGBA{}
	}
	return color.RGBA{R: b.pix[i+2], G: b.pix[i+1], B: b.pix[i], A: b.pix[i+3]}
}

// rgbaWriter is a minimal draw.Image over a BGRA8 byte buffer, the
// destination side of Composite.
type rgbaWriter struct {
	pix    []byte
	stride int
	rect   image.Rectangle
}

func (w *rgbaWriter) ColorModel() color.Model { return color.RGBAModel }
func (w *rgbaWriter) Bounds() image.Rectangle { return w.rect }
func (w *rgbaWriter) At(x, y int) color.Color {
	i := (y-w.rect.Min.Y)*w.stride + (x-w.rect.Min.X)*4
	if i < 0 || i+4 > len(w.pix) {
		return color.RGBA{}
	}
	return color.RGBA{R: w.pix[i+2], G: w.pix[i+1], B: w.pix[i], A: w.pix[i+3]}
}
func (w *rgbaWriter) Set(x, y int, c color.Color) {
	i := (y-w.rect.Min.Y)*w.stride + (x-w.rect.Min.X)*4
	if i < 0 || i+4 > len(w.pix) {
		return
	}
	r, g, b, a := c.RGBA()
	w.pix[i] = byte(b >> 8)
	w.pix[i+1] = byte(g >> 8)
	w.pix[i+2] = byte(r >> 8)
	w.pix[i+3] = byte(a >> 8)
}

func scalerFor(filter surface.Filter) xdraw.Scaler {
	if filter == surface.FilterPixelated {
		return xdraw.NearestNeighbor
	}
	return xdraw.ApproxBiLinear
}

// Composite blits srcRect of src into dstRect of dst, clipped to band, using
// filter to choose the scaling kernel. flipY inverts the source's vertical
// read order, matching a surface whose transform has a negative Y scale.
// opaque hints that the source has no meaningful alpha channel, letting the
// blit overwrite destination pixels directly instead of alpha-blending.
func Composite(src, dst LockedResource, srcRect, dstRect, band surface.Rect, flipY bool, opaque bool, filter surface.Filter) {
	clipped := band.Intersect(dstRect)
	if clipped.Empty() || !src.Valid() || !dst.Valid() {
		return
	}

	srcImg := &bgraImage{pix: src.Pixels(), stride: src.Stride(), rect: image.Rect(0, 0, src.Width(), src.Height())}
	dstImg := &rgbaWriter{pix: dst.Pixels(), stride: dst.Stride(), rect: image.Rect(0, 0, dst.Width(), dst.Height())}

	dr := image.Rect(int(clipped.X0), int(clipped.Y0), int(clipped.X1), int(clipped.Y1))

	sr := image.Rect(int(srcRect.X0), int(srcRect.Y0), int(srcRect.X1), int(srcRect.Y1))
	if flipY {
		// image.Rect normalizes a reversed Y range, so mirror the rows of sr
		// in a copy of the source instead.
		flipped := append([]byte(nil), srcImg.pix...)
		for y := sr.Min.Y; y < sr.Max.Y; y++ {
			from, to := (sr.Min.Y+sr.Max.Y-1-y)*srcImg.stride, y*srcImg.stride
			if from >= 0 && to >= 0 && from < len(flipped) && to < len(flipped) {
				copy(flipped[to:min(to+srcImg.stride, len(flipped))], srcImg.pix[from:min(from+srcImg.stride, len(srcImg.pix))])
			}
		}
		srcImg = &bgraImage{pix: flipped, stride: srcImg.stride, rect: srcImg.rect}
	}

	op := xdraw.Over
	if opaque {
		op = xdraw.Src
	}
	// Map sr onto the whole dstRect and mask the writes to the band, so a
	// band receives its slice of the scaled image rather than all of it.
	fullDR := image.Rect(int(dstRect.X0), int(dstRect.Y0), int(dstRect.X1), int(dstRect.Y1))
	scalerFor(filter).Scale(dstImg, fullDR, srcImg, sr, op, &xdraw.Options{DstMask: dr})
}

// CompositeYUV converts a 3-plane (or NV12 2-plane, when v is invalid) YUV
// source to BGRA8 per colorSpace and depth, then blits it with Composite.
// The conversion buffer is scoped to this call; callers invoke CompositeYUV
// once per band, so the conversion cost is paid once per band rather than
// once per frame.
func CompositeYUV(y, u, v, dst LockedResource, colorSpace surface.YUVColorSpace, depth surface.ColorDepth, srcRect, dstRect, band surface.Rect, flipY bool, filter surface.Filter) {
	w, h := int(srcRect.Width()), int(srcRect.Height())
	if w <= 0 || h <= 0 {
		return
	}

	bgra := yuvToBGRA(y, u, v, colorSpace, depth, w, h)
	converted := newLockedResource(bgra, w, h, w*4, nil)
	defer converted.Unlock()

	Composite(converted, dst, surface.NewRect(0, 0, int32(w), int32(h)), dstRect, band, flipY, true, filter)
}

// yuvToBGRA performs a straightforward BT.601/BT.709/BT.2020 YCbCr-to-RGB
// conversion into a freshly allocated BGRA8 buffer. Chroma planes are read
// at half resolution (4:2:0). depth above 8 bits is read as little-endian
// samples and truncated to 8 bits; no path in this module produces
// full bit-depth output.
func yuvToBGRA(yPlane, uPlane, vPlane LockedResource, cs surface.YUVColorSpace, depth surface.ColorDepth, w, h int) []byte {
	out := make([]byte, w*h*4)
	kr, kb := yuvCoefficients(cs)

	sample := func(res LockedResource, x, y int) int {
		if !res.Valid() {
			return 0
		}
		if depth == surface.ColorDepth8 {
			i := y*res.Stride() + x
			p := res.Pixels()
			if i < 0 || i >= len(p) {
				return 0
			}
			return int(p[i])
		}
		i := y*res.Stride() + x*2
		p := res.Pixels()
		if i < 0 || i+2 > len(p) {
			return 0
		}
		return int(binary.LittleEndian.Uint16(p[i:i+2]) >> 8)
	}

	planar := vPlane.Valid()

	for py := 0; py < h; py++ {
		cy := py / 2
		for px := 0; px < w; px++ {
			cx := px / 2
			yy := sample(yPlane, px, py)
			var cb, cr int
			if planar {
				cb = sample(uPlane, cx, cy)
				cr = sample(vPlane, cx, cy)
			} else if uPlane.Valid() {
				// NV12: interleaved Cb,Cr pairs in the single chroma plane.
				i := cy*uPlane.Stride() + cx*2
				p := uPlane.Pixels()
				if i >= 0 && i+2 <= len(p) {
					cb, cr = int(p[i]), int(p[i+1])
				}
			}
			r, g, b := ycbcrToRGB(yy, cb, cr, kr, kb)
			o := (py*w + px) * 4
			out[o] = b
			out[o+1] = g
			out[o+2] = r
			out[o+3] = 255
		}
	}
	return out
}

func yuvCoefficients(cs surface.YUVColorSpace) (kr, kb float64) {
	switch cs {
	case surface.YUVColorSpaceRec709:
		return 0.2126, 0.0722
	case surface.YUVColorSpaceRec2020:
		return 0.2627, 0.0593
	case surface.YUVColorSpaceIdentity:
		return 0, 0
	default: // Rec601
		return 0.299, 0.114
	}
}

func ycbcrToRGB(y, cb, cr int, kr, kb float64) (r, g, b byte) {
	yf := float64(y)
	cbf := float64(cb) - 128
	crf := float64(cr) - 128

	rf := yf + crf*(2-2*kr)
	bf := yf + cbf*(2-2*kb)
	gf := (yf - kr*rf - kb*bf) / (1 - kr - kb)

	return clamp8(rf), clamp8(gf), clamp8(bf)
}

func clamp8(v float64) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}
