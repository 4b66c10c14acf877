// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rasterizer

import (
	"testing"

	"github.com/gogpu/swcompositor/surface"
)

func solidBGRA(w, h int, b, g, r, a byte) []byte {
	pix := make([]byte, w*h*4)
	for i := 0; i < w*h; i++ {
		pix[i*4] = b
		pix[i*4+1] = g
		pix[i*4+2] = r
		pix[i*4+3] = a
	}
	return pix
}

func TestCompositeOpaqueOverwritesDestination(t *testing.T) {
	src := newLockedResource(solidBGRA(4, 4, 10, 20, 30, 255), 4, 4, 16, nil)
	dst := newLockedResource(solidBGRA(4, 4, 0, 0, 0, 255), 4, 4, 16, nil)

	Composite(src, dst, surface.NewRect(0, 0, 4, 4), surface.NewRect(0, 0, 4, 4), surface.NewRect(0, 0, 4, 4), false, true, surface.FilterPixelated)

	px := dst.Pixels()
	if px[0] != 10 || px[1] != 20 || px[2] != 30 || px[3] != 255 {
		t.Fatalf("pixel(0,0) = %v, want (10,20,30,255)", px[:4])
	}
}

func TestCompositeClipsToBand(t *testing.T) {
	src := newLockedResource(solidBGRA(4, 4, 255, 255, 255, 255), 4, 4, 16, nil)
	dst := newLockedResource(make([]byte, 4*4*4), 4, 4, 16, nil)

	// Band only covers the top half; bottom half must remain untouched.
	Composite(src, dst, surface.NewRect(0, 0, 4, 4), surface.NewRect(0, 0, 4, 4), surface.NewRect(0, 0, 4, 2), false, true, surface.FilterPixelated)

	px := dst.Pixels()
	topRow := px[0]
	bottomRow := px[2*16]
	if topRow != 255 {
		t.Fatalf("expected top band written, got %d", topRow)
	}
	if bottomRow != 0 {
		t.Fatalf("expected bottom band untouched, got %d", bottomRow)
	}
}

func TestCompositeEmptyClipIsNoOp(t *testing.T) {
	src := newLockedResource(solidBGRA(4, 4, 1, 2, 3, 255), 4, 4, 16, nil)
	dst := newLockedResource(make([]byte, 4*4*4), 4, 4, 16, nil)

	Composite(src, dst, surface.NewRect(0, 0, 4, 4), surface.NewRect(0, 0, 4, 4), surface.NewRect(100, 100, 4, 4), false, true, surface.FilterPixelated)

	for _, b := range dst.Pixels() {
		if b != 0 {
			t.Fatal("expected destination untouched when band does not intersect")
		}
	}
}

func TestCompositeYUVRec601GrayIsNeutral(t *testing.T) {
	// Mid-gray luma with neutral chroma (128,128) must map close to
	// (128,128,128) in BGRA regardless of color space coefficients.
	y := newLockedResource([]byte{128, 128, 128, 128}, 2, 2, 2, nil)
	u := newLockedResource([]byte{128, 128}, 1, 1, 2, nil)
	v := LockedResource{}

	dst := newLockedResource(make([]byte, 2*2*4), 2, 2, 8, nil)

	CompositeYUV(y, u, v, dst, surface.YUVColorSpaceRec601, surface.ColorDepth8,
		surface.NewRect(0, 0, 2, 2), surface.NewRect(0, 0, 2, 2), surface.NewRect(0, 0, 2, 2), false, surface.FilterPixelated)

	px := dst.Pixels()
	for c := 0; c < 3; c++ {
		if d := int(px[c]) - 128; d < -2 || d > 2 {
			t.Fatalf("channel %d = %d, want ~128", c, px[c])
		}
	}
}

func TestClamp8(t *testing.T) {
	if clamp8(-10) != 0 {
		t.Fatal("expected clamp to 0")
	}
	if clamp8(300) != 255 {
		t.Fatal("expected clamp to 255")
	}
	if clamp8(128) != 128 {
		t.Fatal("expected pass-through")
	}
}
