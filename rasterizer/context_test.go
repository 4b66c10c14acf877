// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rasterizer

import "testing"

func TestContextInitDefaultFramebuffer(t *testing.T) {
	c := NewContext()
	buf := make([]byte, 100*4)
	fb := c.InitDefaultFramebuffer(0, 0, 100, 1, 400, buf)

	ptr, w, h, stride, ok := c.GetColorBuffer(fb, false)
	if !ok {
		t.Fatal("expected default framebuffer to be present")
	}
	if w != 100 || h != 1 || stride != 400 {
		t.Fatalf("got (%d,%d,%d), want (100,1,400)", w, h, stride)
	}
	if len(ptr) != len(buf) {
		t.Fatalf("expected the caller-provided buffer to be wrapped directly")
	}
}

func TestSetTextureBufferExternalBufferIsWrappedDirectly(t *testing.T) {
	c := NewContext()
	tex := c.AllocTexture(ColorFormatBGRA8)
	buf := make([]byte, 16*16*4)

	if !c.SetTextureBuffer(tex, ColorFormatBGRA8, 16, 16, 64, buf, 16, 16) {
		t.Fatal("expected SetTextureBuffer to succeed")
	}
	locked := c.LockTexture(tex)
	if !locked.Valid() {
		t.Fatal("expected a valid locked resource")
	}
	if len(locked.Pixels()) != len(buf) {
		t.Fatal("expected wrapped buffer to match caller's slice length")
	}
}

func TestSetTextureBufferOwnedStorageReallocatesOnlyWhenMaxGrows(t *testing.T) {
	c := NewContext()
	tex := c.AllocTexture(ColorFormatBGRA8)

	if !c.SetTextureBuffer(tex, ColorFormatBGRA8, 8, 8, 32, nil, 16, 16) {
		t.Fatal("expected first SetTextureBuffer to succeed")
	}
	first := c.textures[tex].ownedBacking

	// Same max: storage must be reused, not reallocated.
	if !c.SetTextureBuffer(tex, ColorFormatBGRA8, 10, 10, 40, nil, 16, 16) {
		t.Fatal("expected second SetTextureBuffer to succeed")
	}
	if &c.textures[tex].ownedBacking[0] != &first[0] {
		t.Fatal("expected storage to be reused when max does not grow")
	}

	// Larger max: storage must grow.
	if !c.SetTextureBuffer(tex, ColorFormatBGRA8, 8, 8, 32, nil, 32, 32) {
		t.Fatal("expected third SetTextureBuffer to succeed")
	}
	if len(c.textures[tex].ownedBacking) != 32*32*4 {
		t.Fatalf("expected backing to grow to 32x32x4, got %d", len(c.textures[tex].ownedBacking))
	}
}

func TestLockTextureUnknownIDIsInvalid(t *testing.T) {
	c := NewContext()
	locked := c.LockTexture(TextureID(999))
	if locked.Valid() {
		t.Fatal("expected invalid locked resource for unknown texture")
	}
}

func TestFreeTextureRemovesResource(t *testing.T) {
	c := NewContext()
	tex := c.AllocTexture(ColorFormatBGRA8)
	c.FreeTexture(tex)
	if c.LockTexture(tex).Valid() {
		t.Fatal("expected freed texture to be unlockable")
	}
}

func TestContextDestroyReleasesTablesAtZeroRefs(t *testing.T) {
	c := NewContext()
	c.Reference()
	c.Destroy()
	if c.textures == nil {
		t.Fatal("tables should survive while a reference remains")
	}
	c.Destroy()
	if c.textures != nil {
		t.Fatal("expected tables released once refcount reaches zero")
	}
}
