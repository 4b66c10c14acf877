// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rasterizer

import (
	"sync"
	"sync/atomic"
)

// Context wraps the external software-GL engine's handle and owns its
// resource tables (textures, framebuffers, staging buffers). Resource-table
// mutation (alloc/free/configure) is expected only from the render thread;
// the mutex here is cheap insurance, not a concurrency requirement — once a
// resource is Locked, band processing on any thread touches only the
// resulting LockedResource, never the Context itself.
type Context struct {
	refs atomic.Int32

	mu           sync.Mutex
	textures     map[TextureID]*textureResource
	framebuffers map[FramebufferID]*framebufferResource
	staging      map[StagingBufferID][]byte

	nextTexture     TextureID
	nextFramebuffer FramebufferID
	nextStaging     StagingBufferID

	defaultFB FramebufferID
}

type textureResource struct {
	format         ColorFormat
	width, height  int
	maxW, maxH     int
	stride         int
	pixels         []byte // externally-owned when non-nil and caller-supplied
	ownedBacking   []byte // internally-owned storage reused across SetTextureBuffer calls
}

type framebufferResource struct {
	width, height int
	stride        int
	pixels        []byte
}

// NewContext creates a software-GL context with a single reference.
func NewContext() *Context {
	c := &Context{
		textures:     make(map[TextureID]*textureResource),
		framebuffers: make(map[FramebufferID]*framebufferResource),
		staging:      make(map[StagingBufferID][]byte),
	}
	c.refs.Store(1)
	return c
}

// Reference increments the context's reference count. Mirrors the external
// engine's create/reference/destroy contract so the orchestrator and the
// optional hardware-GL fallback can share one context.
func (c *Context) Reference() { c.refs.Add(1) }

// Destroy drops a reference; the last Destroy releases all resource tables.
func (c *Context) Destroy() {
	if c.refs.Add(-1) == 0 {
		c.mu.Lock()
		c.textures = nil
		c.framebuffers = nil
		c.staging = nil
		c.mu.Unlock()
	}
}

// MakeCurrent is a no-op marker preserved for API parity with the external
// engine's context-binding contract; the software path has no real
// thread-local GL context to bind.
func (c *Context) MakeCurrent() {}

// InitDefaultFramebuffer binds a caller-provided memory region as the
// default framebuffer and returns its ID.
func (c *Context) InitDefaultFramebuffer(x, y, w, h, stride int, buf []byte) FramebufferID {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextFramebuffer++
	id := c.nextFramebuffer
	c.framebuffers[id] = &framebufferResource{width: w, height: h, stride: stride, pixels: buf}
	c.defaultFB = id
	return id
}

// AllocTexture creates a new, empty texture and returns its ID.
func (c *Context) AllocTexture(format ColorFormat) TextureID {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextTexture++
	id := c.nextTexture
	c.textures[id] = &textureResource{format: format}
	return id
}

// FreeTexture releases a texture. Freeing an unknown or already-freed ID is
// a no-op.
func (c *Context) FreeTexture(id TextureID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.textures, id)
}

// AllocFramebuffer creates a new, unconfigured framebuffer and returns its
// ID.
func (c *Context) AllocFramebuffer() FramebufferID {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextFramebuffer++
	id := c.nextFramebuffer
	c.framebuffers[id] = &framebufferResource{}
	return id
}

// FreeFramebuffer releases a framebuffer.
func (c *Context) FreeFramebuffer(id FramebufferID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.framebuffers, id)
}

// AllocStagingBuffer creates a CPU-side staging buffer of the given size,
// used only on the hardware-GL fallback path.
func (c *Context) AllocStagingBuffer(size int) StagingBufferID {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextStaging++
	id := c.nextStaging
	c.staging[id] = make([]byte, size)
	return id
}

// FreeStagingBuffer releases a staging buffer.
func (c *Context) FreeStagingBuffer(id StagingBufferID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.staging, id)
}

// ConfigureFramebuffer sizes a framebuffer's CPU-side backing store,
// reallocating it only when it holds fewer than stride*h bytes. Returns
// false for an unknown framebuffer ID.
func (c *Context) ConfigureFramebuffer(id FramebufferID, w, h, stride int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	fb, ok := c.framebuffers[id]
	if !ok {
		return false
	}
	if fb.pixels == nil || len(fb.pixels) < stride*h {
		fb.pixels = make([]byte, stride*h)
	}
	fb.width, fb.height, fb.stride = w, h, stride
	return true
}

// SetFramebufferBuffer wires a framebuffer directly to a caller-supplied
// backing buffer, used by Bind to make a tile's framebuffer and its color
// texture share the exact same pixels — in a real GL stack this is what
// framebuffer_texture_2d accomplishes by attaching the texture as the
// framebuffer's color attachment; the software context has no such
// attachment step, so Bind wires the two resource tables together
// explicitly instead. Returns false for an unknown framebuffer ID.
func (c *Context) SetFramebufferBuffer(id FramebufferID, w, h, stride int, buf []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	fb, ok := c.framebuffers[id]
	if !ok {
		return false
	}
	fb.width, fb.height, fb.stride, fb.pixels = w, h, stride, buf
	return true
}

// SetTextureBuffer configures a texture's backing buffer. If buf is
// non-nil, the texture wraps caller-owned memory directly. If buf is nil,
// the texture owns its storage, reallocated only when maxW or maxH grows
// beyond the previously allocated maximum; Bind uses this form for both a
// tile's color texture and the shared depth texture. Returns false for an
// unknown texture ID.
func (c *Context) SetTextureBuffer(tex TextureID, format ColorFormat, w, h, stride int, buf []byte, maxW, maxH int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.textures[tex]
	if !ok {
		return false
	}
	t.format = format
	t.width, t.height, t.stride = w, h, stride

	if buf != nil {
		t.pixels = buf
		return true
	}

	if maxW > t.maxW || maxH > t.maxH || t.ownedBacking == nil {
		if maxW > t.maxW {
			t.maxW = maxW
		}
		if maxH > t.maxH {
			t.maxH = maxH
		}
		t.ownedBacking = make([]byte, t.maxW*t.maxH*format.BytesPerPixel())
	}
	n := stride * h
	if n > len(t.ownedBacking) {
		n = len(t.ownedBacking)
	}
	t.pixels = t.ownedBacking[:n]
	return true
}

// LockTexture locks a texture for cross-thread use, returning an invalid
// LockedResource if the texture is unknown or has no backing buffer yet.
func (c *Context) LockTexture(id TextureID) LockedResource {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.textures[id]
	if !ok || t.pixels == nil {
		return LockedResource{}
	}
	return newLockedResource(t.pixels, t.width, t.height, t.stride, nil)
}

// LockFramebuffer locks a framebuffer for cross-thread use.
func (c *Context) LockFramebuffer(id FramebufferID) LockedResource {
	c.mu.Lock()
	defer c.mu.Unlock()
	fb, ok := c.framebuffers[id]
	if !ok || fb.pixels == nil {
		return LockedResource{}
	}
	return newLockedResource(fb.pixels, fb.width, fb.height, fb.stride, nil)
}

// GetColorBuffer returns direct CPU access to a framebuffer's pixels, for
// the hardware-GL fallback's upload path. flush is accepted for API parity
// with the external engine (a software framebuffer has nothing to flush).
func (c *Context) GetColorBuffer(fbo FramebufferID, flush bool) (ptr []byte, w, h, stride int, ok bool) {
	_ = flush
	c.mu.Lock()
	defer c.mu.Unlock()
	fb, present := c.framebuffers[fbo]
	if !present {
		return nil, 0, 0, 0, false
	}
	return fb.pixels, fb.width, fb.height, fb.stride, true
}
