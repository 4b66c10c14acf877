// Package swcompositor implements a software-compositor scheduler: it
// composites a set of tiled surfaces into a single destination
// framebuffer using a software rasterizer, scheduling the dependency-
// ordered, multi-band composite work across a render thread and one
// worker goroutine.
package swcompositor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gogpu/swcompositor/internal/job"
	"github.com/gogpu/swcompositor/internal/queue"
	"github.com/gogpu/swcompositor/nativepass"
	"github.com/gogpu/swcompositor/rasterizer"
	"github.com/gogpu/swcompositor/surface"
)

// frameSurfaceEntry is one composition intent recorded by AddSurface:
// a surface paired with the transform/clip/filter it should be drawn
// with this frame. frame_surfaces' order is the authoritative
// back-to-front paint order (spec I5).
type frameSurfaceEntry struct {
	id        surface.ID
	transform surface.Transform
	clip      surface.Rect
	filter    surface.Filter
}

// Compositor implements the external Compositor API (spec §6): surface
// and tile lifecycle, the Bind/Unbind producer protocol, and the
// AddSurface/StartCompositing/EndFrame consumer protocol that builds and
// drains the per-frame dependency graph. A Compositor is driven
// exclusively by one render goroutine; the only cross-goroutine state it
// touches is the job queue and the dependency-graph nodes attached to
// each tile, both already safe for concurrent use on their own.
type Compositor struct {
	ctx      *rasterizer.Context
	registry *surface.Registry
	queue    *queue.Queue
	worker   *queue.Worker

	defaultFB    rasterizer.FramebufferID
	depthTexture rasterizer.TextureID

	nativeBackend       nativepass.Backend
	useNativeCompositor bool
	externalImages      ExternalImageProvider
	syncWait            bool

	curTile       surface.TileID
	inFrame       bool
	compositing   bool
	frameSurfaces []frameSurfaceEntry
	lateSurfaces  []frameSurfaceEntry
	lockedDst     rasterizer.LockedResource
}

// New creates a Compositor over ctx, using defaultFB (previously set up
// via ctx.InitDefaultFramebuffer by the frame driver) as the shared
// destination framebuffer for every job this frame. It launches the
// worker goroutine immediately; call Deinit to shut it down.
func New(ctx *rasterizer.Context, defaultFB rasterizer.FramebufferID, opts ...Option) *Compositor {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	c := &Compositor{
		ctx:                 ctx,
		registry:            surface.NewRegistry(),
		queue:               queue.New(),
		defaultFB:           defaultFB,
		depthTexture:        ctx.AllocTexture(rasterizer.ColorFormatDepth16),
		nativeBackend:       o.nativeBackend,
		useNativeCompositor: o.useNativeCompositor,
		externalImages:      o.externalImages,
		syncWait:            o.sync,
	}
	c.worker = queue.NewWorker(c.queue)
	go c.worker.Run()
	return c
}

// nodeOf returns the dependency-graph node attached to t. Every live
// tile has one, installed by CreateTile/CreateExternalSurface/
// AttachExternalImage; a tile without one is a construction bug, not a
// runtime condition to recover from.
func nodeOf(t *surface.Tile) *job.Node {
	n, _ := t.Node.(*job.Node)
	if n == nil {
		violate("internal", fmt.Sprintf("tile %v has no dependency-graph node attached", t.ID))
	}
	return n
}

// CreateSurface registers a new CPU-tiled surface. virtualOffset is
// accepted for API parity with the host compositor but unused by the
// software path, which performs no surface virtualization of its own.
func (c *Compositor) CreateSurface(id surface.ID, virtualOffset [2]int32, tileSize [2]int32, opaque bool) error {
	_ = virtualOffset
	if c.registry.Surface(id) != nil {
		return wrapSurfaceExists(id)
	}
	_ = c.registry.CreateSurface(id, tileSize, opaque)
	if c.useNativeCompositor && c.nativeBackend != nil {
		return c.nativeBackend.CreateSurface(id, tileSize, opaque)
	}
	return nil
}

// CreateExternalSurface registers a new externally-sourced surface: zero
// tile size and a single (0,0) tile spanning the whole external image,
// with its dependency-graph node attached immediately.
func (c *Compositor) CreateExternalSurface(id surface.ID, opaque bool) error {
	if c.registry.Surface(id) != nil {
		return wrapSurfaceExists(id)
	}
	_ = c.registry.CreateExternalSurface(id, opaque)
	if t := c.registry.Surface(id).Tile(0, 0); t != nil && t.Node == nil {
		t.Node = job.NewNode()
	}
	if c.useNativeCompositor && c.nativeBackend != nil {
		return c.nativeBackend.CreateExternalSurface(id, opaque)
	}
	return nil
}

// DestroySurface removes a surface, its tiles, and their rasterizer
// resources.
func (c *Compositor) DestroySurface(id surface.ID) error {
	s := c.registry.Surface(id)
	if s == nil {
		return wrapSurfaceNotFound(id)
	}
	for _, t := range s.Tiles {
		c.freeTileResources(t)
	}
	_ = c.registry.DestroySurface(id)
	if c.useNativeCompositor && c.nativeBackend != nil {
		return c.nativeBackend.DestroySurface(id)
	}
	return nil
}

// CreateTile adds a tile to an existing surface, allocating its color
// texture and framebuffer and attaching a fresh dependency-graph node.
func (c *Compositor) CreateTile(id surface.TileID) error {
	s := c.registry.Surface(id.Surface)
	if s == nil {
		return wrapSurfaceNotFound(id.Surface)
	}
	if err := c.registry.CreateTile(id); err != nil {
		return err
	}
	t := s.Tile(id.X, id.Y)
	t.ColorTexture = uint32(c.ctx.AllocTexture(rasterizer.ColorFormatBGRA8))
	t.Framebuffer = uint32(c.ctx.AllocFramebuffer())
	t.Node = job.NewNode()
	if c.useNativeCompositor && c.nativeBackend != nil {
		return c.nativeBackend.CreateTile(id)
	}
	return nil
}

// DestroyTile removes a tile and frees its rasterizer resources.
func (c *Compositor) DestroyTile(id surface.TileID) error {
	s := c.registry.Surface(id.Surface)
	if s == nil {
		return wrapSurfaceNotFound(id.Surface)
	}
	t := s.Tile(id.X, id.Y)
	if t == nil {
		return wrapTileNotFound(id)
	}
	c.freeTileResources(t)
	_ = c.registry.DestroyTile(id)
	if c.useNativeCompositor && c.nativeBackend != nil {
		return c.nativeBackend.DestroyTile(id)
	}
	return nil
}

func (c *Compositor) freeTileResources(t *surface.Tile) {
	if t.ColorTexture != 0 {
		c.ctx.FreeTexture(rasterizer.TextureID(t.ColorTexture))
	}
	if t.Framebuffer != 0 {
		c.ctx.FreeFramebuffer(rasterizer.FramebufferID(t.Framebuffer))
	}
}

// AttachExternalImage attaches an external image ID to an external
// surface, creating its (0,0) tile if one doesn't exist yet.
func (c *Compositor) AttachExternalImage(id surface.ID, external surface.ExternalImageID) error {
	s := c.registry.Surface(id)
	if s == nil {
		return wrapSurfaceNotFound(id)
	}
	if !s.IsExternal() {
		violate("AttachExternalImage", "surface must be external")
	}
	s.External = external
	if t := s.Tile(0, 0); t == nil {
		s.Tiles = append(s.Tiles, &surface.Tile{ID: surface.TileID{Surface: id}, Node: job.NewNode()})
	}
	if c.useNativeCompositor && c.nativeBackend != nil {
		return c.nativeBackend.AttachExternalImage(id, external)
	}
	return nil
}

// InvalidateTile marks a tile's contents stale for this frame: its
// OverlapRect falls back to the full tile cell, and it gains a
// self-dependency that init_overlaps accounts for, deferring the tile
// until its own Unbind runs.
func (c *Compositor) InvalidateTile(id surface.TileID) error {
	t := c.registry.Tile(id)
	if t == nil {
		return wrapTileNotFound(id)
	}
	t.Invalid = true
	return nil
}

// BeginFrame clears the per-frame surface lists and resets every live
// tile's dependency state (P5).
func (c *Compositor) BeginFrame() {
	c.frameSurfaces = c.frameSurfaces[:0]
	c.lateSurfaces = c.lateSurfaces[:0]
	c.compositing = false
	c.registry.ForEachTile(func(t *surface.Tile) { t.Reset() })
	c.inFrame = true
	Logger().Debug("begin frame")
}

// Bind configures a tile's color texture (and the orchestrator's shared
// depth texture) for the frame driver to draw into, returning the
// framebuffer to render into and the coordinate origin offset the
// caller must apply so its drawing commands land in surface-local
// space.
func (c *Compositor) Bind(id surface.TileID, dirty, valid surface.Rect) NativeSurfaceInfo {
	s := c.registry.Surface(id.Surface)
	if s == nil {
		violate("Bind", fmt.Sprintf("surface %d not found", id.Surface))
	}
	t := s.Tile(id.X, id.Y)
	if t == nil {
		violate("Bind", fmt.Sprintf("tile (%d,%d,%d) not found", id.Surface, id.X, id.Y))
	}

	c.curTile = id
	t.DirtyRect = dirty
	t.ValidRect = valid
	if valid.Empty() {
		return NativeSurfaceInfo{}
	}

	w, h := int(valid.Width()), int(valid.Height())
	stride := w * rasterizer.ColorFormatBGRA8.BytesPerPixel()
	c.ctx.SetTextureBuffer(rasterizer.TextureID(t.ColorTexture), rasterizer.ColorFormatBGRA8,
		w, h, stride, nil, int(s.TileSize[0]), int(s.TileSize[1]))

	if locked := c.ctx.LockTexture(rasterizer.TextureID(t.ColorTexture)); locked.Valid() {
		c.ctx.SetFramebufferBuffer(rasterizer.FramebufferID(t.Framebuffer), w, h, stride, locked.Pixels())
		locked.Unlock()
	}

	// Rebind the shared depth texture, sized to the valid rect but
	// max-sized to the largest tile across every registered surface, so
	// it is only reallocated when that maximum grows (spec §4.1, §4.6).
	maxW, maxH := c.registry.MaxTileSize()
	c.ctx.SetTextureBuffer(c.depthTexture, rasterizer.ColorFormatDepth16, w, h, 0, nil, int(maxW), int(maxH))

	ox, oy := valid.Origin()
	return NativeSurfaceInfo{FBO: uint32(t.Framebuffer), Origin: [2]int32{-ox, -oy}}
}

// Unbind completes the tile's producer side: if the bind produced no
// pixels, consumers that only depended on this tile being a no-op may
// already be unblockable; otherwise it resolves any pending clears by
// touching the color buffer before dispatching newly-unblocked
// consumers.
func (c *Compositor) Unbind() error {
	if !c.inFrame {
		return ErrNotCompositing
	}
	id := c.curTile
	s := c.registry.Surface(id.Surface)
	if s == nil {
		return nil
	}
	t := s.Tile(id.X, id.Y)
	if t == nil {
		return nil
	}
	if t.ValidRect.Empty() {
		c.flushComposites(id)
		return nil
	}
	c.ctx.GetColorBuffer(rasterizer.FramebufferID(t.Framebuffer), true)
	c.flushComposites(id)
	return nil
}

// AddSurface records a composition intent. If compositing is already
// under way for this frame (start_compositing has run), the intent is
// deferred to late_surfaces instead, per I5/§4.6.
func (c *Compositor) AddSurface(id surface.ID, transform surface.Transform, clip surface.Rect, filter surface.Filter) error {
	if !c.inFrame {
		return ErrNotCompositing
	}
	s := c.registry.Surface(id)
	if s == nil {
		return wrapSurfaceNotFound(id)
	}

	if s.IsExternal() {
		if c.externalImages == nil {
			return ErrNoExternalImageProvider
		}
		if info, ok := c.externalImages.Lock(context.Background(), s.External); ok {
			s.SetCompositeInfo(info)
		} else {
			Logger().Warn("external image lock failed", slog.Uint64("external_image", uint64(s.External)))
			s.ClearCompositeInfo()
		}
	}

	entry := frameSurfaceEntry{id: id, transform: transform, clip: clip, filter: filter}
	if c.compositing {
		c.lateSurfaces = append(c.lateSurfaces, entry)
	} else {
		c.frameSurfaces = append(c.frameSurfaces, entry)
	}
	return nil
}

// StartCompositing builds the dependency graph for every frame_surfaces
// tile and dispatches every tile that is already ready (no unresolved
// overlaps). Surfaces clipped entirely out of the single supplied dirty
// rect, if any, are dropped first.
func (c *Compositor) StartCompositing(dirtyRects []surface.Rect) {
	if len(dirtyRects) == 1 {
		kept := c.frameSurfaces[:0]
		for _, e := range c.frameSurfaces {
			e.clip = e.clip.Intersect(dirtyRects[0])
			if !e.clip.Empty() {
				kept = append(kept, e)
			}
		}
		c.frameSurfaces = kept
	}

	for _, e := range c.frameSurfaces {
		s := c.registry.Surface(e.id)
		if s == nil {
			continue
		}
		for _, t := range s.Tiles {
			c.initOverlaps(e, s, t)
		}
	}

	c.lockedDst = c.ctx.LockFramebuffer(c.defaultFB)
	c.queue.StartCompositing()

	for _, e := range c.frameSurfaces {
		s := c.registry.Surface(e.id)
		if s == nil {
			continue
		}
		for _, t := range s.Tiles {
			if t.Overlaps == 0 {
				c.queueComposite(e, s, t)
			}
		}
	}

	c.compositing = true
}

// EndFrame drains every queued composite, then processes any late
// surfaces synchronously and strictly in order, and finally releases
// the frame's shared destination lock and external image locks.
func (c *Compositor) EndFrame() error {
	if !c.inFrame {
		return ErrNotCompositing
	}

	c.waitForComposites(c.syncWait)

	if len(c.lateSurfaces) > 0 {
		c.queue.StartCompositing()
		for _, e := range c.lateSurfaces {
			s := c.registry.Surface(e.id)
			if s == nil {
				continue
			}
			for _, t := range s.Tiles {
				c.queueComposite(e, s, t)
			}
		}
		c.waitForComposites(c.syncWait)
	}

	if c.lockedDst.Valid() {
		c.lockedDst.Unlock()
		c.lockedDst = rasterizer.LockedResource{}
	}

	c.unlockExternalImages()
	c.inFrame = false
	Logger().Debug("end frame", slog.Int("surfaces", len(c.frameSurfaces)), slog.Int("late_surfaces", len(c.lateSurfaces)))
	return nil
}

// waitForComposites blocks until every queued band has been processed.
// When sync is false, the render thread first steals and processes jobs
// itself instead of idling, per spec §5's "up to two threads process
// bands concurrently" allowance.
func (c *Compositor) waitForComposites(sync bool) {
	if !sync {
		for {
			node, band, ok := c.queue.StealJob()
			if !ok {
				break
			}
			c.queue.ProcessJob(node, band)
		}
	}
	c.queue.WaitForComposites()
}

func (c *Compositor) unlockExternalImages() {
	if c.externalImages == nil {
		return
	}
	unlocked := make(map[surface.ID]bool)
	unlockAll := func(entries []frameSurfaceEntry) {
		for _, e := range entries {
			if unlocked[e.id] {
				continue
			}
			unlocked[e.id] = true
			s := c.registry.Surface(e.id)
			if s == nil || !s.IsExternal() || !s.HasCompositeInfo() {
				continue
			}
			c.externalImages.Unlock(context.Background(), s.External)
			s.ClearCompositeInfo()
		}
	}
	unlockAll(c.frameSurfaces)
	unlockAll(c.lateSurfaces)
}

// EnableNativeCompositor toggles native pass-through for surface and
// tile lifecycle calls.
func (c *Compositor) EnableNativeCompositor(enable bool) {
	c.useNativeCompositor = enable
}

// GetCapabilities reports which optional behaviors are active.
func (c *Compositor) GetCapabilities() CompositorCapabilities {
	return CompositorCapabilities{VirtualSurfaces: c.useNativeCompositor}
}

// Deinit shuts down the worker goroutine and releases the native
// backend, if any. No further Compositor calls are valid afterward.
func (c *Compositor) Deinit() error {
	c.queue.Deinit()
	c.worker.Wait()
	if c.useNativeCompositor && c.nativeBackend != nil {
		return c.nativeBackend.Deinit()
	}
	return nil
}

// initOverlaps computes tile t's overlap count against every surface
// added earlier this frame than entry's surface, and registers t as a
// child of every tile it may depend on — unconditionally, even when
// that candidate producer currently has no unresolved overlaps of its
// own (spec §9 Open Question 1: preserved deliberately, not a latent
// bug).
func (c *Compositor) initOverlaps(entry frameSurfaceEntry, s *surface.Surface, t *surface.Tile) {
	overlaps := 0
	if t.Invalid {
		overlaps = 1
	}

	ovR, ok := t.OverlapRect(s, entry.transform, entry.clip)
	if !ok {
		t.Overlaps = overlaps
		return
	}

	for _, earlier := range c.frameSurfaces {
		if earlier.id == entry.id {
			break
		}
		if ovR.Intersect(earlier.clip).Empty() {
			continue
		}
		earlierSurface := c.registry.Surface(earlier.id)
		if earlierSurface == nil {
			continue
		}
		for _, candidate := range earlierSurface.Tiles {
			if !candidate.MayOverlap(earlierSurface, earlier.transform, earlier.clip, ovR) {
				continue
			}
			if candidate.Overlaps > 0 {
				overlaps++
			}
			nodeOf(candidate).AddChild(nodeOf(t))
		}
	}

	t.Overlaps = overlaps
}

// flushComposites drains any tile whose dependencies just resolved as a
// result of tile T finishing its producer side (Unbind). This is the
// optimistic, inline dependency mechanism that complements the atomic
// graph: it accelerates unblocking without a queue-lock round trip per
// tile, but never changes the outcome, only the throughput (spec §4.6).
func (c *Compositor) flushComposites(id surface.TileID) {
	idx := -1
	for i, e := range c.frameSurfaces {
		if e.id == id.Surface {
			idx = i
			break
		}
	}
	if idx == -1 {
		return
	}
	entry := c.frameSurfaces[idx]
	s := c.registry.Surface(id.Surface)
	if s == nil {
		return
	}
	t := s.Tile(id.X, id.Y)
	if t == nil {
		return
	}

	if t.Invalid {
		t.Overlaps--
	}
	if t.Overlaps > 0 {
		return
	}
	c.queueComposite(entry, s, t)

	ovR, ok := t.OverlapRect(s, entry.transform, entry.clip)
	if !ok {
		return
	}
	flushedBounds := ovR
	flushedRects := []surface.Rect{ovR}

	for _, later := range c.frameSurfaces[idx+1:] {
		if flushedBounds.Intersect(later.clip).Empty() {
			continue
		}
		laterSurface := c.registry.Surface(later.id)
		if laterSurface == nil {
			continue
		}
		for _, candidate := range laterSurface.Tiles {
			if candidate.Overlaps == 0 {
				continue
			}
			ovr, ok := candidate.OverlapRect(laterSurface, later.transform, later.clip)
			if !ok {
				continue
			}
			if ovr.Intersect(flushedBounds).Empty() {
				continue
			}
			remaining := candidate.Overlaps
			for _, flushed := range flushedRects {
				if !ovr.Intersect(flushed).Empty() {
					remaining--
				}
			}
			if remaining == candidate.Overlaps {
				continue
			}
			candidate.Overlaps = remaining
			if remaining == 0 {
				c.queueComposite(later, laterSurface, candidate)
				flushedBounds = flushedBounds.Union(ovr)
				flushedRects = append(flushedRects, ovr)
			}
		}
	}
}

// queueComposite computes tile t's composite rects under entry's
// transform/clip and, if there is anything to composite, locks its
// source and installs a job on its dependency-graph node. Every path
// through this function ends by calling SetJob on the node (possibly
// with an inert, zero-band-count-less job) so that a tile which can't
// actually be composited this frame — an empty clip, an external image
// that failed to lock, a rasterizer lock failure — still resolves its
// own dependency edges instead of leaking its consumers (spec §7).
func (c *Compositor) queueComposite(entry frameSurfaceEntry, s *surface.Surface, t *surface.Tile) {
	node := nodeOf(t)

	src, dst, flipY, ok := t.CompositeRects(s, entry.transform, entry.clip)
	if !ok {
		c.enqueueNoop(node)
		return
	}

	var j job.Job
	j.Opaque = s.Opaque

	if s.IsExternal() {
		if !s.HasCompositeInfo() {
			c.enqueueNoop(node)
			return
		}
		info := s.CompositeInfo
		switch info.Planes {
		case surface.PlanesBGRA:
			locked := c.ctx.LockTexture(rasterizer.TextureID(info.PlaneTexture[0]))
			if !locked.Valid() {
				c.enqueueNoop(node)
				return
			}
			j.Source = job.SourceBGRA
			j.LockedSrc = locked
		case surface.PlanesPlanar:
			y := c.ctx.LockTexture(rasterizer.TextureID(info.PlaneTexture[0]))
			u := c.ctx.LockTexture(rasterizer.TextureID(info.PlaneTexture[1]))
			v := c.ctx.LockTexture(rasterizer.TextureID(info.PlaneTexture[2]))
			if !y.Valid() || !u.Valid() || !v.Valid() {
				for _, l := range [...]rasterizer.LockedResource{y, u, v} {
					if l.Valid() {
						l.Unlock()
					}
				}
				c.enqueueNoop(node)
				return
			}
			j.Source = job.SourceYUV
			j.LockedY, j.LockedU, j.LockedV = y, u, v
			j.ColorSpace, j.Depth = info.ColorSpace, info.Depth
		default:
			// Interleaved (1) and NV12 (2) plane counts are part of the
			// data model's locked-surface vocabulary but are not wired
			// to a composite job here, matching the original source's
			// match arms (only 0 and 3 are handled; anything else is a
			// contract violation by the ExternalImageProvider).
			violate("QueueComposite", fmt.Sprintf("unsupported external image plane count: %d", info.Planes))
		}
	} else {
		locked := c.ctx.LockTexture(rasterizer.TextureID(t.ColorTexture))
		if !locked.Valid() {
			c.enqueueNoop(node)
			return
		}
		j.Source = job.SourceBGRA
		j.LockedSrc = locked
	}

	j.LockedDst = c.lockedDst.Clone()
	j.SrcRect, j.DstRect, j.ClippedDst = src, dst, dst
	j.FlipY = flipY
	j.Filter = entry.filter
	j.NumBands = job.BandCount(j.ClippedDst)

	c.queue.QueueComposite(node, &j, j.NumBands)
}

// enqueueNoop installs an inert, single-band job on node so its
// dependency accounting completes exactly as if a real composite had
// run, without producing any pixels.
func (c *Compositor) enqueueNoop(node *job.Node) {
	c.queue.QueueComposite(node, &job.Job{NumBands: 1}, 1)
}
