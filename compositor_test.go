package swcompositor

import (
	"context"
	"testing"

	"github.com/gogpu/swcompositor/internal/job"
	"github.com/gogpu/swcompositor/internal/queue"
	"github.com/gogpu/swcompositor/rasterizer"
	"github.com/gogpu/swcompositor/surface"
)

// newBareCompositor builds a Compositor directly, without New's worker
// goroutine. A bare Compositor's zero-value syncWait is false, so
// EndFrame's self-steal path drains the queue on the calling goroutine —
// exactly the single-consumer-FIFO determinism the tests below rely on,
// without any real concurrency to race against.
func newBareCompositor(t *testing.T) (*Compositor, *rasterizer.Context, rasterizer.FramebufferID) {
	t.Helper()
	ctx := rasterizer.NewContext()
	buf := make([]byte, 256*256*4)
	fb := ctx.InitDefaultFramebuffer(0, 0, 256, 256, 256*4, buf)
	c := &Compositor{
		ctx:          ctx,
		registry:     surface.NewRegistry(),
		queue:        queue.New(),
		defaultFB:    fb,
		depthTexture: ctx.AllocTexture(rasterizer.ColorFormatDepth16),
	}
	return c, ctx, fb
}

func createSurfaceAndTile(t *testing.T, c *Compositor, id surface.ID, w, h int32) *surface.Tile {
	t.Helper()
	if err := c.CreateSurface(id, [2]int32{}, [2]int32{w, h}, true); err != nil {
		t.Fatalf("CreateSurface(%d): %v", id, err)
	}
	if err := c.CreateTile(surface.TileID{Surface: id}); err != nil {
		t.Fatalf("CreateTile(%d): %v", id, err)
	}
	return c.registry.Surface(id).Tile(0, 0)
}

// drainManually steals and processes every band by hand, recording each
// node's first appearance order. With exactly one caller draining the
// FIFO, completion order is guaranteed to equal dispatch order regardless
// of how many threads could in principle contend for the queue.
func drainManually(c *Compositor) []*job.Node {
	var order []*job.Node
	seen := make(map[*job.Node]bool)
	for {
		node, band, ok := c.queue.StealJob()
		if !ok {
			break
		}
		if !seen[node] {
			seen[node] = true
			order = append(order, node)
		}
		c.queue.ProcessJob(node, band)
	}
	return order
}

// TestPaintOrderIndependentTiles covers spec.md property P4: two tiles with
// no dependency edge between them composite in frame_surfaces insertion
// order.
func TestPaintOrderIndependentTiles(t *testing.T) {
	c, _, _ := newBareCompositor(t)

	const s1, s2 surface.ID = 1, 2
	tile1 := createSurfaceAndTile(t, c, s1, 64, 64)
	tile2 := createSurfaceAndTile(t, c, s2, 64, 64)
	tile1.ValidRect = surface.NewRect(0, 0, 64, 64)
	tile2.ValidRect = surface.NewRect(0, 0, 64, 64)

	c.BeginFrame()
	if err := c.AddSurface(s1, surface.Identity(), surface.NewRect(0, 0, 64, 64), surface.FilterLinear); err != nil {
		t.Fatalf("AddSurface(s1): %v", err)
	}
	if err := c.AddSurface(s2, surface.Translation(128, 0), surface.NewRect(128, 0, 192, 64), surface.FilterLinear); err != nil {
		t.Fatalf("AddSurface(s2): %v", err)
	}
	c.StartCompositing(nil)

	order := drainManually(c)
	if len(order) != 2 || order[0] != nodeOf(tile1) || order[1] != nodeOf(tile2) {
		t.Fatalf("expected frame_surfaces insertion order [tile1, tile2], got %v", order)
	}
}

// TestProducerInvalidatedUnblocksConsumer covers end-to-end scenario 3:
// surface A's tile is invalidated, surface B's tile overlaps A's cell
// exactly. A's job must fully complete before B's first band starts, and
// exactly two jobs are produced.
func TestProducerInvalidatedUnblocksConsumer(t *testing.T) {
	c, _, _ := newBareCompositor(t)

	const a, b surface.ID = 1, 2
	tileA := createSurfaceAndTile(t, c, a, 64, 64)
	tileB := createSurfaceAndTile(t, c, b, 64, 64)
	tileA.ValidRect = surface.NewRect(0, 0, 64, 64)
	tileB.ValidRect = surface.NewRect(0, 0, 64, 64)

	c.BeginFrame()
	if err := c.InvalidateTile(tileA.ID); err != nil {
		t.Fatalf("InvalidateTile: %v", err)
	}
	if err := c.AddSurface(a, surface.Identity(), surface.NewRect(0, 0, 64, 64), surface.FilterLinear); err != nil {
		t.Fatalf("AddSurface(a): %v", err)
	}
	if err := c.AddSurface(b, surface.Identity(), surface.NewRect(0, 0, 64, 64), surface.FilterLinear); err != nil {
		t.Fatalf("AddSurface(b): %v", err)
	}
	c.StartCompositing(nil)

	// Neither tile is ready yet: A is deferred by its own invalidation,
	// and B depends on A.
	if _, _, ok := c.queue.StealJob(); ok {
		t.Fatal("expected nothing queued before A's producer side runs")
	}

	info := c.Bind(tileA.ID, surface.NewRect(0, 0, 64, 64), surface.NewRect(0, 0, 64, 64))
	if info.FBO == 0 {
		t.Fatal("expected Bind to return a valid framebuffer for a non-empty valid rect")
	}
	if err := c.Unbind(); err != nil {
		t.Fatalf("Unbind: %v", err)
	}

	order := drainManually(c)
	if len(order) != 2 {
		t.Fatalf("expected exactly two jobs, got %d", len(order))
	}
	if order[0] != nodeOf(tileA) || order[1] != nodeOf(tileB) {
		t.Fatalf("expected A's job to fully complete before B's first band, got order %v", order)
	}
}

// TestLateSurfaceIsolation covers spec.md property P6 and end-to-end
// scenario 4: a surface added after start_compositing lands in
// late_surfaces, never perturbs the already-built frame_surfaces
// composition, and EndFrame processes it after the main pass without
// error.
func TestLateSurfaceIsolation(t *testing.T) {
	c, _, _ := newBareCompositor(t)

	const main, late surface.ID = 1, 2
	tileMain := createSurfaceAndTile(t, c, main, 64, 64)
	tileLate := createSurfaceAndTile(t, c, late, 64, 64)
	tileMain.ValidRect = surface.NewRect(0, 0, 64, 64)
	tileLate.ValidRect = surface.NewRect(0, 0, 64, 64)

	c.BeginFrame()
	if err := c.AddSurface(main, surface.Identity(), surface.NewRect(0, 0, 64, 64), surface.FilterLinear); err != nil {
		t.Fatalf("AddSurface(main): %v", err)
	}
	c.StartCompositing(nil)

	if len(c.frameSurfaces) != 1 || len(c.lateSurfaces) != 0 {
		t.Fatalf("expected one main entry and no late entries before any late add, got frame=%d late=%d",
			len(c.frameSurfaces), len(c.lateSurfaces))
	}

	if err := c.AddSurface(late, surface.Identity(), surface.NewRect(0, 0, 64, 64), surface.FilterLinear); err != nil {
		t.Fatalf("AddSurface(late): %v", err)
	}
	if len(c.frameSurfaces) != 1 || len(c.lateSurfaces) != 1 {
		t.Fatalf("expected AddSurface after start_compositing to land only in late_surfaces, got frame=%d late=%d",
			len(c.frameSurfaces), len(c.lateSurfaces))
	}

	if err := c.EndFrame(); err != nil {
		t.Fatalf("EndFrame: %v", err)
	}
}

type fakeYUVProvider struct {
	info     surface.CompositeSurfaceInfo
	locks    int
	unlocks  int
	lockedID surface.ExternalImageID
}

func (p *fakeYUVProvider) Lock(_ context.Context, id surface.ExternalImageID) (surface.CompositeSurfaceInfo, bool) {
	p.locks++
	p.lockedID = id
	return p.info, true
}

func (p *fakeYUVProvider) Unlock(_ context.Context, id surface.ExternalImageID) {
	p.unlocks++
}

// TestYUVPlanarExternalSurface covers end-to-end scenario 5: a 3-plane
// Rec709, 10-bit external surface composites via composite_yuv, and its
// lock is released exactly once at end_frame.
func TestYUVPlanarExternalSurface(t *testing.T) {
	const w, h = int32(64), int32(64)
	uvW, uvH := w/2, h/2

	ctx := rasterizer.NewContext()
	buf := make([]byte, 256*256*4)
	fb := ctx.InitDefaultFramebuffer(0, 0, 256, 256, 256*4, buf)

	yTex := ctx.AllocTexture(rasterizer.ColorFormatR8)
	uTex := ctx.AllocTexture(rasterizer.ColorFormatR8)
	vTex := ctx.AllocTexture(rasterizer.ColorFormatR8)
	// 10-bit samples are read as little-endian uint16s, two bytes per pixel.
	ctx.SetTextureBuffer(yTex, rasterizer.ColorFormatR8, int(w), int(h), int(w)*2, make([]byte, int(w)*int(h)*2), 0, 0)
	ctx.SetTextureBuffer(uTex, rasterizer.ColorFormatR8, int(uvW), int(uvH), int(uvW)*2, make([]byte, int(uvW)*int(uvH)*2), 0, 0)
	ctx.SetTextureBuffer(vTex, rasterizer.ColorFormatR8, int(uvW), int(uvH), int(uvW)*2, make([]byte, int(uvW)*int(uvH)*2), 0, 0)

	provider := &fakeYUVProvider{
		info: surface.CompositeSurfaceInfo{
			Planes:       surface.PlanesPlanar,
			PlaneTexture: [3]uint32{uint32(yTex), uint32(uTex), uint32(vTex)},
			ColorSpace:   surface.YUVColorSpaceRec709,
			Depth:        surface.ColorDepth10,
			Width:        w,
			Height:       h,
		},
	}

	c := &Compositor{
		ctx:            ctx,
		registry:       surface.NewRegistry(),
		queue:          queue.New(),
		defaultFB:      fb,
		depthTexture:   ctx.AllocTexture(rasterizer.ColorFormatDepth16),
		externalImages: provider,
	}

	const extID surface.ID = 1
	const imgID surface.ExternalImageID = 7
	if err := c.CreateExternalSurface(extID, true); err != nil {
		t.Fatalf("CreateExternalSurface: %v", err)
	}
	if err := c.AttachExternalImage(extID, imgID); err != nil {
		t.Fatalf("AttachExternalImage: %v", err)
	}

	c.BeginFrame()
	if err := c.AddSurface(extID, surface.Identity(), surface.NewRect(0, 0, w, h), surface.FilterLinear); err != nil {
		t.Fatalf("AddSurface: %v", err)
	}
	if provider.locks != 1 || provider.lockedID != imgID {
		t.Fatalf("expected exactly one Lock(%d), got locks=%d lastID=%d", imgID, provider.locks, provider.lockedID)
	}

	c.StartCompositing(nil)
	if err := c.EndFrame(); err != nil {
		t.Fatalf("EndFrame: %v", err)
	}

	if provider.unlocks != 1 {
		t.Fatalf("expected Unlock called exactly once at end_frame, got %d", provider.unlocks)
	}

	dstPixels, _, _, _, ok := ctx.GetColorBuffer(fb, true)
	if !ok {
		t.Fatal("expected the destination framebuffer to be retrievable")
	}
	nonZero := false
	for _, b := range dstPixels[:int(w)*4] {
		if b != 0 {
			nonZero = true
			break
		}
	}
	if !nonZero {
		t.Fatal("expected the YUV composite to have written destination pixels (alpha is always opaque)")
	}
}

// TestLateSurfaceDependsOnDiscardedFrameSurface is the regression test
// spec.md's second open question asks for: a surface can be clipped
// entirely out of frame_surfaces by start_compositing's dirty-rect
// intersection, then referenced again as a late surface in the same
// frame. Because late surfaces never run init_overlaps (they are queued
// directly, with no overlap computation), a discarded frame surface's
// absence from the graph cannot leave a late surface waiting on it.
// This test only asserts that the frame completes; it does not assert any
// particular composite order beyond what's already guaranteed elsewhere.
func TestLateSurfaceDependsOnDiscardedFrameSurface(t *testing.T) {
	c, _, _ := newBareCompositor(t)

	const x surface.ID = 1
	tileX := createSurfaceAndTile(t, c, x, 64, 64)
	tileX.ValidRect = surface.NewRect(0, 0, 64, 64)

	c.BeginFrame()
	if err := c.AddSurface(x, surface.Identity(), surface.NewRect(0, 0, 64, 64), surface.FilterLinear); err != nil {
		t.Fatalf("AddSurface: %v", err)
	}

	// A dirty rect entirely outside X's clip discards it from
	// frame_surfaces before init_overlaps ever runs for it.
	c.StartCompositing([]surface.Rect{surface.NewRect(1000, 1000, 1064, 1064)})
	if len(c.frameSurfaces) != 0 {
		t.Fatalf("expected X to be discarded from frame_surfaces, got %d entries", len(c.frameSurfaces))
	}

	// The same surface reappears, now as a late surface.
	if err := c.AddSurface(x, surface.Identity(), surface.NewRect(0, 0, 64, 64), surface.FilterLinear); err != nil {
		t.Fatalf("AddSurface (late): %v", err)
	}
	if len(c.lateSurfaces) != 1 {
		t.Fatalf("expected X to be queued as a late surface, got %d entries", len(c.lateSurfaces))
	}

	if err := c.EndFrame(); err != nil {
		t.Fatalf("EndFrame: %v", err)
	}
}
