// Package job holds the composite job and dependency-graph node types
// shared between the render thread and the worker thread: a Job carries
// everything a single tile composite needs to run independent of any other
// state, and a Node wires jobs into a dependency graph so a child tile is
// never processed before the tiles it overlaps.
package job

import (
	"github.com/gogpu/swcompositor/rasterizer"
	"github.com/gogpu/swcompositor/surface"
)

// Source selects which of a Job's locked source fields are populated.
type Source uint8

const (
	SourceBGRA Source = iota
	SourceYUV
)

// Job is a fully self-contained unit of composite work: the locked source
// and destination resources, the rects to use, and enough state to compute
// and run any one of its bands without touching the graph node or any
// other job. Processing a job's resources is safe from any goroutine.
type Job struct {
	Source Source

	// BGRA source, valid when Source == SourceBGRA.
	LockedSrc rasterizer.LockedResource

	// YUV source planes, valid when Source == SourceYUV. V is invalid
	// (zero value) for NV12 (2-plane) sources.
	LockedY, LockedU, LockedV rasterizer.LockedResource
	ColorSpace                surface.YUVColorSpace
	Depth                     surface.ColorDepth

	// LockedDst is the shared destination framebuffer, cloned once per job
	// so each job can Unlock it independently once finished.
	LockedDst rasterizer.LockedResource

	SrcRect, DstRect, ClippedDst surface.Rect
	Opaque                       bool
	FlipY                        bool
	Filter                       surface.Filter

	// NumBands is the number of horizontal bands this job was split into.
	NumBands int
}

// BandCount computes the number of horizontal bands a composite spanning
// clippedDst should be split into: up to 4 bands, one per 64 destination
// pixels of height, but only once both dimensions of clippedDst reach 64;
// smaller jobs are not worth splitting.
func BandCount(clippedDst surface.Rect) int {
	w, h := clippedDst.Width(), clippedDst.Height()
	if w < 64 || h < 64 {
		return 1
	}
	n := int(h / 64)
	if n > 4 {
		n = 4
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Band computes the destination-space rect for band index i of numBands
// bands spanning j.ClippedDst, matching the original's proportional split:
// offset = (height * i) / numBands, so the bands partition the full height
// exactly even when it doesn't divide evenly by numBands.
func (j *Job) Band(index int) surface.Rect {
	h := j.ClippedDst.Height()
	offset := (h * int32(index)) / int32(j.NumBands)
	next := (h * int32(index+1)) / int32(j.NumBands)
	return surface.Rect{
		X0: j.ClippedDst.X0,
		Y0: j.ClippedDst.Y0 + offset,
		X1: j.ClippedDst.X1,
		Y1: j.ClippedDst.Y0 + next,
	}
}

// Process runs the composite for a single band index, dispatching to the
// BGRA or YUV rasterizer primitive depending on Source.
func (j *Job) Process(bandIndex int) {
	band := j.Band(bandIndex)
	switch j.Source {
	case SourceYUV:
		rasterizer.CompositeYUV(j.LockedY, j.LockedU, j.LockedV, j.LockedDst, j.ColorSpace, j.Depth,
			j.SrcRect, j.DstRect, band, j.FlipY, j.Filter)
	default:
		rasterizer.Composite(j.LockedSrc, j.LockedDst, j.SrcRect, j.DstRect, band, j.FlipY, j.Opaque, j.Filter)
	}
}

// Release unlocks every resource this job holds. Called once, when the
// node's remaining band count reaches zero.
func (j *Job) Release() {
	if j.LockedSrc.Valid() {
		j.LockedSrc.Unlock()
	}
	if j.LockedY.Valid() {
		j.LockedY.Unlock()
	}
	if j.LockedU.Valid() {
		j.LockedU.Unlock()
	}
	if j.LockedV.Valid() {
		j.LockedV.Unlock()
	}
	if j.LockedDst.Valid() {
		j.LockedDst.Unlock()
	}
}
