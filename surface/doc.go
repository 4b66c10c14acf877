// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package surface holds the persistent tile/surface data model of the
// software compositor: surfaces, their tiles, the rectangles and affine
// transform used to test for overlap, and the precise rectangles used to
// issue a composite. Nothing in this package touches the job queue or the
// rasterizer; it is pure geometry and bookkeeping, safe to call from the
// render thread without synchronization (surfaces and tiles are owned
// exclusively by the render thread between frames).
package surface
