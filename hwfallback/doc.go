// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build hwfallback

// Package hwfallback is the optional hardware-GL debug path: it uploads a
// band-boundary overlay texture through a host-supplied GPU device so a
// developer can visually confirm banding and dependency-ordering behavior
// on real hardware. It is never required for compositing correctness —
// the software rasterizer path composites every frame on its own — and is
// excluded from normal builds behind the "hwfallback" build tag.
package hwfallback
