// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package rasterizer is a thin adapter over an external software-GL style
// engine: context lifecycle, texture/framebuffer/staging-buffer
// provisioning, resource locking, and the two CPU blit primitives
// (Composite, CompositeYUV) that a composite band actually executes.
//
// Everything upstream of this package (dependency scheduling, banding,
// job queueing) is pure bookkeeping; this package is where pixels move.
// No operation here is required to be reentrant per Context — callers
// serialize resource-table mutation (alloc/free/configure) on the render
// thread and only ever share already-Locked resources across goroutines.
package rasterizer
