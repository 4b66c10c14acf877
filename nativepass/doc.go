// Package nativepass forwards surface and tile lifecycle calls to a
// platform's native hardware compositor (DirectComposition, CoreAnimation,
// and the like) when one is available, so the software path can run
// alongside it rather than in place of it. A Backend is registered by name
// from its own package's init, mirroring how gogpu-gg registers its
// rendering backends.
package nativepass
