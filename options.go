package swcompositor

import "github.com/gogpu/swcompositor/nativepass"

// Option configures a Compositor during creation.
//
// Example:
//
//	c := swcompositor.New(ctx, defaultFB, swcompositor.WithNativeBackend("coreanimation"))
type Option func(*options)

// options holds optional configuration for Compositor creation.
type options struct {
	nativeBackend      nativepass.Backend
	useNativeCompositor bool
	externalImages      ExternalImageProvider
	sync                bool
}

func defaultOptions() options {
	return options{
		nativeBackend: nativepass.Default(),
	}
}

// WithNativeBackend selects a named native-compositor pass-through
// backend (e.g. "coreanimation", "directcomposition") instead of the
// platform default, and enables native pass-through for surface and tile
// lifecycle calls.
func WithNativeBackend(name string) Option {
	return func(o *options) {
		if b := nativepass.Get(name); b != nil {
			o.nativeBackend = b
			o.useNativeCompositor = true
		}
	}
}

// WithExternalImageProvider supplies the callback used to lock and unlock
// externally-sourced surfaces (typically video frames) during AddSurface
// and EndFrame.
func WithExternalImageProvider(p ExternalImageProvider) Option {
	return func(o *options) {
		o.externalImages = p
	}
}

// WithSynchronousCompositing disables job-stealing by the render thread
// while waiting for the worker thread to finish a frame's composites. Use
// this only for deterministic golden-image tests where jobs must be
// processed strictly in queued order; normal operation relies on the
// dependency graph to make stealing safe and faster.
func WithSynchronousCompositing() Option {
	return func(o *options) {
		o.sync = true
	}
}
