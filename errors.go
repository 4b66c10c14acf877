package swcompositor

import (
	"errors"
	"fmt"

	"github.com/gogpu/swcompositor/surface"
)

// Sentinel errors returned by Compositor API calls.
var (
	// ErrSurfaceExists is returned by CreateSurface/CreateExternalSurface
	// when the given ID is already registered.
	ErrSurfaceExists = errors.New("swcompositor: surface already exists")

	// ErrSurfaceNotFound is returned by Compositor calls referencing an
	// unknown surface ID. Bind panics with a ContractViolationError
	// instead, and Unbind returns nil.
	ErrSurfaceNotFound = errors.New("swcompositor: surface not found")

	// ErrTileNotFound is returned by InvalidateTile and DestroyTile for an
	// unknown tile. Bind panics with a ContractViolationError instead.
	ErrTileNotFound = errors.New("swcompositor: tile not found")

	// ErrNoExternalImageProvider is returned by AddSurface on an external
	// surface when no ExternalImageProvider was configured via
	// WithExternalImageProvider.
	ErrNoExternalImageProvider = errors.New("swcompositor: no external image provider configured")

	// ErrNotCompositing is returned by AddSurface, EndFrame, or Unbind
	// when called outside a BeginFrame/EndFrame pair.
	ErrNotCompositing = errors.New("swcompositor: not currently compositing a frame")
)

// ContractViolationError reports a violation of the Compositor API's
// contract (spec §7): an operation on state that does not exist or is of
// the wrong kind (e.g. Bind of a tile never created, AttachExternalImage
// on a non-external surface, an external image with an unsupported plane
// count).
// These are programming errors in the caller, not runtime conditions to
// recover from, so Compositor methods that detect one panic with a
// ContractViolationError rather than returning it.
type ContractViolationError struct {
	Op     string
	Detail string
}

func (e *ContractViolationError) Error() string {
	return fmt.Sprintf("swcompositor: contract violation in %s: %s", e.Op, e.Detail)
}

func violate(op, detail string) {
	panic(&ContractViolationError{Op: op, Detail: detail})
}

// wrapSurfaceNotFound formats ErrSurfaceNotFound with the offending ID.
func wrapSurfaceNotFound(id surface.ID) error {
	return fmt.Errorf("%w: %d", ErrSurfaceNotFound, id)
}

func wrapSurfaceExists(id surface.ID) error {
	return fmt.Errorf("%w: %d", ErrSurfaceExists, id)
}

func wrapTileNotFound(id surface.TileID) error {
	return fmt.Errorf("%w: surface %d tile (%d,%d)", ErrTileNotFound, id.Surface, id.X, id.Y)
}
