package ampimage

import "errors"

// The package reports every failure as a wrapped sentinel so that callers
// can dispatch with errors.Is. All conditions are local and recoverable by
// the caller; a failed constructor or transition produces nothing.
var (
	// ErrShapeMismatch indicates that a pixel plane or box extent does not
	// match the extent it is required to have.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrMissingPixelData indicates a pixel access on a bounds-only section.
	ErrMissingPixelData = errors.New("missing pixel data")

	// ErrIncompleteAmplifierSet indicates an assembly request on a set that
	// does not contain every amplifier the geometry descriptor requires.
	ErrIncompleteAmplifierSet = errors.New("incomplete amplifier set")

	// ErrOverlapViolation indicates a layout that overlaps where it must
	// not, or leaves gaps where it must tile exactly.
	ErrOverlapViolation = errors.New("overlapping amplifier layout")

	// ErrOutOfBounds indicates a box that escapes the buffer or parent box
	// that must contain it.
	ErrOutOfBounds = errors.New("box out of bounds")

	// ErrUnknownAmplifierID indicates a lookup for an amplifier id the
	// geometry descriptor does not define.
	ErrUnknownAmplifierID = errors.New("unknown amplifier id")
)
