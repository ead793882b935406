package cursor

import "errors"

// Contract violations. These are programmer errors and are never recovered
// inside the framework.
var (
	// ErrOutOfRange indicates Next at the last element or Prev at the first.
	ErrOutOfRange = errors.New("cursor out of range")

	// ErrEmptyInput indicates a leaf was constructed over zero elements.
	ErrEmptyInput = errors.New("empty input")

	// ErrNotSeekable indicates the supplied stream cannot seek.
	ErrNotSeekable = errors.New("stream is not seekable")

	// ErrMalformedInput indicates a group was fetched away from a group
	// boundary, usually because the input structure is invalid.
	ErrMalformedInput = errors.New("malformed input")
)

// Position errors.
var (
	// ErrForeignPosition is returned by leaves when given a position they did
	// not produce.
	ErrForeignPosition = errors.New("foreign position")

	// ErrStalePosition marks a position whose generation or shape no longer
	// matches. Mid-stack layers recover from it by resetting.
	ErrStalePosition = errors.New("stale position")
)

// IsRecoverable reports whether a failed restore should degrade to a reset
// instead of surfacing.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrForeignPosition) ||
		errors.Is(err, ErrStalePosition) ||
		errors.Is(err, ErrOutOfRange)
}
