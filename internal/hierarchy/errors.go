package hierarchy

import (
	"errors"
	"fmt"
)

// Sentinel errors for the kinds named in the retrieval index error taxonomy.
// BackendFailure has no sentinel: it is recovered locally by the summarizer
// and never surfaced to a caller.
var (
	// ErrInvalidInput marks a caller-facing violation: non-positive dimension,
	// mixed dimensions, non-finite embedding components, or an option outside
	// its allowed range.
	ErrInvalidInput = errors.New("hierarchy: invalid input")

	// ErrDimensionMismatch marks two vectors of differing length reaching the
	// similarity kernel. It is reported as a DimensionMismatchError wrapping
	// this sentinel, so errors.Is(err, ErrDimensionMismatch) still succeeds.
	ErrDimensionMismatch = errors.New("hierarchy: dimension mismatch")

	// ErrCancelled marks cooperative cancellation observed during a build.
	ErrCancelled = errors.New("hierarchy: build cancelled")

	// ErrInternal marks a post-hoc invariant violation. A correct
	// implementation must never return this; it exists so a bug surfaces as
	// an error rather than silent corruption.
	ErrInternal = errors.New("hierarchy: internal invariant violation")
)

// DimensionMismatchError annotates ErrDimensionMismatch with the two
// offending lengths.
type DimensionMismatchError struct {
	Want int
	Got  int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("hierarchy: dimension mismatch: want %d, got %d", e.Want, e.Got)
}

func (e *DimensionMismatchError) Unwrap() error {
	return ErrDimensionMismatch
}

func dimensionMismatch(want, got int) error {
	return &DimensionMismatchError{Want: want, Got: got}
}

func invalidInputf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrInvalidInput}, args...)...)
}

// IsInvalidInput reports whether err is, or wraps, ErrInvalidInput.
func IsInvalidInput(err error) bool { return errors.Is(err, ErrInvalidInput) }

// IsDimensionMismatch reports whether err is, or wraps, ErrDimensionMismatch.
func IsDimensionMismatch(err error) bool { return errors.Is(err, ErrDimensionMismatch) }

// IsCancelled reports whether err is, or wraps, ErrCancelled.
func IsCancelled(err error) bool { return errors.Is(err, ErrCancelled) }
