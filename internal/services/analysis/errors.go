package analysis

import "errors"

var (
	// ErrMalformedSignal marks strips that fail validation: empty,
	// non-finite values, or non-monotonic time.
	ErrMalformedSignal = errors.New("malformed signal")

	// ErrDegenerateDuration marks a zero or negative time span, which
	// makes BPM undefined.
	ErrDegenerateDuration = errors.New("degenerate duration")
)
