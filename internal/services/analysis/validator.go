package analysis

import (
	"fmt"
	"math"

	"PulseTrace/internal/domain/models"
)

// Validator checks the invariants the rest of the pipeline relies on:
// at least two samples, finite values, strictly increasing time.
type Validator struct{}

func NewValidator() Validator { return Validator{} }

// Validate returns an ErrMalformedSignal-wrapped error describing the
// first violation found, or nil for a well-formed strip.
func (Validator) Validate(strip models.Strip) error {
	if len(strip.Samples) == 0 {
		return fmt.Errorf("%w: empty strip", ErrMalformedSignal)
	}
	if len(strip.Samples) < 2 {
		return fmt.Errorf("%w: single-sample strip has no duration", ErrMalformedSignal)
	}
	prev := math.Inf(-1)
	for i, s := range strip.Samples {
		if math.IsNaN(s.T) || math.IsInf(s.T, 0) || math.IsNaN(s.V) || math.IsInf(s.V, 0) {
			return fmt.Errorf("%w: non-finite value at row %d", ErrMalformedSignal, i)
		}
		if s.T <= prev {
			return fmt.Errorf("%w: time not strictly increasing at row %d (%.6f -> %.6f)", ErrMalformedSignal, i, prev, s.T)
		}
		prev = s.T
	}
	return nil
}
