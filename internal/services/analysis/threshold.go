package analysis

import (
	"fmt"
	"math"

	"PulseTrace/internal/domain/models"
	"PulseTrace/internal/domain/service"
)

// FractionOfPeak derives the detection threshold as a fraction of the
// maximum voltage in the strip. 0.75 is the usual QRS rule of thumb.
type FractionOfPeak struct {
	Fraction float64
}

func (f FractionOfPeak) Threshold(strip models.Strip) float64 {
	if len(strip.Samples) == 0 {
		return 0
	}
	peak := math.Inf(-1)
	for _, s := range strip.Samples {
		if s.V > peak {
			peak = s.V
		}
	}
	return f.Fraction * peak
}

// Absolute uses a caller-supplied fixed voltage as the threshold.
type Absolute struct {
	Value float64
}

func (a Absolute) Threshold(models.Strip) float64 { return a.Value }

// NewStrategy builds a threshold strategy from configuration values.
func NewStrategy(kind string, fraction, value float64) (service.ThresholdStrategy, error) {
	switch kind {
	case "", "fraction_of_peak":
		if fraction <= 0 || fraction > 1 {
			return nil, fmt.Errorf("threshold fraction must be in (0,1], got %g", fraction)
		}
		return FractionOfPeak{Fraction: fraction}, nil
	case "absolute":
		return Absolute{Value: value}, nil
	default:
		return nil, fmt.Errorf("unknown threshold strategy %q", kind)
	}
}
