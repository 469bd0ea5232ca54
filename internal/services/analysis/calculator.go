package analysis

import (
	"fmt"
	"time"

	"PulseTrace/internal/domain/models"
)

// Calculator derives heart-rate metrics from detected beats and the
// strip they came from.
type Calculator struct{}

func NewCalculator() Calculator { return Calculator{} }

// Compute assembles a report: beat count, beat times, strip duration
// (taken from the full signal span, not the beat times), mean BPM, and
// voltage extremes. A zero or negative span yields an
// ErrDegenerateDuration-wrapped error; validation upstream rejects the
// strips that would trigger it.
func (Calculator) Compute(strip models.Strip, beats []float64, window *models.Window) (*models.Report, error) {
	start, end := strip.Span()
	duration := end - start
	if duration <= 0 {
		return nil, fmt.Errorf("strip %s: %w: span %.6fs", strip.Source, ErrDegenerateDuration, duration)
	}
	if beats == nil {
		beats = []float64{}
	}

	r := &models.Report{
		MeanHRBPM:       float64(len(beats)) / duration * 60,
		NumBeats:        len(beats),
		Beats:           beats,
		Duration:        duration,
		VoltageExtremes: voltageExtremes(strip.Samples),
		Source:          strip.Source,
		ComputedAt:      time.Now().UTC(),
	}

	if window != nil {
		bpm, err := windowBPM(beats, *window)
		if err != nil {
			return nil, fmt.Errorf("strip %s: %w", strip.Source, err)
		}
		w := *window
		r.WindowHRBPM = &bpm
		r.Window = &w
	}
	return r, nil
}

func windowBPM(beats []float64, w models.Window) (float64, error) {
	length := w.Length()
	if length <= 0 {
		return 0, fmt.Errorf("%w: window [%g,%g)", ErrDegenerateDuration, w.Start, w.End)
	}
	n := 0
	for _, b := range beats {
		if b >= w.Start && b < w.End {
			n++
		}
	}
	return float64(n) / length * 60, nil
}

func voltageExtremes(samples []models.Sample) [2]float64 {
	if len(samples) == 0 {
		return [2]float64{}
	}
	min, max := samples[0].V, samples[0].V
	for _, s := range samples[1:] {
		if s.V < min {
			min = s.V
		}
		if s.V > max {
			max = s.V
		}
	}
	return [2]float64{min, max}
}
