package service

import "PulseTrace/internal/domain/models"

// BeatDetector locates heartbeats in a voltage series by threshold
// crossing and returns the peak time of each detected beat.
type BeatDetector interface {
	Detect(strip models.Strip, threshold float64) []float64
}

// ThresholdStrategy derives the detection threshold for a strip.
type ThresholdStrategy interface {
	Threshold(strip models.Strip) float64
}

// Calculator derives heart-rate metrics from detected beats and the
// strip they came from.
type Calculator interface {
	Compute(strip models.Strip, beats []float64, window *models.Window) (*models.Report, error)
}

// Gate decides whether a computed BPM is physiologically plausible.
type Gate interface {
	Check(bpm float64) (ok bool, reason string)
}
