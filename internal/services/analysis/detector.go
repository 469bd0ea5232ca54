package analysis

import "PulseTrace/internal/domain/models"

// Detector finds heartbeats by threshold crossing: contiguous runs of
// samples at or above the threshold form one candidate QRS region, and
// the beat time is the time of the region's maximum voltage.
type Detector struct{}

func NewDetector() Detector { return Detector{} }

// Detect returns the peak time of every detected beat, in time order.
// Pure function of its inputs: a strip entirely below the threshold
// yields no beats, a single-sample region is a valid beat, and a region
// still open at the end of the strip is closed with the samples seen so
// far. Within a region, ties on the maximum voltage resolve to the
// earliest sample.
func (Detector) Detect(strip models.Strip, threshold float64) []float64 {
	beats := []float64{}
	inRegion := false
	var peakT, peakV float64

	for _, s := range strip.Samples {
		if s.V >= threshold {
			if !inRegion {
				inRegion = true
				peakT, peakV = s.T, s.V
			} else if s.V > peakV {
				// strict > keeps the first occurrence on ties
				peakT, peakV = s.T, s.V
			}
			continue
		}
		if inRegion {
			beats = append(beats, peakT)
			inRegion = false
		}
	}
	if inRegion {
		beats = append(beats, peakT)
	}
	return beats
}
