package models

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
)

// Sample is a single ECG measurement: time in seconds, voltage in mV.
type Sample struct {
	T float64 `json:"t"`
	V float64 `json:"v"`
}

// Strip is one ECG recording, read from a CSV file, a Kafka message, or
// a segment of a live stream. Samples are expected in time order;
// validation enforces the invariants before processing.
type Strip struct {
	Source  string   `json:"source"`
	Samples []Sample `json:"samples"`
}

// Span returns the first and last sample times of the strip.
// Zero values for an empty strip.
func (s Strip) Span() (start, end float64) {
	if len(s.Samples) == 0 {
		return 0, 0
	}
	return s.Samples[0].T, s.Samples[len(s.Samples)-1].T
}

// Duration returns the time covered by the strip in seconds.
func (s Strip) Duration() float64 {
	start, end := s.Span()
	return end - start
}

// Digest returns a stable hex digest of the sample data, used as a
// cache key so identical strips are not re-analyzed.
func (s Strip) Digest() string {
	h := sha256.New()
	var buf [16]byte
	for _, sm := range s.Samples {
		binary.LittleEndian.PutUint64(buf[:8], math.Float64bits(sm.T))
		binary.LittleEndian.PutUint64(buf[8:], math.Float64bits(sm.V))
		h.Write(buf[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Window is a [Start, End) time range in seconds used for windowed BPM
// computation.
type Window struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Length returns the window length in seconds.
func (w Window) Length() float64 { return w.End - w.Start }
