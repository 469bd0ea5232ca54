package models

import (
	"fmt"
	"time"
)

// Report holds the heart-rate metrics computed for one strip.
// Immutable once assembled by the processor.
type Report struct {
	MeanHRBPM       float64    `json:"mean_hr_bpm"`
	NumBeats        int        `json:"num_beats"`
	Beats           []float64  `json:"beats"`
	Duration        float64    `json:"duration"`
	VoltageExtremes [2]float64 `json:"voltage_extremes"`

	// WindowHRBPM is set only when a BPM window was requested.
	WindowHRBPM *float64 `json:"window_hr_bpm,omitempty"`
	Window      *Window  `json:"window,omitempty"`

	Source     string    `json:"source,omitempty"`
	ComputedAt time.Time `json:"computed_at,omitempty"`
}

// Rejection records a plausibility-gate rejection. It is a normal
// terminal outcome of processing, not an error.
type Rejection struct {
	Source string
	BPM    float64
	Reason string
}

// Notice returns the user-facing rejection message.
func (r Rejection) Notice() string {
	if r.Source == "" {
		return "Rejected: " + r.Reason
	}
	return fmt.Sprintf("Rejected %s: %s", r.Source, r.Reason)
}

// Outcome is the terminal state of one processing run: exactly one of
// Report or Rejection is set.
type Outcome struct {
	Report    *Report
	Rejection *Rejection
}

// Accepted reports whether the run produced a report.
func (o Outcome) Accepted() bool { return o.Report != nil }
