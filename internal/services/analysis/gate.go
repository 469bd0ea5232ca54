package analysis

import "fmt"

// Gate rejects BPM values outside the physiological range. Values out
// of range are treated as detection artifacts, not real physiology.
// Bounds are inclusive: with the defaults both 36 and 150 pass.
type Gate struct {
	Lo, Hi float64
}

// Default physiological bounds.
const (
	DefaultMinBPM = 36
	DefaultMaxBPM = 150
)

func NewGate(lo, hi float64) Gate {
	if lo == 0 && hi == 0 {
		lo, hi = DefaultMinBPM, DefaultMaxBPM
	}
	return Gate{Lo: lo, Hi: hi}
}

// Check returns ok=true for an in-range BPM, otherwise a loggable
// rejection reason. Pure decision function, no I/O.
func (g Gate) Check(bpm float64) (ok bool, reason string) {
	if bpm < g.Lo || bpm > g.Hi {
		return false, fmt.Sprintf("BPM %.1f outside physiological range [%g,%g]", bpm, g.Lo, g.Hi)
	}
	return true, ""
}
