package analysis

import (
	"testing"

	"PulseTrace/internal/domain/models"
)

func TestFractionOfPeak(t *testing.T) {
	strip := models.Strip{Samples: []models.Sample{
		{T: 0, V: 0.5}, {T: 1, V: 2.0}, {T: 2, V: -1.0},
	}}
	got := FractionOfPeak{Fraction: 0.75}.Threshold(strip)
	if got != 1.5 {
		t.Fatalf("expected 1.5, got %v", got)
	}
}

func TestFractionOfPeakEmptyStrip(t *testing.T) {
	if got := (FractionOfPeak{Fraction: 0.75}).Threshold(models.Strip{}); got != 0 {
		t.Fatalf("expected 0 for empty strip, got %v", got)
	}
}

func TestAbsoluteThreshold(t *testing.T) {
	if got := (Absolute{Value: 0.8}).Threshold(twoBeatStrip()); got != 0.8 {
		t.Fatalf("expected 0.8, got %v", got)
	}
}

func TestNewStrategy(t *testing.T) {
	if _, err := NewStrategy("fraction_of_peak", 0.75, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// empty kind falls back to fraction_of_peak
	if _, err := NewStrategy("", 0.75, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := NewStrategy("absolute", 0, 1.0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := NewStrategy("fraction_of_peak", 0, 0); err == nil {
		t.Fatalf("expected error for zero fraction")
	}
	if _, err := NewStrategy("fraction_of_peak", 1.5, 0); err == nil {
		t.Fatalf("expected error for fraction > 1")
	}
	if _, err := NewStrategy("median", 0.75, 0); err == nil {
		t.Fatalf("expected error for unknown strategy")
	}
}
