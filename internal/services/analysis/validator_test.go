package analysis

import (
	"errors"
	"math"
	"testing"

	"PulseTrace/internal/domain/models"
)

func TestValidateWellFormed(t *testing.T) {
	if err := NewValidator().Validate(twoBeatStrip()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateMalformed(t *testing.T) {
	cases := []struct {
		name    string
		samples []models.Sample
	}{
		{"empty", nil},
		{"single sample", []models.Sample{{T: 0, V: 1}}},
		{"NaN voltage", []models.Sample{{T: 0, V: 1}, {T: 1, V: math.NaN()}}},
		{"Inf time", []models.Sample{{T: 0, V: 1}, {T: math.Inf(1), V: 1}}},
		{"duplicate time", []models.Sample{{T: 0, V: 1}, {T: 0, V: 2}}},
		{"decreasing time", []models.Sample{{T: 1, V: 1}, {T: 0, V: 2}}},
	}
	v := NewValidator()
	for _, c := range cases {
		err := v.Validate(models.Strip{Source: c.name, Samples: c.samples})
		if !errors.Is(err, ErrMalformedSignal) {
			t.Fatalf("%s: expected ErrMalformedSignal, got %v", c.name, err)
		}
	}
}
