package analysis

import "testing"

func TestGateBounds(t *testing.T) {
	g := NewGate(0, 0)

	cases := []struct {
		bpm float64
		ok  bool
	}{
		{36, true},
		{150, true},
		{92.3, true},
		{35.9, false},
		{150.1, false},
		{200, false},
		{0, false},
	}
	for _, c := range cases {
		ok, reason := g.Check(c.bpm)
		if ok != c.ok {
			t.Fatalf("bpm %v: expected ok=%v", c.bpm, c.ok)
		}
		if !ok && reason == "" {
			t.Fatalf("bpm %v: expected a rejection reason", c.bpm)
		}
		if ok && reason != "" {
			t.Fatalf("bpm %v: unexpected reason %q", c.bpm, reason)
		}
	}
}

func TestGateCustomBounds(t *testing.T) {
	g := NewGate(50, 100)
	if ok, _ := g.Check(45); ok {
		t.Fatalf("expected 45 rejected with lo=50")
	}
	if ok, _ := g.Check(100); !ok {
		t.Fatalf("expected upper bound inclusive")
	}
}
