package usecase

import (
	"context"
	"sync"
	"testing"

	"PulseTrace/internal/domain/models"
	mid "PulseTrace/internal/middleware"
)

type captureProc struct {
	mu     sync.Mutex
	strips []models.Strip
}

func (p *captureProc) Process(ctx context.Context, strip models.Strip) (models.Outcome, error) {
	p.mu.Lock()
	p.strips = append(p.strips, strip)
	p.mu.Unlock()
	return models.Outcome{Report: &models.Report{}}, nil
}

func TestCollectSegmentsBySpan(t *testing.T) {
	proc := &captureProc{}
	m := newFakeMetrics()
	pipe := mid.NewStripPipeline(proc, m)
	c := NewStreamCollector(nil, pipe, m, "bedside-01", 1.0)

	ctx := context.Background()
	for _, s := range []models.Sample{
		{T: 0.0, V: 0.1}, {T: 0.5, V: 1.2}, {T: 1.0, V: 0.1},
	} {
		c.collect(ctx, s)
	}

	if len(proc.strips) != 1 {
		t.Fatalf("expected one flushed strip, got %d", len(proc.strips))
	}
	got := proc.strips[0]
	if got.Source != "bedside-01-000001" {
		t.Fatalf("unexpected strip source %q", got.Source)
	}
	if len(got.Samples) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(got.Samples))
	}

	// next segment continues the sequence
	for _, s := range []models.Sample{
		{T: 1.5, V: 0.1}, {T: 2.0, V: 1.3}, {T: 2.5, V: 0.1},
	} {
		c.collect(ctx, s)
	}
	if len(proc.strips) != 2 {
		t.Fatalf("expected second flushed strip, got %d", len(proc.strips))
	}
	if proc.strips[1].Source != "bedside-01-000002" {
		t.Fatalf("unexpected sequence %q", proc.strips[1].Source)
	}
}

func TestCollectOutOfOrderResets(t *testing.T) {
	proc := &captureProc{}
	m := newFakeMetrics()
	pipe := mid.NewStripPipeline(proc, m)
	c := NewStreamCollector(nil, pipe, m, "bedside-01", 1.0)

	ctx := context.Background()
	c.collect(ctx, models.Sample{T: 5.0, V: 0.1})
	c.collect(ctx, models.Sample{T: 4.0, V: 0.1}) // device clock jumped back
	c.collect(ctx, models.Sample{T: 4.5, V: 0.1})
	c.collect(ctx, models.Sample{T: 5.1, V: 0.1})

	if len(proc.strips) != 1 {
		t.Fatalf("expected one strip after reset, got %d", len(proc.strips))
	}
	if got := proc.strips[0].Samples[0].T; got != 4.0 {
		t.Fatalf("expected buffer restarted at t=4.0, got %v", got)
	}
	if m.errs["stream_out_of_order"] != 1 {
		t.Fatalf("expected out-of-order metric, got %v", m.errs)
	}
}
