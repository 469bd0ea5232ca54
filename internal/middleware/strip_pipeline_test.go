package middleware

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"PulseTrace/internal/domain/models"
	"PulseTrace/internal/services/analysis"
)

type stubMetrics struct {
	mu   sync.Mutex
	errs map[string]int
}

func newStubMetrics() *stubMetrics { return &stubMetrics{errs: make(map[string]int)} }

func (m *stubMetrics) RecordStripProcessed(source, result string) {}

func (m *stubMetrics) RecordError(kind string) {
	m.mu.Lock()
	m.errs[kind]++
	m.mu.Unlock()
}

func (m *stubMetrics) RecordLastBPM(source string, bpm float64) {}
func (m *stubMetrics) RecordLatency(op string, seconds float64) {}

type stubProc struct {
	mu    sync.Mutex
	seen  []models.Strip
	calls int
	fail  bool
	err   error
}

func (p *stubProc) Process(ctx context.Context, strip models.Strip) (models.Outcome, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return models.Outcome{}, p.err
	}
	if p.fail {
		return models.Outcome{}, errors.New("storage down")
	}
	p.seen = append(p.seen, strip)
	return models.Outcome{Report: &models.Report{}}, nil
}

func validStrip() models.Strip {
	return models.Strip{Source: "s1", Samples: []models.Sample{{T: 0, V: 0}, {T: 1, V: 1}}}
}

func TestPipelineForwards(t *testing.T) {
	proc := &stubProc{}
	p := NewStripPipeline(proc, newStubMetrics())
	if err := p.Process(context.Background(), validStrip()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(proc.seen) != 1 {
		t.Fatalf("expected strip forwarded, got %d", len(proc.seen))
	}
}

func TestPipelineRejectsBadSegments(t *testing.T) {
	m := newStubMetrics()
	p := NewStripPipeline(&stubProc{}, m)

	if err := p.Process(context.Background(), models.Strip{Samples: []models.Sample{{T: 0}, {T: 1}}}); err == nil {
		t.Fatalf("expected error for empty source")
	}
	if err := p.Process(context.Background(), models.Strip{Source: "s1", Samples: []models.Sample{{T: 0}}}); err == nil {
		t.Fatalf("expected error for single-sample segment")
	}
	if m.errs["pipeline_segment"] != 2 {
		t.Fatalf("expected segment metric, got %v", m.errs)
	}
}

func TestPipelineBuffersOnFailure(t *testing.T) {
	proc := &stubProc{fail: true}
	m := newStubMetrics()
	p := NewStripPipeline(proc, m, WithBufferSize(2))

	if err := p.Process(context.Background(), validStrip()); err == nil {
		t.Fatalf("expected downstream error")
	}
	if m.errs["pipeline_process"] != 1 {
		t.Fatalf("expected process metric, got %v", m.errs)
	}
	if len(p.bufCh) != 1 {
		t.Fatalf("expected strip buffered for retry, got %d", len(p.bufCh))
	}
}

func TestPipelineDropsInvalidStrips(t *testing.T) {
	proc := &stubProc{err: fmt.Errorf("%w: non-finite voltage", analysis.ErrMalformedSignal)}
	m := newStubMetrics()
	p := NewStripPipeline(proc, m, WithBufferSize(2))

	if err := p.Process(context.Background(), validStrip()); err == nil {
		t.Fatalf("expected error for invalid strip")
	}
	if len(p.bufCh) != 0 {
		t.Fatalf("invalid strip must not be buffered for retry, got %d", len(p.bufCh))
	}
	if m.errs["pipeline_invalid"] != 1 {
		t.Fatalf("expected invalid metric, got %v", m.errs)
	}
	if proc.calls != 1 {
		t.Fatalf("invalid strip must be processed once, got %d calls", proc.calls)
	}

	proc.err = fmt.Errorf("%w: window [0,0)", analysis.ErrDegenerateDuration)
	if err := p.Process(context.Background(), validStrip()); err == nil {
		t.Fatalf("expected error for degenerate strip")
	}
	if len(p.bufCh) != 0 {
		t.Fatalf("degenerate strip must not be buffered, got %d", len(p.bufCh))
	}
}

func TestPipelineRetryDropsInvalidStrips(t *testing.T) {
	proc := &stubProc{err: fmt.Errorf("%w: empty strip", analysis.ErrMalformedSignal)}
	m := newStubMetrics()
	p := NewStripPipeline(proc, m, WithBufferSize(2))

	p.bufCh <- validStrip()
	p.Start(context.Background())
	defer p.Stop()

	deadline := time.After(time.Second)
	for {
		m.mu.Lock()
		dropped := m.errs["pipeline_invalid"]
		m.mu.Unlock()
		if dropped == 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("retry loop never dropped the invalid strip, errs %v", m.errs)
		case <-time.After(5 * time.Millisecond):
		}
	}
	if len(p.bufCh) != 0 {
		t.Fatalf("invalid strip must leave the buffer, got %d", len(p.bufCh))
	}
	proc.mu.Lock()
	calls := proc.calls
	proc.mu.Unlock()
	if calls != 1 {
		t.Fatalf("invalid strip must not be retried, got %d calls", calls)
	}
}

func TestPipelineBufferFull(t *testing.T) {
	proc := &stubProc{fail: true}
	m := newStubMetrics()
	p := NewStripPipeline(proc, m, WithBufferSize(1))

	_ = p.Process(context.Background(), validStrip())
	_ = p.Process(context.Background(), validStrip())
	if m.errs["pipeline_buffer_full"] != 1 {
		t.Fatalf("expected buffer full metric, got %v", m.errs)
	}
}
