package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"PulseTrace/internal/domain/models"
	drepo "PulseTrace/internal/domain/repository"
	icache "PulseTrace/internal/service/cache"
	"PulseTrace/internal/services/analysis"
)

type fakeMetrics struct {
	mu      sync.Mutex
	results map[string]int
	errs    map[string]int
	lastBPM float64
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{results: make(map[string]int), errs: make(map[string]int)}
}

func (m *fakeMetrics) RecordStripProcessed(source, result string) {
	m.mu.Lock()
	m.results[result]++
	m.mu.Unlock()
}

func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	m.errs[kind]++
	m.mu.Unlock()
}

func (m *fakeMetrics) RecordLastBPM(source string, bpm float64) {
	m.mu.Lock()
	m.lastBPM = bpm
	m.mu.Unlock()
}

func (m *fakeMetrics) RecordLatency(op string, seconds float64) {}

type fakeStore struct {
	mu     sync.Mutex
	stored []*models.Report
	fail   bool
}

func (s *fakeStore) Init(ctx context.Context) error { return nil }

func (s *fakeStore) Store(ctx context.Context, r *models.Report) error {
	if s.fail {
		return errors.New("store down")
	}
	s.mu.Lock()
	s.stored = append(s.stored, r)
	s.mu.Unlock()
	return nil
}

func (s *fakeStore) Query(ctx context.Context, source string, from, to time.Time, limit int) ([]*models.Report, error) {
	return nil, nil
}

func (s *fakeStore) Health(ctx context.Context) error { return nil }
func (s *fakeStore) Close() error                     { return nil }

type fakePublisher struct {
	mu        sync.Mutex
	published []*models.Report
	fail      bool
}

func (p *fakePublisher) Publish(ctx context.Context, r *models.Report) error {
	if p.fail {
		return errors.New("broker down")
	}
	p.mu.Lock()
	p.published = append(p.published, r)
	p.mu.Unlock()
	return nil
}

func (p *fakePublisher) Close() error { return nil }

// normalStrip has 10 spikes over 10 seconds, 60 BPM with an absolute
// threshold of 1.0.
func normalStrip() models.Strip {
	strip := models.Strip{Source: "test"}
	for i := 0; i < 10; i++ {
		strip.Samples = append(strip.Samples,
			models.Sample{T: float64(i), V: 0},
			models.Sample{T: float64(i) + 0.5, V: 2.0},
		)
	}
	strip.Samples = append(strip.Samples, models.Sample{T: 10, V: 0})
	return strip
}

// racingStrip has 10 spikes over 2 seconds, 300 BPM.
func racingStrip() models.Strip {
	strip := models.Strip{Source: "racing"}
	for i := 0; i < 10; i++ {
		strip.Samples = append(strip.Samples,
			models.Sample{T: 0.2 * float64(i), V: 0},
			models.Sample{T: 0.2*float64(i) + 0.1, V: 2.0},
		)
	}
	strip.Samples = append(strip.Samples, models.Sample{T: 2, V: 0})
	return strip
}

func newTestProcessor(store drepo.Storage, pub drepo.Publisher, cache icache.BytesCache, m *fakeMetrics) *StripProcessor {
	return NewStripProcessor(analysis.Absolute{Value: 1.0}, analysis.NewGate(0, 0), nil, store, pub, cache, m)
}

func TestProcessAccepted(t *testing.T) {
	store := &fakeStore{}
	pub := &fakePublisher{}
	m := newFakeMetrics()
	proc := newTestProcessor(store, pub, nil, m)

	outcome, err := proc.Process(context.Background(), normalStrip())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !outcome.Accepted() {
		t.Fatalf("expected accepted, got rejection %+v", outcome.Rejection)
	}
	if outcome.Report.NumBeats != 10 {
		t.Fatalf("expected 10 beats, got %d", outcome.Report.NumBeats)
	}
	if outcome.Report.MeanHRBPM != 60 {
		t.Fatalf("expected 60 BPM, got %v", outcome.Report.MeanHRBPM)
	}
	if len(store.stored) != 1 {
		t.Fatalf("expected report stored once, got %d", len(store.stored))
	}
	if len(pub.published) != 1 {
		t.Fatalf("expected report published once, got %d", len(pub.published))
	}
	if m.results["accepted"] != 1 {
		t.Fatalf("expected accepted metric, got %v", m.results)
	}
	if m.lastBPM != 60 {
		t.Fatalf("expected last BPM gauge 60, got %v", m.lastBPM)
	}
}

func TestProcessRejected(t *testing.T) {
	store := &fakeStore{}
	m := newFakeMetrics()
	proc := newTestProcessor(store, nil, nil, m)

	outcome, err := proc.Process(context.Background(), racingStrip())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Accepted() {
		t.Fatalf("expected rejection for 300 BPM")
	}
	if outcome.Rejection.BPM != 300 {
		t.Fatalf("expected rejection BPM 300, got %v", outcome.Rejection.BPM)
	}
	if !strings.Contains(outcome.Rejection.Reason, "outside physiological range") {
		t.Fatalf("unexpected reason %q", outcome.Rejection.Reason)
	}
	if len(store.stored) != 0 {
		t.Fatalf("rejected strip must not be stored")
	}
	if m.results["rejected"] != 1 {
		t.Fatalf("expected rejected metric, got %v", m.results)
	}
}

func TestProcessMalformed(t *testing.T) {
	m := newFakeMetrics()
	proc := newTestProcessor(nil, nil, nil, m)

	_, err := proc.Process(context.Background(), models.Strip{Source: "empty"})
	if !errors.Is(err, analysis.ErrMalformedSignal) {
		t.Fatalf("expected ErrMalformedSignal, got %v", err)
	}
	if m.errs["validate"] != 1 {
		t.Fatalf("expected validate error metric, got %v", m.errs)
	}
}

func TestProcessCacheHit(t *testing.T) {
	store := &fakeStore{}
	m := newFakeMetrics()
	proc := newTestProcessor(store, nil, icache.NewMemory(), m)

	strip := normalStrip()
	first, err := proc.Process(context.Background(), strip)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := proc.Process(context.Background(), strip)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !second.Accepted() {
		t.Fatalf("expected cached hit to be accepted")
	}
	if second.Report.MeanHRBPM != first.Report.MeanHRBPM {
		t.Fatalf("cached report differs: %v vs %v", second.Report.MeanHRBPM, first.Report.MeanHRBPM)
	}
	if len(store.stored) != 1 {
		t.Fatalf("cache hit must not store again, got %d stores", len(store.stored))
	}
	if m.results["cached"] != 1 {
		t.Fatalf("expected cached metric, got %v", m.results)
	}
}

func TestProcessCacheSeparatesWindows(t *testing.T) {
	store := &fakeStore{}
	m := newFakeMetrics()
	proc := newTestProcessor(store, nil, icache.NewMemory(), m)

	strip := normalStrip()
	if _, err := proc.Process(context.Background(), strip); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	windowed, err := proc.ProcessWithWindow(context.Background(), strip, &models.Window{Start: 0, End: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if windowed.Report.WindowHRBPM == nil {
		t.Fatalf("windowed request must not reuse the un-windowed cached report")
	}
	if *windowed.Report.WindowHRBPM != 60 {
		t.Fatalf("expected window BPM 60, got %v", *windowed.Report.WindowHRBPM)
	}
	if m.results["cached"] != 0 {
		t.Fatalf("different window must miss the cache, got %v", m.results)
	}

	again, err := proc.ProcessWithWindow(context.Background(), strip, &models.Window{Start: 0, End: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again.Report.WindowHRBPM == nil || *again.Report.WindowHRBPM != 60 {
		t.Fatalf("same window must hit the cache with the windowed report, got %+v", again.Report)
	}
	if m.results["cached"] != 1 {
		t.Fatalf("expected one cache hit, got %v", m.results)
	}
}

func TestProcessStoreFailure(t *testing.T) {
	store := &fakeStore{fail: true}
	m := newFakeMetrics()
	proc := newTestProcessor(store, nil, nil, m)

	_, err := proc.Process(context.Background(), normalStrip())
	if err == nil {
		t.Fatalf("expected error when storage fails")
	}
	if m.errs["store"] != 1 {
		t.Fatalf("expected store error metric, got %v", m.errs)
	}
}

func TestProcessPublishBestEffort(t *testing.T) {
	store := &fakeStore{}
	pub := &fakePublisher{fail: true}
	m := newFakeMetrics()
	proc := newTestProcessor(store, pub, nil, m)

	outcome, err := proc.Process(context.Background(), normalStrip())
	if err != nil {
		t.Fatalf("publish failure must not fail processing: %v", err)
	}
	if !outcome.Accepted() {
		t.Fatalf("expected accepted outcome")
	}
	if m.errs["publish"] != 1 {
		t.Fatalf("expected publish error metric, got %v", m.errs)
	}
}

func TestProcessWithWindow(t *testing.T) {
	m := newFakeMetrics()
	proc := newTestProcessor(nil, nil, nil, m)

	outcome, err := proc.ProcessWithWindow(context.Background(), normalStrip(), &models.Window{Start: 0, End: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Report.WindowHRBPM == nil {
		t.Fatalf("expected windowed BPM")
	}
	// beats at 0.5..4.5 inside [0,5): 5 beats over 5 seconds
	if *outcome.Report.WindowHRBPM != 60 {
		t.Fatalf("expected window BPM 60, got %v", *outcome.Report.WindowHRBPM)
	}
}
