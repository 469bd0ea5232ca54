package middleware

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"PulseTrace/internal/domain/models"
	domrepo "PulseTrace/internal/domain/repository"
	"PulseTrace/internal/services/analysis"
)

// Proc is the minimal processor interface the pipeline needs.
type Proc interface {
	Process(ctx context.Context, strip models.Strip) (models.Outcome, error)
}

// StripPipeline sits between the live stream collector and the
// processor. It sanity-checks segmented strips and buffers them when
// downstream storage is unavailable, retrying with backoff so a
// ClickHouse hiccup does not lose live segments.
type StripPipeline struct {
	proc    Proc
	metrics domrepo.Metrics
	bufSize int
	bufCh   chan models.Strip
	stopCh  chan struct{}
	started bool
	mu      sync.Mutex
}

type PipelineOption func(*StripPipeline)

// WithBufferSize sets the buffer size used when downstream is unavailable.
func WithBufferSize(n int) PipelineOption {
	return func(p *StripPipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// NewStripPipeline creates a new pipeline.
func NewStripPipeline(proc Proc, metrics domrepo.Metrics, opts ...PipelineOption) *StripPipeline {
	p := &StripPipeline{
		proc:    proc,
		metrics: metrics,
		bufSize: 64,
		stopCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bufCh = make(chan models.Strip, p.bufSize)
	return p
}

// Start launches background retry of buffered strips.
func (p *StripPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		backoff := 100 * time.Millisecond
		for {
			select {
			case <-p.stopCh:
				return
			case strip := <-p.bufCh:
				if _, err := p.proc.Process(ctx, strip); err != nil {
					if permanent(err) {
						p.metrics.RecordError("pipeline_invalid")
						continue
					}
					if backoff < 5*time.Second {
						backoff *= 2
					}
					p.metrics.RecordError("pipeline_retry")
					time.Sleep(backoff)
					select {
					case p.bufCh <- strip:
					default:
						p.metrics.RecordError("pipeline_buffer_drop")
					}
				} else {
					backoff = 100 * time.Millisecond
				}
			}
		}
	}()
}

// Stop stops the background retry loop.
func (p *StripPipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
}

// Process forwards a strip to the processor, buffering it for retry
// when the processor fails on a collaborator error. Validation failures
// are permanent: the strip is dropped, not buffered, since no retry can
// repair a malformed signal.
func (p *StripPipeline) Process(ctx context.Context, strip models.Strip) error {
	if err := checkStrip(strip); err != nil {
		p.metrics.RecordError("pipeline_segment")
		return err
	}

	if _, err := p.proc.Process(ctx, strip); err != nil {
		if permanent(err) {
			p.metrics.RecordError("pipeline_invalid")
			return fmt.Errorf("pipeline invalid strip: %w", err)
		}
		p.metrics.RecordError("pipeline_process")
		select {
		case p.bufCh <- strip:
		default:
			p.metrics.RecordError("pipeline_buffer_full")
		}
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	return nil
}

// permanent reports whether a processing error can never succeed on
// retry.
func permanent(err error) bool {
	return errors.Is(err, analysis.ErrMalformedSignal) || errors.Is(err, analysis.ErrDegenerateDuration)
}

func checkStrip(strip models.Strip) error {
	if strip.Source == "" {
		return fmt.Errorf("strip source empty")
	}
	if len(strip.Samples) < 2 {
		return fmt.Errorf("strip too short: %d samples", len(strip.Samples))
	}
	return nil
}
