package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"PulseTrace/internal/domain/models"
	drepo "PulseTrace/internal/domain/repository"
	domsvc "PulseTrace/internal/domain/service"
	icache "PulseTrace/internal/service/cache"
	"PulseTrace/internal/services/analysis"
)

// StripProcessor runs one ECG strip through validation, beat detection,
// metrics computation, and the plausibility gate. The stages themselves
// are pure; side effects (storage, publishing, caching, metrics) stay
// at the edges and are injected. Stateless across strips, so callers
// may run independent strips concurrently.
type StripProcessor struct {
	validator analysis.Validator
	strategy  domsvc.ThresholdStrategy
	detector  domsvc.BeatDetector
	calc      domsvc.Calculator
	gate      domsvc.Gate

	window  *models.Window
	store   drepo.Storage     // optional
	pub     drepo.Publisher   // optional
	cache   icache.BytesCache // optional
	metrics drepo.Metrics
}

// NewStripProcessor creates a new StripProcessor instance. store, pub,
// and cache may be nil in batch-only setups.
func NewStripProcessor(
	strategy domsvc.ThresholdStrategy,
	gate domsvc.Gate,
	window *models.Window,
	store drepo.Storage,
	pub drepo.Publisher,
	cache icache.BytesCache,
	metrics drepo.Metrics,
) *StripProcessor {
	return &StripProcessor{
		validator: analysis.NewValidator(),
		detector:  analysis.NewDetector(),
		calc:      analysis.NewCalculator(),
		strategy:  strategy,
		gate:      gate,
		window:    window,
		store:     store,
		pub:       pub,
		cache:     cache,
		metrics:   metrics,
	}
}

// Process runs the full pipeline for one strip with the configured BPM
// window. A plausibility rejection is a normal outcome, not an error;
// errors mean the strip was malformed or a collaborator failed, and no
// report exists.
func (p *StripProcessor) Process(ctx context.Context, strip models.Strip) (models.Outcome, error) {
	return p.ProcessWithWindow(ctx, strip, p.window)
}

// ProcessWithWindow is Process with a per-call BPM window override
// (nil disables windowed BPM for this call).
func (p *StripProcessor) ProcessWithWindow(ctx context.Context, strip models.Strip, window *models.Window) (models.Outcome, error) {
	start := time.Now()

	if r := p.cached(strip, window); r != nil {
		p.metrics.RecordStripProcessed(strip.Source, "cached")
		return models.Outcome{Report: r}, nil
	}

	if err := p.validator.Validate(strip); err != nil {
		p.metrics.RecordError("validate")
		p.metrics.RecordStripProcessed(strip.Source, "error")
		return models.Outcome{}, err
	}

	threshold := p.strategy.Threshold(strip)
	beats := p.detector.Detect(strip, threshold)

	report, err := p.calc.Compute(strip, beats, window)
	if err != nil {
		p.metrics.RecordError("compute")
		p.metrics.RecordStripProcessed(strip.Source, "error")
		return models.Outcome{}, err
	}

	if ok, reason := p.gate.Check(report.MeanHRBPM); !ok {
		p.metrics.RecordStripProcessed(strip.Source, "rejected")
		return models.Outcome{Rejection: &models.Rejection{
			Source: strip.Source,
			BPM:    report.MeanHRBPM,
			Reason: reason,
		}}, nil
	}

	if p.store != nil {
		if err := p.store.Store(ctx, report); err != nil {
			p.metrics.RecordError("store")
			return models.Outcome{}, fmt.Errorf("store report %s: %w", strip.Source, err)
		}
	}
	if p.pub != nil {
		// publishing is best-effort; the report itself already exists
		if err := p.pub.Publish(ctx, report); err != nil {
			p.metrics.RecordError("publish")
		}
	}
	p.remember(strip, window, report)

	p.metrics.RecordLastBPM(strip.Source, report.MeanHRBPM)
	p.metrics.RecordStripProcessed(strip.Source, "accepted")
	p.metrics.RecordLatency("process", time.Since(start).Seconds())
	return models.Outcome{Report: report}, nil
}

func (p *StripProcessor) cached(strip models.Strip, window *models.Window) *models.Report {
	if p.cache == nil {
		return nil
	}
	b, ok, err := p.cache.GetBytes(cacheKey(strip, window))
	if err != nil || !ok {
		return nil
	}
	var r models.Report
	if err := json.Unmarshal(b, &r); err != nil {
		return nil
	}
	return &r
}

func (p *StripProcessor) remember(strip models.Strip, window *models.Window, r *models.Report) {
	if p.cache == nil {
		return
	}
	b, err := json.Marshal(r)
	if err != nil {
		return
	}
	_ = p.cache.SetBytes(cacheKey(strip, window), b, 10*time.Minute)
}

// cacheKey identifies a report by the strip's samples and the requested
// window; the same samples with a different window are distinct reports.
func cacheKey(strip models.Strip, window *models.Window) string {
	if window == nil {
		return "report:" + strip.Digest()
	}
	return fmt.Sprintf("report:%s:%g-%g", strip.Digest(), window.Start, window.End)
}
