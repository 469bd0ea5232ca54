package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"PulseTrace/internal/domain/models"
	"PulseTrace/internal/ingest"
	"PulseTrace/internal/report"
	applogger "PulseTrace/pkg/logger"
)

// BatchRunner processes CSV strips through the pipeline, one JSON
// report per accepted input. Failures and rejections are per-file:
// logged and skipped, never fatal for the rest of the batch. Files are
// independent, so the runner fans out over a bounded worker pool.
type BatchRunner struct {
	proc        *StripProcessor
	writer      *report.FileWriter
	logger      *applogger.Logger
	workers     int
	perFileLogs bool
}

// BatchSummary reports what happened to each input of a run.
type BatchSummary struct {
	Files    int
	Accepted int
	Rejected int
	Failed   int
}

func NewBatchRunner(proc *StripProcessor, writer *report.FileWriter, logger *applogger.Logger, workers int, perFileLogs bool) *BatchRunner {
	if workers < 1 {
		workers = 1
	}
	return &BatchRunner{proc: proc, writer: writer, logger: logger, workers: workers, perFileLogs: perFileLogs}
}

// RunDir processes every *.csv file directly under dir.
func (b *BatchRunner) RunDir(ctx context.Context, dir string) (BatchSummary, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return BatchSummary{}, fmt.Errorf("scan %s: %w", dir, err)
	}
	if len(paths) == 0 {
		return BatchSummary{}, fmt.Errorf("no csv files in %s", dir)
	}
	sort.Strings(paths)

	var (
		summary BatchSummary
		mu      sync.Mutex
		wg      sync.WaitGroup
		jobs    = make(chan string)
	)
	summary.Files = len(paths)

	for i := 0; i < b.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				outcome, err := b.RunFile(ctx, path)
				mu.Lock()
				switch {
				case err != nil:
					summary.Failed++
				case outcome.Accepted():
					summary.Accepted++
				default:
					summary.Rejected++
				}
				mu.Unlock()
			}
		}()
	}

	for _, path := range paths {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return summary, ctx.Err()
		case jobs <- path:
		}
	}
	close(jobs)
	wg.Wait()
	return summary, nil
}

// RunFile processes a single CSV file end to end. Rejections surface a
// user-visible notice and write nothing; errors abort this file only.
func (b *BatchRunner) RunFile(ctx context.Context, path string) (models.Outcome, error) {
	log, closeLog := b.fileLogger(path)
	defer closeLog()

	strip, dropped, err := ingest.ReadFile(path)
	if err != nil {
		log.Error("read strip failed", applogger.String("file", path), applogger.Error(err))
		return models.Outcome{}, err
	}
	if dropped > 0 {
		log.Warn("dropped malformed rows", applogger.String("file", path), applogger.Int("rows", dropped))
	}

	outcome, err := b.proc.Process(ctx, strip)
	if err != nil {
		log.Error("processing failed", applogger.String("file", path), applogger.Error(err))
		return models.Outcome{}, err
	}
	if !outcome.Accepted() {
		rej := outcome.Rejection
		log.Warn("strip rejected",
			applogger.String("file", path),
			applogger.Float64("bpm", rej.BPM),
			applogger.String("reason", rej.Reason),
		)
		fmt.Fprintln(os.Stderr, rej.Notice())
		return outcome, nil
	}

	out, err := b.writer.Write(path, outcome.Report)
	if err != nil {
		log.Error("write report failed", applogger.String("file", path), applogger.Error(err))
		return models.Outcome{}, err
	}
	log.Info("report written",
		applogger.String("file", path),
		applogger.String("output", out),
		applogger.Int("beats", outcome.Report.NumBeats),
		applogger.Float64("bpm", outcome.Report.MeanHRBPM),
	)
	return outcome, nil
}

// fileLogger returns a logger writing next to the input file when
// per-file logs are enabled, otherwise the shared logger. The returned
// close func releases the log file; it is a no-op for the shared
// logger, which outlives the file.
func (b *BatchRunner) fileLogger(path string) (*applogger.Logger, func()) {
	if !b.perFileLogs {
		return b.logger, func() {}
	}
	logPath := strings.TrimSuffix(path, filepath.Ext(path)) + "_logs.txt"
	fl, err := applogger.New(&applogger.Config{Level: "info", Format: "json", Output: logPath})
	if err != nil {
		return b.logger, func() {}
	}
	return fl, func() { _ = fl.Close() }
}
