package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"PulseTrace/internal/domain/models"
	"PulseTrace/internal/report"
	applogger "PulseTrace/pkg/logger"
)

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func writeCSV(t *testing.T, dir, name string, strip models.Strip) string {
	t.Helper()
	var b strings.Builder
	for _, s := range strip.Samples {
		fmt.Fprintf(&b, "%g,%g\n", s.T, s.V)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}

func newTestRunner(t *testing.T, workers int) *BatchRunner {
	t.Helper()
	proc := newTestProcessor(nil, nil, nil, newFakeMetrics())
	return NewBatchRunner(proc, report.NewFileWriter(""), testLogger(t), workers, false)
}

func TestRunFileWritesReport(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "rec1.csv", normalStrip())

	runner := newTestRunner(t, 1)
	outcome, err := runner.RunFile(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !outcome.Accepted() {
		t.Fatalf("expected accepted, got %+v", outcome.Rejection)
	}

	out := filepath.Join(dir, "rec1.json")
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("expected report at %s: %v", out, err)
	}
	var r models.Report
	if err := json.Unmarshal(b, &r); err != nil {
		t.Fatalf("report not valid JSON: %v", err)
	}
	if r.NumBeats != 10 || r.MeanHRBPM != 60 {
		t.Fatalf("unexpected report %+v", r)
	}
	if r.Source != "rec1" {
		t.Fatalf("expected source from file name, got %q", r.Source)
	}
}

func TestRunFilePerFileLogClosed(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "rec1.csv", normalStrip())

	proc := newTestProcessor(nil, nil, nil, newFakeMetrics())
	runner := NewBatchRunner(proc, report.NewFileWriter(""), testLogger(t), 1, true)
	if _, err := runner.RunFile(context.Background(), path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	logPath := filepath.Join(dir, "rec1_logs.txt")
	b, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("expected per-file log at %s: %v", logPath, err)
	}
	if !strings.Contains(string(b), "report written") {
		t.Fatalf("per-file log missing entries: %q", b)
	}
}

func TestRunFileRejectedWritesNothing(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "racing.csv", racingStrip())

	runner := newTestRunner(t, 1)
	outcome, err := runner.RunFile(context.Background(), path)
	if err != nil {
		t.Fatalf("rejection is not an error: %v", err)
	}
	if outcome.Accepted() {
		t.Fatalf("expected rejection")
	}
	if _, err := os.Stat(filepath.Join(dir, "racing.json")); !os.IsNotExist(err) {
		t.Fatalf("rejected strip must not produce a report file")
	}
}

func TestRunFileMalformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "junk.csv")
	if err := os.WriteFile(path, []byte("time,voltage\nnot,numbers\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	runner := newTestRunner(t, 1)
	if _, err := runner.RunFile(context.Background(), path); err == nil {
		t.Fatalf("expected error for strip with no usable rows")
	}
}

func TestRunDirSummary(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "a.csv", normalStrip())
	writeCSV(t, dir, "b.csv", racingStrip())
	writeCSV(t, dir, "c.csv", normalStrip())

	runner := newTestRunner(t, 2)
	summary, err := runner.RunDir(context.Background(), dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Files != 3 || summary.Accepted != 2 || summary.Rejected != 1 || summary.Failed != 0 {
		t.Fatalf("unexpected summary %+v", summary)
	}
}

func TestRunDirEmpty(t *testing.T) {
	runner := newTestRunner(t, 1)
	if _, err := runner.RunDir(context.Background(), t.TempDir()); err == nil {
		t.Fatalf("expected error for directory without csv files")
	}
}
