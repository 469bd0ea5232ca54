package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"PulseTrace/internal/domain/models"
)

func sampleReport() *models.Report {
	return &models.Report{
		MeanHRBPM:       72.5,
		NumBeats:        12,
		Beats:           []float64{0.2, 1.1, 1.9},
		Duration:        9.9,
		VoltageExtremes: [2]float64{-0.68, 1.05},
		Source:          "rec1",
	}
}

func TestWriteNextToInput(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "rec1.csv")

	out, err := NewFileWriter("").Write(input, sampleReport())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != filepath.Join(dir, "rec1.json") {
		t.Fatalf("unexpected output path %s", out)
	}

	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var r models.Report
	if err := json.Unmarshal(b, &r); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if r.MeanHRBPM != 72.5 || r.NumBeats != 12 {
		t.Fatalf("unexpected report %+v", r)
	}
	if r.WindowHRBPM != nil {
		t.Fatalf("window fields must be omitted when unset")
	}
}

func TestWriteToOutputDir(t *testing.T) {
	inDir := t.TempDir()
	outDir := t.TempDir()
	input := filepath.Join(inDir, "rec2.csv")

	out, err := NewFileWriter(outDir).Write(input, sampleReport())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != filepath.Join(outDir, "rec2.json") {
		t.Fatalf("unexpected output path %s", out)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("expected file written: %v", err)
	}
}

func TestWriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	if _, err := NewFileWriter(dir).Write(filepath.Join(dir, "rec3.csv"), sampleReport()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "rec3.json" {
		t.Fatalf("expected only rec3.json, got %v", entries)
	}
}
