package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReadDropsMalformedRows(t *testing.T) {
	in := strings.NewReader("time,voltage\n0,-0.145\n0.003,-0.2\nbad,row\n0.006,-0.1\n")
	r := NewCSVReader(in, "rec")
	strip, err := r.Read()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(strip.Samples) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(strip.Samples))
	}
	// header and the bad row
	if r.Dropped != 2 {
		t.Fatalf("expected 2 dropped rows, got %d", r.Dropped)
	}
	if strip.Source != "rec" {
		t.Fatalf("unexpected source %q", strip.Source)
	}
	if strip.Samples[0].T != 0 || strip.Samples[0].V != -0.145 {
		t.Fatalf("unexpected first sample %+v", strip.Samples[0])
	}
}

func TestReadEmptyInput(t *testing.T) {
	strip, err := NewCSVReader(strings.NewReader(""), "rec").Read()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(strip.Samples) != 0 {
		t.Fatalf("expected empty strip, got %d samples", len(strip.Samples))
	}
}

func TestReadShortRows(t *testing.T) {
	r := NewCSVReader(strings.NewReader("0.5\n1,2\n"), "rec")
	strip, err := r.Read()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(strip.Samples) != 1 || r.Dropped != 1 {
		t.Fatalf("expected single-column row dropped, got %d samples %d dropped", len(strip.Samples), r.Dropped)
	}
}

func TestReadFileSourceFromName(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "patient7.csv")
	if err := os.WriteFile(path, []byte("0,0.1\n1,0.2\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	strip, dropped, err := ReadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strip.Source != "patient7" {
		t.Fatalf("expected source from base name, got %q", strip.Source)
	}
	if dropped != 0 || len(strip.Samples) != 2 {
		t.Fatalf("unexpected read result: %d samples, %d dropped", len(strip.Samples), dropped)
	}
}

func TestReadFileMissing(t *testing.T) {
	if _, _, err := ReadFile(filepath.Join(t.TempDir(), "nope.csv")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
