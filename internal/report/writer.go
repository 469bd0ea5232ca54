package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"PulseTrace/internal/domain/models"
)

// FileWriter serializes accepted reports to JSON files. The output file
// mirrors the input file's base name with a .json extension. Writes go
// through a temp file and rename so a failed run never leaves partial
// JSON behind.
type FileWriter struct {
	// Dir overrides the output directory. Empty means next to the input.
	Dir string
}

func NewFileWriter(dir string) *FileWriter { return &FileWriter{Dir: dir} }

// Write stores the report for the given input path and returns the
// path written.
func (w *FileWriter) Write(inputPath string, r *models.Report) (string, error) {
	out := w.outputPath(inputPath)

	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal report %s: %w", r.Source, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(out), ".report-*.json")
	if err != nil {
		return "", fmt.Errorf("create temp for %s: %w", out, err)
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write %s: %w", out, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close %s: %w", out, err)
	}
	if err := os.Rename(tmp.Name(), out); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("rename %s: %w", out, err)
	}
	return out, nil
}

func (w *FileWriter) outputPath(inputPath string) string {
	base := filepath.Base(inputPath)
	name := strings.TrimSuffix(base, filepath.Ext(base)) + ".json"
	dir := w.Dir
	if dir == "" {
		dir = filepath.Dir(inputPath)
	}
	return filepath.Join(dir, name)
}
