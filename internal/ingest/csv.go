package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"PulseTrace/internal/domain/models"
)

// CSVReader loads two-column time,voltage ECG strips. No header is
// assumed; a header row simply parses as a malformed row and is
// dropped. Malformed rows are counted, not fatal.
type CSVReader struct {
	reader *csv.Reader
	source string

	// Dropped counts rows skipped for parse errors after Read.
	Dropped int
}

// NewCSVReader wraps an open stream. source identifies the strip in
// logs and reports.
func NewCSVReader(r io.Reader, source string) *CSVReader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	return &CSVReader{reader: cr, source: source}
}

// Read consumes the whole stream and returns the strip. Rows that are
// not two parseable floats are dropped and counted. An input with no
// usable rows still returns an empty strip; validation downstream
// rejects it.
func (c *CSVReader) Read() (models.Strip, error) {
	strip := models.Strip{Source: c.source}
	for {
		record, err := c.reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			c.Dropped++
			continue
		}
		sample, ok := parseRow(record)
		if !ok {
			c.Dropped++
			continue
		}
		strip.Samples = append(strip.Samples, sample)
	}
	return strip, nil
}

func parseRow(record []string) (models.Sample, bool) {
	if len(record) < 2 {
		return models.Sample{}, false
	}
	t, err := strconv.ParseFloat(strings.TrimSpace(record[0]), 64)
	if err != nil {
		return models.Sample{}, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
	if err != nil {
		return models.Sample{}, false
	}
	return models.Sample{T: t, V: v}, true
}

// ReadFile loads a strip from a CSV file path. The strip source is the
// file's base name without extension.
func ReadFile(path string) (models.Strip, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.Strip{}, 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	base := filepath.Base(path)
	source := strings.TrimSuffix(base, filepath.Ext(base))
	r := NewCSVReader(f, source)
	strip, err := r.Read()
	if err != nil {
		return models.Strip{}, r.Dropped, fmt.Errorf("read %s: %w", path, err)
	}
	return strip, r.Dropped, nil
}
