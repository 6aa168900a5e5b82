package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"grid-harness/training"
)

// LoadCSV parses a headered CSV file into a frame. Numeric columns parse as
// floats; anything else is treated as categorical and encoded as the index
// of the level in first-seen order. Missing values parse as 0.
func LoadCSV(path string) (*training.Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset %s: %w", path, err)
	}
	defer f.Close()

	frame, err := ParseCSV(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse dataset %s: %w", path, err)
	}
	return frame, nil
}

// ParseCSV parses headered CSV content from r into a frame
func ParseCSV(r io.Reader) (*training.Frame, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("dataset needs a header row and at least one data row")
	}

	header := records[0]
	rows := records[1:]
	cols := make([][]float64, len(header))
	levels := make([]map[string]float64, len(header))
	for i := range cols {
		cols[i] = make([]float64, len(rows))
		levels[i] = make(map[string]float64)
	}

	for r, row := range rows {
		if len(row) != len(header) {
			return nil, fmt.Errorf("row %d has %d fields, header has %d", r+1, len(row), len(header))
		}
		for c, field := range row {
			field = strings.TrimSpace(field)
			if field == "" {
				continue
			}
			if v, err := strconv.ParseFloat(field, 64); err == nil {
				cols[c][r] = v
				continue
			}
			level, ok := levels[c][field]
			if !ok {
				level = float64(len(levels[c]))
				levels[c][field] = level
			}
			cols[c][r] = level
		}
	}

	names := make([]string, len(header))
	for i, h := range header {
		names[i] = strings.TrimSpace(h)
	}
	return &training.Frame{Names: names, Cols: cols}, nil
}
