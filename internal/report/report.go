// Package report persists harness run artifacts: row-oriented CSV
// samples and JSON summaries, both written once per run to
// timestamp-named files.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// TimestampedPath returns dir/prefix_YYYYMMDD_HHMMSS.ext, creating dir
// if needed.
func TimestampedPath(dir, prefix, ext string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output dir: %w", err)
	}

	stamp := time.Now().Format("20060102_150405")
	return filepath.Join(dir, fmt.Sprintf("%s_%s.%s", prefix, stamp, ext)), nil
}

// WriteCSV writes a header row followed by data rows.
func WriteCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}

	w.Flush()
	return w.Error()
}

// ReadCSV reads a CSV file and returns its data rows, skipping the
// header.
func ReadCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening csv file: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}

	if len(rows) <= 1 {
		return nil, nil
	}
	return rows[1:], nil
}

// WriteJSON writes an indented JSON summary.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding summary: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

// Latest returns the most-recently-modified file in dir matching
// prefix and ext. There is no schema versioning; consumers rely on
// modification time to find the current run's artifacts.
func Latest(dir, prefix, ext string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("reading output dir: %w", err)
	}

	var newest string
	var newestMod time.Time
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasPrefix(name, prefix+"_") || !strings.HasSuffix(name, "."+ext) {
			continue
		}

		info, err := e.Info()
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestMod) {
			newest = name
			newestMod = info.ModTime()
		}
	}

	if newest == "" {
		return "", fmt.Errorf("no %s_*.%s files in %s", prefix, ext, dir)
	}
	return filepath.Join(dir, newest), nil
}
