package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"testing"
	"time"
)

func TestTimestampedPath(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")

	path, err := TimestampedPath(dir, "timing_results", "csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("output dir not created: %v", err)
	}

	name := filepath.Base(path)
	pattern := regexp.MustCompile(`^timing_results_\d{8}_\d{6}\.csv$`)
	if !pattern.MatchString(name) {
		t.Errorf("file name %q does not match prefix_YYYYMMDD_HHMMSS.ext", name)
	}
}

func TestWriteReadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	header := []string{"Query", "Total Time"}
	rows := [][]string{
		{"apache in germany", "1.5"},
		{"query, with comma", "0.25"},
	}

	if err := WriteCSV(path, header, rows); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	got, err := ReadCSV(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !reflect.DeepEqual(got, rows) {
		t.Errorf("round trip mismatch: got %v, want %v", got, rows)
	}
}

func TestReadCSVHeaderOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	if err := WriteCSV(path, []string{"A", "B"}, nil); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	rows, err := ReadCSV(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected no data rows, got %v", rows)
	}
}

func TestReadCSVMissing(t *testing.T) {
	if _, err := ReadCSV(filepath.Join(t.TempDir(), "absent.csv")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.json")
	payload := map[string]any{"samples": 3, "mean": 1.5}

	if err := WriteJSON(path, payload); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("output is not valid json: %v", err)
	}
	if got["samples"].(float64) != 3 || got["mean"].(float64) != 1.5 {
		t.Errorf("round trip mismatch: %v", got)
	}
}

func TestLatest(t *testing.T) {
	dir := t.TempDir()

	older := filepath.Join(dir, "timing_results_20240101_000000.csv")
	newer := filepath.Join(dir, "timing_results_20240102_000000.csv")
	other := filepath.Join(dir, "analysis_20240103_000000.json")
	for _, p := range []string{older, newer, other} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	// Selection is by modification time, not by name.
	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(older, past, past); err != nil {
		t.Fatal(err)
	}

	got, err := Latest(dir, "timing_results", "csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != newer {
		t.Errorf("latest = %s, want %s", got, newer)
	}
}

func TestLatestNoMatches(t *testing.T) {
	if _, err := Latest(t.TempDir(), "timing_results", "csv"); err == nil {
		t.Fatal("expected error when no artifacts exist")
	}
}
