package evaluation

import (
	"context"
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vulnscout/vulnscout/internal/pipeline"
	"github.com/vulnscout/vulnscout/internal/pkg/errors"
	"github.com/vulnscout/vulnscout/internal/pkg/logger"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

type scriptedRunner struct {
	queries []string
	failAt  int // 1-based invocation index to fail, 0 for never
	calls   int
}

func (r *scriptedRunner) Run(ctx context.Context, question string, limit int) (*pipeline.Result, error) {
	r.calls++
	r.queries = append(r.queries, question)
	if r.failAt == r.calls {
		return nil, errors.CompletionError("upstream unavailable", nil)
	}
	return &pipeline.Result{
		Timings: pipeline.StageTimings{
			Translate: 10 * time.Millisecond,
			Search:    20 * time.Millisecond,
			Advise:    30 * time.Millisecond,
			Total:     65 * time.Millisecond,
		},
	}, nil
}

func TestRunSampleCount(t *testing.T) {
	runner := &scriptedRunner{}
	ev := New(runner, 5, 0, logger.Default())

	samples, err := ev.Run(context.Background(), []string{"q1", "q2"}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(samples) != 6 {
		t.Fatalf("expected 6 samples, got %d", len(samples))
	}
	if runner.calls != 6 {
		t.Fatalf("expected 6 invocations, got %d", runner.calls)
	}

	// Iterations of a query run back to back before the next query.
	want := []string{"q1", "q1", "q1", "q2", "q2", "q2"}
	for i, q := range want {
		if runner.queries[i] != q {
			t.Fatalf("invocation %d was %q, want %q", i, runner.queries[i], q)
		}
	}

	for i, s := range samples {
		if s.Total < s.Advise {
			t.Errorf("sample %d total %v below largest stage %v", i, s.Total, s.Advise)
		}
	}
}

func TestRunDropsFailedInvocation(t *testing.T) {
	runner := &scriptedRunner{failAt: 2}
	ev := New(runner, 5, 0, logger.Default())

	samples, err := ev.Run(context.Background(), []string{"q1"}, 4)
	if err != nil {
		t.Fatalf("a per-invocation failure must not abort the run: %v", err)
	}
	if len(samples) != 3 {
		t.Fatalf("expected 3 samples after one drop, got %d", len(samples))
	}
	if runner.calls != 4 {
		t.Fatalf("expected all 4 invocations attempted, got %d", runner.calls)
	}
}

func TestRunCooldownSpacing(t *testing.T) {
	runner := &scriptedRunner{}
	ev := New(runner, 5, 30*time.Millisecond, logger.Default())

	start := time.Now()
	if _, err := ev.Run(context.Background(), []string{"q"}, 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	elapsed := time.Since(start)

	// Two waits between three invocations.
	if elapsed < 60*time.Millisecond {
		t.Errorf("run finished in %v, cooldown not applied", elapsed)
	}
}

func TestRunCooldownDisabled(t *testing.T) {
	runner := &scriptedRunner{}
	ev := New(runner, 5, 0, logger.Default())

	start := time.Now()
	if _, err := ev.Run(context.Background(), []string{"q"}, 50); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("run with disabled cooldown took %v", elapsed)
	}
}

func TestRunCancelledContext(t *testing.T) {
	runner := &scriptedRunner{}
	ev := New(runner, 5, time.Minute, logger.Default())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ev.Run(ctx, []string{"q"}, 2)
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
}

func TestAnalyze(t *testing.T) {
	samples := []TimingSample{
		{Total: 1 * time.Second, Translate: 200 * time.Millisecond, Search: 300 * time.Millisecond, Advise: 400 * time.Millisecond},
		{Total: 3 * time.Second, Translate: 400 * time.Millisecond, Search: 500 * time.Millisecond, Advise: 600 * time.Millisecond},
	}

	a := Analyze(samples)
	if a.Samples != 2 {
		t.Fatalf("samples = %d, want 2", a.Samples)
	}
	if a.Total.Mean != 2 {
		t.Errorf("total mean = %v, want 2", a.Total.Mean)
	}
	if a.Total.Min != 1 || a.Total.Max != 3 {
		t.Errorf("total min/max = %v/%v, want 1/3", a.Total.Min, a.Total.Max)
	}
	if !almostEqual(a.Stages.Translate, 0.3) {
		t.Errorf("translate mean = %v, want 0.3", a.Stages.Translate)
	}
	if !almostEqual(a.Stages.Search, 0.4) {
		t.Errorf("search mean = %v, want 0.4", a.Stages.Search)
	}
	if !almostEqual(a.Stages.Advise, 0.5) {
		t.Errorf("advise mean = %v, want 0.5", a.Stages.Advise)
	}
}

func TestAnalyzeEmpty(t *testing.T) {
	a := Analyze(nil)
	if a.Samples != 0 || a.Total.Mean != 0 || a.Stages.Translate != 0 {
		t.Errorf("unexpected analysis of empty batch: %+v", a)
	}
}

func TestSaveArtifacts(t *testing.T) {
	dir := t.TempDir()
	samples := []TimingSample{
		{Total: 1 * time.Second, Translate: 100 * time.Millisecond, Search: 200 * time.Millisecond, Advise: 300 * time.Millisecond},
	}

	csvPath, jsonPath, err := Save(dir, samples, Analyze(samples))
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if !strings.HasPrefix(filepath.Base(csvPath), "timing_results_") {
		t.Errorf("unexpected csv name %s", filepath.Base(csvPath))
	}
	if !strings.HasPrefix(filepath.Base(jsonPath), "analysis_") {
		t.Errorf("unexpected json name %s", filepath.Base(jsonPath))
	}

	f, err := os.Open(csvPath)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header plus one row, got %d rows", len(rows))
	}
	if rows[0][0] != "Total Time" || rows[0][3] != "Advise Time" {
		t.Errorf("unexpected header %v", rows[0])
	}
	if rows[1][0] != "1" {
		t.Errorf("total column = %q, want 1", rows[1][0])
	}
	if rows[1][1] != "0.1" {
		t.Errorf("translate column = %q, want 0.1", rows[1][1])
	}
}
