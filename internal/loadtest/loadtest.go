// Package loadtest runs many pipeline invocations concurrently to
// simulate concurrent users, and aggregates latency statistics.
package loadtest

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vulnscout/vulnscout/internal/pipeline"
	"github.com/vulnscout/vulnscout/internal/pkg/logger"
)

// Runner executes one pipeline invocation. Satisfied by
// *pipeline.Orchestrator.
type Runner interface {
	Run(ctx context.Context, question string, limit int) (*pipeline.Result, error)
}

// Result records the outcome of one concurrent invocation. A failed
// invocation still reports the wall time elapsed up to the failure.
type Result struct {
	Query     string        `json:"query"`
	TotalTime time.Duration `json:"total_time"`
	Success   bool          `json:"success"`
	Err       string        `json:"error,omitempty"`
}

// Tester issues concurrent pipeline invocations.
type Tester struct {
	runner Runner
	limit  int
	log    *logger.Logger
}

// New creates a load tester over the given runner. limit is the
// per-invocation result-count limit; non-positive falls back to the
// pipeline default.
func New(runner Runner, limit int, log *logger.Logger) *Tester {
	return &Tester{
		runner: runner,
		limit:  limit,
		log:    log.WithComponent("loadtest"),
	}
}

// Run launches exactly users invocations concurrently, cycling through
// the query list to fill every slot. An empty query list yields zero
// results. Each invocation catches its own failure; siblings are never
// cancelled, and all are awaited before returning.
func (t *Tester) Run(ctx context.Context, queries []string, users int) []Result {
	slots := fillSlots(queries, users)
	if len(slots) == 0 {
		return nil
	}

	t.log.Info("starting load test", "users", len(slots), "queries", len(queries))

	results := make([]Result, len(slots))
	var g errgroup.Group
	for i, query := range slots {
		i, query := i, query
		g.Go(func() error {
			results[i] = t.runOne(ctx, query)
			return nil
		})
	}

	// No invocation returns an error to the group, so Wait only joins.
	_ = g.Wait()

	return results
}

// runOne executes a single invocation, converting any failure into a
// failed Result.
func (t *Tester) runOne(ctx context.Context, query string) Result {
	start := time.Now()
	_, err := t.runner.Run(ctx, query, t.limit)
	elapsed := time.Since(start)

	if err != nil {
		return Result{
			Query:     query,
			TotalTime: elapsed,
			Success:   false,
			Err:       err.Error(),
		}
	}

	return Result{
		Query:     query,
		TotalTime: elapsed,
		Success:   true,
	}
}

// fillSlots assigns a query to each of users slots, cycling the query
// list as needed. Returns nil when the list is empty.
func fillSlots(queries []string, users int) []string {
	if len(queries) == 0 || users <= 0 {
		return nil
	}

	slots := make([]string, 0, users)
	for len(slots) < users {
		for _, q := range queries {
			slots = append(slots, q)
			if len(slots) == users {
				break
			}
		}
	}
	return slots
}
