// Package evaluation runs sequential pipeline invocations with a
// per-stage latency breakdown.
package evaluation

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/vulnscout/vulnscout/internal/pipeline"
	"github.com/vulnscout/vulnscout/internal/pkg/logger"
)

// Runner executes one pipeline invocation. Satisfied by
// *pipeline.Orchestrator.
type Runner interface {
	Run(ctx context.Context, question string, limit int) (*pipeline.Result, error)
}

// TimingSample holds one invocation's stage breakdown. Total is
// measured independently of the stage sum.
type TimingSample struct {
	Total     time.Duration `json:"total"`
	Translate time.Duration `json:"translate"`
	Search    time.Duration `json:"search"`
	Advise    time.Duration `json:"advise"`
}

// Evaluator runs the query set sequentially, one invocation at a time.
type Evaluator struct {
	runner  Runner
	limit   int
	limiter *rate.Limiter
	log     *logger.Logger
}

// New creates an evaluator. cooldown is the minimum interval between
// invocations, applied to respect upstream rate limits; zero disables
// it.
func New(runner Runner, limit int, cooldown time.Duration, log *logger.Logger) *Evaluator {
	var limiter *rate.Limiter
	if cooldown > 0 {
		limiter = rate.NewLimiter(rate.Every(cooldown), 1)
	}

	return &Evaluator{
		runner:  runner,
		limit:   limit,
		limiter: limiter,
		log:     log.WithComponent("evaluation"),
	}
}

// Run executes queries x iterations invocations strictly sequentially.
// A per-invocation failure is logged and dropped from the result set;
// the run continues with the next invocation.
func (e *Evaluator) Run(ctx context.Context, queries []string, iterations int) ([]TimingSample, error) {
	var samples []TimingSample

	for _, query := range queries {
		for i := 0; i < iterations; i++ {
			if e.limiter != nil {
				if err := e.limiter.Wait(ctx); err != nil {
					return samples, err
				}
			}

			res, err := e.runner.Run(ctx, query, e.limit)
			if err != nil {
				e.log.WithQuery(query).Warn("dropping failed invocation",
					"iteration", i+1, "error", err)
				continue
			}

			samples = append(samples, TimingSample{
				Total:     res.Timings.Total,
				Translate: res.Timings.Translate,
				Search:    res.Timings.Search,
				Advise:    res.Timings.Advise,
			})
		}
	}

	return samples, nil
}
