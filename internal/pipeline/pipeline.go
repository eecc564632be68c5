// Package pipeline orchestrates the translate, search, and advise
// stages for one user question.
package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/vulnscout/vulnscout/internal/advisor"
	"github.com/vulnscout/vulnscout/internal/pkg/errors"
	"github.com/vulnscout/vulnscout/internal/pkg/logger"
	"github.com/vulnscout/vulnscout/internal/shodan"
	"github.com/vulnscout/vulnscout/internal/translate"
)

// DefaultLimit is the result-count limit applied when the caller does
// not supply a positive one.
const DefaultLimit = 5

// Translator turns a question into a search query.
type Translator interface {
	Translate(ctx context.Context, question string) (*translate.TranslatedQuery, error)
}

// Searcher retrieves host records for a search query.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]shodan.HostRecord, error)
}

// Advisor produces one remediation per host record, positionally
// aligned with its input.
type Advisor interface {
	Advise(ctx context.Context, records []shodan.HostRecord) []advisor.Remediation
}

// StageTimings holds wall-clock durations for one invocation. Total is
// measured independently of the stage sum.
type StageTimings struct {
	Translate time.Duration `json:"translate"`
	Search    time.Duration `json:"search"`
	Advise    time.Duration `json:"advise"`
	Total     time.Duration `json:"total"`
}

// Result is the outcome of one pipeline invocation.
type Result struct {
	Report       string
	Query        translate.TranslatedQuery
	Records      []shodan.HostRecord
	Remediations []advisor.Remediation
	Timings      StageTimings
}

// Orchestrator sequences the three pipeline stages. Collaborators are
// injected so tests can substitute doubles.
type Orchestrator struct {
	translator Translator
	searcher   Searcher
	advisor    Advisor
	log        *logger.Logger
}

// New creates an orchestrator over the given collaborators.
func New(translator Translator, searcher Searcher, adv Advisor, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		translator: translator,
		searcher:   searcher,
		advisor:    adv,
		log:        log.WithComponent("pipeline"),
	}
}

// Run executes one full invocation: validate, translate, search,
// advise, format. Any hard failure aborts the invocation; no partial
// report is returned. A non-positive limit falls back to DefaultLimit.
func (o *Orchestrator) Run(ctx context.Context, question string, limit int) (*Result, error) {
	if strings.TrimSpace(question) == "" {
		return nil, errors.ValidationError("question must not be empty")
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	start := time.Now()
	res := &Result{}

	stageStart := time.Now()
	tq, err := o.translator.Translate(ctx, question)
	if err != nil {
		return nil, err
	}
	res.Timings.Translate = time.Since(stageStart)
	res.Query = *tq

	if tq.Degraded {
		o.log.Warn("running with degraded translation", "reason", tq.DegradedReason)
	}

	stageStart = time.Now()
	records, err := o.searcher.Search(ctx, tq.SearchQuery, limit)
	if err != nil {
		return nil, err
	}
	res.Timings.Search = time.Since(stageStart)
	res.Records = records

	stageStart = time.Now()
	res.Remediations = o.advisor.Advise(ctx, records)
	res.Timings.Advise = time.Since(stageStart)

	res.Report = formatReport(res.Query, res.Records, res.Remediations)
	res.Timings.Total = time.Since(start)

	o.log.Debug("pipeline complete",
		"records", len(records),
		"total_ms", res.Timings.Total.Milliseconds(),
	)

	return res, nil
}
