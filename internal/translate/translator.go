// Package translate converts natural-language security questions into
// device-search queries using the completion service.
package translate

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/vulnscout/vulnscout/internal/completion"
	"github.com/vulnscout/vulnscout/internal/pkg/errors"
	"github.com/vulnscout/vulnscout/internal/pkg/logger"
)

// systemPrompt instructs the completion service to answer with the two
// named fields the pipeline consumes.
const systemPrompt = `You are a Shodan search expert. Your role is to:
1. Convert user questions into effective Shodan search queries
2. Explain what the query does
3. Provide security considerations and warnings when relevant
4. Format your response as JSON with fields: 'search_query' and 'explanation'

Example response format:
{
    "search_query": "product:nginx country:US",
    "explanation": "This query searches for Nginx web servers located in the United States..."
}`

// Sentinel text carried by degraded translations, kept for display
// compatibility with the report format.
const (
	degradedQuery       = "Error: Could not generate query"
	degradedExplanation = "The response format was invalid. Please try rephrasing your question."
)

// TranslatedQuery is the structured result of translating one question.
// Degraded marks a translation whose completion reply could not be
// parsed; downstream code branches on the flag, not on sentinel text.
type TranslatedQuery struct {
	SearchQuery    string `json:"search_query"`
	Explanation    string `json:"explanation"`
	Degraded       bool   `json:"degraded,omitempty"`
	DegradedReason string `json:"degraded_reason,omitempty"`
}

// Translator turns user questions into search-engine queries.
type Translator struct {
	client completion.Client
	log    *logger.Logger
}

// New creates a translator backed by the given completion client.
func New(client completion.Client, log *logger.Logger) *Translator {
	return &Translator{
		client: client,
		log:    log.WithComponent("translator"),
	}
}

// Translate generates a search query for the question. An empty or
// whitespace-only question fails before any collaborator call. An
// unparsable completion reply degrades the result instead of failing;
// transport failures propagate.
func (t *Translator) Translate(ctx context.Context, question string) (*TranslatedQuery, error) {
	if strings.TrimSpace(question) == "" {
		return nil, errors.ValidationError("question must not be empty")
	}

	reply, err := t.client.Complete(ctx, systemPrompt, question)
	if err != nil {
		return nil, err
	}

	var tq TranslatedQuery
	if err := json.Unmarshal([]byte(strings.TrimSpace(reply)), &tq); err != nil || tq.SearchQuery == "" {
		reason := "completion reply was not valid JSON"
		if err == nil {
			reason = "completion reply was missing the search_query field"
		}
		t.log.Warn("degrading translation", "reason", reason)

		return &TranslatedQuery{
			SearchQuery:    degradedQuery,
			Explanation:    degradedExplanation,
			Degraded:       true,
			DegradedReason: reason,
		}, nil
	}

	tq.Degraded = false
	tq.DegradedReason = ""
	return &tq, nil
}
