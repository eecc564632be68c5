package translate

import (
	"context"
	"testing"

	"github.com/vulnscout/vulnscout/internal/pkg/errors"
	"github.com/vulnscout/vulnscout/internal/pkg/logger"
)

// stubCompletion counts calls and replays a canned reply or error.
type stubCompletion struct {
	reply string
	err   error
	calls int
}

func (s *stubCompletion) Complete(ctx context.Context, system, user string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func TestTranslateParsesReply(t *testing.T) {
	stub := &stubCompletion{
		reply: `{"search_query": "product:nginx country:US", "explanation": "Nginx servers in the US."}`,
	}
	tr := New(stub, logger.Default())

	tq, err := tr.Translate(context.Background(), "find nginx servers in the US")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if tq.SearchQuery != "product:nginx country:US" {
		t.Errorf("unexpected search query: %q", tq.SearchQuery)
	}
	if tq.Explanation != "Nginx servers in the US." {
		t.Errorf("unexpected explanation: %q", tq.Explanation)
	}
	if tq.Degraded {
		t.Error("expected non-degraded result")
	}
}

func TestTranslateEmptyQuestion(t *testing.T) {
	tests := []struct {
		name     string
		question string
	}{
		{"empty", ""},
		{"whitespace", "   \t\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubCompletion{reply: "{}"}
			tr := New(stub, logger.Default())

			_, err := tr.Translate(context.Background(), tt.question)
			if err == nil {
				t.Fatal("expected error for empty question")
			}
			if !errors.IsValidation(err) {
				t.Errorf("expected validation error, got %v", err)
			}
			if stub.calls != 0 {
				t.Errorf("expected no collaborator calls, got %d", stub.calls)
			}
		})
	}
}

func TestTranslateDegradesOnBadReply(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"not json", "Sure! Try searching for nginx."},
		{"missing field", `{"explanation": "no query field"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubCompletion{reply: tt.reply}
			tr := New(stub, logger.Default())

			tq, err := tr.Translate(context.Background(), "find nginx servers")
			if err != nil {
				t.Fatalf("format failure must not be an error, got %v", err)
			}

			if !tq.Degraded {
				t.Error("expected degraded result")
			}
			if tq.DegradedReason == "" {
				t.Error("expected degraded reason")
			}
			if tq.SearchQuery != degradedQuery {
				t.Errorf("unexpected sentinel query: %q", tq.SearchQuery)
			}
			if tq.Explanation != degradedExplanation {
				t.Errorf("unexpected sentinel explanation: %q", tq.Explanation)
			}
		})
	}
}

func TestTranslateTransportFailurePropagates(t *testing.T) {
	stub := &stubCompletion{err: errors.CompletionError("rate limit exceeded", nil)}
	tr := New(stub, logger.Default())

	_, err := tr.Translate(context.Background(), "find nginx servers")
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Code(err) != errors.CodeCompletion {
		t.Errorf("expected completion error code, got %s", errors.Code(err))
	}
}
