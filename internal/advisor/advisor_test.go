package advisor

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/vulnscout/vulnscout/internal/pkg/errors"
	"github.com/vulnscout/vulnscout/internal/pkg/logger"
	"github.com/vulnscout/vulnscout/internal/shodan"
)

// flakyCompletion fails on specific call indexes (0-based).
type flakyCompletion struct {
	failOn  map[int]bool
	calls   int
	prompts []string
}

func (f *flakyCompletion) Complete(ctx context.Context, system, user string) (string, error) {
	idx := f.calls
	f.calls++
	f.prompts = append(f.prompts, user)

	if f.failOn[idx] {
		return "", errors.CompletionError("quota exceeded", nil)
	}
	return fmt.Sprintf("solution %d", idx), nil
}

func record(product string, vulns ...string) shodan.HostRecord {
	return shodan.HostRecord{
		IP:           "203.0.113.10",
		Port:         "443",
		Organization: "Example Org",
		Location:     "Germany, Berlin",
		Timestamp:    "2024-11-17T00:00:00",
		Product:      product,
		Version:      "2.4.49",
		Vulns:        vulns,
	}
}

func TestAdvisePositionalAlignment(t *testing.T) {
	records := []shodan.HostRecord{
		record("Apache httpd", "CVE-2021-41773"),
		record("nginx"),
		record("OpenSSH"),
	}

	stub := &flakyCompletion{failOn: map[int]bool{1: true}}
	a := New(stub, logger.Default())

	remediations := a.Advise(context.Background(), records)

	if len(remediations) != len(records) {
		t.Fatalf("expected %d remediations, got %d", len(records), len(remediations))
	}

	if remediations[0].Degraded || remediations[0].Text != "solution 0" {
		t.Errorf("slot 0: got %+v", remediations[0])
	}
	if !remediations[1].Degraded || remediations[1].Text != degradedText {
		t.Errorf("slot 1 should be degraded with sentinel text, got %+v", remediations[1])
	}
	if remediations[2].Degraded || remediations[2].Text != "solution 2" {
		t.Errorf("slot 2: got %+v", remediations[2])
	}
}

func TestAdviseEmptyInput(t *testing.T) {
	stub := &flakyCompletion{}
	a := New(stub, logger.Default())

	remediations := a.Advise(context.Background(), nil)
	if len(remediations) != 0 {
		t.Errorf("expected no remediations, got %d", len(remediations))
	}
	if stub.calls != 0 {
		t.Errorf("expected no collaborator calls, got %d", stub.calls)
	}
}

func TestRecordPrompt(t *testing.T) {
	t.Run("with vulnerabilities", func(t *testing.T) {
		p := recordPrompt(record("Apache httpd", "CVE-2021-41773", "CVE-2021-42013"))

		if !strings.Contains(p, "Product: Apache httpd 2.4.49") {
			t.Errorf("prompt missing product line: %q", p)
		}
		if !strings.Contains(p, "Port: 443") {
			t.Errorf("prompt missing port line: %q", p)
		}
		if !strings.Contains(p, "Vulnerabilities: CVE-2021-41773, CVE-2021-42013") {
			t.Errorf("prompt missing vulnerability line: %q", p)
		}
	})

	t.Run("without vulnerabilities", func(t *testing.T) {
		p := recordPrompt(record("nginx"))

		if strings.Contains(p, "Vulnerabilities") {
			t.Errorf("prompt should omit vulnerability line: %q", p)
		}
	})
}
