// Package advisor generates remediation guidance for host records
// using the completion service.
package advisor

import (
	"context"
	"fmt"
	"strings"

	"github.com/vulnscout/vulnscout/internal/completion"
	"github.com/vulnscout/vulnscout/internal/pkg/logger"
	"github.com/vulnscout/vulnscout/internal/shodan"
)

const systemPrompt = `You are a cybersecurity expert. Analyze the provided system details
and provide a detailed, step-by-step solution to address the identified vulnerabilities and security issues.
Focus on:
1. Critical security fixes
2. Configuration improvements
3. Best practices
4. Preventive measures

Keep your response concise but actionable, with clear steps.`

// degradedText is the sentinel carried by a remediation whose
// completion call failed.
const degradedText = "Unable to generate solution for this result."

// Remediation is guidance for exactly one host record. The pairing
// with its record is positional.
type Remediation struct {
	Text     string `json:"text"`
	Degraded bool   `json:"degraded,omitempty"`
}

// Advisor produces remediation guidance per host record.
type Advisor struct {
	client completion.Client
	log    *logger.Logger
}

// New creates an advisor backed by the given completion client.
func New(client completion.Client, log *logger.Logger) *Advisor {
	return &Advisor{
		client: client,
		log:    log.WithComponent("advisor"),
	}
}

// Advise returns one remediation per input record, positionally
// aligned. Per-record failures degrade only their own slot; the calls
// run sequentially, so advisor latency scales with record count.
func (a *Advisor) Advise(ctx context.Context, records []shodan.HostRecord) []Remediation {
	remediations := make([]Remediation, len(records))
	for i, rec := range records {
		remediations[i] = a.AdviseRecord(ctx, rec)
	}
	return remediations
}

// AdviseRecord generates guidance for one record. A completion failure
// is converted into a degraded remediation rather than an error.
func (a *Advisor) AdviseRecord(ctx context.Context, rec shodan.HostRecord) Remediation {
	text, err := a.client.Complete(ctx, systemPrompt, recordPrompt(rec))
	if err != nil {
		a.log.Warn("degrading remediation", "ip", rec.IP, "error", err)
		return Remediation{Text: degradedText, Degraded: true}
	}
	return Remediation{Text: text}
}

// recordPrompt names the product, version, port, and vulnerability list
// of one record. The vulnerability line is omitted when empty.
func recordPrompt(rec shodan.HostRecord) string {
	var sb strings.Builder
	sb.WriteString("Analyze this system and provide specific solutions:\n")
	fmt.Fprintf(&sb, "Product: %s %s\n", rec.Product, rec.Version)
	fmt.Fprintf(&sb, "Port: %s\n", rec.Port)
	if len(rec.Vulns) > 0 {
		fmt.Fprintf(&sb, "Vulnerabilities: %s\n", strings.Join(rec.Vulns, ", "))
	}
	return sb.String()
}
