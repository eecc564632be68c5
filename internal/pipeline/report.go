package pipeline

import (
	"fmt"
	"strings"

	"github.com/vulnscout/vulnscout/internal/advisor"
	"github.com/vulnscout/vulnscout/internal/shodan"
	"github.com/vulnscout/vulnscout/internal/translate"
)

// formatReport assembles the user-facing multi-section report: the
// suggested query and explanation, then each 1-indexed record followed
// immediately by its remediation at the same index.
func formatReport(tq translate.TranslatedQuery, records []shodan.HostRecord, remediations []advisor.Remediation) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "🔍 Suggested Search Query:\n%s\n\n", tq.SearchQuery)
	fmt.Fprintf(&sb, "📝 Explanation:\n%s\n\n", tq.Explanation)
	sb.WriteString("🌐 Results and Solutions:\n")

	for i, rec := range records {
		fmt.Fprintf(&sb, "\n📊 Result %d:\n", i+1)
		fmt.Fprintf(&sb, "IP: %s\n", rec.IP)
		fmt.Fprintf(&sb, "Port: %s\n", rec.Port)
		fmt.Fprintf(&sb, "Organization: %s\n", rec.Organization)
		fmt.Fprintf(&sb, "Location: %s\n", rec.Location)
		fmt.Fprintf(&sb, "Product: %s %s\n", rec.Product, rec.Version)
		if len(rec.Vulns) > 0 {
			fmt.Fprintf(&sb, "Vulnerabilities: %s\n", strings.Join(rec.Vulns, ", "))
		}

		if i < len(remediations) {
			fmt.Fprintf(&sb, "\n🛡️ Proposed Solution for Result %d:\n%s\n", i+1, remediations[i].Text)
		}
	}

	return sb.String()
}
