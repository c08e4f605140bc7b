package tui

import (
	"fmt"
	"strings"

	"github.com/apivet/apivet/internal/models"
)

// headerHeight is the number of terminal lines the header occupies.
const headerHeight = 6

// renderHeader produces the header string from report summary data.
func renderHeader(report *models.Report, width int) string {
	var b strings.Builder
	summary := report.Summary

	// Line 1: title, target, and augmentation status
	statusText := llmStatusStyle(report.LLMStatus).Render(strings.ToUpper(string(report.LLMStatus)))
	b.WriteString(fmt.Sprintf("apivet  LLM: %s", statusText))
	if report.Target != "" {
		b.WriteString(fmt.Sprintf("  Target: %s", report.Target))
	}
	b.WriteString("\n")

	// Line 2: endpoint and finding counts
	b.WriteString(fmt.Sprintf("Endpoints: %d  Flagged: %d  Findings: %d",
		summary.TotalEndpoints, summary.FlaggedEndpoints, summary.TotalFindings))
	b.WriteString("\n")

	// Line 3: severity breakdown
	sevParts := make([]string, 0, 3)
	for _, sev := range []models.Severity{models.SeverityHigh, models.SeverityMedium, models.SeverityLow} {
		if count, ok := summary.FindingsBySeverity[string(sev)]; ok && count > 0 {
			label := fmt.Sprintf("%s:%d", strings.ToUpper(string(sev)[:1]), count)
			sevParts = append(sevParts, severityStyle(sev).Render(label))
		}
	}
	if len(sevParts) > 0 {
		b.WriteString(strings.Join(sevParts, "  "))
	}
	b.WriteString("\n")

	// Line 4: finding sources
	srcParts := make([]string, 0, 2)
	for _, prov := range []models.Provenance{models.ProvenanceDeterministic, models.ProvenanceLLM} {
		if count, ok := summary.FindingsByProvenance[string(prov)]; ok && count > 0 {
			srcParts = append(srcParts, fmt.Sprintf("%s:%d", prov, count))
		}
	}
	if len(srcParts) > 0 {
		b.WriteString("Sources: ")
		b.WriteString(strings.Join(srcParts, "  "))
	}

	return styleHeader.Width(width).Render(b.String())
}
