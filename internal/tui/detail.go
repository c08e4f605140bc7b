package tui

import (
	"fmt"
	"strings"

	"github.com/apivet/apivet/internal/models"
)

// detailHeight is the fixed number of lines for the detail panel.
const detailHeight = 5

// renderDetail produces the detail view for a selected finding.
func renderDetail(finding *models.Finding, width int) string {
	if finding == nil {
		return styleDetailPanel.Width(width).Render("No finding selected")
	}

	var b strings.Builder

	sevStyled := severityStyle(finding.Severity).Render(strings.ToUpper(string(finding.Severity)))
	b.WriteString(fmt.Sprintf("%s  %s\n", sevStyled, finding.Rule))
	b.WriteString(fmt.Sprintf("Endpoint: %s %s\n", finding.Method, finding.Path))

	if finding.Risk != "" {
		b.WriteString(fmt.Sprintf("Risk: %s\n", finding.Risk))
	}

	source := "heuristic rule engine"
	if finding.Provenance == models.ProvenanceLLM {
		source = "model hypothesis (verify before acting)"
	}
	b.WriteString(fmt.Sprintf("Source: %s", source))

	return styleDetailPanel.Width(width).Render(b.String())
}
