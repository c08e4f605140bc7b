package reporter

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/apivet/apivet/internal/models"
)

// maxRiskLength truncates long risk text in table cells.
const maxRiskLength = 60

// TextReporter generates human-readable text reports.
type TextReporter struct {
	writer io.Writer
}

// NewTextReporter creates a new text reporter.
func NewTextReporter(writer io.Writer) *TextReporter {
	return &TextReporter{
		writer: writer,
	}
}

// Generate renders the report as sectioned text with finding tables.
// Sections come out in a fixed order so repeated runs over the same
// report produce identical bytes.
func (r *TextReporter) Generate(report *models.Report) error {
	r.printHeader()
	r.printf("Target: %s\n", report.Target)
	r.printf("Generated: %s\n\n", formatTimestamp(report.GeneratedAt))

	r.printSummary(report)
	r.printFindings(report)
	r.printObservations(report)
	r.printSkipped(report)

	if len(report.Recommendations) > 0 {
		r.printRecommendations(report.Recommendations)
	}

	return nil
}

func (r *TextReporter) printHeader() {
	r.printf("╔════════════════════════════════════════════╗\n")
	r.printf("║        apivet Attack Surface Report        ║\n")
	r.printf("╚════════════════════════════════════════════╝\n\n")
}

func (r *TextReporter) printSummary(report *models.Report) {
	r.printf("Overall Summary:\n")
	r.printf("--------------------------------------------------\n")
	r.printf("  Endpoints Analyzed: %d\n", report.Summary.TotalEndpoints)
	r.printf("  Flagged Endpoints: %d\n", report.Summary.FlaggedEndpoints)
	r.printf("  Total Findings: %d\n", report.Summary.TotalFindings)
	if report.Summary.HighestSeverity != "" {
		r.printf("  Highest Severity: %s\n", strings.ToUpper(string(report.Summary.HighestSeverity)))
	}
	r.printf("  LLM Assist: %s\n", r.llmStatusLine(report))
	r.printf("\n")

	if len(report.Summary.FindingsBySeverity) > 0 {
		r.printf("Findings by Severity:\n")
		for _, sev := range []models.Severity{models.SeverityHigh, models.SeverityMedium, models.SeverityLow} {
			if count := report.Summary.FindingsBySeverity[string(sev)]; count > 0 {
				r.printf("  %s: %d\n", strings.ToUpper(string(sev)), count)
			}
		}
		r.printf("\n")
	}
}

func (r *TextReporter) llmStatusLine(report *models.Report) string {
	switch report.LLMStatus {
	case models.LLMOK:
		return fmt.Sprintf("ok (%d hypotheses)", report.Summary.FindingsByProvenance[string(models.ProvenanceLLM)])
	case models.LLMDegraded:
		return "DEGRADED (heuristic results only)"
	default:
		return "disabled"
	}
}

func (r *TextReporter) printFindings(report *models.Report) {
	if len(report.Findings) == 0 {
		r.printf("No findings. The surface looks quiet.\n\n")
		return
	}

	r.printf("Findings:\n")
	table := tablewriter.NewWriter(r.writer)
	table.SetHeader([]string{"Method", "Path", "Severity", "Rule", "Source", "Risk"})
	table.SetBorder(true)

	for _, f := range report.Findings {
		table.Append([]string{
			string(f.Method),
			f.Path,
			strings.ToUpper(string(f.Severity)),
			string(f.Rule),
			string(f.Provenance),
			truncate(f.Risk, maxRiskLength),
		})
	}

	table.Render()
	r.printf("\n")
}

func (r *TextReporter) printObservations(report *models.Report) {
	if len(report.Observations) == 0 {
		return
	}

	r.printf("Observations:\n")
	r.printf("--------------------------------------------------\n")
	for _, obs := range report.Observations {
		if obs.Severity != "" {
			r.printf("  - [%s] %s\n", strings.ToUpper(string(obs.Severity)), obs.Title)
		} else {
			r.printf("  - %s\n", obs.Title)
		}
		if obs.Detail != "" {
			r.printf("    %s\n", obs.Detail)
		}
	}
	r.printf("\n")
}

func (r *TextReporter) printSkipped(report *models.Report) {
	if len(report.Skipped) == 0 {
		return
	}

	r.printf("Skipped Endpoints:\n")
	r.printf("--------------------------------------------------\n")
	for _, s := range report.Skipped {
		r.printf("  - %s %s: %s\n", s.Method, s.Path, s.Reason)
	}
	r.printf("\n")
}

func (r *TextReporter) printRecommendations(recommendations []models.Recommendation) {
	r.printf("Recommended Actions:\n")
	r.printf("--------------------------------------------------\n")

	for i, rec := range recommendations {
		r.printf("  %d. [%s] %s\n", i+1, strings.ToUpper(string(rec.Severity)), rec.Action)
		r.printf("     Impact: %s\n", rec.Impact)
	}
}

// printf is a helper to write formatted output.
func (r *TextReporter) printf(format string, args ...interface{}) {
	fmt.Fprintf(r.writer, format, args...)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

// formatTimestamp formats a timestamp for display.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05")
}
