package analyzer

import "github.com/apivet/apivet/internal/models"

// EndpointRisk is the per-endpoint display grouping: the endpoint, its
// findings in report order, and the overall severity (maximum across
// findings, empty when nothing fired; no signal is not the same as
// low).
type EndpointRisk struct {
	Endpoint models.Endpoint
	Findings []models.Finding
	Severity models.Severity
}

// Flagged reports whether any finding fired on the endpoint.
func (er EndpointRisk) Flagged() bool { return len(er.Findings) > 0 }

// Dedup drops exact repeats (same method, normalized path, rule, risk
// text, and provenance), keeping the first occurrence. Distinct rule
// firings always survive: each is its own signal. Running the same
// input through twice yields the same output.
func Dedup(findings []models.Finding) []models.Finding {
	if len(findings) < 2 {
		return findings
	}
	seen := make(map[string]bool, len(findings))
	out := make([]models.Finding, 0, len(findings))
	for _, f := range findings {
		k := f.Key()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, f)
	}
	return out
}

// GroupByEndpoint groups a report's findings per endpoint, preserving
// endpoint input order.
func GroupByEndpoint(report *models.Report) []EndpointRisk {
	byKey := make(map[string][]models.Finding, len(report.Endpoints))
	for _, f := range report.Findings {
		byKey[f.EndpointKey()] = append(byKey[f.EndpointKey()], f)
	}

	risks := make([]EndpointRisk, 0, len(report.Endpoints))
	for _, ep := range report.Endpoints {
		fs := byKey[ep.Key()]
		sev, _ := models.MaxSeverity(fs)
		risks = append(risks, EndpointRisk{Endpoint: ep, Findings: fs, Severity: sev})
	}
	return risks
}

// Summarize computes the aggregate counters for a report.
func Summarize(report *models.Report) models.Summary {
	summary := models.Summary{
		TotalEndpoints:       len(report.Endpoints),
		TotalFindings:        len(report.Findings),
		FindingsBySeverity:   make(map[string]int),
		FindingsByRule:       make(map[string]int),
		FindingsByProvenance: make(map[string]int),
	}

	flagged := make(map[string]bool)
	for _, f := range report.Findings {
		summary.FindingsBySeverity[string(f.Severity)]++
		summary.FindingsByRule[string(f.Rule)]++
		summary.FindingsByProvenance[string(f.Provenance)]++
		flagged[f.EndpointKey()] = true
		if f.Severity.Rank() > summary.HighestSeverity.Rank() {
			summary.HighestSeverity = f.Severity
		}
	}
	summary.FlaggedEndpoints = len(flagged)
	return summary
}
