package tui

import (
	"sort"
	"strings"

	"github.com/apivet/apivet/internal/models"
)

// filterState holds current active filters.
type filterState struct {
	Rule       models.RuleID
	Severity   models.Severity
	Provenance models.Provenance
	SearchText string
}

// sortField enumerates columns that can be sorted.
type sortField int

const (
	sortBySeverity sortField = iota
	sortByMethod
	sortByPath
	sortByRule
	sortByProvenance
)

// sortFieldCount is the total number of sortable columns.
const sortFieldCount = 5

var severityPriority = map[models.Severity]int{
	models.SeverityHigh: 0, models.SeverityMedium: 1, models.SeverityLow: 2,
}

// applyFilters returns findings matching all active filters.
func applyFilters(findings []models.Finding, f filterState) []models.Finding {
	result := make([]models.Finding, 0, len(findings))
	searchLower := strings.ToLower(f.SearchText)

	for _, finding := range findings {
		if f.Rule != "" && finding.Rule != f.Rule {
			continue
		}
		if f.Severity != "" && finding.Severity != f.Severity {
			continue
		}
		if f.Provenance != "" && finding.Provenance != f.Provenance {
			continue
		}
		if searchLower != "" && !matchesSearch(finding, searchLower) {
			continue
		}
		result = append(result, finding)
	}
	return result
}

func matchesSearch(finding models.Finding, searchLower string) bool {
	return strings.Contains(strings.ToLower(string(finding.Method)), searchLower) ||
		strings.Contains(strings.ToLower(finding.Path), searchLower) ||
		strings.Contains(strings.ToLower(string(finding.Rule)), searchLower) ||
		strings.Contains(strings.ToLower(string(finding.Severity)), searchLower) ||
		strings.Contains(strings.ToLower(finding.Risk), searchLower)
}

// sortFindings sorts a slice of findings in place by the given field.
func sortFindings(findings []models.Finding, field sortField) {
	sort.SliceStable(findings, func(i, j int) bool {
		switch field {
		case sortBySeverity:
			return severityPriority[findings[i].Severity] < severityPriority[findings[j].Severity]
		case sortByMethod:
			return findings[i].Method < findings[j].Method
		case sortByPath:
			return findings[i].Path < findings[j].Path
		case sortByRule:
			return findings[i].Rule < findings[j].Rule
		case sortByProvenance:
			return findings[i].Provenance < findings[j].Provenance
		default:
			return false
		}
	})
}

// uniqueRules returns deduplicated, sorted rule IDs from findings.
func uniqueRules(findings []models.Finding) []models.RuleID {
	seen := make(map[models.RuleID]bool)
	var rules []models.RuleID
	for _, f := range findings {
		if !seen[f.Rule] {
			seen[f.Rule] = true
			rules = append(rules, f.Rule)
		}
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i] < rules[j] })
	return rules
}

// cycleSeverity advances the severity filter: all, high, medium, low.
func cycleSeverity(s models.Severity) models.Severity {
	switch s {
	case "":
		return models.SeverityHigh
	case models.SeverityHigh:
		return models.SeverityMedium
	case models.SeverityMedium:
		return models.SeverityLow
	default:
		return ""
	}
}

// cycleProvenance advances the source filter: all, deterministic, llm.
func cycleProvenance(p models.Provenance) models.Provenance {
	switch p {
	case "":
		return models.ProvenanceDeterministic
	case models.ProvenanceDeterministic:
		return models.ProvenanceLLM
	default:
		return ""
	}
}

// sortFieldName returns a human-readable name for the sort field.
func sortFieldName(f sortField) string {
	switch f {
	case sortBySeverity:
		return "severity"
	case sortByMethod:
		return "method"
	case sortByPath:
		return "path"
	case sortByRule:
		return "rule"
	case sortByProvenance:
		return "source"
	default:
		return "unknown"
	}
}
