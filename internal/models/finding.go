package models

import "strings"

// Severity buckets, ordered low < medium < high.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// severityRank fixes the comparison order shared by the engine, the
// reporters, and the policy gate.
var severityRank = map[Severity]int{
	SeverityLow:    1,
	SeverityMedium: 2,
	SeverityHigh:   3,
}

// Rank returns the comparable weight of a severity; zero means unknown.
func (s Severity) Rank() int { return severityRank[s] }

// Valid reports whether s is one of the three defined buckets.
func (s Severity) Valid() bool { return severityRank[s] != 0 }

// ParseSeverity normalizes a raw label and rejects anything outside the
// enum. Model output goes through this before it can become a Finding.
func ParseSeverity(raw string) (Severity, bool) {
	s := Severity(strings.ToLower(strings.TrimSpace(raw)))
	return s, s.Valid()
}

// MaxSeverity returns the highest severity present among findings.
// ok is false for an empty set: no signal is distinct from low.
func MaxSeverity(findings []Finding) (Severity, bool) {
	var max Severity
	for _, f := range findings {
		if f.Severity.Rank() > max.Rank() {
			max = f.Severity
		}
	}
	return max, max != ""
}

// RuleID names the heuristic that produced a finding. The tokens are
// stable and double as SARIF rule identifiers.
type RuleID string

const (
	RuleObjectIdentifier RuleID = "object_identifier"
	RuleStateChange      RuleID = "state_change"
	RuleAdminRoute       RuleID = "admin_route"
	RuleNumericInput     RuleID = "numeric_input"
	RuleAuthenticated    RuleID = "authenticated_endpoint"
	RuleLLMHypothesis    RuleID = "llm_hypothesis"
)

// Provenance separates heuristic findings from model-proposed ones.
type Provenance string

const (
	ProvenanceDeterministic Provenance = "deterministic"
	ProvenanceLLM           Provenance = "llm"
)

// Finding is one triage signal on one endpoint. A finding is created by
// exactly one rule evaluation (or one accepted model hypothesis) and is
// never mutated afterwards, only aggregated.
type Finding struct {
	Method     Method     `json:"method"`
	Path       string     `json:"path"`
	Severity   Severity   `json:"severity"`
	Rule       RuleID     `json:"rule"`
	Risk       string     `json:"risk"`
	Provenance Provenance `json:"provenance"`
}

// EndpointKey returns the owning endpoint's identity.
func (f Finding) EndpointKey() string {
	return string(f.Method) + " " + f.Path
}

// Key returns the dedup identity. Distinct rule firings are distinct
// signals; only exact repeats collapse. Path case and a trailing slash
// do not make two findings distinct.
func (f Finding) Key() string {
	p := strings.ToLower(strings.TrimRight(f.Path, "/"))
	if p == "" {
		p = "/"
	}
	return strings.Join([]string{string(f.Method), p, string(f.Rule), f.Risk, string(f.Provenance)}, "\x1f")
}
