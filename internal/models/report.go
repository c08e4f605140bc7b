package models

import "time"

// LLMStatus reports whether augmentation ran and how it went.
type LLMStatus string

const (
	LLMDisabled LLMStatus = "disabled"
	LLMOK       LLMStatus = "ok"
	LLMDegraded LLMStatus = "degraded"
)

// Observation is a systemic remark from the model that applies to the
// API as a whole rather than to one endpoint. Observations are kept as
// their own record type; they are never coerced into per-endpoint
// findings.
type Observation struct {
	Title    string   `json:"title"`
	Detail   string   `json:"detail"`
	Severity Severity `json:"severity,omitempty"`
}

// SkippedEndpoint records an input rejected at ingestion.
type SkippedEndpoint struct {
	Method string `json:"method"`
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Recommendation is a prioritized triage action derived from findings.
type Recommendation struct {
	Severity Severity `json:"severity"`
	Rule     RuleID   `json:"rule"`
	Action   string   `json:"action"`
	Impact   string   `json:"impact"`
	Count    int      `json:"count"`
}

// Summary provides aggregate statistics over one report.
type Summary struct {
	TotalEndpoints       int            `json:"total_endpoints"`
	FlaggedEndpoints     int            `json:"flagged_endpoints"`
	TotalFindings        int            `json:"total_findings"`
	FindingsBySeverity   map[string]int `json:"findings_by_severity"`
	FindingsByRule       map[string]int `json:"findings_by_rule"`
	FindingsByProvenance map[string]int `json:"findings_by_provenance"`
	HighestSeverity      Severity       `json:"highest_severity,omitempty"`
	RejectedHypotheses   int            `json:"rejected_hypotheses,omitempty"`
}

// Report is the complete output of one analysis session. It is a plain
// serializable value: every exporter (text, json, sarif) is a pure
// function over it.
//
// Invariants: every finding's (method, path) appears in Endpoints;
// Findings keeps deterministic rule-evaluation order (endpoints in
// input order, rules in engine order) followed by accepted model
// findings grouped per endpoint in input order.
type Report struct {
	ID              string            `json:"id"`
	Target          string            `json:"target,omitempty"`
	GeneratedAt     time.Time         `json:"generated_at"`
	Endpoints       []Endpoint        `json:"endpoints"`
	Findings        []Finding         `json:"findings"`
	Observations    []Observation     `json:"observations,omitempty"`
	Skipped         []SkippedEndpoint `json:"skipped,omitempty"`
	Recommendations []Recommendation  `json:"recommendations,omitempty"`
	LLMStatus       LLMStatus         `json:"llm_status"`
	Summary         Summary           `json:"summary"`
}

// FindingsFor returns the findings attached to one endpoint identity,
// preserving report order.
func (r *Report) FindingsFor(method Method, path string) []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Method == method && f.Path == path {
			out = append(out, f)
		}
	}
	return out
}
