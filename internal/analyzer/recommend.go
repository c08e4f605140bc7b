package analyzer

import (
	"fmt"
	"sort"

	"github.com/apivet/apivet/internal/models"
)

// ruleAdvice maps each rule to its triage action and why it matters.
var ruleAdvice = map[models.RuleID]struct{ action, impact string }{
	models.RuleObjectIdentifier: {
		action: "Probe object-identifier endpoints with a second user's IDs",
		impact: "Broken object level authorization exposes other tenants' data",
	},
	models.RuleStateChange: {
		action: "Review authorization on state-changing operations",
		impact: "Unauthorized writes corrupt or destroy resources",
	},
	models.RuleAdminRoute: {
		action: "Verify administrative routes enforce role checks",
		impact: "An exposed admin surface compromises the whole API",
	},
	models.RuleNumericInput: {
		action: "Exercise numeric parameters for enumeration and bound errors",
		impact: "Sequential identifiers make scraping trivial",
	},
	models.RuleAuthenticated: {
		action: "Retry authenticated endpoints with a low-privilege token",
		impact: "A valid token is not object-level authorization",
	},
	models.RuleLLMHypothesis: {
		action: "Manually confirm model-proposed hypotheses before acting on them",
		impact: "Unverified hypotheses can misdirect triage effort",
	},
}

// Recommend groups findings by rule and emits prioritized actions,
// highest severity first, rule ID as tie-break for stable output.
func Recommend(report *models.Report) []models.Recommendation {
	type group struct {
		severity models.Severity
		count    int
	}
	groups := make(map[models.RuleID]*group)
	for _, f := range report.Findings {
		g, ok := groups[f.Rule]
		if !ok {
			g = &group{severity: f.Severity}
			groups[f.Rule] = g
		}
		g.count++
		if f.Severity.Rank() > g.severity.Rank() {
			g.severity = f.Severity
		}
	}

	recommendations := make([]models.Recommendation, 0, len(groups))
	for rule, g := range groups {
		advice, ok := ruleAdvice[rule]
		if !ok {
			advice.action = fmt.Sprintf("Review findings emitted by %s", rule)
			advice.impact = "Unclassified signals still need an owner"
		}
		recommendations = append(recommendations, models.Recommendation{
			Severity: g.severity,
			Rule:     rule,
			Action:   advice.action,
			Impact:   advice.impact,
			Count:    g.count,
		})
	}

	sort.Slice(recommendations, func(i, j int) bool {
		if recommendations[i].Severity.Rank() != recommendations[j].Severity.Rank() {
			return recommendations[i].Severity.Rank() > recommendations[j].Severity.Rank()
		}
		return recommendations[i].Rule < recommendations[j].Rule
	})
	return recommendations
}
