package analyzer

import (
	"github.com/rs/zerolog/log"

	"github.com/apivet/apivet/internal/models"
)

// Engine evaluates the ordered heuristic rule set against endpoints.
// Evaluation is pure and deterministic. Rule order is a contract: the
// finding sequence in a report follows it, and tests assert on it.
type Engine struct {
	rules []Rule
}

// Config tunes rule behavior.
type Config struct {
	// IdentifierTokens overrides the identifier vocabulary of the
	// object_identifier rule. Empty means DefaultIdentifierTokens.
	IdentifierTokens []string
}

// NewEngine builds the standard rule set: object identifiers first,
// then state-changing methods, then admin routes, then the two
// metadata-driven rules (numeric inputs, declared authentication).
func NewEngine(cfg Config) *Engine {
	return newEngine(
		newIdentifierRule(cfg.IdentifierTokens),
		stateChangeRule{},
		adminRouteRule{},
		numericInputRule{},
		authenticatedEndpointRule{},
	)
}

func newEngine(rules ...Rule) *Engine {
	return &Engine{rules: rules}
}

// Evaluate runs every rule against one endpoint in engine order. Rules
// are independent and may all fire on the same endpoint; nothing is
// suppressed. An endpoint matching nothing yields an empty slice, not
// an error.
func (e *Engine) Evaluate(ep models.Endpoint) []models.Finding {
	var findings []models.Finding
	for _, r := range e.rules {
		findings = append(findings, e.apply(r, ep)...)
	}
	return findings
}

// apply isolates one rule execution. Rules are total functions over
// well-formed endpoints; a panic is a defect, so it is logged and the
// rule contributes nothing for that endpoint. Fail-open: this is a
// triage aid, not a safety system.
func (e *Engine) apply(r Rule, ep models.Endpoint) (findings []models.Finding) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().
				Str("rule", string(r.ID())).
				Str("endpoint", ep.Key()).
				Interface("panic", rec).
				Msg("rule evaluation panicked, skipping its contribution")
			findings = nil
		}
	}()
	return r.Apply(ep)
}

// Rules returns the rule IDs in evaluation order.
func (e *Engine) Rules() []models.RuleID {
	ids := make([]models.RuleID, len(e.rules))
	for i, r := range e.rules {
		ids[i] = r.ID()
	}
	return ids
}
