package analyzer

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/apivet/apivet/internal/models"
)

// DefaultIdentifierTokens is the built-in vocabulary of the
// object_identifier rule. A placeholder matches when its lowercased
// name contains any token, so "id" alone already covers userId,
// accountID, and friends. Overridable through identifier_tokens in
// the config.
var DefaultIdentifierTokens = []string{
	"id", "user", "account", "org", "order", "tenant", "customer", "username", "email",
}

// placeholderPattern captures brace-delimited path parameters.
var placeholderPattern = regexp.MustCompile(`\{([^{}]+)\}`)

// Rule is a single heuristic evaluated against one endpoint. Apply must
// be total over well-formed endpoints and must not perform I/O.
type Rule interface {
	ID() models.RuleID
	Apply(ep models.Endpoint) []models.Finding
}

// identifierRule flags path placeholders that look like object
// identifiers.
type identifierRule struct {
	tokens []string
}

func newIdentifierRule(tokens []string) identifierRule {
	if len(tokens) == 0 {
		tokens = DefaultIdentifierTokens
	}
	lowered := make([]string, 0, len(tokens))
	for _, t := range tokens {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			lowered = append(lowered, t)
		}
	}
	return identifierRule{tokens: lowered}
}

func (identifierRule) ID() models.RuleID { return models.RuleObjectIdentifier }

// Apply emits one finding per identifier-like placeholder. Multiple
// placeholders in one path each stand on their own for BOLA/IDOR
// triage, so there is no early exit after the first match.
func (r identifierRule) Apply(ep models.Endpoint) []models.Finding {
	var findings []models.Finding
	for _, m := range placeholderPattern.FindAllStringSubmatch(ep.Path, -1) {
		name := m[1]
		lower := strings.ToLower(name)
		for _, token := range r.tokens {
			if strings.Contains(lower, token) {
				findings = append(findings, models.Finding{
					Method:     ep.Method,
					Path:       ep.Path,
					Severity:   models.SeverityHigh,
					Rule:       models.RuleObjectIdentifier,
					Risk:       fmt.Sprintf("path parameter {%s} looks like an object identifier: candidate for BOLA/IDOR probing", name),
					Provenance: models.ProvenanceDeterministic,
				})
				break
			}
		}
	}
	return findings
}

// stateChangeRule flags methods that mutate server state. POST is
// excluded on purpose: pure creation carries a different risk shape
// than update or delete.
type stateChangeRule struct{}

var stateChangingMethods = map[models.Method]bool{
	models.MethodPut:    true,
	models.MethodPatch:  true,
	models.MethodDelete: true,
}

func (stateChangeRule) ID() models.RuleID { return models.RuleStateChange }

func (stateChangeRule) Apply(ep models.Endpoint) []models.Finding {
	if !stateChangingMethods[ep.Method] {
		return nil
	}
	return []models.Finding{{
		Method:     ep.Method,
		Path:       ep.Path,
		Severity:   models.SeverityHigh,
		Rule:       models.RuleStateChange,
		Risk:       fmt.Sprintf("%s is a state-changing method: verify authorization enforcement", ep.Method),
		Provenance: models.ProvenanceDeterministic,
	}}
}

// adminRouteRule flags paths carrying an administrative segment.
type adminRouteRule struct{}

func (adminRouteRule) ID() models.RuleID { return models.RuleAdminRoute }

func (adminRouteRule) Apply(ep models.Endpoint) []models.Finding {
	for _, seg := range strings.Split(ep.Path, "/") {
		if strings.Contains(strings.ToLower(seg), "admin") {
			return []models.Finding{{
				Method:     ep.Method,
				Path:       ep.Path,
				Severity:   models.SeverityHigh,
				Rule:       models.RuleAdminRoute,
				Risk:       fmt.Sprintf("administrative endpoint detected (segment %q): high-value target if role checks are weak", seg),
				Provenance: models.ProvenanceDeterministic,
			}}
		}
	}
	return nil
}

// numericInputRule flags declared numeric parameters. Sequential IDs,
// offsets, and amounts tend to be enumerable or tamperable. Fires only
// when the spec carried parameter metadata.
type numericInputRule struct{}

var numericParamTypes = map[string]bool{
	"integer": true,
	"number":  true,
	"float":   true,
	"double":  true,
}

func (numericInputRule) ID() models.RuleID { return models.RuleNumericInput }

func (numericInputRule) Apply(ep models.Endpoint) []models.Finding {
	for _, p := range ep.Parameters {
		if numericParamTypes[strings.ToLower(p.Type)] {
			return []models.Finding{{
				Method:     ep.Method,
				Path:       ep.Path,
				Severity:   models.SeverityMedium,
				Rule:       models.RuleNumericInput,
				Risk:       fmt.Sprintf("numeric parameter %q (%s) may be enumerable or abused for limit tampering", p.Name, p.In),
				Provenance: models.ProvenanceDeterministic,
			}}
		}
	}
	return nil
}

// authenticatedEndpointRule marks operations that declare a security
// requirement. Informational: authenticated surfaces are where
// object-level authorization mistakes hide.
type authenticatedEndpointRule struct{}

func (authenticatedEndpointRule) ID() models.RuleID { return models.RuleAuthenticated }

func (authenticatedEndpointRule) Apply(ep models.Endpoint) []models.Finding {
	if !ep.AuthRequired {
		return nil
	}
	return []models.Finding{{
		Method:     ep.Method,
		Path:       ep.Path,
		Severity:   models.SeverityLow,
		Rule:       models.RuleAuthenticated,
		Risk:       "declares authentication: confirm object-level checks beyond token validity",
		Provenance: models.ProvenanceDeterministic,
	}}
}
