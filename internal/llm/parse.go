package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/apivet/apivet/internal/analyzer"
	"github.com/apivet/apivet/internal/models"
)

// hypothesisEnvelope is the strict response contract.
type hypothesisEnvelope struct {
	Findings     []hypothesisEntry  `json:"findings"`
	Observations []observationEntry `json:"observations"`
}

type hypothesisEntry struct {
	Method   string `json:"method"`
	Path     string `json:"path"`
	Severity string `json:"severity"`
	Risk     string `json:"risk"`
}

type observationEntry struct {
	Title    string `json:"title"`
	Detail   string `json:"detail"`
	Severity string `json:"severity"`
}

// extractJSON strips markdown fences and anything around the outermost
// object. Models wrap JSON in prose often enough that rejecting the
// whole response outright would make degradation the common case.
func extractJSON(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		return content[start : end+1]
	}
	return content
}

// parseProposal validates model output entry by entry. A malformed
// envelope is an error and the whole batch degrades; a malformed entry
// is dropped and counted while the rest survive.
func parseProposal(content string, batch []models.Endpoint) (*analyzer.Proposal, error) {
	var envelope hypothesisEnvelope
	if err := json.Unmarshal([]byte(extractJSON(content)), &envelope); err != nil {
		return nil, fmt.Errorf("malformed hypothesis envelope: %w", err)
	}

	inBatch := make(map[string]bool, len(batch))
	for _, ep := range batch {
		inBatch[ep.Key()] = true
	}

	proposal := &analyzer.Proposal{}
	for _, entry := range envelope.Findings {
		finding, reason := validateEntry(entry, inBatch)
		if reason != "" {
			log.Debug().
				Str("method", entry.Method).
				Str("path", entry.Path).
				Str("reason", reason).
				Msg("dropping hypothesis entry")
			proposal.Rejected++
			continue
		}
		proposal.Findings = append(proposal.Findings, finding)
	}

	for _, entry := range envelope.Observations {
		title := strings.TrimSpace(entry.Title)
		if title == "" {
			proposal.Rejected++
			continue
		}
		obs := models.Observation{Title: title, Detail: strings.TrimSpace(entry.Detail)}
		// A bad observation severity is dropped to empty, not fatal.
		if sev, ok := models.ParseSeverity(entry.Severity); ok {
			obs.Severity = sev
		}
		proposal.Observations = append(proposal.Observations, obs)
	}
	return proposal, nil
}

// validateEntry enforces the schema: canonical method, path inside the
// batch, in-enum severity, non-empty risk text.
func validateEntry(entry hypothesisEntry, inBatch map[string]bool) (models.Finding, string) {
	method, ok := models.ParseMethod(entry.Method)
	if !ok {
		return models.Finding{}, "unknown method"
	}
	path := strings.TrimSpace(entry.Path)
	if path == "" {
		return models.Finding{}, "missing path"
	}
	if !inBatch[string(method)+" "+path] {
		return models.Finding{}, "endpoint not in batch"
	}
	severity, ok := models.ParseSeverity(entry.Severity)
	if !ok {
		return models.Finding{}, "severity outside enum"
	}
	risk := strings.TrimSpace(entry.Risk)
	if risk == "" {
		return models.Finding{}, "missing risk description"
	}
	return models.Finding{
		Method:     method,
		Path:       path,
		Severity:   severity,
		Rule:       models.RuleLLMHypothesis,
		Risk:       risk,
		Provenance: models.ProvenanceLLM,
	}, ""
}
