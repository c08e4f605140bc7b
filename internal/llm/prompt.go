package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/apivet/apivet/internal/models"
)

// systemPrompt pins the model to triage hypotheses over the provided
// endpoints only, in strict JSON.
const systemPrompt = `You are a senior API security researcher reviewing an attack-surface inventory.
You receive API endpoints with any heuristic findings already attached.
Propose additional risk hypotheses that deserve a manual look.

Rules:
- Only reference endpoints from the input. Never invent methods or paths.
- Severity must be exactly one of: low, medium, high.
- No exploit payloads, no attack instructions. Hypotheses only.
- Respond with a single JSON object and nothing else, using this shape:
{
  "findings": [
    {"method": "GET", "path": "/example/{id}", "severity": "medium", "risk": "why this deserves attention"}
  ],
  "observations": [
    {"title": "short systemic pattern", "detail": "cross-endpoint reasoning", "severity": "low"}
  ]
}
Use "findings" for endpoint-specific hypotheses and "observations" for systemic, whole-API patterns.`

// promptEndpoint is the bounded view of one endpoint sent to the
// model: method, path, already-known rule tags. Never request bodies,
// never credentials, never raw responses.
type promptEndpoint struct {
	Method string   `json:"method"`
	Path   string   `json:"path"`
	Rules  []string `json:"heuristic_rules,omitempty"`
}

// buildUserPrompt renders one batch into the user message.
func buildUserPrompt(batch []models.Endpoint, known []models.Finding) (string, error) {
	tags := make(map[string][]string, len(batch))
	for _, f := range known {
		tags[f.EndpointKey()] = append(tags[f.EndpointKey()], string(f.Rule))
	}

	view := make([]promptEndpoint, 0, len(batch))
	for _, ep := range batch {
		view = append(view, promptEndpoint{
			Method: string(ep.Method),
			Path:   ep.Path,
			Rules:  tags[ep.Key()],
		})
	}

	data, err := json.Marshal(view)
	if err != nil {
		return "", fmt.Errorf("marshal prompt batch: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Endpoints under review (%d):\n%s\n", len(view), data)
	b.WriteString("Return hypotheses for these endpoints only.")
	return b.String(), nil
}
