package llm

import (
	"strings"
	"testing"

	"github.com/apivet/apivet/internal/models"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "bare object", in: `{"findings": []}`, want: `{"findings": []}`},
		{name: "fenced json block", in: "```json\n{\"findings\": []}\n```", want: `{"findings": []}`},
		{name: "plain fence", in: "```\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "prose around the object", in: "Here is my analysis:\n{\"a\":1}\nHope this helps!", want: `{"a":1}`},
		{name: "no object at all", in: "I cannot help with that.", want: "I cannot help with that."},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := extractJSON(tt.in); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestParseProposal(t *testing.T) {
	batch := []models.Endpoint{
		{Method: models.MethodGet, Path: "/users/{id}"},
		{Method: models.MethodPost, Path: "/orders"},
	}

	tests := []struct {
		name          string
		content       string
		wantFindings  int
		wantObs       int
		wantRejected  int
		wantErr       bool
	}{
		{
			name: "all entries valid",
			content: `{"findings": [
				{"method": "GET", "path": "/users/{id}", "severity": "medium", "risk": "predictable ids"},
				{"method": "POST", "path": "/orders", "severity": "low", "risk": "mass creation"}
			]}`,
			wantFindings: 2,
		},
		{
			name: "entry missing severity is dropped, others retained",
			content: `{"findings": [
				{"method": "GET", "path": "/users/{id}", "risk": "no severity"},
				{"method": "POST", "path": "/orders", "severity": "low", "risk": "valid"}
			]}`,
			wantFindings: 1,
			wantRejected: 1,
		},
		{
			name: "severity outside the enum is dropped",
			content: `{"findings": [
				{"method": "GET", "path": "/users/{id}", "severity": "catastrophic", "risk": "r"}
			]}`,
			wantRejected: 1,
		},
		{
			name: "invented endpoint is dropped",
			content: `{"findings": [
				{"method": "DELETE", "path": "/users/{id}", "severity": "high", "risk": "not in batch"}
			]}`,
			wantRejected: 1,
		},
		{
			name: "unknown method is dropped",
			content: `{"findings": [
				{"method": "FETCH", "path": "/orders", "severity": "low", "risk": "r"}
			]}`,
			wantRejected: 1,
		},
		{
			name: "empty risk is dropped",
			content: `{"findings": [
				{"method": "GET", "path": "/users/{id}", "severity": "low", "risk": "  "}
			]}`,
			wantRejected: 1,
		},
		{
			name: "observations parsed separately",
			content: `{"findings": [],
				"observations": [
					{"title": "shared gateway", "detail": "all routes funnel through one auth layer", "severity": "medium"},
					{"title": "", "detail": "dropped"},
					{"title": "odd severity survives without one", "detail": "d", "severity": "apocalyptic"}
				]}`,
			wantObs:      2,
			wantRejected: 1,
		},
		{
			name:    "malformed envelope fails the batch",
			content: `{"findings": [`,
			wantErr: true,
		},
		{
			name:         "fenced response still parses",
			content:      "```json\n{\"findings\": [{\"method\": \"GET\", \"path\": \"/users/{id}\", \"severity\": \"high\", \"risk\": \"r\"}]}\n```",
			wantFindings: 1,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			proposal, err := parseProposal(tt.content, batch)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(proposal.Findings) != tt.wantFindings {
				t.Fatalf("expected %d findings, got %d", tt.wantFindings, len(proposal.Findings))
			}
			if len(proposal.Observations) != tt.wantObs {
				t.Fatalf("expected %d observations, got %d", tt.wantObs, len(proposal.Observations))
			}
			if proposal.Rejected != tt.wantRejected {
				t.Fatalf("expected %d rejected entries, got %d", tt.wantRejected, proposal.Rejected)
			}
			for _, f := range proposal.Findings {
				if f.Provenance != models.ProvenanceLLM {
					t.Fatalf("expected llm provenance, got %s", f.Provenance)
				}
				if f.Rule != models.RuleLLMHypothesis {
					t.Fatalf("expected rule %s, got %s", models.RuleLLMHypothesis, f.Rule)
				}
			}
		})
	}
}

func TestBuildUserPrompt(t *testing.T) {
	batch := []models.Endpoint{
		{Method: models.MethodPatch, Path: "/users/{userId}"},
		{Method: models.MethodGet, Path: "/health"},
	}
	known := []models.Finding{
		{Method: models.MethodPatch, Path: "/users/{userId}", Rule: models.RuleObjectIdentifier},
		{Method: models.MethodPatch, Path: "/users/{userId}", Rule: models.RuleStateChange},
	}

	prompt, err := buildUserPrompt(batch, known)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"/users/{userId}", "/health", "PATCH", string(models.RuleObjectIdentifier), string(models.RuleStateChange)} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("expected prompt to contain %q:\n%s", want, prompt)
		}
	}
	if strings.Contains(prompt, "Authorization") || strings.Contains(prompt, "Bearer") {
		t.Fatalf("prompt must never carry credentials:\n%s", prompt)
	}
}
