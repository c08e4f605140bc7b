package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/apivet/apivet/internal/models"
)

func completionBody(content string) string {
	b, _ := json.Marshal(map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"content": content}},
		},
	})
	return string(b)
}

func TestNewClientRequiresKey(t *testing.T) {
	if c := NewClient(ClientConfig{}); c != nil {
		t.Fatalf("expected nil client without an api key")
	}
	if c := NewClient(ClientConfig{APIKey: "sk-test"}); c == nil {
		t.Fatalf("expected a client with an api key")
	}

	var nilClient *Client
	if nilClient.Configured() {
		t.Fatalf("expected nil client to report unconfigured")
	}
	if _, err := nilClient.Complete(context.Background(), "s", "u"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable from nil client, got %v", err)
	}
}

func TestClientComplete(t *testing.T) {
	var gotAuth, gotPath string
	var gotReq chatRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody(`{"findings": []}`)))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{APIKey: "sk-test", BaseURL: server.URL, Model: "test-model"})
	content, err := client.Complete(context.Background(), "system prompt", "user prompt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if content != `{"findings": []}` {
		t.Fatalf("unexpected content %q", content)
	}
	if gotAuth != "Bearer sk-test" {
		t.Fatalf("expected bearer auth, got %q", gotAuth)
	}
	if gotPath != "/chat/completions" {
		t.Fatalf("expected chat completions path, got %q", gotPath)
	}
	if gotReq.Model != "test-model" {
		t.Fatalf("expected model test-model, got %q", gotReq.Model)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" || gotReq.Messages[1].Role != "user" {
		t.Fatalf("expected system+user messages, got %+v", gotReq.Messages)
	}
	if gotReq.ResponseFormat == nil || gotReq.ResponseFormat.Type != "json_object" {
		t.Fatalf("expected json_object response format, got %+v", gotReq.ResponseFormat)
	}
	if gotReq.Temperature != DefaultTemperature {
		t.Fatalf("expected temperature %v, got %v", DefaultTemperature, gotReq.Temperature)
	}
}

func TestClientCompleteErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{
			name:    "provider error with message",
			status:  http.StatusTooManyRequests,
			body:    `{"error": {"message": "rate limited"}}`,
			wantErr: "rate limited",
		},
		{
			name:    "provider error without message",
			status:  http.StatusBadGateway,
			body:    `oops`,
			wantErr: "provider error",
		},
		{
			name:    "malformed envelope",
			status:  http.StatusOK,
			body:    `{"choices": [`,
			wantErr: "decode completion envelope",
		},
		{
			name:    "no choices",
			status:  http.StatusOK,
			body:    `{"choices": []}`,
			wantErr: "no choices",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient(ClientConfig{APIKey: "sk-test", BaseURL: server.URL})
			_, err := client.Complete(context.Background(), "s", "u")
			if err == nil {
				t.Fatalf("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestClientCompleteRespectsContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	client := NewClient(ClientConfig{APIKey: "sk-test", BaseURL: server.URL})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := client.Complete(ctx, "s", "u"); err == nil {
		t.Fatalf("expected context cancellation error")
	}
}

func TestAdapterPropose(t *testing.T) {
	batch := []models.Endpoint{
		{Method: models.MethodGet, Path: "/users/{id}"},
		{Method: models.MethodGet, Path: "/health"},
	}
	known := []models.Finding{
		{Method: models.MethodGet, Path: "/users/{id}", Rule: models.RuleObjectIdentifier},
	}

	model := `{"findings": [
		{"method": "GET", "path": "/users/{id}", "severity": "medium", "risk": "sequential ids"},
		{"method": "GET", "path": "/invented", "severity": "high", "risk": "dropped"}
	], "observations": [{"title": "flat auth model", "detail": "no per-object checks visible"}]}`

	var sawPrompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if len(req.Messages) == 2 {
			sawPrompt = req.Messages[1].Content
		}
		_, _ = w.Write([]byte(completionBody(model)))
	}))
	defer server.Close()

	adapter := NewAdapter(NewClient(ClientConfig{APIKey: "sk-test", BaseURL: server.URL}))
	proposal, err := adapter.Propose(context.Background(), batch, known)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(proposal.Findings) != 1 {
		t.Fatalf("expected 1 accepted finding, got %d", len(proposal.Findings))
	}
	if proposal.Rejected != 1 {
		t.Fatalf("expected 1 rejected entry, got %d", proposal.Rejected)
	}
	if len(proposal.Observations) != 1 {
		t.Fatalf("expected 1 observation, got %d", len(proposal.Observations))
	}
	if !strings.Contains(sawPrompt, "/users/{id}") || !strings.Contains(sawPrompt, string(models.RuleObjectIdentifier)) {
		t.Fatalf("expected prompt to carry endpoint and known rules:\n%s", sawPrompt)
	}
}

func TestAdapterUnconfigured(t *testing.T) {
	if NewAdapter(nil) != nil {
		t.Fatalf("expected nil adapter for nil client")
	}

	var adapter *Adapter
	if _, err := adapter.Propose(context.Background(), nil, nil); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable from nil adapter, got %v", err)
	}
}

func TestAdapterEmptyBatch(t *testing.T) {
	adapter := NewAdapter(NewClient(ClientConfig{APIKey: "sk-test", BaseURL: "http://unused.invalid"}))
	proposal, err := adapter.Propose(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(proposal.Findings) != 0 || proposal.Rejected != 0 {
		t.Fatalf("expected empty proposal, got %+v", proposal)
	}
}
