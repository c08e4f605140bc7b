package reporter

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/apivet/apivet/internal/models"
)

func TestSARIFReporterGenerate(t *testing.T) {
	var buf bytes.Buffer
	r := NewSARIFReporter(&buf)

	if err := r.Generate(sampleReport()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var doc struct {
		Version string `json:"version"`
		Runs    []struct {
			Tool struct {
				Driver struct {
					Name  string `json:"name"`
					Rules []struct {
						ID string `json:"id"`
					} `json:"rules"`
				} `json:"driver"`
			} `json:"tool"`
			Results []struct {
				RuleID  string `json:"ruleId"`
				Level   string `json:"level"`
				Message struct {
					Text string `json:"text"`
				} `json:"message"`
			} `json:"results"`
		} `json:"runs"`
	}

	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}

	if doc.Version != "2.1.0" {
		t.Errorf("expected SARIF 2.1.0, got %s", doc.Version)
	}
	if len(doc.Runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(doc.Runs))
	}

	run := doc.Runs[0]
	if run.Tool.Driver.Name != "apivet" {
		t.Errorf("expected driver apivet, got %s", run.Tool.Driver.Name)
	}
	if len(run.Tool.Driver.Rules) != 2 {
		t.Errorf("expected 2 distinct rules, got %d", len(run.Tool.Driver.Rules))
	}
	if len(run.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(run.Results))
	}
	for _, res := range run.Results {
		if res.Level != "error" {
			t.Errorf("expected high findings to map to error, got %s", res.Level)
		}
		if res.Message.Text == "" {
			t.Error("expected result message text")
		}
	}
}

func TestSARIFReporterEmptyReport(t *testing.T) {
	var buf bytes.Buffer
	r := NewSARIFReporter(&buf)

	report := sampleReport()
	report.Findings = nil

	if err := r.Generate(report); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
}

func TestSeverityToLevel(t *testing.T) {
	tests := []struct {
		severity models.Severity
		want     string
	}{
		{models.SeverityHigh, "error"},
		{models.SeverityMedium, "warning"},
		{models.SeverityLow, "note"},
		{models.Severity("bogus"), "none"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(string(tt.severity), func(t *testing.T) {
			if got := severityToLevel(tt.severity); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}
