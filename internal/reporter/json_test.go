package reporter

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/apivet/apivet/internal/models"
)

func TestJSONReporterGenerate(t *testing.T) {
	var buf bytes.Buffer
	r := NewJSONReporter(&buf, false)

	if err := r.Generate(sampleReport()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded models.Report
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}

	if decoded.Target != "https://api.example.com" {
		t.Errorf("expected target to round-trip, got %q", decoded.Target)
	}
	if len(decoded.Findings) != 2 {
		t.Errorf("expected 2 findings, got %d", len(decoded.Findings))
	}
	if decoded.LLMStatus != models.LLMDisabled {
		t.Errorf("expected llm_status disabled, got %s", decoded.LLMStatus)
	}
	if !strings.HasSuffix(buf.String(), "\n") {
		t.Error("expected trailing newline")
	}
}

func TestJSONReporterPretty(t *testing.T) {
	var buf bytes.Buffer
	r := NewJSONReporter(&buf, true)

	if err := r.Generate(sampleReport()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(buf.String(), "\n  \"") {
		t.Error("expected indented output")
	}
}

func TestJSONReporterIsDeterministic(t *testing.T) {
	var first bytes.Buffer
	if err := NewJSONReporter(&first, true).Generate(sampleReport()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 0; i < 5; i++ {
		var again bytes.Buffer
		if err := NewJSONReporter(&again, true).Generate(sampleReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !bytes.Equal(first.Bytes(), again.Bytes()) {
			t.Fatalf("run %d produced different output", i)
		}
	}
}

func TestJSONReporterSummaryOnly(t *testing.T) {
	var buf bytes.Buffer
	r := NewJSONReporter(&buf, false)

	if err := r.GenerateSummaryOnly(sampleReport()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	if strings.Contains(output, `"endpoints"`) {
		t.Error("summary output should not include the endpoint inventory")
	}
	if !strings.Contains(output, "total_findings") {
		t.Error("expected summary counters in output")
	}
	if !strings.Contains(output, "llm_status") {
		t.Error("expected llm_status in output")
	}
}
