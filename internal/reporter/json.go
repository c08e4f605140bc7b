package reporter

import (
	"encoding/json"
	"io"

	"github.com/apivet/apivet/internal/models"
)

// JSONReporter generates machine-readable JSON reports.
type JSONReporter struct {
	writer io.Writer
	pretty bool
}

// NewJSONReporter creates a new JSON reporter.
func NewJSONReporter(writer io.Writer, pretty bool) *JSONReporter {
	return &JSONReporter{
		writer: writer,
		pretty: pretty,
	}
}

// Generate serializes the report. Struct field order and sorted map
// keys keep the output stable across runs.
func (r *JSONReporter) Generate(report *models.Report) error {
	var data []byte
	var err error

	if r.pretty {
		data, err = json.MarshalIndent(report, "", "  ")
	} else {
		data, err = json.Marshal(report)
	}

	if err != nil {
		return err
	}

	if _, err = r.writer.Write(data); err != nil {
		return err
	}

	// Trailing newline for terminal output
	_, err = r.writer.Write([]byte("\n"))
	return err
}

// GenerateSummaryOnly writes a compact summary without the endpoint
// inventory or per-finding detail.
func (r *JSONReporter) GenerateSummaryOnly(report *models.Report) error {
	summary := struct {
		ID          string                  `json:"id"`
		Target      string                  `json:"target"`
		GeneratedAt string                  `json:"generated_at"`
		Summary     models.Summary          `json:"summary"`
		LLMStatus   models.LLMStatus        `json:"llm_status"`
		Actions     []models.Recommendation `json:"recommendations"`
	}{
		ID:          report.ID,
		Target:      report.Target,
		GeneratedAt: report.GeneratedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		Summary:     report.Summary,
		LLMStatus:   report.LLMStatus,
		Actions:     report.Recommendations,
	}

	var data []byte
	var err error

	if r.pretty {
		data, err = json.MarshalIndent(summary, "", "  ")
	} else {
		data, err = json.Marshal(summary)
	}

	if err != nil {
		return err
	}

	if _, err = r.writer.Write(data); err != nil {
		return err
	}

	_, err = r.writer.Write([]byte("\n"))
	return err
}
