package reporter

import (
	"fmt"
	"io"

	"github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/apivet/apivet/internal/models"
)

const toolURI = "https://github.com/apivet/apivet"

// ruleDescriptions gives each rule a short SARIF description.
var ruleDescriptions = map[models.RuleID]string{
	models.RuleObjectIdentifier: "Path parameter resembles an object identifier",
	models.RuleStateChange:      "State-changing method requires authorization review",
	models.RuleAdminRoute:       "Administrative route exposed in the spec",
	models.RuleNumericInput:     "Numeric input parameter suited for boundary probing",
	models.RuleAuthenticated:    "Authenticated endpoint relying on token validity",
	models.RuleLLMHypothesis:    "Model-proposed abuse hypothesis",
}

// SARIFReporter emits findings as a SARIF 2.1.0 document so results
// plug into code-scanning dashboards.
type SARIFReporter struct {
	writer io.Writer
}

// NewSARIFReporter creates a new SARIF reporter.
func NewSARIFReporter(writer io.Writer) *SARIFReporter {
	return &SARIFReporter{
		writer: writer,
	}
}

// Generate converts the report into a single-run SARIF document. Each
// finding becomes a result; the endpoint path doubles as the artifact
// location since API surfaces have no source files.
func (r *SARIFReporter) Generate(report *models.Report) error {
	doc, err := sarif.New(sarif.Version210)
	if err != nil {
		return fmt.Errorf("create sarif report: %w", err)
	}

	run := sarif.NewRunWithInformationURI("apivet", toolURI)

	added := make(map[models.RuleID]bool)
	for _, f := range report.Findings {
		if !added[f.Rule] {
			run.AddRule(string(f.Rule)).
				WithDescription(ruleDescriptions[f.Rule]).
				WithDefaultConfiguration(&sarif.ReportingConfiguration{
					Level: severityToLevel(f.Severity),
				})
			added[f.Rule] = true
		}

		location := sarif.NewLocation().WithPhysicalLocation(
			sarif.NewPhysicalLocation().
				WithArtifactLocation(sarif.NewArtifactLocation().WithUri(f.Path)),
		)

		result := sarif.NewRuleResult(string(f.Rule)).
			WithMessage(sarif.NewTextMessage(fmt.Sprintf("%s %s: %s", f.Method, f.Path, f.Risk))).
			WithLevel(severityToLevel(f.Severity)).
			WithLocations([]*sarif.Location{location})
		run.AddResult(result)
	}

	doc.AddRun(run)
	return doc.PrettyWrite(r.writer)
}

func severityToLevel(severity models.Severity) string {
	switch severity {
	case models.SeverityHigh:
		return "error"
	case models.SeverityMedium:
		return "warning"
	case models.SeverityLow:
		return "note"
	default:
		return "none"
	}
}
