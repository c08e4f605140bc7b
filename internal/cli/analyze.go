package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/apivet/apivet/internal/openapi"
)

var analyzeFlags pipelineFlags

var analyzeCmd = &cobra.Command{
	Use:   "analyze <spec-url-or-file>",
	Short: "Analyze an OpenAPI document and flag risky endpoints",
	Long: `Analyze loads an OpenAPI document from a URL or a local file, extracts
its operations in document order, and runs the heuristic rule engine
over every endpoint. With --llm it additionally asks a language model
for hypotheses about risks the rules cannot see; results are strictly
validated and never replace the deterministic findings.

Examples:
  apivet analyze https://api.example.com/openapi.json
  apivet analyze ./specs/petstore.json --format json -o report.json
  apivet analyze ./specs/petstore.json --llm --llm-batch-size 5
  apivet analyze ./specs/petstore.json --format sarif > report.sarif`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	addPipelineFlags(analyzeCmd, &analyzeFlags)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	source := args[0]

	fetcher := openapi.NewFetcher(cfg.FetchTimeout, cfg.Insecure)
	data, err := fetcher.Load(cmd.Context(), source)
	if err != nil {
		return err
	}

	logVerbose("Loaded spec from %s (%d bytes)", source, len(data))

	endpoints, err := openapi.Extract(data)
	if err != nil {
		return &ValidationError{Message: fmt.Sprintf("parse spec: %v", err)}
	}
	if len(endpoints) == 0 {
		return &ValidationError{Message: fmt.Sprintf("spec from %s declares no operations", source)}
	}

	logVerbose("Extracted %d endpoints", len(endpoints))

	return RunPipeline(cmd.Context(), source, endpoints, analyzeFlags.pipelineConfig(cfg))
}
