package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/apivet/apivet/internal/discovery"
	"github.com/apivet/apivet/internal/openapi"
)

var scanFlags pipelineFlags

var scanCmd = &cobra.Command{
	Use:   "scan <base-url>",
	Short: "Discover and analyze a live target in one step",
	Long: `Scan performs a full triage cycle against a live target:

  1. Discover: probe well-known documentation paths for a spec
  2. Fetch:    download the first document that answers
  3. Analyze:  run the heuristic rule engine (and the LLM, if enabled)
  4. Report:   print results (text, json, sarif, or both)

Only plain GET requests are sent. Use 'apivet discover' first to see
every candidate path without analyzing anything.`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	addPipelineFlags(scanCmd, &scanFlags)
}

func runScan(cmd *cobra.Command, args []string) error {
	target := args[0]

	logVerbose("Probing %s for spec documents...", target)
	prober := discovery.New(openapi.NewHTTPClient(cfg.FetchTimeout, cfg.Insecure), cfg.DiscoveryPaths)
	candidate, err := prober.First(cmd.Context(), target)
	if err != nil {
		return fmt.Errorf("discover spec on %s: %w", target, err)
	}

	logVerbose("Found spec at %s (%d bytes)", candidate.URL, candidate.Size)

	fetcher := openapi.NewFetcher(cfg.FetchTimeout, cfg.Insecure)
	data, err := fetcher.Fetch(cmd.Context(), candidate.URL)
	if err != nil {
		return err
	}

	endpoints, err := openapi.Extract(data)
	if err != nil {
		return &ValidationError{Message: fmt.Sprintf("parse spec from %s: %v", candidate.URL, err)}
	}
	if len(endpoints) == 0 {
		return &ValidationError{Message: fmt.Sprintf("spec at %s declares no operations", candidate.URL)}
	}

	logVerbose("Extracted %d endpoints", len(endpoints))

	return RunPipeline(cmd.Context(), target, endpoints, scanFlags.pipelineConfig(cfg))
}
