package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/apivet/apivet/internal/analyzer"
	"github.com/apivet/apivet/internal/config"
	"github.com/apivet/apivet/internal/llm"
	"github.com/apivet/apivet/internal/models"
	"github.com/apivet/apivet/internal/policy"
	"github.com/apivet/apivet/internal/reporter"
)

// PipelineConfig holds options for the shared analysis pipeline.
type PipelineConfig struct {
	Format      string
	Output      string
	SARIFOutput string
	SummaryOnly bool
	Threshold   int
	EnableLLM   bool
	BatchSize   int
}

// pipelineFlags are the output and augmentation flags shared by the
// analyze and scan commands. Zero values defer to the loaded config.
type pipelineFlags struct {
	format    string
	output    string
	sarifOut  string
	summary   bool
	llmOn     bool
	llmOff    bool
	batchSize int
	threshold int
}

// addPipelineFlags registers the shared flag set on a command.
func addPipelineFlags(cmd *cobra.Command, f *pipelineFlags) {
	cmd.Flags().StringVar(&f.format, "format", "",
		"output format: text, json, sarif, or both (default from config)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "",
		"write output to file instead of stdout")
	cmd.Flags().StringVar(&f.sarifOut, "sarif", "",
		"additionally write a SARIF report to this file")
	cmd.Flags().BoolVar(&f.summary, "summary", false,
		"print the summary only (requires --format json)")
	cmd.Flags().BoolVar(&f.llmOn, "llm", false,
		"enable LLM hypothesis generation")
	cmd.Flags().BoolVar(&f.llmOff, "no-llm", false,
		"disable LLM hypothesis generation")
	cmd.Flags().IntVar(&f.batchSize, "llm-batch-size", 0,
		"endpoints per LLM batch (default from config)")
	cmd.Flags().IntVar(&f.threshold, "fail-threshold", 0,
		"exit 1 if findings exceed threshold (0 = disabled)")
}

// pipelineConfig resolves flags against the loaded config: flags win
// when set, config supplies the rest.
func (f *pipelineFlags) pipelineConfig(c *config.Config) PipelineConfig {
	format := f.format
	if format == "" {
		format = c.Format
	}

	enable := c.LLM.Enabled
	if f.llmOn {
		enable = true
	}
	if f.llmOff {
		enable = false
	}

	batch := c.LLM.BatchSize
	if f.batchSize != 0 {
		batch = f.batchSize
	}

	return PipelineConfig{
		Format:      format,
		Output:      f.output,
		SARIFOutput: f.sarifOut,
		SummaryOnly: f.summary,
		Threshold:   f.threshold,
		EnableLLM:   enable,
		BatchSize:   batch,
	}
}

// RunPipeline executes the analysis pipeline on a set of endpoints.
// This is the shared logic between analyze and scan commands:
// session → report → output → policy → threshold check.
func RunPipeline(ctx context.Context, target string, endpoints []models.Endpoint, pcfg PipelineConfig) error {
	if pcfg.SummaryOnly && pcfg.Format != "json" {
		return &ValidationError{Message: "--summary requires --format json"}
	}

	// Step 1: Run the analysis session
	report, err := runAnalysis(ctx, target, endpoints, pcfg)
	if err != nil {
		return err
	}

	logVerbose("Analyzed %d endpoints, %d findings", report.Summary.TotalEndpoints, report.Summary.TotalFindings)
	if report.LLMStatus == models.LLMDegraded {
		logVerbose("LLM augmentation degraded; report holds heuristic findings only")
	}

	// Step 2: Generate output
	if err := generateOutput(report, pcfg.Format, pcfg.Output, pcfg.SummaryOnly); err != nil {
		logError("Failed to generate output: %v", err)
		return err
	}

	// Step 3: Extra SARIF artifact if requested
	if pcfg.SARIFOutput != "" {
		if err := writeSARIF(report, pcfg.SARIFOutput); err != nil {
			logError("Failed to write SARIF report: %v", err)
			return err
		}
		logVerbose("Wrote SARIF report to: %s", pcfg.SARIFOutput)
	}

	// Step 4: Policy enforcement (if .apivet-policy.yaml exists)
	if policyPath := policy.FindPolicyFile(); policyPath != "" {
		logVerbose("Found policy file: %s", policyPath)

		pol, err := policy.LoadFromFile(policyPath)
		if err != nil {
			logError("Failed to load policy: %v", err)
			return err
		}

		if pol != nil {
			result := pol.Evaluate(report)
			if !result.Pass {
				for _, v := range result.Violations {
					logError("Policy violation [%s]: %s", v.Rule, v.Message)
				}
				return &ThresholdExceededError{
					FindingCount: len(result.Violations),
					Threshold:    0,
				}
			}
			logVerbose("Policy check passed")
		}
	}

	// Step 5: Check threshold
	if pcfg.Threshold > 0 && report.Summary.TotalFindings > pcfg.Threshold {
		logError("Finding count (%d) exceeds threshold (%d)", report.Summary.TotalFindings, pcfg.Threshold)
		return &ThresholdExceededError{
			FindingCount: report.Summary.TotalFindings,
			Threshold:    pcfg.Threshold,
		}
	}

	return nil
}

// runAnalysis builds a session from the active config and runs it.
// Construction errors are configuration mistakes and map to invalid
// input; a run with zero valid endpoints does the same.
func runAnalysis(ctx context.Context, target string, endpoints []models.Endpoint, pcfg PipelineConfig) (*models.Report, error) {
	engine := analyzer.NewEngine(analyzer.Config{IdentifierTokens: cfg.IdentifierTokens})

	session, err := analyzer.NewSession(engine, buildProposer(cfg, pcfg.EnableLLM), analyzer.Options{
		EnableLLM:  pcfg.EnableLLM,
		BatchSize:  pcfg.BatchSize,
		LLMTimeout: cfg.LLM.Timeout,
	})
	if err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}

	return session.Run(ctx, target, endpoints)
}

// buildProposer wires the completions client into the hypothesis
// adapter. Without an API key the adapter is a typed nil: the session
// still constructs, every batch fails, and the report comes back
// degraded instead of aborting the run.
func buildProposer(c *config.Config, enabled bool) analyzer.Proposer {
	client := llm.NewClient(llm.ClientConfig{
		BaseURL:     c.LLM.BaseURL,
		Model:       c.LLM.Model,
		APIKey:      c.LLM.APIKey,
		Temperature: c.LLM.Temperature,
		Timeout:     c.LLM.Timeout,
	})
	if enabled && client == nil {
		log.Warn().Msg("no LLM API key configured; augmentation will degrade to heuristic-only")
	}
	return llm.NewAdapter(client)
}

// generateOutput generates the output in the specified format(s).
func generateOutput(report *models.Report, format, outputPath string, summaryOnly bool) error {
	var writer *os.File
	if outputPath == "" {
		writer = os.Stdout
	} else {
		var err error
		writer, err = os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() { _ = writer.Close() }()
	}

	if summaryOnly {
		jsonReporter := reporter.NewJSONReporter(writer, true)
		return jsonReporter.GenerateSummaryOnly(report)
	}

	switch format {
	case "text":
		textReporter := reporter.NewTextReporter(writer)
		return textReporter.Generate(report)

	case "json":
		jsonReporter := reporter.NewJSONReporter(writer, true)
		return jsonReporter.Generate(report)

	case "sarif":
		sarifReporter := reporter.NewSARIFReporter(writer)
		return sarifReporter.Generate(report)

	case "both":
		if outputPath == "" {
			textReporter := reporter.NewTextReporter(os.Stdout)
			if err := textReporter.Generate(report); err != nil {
				return err
			}

			jsonFile, err := os.Create("apivet-report.json")
			if err != nil {
				return fmt.Errorf("failed to create JSON file: %w", err)
			}
			defer func() { _ = jsonFile.Close() }()

			jsonReporter := reporter.NewJSONReporter(jsonFile, true)
			return jsonReporter.Generate(report)
		}

		textReporter := reporter.NewTextReporter(writer)
		if err := textReporter.Generate(report); err != nil {
			return err
		}

		if _, err := fmt.Fprintf(writer, "\n=== JSON Output ===\n\n"); err != nil {
			return err
		}

		jsonReporter := reporter.NewJSONReporter(writer, true)
		return jsonReporter.Generate(report)

	default:
		return &ValidationError{Message: fmt.Sprintf("unsupported format: %s (use text, json, sarif, or both)", format)}
	}
}

// writeSARIF writes a standalone SARIF artifact alongside the primary
// output, for CI systems that ingest it separately.
func writeSARIF(report *models.Report, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create SARIF file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return reporter.NewSARIFReporter(file).Generate(report)
}
