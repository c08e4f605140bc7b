package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/apivet/apivet/internal/analyzer"
	"github.com/apivet/apivet/internal/config"
)

const (
	// Exit codes for CI/CD integration
	ExitOK           = 0 // Success
	ExitPolicyFail   = 1 // Findings exceed threshold or violate policy
	ExitInvalidInput = 2 // Bad arguments, unparseable spec, or no valid endpoints
	ExitRuntimeError = 3 // I/O, network, or runtime error
)

var (
	// Global config instance
	cfg *config.Config

	// Global flags
	configFile string
	verbose    bool
	debug      bool
	insecure   bool
)

// buildVersion is injected from main via SetVersion.
var buildVersion = "dev"

// SetVersion records the build version for the version command.
func SetVersion(v string) {
	buildVersion = v
}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "apivet",
	Short: "apivet - API attack-surface triage",
	Long: `apivet maps the attack surface of an HTTP API before anyone sends a
single crafted request. It locates the OpenAPI document of a target (or
loads one from disk), flags the endpoints an attacker would probe first,
and explains why.

It provides:
- Deterministic heuristics: object identifiers, state-changing methods,
  administrative routes
- Optional LLM-assisted hypotheses with strict schema validation
- Reports in text, JSON, or SARIF for CI/CD integration
- Policy gates with meaningful exit codes

Quick start:
  apivet scan https://api.example.com
  apivet analyze ./openapi.json
  apivet discover https://api.example.com

Run without arguments in a terminal for the interactive console.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Load configuration
		var err error
		cfg, err = config.LoadFromFile(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		// Override config with flags if provided
		if verbose {
			cfg.Verbose = true
		}
		if debug {
			cfg.Debug = true
		}
		if insecure {
			cfg.Insecure = true
		}

		configureLogging(cfg)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd())) {
			return runInteractive(cmd.Context())
		}
		return cmd.Help()
	},
}

// configureLogging routes zerolog to stderr so stdout stays clean for
// report output. Default level is warn; --verbose and --debug raise it.
func configureLogging(c *config.Config) {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	switch {
	case c.Debug:
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	case c.Verbose:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	}
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logError("%v", err)
		os.Exit(HandleError(err))
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "",
		"config file (default: ./apivet.yaml or ~/apivet.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"verbose output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"debug mode (very verbose)")
	rootCmd.PersistentFlags().BoolVar(&insecure, "insecure", false,
		"skip TLS certificate verification (lab targets only)")

	// Add subcommands
	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// versionCmd shows version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("apivet %s\n", buildVersion)
		fmt.Println("API attack-surface triage")
	},
}

// configCmd prints a sample configuration file
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print a sample configuration file",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Print(config.GenerateSampleConfig())
	},
}

// HandleError determines the appropriate exit code for an error
func HandleError(err error) int {
	if err == nil {
		return ExitOK
	}

	var validationErr *ValidationError
	var thresholdErr *ThresholdExceededError
	switch {
	case errors.As(err, &validationErr):
		return ExitInvalidInput
	case errors.As(err, &thresholdErr):
		return ExitPolicyFail
	case errors.Is(err, analyzer.ErrNoValidEndpoints):
		return ExitInvalidInput
	default:
		return ExitRuntimeError
	}
}

// ValidationError represents invalid user input: bad flags, a spec that
// does not parse, or inputs that were rejected wholesale.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ThresholdExceededError represents a policy or threshold failure.
type ThresholdExceededError struct {
	FindingCount int
	Threshold    int
}

func (e *ThresholdExceededError) Error() string {
	return fmt.Sprintf("finding count (%d) exceeds threshold (%d)", e.FindingCount, e.Threshold)
}

// logVerbose prints a message if verbose mode is enabled
func logVerbose(format string, args ...interface{}) {
	if cfg != nil && cfg.Verbose {
		fmt.Fprintf(os.Stderr, "[INFO] "+format+"\n", args...)
	}
}

// logDebug prints a message if debug mode is enabled
func logDebug(format string, args ...interface{}) {
	if cfg != nil && cfg.Debug {
		fmt.Fprintf(os.Stderr, "[DEBUG] "+format+"\n", args...)
	}
}

// logError prints an error message
func logError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "[ERROR] "+format+"\n", args...)
}
