package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/apivet/apivet/internal/discovery"
	"github.com/apivet/apivet/internal/openapi"
)

var discoverFormat string

var discoverCmd = &cobra.Command{
	Use:   "discover <base-url>",
	Short: "Probe a target for OpenAPI documentation endpoints",
	Long: `Discover sends plain GET requests to well-known documentation paths
(/swagger.json, /openapi.json, /api-docs, ...) under the target base URL
and reports every path that answers with a spec document.

This is a read-only operation: no crawling, no payloads, no credentials.
Use 'apivet scan' to analyze the first document found.`,
	Args: cobra.ExactArgs(1),
	RunE: runDiscover,
}

func init() {
	discoverCmd.Flags().StringVar(&discoverFormat, "format", "text",
		"output format: text or json")
}

func runDiscover(cmd *cobra.Command, args []string) error {
	target := args[0]

	prober := discovery.New(openapi.NewHTTPClient(cfg.FetchTimeout, cfg.Insecure), cfg.DiscoveryPaths)
	candidates, err := prober.Discover(cmd.Context(), target)
	if err != nil && !errors.Is(err, discovery.ErrNoSpecFound) {
		return err
	}
	if candidates == nil {
		candidates = []discovery.Candidate{}
	}

	switch discoverFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(candidates)
	case "text":
		printDiscoveryText(target, candidates)
		return nil
	default:
		return &ValidationError{Message: fmt.Sprintf("invalid format: %s (must be text or json)", discoverFormat)}
	}
}

func printDiscoveryText(target string, candidates []discovery.Candidate) {
	fmt.Printf("Probed %s: %d spec document(s) found\n\n", target, len(candidates))

	for _, c := range candidates {
		fmt.Printf("  ✓ %-24s %s (%d bytes)\n", c.Path, c.ContentType, c.Size)
		fmt.Printf("        url: %s\n", c.URL)
		fmt.Println()
	}

	if len(candidates) == 0 {
		fmt.Println("No spec documents answered. The API may not publish one, or it")
		fmt.Println("may live on a non-standard path. Set discovery_paths in the config")
		fmt.Println("to probe additional locations.")
		return
	}

	fmt.Println("Run 'apivet scan <base-url>' to analyze the first match.")
}
