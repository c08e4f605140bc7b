package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/apivet/apivet/internal/discovery"
	"github.com/apivet/apivet/internal/openapi"
	"github.com/apivet/apivet/internal/tui"
)

// runInteractive drives the no-argument console: pick an action, name a
// target, run it, browse the findings. Errors are shown and the menu
// comes back; only quit leaves the loop.
func runInteractive(ctx context.Context) error {
	for {
		choice, err := tui.PromptAction()
		if err != nil {
			return err
		}

		switch choice.Action {
		case tui.ActionQuit:
			return nil
		case tui.ActionDiscover:
			err = interactiveDiscover(ctx, choice.Target)
		case tui.ActionAnalyze:
			err = interactiveBrowse(ctx, choice.Target, false)
		case tui.ActionScan:
			err = interactiveBrowse(ctx, choice.Target, true)
		}
		if err != nil {
			logError("%v", err)
		}
	}
}

func interactiveDiscover(ctx context.Context, target string) error {
	prober := discovery.New(openapi.NewHTTPClient(cfg.FetchTimeout, cfg.Insecure), cfg.DiscoveryPaths)
	candidates, err := prober.Discover(ctx, target)
	if err != nil && !errors.Is(err, discovery.ErrNoSpecFound) {
		return err
	}
	printDiscoveryText(target, candidates)
	return nil
}

// interactiveBrowse runs an analysis and opens the findings browser.
// probe selects between a full scan (discover the spec first) and a
// direct analyze of a URL or file.
func interactiveBrowse(ctx context.Context, target string, probe bool) error {
	source := target
	if probe {
		prober := discovery.New(openapi.NewHTTPClient(cfg.FetchTimeout, cfg.Insecure), cfg.DiscoveryPaths)
		candidate, err := prober.First(ctx, target)
		if err != nil {
			return fmt.Errorf("discover spec on %s: %w", target, err)
		}
		source = candidate.URL
	}

	fetcher := openapi.NewFetcher(cfg.FetchTimeout, cfg.Insecure)
	data, err := fetcher.Load(ctx, source)
	if err != nil {
		return err
	}

	endpoints, err := openapi.Extract(data)
	if err != nil {
		return fmt.Errorf("parse spec from %s: %w", source, err)
	}
	if len(endpoints) == 0 {
		return fmt.Errorf("spec from %s declares no operations", source)
	}

	report, err := runAnalysis(ctx, target, endpoints, PipelineConfig{
		EnableLLM: cfg.LLM.Enabled,
		BatchSize: cfg.LLM.BatchSize,
	})
	if err != nil {
		return err
	}

	return tui.Browse(report)
}
