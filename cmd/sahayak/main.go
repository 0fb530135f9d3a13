package main

import (
	"fmt"
	"os"

	"github.com/sahayak-ai/sahayak/pkg/config"
	"github.com/sahayak-ai/sahayak/pkg/health"
	"github.com/sahayak-ai/sahayak/pkg/provider"
	"github.com/sahayak-ai/sahayak/pkg/ratelimit"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:     "sahayak",
		Short:   "Sahayak — resilient LLM provider gateway for the tutoring assistant",
		Version: version,
	}

	root.AddCommand(
		newServeCmd(),
		newProvidersCmd(),
		newUsageCmd(),
		newCacheCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildStack wires the provider registry, health tiers and rate limits from
// config. Shared by serve and providers.
func buildStack(cfg *config.Config) (*provider.Registry, *health.Registry, *ratelimit.Tracker) {
	reg := provider.FromConfig(cfg.Providers)

	tiers := make([]health.ProviderTier, 0, len(cfg.Providers))
	limits := make(map[string]ratelimit.Limit, len(cfg.Providers))
	for _, p := range cfg.Providers {
		tiers = append(tiers, health.ProviderTier{ID: p.Name, Tier: p.Tier})
		if p.RateLimit.Requests > 0 {
			limits[p.Name] = ratelimit.Limit{
				Requests: p.RateLimit.Requests,
				Window:   ratelimit.WindowDuration(p.RateLimit.Per),
			}
		}
	}

	return reg, health.New(reg, tiers, cfg.Health.CheckTimeout), ratelimit.New(limits)
}
