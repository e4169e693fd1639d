package main

import (
	"fmt"

	"github.com/UnknownOlympus/helios/internal/config"
	"github.com/UnknownOlympus/helios/internal/locator"
	"github.com/UnknownOlympus/helios/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

func newLocateCmd() *cobra.Command {
	var addr addressFlags

	cmd := &cobra.Command{
		Use:   "locate",
		Short: "Geocode the most specific part of an address",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := config.MustLoad()
			logger := setupLogger(cfg.Env)
			m := metrics.NewMetrics(prometheus.NewRegistry())

			provider, err := newProvider(cfg, logger, nil, m)
			if err != nil {
				return err
			}

			loc := locator.New(ctx, logger, provider, m, locator.WithGeocodeTimeout(cfg.GeocodeTimeout))
			defer loc.Close()

			outcome := loc.Locate(ctx, addr.value())
			if outcome.Err != nil {
				return fmt.Errorf("failed to locate %q: %w", outcome.Query, outcome.Err)
			}

			view := loc.View()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Query:  %s (%s)\n", outcome.Query, outcome.Tier)
			if outcome.Resolved != outcome.Query {
				fmt.Fprintf(out, "Match:  %s\n", outcome.Resolved)
			}
			fmt.Fprintf(out, "Center: %s\n", view.Center)
			fmt.Fprintf(out, "Zoom:   %d\n", view.Zoom)
			if cfg.MapAPIKey != "" {
				fmt.Fprintf(out, "Map:    %s\n", locator.StaticMapURL(view, locator.DefaultMapSize, cfg.MapAPIKey))
			}

			return nil
		},
	}
	addr.register(cmd.Flags(), false)

	return cmd
}
