package main

import (
	"errors"
	"fmt"

	"github.com/UnknownOlympus/helios/internal/config"
	"github.com/UnknownOlympus/helios/internal/metrics"
	"github.com/UnknownOlympus/helios/internal/score"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

func newScoreCmd() *cobra.Command {
	var addr addressFlags

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Request the light score of one address",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.MustLoad()
			logger := setupLogger(cfg.Env)

			client, err := newScoreClient(cfg, metrics.NewMetrics(prometheus.NewRegistry()), logger)
			if err != nil {
				return err
			}

			result, err := client.Fetch(cmd.Context(), addr.value())
			if err != nil {
				var serr *score.Error
				if errors.As(err, &serr) {
					return errors.New(serr.Message)
				}
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Light score: %.1f (%s)\n", result.LightScore, result.Label())
			if result.Coordinates != nil {
				fmt.Fprintf(out, "Coordinates: %s\n", result.Coordinates)
			}
			if d := result.Details; d != nil && d.SunPosition != nil {
				fmt.Fprintf(out, "Sun: elevation %.1f, azimuth %.1f\n", d.SunPosition.Elevation, d.SunPosition.Azimuth)
			}

			return nil
		},
	}
	addr.register(cmd.Flags(), true)

	return cmd
}
