package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/UnknownOlympus/helios/internal/api"
	"github.com/UnknownOlympus/helios/internal/config"
	"github.com/UnknownOlympus/helios/internal/geocoding"
	"github.com/UnknownOlympus/helios/internal/metrics"
	"github.com/UnknownOlympus/helios/internal/repository"
	"github.com/UnknownOlympus/helios/internal/score"
	"github.com/UnknownOlympus/helios/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the form session API",
		Long:  `Start the form session API, the monitoring server and the idle session sweeper.`,
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	// Load application configuration.
	cfg := config.MustLoad()

	// Set up the logger based on the environment.
	logger := setupLogger(cfg.Env)
	if cfg.Env != envLocal {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create a separate registry for metrics with exemplar
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.NewMetrics(reg)

	// The geocode cache is optional.
	var (
		cache  repository.Interface
		health pinger
	)
	if cfg.Database.Enabled() {
		dtb, err := repository.NewDatabase(
			cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Password, cfg.Database.Name,
		)
		if err != nil {
			return fmt.Errorf("failed to connect to DB: %w", err)
		}
		defer dtb.Close()

		if err = repository.Migrate(ctx, dtb); err != nil {
			return err
		}

		cache = repository.NewRepository(dtb, logger)
		health = dtb
		logger.InfoContext(ctx, "Geocode cache enabled", "host", cfg.Database.Host)
	}

	geoProvider, err := newProvider(cfg, logger, cache, appMetrics)
	if err != nil {
		return err
	}

	scoreClient, err := newScoreClient(cfg, appMetrics, logger)
	if err != nil {
		return err
	}

	store := session.NewStore(ctx, logger, geoProvider, scoreClient, appMetrics, session.Options{
		QuietPeriod:    cfg.QuietPeriod,
		GeocodeTimeout: cfg.GeocodeTimeout,
		TTL:            cfg.SessionTTL,
		MapAPIKey:      cfg.MapAPIKey,
	})

	apiServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.APIPort),
		Handler:           api.NewRouter(store, cfg.CORSOrigins, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}
	monitoring := newMonitoringServer(ctx, logger, reg, health, cfg.Port)

	logger.InfoContext(ctx, "Application started. Press Ctrl+C to stop.")

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error { return serveHTTP(gctx, logger, "api", apiServer) })
	group.Go(func() error { return serveHTTP(gctx, logger, "monitoring", monitoring) })
	group.Go(func() error {
		store.Run(gctx)
		return nil
	})

	err = group.Wait()
	logger.InfoContext(ctx, "Application stopped gracefully.")

	return err
}

// newProvider creates the geocoding provider selected by configuration.
func newProvider(
	cfg *config.Config,
	logger *slog.Logger,
	cache repository.Interface,
	m *metrics.Metrics,
) (geocoding.Provider, error) {
	provider, err := geocoding.NewProvider(geocoding.ProviderConfig{
		Type:      geocoding.ProviderType(cfg.ProviderType),
		APIKey:    cfg.MapAPIKey,
		RateLimit: cfg.RateLimit,
		Logger:    logger,
		Cache:     cache,
		Metrics:   m,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create geocoding provider: %w", err)
	}

	logger.Info("Geocoding provider initialized", "type", cfg.ProviderType)

	return provider, nil
}

// newScoreClient creates the light score backend client.
func newScoreClient(cfg *config.Config, m *metrics.Metrics, logger *slog.Logger) (*score.Client, error) {
	opts := []score.ClientOption{
		score.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
		score.WithPath(cfg.ScorePath),
	}
	if !cfg.RequirePostalCode {
		opts = append(opts, score.WithOptionalPostalCode())
	}

	client, err := score.NewClient(cfg.BackendURL, m, logger, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create light score client: %w", err)
	}

	return client, nil
}
