package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/turtacn/CatalogMatch/internal/bootstrap"
	"github.com/turtacn/CatalogMatch/internal/config"
	"github.com/turtacn/CatalogMatch/internal/infrastructure/database/postgres"
	"github.com/turtacn/CatalogMatch/internal/infrastructure/monitoring/logging"
	httpserver "github.com/turtacn/CatalogMatch/internal/interfaces/http"
	"github.com/turtacn/CatalogMatch/internal/interfaces/http/handlers"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	var (
		autoMigrate    bool
		migrationsPath string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the suggestion API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			log, err := newLogger(cfg)
			if err != nil {
				return err
			}

			if autoMigrate {
				if err := postgres.RunMigrations(postgres.BuildDSN(cfg.Database), migrationsPath); err != nil {
					return err
				}
				log.Info("schema migrations applied")
			}

			app, err := bootstrap.NewApp(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer app.Close()

			if opts.configPath != "" {
				config.Watch(opts.configPath, func(next *config.Config) {
					if ls, ok := log.(logging.LevelSetter); ok {
						ls.SetLevel(next.Log.Level)
						log.Info("log level updated", logging.String("level", next.Log.Level))
					}
				})
			}

			server := buildServer(cfg, app)
			return runUntilSignal(cmd.Context(), log, server.Start, server.Stop)
		},
	}

	cmd.Flags().BoolVar(&autoMigrate, "migrate", false, "apply pending schema migrations before serving")
	cmd.Flags().StringVar(&migrationsPath, "migrations", "file://migrations", "migrations source URL")
	return cmd
}

// buildServer assembles the HTTP server from a wired application.
func buildServer(cfg *config.Config, app *bootstrap.App) *httpserver.Server {
	catalogOpts := []handlers.CatalogHandlerOption{}
	if app.Searcher != nil {
		catalogOpts = append(catalogOpts, handlers.WithSearchIndexer(app.Searcher))
	}
	if app.Vectors != nil && app.Embedder != nil {
		catalogOpts = append(catalogOpts, handlers.WithVectorIndexer(app.Vectors, app.Embedder))
	}

	checks := make(map[string]handlers.Pinger, len(app.HealthChecks))
	for name, ping := range app.HealthChecks {
		checks[name] = handlers.PingerFunc(ping)
	}

	router := httpserver.NewRouter(httpserver.RouterConfig{
		SuggestionHandler: handlers.NewSuggestionHandler(app.Engine, cfg.Worker.MaxBatchItems),
		CatalogHandler:    handlers.NewCatalogHandler(app.Importer, app.Logger, catalogOpts...),
		HealthHandler:     handlers.NewHealthHandler(checks, app.Logger),
		MetricsHandler:    app.Collector.Handler(),
		Multitenancy:      cfg.Multitenancy,
		Mode:              cfg.Server.Mode,
		MaxBodySize:       cfg.Server.MaxBodySize,
		Logger:            app.Logger,
	})
	return httpserver.NewServer(cfg.Server, router, app.Logger)
}

// runUntilSignal starts the given blocking function and stops it on SIGINT or
// SIGTERM, or when start itself fails.
func runUntilSignal(ctx context.Context, log logging.Logger, start func() error, stop func(context.Context) error) error {
	errCh := make(chan error, 1)
	go func() { errCh <- start() }()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Info("shutting down", logging.String("signal", sig.String()))
	case <-ctx.Done():
	}
	return stop(context.Background())
}
