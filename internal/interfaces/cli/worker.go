package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/turtacn/CatalogMatch/internal/bootstrap"
	"github.com/turtacn/CatalogMatch/internal/infrastructure/messaging/kafka"
)

func newWorkerCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run the Kafka suggestion worker",
		Long: "worker consumes suggestion request batches from the request topic,\n" +
			"runs them through the matching engine, and publishes results.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			log, err := newLogger(cfg)
			if err != nil {
				return err
			}

			app, err := bootstrap.NewApp(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer app.Close()

			producer, err := kafka.NewProducer(cfg.Kafka, log)
			if err != nil {
				return err
			}
			defer producer.Close()

			worker, err := kafka.NewWorker(cfg.Kafka, cfg.Worker, app.Engine, producer, log)
			if err != nil {
				return err
			}

			start := func() error {
				if err := worker.Start(cmd.Context()); err != nil {
					return err
				}
				<-cmd.Context().Done()
				return nil
			}
			stop := func(context.Context) error { return worker.Close() }
			return runUntilSignal(cmd.Context(), log, start, stop)
		},
	}
}
