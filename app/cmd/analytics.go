package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/submitd/submitd/internal/domain/analytics"
	esAnalytics "github.com/submitd/submitd/internal/infra/elasticsearch/analytics"
	esCommon "github.com/submitd/submitd/internal/infra/elasticsearch/common"
	"github.com/submitd/submitd/internal/infra/rabbitmq/workqueue"
)

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Run the analytics consumer",
	Long:  "Consumes accepted-submission work messages from the queue and stores analytics records, keyed by submission id so redeliveries are idempotent",
	Run: func(cmd *cobra.Command, args []string) {
		esClient, err := esCommon.NewClient(appConfig.Elasticsearch)
		if err != nil {
			log.Fatal().Err(err).Msg("Could not setup Elasticsearch client")
		}
		consumer, err := workqueue.NewConsumer(appConfig.Rabbit)
		if err != nil {
			log.Fatal().Err(err).Msg("Could not connect to the work queue")
		}
		defer consumer.Close()

		service := analytics.NewService(esAnalytics.NewStore(esClient, appConfig.Analytics))

		ctx, cancel := context.WithCancel(context.Background())
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-quit
			log.Info().Msg("Shutting down analytics consumer")
			cancel()
		}()

		log.Info().Str("queue", appConfig.Rabbit.Queue).Msg("Starting analytics consumer")
		if err := consumer.Run(ctx, service.Process); err != nil && err != context.Canceled {
			log.Fatal().Err(err).Msg("Analytics consumer stopped")
		}
	},
}

func init() {
	rootCmd.AddCommand(analyticsCmd)
}
