package cmd

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	esCommon "github.com/submitd/submitd/internal/infra/elasticsearch/common"
	"github.com/submitd/submitd/internal/infra/elasticsearch/index"
	redisCommon "github.com/submitd/submitd/internal/infra/redis/common"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Run submitd setup",
	Long:  "Installs the Elasticsearch index templates and checks connectivity to the configured stores",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		esClient, err := esCommon.NewClient(appConfig.Elasticsearch)
		if err != nil {
			log.Fatal().Err(err).Msg("Could not setup Elasticsearch client")
		}
		log.Info().Msg("Setting up Index templates")
		templatesSetup := index.DefaultTemplateSetup(esClient)
		if err := templatesSetup.Run(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to install index templates")
		}

		log.Info().Msg("Checking Redis connectivity")
		redisClient := redisCommon.NewClient(appConfig.Redis)
		if err := redisCommon.Check(ctx, redisClient); err != nil {
			log.Fatal().Err(err).Msg("Could not reach Redis")
		}

		log.Info().Msg("Setup complete.")
	},
}

func init() {
	rootCmd.AddCommand(setupCmd)
}
