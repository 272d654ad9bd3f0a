// server wires the configured infrastructure into the running HTTP service:
// stores, sinks, the ingestion pipeline, routing, and the dead letter retry
// scheduler.
package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/gzip"
	ginlogger "github.com/gin-contrib/logger"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"go.elastic.co/apm/module/apmgin"

	submissionController "github.com/submitd/submitd/internal/api/controllers/submission"
	"github.com/submitd/submitd/internal/config"
	"github.com/submitd/submitd/internal/domain/fanout"
	"github.com/submitd/submitd/internal/domain/ingestion"
	"github.com/submitd/submitd/internal/domain/ratelimit"
	"github.com/submitd/submitd/internal/domain/submission"
	"github.com/submitd/submitd/internal/domain/validation"
	apmTracing "github.com/submitd/submitd/internal/infra/apm/tracing"
	cronFanout "github.com/submitd/submitd/internal/infra/cron/fanout"
	esCommon "github.com/submitd/submitd/internal/infra/elasticsearch/common"
	"github.com/submitd/submitd/internal/infra/elasticsearch/deadletter"
	esSubmission "github.com/submitd/submitd/internal/infra/elasticsearch/submission"
	"github.com/submitd/submitd/internal/infra/nats/events"
	"github.com/submitd/submitd/internal/infra/rabbitmq/workqueue"
	redisCommon "github.com/submitd/submitd/internal/infra/redis/common"
	"github.com/submitd/submitd/internal/infra/redis/notify"
	"github.com/submitd/submitd/internal/infra/redis/ratewindow"
	"github.com/submitd/submitd/internal/infra/server/routing"
)

type Components struct {
	appConfig *config.App

	ginEngine *gin.Engine

	eventsSink     *events.Publisher
	queueSink      *workqueue.Publisher
	retryScheduler *cronFanout.RetryScheduler
}

// NewComponents builds every component of the service from config, wiring the
// ingestion pipeline to its stores and sinks and registering the routes.
func NewComponents(appConfig *config.App) (*Components, error) {
	esClient, err := esCommon.NewClient(appConfig.Elasticsearch)
	if err != nil {
		return nil, err
	}
	if err := NewSetup(esClient).Check(context.Background()); err != nil {
		return nil, err
	}
	redisClient := redisCommon.NewClient(appConfig.Redis)

	eventsSink, err := events.NewPublisher(appConfig.Nats)
	if err != nil {
		return nil, err
	}
	queueSink, err := workqueue.NewPublisher(appConfig.Rabbit)
	if err != nil {
		eventsSink.Close()
		return nil, err
	}
	var noticeSink fanout.NoticeSink
	if appConfig.Notifier != nil {
		noticeSink = notify.NewNotifier(redisClient, *appConfig.Notifier)
	}

	deadLetterStore := deadletter.NewStore(esClient, appConfig.DeadLetters)
	publisher := fanout.NewPublisher(eventsSink, queueSink, noticeSink, deadLetterStore)
	retrier := fanout.NewRetrier(eventsSink, queueSink, noticeSink, deadLetterStore, appConfig.DeadLetters.RetryBatchSize)
	retryScheduler := cronFanout.NewRetryScheduler(retrier, apmTracing.NewTracer(), appConfig.DeadLetters)

	defaults := appConfig.Ingestion.Defaults
	submissionStore := esSubmission.NewStore(esClient, appConfig.Submissions, defaults)
	windowStore := ratewindow.NewStore(redisClient, defaults.RateLimitWindow)
	limiter := ratelimit.NewLimiter(windowStore, ratelimit.Settings{
		Quota:              defaults.RateLimitQuota,
		Window:             defaults.RateLimitWindow,
		ConflictRetryTimes: defaults.ConflictRetryTimes,
	})
	pipeline := ingestion.New(
		validation.New(defaults.ProhibitedTerms),
		limiter,
		submissionStore,
		publisher,
		submission.ProcessedBy(defaults.ProcessorName),
	)
	controller := submissionController.New(pipeline, submissionStore)

	ginEngine := gin.New()
	ginEngine.Use(
		ginlogger.SetLogger(),
		gin.Recovery(),
		gzip.Gzip(gzip.DefaultCompression),
		apmgin.Middleware(ginEngine),
	)
	ginEngine.NoRoute(routing.NoRoute)
	ginEngine.NoMethod(routing.NoMethod)
	routesHandler := routing.SubmissionsRoutesHandler{
		AuthSettings: appConfig.Auth,
		Controller:   controller,
	}
	routesHandler.RegisterRoutes(ginEngine)

	return &Components{
		appConfig:      appConfig,
		ginEngine:      ginEngine,
		eventsSink:     eventsSink,
		queueSink:      queueSink,
		retryScheduler: retryScheduler,
	}, nil
}

// Run starts the dead letter retry scheduler and the HTTP server, blocking
// until SIGINT or SIGTERM, then shuts down gracefully within the configured
// timeout.
func (c *Components) Run() {
	c.retryScheduler.Start()

	httpServer := &http.Server{
		Addr:    c.appConfig.BindAddress,
		Handler: c.ginEngine,
	}
	go func() {
		log.Info().Str("address", c.appConfig.BindAddress).Msg("Starting server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to listen")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), c.appConfig.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Forced shutdown")
	}
	c.retryScheduler.Stop()
	c.eventsSink.Close()
	c.queueSink.Close()
	log.Info().Msg("Server exited")
}
