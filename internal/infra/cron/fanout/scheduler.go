// fanout runs the dead-letter retrier on a fixed interval via the standard
// robfig/cron runner.
package fanout

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/submitd/submitd/internal/config"
	domainFanout "github.com/submitd/submitd/internal/domain/fanout"
	"github.com/submitd/submitd/internal/domain/tracing"
)

type RetryScheduler struct {
	cron    *cron.Cron
	retrier *domainFanout.Retrier
	tracer  tracing.Tracer
	conf    config.DeadLetters
}

func NewRetryScheduler(retrier *domainFanout.Retrier, tracer tracing.Tracer, conf config.DeadLetters) *RetryScheduler {
	return &RetryScheduler{
		cron:    cron.New(cron.WithLocation(time.UTC)),
		retrier: retrier,
		tracer:  tracer,
		conf:    conf,
	}
}

func (s *RetryScheduler) Start() {
	log.Info().
		Dur("interval", s.conf.RetryInterval).
		Msg("Scheduling dead letter retries")
	job := cron.NewChain(
		cron.Recover(zeroLogCronLogger{}),
		cron.SkipIfStillRunning(zeroLogCronLogger{}),
	).Then(cron.FuncJob(func() {
		tx := s.tracer.BackgroundTx("dead-letter-retry")
		if err := s.retrier.RunOnce(tx.Context()); err != nil {
			log.Error().Err(err).Msg("Dead letter retry run failed")
		}
		tx.End()
	}))
	s.cron.Schedule(cron.Every(s.conf.RetryInterval), job)
	s.cron.Start()
}

func (s *RetryScheduler) Stop() {
	s.cron.Stop()
}

type zeroLogCronLogger struct {
}

func (z zeroLogCronLogger) Info(msg string, keysAndValues ...interface{}) {
	if log.Info().Enabled() {
		log.Info().Fields(formatTimeValues(keysAndValues)).Msg(msg)
	}
}

func (z zeroLogCronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	if log.Error().Enabled() {
		log.Error().Err(err).Fields(formatTimeValues(keysAndValues)).Msg(msg)
	}
}

// formatTimeValues formats any time.Time values as RFC3339 *and*
// returns the even-odd idx key-value pair slice as a map
func formatTimeValues(keysAndValues []interface{}) map[string]interface{} {
	formattedArgs := make(map[string]interface{}, len(keysAndValues)/2)
	for idx := 0; idx < len(keysAndValues); idx += 2 {
		var key string
		if s, ok := keysAndValues[idx].(string); ok {
			key = s
		} else {
			key = fmt.Sprint(keysAndValues[idx])
		}
		valueIdx := idx + 1
		if len(keysAndValues) > valueIdx {
			value := keysAndValues[valueIdx]
			if t, ok := value.(time.Time); ok {
				value = t.Format(time.RFC3339)
			}
			formattedArgs[key] = value
		}
	}
	return formattedArgs
}
