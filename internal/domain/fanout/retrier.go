package fanout

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/submitd/submitd/internal/domain/submission"
)

// Retrier re-drives recorded fan-out failures so that downstream consumers
// eventually observe every durably persisted submission. Sinks are assumed
// idempotent on submission id, so re-sending is safe (at-least-once).
type Retrier struct {
	events      EventSink
	queue       QueueSink
	notices     NoticeSink
	deadLetters DeadLetterStore
	batchSize   uint
}

func NewRetrier(events EventSink, queue QueueSink, notices NoticeSink, deadLetters DeadLetterStore, batchSize uint) *Retrier {
	return &Retrier{
		events:      events,
		queue:       queue,
		notices:     notices,
		deadLetters: deadLetters,
		batchSize:   batchSize,
	}
}

// RunOnce fetches up to a batch of dead letters and retries the failed sinks
// for each. A dead letter is removed only when every one of its failed sinks
// has been sent successfully; otherwise it stays for the next run.
//
// Meant to be idempotent, so errors can be handled by simply logging.
func (r *Retrier) RunOnce(ctx context.Context) error {
	deadLetters, err := r.deadLetters.Fetch(ctx, r.batchSize)
	if err != nil {
		return err
	}
	if len(deadLetters) == 0 {
		return nil
	}
	log.Info().Int("dead_letter_count", len(deadLetters)).Msg("Retrying failed fan-out sends")
	for _, deadLetter := range deadLetters {
		if r.retryOne(ctx, deadLetter) {
			if err := r.deadLetters.Remove(ctx, deadLetter.ID); err != nil {
				log.Error().
					Err(err).
					Str("dead_letter_id", deadLetter.ID).
					Msg("Failed to remove retried dead letter")
			}
		}
	}
	return nil
}

func (r *Retrier) retryOne(ctx context.Context, deadLetter DeadLetter) bool {
	allSent := true
	reconstructed := submission.Submission{
		ID:   deadLetter.SubmissionID,
		User: deadLetter.User,
		Data: deadLetter.Data,
	}
	for _, sink := range deadLetter.FailedSinks {
		var err error
		switch sink {
		case SinkEvents:
			err = r.events.PublishEvent(ctx, Event{
				ID:           deadLetter.ID,
				Source:       EventSource,
				Type:         EventTypeAccepted,
				SubmissionID: deadLetter.SubmissionID,
				User:         deadLetter.User,
				Timestamp:    deadLetter.RecordedAt,
			})
		case SinkQueue:
			err = r.queue.EnqueueWork(ctx, WorkMessage{
				SubmissionID: deadLetter.SubmissionID,
				User:         deadLetter.User,
				Data:         deadLetter.Data,
			})
		case SinkNotices:
			if r.notices != nil {
				err = r.notices.Notify(ctx, NoticeFor(&reconstructed))
			}
		}
		if err != nil {
			log.Warn().
				Err(SinkErr{Sink: sink, Underlying: err}).
				Str("submission_id", string(deadLetter.SubmissionID)).
				Msg("Fan-out retry failed, keeping dead letter")
			allSent = false
		}
	}
	return allSent
}
