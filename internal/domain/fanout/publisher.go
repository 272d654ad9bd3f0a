package fanout

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/submitd/submitd/internal/domain/submission"
)

// EventSource tags events published by this service on the bus.
var EventSource = "submitd.ingest"

// EventTypeAccepted is the event type for a freshly accepted submission.
var EventTypeAccepted = "submission.accepted"

// EventSink publishes submission events to the event bus.
type EventSink interface {
	PublishEvent(ctx context.Context, event Event) error
}

// QueueSink enqueues work messages for downstream async processing.
type QueueSink interface {
	EnqueueWork(ctx context.Context, message WorkMessage) error
}

// NoticeSink delivers human-readable notifications.
type NoticeSink interface {
	Notify(ctx context.Context, notice Notice) error
}

// DeadLetterStore persists failed fan-out sends for out-of-band retry.
type DeadLetterStore interface {
	Record(ctx context.Context, deadLetter DeadLetter) error
	// Fetch returns up to max recorded dead letters, oldest first.
	Fetch(ctx context.Context, max uint) ([]DeadLetter, error)
	Remove(ctx context.Context, id string) error
}

// Publisher fans an accepted Submission out to the configured sinks.
//
// Only ever called after the Submission is durably persisted; a send failure
// must not surface to the caller of the ingestion pipeline.
type Publisher interface {
	Publish(ctx context.Context, accepted *submission.Submission)
}

// NewPublisher returns a Publisher that sends to all configured sinks
// concurrently, best effort. The notices sink may be nil, in which case no
// notification is attempted. A failure in one sink never blocks or rolls
// back the others; failed sinks are logged and recorded as a DeadLetter.
func NewPublisher(events EventSink, queue QueueSink, notices NoticeSink, deadLetters DeadLetterStore) Publisher {
	return &multiSink{
		events:      events,
		queue:       queue,
		notices:     notices,
		deadLetters: deadLetters,
		getUTC: func() time.Time {
			return time.Now().UTC()
		},
	}
}

type multiSink struct {
	events      EventSink
	queue       QueueSink
	notices     NoticeSink
	deadLetters DeadLetterStore
	getUTC      func() time.Time
}

// For testing
func (m *multiSink) SetUTCGetter(getter func() time.Time) {
	m.getUTC = getter
}

func (m *multiSink) Publish(ctx context.Context, accepted *submission.Submission) {
	now := m.getUTC()
	sends := []struct {
		sink SinkName
		send func() error
	}{
		{
			sink: SinkEvents,
			send: func() error {
				return m.events.PublishEvent(ctx, Event{
					ID:           uuid.New().String(),
					Source:       EventSource,
					Type:         EventTypeAccepted,
					SubmissionID: accepted.ID,
					User:         accepted.User,
					Timestamp:    now,
				})
			},
		},
		{
			sink: SinkQueue,
			send: func() error {
				return m.queue.EnqueueWork(ctx, WorkMessage{
					SubmissionID: accepted.ID,
					User:         accepted.User,
					Data:         accepted.Data,
				})
			},
		},
	}
	if m.notices != nil {
		sends = append(sends, struct {
			sink SinkName
			send func() error
		}{
			sink: SinkNotices,
			send: func() error {
				return m.notices.Notify(ctx, NoticeFor(accepted))
			},
		})
	}

	// the sends have no ordering dependency on each other, so run them
	// concurrently and wait for all of them
	var wg sync.WaitGroup
	failures := make([]SinkName, len(sends))
	for i, s := range sends {
		wg.Add(1)
		go func(i int, sink SinkName, send func() error) {
			defer wg.Done()
			if err := send(); err != nil {
				log.Error().
					Err(SinkErr{Sink: sink, Underlying: err}).
					Str("submission_id", string(accepted.ID)).
					Msg("Fan-out send failed")
				failures[i] = sink
			}
		}(i, s.sink, s.send)
	}
	wg.Wait()

	var failedSinks []SinkName
	for _, sink := range failures {
		if sink != "" {
			failedSinks = append(failedSinks, sink)
		}
	}
	if len(failedSinks) == 0 {
		return
	}
	deadLetter := DeadLetter{
		ID:           uuid.New().String(),
		SubmissionID: accepted.ID,
		User:         accepted.User,
		Data:         accepted.Data,
		FailedSinks:  failedSinks,
		RecordedAt:   now,
	}
	if err := m.deadLetters.Record(ctx, deadLetter); err != nil {
		// nothing left to do but make it observable
		log.Error().
			Err(err).
			Str("submission_id", string(accepted.ID)).
			Interface("failed_sinks", failedSinks).
			Msg("Failed to record fan-out dead letter")
	}
}

// NoticeFor builds the human-readable notification for an accepted
// submission.
func NoticeFor(accepted *submission.Submission) Notice {
	return Notice{
		SubmissionID: accepted.ID,
		User:         accepted.User,
		Message:      "Submission " + string(accepted.ID) + " from " + string(accepted.User) + " was accepted",
	}
}
