package fanout

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/submitd/submitd/internal/domain/submission"
)

var ctx = context.Background()

var accepted = submission.Submission{
	ID:   "sub-1",
	User: "alice",
	Data: "hello",
}

func newTestPublisher(events EventSink, queue QueueSink, notices NoticeSink, deadLetters DeadLetterStore) *multiSink {
	p := NewPublisher(events, queue, notices, deadLetters).(*multiSink)
	p.SetUTCGetter(func() time.Time {
		return time.Date(2021, 3, 1, 12, 0, 0, 0, time.UTC)
	})
	return p
}

func TestMultiSink_Publish_allSinksGetTheSubmission(t *testing.T) {
	events := &MockEventSink{}
	queue := &MockQueueSink{}
	notices := &MockNoticeSink{}
	deadLetters := &MockDeadLetterStore{}
	p := newTestPublisher(events, queue, notices, deadLetters)

	p.Publish(ctx, &accepted)

	assert.EqualValues(t, 1, events.PublishEventCalled)
	assert.EqualValues(t, 1, queue.EnqueueWorkCalled)
	assert.EqualValues(t, 1, notices.NotifyCalled)
	assert.EqualValues(t, 0, deadLetters.RecordCalled)

	event := events.Events[0]
	assert.EqualValues(t, accepted.ID, event.SubmissionID)
	assert.EqualValues(t, accepted.User, event.User)
	assert.Equal(t, EventSource, event.Source)
	assert.Equal(t, EventTypeAccepted, event.Type)
	assert.NotEmpty(t, event.ID)

	message := queue.Messages[0]
	assert.EqualValues(t, accepted.Data, message.Data)
}

func TestMultiSink_Publish_withoutNoticeSink(t *testing.T) {
	events := &MockEventSink{}
	queue := &MockQueueSink{}
	deadLetters := &MockDeadLetterStore{}
	p := newTestPublisher(events, queue, nil, deadLetters)

	p.Publish(ctx, &accepted)

	assert.EqualValues(t, 1, events.PublishEventCalled)
	assert.EqualValues(t, 1, queue.EnqueueWorkCalled)
	assert.EqualValues(t, 0, deadLetters.RecordCalled)
}

func TestMultiSink_Publish_noticeFailureIsIsolated(t *testing.T) {
	events := &MockEventSink{}
	queue := &MockQueueSink{}
	notices := &MockNoticeSink{
		NotifyOverride: func(notice Notice) error {
			return fmt.Errorf("notification channel down")
		},
	}
	deadLetters := &MockDeadLetterStore{}
	p := newTestPublisher(events, queue, notices, deadLetters)

	p.Publish(ctx, &accepted)

	// the other sends went through
	assert.EqualValues(t, 1, events.PublishEventCalled)
	assert.EqualValues(t, 1, queue.EnqueueWorkCalled)
	// and the failure got dead-lettered for out-of-band retry
	if assert.EqualValues(t, 1, deadLetters.RecordCalled) {
		deadLetter := deadLetters.Recorded[0]
		assert.EqualValues(t, accepted.ID, deadLetter.SubmissionID)
		assert.EqualValues(t, []SinkName{SinkNotices}, deadLetter.FailedSinks)
	}
}

func TestMultiSink_Publish_multipleFailuresInOneDeadLetter(t *testing.T) {
	events := &MockEventSink{
		PublishEventOverride: func(event Event) error {
			return fmt.Errorf("bus unavailable")
		},
	}
	queue := &MockQueueSink{
		EnqueueWorkOverride: func(message WorkMessage) error {
			return fmt.Errorf("queue unavailable")
		},
	}
	notices := &MockNoticeSink{}
	deadLetters := &MockDeadLetterStore{}
	p := newTestPublisher(events, queue, notices, deadLetters)

	p.Publish(ctx, &accepted)

	assert.EqualValues(t, 1, notices.NotifyCalled)
	if assert.EqualValues(t, 1, deadLetters.RecordCalled) {
		deadLetter := deadLetters.Recorded[0]
		// input order is preserved
		assert.EqualValues(t, []SinkName{SinkEvents, SinkQueue}, deadLetter.FailedSinks)
	}
}
