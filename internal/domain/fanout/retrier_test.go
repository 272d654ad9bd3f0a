package fanout

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var recordedAt = time.Date(2021, 3, 1, 12, 0, 0, 0, time.UTC)

func deadLetterFixture(failedSinks ...SinkName) DeadLetter {
	return DeadLetter{
		ID:           "dl-1",
		SubmissionID: "sub-1",
		User:         "alice",
		Data:         "hello",
		FailedSinks:  failedSinks,
		RecordedAt:   recordedAt,
	}
}

func TestRetrier_RunOnce_emptyStoreDoesNothing(t *testing.T) {
	events := &MockEventSink{}
	queue := &MockQueueSink{}
	deadLetters := &MockDeadLetterStore{}
	r := NewRetrier(events, queue, nil, deadLetters, 10)

	assert.NoError(t, r.RunOnce(ctx))
	assert.EqualValues(t, 0, events.PublishEventCalled)
	assert.EqualValues(t, 0, deadLetters.RemoveCalled)
}

func TestRetrier_RunOnce_retriesOnlyFailedSinks(t *testing.T) {
	events := &MockEventSink{}
	queue := &MockQueueSink{}
	notices := &MockNoticeSink{}
	deadLetters := &MockDeadLetterStore{
		Recorded: []DeadLetter{deadLetterFixture(SinkQueue)},
	}
	r := NewRetrier(events, queue, notices, deadLetters, 10)

	assert.NoError(t, r.RunOnce(ctx))

	assert.EqualValues(t, 0, events.PublishEventCalled)
	assert.EqualValues(t, 1, queue.EnqueueWorkCalled)
	assert.EqualValues(t, 0, notices.NotifyCalled)
	// successfully retried, so removed
	assert.EqualValues(t, 1, deadLetters.RemoveCalled)
	assert.Empty(t, deadLetters.Recorded)
}

func TestRetrier_RunOnce_keepsDeadLetterWhenRetryFails(t *testing.T) {
	events := &MockEventSink{
		PublishEventOverride: func(event Event) error {
			return fmt.Errorf("still down")
		},
	}
	queue := &MockQueueSink{}
	deadLetters := &MockDeadLetterStore{
		Recorded: []DeadLetter{deadLetterFixture(SinkEvents, SinkQueue)},
	}
	r := NewRetrier(events, queue, nil, deadLetters, 10)

	assert.NoError(t, r.RunOnce(ctx))

	// queue send succeeded, events send failed: the whole entry stays
	assert.EqualValues(t, 1, queue.EnqueueWorkCalled)
	assert.EqualValues(t, 0, deadLetters.RemoveCalled)
	assert.Len(t, deadLetters.Recorded, 1)
}

func TestRetrier_RunOnce_surfacesFetchErrors(t *testing.T) {
	deadLetters := &MockDeadLetterStore{
		FetchOverride: func(max uint) ([]DeadLetter, error) {
			return nil, fmt.Errorf("store unavailable")
		},
	}
	r := NewRetrier(&MockEventSink{}, &MockQueueSink{}, nil, deadLetters, 10)
	assert.Error(t, r.RunOnce(ctx))
}
