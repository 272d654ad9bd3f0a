package fanout

import (
	"context"

	"github.com/submitd/submitd/internal/domain/submission"
)

type MockEventSink struct {
	PublishEventCalled   uint
	PublishEventOverride func(event Event) error
	Events               []Event
}

func (m *MockEventSink) PublishEvent(ctx context.Context, event Event) error {
	m.PublishEventCalled++
	if m.PublishEventOverride != nil {
		return m.PublishEventOverride(event)
	}
	m.Events = append(m.Events, event)
	return nil
}

type MockQueueSink struct {
	EnqueueWorkCalled   uint
	EnqueueWorkOverride func(message WorkMessage) error
	Messages            []WorkMessage
}

func (m *MockQueueSink) EnqueueWork(ctx context.Context, message WorkMessage) error {
	m.EnqueueWorkCalled++
	if m.EnqueueWorkOverride != nil {
		return m.EnqueueWorkOverride(message)
	}
	m.Messages = append(m.Messages, message)
	return nil
}

type MockNoticeSink struct {
	NotifyCalled   uint
	NotifyOverride func(notice Notice) error
	Notices        []Notice
}

func (m *MockNoticeSink) Notify(ctx context.Context, notice Notice) error {
	m.NotifyCalled++
	if m.NotifyOverride != nil {
		return m.NotifyOverride(notice)
	}
	m.Notices = append(m.Notices, notice)
	return nil
}

type MockDeadLetterStore struct {
	RecordCalled   uint
	RecordOverride func(deadLetter DeadLetter) error
	FetchCalled    uint
	FetchOverride  func(max uint) ([]DeadLetter, error)
	RemoveCalled   uint
	RemoveOverride func(id string) error
	Recorded       []DeadLetter
}

func (m *MockDeadLetterStore) Record(ctx context.Context, deadLetter DeadLetter) error {
	m.RecordCalled++
	if m.RecordOverride != nil {
		return m.RecordOverride(deadLetter)
	}
	m.Recorded = append(m.Recorded, deadLetter)
	return nil
}

func (m *MockDeadLetterStore) Fetch(ctx context.Context, max uint) ([]DeadLetter, error) {
	m.FetchCalled++
	if m.FetchOverride != nil {
		return m.FetchOverride(max)
	}
	return m.Recorded, nil
}

func (m *MockDeadLetterStore) Remove(ctx context.Context, id string) error {
	m.RemoveCalled++
	if m.RemoveOverride != nil {
		return m.RemoveOverride(id)
	}
	kept := make([]DeadLetter, 0, len(m.Recorded))
	for _, dl := range m.Recorded {
		if dl.ID != id {
			kept = append(kept, dl)
		}
	}
	m.Recorded = kept
	return nil
}

// MockPublisher satisfies Publisher for pipeline tests.
type MockPublisher struct {
	PublishCalled uint
	Published     []submission.Id
}

func (m *MockPublisher) Publish(ctx context.Context, accepted *submission.Submission) {
	m.PublishCalled++
	m.Published = append(m.Published, accepted.ID)
}
