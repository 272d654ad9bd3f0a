package ratelimit

import (
	"context"
	"time"

	"github.com/submitd/submitd/internal/domain/submission"
)

type MockLimiter struct {
	AdmitCalled   uint
	AdmitOverride func(user submission.UserId, now time.Time) error
}

func (m *MockLimiter) Admit(ctx context.Context, user submission.UserId, now time.Time) error {
	m.AdmitCalled++
	if m.AdmitOverride != nil {
		return m.AdmitOverride(user, now)
	} else {
		return nil
	}
}

// MockWindowStore is an in-memory WindowStore with real conditional-write
// behaviour, for exercising the limiter without a live store.
type MockWindowStore struct {
	Windows map[submission.UserId]Window

	GetCalled       uint
	ReplaceIfCalled uint
	// ReplaceIfHook runs before each conditional write; returning a non-nil
	// error short-circuits the write (e.g. to inject Conflict).
	ReplaceIfHook func(user submission.UserId, prev Window, next Window) error
}

func NewMockWindowStore() *MockWindowStore {
	return &MockWindowStore{Windows: make(map[submission.UserId]Window)}
}

func (m *MockWindowStore) Get(ctx context.Context, user submission.UserId) (Window, error) {
	m.GetCalled++
	if w, ok := m.Windows[user]; ok {
		return w, nil
	}
	return Window{User: user}, nil
}

func (m *MockWindowStore) ReplaceIf(ctx context.Context, user submission.UserId, prev Window, next Window) error {
	m.ReplaceIfCalled++
	if m.ReplaceIfHook != nil {
		if err := m.ReplaceIfHook(user, prev, next); err != nil {
			return err
		}
	}
	stored := m.Windows[user]
	if !sameTimestamps(stored.Timestamps, prev.Timestamps) {
		return Conflict{User: user}
	}
	m.Windows[user] = next
	return nil
}

func sameTimestamps(a []time.Time, b []time.Time) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
