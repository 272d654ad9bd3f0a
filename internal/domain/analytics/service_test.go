package analytics

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/submitd/submitd/internal/domain/fanout"
)

var ctx = context.Background()

type mockStore struct {
	SaveCalled   uint
	SaveOverride func(record Record) error
	Saved        []Record
}

func (m *mockStore) Save(ctx context.Context, record Record) error {
	m.SaveCalled++
	if m.SaveOverride != nil {
		return m.SaveOverride(record)
	}
	m.Saved = append(m.Saved, record)
	return nil
}

func TestService_Process(t *testing.T) {
	store := &mockStore{}
	service := NewService(store)
	processedAt := time.Date(2021, 3, 1, 12, 0, 0, 0, time.UTC)
	service.SetUTCGetter(func() time.Time { return processedAt })

	err := service.Process(ctx, fanout.WorkMessage{
		SubmissionID: "sub-1",
		User:         "alice",
		Data:         "hello",
	})

	assert.NoError(t, err)
	if assert.Len(t, store.Saved, 1) {
		record := store.Saved[0]
		assert.EqualValues(t, "sub-1", record.SubmissionID)
		assert.EqualValues(t, "alice", record.User)
		assert.EqualValues(t, "hello", record.Data)
		assert.True(t, record.ProcessedAt.Equal(processedAt))
	}
}

func TestService_Process_surfacesStoreErrors(t *testing.T) {
	store := &mockStore{
		SaveOverride: func(record Record) error {
			return fmt.Errorf("index unavailable")
		},
	}
	service := NewService(store)

	err := service.Process(ctx, fanout.WorkMessage{SubmissionID: "sub-1"})
	assert.Error(t, err)
}
