// analytics consumes accepted-submission work messages and stores derived
// analytics records for downstream reporting.
package analytics

import (
	"context"
	"time"

	"github.com/submitd/submitd/internal/domain/fanout"
	"github.com/submitd/submitd/internal/domain/submission"
)

// Record is what gets stored per processed submission.
type Record struct {
	SubmissionID submission.Id
	User         submission.UserId
	Data         submission.Data
	ProcessedAt  time.Time
}

// Store persists analytics Records, keyed by submission id so that redelivery
// of the same work message is idempotent.
type Store interface {
	Save(ctx context.Context, record Record) error
}

type Service struct {
	store  Store
	getUTC func() time.Time
}

func NewService(store Store) *Service {
	return &Service{
		store: store,
		getUTC: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// For testing
func (s *Service) SetUTCGetter(getter func() time.Time) {
	s.getUTC = getter
}

// Process turns a work message into an analytics Record and stores it.
func (s *Service) Process(ctx context.Context, message fanout.WorkMessage) error {
	return s.store.Save(ctx, Record{
		SubmissionID: message.SubmissionID,
		User:         message.User,
		Data:         message.Data,
		ProcessedAt:  s.getUTC(),
	})
}
