package fanout

import (
	"fmt"
	"time"

	"github.com/submitd/submitd/internal/domain/submission"
)

// SinkName identifies one of the downstream sinks an accepted submission is
// fanned out to.
type SinkName string

const (
	SinkEvents  SinkName = "events"
	SinkQueue   SinkName = "queue"
	SinkNotices SinkName = "notices"
)

// Event describes an accepted submission on the event bus.
type Event struct {
	ID           string            `json:"id"`
	Source       string            `json:"source"`
	Type         string            `json:"type"`
	SubmissionID submission.Id     `json:"submission_id"`
	User         submission.UserId `json:"user_id"`
	Timestamp    time.Time         `json:"timestamp"`
}

// WorkMessage carries the full submission payload to the work queue for
// downstream async processing.
type WorkMessage struct {
	SubmissionID submission.Id     `json:"submission_id"`
	User         submission.UserId `json:"user_id"`
	Data         submission.Data   `json:"submission_data"`
}

// Notice is the optional human-readable notification.
type Notice struct {
	SubmissionID submission.Id     `json:"submission_id"`
	User         submission.UserId `json:"user_id"`
	Message      string            `json:"message"`
}

// DeadLetter records a fan-out send that failed after the submission was
// already durably persisted. It carries everything needed to retry the failed
// sinks out-of-band.
type DeadLetter struct {
	ID           string
	SubmissionID submission.Id
	User         submission.UserId
	Data         submission.Data
	FailedSinks  []SinkName
	RecordedAt   time.Time
}

// SinkErr wraps a send failure with the sink it came from.
type SinkErr struct {
	Sink       SinkName
	Underlying error
}

func (e SinkErr) Error() string {
	return fmt.Sprintf("Send to sink [%v] failed: %v", e.Sink, e.Underlying)
}

func (e SinkErr) Unwrap() error {
	return e.Underlying
}
