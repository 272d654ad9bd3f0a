package ingestion

import (
	"context"

	"github.com/submitd/submitd/internal/domain/submission"
)

var MockAcceptedSubmission = submission.Submission{
	ID:   "mock",
	User: "mock-user",
	Data: "mock data",
}

type MockProcessor struct {
	ProcessSingleCalled   uint
	ProcessSingleOverride func(newSubmission *submission.NewSubmission, source submission.Source) (*submission.Submission, error)
	ProcessBatchCalled    uint
	ProcessBatchOverride  func(newSubmissions []submission.NewSubmission, source submission.Source) (*BatchResult, error)
}

func (m *MockProcessor) ProcessSingle(ctx context.Context, newSubmission *submission.NewSubmission, source submission.Source) (*submission.Submission, error) {
	m.ProcessSingleCalled++
	if m.ProcessSingleOverride != nil {
		return m.ProcessSingleOverride(newSubmission, source)
	} else {
		return &MockAcceptedSubmission, nil
	}
}

func (m *MockProcessor) ProcessBatch(ctx context.Context, newSubmissions []submission.NewSubmission, source submission.Source) (*BatchResult, error) {
	m.ProcessBatchCalled++
	if m.ProcessBatchOverride != nil {
		return m.ProcessBatchOverride(newSubmissions, source)
	} else {
		accepted := make([]submission.Submission, 0, len(newSubmissions))
		for _, s := range newSubmissions {
			accepted = append(accepted, submission.Submission{ID: s.ID, User: s.User, Data: s.Data})
		}
		return &BatchResult{Accepted: accepted}, nil
	}
}
