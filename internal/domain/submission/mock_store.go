package submission

import "context"

var MockDomainSubmission = Submission{
	ID:   "mock",
	User: "mock-user",
	Data: "mock data",
}

type MockStore struct {
	CreateCalled        uint
	CreateOverride      func(submission *Submission) error
	CreateBatchCalled   uint
	CreateBatchOverride func(submissions []Submission) ([]BatchEntry, error)
	ExistsCalled        uint
	ExistsOverride      func(id Id) (bool, error)
	GetCalled           uint
	GetOverride         func(id Id) (*Submission, error)
	ListCalled          uint
	ListOverride        func() ([]Submission, error)
}

func (m *MockStore) Create(ctx context.Context, submission *Submission) error {
	m.CreateCalled++
	if m.CreateOverride != nil {
		return m.CreateOverride(submission)
	} else {
		return nil
	}
}

func (m *MockStore) CreateBatch(ctx context.Context, submissions []Submission) ([]BatchEntry, error) {
	m.CreateBatchCalled++
	if m.CreateBatchOverride != nil {
		return m.CreateBatchOverride(submissions)
	} else {
		entries := make([]BatchEntry, 0, len(submissions))
		for _, s := range submissions {
			entries = append(entries, BatchEntry{ID: s.ID})
		}
		return entries, nil
	}
}

func (m *MockStore) Exists(ctx context.Context, id Id) (bool, error) {
	m.ExistsCalled++
	if m.ExistsOverride != nil {
		return m.ExistsOverride(id)
	} else {
		return false, nil
	}
}

func (m *MockStore) Get(ctx context.Context, id Id) (*Submission, error) {
	m.GetCalled++
	if m.GetOverride != nil {
		return m.GetOverride(id)
	} else {
		return &MockDomainSubmission, nil
	}
}

func (m *MockStore) List(ctx context.Context) ([]Submission, error) {
	m.ListCalled++
	if m.ListOverride != nil {
		return m.ListOverride()
	} else {
		return []Submission{MockDomainSubmission}, nil
	}
}
