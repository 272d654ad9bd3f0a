package submission

import (
	"context"
	"fmt"
)

// A Store that takes care of the persistence of Submissions.
type Store interface {
	// Create persists the given Submission if and only if no Submission with
	// the same Id exists yet. Returns AlreadyExists otherwise; the conditional
	// write is what makes duplicate detection race-free.
	Create(ctx context.Context, submission *Submission) error

	// CreateBatch persists the given Submissions in one store round trip,
	// create-only per item. The returned entries are in the same order as the
	// input; per-item failures are reported, never silently dropped.
	CreateBatch(ctx context.Context, submissions []Submission) ([]BatchEntry, error)

	// Exists probes for a persisted Submission by Id. Always a live check
	// against the store, never cached.
	Exists(ctx context.Context, id Id) (bool, error)

	// Get retrieves a Submission by Id, returning NotFound if there is no
	// such Submission.
	Get(ctx context.Context, id Id) (*Submission, error)

	// List returns persisted Submissions, up to the store's configured cap.
	List(ctx context.Context) ([]Submission, error)
}

// BatchEntry is the per-item outcome of a CreateBatch call.
type BatchEntry struct {
	ID Id
	// Err is nil if the item was persisted. Otherwise it holds the store's
	// rejection for this item (e.g. AlreadyExists).
	Err error
}

// <-- Domain Errors

// StoreErr is an error interface for Store
type StoreErr interface {
	error
	Id() Id
}

// NotFound is returned when the store has no Submission with the given Id
type NotFound struct {
	ID Id
}

func (e NotFound) Error() string {
	return fmt.Sprintf("No submission found with id [%v]", e.ID)
}

func (e NotFound) Id() Id {
	return e.ID
}

// AlreadyExists is returned when a create hits a Submission that was
// persisted earlier under the same Id
type AlreadyExists struct {
	ID Id
}

func (e AlreadyExists) Error() string {
	return fmt.Sprintf("Submission with id [%v] already exists", e.ID)
}

func (e AlreadyExists) Id() Id {
	return e.ID
}

// InvalidPersistedData is returned when stored data cannot be read back as a
// Submission
type InvalidPersistedData struct {
	PersistedData interface{}
}

func (e InvalidPersistedData) Error() string {
	return fmt.Sprintf("Invalid persisted data [%v]", e.PersistedData)
}

//     Errors -->
