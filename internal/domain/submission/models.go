package submission

import "time"

// Id of a Submission. Caller-supplied and globally unique by contract; the
// store enforces uniqueness with a create-only write.
type Id string

// UserId identifies the submitting user.
type UserId string

// Data is the free-text payload of a Submission.
type Data string

type SubmittedAt time.Time

// Source records where a submission came in from (e.g. the User-Agent of the
// original request).
type Source string

// ProcessedBy identifies the processor instance that accepted the submission.
type ProcessedBy string

// Metadata is system-generated at acceptance time and immutable once set.
type Metadata struct {
	SubmittedAt SubmittedAt
	Source      Source
	ProcessedBy ProcessedBy
}

// A Submission as sent in by a caller, before admission.
//
// The validate tags are checked by the content validator; they are
// deliberately not enforced at the HTTP binding layer because bulk requests
// need per-record rejection rather than whole-request rejection.
type NewSubmission struct {
	ID   Id     `validate:"required"`
	User UserId `validate:"required"`
	Data Data   `validate:"required"`
}

// A Submission that has been accepted and persisted. Immutable; there is no
// update path.
type Submission struct {
	ID       Id
	User     UserId
	Data     Data
	Metadata Metadata
}
