package ingestion

import (
	"github.com/submitd/submitd/internal/domain/ratelimit"
	"github.com/submitd/submitd/internal/domain/submission"
	"github.com/submitd/submitd/internal/domain/validation"
)

// Reason codes reported per rejected record.
type Reason string

const (
	ReasonMissingField      Reason = "missing_field"
	ReasonProhibitedContent Reason = "prohibited_content"
	ReasonRateLimitExceeded Reason = "rate_limit_exceeded"
	ReasonDuplicateId       Reason = "duplicate_id"
	// ReasonStoreRejected covers per-item rejections surfaced by the batch
	// write itself, beyond the admission checks.
	ReasonStoreRejected Reason = "store_rejected"
)

// RecordError pairs a rejected record with why it was rejected.
type RecordError struct {
	ID      submission.Id
	User    submission.UserId
	Reason  Reason
	Message string
}

// BatchResult aggregates the per-record outcomes of a bulk request.
type BatchResult struct {
	// Accepted holds the records that were durably persisted, in input order.
	Accepted []submission.Submission
	// Errors holds one entry per rejected record, in input order. Empty when
	// everything was accepted.
	Errors []RecordError
}

// ReasonFor maps an admission rejection to its Reason code. Returns false
// for errors that are not admission rejections (infrastructure failures).
func ReasonFor(err error) (Reason, bool) {
	switch err.(type) {
	case validation.MissingField:
		return ReasonMissingField, true
	case validation.ProhibitedContent:
		return ReasonProhibitedContent, true
	case ratelimit.QuotaExceeded:
		return ReasonRateLimitExceeded, true
	case submission.AlreadyExists:
		return ReasonDuplicateId, true
	default:
		return "", false
	}
}
