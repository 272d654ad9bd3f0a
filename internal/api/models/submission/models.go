// submission holds the API submission models. The request model deliberately
// carries no binding tags: field presence is the domain validator's call, so
// that bulk requests get per-record rejections instead of failing wholesale
// at bind time.
package submission

import (
	"time"

	"github.com/submitd/submitd/internal/domain/ingestion"
	domainSubmission "github.com/submitd/submitd/internal/domain/submission"
)

type NewSubmission struct {
	ID   domainSubmission.Id     `json:"id" swaggertype:"string" example:"sub-001"`
	Data domainSubmission.Data   `json:"data" swaggertype:"string" example:"sensor reading 42"`
	User domainSubmission.UserId `json:"user" swaggertype:"string" example:"user-123"`
}

type Metadata struct {
	SubmissionTime   time.Time                    `json:"submission_time" binding:"required" swaggertype:"string" format:"date-time"`
	SubmissionSource domainSubmission.Source      `json:"submission_source,omitempty" swaggertype:"string" example:"curl/7.68.0"`
	ProcessedBy      domainSubmission.ProcessedBy `json:"processed_by" binding:"required" swaggertype:"string" example:"submitd"`
}

type Submission struct {
	ID       domainSubmission.Id     `json:"id" binding:"required" swaggertype:"string" example:"sub-001"`
	Data     domainSubmission.Data   `json:"data" binding:"required" swaggertype:"string"`
	User     domainSubmission.UserId `json:"user" binding:"required" swaggertype:"string"`
	Metadata Metadata                `json:"metadata" binding:"required"`
}

// RecordError reports why a single record in a bulk request was rejected.
type RecordError struct {
	ID      domainSubmission.Id `json:"id,omitempty" swaggertype:"string" example:"sub-001"`
	Reason  ingestion.Reason    `json:"reason" binding:"required" swaggertype:"string" example:"duplicate_id"`
	Message string              `json:"message" binding:"required" example:"Submission with id [sub-001] already exists"`
}

type SubmitResponse struct {
	Message string              `json:"message" binding:"required" example:"Submission accepted"`
	ID      domainSubmission.Id `json:"id" binding:"required" swaggertype:"string" example:"sub-001"`
}

// BatchResponse reports a bulk outcome; Errors is only present when at least
// one record was rejected.
type BatchResponse struct {
	Message  string        `json:"message" binding:"required" example:"Processed 5 submissions (4 accepted, 1 rejected)"`
	Accepted uint          `json:"accepted"`
	Errors   []RecordError `json:"errors,omitempty"`
}

// Converts an API model to the domain model
func (n *NewSubmission) ToDomainNewSubmission() domainSubmission.NewSubmission {
	return domainSubmission.NewSubmission{
		ID:   n.ID,
		User: n.User,
		Data: n.Data,
	}
}

func FromDomainSubmission(d *domainSubmission.Submission) Submission {
	return Submission{
		ID:   d.ID,
		Data: d.Data,
		User: d.User,
		Metadata: Metadata{
			SubmissionTime:   time.Time(d.Metadata.SubmittedAt),
			SubmissionSource: d.Metadata.Source,
			ProcessedBy:      d.Metadata.ProcessedBy,
		},
	}
}

func FromDomainRecordError(e ingestion.RecordError) RecordError {
	return RecordError{
		ID:      e.ID,
		Reason:  e.Reason,
		Message: e.Message,
	}
}
