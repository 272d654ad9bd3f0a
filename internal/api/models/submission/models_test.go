package submission

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	domainSubmission "github.com/submitd/submitd/internal/domain/submission"
)

var submittedAt = time.Date(2021, 3, 1, 12, 0, 0, 0, time.UTC)

func TestNewSubmission_ToDomainNewSubmission(t *testing.T) {
	api := NewSubmission{
		ID:   "sub-1",
		Data: "hello",
		User: "alice",
	}
	domain := api.ToDomainNewSubmission()
	assert.EqualValues(t, api.ID, domain.ID)
	assert.EqualValues(t, api.Data, domain.Data)
	assert.EqualValues(t, api.User, domain.User)
}

func TestFromDomainSubmission(t *testing.T) {
	domain := domainSubmission.Submission{
		ID:   "sub-1",
		User: "alice",
		Data: "hello",
		Metadata: domainSubmission.Metadata{
			SubmittedAt: domainSubmission.SubmittedAt(submittedAt),
			Source:      "curl/7.68.0",
			ProcessedBy: "submitd",
		},
	}
	api := FromDomainSubmission(&domain)
	assert.EqualValues(t, domain.ID, api.ID)
	assert.EqualValues(t, domain.User, api.User)
	assert.EqualValues(t, domain.Data, api.Data)
	assert.True(t, api.Metadata.SubmissionTime.Equal(submittedAt))
	assert.EqualValues(t, domain.Metadata.Source, api.Metadata.SubmissionSource)
	assert.EqualValues(t, domain.Metadata.ProcessedBy, api.Metadata.ProcessedBy)
}
