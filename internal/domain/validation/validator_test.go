package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/submitd/submitd/internal/domain/submission"
)

var defaultTerms = []string{"spam", "fraud", "malicious"}

func TestValidator_Check_ok(t *testing.T) {
	v := New(defaultTerms)
	err := v.Check(&submission.NewSubmission{
		ID:   "id-1",
		User: "alice",
		Data: "a perfectly fine payload",
	})
	assert.NoError(t, err)
}

func TestValidator_Check_missingFields(t *testing.T) {
	v := New(defaultTerms)
	tests := []struct {
		name          string
		newSubmission submission.NewSubmission
		wantFields    []string
	}{
		{
			name:          "missing id",
			newSubmission: submission.NewSubmission{User: "alice", Data: "data"},
			wantFields:    []string{"id"},
		},
		{
			name:          "missing user",
			newSubmission: submission.NewSubmission{ID: "id-1", Data: "data"},
			wantFields:    []string{"user"},
		},
		{
			name:          "missing data",
			newSubmission: submission.NewSubmission{ID: "id-1", User: "alice"},
			wantFields:    []string{"data"},
		},
		{
			name:          "missing everything",
			newSubmission: submission.NewSubmission{},
			wantFields:    []string{"id", "user", "data"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Check(&tt.newSubmission)
			if assert.Error(t, err) {
				missing, ok := err.(MissingField)
				if assert.True(t, ok, "expected MissingField, got %T", err) {
					assert.EqualValues(t, tt.wantFields, missing.Fields)
				}
			}
		})
	}
}

func TestValidator_Check_prohibitedContent(t *testing.T) {
	v := New(defaultTerms)
	tests := []struct {
		name string
		data submission.Data
	}{
		{name: "lowercase term", data: "this is spam content"},
		{name: "uppercase term", data: "FRAUD alert"},
		{name: "mixed case term", data: "possibly MaLiCiOuS stuff"},
		{name: "term embedded in word", data: "spammy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Check(&submission.NewSubmission{ID: "id-1", User: "alice", Data: tt.data})
			if assert.Error(t, err) {
				_, ok := err.(ProhibitedContent)
				assert.True(t, ok, "expected ProhibitedContent, got %T", err)
			}
		})
	}
}

func TestValidator_Check_missingFieldWinsOverContent(t *testing.T) {
	// structural check runs first, so a spammy payload with a missing user
	// is reported as a missing field
	v := New(defaultTerms)
	err := v.Check(&submission.NewSubmission{ID: "id-1", Data: "spam"})
	_, ok := err.(MissingField)
	assert.True(t, ok, "expected MissingField, got %T", err)
}

func TestProhibitedContent_Error(t *testing.T) {
	e := ProhibitedContent{ID: "x", Term: "spam"}
	assert.Equal(t, "Submission contains prohibited content", e.Error())
}

func TestMissingField_Error(t *testing.T) {
	e := MissingField{ID: "x", Fields: []string{"id", "data"}}
	assert.Equal(t, "Missing required fields [id data]", e.Error())
}
