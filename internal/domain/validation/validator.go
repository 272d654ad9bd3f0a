// validation holds the content validator: pure, side-effect free admission
// checks on a single submission (structural completeness + a configured
// denylist of prohibited terms).
package validation

import (
	"fmt"
	"strings"

	"gopkg.in/go-playground/validator.v9"

	"github.com/submitd/submitd/internal/domain/submission"
)

type Validator struct {
	structural *validator.Validate
	// lowercased at construction; matching is case-insensitive
	prohibitedTerms []string
}

// New returns a Validator with the given denylist. Terms are matched as
// case-insensitive substrings of the payload.
func New(prohibitedTerms []string) Validator {
	lowered := make([]string, 0, len(prohibitedTerms))
	for _, term := range prohibitedTerms {
		lowered = append(lowered, strings.ToLower(term))
	}
	return Validator{
		structural:      validator.New(),
		prohibitedTerms: lowered,
	}
}

// Check runs the structural and content checks on the given NewSubmission,
// returning MissingField or ProhibitedContent on rejection. No I/O.
func (v Validator) Check(newSubmission *submission.NewSubmission) error {
	if err := v.structural.Struct(newSubmission); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok {
			fields := make([]string, 0, len(fieldErrs))
			for _, fieldErr := range fieldErrs {
				fields = append(fields, strings.ToLower(fieldErr.Field()))
			}
			return MissingField{ID: newSubmission.ID, Fields: fields}
		}
		return err
	}

	loweredData := strings.ToLower(string(newSubmission.Data))
	for _, term := range v.prohibitedTerms {
		if strings.Contains(loweredData, term) {
			return ProhibitedContent{ID: newSubmission.ID, Term: term}
		}
	}
	return nil
}

// <-- Domain Errors

// MissingField is returned when one or more required submission fields are
// absent
type MissingField struct {
	ID     submission.Id
	Fields []string
}

func (e MissingField) Error() string {
	return fmt.Sprintf("Missing required fields %v", e.Fields)
}

func (e MissingField) Id() submission.Id {
	return e.ID
}

// ProhibitedContent is returned when the payload contains a denylisted term
type ProhibitedContent struct {
	ID   submission.Id
	Term string
}

func (e ProhibitedContent) Error() string {
	return "Submission contains prohibited content"
}

func (e ProhibitedContent) Id() submission.Id {
	return e.ID
}

//     Errors -->
