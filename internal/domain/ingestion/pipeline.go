// ingestion holds the pipeline that admission-checks, persists and fans out
// submissions. The pipeline itself is stateless; all durable state lives
// behind the injected store and limiter.
package ingestion

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/submitd/submitd/internal/domain/fanout"
	"github.com/submitd/submitd/internal/domain/ratelimit"
	"github.com/submitd/submitd/internal/domain/submission"
	"github.com/submitd/submitd/internal/domain/validation"
)

// Processor is the ingestion entry point used by the API layer.
type Processor interface {
	// ProcessSingle runs one submission through admission, persistence and
	// fan-out. Admission rejections come back as typed domain errors.
	ProcessSingle(ctx context.Context, newSubmission *submission.NewSubmission, source submission.Source) (*submission.Submission, error)

	// ProcessBatch does the same for a batch, with per-record outcomes.
	ProcessBatch(ctx context.Context, newSubmissions []submission.NewSubmission, source submission.Source) (*BatchResult, error)
}

type Pipeline struct {
	validator   validation.Validator
	limiter     ratelimit.Limiter
	store       submission.Store
	publisher   fanout.Publisher
	processedBy submission.ProcessedBy
	getUTC      func() time.Time
}

func New(
	validator validation.Validator,
	limiter ratelimit.Limiter,
	store submission.Store,
	publisher fanout.Publisher,
	processedBy submission.ProcessedBy,
) *Pipeline {
	return &Pipeline{
		validator:   validator,
		limiter:     limiter,
		store:       store,
		publisher:   publisher,
		processedBy: processedBy,
		getUTC: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// For testing
func (p *Pipeline) SetUTCGetter(getter func() time.Time) {
	p.getUTC = getter
}

// ProcessSingle runs one submission through validate -> rate-limit ->
// duplicate-check, persists it, and fans it out.
//
// Admission rejections come back as the typed errors of the validation,
// ratelimit and submission packages; anything else is an infrastructure
// failure. Persistence completes before any fan-out send is attempted, and a
// fan-out failure never fails the call: the record is already durably stored
// at that point.
func (p *Pipeline) ProcessSingle(ctx context.Context, newSubmission *submission.NewSubmission, source submission.Source) (*submission.Submission, error) {
	now := p.getUTC()
	if err := p.admit(ctx, newSubmission, now); err != nil {
		return nil, err
	}
	accepted := p.buildSubmission(newSubmission, source, now)
	if err := p.store.Create(ctx, &accepted); err != nil {
		// the create-only write is the duplicate authority; a concurrent
		// writer that beat the Exists probe surfaces here as AlreadyExists
		return nil, err
	}
	p.publisher.Publish(ctx, &accepted)
	return &accepted, nil
}

// ProcessBatch runs every record independently through the same admission
// checks, persists the survivors in a single batch write, then fans out each
// successfully persisted record. Record-level failures never terminate the
// batch; the batch stops early only if the shared batch write itself fails.
func (p *Pipeline) ProcessBatch(ctx context.Context, newSubmissions []submission.NewSubmission, source submission.Source) (*BatchResult, error) {
	now := p.getUTC()
	var result BatchResult
	valid := make([]submission.Submission, 0, len(newSubmissions))
	for i := range newSubmissions {
		newSubmission := &newSubmissions[i]
		if err := p.admit(ctx, newSubmission, now); err != nil {
			if reason, isRejection := ReasonFor(err); isRejection {
				result.Errors = append(result.Errors, RecordError{
					ID:      newSubmission.ID,
					User:    newSubmission.User,
					Reason:  reason,
					Message: err.Error(),
				})
				continue
			}
			return nil, err
		}
		valid = append(valid, p.buildSubmission(newSubmission, source, now))
	}

	if len(valid) > 0 {
		entries, err := p.store.CreateBatch(ctx, valid)
		if err != nil {
			return nil, err
		}
		for i, entry := range entries {
			if entry.Err != nil {
				reason := ReasonStoreRejected
				if _, dup := entry.Err.(submission.AlreadyExists); dup {
					reason = ReasonDuplicateId
				}
				log.Warn().
					Str("submission_id", string(entry.ID)).
					Str("reason", string(reason)).
					Msg("Batch write rejected item")
				result.Errors = append(result.Errors, RecordError{
					ID:      entry.ID,
					User:    valid[i].User,
					Reason:  reason,
					Message: entry.Err.Error(),
				})
				continue
			}
			result.Accepted = append(result.Accepted, valid[i])
		}
	}

	// fan-out strictly after the batch write: only records the store acked
	for i := range result.Accepted {
		p.publisher.Publish(ctx, &result.Accepted[i])
	}
	return &result, nil
}

// admit runs the three admission checks in order. Validation and rate-limit
// failures leave the record store untouched; a rate-limit rejection also
// leaves the rate window untouched.
func (p *Pipeline) admit(ctx context.Context, newSubmission *submission.NewSubmission, now time.Time) error {
	if err := p.validator.Check(newSubmission); err != nil {
		return err
	}
	if err := p.limiter.Admit(ctx, newSubmission.User, now); err != nil {
		return err
	}
	exists, err := p.store.Exists(ctx, newSubmission.ID)
	if err != nil {
		return err
	}
	if exists {
		return submission.AlreadyExists{ID: newSubmission.ID}
	}
	return nil
}

func (p *Pipeline) buildSubmission(newSubmission *submission.NewSubmission, source submission.Source, now time.Time) submission.Submission {
	return submission.Submission{
		ID:   newSubmission.ID,
		User: newSubmission.User,
		Data: newSubmission.Data,
		Metadata: submission.Metadata{
			SubmittedAt: submission.SubmittedAt(now),
			Source:      source,
			ProcessedBy: p.processedBy,
		},
	}
}
