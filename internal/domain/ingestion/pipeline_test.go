package ingestion

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/submitd/submitd/internal/domain/fanout"
	"github.com/submitd/submitd/internal/domain/ratelimit"
	"github.com/submitd/submitd/internal/domain/submission"
	"github.com/submitd/submitd/internal/domain/validation"
)

var ctx = context.Background()

var frozenNow = time.Date(2021, 3, 1, 12, 0, 0, 0, time.UTC)

var testSource = submission.Source("test-agent/1.0")

type pipelineFixture struct {
	pipeline  *Pipeline
	store     *submission.MockStore
	limiter   *ratelimit.MockLimiter
	publisher *fanout.MockPublisher
}

func newFixture() *pipelineFixture {
	store := &submission.MockStore{}
	limiter := &ratelimit.MockLimiter{}
	publisher := &fanout.MockPublisher{}
	pipeline := New(
		validation.New([]string{"spam", "fraud", "malicious"}),
		limiter,
		store,
		publisher,
		"submitd@test",
	)
	pipeline.SetUTCGetter(func() time.Time { return frozenNow })
	return &pipelineFixture{pipeline: pipeline, store: store, limiter: limiter, publisher: publisher}
}

func newSub(id string) submission.NewSubmission {
	return submission.NewSubmission{
		ID:   submission.Id(id),
		User: "alice",
		Data: "payload for " + id,
	}
}

func TestPipeline_ProcessSingle_accepted(t *testing.T) {
	f := newFixture()
	in := newSub("sub-1")

	accepted, err := f.pipeline.ProcessSingle(ctx, &in, testSource)

	assert.NoError(t, err)
	if assert.NotNil(t, accepted) {
		assert.EqualValues(t, "sub-1", accepted.ID)
		assert.EqualValues(t, testSource, accepted.Metadata.Source)
		assert.EqualValues(t, "submitd@test", accepted.Metadata.ProcessedBy)
		assert.True(t, time.Time(accepted.Metadata.SubmittedAt).Equal(frozenNow))
	}
	assert.EqualValues(t, 1, f.store.CreateCalled)
	assert.EqualValues(t, 1, f.publisher.PublishCalled)
}

func TestPipeline_ProcessSingle_validationRejectionTouchesNothing(t *testing.T) {
	f := newFixture()
	in := submission.NewSubmission{User: "alice", Data: "data"} // no id

	_, err := f.pipeline.ProcessSingle(ctx, &in, testSource)

	_, isMissing := err.(validation.MissingField)
	assert.True(t, isMissing, "expected MissingField, got %T", err)
	// neither the record store nor the rate window saw anything
	assert.EqualValues(t, 0, f.limiter.AdmitCalled)
	assert.EqualValues(t, 0, f.store.ExistsCalled)
	assert.EqualValues(t, 0, f.store.CreateCalled)
	assert.EqualValues(t, 0, f.publisher.PublishCalled)
}

func TestPipeline_ProcessSingle_prohibitedContentTouchesNothing(t *testing.T) {
	f := newFixture()
	in := submission.NewSubmission{ID: "sub-1", User: "alice", Data: "buy my SPAM"}

	_, err := f.pipeline.ProcessSingle(ctx, &in, testSource)

	_, isProhibited := err.(validation.ProhibitedContent)
	assert.True(t, isProhibited, "expected ProhibitedContent, got %T", err)
	assert.EqualValues(t, 0, f.limiter.AdmitCalled)
	assert.EqualValues(t, 0, f.store.CreateCalled)
}

func TestPipeline_ProcessSingle_rateLimited(t *testing.T) {
	f := newFixture()
	f.limiter.AdmitOverride = func(user submission.UserId, now time.Time) error {
		return ratelimit.QuotaExceeded{User: user, Quota: 3, Window: time.Minute}
	}
	in := newSub("sub-1")

	_, err := f.pipeline.ProcessSingle(ctx, &in, testSource)

	_, isQuota := err.(ratelimit.QuotaExceeded)
	assert.True(t, isQuota, "expected QuotaExceeded, got %T", err)
	// the duplicate probe and store are never consulted for a rate-limited record
	assert.EqualValues(t, 0, f.store.ExistsCalled)
	assert.EqualValues(t, 0, f.store.CreateCalled)
	assert.EqualValues(t, 0, f.publisher.PublishCalled)
}

func TestPipeline_ProcessSingle_duplicateViaProbe(t *testing.T) {
	f := newFixture()
	f.store.ExistsOverride = func(id submission.Id) (bool, error) { return true, nil }
	in := newSub("sub-1")

	_, err := f.pipeline.ProcessSingle(ctx, &in, testSource)

	_, isDup := err.(submission.AlreadyExists)
	assert.True(t, isDup, "expected AlreadyExists, got %T", err)
	assert.EqualValues(t, 0, f.store.CreateCalled)
	assert.EqualValues(t, 0, f.publisher.PublishCalled)
}

func TestPipeline_ProcessSingle_duplicateViaConditionalCreate(t *testing.T) {
	// the probe misses but the create-only write loses a race: still a
	// duplicate, never a fan-out
	f := newFixture()
	f.store.CreateOverride = func(s *submission.Submission) error {
		return submission.AlreadyExists{ID: s.ID}
	}
	in := newSub("sub-1")

	_, err := f.pipeline.ProcessSingle(ctx, &in, testSource)

	_, isDup := err.(submission.AlreadyExists)
	assert.True(t, isDup)
	assert.EqualValues(t, 0, f.publisher.PublishCalled)
}

func TestPipeline_ProcessSingle_infraErrorIsNotARejection(t *testing.T) {
	f := newFixture()
	f.store.ExistsOverride = func(id submission.Id) (bool, error) {
		return false, fmt.Errorf("store timeout")
	}
	in := newSub("sub-1")

	_, err := f.pipeline.ProcessSingle(ctx, &in, testSource)

	assert.Error(t, err)
	_, isRejection := ReasonFor(err)
	assert.False(t, isRejection)
}

func TestPipeline_ProcessBatch_partialSuccess(t *testing.T) {
	// batch of 5: record 2 is missing a field, record 4 repeats a persisted
	// id. Exactly 2 errors, exactly 3 persisted and fanned out.
	f := newFixture()
	f.store.ExistsOverride = func(id submission.Id) (bool, error) {
		return id == "sub-4", nil
	}
	batch := []submission.NewSubmission{
		newSub("sub-1"),
		{User: "alice"}, // missing id and data
		newSub("sub-3"),
		newSub("sub-4"),
		newSub("sub-5"),
	}

	result, err := f.pipeline.ProcessBatch(ctx, batch, testSource)

	assert.NoError(t, err)
	if assert.Len(t, result.Errors, 2) {
		assert.EqualValues(t, ReasonMissingField, result.Errors[0].Reason)
		assert.EqualValues(t, ReasonDuplicateId, result.Errors[1].Reason)
		assert.EqualValues(t, "sub-4", result.Errors[1].ID)
	}
	if assert.Len(t, result.Accepted, 3) {
		assert.EqualValues(t, "sub-1", result.Accepted[0].ID)
		assert.EqualValues(t, "sub-3", result.Accepted[1].ID)
		assert.EqualValues(t, "sub-5", result.Accepted[2].ID)
	}
	assert.EqualValues(t, 1, f.store.CreateBatchCalled)
	assert.EqualValues(t, 3, f.publisher.PublishCalled)
}

func TestPipeline_ProcessBatch_noEarlyTermination(t *testing.T) {
	f := newFixture()
	batch := []submission.NewSubmission{
		{}, // invalid
		newSub("sub-2"),
	}

	result, err := f.pipeline.ProcessBatch(ctx, batch, testSource)

	assert.NoError(t, err)
	assert.Len(t, result.Errors, 1)
	assert.Len(t, result.Accepted, 1)
}

func TestPipeline_ProcessBatch_allRejectedSkipsBatchWrite(t *testing.T) {
	f := newFixture()
	batch := []submission.NewSubmission{{}, {}}

	result, err := f.pipeline.ProcessBatch(ctx, batch, testSource)

	assert.NoError(t, err)
	assert.Len(t, result.Errors, 2)
	assert.Empty(t, result.Accepted)
	assert.EqualValues(t, 0, f.store.CreateBatchCalled)
	assert.EqualValues(t, 0, f.publisher.PublishCalled)
}

func TestPipeline_ProcessBatch_storeItemRejectionsSurface(t *testing.T) {
	// the store may reject individual items inside the batch write; those
	// must show up in the errors list, not vanish
	f := newFixture()
	f.store.CreateBatchOverride = func(submissions []submission.Submission) ([]submission.BatchEntry, error) {
		entries := make([]submission.BatchEntry, 0, len(submissions))
		for i, s := range submissions {
			entry := submission.BatchEntry{ID: s.ID}
			if i == 1 {
				entry.Err = submission.AlreadyExists{ID: s.ID}
			}
			entries = append(entries, entry)
		}
		return entries, nil
	}
	batch := []submission.NewSubmission{newSub("sub-1"), newSub("sub-2"), newSub("sub-3")}

	result, err := f.pipeline.ProcessBatch(ctx, batch, testSource)

	assert.NoError(t, err)
	if assert.Len(t, result.Errors, 1) {
		assert.EqualValues(t, "sub-2", result.Errors[0].ID)
		assert.EqualValues(t, ReasonDuplicateId, result.Errors[0].Reason)
	}
	assert.Len(t, result.Accepted, 2)
	// fan-out only for records the store acked
	assert.EqualValues(t, 2, f.publisher.PublishCalled)
	assert.EqualValues(t, []submission.Id{"sub-1", "sub-3"}, f.publisher.Published)
}

func TestPipeline_ProcessBatch_sharedWriteFailureStopsBatch(t *testing.T) {
	f := newFixture()
	f.store.CreateBatchOverride = func(submissions []submission.Submission) ([]submission.BatchEntry, error) {
		return nil, fmt.Errorf("store unavailable")
	}
	batch := []submission.NewSubmission{newSub("sub-1")}

	_, err := f.pipeline.ProcessBatch(ctx, batch, testSource)

	assert.Error(t, err)
	assert.EqualValues(t, 0, f.publisher.PublishCalled)
}

func TestPipeline_ProcessBatch_ordersPreserved(t *testing.T) {
	f := newFixture()
	batch := []submission.NewSubmission{newSub("c"), newSub("a"), newSub("b")}

	result, err := f.pipeline.ProcessBatch(ctx, batch, testSource)

	assert.NoError(t, err)
	ids := make([]submission.Id, 0, len(result.Accepted))
	for _, s := range result.Accepted {
		ids = append(ids, s.ID)
	}
	assert.EqualValues(t, []submission.Id{"c", "a", "b"}, ids)
}

func TestReasonFor(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantReason    Reason
		wantRejection bool
	}{
		{"missing field", validation.MissingField{}, ReasonMissingField, true},
		{"prohibited content", validation.ProhibitedContent{}, ReasonProhibitedContent, true},
		{"rate limited", ratelimit.QuotaExceeded{}, ReasonRateLimitExceeded, true},
		{"duplicate", submission.AlreadyExists{}, ReasonDuplicateId, true},
		{"random error", fmt.Errorf("boom"), Reason(""), false},
		{"conflict retries exceeded is infra", ratelimit.ConflictRetriesExceeded{}, Reason(""), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reason, isRejection := ReasonFor(tt.err)
			assert.EqualValues(t, tt.wantReason, reason)
			assert.EqualValues(t, tt.wantRejection, isRejection)
		})
	}
}
