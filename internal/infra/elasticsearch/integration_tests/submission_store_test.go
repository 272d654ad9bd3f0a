// +build integration

package integration_tests

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/submitd/submitd/internal/config"
	"github.com/submitd/submitd/internal/domain/submission"
	esSubmission "github.com/submitd/submitd/internal/infra/elasticsearch/submission"
)

var ctx = context.Background()

func buildSubmissionStore() submission.Store {
	return esSubmission.NewStore(
		esClient,
		config.Submissions{Index: "integration_submissions"},
		config.IngestionDefaults{ListMaxSize: 100},
	)
}

func buildStoredSubmission(id string) submission.Submission {
	return submission.Submission{
		ID:   submission.Id(id),
		User: "alice",
		Data: "payload for " + id,
		Metadata: submission.Metadata{
			SubmittedAt: submission.SubmittedAt(time.Now().UTC()),
			Source:      "integration-test",
			ProcessedBy: "submitd-test",
		},
	}
}

func Test_esSubmissionStore_CreateThenGet(t *testing.T) {
	store := buildSubmissionStore()
	toStore := buildStoredSubmission("create-then-get")

	assert.NoError(t, store.Create(ctx, &toStore))

	retrieved, err := store.Get(ctx, toStore.ID)
	assert.NoError(t, err)
	if assert.NotNil(t, retrieved) {
		assert.EqualValues(t, toStore.ID, retrieved.ID)
		assert.EqualValues(t, toStore.User, retrieved.User)
		assert.EqualValues(t, toStore.Data, retrieved.Data)
		assert.EqualValues(t, toStore.Metadata.ProcessedBy, retrieved.Metadata.ProcessedBy)
	}
}

func Test_esSubmissionStore_Create_duplicateId(t *testing.T) {
	store := buildSubmissionStore()
	toStore := buildStoredSubmission("duplicate-id")

	assert.NoError(t, store.Create(ctx, &toStore))

	err := store.Create(ctx, &toStore)
	if assert.Error(t, err) {
		_, isDup := err.(submission.AlreadyExists)
		assert.True(t, isDup, "expected AlreadyExists, got %T", err)
	}
}

func Test_esSubmissionStore_Exists(t *testing.T) {
	store := buildSubmissionStore()
	toStore := buildStoredSubmission("exists-probe")

	exists, err := store.Exists(ctx, toStore.ID)
	assert.NoError(t, err)
	assert.False(t, exists)

	assert.NoError(t, store.Create(ctx, &toStore))

	exists, err = store.Exists(ctx, toStore.ID)
	assert.NoError(t, err)
	assert.True(t, exists)
}

func Test_esSubmissionStore_Get_notFound(t *testing.T) {
	store := buildSubmissionStore()
	_, err := store.Get(ctx, "never-stored")
	if assert.Error(t, err) {
		_, isNotFound := err.(submission.NotFound)
		assert.True(t, isNotFound, "expected NotFound, got %T", err)
	}
}

func Test_esSubmissionStore_CreateBatch_perItemOutcomes(t *testing.T) {
	store := buildSubmissionStore()
	existing := buildStoredSubmission("batch-existing")
	assert.NoError(t, store.Create(ctx, &existing))

	batch := []submission.Submission{
		buildStoredSubmission("batch-1"),
		existing,
		buildStoredSubmission("batch-2"),
	}
	entries, err := store.CreateBatch(ctx, batch)
	assert.NoError(t, err)
	if assert.Len(t, entries, 3) {
		assert.NoError(t, entries[0].Err)
		if assert.Error(t, entries[1].Err) {
			_, isDup := entries[1].Err.(submission.AlreadyExists)
			assert.True(t, isDup)
		}
		assert.NoError(t, entries[2].Err)
	}
}
