package submission

import (
	"context"
	"fmt"
	"net/http"

	"github.com/submitd/submitd/internal/api/models/common"
	apiSubmission "github.com/submitd/submitd/internal/api/models/submission"
	"github.com/submitd/submitd/internal/domain/ingestion"
	"github.com/submitd/submitd/internal/domain/ratelimit"
	domainSubmission "github.com/submitd/submitd/internal/domain/submission"
	"github.com/submitd/submitd/internal/domain/validation"
)

// Controller is an interface that defines the methods that are available to the routing
// layer. It is framework-agnostic
type Controller interface {

	// Submit runs a single submission through the ingestion pipeline
	//
	// Never pass a nil here; it's a pointer because the struct isn't small
	Submit(ctx context.Context, newSubmission *apiSubmission.NewSubmission, source domainSubmission.Source) (*apiSubmission.SubmitResponse, *common.ApiError)

	// SubmitBatch runs a batch of submissions through the ingestion pipeline,
	// reporting per-record rejections alongside the overall outcome
	SubmitBatch(ctx context.Context, newSubmissions []apiSubmission.NewSubmission, source domainSubmission.Source) (*apiSubmission.BatchResponse, *common.ApiError)

	// Get returns a stored Submission by its id
	Get(ctx context.Context, id domainSubmission.Id) (*apiSubmission.Submission, *common.ApiError)

	// List returns every stored Submission
	List(ctx context.Context) ([]apiSubmission.Submission, *common.ApiError)
}

func New(processor ingestion.Processor, store domainSubmission.Store) Controller {
	return &impl{
		processor: processor,
		store:     store,
	}
}

type impl struct {
	processor ingestion.Processor
	store     domainSubmission.Store
}

func (c *impl) Submit(ctx context.Context, newSubmission *apiSubmission.NewSubmission, source domainSubmission.Source) (*apiSubmission.SubmitResponse, *common.ApiError) {
	domainNewSubmission := newSubmission.ToDomainNewSubmission()
	accepted, err := c.processor.ProcessSingle(ctx, &domainNewSubmission, source)
	if err != nil {
		return nil, handleErr(err)
	} else {
		return &apiSubmission.SubmitResponse{
			Message: "Submission accepted",
			ID:      accepted.ID,
		}, nil
	}
}

func (c *impl) SubmitBatch(ctx context.Context, newSubmissions []apiSubmission.NewSubmission, source domainSubmission.Source) (*apiSubmission.BatchResponse, *common.ApiError) {
	domainNewSubmissions := make([]domainSubmission.NewSubmission, 0, len(newSubmissions))
	for i := range newSubmissions {
		domainNewSubmissions = append(domainNewSubmissions, newSubmissions[i].ToDomainNewSubmission())
	}
	result, err := c.processor.ProcessBatch(ctx, domainNewSubmissions, source)
	if err != nil {
		return nil, handleErr(err)
	} else {
		response := apiSubmission.BatchResponse{
			Message: fmt.Sprintf("Processed %d submissions (%d accepted, %d rejected)",
				len(newSubmissions), len(result.Accepted), len(result.Errors)),
			Accepted: uint(len(result.Accepted)),
		}
		for _, recordError := range result.Errors {
			response.Errors = append(response.Errors, apiSubmission.FromDomainRecordError(recordError))
		}
		return &response, nil
	}
}

func (c *impl) Get(ctx context.Context, id domainSubmission.Id) (*apiSubmission.Submission, *common.ApiError) {
	result, err := c.store.Get(ctx, id)
	if err != nil {
		return nil, handleErr(err)
	} else {
		s := apiSubmission.FromDomainSubmission(result)
		return &s, nil
	}
}

func (c *impl) List(ctx context.Context) ([]apiSubmission.Submission, *common.ApiError) {
	results, err := c.store.List(ctx)
	if err != nil {
		return nil, handleErr(err)
	} else {
		apiSubmissions := make([]apiSubmission.Submission, 0, len(results))
		for i := range results {
			apiSubmissions = append(apiSubmissions, apiSubmission.FromDomainSubmission(&results[i]))
		}
		return apiSubmissions, nil
	}
}

func handleErr(err error) *common.ApiError {
	switch v := err.(type) {
	case validation.MissingField:
		return badRequest(v)
	case validation.ProhibitedContent:
		return badRequest(v)
	case domainSubmission.AlreadyExists:
		return badRequest(v)
	case ratelimit.QuotaExceeded:
		return rateLimited(v)
	case domainSubmission.NotFound:
		return notFound(v)
	case domainSubmission.InvalidPersistedData:
		return invalidPersistedData(v)
	default:
		return unhandledErr(v)
	}
}

func badRequest(e error) *common.ApiError {
	return &common.ApiError{
		StatusCode: http.StatusBadRequest,
		Body: common.Body{
			Message: e.Error(),
		},
	}
}

func rateLimited(quotaExceeded ratelimit.QuotaExceeded) *common.ApiError {
	return &common.ApiError{
		StatusCode: http.StatusTooManyRequests,
		Body: common.Body{
			Message: quotaExceeded.Error(),
		},
	}
}

func notFound(notFound domainSubmission.NotFound) *common.ApiError {
	return &common.ApiError{
		StatusCode: http.StatusNotFound,
		Body: common.Body{
			Message: notFound.Error(),
		},
	}
}

func invalidPersistedData(err domainSubmission.InvalidPersistedData) *common.ApiError {
	return &common.ApiError{
		StatusCode: http.StatusInternalServerError,
		Body: common.Body{
			Message: err.Error(),
		},
	}
}

func unhandledErr(e error) *common.ApiError {
	return &common.ApiError{
		StatusCode: http.StatusInternalServerError,
		Body: common.Body{
			Message: e.Error(),
		},
	}
}
