// submission holds the Elasticsearch-backed record store. Submissions are
// immutable once written, so the store only ever issues create-only writes
// (op_type create), which is what makes duplicate detection race-free: the
// second writer of an id gets a 409 no matter how the reads interleaved.
package submission

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/submitd/submitd/internal/config"
	"github.com/submitd/submitd/internal/domain/submission"
	"github.com/submitd/submitd/internal/infra/elasticsearch/common"
)

var DefaultIndexName common.IndexName = "submitd_submissions"

type EsStore struct {
	client      *elasticsearch.Client
	indexName   common.IndexName
	listMaxSize uint
}

func NewStore(client *elasticsearch.Client, submissionsConf config.Submissions, defaults config.IngestionDefaults) submission.Store {
	indexName := DefaultIndexName
	if submissionsConf.Index != "" {
		indexName = common.IndexName(submissionsConf.Index)
	}
	return &EsStore{
		client:      client,
		indexName:   indexName,
		listMaxSize: defaults.ListMaxSize,
	}
}

func (e *EsStore) Create(ctx context.Context, toStore *submission.Submission) error {
	toPersistBytes, err := json.Marshal(toPersistedData(toStore))
	if err != nil {
		return common.JsonSerdesErr{Underlying: []error{err}}
	}

	createReq := esapi.CreateRequest{
		DocumentID: string(toStore.ID),
		Index:      string(e.indexName),
		Body:       bytes.NewReader(toPersistBytes),
	}

	rawResp, err := createReq.Do(ctx, e.client)
	if err != nil {
		return common.ElasticsearchErr{Underlying: err}
	}
	defer rawResp.Body.Close()
	statusCode := rawResp.StatusCode
	switch {
	case 200 <= statusCode && statusCode <= 299:
		return nil
	case statusCode == 409:
		return submission.AlreadyExists{ID: toStore.ID}
	default:
		return common.UnexpectedEsStatusError(rawResp)
	}
}

func (e *EsStore) CreateBatch(ctx context.Context, toStore []submission.Submission) ([]submission.BatchEntry, error) {
	ndJsonBytes, err := buildCreateNdJsonBytes(e.indexName, toStore)
	if err != nil {
		return nil, err
	}

	bulkReq := esapi.BulkRequest{
		Body: bytes.NewReader(ndJsonBytes),
	}
	rawResp, err := bulkReq.Do(ctx, e.client)
	if err != nil {
		return nil, common.ElasticsearchErr{Underlying: err}
	}
	defer rawResp.Body.Close()
	if rawResp.IsError() {
		return nil, common.UnexpectedEsStatusError(rawResp)
	}
	var response common.EsBulkResponse
	if err := json.NewDecoder(rawResp.Body).Decode(&response); err != nil {
		return nil, common.JsonSerdesErr{Underlying: []error{err}}
	}
	if len(response.Items) != len(toStore) {
		return nil, common.ElasticsearchErr{
			Underlying: fmt.Errorf("Bulk response item count [%d] does not match request item count [%d]", len(response.Items), len(toStore)),
		}
	}

	entries := make([]submission.BatchEntry, 0, len(toStore))
	for i, item := range response.Items {
		info := item.Info()
		entry := submission.BatchEntry{ID: toStore[i].ID}
		switch {
		case info.IsOk():
			// persisted
		case info.Status == 409:
			entry.Err = submission.AlreadyExists{ID: toStore[i].ID}
		default:
			entry.Err = common.ElasticsearchErr{
				Underlying: fmt.Errorf("Bulk item for id [%s] failed with status [%d]", info.ID, info.Status),
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (e *EsStore) Exists(ctx context.Context, id submission.Id) (bool, error) {
	existsReq := esapi.ExistsRequest{
		Index:      string(e.indexName),
		DocumentID: string(id),
	}
	rawResp, err := existsReq.Do(ctx, e.client)
	if err != nil {
		return false, common.ElasticsearchErr{Underlying: err}
	}
	defer rawResp.Body.Close()

	switch rawResp.StatusCode {
	case 200:
		return true, nil
	case 404:
		return false, nil
	default:
		return false, common.UnexpectedEsStatusError(rawResp)
	}
}

func (e *EsStore) Get(ctx context.Context, id submission.Id) (*submission.Submission, error) {
	getReq := esapi.GetRequest{
		Index:      string(e.indexName),
		DocumentID: string(id),
	}
	rawResp, err := getReq.Do(ctx, e.client)
	if err != nil {
		return nil, common.ElasticsearchErr{Underlying: err}
	}
	defer rawResp.Body.Close()

	switch rawResp.StatusCode {
	case 200:
		var response esHitPersistedSubmission
		if err := json.NewDecoder(rawResp.Body).Decode(&response); err != nil {
			return nil, common.JsonSerdesErr{Underlying: []error{err}}
		}
		retrieved := response.toDomainSubmission()
		return &retrieved, nil
	case 404:
		return nil, submission.NotFound{ID: id}
	default:
		return nil, common.UnexpectedEsStatusError(rawResp)
	}
}

func (e *EsStore) List(ctx context.Context) ([]submission.Submission, error) {
	queryBodyBytes, err := json.Marshal(map[string]interface{}{
		"query": map[string]interface{}{
			"match_all": map[string]interface{}{},
		},
		"sort": []map[string]interface{}{
			{"metadata.submission_time": "asc"},
		},
	})
	if err != nil {
		return nil, common.JsonSerdesErr{Underlying: []error{err}}
	}
	searchReq := esapi.SearchRequest{
		Index:          []string{string(e.indexName)},
		Body:           bytes.NewReader(queryBodyBytes),
		Size:           esapi.IntPtr(int(e.listMaxSize)),
		AllowNoIndices: esapi.BoolPtr(true),
	}
	rawResp, err := searchReq.Do(ctx, e.client)
	if err != nil {
		return nil, common.ElasticsearchErr{Underlying: err}
	}
	defer rawResp.Body.Close()
	if rawResp.IsError() {
		return nil, common.UnexpectedEsStatusError(rawResp)
	}
	var response esSearchPersistedSubmissions
	if err := json.NewDecoder(rawResp.Body).Decode(&response); err != nil {
		return nil, common.JsonSerdesErr{Underlying: []error{err}}
	}
	submissions := make([]submission.Submission, 0, len(response.Hits.Hits))
	for _, hit := range response.Hits.Hits {
		submissions = append(submissions, hit.toDomainSubmission())
	}
	return submissions, nil
}

func buildCreateNdJsonBytes(indexName common.IndexName, toStore []submission.Submission) ([]byte, error) {
	var buf bytes.Buffer
	var serdesErrs []error
	for i := range toStore {
		opBytes, err := json.Marshal(createBulkOp{
			Create: createBulkOpDetails{
				ID:    string(toStore[i].ID),
				Index: string(indexName),
			},
		})
		if err != nil {
			serdesErrs = append(serdesErrs, err)
			continue
		}
		docBytes, err := json.Marshal(toPersistedData(&toStore[i]))
		if err != nil {
			serdesErrs = append(serdesErrs, err)
			continue
		}
		buf.Write(opBytes)
		buf.WriteString("\n")
		buf.Write(docBytes)
		buf.WriteString("\n")
	}
	if len(serdesErrs) > 0 {
		return nil, common.JsonSerdesErr{Underlying: serdesErrs}
	}
	return buf.Bytes(), nil
}

type createBulkOp struct {
	Create createBulkOpDetails `json:"create"`
}

type createBulkOpDetails struct {
	ID    string `json:"_id"`
	Index string `json:"_index"`
}

type persistedMetadata struct {
	SubmissionTime   time.Time `json:"submission_time"`
	SubmissionSource string    `json:"submission_source,omitempty"`
	ProcessedBy      string    `json:"processed_by"`
}

type persistedSubmissionData struct {
	Data     string            `json:"data"`
	User     string            `json:"user"`
	Metadata persistedMetadata `json:"metadata"`
}

func toPersistedData(s *submission.Submission) persistedSubmissionData {
	return persistedSubmissionData{
		Data: string(s.Data),
		User: string(s.User),
		Metadata: persistedMetadata{
			SubmissionTime:   time.Time(s.Metadata.SubmittedAt),
			SubmissionSource: string(s.Metadata.Source),
			ProcessedBy:      string(s.Metadata.ProcessedBy),
		},
	}
}

func (p *persistedSubmissionData) toDomainSubmission(id submission.Id) submission.Submission {
	return submission.Submission{
		ID:   id,
		User: submission.UserId(p.User),
		Data: submission.Data(p.Data),
		Metadata: submission.Metadata{
			SubmittedAt: submission.SubmittedAt(p.Metadata.SubmissionTime),
			Source:      submission.Source(p.Metadata.SubmissionSource),
			ProcessedBy: submission.ProcessedBy(p.Metadata.ProcessedBy),
		},
	}
}

type esHitPersistedSubmission struct {
	ID     string                  `json:"_id"`
	Source persistedSubmissionData `json:"_source"`
}

func (h *esHitPersistedSubmission) toDomainSubmission() submission.Submission {
	return h.Source.toDomainSubmission(submission.Id(h.ID))
}

type esSearchPersistedSubmissions struct {
	Hits struct {
		Hits []esHitPersistedSubmission `json:"hits"`
	} `json:"hits"`
}
