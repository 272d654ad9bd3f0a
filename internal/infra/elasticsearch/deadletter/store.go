// deadletter persists failed fan-out sends in Elasticsearch so the retrier
// can work through them out-of-band.
package deadletter

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/submitd/submitd/internal/config"
	"github.com/submitd/submitd/internal/domain/fanout"
	"github.com/submitd/submitd/internal/domain/submission"
	"github.com/submitd/submitd/internal/infra/elasticsearch/common"
)

var DefaultIndexName common.IndexName = "submitd_dead_letters"

type EsStore struct {
	client    *elasticsearch.Client
	indexName common.IndexName
}

func NewStore(client *elasticsearch.Client, conf config.DeadLetters) fanout.DeadLetterStore {
	indexName := DefaultIndexName
	if conf.Index != "" {
		indexName = common.IndexName(conf.Index)
	}
	return &EsStore{client: client, indexName: indexName}
}

func (e *EsStore) Record(ctx context.Context, deadLetter fanout.DeadLetter) error {
	toPersistBytes, err := json.Marshal(toPersistedDeadLetter(&deadLetter))
	if err != nil {
		return common.JsonSerdesErr{Underlying: []error{err}}
	}
	indexReq := esapi.IndexRequest{
		Index:      string(e.indexName),
		DocumentID: deadLetter.ID,
		Body:       bytes.NewReader(toPersistBytes),
	}
	rawResp, err := indexReq.Do(ctx, e.client)
	if err != nil {
		return common.ElasticsearchErr{Underlying: err}
	}
	defer rawResp.Body.Close()
	if rawResp.IsError() {
		return common.UnexpectedEsStatusError(rawResp)
	}
	return nil
}

// Fetch returns up to max dead letters, oldest first, so retries drain in the
// order failures happened.
func (e *EsStore) Fetch(ctx context.Context, max uint) ([]fanout.DeadLetter, error) {
	queryBodyBytes, err := json.Marshal(map[string]interface{}{
		"query": map[string]interface{}{
			"match_all": map[string]interface{}{},
		},
		"sort": []map[string]interface{}{
			{"recorded_at": "asc"},
		},
	})
	if err != nil {
		return nil, common.JsonSerdesErr{Underlying: []error{err}}
	}
	searchReq := esapi.SearchRequest{
		Index:          []string{string(e.indexName)},
		Body:           bytes.NewReader(queryBodyBytes),
		Size:           esapi.IntPtr(int(max)),
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
	var response esSearchPersistedDeadLetters
	if err := json.NewDecoder(rawResp.Body).Decode(&response); err != nil {
		return nil, common.JsonSerdesErr{Underlying: []error{err}}
	}
	deadLetters := make([]fanout.DeadLetter, 0, len(response.Hits.Hits))
	for _, hit := range response.Hits.Hits {
		deadLetters = append(deadLetters, hit.Source.toDomainDeadLetter(hit.ID))
	}
	return deadLetters, nil
}

func (e *EsStore) Remove(ctx context.Context, id string) error {
	deleteReq := esapi.DeleteRequest{
		Index:      string(e.indexName),
		DocumentID: id,
	}
	rawResp, err := deleteReq.Do(ctx, e.client)
	if err != nil {
		return common.ElasticsearchErr{Underlying: err}
	}
	defer rawResp.Body.Close()
	// deleting an already-removed entry is fine; retries may overlap
	if rawResp.IsError() && rawResp.StatusCode != 404 {
		return common.UnexpectedEsStatusError(rawResp)
	}
	return nil
}

type persistedDeadLetter struct {
	SubmissionID string    `json:"submission_id"`
	User         string    `json:"user"`
	Data         string    `json:"data"`
	FailedSinks  []string  `json:"failed_sinks"`
	RecordedAt   time.Time `json:"recorded_at"`
}

func toPersistedDeadLetter(d *fanout.DeadLetter) persistedDeadLetter {
	failedSinks := make([]string, 0, len(d.FailedSinks))
	for _, sink := range d.FailedSinks {
		failedSinks = append(failedSinks, string(sink))
	}
	return persistedDeadLetter{
		SubmissionID: string(d.SubmissionID),
		User:         string(d.User),
		Data:         string(d.Data),
		FailedSinks:  failedSinks,
		RecordedAt:   d.RecordedAt,
	}
}

func (p *persistedDeadLetter) toDomainDeadLetter(id string) fanout.DeadLetter {
	failedSinks := make([]fanout.SinkName, 0, len(p.FailedSinks))
	for _, sink := range p.FailedSinks {
		failedSinks = append(failedSinks, fanout.SinkName(sink))
	}
	return fanout.DeadLetter{
		ID:           id,
		SubmissionID: submission.Id(p.SubmissionID),
		User:         submission.UserId(p.User),
		Data:         submission.Data(p.Data),
		FailedSinks:  failedSinks,
		RecordedAt:   p.RecordedAt,
	}
}

type esHitPersistedDeadLetter struct {
	ID     string              `json:"_id"`
	Source persistedDeadLetter `json:"_source"`
}

type esSearchPersistedDeadLetters struct {
	Hits struct {
		Hits []esHitPersistedDeadLetter `json:"hits"`
	} `json:"hits"`
}
