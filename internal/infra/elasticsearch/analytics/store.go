// analytics persists derived analytics records in Elasticsearch. Documents
// are keyed by submission id, so redelivered work messages overwrite the same
// document instead of duplicating it.
package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/submitd/submitd/internal/config"
	"github.com/submitd/submitd/internal/domain/analytics"
	"github.com/submitd/submitd/internal/infra/elasticsearch/common"
)

var DefaultIndexName common.IndexName = "submitd_analytics"

type EsStore struct {
	client    *elasticsearch.Client
	indexName common.IndexName
}

func NewStore(client *elasticsearch.Client, conf config.Analytics) analytics.Store {
	indexName := DefaultIndexName
	if conf.Index != "" {
		indexName = common.IndexName(conf.Index)
	}
	return &EsStore{client: client, indexName: indexName}
}

func (e *EsStore) Save(ctx context.Context, record analytics.Record) error {
	toPersistBytes, err := json.Marshal(persistedRecord{
		User:        string(record.User),
		Data:        string(record.Data),
		ProcessedAt: record.ProcessedAt,
	})
	if err != nil {
		return common.JsonSerdesErr{Underlying: []error{err}}
	}
	indexReq := esapi.IndexRequest{
		Index:      string(e.indexName),
		DocumentID: string(record.SubmissionID),
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

type persistedRecord struct {
	User        string    `json:"user"`
	Data        string    `json:"data"`
	ProcessedAt time.Time `json:"processed_at"`
}
