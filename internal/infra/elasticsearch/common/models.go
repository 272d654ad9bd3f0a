// common contains models that are common to ES operations
package common

import (
	"bytes"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8/esapi"
)

type IndexName string

type ElasticsearchErr struct {
	Underlying error
}

func (e ElasticsearchErr) Error() string {
	return fmt.Sprintf("Error from Elasticsearch: %v", e.Underlying)
}

func (e ElasticsearchErr) Unwrap() error {
	return e.Underlying
}

type JsonSerdesErr struct {
	Underlying []error
}

func (e JsonSerdesErr) Error() string {
	return fmt.Sprintf("Error working with JSON: %v", e.Underlying)
}

func (e JsonSerdesErr) Unwrap() error {
	if len(e.Underlying) == 1 {
		return e.Underlying[0]
	} else {
		return fmt.Errorf("Multiple JSON serdes errors: [%v]", e.Underlying)
	}
}

func UnexpectedEsStatusError(rawResp *esapi.Response) ElasticsearchErr {
	var buf bytes.Buffer
	var body string
	if _, err := buf.ReadFrom(rawResp.Body); err != nil {
		body = buf.String()
	}
	return ElasticsearchErr{Underlying: fmt.Errorf("Unexpected status from ES: [%d], body: [%s]", rawResp.StatusCode, body)}
}

type EsBulkResponse struct {
	Took   uint                 `json:"took"`
	Errors bool                 `json:"errors"`
	Items  []EsBulkResponseItem `json:"items"`
}

type EsBulkResponseItemInfo struct {
	Index  string `json:"_index"`
	ID     string `json:"_id"`
	Result string `json:"result"`
	Status uint   `json:"status"`
}

type EsBulkResponseItem struct {
	Create *EsBulkResponseItemInfo `json:"create"`
	Index  *EsBulkResponseItemInfo `json:"index"`
	Delete *EsBulkResponseItemInfo `json:"delete"`
}

func (i *EsBulkResponseItem) Info() EsBulkResponseItemInfo {
	// It must be one of these.
	if i.Create != nil {
		return *i.Create
	} else if i.Index != nil {
		return *i.Index
	} else {
		return *i.Delete
	}
}

func (i *EsBulkResponseItemInfo) IsOk() bool {
	return 200 <= i.Status && i.Status <= 299
}
