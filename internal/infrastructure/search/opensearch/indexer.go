package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/turtacn/LegisGraph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/LegisGraph/pkg/errors"
)

var (
	ErrIndexAlreadyExists  = errors.New(errors.ErrCodeConflict, "index already exists")
	ErrIndexNotFound       = errors.New(errors.ErrCodeNotFound, "index not found")
	ErrIndexCreationFailed = errors.New(errors.ErrCodeSearchError, "index creation failed")
	ErrDocumentIndexFailed = errors.New(errors.ErrCodeSearchError, "document index failed")
)

// IndexMapping is the body of an index creation request.
type IndexMapping struct {
	Settings map[string]interface{} `json:"settings,omitempty"`
	Mappings map[string]interface{} `json:"mappings,omitempty"`
}

// BulkDocument is one document of a bulk request.
type BulkDocument struct {
	ID     string
	Source interface{}
}

// BulkItemError records the failure of one bulk item.
type BulkItemError struct {
	DocID     string
	ErrorType string
	Reason    string
}

// BulkResult summarizes a bulk request.
type BulkResult struct {
	Succeeded int
	Failed    int
	Errors    []BulkItemError
}

// IndexerConfig holds configuration for the Indexer.
type IndexerConfig struct {
	BulkBatchSize int
	// RefreshPolicy is passed through to write requests: "true", "false" or
	// "wait_for".
	RefreshPolicy string
}

// Indexer manages index operations and document ingestion.
type Indexer struct {
	client *Client
	config IndexerConfig
	logger logging.Logger
}

// NewIndexer creates a new Indexer.
func NewIndexer(client *Client, cfg IndexerConfig, logger logging.Logger) *Indexer {
	if cfg.BulkBatchSize <= 0 {
		cfg.BulkBatchSize = 500
	}
	if cfg.RefreshPolicy == "" {
		cfg.RefreshPolicy = "false"
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Indexer{client: client, config: cfg, logger: logger}
}

// CreateIndex creates indexName with mapping.
func (i *Indexer) CreateIndex(ctx context.Context, indexName string, mapping IndexMapping) error {
	exists, err := i.IndexExists(ctx, indexName)
	if err != nil {
		return err
	}
	if exists {
		return ErrIndexAlreadyExists
	}

	body, err := json.Marshal(mapping)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal index mapping")
	}

	req := opensearchapi.IndicesCreateRequest{
		Index: indexName,
		Body:  bytes.NewReader(body),
	}
	resp, err := req.Do(ctx, i.client.GetClient())
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSearchError, "failed to create index request")
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return handleErrorResponse(resp, ErrIndexCreationFailed)
	}

	i.logger.Info("Index created", logging.String("index", indexName))
	return nil
}

// EnsureIndex creates indexName unless it already exists.
func (i *Indexer) EnsureIndex(ctx context.Context, indexName string, mapping IndexMapping) error {
	err := i.CreateIndex(ctx, indexName, mapping)
	if err != nil && !errors.Is(err, ErrIndexAlreadyExists) {
		return err
	}
	return nil
}

func (i *Indexer) DeleteIndex(ctx context.Context, indexName string) error {
	req := opensearchapi.IndicesDeleteRequest{Index: []string{indexName}}
	resp, err := req.Do(ctx, i.client.GetClient())
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSearchError, "failed to delete index request")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrIndexNotFound
	}
	if resp.IsError() {
		return handleErrorResponse(resp, errors.New(errors.ErrCodeSearchError, "delete index failed"))
	}

	i.logger.Warn("Index deleted", logging.String("index", indexName))
	return nil
}

func (i *Indexer) IndexExists(ctx context.Context, indexName string) (bool, error) {
	req := opensearchapi.IndicesExistsRequest{Index: []string{indexName}}
	resp, err := req.Do(ctx, i.client.GetClient())
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeSearchError, "failed to check index existence")
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	}
	return false, handleErrorResponse(resp, errors.New(errors.ErrCodeSearchError, "check index existence failed"))
}

// BulkIndex indexes docs in batches of BulkBatchSize, in order.  Item-level
// failures are counted in the result; a transport failure aborts with an
// error and the partial result.
func (i *Indexer) BulkIndex(ctx context.Context, indexName string, docs []BulkDocument) (*BulkResult, error) {
	result := &BulkResult{}
	if len(docs) == 0 {
		return result, nil
	}

	for start := 0; start < len(docs); start += i.config.BulkBatchSize {
		end := min(start+i.config.BulkBatchSize, len(docs))
		batch := docs[start:end]

		var buf bytes.Buffer
		sent := 0
		for _, doc := range batch {
			src, err := json.Marshal(doc.Source)
			if err != nil {
				result.Failed++
				result.Errors = append(result.Errors, BulkItemError{
					DocID:     doc.ID,
					ErrorType: "serialization_error",
					Reason:    err.Error(),
				})
				continue
			}
			meta, _ := json.Marshal(map[string]map[string]string{"index": {"_index": indexName, "_id": doc.ID}})
			buf.Write(meta)
			buf.WriteByte('\n')
			buf.Write(src)
			buf.WriteByte('\n')
			sent++
		}
		if sent == 0 {
			continue
		}

		if err := i.sendBulk(ctx, &buf, sent, result); err != nil {
			return result, err
		}
	}

	i.logger.Info("Bulk index completed",
		logging.String("index", indexName),
		logging.Int("total", len(docs)),
		logging.Int("succeeded", result.Succeeded),
		logging.Int("failed", result.Failed))
	return result, nil
}

func (i *Indexer) sendBulk(ctx context.Context, body io.Reader, sent int, result *BulkResult) error {
	req := opensearchapi.BulkRequest{
		Body:    body,
		Refresh: i.config.RefreshPolicy,
	}
	resp, err := req.Do(ctx, i.client.GetClient())
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSearchError, "bulk request failed")
	}
	defer resp.Body.Close()

	if resp.IsError() {
		result.Failed += sent
		err := handleErrorResponse(resp, errors.New(errors.ErrCodeSearchError, "bulk batch failed"))
		result.Errors = append(result.Errors, BulkItemError{DocID: "batch_error", ErrorType: "http_error", Reason: err.Error()})
		return nil
	}

	var bulkResp struct {
		Errors bool `json:"errors"`
		Items  []map[string]struct {
			ID     string `json:"_id"`
			Status int    `json:"status"`
			Error  struct {
				Type   string `json:"type"`
				Reason string `json:"reason"`
			} `json:"error"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&bulkResp); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode bulk response")
	}

	if !bulkResp.Errors {
		result.Succeeded += len(bulkResp.Items)
		return nil
	}
	for _, item := range bulkResp.Items {
		// Each item has a single key naming the action.
		for _, info := range item {
			if info.Status >= 200 && info.Status < 300 {
				result.Succeeded++
				continue
			}
			result.Failed++
			result.Errors = append(result.Errors, BulkItemError{
				DocID:     info.ID,
				ErrorType: info.Error.Type,
				Reason:    info.Error.Reason,
			})
		}
	}
	return nil
}

// DeleteByTerm removes every document whose keyword field equals value and
// returns the number deleted.  A missing index deletes nothing.
func (i *Indexer) DeleteByTerm(ctx context.Context, indexName, field, value string) (int64, error) {
	body, err := json.Marshal(map[string]interface{}{
		"query": map[string]interface{}{"term": map[string]interface{}{field: value}},
	})
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal delete query")
	}

	refresh := i.config.RefreshPolicy == "true"
	req := opensearchapi.DeleteByQueryRequest{
		Index:     []string{indexName},
		Body:      bytes.NewReader(body),
		Conflicts: "proceed",
		Refresh:   &refresh,
	}
	resp, err := req.Do(ctx, i.client.GetClient())
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeSearchError, "delete by query request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return 0, nil
	}
	if resp.IsError() {
		return 0, handleErrorResponse(resp, errors.New(errors.ErrCodeSearchError, "delete by query failed"))
	}

	var out struct {
		Deleted int64 `json:"deleted"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode delete by query response")
	}
	return out.Deleted, nil
}

func handleErrorResponse(resp *opensearchapi.Response, defaultErr error) error {
	var errResp struct {
		Error struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	}
	bodyBytes, _ := io.ReadAll(resp.Body)

	if err := json.Unmarshal(bodyBytes, &errResp); err == nil && errResp.Error.Reason != "" {
		return errors.Wrapf(defaultErr, errors.ErrCodeSearchError, "OpenSearch error: %s - %s", errResp.Error.Type, errResp.Error.Reason)
	}
	return errors.Wrapf(defaultErr, errors.ErrCodeSearchError, "OpenSearch error status: %d", resp.StatusCode)
}

// SectionIndexMapping maps parsed section rows.  Body text is analyzed with
// the English analyzer; identifiers are keywords.
func SectionIndexMapping() IndexMapping {
	return IndexMapping{
		Settings: map[string]interface{}{
			"number_of_shards":   1,
			"number_of_replicas": 1,
		},
		Mappings: map[string]interface{}{
			"properties": map[string]interface{}{
				"document_id":    map[string]interface{}{"type": "keyword"},
				"position":       map[string]interface{}{"type": "integer"},
				"level":          map[string]interface{}{"type": "integer"},
				"header_label":   map[string]interface{}{"type": "keyword"},
				"section_number": map[string]interface{}{"type": "keyword"},
				"field_type":     map[string]interface{}{"type": "keyword"},
				"body_text":      map[string]interface{}{"type": "text", "analyzer": "english"},
				"indexed_at":     map[string]interface{}{"type": "date"},
			},
		},
	}
}

//Personal.AI order the ending
