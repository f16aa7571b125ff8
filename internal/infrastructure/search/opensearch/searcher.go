package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"sort"
	"time"

	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/turtacn/LegisGraph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/LegisGraph/pkg/errors"
)

// SearcherConfig holds configuration for the Searcher.
type SearcherConfig struct {
	DefaultPageSize int
	MaxPageSize     int
}

// SearchRequest is a full-text query with optional exact-match filters.
type SearchRequest struct {
	IndexName string
	Query     string
	// Fields to match Query against, with optional "^boost" suffixes.
	Fields    []string
	Filters   map[string]string
	Highlight []string
	From      int
	Size      int
}

// SearchHit is one matching document.
type SearchHit struct {
	ID         string
	Score      float64
	Source     json.RawMessage
	Highlights map[string][]string
}

// SearchResult is the decoded response of a search.
type SearchResult struct {
	Total    int64
	MaxScore float64
	TookMs   int64
	Hits     []SearchHit
}

// Searcher runs queries against an index.
type Searcher struct {
	client *Client
	config SearcherConfig
	logger logging.Logger
}

// NewSearcher creates a new Searcher.
func NewSearcher(client *Client, cfg SearcherConfig, logger logging.Logger) *Searcher {
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = 10
	}
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = 100
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Searcher{client: client, config: cfg, logger: logger}
}

// Search executes req.  Size is clamped to MaxPageSize.
func (s *Searcher) Search(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	if req.IndexName == "" {
		return nil, errors.New(errors.ErrCodeValidation, "IndexName is required")
	}
	if req.Size <= 0 {
		req.Size = s.config.DefaultPageSize
	}
	if req.Size > s.config.MaxPageSize {
		req.Size = s.config.MaxPageSize
	}
	if req.From < 0 {
		req.From = 0
	}

	body, err := json.Marshal(buildQueryDSL(req))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal query DSL")
	}

	osReq := opensearchapi.SearchRequest{
		Index: []string{req.IndexName},
		Body:  bytes.NewReader(body),
	}

	start := time.Now()
	resp, err := osReq.Do(ctx, s.client.GetClient())
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.New(errors.ErrCodeTimeout, "search request timed out")
		}
		return nil, errors.Wrap(err, errors.ErrCodeSearchError, "search request failed")
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return nil, handleErrorResponse(resp, errors.New(errors.ErrCodeSearchError, "search failed"))
	}

	result, err := parseSearchResponse(resp.Body)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Search executed",
		logging.String("index", req.IndexName),
		logging.Int64("took_ms", time.Since(start).Milliseconds()),
		logging.Int64("hits", result.Total))
	return result, nil
}

// Count returns the number of documents matching the filters.
func (s *Searcher) Count(ctx context.Context, indexName string, filters map[string]string) (int64, error) {
	dsl := buildQueryDSL(SearchRequest{Filters: filters})
	body, err := json.Marshal(map[string]interface{}{"query": dsl["query"]})
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal count query")
	}

	req := opensearchapi.CountRequest{
		Index: []string{indexName},
		Body:  bytes.NewReader(body),
	}
	resp, err := req.Do(ctx, s.client.GetClient())
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeSearchError, "count request failed")
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return 0, handleErrorResponse(resp, errors.New(errors.ErrCodeSearchError, "count failed"))
	}

	var out struct {
		Count int64 `json:"count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode count response")
	}
	return out.Count, nil
}

// buildQueryDSL wraps a multi_match on Fields in a bool query whose filter
// clause holds one term per filter.  An empty Query matches everything.
func buildQueryDSL(req SearchRequest) map[string]interface{} {
	var must interface{}
	if req.Query != "" {
		mm := map[string]interface{}{
			"query":    req.Query,
			"operator": "or",
		}
		if len(req.Fields) > 0 {
			mm["fields"] = req.Fields
		}
		must = map[string]interface{}{"multi_match": mm}
	} else {
		must = map[string]interface{}{"match_all": map[string]interface{}{}}
	}

	boolQuery := map[string]interface{}{"must": must}
	if len(req.Filters) > 0 {
		keys := make([]string, 0, len(req.Filters))
		for k := range req.Filters {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		filters := make([]interface{}, 0, len(keys))
		for _, k := range keys {
			filters = append(filters, map[string]interface{}{
				"term": map[string]interface{}{k: req.Filters[k]},
			})
		}
		boolQuery["filter"] = filters
	}

	dsl := map[string]interface{}{
		"query": map[string]interface{}{"bool": boolQuery},
	}
	if req.Size > 0 {
		dsl["size"] = req.Size
		dsl["from"] = req.From
	}
	if len(req.Highlight) > 0 {
		fields := make(map[string]interface{}, len(req.Highlight))
		for _, f := range req.Highlight {
			fields[f] = map[string]interface{}{}
		}
		dsl["highlight"] = map[string]interface{}{"fields": fields}
	}
	return dsl
}

func parseSearchResponse(body io.Reader) (*SearchResult, error) {
	var resp struct {
		Took int64 `json:"took"`
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			MaxScore float64 `json:"max_score"`
			Hits     []struct {
				ID        string              `json:"_id"`
				Score     float64             `json:"_score"`
				Source    json.RawMessage     `json:"_source"`
				Highlight map[string][]string `json:"highlight"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode search response")
	}

	result := &SearchResult{
		Total:    resp.Hits.Total.Value,
		MaxScore: resp.Hits.MaxScore,
		TookMs:   resp.Took,
	}
	for _, h := range resp.Hits.Hits {
		result.Hits = append(result.Hits, SearchHit{
			ID:         h.ID,
			Score:      h.Score,
			Source:     h.Source,
			Highlights: h.Highlight,
		})
	}
	return result, nil
}

//Personal.AI order the ending
