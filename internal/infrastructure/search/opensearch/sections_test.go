package opensearch

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/LegisGraph/internal/domain/legislation"
	"github.com/turtacn/LegisGraph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/LegisGraph/pkg/errors"
)

const searchResponse = `{
	"took": 3,
	"hits": {
		"total": {"value": 2},
		"max_score": 4.2,
		"hits": [
			{"_id": "d1#0", "_score": 4.2, "_source": {"document_id": "d1", "section_number": "1", "header_label": "SEC. 1", "body_text": "The Secretary of Energy shall report."}},
			{"_id": "d2#3", "_score": 1.5, "_source": {"document_id": "d2", "section_number": "2.1", "header_label": "(a)", "body_text": "The Secretary may waive."}}
		]
	}
}`

func newTestSectionIndex(t *testing.T, fc *fakeCluster) *SectionIndex {
	c := newTestClient(t, fc.URL)
	log := logging.NewNopLogger()
	s := NewSectionIndex(NewIndexer(c, IndexerConfig{}, log), NewSearcher(c, SearcherConfig{}, log), "", log)
	s.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }
	return s
}

func TestBuildQueryDSL(t *testing.T) {
	dsl := buildQueryDSL(SearchRequest{
		Query:     "secretary",
		Fields:    []string{"body_text"},
		Filters:   map[string]string{"level": "0", "document_id": "d1"},
		Highlight: []string{"body_text"},
		Size:      5,
		From:      10,
	})
	raw, err := json.Marshal(dsl)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"query": {"bool": {
			"must": {"multi_match": {"query": "secretary", "operator": "or", "fields": ["body_text"]}},
			"filter": [{"term": {"document_id": "d1"}}, {"term": {"level": "0"}}]
		}},
		"size": 5,
		"from": 10,
		"highlight": {"fields": {"body_text": {}}}
	}`, string(raw))
}

func TestBuildQueryDSL_MatchAll(t *testing.T) {
	raw, err := json.Marshal(buildQueryDSL(SearchRequest{}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"query":{"bool":{"must":{"match_all":{}}}}}`, string(raw))
}

func TestSearcher_ClampsSize(t *testing.T) {
	fc := newFakeCluster(t)
	fc.on(http.MethodPost, "/idx/_search", http.StatusOK, searchResponse)
	s := NewSearcher(newTestClient(t, fc.URL), SearcherConfig{MaxPageSize: 20}, logging.NewNopLogger())

	res, err := s.Search(context.Background(), SearchRequest{IndexName: "idx", Query: "x", Size: 500})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Total)
	assert.Equal(t, int64(3), res.TookMs)
	assert.Contains(t, fc.seen()[0].Body, `"size":20`)
}

func TestSearcher_RequiresIndex(t *testing.T) {
	s := NewSearcher(nil, SearcherConfig{}, nil)
	_, err := s.Search(context.Background(), SearchRequest{Query: "x"})
	assert.True(t, errors.IsValidation(err))
}

func TestSearcher_Count(t *testing.T) {
	fc := newFakeCluster(t)
	fc.on(http.MethodPost, "/idx/_count", http.StatusOK, `{"count":42}`)
	s := NewSearcher(newTestClient(t, fc.URL), SearcherConfig{}, logging.NewNopLogger())

	n, err := s.Count(context.Background(), "idx", map[string]string{"document_id": "d1"})
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)
	assert.JSONEq(t, `{"query":{"bool":{"must":{"match_all":{}},"filter":[{"term":{"document_id":"d1"}}]}}}`, fc.seen()[0].Body)
}

func TestSectionIndex_IndexRows(t *testing.T) {
	fc := newFakeCluster(t)
	fc.on(http.MethodPost, "/"+DefaultSectionIndex+"/_delete_by_query", http.StatusOK, `{"deleted":1}`)
	fc.on(http.MethodPost, "/_bulk", http.StatusOK, `{"errors":false,"items":[{"index":{"_id":"d1#0","status":201}},{"index":{"_id":"d1#2","status":201}}]}`)
	s := newTestSectionIndex(t, fc)

	rows := []legislation.Row{
		{Level: 0, Label: "SEC. 1", SectionNumber: "1", FieldType: legislation.FieldTitle, Text: "Short title."},
		{Level: 0, Label: "SEC. 1", SectionNumber: "1", FieldType: legislation.FieldBody, Text: "   "},
		{Level: 1, Label: "(a)", SectionNumber: "1.1", FieldType: legislation.FieldBody, Text: "The Secretary shall act."},
	}
	require.NoError(t, s.IndexRows(context.Background(), "d1", rows))

	reqs := fc.seen()
	require.Len(t, reqs, 2)
	assert.Equal(t, "/"+DefaultSectionIndex+"/_delete_by_query", reqs[0].Path)

	lines := strings.Split(strings.TrimSpace(reqs[1].Body), "\n")
	require.Len(t, lines, 4)
	assert.JSONEq(t, `{"index":{"_index":"legisgraph-sections","_id":"d1#0"}}`, lines[0])
	assert.JSONEq(t, `{"document_id":"d1","position":0,"level":0,"header_label":"SEC. 1","section_number":"1",
		"field_type":"title","body_text":"Short title.","indexed_at":"2024-01-02T03:04:05Z"}`, lines[1])
	assert.JSONEq(t, `{"index":{"_index":"legisgraph-sections","_id":"d1#2"}}`, lines[2])
}

func TestSectionIndex_IndexRows_ItemFailure(t *testing.T) {
	fc := newFakeCluster(t)
	fc.on(http.MethodPost, "/"+DefaultSectionIndex+"/_delete_by_query", http.StatusOK, `{"deleted":0}`)
	fc.on(http.MethodPost, "/_bulk", http.StatusOK, `{"errors":true,"items":[
		{"index":{"_id":"d1#0","status":429,"error":{"type":"es_rejected_execution_exception","reason":"queue full"}}}]}`)
	s := newTestSectionIndex(t, fc)

	err := s.IndexRows(context.Background(), "d1", []legislation.Row{{Text: "x"}})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeSearchError))
	assert.Contains(t, err.Error(), "queue full")
}

func TestSectionIndex_IndexRows_EmptyDocumentID(t *testing.T) {
	fc := newFakeCluster(t)
	err := newTestSectionIndex(t, fc).IndexRows(context.Background(), "", nil)
	assert.True(t, errors.IsValidation(err))
	assert.Empty(t, fc.seen())
}

func TestSectionIndex_Search(t *testing.T) {
	fc := newFakeCluster(t)
	fc.on(http.MethodPost, "/"+DefaultSectionIndex+"/_search", http.StatusOK, searchResponse)
	s := newTestSectionIndex(t, fc)

	hits, err := s.Search(context.Background(), "secretary", 0)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, legislation.SectionHit{
		DocumentID: "d1", SectionNumber: "1", Label: "SEC. 1",
		Text: "The Secretary of Energy shall report.", Score: 4.2,
	}, hits[0])
	assert.Equal(t, "2.1", hits[1].SectionNumber)

	body := fc.seen()[0].Body
	assert.Contains(t, body, `"size":10`)
	assert.Contains(t, body, `"header_label^2"`)
}

func TestSectionIndex_Search_Validation(t *testing.T) {
	fc := newFakeCluster(t)
	_, err := newTestSectionIndex(t, fc).Search(context.Background(), "  ", 5)
	assert.True(t, errors.IsValidation(err))
}

func TestSectionIndex_Search_ClusterError(t *testing.T) {
	fc := newFakeCluster(t)
	fc.on(http.MethodPost, "/"+DefaultSectionIndex+"/_search", http.StatusBadRequest,
		`{"error":{"type":"search_phase_execution_exception","reason":"all shards failed"}}`)

	_, err := newTestSectionIndex(t, fc).Search(context.Background(), "x", 5)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeSearchError))
}

//Personal.AI order the ending
