package handlers

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/LegisGraph/internal/application/pipeline"
	"github.com/turtacn/LegisGraph/internal/domain/legislation"
	"github.com/turtacn/LegisGraph/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ---------------------------------------------------------------------------
// Fakes
// ---------------------------------------------------------------------------

type fakeResults struct {
	results    map[string]*legislation.Result
	lastFilter legislation.ResultFilter
	listErr    error
}

func (f *fakeResults) SaveResult(context.Context, *legislation.Result) error { return nil }

func (f *fakeResults) GetResult(_ context.Context, id string) (*legislation.Result, error) {
	if r, ok := f.results[id]; ok {
		return r, nil
	}
	return nil, errors.NotFound("result not found").WithDetail(id)
}

func (f *fakeResults) ListResults(_ context.Context, filter legislation.ResultFilter) ([]*legislation.Result, int64, error) {
	f.lastFilter = filter
	if f.listErr != nil {
		return nil, 0, f.listErr
	}
	var out []*legislation.Result
	for _, r := range f.results {
		out = append(out, r)
	}
	return out, int64(len(out)), nil
}

type fakeProcessor struct{ err error }

func (f fakeProcessor) Process(_ context.Context, doc *legislation.Document) (*legislation.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &legislation.Result{DocumentID: doc.ID, Status: legislation.StatusAnalyzed}, nil
}

type fakeRanker struct{ err error }

func (f fakeRanker) CentralityReport(_ context.Context, doc *legislation.Document) (*pipeline.CentralityReport, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &pipeline.CentralityReport{DocumentID: doc.ID, Clustering: 0.5}, nil
}

type fakeArchive struct{ data map[string][]byte }

func (f fakeArchive) PutAdjacency(context.Context, string, []byte) error { return nil }

func (f fakeArchive) GetAdjacency(_ context.Context, key string) ([]byte, error) {
	if d, ok := f.data[key]; ok {
		return d, nil
	}
	return nil, errors.NotFound("object not found").WithDetail(key)
}

type fakeGraphs struct{ lastEntity string }

func (f *fakeGraphs) ReplaceGraph(context.Context, string, []legislation.Edge) error { return nil }

func (f *fakeGraphs) Neighbors(_ context.Context, entity string, _ int) ([]legislation.EntityNeighbor, error) {
	f.lastEntity = entity
	return []legislation.EntityNeighbor{{Entity: "Senate", Weight: 2, DocumentID: "d1"}}, nil
}

type fakeSections struct{ err error }

func (f fakeSections) IndexRows(context.Context, string, []legislation.Row) error { return nil }

func (f fakeSections) Search(_ context.Context, q string, limit int) ([]legislation.SectionHit, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []legislation.SectionHit{{DocumentID: "d1", SectionNumber: "1", Text: q, Score: float64(limit)}}, nil
}

type fakeChecker struct {
	name string
	err  error
}

func (f fakeChecker) Name() string                { return f.name }
func (f fakeChecker) Check(context.Context) error { return f.err }

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func serve(method, route, target, body string, h gin.HandlerFunc) *httptest.ResponseRecorder {
	r := gin.New()
	r.Handle(method, route, h)
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

func TestRespondError_ClientErrorKeepsMessage(t *testing.T) {
	w := serve(http.MethodGet, "/", "/", "", func(c *gin.Context) {
		respondError(c, errors.New(errors.ErrCodeValidation, "bad limit").WithDetail("limit=x"))
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, "COMMON_010", resp.Code)
	assert.Equal(t, "bad limit", resp.Message)
	assert.Equal(t, "limit=x", resp.Detail)
}

func TestRespondError_ServerErrorMasked(t *testing.T) {
	w := serve(http.MethodGet, "/", "/", "", func(c *gin.Context) {
		respondError(c, errors.New(errors.ErrCodeDBQueryError, "pq: relation results does not exist"))
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "relation")
}

func TestRespondError_ForeignError(t *testing.T) {
	w := serve(http.MethodGet, "/", "/", "", func(c *gin.Context) {
		respondError(c, stderrors.New("boom"))
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, errors.ErrCodeInternal.String(), resp.Code)
	assert.Equal(t, "internal server error", resp.Message)
}

func TestRespondError_NullGraphIsUnprocessable(t *testing.T) {
	w := serve(http.MethodGet, "/", "/", "", func(c *gin.Context) {
		respondError(c, errors.New(errors.ErrCodeNullGraph, "graph has no nodes"))
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

// ---------------------------------------------------------------------------
// Results
// ---------------------------------------------------------------------------

func TestResultHandler_GetResult(t *testing.T) {
	h := NewResultHandler(&fakeResults{results: map[string]*legislation.Result{
		"d1": {DocumentID: "d1", Status: legislation.StatusAnalyzed},
	}})

	w := serve(http.MethodGet, "/results/:id", "/results/d1", "", h.GetResult)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"document_id":"d1"`)

	w = serve(http.MethodGet, "/results/:id", "/results/missing", "", h.GetResult)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestResultHandler_Disabled(t *testing.T) {
	w := serve(http.MethodGet, "/results/:id", "/results/d1", "", NewResultHandler(nil).GetResult)
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestResultHandler_ListResults_Filter(t *testing.T) {
	repo := &fakeResults{results: map[string]*legislation.Result{"d1": {DocumentID: "d1"}}}
	h := NewResultHandler(repo)

	w := serve(http.MethodGet, "/results", "/results?variant=density&status=empty&limit=5000&offset=10", "", h.ListResults)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, legislation.ResultFilter{
		Variant: legislation.VariantDensity,
		Status:  legislation.StatusEmpty,
		Limit:   maxPageSize,
		Offset:  10,
	}, repo.lastFilter)

	var resp struct {
		Items []legislation.Result `json:"items"`
		Total int64                `json:"total"`
		Limit int                  `json:"limit"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Items, 1)
	assert.Equal(t, int64(1), resp.Total)
	assert.Equal(t, maxPageSize, resp.Limit)
}

func TestResultHandler_ListResults_Defaults(t *testing.T) {
	repo := &fakeResults{}
	w := serve(http.MethodGet, "/results", "/results", "", NewResultHandler(repo).ListResults)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, defaultPageSize, repo.lastFilter.Limit)
	assert.Contains(t, w.Body.String(), `"items":[]`)
}

func TestResultHandler_ListResults_Invalid(t *testing.T) {
	h := NewResultHandler(&fakeResults{})
	for _, q := range []string{"variant=pagerank", "status=done", "limit=-1", "offset=x"} {
		w := serve(http.MethodGet, "/results", "/results?"+q, "", h.ListResults)
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}
}

// ---------------------------------------------------------------------------
// Analysis
// ---------------------------------------------------------------------------

func TestAnalysisHandler_Analyze(t *testing.T) {
	h := NewAnalysisHandler(fakeProcessor{}, fakeRanker{})
	w := serve(http.MethodPost, "/analyze", "/analyze", `{"id":"HR-1","title":"An Act"}`, h.Analyze)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"analyzed"`)
}

func TestAnalysisHandler_Analyze_BadBody(t *testing.T) {
	h := NewAnalysisHandler(fakeProcessor{}, fakeRanker{})

	w := serve(http.MethodPost, "/analyze", "/analyze", `{"id":`, h.Analyze)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(http.MethodPost, "/analyze", "/analyze", `{"title":"no id"}`, h.Analyze)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalysisHandler_Analyze_ParseFailure(t *testing.T) {
	h := NewAnalysisHandler(fakeProcessor{err: errors.New(errors.ErrCodeParseFailed, "no top-level header")}, fakeRanker{})
	w := serve(http.MethodPost, "/analyze", "/analyze", `{"id":"HR-1"}`, h.Analyze)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestAnalysisHandler_Centrality(t *testing.T) {
	h := NewAnalysisHandler(fakeProcessor{}, fakeRanker{})
	w := serve(http.MethodPost, "/centrality", "/centrality", `{"id":"HR-2"}`, h.Centrality)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"clustering":0.5`)

	h = NewAnalysisHandler(fakeProcessor{}, fakeRanker{err: errors.New(errors.ErrCodeNullGraph, "graph has no nodes")})
	w = serve(http.MethodPost, "/centrality", "/centrality", `{"id":"HR-2"}`, h.Centrality)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

// ---------------------------------------------------------------------------
// Graphs
// ---------------------------------------------------------------------------

func TestGraphHandler_GetGraph(t *testing.T) {
	archive := fakeArchive{data: map[string][]byte{
		pipeline.AnnualArchiveKey("d1"): []byte(`{"nodes":[],"edges":[]}`),
	}}
	h := NewGraphHandler(archive, nil, nil)

	w := serve(http.MethodGet, "/graphs/:id", "/graphs/d1", "", h.GetGraph)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"nodes":[],"edges":[]}`, w.Body.String())

	w = serve(http.MethodGet, "/graphs/:id", "/graphs/d2", "", h.GetGraph)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGraphHandler_Neighbors(t *testing.T) {
	graphs := &fakeGraphs{}
	h := NewGraphHandler(nil, graphs, nil)

	w := serve(http.MethodGet, "/entities/:name/neighbors", "/entities/Department%20of%20Energy/neighbors?limit=3", "", h.Neighbors)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Department of Energy", graphs.lastEntity)
	assert.Contains(t, w.Body.String(), `"entity":"Senate"`)

	w = serve(http.MethodGet, "/entities/:name/neighbors", "/entities/x/neighbors?limit=abc", "", h.Neighbors)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGraphHandler_SearchSections(t *testing.T) {
	h := NewGraphHandler(nil, nil, fakeSections{})

	w := serve(http.MethodGet, "/sections/search", "/sections/search?q=secretary", "", h.SearchSections)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"score":10`)

	w = serve(http.MethodGet, "/sections/search", "/sections/search?q=+", "", h.SearchSections)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	h = NewGraphHandler(nil, nil, fakeSections{err: errors.New(errors.ErrCodeSearchError, "cluster down")})
	w = serve(http.MethodGet, "/sections/search", "/sections/search?q=x", "", h.SearchSections)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestGraphHandler_Disabled(t *testing.T) {
	h := NewGraphHandler(nil, nil, nil)
	assert.Equal(t, http.StatusNotImplemented, serve(http.MethodGet, "/g/:id", "/g/d1", "", h.GetGraph).Code)
	assert.Equal(t, http.StatusNotImplemented, serve(http.MethodGet, "/e/:name", "/e/x", "", h.Neighbors).Code)
	assert.Equal(t, http.StatusNotImplemented, serve(http.MethodGet, "/s", "/s?q=x", "", h.SearchSections).Code)
}

// ---------------------------------------------------------------------------
// Health
// ---------------------------------------------------------------------------

func TestHealthHandler_Liveness(t *testing.T) {
	h := NewHealthHandler("1.2.3", fakeChecker{name: "postgres", err: stderrors.New("down")})
	w := serve(http.MethodGet, "/healthz", "/healthz", "", h.Liveness)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"version":"1.2.3"`)
}

func TestHealthHandler_Readiness(t *testing.T) {
	var mu sync.Mutex
	observed := map[string]bool{}
	h := NewHealthHandler("v", fakeChecker{name: "postgres"}, fakeChecker{name: "redis", err: stderrors.New("refused")}).
		WithObserver(func(component string, healthy bool) {
			mu.Lock()
			defer mu.Unlock()
			observed[component] = healthy
		})

	w := serve(http.MethodGet, "/readyz", "/readyz", "", h.Readiness)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp ReadinessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "not_ready", resp.Status)
	assert.Equal(t, "healthy", resp.Components["postgres"].Status)
	assert.Equal(t, "refused", resp.Components["redis"].Error)
	assert.Equal(t, map[string]bool{"postgres": true, "redis": false}, observed)
}

func TestHealthHandler_Readiness_NoCheckers(t *testing.T) {
	w := serve(http.MethodGet, "/readyz", "/readyz", "", NewHealthHandler("v").Readiness)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ready"`)
}

//Personal.AI order the ending
