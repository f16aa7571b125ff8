package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/LegisGraph/internal/config"
	"github.com/turtacn/LegisGraph/internal/domain/legislation"
	"github.com/turtacn/LegisGraph/internal/interfaces/http/handlers"
	"github.com/turtacn/LegisGraph/internal/interfaces/http/middleware"
	"github.com/turtacn/LegisGraph/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubResults struct{}

func (stubResults) SaveResult(context.Context, *legislation.Result) error { return nil }

func (stubResults) GetResult(_ context.Context, id string) (*legislation.Result, error) {
	if id == "d1" {
		return &legislation.Result{DocumentID: "d1"}, nil
	}
	return nil, errors.NotFound("result not found")
}

func (stubResults) ListResults(context.Context, legislation.ResultFilter) ([]*legislation.Result, int64, error) {
	return nil, 0, nil
}

type recordedRequest struct {
	method, path string
	status       int
}

type stubRecorder struct {
	mu   sync.Mutex
	seen []recordedRequest
}

func (s *stubRecorder) RecordHTTPRequest(method, path string, status int, _ time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = append(s.seen, recordedRequest{method, path, status})
}

func do(h http.Handler, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func TestNewRouter_Routes(t *testing.T) {
	r := NewRouter(RouterConfig{
		ResultHandler:  handlers.NewResultHandler(stubResults{}),
		GraphHandler:   handlers.NewGraphHandler(nil, nil, nil),
		HealthHandler:  handlers.NewHealthHandler("test"),
		MetricsHandler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("# metrics")) }),
	})

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/healthz").Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/readyz").Code)
	assert.Equal(t, "# metrics", do(r, http.MethodGet, "/metrics").Body.String())
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/api/v1/results/d1").Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/v1/results/zz").Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/api/v1/results").Code)
	assert.Equal(t, http.StatusNotImplemented, do(r, http.MethodGet, "/api/v1/graphs/d1").Code)
}

func TestNewRouter_NilHandlersLeaveRoutesUnregistered(t *testing.T) {
	r := NewRouter(RouterConfig{})
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/healthz").Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodPost, "/api/v1/analyze").Code)
}

func TestNewRouter_RequestID(t *testing.T) {
	r := NewRouter(RouterConfig{HealthHandler: handlers.NewHealthHandler("test")})

	w := do(r, http.MethodGet, "/healthz")
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(middleware.RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(middleware.RequestIDHeader))
}

func TestNewRouter_MetricsUseRouteTemplate(t *testing.T) {
	rec := &stubRecorder{}
	r := NewRouter(RouterConfig{ResultHandler: handlers.NewResultHandler(stubResults{}), Recorder: rec})

	do(r, http.MethodGet, "/api/v1/results/d1")
	do(r, http.MethodGet, "/nowhere")

	require.Len(t, rec.seen, 2)
	assert.Equal(t, recordedRequest{http.MethodGet, "/api/v1/results/:id", http.StatusOK}, rec.seen[0])
	assert.Equal(t, recordedRequest{http.MethodGet, "unmatched", http.StatusNotFound}, rec.seen[1])
}

func TestNewRouter_RecoversFromPanic(t *testing.T) {
	r := NewRouter(RouterConfig{})
	r.GET("/panic", func(*gin.Context) { panic("boom") })
	assert.Equal(t, http.StatusInternalServerError, do(r, http.MethodGet, "/panic").Code)
}

func TestServer_StartStop(t *testing.T) {
	s := NewServer(config.ServerConfig{Port: 0, ReadTimeout: time.Second, WriteTimeout: time.Second}, http.NotFoundHandler(), nil)
	assert.Equal(t, ":0", s.Addr())

	done := make(chan error, 1)
	go func() { done <- s.Start() }()
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, s.Stop(context.Background()))
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}

//Personal.AI order the ending
