package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/LegisGraph/internal/application/pipeline"
	"github.com/turtacn/LegisGraph/internal/config"
	"github.com/turtacn/LegisGraph/internal/domain/legislation"
	redisclient "github.com/turtacn/LegisGraph/internal/infrastructure/database/redis"
	"github.com/turtacn/LegisGraph/internal/infrastructure/monitoring/logging"
)

func testConfig(t *testing.T) *config.Config {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Pipeline.AuxDir = filepath.Join(t.TempDir(), "missing")
	return cfg
}

func TestNewMetrics_Disabled(t *testing.T) {
	m, err := NewMetrics(config.MetricsConfig{}, logging.NewNopLogger())
	require.NoError(t, err)
	assert.Nil(t, m.Collector)
	assert.Equal(t, pipeline.NopMetrics(), m.Pipeline())
}

func TestNewMetrics_Enabled(t *testing.T) {
	m, err := NewMetrics(config.MetricsConfig{Enabled: true, Namespace: "legisgraph"}, logging.NewNopLogger())
	require.NoError(t, err)
	require.NotNil(t, m.App)
	m.Pipeline().ParseFailed()

	w := httptest.NewRecorder()
	m.Collector.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, w.Body.String(), "legisgraph_parse_failures_total 1")
}

func TestNewAnalyzer_Grammar(t *testing.T) {
	a, err := NewAnalyzer(testConfig(t), logging.NewNopLogger(), nil)
	require.NoError(t, err)
	defer a.Close()
	assert.Equal(t, "us_annual", string(a.Jurisdiction().Kind()))
}

func TestNewAnalyzer_UnknownJurisdiction(t *testing.T) {
	cfg := testConfig(t)
	cfg.Pipeline.Jurisdiction = "uk_annual"
	_, err := NewAnalyzer(cfg, logging.NewNopLogger(), nil)
	assert.Error(t, err)
}

func TestNewAnalyzer_NERRequiresEndpoint(t *testing.T) {
	cfg := testConfig(t)
	cfg.Pipeline.Recognizer = "ner"
	_, err := NewAnalyzer(cfg, logging.NewNopLogger(), nil)
	assert.Error(t, err)
}

func TestNewAnnualService_NoBackends(t *testing.T) {
	cfg := testConfig(t)
	a, err := NewAnalyzer(cfg, logging.NewNopLogger(), nil)
	require.NoError(t, err)

	svc, err := NewAnnualService(cfg, a, nil, logging.NewNopLogger(), nil)
	require.NoError(t, err)

	doc := &legislation.Document{ID: "d1", Subtype: "law", Parsed: []legislation.Row{
		{Level: 0, Label: "SEC. 1", SectionNumber: "1", FieldType: legislation.FieldBody, Text: "The Secretary of Energy shall report to the Congress."},
	}}
	res, err := svc.Process(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, "d1", res.DocumentID)
	assert.Equal(t, legislation.VariantClassification, res.Variant)
}

func TestNewAnnualService_BadVariant(t *testing.T) {
	cfg := testConfig(t)
	cfg.Pipeline.Variant = "pagerank"
	a, err := NewAnalyzer(cfg, logging.NewNopLogger(), nil)
	require.NoError(t, err)
	_, err = NewAnnualService(cfg, a, nil, logging.NewNopLogger(), nil)
	assert.Error(t, err)
}

func TestNewInfrastructure_AllDisabled(t *testing.T) {
	infra, err := NewInfrastructure(context.Background(), testConfig(t), logging.NewNopLogger(), nil)
	require.NoError(t, err)
	defer infra.Close()
	assert.Empty(t, infra.HealthChecks())
	assert.Equal(t, pipeline.Backends{}, infra.Backends)
}

func TestNewInfrastructure_KafkaTopicSetupFails(t *testing.T) {
	cfg := testConfig(t)
	cfg.Messaging.Kafka.Enabled = true
	cfg.Messaging.Kafka.Brokers = []string{"127.0.0.1:1"}

	infra, err := NewInfrastructure(context.Background(), cfg, logging.NewNopLogger(), nil)
	require.Error(t, err)
	assert.Nil(t, infra)
	assert.Contains(t, err.Error(), "kafka topics")
}

type stubCache struct {
	res *legislation.Result
	err error
}

func (s *stubCache) GetResult(context.Context, string) (*legislation.Result, error) { return s.res, s.err }
func (s *stubCache) SetResult(context.Context, string, *legislation.Result) error  { return nil }

func TestMeteredCache(t *testing.T) {
	m, err := NewMetrics(config.MetricsConfig{Enabled: true, Namespace: "legisgraph"}, logging.NewNopLogger())
	require.NoError(t, err)

	hit := &meteredCache{inner: &stubCache{res: &legislation.Result{}}, metrics: m.App}
	miss := &meteredCache{inner: &stubCache{err: redisclient.ErrCacheMiss}, metrics: m.App}
	_, _ = hit.GetResult(context.Background(), "k")
	_, err = miss.GetResult(context.Background(), "k")
	assert.True(t, errors.Is(err, redisclient.ErrCacheMiss))

	w := httptest.NewRecorder()
	m.Collector.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, w.Body.String(), `legisgraph_cache_lookups_total{outcome="hit"} 1`)
	assert.Contains(t, w.Body.String(), `legisgraph_cache_lookups_total{outcome="miss"} 1`)
}

func TestCheck(t *testing.T) {
	c := NewCheck("postgres", func(context.Context) error { return errors.New("down") })
	assert.Equal(t, "postgres", c.Name())
	assert.EqualError(t, c.Check(context.Background()), "down")
}

//Personal.AI order the ending
