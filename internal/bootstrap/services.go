package bootstrap

import (
	"os"

	"github.com/turtacn/LegisGraph/internal/application/auxiliary"
	"github.com/turtacn/LegisGraph/internal/application/pipeline"
	"github.com/turtacn/LegisGraph/internal/config"
	"github.com/turtacn/LegisGraph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/LegisGraph/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/LegisGraph/internal/intelligence/common"
	"github.com/turtacn/LegisGraph/internal/intelligence/entity"
	"github.com/turtacn/LegisGraph/internal/intelligence/jurisdiction"
	"github.com/turtacn/LegisGraph/pkg/errors"
)

// Metrics bundles the collector and the application metrics registered on
// it.  Both are nil when metrics are disabled.
type Metrics struct {
	Collector prometheus.MetricsCollector
	App       *prometheus.AppMetrics
}

// NewMetrics creates the collector for cfg.
func NewMetrics(cfg config.MetricsConfig, logger logging.Logger) (*Metrics, error) {
	if !cfg.Enabled {
		return &Metrics{}, nil
	}
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:            cfg.Namespace,
		EnableGoMetrics:      true,
		EnableProcessMetrics: true,
	}, logger)
	if err != nil {
		return nil, err
	}
	return &Metrics{Collector: collector, App: prometheus.NewAppMetrics(collector)}, nil
}

// Pipeline returns the pipeline telemetry sink, a no-op when disabled.
func (m *Metrics) Pipeline() pipeline.Metrics {
	if m == nil || m.App == nil {
		return pipeline.NopMetrics()
	}
	return m.App
}

// Analyzer is a pipeline analyzer plus the remote tagger connection it may
// own.
type Analyzer struct {
	*pipeline.Analyzer
	serving *common.GRPCServingClient
}

// Close releases the tagger connection, if any.
func (a *Analyzer) Close() error {
	if a.serving == nil {
		return nil
	}
	return a.serving.Close()
}

// NewAnalyzer builds the analyzer for the configured jurisdiction and
// recognizer.
func NewAnalyzer(cfg *config.Config, logger logging.Logger, metrics *Metrics) (*Analyzer, error) {
	jur, err := jurisdiction.FromName(cfg.Pipeline.Jurisdiction)
	if err != nil {
		return nil, err
	}
	kind, err := entity.ParseRecognizerKind(cfg.Pipeline.Recognizer)
	if err != nil {
		return nil, err
	}

	out := &Analyzer{}
	var recognizer entity.Recognizer
	switch kind {
	case entity.RecognizerGrammar:
		grammar, err := entity.ParseChunkGrammar(entity.DefaultInstitutionGrammar)
		if err != nil {
			return nil, err
		}
		recognizer = entity.NewGrammarRecognizer(entity.NewProsePOSTagger(), grammar)
	case entity.RecognizerNER:
		opts := []common.ServingOption{common.WithServingLogger(logger.Named("ner"))}
		if metrics != nil && metrics.Collector != nil {
			im, err := common.NewPrometheusInferenceMetrics(metrics.Collector.Registerer())
			if err != nil {
				return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "register ner metrics")
			}
			opts = append(opts, common.WithInferenceMetrics(im))
		}
		out.serving, err = common.NewGRPCServingClient(common.ServingConfig{
			Endpoint: cfg.NER.Endpoint,
			Timeout:  cfg.NER.Timeout,
			Insecure: cfg.NER.Insecure,
		}, opts...)
		if err != nil {
			return nil, err
		}
		recognizer = entity.NewNERRecognizer(common.NewRemoteTagger(out.serving, cfg.NER.Model))
	}

	out.Analyzer = pipeline.NewAnalyzer(jur, recognizer, logger.Named("analyzer"), metrics.Pipeline())
	return out, nil
}

// LoadAux reads the auxiliary tables from cfg.Pipeline.AuxDir.  A missing
// directory yields no table.
func LoadAux(cfg *config.Config, logger logging.Logger) (*auxiliary.Table, error) {
	dir := cfg.Pipeline.AuxDir
	if dir == "" {
		return nil, nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		logger.Warn("auxiliary directory not found, skipping join", logging.String("dir", dir))
		return nil, nil
	}
	return auxiliary.LoadDir(dir, cfg.Pipeline.Country, logger)
}

// NewAnnualService wires the annual pipeline over infra.
func NewAnnualService(cfg *config.Config, analyzer *Analyzer, infra *Infrastructure, logger logging.Logger, metrics *Metrics) (*pipeline.AnnualService, error) {
	variant, err := pipeline.ParseVariant(cfg.Pipeline.Variant)
	if err != nil {
		return nil, err
	}
	policy, err := pipeline.ParseFailedParsePolicy(cfg.Pipeline.FailedParsePolicy)
	if err != nil {
		return nil, err
	}
	aux, err := LoadAux(cfg, logger)
	if err != nil {
		return nil, err
	}
	var backends pipeline.Backends
	if infra != nil {
		backends = infra.Backends
	}
	return pipeline.NewAnnualService(analyzer.Analyzer, backends, pipeline.AnnualOptions{
		Variant:           variant,
		Workers:           cfg.Pipeline.Workers,
		FailedParsePolicy: policy,
		Aux:               aux,
	}, logger, metrics.Pipeline()), nil
}

// NewConsolidatedService wires the consolidated-code pipeline over infra.
func NewConsolidatedService(analyzer *Analyzer, infra *Infrastructure, logger logging.Logger, metrics *Metrics) *pipeline.ConsolidatedService {
	var backends pipeline.Backends
	if infra != nil {
		backends = infra.Backends
	}
	return pipeline.NewConsolidatedService(analyzer.Analyzer, backends, logger, metrics.Pipeline())
}

//Personal.AI order the ending
