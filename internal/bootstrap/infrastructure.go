// Package bootstrap builds the backends, services and metrics shared by the
// CLI, the API server and the worker from one loaded configuration.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/turtacn/LegisGraph/internal/application/pipeline"
	"github.com/turtacn/LegisGraph/internal/config"
	"github.com/turtacn/LegisGraph/internal/domain/legislation"
	neo4jdriver "github.com/turtacn/LegisGraph/internal/infrastructure/database/neo4j"
	neo4jrepo "github.com/turtacn/LegisGraph/internal/infrastructure/database/neo4j/repositories"
	"github.com/turtacn/LegisGraph/internal/infrastructure/database/postgres"
	pgrepo "github.com/turtacn/LegisGraph/internal/infrastructure/database/postgres/repositories"
	redisclient "github.com/turtacn/LegisGraph/internal/infrastructure/database/redis"
	"github.com/turtacn/LegisGraph/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/LegisGraph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/LegisGraph/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/LegisGraph/internal/infrastructure/search/opensearch"
	minioclient "github.com/turtacn/LegisGraph/internal/infrastructure/storage/minio"
)

// Infrastructure holds the clients of every enabled backend.  Disabled
// backends stay nil.
type Infrastructure struct {
	Postgres   *postgres.Connection
	Neo4j      *neo4jdriver.Driver
	Redis      *redisclient.Client
	MinIO      *minioclient.Client
	OpenSearch *opensearch.Client
	Producer   *kafka.Producer

	Sections *opensearch.SectionIndex
	Locks    *redisclient.LockFactory
	Backends pipeline.Backends

	logger logging.Logger
}

// NewInfrastructure connects every backend enabled in cfg.  On failure the
// backends opened so far are closed.
func NewInfrastructure(ctx context.Context, cfg *config.Config, logger logging.Logger, metrics *prometheus.AppMetrics) (infra *Infrastructure, err error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	infra = &Infrastructure{logger: logger}
	partial := infra
	defer func() {
		if err != nil {
			partial.Close()
			infra = nil
		}
	}()

	if pg := cfg.Database.Postgres; pg.Enabled {
		if infra.Postgres, err = postgres.NewConnection(pg, logger.Named("postgres")); err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		if pg.AutoMigrate {
			if err = postgres.RunMigrations(infra.Postgres); err != nil {
				return nil, fmt.Errorf("postgres migrations: %w", err)
			}
		}
		infra.Backends.Documents = pgrepo.NewDocumentRepository(infra.Postgres, logger)
		infra.Backends.Results = pgrepo.NewResultRepository(infra.Postgres, logger)
	}

	if cfg.Database.Neo4j.Enabled {
		if infra.Neo4j, err = neo4jdriver.NewDriver(cfg.Database.Neo4j, logger.Named("neo4j")); err != nil {
			return nil, fmt.Errorf("neo4j: %w", err)
		}
		if err = neo4jrepo.EnsureConstraints(ctx, infra.Neo4j); err != nil {
			return nil, fmt.Errorf("neo4j constraints: %w", err)
		}
		infra.Backends.Graphs = neo4jrepo.NewNeo4jGraphRepo(infra.Neo4j, logger)
	}

	if rc := cfg.Database.Redis; rc.Enabled {
		if infra.Redis, err = redisclient.NewClient(rc, logger.Named("redis")); err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		infra.Locks = redisclient.NewLockFactory(infra.Redis, logger)
		if cfg.Pipeline.CacheResults {
			var cache legislation.ResultCache = redisclient.NewResultCache(infra.Redis, logger,
				redisclient.WithPrefix(rc.KeyPrefix), redisclient.WithTTL(rc.DefaultTTL))
			if metrics != nil {
				cache = &meteredCache{inner: cache, metrics: metrics}
			}
			infra.Backends.Cache = cache
		}
	}

	if cfg.Storage.MinIO.Enabled {
		if infra.MinIO, err = minioclient.NewClient(cfg.Storage.MinIO, logger.Named("minio")); err != nil {
			return nil, fmt.Errorf("minio: %w", err)
		}
		infra.Backends.Archive = minioclient.NewStore(infra.MinIO, logger)
	}

	if oc := cfg.Search.OpenSearch; oc.Enabled {
		if infra.OpenSearch, err = opensearch.NewClient(opensearch.ClientConfigFromOpenSearch(oc), logger.Named("opensearch")); err != nil {
			return nil, fmt.Errorf("opensearch: %w", err)
		}
		infra.Sections = opensearch.NewSectionIndex(
			opensearch.NewIndexer(infra.OpenSearch, opensearch.IndexerConfig{}, logger),
			opensearch.NewSearcher(infra.OpenSearch, opensearch.SearcherConfig{}, logger),
			oc.Index, logger)
		if err = infra.Sections.EnsureIndex(ctx); err != nil {
			return nil, fmt.Errorf("opensearch index: %w", err)
		}
		infra.Backends.Index = infra.Sections
	}

	if kc := cfg.Messaging.Kafka; kc.Enabled {
		if !kc.SkipTopicSetup {
			if err = kafka.SetupTopics(ctx, kc, logger.Named("kafka")); err != nil {
				return nil, fmt.Errorf("kafka topics: %w", err)
			}
		}
		if infra.Producer, err = kafka.NewProducer(kafka.ProducerConfigFromKafka(kc), logger); err != nil {
			return nil, fmt.Errorf("kafka producer: %w", err)
		}
		infra.Backends.Publisher = infra.Producer
		if cfg.Pipeline.FailedParsePolicy == string(pipeline.PolicyRetry) {
			infra.Backends.Failed = infra.Producer
		}
	}

	logger.Info("infrastructure initialized",
		logging.Bool("postgres", infra.Postgres != nil),
		logging.Bool("neo4j", infra.Neo4j != nil),
		logging.Bool("redis", infra.Redis != nil),
		logging.Bool("minio", infra.MinIO != nil),
		logging.Bool("opensearch", infra.OpenSearch != nil),
		logging.Bool("kafka", infra.Producer != nil))
	return infra, nil
}

// Close releases every open backend in reverse dependency order.
func (i *Infrastructure) Close() {
	if i == nil {
		return
	}
	closeLogged := func(name string, fn func() error) {
		if err := fn(); err != nil {
			i.logger.Warn("close failed", logging.String("backend", name), logging.Err(err))
		}
	}
	if i.Producer != nil {
		closeLogged("kafka", i.Producer.Close)
	}
	if i.OpenSearch != nil {
		closeLogged("opensearch", i.OpenSearch.Close)
	}
	if i.Redis != nil {
		closeLogged("redis", i.Redis.Close)
	}
	if i.Neo4j != nil {
		closeLogged("neo4j", func() error { return i.Neo4j.Close(context.Background()) })
	}
	if i.Postgres != nil {
		closeLogged("postgres", i.Postgres.Close)
	}
}

// ---------------------------------------------------------------------------
// Health
// ---------------------------------------------------------------------------

// Check is one named dependency check.
type Check struct {
	name string
	run  func(ctx context.Context) error
}

func NewCheck(name string, run func(ctx context.Context) error) Check {
	return Check{name: name, run: run}
}

func (c Check) Name() string                    { return c.name }
func (c Check) Check(ctx context.Context) error { return c.run(ctx) }

// HealthChecks returns a check for every open backend.
func (i *Infrastructure) HealthChecks() []Check {
	var checks []Check
	if i.Postgres != nil {
		checks = append(checks, NewCheck("postgres", i.Postgres.HealthCheck))
	}
	if i.Neo4j != nil {
		checks = append(checks, NewCheck("neo4j", i.Neo4j.HealthCheck))
	}
	if i.Redis != nil {
		checks = append(checks, NewCheck("redis", i.Redis.Ping))
	}
	if i.MinIO != nil {
		checks = append(checks, NewCheck("minio", i.MinIO.HealthCheck))
	}
	if i.OpenSearch != nil {
		checks = append(checks, NewCheck("opensearch", i.OpenSearch.Ping))
	}
	return checks
}

// ---------------------------------------------------------------------------
// Cache metering
// ---------------------------------------------------------------------------

type meteredCache struct {
	inner   legislation.ResultCache
	metrics *prometheus.AppMetrics
}

func (c *meteredCache) GetResult(ctx context.Context, key string) (*legislation.Result, error) {
	res, err := c.inner.GetResult(ctx, key)
	c.metrics.RecordCacheLookup(err == nil && res != nil)
	return res, err
}

func (c *meteredCache) SetResult(ctx context.Context, key string, result *legislation.Result) error {
	return c.inner.SetResult(ctx, key, result)
}

//Personal.AI order the ending
