package config

import (
	"time"

	"github.com/spf13/viper"
)

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultServerPort            = 8080
	DefaultServerMode            = "release"
	DefaultServerReadTimeout     = 15 * time.Second
	DefaultServerWriteTimeout    = 30 * time.Second
	DefaultServerShutdownTimeout = 30 * time.Second

	DefaultJurisdiction      = "us_annual"
	DefaultRecognizer        = "grammar"
	DefaultVariant           = "classification"
	DefaultCountry           = "UnitedStates"
	DefaultWorkers           = 4
	DefaultInputDir          = "./Legislative_Data/Legislation/UnitedStates/Annual"
	DefaultOutputDir         = "./Legislative_Data/Out"
	DefaultAuxDir            = "./Legislative_Data/Auxiliary"
	DefaultFailedParsePolicy = "empty"
	DefaultOutputFormat      = "csv"

	DefaultNERTimeout = 10 * time.Second
	DefaultNERModel   = "legis-ner"

	DefaultPGHost            = "localhost"
	DefaultPGPort            = 5432
	DefaultPGDBName          = "legisgraph"
	DefaultPGSSLMode         = "disable"
	DefaultPGMaxOpenConns    = 10
	DefaultPGMaxIdleConns    = 5
	DefaultPGConnMaxLifetime = 30 * time.Minute
	DefaultPGConnMaxIdleTime = 5 * time.Minute

	DefaultNeo4jURI               = "bolt://localhost:7687"
	DefaultNeo4jDatabase          = "neo4j"
	DefaultNeo4jPoolSize          = 50
	DefaultNeo4jConnectionTimeout = 30 * time.Second
	DefaultNeo4jMaxRetryTime      = 30 * time.Second

	DefaultRedisAddr       = "localhost:6379"
	DefaultRedisPoolSize   = 10
	DefaultRedisTimeout    = 5 * time.Second
	DefaultRedisDefaultTTL = 24 * time.Hour
	DefaultRedisKeyPrefix  = "legis:"

	DefaultMinIOEndpoint = "localhost:9000"
	DefaultMinIORegion   = "us-east-1"
	DefaultMinIOBucket   = "legis-graphs"

	DefaultKafkaBroker       = "localhost:9092"
	DefaultKafkaGroupID      = "legisgraph-worker"
	DefaultKafkaIngestTopic  = "legis.documents.ingest"
	DefaultKafkaFailedTopic  = "legis.documents.failed"
	DefaultKafkaResultsTopic = "legis.results.ready"
	DefaultKafkaMaxRetries   = 3
	DefaultKafkaRetryBackoff = 500 * time.Millisecond
	DefaultKafkaBatchSize    = 100
	DefaultKafkaBatchTimeout = time.Second
	DefaultKafkaReplication  = 1

	DefaultOpenSearchAddress = "http://localhost:9200"
	DefaultOpenSearchIndex   = "legis-sections"
	DefaultOpenSearchTimeout = 10 * time.Second

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultMetricsNamespace = "legisgraph"
	DefaultMetricsPath      = "/metrics"
	DefaultWorkerHealthPort = 9091
)

// ─────────────────────────────────────────────────────────────────────────────
// ApplyDefaults
// ─────────────────────────────────────────────────────────────────────────────

// ApplyDefaults fills every zero-value field in cfg with its default.  Fields
// already set are left unchanged so explicit configuration always wins.  It
// must run after unmarshalling and before Validate.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Server ────────────────────────────────────────────────────────────────
	setInt(&cfg.Server.Port, DefaultServerPort)
	setString(&cfg.Server.Mode, DefaultServerMode)
	setDuration(&cfg.Server.ReadTimeout, DefaultServerReadTimeout)
	setDuration(&cfg.Server.WriteTimeout, DefaultServerWriteTimeout)
	setDuration(&cfg.Server.ShutdownTimeout, DefaultServerShutdownTimeout)

	// ── Pipeline ──────────────────────────────────────────────────────────────
	setString(&cfg.Pipeline.Jurisdiction, DefaultJurisdiction)
	setString(&cfg.Pipeline.Recognizer, DefaultRecognizer)
	setString(&cfg.Pipeline.Variant, DefaultVariant)
	setString(&cfg.Pipeline.Country, DefaultCountry)
	setInt(&cfg.Pipeline.Workers, DefaultWorkers)
	setString(&cfg.Pipeline.InputDir, DefaultInputDir)
	setString(&cfg.Pipeline.OutputDir, DefaultOutputDir)
	setString(&cfg.Pipeline.AuxDir, DefaultAuxDir)
	setString(&cfg.Pipeline.FailedParsePolicy, DefaultFailedParsePolicy)
	setString(&cfg.Pipeline.OutputFormat, DefaultOutputFormat)

	// ── NER ───────────────────────────────────────────────────────────────────
	setDuration(&cfg.NER.Timeout, DefaultNERTimeout)
	setString(&cfg.NER.Model, DefaultNERModel)

	// ── Postgres ──────────────────────────────────────────────────────────────
	pg := &cfg.Database.Postgres
	setString(&pg.Host, DefaultPGHost)
	setInt(&pg.Port, DefaultPGPort)
	setString(&pg.DBName, DefaultPGDBName)
	setString(&pg.SSLMode, DefaultPGSSLMode)
	setInt(&pg.MaxOpenConns, DefaultPGMaxOpenConns)
	setInt(&pg.MaxIdleConns, DefaultPGMaxIdleConns)
	setDuration(&pg.ConnMaxLifetime, DefaultPGConnMaxLifetime)
	setDuration(&pg.ConnMaxIdleTime, DefaultPGConnMaxIdleTime)

	// ── Neo4j ─────────────────────────────────────────────────────────────────
	n := &cfg.Database.Neo4j
	setString(&n.URI, DefaultNeo4jURI)
	setString(&n.Database, DefaultNeo4jDatabase)
	setInt(&n.MaxConnectionPoolSize, DefaultNeo4jPoolSize)
	setDuration(&n.ConnectionTimeout, DefaultNeo4jConnectionTimeout)
	setDuration(&n.MaxTransactionRetryTime, DefaultNeo4jMaxRetryTime)

	// ── Redis ─────────────────────────────────────────────────────────────────
	r := &cfg.Database.Redis
	setString(&r.Addr, DefaultRedisAddr)
	setInt(&r.PoolSize, DefaultRedisPoolSize)
	setDuration(&r.DialTimeout, DefaultRedisTimeout)
	setDuration(&r.ReadTimeout, DefaultRedisTimeout)
	setDuration(&r.WriteTimeout, DefaultRedisTimeout)
	setDuration(&r.DefaultTTL, DefaultRedisDefaultTTL)
	setString(&r.KeyPrefix, DefaultRedisKeyPrefix)

	// ── MinIO ─────────────────────────────────────────────────────────────────
	m := &cfg.Storage.MinIO
	setString(&m.Endpoint, DefaultMinIOEndpoint)
	setString(&m.Region, DefaultMinIORegion)
	setString(&m.Bucket, DefaultMinIOBucket)

	// ── Kafka ─────────────────────────────────────────────────────────────────
	k := &cfg.Messaging.Kafka
	if len(k.Brokers) == 0 {
		k.Brokers = []string{DefaultKafkaBroker}
	}
	setString(&k.GroupID, DefaultKafkaGroupID)
	setString(&k.IngestTopic, DefaultKafkaIngestTopic)
	setString(&k.FailedTopic, DefaultKafkaFailedTopic)
	setString(&k.ResultsTopic, DefaultKafkaResultsTopic)
	setInt(&k.MaxRetries, DefaultKafkaMaxRetries)
	setDuration(&k.RetryBackoff, DefaultKafkaRetryBackoff)
	setInt(&k.BatchSize, DefaultKafkaBatchSize)
	setDuration(&k.BatchTimeout, DefaultKafkaBatchTimeout)
	setInt(&k.TopicReplication, DefaultKafkaReplication)

	// ── OpenSearch ────────────────────────────────────────────────────────────
	o := &cfg.Search.OpenSearch
	if len(o.Addresses) == 0 {
		o.Addresses = []string{DefaultOpenSearchAddress}
	}
	setString(&o.Index, DefaultOpenSearchIndex)
	setDuration(&o.Timeout, DefaultOpenSearchTimeout)

	// ── Monitoring ────────────────────────────────────────────────────────────
	setString(&cfg.Monitoring.Log.Level, DefaultLogLevel)
	setString(&cfg.Monitoring.Log.Format, DefaultLogFormat)
	setString(&cfg.Monitoring.Metrics.Namespace, DefaultMetricsNamespace)
	setString(&cfg.Monitoring.Metrics.Path, DefaultMetricsPath)
	setInt(&cfg.Monitoring.Metrics.HealthPort, DefaultWorkerHealthPort)
}

func setString(dst *string, def string) {
	if *dst == "" {
		*dst = def
	}
}

func setInt(dst *int, def int) {
	if *dst == 0 {
		*dst = def
	}
}

func setDuration(dst *time.Duration, def time.Duration) {
	if *dst == 0 {
		*dst = def
	}
}

// envKeys lists every leaf key so that viper's AutomaticEnv can resolve
// LEGIS_* variables even when no config file mentions the key.  Viper only
// consults the environment for keys it already knows about.
var envKeys = []string{
	"server.port", "server.mode", "server.read_timeout", "server.write_timeout", "server.shutdown_timeout", "server.grpc_port",
	"pipeline.jurisdiction", "pipeline.recognizer", "pipeline.variant", "pipeline.country", "pipeline.workers", "pipeline.input_dir",
	"pipeline.output_dir", "pipeline.aux_dir", "pipeline.failed_parse_policy", "pipeline.output_format",
	"pipeline.cache_results",
	"ner.endpoint", "ner.timeout", "ner.model", "ner.insecure",
	"database.postgres.enabled", "database.postgres.host", "database.postgres.port", "database.postgres.user",
	"database.postgres.password", "database.postgres.db_name", "database.postgres.ssl_mode",
	"database.postgres.max_open_conns", "database.postgres.max_idle_conns", "database.postgres.auto_migrate",
	"database.neo4j.enabled", "database.neo4j.uri", "database.neo4j.user", "database.neo4j.password",
	"database.neo4j.database",
	"database.redis.enabled", "database.redis.addr", "database.redis.password", "database.redis.db",
	"database.redis.key_prefix", "database.redis.default_ttl",
	"storage.minio.enabled", "storage.minio.endpoint", "storage.minio.access_key", "storage.minio.secret_key",
	"storage.minio.use_ssl", "storage.minio.region", "storage.minio.bucket",
	"messaging.kafka.enabled", "messaging.kafka.brokers", "messaging.kafka.group_id",
	"messaging.kafka.ingest_topic", "messaging.kafka.failed_topic", "messaging.kafka.results_topic",
	"messaging.kafka.max_retries", "messaging.kafka.skip_topic_setup", "messaging.kafka.topic_replication",
	"search.opensearch.enabled", "search.opensearch.addresses", "search.opensearch.username",
	"search.opensearch.password", "search.opensearch.index", "search.opensearch.insecure_skip_verify",
	"monitoring.log.level", "monitoring.log.format",
	"monitoring.metrics.enabled", "monitoring.metrics.namespace", "monitoring.metrics.path",
	"monitoring.metrics.health_port",
}

// bindEnvKeys registers every known key with v so that environment overrides
// are visible to Unmarshal.
func bindEnvKeys(v *viper.Viper) {
	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}
}

//Personal.AI order the ending
