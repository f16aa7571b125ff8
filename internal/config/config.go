// Package config defines all configuration structures for LegisGraph.  No I/O
// or parsing logic lives in this file; only plain data types and validation.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/turtacn/LegisGraph/internal/infrastructure/monitoring/logging"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// ServerConfig holds HTTP API server tunables.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// GRPCPort serves the standard gRPC health service; 0 disables it.
	GRPCPort int `mapstructure:"grpc_port"`
}

// PipelineConfig selects the jurisdiction variant and batch behaviour.
type PipelineConfig struct {
	// Jurisdiction is the enumerated variant: "us_annual" | "us_consolidated".
	Jurisdiction string `mapstructure:"jurisdiction"`

	// Recognizer picks the entity candidate source: "grammar" runs the
	// proper-noun chunk grammar over POS tags, "ner" calls the remote tagger.
	Recognizer string `mapstructure:"recognizer"`

	// Variant is the statistics variant: "classification" or "density".
	Variant string `mapstructure:"variant"`

	// Country selects the auxiliary files whose names contain it.
	Country string `mapstructure:"country"`

	// Workers bounds how many independent documents run concurrently.
	Workers int `mapstructure:"workers"`

	InputDir  string `mapstructure:"input_dir"`
	OutputDir string `mapstructure:"output_dir"`
	AuxDir    string `mapstructure:"aux_dir"`

	// FailedParsePolicy is "empty" (record an empty result) or "retry"
	// (publish the document to the failed-parse queue).
	FailedParsePolicy string `mapstructure:"failed_parse_policy"`

	// OutputFormat is "csv" or "xlsx".
	OutputFormat string `mapstructure:"output_format"`

	// CacheResults enables the redis result cache keyed by content hash.
	CacheResults bool `mapstructure:"cache_results"`
}

// NERConfig points at the remote sequence tagger.
type NERConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Model    string        `mapstructure:"model"`
	Insecure bool          `mapstructure:"insecure"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"db_name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// Neo4jConfig holds the co-occurrence graph store connection parameters.
type Neo4jConfig struct {
	Enabled                 bool          `mapstructure:"enabled"`
	URI                     string        `mapstructure:"uri"`
	User                    string        `mapstructure:"user"`
	Password                string        `mapstructure:"password"`
	Database                string        `mapstructure:"database"`
	MaxConnectionPoolSize   int           `mapstructure:"max_connection_pool_size"`
	ConnectionTimeout       time.Duration `mapstructure:"connection_timeout"`
	MaxTransactionRetryTime time.Duration `mapstructure:"max_transaction_retry_time"`
}

// RedisConfig holds Redis connection parameters for the result cache.
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	DefaultTTL   time.Duration `mapstructure:"default_ttl"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// DatabaseConfig groups the persistent stores.
type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Neo4j    Neo4jConfig    `mapstructure:"neo4j"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// MinIOConfig holds object storage parameters for the graph archive.
type MinIOConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
}

// StorageConfig groups object storage settings.
type StorageConfig struct {
	MinIO MinIOConfig `mapstructure:"minio"`
}

// KafkaConfig holds Kafka producer/consumer parameters.
type KafkaConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Brokers      []string      `mapstructure:"brokers"`
	GroupID      string        `mapstructure:"group_id"`
	IngestTopic  string        `mapstructure:"ingest_topic"`
	FailedTopic  string        `mapstructure:"failed_topic"`
	ResultsTopic string        `mapstructure:"results_topic"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	BatchSize    int           `mapstructure:"batch_size"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
	// SkipTopicSetup leaves topic creation to the operator.
	SkipTopicSetup   bool `mapstructure:"skip_topic_setup"`
	TopicReplication int  `mapstructure:"topic_replication"`
}

// MessagingConfig groups messaging settings.
type MessagingConfig struct {
	Kafka KafkaConfig `mapstructure:"kafka"`
}

// OpenSearchConfig holds the section index parameters.
type OpenSearchConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	Addresses          []string      `mapstructure:"addresses"`
	Username           string        `mapstructure:"username"`
	Password           string        `mapstructure:"password"`
	Index              string        `mapstructure:"index"`
	InsecureSkipVerify bool          `mapstructure:"insecure_skip_verify"`
	Timeout            time.Duration `mapstructure:"timeout"`
}

// SearchConfig groups search settings.
type SearchConfig struct {
	OpenSearch OpenSearchConfig `mapstructure:"opensearch"`
}

// MetricsConfig controls the Prometheus collector.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
	Path      string `mapstructure:"path"`
	// HealthPort is the worker's health/metrics listener.
	HealthPort int `mapstructure:"health_port"`
}

// MonitoringConfig groups logging and metrics.
type MonitoringConfig struct {
	Log     logging.LogConfig `mapstructure:"log"`
	Metrics MetricsConfig     `mapstructure:"metrics"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root configuration
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration object.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Pipeline   PipelineConfig   `mapstructure:"pipeline"`
	NER        NERConfig        `mapstructure:"ner"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Messaging  MessagingConfig  `mapstructure:"messaging"`
	Search     SearchConfig     `mapstructure:"search"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
}

// Enumerated values accepted by Validate.
var (
	validJurisdictions = []string{"us_annual", "us_consolidated"}
	validRecognizers   = []string{"grammar", "ner"}
	validVariants      = []string{"classification", "density"}
	validParsePolicies = []string{"empty", "retry"}
	validOutputFormats = []string{"csv", "xlsx"}
	validServerModes   = []string{"debug", "release", "test"}
)

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

// Validate checks cross-field constraints after defaults have been applied.
// Every error is prefixed with the offending key.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d out of range", c.Server.Port)
	}
	if c.Server.GRPCPort < 0 || c.Server.GRPCPort > 65535 {
		return fmt.Errorf("config: server.grpc_port %d out of range", c.Server.GRPCPort)
	}
	if !oneOf(c.Server.Mode, validServerModes) {
		return fmt.Errorf("config: server.mode must be one of %s, got %q", strings.Join(validServerModes, "|"), c.Server.Mode)
	}

	p := c.Pipeline
	if !oneOf(p.Jurisdiction, validJurisdictions) {
		return fmt.Errorf("config: pipeline.jurisdiction must be one of %s, got %q", strings.Join(validJurisdictions, "|"), p.Jurisdiction)
	}
	if !oneOf(p.Recognizer, validRecognizers) {
		return fmt.Errorf("config: pipeline.recognizer must be one of %s, got %q", strings.Join(validRecognizers, "|"), p.Recognizer)
	}
	if !oneOf(p.Variant, validVariants) {
		return fmt.Errorf("config: pipeline.variant must be one of %s, got %q", strings.Join(validVariants, "|"), p.Variant)
	}
	if p.Workers < 1 {
		return fmt.Errorf("config: pipeline.workers must be >= 1, got %d", p.Workers)
	}
	if !oneOf(p.FailedParsePolicy, validParsePolicies) {
		return fmt.Errorf("config: pipeline.failed_parse_policy must be one of %s, got %q", strings.Join(validParsePolicies, "|"), p.FailedParsePolicy)
	}
	if !oneOf(p.OutputFormat, validOutputFormats) {
		return fmt.Errorf("config: pipeline.output_format must be one of %s, got %q", strings.Join(validOutputFormats, "|"), p.OutputFormat)
	}
	if p.Recognizer == "ner" && c.NER.Endpoint == "" {
		return fmt.Errorf("config: ner.endpoint is required when pipeline.recognizer is \"ner\"")
	}
	if p.FailedParsePolicy == "retry" && !c.Messaging.Kafka.Enabled {
		return fmt.Errorf("config: pipeline.failed_parse_policy \"retry\" requires messaging.kafka.enabled")
	}
	if p.CacheResults && !c.Database.Redis.Enabled {
		return fmt.Errorf("config: pipeline.cache_results requires database.redis.enabled")
	}

	if pg := c.Database.Postgres; pg.Enabled {
		if pg.Host == "" || pg.DBName == "" {
			return fmt.Errorf("config: database.postgres.host and db_name are required when enabled")
		}
		if pg.Port <= 0 || pg.Port > 65535 {
			return fmt.Errorf("config: database.postgres.port %d out of range", pg.Port)
		}
	}
	if n := c.Database.Neo4j; n.Enabled && n.URI == "" {
		return fmt.Errorf("config: database.neo4j.uri is required when enabled")
	}
	if r := c.Database.Redis; r.Enabled && r.Addr == "" {
		return fmt.Errorf("config: database.redis.addr is required when enabled")
	}
	if m := c.Storage.MinIO; m.Enabled && (m.Endpoint == "" || m.Bucket == "") {
		return fmt.Errorf("config: storage.minio.endpoint and bucket are required when enabled")
	}
	if k := c.Messaging.Kafka; k.Enabled {
		if len(k.Brokers) == 0 {
			return fmt.Errorf("config: messaging.kafka.brokers must not be empty when enabled")
		}
		if k.IngestTopic == "" || k.FailedTopic == "" || k.ResultsTopic == "" {
			return fmt.Errorf("config: messaging.kafka topics must be set when enabled")
		}
		if k.TopicReplication < 1 {
			return fmt.Errorf("config: messaging.kafka.topic_replication must be at least 1, got %d", k.TopicReplication)
		}
	}
	if o := c.Search.OpenSearch; o.Enabled && (len(o.Addresses) == 0 || o.Index == "") {
		return fmt.Errorf("config: search.opensearch.addresses and index are required when enabled")
	}
	if _, ok := logging.ParseLevel(c.Monitoring.Log.Level); !ok {
		return fmt.Errorf("config: monitoring.log.level %q is not a known level", c.Monitoring.Log.Level)
	}
	if f := c.Monitoring.Log.Format; f != "json" && f != "console" {
		return fmt.Errorf("config: monitoring.log.format must be json|console, got %q", f)
	}
	return nil
}

//Personal.AI order the ending
