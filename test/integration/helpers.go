//go:build integration

// Package integration runs the annual pipeline against real backends.  The
// backends come from the usual LEGIS_* environment (or the file named by
// LEGIS_TEST_CONFIG); tests needing a disabled backend skip themselves.
//
//	LEGIS_INTEGRATION_TEST=1 \
//	LEGIS_DATABASE_POSTGRES_ENABLED=true LEGIS_DATABASE_POSTGRES_HOST=localhost \
//	go test -tags integration ./test/integration/...
package integration

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/turtacn/LegisGraph/internal/application/pipeline"
	"github.com/turtacn/LegisGraph/internal/bootstrap"
	"github.com/turtacn/LegisGraph/internal/config"
	"github.com/turtacn/LegisGraph/internal/domain/legislation"
	"github.com/turtacn/LegisGraph/internal/infrastructure/monitoring/logging"
)

const (
	// EnvIntegrationEnabled controls whether integration tests run.
	EnvIntegrationEnabled = "LEGIS_INTEGRATION_TEST"

	// EnvConfigPath optionally names a config file.
	EnvConfigPath = "LEGIS_TEST_CONFIG"

	SetupTimeout = 60 * time.Second
)

// SkipIfNoIntegration skips the calling test when the integration flag is unset.
func SkipIfNoIntegration(t *testing.T) {
	t.Helper()
	if os.Getenv(EnvIntegrationEnabled) == "" {
		t.Skipf("integration tests disabled; set %s=1", EnvIntegrationEnabled)
	}
}

// TestEnvironment is the shared backend set and the services wired on it.
type TestEnvironment struct {
	Config   *config.Config
	Logger   logging.Logger
	Infra    *bootstrap.Infrastructure
	Analyzer *bootstrap.Analyzer
	Annual   *pipeline.AnnualService
}

var (
	envOnce   sync.Once
	sharedEnv *TestEnvironment
	envErr    error
)

// SetupTestEnvironment builds the environment once per test binary.
func SetupTestEnvironment(t *testing.T) *TestEnvironment {
	t.Helper()
	SkipIfNoIntegration(t)
	envOnce.Do(func() {
		sharedEnv, envErr = buildTestEnvironment()
	})
	require.NoError(t, envErr, "integration environment")
	return sharedEnv
}

func buildTestEnvironment() (*TestEnvironment, error) {
	var opts []config.LoadOption
	if path := os.Getenv(EnvConfigPath); path != "" {
		opts = append(opts, config.WithConfigPath(path))
	}
	cfg, err := config.Load(opts...)
	if err != nil {
		return nil, err
	}
	cfg.Database.Postgres.AutoMigrate = true

	logger, err := logging.NewLogger(logging.LogConfig{Level: logging.LevelWarn, Format: "console"})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), SetupTimeout)
	defer cancel()

	infra, err := bootstrap.NewInfrastructure(ctx, cfg, logger, nil)
	if err != nil {
		return nil, err
	}
	analyzer, err := bootstrap.NewAnalyzer(cfg, logger, nil)
	if err != nil {
		infra.Close()
		return nil, err
	}
	annual, err := bootstrap.NewAnnualService(cfg, analyzer, infra, logger, nil)
	if err != nil {
		infra.Close()
		return nil, err
	}
	return &TestEnvironment{Config: cfg, Logger: logger, Infra: infra, Analyzer: analyzer, Annual: annual}, nil
}

// ---------------------------------------------------------------------------
// Backend requirements
// ---------------------------------------------------------------------------

func RequirePostgres(t *testing.T, env *TestEnvironment) {
	t.Helper()
	if env.Infra.Postgres == nil {
		t.Skip("postgres disabled")
	}
}

func RequireNeo4j(t *testing.T, env *TestEnvironment) {
	t.Helper()
	if env.Infra.Neo4j == nil {
		t.Skip("neo4j disabled")
	}
}

func RequireRedis(t *testing.T, env *TestEnvironment) {
	t.Helper()
	if env.Infra.Redis == nil {
		t.Skip("redis disabled")
	}
}

func RequireOpenSearch(t *testing.T, env *TestEnvironment) {
	t.Helper()
	if env.Infra.OpenSearch == nil {
		t.Skip("opensearch disabled")
	}
}

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

var testSeq atomic.Int64

// NextTestID returns an identifier unique to this run.
func NextTestID(prefix string) string {
	return fmt.Sprintf("%s-%d-%d", prefix, time.Now().UnixNano(), testSeq.Add(1))
}

// NewTestDocument returns a pre-parsed public law naming two agencies in one
// section.
func NewTestDocument(id string) *legislation.Document {
	return &legislation.Document{
		ID:      id,
		Country: "usa",
		Title:   "An Act to reorganize energy research",
		Date:    "2010-03-03",
		Subtype: "law",
		Parsed: []legislation.Row{
			{Level: 0, Label: "SEC. 1", SectionNumber: "1", FieldType: legislation.FieldTitle, Text: "Short title."},
			{Level: 0, Label: "SEC. 1", SectionNumber: "1", FieldType: legislation.FieldBody,
				Text: "The Secretary of Energy shall consult the Department of Defense and the National Science Foundation."},
		},
	}
}

//Personal.AI order the ending
