package postgres

import (
	"embed"
	stderrors "errors"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/turtacn/LegisGraph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/LegisGraph/pkg/errors"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// ─────────────────────────────────────────────────────────────────────────────
// Embedded schema migrations
// ─────────────────────────────────────────────────────────────────────────────

// Migrator applies the embedded schema migrations to an open connection.
type Migrator struct {
	m      *migrate.Migrate
	logger logging.Logger
}

// NewMigrator binds the embedded migrations to conn.
func NewMigrator(conn *Connection) (*Migrator, error) {
	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDBMigrationError, "failed to open embedded migrations")
	}
	driver, err := migratepgx.WithInstance(conn.DB(), &migratepgx.Config{})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDBMigrationError, "failed to create migration driver")
	}
	m, err := migrate.NewWithInstance("iofs", src, "pgx5", driver)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDBMigrationError, "failed to create migrate instance")
	}
	return &Migrator{m: m, logger: conn.logger.Named("migrate")}, nil
}

// Up applies every pending migration.  No pending migration is not an error.
func (g *Migrator) Up() error {
	if err := g.m.Up(); err != nil && !stderrors.Is(err, migrate.ErrNoChange) {
		version, _, _ := g.m.Version()
		return errors.Wrapf(err, errors.ErrCodeDBMigrationError, "failed to run migrations (current version: %d)", version)
	}
	g.logStatus("Database migrations completed")
	return nil
}

// Down rolls back steps migrations.
func (g *Migrator) Down(steps int) error {
	if steps <= 0 {
		return errors.New(errors.ErrCodeValidation, "steps must be greater than 0")
	}
	if err := g.m.Steps(-steps); err != nil {
		if stderrors.Is(err, migrate.ErrNoChange) {
			return errors.New(errors.ErrCodeDBMigrationError, "no migrations to roll back")
		}
		return errors.Wrapf(err, errors.ErrCodeDBMigrationError, "failed to rollback %d step(s)", steps)
	}
	g.logStatus("Database migrations rolled back")
	return nil
}

// Version returns the applied schema version and dirty flag.  A database
// without migrations reports version 0.
func (g *Migrator) Version() (uint, bool, error) {
	version, dirty, err := g.m.Version()
	if err != nil {
		if stderrors.Is(err, migrate.ErrNilVersion) {
			return 0, false, nil
		}
		return 0, false, errors.Wrap(err, errors.ErrCodeDBMigrationError, "failed to get migration version")
	}
	return version, dirty, nil
}

// Force sets the schema version without running migrations, clearing the
// dirty flag after a failed migration was repaired by hand.
func (g *Migrator) Force(version int) error {
	if err := g.m.Force(version); err != nil {
		return errors.Wrapf(err, errors.ErrCodeDBMigrationError, "failed to force version %d", version)
	}
	return nil
}

// Close releases the migration source and the database handle bound to it.
func (g *Migrator) Close() error {
	srcErr, dbErr := g.m.Close()
	if srcErr != nil {
		return srcErr
	}
	return dbErr
}

func (g *Migrator) logStatus(msg string) {
	version, dirty, err := g.Version()
	if err != nil {
		g.logger.Warn("Failed to get migration version", logging.Err(err))
		return
	}
	g.logger.Info(msg, logging.Int64("version", int64(version)), logging.Bool("dirty", dirty))
}

// RunMigrations applies every pending migration on conn.  The migrator is
// not closed, since closing it would close conn.
func RunMigrations(conn *Connection) error {
	g, err := NewMigrator(conn)
	if err != nil {
		return err
	}
	return g.Up()
}

//Personal.AI order the ending
