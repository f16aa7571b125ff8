package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/turtacn/LegisGraph/internal/infrastructure/database/postgres"
	"github.com/turtacn/LegisGraph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/LegisGraph/pkg/errors"
)

// NewMigrateCmd applies or rolls back the embedded postgres schema.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the result store schema",
	}
	cmd.AddCommand(newMigrateUpCmd(), newMigrateDownCmd())
	return cmd
}

func newMigrateUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd, func(m *postgres.Migrator) error {
				if err := m.Up(); err != nil {
					return err
				}
				PrintSuccess(cmd, "migrations applied")
				return nil
			})
		},
	}
}

func newMigrateDownCmd() *cobra.Command {
	var steps int
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back applied migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps < 1 {
				return errors.New(errors.ErrCodeValidation, "--steps must be at least 1")
			}
			return withMigrator(cmd, func(m *postgres.Migrator) error {
				if err := m.Down(steps); err != nil {
					return err
				}
				PrintSuccess(cmd, fmt.Sprintf("rolled back %d migration(s)", steps))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")
	return cmd
}

func withMigrator(cmd *cobra.Command, fn func(m *postgres.Migrator) error) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	pg := cliCtx.Config.Database.Postgres
	if !pg.Enabled {
		return errors.New(errors.ErrCodeFeatureDisabled, "postgres is not enabled (database.postgres.enabled)")
	}
	conn, err := postgres.NewConnection(pg, cliCtx.Logger.Named("postgres"))
	if err != nil {
		return err
	}
	defer conn.Close()

	m, err := postgres.NewMigrator(conn)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := m.Close(); cerr != nil {
			cliCtx.Logger.Warn("closing migrator", logging.Err(cerr))
		}
	}()
	return fn(m)
}

//Personal.AI order the ending
