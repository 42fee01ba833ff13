package database

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"

	"github.com/kava-labs/batch-api-service/logging"
)

// Migrate sets up and runs all migrations in the migrations model
// that haven't been run on the database being used by the batch service
// returning error (if any) and a list of migrations that have been
// run and any that were not.
// If db is nil there is nothing to migrate and an empty list is returned.
func Migrate(ctx context.Context, db *bun.DB, migrations migrate.Migrations, logger *logging.ServiceLogger) (*migrate.MigrationSlice, error) {
	if db == nil {
		return &migrate.MigrationSlice{}, nil
	}

	if logger == nil {
		logger = logging.Nop()
	}

	// set up migration config
	migrator := migrate.NewMigrator(db, &migrations)

	// create / verify tables used to tack migrations
	err := migrator.Init(ctx)

	if err != nil {
		return &migrate.MigrationSlice{}, err
	}

	// run all un-applied migrations
	group, err := migrator.Migrate(ctx)

	// if migration failed attempt to rollback so migrations can be re-attempted
	if err != nil {
		group, rollbackErr := migrator.Rollback(ctx)

		if rollbackErr != nil {
			return &migrate.MigrationSlice{}, fmt.Errorf("error %s rolling back after original error %s", rollbackErr, err)
		}

		if group.ID == 0 {
			return &migrate.MigrationSlice{}, fmt.Errorf("no groups to rollback after migration error %s", err)
		}

		return &migrate.MigrationSlice{}, fmt.Errorf("rolled back after migration error %s", err)
	}

	// get the status of all run and un-run migrations
	ms, err := migrator.MigrationsWithStatus(ctx)

	if err != nil {
		return &migrate.MigrationSlice{}, err
	}

	if group.ID == 0 {
		logger.Debug().Msg("there are no new migrations to run")
	} else {
		logger.Info().Str("group", group.String()).Msg("ran database migrations")
	}

	return &ms, nil
}
