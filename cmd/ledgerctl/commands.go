package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/google/subcommands"

	"helpinvest/internal/app"
	"helpinvest/internal/config"
	"helpinvest/internal/database"
	"helpinvest/internal/logger"
)

var commands = []subcommands.Command{
	&migrateUpCmd{},
	&migrateDownCmd{},
	&migrateVersionCmd{},
	&seedCmd{},
	&snapshotCmd{},
}

// fail reports err on stderr and returns ExitFailure.
func fail(err error) subcommands.ExitStatus {
	fmt.Fprintln(os.Stderr, err)
	return subcommands.ExitFailure
}

// withMigrator opens a golang-migrate instance for the configured database.
func withMigrator(fn func(*migrate.Migrate) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	mig, err := database.NewMigrator(database.NewConfig(cfg))
	if err != nil {
		return err
	}
	defer database.CloseMigrator(mig)
	return fn(mig)
}

// withApp builds the full service graph for commands that touch data.
func withApp(ctx context.Context, fn func(*app.App) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Get().Warnw("error closing resources", "error", err)
		}
	}()
	return fn(a)
}

type migrateUpCmd struct{}

func (*migrateUpCmd) Name() string     { return "migrate-up" }
func (*migrateUpCmd) Synopsis() string { return "apply all pending schema migrations" }
func (*migrateUpCmd) Usage() string {
	return `ledgerctl migrate-up

  Applies the embedded SQL migrations on postgres. MySQL and SQLite
  databases are synchronized with the models instead.
`
}
func (*migrateUpCmd) SetFlags(*flag.FlagSet) {}

func (*migrateUpCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	err := withApp(ctx, func(a *app.App) error {
		return a.Database.RunMigrations()
	})
	if err != nil {
		return fail(err)
	}
	logger.Get().Info("Migrations applied successfully")
	return subcommands.ExitSuccess
}

type migrateDownCmd struct {
	steps int
}

func (*migrateDownCmd) Name() string     { return "migrate-down" }
func (*migrateDownCmd) Synopsis() string { return "roll back schema migrations (postgres only)" }
func (*migrateDownCmd) Usage() string {
	return `ledgerctl migrate-down [-steps N]

  Rolls back the last N migrations.
`
}

func (c *migrateDownCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.steps, "steps", 1, "Number of migrations to roll back.")
}

func (c *migrateDownCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.steps < 1 {
		return fail(fmt.Errorf("invalid step count %d", c.steps))
	}
	err := withMigrator(func(mig *migrate.Migrate) error {
		if err := mig.Steps(-c.steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migration down failed: %w", err)
		}
		return nil
	})
	if err != nil {
		return fail(err)
	}
	logger.Get().Infof("Rolled back %d migration(s)", c.steps)
	return subcommands.ExitSuccess
}

type migrateVersionCmd struct{}

func (*migrateVersionCmd) Name() string           { return "migrate-version" }
func (*migrateVersionCmd) Synopsis() string       { return "print the current schema version (postgres only)" }
func (*migrateVersionCmd) Usage() string          { return "ledgerctl migrate-version\n" }
func (*migrateVersionCmd) SetFlags(*flag.FlagSet) {}

func (*migrateVersionCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	err := withMigrator(func(mig *migrate.Migrate) error {
		version, dirty, err := mig.Version()
		if err != nil {
			return fmt.Errorf("failed to get version: %w", err)
		}
		fmt.Printf("version %d (dirty: %v)\n", version, dirty)
		return nil
	})
	if err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

type seedCmd struct{}

func (*seedCmd) Name() string           { return "seed" }
func (*seedCmd) Synopsis() string       { return "insert the default category taxonomy" }
func (*seedCmd) Usage() string          { return "ledgerctl seed\n\n  Does nothing when categories already exist.\n" }
func (*seedCmd) SetFlags(*flag.FlagSet) {}

func (*seedCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var created int
	err := withApp(ctx, func(a *app.App) error {
		n, err := a.Categories.Seed(ctx)
		created = n
		return err
	})
	if err != nil {
		return fail(err)
	}
	fmt.Printf("%d categories created\n", created)
	return subcommands.ExitSuccess
}

type snapshotCmd struct {
	at string
}

func (*snapshotCmd) Name() string     { return "snapshot" }
func (*snapshotCmd) Synopsis() string { return "record a portfolio snapshot for every user" }
func (*snapshotCmd) Usage() string {
	return `ledgerctl snapshot [-at <RFC3339 time>]

  Records one snapshot per active user. Running twice for the same
  instant overwrites the earlier values.
`
}

func (c *snapshotCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.at, "at", "", "Snapshot time in RFC3339 (defaults to now).")
}

func (c *snapshotCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	recordedAt := time.Now()
	if c.at != "" {
		parsed, err := time.Parse(time.RFC3339, c.at)
		if err != nil {
			return fail(fmt.Errorf("invalid -at value: %w", err))
		}
		recordedAt = parsed
	}

	var count int
	err := withApp(ctx, func(a *app.App) error {
		n, err := a.Snapshots.RecordSnapshots(ctx, recordedAt)
		count = n
		return err
	})
	if err != nil {
		return fail(err)
	}
	fmt.Printf("%d snapshots recorded at %s\n", count, recordedAt.UTC().Truncate(time.Second).Format(time.RFC3339))
	return subcommands.ExitSuccess
}
