package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5" // registers pgx5://
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"catalogstore/pkg/logger"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// MigrateUp applies every pending migration. An up-to-date database is a no-op.
func MigrateUp(ctx context.Context, dsn string) error {
	return runMigrations(ctx, dsn, func(m *migrate.Migrate) error { return m.Up() })
}

// MigrateDown rolls back the last steps migrations.
func MigrateDown(ctx context.Context, dsn string, steps int) error {
	if steps <= 0 {
		return fmt.Errorf("migrate down: steps must be positive, got %d", steps)
	}
	return runMigrations(ctx, dsn, func(m *migrate.Migrate) error { return m.Steps(-steps) })
}

func runMigrations(ctx context.Context, dsn string, run func(*migrate.Migrate) error) error {
	m, err := newMigrator(ctx, dsn)
	if err != nil {
		return err
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			logger.Warn(ctx, "close migrator", "source_error", srcErr, "database_error", dbErr)
		}
	}()

	// migrate has no context support; stop between migrations on cancel
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			m.GracefulStop <- true
		case <-done:
		}
	}()

	err = run(m)
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		logger.Info(ctx, "schema up to date")
	case err != nil:
		return fmt.Errorf("migrate: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("read schema version: %w", err)
	}
	logger.Info(ctx, "schema migrated", "version", version, "dirty", dirty)
	return nil
}

func newMigrator(ctx context.Context, dsn string) (*migrate.Migrate, error) {
	target, err := migrationURL(dsn)
	if err != nil {
		return nil, err
	}
	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("open migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, target)
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	m.Log = migrateLogger{ctx: ctx}
	return m, nil
}

// migrationURL rewrites a postgres:// DSN to the pgx5:// scheme the
// migrate driver registers.
func migrationURL(dsn string) (string, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("parse database url: %w", err)
	}
	switch u.Scheme {
	case "postgres", "postgresql":
		u.Scheme = "pgx5"
	default:
		return "", fmt.Errorf("migrations need a postgres:// url, got scheme %q", u.Scheme)
	}
	return u.String(), nil
}

// migrateLogger routes migrate's progress lines to the context logger.
type migrateLogger struct {
	ctx context.Context
}

func (l migrateLogger) Printf(format string, v ...any) {
	logger.Debug(l.ctx, strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l migrateLogger) Verbose() bool { return false }
