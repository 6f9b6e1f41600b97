package database

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

type Migrator struct {
	db *sqlx.DB

	logger *slog.Logger
}

func NewDatabaseMigrator(db *sqlx.DB, logger *slog.Logger) *Migrator {
	return &Migrator{
		db:     db,
		logger: logger,
	}
}

// Migrate creates schemaName if needed and applies every pending embedded migration to it
func (m *Migrator) Migrate(ctx context.Context, schemaName string) error {
	return m.withInstance(ctx, schemaName, func(instance *migrate.Migrate) error {
		from := describeVersion(instance)

		err := instance.Up()
		if errors.Is(err, migrate.ErrNoChange) {
			m.logger.InfoContext(ctx, "Schema is up to date", "schema", schemaName, "version", from)
			return nil
		}
		if err != nil {
			return fmt.Errorf("migrate: failed to migrate: %w", err)
		}

		m.logger.InfoContext(ctx, "Migrated schema", "schema", schemaName, "from", from, "to", describeVersion(instance))
		return nil
	})
}

// withInstance runs fn with a migrate instance bound to schemaName on a dedicated connection
func (m *Migrator) withInstance(ctx context.Context, schemaName string, fn func(instance *migrate.Migrate) error) error {
	conn, err := m.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("migrate: failed to connect to db: %w", err)
	}
	defer conn.Close()

	quotedSchema := pq.QuoteIdentifier(schemaName)
	if _, err := conn.ExecContext(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", quotedSchema)); err != nil {
		return fmt.Errorf("migrate: failed to create schema: %w", err)
	}
	if _, err := conn.ExecContext(ctx, fmt.Sprintf("SET search_path TO %s", quotedSchema)); err != nil {
		return fmt.Errorf("migrate: failed to set search path: %w", err)
	}

	source, err := iofs.New(embeddedMigrations, "migrations")
	if err != nil {
		return fmt.Errorf("migrate: failed to read embedded migrations: %w", err)
	}
	defer source.Close()

	driver, err := postgres.WithConnection(ctx, conn, &postgres.Config{
		DatabaseName: DB_NAME,
		SchemaName:   schemaName,
	})
	if err != nil {
		return fmt.Errorf("migrate: failed to create postgres driver: %w", err)
	}

	instance, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("migrate: failed to create migration instance: %w", err)
	}
	defer instance.Close()

	return fn(instance)
}

func describeVersion(instance *migrate.Migrate) string {
	version, dirty, err := instance.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		return "none"
	case err != nil:
		return "unknown"
	case dirty:
		return fmt.Sprintf("%d (dirty)", version)
	}
	return strconv.FormatUint(uint64(version), 10)
}
