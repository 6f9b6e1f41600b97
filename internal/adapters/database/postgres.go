package database

import (
	"fmt"
	"time"

	"github.com/Amund211/autolru/internal/config"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const DB_NAME = "autolru"

const LOCAL_CONNECTION_STRING = "user=postgres password=postgres dbname=autolru sslmode=disable"

const MAIN_SCHEMA = "autolru"
const TESTING_SCHEMA = "autolru_test"

// Cache misses are the only source of queries, so a small pool is plenty
const (
	maxOpenConns    = 10
	maxIdleConns    = 5
	connMaxIdleTime = 5 * time.Minute
)

func GetSchemaName(isTesting bool) string {
	if isTesting {
		return TESTING_SCHEMA
	}
	return MAIN_SCHEMA
}

func NewPostgresDatabase(connectionString string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to db: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxIdleTime(connMaxIdleTime)

	if err := createDatabaseIfNotExists(db, DB_NAME); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create database: %w", err)
	}

	return db, nil
}

// NewPostgresDatabaseFromConfig connects to DATABASE_URL, or to a local postgres in development
func NewPostgresDatabaseFromConfig(conf config.Config) (*sqlx.DB, error) {
	connectionString := conf.DatabaseURL()
	if connectionString == "" {
		if !conf.IsDevelopment() {
			return nil, fmt.Errorf("missing database url in non-development environment")
		}
		connectionString = LOCAL_CONNECTION_STRING
	}

	db, err := NewPostgresDatabase(connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres database: %w", err)
	}

	return db, nil
}

func createDatabaseIfNotExists(db *sqlx.DB, dbName string) error {
	var exists bool
	err := db.Get(&exists, "SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)", dbName)
	if err != nil {
		return fmt.Errorf("createDB: failed to check if database exists: %w", err)
	}
	if exists {
		return nil
	}

	if _, err := db.Exec(fmt.Sprintf("CREATE DATABASE %s", pq.QuoteIdentifier(dbName))); err != nil {
		return fmt.Errorf("createDB: failed to create database: %w", err)
	}

	return nil
}
