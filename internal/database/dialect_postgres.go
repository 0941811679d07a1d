package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// PostgresDialect implements Dialect for PostgreSQL
type PostgresDialect struct{}

// NewPostgresDialect creates a new PostgreSQL dialect
func NewPostgresDialect() *PostgresDialect {
	return &PostgresDialect{}
}

func (d *PostgresDialect) Name() string       { return "postgres" }
func (d *PostgresDialect) DriverName() string { return "postgres" }

func (d *PostgresDialect) DSN(cfg DialectConfig) (string, error) {
	if cfg.URL == "" {
		return "", fmt.Errorf("postgres: database url is required")
	}
	return cfg.URL, nil
}

func (d *PostgresDialect) ConfigureConnection(db *sql.DB) error {
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)
	return nil
}

func (d *PostgresDialect) KeyType() string                { return "VARCHAR(64)" }
func (d *PostgresDialect) TextType() string               { return "TEXT" }
func (d *PostgresDialect) FloatType() string              { return "DOUBLE PRECISION" }
func (d *PostgresDialect) TimeType() string               { return "TIMESTAMPTZ" }
func (d *PostgresDialect) SupportsIndexIfNotExists() bool { return true }
