package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteDialect implements Dialect for SQLite
type SQLiteDialect struct{}

// NewSQLiteDialect creates a new SQLite dialect
func NewSQLiteDialect() *SQLiteDialect {
	return &SQLiteDialect{}
}

func (d *SQLiteDialect) Name() string       { return "sqlite" }
func (d *SQLiteDialect) DriverName() string { return "sqlite3" }

// DSN creates the parent directory of the database file if needed
func (d *SQLiteDialect) DSN(cfg DialectConfig) (string, error) {
	if cfg.Path == "" {
		return "", fmt.Errorf("sqlite: database path is required")
	}
	if cfg.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
			return "", fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	return cfg.Path, nil
}

func (d *SQLiteDialect) ConfigureConnection(db *sql.DB) error {
	// SQLite doesn't support multiple writers
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	return nil
}

func (d *SQLiteDialect) KeyType() string                { return "TEXT" }
func (d *SQLiteDialect) TextType() string               { return "TEXT" }
func (d *SQLiteDialect) FloatType() string              { return "REAL" }
func (d *SQLiteDialect) TimeType() string               { return "TIMESTAMP" }
func (d *SQLiteDialect) SupportsIndexIfNotExists() bool { return true }
