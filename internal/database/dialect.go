package database

import (
	"database/sql"
	"fmt"

	"github.com/example/srscore/internal/config"
)

// DialectConfig carries the connection settings a dialect turns into a DSN
type DialectConfig struct {
	Path string
	URL  string
}

// Dialect hides the differences between the supported SQL backends
type Dialect interface {
	Name() string
	DriverName() string
	DSN(cfg DialectConfig) (string, error)
	ConfigureConnection(db *sql.DB) error

	// column types used by the schema
	KeyType() string
	TextType() string
	FloatType() string
	TimeType() string

	// SupportsIndexIfNotExists reports whether CREATE INDEX IF NOT EXISTS is accepted
	SupportsIndexIfNotExists() bool
}

// DialectFor resolves a database type name
func DialectFor(dbType string) (Dialect, error) {
	switch config.NormalizeDatabaseType(dbType) {
	case config.DatabaseSQLite:
		return NewSQLiteDialect(), nil
	case config.DatabasePostgres:
		return NewPostgresDialect(), nil
	case config.DatabaseMySQL:
		return NewMySQLDialect(), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", dbType)
	}
}
