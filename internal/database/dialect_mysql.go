package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
)

// MySQLDialect implements Dialect for MySQL
type MySQLDialect struct{}

// NewMySQLDialect creates a new MySQL dialect
func NewMySQLDialect() *MySQLDialect {
	return &MySQLDialect{}
}

func (d *MySQLDialect) Name() string       { return "mysql" }
func (d *MySQLDialect) DriverName() string { return "mysql" }

// DSN forces parseTime so DATETIME columns scan into time.Time
func (d *MySQLDialect) DSN(cfg DialectConfig) (string, error) {
	if cfg.URL == "" {
		return "", fmt.Errorf("mysql: database url is required")
	}
	mc, err := mysql.ParseDSN(cfg.URL)
	if err != nil {
		return "", fmt.Errorf("mysql: invalid dsn: %w", err)
	}
	mc.ParseTime = true
	if mc.Loc == nil {
		mc.Loc = time.UTC
	}
	return mc.FormatDSN(), nil
}

func (d *MySQLDialect) ConfigureConnection(db *sql.DB) error {
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)

	if _, err := db.Exec("SET FOREIGN_KEY_CHECKS = 1"); err != nil {
		return err
	}
	return nil
}

func (d *MySQLDialect) KeyType() string                { return "VARCHAR(64)" }
func (d *MySQLDialect) TextType() string               { return "TEXT" }
func (d *MySQLDialect) FloatType() string              { return "DOUBLE" }
func (d *MySQLDialect) TimeType() string               { return "DATETIME(6)" }
func (d *MySQLDialect) SupportsIndexIfNotExists() bool { return false }
