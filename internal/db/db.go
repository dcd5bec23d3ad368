// Package db provides database connection functionality for the vpsbridge server.
package db

import (
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// defaultSQLiteFile is the sqlite database created in the current directory
// when no DSN is supplied. Ideal for running vpsbridge locally.
const defaultSQLiteFile = "vpsbridge.db"

// NewDBConnection connects to the database described by dsn.
// An empty dsn falls back to a local sqlite file.
// A dsn starting with postgres:// or postgresql:// connects to Postgres;
// anything else is treated as a sqlite path.
func NewDBConnection(dsn string) (*gorm.DB, error) {
	cfg := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	if dsn == "" {
		dsn = defaultSQLiteFile
	}

	var (
		conn *gorm.DB
		err  error
	)
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		conn, err = gorm.Open(postgres.Open(dsn), cfg)
	} else {
		conn, err = gorm.Open(sqlite.Open(dsn), cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return conn, nil
}
