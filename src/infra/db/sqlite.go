package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"

	_ "modernc.org/sqlite"
)

// SQLite wraps a database/sql handle backed by the pure-Go sqlite driver.
type SQLite struct {
	DB  *sql.DB
	log *slog.Logger
}

// OpenSQLite opens (creating if needed) the database file at path and applies
// the embedded migrations.
func OpenSQLite(ctx context.Context, path string, log *slog.Logger) (*SQLite, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	sqlDB, err := sql.Open("sqlite", sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// sqlite serializes writers; one connection avoids SQLITE_BUSY churn.
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	version, err := Migrate(ctx, sqlDB, "sqlite", log)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}

	log.Info("database connection established",
		"driver", "sqlite",
		"path", path,
		"schema_version", version,
	)
	return &SQLite{DB: sqlDB, log: log}, nil
}

// Close closes the underlying database handle.
func (s *SQLite) Close() {
	if s.DB != nil {
		s.DB.Close()
		s.log.Info("database connection closed", "driver", "sqlite")
	}
}

// sqliteDSN appends the connection pragmas in the driver's _pragma form. They
// run on every new connection.
func sqliteDSN(path string) string {
	q := url.Values{}
	for _, p := range []string{
		"busy_timeout(5000)",
		"foreign_keys(1)",
		"journal_mode(WAL)",
		"synchronous(NORMAL)",
	} {
		q.Add("_pragma", p)
	}
	return path + "?" + q.Encode()
}
