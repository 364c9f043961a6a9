// Package repo contains the statistics store implementations.
//
// This package implements the ports defined in src/core/ports:
//   - PostgresRepository on a pgx pool
//   - SQLiteRepository on a modernc.org/sqlite file
//
// Both fold a finished game into per-user and per-group counters inside
// one transaction, keyed on the game id so a replayed result is ignored.
package repo
