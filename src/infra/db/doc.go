// Package db provides database connection management for the statistics store.
//
// Two backends are supported:
//   - PostgreSQL through a pgx connection pool
//   - SQLite through the pure-Go modernc.org/sqlite driver
//
// Both apply their embedded goose migrations on open.
//
// Example usage:
//
//	pg, err := db.New(ctx, cfg.Database, log)
//	if err != nil {
//	    return err
//	}
//	defer pg.Close()
package db
