// Package database provides SQLite-based storage for the scan-history log.
//
// This package implements the HistoryDB, an append-only record of verdicts:
// one row per completed scan with verdict, score, and timestamp. Rows are
// never updated or deleted; the store supports inserts, a most-recent-first
// listing, and aggregate counts for operator dashboards.
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
//  1. No external dependencies - the database is a single file
//  2. CGO-free implementation allows easy cross-compilation
//  3. One insert per scan is far below SQLite's write ceiling
//  4. WAL mode provides good concurrent read performance
package database
