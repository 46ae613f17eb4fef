// Package store provides the SQLite-backed ledger of assembly runs and of
// the decoded artifacts materialized in the file cache.
//
// The ledger is informational. Cache validity is decided by the presence of
// the artifact file alone; the ledger records where each artifact came
// from, its shape and checksum, and which run produced it, so that
// `nhutils cache list` can describe the cache and `cache clear` can remove
// both files and records.
//
// # Tables
//
//   - runs: one row per assemble call (run id, request, final phase)
//   - artifacts: one row per (cycle, file) decoded into the cache
//
// # Database Configuration
//
//   - WAL mode: concurrent readers while a run writes
//   - synchronous=NORMAL
//   - busy_timeout=5000: concurrent runs wait for the write lock
package store
