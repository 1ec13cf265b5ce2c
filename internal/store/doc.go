// Package store provides SQLite-backed storage for auto-tuner results.
//
// A tuning run groups the overrides produced by one tuner invocation:
//   - Runs: named, UUIDv7-identified, ordered by a logical seq
//   - Overrides: one compilation_info record per (run, dispatch, op)
//
// # Critical Patterns
//
// Content-addressed overrides
//   - Override IDs hash the run, the target and the canonical record
//   - Writing the same override twice is a no-op (ON CONFLICT(id) DO NOTHING)
//   - A different record for an already-tuned target is an error
//
// Deterministic query results
//   - All ordering uses seq INTEGER (logical clock), NEVER timestamps
//   - Lists are ordered by seq ASC, id ASC COLLATE BINARY
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
