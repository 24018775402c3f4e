// Package store provides SQLite-backed persistence for saved filter
// expressions and a preview runner that executes them.
//
// Saved filters are keyed by name and hold the submitted payload verbatim.
// A payload submitted from the textual view may not decode; it is stored
// anyway with an empty fingerprint, because the backend query engine is the
// final arbiter of validity.
//
// # Ordering
//
// All ordering uses the logical seq column (bumped on every save), never
// wall-clock time:
//
//	ORDER BY seq ASC, name COLLATE BINARY ASC
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
