// Package store provides SQLite-backed storage for saved compiled queries.
//
// A saved query keeps the source rule tree next to its compiled query, the
// query's content hash and the warnings the compile produced. Saving the
// same name with the same compiled query is idempotent: the existing record
// is returned.
//
// # Ordering
//
// Listings are ordered by seq (insertion order), then id COLLATE BINARY, so
// two stores holding the same records list them identically.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait up to 5s for locks
package store
