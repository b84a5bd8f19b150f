// Package journal persists loop events in SQLite.
//
// A journal is an append-only log keyed by (run, seq). A run is one
// container's lifetime, named by the caller; seq is the bus sequence
// number, so reads come back in the order the loop produced them
// regardless of wall time.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - one open connection, so ":memory:" journals keep their data
package journal
