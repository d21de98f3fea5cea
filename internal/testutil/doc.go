// Package testutil provides shared test helpers.
//
// [NewStore] opens a migrated SQLite database in a per-test temporary
// directory and returns the repositories over it. [SeedUser] inserts an
// account with a given role. [RequireReceive] wraps the select with a
// timeout fallback so tests that wait on goroutines fail instead of hang.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
package testutil
