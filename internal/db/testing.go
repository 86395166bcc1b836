// Package db provides test utilities for database operations.
//
// Tests should use NewTestDB for an in-memory database with schema
// applied and cleanup registered.
package db

import (
	"testing"
)

// NewTestDB creates an in-memory database for testing. The database
// is automatically closed when the test completes and has all schema
// migrations applied.
func NewTestDB(t testing.TB) *DB {
	t.Helper()

	d, err := OpenInMemory()
	if err != nil {
		t.Fatalf("create test db: %v", err)
	}

	t.Cleanup(func() {
		_ = d.Close()
	})

	return d
}
