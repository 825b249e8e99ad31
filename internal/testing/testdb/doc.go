// Package testdb provides test database utilities for the Accord API.
//
// # Test Database Setup
//
//	func TestSomething(t *testing.T) {
//	    tdb := testdb.New(t) // skips when SurrealDB is not reachable
//	    defer tdb.Close()
//	}
//
// # Schema
//
// database.ApplySchema runs on setup, so unique indexes are in place.
//
// # Isolation
//
// Each test gets its own namespace, removed again by Close.
//
// # Environment
//
//   - TEST_DB_HOST, TEST_DB_PORT, TEST_DB_USER, TEST_DB_PASSWORD
//   - TEST_DB_REQUIRED=1 fails instead of skipping when unreachable
package testdb
