// Package testdb provides isolated SurrealDB environments for integration tests.
//
// Tests run real queries against a real database instance so that unique
// indexes and UPDATE ... WHERE semantics are exercised for real. When no
// instance is reachable the test is skipped.
//
// Usage:
//
//	func TestSomething(t *testing.T) {
//	    tdb := testdb.New(t)
//	    defer tdb.Close()
//
//	    repo := repository.NewHandshakeRepository(tdb.DB)
//	}
package testdb

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/forgo/accord/internal/database"
)

// TestDB provides an isolated database environment for testing.
// Each TestDB instance gets a unique namespace to ensure test isolation.
type TestDB struct {
	DB        database.Database
	Namespace string
	Database  string
	t         *testing.T
}

var (
	// counterMu protects the namespace counter
	counterMu sync.Mutex
	counter   int64
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getTestConfig returns database config from environment or defaults
func getTestConfig() database.Config {
	return database.Config{
		Host:     envOr("TEST_DB_HOST", "localhost"),
		Port:     envOr("TEST_DB_PORT", "8000"),
		User:     envOr("TEST_DB_USER", "root"),
		Password: envOr("TEST_DB_PASSWORD", "root"),
	}
}

// uniqueNamespace generates a unique namespace for test isolation
func uniqueNamespace() string {
	counterMu.Lock()
	defer counterMu.Unlock()
	counter++
	return fmt.Sprintf("test_%d_%d", time.Now().UnixNano(), counter)
}

// New creates a new isolated test database with the schema applied, or
// skips the test when SurrealDB is not reachable. Set TEST_DB_REQUIRED=1 to
// turn the skip into a failure.
func New(t *testing.T) *TestDB {
	t.Helper()
	if testing.Short() {
		t.Skip("testdb: skipped in -short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg := getTestConfig()
	cfg.Namespace = uniqueNamespace()
	cfg.Database = "test"

	db := database.NewSurrealDB(cfg)
	if err := db.Connect(ctx); err != nil {
		if os.Getenv("TEST_DB_REQUIRED") != "" {
			t.Fatalf("testdb: failed to connect: %v", err)
		}
		t.Skipf("testdb: SurrealDB not reachable at %s:%s: %v", cfg.Host, cfg.Port, err)
	}

	if err := database.ApplySchema(ctx, db); err != nil {
		_ = db.Close()
		t.Fatalf("testdb: failed to apply schema: %v", err)
	}

	return &TestDB{
		DB:        db,
		Namespace: cfg.Namespace,
		Database:  cfg.Database,
		t:         t,
	}
}

// Close cleans up the test database by removing the namespace.
func (tdb *TestDB) Close() {
	if tdb.DB == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	query := fmt.Sprintf("REMOVE NAMESPACE %s", tdb.Namespace)
	_ = tdb.DB.Execute(ctx, query, nil) // Ignore errors on cleanup

	_ = tdb.DB.Close()
}

// Ctx returns a context bounded by the test's lifetime
func (tdb *TestDB) Ctx() context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	tdb.t.Cleanup(cancel)
	return ctx
}

// MustExec executes a query and fails the test on error.
func (tdb *TestDB) MustExec(query string, vars map[string]interface{}) {
	tdb.t.Helper()
	if err := tdb.DB.Execute(tdb.Ctx(), query, vars); err != nil {
		tdb.t.Fatalf("testdb: exec failed: %v\nQuery: %s", err, query)
	}
}
