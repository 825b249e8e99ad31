// Package database provides the database abstraction layer for Accord.
//
// This package defines the Database interface that abstracts SurrealDB operations,
// allowing for clean separation between business logic and data access.
//
// # Interface Design
//
// The Database interface provides three query methods:
//   - Query: Returns multiple results (for SELECT queries returning lists)
//   - QueryOne: Returns a single result (for SELECT by ID)
//   - Execute: No return value (for CREATE/UPDATE/DELETE mutations)
//
// # Atomic Batches
//
// Statements that must succeed together are sent as one request wrapped in
// BEGIN TRANSACTION / COMMIT TRANSACTION. See transaction.go.
//
// # Error Handling
//
// Standard errors are defined for common failure cases:
//   - ErrNotFound: Record does not exist
//   - ErrDuplicate: Unique index or record id violation
//   - ErrConnection: Database connection issues
//   - ErrQuery: Query execution failures
//
// Use errors.Is() to check error types:
//
//	if errors.Is(err, database.ErrDuplicate) {
//	    // Another writer created the record first
//	}
//
// # Usage Example
//
//	db := database.NewSurrealDB(cfg)
//	db.Connect(ctx)
//	defer db.Close()
//
//	result, err := db.QueryOne(ctx, "SELECT * FROM handshake WHERE key = $key", map[string]interface{}{"key": id})
package database

import (
	"context"
	"errors"
	"strings"
)

// Standard errors for database operations.
// Use errors.Is() to check these error types in calling code.
var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate indicates a unique constraint violation (e.g., a second handshake for a pair).
	ErrDuplicate = errors.New("duplicate record")

	// ErrConnection indicates a failure to connect to or communicate with the database.
	ErrConnection = errors.New("database connection error")

	// ErrQuery indicates a query execution failure (syntax error, invalid reference, etc.).
	ErrQuery = errors.New("query error")
)

// Database defines the interface for database operations
type Database interface {
	// Connection management
	Connect(ctx context.Context) error
	Close() error
	Ping(ctx context.Context) error

	// Query executes a query and returns results
	Query(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error)

	// QueryOne executes a query and returns a single result
	QueryOne(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error)

	// Execute runs a query without returning results (for mutations)
	Execute(ctx context.Context, query string, vars map[string]interface{}) error
}

// Config holds database configuration
type Config struct {
	Host      string
	Port      string
	User      string
	Password  string
	Namespace string
	Database  string
}

// IsUniqueViolation reports whether a SurrealDB error message describes a
// unique index or record id collision
func IsUniqueViolation(msg string) bool {
	msg = strings.ToLower(msg)
	return strings.Contains(msg, "already contains") ||
		strings.Contains(msg, "already exists") ||
		strings.Contains(msg, "unique") ||
		strings.Contains(msg, "duplicate")
}
