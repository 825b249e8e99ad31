// Package database provides database connectivity for the Accord API.
//
// # Connection Management
//
// Connect to SurrealDB and define the schema:
//
//	db := database.NewSurrealDB(database.Config{
//	    Host:      "localhost",
//	    Port:      "8000",
//	    Namespace: "accord",
//	    Database:  "production",
//	    User:      "root",
//	    Password:  "secret",
//	})
//	if err := db.Connect(ctx); err != nil { ... }
//	if err := database.ApplySchema(ctx, db); err != nil { ... }
//
// # Error Types
//
//   - ErrNotFound: Record does not exist
//   - ErrDuplicate: Unique index violation
//   - ErrConnection: Database connection failed
//   - ErrQuery: Any other statement failure
package database
