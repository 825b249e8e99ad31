// Package repository implements the SurrealDB data access layer for the Accord API.
//
// Each repository struct handles one entity and satisfies the matching store
// interface of the service package.
//
// # Repository Pattern
//
//   - Constructor function (NewXxxRepository) accepts a database connection
//   - Methods run parameterized SurrealQL and map records to model structs
//   - Lookups return (nil, nil) for missing records
//   - Domain ids live in a "key" field; record ids are derived with type::thing()
//
// # Uniqueness
//
// Signals and handshakes rely on the unique indexes defined by
// database.ApplySchema. A colliding CREATE surfaces as database.ErrDuplicate,
// which the services treat as "someone else got there first".
//
// # Example Usage
//
//	repo := NewHandshakeRepository(db)
//	h, err := repo.GetHandshakeByPair(ctx, model.NewPartnershipPair(a, b))
//	if err != nil {
//	    return err
//	}
//	if h == nil {
//	    // No handshake yet
//	}
package repository
