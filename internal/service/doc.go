// Package service implements the business logic layer for the Accord API.
//
// The service package holds compatibility scoring orchestration, the batch
// match recomputation, survey persistence and the handshake state machine.
// Services are the primary abstraction between HTTP handlers and data access.
//
// # Service Pattern
//
// All services follow a consistent pattern:
//
//   - Constructor function (NewXxxService) accepts a config struct with store dependencies
//   - Methods implement business operations with proper validation
//   - Errors are returned as sentinel errors or wrapped errors for context
//   - Context is passed through for cancellation and request-scoped values
//
// # Store Interfaces
//
// Services define their own store interfaces (see stores.go). The SurrealDB
// repositories, the gorm-backed sqlstore and the in-memory memstore all
// satisfy them. Lookups return (nil, nil) when a record does not exist and
// inserts that collide with a unique key return database.ErrDuplicate.
//
// # Error Handling
//
// Services return domain-specific errors defined as package-level variables:
//
//	var (
//	    ErrHandshakeNotFound       = errors.New("handshake not found")
//	    ErrNotHandshakeParticipant = errors.New("not a participant of this handshake")
//	)
//
// Store failures other than not-found and duplicate are wrapped with
// ErrStoreUnavailable.
//
// # Example Usage
//
//	handshakes := NewHandshakeService(HandshakeServiceConfig{
//	    Signals:      store,
//	    Handshakes:   store,
//	    Partnerships: store,
//	})
//	outcome, err := handshakes.SendSignal(ctx, "partnership:a", "partnership:b")
package service
