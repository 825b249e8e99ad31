// Package handler provides the HTTP surface of the Accord API.
//
// Handlers are thin: they read the acting partnership from the request
// context (populated by the auth middleware), decode the body, call one
// service method and render the result. No scoring or state machine logic
// lives here.
//
// # Response Format
//
//   - WriteData: single resource with optional HATEOAS links
//   - WriteCollection: list of resources with a count
//   - WriteError: RFC 9457 Problem Details error response
//
// Service errors are translated by MapServiceError so one sentinel always
// produces the same status code.
//
// # Routing
//
// NewRouter assembles the chi router: request id, zap request logging,
// panic recovery, gzip and CORS apply to every route; /v1 requires a valid
// token; partnership routes additionally require a partnership_id claim;
// admin and dev routes require the admin role.
package handler
