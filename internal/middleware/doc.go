// Package middleware provides HTTP middleware for the Accord API.
//
// # Available Middleware
//
//   - RequestID: propagates or generates X-Request-ID
//   - Logger: one zap line per request
//   - Recovery: turns panics into a 500 problem response
//   - Compress: gzip responses when the client accepts it
//   - Auth: validates the bearer token and stores its claims
//   - RequirePartnership: rejects tokens that do not act for a partnership
//   - AdminOnly: rejects tokens without the admin role
//   - RateLimit: token bucket per acting partnership (golang.org/x/time/rate)
//
// Middlewares compose with Chain or chi's router.Use:
//
//	r.Use(middleware.RequestID, middleware.Logger(logger), middleware.Recovery(logger))
//	r.With(middleware.Auth(tokens), middleware.RequirePartnership).Post("/v1/signals", h.SendSignal)
//
// # Context Values
//
//   - GetRequestID(ctx): unique request identifier
//   - GetPartnershipID(ctx): acting partnership from the token
//   - GetUserID(ctx): user behind the token, when present
//   - GetClaims(ctx): the full validated claims
package middleware
