// Package model defines domain entities and data structures for the Accord API.
//
// The model package contains the partnership, survey, compatibility and
// handshake types along with request/response bodies and error definitions.
// Models are used across all layers of the application.
//
// # Domain Entities
//
//   - Partnership: a single profile or couple that takes the survey
//   - SurveyAnswers: raw answers keyed by question id
//   - CompatibilityResult: overall and per-category scores with a tier
//   - ComputedMatch: a persisted, canonically ordered pair score
//   - Signal and Handshake: the mutual-interest state machine
//
// # Error Types
//
// RFC 9457 Problem Details errors are defined in errors.go:
//
//	type ProblemDetails struct {
//	    Type    string    `json:"type"`
//	    Title   string    `json:"title"`
//	    Status  int       `json:"status"`
//	    Detail  string    `json:"detail"`
//	}
package model
