// Package helpers provides test utility functions for the Accord API.
//
// # JWT Helpers
//
// Mint real RS256 tokens against an in-memory key:
//
//	jh := helpers.NewJWTHelper(t)
//	token := jh.PartnershipToken(t, "user-1", "p-1")
//	router := handler.NewRouter(handler.RouterConfig{Validator: jh.Service(), ...})
//
// # Request Helpers
//
//	rec := helpers.NewRequest(t, http.MethodPost, "/v1/signals").
//	    WithBearer(token).
//	    WithBody(model.SendSignalRequest{To: "p-2"}).
//	    Do(router)
//
// # Assertion Helpers
//
//	helpers.AssertStatus(t, rec, http.StatusOK)
//	helpers.AssertProblemDetails(t, rec, http.StatusForbidden, model.ErrCodeNotParticipant)
//	helpers.AssertValidationError(t, rec, "to")
package helpers
