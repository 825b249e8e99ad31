package handler

import (
	"errors"

	"github.com/forgo/accord/internal/database"
	"github.com/forgo/accord/internal/model"
	"github.com/forgo/accord/internal/service"
)

// MapServiceError converts a service error to a ProblemDetails response.
// Every handler goes through it so one sentinel always maps to one status.
func MapServiceError(err error) *model.ProblemDetails {
	if err == nil {
		return nil
	}

	switch {
	// ===== Authorization Errors → 403 =====
	case errors.Is(err, service.ErrNotHandshakeParticipant):
		pd := model.NewForbiddenError(err.Error())
		pd.Code = model.ErrCodeNotParticipant
		return pd

	// ===== Not Found Errors → 404 =====
	case errors.Is(err, service.ErrPartnershipNotFound):
		return model.NewNotFoundError("partnership")
	case errors.Is(err, service.ErrHandshakeNotFound):
		return model.NewNotFoundError("handshake")

	// ===== Validation Errors → 422 =====
	case errors.Is(err, service.ErrInvalidPartnershipID),
		errors.Is(err, service.ErrSelfHandshake),
		errors.Is(err, service.ErrSelfComparison):
		return model.NewValidationError([]model.FieldError{{Field: "partnership", Message: err.Error()}})
	case errors.Is(err, service.ErrInvalidHandshakeID):
		return model.NewValidationError([]model.FieldError{{Field: "handshake", Message: err.Error()}})
	case errors.Is(err, service.ErrInvalidWeights):
		return model.NewValidationError([]model.FieldError{{Field: "weights", Message: err.Error()}})
	case errors.Is(err, service.ErrEmptyAnswers):
		return model.NewValidationError([]model.FieldError{{Field: "answers", Message: err.Error()}})

	// ===== Conflict Errors → 409 =====
	// Services absorb duplicates they expect; one reaching here lost a race
	// the caller can retry.
	case errors.Is(err, database.ErrDuplicate):
		return model.NewConflictError("the record was modified concurrently, retry the request")

	// ===== Store Errors → 503 =====
	case errors.Is(err, service.ErrStoreUnavailable):
		return model.NewServiceUnavailableError("")

	// ===== Default → 500 =====
	default:
		return model.NewInternalError("")
	}
}

// MapServiceErrorWithContext converts a service error to a ProblemDetails response
// with additional context about the operation that failed.
func MapServiceErrorWithContext(err error, operation string) *model.ProblemDetails {
	pd := MapServiceError(err)
	if pd != nil && pd.Status == 500 {
		pd.Detail = operation + ": an unexpected error occurred"
	}
	return pd
}
