package service

import (
	"errors"
	"fmt"

	"github.com/forgo/accord/internal/database"
	"github.com/forgo/accord/internal/scoring"
)

// Centralized service layer errors.
// All errors returned by service methods are defined here for consistency
// and to make error handling in handlers predictable.

// ===== Validation Errors =====
var (
	ErrInvalidPartnershipID    = errors.New("partnership id is required")
	ErrSelfHandshake           = errors.New("a partnership cannot match with itself")
	ErrSelfComparison          = errors.New("a partnership cannot be compared with itself")
	ErrNotHandshakeParticipant = errors.New("partnership is not a participant in this handshake")
	ErrInvalidHandshakeID      = errors.New("handshake id is required")
	ErrInvalidWeights          = scoring.ErrInvalidWeights
	ErrEmptyAnswers            = errors.New("at least one answer is required")
)

// ===== Not Found Errors =====
var (
	ErrPartnershipNotFound = errors.New("partnership not found")
	ErrHandshakeNotFound   = errors.New("handshake not found")
)

// ===== Store Errors =====
var (
	ErrStoreUnavailable = errors.New("store unavailable")
)

// storeError wraps a persistence failure so callers can match
// ErrStoreUnavailable while the original cause stays inspectable.
func storeError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, database.ErrNotFound) || errors.Is(err, database.ErrDuplicate) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}
