package service

import (
	"context"
	"time"

	"github.com/forgo/accord/internal/model"
)

// Store contracts consumed by the services. Lookups return (nil, nil) when
// the record does not exist. Implementations live in internal/repository
// (SurrealDB), internal/repository/sqlstore (gorm) and
// internal/repository/memstore (in-memory).

// PartnershipStore defines the interface for partnership storage
type PartnershipStore interface {
	GetPartnership(ctx context.Context, id string) (*model.Partnership, error)
	SavePartnership(ctx context.Context, p *model.Partnership) error
	Exists(ctx context.Context, id string) (bool, error)
	// ListEligiblePairs returns every canonical pair of active partnerships
	// whose survey completion is at least minCompletion
	ListEligiblePairs(ctx context.Context, minCompletion float64) ([]model.PartnershipPair, error)
	UpdateSurveyCompletion(ctx context.Context, id string, completion float64) error
}

// SurveyStore defines the interface for survey answer storage
type SurveyStore interface {
	// GetAnswers returns an empty set when the partnership has not answered anything
	GetAnswers(ctx context.Context, partnershipID string) (model.AnswerSet, error)
	SaveAnswers(ctx context.Context, partnershipID string, answers model.AnswerSet) error
}

// MatchStore defines the interface for computed match storage
type MatchStore interface {
	// UpsertComputedMatch replaces any existing row for the same canonical pair
	UpsertComputedMatch(ctx context.Context, m *model.ComputedMatch) error
	// FindComputedMatches returns matches where the partnership is either side
	FindComputedMatches(ctx context.Context, partnershipID string) ([]*model.ComputedMatch, error)
}

// SignalStore defines the interface for the signal ledger
type SignalStore interface {
	// InsertSignal returns database.ErrDuplicate when (from, to) already exists
	InsertSignal(ctx context.Context, s *model.Signal) error
	FindSignal(ctx context.Context, from, to string) (*model.Signal, error)
}

// HandshakeStore defines the interface for handshake storage. Every mutation
// re-validates state at write time so concurrent callers cannot overwrite a
// terminal state.
type HandshakeStore interface {
	// InsertHandshake returns database.ErrDuplicate when the canonical pair already has a row
	InsertHandshake(ctx context.Context, h *model.Handshake) error
	GetHandshake(ctx context.Context, id string) (*model.Handshake, error)
	GetHandshakeByPair(ctx context.Context, pair model.PartnershipPair) (*model.Handshake, error)
	// UpdateHandshakeConsent applies model.Handshake.ApplyResponse atomically
	// and returns the row as stored afterwards
	UpdateHandshakeConsent(ctx context.Context, id string, side model.HandshakeSide, accept bool, now time.Time) (*model.Handshake, error)
	// MarkHandshakeMatched sets both consents on a non-terminal handshake
	MarkHandshakeMatched(ctx context.Context, id string, now time.Time) (*model.Handshake, error)
	// ExpirePendingHandshakes moves pending handshakes created before cutoff to expired
	ExpirePendingHandshakes(ctx context.Context, cutoff, now time.Time) (int, error)
}
