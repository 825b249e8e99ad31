package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/forgo/accord/internal/database"
	"github.com/forgo/accord/internal/model"
)

// maxCASAttempts bounds optimistic retries of a handshake transition
const maxCASAttempts = 8

// errHandshakeContention is returned when a transition kept losing races
var errHandshakeContention = fmt.Errorf("%w: handshake update contention", database.ErrQuery)

// HandshakeRepository stores handshakes, one row per canonical pair.
//
// Transitions are computed by model.Handshake and written back with a
// compare-and-swap on the row's version, so concurrent accepts and declines
// never overwrite each other.
type HandshakeRepository struct {
	db database.Database
}

// NewHandshakeRepository creates a new handshake repository
func NewHandshakeRepository(db database.Database) *HandshakeRepository {
	return &HandshakeRepository{db: db}
}

// InsertHandshake creates a handshake. A second row for the same pair fails
// the unique pair index and returns database.ErrDuplicate.
func (r *HandshakeRepository) InsertHandshake(ctx context.Context, h *model.Handshake) error {
	query := `
		CREATE type::thing('handshake', $key) CONTENT {
			key: $key,
			partnership_a: $partnership_a,
			partnership_b: $partnership_b,
			a_consent: $a_consent,
			b_consent: $b_consent,
			state: $state,
			initiated_by: $initiated_by,
			matched_on: IF $matched_on THEN <datetime>$matched_on ELSE NONE END,
			created_on: <datetime>$created_on,
			updated_on: <datetime>$updated_on,
			version: 1
		}
	`
	return r.db.Execute(ctx, query, map[string]interface{}{
		"key":           h.ID,
		"partnership_a": h.PartnershipA,
		"partnership_b": h.PartnershipB,
		"a_consent":     h.AConsent,
		"b_consent":     h.BConsent,
		"state":         string(h.State),
		"initiated_by":  h.InitiatedBy,
		"matched_on":    optionalTime(h.MatchedOn),
		"created_on":    formatTime(h.CreatedOn),
		"updated_on":    formatTime(h.UpdatedOn),
	})
}

// GetHandshake retrieves a handshake by id, or nil
func (r *HandshakeRepository) GetHandshake(ctx context.Context, id string) (*model.Handshake, error) {
	h, _, err := r.get(ctx, `SELECT * FROM handshake WHERE key = $key LIMIT 1`, map[string]interface{}{"key": id})
	return h, err
}

// GetHandshakeByPair retrieves the handshake of a canonical pair, or nil
func (r *HandshakeRepository) GetHandshakeByPair(ctx context.Context, pair model.PartnershipPair) (*model.Handshake, error) {
	query := `SELECT * FROM handshake WHERE partnership_a = $a AND partnership_b = $b LIMIT 1`
	h, _, err := r.get(ctx, query, map[string]interface{}{"a": pair.A, "b": pair.B})
	return h, err
}

// UpdateHandshakeConsent applies an accept or decline from side and returns
// the resulting handshake. Terminal handshakes are returned unchanged.
func (r *HandshakeRepository) UpdateHandshakeConsent(ctx context.Context, id string, side model.HandshakeSide, accept bool, now time.Time) (*model.Handshake, error) {
	return r.transition(ctx, id, func(h *model.Handshake) bool {
		return h.ApplyResponse(side, accept, now)
	})
}

// MarkHandshakeMatched sets both consents on a non-terminal handshake
func (r *HandshakeRepository) MarkHandshakeMatched(ctx context.Context, id string, now time.Time) (*model.Handshake, error) {
	return r.transition(ctx, id, func(h *model.Handshake) bool {
		return h.MarkMatched(now)
	})
}

// ExpirePendingHandshakes moves handshakes still pending at cutoff to expired
func (r *HandshakeRepository) ExpirePendingHandshakes(ctx context.Context, cutoff, now time.Time) (int, error) {
	query := `
		UPDATE handshake SET
			state = $expired,
			updated_on = <datetime>$now,
			version += 1
		WHERE state = $pending AND created_on < <datetime>$cutoff
		RETURN AFTER
	`
	results, err := r.db.Query(ctx, query, map[string]interface{}{
		"expired": string(model.HandshakeStateExpired),
		"pending": string(model.HandshakeStatePending),
		"now":     formatTime(now),
		"cutoff":  formatTime(cutoff),
	})
	if err != nil {
		return 0, err
	}
	return len(extractQueryResults(results)), nil
}

// transition reads the handshake, lets apply mutate it, and writes it back
// only if nobody else wrote in between
func (r *HandshakeRepository) transition(ctx context.Context, id string, apply func(*model.Handshake) bool) (*model.Handshake, error) {
	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		h, version, err := r.get(ctx, `SELECT * FROM handshake WHERE key = $key LIMIT 1`, map[string]interface{}{"key": id})
		if err != nil || h == nil {
			return h, err
		}
		if !apply(h) {
			return h, nil
		}

		query := `
			UPDATE handshake SET
				a_consent = $a_consent,
				b_consent = $b_consent,
				state = $state,
				matched_on = IF $matched_on THEN <datetime>$matched_on ELSE NONE END,
				updated_on = <datetime>$updated_on,
				version = $version + 1
			WHERE key = $key AND version = $version
			RETURN AFTER
		`
		results, err := r.db.Query(ctx, query, map[string]interface{}{
			"key":        id,
			"version":    version,
			"a_consent":  h.AConsent,
			"b_consent":  h.BConsent,
			"state":      string(h.State),
			"matched_on": optionalTime(h.MatchedOn),
			"updated_on": formatTime(h.UpdatedOn),
		})
		if err != nil {
			return nil, err
		}
		if len(extractQueryResults(results)) == 1 {
			return h, nil
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	return nil, errHandshakeContention
}

func (r *HandshakeRepository) get(ctx context.Context, query string, vars map[string]interface{}) (*model.Handshake, int, error) {
	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, 0, nil
		}
		return nil, 0, err
	}

	data, err := asRecord(result)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, 0, nil
		}
		return nil, 0, err
	}
	return parseHandshake(data), getInt(data, "version"), nil
}

func parseHandshake(data map[string]interface{}) *model.Handshake {
	h := &model.Handshake{
		ID:           getString(data, "key"),
		PartnershipA: getString(data, "partnership_a"),
		PartnershipB: getString(data, "partnership_b"),
		AConsent:     getBool(data, "a_consent"),
		BConsent:     getBool(data, "b_consent"),
		State:        model.HandshakeState(getString(data, "state")),
		InitiatedBy:  getString(data, "initiated_by"),
		MatchedOn:    getTime(data, "matched_on"),
	}
	if t := getTime(data, "created_on"); t != nil {
		h.CreatedOn = *t
	}
	if t := getTime(data, "updated_on"); t != nil {
		h.UpdatedOn = *t
	}
	return h
}
