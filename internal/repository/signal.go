package repository

import (
	"context"
	"errors"

	"github.com/forgo/accord/internal/database"
	"github.com/forgo/accord/internal/model"
)

// SignalRepository handles the append-only signal ledger
type SignalRepository struct {
	db database.Database
}

// NewSignalRepository creates a new signal repository
func NewSignalRepository(db database.Database) *SignalRepository {
	return &SignalRepository{db: db}
}

// InsertSignal records a directed signal. The record id is derived from the
// direction, so a repeat returns database.ErrDuplicate.
func (r *SignalRepository) InsertSignal(ctx context.Context, sig *model.Signal) error {
	query := `
		CREATE type::thing('signal', $key) CONTENT {
			key: $key,
			from_partnership: $from,
			to_partnership: $to,
			created_on: <datetime>$created_on
		}
	`
	return r.db.Execute(ctx, query, map[string]interface{}{
		"key":        sig.ID,
		"from":       sig.FromPartnership,
		"to":         sig.ToPartnership,
		"created_on": formatTime(sig.CreatedOn),
	})
}

// FindSignal returns the signal from -> to, or nil
func (r *SignalRepository) FindSignal(ctx context.Context, from, to string) (*model.Signal, error) {
	query := `SELECT * FROM signal WHERE from_partnership = $from AND to_partnership = $to LIMIT 1`
	result, err := r.db.QueryOne(ctx, query, map[string]interface{}{"from": from, "to": to})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	data, err := asRecord(result)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	sig := &model.Signal{
		ID:              getString(data, "key"),
		FromPartnership: getString(data, "from_partnership"),
		ToPartnership:   getString(data, "to_partnership"),
	}
	if t := getTime(data, "created_on"); t != nil {
		sig.CreatedOn = *t
	}
	return sig, nil
}
