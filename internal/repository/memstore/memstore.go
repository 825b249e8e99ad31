// Package memstore is an in-memory implementation of the service store
// interfaces. It stands in for the database in tests and local development
// and enforces the same uniqueness rules as the real stores: one signal per
// direction and one handshake per canonical pair.
package memstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/forgo/accord/internal/database"
	"github.com/forgo/accord/internal/model"
)

// Store holds every table behind one lock
type Store struct {
	mu           sync.RWMutex
	partnerships map[string]*model.Partnership
	answers      map[string]model.AnswerSet
	matches      map[string]*model.ComputedMatch // by pair key
	signals      map[string]*model.Signal        // by signal key
	handshakes   map[string]*model.Handshake     // by handshake id
	handshakeIDs map[string]string               // pair key -> handshake id
}

// New creates an empty store
func New() *Store {
	return &Store{
		partnerships: make(map[string]*model.Partnership),
		answers:      make(map[string]model.AnswerSet),
		matches:      make(map[string]*model.ComputedMatch),
		signals:      make(map[string]*model.Signal),
		handshakes:   make(map[string]*model.Handshake),
		handshakeIDs: make(map[string]string),
	}
}

// ============================================================================
// Partnerships
// ============================================================================

func (s *Store) GetPartnership(ctx context.Context, id string) (*model.Partnership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.partnerships[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (s *Store) SavePartnership(ctx context.Context, p *model.Partnership) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *p
	now := time.Now().UTC()
	if existing, ok := s.partnerships[p.ID]; ok {
		cp.CreatedOn = existing.CreatedOn
	} else if cp.CreatedOn.IsZero() {
		cp.CreatedOn = now
	}
	cp.UpdatedOn = now
	s.partnerships[p.ID] = &cp
	return nil
}

func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.partnerships[id]
	return ok, nil
}

func (s *Store) ListEligiblePairs(ctx context.Context, minCompletion float64) ([]model.PartnershipPair, error) {
	s.mu.RLock()
	ids := make([]string, 0, len(s.partnerships))
	for id, p := range s.partnerships {
		if p.IsEligible(minCompletion) {
			ids = append(ids, id)
		}
	}
	s.mu.RUnlock()

	return model.PairsOf(ids), nil
}

func (s *Store) UpdateSurveyCompletion(ctx context.Context, id string, completion float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.partnerships[id]
	if !ok {
		return database.ErrNotFound
	}
	p.SurveyCompletion = completion
	p.UpdatedOn = time.Now().UTC()
	return nil
}

// ============================================================================
// Survey answers
// ============================================================================

func (s *Store) GetAnswers(ctx context.Context, partnershipID string) (model.AnswerSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.answers[partnershipID]
	if !ok {
		return model.AnswerSet{}, nil
	}
	return a.Clone(), nil
}

func (s *Store) SaveAnswers(ctx context.Context, partnershipID string, answers model.AnswerSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.answers[partnershipID] = answers.Clone()
	return nil
}

// ============================================================================
// Computed matches
// ============================================================================

func (s *Store) UpsertComputedMatch(ctx context.Context, m *model.ComputedMatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pair := m.Pair()
	cp := *m
	cp.ID = pair.Key()
	cp.PartnershipA, cp.PartnershipB = pair.A, pair.B
	cp.Categories = append([]model.CategoryScore(nil), m.Categories...)
	s.matches[cp.ID] = &cp
	return nil
}

func (s *Store) FindComputedMatches(ctx context.Context, partnershipID string) ([]*model.ComputedMatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*model.ComputedMatch
	for _, m := range s.matches {
		if m.PartnershipA == partnershipID || m.PartnershipB == partnershipID {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

// MatchCount reports the number of stored computed matches
func (s *Store) MatchCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.matches)
}

// ============================================================================
// Signals
// ============================================================================

func (s *Store) InsertSignal(ctx context.Context, sig *model.Signal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := model.SignalKey(sig.FromPartnership, sig.ToPartnership)
	if existing, ok := s.signals[key]; ok {
		if existing.FromPartnership != sig.FromPartnership || existing.ToPartnership != sig.ToPartnership {
			return fmt.Errorf("memstore: signal key collision for %s>%s", sig.FromPartnership, sig.ToPartnership)
		}
		return database.ErrDuplicate
	}
	cp := *sig
	cp.ID = key
	s.signals[key] = &cp
	return nil
}

func (s *Store) FindSignal(ctx context.Context, from, to string) (*model.Signal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sig, ok := s.signals[model.SignalKey(from, to)]
	if !ok || sig.FromPartnership != from || sig.ToPartnership != to {
		return nil, nil
	}
	cp := *sig
	return &cp, nil
}

// SignalCount reports the number of stored signals
func (s *Store) SignalCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.signals)
}

// ============================================================================
// Handshakes
// ============================================================================

func (s *Store) InsertHandshake(ctx context.Context, h *model.Handshake) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := h.Pair().Key()
	if _, ok := s.handshakeIDs[key]; ok {
		return database.ErrDuplicate
	}
	if _, ok := s.handshakes[h.ID]; ok {
		return database.ErrDuplicate
	}
	s.handshakes[h.ID] = copyHandshake(h)
	s.handshakeIDs[key] = h.ID
	return nil
}

func (s *Store) GetHandshake(ctx context.Context, id string) (*model.Handshake, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.handshakes[id]
	if !ok {
		return nil, nil
	}
	return copyHandshake(h), nil
}

func (s *Store) GetHandshakeByPair(ctx context.Context, pair model.PartnershipPair) (*model.Handshake, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pair = model.NewPartnershipPair(pair.A, pair.B)
	id, ok := s.handshakeIDs[pair.Key()]
	if !ok {
		return nil, nil
	}
	h := s.handshakes[id]
	if h == nil || h.Pair() != pair {
		return nil, nil
	}
	return copyHandshake(h), nil
}

func (s *Store) UpdateHandshakeConsent(ctx context.Context, id string, side model.HandshakeSide, accept bool, now time.Time) (*model.Handshake, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.handshakes[id]
	if !ok {
		return nil, nil
	}
	h.ApplyResponse(side, accept, now)
	return copyHandshake(h), nil
}

func (s *Store) MarkHandshakeMatched(ctx context.Context, id string, now time.Time) (*model.Handshake, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.handshakes[id]
	if !ok {
		return nil, nil
	}
	h.MarkMatched(now)
	return copyHandshake(h), nil
}

func (s *Store) ExpirePendingHandshakes(ctx context.Context, cutoff, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expired := 0
	for _, h := range s.handshakes {
		if h.State == model.HandshakeStatePending && h.CreatedOn.Before(cutoff) {
			h.State = model.HandshakeStateExpired
			h.UpdatedOn = now
			expired++
		}
	}
	return expired, nil
}

// HandshakeCount reports the number of stored handshakes
func (s *Store) HandshakeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.handshakes)
}

func copyHandshake(h *model.Handshake) *model.Handshake {
	cp := *h
	if h.MatchedOn != nil {
		t := *h.MatchedOn
		cp.MatchedOn = &t
	}
	return &cp
}
