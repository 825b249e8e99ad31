package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/forgo/accord/internal/model"
	"github.com/forgo/accord/internal/repository/memstore"
	"github.com/forgo/accord/internal/scoring"
)

// ============================================================================
// Shared fixtures
// ============================================================================

var testNow = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func fixedClock() func() time.Time {
	return func() time.Time { return testNow }
}

// sequentialIDs returns deterministic handshake ids
func sequentialIDs() func() string {
	var n atomic.Int64
	return func() string { return fmt.Sprintf("hs-%03d", n.Add(1)) }
}

func seedPartnerships(t *testing.T, store *memstore.Store, ids ...string) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, store.SavePartnership(context.Background(), &model.Partnership{
			ID:               id,
			ProfileType:      model.ProfileTypeCouple,
			Status:           model.PartnershipStatusActive,
			SurveyCompletion: 1,
		}))
	}
}

func testEngine(t *testing.T) *scoring.Engine {
	t.Helper()
	e, err := scoring.NewEngine(scoring.EngineConfig{})
	require.NoError(t, err)
	return e
}

func answersLeaning(intent string, energy float64) model.AnswerSet {
	return model.AnswerSet{
		"intent_goals":              []any{intent, "friendship"},
		"intent_exclusivity":        "monogamous",
		"intent_timeline":           3,
		"intent_children":           "no",
		"structure_type":            "monogamous",
		"structure_hierarchy":       "none",
		"structure_time_commitment": 4,
		"structure_living":          []any{"separate"},
		"connection_love_languages": []any{"words"},
		"connection_communication":  "direct",
		"connection_conflict":       "talk it out",
		"connection_affection":      4,
		"chemistry_interests":       []any{"hiking"},
		"chemistry_energy":          energy,
		"chemistry_humor":           []any{"dry"},
		"chemistry_pace":            2,
		"lifestyle_smoking":         "no",
		"lifestyle_drinking":        1,
		"lifestyle_diet":            "omnivore",
		"lifestyle_pets":            []any{"dog"},
		"lifestyle_schedule":        "morning",
	}
}

func newHandshakeFixture(t *testing.T, ids ...string) (*HandshakeService, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	seedPartnerships(t, store, ids...)
	svc := NewHandshakeService(HandshakeServiceConfig{
		Signals:      store,
		Handshakes:   store,
		Partnerships: store,
		Now:          fixedClock(),
		NewID:        sequentialIDs(),
	})
	return svc, store
}
