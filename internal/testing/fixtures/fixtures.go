// Package fixtures provides test data factories for integration tests.
//
// Factories write through the same store interfaces the services use, so
// they work against SurrealDB repositories, the sqlstore and memstore alike.
//
// Usage:
//
//	f := fixtures.New(partnerships, surveys)
//	a := f.CreatePartnership(t)
//	b := f.CreatePartnership(t, fixtures.WithAnswers(fixtures.Answers("play", 2)))
package fixtures

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"testing"
	"time"

	"github.com/forgo/accord/internal/model"
	"github.com/forgo/accord/internal/service"
)

// Factory creates test entities through store interfaces
type Factory struct {
	partnerships service.PartnershipStore
	surveys      service.SurveyStore
}

// New creates a new fixture factory
func New(partnerships service.PartnershipStore, surveys service.SurveyStore) *Factory {
	return &Factory{partnerships: partnerships, surveys: surveys}
}

// randomID generates a random hex ID
func randomID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func ctx(t *testing.T) context.Context {
	c, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return c
}

// ============================================================================
// Partnership Fixtures
// ============================================================================

// PartnershipOpts customizes partnership creation
type PartnershipOpts struct {
	ID               string
	ProfileType      model.ProfileType
	Status           model.PartnershipStatus
	SurveyCompletion float64
	Answers          model.AnswerSet
}

// WithID fixes the partnership id
func WithID(id string) func(*PartnershipOpts) {
	return func(o *PartnershipOpts) { o.ID = id }
}

// WithStatus sets the lifecycle status
func WithStatus(s model.PartnershipStatus) func(*PartnershipOpts) {
	return func(o *PartnershipOpts) { o.Status = s }
}

// WithCompletion sets the survey completion ratio
func WithCompletion(c float64) func(*PartnershipOpts) {
	return func(o *PartnershipOpts) { o.SurveyCompletion = c }
}

// WithAnswers stores a survey for the partnership
func WithAnswers(a model.AnswerSet) func(*PartnershipOpts) {
	return func(o *PartnershipOpts) { o.Answers = a }
}

// CreatePartnership creates an active, fully surveyed couple unless
// customized
func (f *Factory) CreatePartnership(t *testing.T, opts ...func(*PartnershipOpts)) *model.Partnership {
	t.Helper()

	o := &PartnershipOpts{
		ID:               "partnership:" + randomID(),
		ProfileType:      model.ProfileTypeCouple,
		Status:           model.PartnershipStatusActive,
		SurveyCompletion: 1,
		Answers:          Answers("dating", 3),
	}
	for _, fn := range opts {
		fn(o)
	}

	now := time.Now().UTC()
	p := &model.Partnership{
		ID:               o.ID,
		ProfileType:      o.ProfileType,
		Status:           o.Status,
		SurveyCompletion: o.SurveyCompletion,
		CreatedOn:        now,
		UpdatedOn:        now,
	}
	if err := f.partnerships.SavePartnership(ctx(t), p); err != nil {
		t.Fatalf("fixtures: failed to create partnership: %v", err)
	}

	if len(o.Answers) > 0 {
		if err := f.surveys.SaveAnswers(ctx(t), p.ID, o.Answers); err != nil {
			t.Fatalf("fixtures: failed to save answers: %v", err)
		}
	}
	return p
}

// ============================================================================
// Survey Fixtures
// ============================================================================

// Answers returns a complete answer set. Two sets built with the same
// arguments are identical; different goals and energy levels lower the
// Intent and Chemistry scores respectively.
func Answers(goal string, energy float64) model.AnswerSet {
	return model.AnswerSet{
		"intent_goals":              []any{goal, "friendship"},
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
