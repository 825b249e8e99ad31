package repository

import (
	"context"

	"github.com/forgo/accord/internal/database"
	"github.com/forgo/accord/internal/model"
)

// MatchRepository stores batch compatibility results
type MatchRepository struct {
	db database.Database
}

// NewMatchRepository creates a new computed match repository
func NewMatchRepository(db database.Database) *MatchRepository {
	return &MatchRepository{db: db}
}

// UpsertComputedMatch writes the match for its canonical pair, replacing any
// previous result for the same pair
func (r *MatchRepository) UpsertComputedMatch(ctx context.Context, m *model.ComputedMatch) error {
	pair := m.Pair()
	categories, err := toDocument(m.Categories)
	if err != nil {
		return err
	}

	query := `
		UPSERT type::thing('computed_match', $key) SET
			key = $key,
			partnership_a = $partnership_a,
			partnership_b = $partnership_b,
			overall_score = $overall_score,
			tier = $tier,
			categories = $categories,
			computed_on = <datetime>$computed_on
	`
	return r.db.Execute(ctx, query, map[string]interface{}{
		"key":           pair.Key(),
		"partnership_a": pair.A,
		"partnership_b": pair.B,
		"overall_score": m.OverallScore,
		"tier":          string(m.Tier),
		"categories":    categories,
		"computed_on":   formatTime(m.ComputedOn),
	})
}

// FindComputedMatches returns every stored match that includes partnershipID
// on either side
func (r *MatchRepository) FindComputedMatches(ctx context.Context, partnershipID string) ([]*model.ComputedMatch, error) {
	query := `SELECT * FROM computed_match WHERE partnership_a = $id OR partnership_b = $id`
	results, err := r.db.Query(ctx, query, map[string]interface{}{"id": partnershipID})
	if err != nil {
		return nil, err
	}

	records := extractQueryResults(results)
	matches := make([]*model.ComputedMatch, 0, len(records))
	for _, rec := range records {
		data, ok := rec.(map[string]interface{})
		if !ok {
			continue
		}
		m, err := parseComputedMatch(data)
		if err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, nil
}

func parseComputedMatch(data map[string]interface{}) (*model.ComputedMatch, error) {
	m := &model.ComputedMatch{
		ID:           getString(data, "key"),
		PartnershipA: getString(data, "partnership_a"),
		PartnershipB: getString(data, "partnership_b"),
		OverallScore: getFloat(data, "overall_score"),
		Tier:         model.Tier(getString(data, "tier")),
	}
	if err := fromDocument(data["categories"], &m.Categories); err != nil {
		return nil, err
	}
	if t := getTime(data, "computed_on"); t != nil {
		m.ComputedOn = *t
	}
	return m, nil
}
