package repository

import (
	"context"
	"errors"

	"github.com/forgo/accord/internal/database"
	"github.com/forgo/accord/internal/model"
)

// PartnershipRepository handles partnership data access
type PartnershipRepository struct {
	db database.Database
}

// NewPartnershipRepository creates a new partnership repository
func NewPartnershipRepository(db database.Database) *PartnershipRepository {
	return &PartnershipRepository{db: db}
}

// GetPartnership retrieves a partnership by id, or nil if it does not exist
func (r *PartnershipRepository) GetPartnership(ctx context.Context, id string) (*model.Partnership, error) {
	query := `SELECT * FROM partnership WHERE key = $key LIMIT 1`
	result, err := r.db.QueryOne(ctx, query, map[string]interface{}{"key": id})
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
	return parsePartnership(data), nil
}

// SavePartnership creates or replaces a partnership
func (r *PartnershipRepository) SavePartnership(ctx context.Context, p *model.Partnership) error {
	query := `
		UPSERT type::thing('partnership', $key) SET
			key = $key,
			profile_type = $profile_type,
			city = $city,
			membership_tier = $membership_tier,
			survey_completion = $survey_completion,
			status = $status,
			created_on = IF created_on THEN created_on ELSE time::now() END,
			updated_on = time::now()
	`
	vars := map[string]interface{}{
		"key":               p.ID,
		"profile_type":      string(p.ProfileType),
		"city":              p.City,
		"membership_tier":   p.MembershipTier,
		"survey_completion": p.SurveyCompletion,
		"status":            string(p.Status),
	}
	return r.db.Execute(ctx, query, vars)
}

// Exists reports whether a partnership exists
func (r *PartnershipRepository) Exists(ctx context.Context, id string) (bool, error) {
	query := `SELECT count() AS count FROM partnership WHERE key = $key GROUP ALL`
	result, err := r.db.QueryOne(ctx, query, map[string]interface{}{"key": id})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	data, err := asRecord(result)
	if err != nil {
		return false, nil
	}
	return getInt(data, "count") > 0, nil
}

// ListEligiblePairs returns every canonical pair of active partnerships whose
// survey completion is at least minCompletion
func (r *PartnershipRepository) ListEligiblePairs(ctx context.Context, minCompletion float64) ([]model.PartnershipPair, error) {
	query := `SELECT key FROM partnership WHERE status = $status AND survey_completion >= $min ORDER BY key`
	vars := map[string]interface{}{
		"status": string(model.PartnershipStatusActive),
		"min":    minCompletion,
	}

	results, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}

	var ids []string
	for _, rec := range extractQueryResults(results) {
		if data, ok := rec.(map[string]interface{}); ok {
			ids = append(ids, getString(data, "key"))
		}
	}
	return model.PairsOf(ids), nil
}

// UpdateSurveyCompletion stores a partnership's survey completion ratio
func (r *PartnershipRepository) UpdateSurveyCompletion(ctx context.Context, id string, completion float64) error {
	query := `UPDATE partnership SET survey_completion = $completion, updated_on = time::now() WHERE key = $key RETURN AFTER`
	vars := map[string]interface{}{"key": id, "completion": completion}

	results, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return err
	}
	if len(extractQueryResults(results)) == 0 {
		return database.ErrNotFound
	}
	return nil
}

func parsePartnership(data map[string]interface{}) *model.Partnership {
	p := &model.Partnership{
		ID:               getString(data, "key"),
		ProfileType:      model.ProfileType(getString(data, "profile_type")),
		City:             getString(data, "city"),
		MembershipTier:   getString(data, "membership_tier"),
		SurveyCompletion: getFloat(data, "survey_completion"),
		Status:           model.PartnershipStatus(getString(data, "status")),
	}
	if t := getTime(data, "created_on"); t != nil {
		p.CreatedOn = *t
	}
	if t := getTime(data, "updated_on"); t != nil {
		p.UpdatedOn = *t
	}
	return p
}
