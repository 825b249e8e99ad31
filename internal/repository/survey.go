package repository

import (
	"context"
	"errors"

	"github.com/forgo/accord/internal/database"
	"github.com/forgo/accord/internal/model"
)

// SurveyRepository stores one answer document per partnership
type SurveyRepository struct {
	db database.Database
}

// NewSurveyRepository creates a new survey repository
func NewSurveyRepository(db database.Database) *SurveyRepository {
	return &SurveyRepository{db: db}
}

// GetAnswers returns the stored answers, or an empty set when none exist
func (r *SurveyRepository) GetAnswers(ctx context.Context, partnershipID string) (model.AnswerSet, error) {
	query := `SELECT answers FROM survey_answers WHERE partnership = $partnership LIMIT 1`
	result, err := r.db.QueryOne(ctx, query, map[string]interface{}{"partnership": partnershipID})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return model.AnswerSet{}, nil
		}
		return nil, err
	}

	data, err := asRecord(result)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return model.AnswerSet{}, nil
		}
		return nil, err
	}

	answers := model.AnswerSet{}
	if err := fromDocument(data["answers"], &answers); err != nil {
		return nil, err
	}
	return answers, nil
}

// SaveAnswers replaces the stored answers of a partnership
func (r *SurveyRepository) SaveAnswers(ctx context.Context, partnershipID string, answers model.AnswerSet) error {
	doc, err := toDocument(answers)
	if err != nil {
		return err
	}

	query := `
		UPSERT type::thing('survey_answers', $partnership) SET
			partnership = $partnership,
			answers = $answers,
			updated_on = time::now()
	`
	return r.db.Execute(ctx, query, map[string]interface{}{
		"partnership": partnershipID,
		"answers":     doc,
	})
}
