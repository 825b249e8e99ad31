package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/forgo/accord/internal/model"
	"github.com/forgo/accord/internal/scoring"
)

// SurveyProgress is returned after saving answers
type SurveyProgress struct {
	PartnershipID    string  `json:"partnership_id"`
	Answered         int     `json:"answered"`
	SurveyCompletion float64 `json:"survey_completion"`
}

// SurveyService stores survey answers and tracks completion
type SurveyService struct {
	surveys      SurveyStore
	partnerships PartnershipStore
	normalizer   *scoring.Normalizer
	logger       *zap.Logger
}

// SurveyServiceConfig holds configuration for the survey service
type SurveyServiceConfig struct {
	Surveys      SurveyStore
	Partnerships PartnershipStore
	Normalizer   *scoring.Normalizer
	Logger       *zap.Logger // Optional
}

// NewSurveyService creates a new survey service
func NewSurveyService(cfg SurveyServiceConfig) *SurveyService {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SurveyService{
		surveys:      cfg.Surveys,
		partnerships: cfg.Partnerships,
		normalizer:   cfg.Normalizer,
		logger:       logger.Named("survey"),
	}
}

// SaveAnswers merges updates into the stored answers (a null value removes
// an answer) and recomputes survey completion
func (s *SurveyService) SaveAnswers(ctx context.Context, partnershipID string, updates model.AnswerSet) (*SurveyProgress, error) {
	if partnershipID == "" {
		return nil, ErrInvalidPartnershipID
	}
	if len(updates) == 0 {
		return nil, ErrEmptyAnswers
	}
	if err := requirePartnerships(ctx, s.partnerships, partnershipID); err != nil {
		return nil, err
	}

	current, err := s.surveys.GetAnswers(ctx, partnershipID)
	if err != nil {
		return nil, storeError("load answers", err)
	}
	merged := current.Merge(updates)
	if err := s.surveys.SaveAnswers(ctx, partnershipID, merged); err != nil {
		return nil, storeError("save answers", err)
	}

	completion := s.normalizer.Completion(merged)
	if err := s.partnerships.UpdateSurveyCompletion(ctx, partnershipID, completion); err != nil {
		return nil, storeError("update survey completion", err)
	}

	s.logger.Debug("survey answers saved",
		zap.String("partnership_id", partnershipID),
		zap.Int("updated", len(updates)),
		zap.Float64("completion", completion),
	)
	return &SurveyProgress{
		PartnershipID:    partnershipID,
		Answered:         len(s.normalizer.Normalize(merged)),
		SurveyCompletion: completion,
	}, nil
}

// GetAnswers returns the stored answers of a partnership
func (s *SurveyService) GetAnswers(ctx context.Context, partnershipID string) (model.AnswerSet, error) {
	if partnershipID == "" {
		return nil, ErrInvalidPartnershipID
	}
	if err := requirePartnerships(ctx, s.partnerships, partnershipID); err != nil {
		return nil, err
	}
	answers, err := s.surveys.GetAnswers(ctx, partnershipID)
	if err != nil {
		return nil, storeError("load answers", err)
	}
	return answers, nil
}
