package scoring

import (
	"fmt"

	"github.com/forgo/accord/internal/model"
)

// TierThresholds are the minimum overall scores for each tier. Anything
// below Silver is Bronze.
type TierThresholds struct {
	Platinum float64 `yaml:"platinum" json:"platinum"`
	Gold     float64 `yaml:"gold" json:"gold"`
	Silver   float64 `yaml:"silver" json:"silver"`
}

// DefaultTierThresholds returns the production ladder
func DefaultTierThresholds() TierThresholds {
	return TierThresholds{Platinum: 85, Gold: 70, Silver: 50}
}

// LegacyTierThresholds reproduces the older ladder for operators that need it
func LegacyTierThresholds() TierThresholds {
	return TierThresholds{Platinum: 75, Gold: 45, Silver: 0}
}

// Validate requires 100 >= Platinum > Gold > Silver >= 0
func (t TierThresholds) Validate() error {
	if t.Platinum > 100 || t.Silver < 0 {
		return fmt.Errorf("%w: thresholds must be within 0-100", ErrInvalidTiers)
	}
	if !(t.Platinum > t.Gold && t.Gold > t.Silver) {
		return fmt.Errorf("%w: thresholds must be strictly descending (platinum %.2f, gold %.2f, silver %.2f)",
			ErrInvalidTiers, t.Platinum, t.Gold, t.Silver)
	}
	return nil
}

// Classify maps an overall score to its tier
func (t TierThresholds) Classify(score float64) model.Tier {
	switch {
	case score >= t.Platinum:
		return model.TierPlatinum
	case score >= t.Gold:
		return model.TierGold
	case score >= t.Silver:
		return model.TierSilver
	default:
		return model.TierBronze
	}
}
