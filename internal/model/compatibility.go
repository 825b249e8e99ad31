package model

import "time"

// Category is one of the five compatibility dimensions
type Category string

const (
	CategoryIntent     Category = "intent"
	CategoryStructure  Category = "structure"
	CategoryConnection Category = "connection"
	CategoryChemistry  Category = "chemistry"
	CategoryLifestyle  Category = "lifestyle"
)

// AllCategories returns every category in the fixed scoring order
func AllCategories() []Category {
	return []Category{
		CategoryIntent,
		CategoryStructure,
		CategoryConnection,
		CategoryChemistry,
		CategoryLifestyle,
	}
}

// IsValid reports whether c is a known category
func (c Category) IsValid() bool {
	switch c {
	case CategoryIntent, CategoryStructure, CategoryConnection, CategoryChemistry, CategoryLifestyle:
		return true
	}
	return false
}

// Label returns the display name for a category
func (c Category) Label() string {
	switch c {
	case CategoryIntent:
		return "Intent"
	case CategoryStructure:
		return "Structure"
	case CategoryConnection:
		return "Connection"
	case CategoryChemistry:
		return "Chemistry"
	case CategoryLifestyle:
		return "Lifestyle"
	}
	return string(c)
}

// CategoryScore is the per-category result of scoring one pair
type CategoryScore struct {
	Category Category `json:"category"`
	Score    float64  `json:"score"`    // 0-100
	Coverage float64  `json:"coverage"` // 0-1, questions answered by both sides / questions in category
	Included bool     `json:"included"` // false: contributes no weight to the overall score
	Answered int      `json:"answered"`
	Total    int      `json:"total"`
	// LowCoverage marks an included category scored from fewer questions than the minimum
	LowCoverage bool   `json:"low_coverage,omitempty"`
	Note        string `json:"note,omitempty"`
}

// Tier is a coarse compatibility bucket derived from the overall score
type Tier string

const (
	TierPlatinum Tier = "platinum"
	TierGold     Tier = "gold"
	TierSilver   Tier = "silver"
	TierBronze   Tier = "bronze"
)

// Rank orders tiers from lowest (0) to highest (3)
func (t Tier) Rank() int {
	switch t {
	case TierPlatinum:
		return 3
	case TierGold:
		return 2
	case TierSilver:
		return 1
	}
	return 0
}

// CompatibilityResult is the scored outcome for a pair of partnerships.
// OverallScore is the weight-renormalized average over included categories only.
type CompatibilityResult struct {
	PartnershipA     string          `json:"partnership_a,omitempty"`
	PartnershipB     string          `json:"partnership_b,omitempty"`
	OverallScore     float64         `json:"overall_score"`
	Tier             Tier            `json:"tier"`
	InsufficientData bool            `json:"insufficient_data"`
	Categories       []CategoryScore `json:"categories"`
	CatalogVersion   string          `json:"catalog_version,omitempty"`
}

// Category returns the breakdown entry for c
func (r *CompatibilityResult) Category(c Category) (CategoryScore, bool) {
	for _, cs := range r.Categories {
		if cs.Category == c {
			return cs, true
		}
	}
	return CategoryScore{}, false
}

// ComputedMatch is a persisted CompatibilityResult keyed by the unordered pair
type ComputedMatch struct {
	ID           string          `json:"id"`
	PartnershipA string          `json:"partnership_a"`
	PartnershipB string          `json:"partnership_b"`
	OverallScore float64         `json:"overall_score"`
	Tier         Tier            `json:"tier"`
	Categories   []CategoryScore `json:"categories"`
	ComputedOn   time.Time       `json:"computed_on"`
}

// NewComputedMatch builds the persisted form of a result for its canonical pair
func NewComputedMatch(result *CompatibilityResult, computedOn time.Time) *ComputedMatch {
	pair := NewPartnershipPair(result.PartnershipA, result.PartnershipB)
	return &ComputedMatch{
		ID:           pair.Key(),
		PartnershipA: pair.A,
		PartnershipB: pair.B,
		OverallScore: result.OverallScore,
		Tier:         result.Tier,
		Categories:   result.Categories,
		ComputedOn:   computedOn,
	}
}

// Pair returns the canonical pair of the match
func (m *ComputedMatch) Pair() PartnershipPair {
	return NewPartnershipPair(m.PartnershipA, m.PartnershipB)
}

// Counterpart returns the other side of the match relative to id
func (m *ComputedMatch) Counterpart(id string) string {
	if m.PartnershipA == id {
		return m.PartnershipB
	}
	return m.PartnershipA
}

// MatchView is a computed match seen from one partnership's side
type MatchView struct {
	PartnershipID string          `json:"partnership_id"`
	OverallScore  float64         `json:"overall_score"`
	Tier          Tier            `json:"tier"`
	Categories    []CategoryScore `json:"categories"`
	ComputedOn    time.Time       `json:"computed_on"`
}

// CompatibilityPreviewRequest is the body of POST /v1/compatibility/preview
type CompatibilityPreviewRequest struct {
	A       AnswerSet            `json:"a"`
	B       AnswerSet            `json:"b"`
	Weights map[Category]float64 `json:"weights,omitempty"`
}
