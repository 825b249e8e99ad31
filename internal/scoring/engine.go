package scoring

import (
	"fmt"

	"github.com/forgo/accord/internal/model"
)

// EngineConfig holds configuration for the compatibility engine. Zero values
// fall back to the defaults.
type EngineConfig struct {
	Catalog     *Catalog
	Weights     Weights
	Tiers       *TierThresholds
	MinCoverage float64
}

// Engine scores pairs of raw answer sets
type Engine struct {
	catalog    *Catalog
	normalizer *Normalizer
	scorers    []*CategoryScorer
	weights    Weights
	tiers      TierThresholds
}

// NewEngine validates the configuration and builds one scorer per category
func NewEngine(cfg EngineConfig) (*Engine, error) {
	catalog := cfg.Catalog
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	if err := catalog.Validate(); err != nil {
		return nil, err
	}

	weights := cfg.Weights
	if weights == nil {
		weights = DefaultWeights()
	}
	if err := weights.Validate(); err != nil {
		return nil, err
	}

	tiers := DefaultTierThresholds()
	if cfg.Tiers != nil {
		tiers = *cfg.Tiers
	}
	if err := tiers.Validate(); err != nil {
		return nil, err
	}

	minCoverage := cfg.MinCoverage
	if minCoverage <= 0 {
		minCoverage = DefaultMinCoverage
	}
	if minCoverage > 1 {
		return nil, fmt.Errorf("min coverage must be within (0, 1], got %.2f", minCoverage)
	}

	e := &Engine{
		catalog:    catalog,
		normalizer: NewNormalizer(catalog),
		weights:    weights,
		tiers:      tiers,
	}
	for _, cat := range model.AllCategories() {
		e.scorers = append(e.scorers, NewCategoryScorer(cat, catalog.QuestionsFor(cat), minCoverage))
	}
	return e, nil
}

// MustNewEngine is NewEngine for static configuration known to be valid
func MustNewEngine(cfg EngineConfig) *Engine {
	e, err := NewEngine(cfg)
	if err != nil {
		panic(err)
	}
	return e
}

// CatalogVersion identifies the catalog results were computed against
func (e *Engine) CatalogVersion() string {
	return e.catalog.Version
}

// Normalizer exposes the engine's normalizer
func (e *Engine) Normalizer() *Normalizer {
	return e.normalizer
}

// Weights returns a copy of the configured weights
func (e *Engine) Weights() Weights {
	return Weights{}.With(e.weights)
}

// Calculate scores a and b with the configured weights
func (e *Engine) Calculate(a, b model.AnswerSet) *model.CompatibilityResult {
	return e.calculate(e.normalizer.Normalize(a), e.normalizer.Normalize(b), e.weights)
}

// CalculateWithWeights scores a and b with the configured weights overridden
// by w. Categories missing from w keep their configured weight.
func (e *Engine) CalculateWithWeights(a, b model.AnswerSet, w Weights) (*model.CompatibilityResult, error) {
	merged := e.weights.With(w)
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return e.calculate(e.normalizer.Normalize(a), e.normalizer.Normalize(b), merged), nil
}

// CalculateNormalized scores already-normalized answers. Batch callers use it
// to normalize each partnership once.
func (e *Engine) CalculateNormalized(a, b NormalizedAnswers) *model.CompatibilityResult {
	return e.calculate(a, b, e.weights)
}

func (e *Engine) calculate(a, b NormalizedAnswers, weights Weights) *model.CompatibilityResult {
	result := &model.CompatibilityResult{
		Categories:     make([]model.CategoryScore, 0, len(e.scorers)),
		CatalogVersion: e.catalog.Version,
	}

	var weighted, totalWeight float64
	for _, scorer := range e.scorers {
		cs := scorer.Score(a, b)
		result.Categories = append(result.Categories, cs)

		w := weights[cs.Category]
		if !cs.Included || w <= 0 {
			continue
		}
		weighted += cs.Score * w
		totalWeight += w
	}

	if totalWeight == 0 {
		result.OverallScore = 0
		result.Tier = model.TierBronze
		result.InsufficientData = true
		return result
	}

	result.OverallScore = round2(weighted / totalWeight)
	result.Tier = e.tiers.Classify(result.OverallScore)
	return result
}

// Classify exposes the configured tier ladder
func (e *Engine) Classify(score float64) model.Tier {
	return e.tiers.Classify(score)
}
