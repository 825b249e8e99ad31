package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgo/accord/internal/model"
)

// ============================================================================
// Fixtures
// ============================================================================

func fullAnswersA() model.AnswerSet {
	return model.AnswerSet{
		"intent_goals":              []any{"Long term", "friendship"},
		"intent_exclusivity":        "monogamous",
		"intent_timeline":           3.0,
		"intent_children":           "no",
		"structure_type":            "monogamy",
		"structure_hierarchy":       "none",
		"structure_time_commitment": 4.0,
		"structure_living":          []any{"separate"},
		"connection_love_languages": []any{"touch", "words"},
		"connection_communication":  "direct",
		"connection_conflict":       "talk it out",
		"connection_affection":      4.0,
		"chemistry_interests":       []any{"hiking", "cooking", "board games"},
		"chemistry_energy":          3.0,
		"chemistry_humor":           []any{"dry"},
		"chemistry_pace":            2.0,
		"lifestyle_smoking":         false,
		"lifestyle_drinking":        1.0,
		"lifestyle_diet":            "omnivore",
		"lifestyle_pets":            map[string]any{"dog": true, "cat": false},
		"lifestyle_schedule":        "early bird",
	}
}

func fullAnswersB() model.AnswerSet {
	return model.AnswerSet{
		"intent_goals":              []any{"long-term"},
		"intent_exclusivity":        "Monogamous",
		"intent_timeline":           5.0,
		"intent_children":           "no",
		"structure_type":            "monogamous",
		"structure_hierarchy":       "none",
		"structure_time_commitment": 4.0,
		"structure_living":          []any{"separate", "together"},
		"connection_love_languages": []any{"words"},
		"connection_communication":  "indirect",
		"connection_conflict":       "talk-it-out",
		"connection_affection":      5.0,
		"chemistry_interests":       []any{"hiking", "gaming"},
		"chemistry_energy":          "4",
		"chemistry_humor":           []any{"dry", "silly"},
		"chemistry_pace":            2.0,
		"lifestyle_smoking":         "non smoker",
		"lifestyle_drinking":        2.0,
		"lifestyle_diet":            "vegetarian",
		"lifestyle_pets":            []any{"dog", "cat"},
		"lifestyle_schedule":        "morning",
	}
}

func onlyCategories(answers model.AnswerSet, cats ...model.Category) model.AnswerSet {
	keep := make(map[model.Category]bool, len(cats))
	for _, c := range cats {
		keep[c] = true
	}
	out := model.AnswerSet{}
	for _, q := range DefaultCatalog().Questions {
		if v, ok := answers[q.ID]; ok && keep[q.Category] {
			out[q.ID] = v
		}
	}
	return out
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(EngineConfig{})
	require.NoError(t, err)
	return e
}

// ============================================================================
// Engine Properties
// ============================================================================

func TestEngine_Calculate_IsDeterministic(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	first := e.Calculate(fullAnswersA(), fullAnswersB())

	for i := 0; i < 25; i++ {
		assert.Equal(t, first, e.Calculate(fullAnswersA(), fullAnswersB()))
	}
}

func TestEngine_Calculate_IsSymmetric(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	ab := e.Calculate(fullAnswersA(), fullAnswersB())
	ba := e.Calculate(fullAnswersB(), fullAnswersA())

	assert.Equal(t, ab.OverallScore, ba.OverallScore)
	assert.Equal(t, ab.Tier, ba.Tier)
	assert.Equal(t, ab.Categories, ba.Categories)
}

func TestEngine_Calculate_ReportsEveryCategoryInOrder(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	result := e.Calculate(fullAnswersA(), fullAnswersB())

	require.Len(t, result.Categories, 5)
	for i, cat := range model.AllCategories() {
		assert.Equal(t, cat, result.Categories[i].Category)
		assert.True(t, result.Categories[i].Included, "category %s should be included", cat)
		assert.Equal(t, 1.0, result.Categories[i].Coverage)
	}
	assert.False(t, result.InsufficientData)
	assert.Equal(t, DefaultCatalogVersion, result.CatalogVersion)
}

func TestEngine_Calculate_IdenticalAnswersScorePerfect(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	result := e.Calculate(fullAnswersA(), fullAnswersA())

	assert.Equal(t, 100.0, result.OverallScore)
	assert.Equal(t, model.TierPlatinum, result.Tier)
}

// ============================================================================
// Coverage Handling
// ============================================================================

func TestEngine_Calculate_IntentAndStructureOnly(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	a := onlyCategories(fullAnswersA(), model.CategoryIntent, model.CategoryStructure)
	b := onlyCategories(fullAnswersB(), model.CategoryIntent, model.CategoryStructure)

	result := e.Calculate(a, b)

	intent, ok := result.Category(model.CategoryIntent)
	require.True(t, ok)
	structure, ok := result.Category(model.CategoryStructure)
	require.True(t, ok)

	// goals 0.5*3 + exclusivity 1*3 + timeline 0.5*2 + children 1*2 over importance 10
	assert.Equal(t, 75.0, intent.Score)
	// type 1*3 + hierarchy 1*2 + commitment 1*2 + living 0.5*1 over importance 8
	assert.Equal(t, 93.75, structure.Score)

	expected := (intent.Score*0.25 + structure.Score*0.20) / 0.45
	assert.InDelta(t, expected, result.OverallScore, 0.005)
	assert.Equal(t, model.TierGold, result.Tier)

	for _, cat := range []model.Category{model.CategoryConnection, model.CategoryChemistry, model.CategoryLifestyle} {
		cs, ok := result.Category(cat)
		require.True(t, ok)
		assert.False(t, cs.Included, "category %s should be excluded", cat)
		assert.Zero(t, cs.Score)
		assert.Zero(t, cs.Answered)
	}

	lifestyle, _ := result.Category(model.CategoryLifestyle)
	assert.Equal(t, LifestyleExcludedNote, lifestyle.Note)
}

func TestEngine_Calculate_UnansweredCategoryDoesNotAffectOverall(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	b := fullAnswersB()
	for _, q := range DefaultCatalog().QuestionsFor(model.CategoryChemistry) {
		delete(b, q.ID)
	}

	base := e.Calculate(fullAnswersA(), b)

	// Changing only A's chemistry answers must not move the overall score
	altered := fullAnswersA()
	altered["chemistry_interests"] = []any{"opera"}
	altered["chemistry_energy"] = 1.0
	changed := e.Calculate(altered, b)

	chem, _ := base.Category(model.CategoryChemistry)
	assert.False(t, chem.Included)
	assert.Equal(t, base.OverallScore, changed.OverallScore)
}

func TestEngine_Calculate_LowLifestyleCoverageExcludesLifestyle(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	a := fullAnswersA()
	b := fullAnswersB()
	// 2 of 5 lifestyle questions answered by both sides
	for _, id := range []string{"lifestyle_diet", "lifestyle_pets", "lifestyle_schedule"} {
		delete(b, id)
	}

	result := e.Calculate(a, b)
	lifestyle, _ := result.Category(model.CategoryLifestyle)

	assert.False(t, lifestyle.Included)
	assert.Equal(t, 2, lifestyle.Answered)
	assert.Equal(t, 0.4, lifestyle.Coverage)
	assert.Equal(t, LifestyleExcludedNote, lifestyle.Note)
	assert.False(t, result.InsufficientData)
}

func TestEngine_Calculate_LowCoverageOtherCategoryStaysIncludedWithCaveat(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	b := fullAnswersB()
	// 1 of 4 intent questions answered by both sides
	for _, id := range []string{"intent_exclusivity", "intent_timeline", "intent_children"} {
		delete(b, id)
	}

	result := e.Calculate(fullAnswersA(), b)
	intent, _ := result.Category(model.CategoryIntent)

	assert.True(t, intent.Included)
	assert.True(t, intent.LowCoverage)
	assert.Equal(t, 0.25, intent.Coverage)
	assert.Contains(t, intent.Note, "limited data")
}

func TestEngine_Calculate_NoAnswersIsInsufficientData(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	result := e.Calculate(model.AnswerSet{}, fullAnswersB())

	assert.True(t, result.InsufficientData)
	assert.Zero(t, result.OverallScore)
	assert.Equal(t, model.TierBronze, result.Tier)
	for _, cs := range result.Categories {
		assert.False(t, cs.Included)
	}
}

// ============================================================================
// Weights
// ============================================================================

func TestEngine_CalculateWithWeights_OverridesSelectedCategories(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	a := onlyCategories(fullAnswersA(), model.CategoryIntent, model.CategoryStructure)
	b := onlyCategories(fullAnswersB(), model.CategoryIntent, model.CategoryStructure)

	result, err := e.CalculateWithWeights(a, b, Weights{model.CategoryStructure: 0})
	require.NoError(t, err)

	// Only intent carries weight
	assert.Equal(t, 75.0, result.OverallScore)
	assert.Equal(t, model.TierGold, result.Tier)
}

func TestEngine_CalculateWithWeights_RejectsInvalidWeights(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)

	_, err := e.CalculateWithWeights(fullAnswersA(), fullAnswersB(), Weights{model.CategoryIntent: -1})
	assert.ErrorIs(t, err, ErrInvalidWeights)

	_, err = e.CalculateWithWeights(fullAnswersA(), fullAnswersB(), Weights{"vibes": 1})
	assert.ErrorIs(t, err, ErrInvalidWeights)
}

func TestEngine_CalculateNormalized_MatchesCalculate(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	n := e.Normalizer()

	assert.Equal(t,
		e.Calculate(fullAnswersA(), fullAnswersB()),
		e.CalculateNormalized(n.Normalize(fullAnswersA()), n.Normalize(fullAnswersB())),
	)
}

// ============================================================================
// Construction
// ============================================================================

func TestNewEngine_RejectsInvalidConfiguration(t *testing.T) {
	t.Parallel()

	_, err := NewEngine(EngineConfig{Weights: Weights{}})
	assert.ErrorIs(t, err, ErrInvalidWeights)

	_, err = NewEngine(EngineConfig{Tiers: &TierThresholds{Platinum: 50, Gold: 70, Silver: 10}})
	assert.ErrorIs(t, err, ErrInvalidTiers)

	_, err = NewEngine(EngineConfig{Catalog: &Catalog{Version: "empty"}})
	assert.ErrorIs(t, err, ErrInvalidCatalog)

	_, err = NewEngine(EngineConfig{MinCoverage: 1.5})
	assert.Error(t, err)
}

func TestNewEngine_LegacyTiers(t *testing.T) {
	t.Parallel()

	legacy := LegacyTierThresholds()
	e, err := NewEngine(EngineConfig{Tiers: &legacy})
	require.NoError(t, err)

	assert.Equal(t, model.TierGold, e.Classify(50))
	assert.Equal(t, model.TierSilver, e.Classify(10))
}
