package scoring

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgo/accord/internal/model"
)

const validCatalogYAML = `
version: test-1
shared_synonyms:
  nope: "no"
questions:
  - {id: goals, category: intent, kind: set, importance: 2}
  - {id: shape, category: structure, kind: exact, importance: 1, synonyms: {mono: monogamous}}
  - {id: talk, category: connection, kind: exact, importance: 1}
  - {id: spark, category: chemistry, kind: ordinal, importance: 1, scale: {min: 1, max: 10}}
  - {id: smoke, category: lifestyle, kind: exact, importance: 1}
`

func TestDefaultCatalog_IsValid(t *testing.T) {
	t.Parallel()

	c := DefaultCatalog()
	require.NoError(t, c.Validate())

	for _, cat := range model.AllCategories() {
		n := len(c.QuestionsFor(cat))
		assert.GreaterOrEqual(t, n, 3, "category %s", cat)
		assert.LessOrEqual(t, n, 5, "category %s", cat)
	}
}

func TestParseCatalog_Valid(t *testing.T) {
	t.Parallel()

	c, err := ParseCatalog([]byte(validCatalogYAML))
	require.NoError(t, err)

	assert.Equal(t, "test-1", c.Version)
	assert.Len(t, c.Questions, 5)
	assert.Equal(t, "no", c.SharedSynonyms["nope"])
	shape := c.QuestionsFor(model.CategoryStructure)
	require.Len(t, shape, 1)
	assert.Equal(t, "monogamous", shape[0].Synonyms["mono"])

	spark := c.QuestionsFor(model.CategoryChemistry)
	require.Len(t, spark, 1)
	require.NotNil(t, spark[0].Scale)
	assert.Equal(t, 10.0, spark[0].Scale.Max)
}

func TestLoadCatalog_FromFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validCatalogYAML), 0o600))

	c, err := LoadCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, "test-1", c.Version)

	_, err = LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestCatalog_Validate_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		yaml string
	}{
		{"malformed yaml", "questions: [oops"},
		{"duplicate id", validCatalogYAML + "  - {id: goals, category: intent, kind: set, importance: 1}\n"},
		{"unknown category", validCatalogYAML + "  - {id: x, category: astrology, kind: exact, importance: 1}\n"},
		{"unknown kind", validCatalogYAML + "  - {id: x, category: intent, kind: fuzzy, importance: 1}\n"},
		{"zero importance", validCatalogYAML + "  - {id: x, category: intent, kind: exact, importance: 0}\n"},
		{"ordinal without scale", validCatalogYAML + "  - {id: x, category: intent, kind: ordinal, importance: 1}\n"},
		{"empty category", "version: v\nquestions:\n  - {id: goals, category: intent, kind: set, importance: 2}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := ParseCatalog([]byte(tt.yaml))
			assert.ErrorIs(t, err, ErrInvalidCatalog)
		})
	}
}

// ============================================================================
// Tiers and Weights
// ============================================================================

func TestTierThresholds_Classify_IsMonotonic(t *testing.T) {
	t.Parallel()

	for _, tiers := range []TierThresholds{DefaultTierThresholds(), LegacyTierThresholds()} {
		prev := tiers.Classify(0).Rank()
		for score := 0.0; score <= 100; score += 0.25 {
			rank := tiers.Classify(score).Rank()
			assert.GreaterOrEqual(t, rank, prev, "tier dropped at score %.2f", score)
			prev = rank
		}
	}
}

func TestTierThresholds_Classify_Boundaries(t *testing.T) {
	t.Parallel()

	tiers := DefaultTierThresholds()

	assert.Equal(t, model.TierPlatinum, tiers.Classify(85))
	assert.Equal(t, model.TierGold, tiers.Classify(84.99))
	assert.Equal(t, model.TierGold, tiers.Classify(70))
	assert.Equal(t, model.TierSilver, tiers.Classify(50))
	assert.Equal(t, model.TierBronze, tiers.Classify(49.99))
}

func TestTierThresholds_Validate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, DefaultTierThresholds().Validate())
	assert.NoError(t, LegacyTierThresholds().Validate())
	assert.ErrorIs(t, TierThresholds{Platinum: 101, Gold: 70, Silver: 50}.Validate(), ErrInvalidTiers)
	assert.ErrorIs(t, TierThresholds{Platinum: 85, Gold: 85, Silver: 50}.Validate(), ErrInvalidTiers)
	assert.ErrorIs(t, TierThresholds{Platinum: 85, Gold: 70, Silver: -1}.Validate(), ErrInvalidTiers)
}

func TestWeights_Validate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, DefaultWeights().Validate())
	assert.NoError(t, Weights{model.CategoryIntent: 1}.Validate())
	assert.ErrorIs(t, Weights{model.CategoryIntent: 0}.Validate(), ErrInvalidWeights)
	assert.ErrorIs(t, Weights{model.CategoryIntent: -0.1}.Validate(), ErrInvalidWeights)

	w := WeightsFromMap(map[string]float64{"intent": 0.5, "lifestyle": 0.5})
	assert.NoError(t, w.Validate())
	assert.Equal(t, 0.5, w[model.CategoryLifestyle])
}

func TestSimilarity_IsSymmetric(t *testing.T) {
	t.Parallel()

	a := []string{"cooking", "hiking", "reading"}
	b := []string{"hiking", "travel"}

	assert.Equal(t, jaccard(a, b), jaccard(b, a))
	assert.InDelta(t, 0.25, jaccard(a, b), 1e-9)
	assert.Zero(t, jaccard(nil, nil))

	scale := Scale{Min: 1, Max: 5}
	assert.Equal(t, ordinalSimilarity(1, 4, scale), ordinalSimilarity(4, 1, scale))
	assert.Equal(t, 0.25, ordinalSimilarity(1, 4, scale))

	assert.Equal(t, 1.0, exactSimilarity([]string{"x"}, []string{"x"}))
	assert.Zero(t, exactSimilarity([]string{"x"}, []string{"x", "y"}))
}
