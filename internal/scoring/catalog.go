package scoring

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/forgo/accord/internal/model"
)

// QuestionKind selects the similarity function used for a question
type QuestionKind string

const (
	KindExact   QuestionKind = "exact"   // 1 when both answers are identical, else 0
	KindSet     QuestionKind = "set"     // Jaccard overlap of the selected options
	KindOrdinal QuestionKind = "ordinal" // 1 - |a-b| / (max-min) on a numeric scale
)

// Scale bounds an ordinal question
type Scale struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

// Question is one scored survey question
type Question struct {
	ID         string         `yaml:"id" json:"id"`
	Category   model.Category `yaml:"category" json:"category"`
	Kind       QuestionKind   `yaml:"kind" json:"kind"`
	Importance float64        `yaml:"importance" json:"importance"`
	Scale      *Scale         `yaml:"scale,omitempty" json:"scale,omitempty"`
	// Synonyms map answer tokens to their canonical form for this question only
	Synonyms map[string]string `yaml:"synonyms,omitempty" json:"synonyms,omitempty"`
}

// Catalog is the set of questions the engine knows how to score.
// Answers to question ids not in the catalog are ignored.
type Catalog struct {
	Version   string     `yaml:"version" json:"version"`
	Questions []Question `yaml:"questions" json:"questions"`
	// SharedSynonyms apply to every question; a question's own Synonyms win
	SharedSynonyms map[string]string `yaml:"shared_synonyms,omitempty" json:"shared_synonyms,omitempty"`
}

// LoadCatalog reads and validates a YAML catalog file
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and validates a YAML catalog document
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks that every question is well formed and every category has
// at least one question
func (c *Catalog) Validate() error {
	var errs []error

	seen := make(map[string]bool, len(c.Questions))
	perCategory := make(map[model.Category]int)

	for i, q := range c.Questions {
		if q.ID == "" {
			errs = append(errs, fmt.Errorf("question %d: id is required", i))
			continue
		}
		if seen[q.ID] {
			errs = append(errs, fmt.Errorf("question %s: duplicate id", q.ID))
		}
		seen[q.ID] = true

		if !q.Category.IsValid() {
			errs = append(errs, fmt.Errorf("question %s: unknown category %q", q.ID, q.Category))
		} else {
			perCategory[q.Category]++
		}

		switch q.Kind {
		case KindExact, KindSet:
		case KindOrdinal:
			if q.Scale == nil || q.Scale.Max <= q.Scale.Min {
				errs = append(errs, fmt.Errorf("question %s: ordinal scale requires max > min", q.ID))
			}
		default:
			errs = append(errs, fmt.Errorf("question %s: unknown kind %q", q.ID, q.Kind))
		}

		if q.Importance <= 0 {
			errs = append(errs, fmt.Errorf("question %s: importance must be positive", q.ID))
		}
	}

	for _, cat := range model.AllCategories() {
		if perCategory[cat] == 0 {
			errs = append(errs, fmt.Errorf("category %s has no questions", cat))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidCatalog, errors.Join(errs...))
	}
	return nil
}

// QuestionsFor returns the questions of one category in catalog order
func (c *Catalog) QuestionsFor(category model.Category) []Question {
	var out []Question
	for _, q := range c.Questions {
		if q.Category == category {
			out = append(out, q)
		}
	}
	return out
}

// DefaultCatalogVersion identifies the built-in catalog
const DefaultCatalogVersion = "2025.1"

// DefaultCatalog returns the built-in question catalog
func DefaultCatalog() *Catalog {
	five := &Scale{Min: 1, Max: 5}
	relationship := map[string]string{
		"monogamy":             "monogamous",
		"mono":                 "monogamous",
		"poly":                 "polyamorous",
		"polyamory":            "polyamorous",
		"ethical_non_monogamy": "enm",
		"non_monogamous":       "enm",
		"open":                 "open_relationship",
	}
	return &Catalog{
		Version: DefaultCatalogVersion,
		Questions: []Question{
			// Intent
			{ID: "intent_goals", Category: model.CategoryIntent, Kind: KindSet, Importance: 3},
			{ID: "intent_exclusivity", Category: model.CategoryIntent, Kind: KindExact, Importance: 3, Synonyms: relationship},
			{ID: "intent_timeline", Category: model.CategoryIntent, Kind: KindOrdinal, Importance: 2, Scale: five},
			{ID: "intent_children", Category: model.CategoryIntent, Kind: KindExact, Importance: 2},

			// Structure
			{ID: "structure_type", Category: model.CategoryStructure, Kind: KindExact, Importance: 3, Synonyms: relationship},
			{ID: "structure_hierarchy", Category: model.CategoryStructure, Kind: KindExact, Importance: 2},
			{ID: "structure_time_commitment", Category: model.CategoryStructure, Kind: KindOrdinal, Importance: 2, Scale: five},
			{ID: "structure_living", Category: model.CategoryStructure, Kind: KindSet, Importance: 1},

			// Connection
			{ID: "connection_love_languages", Category: model.CategoryConnection, Kind: KindSet, Importance: 2},
			{ID: "connection_communication", Category: model.CategoryConnection, Kind: KindExact, Importance: 2},
			{ID: "connection_conflict", Category: model.CategoryConnection, Kind: KindExact, Importance: 1},
			{ID: "connection_affection", Category: model.CategoryConnection, Kind: KindOrdinal, Importance: 2, Scale: five},

			// Chemistry
			{ID: "chemistry_interests", Category: model.CategoryChemistry, Kind: KindSet, Importance: 2},
			{ID: "chemistry_energy", Category: model.CategoryChemistry, Kind: KindOrdinal, Importance: 1, Scale: five},
			{ID: "chemistry_humor", Category: model.CategoryChemistry, Kind: KindSet, Importance: 1},
			{ID: "chemistry_pace", Category: model.CategoryChemistry, Kind: KindOrdinal, Importance: 2, Scale: five},

			// Lifestyle
			{ID: "lifestyle_smoking", Category: model.CategoryLifestyle, Kind: KindExact, Importance: 2,
				Synonyms: map[string]string{"non_smoker": "no", "never": "no"}},
			{ID: "lifestyle_drinking", Category: model.CategoryLifestyle, Kind: KindOrdinal, Importance: 1, Scale: &Scale{Min: 0, Max: 4}},
			{ID: "lifestyle_diet", Category: model.CategoryLifestyle, Kind: KindExact, Importance: 1,
				Synonyms: map[string]string{"vegan_or_vegetarian": "vegetarian"}},
			{ID: "lifestyle_pets", Category: model.CategoryLifestyle, Kind: KindSet, Importance: 1},
			{ID: "lifestyle_schedule", Category: model.CategoryLifestyle, Kind: KindExact, Importance: 1,
				Synonyms: map[string]string{"night_owl": "evening", "early_bird": "morning"}},
		},
	}
}
