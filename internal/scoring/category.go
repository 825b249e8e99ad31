package scoring

import (
	"fmt"

	"github.com/forgo/accord/internal/model"
)

// DefaultMinCoverage is the fraction of a category's questions both sides
// must answer before its score is considered reliable
const DefaultMinCoverage = 0.5

// LifestyleExcludedNote is surfaced when lifestyle is dropped for low coverage
const LifestyleExcludedNote = "Lifestyle compatibility not calculated due to incomplete data"

// CategoryScorer scores one category from two normalized answer sets
type CategoryScorer struct {
	category    model.Category
	questions   []Question
	minCoverage float64
	// excludeOnLowCoverage drops the category from the overall score instead
	// of keeping it with a caveat
	excludeOnLowCoverage bool
}

// NewCategoryScorer builds a scorer over the category's questions
func NewCategoryScorer(category model.Category, questions []Question, minCoverage float64) *CategoryScorer {
	return &CategoryScorer{
		category:             category,
		questions:            questions,
		minCoverage:          minCoverage,
		excludeOnLowCoverage: category == model.CategoryLifestyle,
	}
}

// Category returns the scored category
func (s *CategoryScorer) Category() model.Category {
	return s.category
}

// Score computes the importance-weighted similarity over questions both
// sides answered, plus coverage and inclusion.
func (s *CategoryScorer) Score(a, b NormalizedAnswers) model.CategoryScore {
	result := model.CategoryScore{
		Category: s.category,
		Total:    len(s.questions),
	}

	var weighted, importance float64
	for _, q := range s.questions {
		va, okA := a[q.ID]
		vb, okB := b[q.ID]
		if !okA || !okB {
			continue
		}
		result.Answered++
		weighted += similarity(q, va, vb) * q.Importance
		importance += q.Importance
	}

	if result.Answered == 0 || importance == 0 {
		result.Note = s.insufficientNote()
		return result
	}

	result.Score = round2(100 * weighted / importance)
	result.Coverage = round2(float64(result.Answered) / float64(result.Total))
	result.Included = true

	if float64(result.Answered) < s.minCoverage*float64(result.Total) {
		if s.excludeOnLowCoverage {
			result.Included = false
			result.Note = LifestyleExcludedNote
			return result
		}
		result.LowCoverage = true
		result.Note = fmt.Sprintf("%s score is based on limited data (%d of %d questions answered by both)",
			s.category.Label(), result.Answered, result.Total)
	}

	return result
}

func (s *CategoryScorer) insufficientNote() string {
	if s.excludeOnLowCoverage {
		return LifestyleExcludedNote
	}
	return fmt.Sprintf("%s compatibility not calculated: no questions answered by both", s.category.Label())
}
