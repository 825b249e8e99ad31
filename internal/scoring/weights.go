package scoring

import (
	"errors"
	"fmt"
	"math"

	"github.com/forgo/accord/internal/model"
)

// Weights holds the relative weight of each category in the overall score.
// A missing category has weight 0.
type Weights map[model.Category]float64

// DefaultWeights returns the production category weights
func DefaultWeights() Weights {
	return Weights{
		model.CategoryIntent:     0.25,
		model.CategoryStructure:  0.20,
		model.CategoryConnection: 0.20,
		model.CategoryChemistry:  0.20,
		model.CategoryLifestyle:  0.15,
	}
}

// WeightsFromMap converts string keyed weights (config, JSON) into Weights
func WeightsFromMap(m map[string]float64) Weights {
	w := make(Weights, len(m))
	for k, v := range m {
		w[model.Category(k)] = v
	}
	return w
}

// With returns a copy of w with overrides applied
func (w Weights) With(overrides Weights) Weights {
	out := make(Weights, len(w)+len(overrides))
	for k, v := range w {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

// Validate rejects unknown categories, negative or non-finite weights, and
// weight sets that sum to zero
func (w Weights) Validate() error {
	var errs []error
	var sum float64

	for cat, v := range w {
		if !cat.IsValid() {
			errs = append(errs, fmt.Errorf("unknown category %q", cat))
			continue
		}
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			errs = append(errs, fmt.Errorf("category %s: weight must be a non-negative number", cat))
			continue
		}
		sum += v
	}
	if len(errs) == 0 && sum == 0 {
		errs = append(errs, errors.New("at least one category must have a positive weight"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidWeights, errors.Join(errs...))
	}
	return nil
}
