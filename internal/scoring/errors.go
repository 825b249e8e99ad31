package scoring

import "errors"

var (
	ErrInvalidCatalog = errors.New("invalid question catalog")
	ErrInvalidWeights = errors.New("invalid category weights")
	ErrInvalidTiers   = errors.New("invalid tier thresholds")
)
