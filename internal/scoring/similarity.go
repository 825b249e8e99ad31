package scoring

import (
	"math"
	"slices"

	"github.com/samber/lo"
)

// similarity returns a value in [0,1]. Every function here is symmetric in
// its arguments.
func similarity(q Question, a, b Value) float64 {
	switch q.Kind {
	case KindExact:
		return exactSimilarity(a.Tokens, b.Tokens)
	case KindSet:
		return jaccard(a.Tokens, b.Tokens)
	case KindOrdinal:
		if q.Scale == nil {
			return 0
		}
		return ordinalSimilarity(a.Number, b.Number, *q.Scale)
	}
	return 0
}

// exactSimilarity expects both inputs sorted and deduplicated
func exactSimilarity(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	if slices.Equal(a, b) {
		return 1
	}
	return 0
}

func jaccard(a, b []string) float64 {
	union := lo.Union(a, b)
	if len(union) == 0 {
		return 0
	}
	return float64(len(lo.Intersect(a, b))) / float64(len(union))
}

func ordinalSimilarity(a, b float64, s Scale) float64 {
	span := s.Max - s.Min
	if span <= 0 {
		if a == b {
			return 1
		}
		return 0
	}
	return math.Max(0, 1-math.Abs(a-b)/span)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
