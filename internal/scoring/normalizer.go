package scoring

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/forgo/accord/internal/model"
)

// maxUnwrapDepth bounds recursion into structured {"value": ...} answers
const maxUnwrapDepth = 4

// Value is one normalized answer. Exact and set questions carry Tokens
// (deduplicated, sorted); ordinal questions carry Number.
type Value struct {
	Tokens []string
	Number float64
}

// NormalizedAnswers maps question id to its canonical value. A missing key
// means the question is unanswered.
type NormalizedAnswers map[string]Value

// Normalizer converts raw answer sets into the canonical shape scorers expect
type Normalizer struct {
	questions map[string]Question
	// synonyms per question id, shared entries merged under the question's own
	synonyms map[string]map[string]string
}

// NewNormalizer indexes the catalog for normalization
func NewNormalizer(c *Catalog) *Normalizer {
	n := &Normalizer{
		questions: make(map[string]Question, len(c.Questions)),
		synonyms:  make(map[string]map[string]string, len(c.Questions)),
	}
	for _, q := range c.Questions {
		n.questions[q.ID] = q
		syn := make(map[string]string, len(c.SharedSynonyms)+len(q.Synonyms))
		for from, to := range c.SharedSynonyms {
			syn[canonicalToken(from)] = canonicalToken(to)
		}
		for from, to := range q.Synonyms {
			syn[canonicalToken(from)] = canonicalToken(to)
		}
		n.synonyms[q.ID] = syn
	}
	return n
}

// Normalize never fails: unknown ids, nulls, and values that cannot be read
// for the question's kind are omitted and count as unanswered.
func (n *Normalizer) Normalize(raw model.AnswerSet) NormalizedAnswers {
	out := make(NormalizedAnswers, len(raw))
	for id, v := range raw {
		q, ok := n.questions[id]
		if !ok {
			continue
		}
		if val, ok := n.normalizeValue(q, v); ok {
			out[id] = val
		}
	}
	return out
}

// Completion is the fraction of catalog questions answered in raw
func (n *Normalizer) Completion(raw model.AnswerSet) float64 {
	if len(n.questions) == 0 {
		return 0
	}
	return round2(float64(len(n.Normalize(raw))) / float64(len(n.questions)))
}

func (n *Normalizer) normalizeValue(q Question, v any) (Value, bool) {
	v = unwrap(v, 0)
	if v == nil {
		return Value{}, false
	}

	if q.Kind == KindOrdinal {
		num, ok := firstNumber(v)
		if !ok || q.Scale == nil {
			return Value{}, false
		}
		return Value{Number: math.Min(math.Max(num, q.Scale.Min), q.Scale.Max)}, true
	}

	tokens := tokensOf(v, n.synonyms[q.ID])
	if len(tokens) == 0 {
		return Value{}, false
	}
	return Value{Tokens: tokens}, true
}

// tokensOf flattens scalars, lists, and checkbox maps into a sorted unique set
func tokensOf(v any, syn map[string]string) []string {
	var raw []string

	switch t := v.(type) {
	case []any:
		for _, item := range t {
			if s, ok := scalarToken(unwrap(item, 0), syn); ok {
				raw = append(raw, s)
			}
		}
	case []string:
		for _, item := range t {
			if s, ok := scalarToken(item, syn); ok {
				raw = append(raw, s)
			}
		}
	case map[string]any:
		// checkbox style: {"hiking": true, "gaming": false}
		for key, selected := range t {
			if truthy(selected) {
				if s, ok := scalarToken(key, syn); ok {
					raw = append(raw, s)
				}
			}
		}
	default:
		if s, ok := scalarToken(t, syn); ok {
			raw = append(raw, s)
		}
	}

	out := lo.Uniq(raw)
	sort.Strings(out)
	return out
}

func scalarToken(v any, syn map[string]string) (string, bool) {
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case bool:
		if t {
			return "yes", true
		}
		return "no", true
	case json.Number:
		s = t.String()
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		s = strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		s = strconv.Itoa(t)
	case int64:
		s = strconv.FormatInt(t, 10)
	default:
		return "", false
	}

	tok := canonicalToken(s)
	if tok == "" {
		return "", false
	}
	if to, ok := syn[tok]; ok {
		return to, true
	}
	return tok, true
}

// canonicalToken lower-cases, trims, and joins words with underscores
func canonicalToken(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("-", " ", "_", " ").Replace(s)
	return strings.Join(strings.Fields(s), "_")
}

// unwrap peels structured answers of the form {"value": x}
func unwrap(v any, depth int) any {
	m, ok := v.(map[string]any)
	if !ok || depth >= maxUnwrapDepth {
		return v
	}
	inner, ok := m["value"]
	if !ok {
		return v
	}
	return unwrap(inner, depth+1)
}

func firstNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, !math.IsNaN(t) && !math.IsInf(t, 0)
	case float32:
		return firstNumber(float64(t))
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, false
		}
		return firstNumber(f)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		return firstNumber(f)
	case []any:
		if len(t) == 0 {
			return 0, false
		}
		return firstNumber(unwrap(t[0], 0))
	}
	return 0, false
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		s := canonicalToken(t)
		return s == "true" || s == "yes" || s == "1"
	case float64:
		return t != 0
	case int:
		return t != 0
	}
	return false
}
