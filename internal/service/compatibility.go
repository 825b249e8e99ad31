package service

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"

	"github.com/forgo/accord/internal/cache"
	"github.com/forgo/accord/internal/model"
	"github.com/forgo/accord/internal/scoring"
)

// CompatibilityService scores pairs of stored partnerships on demand
type CompatibilityService struct {
	surveys      SurveyStore
	partnerships PartnershipStore
	engine       *scoring.Engine
	cache        cache.ResultCache
	logger       *zap.Logger
}

// CompatibilityServiceConfig holds configuration for the compatibility service
type CompatibilityServiceConfig struct {
	Surveys      SurveyStore
	Partnerships PartnershipStore
	Engine       *scoring.Engine
	Cache        cache.ResultCache // Optional
	Logger       *zap.Logger       // Optional
}

// NewCompatibilityService creates a new compatibility service
func NewCompatibilityService(cfg CompatibilityServiceConfig) *CompatibilityService {
	resultCache := cfg.Cache
	if resultCache == nil {
		resultCache = cache.Noop{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CompatibilityService{
		surveys:      cfg.Surveys,
		partnerships: cfg.Partnerships,
		engine:       cfg.Engine,
		cache:        resultCache,
		logger:       logger.Named("compatibility"),
	}
}

// Calculate scores two stored partnerships. The result carries the pair in
// canonical order regardless of argument order.
func (s *CompatibilityService) Calculate(ctx context.Context, partnershipA, partnershipB string) (*model.CompatibilityResult, error) {
	if partnershipA == "" || partnershipB == "" {
		return nil, ErrInvalidPartnershipID
	}
	if partnershipA == partnershipB {
		return nil, ErrSelfComparison
	}
	if err := requirePartnerships(ctx, s.partnerships, partnershipA, partnershipB); err != nil {
		return nil, err
	}

	pair := model.NewPartnershipPair(partnershipA, partnershipB)

	answersA, err := s.surveys.GetAnswers(ctx, pair.A)
	if err != nil {
		return nil, storeError("load answers", err)
	}
	answersB, err := s.surveys.GetAnswers(ctx, pair.B)
	if err != nil {
		return nil, storeError("load answers", err)
	}

	key := s.cacheKey(pair, answersA, answersB)
	if cached, ok, err := s.cache.Get(ctx, key); err != nil {
		s.logger.Warn("result cache read failed", zap.String("pair", pair.String()), zap.Error(err))
	} else if ok {
		return cached, nil
	}

	result := s.engine.Calculate(answersA, answersB)
	result.PartnershipA = pair.A
	result.PartnershipB = pair.B

	if err := s.cache.Set(ctx, key, result); err != nil {
		s.logger.Warn("result cache write failed", zap.String("pair", pair.String()), zap.Error(err))
	}
	return result, nil
}

// CalculateRaw scores two answer sets that are not tied to stored
// partnerships. Nil weights use the configured defaults.
func (s *CompatibilityService) CalculateRaw(a, b model.AnswerSet, weights scoring.Weights) (*model.CompatibilityResult, error) {
	if weights == nil {
		return s.engine.Calculate(a, b), nil
	}
	return s.engine.CalculateWithWeights(a, b, weights)
}

// cacheKey changes whenever either survey or the catalog changes
func (s *CompatibilityService) cacheKey(pair model.PartnershipPair, a, b model.AnswerSet) string {
	h, _ := blake2b.New256(nil)
	h.Write([]byte(s.engine.CatalogVersion()))
	h.Write([]byte{0})
	h.Write([]byte(fingerprint(a)))
	h.Write([]byte{0})
	h.Write([]byte(fingerprint(b)))
	return pair.Key() + ":" + hex.EncodeToString(h.Sum(nil)[:16])
}

// fingerprint hashes the canonical JSON form of an answer set. encoding/json
// sorts map keys, so equal sets produce equal fingerprints.
func fingerprint(answers model.AnswerSet) string {
	data, err := json.Marshal(answers)
	if err != nil {
		// fmt prints maps with sorted keys
		data = []byte(fmt.Sprintf("%#v", answers))
	}
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// requirePartnerships returns ErrPartnershipNotFound unless every id exists
func requirePartnerships(ctx context.Context, store PartnershipStore, ids ...string) error {
	for _, id := range ids {
		ok, err := store.Exists(ctx, id)
		if err != nil {
			return storeError("check partnership", err)
		}
		if !ok {
			return ErrPartnershipNotFound
		}
	}
	return nil
}
