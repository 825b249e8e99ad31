package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/forgo/accord/internal/model"
	"github.com/forgo/accord/internal/scoring"
)

const (
	// DefaultRecomputeWorkers bounds concurrent pair computations
	DefaultRecomputeWorkers = 4
	// DefaultMinSurveyCompletion is the completion both sides need to be scored in batch
	DefaultMinSurveyCompletion = 0.5
)

const tracerName = "github.com/forgo/accord/internal/service"

// PairError records one pair that could not be scored or persisted
type PairError struct {
	PartnershipA string `json:"partnership_a"`
	PartnershipB string `json:"partnership_b"`
	Error        string `json:"error"`
}

// PairDetail is the per-pair audit entry of a batch run
type PairDetail struct {
	PartnershipA string                `json:"partnership_a"`
	PartnershipB string                `json:"partnership_b"`
	OverallScore float64               `json:"overall_score"`
	Tier         model.Tier            `json:"tier,omitempty"`
	Categories   []model.CategoryScore `json:"categories,omitempty"`
	Error        string                `json:"error,omitempty"`
}

// RecomputeReport summarizes a batch recomputation
type RecomputeReport struct {
	Total     int           `json:"total"`
	Computed  int           `json:"computed"`
	Errors    []PairError   `json:"errors"`
	Details   []PairDetail  `json:"details"`
	StartedOn time.Time     `json:"started_on"`
	Duration  time.Duration `json:"duration_ns"`
}

// MatchComputationService batch-scores eligible pairs and serves stored matches
type MatchComputationService struct {
	partnerships  PartnershipStore
	surveys       SurveyStore
	matches       MatchStore
	engine        *scoring.Engine
	workers       int
	minCompletion float64
	logger        *zap.Logger
	tracer        trace.Tracer
	now           func() time.Time
}

// MatchComputationServiceConfig holds configuration for the match computation service
type MatchComputationServiceConfig struct {
	Partnerships  PartnershipStore
	Surveys       SurveyStore
	Matches       MatchStore
	Engine        *scoring.Engine
	Workers       int                // Optional, defaults to DefaultRecomputeWorkers
	MinCompletion *float64           // Optional, nil means DefaultMinSurveyCompletion; 0 admits everyone
	Logger        *zap.Logger        // Optional
	Tracer        trace.Tracer       // Optional
	Now           func() time.Time   // Optional
}

// NewMatchComputationService creates a new match computation service
func NewMatchComputationService(cfg MatchComputationServiceConfig) *MatchComputationService {
	s := &MatchComputationService{
		partnerships:  cfg.Partnerships,
		surveys:       cfg.Surveys,
		matches:       cfg.Matches,
		engine:        cfg.Engine,
		workers:       cfg.Workers,
		minCompletion: DefaultMinSurveyCompletion,
		logger:        cfg.Logger,
		tracer:        cfg.Tracer,
		now:           cfg.Now,
	}
	if s.workers <= 0 {
		s.workers = DefaultRecomputeWorkers
	}
	if cfg.MinCompletion != nil {
		s.minCompletion = *cfg.MinCompletion
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	s.logger = s.logger.Named("match_computation")
	if s.tracer == nil {
		s.tracer = otel.Tracer(tracerName)
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	return s
}

// RecomputeAllMatches scores every eligible pair and upserts the results.
// A failing pair is recorded in the report and never aborts the run; the
// returned error is reserved for failures that prevent the run from starting.
func (s *MatchComputationService) RecomputeAllMatches(ctx context.Context) (*RecomputeReport, error) {
	ctx, span := s.tracer.Start(ctx, "match.recompute_all")
	defer span.End()

	started := s.now()
	pairs, err := s.partnerships.ListEligiblePairs(ctx, s.minCompletion)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list eligible pairs")
		return nil, storeError("list eligible pairs", err)
	}

	memo := newAnswerMemo(s.surveys, s.engine.Normalizer())
	details := make([]PairDetail, len(pairs))

	var g errgroup.Group
	g.SetLimit(s.workers)
	for i, pair := range pairs {
		g.Go(func() error {
			details[i] = s.computePair(ctx, memo, pair)
			return nil
		})
	}
	_ = g.Wait()

	report := &RecomputeReport{
		Total:     len(pairs),
		Errors:    []PairError{},
		Details:   details,
		StartedOn: started,
	}
	for _, d := range details {
		if d.Error != "" {
			report.Errors = append(report.Errors, PairError{PartnershipA: d.PartnershipA, PartnershipB: d.PartnershipB, Error: d.Error})
			s.logger.Warn("pair recompute failed",
				zap.String("partnership_a", d.PartnershipA),
				zap.String("partnership_b", d.PartnershipB),
				zap.String("error", d.Error),
			)
			continue
		}
		report.Computed++
	}
	report.Duration = s.now().Sub(started)

	span.SetAttributes(
		attribute.Int("recompute.total", report.Total),
		attribute.Int("recompute.computed", report.Computed),
		attribute.Int("recompute.errors", len(report.Errors)),
	)
	s.logger.Info("match recompute finished",
		zap.Int("total", report.Total),
		zap.Int("computed", report.Computed),
		zap.Int("errors", len(report.Errors)),
		zap.Duration("duration", report.Duration),
	)
	return report, nil
}

// computePair never panics; a panic inside scoring or persistence becomes
// the pair's error
func (s *MatchComputationService) computePair(ctx context.Context, memo *answerMemo, pair model.PartnershipPair) (detail PairDetail) {
	detail = PairDetail{PartnershipA: pair.A, PartnershipB: pair.B}
	defer func() {
		if r := recover(); r != nil {
			detail = PairDetail{PartnershipA: pair.A, PartnershipB: pair.B, Error: fmt.Sprintf("panic: %v", r)}
		}
	}()

	if err := ctx.Err(); err != nil {
		detail.Error = err.Error()
		return detail
	}

	a, err := memo.get(ctx, pair.A)
	if err != nil {
		detail.Error = err.Error()
		return detail
	}
	b, err := memo.get(ctx, pair.B)
	if err != nil {
		detail.Error = err.Error()
		return detail
	}

	result := s.engine.CalculateNormalized(a, b)
	result.PartnershipA = pair.A
	result.PartnershipB = pair.B

	if err := s.matches.UpsertComputedMatch(ctx, model.NewComputedMatch(result, s.now())); err != nil {
		detail.Error = storeError("upsert computed match", err).Error()
		return detail
	}

	detail.OverallScore = result.OverallScore
	detail.Tier = result.Tier
	detail.Categories = result.Categories
	return detail
}

// MatchesFor returns a partnership's stored matches from its own point of
// view, best first. Rows are found whichever side of the pair it occupies.
func (s *MatchComputationService) MatchesFor(ctx context.Context, partnershipID string) ([]model.MatchView, error) {
	if partnershipID == "" {
		return nil, ErrInvalidPartnershipID
	}

	rows, err := s.matches.FindComputedMatches(ctx, partnershipID)
	if err != nil {
		return nil, storeError("find computed matches", err)
	}

	views := make([]model.MatchView, 0, len(rows))
	for _, m := range rows {
		views = append(views, model.MatchView{
			PartnershipID: m.Counterpart(partnershipID),
			OverallScore:  m.OverallScore,
			Tier:          m.Tier,
			Categories:    m.Categories,
			ComputedOn:    m.ComputedOn,
		})
	}
	sort.SliceStable(views, func(i, j int) bool {
		if views[i].OverallScore != views[j].OverallScore {
			return views[i].OverallScore > views[j].OverallScore
		}
		return views[i].PartnershipID < views[j].PartnershipID
	})
	return views, nil
}

// answerMemo loads and normalizes each partnership's answers at most once
// per batch, even when many workers ask for the same partnership at once
type answerMemo struct {
	surveys    SurveyStore
	normalizer *scoring.Normalizer
	group      singleflight.Group
	mu         sync.RWMutex
	loaded     map[string]scoring.NormalizedAnswers
}

func newAnswerMemo(surveys SurveyStore, normalizer *scoring.Normalizer) *answerMemo {
	return &answerMemo{
		surveys:    surveys,
		normalizer: normalizer,
		loaded:     make(map[string]scoring.NormalizedAnswers),
	}
}

func (m *answerMemo) get(ctx context.Context, partnershipID string) (scoring.NormalizedAnswers, error) {
	m.mu.RLock()
	cached, ok := m.loaded[partnershipID]
	m.mu.RUnlock()
	if ok {
		return cached, nil
	}

	v, err, _ := m.group.Do(partnershipID, func() (any, error) {
		raw, err := m.surveys.GetAnswers(ctx, partnershipID)
		if err != nil {
			return nil, storeError("load answers for "+partnershipID, err)
		}
		normalized := m.normalizer.Normalize(raw)

		m.mu.Lock()
		m.loaded[partnershipID] = normalized
		m.mu.Unlock()
		return normalized, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(scoring.NormalizedAnswers), nil
}
