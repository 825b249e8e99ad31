package sqlstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormLogger "gorm.io/gorm/logger"

	"github.com/forgo/accord/internal/database"
	"github.com/forgo/accord/internal/model"
)

// Drivers accepted by Open
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// maxCASAttempts bounds optimistic retries of a handshake transition
const maxCASAttempts = 8

var errHandshakeContention = fmt.Errorf("%w: handshake update contention", database.ErrQuery)

// Store implements the service store interfaces on a SQL database
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// Open connects to driver at dsn and migrates the schema
func Open(driver, dsn string, logger *zap.Logger) (*Store, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	case DriverSQLite:
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
		Logger:                                   gormLogger.Default.LogMode(gormLogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", database.ErrConnection, err)
	}
	if driver == DriverSQLite {
		// SQLite allows one writer; serialize through a single connection
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", database.ErrConnection, err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	s := New(db, logger)
	if err := s.Migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

// New wraps an open gorm handle
func New(db *gorm.DB, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, logger: logger.Named("sqlstore")}
}

// Migrate creates or updates every table and index
func (s *Store) Migrate() error {
	err := s.db.AutoMigrate(
		&partnershipRow{},
		&surveyAnswersRow{},
		&computedMatchRow{},
		&signalRow{},
		&handshakeRow{},
	)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Ping checks the connection
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("%w: %v", database.ErrConnection, err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", database.ErrConnection, err)
	}
	return nil
}

// Close releases the underlying connection pool
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ============================================================================
// Partnerships
// ============================================================================

func (s *Store) GetPartnership(ctx context.Context, id string) (*model.Partnership, error) {
	var row partnershipRow
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, translate(err)
	}
	return row.toModel(), nil
}

// SavePartnership upserts p, keeping the original created_on
func (s *Store) SavePartnership(ctx context.Context, p *model.Partnership) error {
	now := time.Now().UTC()
	row := partnershipFromModel(p)
	if row.CreatedOn.IsZero() {
		row.CreatedOn = now
	}
	row.UpdatedOn = now

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"profile_type",
			"city",
			"membership_tier",
			"survey_completion",
			"status",
			"updated_on",
		}),
	}).Create(&row).Error
	return translate(err)
}

func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&partnershipRow{}).Where("id = ?", id).Count(&n).Error
	if err != nil {
		return false, translate(err)
	}
	return n > 0, nil
}

func (s *Store) ListEligiblePairs(ctx context.Context, minCompletion float64) ([]model.PartnershipPair, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&partnershipRow{}).
		Where("status = ? AND survey_completion >= ?", string(model.PartnershipStatusActive), minCompletion).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, translate(err)
	}
	return model.PairsOf(ids), nil
}

func (s *Store) UpdateSurveyCompletion(ctx context.Context, id string, completion float64) error {
	res := s.db.WithContext(ctx).Model(&partnershipRow{}).Where("id = ?", id).Updates(map[string]any{
		"survey_completion": completion,
		"updated_on":        time.Now().UTC(),
	})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return database.ErrNotFound
	}
	return nil
}

// ============================================================================
// Survey answers
// ============================================================================

func (s *Store) GetAnswers(ctx context.Context, partnershipID string) (model.AnswerSet, error) {
	var row surveyAnswersRow
	err := s.db.WithContext(ctx).Where("partnership_id = ?", partnershipID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.AnswerSet{}, nil
	}
	if err != nil {
		return nil, translate(err)
	}

	answers := model.AnswerSet{}
	if len(row.Answers) > 0 {
		if err := json.Unmarshal(row.Answers, &answers); err != nil {
			return nil, fmt.Errorf("%w: decode answers: %v", database.ErrQuery, err)
		}
	}
	return answers, nil
}

func (s *Store) SaveAnswers(ctx context.Context, partnershipID string, answers model.AnswerSet) error {
	if answers == nil {
		answers = model.AnswerSet{}
	}
	b, err := json.Marshal(answers)
	if err != nil {
		return fmt.Errorf("%w: encode answers: %v", database.ErrQuery, err)
	}

	row := surveyAnswersRow{
		PartnershipID: partnershipID,
		Answers:       datatypes.JSON(b),
		UpdatedOn:     time.Now().UTC(),
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "partnership_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"answers", "updated_on"}),
	}).Create(&row).Error
	return translate(err)
}

// ============================================================================
// Computed matches
// ============================================================================

// UpsertComputedMatch writes m under its canonical pair, replacing any
// earlier result
func (s *Store) UpsertComputedMatch(ctx context.Context, m *model.ComputedMatch) error {
	pair := m.Pair()
	categories, err := json.Marshal(m.Categories)
	if err != nil {
		return fmt.Errorf("%w: encode categories: %v", database.ErrQuery, err)
	}

	row := computedMatchRow{
		PairKey:      pair.Key(),
		PartnershipA: pair.A,
		PartnershipB: pair.B,
		OverallScore: m.OverallScore,
		Tier:         string(m.Tier),
		Categories:   datatypes.JSON(categories),
		ComputedOn:   m.ComputedOn.UTC(),
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "partnership_a"}, {Name: "partnership_b"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"overall_score",
			"tier",
			"categories",
			"computed_on",
		}),
	}).Create(&row).Error
	return translate(err)
}

func (s *Store) FindComputedMatches(ctx context.Context, partnershipID string) ([]*model.ComputedMatch, error) {
	var rows []computedMatchRow
	err := s.db.WithContext(ctx).
		Where("partnership_a = ? OR partnership_b = ?", partnershipID, partnershipID).
		Find(&rows).Error
	if err != nil {
		return nil, translate(err)
	}

	matches := make([]*model.ComputedMatch, 0, len(rows))
	for _, row := range rows {
		m, err := row.toModel()
		if err != nil {
			return nil, fmt.Errorf("%w: decode categories: %v", database.ErrQuery, err)
		}
		matches = append(matches, m)
	}
	return matches, nil
}

// ============================================================================
// Signals
// ============================================================================

// InsertSignal adds sig unless its direction already exists
func (s *Store) InsertSignal(ctx context.Context, sig *model.Signal) error {
	row := signalRow{
		ID:              model.SignalKey(sig.FromPartnership, sig.ToPartnership),
		FromPartnership: sig.FromPartnership,
		ToPartnership:   sig.ToPartnership,
		CreatedOn:       sig.CreatedOn.UTC(),
	}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return database.ErrDuplicate
	}
	return nil
}

func (s *Store) FindSignal(ctx context.Context, from, to string) (*model.Signal, error) {
	var row signalRow
	err := s.db.WithContext(ctx).
		Where("from_partnership = ? AND to_partnership = ?", from, to).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, translate(err)
	}
	return row.toModel(), nil
}

// ============================================================================
// Handshakes
// ============================================================================

// InsertHandshake creates h. A second row for the same pair returns
// database.ErrDuplicate.
func (s *Store) InsertHandshake(ctx context.Context, h *model.Handshake) error {
	row := handshakeFromModel(h)
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return database.ErrDuplicate
	}
	return nil
}

func (s *Store) GetHandshake(ctx context.Context, id string) (*model.Handshake, error) {
	row, err := s.getHandshake(ctx, "id = ?", id)
	if err != nil || row == nil {
		return nil, err
	}
	return row.toModel(), nil
}

func (s *Store) GetHandshakeByPair(ctx context.Context, pair model.PartnershipPair) (*model.Handshake, error) {
	pair = model.NewPartnershipPair(pair.A, pair.B)
	row, err := s.getHandshake(ctx, "partnership_a = ? AND partnership_b = ?", pair.A, pair.B)
	if err != nil || row == nil {
		return nil, err
	}
	return row.toModel(), nil
}

func (s *Store) UpdateHandshakeConsent(ctx context.Context, id string, side model.HandshakeSide, accept bool, now time.Time) (*model.Handshake, error) {
	return s.transition(ctx, id, func(h *model.Handshake) bool {
		return h.ApplyResponse(side, accept, now)
	})
}

func (s *Store) MarkHandshakeMatched(ctx context.Context, id string, now time.Time) (*model.Handshake, error) {
	return s.transition(ctx, id, func(h *model.Handshake) bool {
		return h.MarkMatched(now)
	})
}

func (s *Store) ExpirePendingHandshakes(ctx context.Context, cutoff, now time.Time) (int, error) {
	res := s.db.WithContext(ctx).Model(&handshakeRow{}).
		Where("state = ? AND created_on < ?", string(model.HandshakeStatePending), cutoff.UTC()).
		Updates(map[string]any{
			"state":      string(model.HandshakeStateExpired),
			"updated_on": now.UTC(),
			"version":    gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return 0, translate(res.Error)
	}
	return int(res.RowsAffected), nil
}

// transition reads the handshake, lets apply mutate it, and writes it back
// only if the version is unchanged
func (s *Store) transition(ctx context.Context, id string, apply func(*model.Handshake) bool) (*model.Handshake, error) {
	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		row, err := s.getHandshake(ctx, "id = ?", id)
		if err != nil || row == nil {
			return nil, err
		}
		h := row.toModel()
		if !apply(h) {
			return h, nil
		}

		next := handshakeFromModel(h)
		res := s.db.WithContext(ctx).Model(&handshakeRow{}).
			Where("id = ? AND version = ?", id, row.Version).
			Updates(map[string]any{
				"a_consent":  next.AConsent,
				"b_consent":  next.BConsent,
				"state":      next.State,
				"matched_on": next.MatchedOn,
				"updated_on": next.UpdatedOn,
				"version":    row.Version + 1,
			})
		if res.Error != nil {
			return nil, translate(res.Error)
		}
		if res.RowsAffected == 1 {
			return h, nil
		}

		s.logger.Debug("handshake version moved, retrying", zap.String("handshake_id", id), zap.Int("attempt", attempt+1))
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	return nil, errHandshakeContention
}

func (s *Store) getHandshake(ctx context.Context, where string, args ...any) (*handshakeRow, error) {
	var row handshakeRow
	err := s.db.WithContext(ctx).Where(where, args...).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, translate(err)
	}
	return &row, nil
}

// translate maps gorm errors onto the database sentinels
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", database.ErrDuplicate, err)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return database.ErrNotFound
	case database.IsUniqueViolation(err.Error()):
		return fmt.Errorf("%w: %v", database.ErrDuplicate, err)
	default:
		return fmt.Errorf("%w: %v", database.ErrQuery, err)
	}
}
