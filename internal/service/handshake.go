package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/forgo/accord/internal/database"
	"github.com/forgo/accord/internal/events"
	"github.com/forgo/accord/internal/model"
)

// SignalOutcome is the result of sending a signal
type SignalOutcome struct {
	Matched     bool                 `json:"matched"`
	HandshakeID string               `json:"handshake_id,omitempty"`
	State       model.HandshakeState `json:"state,omitempty"`
}

// HandshakeResponse is the result of accepting or declining a handshake
type HandshakeResponse struct {
	HandshakeID string               `json:"handshake_id"`
	State       model.HandshakeState `json:"state"`
}

// HandshakeService owns the signal ledger and the handshake state machine.
//
// Every write that could race with another request relies on the store's
// uniqueness guarantees instead of an in-process lock: signals are unique per
// direction, handshakes are unique per canonical pair, and consent updates are
// applied atomically by the store. A duplicate insert is read back and treated
// as success.
type HandshakeService struct {
	signals      SignalStore
	handshakes   HandshakeStore
	partnerships PartnershipStore
	publisher    events.Publisher
	logger       *zap.Logger
	tracer       trace.Tracer
	now          func() time.Time
	newID        func() string
}

// HandshakeServiceConfig holds configuration for the handshake service
type HandshakeServiceConfig struct {
	Signals      SignalStore
	Handshakes   HandshakeStore
	Partnerships PartnershipStore
	Publisher    events.Publisher  // Optional
	Logger       *zap.Logger       // Optional
	Tracer       trace.Tracer      // Optional
	Now          func() time.Time  // Optional
	NewID        func() string     // Optional, defaults to uuid v4
}

// NewHandshakeService creates a new handshake service
func NewHandshakeService(cfg HandshakeServiceConfig) *HandshakeService {
	s := &HandshakeService{
		signals:      cfg.Signals,
		handshakes:   cfg.Handshakes,
		partnerships: cfg.Partnerships,
		publisher:    cfg.Publisher,
		logger:       cfg.Logger,
		tracer:       cfg.Tracer,
		now:          cfg.Now,
		newID:        cfg.NewID,
	}
	if s.publisher == nil {
		s.publisher = events.Noop{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	s.logger = s.logger.Named("handshake")
	if s.tracer == nil {
		s.tracer = otel.Tracer(tracerName)
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	return s
}

// SendSignal records from's interest in to. Repeating a signal is a no-op.
// When the reverse signal exists the pair's handshake is created (or
// promoted) as matched.
func (s *HandshakeService) SendSignal(ctx context.Context, from, to string) (*SignalOutcome, error) {
	ctx, span := s.tracer.Start(ctx, "handshake.send_signal")
	defer span.End()

	if err := validatePair(from, to); err != nil {
		return nil, err
	}
	if err := requirePartnerships(ctx, s.partnerships, from, to); err != nil {
		return nil, err
	}

	err := s.signals.InsertSignal(ctx, model.NewSignal(from, to, s.now()))
	if err != nil && !errors.Is(err, database.ErrDuplicate) {
		return nil, storeError("insert signal", err)
	}

	reverse, err := s.signals.FindSignal(ctx, to, from)
	if err != nil {
		return nil, storeError("find reverse signal", err)
	}

	pair := model.NewPartnershipPair(from, to)
	var h *model.Handshake
	if reverse != nil {
		h, err = s.ensureMatched(ctx, pair, to)
	} else {
		h, err = s.handshakes.GetHandshakeByPair(ctx, pair)
		err = storeError("get handshake", err)
	}
	if err != nil {
		return nil, err
	}

	outcome := &SignalOutcome{}
	if h != nil {
		outcome.HandshakeID = h.ID
		outcome.State = h.State
		outcome.Matched = h.State == model.HandshakeStateMatched
		span.SetAttributes(attribute.String("handshake.state", string(h.State)))
	}
	return outcome, nil
}

// ensureMatched creates the pair's handshake as matched, or promotes an
// existing pending one. Declined and expired handshakes are left alone.
func (s *HandshakeService) ensureMatched(ctx context.Context, pair model.PartnershipPair, initiatedBy string) (*model.Handshake, error) {
	now := s.now()
	h := &model.Handshake{
		ID:           s.newID(),
		PartnershipA: pair.A,
		PartnershipB: pair.B,
		InitiatedBy:  initiatedBy,
		State:        model.HandshakeStatePending,
		CreatedOn:    now,
		UpdatedOn:    now,
	}
	h.MarkMatched(now)

	created, err := s.insertOrGet(ctx, h)
	if err != nil {
		return nil, err
	}
	if created.ID == h.ID {
		s.logger.Debug("handshake matched by mutual signal", zap.String("handshake_id", h.ID), zap.String("pair", pair.String()))
		s.publish(ctx, created)
		return created, nil
	}

	if created.State != model.HandshakeStatePending {
		return created, nil
	}
	updated, err := s.handshakes.MarkHandshakeMatched(ctx, created.ID, now)
	if err != nil {
		return nil, storeError("mark handshake matched", err)
	}
	if updated == nil {
		return nil, ErrHandshakeNotFound
	}
	s.transitioned(ctx, created, updated)
	return updated, nil
}

// RequestHandshake is the explicit path: from asks to handshake with to.
// A new handshake starts pending with from's consent. If to already asked,
// the request counts as from accepting.
func (s *HandshakeService) RequestHandshake(ctx context.Context, from, to string) (*model.Handshake, error) {
	ctx, span := s.tracer.Start(ctx, "handshake.request")
	defer span.End()

	if err := validatePair(from, to); err != nil {
		return nil, err
	}
	if err := requirePartnerships(ctx, s.partnerships, from, to); err != nil {
		return nil, err
	}

	pair := model.NewPartnershipPair(from, to)
	now := s.now()
	h := &model.Handshake{
		ID:           s.newID(),
		PartnershipA: pair.A,
		PartnershipB: pair.B,
		InitiatedBy:  from,
		State:        model.HandshakeStatePending,
		CreatedOn:    now,
		UpdatedOn:    now,
	}
	side, _ := h.SideOf(from)
	h.ApplyResponse(side, true, now)

	existing, err := s.insertOrGet(ctx, h)
	if err != nil {
		return nil, err
	}
	if existing.ID == h.ID || existing.State.IsTerminal() || existing.Consent(side) {
		return existing, nil
	}

	updated, err := s.handshakes.UpdateHandshakeConsent(ctx, existing.ID, side, true, now)
	if err != nil {
		return nil, storeError("update handshake consent", err)
	}
	if updated == nil {
		return nil, ErrHandshakeNotFound
	}
	s.transitioned(ctx, existing, updated)
	return updated, nil
}

// ForceHandshake creates a pending handshake between x and y without any
// consent. Development only; an existing row is returned unchanged.
func (s *HandshakeService) ForceHandshake(ctx context.Context, x, y string) (*model.Handshake, error) {
	if err := validatePair(x, y); err != nil {
		return nil, err
	}
	if err := requirePartnerships(ctx, s.partnerships, x, y); err != nil {
		return nil, err
	}

	pair := model.NewPartnershipPair(x, y)
	now := s.now()
	return s.insertOrGet(ctx, &model.Handshake{
		ID:           s.newID(),
		PartnershipA: pair.A,
		PartnershipB: pair.B,
		InitiatedBy:  x,
		State:        model.HandshakeStatePending,
		CreatedOn:    now,
		UpdatedOn:    now,
	})
}

// RespondToHandshake records an accept or decline from partnershipID
func (s *HandshakeService) RespondToHandshake(ctx context.Context, handshakeID, partnershipID string, accept bool) (*HandshakeResponse, error) {
	ctx, span := s.tracer.Start(ctx, "handshake.respond",
		trace.WithAttributes(attribute.String("handshake.id", handshakeID), attribute.Bool("handshake.accept", accept)))
	defer span.End()

	h, err := s.GetHandshake(ctx, handshakeID, partnershipID)
	if err != nil {
		return nil, err
	}
	side, _ := h.SideOf(partnershipID)

	updated, err := s.handshakes.UpdateHandshakeConsent(ctx, h.ID, side, accept, s.now())
	if err != nil {
		return nil, storeError("update handshake consent", err)
	}
	if updated == nil {
		return nil, ErrHandshakeNotFound
	}
	s.transitioned(ctx, h, updated)

	span.SetAttributes(attribute.String("handshake.state", string(updated.State)))
	return &HandshakeResponse{HandshakeID: updated.ID, State: updated.State}, nil
}

// GetHandshake returns a handshake to one of its participants
func (s *HandshakeService) GetHandshake(ctx context.Context, handshakeID, partnershipID string) (*model.Handshake, error) {
	if handshakeID == "" {
		return nil, ErrInvalidHandshakeID
	}
	if partnershipID == "" {
		return nil, ErrInvalidPartnershipID
	}

	h, err := s.handshakes.GetHandshake(ctx, handshakeID)
	if err != nil {
		return nil, storeError("get handshake", err)
	}
	if h == nil {
		return nil, ErrHandshakeNotFound
	}
	if _, ok := h.SideOf(partnershipID); !ok {
		return nil, ErrNotHandshakeParticipant
	}
	return h, nil
}

// ExpireStale moves handshakes pending for longer than ttl to expired
func (s *HandshakeService) ExpireStale(ctx context.Context, ttl time.Duration) (int, error) {
	now := s.now()
	n, err := s.handshakes.ExpirePendingHandshakes(ctx, now.Add(-ttl), now)
	if err != nil {
		return 0, storeError("expire handshakes", err)
	}
	if n > 0 {
		s.logger.Info("expired stale handshakes", zap.Int("count", n), zap.Duration("ttl", ttl))
	}
	return n, nil
}

// insertOrGet inserts h, or returns the row that already holds its pair
func (s *HandshakeService) insertOrGet(ctx context.Context, h *model.Handshake) (*model.Handshake, error) {
	err := s.handshakes.InsertHandshake(ctx, h)
	if err == nil {
		return h, nil
	}
	if !errors.Is(err, database.ErrDuplicate) {
		return nil, storeError("insert handshake", err)
	}

	existing, err := s.handshakes.GetHandshakeByPair(ctx, h.Pair())
	if err != nil {
		return nil, storeError("get handshake", err)
	}
	if existing == nil {
		// The conflicting row vanished between insert and read; handshakes
		// are never deleted, so this is a store fault
		return nil, storeError("get handshake", database.ErrConnection)
	}
	return existing, nil
}

// transitioned logs and publishes a state change between before and after
func (s *HandshakeService) transitioned(ctx context.Context, before, after *model.Handshake) {
	if before.State == after.State {
		return
	}
	s.logger.Debug("handshake transitioned",
		zap.String("handshake_id", after.ID),
		zap.String("from", string(before.State)),
		zap.String("to", string(after.State)),
	)
	s.publish(ctx, after)
}

func (s *HandshakeService) publish(ctx context.Context, h *model.Handshake) {
	e, ok := events.NewHandshakeEvent(h, s.now())
	if !ok {
		return
	}
	if err := s.publisher.PublishHandshake(ctx, e); err != nil {
		s.logger.Warn("failed to publish handshake event",
			zap.String("handshake_id", h.ID),
			zap.String("type", e.Type),
			zap.Error(err),
		)
	}
}

func validatePair(x, y string) error {
	if x == "" || y == "" {
		return ErrInvalidPartnershipID
	}
	if x == y {
		return ErrSelfHandshake
	}
	return nil
}
