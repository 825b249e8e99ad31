package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/forgo/accord/internal/events"
	"github.com/forgo/accord/internal/model"
)

// AutoAcceptResult reports whether a handshake was completed automatically
type AutoAcceptResult struct {
	AutoAccepted bool                 `json:"auto_accepted"`
	State        model.HandshakeState `json:"state,omitempty"`
}

// SyntheticAutoAccept completes pending handshakes aimed at synthetic test
// partnerships, so QA accounts can exercise the matched flow alone. With
// either allow-list empty it never touches the store.
type SyntheticAutoAccept struct {
	handshakes HandshakeStore
	initiators map[string]bool
	synthetic  map[string]bool
	publisher  events.Publisher
	logger     *zap.Logger
	now        func() time.Time
}

// SyntheticAutoAcceptConfig holds configuration for synthetic auto-accept
type SyntheticAutoAcceptConfig struct {
	Handshakes HandshakeStore
	// AutoAcceptInitiators are user ids allowed to trigger auto-accept
	AutoAcceptInitiators []string
	// SyntheticPartnerships are partnership ids that accept automatically
	SyntheticPartnerships []string
	Publisher             events.Publisher // Optional
	Logger                *zap.Logger      // Optional
	Now                   func() time.Time // Optional
}

// NewSyntheticAutoAccept creates the auto-accept collaborator
func NewSyntheticAutoAccept(cfg SyntheticAutoAcceptConfig) *SyntheticAutoAccept {
	s := &SyntheticAutoAccept{
		handshakes: cfg.Handshakes,
		initiators: toSet(cfg.AutoAcceptInitiators),
		synthetic:  toSet(cfg.SyntheticPartnerships),
		publisher:  cfg.Publisher,
		logger:     cfg.Logger,
		now:        cfg.Now,
	}
	if s.publisher == nil {
		s.publisher = events.Noop{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	s.logger = s.logger.Named("synthetic")
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	return s
}

// Enabled reports whether both allow-lists are non-empty
func (s *SyntheticAutoAccept) Enabled() bool {
	return len(s.initiators) > 0 && len(s.synthetic) > 0
}

// Check auto-accepts handshakeID when initiatingUserID is an allowed
// initiator and the receiving side of the pending handshake is synthetic
func (s *SyntheticAutoAccept) Check(ctx context.Context, handshakeID, initiatingUserID string) (*AutoAcceptResult, error) {
	if !s.Enabled() || !s.initiators[initiatingUserID] {
		return &AutoAcceptResult{}, nil
	}
	if handshakeID == "" {
		return nil, ErrInvalidHandshakeID
	}

	h, err := s.handshakes.GetHandshake(ctx, handshakeID)
	if err != nil {
		return nil, storeError("get handshake", err)
	}
	if h == nil {
		return nil, ErrHandshakeNotFound
	}
	if h.State != model.HandshakeStatePending || !s.synthetic[h.Receiver()] {
		return &AutoAcceptResult{State: h.State}, nil
	}

	updated, err := s.handshakes.MarkHandshakeMatched(ctx, h.ID, s.now())
	if err != nil {
		return nil, storeError("mark handshake matched", err)
	}
	if updated == nil {
		return nil, ErrHandshakeNotFound
	}

	accepted := updated.State == model.HandshakeStateMatched
	if accepted {
		s.logger.Info("synthetic handshake auto-accepted",
			zap.String("handshake_id", h.ID),
			zap.String("receiver", h.Receiver()),
		)
		if e, ok := events.NewHandshakeEvent(updated, s.now()); ok {
			if err := s.publisher.PublishHandshake(ctx, e); err != nil {
				s.logger.Warn("failed to publish handshake event", zap.String("handshake_id", h.ID), zap.Error(err))
			}
		}
	}
	return &AutoAcceptResult{AutoAccepted: accepted, State: updated.State}, nil
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id != "" {
			set[id] = true
		}
	}
	return set
}
