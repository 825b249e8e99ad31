// Package events publishes handshake lifecycle events for downstream
// consumers such as notification delivery and photo grants.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/forgo/accord/internal/model"
)

// Event types, also used as routing keys
const (
	TypeHandshakeMatched  = "handshake.matched"
	TypeHandshakeDeclined = "handshake.declined"
)

// HandshakeEvent is emitted when a handshake reaches matched or declined
type HandshakeEvent struct {
	Type         string               `json:"type"`
	HandshakeID  string               `json:"handshake_id"`
	PartnershipA string               `json:"partnership_a"`
	PartnershipB string               `json:"partnership_b"`
	State        model.HandshakeState `json:"state"`
	OccurredOn   time.Time            `json:"occurred_on"`
}

// NewHandshakeEvent derives the event for h's current state. ok is false for
// states that are not published.
func NewHandshakeEvent(h *model.Handshake, now time.Time) (HandshakeEvent, bool) {
	var typ string
	switch h.State {
	case model.HandshakeStateMatched:
		typ = TypeHandshakeMatched
	case model.HandshakeStateDeclined:
		typ = TypeHandshakeDeclined
	default:
		return HandshakeEvent{}, false
	}
	return HandshakeEvent{
		Type:         typ,
		HandshakeID:  h.ID,
		PartnershipA: h.PartnershipA,
		PartnershipB: h.PartnershipB,
		State:        h.State,
		OccurredOn:   now,
	}, true
}

// Publisher delivers handshake events
type Publisher interface {
	PublishHandshake(ctx context.Context, e HandshakeEvent) error
}

// Noop discards every event
type Noop struct{}

func (Noop) PublishHandshake(ctx context.Context, e HandshakeEvent) error { return nil }

// Recorder keeps published events in memory
type Recorder struct {
	mu     sync.Mutex
	events []HandshakeEvent
}

func (r *Recorder) PublishHandshake(ctx context.Context, e HandshakeEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

// Events returns a copy of everything published so far
func (r *Recorder) Events() []HandshakeEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]HandshakeEvent(nil), r.events...)
}
