package model

import "time"

// Signal is a directed "like" from one partnership to another. Signals are
// append-only and unique per (from, to).
type Signal struct {
	ID              string    `json:"id"`
	FromPartnership string    `json:"from_partnership"`
	ToPartnership   string    `json:"to_partnership"`
	CreatedOn       time.Time `json:"created_on"`
}

// NewSignal builds a signal whose id is derived from its direction
func NewSignal(from, to string, now time.Time) *Signal {
	return &Signal{
		ID:              SignalKey(from, to),
		FromPartnership: from,
		ToPartnership:   to,
		CreatedOn:       now,
	}
}

// SignalKey returns the stable record key for a directed signal
func SignalKey(from, to string) string {
	return hashKey("signal", from, to)
}

// HandshakeState is the consent state of a handshake
type HandshakeState string

const (
	HandshakeStatePending  HandshakeState = "pending"
	HandshakeStateMatched  HandshakeState = "matched"
	HandshakeStateDeclined HandshakeState = "declined"
	HandshakeStateExpired  HandshakeState = "expired"
)

// IsTerminal reports whether no further transitions are possible
func (s HandshakeState) IsTerminal() bool {
	return s == HandshakeStateDeclined || s == HandshakeStateExpired
}

// HandshakeSide identifies which canonical slot a partnership occupies
type HandshakeSide string

const (
	HandshakeSideA HandshakeSide = "a"
	HandshakeSideB HandshakeSide = "b"
)

// Handshake is an undirected mutual-match record. PartnershipA < PartnershipB
// always holds, so a pair is represented by exactly one row.
type Handshake struct {
	ID           string         `json:"id"`
	PartnershipA string         `json:"partnership_a"`
	PartnershipB string         `json:"partnership_b"`
	AConsent     bool           `json:"a_consent"`
	BConsent     bool           `json:"b_consent"`
	State        HandshakeState `json:"state"`
	InitiatedBy  string         `json:"initiated_by,omitempty"`
	MatchedOn    *time.Time     `json:"matched_on,omitempty"`
	CreatedOn    time.Time      `json:"created_on"`
	UpdatedOn    time.Time      `json:"updated_on"`
}

// Pair returns the canonical pair of the handshake
func (h *Handshake) Pair() PartnershipPair {
	return PartnershipPair{A: h.PartnershipA, B: h.PartnershipB}
}

// SideOf returns the slot held by partnershipID
func (h *Handshake) SideOf(partnershipID string) (HandshakeSide, bool) {
	switch partnershipID {
	case h.PartnershipA:
		return HandshakeSideA, true
	case h.PartnershipB:
		return HandshakeSideB, true
	}
	return "", false
}

// Counterpart returns the other side relative to partnershipID
func (h *Handshake) Counterpart(partnershipID string) string {
	if h.PartnershipA == partnershipID {
		return h.PartnershipB
	}
	return h.PartnershipA
}

// Receiver is the side that did not initiate the handshake
func (h *Handshake) Receiver() string {
	if h.InitiatedBy == "" {
		return ""
	}
	return h.Counterpart(h.InitiatedBy)
}

// Consent returns the consent flag for side
func (h *Handshake) Consent(side HandshakeSide) bool {
	if side == HandshakeSideA {
		return h.AConsent
	}
	return h.BConsent
}

// ApplyResponse records an accept or decline from side and advances the state.
// Decline is sticky: once declined (or expired) nothing changes. The state only
// becomes matched when both consents are true. Reports whether h changed.
func (h *Handshake) ApplyResponse(side HandshakeSide, accept bool, now time.Time) bool {
	if h.State.IsTerminal() {
		return false
	}

	if !accept {
		h.setConsent(side, false)
		h.State = HandshakeStateDeclined
		h.UpdatedOn = now
		return true
	}

	if h.Consent(side) && h.State == HandshakeStateMatched {
		return false
	}
	h.setConsent(side, true)
	if h.AConsent && h.BConsent {
		h.markMatched(now)
	} else {
		h.State = HandshakeStatePending
	}
	h.UpdatedOn = now
	return true
}

// MarkMatched force-sets both consents on a non-terminal handshake
func (h *Handshake) MarkMatched(now time.Time) bool {
	if h.State.IsTerminal() || h.State == HandshakeStateMatched {
		return false
	}
	h.AConsent = true
	h.BConsent = true
	h.markMatched(now)
	h.UpdatedOn = now
	return true
}

func (h *Handshake) setConsent(side HandshakeSide, v bool) {
	if side == HandshakeSideA {
		h.AConsent = v
	} else {
		h.BConsent = v
	}
}

func (h *Handshake) markMatched(now time.Time) {
	h.State = HandshakeStateMatched
	if h.MatchedOn == nil {
		t := now
		h.MatchedOn = &t
	}
}

// SendSignalRequest is the body of POST /v1/signals
type SendSignalRequest struct {
	To string `json:"to"`
}

// RequestHandshakeRequest is the body of POST /v1/handshakes
type RequestHandshakeRequest struct {
	To string `json:"to"`
}

// ForceHandshakeRequest is the body of POST /v1/dev/handshakes/force
type ForceHandshakeRequest struct {
	PartnershipA string `json:"partnership_a"`
	PartnershipB string `json:"partnership_b"`
}

// RespondHandshakeRequest is the body of POST /v1/handshakes/{handshakeId}/respond
type RespondHandshakeRequest struct {
	Accept *bool `json:"accept"`
}
