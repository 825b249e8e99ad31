package model

import (
	"testing"
	"time"
)

var t0 = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func pending(initiator string) *Handshake {
	h := &Handshake{
		ID:           "hs-1",
		PartnershipA: "p-a",
		PartnershipB: "p-b",
		State:        HandshakeStatePending,
		InitiatedBy:  initiator,
		CreatedOn:    t0,
		UpdatedOn:    t0,
	}
	if side, ok := h.SideOf(initiator); ok {
		h.setConsent(side, true)
	}
	return h
}

// ============================================================================
// Pairs
// ============================================================================

func TestNewPartnershipPair_IsOrderIndependent(t *testing.T) {
	t.Parallel()

	ab := NewPartnershipPair("p-a", "p-b")
	ba := NewPartnershipPair("p-b", "p-a")

	if ab != ba {
		t.Fatalf("pairs differ: %v vs %v", ab, ba)
	}
	if ab.A != "p-a" || ab.B != "p-b" {
		t.Errorf("expected canonical order, got %v", ab)
	}
	if ab.Key() != ba.Key() {
		t.Error("expected equal keys")
	}
	if len(ab.Key()) != 32 {
		t.Errorf("expected 32 hex chars, got %q", ab.Key())
	}
}

func TestKeys_IdsContainingSeparators(t *testing.T) {
	t.Parallel()

	if NewPartnershipPair("a|b", "c").Key() == NewPartnershipPair("a", "b|c").Key() {
		t.Error("pair keys collide for ids containing the separator")
	}
	if SignalKey("a>b", "c") == SignalKey("a", "b>c") {
		t.Error("signal keys collide for ids containing the separator")
	}
	if SignalKey("a", "b") == NewPartnershipPair("a", "b").Key() {
		t.Error("signal and pair keys share a namespace")
	}
}

func TestSignalKey_IsDirected(t *testing.T) {
	t.Parallel()

	if SignalKey("p-a", "p-b") == SignalKey("p-b", "p-a") {
		t.Error("signal keys must differ by direction")
	}
}

func TestPairsOf_SkipsDuplicatesAndEmpty(t *testing.T) {
	t.Parallel()

	pairs := PairsOf([]string{"p-c", "p-a", "", "p-b", "p-a"})

	want := []PartnershipPair{{A: "p-a", B: "p-b"}, {A: "p-a", B: "p-c"}, {A: "p-b", B: "p-c"}}
	if len(pairs) != len(want) {
		t.Fatalf("expected %d pairs, got %v", len(want), pairs)
	}
	for i := range want {
		if pairs[i] != want[i] {
			t.Errorf("pair %d: expected %v, got %v", i, want[i], pairs[i])
		}
	}
	if got := PairsOf([]string{"p-a"}); len(got) != 0 {
		t.Errorf("expected no pairs for one id, got %v", got)
	}
}

// ============================================================================
// Handshake transitions
// ============================================================================

func TestHandshake_ReceiverAndCounterpart(t *testing.T) {
	t.Parallel()

	h := pending("p-b")
	if h.Receiver() != "p-a" {
		t.Errorf("expected p-a to receive, got %q", h.Receiver())
	}
	if h.Counterpart("p-a") != "p-b" {
		t.Errorf("unexpected counterpart %q", h.Counterpart("p-a"))
	}
	if _, ok := h.SideOf("p-z"); ok {
		t.Error("p-z is not a participant")
	}
	if (&Handshake{PartnershipA: "p-a", PartnershipB: "p-b"}).Receiver() != "" {
		t.Error("a handshake without initiator has no receiver")
	}
}

func TestHandshake_AcceptFromBothSidesMatches(t *testing.T) {
	t.Parallel()

	h := pending("p-a")
	later := t0.Add(time.Hour)

	if !h.ApplyResponse(HandshakeSideB, true, later) {
		t.Fatal("expected a change")
	}
	if h.State != HandshakeStateMatched || !h.AConsent || !h.BConsent {
		t.Fatalf("unexpected handshake %+v", h)
	}
	if h.MatchedOn == nil || !h.MatchedOn.Equal(later) {
		t.Errorf("expected matched_on %v, got %v", later, h.MatchedOn)
	}

	// Accepting again is a no-op
	if h.ApplyResponse(HandshakeSideB, true, later.Add(time.Hour)) {
		t.Error("repeat accept should not change the handshake")
	}
	if !h.UpdatedOn.Equal(later) {
		t.Errorf("updated_on moved to %v", h.UpdatedOn)
	}
}

func TestHandshake_DeclineIsSticky(t *testing.T) {
	t.Parallel()

	h := pending("p-a")
	if !h.ApplyResponse(HandshakeSideB, false, t0) {
		t.Fatal("expected a change")
	}
	if h.State != HandshakeStateDeclined || h.BConsent {
		t.Fatalf("unexpected handshake %+v", h)
	}

	if h.ApplyResponse(HandshakeSideB, true, t0) {
		t.Error("declined handshake must not change")
	}
	if h.MarkMatched(t0) {
		t.Error("declined handshake must not be forced")
	}
	if h.State != HandshakeStateDeclined {
		t.Errorf("expected declined, got %s", h.State)
	}
}

func TestHandshake_DeclineAfterMatch(t *testing.T) {
	t.Parallel()

	h := pending("p-a")
	h.ApplyResponse(HandshakeSideB, true, t0)
	h.ApplyResponse(HandshakeSideA, false, t0.Add(time.Minute))

	if h.State != HandshakeStateDeclined || h.AConsent {
		t.Errorf("expected declined with a_consent false, got %+v", h)
	}
	if h.MatchedOn == nil {
		t.Error("matched_on is kept as history")
	}
}

func TestHandshake_MarkMatched(t *testing.T) {
	t.Parallel()

	h := &Handshake{PartnershipA: "p-a", PartnershipB: "p-b", State: HandshakeStatePending}
	if !h.MarkMatched(t0) {
		t.Fatal("expected a change")
	}
	if h.State != HandshakeStateMatched || !h.AConsent || !h.BConsent {
		t.Errorf("unexpected handshake %+v", h)
	}
	if h.MarkMatched(t0) {
		t.Error("already matched")
	}

	expired := &Handshake{State: HandshakeStateExpired}
	if expired.MarkMatched(t0) || expired.ApplyResponse(HandshakeSideA, true, t0) {
		t.Error("expired handshake must not change")
	}
}
