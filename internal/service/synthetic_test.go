package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgo/accord/internal/events"
	"github.com/forgo/accord/internal/model"
	"github.com/forgo/accord/internal/repository/memstore"
)

// countingStore records how often handshakes are read
type countingStore struct {
	*memstore.Store
	reads int
}

func (c *countingStore) GetHandshake(ctx context.Context, id string) (*model.Handshake, error) {
	c.reads++
	return c.Store.GetHandshake(ctx, id)
}

func newSyntheticFixture(t *testing.T, initiators, synthetic []string) (*SyntheticAutoAccept, *HandshakeService, *countingStore, *events.Recorder) {
	t.Helper()
	svc, store := newHandshakeFixture(t, "alpha", "bravo", "qa-bot")
	counting := &countingStore{Store: store}
	recorder := &events.Recorder{}
	auto := NewSyntheticAutoAccept(SyntheticAutoAcceptConfig{
		Handshakes:            counting,
		AutoAcceptInitiators:  initiators,
		SyntheticPartnerships: synthetic,
		Publisher:             recorder,
		Now:                   fixedClock(),
	})
	return auto, svc, counting, recorder
}

func TestSyntheticAutoAccept_EmptyListsAreInert(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	cases := []struct {
		name       string
		initiators []string
		synthetic  []string
	}{
		{"both empty", nil, nil},
		{"no initiators", nil, []string{"qa-bot"}},
		{"no synthetic partnerships", []string{"user-qa"}, nil},
		{"blank entries only", []string{""}, []string{""}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			auto, svc, store, recorder := newSyntheticFixture(t, tc.initiators, tc.synthetic)
			h, err := svc.RequestHandshake(ctx, "alpha", "qa-bot")
			require.NoError(t, err)

			res, err := auto.Check(ctx, h.ID, "user-qa")
			require.NoError(t, err)

			assert.False(t, auto.Enabled())
			assert.False(t, res.AutoAccepted)
			assert.Zero(t, store.reads)
			assert.Empty(t, recorder.Events())
		})
	}
}

func TestSyntheticAutoAccept_MatchesSyntheticReceiver(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	auto, svc, store, recorder := newSyntheticFixture(t, []string{"user-qa"}, []string{"qa-bot"})

	h, err := svc.RequestHandshake(ctx, "alpha", "qa-bot")
	require.NoError(t, err)

	res, err := auto.Check(ctx, h.ID, "user-qa")
	require.NoError(t, err)
	assert.True(t, res.AutoAccepted)
	assert.Equal(t, model.HandshakeStateMatched, res.State)

	got, err := store.GetHandshake(ctx, h.ID)
	require.NoError(t, err)
	assert.True(t, got.AConsent)
	assert.True(t, got.BConsent)
	require.Len(t, recorder.Events(), 1)
	assert.Equal(t, events.TypeHandshakeMatched, recorder.Events()[0].Type)

	// Already matched: nothing further happens
	res, err = auto.Check(ctx, h.ID, "user-qa")
	require.NoError(t, err)
	assert.False(t, res.AutoAccepted)
	assert.Equal(t, model.HandshakeStateMatched, res.State)
	assert.Len(t, recorder.Events(), 1)
}

func TestSyntheticAutoAccept_NegativeCases(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("initiator not allowed", func(t *testing.T) {
		t.Parallel()
		auto, svc, store, _ := newSyntheticFixture(t, []string{"user-qa"}, []string{"qa-bot"})
		h, err := svc.RequestHandshake(ctx, "alpha", "qa-bot")
		require.NoError(t, err)

		res, err := auto.Check(ctx, h.ID, "someone-else")
		require.NoError(t, err)
		assert.False(t, res.AutoAccepted)
		assert.Zero(t, store.reads)
	})

	t.Run("receiver not synthetic", func(t *testing.T) {
		t.Parallel()
		auto, svc, _, _ := newSyntheticFixture(t, []string{"user-qa"}, []string{"qa-bot"})
		h, err := svc.RequestHandshake(ctx, "alpha", "bravo")
		require.NoError(t, err)

		res, err := auto.Check(ctx, h.ID, "user-qa")
		require.NoError(t, err)
		assert.False(t, res.AutoAccepted)
		assert.Equal(t, model.HandshakeStatePending, res.State)
	})

	t.Run("synthetic side initiated", func(t *testing.T) {
		t.Parallel()
		auto, svc, _, _ := newSyntheticFixture(t, []string{"user-qa"}, []string{"qa-bot"})
		h, err := svc.RequestHandshake(ctx, "qa-bot", "alpha")
		require.NoError(t, err)

		res, err := auto.Check(ctx, h.ID, "user-qa")
		require.NoError(t, err)
		assert.False(t, res.AutoAccepted)
	})

	t.Run("declined handshake", func(t *testing.T) {
		t.Parallel()
		auto, svc, _, _ := newSyntheticFixture(t, []string{"user-qa"}, []string{"qa-bot"})
		h, err := svc.RequestHandshake(ctx, "alpha", "qa-bot")
		require.NoError(t, err)
		_, err = svc.RespondToHandshake(ctx, h.ID, "alpha", false)
		require.NoError(t, err)

		res, err := auto.Check(ctx, h.ID, "user-qa")
		require.NoError(t, err)
		assert.False(t, res.AutoAccepted)
		assert.Equal(t, model.HandshakeStateDeclined, res.State)
	})

	t.Run("missing handshake", func(t *testing.T) {
		t.Parallel()
		auto, _, _, _ := newSyntheticFixture(t, []string{"user-qa"}, []string{"qa-bot"})

		_, err := auto.Check(ctx, "nope", "user-qa")
		assert.ErrorIs(t, err, ErrHandshakeNotFound)
	})
}
