package bootstrap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/forgo/accord/internal/cache"
	"github.com/forgo/accord/internal/config"
	"github.com/forgo/accord/internal/events"
	"github.com/forgo/accord/internal/model"
)

func sqliteConfig(name string) *config.Config {
	return &config.Config{
		Store: config.StoreConfig{
			Driver: config.StoreSQLite,
			DSN:    "file:" + name + "?mode=memory&cache=shared",
		},
		Matching: config.DefaultMatchingConfig(),
	}
}

func TestNewLogger(t *testing.T) {
	for _, env := range []string{"development", "production"} {
		logger, err := NewLogger(env)
		require.NoError(t, err)
		assert.NotNil(t, logger)
	}
}

func TestOpenStores_UnknownDriver(t *testing.T) {
	cfg := sqliteConfig("unknown")
	cfg.Store.Driver = "mongo"

	_, err := OpenStores(context.Background(), cfg, zap.NewNop())
	assert.ErrorContains(t, err, "unknown store driver")
}

func TestOpenStores_SQLite(t *testing.T) {
	ctx := context.Background()
	stores, err := OpenStores(ctx, sqliteConfig("bootstrap_sqlite"), zap.NewNop())
	require.NoError(t, err)
	defer func() { _ = stores.Close() }()

	require.NoError(t, stores.Ping(ctx))
	require.NoError(t, stores.Partnerships.SavePartnership(ctx, &model.Partnership{ID: "p-1", Status: model.PartnershipStatusActive}))
	ok, err := stores.Partnerships.Exists(ctx, "p-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOpenCache_DisabledWithoutAddr(t *testing.T) {
	c, closeFn, err := OpenCache(context.Background(), config.RedisConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, cache.Noop{}, c)
	assert.NoError(t, closeFn())
}

func TestOpenPublisher_DisabledWithoutURL(t *testing.T) {
	p, closeFn, err := OpenPublisher(config.AMQPConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, events.Noop{}, p)
	assert.NoError(t, closeFn())
}

func TestNewServices(t *testing.T) {
	ctx := context.Background()
	cfg := sqliteConfig("bootstrap_services")
	cfg.Matching.AutoAcceptInitiators = []string{"qa"}
	cfg.Matching.SyntheticPartnerships = []string{"p-synthetic"}

	stores, err := OpenStores(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	defer func() { _ = stores.Close() }()

	svcs, err := NewServices(cfg.Matching, stores, Dependencies{})
	require.NoError(t, err)
	assert.True(t, svcs.AutoAccept.Enabled())

	for _, id := range []string{"p-1", "p-2"} {
		require.NoError(t, stores.Partnerships.SavePartnership(ctx, &model.Partnership{ID: id, Status: model.PartnershipStatusActive}))
	}
	h, err := svcs.Handshakes.RequestHandshake(ctx, "p-1", "p-2")
	require.NoError(t, err)
	assert.Equal(t, model.HandshakeStatePending, h.State)

	report, err := svcs.Matches.RecomputeAllMatches(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.Total, "partnerships without a survey are not eligible")
}

func TestNewServices_BadCatalog(t *testing.T) {
	m := config.DefaultMatchingConfig()
	m.CatalogPath = "/does/not/exist.yaml"

	_, err := NewServices(m, &Stores{}, Dependencies{})
	assert.Error(t, err)

	_, err = NewServices(m, nil, Dependencies{})
	assert.Error(t, err)
}
