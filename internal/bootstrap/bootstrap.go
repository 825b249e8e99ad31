package bootstrap

import (
	"context"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/forgo/accord/internal/cache"
	"github.com/forgo/accord/internal/config"
	"github.com/forgo/accord/internal/database"
	"github.com/forgo/accord/internal/events"
	"github.com/forgo/accord/internal/repository"
	"github.com/forgo/accord/internal/repository/sqlstore"
	"github.com/forgo/accord/internal/scoring"
	"github.com/forgo/accord/internal/service"
)

// NewLogger builds the process logger: JSON in production, console otherwise
func NewLogger(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// Stores groups the persistence interfaces the services depend on
type Stores struct {
	Partnerships service.PartnershipStore
	Surveys      service.SurveyStore
	Matches      service.MatchStore
	Signals      service.SignalStore
	Handshakes   service.HandshakeStore

	ping  func(ctx context.Context) error
	close func() error
}

// Ping checks the backing store
func (s *Stores) Ping(ctx context.Context) error {
	return s.ping(ctx)
}

// Close releases the backing store
func (s *Stores) Close() error {
	return s.close()
}

// OpenStores connects the backend selected by cfg.Store.Driver
func OpenStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Stores, error) {
	switch cfg.Store.Driver {
	case config.StoreSurreal:
		db := database.NewSurrealDB(database.Config{
			Host:      cfg.Database.Host,
			Port:      cfg.Database.Port,
			User:      cfg.Database.User,
			Password:  cfg.Database.Password,
			Namespace: cfg.Database.Namespace,
			Database:  cfg.Database.Database,
		})
		if err := db.Connect(ctx); err != nil {
			return nil, err
		}
		if err := database.ApplySchema(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply schema: %w", err)
		}
		logger.Info("connected to surrealdb",
			zap.String("host", cfg.Database.Host),
			zap.String("database", cfg.Database.Database),
		)
		return &Stores{
			Partnerships: repository.NewPartnershipRepository(db),
			Surveys:      repository.NewSurveyRepository(db),
			Matches:      repository.NewMatchRepository(db),
			Signals:      repository.NewSignalRepository(db),
			Handshakes:   repository.NewHandshakeRepository(db),
			ping:         db.Ping,
			close:        db.Close,
		}, nil

	case config.StorePostgres, config.StoreSQLite:
		driver := sqlstore.DriverPostgres
		if cfg.Store.Driver == config.StoreSQLite {
			driver = sqlstore.DriverSQLite
		}
		store, err := sqlstore.Open(driver, cfg.Store.DSN, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("connected to sql store", zap.String("driver", driver))
		return &Stores{
			Partnerships: store,
			Surveys:      store,
			Matches:      store,
			Signals:      store,
			Handshakes:   store,
			ping:         store.Ping,
			close:        store.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// OpenCache returns the redis result cache, or a no-op cache when redis is
// not configured. The returned close func is never nil.
func OpenCache(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (cache.ResultCache, func() error, error) {
	if cfg.Addr == "" {
		return cache.Noop{}, func() error { return nil }, nil
	}
	rc, client, err := cache.NewRedisCache(ctx, cache.RedisConfig{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		TTL:      cfg.TTL,
	})
	if err != nil {
		return nil, nil, err
	}
	logger.Info("result cache enabled", zap.String("addr", cfg.Addr), zap.Duration("ttl", cfg.TTL))
	return rc, client.Close, nil
}

// OpenPublisher returns the AMQP handshake event publisher, or a no-op
// publisher when AMQP is not configured. The returned close func is never nil.
func OpenPublisher(cfg config.AMQPConfig, logger *zap.Logger) (events.Publisher, func() error, error) {
	if cfg.URL == "" {
		return events.Noop{}, func() error { return nil }, nil
	}
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("amqp dial: %w", err)
	}
	pub, err := events.NewAMQPPublisher(conn, cfg.Exchange)
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	logger.Info("handshake event publishing enabled", zap.String("exchange", cfg.Exchange))
	return pub, conn.Close, nil
}

// Services groups the core services wired to one set of stores
type Services struct {
	Engine        *scoring.Engine
	Survey        *service.SurveyService
	Compatibility *service.CompatibilityService
	Matches       *service.MatchComputationService
	Handshakes    *service.HandshakeService
	AutoAccept    *service.SyntheticAutoAccept
}

// Dependencies are the optional collaborators of NewServices
type Dependencies struct {
	Cache     cache.ResultCache // Optional
	Publisher events.Publisher  // Optional
	Logger    *zap.Logger       // Optional
}

// NewServices builds the scoring engine and every core service
func NewServices(m config.MatchingConfig, stores *Stores, deps Dependencies) (*Services, error) {
	if stores == nil {
		return nil, errors.New("stores are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	engineCfg, err := m.EngineConfig()
	if err != nil {
		return nil, err
	}
	engine, err := scoring.NewEngine(engineCfg)
	if err != nil {
		return nil, fmt.Errorf("scoring engine: %w", err)
	}

	return &Services{
		Engine: engine,
		Survey: service.NewSurveyService(service.SurveyServiceConfig{
			Surveys:      stores.Surveys,
			Partnerships: stores.Partnerships,
			Normalizer:   engine.Normalizer(),
			Logger:       logger,
		}),
		Compatibility: service.NewCompatibilityService(service.CompatibilityServiceConfig{
			Surveys:      stores.Surveys,
			Partnerships: stores.Partnerships,
			Engine:       engine,
			Cache:        deps.Cache,
			Logger:       logger,
		}),
		Matches: service.NewMatchComputationService(service.MatchComputationServiceConfig{
			Partnerships:  stores.Partnerships,
			Surveys:       stores.Surveys,
			Matches:       stores.Matches,
			Engine:        engine,
			Workers:       m.Workers,
			MinCompletion: &m.MinSurveyCompletion,
			Logger:        logger,
		}),
		Handshakes: service.NewHandshakeService(service.HandshakeServiceConfig{
			Signals:      stores.Signals,
			Handshakes:   stores.Handshakes,
			Partnerships: stores.Partnerships,
			Publisher:    deps.Publisher,
			Logger:       logger,
		}),
		AutoAccept: service.NewSyntheticAutoAccept(service.SyntheticAutoAcceptConfig{
			Handshakes:            stores.Handshakes,
			AutoAcceptInitiators:  m.AutoAcceptInitiators,
			SyntheticPartnerships: m.SyntheticPartnerships,
			Publisher:             deps.Publisher,
			Logger:                logger,
		}),
	}, nil
}
