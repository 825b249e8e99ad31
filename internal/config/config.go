package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/forgo/accord/internal/scoring"
)

// Store drivers
const (
	StoreSurreal  = "surreal"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Database DatabaseConfig
	Redis    RedisConfig
	AMQP     AMQPConfig
	JWT      JWTConfig
	Matching MatchingConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port           string
	Env            string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	AllowedOrigins []string
	// DevTools mounts the /v1/dev routes
	DevTools bool
	// SignalsPerMinute and SignalBurst bound each partnership's signal rate
	SignalsPerMinute int
	SignalBurst      int
}

// StoreConfig selects the persistence backend
type StoreConfig struct {
	Driver string
	// DSN is used by the postgres and sqlite drivers
	DSN string
}

// DatabaseConfig holds SurrealDB connection settings
type DatabaseConfig struct {
	Host      string
	Port      string
	Namespace string
	Database  string
	User      string
	Password  string
}

// RedisConfig holds result cache settings. An empty Addr disables the cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// AMQPConfig holds handshake event publishing settings. An empty URL
// disables publishing.
type AMQPConfig struct {
	URL      string
	Exchange string
}

// JWTConfig holds JWT signing settings
type JWTConfig struct {
	PrivateKeyPath string
	PublicKeyPath  string
	ExpirationMins int
	Issuer         string
}

// MatchingConfig holds scoring and handshake settings. It may be read from
// a YAML file; environment variables override the file.
type MatchingConfig struct {
	Weights               map[string]float64     `yaml:"weights"`
	Tiers                 scoring.TierThresholds `yaml:"tiers"`
	MinCoverage           float64                `yaml:"min_coverage"`
	MinSurveyCompletion   float64                `yaml:"min_survey_completion"`
	Workers               int                    `yaml:"workers"`
	RecomputeInterval     time.Duration          `yaml:"recompute_interval"`
	HandshakeTTL          time.Duration          `yaml:"handshake_ttl"`
	ExpireInterval        time.Duration          `yaml:"expire_interval"`
	CatalogPath           string                 `yaml:"catalog_path"`
	AutoAcceptInitiators  []string               `yaml:"auto_accept_initiators"`
	SyntheticPartnerships []string               `yaml:"synthetic_partnerships"`
}

// DefaultMatchingConfig returns the matching defaults
func DefaultMatchingConfig() MatchingConfig {
	return MatchingConfig{
		Tiers:               scoring.DefaultTierThresholds(),
		MinCoverage:         scoring.DefaultMinCoverage,
		MinSurveyCompletion: 0.5,
		Workers:             4,
		RecomputeInterval:   0,
		HandshakeTTL:        14 * 24 * time.Hour,
		ExpireInterval:      time.Hour,
	}
}

// Load reads configuration from environment variables with sensible defaults.
// When MATCHING_CONFIG_PATH is set the matching group is first read from
// that YAML file.
func Load() (*Config, error) {
	matching := DefaultMatchingConfig()
	if path := os.Getenv("MATCHING_CONFIG_PATH"); path != "" {
		loaded, err := LoadMatchingFile(path)
		if err != nil {
			return nil, err
		}
		matching = loaded
	}

	return &Config{
		Server: ServerConfig{
			Port:             getEnv("SERVER_PORT", "8080"),
			Env:              getEnv("SERVER_ENV", "development"),
			ReadTimeout:      getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:     getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
			AllowedOrigins:   getSliceEnv("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			DevTools:         getBoolEnv("DEV_TOOLS_ENABLED", false),
			SignalsPerMinute: getIntEnv("SIGNALS_PER_MINUTE", 30),
			SignalBurst:      getIntEnv("SIGNAL_BURST", 10),
		},
		Store: StoreConfig{
			Driver: getEnv("STORE_DRIVER", StoreSurreal),
			DSN:    getEnv("STORE_DSN", ""),
		},
		Database: DatabaseConfig{
			Host:      getEnv("DB_HOST", "localhost"),
			Port:      getEnv("DB_PORT", "8000"),
			Namespace: getEnv("DB_NAMESPACE", "accord"),
			Database:  getEnv("DB_DATABASE", "main"),
			User:      getEnv("DB_USER", "root"),
			Password:  getEnv("DB_PASSWORD", "root"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
			TTL:      getDurationEnv("CACHE_TTL", 24*time.Hour),
		},
		AMQP: AMQPConfig{
			URL:      getEnv("AMQP_URL", ""),
			Exchange: getEnv("AMQP_EXCHANGE", "handshake_events"),
		},
		JWT: JWTConfig{
			PrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./keys/private.pem"),
			PublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./keys/public.pem"),
			ExpirationMins: getIntEnv("JWT_EXPIRATION_MINS", 60),
			Issuer:         getEnv("JWT_ISSUER", "accord.forgo.software"),
		},
		Matching: overrideMatching(matching),
	}, nil
}

// LoadMatchingFile reads matching configuration from YAML on top of the defaults
func LoadMatchingFile(path string) (MatchingConfig, error) {
	cfg := DefaultMatchingConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read matching config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse matching config %s: %w", path, err)
	}
	return cfg, nil
}

// overrideMatching applies environment variables on top of m
func overrideMatching(m MatchingConfig) MatchingConfig {
	m.Weights = getWeightsEnv("MATCH_WEIGHTS", m.Weights)
	m.Tiers.Platinum = getFloatEnv("TIER_PLATINUM", m.Tiers.Platinum)
	m.Tiers.Gold = getFloatEnv("TIER_GOLD", m.Tiers.Gold)
	m.Tiers.Silver = getFloatEnv("TIER_SILVER", m.Tiers.Silver)
	m.MinCoverage = getFloatEnv("MIN_CATEGORY_COVERAGE", m.MinCoverage)
	m.MinSurveyCompletion = getFloatEnv("MIN_SURVEY_COMPLETION", m.MinSurveyCompletion)
	m.Workers = getIntEnv("MATCH_RECOMPUTE_WORKERS", m.Workers)
	m.RecomputeInterval = getDurationEnv("MATCH_RECOMPUTE_INTERVAL", m.RecomputeInterval)
	m.HandshakeTTL = getDurationEnv("HANDSHAKE_TTL", m.HandshakeTTL)
	m.ExpireInterval = getDurationEnv("HANDSHAKE_EXPIRE_INTERVAL", m.ExpireInterval)
	m.CatalogPath = getEnv("QUESTION_CATALOG_PATH", m.CatalogPath)
	m.AutoAcceptInitiators = getSliceEnv("AUTO_ACCEPT_INITIATORS", m.AutoAcceptInitiators)
	m.SyntheticPartnerships = getSliceEnv("SYNTHETIC_PARTNERSHIPS", m.SyntheticPartnerships)
	return m
}

// EngineConfig builds the scoring engine configuration, loading the
// question catalog when a path is configured
func (m MatchingConfig) EngineConfig() (scoring.EngineConfig, error) {
	cfg := scoring.EngineConfig{
		Weights:     scoring.DefaultWeights().With(scoring.WeightsFromMap(m.Weights)),
		MinCoverage: m.MinCoverage,
	}
	tiers := m.Tiers
	cfg.Tiers = &tiers

	if m.CatalogPath != "" {
		catalog, err := scoring.LoadCatalog(m.CatalogPath)
		if err != nil {
			return cfg, err
		}
		cfg.Catalog = catalog
	}
	return cfg, nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// Validate checks that all required configuration values are present and valid.
// It returns an error describing all validation failures, or nil if valid.
func (c *Config) Validate() error {
	var errs []error

	// Server validation
	if c.Server.Port == "" {
		errs = append(errs, errors.New("SERVER_PORT is required"))
	}
	if c.Server.Env != "development" && c.Server.Env != "production" && c.Server.Env != "test" {
		errs = append(errs, fmt.Errorf("SERVER_ENV must be 'development', 'production', or 'test', got '%s'", c.Server.Env))
	}
	if len(c.Server.AllowedOrigins) == 0 {
		errs = append(errs, errors.New("CORS_ALLOWED_ORIGINS must have at least one origin"))
	}
	if c.Server.SignalsPerMinute <= 0 || c.Server.SignalBurst <= 0 {
		errs = append(errs, errors.New("SIGNALS_PER_MINUTE and SIGNAL_BURST must be positive"))
	}
	if c.IsProduction() && c.Server.DevTools {
		errs = append(errs, errors.New("DEV_TOOLS_ENABLED must be false in production"))
	}

	// Store validation
	switch c.Store.Driver {
	case StoreSurreal:
		errs = append(errs, c.Database.validate()...)
	case StorePostgres, StoreSQLite:
		if c.Store.DSN == "" {
			errs = append(errs, fmt.Errorf("STORE_DSN is required for the %s driver", c.Store.Driver))
		}
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER must be '%s', '%s', or '%s', got '%s'", StoreSurreal, StorePostgres, StoreSQLite, c.Store.Driver))
	}

	if c.Redis.Addr != "" && c.Redis.TTL <= 0 {
		errs = append(errs, errors.New("CACHE_TTL must be positive when REDIS_ADDR is set"))
	}
	if c.AMQP.URL != "" && c.AMQP.Exchange == "" {
		errs = append(errs, errors.New("AMQP_EXCHANGE is required when AMQP_URL is set"))
	}

	// JWT validation - critical for production
	if c.IsProduction() {
		if c.JWT.PrivateKeyPath == "" {
			errs = append(errs, errors.New("JWT_PRIVATE_KEY_PATH is required in production"))
		}
		if c.JWT.PublicKeyPath == "" {
			errs = append(errs, errors.New("JWT_PUBLIC_KEY_PATH is required in production"))
		}
	}
	if c.JWT.ExpirationMins <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRATION_MINS must be positive"))
	}

	if err := c.Matching.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("matching: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func (d DatabaseConfig) validate() []error {
	var errs []error
	if d.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if d.Port == "" {
		errs = append(errs, errors.New("DB_PORT is required"))
	}
	if d.Namespace == "" {
		errs = append(errs, errors.New("DB_NAMESPACE is required"))
	}
	if d.Database == "" {
		errs = append(errs, errors.New("DB_DATABASE is required"))
	}
	return errs
}

// Validate checks weights, tiers and ranges of the matching group
func (m MatchingConfig) Validate() error {
	var errs []error

	if err := scoring.DefaultWeights().With(scoring.WeightsFromMap(m.Weights)).Validate(); err != nil {
		errs = append(errs, fmt.Errorf("MATCH_WEIGHTS: %w", err))
	}
	if err := m.Tiers.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("TIER_*: %w", err))
	}
	if m.MinCoverage < 0 || m.MinCoverage > 1 {
		errs = append(errs, fmt.Errorf("MIN_CATEGORY_COVERAGE must be between 0 and 1, got %v", m.MinCoverage))
	}
	if m.MinSurveyCompletion < 0 || m.MinSurveyCompletion > 1 {
		errs = append(errs, fmt.Errorf("MIN_SURVEY_COMPLETION must be between 0 and 1, got %v", m.MinSurveyCompletion))
	}
	if m.Workers < 0 {
		errs = append(errs, errors.New("MATCH_RECOMPUTE_WORKERS must not be negative"))
	}
	if m.RecomputeInterval < 0 || m.HandshakeTTL < 0 || m.ExpireInterval < 0 {
		errs = append(errs, errors.New("MATCH_RECOMPUTE_INTERVAL, HANDSHAKE_TTL and HANDSHAKE_EXPIRE_INTERVAL must not be negative"))
	}
	if m.HandshakeTTL > 0 && m.ExpireInterval == 0 {
		errs = append(errs, errors.New("HANDSHAKE_EXPIRE_INTERVAL is required when HANDSHAKE_TTL is set"))
	}

	return errors.Join(errs...)
}

// Helper functions for reading environment variables

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var out []string
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getWeightsEnv parses "intent=0.3,lifestyle=0.1". Malformed entries are skipped.
func getWeightsEnv(key string, defaultValue map[string]float64) map[string]float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	out := make(map[string]float64, len(defaultValue))
	for k, v := range defaultValue {
		out[k] = v
	}
	for _, part := range strings.Split(value, ",") {
		name, raw, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		if f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
			out[strings.TrimSpace(name)] = f
		}
	}
	return out
}
