package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestConfig_Validate_ValidConfig(t *testing.T) {
	cfg := &Config{
		Server: ServerConfig{
			Port:             "8080",
			Env:              "development",
			AllowedOrigins:   []string{"http://localhost:3000"},
			SignalsPerMinute: 30,
			SignalBurst:      10,
		},
		Store: StoreConfig{Driver: StoreSurreal},
		Database: DatabaseConfig{
			Host:      "localhost",
			Port:      "8000",
			Namespace: "accord",
			Database:  "main",
		},
		JWT: JWTConfig{
			PrivateKeyPath: "./keys/private.pem",
			PublicKeyPath:  "./keys/public.pem",
			ExpirationMins: 15,
			Issuer:         "accord.forgo.software",
		},
		Matching: DefaultMatchingConfig(),
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got error: %v", err)
	}
}

func TestConfig_Validate_InvalidServerEnv(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Server.Env = "invalid"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid SERVER_ENV")
	}
	if !strings.Contains(err.Error(), "SERVER_ENV") {
		t.Errorf("expected error to mention SERVER_ENV, got: %v", err)
	}
}

func TestConfig_Validate_MissingPort(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Server.Port = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing SERVER_PORT")
	}
	if !strings.Contains(err.Error(), "SERVER_PORT") {
		t.Errorf("expected error to mention SERVER_PORT, got: %v", err)
	}
}

func TestConfig_Validate_EmptyAllowedOrigins(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Server.AllowedOrigins = []string{}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for empty CORS_ALLOWED_ORIGINS")
	}
	if !strings.Contains(err.Error(), "CORS_ALLOWED_ORIGINS") {
		t.Errorf("expected error to mention CORS_ALLOWED_ORIGINS, got: %v", err)
	}
}

func TestConfig_Validate_DevToolsForbiddenInProduction(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Server.Env = "production"
	cfg.Server.DevTools = true

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for dev tools in production")
	}
	if !strings.Contains(err.Error(), "DEV_TOOLS_ENABLED") {
		t.Errorf("expected error to mention DEV_TOOLS_ENABLED, got: %v", err)
	}
}

func TestConfig_Validate_MissingDatabaseHost(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Database.Host = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing DB_HOST")
	}
	if !strings.Contains(err.Error(), "DB_HOST") {
		t.Errorf("expected error to mention DB_HOST, got: %v", err)
	}
}

func TestConfig_Validate_SQLDriverIgnoresSurrealSettings(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Store = StoreConfig{Driver: StoreSQLite, DSN: "file::memory:"}
	cfg.Database = DatabaseConfig{}

	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got error: %v", err)
	}
}

func TestConfig_Validate_SQLDriverRequiresDSN(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Store = StoreConfig{Driver: StorePostgres}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing STORE_DSN")
	}
	if !strings.Contains(err.Error(), "STORE_DSN") {
		t.Errorf("expected error to mention STORE_DSN, got: %v", err)
	}
}

func TestConfig_Validate_UnknownDriver(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Store.Driver = "mongo"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for unknown STORE_DRIVER")
	}
	if !strings.Contains(err.Error(), "STORE_DRIVER") {
		t.Errorf("expected error to mention STORE_DRIVER, got: %v", err)
	}
}

func TestConfig_Validate_InvalidJWTExpiration(t *testing.T) {
	cfg := validBaseConfig()
	cfg.JWT.ExpirationMins = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid JWT_EXPIRATION_MINS")
	}
	if !strings.Contains(err.Error(), "JWT_EXPIRATION_MINS") {
		t.Errorf("expected error to mention JWT_EXPIRATION_MINS, got: %v", err)
	}
}

func TestConfig_Validate_ProductionRequiresJWTKeys(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Server.Env = "production"
	cfg.JWT.PrivateKeyPath = ""
	cfg.JWT.PublicKeyPath = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing JWT keys in production")
	}
	if !strings.Contains(err.Error(), "JWT_PRIVATE_KEY_PATH") {
		t.Errorf("expected error to mention JWT_PRIVATE_KEY_PATH, got: %v", err)
	}
	if !strings.Contains(err.Error(), "JWT_PUBLIC_KEY_PATH") {
		t.Errorf("expected error to mention JWT_PUBLIC_KEY_PATH, got: %v", err)
	}
}

func TestConfig_Validate_RedisRequiresTTL(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Redis = RedisConfig{Addr: "localhost:6379"}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for zero CACHE_TTL")
	}
	if !strings.Contains(err.Error(), "CACHE_TTL") {
		t.Errorf("expected error to mention CACHE_TTL, got: %v", err)
	}
}

func TestConfig_Validate_MultipleErrors(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Server.Port = ""
	cfg.Server.Env = "invalid"
	cfg.Database.Host = ""
	cfg.JWT.ExpirationMins = -1

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected multiple errors")
	}

	errStr := err.Error()
	for _, expected := range []string{"SERVER_PORT", "SERVER_ENV", "DB_HOST", "JWT_EXPIRATION_MINS"} {
		if !strings.Contains(errStr, expected) {
			t.Errorf("expected error to mention %s, got: %v", expected, err)
		}
	}
}

// ============================================================================
// Matching
// ============================================================================

func TestMatchingConfig_Validate_Defaults(t *testing.T) {
	if err := DefaultMatchingConfig().Validate(); err != nil {
		t.Errorf("expected defaults to be valid, got: %v", err)
	}
}

func TestMatchingConfig_Validate_Failures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*MatchingConfig)
		want   string
	}{
		{"negative weight", func(m *MatchingConfig) { m.Weights = map[string]float64{"intent": -1} }, "MATCH_WEIGHTS"},
		{"unknown category", func(m *MatchingConfig) { m.Weights = map[string]float64{"astrology": 1} }, "MATCH_WEIGHTS"},
		{"tiers out of order", func(m *MatchingConfig) { m.Tiers.Gold = 90 }, "TIER_"},
		{"coverage above one", func(m *MatchingConfig) { m.MinCoverage = 1.5 }, "MIN_CATEGORY_COVERAGE"},
		{"completion below zero", func(m *MatchingConfig) { m.MinSurveyCompletion = -0.1 }, "MIN_SURVEY_COMPLETION"},
		{"negative workers", func(m *MatchingConfig) { m.Workers = -2 }, "MATCH_RECOMPUTE_WORKERS"},
		{"ttl without sweep", func(m *MatchingConfig) { m.ExpireInterval = 0 }, "HANDSHAKE_EXPIRE_INTERVAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := DefaultMatchingConfig()
			tt.mutate(&m)

			err := m.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error to mention %s, got: %v", tt.want, err)
			}
		})
	}
}

func TestMatchingConfig_EngineConfig(t *testing.T) {
	m := DefaultMatchingConfig()
	m.Weights = map[string]float64{"chemistry": 0.9}

	ec, err := m.EngineConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ec.Weights["chemistry"]; got != 0.9 {
		t.Errorf("expected chemistry weight 0.9, got %v", got)
	}
	if got := ec.Weights["intent"]; got != 0.25 {
		t.Errorf("expected default intent weight 0.25, got %v", got)
	}
	if ec.Tiers == nil || ec.Tiers.Platinum != 85 {
		t.Errorf("expected default tiers, got %+v", ec.Tiers)
	}
	if ec.Catalog != nil {
		t.Error("expected no catalog without a path")
	}
}

func TestMatchingConfig_EngineConfig_MissingCatalog(t *testing.T) {
	m := DefaultMatchingConfig()
	m.CatalogPath = filepath.Join(t.TempDir(), "missing.yaml")

	if _, err := m.EngineConfig(); err == nil {
		t.Error("expected error for missing catalog file")
	}
}

func TestLoadMatchingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "matching.yaml")
	data := `
weights:
  intent: 0.4
  lifestyle: 0.05
tiers:
  platinum: 90
  gold: 75
  silver: 40
min_coverage: 0.6
handshake_ttl: 48h
synthetic_partnerships:
  - qa-bot
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	m, err := LoadMatchingFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Weights["intent"] != 0.4 || m.Weights["lifestyle"] != 0.05 {
		t.Errorf("unexpected weights: %v", m.Weights)
	}
	if m.Tiers.Platinum != 90 || m.Tiers.Gold != 75 || m.Tiers.Silver != 40 {
		t.Errorf("unexpected tiers: %+v", m.Tiers)
	}
	if m.MinCoverage != 0.6 {
		t.Errorf("expected min coverage 0.6, got %v", m.MinCoverage)
	}
	if m.HandshakeTTL != 48*time.Hour {
		t.Errorf("expected handshake ttl 48h, got %v", m.HandshakeTTL)
	}
	// Unset keys keep their defaults
	if m.Workers != 4 {
		t.Errorf("expected default workers 4, got %d", m.Workers)
	}
	if len(m.SyntheticPartnerships) != 1 || m.SyntheticPartnerships[0] != "qa-bot" {
		t.Errorf("unexpected synthetic partnerships: %v", m.SyntheticPartnerships)
	}
}

func TestLoadMatchingFile_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "matching.yaml")
	if err := os.WriteFile(path, []byte("weights: [nope"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadMatchingFile(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "matching.yaml")
	if err := os.WriteFile(path, []byte("min_coverage: 0.6\nworkers: 2\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MATCHING_CONFIG_PATH", path)
	t.Setenv("MATCH_RECOMPUTE_WORKERS", "8")
	t.Setenv("MATCH_WEIGHTS", "intent=0.5, bogus, chemistry=x")
	t.Setenv("AUTO_ACCEPT_INITIATORS", "user:qa, ,user:ops")
	t.Setenv("STORE_DRIVER", "sqlite")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Matching.MinCoverage != 0.6 {
		t.Errorf("expected file min coverage 0.6, got %v", cfg.Matching.MinCoverage)
	}
	if cfg.Matching.Workers != 8 {
		t.Errorf("expected env workers 8, got %d", cfg.Matching.Workers)
	}
	if len(cfg.Matching.Weights) != 1 || cfg.Matching.Weights["intent"] != 0.5 {
		t.Errorf("unexpected weights: %v", cfg.Matching.Weights)
	}
	if got := cfg.Matching.AutoAcceptInitiators; len(got) != 2 || got[0] != "user:qa" || got[1] != "user:ops" {
		t.Errorf("unexpected initiators: %v", got)
	}
	if cfg.Store.Driver != StoreSQLite {
		t.Errorf("expected sqlite driver, got %s", cfg.Store.Driver)
	}
}

func TestLoad_MissingMatchingFile(t *testing.T) {
	t.Setenv("MATCHING_CONFIG_PATH", filepath.Join(t.TempDir(), "nope.yaml"))

	if _, err := Load(); err == nil {
		t.Error("expected error for missing matching file")
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Server.Env = "development"
	if !cfg.IsDevelopment() {
		t.Error("expected IsDevelopment to be true")
	}

	cfg.Server.Env = "production"
	if cfg.IsDevelopment() {
		t.Error("expected IsDevelopment to be false")
	}
}

func TestConfig_IsProduction(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Server.Env = "production"
	if !cfg.IsProduction() {
		t.Error("expected IsProduction to be true")
	}

	cfg.Server.Env = "development"
	if cfg.IsProduction() {
		t.Error("expected IsProduction to be false")
	}
}

// validBaseConfig returns a valid configuration for testing
func validBaseConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:             "8080",
			Env:              "development",
			AllowedOrigins:   []string{"http://localhost:3000"},
			SignalsPerMinute: 30,
			SignalBurst:      10,
		},
		Store: StoreConfig{Driver: StoreSurreal},
		Database: DatabaseConfig{
			Host:      "localhost",
			Port:      "8000",
			Namespace: "accord",
			Database:  "main",
		},
		JWT: JWTConfig{
			PrivateKeyPath: "./keys/private.pem",
			PublicKeyPath:  "./keys/public.pem",
			ExpirationMins: 15,
			Issuer:         "accord.forgo.software",
		},
		Matching: DefaultMatchingConfig(),
	}
}
