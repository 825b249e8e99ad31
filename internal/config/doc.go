// Package config manages application configuration for the Accord API.
//
// Configuration is loaded from environment variables. The matching group
// may additionally be read from a YAML file named by MATCHING_CONFIG_PATH;
// environment variables always win over the file.
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Configuration Groups
//
//   - ServerConfig: HTTP server settings, CORS, signal rate limits, dev tools
//   - StoreConfig: persistence driver (surreal, postgres, sqlite)
//   - DatabaseConfig: SurrealDB connection settings
//   - RedisConfig: compatibility result cache
//   - AMQPConfig: handshake event publishing
//   - JWTConfig: token signing and validation
//   - MatchingConfig: weights, tiers, coverage, recompute and handshake timing
//
// # Environment Variables
//
// Key environment variables:
//
//	SERVER_PORT               - HTTP server port (default: 8080)
//	STORE_DRIVER              - surreal, postgres or sqlite (default: surreal)
//	STORE_DSN                 - DSN for the SQL drivers
//	REDIS_ADDR                - enables the result cache when set
//	AMQP_URL                  - enables event publishing when set
//	MATCH_WEIGHTS             - category weight overrides, e.g. "intent=0.3,lifestyle=0.1"
//	MIN_CATEGORY_COVERAGE     - fraction of a category both sides must answer
//	MIN_SURVEY_COMPLETION     - eligibility threshold for batch computation
//	HANDSHAKE_TTL             - pending handshakes older than this expire
//	AUTO_ACCEPT_INITIATORS    - comma separated user ids
//	SYNTHETIC_PARTNERSHIPS    - comma separated partnership ids
package config
