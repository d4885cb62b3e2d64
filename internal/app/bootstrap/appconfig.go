// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like HTTP ports,
// TLS, logging level and request body limits. Everything specific to the
// events API lives here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Redis backs the public feed cache and the login rate limiter.
	// Empty disables both (the limiter falls back to process memory).
	RedisURL     string
	FeedCacheTTL time.Duration

	// Bearer token signing
	JWTSecret string
	JWTTTL    time.Duration

	// Origins allowed to call the API from a browser (the SPA).
	CORSAllowedOrigins []string

	// Recommendation service. Empty base URL disables the calls.
	RecommendBaseURL string
	RecommendTimeout time.Duration

	// Background completion of ended events
	AutoCompleteEnabled  bool
	AutoCompleteInterval time.Duration

	// Audit logging: "all" (db+log), "db", "log", or "off"
	AuditLogAuth  string
	AuditLogAdmin string
}
