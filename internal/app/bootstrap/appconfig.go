// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like:
//   - HTTP/HTTPS ports and TLS configuration
//   - Logging level and format
//   - CORS settings
//   - Request body size limits
//   - Database connection timeouts
//
// AppConfig is where everything specific to the groups-sync service lives:
// the MongoDB connection, CiviCRM API credentials, the shared webhook
// secret, and the sync behavior switches.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Max connections in the driver pool
	MongoMinPoolSize uint64 // Min connections kept warm in the pool

	// CiviCRM REST API configuration
	CRMAPIURL  string        // Base URL of the CiviCRM REST endpoint
	CRMAPIKey  string        // Per-user API key sent with every call
	CRMSiteKey string        // Site key sent with every call
	CRMTimeout time.Duration // HTTP timeout for CRM calls

	// WebhookSecret authenticates inbound hook deliveries and API callers.
	// Every route except /health requires it as a bearer token.
	WebhookSecret string

	// Admin edit links surfaced by the sync API. Blank disables the link.
	CRMAdminBaseURL    string // e.g., "https://crm.example.org"
	MemberAdminBaseURL string // e.g., "https://members.example.org/admin"

	// SyncUIEnabled exposes the sync-to-CRM checkbox on group creation.
	// When false, groups created through the API never request a CRM
	// counterpart, matching a deployment where sync is CRM-driven only.
	SyncUIEnabled bool

	// FailureLog selects where sync failures are recorded:
	// "all" (db+log), "db", "log", or "off".
	FailureLog string
}
