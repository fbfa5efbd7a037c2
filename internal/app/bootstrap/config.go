// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for the groups-sync service.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, crm_api_url, etc.
//   - Environment variables: GROUPSSYNC_MONGO_URI, GROUPSSYNC_CRM_API_URL, etc.
//   - Command-line flags: --mongo_uri, --crm_api_url, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "groups_sync", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// CiviCRM REST API configuration
	{Name: "crm_api_url", Default: "", Desc: "Base URL of the CiviCRM REST endpoint (e.g., https://crm.example.org/civicrm/ajax/rest)"},
	{Name: "crm_api_key", Default: "", Desc: "CiviCRM per-user API key"},
	{Name: "crm_site_key", Default: "", Desc: "CiviCRM site key"},
	{Name: "crm_timeout", Default: "15s", Desc: "HTTP timeout for CRM calls (e.g., 15s, 1m)"},

	// Inbound authentication
	{Name: "webhook_secret", Default: "", Desc: "Bearer token required on all API and hook routes"},

	// Admin edit links surfaced by the sync API
	{Name: "crm_admin_base_url", Default: "", Desc: "Base URL of the CiviCRM admin UI (blank disables edit links)"},
	{Name: "member_admin_base_url", Default: "", Desc: "Base URL of the membership admin UI (blank disables edit links)"},

	// Sync behavior
	{Name: "sync_ui_enabled", Default: true, Desc: "Allow API callers to request a CRM counterpart on group creation"},
	{Name: "failure_log", Default: "all", Desc: "Sync failure recording: 'all' (db+log), 'db', 'log', or 'off'"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// It is called early in startup so that both WAFFLE and the app have
// access to configuration before any backends or handlers are built.
// CoreConfig comes from the shared WAFFLE layer; AppConfig is specific
// to this app.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, GROUPSSYNC_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "GROUPSSYNC", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		CRMAPIURL:  appValues.String("crm_api_url"),
		CRMAPIKey:  appValues.String("crm_api_key"),
		CRMSiteKey: appValues.String("crm_site_key"),
		CRMTimeout: appValues.Duration("crm_timeout", 15*time.Second),

		WebhookSecret: appValues.String("webhook_secret"),

		CRMAdminBaseURL:    appValues.String("crm_admin_base_url"),
		MemberAdminBaseURL: appValues.String("member_admin_base_url"),

		SyncUIEnabled: appValues.Bool("sync_ui_enabled"),
		FailureLog:    appValues.String("failure_log"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// This is the right place to enforce required fields or invariants that
// involve both the core and app configs.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if appCfg.CRMAPIURL == "" {
		return fmt.Errorf("crm_api_url is required")
	}
	if appCfg.WebhookSecret == "" {
		return fmt.Errorf("webhook_secret is required")
	}

	switch appCfg.FailureLog {
	case "all", "db", "log", "off":
	default:
		return fmt.Errorf("failure_log must be one of 'all', 'db', 'log', 'off' (got %q)", appCfg.FailureLog)
	}

	return nil
}
