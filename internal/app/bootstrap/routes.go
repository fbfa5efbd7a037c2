// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	crmhooksfeature "github.com/mjwconsult/civicrm-groups-sync/internal/app/features/crmhooks"
	groupsapifeature "github.com/mjwconsult/civicrm-groups-sync/internal/app/features/groupsapi"
	healthfeature "github.com/mjwconsult/civicrm-groups-sync/internal/app/features/health"
	syncapifeature "github.com/mjwconsult/civicrm-groups-sync/internal/app/features/syncapi"
	"github.com/mjwconsult/civicrm-groups-sync/internal/app/groupsvc"
	groupstore "github.com/mjwconsult/civicrm-groups-sync/internal/app/store/groups"
	identitystore "github.com/mjwconsult/civicrm-groups-sync/internal/app/store/identities"
	membershipstore "github.com/mjwconsult/civicrm-groups-sync/internal/app/store/memberships"
	"github.com/mjwconsult/civicrm-groups-sync/internal/app/store/syncfailures"
	appsync "github.com/mjwconsult/civicrm-groups-sync/internal/app/sync"
	"github.com/mjwconsult/civicrm-groups-sync/internal/app/system/apiauth"
	"github.com/mjwconsult/civicrm-groups-sync/internal/app/system/hooks"
	"github.com/mjwconsult/civicrm-groups-sync/internal/app/system/synclog"
	"github.com/mjwconsult/civicrm-groups-sync/internal/crm"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. Everything the sync engine needs is
// wired here: the event bus, the CRM gateway, the stores, the membership
// service, and the engine's bus subscriptions. The feature routers are thin
// HTTP surfaces over those pieces.
//
// Route layout:
//   - /health          open, liveness plus Mongo/CRM probes
//   - /groups          bearer-auth CRUD and membership API
//   - /sync            bearer-auth sweeps, mappings, failures, settings
//   - /hooks/civicrm   bearer-auth inbound CRM hook bridge
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	bus := hooks.New()

	client := crm.NewClient(appCfg.CRMAPIURL, appCfg.CRMAPIKey, appCfg.CRMSiteKey, appCfg.CRMTimeout)
	gateway := crm.NewGateway(client, bus)

	groups := groupstore.New(deps.MongoDatabase)
	memberships := membershipstore.New(deps.MongoDatabase)
	identities := identitystore.New(deps.MongoDatabase)
	failures := syncfailures.New(deps.MongoDatabase)

	svc := groupsvc.New(groups, memberships, bus, logger)

	failureLog := synclog.New(failures, logger, appCfg.FailureLog)
	mapper := appsync.NewMapper(client)
	resolver := appsync.NewResolver(identities)
	engine := appsync.NewEngine(bus, gateway, svc, mapper, resolver, failureLog, logger)
	engine.Register()

	r := chi.NewRouter()

	// Liveness stays open so load balancers can probe without the secret.
	healthH := healthfeature.NewHandler(deps.MongoClient, client, logger)
	r.Mount("/health", healthfeature.Routes(healthH))

	r.Group(func(r chi.Router) {
		r.Use(apiauth.RequireSecret(appCfg.WebhookSecret))

		groupsH := groupsapifeature.NewHandler(svc, appCfg.SyncUIEnabled, logger)
		r.Mount("/groups", groupsapifeature.Routes(groupsH))

		syncH := syncapifeature.NewHandler(engine, mapper, failures,
			appCfg.CRMAdminBaseURL, appCfg.MemberAdminBaseURL, appCfg.SyncUIEnabled, logger)
		r.Mount("/sync", syncapifeature.Routes(syncH))

		hooksH := crmhooksfeature.NewHandler(gateway, logger)
		r.Mount("/hooks", crmhooksfeature.Routes(hooksH))
	})

	return r, nil
}
