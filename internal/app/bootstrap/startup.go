// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. The sync
// engine itself is wired in BuildHandler because it needs the router's
// lifetime; nothing else requires warm-up here.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if !appCfg.SyncUIEnabled {
		logger.Info("sync-to-CRM checkbox disabled; member groups sync only when CRM initiates")
	}
	return nil
}
