// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	eventstore "github.com/dalemusser/campusevents/internal/app/store/events"
	"github.com/dalemusser/campusevents/internal/app/system/timeouts"
	"github.com/dalemusser/campusevents/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. It applies
// timeout overrides, builds the shared services, and starts the auto-complete
// worker when enabled.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if n := timeouts.ConfigureFromEnv(); n > 0 {
		logger.Info("timeouts overridden from environment", zap.Int("count", n))
	}
	timeouts.Configure(timeouts.Config{Remote: appCfg.RecommendTimeout})

	s := sharedServices(appCfg, deps, logger)

	if appCfg.AutoCompleteEnabled {
		s.Completer = workers.NewAutoComplete(
			eventstore.New(deps.MongoDatabase),
			s.Feed,
			s.Notifier,
			s.Audit,
			logger,
			appCfg.AutoCompleteInterval,
		)
		s.Completer.Start()
	}
	return nil
}
