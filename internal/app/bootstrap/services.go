// internal/app/bootstrap/services.go
package bootstrap

import (
	"sync"

	"github.com/dalemusser/campusevents/internal/app/store/audit"
	"github.com/dalemusser/campusevents/internal/app/system/auditlog"
	"github.com/dalemusser/campusevents/internal/app/system/feedcache"
	"github.com/dalemusser/campusevents/internal/app/system/ratelimit"
	"github.com/dalemusser/campusevents/internal/app/system/recommend"
	"github.com/dalemusser/campusevents/internal/app/system/workers"
	"go.uber.org/zap"
)

// services are the process-wide collaborators shared by handlers and workers.
// Startup builds them; BuildHandler and Shutdown read them.
type services struct {
	Feed      *feedcache.Cache
	Notifier  *recommend.Notifier
	Audit     *auditlog.Logger
	Limiter   *ratelimit.LoginLimiter
	Completer *workers.AutoComplete // nil when auto-complete is disabled
}

var (
	svcMu sync.Mutex
	svc   *services
)

// sharedServices returns the services, building them on first use.
func sharedServices(appCfg AppConfig, deps DBDeps, logger *zap.Logger) *services {
	svcMu.Lock()
	defer svcMu.Unlock()
	if svc != nil {
		return svc
	}

	var counter ratelimit.Counter = ratelimit.NewMemoryCounter()
	if deps.Redis != nil {
		counter = ratelimit.NewRedisCounter(deps.Redis)
	}

	svc = &services{
		Feed:     feedcache.New(deps.Redis, appCfg.FeedCacheTTL, logger),
		Notifier: recommend.NewNotifier(appCfg.RecommendBaseURL, logger),
		Audit: auditlog.New(audit.New(deps.MongoDatabase), logger, auditlog.Config{
			Auth:  appCfg.AuditLogAuth,
			Admin: appCfg.AuditLogAdmin,
		}),
		Limiter: ratelimit.NewLoginLimiter(counter, logger),
	}
	if !svc.Notifier.Enabled() {
		logger.Info("recommend_base_url not set; recommendation calls disabled")
	}
	return svc
}

// resetServices drops the shared services. Tests use it between cases.
func resetServices() {
	svcMu.Lock()
	defer svcMu.Unlock()
	svc = nil
}
