// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	adsfeature "github.com/dalemusser/campusevents/internal/app/features/ads"
	dashboardfeature "github.com/dalemusser/campusevents/internal/app/features/dashboard"
	errorsfeature "github.com/dalemusser/campusevents/internal/app/features/errors"
	eventsfeature "github.com/dalemusser/campusevents/internal/app/features/events"
	healthfeature "github.com/dalemusser/campusevents/internal/app/features/health"
	inboxfeature "github.com/dalemusser/campusevents/internal/app/features/inbox"
	loginfeature "github.com/dalemusser/campusevents/internal/app/features/login"
	teamsfeature "github.com/dalemusser/campusevents/internal/app/features/teams"
	userinfofeature "github.com/dalemusser/campusevents/internal/app/features/userinfo"
	userstore "github.com/dalemusser/campusevents/internal/app/store/users"
	"github.com/dalemusser/campusevents/internal/app/system/auth"
	"github.com/dalemusser/campusevents/internal/app/system/metrics"
	"github.com/dalemusser/campusevents/internal/app/system/requestlog"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed. The router carries request logging, panic
// recovery, CORS for the SPA, and bearer-token loading; each feature then
// mounts its own routes and applies its own role checks.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	tokens, err := auth.NewTokenManager(appCfg.JWTSecret, appCfg.JWTTTL, "campusevents", logger)
	if err != nil {
		logger.Error("token manager init failed", zap.Error(err))
		return nil, err
	}
	// Reload the user on each request so role changes and disabled accounts
	// take effect before the token expires.
	tokens.SetUserFetcher(userstore.NewFetcher(deps.MongoDatabase))

	s := sharedServices(appCfg, deps, logger)
	db := deps.MongoDatabase
	errLog := errorsfeature.NewErrorLogger(logger)

	r := chi.NewRouter()
	r.Use(requestlog.Middleware(logger))
	r.Use(requestlog.Recoverer(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   appCfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", requestlog.HeaderName},
		ExposedHeaders:   []string{requestlog.HeaderName},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(tokens.LoadUser)

	// Operational endpoints
	healthHandler := healthfeature.NewHandler(deps.MongoClient, deps.Redis, logger)
	r.Route("/health", healthHandler.MountRoutes)
	r.Handle("/metrics", metrics.Handler())

	// Authentication and user lookup
	loginHandler := loginfeature.NewHandler(db, tokens, s.Limiter, s.Audit, errLog, logger)
	r.Route("/auth", loginHandler.MountRoutes)

	userinfoHandler := userinfofeature.NewHandler(userstore.New(db), errLog, logger)
	r.Route("/users", userinfoHandler.MountRoutes)

	// Domain features
	eventsHandler := eventsfeature.NewHandler(db, s.Feed, s.Notifier, s.Audit, errLog, logger)
	r.Route("/events", eventsHandler.MountRoutes)

	teamsHandler := teamsfeature.NewHandler(db, s.Audit, errLog, logger)
	r.Route("/teams", teamsHandler.MountRoutes)

	inboxHandler := inboxfeature.NewHandler(db, s.Audit, errLog, logger)
	r.Route("/inbox", inboxHandler.MountRoutes)

	adsHandler := adsfeature.NewHandler(db, s.Audit, errLog, logger)
	r.Route("/ads", adsHandler.MountRoutes)

	dashboardHandler := dashboardfeature.NewHandler(db, errLog, logger)
	r.Route("/dashboard", dashboardHandler.MountRoutes)

	// JSON fallbacks for unknown routes and methods
	errorsHandler := errorsfeature.NewHandler()
	r.NotFound(errorsHandler.NotFound)
	r.MethodNotAllowed(errorsHandler.MethodNotAllowed)

	return r, nil
}
