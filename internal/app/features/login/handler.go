// internal/app/features/login/handler.go
package login

import (
	uierrors "github.com/dalemusser/campusevents/internal/app/features/errors"
	userstore "github.com/dalemusser/campusevents/internal/app/store/users"
	"github.com/dalemusser/campusevents/internal/app/system/auditlog"
	"github.com/dalemusser/campusevents/internal/app/system/auth"
	"github.com/dalemusser/campusevents/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler owns the /auth routes: registration, password login, and the
// current-user lookup.
type Handler struct {
	DB      *mongo.Database
	Users   *userstore.Store
	Tokens  *auth.TokenManager
	Limiter *ratelimit.LoginLimiter // nil disables rate limiting
	Audit   *auditlog.Logger
	Log     *zap.Logger
	ErrLog  *uierrors.ErrorLogger
}

func NewHandler(
	db *mongo.Database,
	tokens *auth.TokenManager,
	limiter *ratelimit.LoginLimiter,
	audit *auditlog.Logger,
	errLog *uierrors.ErrorLogger,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		DB:      db,
		Users:   userstore.New(db),
		Tokens:  tokens,
		Limiter: limiter,
		Audit:   audit,
		Log:     logger,
		ErrLog:  errLog,
	}
}
