// internal/app/features/login/login.go
package login

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	userstore "github.com/dalemusser/campusevents/internal/app/store/users"
	"github.com/dalemusser/campusevents/internal/app/system/auth"
	"github.com/dalemusser/campusevents/internal/app/system/authz"
	"github.com/dalemusser/campusevents/internal/app/system/htmlsanitize"
	"github.com/dalemusser/campusevents/internal/app/system/httpjson"
	"github.com/dalemusser/campusevents/internal/app/system/inputval"
	"github.com/dalemusser/campusevents/internal/app/system/timeouts"
	"github.com/dalemusser/campusevents/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
)

type registerInput struct {
	FullName string `json:"full_name" label:"Full name" validate:"required,max=120"`
	Email    string `json:"email" label:"Email" validate:"required,email,max=254"`
	Password string `json:"password" label:"Password" validate:"required,min=8,max=72"`
	Role     string `json:"role" label:"Role" validate:"required,signuprole"`
}

type loginInput struct {
	Email    string `json:"email" label:"Email" validate:"required"`
	Password string `json:"password" label:"Password" validate:"required"`
}

// tokenResponse is returned by register and login.
type tokenResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      models.User `json:"user"`
}

// Register handles POST /auth/register. Admin accounts cannot be self-created.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var in registerInput
	if !h.ErrLog.Decode(w, r, &in) {
		return
	}
	in.FullName = htmlsanitize.StripTags(in.FullName)
	in.Email = strings.TrimSpace(in.Email)
	if res := inputval.Validate(in); res.HasErrors() {
		h.ErrLog.Invalid(w, res)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, err := h.Users.Create(ctx, models.User{
		FullName: in.FullName,
		Email:    in.Email,
		Role:     in.Role,
	}, in.Password)
	if errors.Is(err, userstore.ErrDuplicateEmail) {
		h.ErrLog.Conflict(w, "An account with that email already exists.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create user failed", err, "")
		return
	}
	h.Audit.Registered(ctx, r, u.ID, u.Role)
	h.issue(w, r, http.StatusCreated, u)
}

// Login handles POST /auth/login with email and password.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var in loginInput
	if !h.ErrLog.DecodeValid(w, r, &in) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if h.Limiter != nil {
		if allowed, reason := h.Limiter.Check(r, in.Email); !allowed {
			h.Audit.LoginFailedRateLimit(ctx, r, in.Email, reason)
			h.ErrLog.TooManyRequests(w, reason)
			return
		}
	}

	u, err := h.Users.Authenticate(ctx, in.Email, in.Password)
	switch {
	case err == nil:
	case errors.Is(err, userstore.ErrInvalidCredentials):
		if u == nil {
			h.Audit.LoginFailedUserNotFound(ctx, r, in.Email)
		} else {
			h.Audit.LoginFailedWrongPassword(ctx, r, u.ID, in.Email)
		}
		h.ErrLog.Unauthorized(w, "Invalid email or password.")
		return
	case errors.Is(err, userstore.ErrDisabled):
		h.Audit.LoginFailedUserDisabled(ctx, r, u.ID, in.Email)
		h.ErrLog.Forbidden(w, "Your account is disabled. Please contact an administrator.")
		return
	default:
		h.ErrLog.LogServerError(w, r, "authenticate failed", err, "")
		return
	}

	if h.Limiter != nil {
		h.Limiter.ResetEmail(ctx, in.Email)
	}
	h.Audit.LoginSuccess(ctx, r, u.ID, u.Email)
	h.issue(w, r, http.StatusOK, *u)
}

// Me handles GET /auth/me, returning the stored profile of the caller.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	_, _, uid, _ := authz.UserCtx(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if errors.Is(err, mongo.ErrNoDocuments) {
		h.ErrLog.NotFound(w, "User not found.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load current user failed", err, "")
		return
	}
	httpjson.Write(w, http.StatusOK, u)
}

func (h *Handler) issue(w http.ResponseWriter, r *http.Request, status int, u models.User) {
	token, exp, err := h.Tokens.Issue(auth.SessionUser{
		ID:    u.ID.Hex(),
		Name:  u.FullName,
		Email: u.Email,
		Role:  u.Role,
	})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "sign token failed", err, "")
		return
	}
	httpjson.Write(w, status, tokenResponse{Token: token, ExpiresAt: exp, User: u})
}
