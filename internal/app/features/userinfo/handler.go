// internal/app/features/userinfo/handler.go
package userinfo

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/campusevents/internal/app/features/errors"
	userstore "github.com/dalemusser/campusevents/internal/app/store/users"
	"github.com/dalemusser/campusevents/internal/app/system/httpjson"
	"github.com/dalemusser/campusevents/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// searchLimit caps GET /users results.
const searchLimit = 20

// Handler serves user lookups for invite pickers.
type Handler struct {
	Users  *userstore.Store
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger
}

// NewHandler creates a new userinfo handler.
func NewHandler(users *userstore.Store, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Users: users, Log: logger, ErrLog: errLog}
}

// userSummary is the public shape of a user in search results.
//
// Response format:
//
//	[ { "id": "...", "full_name": "...", "email": "...", "role": "..." } ]
type userSummary struct {
	ID       primitive.ObjectID `json:"id"`
	FullName string             `json:"full_name"`
	Email    string             `json:"email"`
	Role     string             `json:"role"`
}

// Search handles GET /users?q=, a name or email prefix match over active users.
// An empty q returns an empty list.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := query.Get(r, "q")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	users, err := h.Users.Search(ctx, q, searchLimit)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "search users failed", err, "")
		return
	}
	out := make([]userSummary, 0, len(users))
	for _, u := range users {
		out = append(out, userSummary{ID: u.ID, FullName: u.FullName, Email: u.Email, Role: u.Role})
	}
	httpjson.Write(w, http.StatusOK, out)
}
