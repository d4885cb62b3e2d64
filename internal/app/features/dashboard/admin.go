// internal/app/features/dashboard/admin.go
package dashboard

import (
	"context"
	"net/http"

	metricsstore "github.com/dalemusser/campusevents/internal/app/store/metrics"
	"github.com/dalemusser/campusevents/internal/app/system/authz"
	"github.com/dalemusser/campusevents/internal/app/system/httpjson"
	"go.uber.org/zap"
)

type adminData struct {
	Role   string              `json:"role"`
	Totals metricsstore.Counts `json:"totals"`
}

func (h *Handler) ServeAdmin(w http.ResponseWriter, r *http.Request) {
	role, uname, _, _ := authz.UserCtx(r)

	ctx, cancel := context.WithTimeout(r.Context(), dashboardTimeout)
	defer cancel()

	data := adminData{
		Role:   role,
		Totals: metricsstore.FetchDashboardCounts(ctx, h.DB),
	}

	h.Log.Debug("admin dashboard served", zap.String("user", uname))
	httpjson.Write(w, http.StatusOK, data)
}
