// internal/app/features/teams/roster.go
package teams

import (
	"bytes"
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/dalemusser/campusevents/internal/app/policy/teampolicy"
	"github.com/dalemusser/campusevents/internal/app/store/queries/teamroster"
	"github.com/dalemusser/campusevents/internal/app/system/timeouts"
	"github.com/xuri/excelize/v2"
)

const (
	rosterSheet = "Roster"
	xlsxType    = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Roster handles GET /teams/{teamId}/roster.xlsx (leader or admin).
func (h *Handler) Roster(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	team, ok := h.loadTeam(ctx, w, r)
	if !ok {
		return
	}
	if !teampolicy.CanManage(r, team) {
		h.ErrLog.Forbidden(w, "Only the team leader can export the roster.")
		return
	}

	entries, err := teamroster.List(ctx, h.DB, team.ID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load team roster failed", err, "")
		return
	}
	buf, err := buildRoster(entries)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "build roster workbook failed", err, "")
		return
	}

	name := unsafeFilename.ReplaceAllString(team.Name, "_")
	if name == "" || name == "_" {
		name = "team"
	}
	w.Header().Set("Content-Type", xlsxType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`-roster.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// buildRoster renders entries as a single-sheet workbook with a header row.
func buildRoster(entries []teamroster.Entry) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", rosterSheet); err != nil {
		return nil, err
	}
	header := []any{"Name", "Email", "Role", "Status", "Invited At", "Responded At"}
	if err := f.SetSheetRow(rosterSheet, "A1", &header); err != nil {
		return nil, err
	}
	for i, e := range entries {
		responded := ""
		if e.RespondedAt != nil {
			responded = e.RespondedAt.UTC().Format(time.RFC3339)
		}
		row := []any{e.FullName, e.Email, e.Role, e.Status, e.InvitedAt.UTC().Format(time.RFC3339), responded}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(rosterSheet, cell, &row); err != nil {
			return nil, err
		}
	}
	if err := f.SetColWidth(rosterSheet, "A", "B", 28); err != nil {
		return nil, err
	}
	return f.WriteToBuffer()
}
