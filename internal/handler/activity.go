package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/bemfst/portal/internal/activity"
	"github.com/bemfst/portal/internal/model"
	"github.com/bemfst/portal/internal/ratelimit"
	"github.com/bemfst/portal/internal/server/middleware"
)

// ActivityHandler exposes the audit log to the admin.
type ActivityHandler struct {
	recorder       *activity.Recorder
	retentionDays  int
	trustForwarded bool
}

func NewActivityHandler(recorder *activity.Recorder, retentionDays int, trustForwarded bool) *ActivityHandler {
	if retentionDays < 1 {
		retentionDays = activity.DefaultRetentionDays
	}
	return &ActivityHandler{
		recorder:       recorder,
		retentionDays:  retentionDays,
		trustForwarded: trustForwarded,
	}
}

// List returns one page of the activity log, newest first.
// GET /api/v1/activity-logs?page=1&limit=30
func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.recorder.List(r.Context(),
		queryInt(r, "page", 1),
		queryInt(r, "limit", activity.DefaultPageSize),
	)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list activity logs")
		return
	}
	writeOK(w, http.StatusOK, "", page.Entries, page.Meta())
}

type clearOldData struct {
	Deleted int64 `json:"deleted"`
	Days    int   `json:"days"`
}

// ClearOld deletes entries older than the given number of days.
// DELETE /api/v1/activity-logs/clear-old?days=180
func (h *ActivityHandler) ClearOld(w http.ResponseWriter, r *http.Request) {
	days := h.retentionDays
	if raw := queryString(r, "days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "days must be an integer")
			return
		}
		days = n
	}

	deleted, err := h.recorder.Purge(r.Context(), days)
	if errors.Is(err, activity.ErrInvalidRetention) {
		writeError(w, http.StatusBadRequest, "days must be at least 1")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to clear activity logs")
		return
	}

	entry := model.ActivityLog{
		Action:    model.ActionLogsPurged,
		IPAddress: model.StringPtr(ratelimit.ClientIP(r, h.trustForwarded)),
		Metadata:  map[string]any{"days": days, "deleted": deleted},
	}
	if p := middleware.GetPrincipal(r.Context()); p != nil {
		entry.Actor = p.Username
	}
	h.recorder.Record(r.Context(), entry)

	writeOK(w, http.StatusOK, "Old activity logs cleared", clearOldData{Deleted: deleted, Days: days}, nil)
}
