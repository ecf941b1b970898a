package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/bemfst/portal/internal/model"
	"github.com/bemfst/portal/internal/ratelimit"
	"github.com/bemfst/portal/internal/server/middleware"
)

// auditEntry builds the activity entry for a change to one entity, attributed
// to the authenticated admin and the client address.
func auditEntry(r *http.Request, trustForwarded bool, action, entityType string, id int64, title string, meta map[string]any) model.ActivityLog {
	entry := model.ActivityLog{
		Action:      action,
		EntityType:  model.StringPtr(entityType),
		EntityID:    model.Int64Ptr(id),
		EntityTitle: model.StringPtr(title),
		IPAddress:   model.StringPtr(ratelimit.ClientIP(r, trustForwarded)),
		Metadata:    meta,
	}
	if principal := middleware.GetPrincipal(r.Context()); principal != nil {
		entry.Actor = principal.Username
	}
	return entry
}

// entityID parses the {id} route parameter, writing 400 when it is not a
// positive integer.
func entityID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, "id must be a positive integer")
		return 0, false
	}
	return id, true
}
