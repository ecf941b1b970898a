package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/bemfst/portal/internal/model"
	"github.com/bemfst/portal/internal/store"
)

const (
	maxPeriodNameLen = 100
	minPeriodYear    = 1900
	maxPeriodYear    = 2100
)

// PeriodStore is the persistence the period handler needs.
type PeriodStore interface {
	ListPeriods(ctx context.Context) ([]model.Period, error)
	GetPeriod(ctx context.Context, id int64) (*model.Period, error)
	CreatePeriod(ctx context.Context, p *model.Period) error
	UpdatePeriod(ctx context.Context, p *model.Period) error
	DeletePeriod(ctx context.Context, id int64) error
}

// PeriodHandler serves the board's management terms.
type PeriodHandler struct {
	store          PeriodStore
	recorder       ActivityRecorder
	trustForwarded bool
	logger         *slog.Logger
}

func NewPeriodHandler(s PeriodStore, recorder ActivityRecorder, trustForwarded bool, logger *slog.Logger) *PeriodHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PeriodHandler{store: s, recorder: recorder, trustForwarded: trustForwarded, logger: logger}
}

// List returns every period, most recent first.
// GET /api/v1/periods
func (h *PeriodHandler) List(w http.ResponseWriter, r *http.Request) {
	periods, err := h.store.ListPeriods(r.Context())
	if err != nil {
		h.storeError(w, err, "Failed to list periods")
		return
	}
	writeOK(w, http.StatusOK, "", periods, nil)
}

// GET /api/v1/periods/{id}
func (h *PeriodHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := entityID(w, r)
	if !ok {
		return
	}
	p, err := h.store.GetPeriod(r.Context(), id)
	if err != nil {
		h.storeError(w, err, "Failed to load period")
		return
	}
	writeOK(w, http.StatusOK, "", p, nil)
}

type periodRequest struct {
	Name        *string `json:"name"`
	YearStart   *int    `json:"year_start"`
	YearEnd     *int    `json:"year_end"`
	IsActive    *bool   `json:"is_active"`
	Description *string `json:"description"`
}

func (req *periodRequest) apply(p *model.Period) {
	if req.Name != nil {
		p.Name = strings.TrimSpace(*req.Name)
	}
	if req.YearStart != nil {
		p.YearStart = *req.YearStart
	}
	if req.YearEnd != nil {
		p.YearEnd = *req.YearEnd
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
	if req.Description != nil {
		p.Description = model.StringPtr(strings.TrimSpace(*req.Description))
	}
}

func validatePeriod(p *model.Period) string {
	switch n := utf8.RuneCountInString(p.Name); {
	case n == 0:
		return "name is required"
	case n > maxPeriodNameLen:
		return "name must be at most 100 characters"
	}
	if p.YearStart < minPeriodYear || p.YearStart > maxPeriodYear ||
		p.YearEnd < minPeriodYear || p.YearEnd > maxPeriodYear {
		return "years must be between 1900 and 2100"
	}
	if p.YearEnd < p.YearStart {
		return "year_end must not be before year_start"
	}
	return ""
}

// Create adds a period and records period.created. An active period
// deactivates the others.
// POST /api/v1/periods
func (h *PeriodHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req periodRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Name == nil || req.YearStart == nil || req.YearEnd == nil {
		writeError(w, http.StatusBadRequest, "name, year_start and year_end are required")
		return
	}

	p := &model.Period{}
	req.apply(p)
	if msg := validatePeriod(p); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if err := h.store.CreatePeriod(r.Context(), p); err != nil {
		h.storeError(w, err, "Failed to create period")
		return
	}

	h.record(r, model.ActionPeriodCreated, p)
	writeOK(w, http.StatusCreated, "Period created", p, nil)
}

// Update changes the supplied fields of a period and records period.updated.
// PUT /api/v1/periods/{id}
func (h *PeriodHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := entityID(w, r)
	if !ok {
		return
	}
	var req periodRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	p, err := h.store.GetPeriod(r.Context(), id)
	if err != nil {
		h.storeError(w, err, "Failed to load period")
		return
	}
	req.apply(p)
	if msg := validatePeriod(p); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if err := h.store.UpdatePeriod(r.Context(), p); err != nil {
		h.storeError(w, err, "Failed to update period")
		return
	}

	h.record(r, model.ActionPeriodUpdated, p)
	writeOK(w, http.StatusOK, "Period updated", p, nil)
}

// Delete removes a period and records period.deleted.
// DELETE /api/v1/periods/{id}
func (h *PeriodHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := entityID(w, r)
	if !ok {
		return
	}
	p, err := h.store.GetPeriod(r.Context(), id)
	if err != nil {
		h.storeError(w, err, "Failed to load period")
		return
	}
	if err := h.store.DeletePeriod(r.Context(), id); err != nil {
		h.storeError(w, err, "Failed to delete period")
		return
	}

	h.record(r, model.ActionPeriodDeleted, p)
	writeOK(w, http.StatusOK, "Period deleted", nil, nil)
}

func (h *PeriodHandler) record(r *http.Request, action string, p *model.Period) {
	if h.recorder == nil {
		return
	}
	meta := map[string]any{"year_start": p.YearStart, "year_end": p.YearEnd, "is_active": p.IsActive}
	h.recorder.Record(r.Context(), auditEntry(r, h.trustForwarded, action, "period", p.ID, p.Name, meta))
}

func (h *PeriodHandler) storeError(w http.ResponseWriter, err error, fallback string) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Period not found")
		return
	}
	h.logger.Error(fallback, "error", err)
	writeError(w, http.StatusInternalServerError, fallback)
}
