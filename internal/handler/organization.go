package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/bemfst/portal/internal/model"
	"github.com/bemfst/portal/internal/store"
)

const (
	maxOrgNameLen   = 255
	maxOrgFieldLen  = 255
	maxSocialLinks  = 10
	maxSocialKeyLen = 30
)

// OrganizationStore is the persistence the organization handler needs.
type OrganizationStore interface {
	GetOrganization(ctx context.Context) (*model.Organization, error)
	GetOrganizationByID(ctx context.Context, id int64) (*model.Organization, error)
	UpdateOrganization(ctx context.Context, o *model.Organization) error
}

// OrganizationHandler serves the public profile of the board.
type OrganizationHandler struct {
	store          OrganizationStore
	recorder       ActivityRecorder
	trustForwarded bool
	logger         *slog.Logger
}

func NewOrganizationHandler(s OrganizationStore, recorder ActivityRecorder, trustForwarded bool, logger *slog.Logger) *OrganizationHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OrganizationHandler{store: s, recorder: recorder, trustForwarded: trustForwarded, logger: logger}
}

// Get returns the main profile.
// GET /api/v1/organization
func (h *OrganizationHandler) Get(w http.ResponseWriter, r *http.Request) {
	o, err := h.store.GetOrganization(r.Context())
	if err != nil {
		h.storeError(w, err, "Failed to load organization")
		return
	}
	writeOK(w, http.StatusOK, "", o, nil)
}

// GET /api/v1/organization/{id}
func (h *OrganizationHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := entityID(w, r)
	if !ok {
		return
	}
	o, err := h.store.GetOrganizationByID(r.Context(), id)
	if err != nil {
		h.storeError(w, err, "Failed to load organization")
		return
	}
	writeOK(w, http.StatusOK, "", o, nil)
}

type organizationRequest struct {
	Name        *string            `json:"name"`
	Description *string            `json:"description"`
	Address     *string            `json:"address"`
	Email       *string            `json:"email"`
	Phone       *string            `json:"phone"`
	SocialMedia *map[string]string `json:"social_media"`
}

// apply copies the set fields of req onto o. A supplied social_media object
// replaces the stored links; blank entries are dropped.
func (req *organizationRequest) apply(o *model.Organization) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&o.Name, req.Name)
	set(&o.Description, req.Description)
	set(&o.Address, req.Address)
	set(&o.Email, req.Email)
	set(&o.Phone, req.Phone)
	if req.SocialMedia != nil {
		links := make(map[string]string, len(*req.SocialMedia))
		for k, v := range *req.SocialMedia {
			k, v = strings.ToLower(strings.TrimSpace(k)), strings.TrimSpace(v)
			if k != "" && v != "" {
				links[k] = v
			}
		}
		o.SocialMedia = links
	}
}

func validateOrganization(o *model.Organization) string {
	switch n := utf8.RuneCountInString(o.Name); {
	case n == 0:
		return "name is required"
	case n > maxOrgNameLen:
		return "name must be at most 255 characters"
	}
	if o.Email != "" {
		if a, err := mail.ParseAddress(o.Email); err != nil || a.Address != o.Email {
			return "email must be a valid address"
		}
	}
	if utf8.RuneCountInString(o.Email) > maxOrgFieldLen || utf8.RuneCountInString(o.Phone) > maxOrgFieldLen {
		return "email and phone must be at most 255 characters"
	}
	if len(o.SocialMedia) > maxSocialLinks {
		return "at most 10 social media links are allowed"
	}
	for k, v := range o.SocialMedia {
		if utf8.RuneCountInString(k) > maxSocialKeyLen || utf8.RuneCountInString(v) > maxOrgFieldLen {
			return "social media entries are too long"
		}
	}
	return ""
}

// Update changes the supplied fields of a profile and records
// organization.updated with the names of the changed fields.
// PUT /api/v1/organization/{id}
func (h *OrganizationHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := entityID(w, r)
	if !ok {
		return
	}
	var req organizationRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	o, err := h.store.GetOrganizationByID(r.Context(), id)
	if err != nil {
		h.storeError(w, err, "Failed to load organization")
		return
	}
	req.apply(o)
	if msg := validateOrganization(o); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if err := h.store.UpdateOrganization(r.Context(), o); err != nil {
		h.storeError(w, err, "Failed to update organization")
		return
	}

	if h.recorder != nil {
		meta := map[string]any{"fields": req.fields()}
		h.recorder.Record(r.Context(), auditEntry(r, h.trustForwarded, model.ActionOrganizationUpdated, "organization", o.ID, o.Name, meta))
	}
	writeOK(w, http.StatusOK, "Organization updated", o, nil)
}

// fields lists the JSON names present in the request.
func (req *organizationRequest) fields() []string {
	var out []string
	add := func(name string, set bool) {
		if set {
			out = append(out, name)
		}
	}
	add("name", req.Name != nil)
	add("description", req.Description != nil)
	add("address", req.Address != nil)
	add("email", req.Email != nil)
	add("phone", req.Phone != nil)
	add("social_media", req.SocialMedia != nil)
	return out
}

func (h *OrganizationHandler) storeError(w http.ResponseWriter, err error, fallback string) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Organization not found")
		return
	}
	h.logger.Error(fallback, "error", err)
	writeError(w, http.StatusInternalServerError, fallback)
}
