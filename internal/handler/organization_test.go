package handler

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/bemfst/portal/internal/model"
)

func mainOrganization(t *testing.T, env *testEnv) model.Organization {
	t.Helper()
	rr := env.do(t, "GET", "/api/v1/organization", nil, "")
	assertStatus(t, rr, http.StatusOK)
	var resp envelope[model.Organization]
	decodeJSON(t, rr, &resp)
	return resp.Data
}

func TestUpdateOrganization(t *testing.T) {
	env := newTestEnv(t)
	tok := env.token(t)
	org := mainOrganization(t, env)
	if org.Name != model.DefaultOrganizationName {
		t.Fatalf("seeded name = %q", org.Name)
	}

	rr := env.do(t, "PUT", fmt.Sprintf("/api/v1/organization/%d", org.ID), toJSON(t, map[string]any{
		"description": "Badan Eksekutif Mahasiswa Fakultas Sains dan Teknologi",
		"email":       "bem@fst.example.ac.id",
		"social_media": map[string]string{
			"Instagram": " @bemfst ",
			"twitter":   "",
		},
	}), tok)
	assertStatus(t, rr, http.StatusOK)

	got := mainOrganization(t, env)
	if got.Name != model.DefaultOrganizationName || got.Email != "bem@fst.example.ac.id" {
		t.Errorf("organization = %+v", got)
	}
	if len(got.SocialMedia) != 1 || got.SocialMedia["instagram"] != "@bemfst" {
		t.Errorf("social_media = %v, want only instagram", got.SocialMedia)
	}

	rr = env.do(t, "GET", fmt.Sprintf("/api/v1/organization/%d", org.ID), nil, "")
	assertStatus(t, rr, http.StatusOK)

	var entry *model.ActivityLog
	entries := env.activities(t)
	for i := range entries {
		if entries[i].Action == model.ActionOrganizationUpdated {
			entry = &entries[i]
		}
	}
	if entry == nil {
		t.Fatal("expected organization.updated entry")
	}
	if entry.EntityID == nil || *entry.EntityID != org.ID || entry.Actor != testUsername {
		t.Errorf("entry = %+v", entry)
	}
	if fmt.Sprint(entry.Metadata["fields"]) != "[description email social_media]" {
		t.Errorf("fields = %v", entry.Metadata["fields"])
	}
}

func TestUpdateOrganizationValidation(t *testing.T) {
	env := newTestEnv(t)
	tok := env.token(t)
	path := fmt.Sprintf("/api/v1/organization/%d", mainOrganization(t, env).ID)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"blank name", map[string]any{"name": " "}},
		{"bad email", map[string]any{"email": "not-an-address"}},
		{"display name email", map[string]any{"email": "BEM <bem@fst.example.ac.id>"}},
		{"unknown field", map[string]any{"vision": "Unggul"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, "PUT", path, toJSON(t, tt.body), tok)
			assertStatus(t, rr, http.StatusBadRequest)
		})
	}

	rr := env.do(t, "PUT", "/api/v1/organization/999", toJSON(t, map[string]any{"name": "x"}), tok)
	assertStatus(t, rr, http.StatusNotFound)
}

func TestUpdateOrganizationRequiresAuth(t *testing.T) {
	env := newTestEnv(t)
	org := mainOrganization(t, env)

	rr := env.do(t, "PUT", fmt.Sprintf("/api/v1/organization/%d", org.ID),
		toJSON(t, map[string]any{"name": "Diambil alih"}), "")
	assertStatus(t, rr, http.StatusUnauthorized)

	if got := mainOrganization(t, env); got.Name != org.Name {
		t.Errorf("unauthenticated PUT changed name to %q", got.Name)
	}
	for _, e := range env.activities(t) {
		if e.Action == model.ActionOrganizationUpdated {
			t.Fatal("unauthenticated update must not be recorded")
		}
	}
}
