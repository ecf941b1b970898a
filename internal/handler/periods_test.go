package handler

import (
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/bemfst/portal/internal/model"
)

func createPeriod(t *testing.T, env *testEnv, tok string, body map[string]any) model.Period {
	t.Helper()
	rr := env.do(t, "POST", "/api/v1/periods", toJSON(t, body), tok)
	assertStatus(t, rr, http.StatusCreated)
	var resp envelope[model.Period]
	decodeJSON(t, rr, &resp)
	return resp.Data
}

func TestPeriodLifecycle(t *testing.T) {
	env := newTestEnv(t)
	tok := env.token(t)

	p := createPeriod(t, env, tok, map[string]any{
		"name":        "Kabinet Loyalist Spectra",
		"year_start":  2025,
		"year_end":    2026,
		"is_active":   true,
		"description": "  Inklusif dan berdampak  ",
	})
	if p.ID == 0 || !p.IsActive {
		t.Fatalf("created = %+v", p)
	}
	if p.Description == nil || *p.Description != "Inklusif dan berdampak" {
		t.Errorf("description = %v", p.Description)
	}

	rr := env.do(t, "GET", fmt.Sprintf("/api/v1/periods/%d", p.ID), nil, "")
	assertStatus(t, rr, http.StatusOK)

	rr = env.do(t, "PUT", fmt.Sprintf("/api/v1/periods/%d", p.ID),
		toJSON(t, map[string]any{"name": "Kabinet Spectra"}), tok)
	assertStatus(t, rr, http.StatusOK)
	var updated envelope[model.Period]
	decodeJSON(t, rr, &updated)
	if updated.Data.Name != "Kabinet Spectra" || updated.Data.YearStart != 2025 || !updated.Data.IsActive {
		t.Errorf("updated = %+v", updated.Data)
	}

	rr = env.do(t, "DELETE", fmt.Sprintf("/api/v1/periods/%d", p.ID), nil, tok)
	assertStatus(t, rr, http.StatusOK)
	rr = env.do(t, "GET", fmt.Sprintf("/api/v1/periods/%d", p.ID), nil, "")
	assertStatus(t, rr, http.StatusNotFound)

	seen := map[string]bool{}
	for _, e := range env.activities(t) {
		if e.EntityType != nil && *e.EntityType == "period" {
			seen[e.Action] = true
			if e.Actor != testUsername {
				t.Errorf("%s actor = %q", e.Action, e.Actor)
			}
		}
	}
	for _, action := range []string{model.ActionPeriodCreated, model.ActionPeriodUpdated, model.ActionPeriodDeleted} {
		if !seen[action] {
			t.Errorf("missing %s entry; got %v", action, seen)
		}
	}
}

func TestPeriodActivationIsExclusive(t *testing.T) {
	env := newTestEnv(t)
	tok := env.token(t)

	first := createPeriod(t, env, tok, map[string]any{"name": "2024/2025", "year_start": 2024, "year_end": 2025, "is_active": true})
	createPeriod(t, env, tok, map[string]any{"name": "2025/2026", "year_start": 2025, "year_end": 2026, "is_active": true})

	rr := env.do(t, "GET", "/api/v1/periods", nil, "")
	assertStatus(t, rr, http.StatusOK)
	var list envelope[[]model.Period]
	decodeJSON(t, rr, &list)
	if len(list.Data) != 2 || list.Data[0].Name != "2025/2026" {
		t.Fatalf("periods = %+v", list.Data)
	}
	if !list.Data[0].IsActive || list.Data[1].IsActive || list.Data[1].ID != first.ID {
		t.Errorf("activation not exclusive: %+v", list.Data)
	}
}

func TestPeriodValidation(t *testing.T) {
	env := newTestEnv(t)
	tok := env.token(t)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing years", map[string]any{"name": "Kabinet"}},
		{"blank name", map[string]any{"name": "  ", "year_start": 2025, "year_end": 2026}},
		{"end before start", map[string]any{"name": "Kabinet", "year_start": 2026, "year_end": 2025}},
		{"year out of range", map[string]any{"name": "Kabinet", "year_start": 25, "year_end": 26}},
		{"unknown field", map[string]any{"name": "Kabinet", "year_start": 2025, "year_end": 2026, "vision": "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, "POST", "/api/v1/periods", toJSON(t, tt.body), tok)
			assertStatus(t, rr, http.StatusBadRequest)
		})
	}

	rr := env.do(t, "PUT", "/api/v1/periods/abc", toJSON(t, map[string]any{"name": "x"}), tok)
	assertStatus(t, rr, http.StatusBadRequest)
	rr = env.do(t, "PUT", "/api/v1/periods/999", toJSON(t, map[string]any{"name": "x"}), tok)
	assertStatus(t, rr, http.StatusNotFound)
}

func TestPeriodMutationsRequireAuth(t *testing.T) {
	env := newTestEnv(t)
	p := createPeriod(t, env, env.token(t), map[string]any{"name": "Kabinet", "year_start": 2025, "year_end": 2026})
	path := fmt.Sprintf("/api/v1/periods/%d", p.ID)

	tests := []struct {
		method, path string
		body         map[string]any
	}{
		{"POST", "/api/v1/periods", map[string]any{"name": "Baru", "year_start": 2026, "year_end": 2027}},
		{"PUT", path, map[string]any{"name": "Diubah"}},
		{"DELETE", path, nil},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			var body io.Reader
			if tt.body != nil {
				body = toJSON(t, tt.body)
			}
			rr := env.do(t, tt.method, tt.path, body, "")
			assertStatus(t, rr, http.StatusUnauthorized)
		})
	}

	rr := env.do(t, "GET", path, nil, "")
	assertStatus(t, rr, http.StatusOK)
	var got envelope[model.Period]
	decodeJSON(t, rr, &got)
	if got.Data.Name != "Kabinet" {
		t.Errorf("unauthenticated PUT changed the period: %+v", got.Data)
	}
}
