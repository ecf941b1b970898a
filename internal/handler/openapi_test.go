package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOpenAPIHandlerServesDocument(t *testing.T) {
	h := NewOpenAPIHandler("1.0.0")

	for _, proto := range []string{"", "https"} {
		req := httptest.NewRequest("GET", "/openapi.json", nil)
		req.Host = "portal.example.org"
		if proto != "" {
			req.Header.Set("X-Forwarded-Proto", proto)
		}
		rr := httptest.NewRecorder()
		h.ServeSpec(rr, req)
		assertStatus(t, rr, http.StatusOK)

		var doc struct {
			OpenAPI string `json:"openapi"`
			Servers []struct {
				URL string `json:"url"`
			} `json:"servers"`
			Paths map[string]json.RawMessage `json:"paths"`
		}
		decodeJSON(t, rr, &doc)

		want := "http://portal.example.org"
		if proto == "https" {
			want = "https://portal.example.org"
		}
		if len(doc.Servers) != 1 || doc.Servers[0].URL != want {
			t.Errorf("servers = %+v, want %s", doc.Servers, want)
		}
		if _, ok := doc.Paths["/api/v1/auth/login"]; !ok {
			t.Error("login path missing")
		}
	}
	if len(h.cache) != 2 {
		t.Errorf("cache size = %d, want 2", len(h.cache))
	}
}
