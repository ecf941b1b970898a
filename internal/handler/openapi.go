package handler

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/bemfst/portal/internal/openapi"
)

// OpenAPIHandler serves the OpenAPI document for this API. The document is
// built once per base URL.
type OpenAPIHandler struct {
	version string

	mu    sync.Mutex
	cache map[string][]byte
}

// NewOpenAPIHandler creates a new OpenAPIHandler.
func NewOpenAPIHandler(version string) *OpenAPIHandler {
	return &OpenAPIHandler{version: version, cache: make(map[string][]byte)}
}

// ServeSpec returns the OpenAPI document with the server URL taken from the
// request.
// GET /openapi.json
func (h *OpenAPIHandler) ServeSpec(w http.ResponseWriter, r *http.Request) {
	baseURL := requestBaseURL(r)

	h.mu.Lock()
	body, ok := h.cache[baseURL]
	if !ok {
		var err error
		body, err = openapi.Generate(baseURL, h.version).MarshalJSON()
		if err != nil {
			h.mu.Unlock()
			writeError(w, http.StatusInternalServerError, "Failed to build OpenAPI document")
			return
		}
		h.cache[baseURL] = body
	}
	h.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func requestBaseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s", scheme, r.Host)
}
