package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bemfst/portal/internal/activity"
	"github.com/bemfst/portal/internal/model"
	"github.com/bemfst/portal/internal/server/middleware"
	"github.com/bemfst/portal/internal/service"
	"github.com/bemfst/portal/internal/store"
)

const (
	testUsername  = "admin"
	testPassword  = "supersecretpassword"
	testJWTSecret = "test-secret-for-handler-tests"
)

// testEnv holds shared state for handler integration tests.
type testEnv struct {
	store    *store.Store
	recorder *activity.Recorder
	authSvc  *service.AuthService
	router   chi.Router
}

// newTestEnv wires every handler over an in-memory SQLite store. Guarded
// routes sit behind the real auth guard.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := store.NewStore("")
	if err != nil {
		t.Fatalf("store.NewStore: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	rec := activity.NewRecorder(st, activity.Options{})
	t.Cleanup(func() { rec.Close(context.Background()) })

	verifier, err := service.NewVerifier(testUsername, testPassword, "")
	if err != nil {
		t.Fatal(err)
	}
	tokens, err := service.NewTokenIssuer(testJWTSecret, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	authSvc := service.NewAuthService(verifier, tokens, service.NewRevocations(16, time.Hour), rec, nil)

	authH := NewAuthHandler(authSvc, true, nil)
	activityH := NewActivityHandler(rec, 180, true)
	postH := NewPostHandler(st, rec, true, nil)
	periodH := NewPeriodHandler(st, rec, true, nil)
	orgH := NewOrganizationHandler(st, rec, true, nil)

	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", authH.Login)
		r.Get("/posts", postH.List)
		r.Get("/posts/slug/{slug}", postH.GetBySlug)
		r.Get("/posts/{id}", postH.Get)
		r.Get("/periods", periodH.List)
		r.Get("/periods/{id}", periodH.Get)
		r.Get("/organization", orgH.Get)
		r.Get("/organization/{id}", orgH.GetByID)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(authSvc, nil))
			r.Use(middleware.RequireAdmin())
			r.Post("/auth/logout", authH.Logout)
			r.Get("/auth/me", authH.Me)
			r.Get("/activity-logs", activityH.List)
			r.Delete("/activity-logs/clear-old", activityH.ClearOld)
			r.Post("/posts", postH.Create)
			r.Patch("/posts/{id}", postH.Update)
			r.Delete("/posts/{id}", postH.Delete)
			r.Post("/periods", periodH.Create)
			r.Put("/periods/{id}", periodH.Update)
			r.Delete("/periods/{id}", periodH.Delete)
			r.Put("/organization/{id}", orgH.Update)
		})
	})

	return &testEnv{store: st, recorder: rec, authSvc: authSvc, router: r}
}

// token logs in and returns a bearer token.
func (e *testEnv) token(t *testing.T) string {
	t.Helper()
	res, err := e.authSvc.Login(context.Background(), testUsername, testPassword, "")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	return res.Token.Token
}

// do executes an HTTP request against the test router and returns the recorder.
func (e *testEnv) do(t *testing.T, method, path string, body io.Reader, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("X-Forwarded-For", "203.0.113.50, 10.0.0.1")
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

// activities flushes pending audit writes and returns the newest entries.
func (e *testEnv) activities(t *testing.T) []model.ActivityLog {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.recorder.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}
	page, err := e.recorder.List(ctx, 1, 100)
	if err != nil {
		t.Fatalf("list activity: %v", err)
	}
	return page.Entries
}

func toJSON(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(v); err != nil {
		t.Fatalf("toJSON: %v", err)
	}
	return buf
}

func assertStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Errorf("status = %d, want %d; body = %s", rr.Code, want, rr.Body.String())
	}
}

func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decodeJSON: %v; body = %s", err, rr.Body.String())
	}
}

// envelope decodes the success envelope with data into D.
type envelope[D any] struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    D               `json:"data"`
	Meta    *model.PageMeta `json:"meta"`
}
