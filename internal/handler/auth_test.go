package handler

import (
	"net/http"
	"strings"
	"testing"

	"github.com/bemfst/portal/internal/model"
)

func TestLoginSuccess(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "POST", "/api/v1/auth/login",
		toJSON(t, map[string]string{"username": testUsername, "password": testPassword}), "")
	assertStatus(t, rr, http.StatusOK)

	var resp envelope[loginData]
	decodeJSON(t, rr, &resp)
	if !resp.Success || resp.Message != "Login successful" {
		t.Errorf("envelope = %+v", resp)
	}
	if resp.Data.AccessToken == "" {
		t.Fatal("expected access_token")
	}
	if resp.Data.TokenType != "Bearer" {
		t.Errorf("token_type = %q", resp.Data.TokenType)
	}
	if resp.Data.ExpiresIn != 3600 {
		t.Errorf("expires_in = %d, want 3600", resp.Data.ExpiresIn)
	}
	if resp.Data.User.Username != testUsername || resp.Data.User.Role != model.RoleAdmin {
		t.Errorf("user = %+v", resp.Data.User)
	}

	entries := env.activities(t)
	if len(entries) != 1 || entries[0].Action != model.ActionLogin {
		t.Fatalf("activity = %+v, want one %s", entries, model.ActionLogin)
	}
	if entries[0].IPAddress == nil || *entries[0].IPAddress != "203.0.113.50" {
		t.Errorf("ip_address = %v, want first forwarded hop", entries[0].IPAddress)
	}
}

func TestLoginRejectsWrongCredentials(t *testing.T) {
	env := newTestEnv(t)

	bodies := []map[string]string{
		{"username": testUsername, "password": "wrong"},
		{"username": "nobody", "password": testPassword},
		{"username": "ADMIN", "password": testPassword},
	}
	for _, body := range bodies {
		rr := env.do(t, "POST", "/api/v1/auth/login", toJSON(t, body), "")
		assertStatus(t, rr, http.StatusUnauthorized)

		var resp model.ErrorResponse
		decodeJSON(t, rr, &resp)
		if resp.Error.Message != InvalidCredentialsMessage {
			t.Errorf("message = %q, want %q", resp.Error.Message, InvalidCredentialsMessage)
		}
	}

	entries := env.activities(t)
	if len(entries) != len(bodies) {
		t.Fatalf("got %d activity entries, want %d", len(entries), len(bodies))
	}
	for _, e := range entries {
		if e.Action != model.ActionLoginFailed {
			t.Errorf("action = %q, want %q", e.Action, model.ActionLoginFailed)
		}
		for k, v := range e.Metadata {
			if s, ok := v.(string); ok && strings.Contains(s, testPassword) {
				t.Errorf("metadata %q leaks the password", k)
			}
		}
	}
}

func TestLoginValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"username":`},
		{"missing password", `{"username":"admin"}`},
		{"blank username", `{"username":"   ","password":"x"}`},
		{"unknown field", `{"username":"admin","password":"x","role":"admin"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, "POST", "/api/v1/auth/login", strings.NewReader(tt.body), "")
			assertStatus(t, rr, http.StatusBadRequest)
		})
	}
}

func TestMeAndLogout(t *testing.T) {
	env := newTestEnv(t)
	tok := env.token(t)

	rr := env.do(t, "GET", "/api/v1/auth/me", nil, tok)
	assertStatus(t, rr, http.StatusOK)
	var me envelope[meData]
	decodeJSON(t, rr, &me)
	if me.Data.Username != testUsername || me.Data.ExpiresAt == nil {
		t.Errorf("me = %+v", me.Data)
	}

	rr = env.do(t, "POST", "/api/v1/auth/logout", nil, tok)
	assertStatus(t, rr, http.StatusOK)

	rr = env.do(t, "GET", "/api/v1/auth/me", nil, tok)
	assertStatus(t, rr, http.StatusUnauthorized)

	var sawLogout bool
	for _, e := range env.activities(t) {
		if e.Action == model.ActionLogout {
			sawLogout = true
		}
	}
	if !sawLogout {
		t.Error("expected auth.logout entry")
	}
}
