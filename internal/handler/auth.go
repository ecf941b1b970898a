package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/bemfst/portal/internal/model"
	"github.com/bemfst/portal/internal/ratelimit"
	"github.com/bemfst/portal/internal/server/middleware"
	"github.com/bemfst/portal/internal/service"
)

// InvalidCredentialsMessage is the only login failure text clients see.
const InvalidCredentialsMessage = "Invalid credentials"

// LoginService is the part of service.AuthService the auth handler needs.
type LoginService interface {
	Login(ctx context.Context, username, password, ip string) (*service.LoginResult, error)
	Logout(ctx context.Context, claims *service.Claims, ip string)
}

// AuthHandler serves login, logout and the current identity.
type AuthHandler struct {
	auth           LoginService
	trustForwarded bool
	logger         *slog.Logger
}

func NewAuthHandler(auth LoginService, trustForwarded bool, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{auth: auth, trustForwarded: trustForwarded, logger: logger}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginData struct {
	AccessToken string          `json:"access_token"`
	TokenType   string          `json:"token_type"`
	ExpiresIn   int             `json:"expires_in"`
	ExpiresAt   time.Time       `json:"expires_at"`
	User        model.Principal `json:"user"`
}

// Login exchanges admin credentials for a bearer token.
// POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	res, err := h.auth.Login(r.Context(), req.Username, req.Password, ratelimit.ClientIP(r, h.trustForwarded))
	switch {
	case errors.Is(err, service.ErrNotConfigured):
		h.logger.Error("login refused: authentication is not configured", "error", err)
		writeError(w, http.StatusUnauthorized, InvalidCredentialsMessage)
		return
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, InvalidCredentialsMessage)
		return
	case err != nil:
		h.logger.Error("login failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	writeOK(w, http.StatusOK, "Login successful", loginData{
		AccessToken: res.Token.Token,
		TokenType:   "Bearer",
		ExpiresIn:   res.Token.ExpiresIn,
		ExpiresAt:   res.Token.ExpiresAt,
		User:        res.Principal,
	}, nil)
}

// Logout revokes the presented token.
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.auth.Logout(r.Context(), middleware.GetClaims(r.Context()), ratelimit.ClientIP(r, h.trustForwarded))
	writeOK(w, http.StatusOK, "Logged out", nil, nil)
}

type meData struct {
	model.Principal
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Me returns the identity carried by the token.
// GET /api/v1/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, middleware.UnauthorizedMessage)
		return
	}
	data := meData{Principal: claims.Principal()}
	if claims.ExpiresAt != nil {
		exp := claims.ExpiresAt.Time.UTC()
		data.ExpiresAt = &exp
	}
	writeOK(w, http.StatusOK, "", data, nil)
}
