package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/meetassist/internal/application"
)

type authService interface {
	Signup(ctx context.Context, name, email, secret string) error
	Login(ctx context.Context, email, secret string) error
	Logout(ctx context.Context) error
	Current() application.Account
	ConsumeOnboarding() bool
}

type AuthHandler struct {
	service   authService
	tokens    *TokenManager
	responder responder
	logger    *slog.Logger
}

func NewAuthHandler(service authService, tokens *TokenManager, logger *slog.Logger) *AuthHandler {
	base := defaultLogger(logger)
	return &AuthHandler{service: service, tokens: tokens, responder: newResponder(base), logger: base}
}

func (h *AuthHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AuthHandler", operation, attrs...)
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token      string     `json:"token"`
	ExpiresAt  time.Time  `json:"expires_at"`
	Onboarding bool       `json:"onboarding,omitempty"`
	User       accountDTO `json:"user"`
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	logger := h.log(r.Context(), "Signup", "email", email)

	if err := h.service.Signup(r.Context(), req.Name, email, req.Password); err != nil {
		logger.ErrorContext(r.Context(), "signup rejected", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.writeSession(w, r, http.StatusCreated, h.service.ConsumeOnboarding())
	logger.InfoContext(r.Context(), "account created")
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	logger := h.log(r.Context(), "Login", "email", email)

	if err := h.service.Login(r.Context(), email, req.Password); err != nil {
		logger.ErrorContext(r.Context(), "login rejected", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.writeSession(w, r, http.StatusOK, false)
	logger.InfoContext(r.Context(), "session opened")
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger := h.log(r.Context(), "Logout")
	if err := h.service.Logout(r.Context()); err != nil {
		logger.ErrorContext(r.Context(), "logout failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	clearSessionCookie(w)
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
	logger.InfoContext(r.Context(), "session closed")
}

func (h *AuthHandler) writeSession(w http.ResponseWriter, r *http.Request, status int, onboarding bool) {
	current := h.service.Current()

	token, expiresAt, err := h.tokens.Issue(current.Email)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusInternalServerError, err)
		return
	}

	setSessionCookie(w, token, expiresAt)
	w.Header().Set("X-Session-Token", token)

	h.responder.writeJSON(r.Context(), w, status, sessionResponse{
		Token:      token,
		ExpiresAt:  expiresAt,
		Onboarding: onboarding,
		User:       newAccountDTO(current),
	})
}
