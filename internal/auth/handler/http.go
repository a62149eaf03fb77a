// Package handler exposes authentication over HTTP: provider login and
// refresh-token rotation.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"relay-chat/backend/internal/auth/service"
	"relay-chat/backend/internal/security"
	"relay-chat/backend/internal/web"
)

// AuthHandler handles /api/v1/auth endpoints.
type AuthHandler struct {
	authenticate *service.AuthenticateService
	refresh      *service.RefreshService
	logger       *zap.Logger
}

// NewAuthHandler returns an AuthHandler with the given services.
func NewAuthHandler(authenticate *service.AuthenticateService, refresh *service.RefreshService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{authenticate: authenticate, refresh: refresh, logger: logger}
}

// Register mounts the auth routes on r.
func (h *AuthHandler) Register(r chi.Router) {
	r.Post("/auth/kakao", h.KakaoLogin)
	r.Post("/auth/refresh", h.Refresh)
}

type kakaoLoginRequest struct {
	Code string `json:"code"`
}

type refreshRequest struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type tokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// KakaoLogin authenticates a Kakao authorization code and issues tokens.
// POST /api/v1/auth/kakao
func (h *AuthHandler) KakaoLogin(w http.ResponseWriter, r *http.Request) {
	var req kakaoLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		web.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", "authorization code is required")
		return
	}

	pair, err := h.authenticate.Authenticate(r.Context(), service.KakaoCommand{Code: req.Code})
	if err != nil {
		h.writeAuthError(w, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// Refresh rotates the refresh session and issues a new access token.
// POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AccessToken == "" {
		web.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", "access token is required")
		return
	}

	pair, err := h.refresh.Refresh(r.Context(), req.AccessToken)
	if err != nil {
		h.writeAuthError(w, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

func (h *AuthHandler) writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrUnsupportedProvider):
		web.WriteError(w, http.StatusBadRequest, "UNSUPPORTED_PROVIDER", "unsupported authentication provider")
	case errors.Is(err, service.ErrTemporalRefresh):
		web.WriteError(w, http.StatusBadRequest, "TEMPORAL_REFRESH", "temporal tokens cannot be refreshed")
	case errors.Is(err, service.ErrTokenExpired):
		web.WriteError(w, http.StatusUnauthorized, "TOKEN_EXPIRED", "refresh token expired")
	case errors.Is(err, security.ErrInvalidToken), errors.Is(err, security.ErrMalformedToken):
		web.WriteError(w, http.StatusUnauthorized, "INVALID_TOKEN", "invalid access token")
	default:
		h.logger.Error("auth request failed", zap.Error(err))
		web.WriteError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}
