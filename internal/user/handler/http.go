// Package handler exposes user registration and profile lookup over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	authdomain "relay-chat/backend/internal/auth/domain"
	"relay-chat/backend/internal/server/middleware"
	"relay-chat/backend/internal/user/domain"
	"relay-chat/backend/internal/user/service"
	"relay-chat/backend/internal/web"
)

// UserReader is the minimal user repository needed by the profile endpoint.
type UserReader interface {
	FindByID(ctx context.Context, id int64) (*domain.User, error)
}

// UserHandler handles /api/v1/users endpoints.
type UserHandler struct {
	register *service.RegisterService
	users    UserReader
	logger   *zap.Logger
}

// NewUserHandler returns a UserHandler with the given dependencies.
func NewUserHandler(register *service.RegisterService, users UserReader, logger *zap.Logger) *UserHandler {
	return &UserHandler{register: register, users: users, logger: logger}
}

// Register mounts the user routes on r. Both endpoints require an
// authenticated subject.
func (h *UserHandler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Post("/users", h.RegisterUser)
		r.Get("/users/me", h.Me)
	})
}

type registerUserRequest struct {
	Username string `json:"username"`
}

type registerUserResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type userResponse struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Nickname string   `json:"nickname"`
	Roles    []string `json:"roles"`
	Status   string   `json:"status"`
}

// RegisterUser completes a temporal credential's registration.
// POST /api/v1/users
func (h *UserHandler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	subject, ok := middleware.AuthUserFrom(r.Context())
	if !ok {
		web.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid authorization")
		return
	}
	temporal, ok := subject.(authdomain.TemporalUser)
	if !ok {
		web.WriteError(w, http.StatusForbidden, "ALREADY_REGISTERED", "account is already registered")
		return
	}

	var req registerUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" {
		web.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", "username is required")
		return
	}

	pair, err := h.register.Register(r.Context(), temporal.CredentialID, req.Username)
	if err != nil {
		h.writeRegisterError(w, err)
		return
	}
	web.WriteJSON(w, http.StatusCreated, registerUserResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// Me returns the authenticated user's profile.
// GET /api/v1/users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	subject, ok := middleware.AuthUserFrom(r.Context())
	if !ok {
		web.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid authorization")
		return
	}
	permanent, ok := subject.(authdomain.PermanentUser)
	if !ok {
		web.WriteError(w, http.StatusForbidden, "REGISTRATION_REQUIRED", "complete registration first")
		return
	}

	user, err := h.users.FindByID(r.Context(), permanent.UserID)
	if err != nil {
		h.logger.Error("load user profile", zap.Int64("userId", permanent.UserID), zap.Error(err))
		web.WriteError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return
	}
	if user == nil {
		web.WriteError(w, http.StatusNotFound, "USER_NOT_FOUND", "user not found")
		return
	}

	web.WriteJSON(w, http.StatusOK, userResponse{
		ID:       strconv.FormatInt(user.ID, 10),
		Username: string(user.Username),
		Nickname: string(user.Nickname),
		Roles:    domain.RoleNames(user.Roles),
		Status:   string(user.Status.Display()),
	})
}

func (h *UserHandler) writeRegisterError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidUsername):
		web.WriteError(w, http.StatusBadRequest, "INVALID_USERNAME", err.Error())
	case errors.Is(err, domain.ErrUsernameDuplicate):
		web.WriteError(w, http.StatusConflict, "USERNAME_DUPLICATE", "username already in use")
	case errors.Is(err, service.ErrAlreadyRegistered):
		web.WriteError(w, http.StatusConflict, "ALREADY_REGISTERED", "account is already registered")
	case errors.Is(err, service.ErrCredentialNotFound):
		web.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "credential not found")
	default:
		h.logger.Error("register user failed", zap.Error(err))
		web.WriteError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}
