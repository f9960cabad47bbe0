package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/aircrushin/mindful-moment/internal/user"
	"github.com/aircrushin/mindful-moment/middleware"
)

type AuthService interface {
	Register(ctx context.Context, req *user.RegisterRequest) (*user.AuthResponse, error)
	Login(ctx context.Context, req *user.LoginRequest) (*user.AuthResponse, error)
	GetUser(ctx context.Context, userID uuid.UUID) (*user.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, req *user.UpdateProfileRequest) (*user.User, error)
	DeleteUser(ctx context.Context, userID uuid.UUID) error
}

type AuthHandler struct {
	authService AuthService
	timeout     time.Duration
}

func NewAuthHandler(authService AuthService, timeout time.Duration) *AuthHandler {
	return &AuthHandler{authService: authService, timeout: timeout}
}

// POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req user.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.authService.Register(ctx, &req)
	if err != nil {
		handleServiceError(w, "Register", err)
		return
	}

	respondWithJSON(w, http.StatusOK, resp)
}

// POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req user.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.authService.Login(ctx, &req)
	if err != nil {
		handleServiceError(w, "Login", err)
		return
	}

	respondWithJSON(w, http.StatusOK, resp)
}

// GET /api/v1/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	u, err := h.authService.GetUser(ctx, userID)
	if err != nil {
		handleServiceError(w, "GetUser", err)
		return
	}

	respondWithJSON(w, http.StatusOK, user.ProfileResponse{User: u})
}

// PATCH /api/v1/auth/me
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req user.UpdateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	u, err := h.authService.UpdateProfile(ctx, userID, &req)
	if err != nil {
		handleServiceError(w, "UpdateProfile", err)
		return
	}

	respondWithJSON(w, http.StatusOK, user.ProfileResponse{User: u})
}

// DELETE /api/v1/auth/me
func (h *AuthHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	if err := h.authService.DeleteUser(ctx, userID); err != nil {
		handleServiceError(w, "DeleteUser", err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Account deleted successfully"})
}
