package handler

import (
	"net/http"

	"notes-server/internal/domain"
	"notes-server/internal/middleware"
	"notes-server/internal/service"
	"notes-server/pkg/response"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	resp, err := h.authService.Register(r.Context(), &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.Success(w, "User created successfully", response.Payload{
		"user":        resp.User,
		"accessToken": resp.AccessToken,
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	resp, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.Success(w, "User logged in successfully", response.Payload{
		"email":       resp.Email,
		"accessToken": resp.AccessToken,
	})
}

func (h *AuthHandler) GetUser(w http.ResponseWriter, r *http.Request, identity middleware.Identity) {
	user, err := h.authService.Profile(r.Context(), identity.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.Success(w, "User fetched successfully", response.Payload{
		"user": user,
	})
}
