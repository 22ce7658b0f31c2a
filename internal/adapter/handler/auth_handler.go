package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/agrimart/agrimart/internal/core/domain"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "ValidationError", "invalid json body")
		return
	}

	u, token, err := h.auth.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, authResponse{User: u, Token: token})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "ValidationError", "invalid json body")
		return
	}

	u, token, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{User: u, Token: token})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	u, err := h.auth.CurrentUser(r.Context(), callerFrom(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.auth.ListUsers(r.Context(), callerFrom(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.DeleteUser(r.Context(), chi.URLParam(r, "id"), callerFrom(r)); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "user deleted"})
}
