package handler

import (
	"encoding/json"
	"net/http"

	"gatepass/internal/container"
	"gatepass/internal/middleware"
	"gatepass/pkg/errors"
)

// AuthHandler handles authentication related requests
type AuthHandler struct {
	container *container.Container
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(container *container.Container) *AuthHandler {
	return &AuthHandler{
		container: container,
	}
}

type otpRequest struct {
	Phone string `json:"phone"`
}

type otpVerifyRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

// statusResponse is the body for endpoints that only acknowledge.
type statusResponse struct {
	Status string `json:"status"`
}

// RequestOTP handles POST /api/auth/otp/request
func (h *AuthHandler) RequestOTP(w http.ResponseWriter, r *http.Request) {
	log := h.container.GetLogger()

	var req otpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewValidationError("invalid request body", nil), log)
		return
	}

	if err := h.container.GetAuthService().RequestOTP(r.Context(), req.Phone); err != nil {
		writeError(w, err, log)
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{Status: "otp_sent"}, log)
}

// VerifyOTP handles POST /api/auth/otp/verify
func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	log := h.container.GetLogger()

	var req otpVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewValidationError("invalid request body", nil), log)
		return
	}

	resp, err := h.container.GetAuthService().VerifyOTP(r.Context(), req.Phone, req.Code)
	if err != nil {
		writeError(w, err, log)
		return
	}

	writeJSON(w, http.StatusOK, resp, log)
}

// Logout handles POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	log := h.container.GetLogger()

	claims := middleware.UserFromContext(r.Context())
	if claims == nil {
		writeError(w, errors.NewAuthenticationError("authentication required"), log)
		return
	}

	if err := h.container.GetAuthService().Logout(r.Context(), claims); err != nil {
		writeError(w, err, log)
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{Status: "logged_out"}, log)
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	log := h.container.GetLogger()

	claims := middleware.UserFromContext(r.Context())
	if claims == nil {
		writeError(w, errors.NewAuthenticationError("authentication required"), log)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user_id": claims.UserID,
		"role":    claims.Role,
		"flat_id": claims.FlatID,
	}, log)
}
