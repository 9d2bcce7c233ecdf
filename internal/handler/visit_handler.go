package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"gatepass/internal/container"
	"gatepass/internal/domain"
	"gatepass/internal/middleware"
	"gatepass/internal/service"
	"gatepass/pkg/auth"
	"gatepass/pkg/errors"
)

// VisitHandler handles visit lifecycle requests
type VisitHandler struct {
	container *container.Container
}

// NewVisitHandler creates a new visit handler
func NewVisitHandler(container *container.Container) *VisitHandler {
	return &VisitHandler{
		container: container,
	}
}

// VisitResponse wraps a single visit.
type VisitResponse struct {
	Visit *domain.Visit `json:"visit"`
}

// VisitListResponse wraps a visit listing.
type VisitListResponse struct {
	Visits []domain.Visit `json:"visits"`
	Count  int            `json:"count"`
}

// Create handles POST /api/visits
func (h *VisitHandler) Create(w http.ResponseWriter, r *http.Request) {
	log := h.container.GetLogger()

	claims := middleware.UserFromContext(r.Context())
	if claims == nil {
		writeError(w, errors.NewAuthenticationError("authentication required"), log)
		return
	}

	var input service.CreateVisitInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, errors.NewValidationError("invalid request body", nil), log)
		return
	}

	visit, err := h.container.GetVisitService().CreateVisit(r.Context(), claims.UserID, input)
	if err != nil {
		writeError(w, err, log)
		return
	}

	writeJSON(w, http.StatusCreated, VisitResponse{Visit: visit}, log)
}

// Approve handles PATCH /api/visits/{id}/approve
func (h *VisitHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.container.GetVisitService().Approve)
}

// Reject handles PATCH /api/visits/{id}/reject
func (h *VisitHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.container.GetVisitService().Reject)
}

// Cancel handles PATCH /api/visits/{id}/cancel
func (h *VisitHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.container.GetVisitService().Cancel)
}

// Checkout handles PATCH /api/visits/{id}/checkout
func (h *VisitHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	log := h.container.GetLogger()

	visitID := chi.URLParam(r, "id")
	visit, err := h.container.GetVisitService().Checkout(r.Context(), visitID)
	if err != nil {
		writeError(w, err, log)
		return
	}

	writeJSON(w, http.StatusOK, VisitResponse{Visit: visit}, log)
}

// decide is the shared handler body for the actor-scoped transitions.
func (h *VisitHandler) decide(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, actorID, visitID string) (*domain.Visit, error)) {
	log := h.container.GetLogger()

	claims := middleware.UserFromContext(r.Context())
	if claims == nil {
		writeError(w, errors.NewAuthenticationError("authentication required"), log)
		return
	}

	visitID := chi.URLParam(r, "id")
	visit, err := op(r.Context(), claims.UserID, visitID)
	if err != nil {
		writeError(w, err, log)
		return
	}

	writeJSON(w, http.StatusOK, VisitResponse{Visit: visit}, log)
}

// Pending handles GET /api/visits/pending
func (h *VisitHandler) Pending(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.container.GetVisitService().ListPending)
}

// Today handles GET /api/visits/today
func (h *VisitHandler) Today(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.container.GetVisitService().ListToday)
}

func (h *VisitHandler) list(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, user *auth.Claims) ([]domain.Visit, error)) {
	log := h.container.GetLogger()

	claims := middleware.UserFromContext(r.Context())
	if claims == nil {
		writeError(w, errors.NewAuthenticationError("authentication required"), log)
		return
	}

	visits, err := op(r.Context(), claims)
	if err != nil {
		writeError(w, err, log)
		return
	}

	writeJSON(w, http.StatusOK, VisitListResponse{Visits: visits, Count: len(visits)}, log)
}
