package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatepass/internal/config"
	"gatepass/internal/container"
	"gatepass/internal/domain"
	"gatepass/internal/events"
	"gatepass/internal/middleware"
	"gatepass/internal/service"
	"gatepass/pkg/auth"
	apperrors "gatepass/pkg/errors"
	"gatepass/pkg/logger"
)

// stubAuthService resolves tokens from a fixed map.
type stubAuthService struct {
	tokens map[string]*auth.Claims
}

func (s *stubAuthService) RequestOTP(context.Context, string) error { return nil }

func (s *stubAuthService) VerifyOTP(context.Context, string, string) (*service.TokenResponse, error) {
	return nil, apperrors.NewAuthenticationError("not implemented")
}

func (s *stubAuthService) Authenticate(_ context.Context, token string) (*auth.Claims, error) {
	claims, ok := s.tokens[token]
	if !ok {
		return nil, apperrors.NewAuthenticationError("invalid token")
	}
	return claims, nil
}

func (s *stubAuthService) Logout(context.Context, *auth.Claims) error { return nil }

// stubVisitService records calls and returns canned results.
type stubVisitService struct {
	visit   *domain.Visit
	err     error
	lastOp  string
	actorID string
	visitID string
}

func (s *stubVisitService) CreateVisit(_ context.Context, guardID string, _ service.CreateVisitInput) (*domain.Visit, error) {
	s.lastOp, s.actorID = "create", guardID
	return s.visit, s.err
}

func (s *stubVisitService) Approve(_ context.Context, ownerID, visitID string) (*domain.Visit, error) {
	s.lastOp, s.actorID, s.visitID = "approve", ownerID, visitID
	return s.visit, s.err
}

func (s *stubVisitService) Reject(_ context.Context, ownerID, visitID string) (*domain.Visit, error) {
	s.lastOp, s.actorID, s.visitID = "reject", ownerID, visitID
	return s.visit, s.err
}

func (s *stubVisitService) Cancel(_ context.Context, guardID, visitID string) (*domain.Visit, error) {
	s.lastOp, s.actorID, s.visitID = "cancel", guardID, visitID
	return s.visit, s.err
}

func (s *stubVisitService) Checkout(_ context.Context, visitID string) (*domain.Visit, error) {
	s.lastOp, s.visitID = "checkout", visitID
	return s.visit, s.err
}

func (s *stubVisitService) ListPending(context.Context, *auth.Claims) ([]domain.Visit, error) {
	s.lastOp = "pending"
	if s.err != nil {
		return nil, s.err
	}
	return []domain.Visit{*s.visit}, nil
}

func (s *stubVisitService) ListToday(context.Context, *auth.Claims) ([]domain.Visit, error) {
	s.lastOp = "today"
	if s.err != nil {
		return nil, s.err
	}
	return []domain.Visit{*s.visit}, nil
}

func sampleVisit() *domain.Visit {
	return &domain.Visit{
		ID:           "v-1",
		NameSnapshot: "Ravi",
		Purpose:      "delivery",
		OwnerID:      "resident-1",
		GuardID:      "guard-1",
		Status:       domain.StatusPending,
		CreatedAt:    time.Now().UTC(),
	}
}

func testTokens() map[string]*auth.Claims {
	return map[string]*auth.Claims{
		"guard-token":    {UserID: "guard-1", Role: domain.RoleGuard},
		"resident-token": {UserID: "resident-1", Role: domain.RoleResident, FlatID: "A-101"},
	}
}

// newTestRouter wires the handlers the way the server does, with stub
// services behind them.
func newTestRouter(visits service.VisitService) (*chi.Mux, *container.Container) {
	log := logger.NewNop()
	authService := &stubAuthService{tokens: testTokens()}

	c := &container.Container{
		Config: &config.Config{Environment: "test"},
		Logger: log,
		Hub:    events.NewHub(log),
		Services: &service.Services{
			Visit: visits,
			Auth:  authService,
		},
	}

	visitHandler := NewVisitHandler(c)
	eventHandler := NewEventHandler(c)

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(authService, log))

			r.Get("/events", eventHandler.Stream)

			r.Route("/visits", func(r chi.Router) {
				r.Get("/pending", visitHandler.Pending)
				r.Get("/today", visitHandler.Today)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireRole(domain.RoleGuard, log))
					r.Post("/", visitHandler.Create)
					r.Patch("/{id}/cancel", visitHandler.Cancel)
					r.Patch("/{id}/checkout", visitHandler.Checkout)
				})

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireRole(domain.RoleResident, log))
					r.Patch("/{id}/approve", visitHandler.Approve)
					r.Patch("/{id}/reject", visitHandler.Reject)
				})
			})
		})
	})

	return r, c
}

func doRequest(t *testing.T, router http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateVisit_GuardCreates(t *testing.T) {
	stub := &stubVisitService{visit: sampleVisit()}
	router, _ := newTestRouter(stub)

	rec := doRequest(t, router, http.MethodPost, "/api/visits/", "guard-token", map[string]string{
		"name":     "Ravi",
		"owner_id": "resident-1",
		"purpose":  "delivery",
	})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "create", stub.lastOp)
	assert.Equal(t, "guard-1", stub.actorID)

	var resp VisitResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "v-1", resp.Visit.ID)
}

func TestCreateVisit_ResidentForbidden(t *testing.T) {
	stub := &stubVisitService{visit: sampleVisit()}
	router, _ := newTestRouter(stub)

	rec := doRequest(t, router, http.MethodPost, "/api/visits/", "resident-token", map[string]string{
		"name": "Ravi",
	})

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, stub.lastOp)
}

func TestVisits_RequireToken(t *testing.T) {
	stub := &stubVisitService{visit: sampleVisit()}
	router, _ := newTestRouter(stub)

	rec := doRequest(t, router, http.MethodGet, "/api/visits/pending", "", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var envelope apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, apperrors.ErrorTypeAuthentication, envelope.Error.Type)
}

func TestApprove_ResidentActsOnVisit(t *testing.T) {
	stub := &stubVisitService{visit: sampleVisit()}
	router, _ := newTestRouter(stub)

	rec := doRequest(t, router, http.MethodPatch, "/api/visits/v-1/approve", "resident-token", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "approve", stub.lastOp)
	assert.Equal(t, "resident-1", stub.actorID)
	assert.Equal(t, "v-1", stub.visitID)
}

func TestApprove_GuardForbidden(t *testing.T) {
	stub := &stubVisitService{visit: sampleVisit()}
	router, _ := newTestRouter(stub)

	rec := doRequest(t, router, http.MethodPatch, "/api/visits/v-1/approve", "guard-token", nil)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestApprove_ConflictSurfacesAsEnvelope(t *testing.T) {
	stub := &stubVisitService{err: apperrors.NewConflictError("visit already decided")}
	router, _ := newTestRouter(stub)

	rec := doRequest(t, router, http.MethodPatch, "/api/visits/v-1/approve", "resident-token", nil)

	assert.Equal(t, http.StatusConflict, rec.Code)

	var envelope apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, apperrors.ErrorTypeConflict, envelope.Error.Type)
	assert.Equal(t, "visit already decided", envelope.Error.Message)
}

func TestCancel_GuardActsOnVisit(t *testing.T) {
	stub := &stubVisitService{visit: sampleVisit()}
	router, _ := newTestRouter(stub)

	rec := doRequest(t, router, http.MethodPatch, "/api/visits/v-1/cancel", "guard-token", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "cancel", stub.lastOp)
	assert.Equal(t, "guard-1", stub.actorID)
}

func TestListings_ReturnCounts(t *testing.T) {
	stub := &stubVisitService{visit: sampleVisit()}
	router, _ := newTestRouter(stub)

	for _, path := range []string{"/api/visits/pending", "/api/visits/today"} {
		rec := doRequest(t, router, http.MethodGet, path, "resident-token", nil)
		require.Equal(t, http.StatusOK, rec.Code, path)

		var resp VisitListResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 1, resp.Count, path)
	}
}
