package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"gatepass/internal/domain"
	"gatepass/internal/events"
	"gatepass/internal/repository"
	"gatepass/pkg/auth"
	apperrors "gatepass/pkg/errors"
	"gatepass/pkg/logger"
)

// visitService implements VisitService on top of the visit repository and
// the event hub.
type visitService struct {
	visits repository.VisitRepository
	hub    *events.Hub
	issuer *auth.Issuer
	log    *logger.Logger
	now    func() time.Time
}

// NewVisitService creates a new visit service
func NewVisitService(visits repository.VisitRepository, hub *events.Hub, issuer *auth.Issuer, log *logger.Logger) VisitService {
	return &visitService{
		visits: visits,
		hub:    hub,
		issuer: issuer,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// CreateVisit registers a visit at the gate. A valid QR token skips the
// resident decision: the visit is stored auto-approved with the entry
// time stamped and the resident is informed after the fact.
func (s *visitService) CreateVisit(ctx context.Context, guardID string, input CreateVisitInput) (*domain.Visit, error) {
	if input.Name == "" {
		return nil, apperrors.NewValidationError("visitor name is required", nil)
	}
	if input.Purpose == "" {
		return nil, apperrors.NewValidationError("purpose is required", nil)
	}

	now := s.now()
	visit := &domain.Visit{
		ID:               uuid.NewString(),
		NameSnapshot:     input.Name,
		PhoneSnapshot:    input.Phone,
		PhotoSnapshotURL: input.PhotoURL,
		Purpose:          input.Purpose,
		OwnerID:          input.OwnerID,
		GuardID:          guardID,
		Status:           domain.StatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if input.QRToken != "" {
		claims, err := s.issuer.VerifyQRToken(input.QRToken)
		if err != nil {
			return nil, apperrors.NewAuthenticationError("invalid QR token")
		}
		visit.VisitorID = claims.VisitorID
		visit.QRToken = input.QRToken
		visit.Status = domain.StatusAutoApproved
		visit.EntryTime = &now
		if claims.OwnerID != "" {
			visit.OwnerID = claims.OwnerID
		}
	}

	if visit.OwnerID == "" {
		return nil, apperrors.NewValidationError("owner_id is required", nil)
	}

	if err := s.visits.Create(ctx, visit); err != nil {
		return nil, apperrors.NewInternalError("failed to create visit", err)
	}

	if visit.Status == domain.StatusAutoApproved {
		s.hub.SendToUser(visit.OwnerID, domain.EventVisitAutoApproved, s.payload(visit))
	} else {
		s.hub.SendToUser(visit.OwnerID, domain.EventNewVisitPending, s.payload(visit))
	}

	s.log.WithFields(map[string]interface{}{
		"visit_id": visit.ID,
		"owner_id": visit.OwnerID,
		"guard_id": guardID,
		"status":   string(visit.Status),
	}).Info("visit created")
	return visit, nil
}

// Approve moves a pending visit to approved, stamps the entry time, and
// notifies the gate.
func (s *visitService) Approve(ctx context.Context, ownerID, visitID string) (*domain.Visit, error) {
	return s.decide(ctx, ownerID, visitID, domain.StatusApproved, domain.EventVisitApproved)
}

// Reject moves a pending visit to rejected and notifies the gate.
func (s *visitService) Reject(ctx context.Context, ownerID, visitID string) (*domain.Visit, error) {
	return s.decide(ctx, ownerID, visitID, domain.StatusRejected, domain.EventVisitRejected)
}

// decide is the shared approve/reject path. Ownership is checked before
// the conditional update so a resident can never decide someone else's
// visit, and the update's WHERE clause settles races with other actors.
func (s *visitService) decide(ctx context.Context, ownerID, visitID string, status domain.VisitStatus, kind domain.EventKind) (*domain.Visit, error) {
	visit, err := s.visits.GetByID(ctx, visitID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if visit.OwnerID != ownerID {
		return nil, apperrors.NewAuthorizationError("visit belongs to another resident")
	}
	if visit.Cancelled() {
		return nil, apperrors.NewConflictError("visit was cancelled at the gate")
	}

	now := s.now()
	var entryTime *time.Time
	if status == domain.StatusApproved {
		entryTime = &now
	}

	updated, err := s.visits.Transition(ctx, visitID, status, entryTime)
	if err != nil {
		return nil, mapRepoError(err)
	}

	payload := s.payload(updated)
	if status == domain.StatusApproved {
		payload.ApprovedAt = &now
	} else {
		payload.RejectedAt = &now
	}
	s.hub.BroadcastToRole(domain.RoleGuard, kind, payload)
	s.hub.SendToUser(updated.OwnerID, kind, payload)

	s.log.WithFields(map[string]interface{}{
		"visit_id": visitID,
		"owner_id": ownerID,
		"status":   string(status),
	}).Info("visit decided")
	return updated, nil
}

// Cancel withdraws a still-pending visit at the gate. The visit stays in
// history but leaves the pending queue, and the resident is told so their
// pending list stops showing it.
func (s *visitService) Cancel(ctx context.Context, guardID, visitID string) (*domain.Visit, error) {
	updated, err := s.visits.Cancel(ctx, visitID, s.now())
	if err != nil {
		return nil, mapRepoError(err)
	}

	payload := s.payload(updated)
	payload.GuardID = guardID
	s.hub.SendToUser(updated.OwnerID, domain.EventVisitCancelled, payload)
	s.hub.BroadcastToRole(domain.RoleGuard, domain.EventVisitCancelled, payload)

	s.log.WithFields(map[string]interface{}{
		"visit_id": visitID,
		"guard_id": guardID,
	}).Info("visit cancelled")
	return updated, nil
}

// Checkout records the visitor's exit.
func (s *visitService) Checkout(ctx context.Context, visitID string) (*domain.Visit, error) {
	updated, err := s.visits.Checkout(ctx, visitID, s.now())
	if err != nil {
		return nil, mapRepoError(err)
	}

	s.log.WithField("visit_id", visitID).Info("visitor checked out")
	return updated, nil
}

// ListPending returns the pending snapshot. Guards see the whole queue,
// residents only their own flat's visits.
func (s *visitService) ListPending(ctx context.Context, user *auth.Claims) ([]domain.Visit, error) {
	visits, err := s.visits.ListPending(ctx, scopeOwner(user))
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list pending visits", err)
	}
	return visits, nil
}

// ListToday returns today's visits, decided ones included.
func (s *visitService) ListToday(ctx context.Context, user *auth.Claims) ([]domain.Visit, error) {
	visits, err := s.visits.ListToday(ctx, scopeOwner(user))
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list today visits", err)
	}
	return visits, nil
}

// scopeOwner maps claims to the repository owner filter. Guards and
// admins get the unscoped view.
func scopeOwner(user *auth.Claims) string {
	if user.Role == domain.RoleGuard || user.Role == domain.RoleAdmin {
		return ""
	}
	return user.UserID
}

// payload builds the event body pushed to stream clients.
func (s *visitService) payload(visit *domain.Visit) domain.VisitEventPayload {
	return domain.VisitEventPayload{
		VisitID:      visit.ID,
		VisitorName:  visit.NameSnapshot,
		VisitorPhone: visit.PhoneSnapshot,
		Purpose:      visit.Purpose,
		PhotoURL:     visit.PhotoSnapshotURL,
		OwnerID:      visit.OwnerID,
		GuardID:      visit.GuardID,
		EntryTime:    visit.EntryTime,
	}
}

// mapRepoError converts repository sentinels into API errors.
func mapRepoError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFoundError("visit not found")
	case errors.Is(err, repository.ErrStaleTransition):
		return apperrors.NewConflictError("visit already decided")
	default:
		return apperrors.NewInternalError("visit operation failed", err)
	}
}
