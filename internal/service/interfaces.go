package service

import (
	"context"

	"gatepass/internal/domain"
	"gatepass/pkg/auth"
)

// CreateVisitInput is the guard-side new-visitor flow.
type CreateVisitInput struct {
	Name     string `json:"name"`
	Phone    string `json:"phone,omitempty"`
	PhotoURL string `json:"photo_url,omitempty"`
	OwnerID  string `json:"owner_id"`
	Purpose  string `json:"purpose"`
	QRToken  string `json:"qr_token,omitempty"`
}

// VisitService owns the visit lifecycle and pushes the resulting events
// onto the stream.
type VisitService interface {
	// CreateVisit registers a visit at the gate. With a QR token the visit
	// is auto-approved and the resident is notified; otherwise it is
	// created pending and the resident is asked to decide.
	CreateVisit(ctx context.Context, guardID string, input CreateVisitInput) (*domain.Visit, error)

	// Approve moves a pending visit to approved and notifies the guard.
	Approve(ctx context.Context, ownerID, visitID string) (*domain.Visit, error)

	// Reject moves a pending visit to rejected and notifies the guard.
	Reject(ctx context.Context, ownerID, visitID string) (*domain.Visit, error)

	// Cancel withdraws a still-pending visit at the gate and notifies the
	// resident.
	Cancel(ctx context.Context, guardID, visitID string) (*domain.Visit, error)

	// Checkout records the visitor's exit.
	Checkout(ctx context.Context, visitID string) (*domain.Visit, error)

	// ListPending returns the pending snapshot for a user.
	ListPending(ctx context.Context, user *auth.Claims) ([]domain.Visit, error)

	// ListToday returns the today snapshot for a user.
	ListToday(ctx context.Context, user *auth.Claims) ([]domain.Visit, error)
}

// TokenResponse is the result of a successful OTP verification.
type TokenResponse struct {
	AccessToken string       `json:"access_token"`
	User        *domain.User `json:"user"`
}

// AuthService handles phone+OTP login and bearer token validation.
type AuthService interface {
	// RequestOTP generates and stores a one-time code for a known phone
	// number.
	RequestOTP(ctx context.Context, phone string) error

	// VerifyOTP checks a submitted code and exchanges it for an access
	// token.
	VerifyOTP(ctx context.Context, phone, code string) (*TokenResponse, error)

	// Authenticate validates a bearer token, rejecting revoked sessions.
	Authenticate(ctx context.Context, token string) (*auth.Claims, error)

	// Logout revokes the session behind the given claims.
	Logout(ctx context.Context, claims *auth.Claims) error
}

// Services aggregates all service interfaces.
type Services struct {
	Visit VisitService
	Auth  AuthService
}
