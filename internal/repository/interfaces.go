package repository

import (
	"context"
	"errors"
	"time"

	"gatepass/internal/domain"
)

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrStaleTransition is returned when a conditional status update matched
// no row because the visit already left the expected state.
var ErrStaleTransition = errors.New("stale transition")

// VisitRepository defines the interface for visit data operations
type VisitRepository interface {
	// Create inserts a new visit
	Create(ctx context.Context, visit *domain.Visit) error

	// GetByID retrieves a visit by ID
	GetByID(ctx context.Context, id string) (*domain.Visit, error)

	// Transition atomically moves a pending visit into a terminal status,
	// optionally stamping the entry time. Returns ErrStaleTransition when
	// the visit is no longer pending.
	Transition(ctx context.Context, id string, status domain.VisitStatus, entryTime *time.Time) (*domain.Visit, error)

	// Checkout stamps the exit time on a visit that has an entry time and
	// no exit time yet.
	Checkout(ctx context.Context, id string, exitTime time.Time) (*domain.Visit, error)

	// Cancel withdraws a still-pending visit. The visit keeps its pending
	// status in history but no longer appears in pending listings.
	Cancel(ctx context.Context, id string, cancelledAt time.Time) (*domain.Visit, error)

	// ListPending returns pending visits in arrival order (newest first).
	// An empty ownerID returns all pending visits (guard view).
	ListPending(ctx context.Context, ownerID string) ([]domain.Visit, error)

	// ListToday returns today's visits, terminal statuses included.
	ListToday(ctx context.Context, ownerID string) ([]domain.Visit, error)
}

// UserRepository defines the interface for user data operations
type UserRepository interface {
	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByPhone retrieves a user by phone number
	GetByPhone(ctx context.Context, phone string) (*domain.User, error)

	// Create creates a new user
	Create(ctx context.Context, user *domain.User) error
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Visit VisitRepository
	User  UserRepository
}
