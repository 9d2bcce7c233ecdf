package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gatepass/internal/domain"
	"gatepass/pkg/database"

	"github.com/jackc/pgx/v5"
)

const visitColumns = `id, visitor_id, name_snapshot, phone_snapshot, photo_snapshot_url,
	purpose, owner_id, guard_id, entry_time, exit_time, cancelled_at, status, qr_token, created_at, updated_at`

// visitRepository handles visit persistence with PostgreSQL
type visitRepository struct {
	db *database.PostgresDB
}

// NewVisitRepository creates a new visit repository
func NewVisitRepository(db *database.PostgresDB) VisitRepository {
	return &visitRepository{
		db: db,
	}
}

// Create inserts a new visit
func (r *visitRepository) Create(ctx context.Context, visit *domain.Visit) error {
	query := `
		INSERT INTO visits (id, visitor_id, name_snapshot, phone_snapshot, photo_snapshot_url,
			purpose, owner_id, guard_id, entry_time, exit_time, cancelled_at, status, qr_token, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		visit.ID,
		nullable(visit.VisitorID),
		visit.NameSnapshot,
		nullable(visit.PhoneSnapshot),
		nullable(visit.PhotoSnapshotURL),
		visit.Purpose,
		visit.OwnerID,
		visit.GuardID,
		visit.EntryTime,
		visit.ExitTime,
		visit.CancelledAt,
		visit.Status,
		nullable(visit.QRToken),
		visit.CreatedAt,
		visit.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create visit: %w", err)
	}

	return nil
}

// GetByID retrieves a visit by ID
func (r *visitRepository) GetByID(ctx context.Context, id string) (*domain.Visit, error) {
	query := `SELECT ` + visitColumns + ` FROM visits WHERE id = $1`

	visit, err := scanVisit(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get visit: %w", err)
	}
	return visit, nil
}

// Transition atomically moves a pending visit into a terminal status. The
// WHERE clause is the monotonicity guard: a visit that already left
// pending matches nothing and the caller gets ErrStaleTransition.
func (r *visitRepository) Transition(ctx context.Context, id string, status domain.VisitStatus, entryTime *time.Time) (*domain.Visit, error) {
	query := `
		UPDATE visits
		SET status = $2, entry_time = COALESCE($3, entry_time), updated_at = $4
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + visitColumns

	visit, err := scanVisit(r.db.Pool.QueryRow(ctx, query, id, status, entryTime, time.Now().UTC()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if _, getErr := r.GetByID(ctx, id); getErr != nil {
				return nil, getErr
			}
			return nil, ErrStaleTransition
		}
		return nil, fmt.Errorf("failed to transition visit: %w", err)
	}
	return visit, nil
}

// Checkout stamps the exit time. Only visits that are on-site match.
func (r *visitRepository) Checkout(ctx context.Context, id string, exitTime time.Time) (*domain.Visit, error) {
	query := `
		UPDATE visits
		SET exit_time = $2, updated_at = $3
		WHERE id = $1 AND entry_time IS NOT NULL AND exit_time IS NULL
		RETURNING ` + visitColumns

	visit, err := scanVisit(r.db.Pool.QueryRow(ctx, query, id, exitTime, time.Now().UTC()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if _, getErr := r.GetByID(ctx, id); getErr != nil {
				return nil, getErr
			}
			return nil, ErrStaleTransition
		}
		return nil, fmt.Errorf("failed to checkout visit: %w", err)
	}
	return visit, nil
}

// Cancel withdraws a still-pending, not yet cancelled visit.
func (r *visitRepository) Cancel(ctx context.Context, id string, cancelledAt time.Time) (*domain.Visit, error) {
	query := `
		UPDATE visits
		SET cancelled_at = $2, updated_at = $3
		WHERE id = $1 AND status = 'pending' AND cancelled_at IS NULL
		RETURNING ` + visitColumns

	visit, err := scanVisit(r.db.Pool.QueryRow(ctx, query, id, cancelledAt, time.Now().UTC()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if _, getErr := r.GetByID(ctx, id); getErr != nil {
				return nil, getErr
			}
			return nil, ErrStaleTransition
		}
		return nil, fmt.Errorf("failed to cancel visit: %w", err)
	}
	return visit, nil
}

// ListPending returns pending visits, newest first
func (r *visitRepository) ListPending(ctx context.Context, ownerID string) ([]domain.Visit, error) {
	query := `
		SELECT ` + visitColumns + `
		FROM visits
		WHERE status = 'pending' AND cancelled_at IS NULL AND ($1 = '' OR owner_id = $1)
		ORDER BY created_at DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending visits: %w", err)
	}
	defer rows.Close()

	return collectVisits(rows)
}

// ListToday returns today's visits including terminal statuses
func (r *visitRepository) ListToday(ctx context.Context, ownerID string) ([]domain.Visit, error) {
	query := `
		SELECT ` + visitColumns + `
		FROM visits
		WHERE created_at >= date_trunc('day', now()) AND ($1 = '' OR owner_id = $1)
		ORDER BY created_at DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list today visits: %w", err)
	}
	defer rows.Close()

	return collectVisits(rows)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanVisit(row rowScanner) (*domain.Visit, error) {
	visit := &domain.Visit{}
	var visitorID, phone, photo, qrToken *string

	err := row.Scan(
		&visit.ID,
		&visitorID,
		&visit.NameSnapshot,
		&phone,
		&photo,
		&visit.Purpose,
		&visit.OwnerID,
		&visit.GuardID,
		&visit.EntryTime,
		&visit.ExitTime,
		&visit.CancelledAt,
		&visit.Status,
		&qrToken,
		&visit.CreatedAt,
		&visit.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	visit.VisitorID = deref(visitorID)
	visit.PhoneSnapshot = deref(phone)
	visit.PhotoSnapshotURL = deref(photo)
	visit.QRToken = deref(qrToken)
	return visit, nil
}

func collectVisits(rows pgx.Rows) ([]domain.Visit, error) {
	visits := []domain.Visit{}
	for rows.Next() {
		visit, err := scanVisit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan visit: %w", err)
		}
		visits = append(visits, *visit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read visits: %w", err)
	}
	return visits, nil
}

// nullable maps the empty string to SQL NULL.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
