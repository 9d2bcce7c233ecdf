package domain

import (
	"time"
)

// VisitStatus is the closed set of states a visit moves through.
type VisitStatus string

const (
	StatusPending      VisitStatus = "pending"
	StatusApproved     VisitStatus = "approved"
	StatusRejected     VisitStatus = "rejected"
	StatusAutoApproved VisitStatus = "auto_approved"
)

// Terminal reports whether the status admits no further transition.
func (s VisitStatus) Terminal() bool {
	switch s {
	case StatusApproved, StatusRejected, StatusAutoApproved:
		return true
	}
	return false
}

// Valid reports whether s is one of the known statuses.
func (s VisitStatus) Valid() bool {
	return s == StatusPending || s.Terminal()
}

// Visit represents a single entry event for a visitor, tracked from
// creation through approval to exit. The name/phone/photo snapshot is
// taken at creation time and never mutated afterwards.
type Visit struct {
	ID               string      `json:"id" db:"id"`
	VisitorID        string      `json:"visitor_id,omitempty" db:"visitor_id"`
	NameSnapshot     string      `json:"name_snapshot" db:"name_snapshot"`
	PhoneSnapshot    string      `json:"phone_snapshot,omitempty" db:"phone_snapshot"`
	PhotoSnapshotURL string      `json:"photo_snapshot_url,omitempty" db:"photo_snapshot_url"`
	Purpose          string      `json:"purpose" db:"purpose"`
	OwnerID          string      `json:"owner_id" db:"owner_id"`
	GuardID          string      `json:"guard_id" db:"guard_id"`
	EntryTime        *time.Time  `json:"entry_time,omitempty" db:"entry_time"`
	ExitTime         *time.Time  `json:"exit_time,omitempty" db:"exit_time"`
	CancelledAt      *time.Time  `json:"cancelled_at,omitempty" db:"cancelled_at"`
	Status           VisitStatus `json:"status" db:"status"`
	QRToken          string      `json:"qr_token,omitempty" db:"qr_token"`
	CreatedAt        time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at" db:"updated_at"`
}

// Cancelled reports whether the visit was withdrawn at the gate before the
// resident decided. Cancelled visits keep their pending status in history
// but leave the pending queue.
func (v *Visit) Cancelled() bool {
	return v.CancelledAt != nil
}

// OnSite reports whether the visitor is currently inside: entry recorded,
// exit not yet recorded.
func (v *Visit) OnSite() bool {
	return v.EntryTime != nil && v.ExitTime == nil
}

// CanTransition reports whether a status change from the visit's current
// status to next is allowed. Transitions are one-way: only pending visits
// move, and only into a terminal status.
func (v *Visit) CanTransition(next VisitStatus) bool {
	return v.Status == StatusPending && next.Terminal()
}

// User is an authenticated actor: a guard at the gate or a resident who
// approves visits to their flat.
type User struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Phone     string    `json:"phone" db:"phone"`
	Role      string    `json:"role" db:"role"`
	FlatID    string    `json:"flat_id,omitempty" db:"flat_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// User roles.
const (
	RoleGuard    = "guard"
	RoleResident = "resident"
	RoleAdmin    = "admin"
)
