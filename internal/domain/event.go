package domain

import "time"

// EventKind names a server-pushed event on the visit stream. The values
// are the wire contract and are case-sensitive.
type EventKind string

const (
	EventNewVisitPending   EventKind = "new_visit_pending"
	EventVisitApproved     EventKind = "visit_approved"
	EventVisitRejected     EventKind = "visit_rejected"
	EventVisitAutoApproved EventKind = "visit_auto_approved"
	EventVisitCancelled    EventKind = "visit_cancelled"
)

// Known reports whether the kind is part of the fixed vocabulary. Unknown
// kinds are still decoded so that server-added kinds stay forward
// compatible; they are routed to a default handler instead of dropped.
func (k EventKind) Known() bool {
	switch k {
	case EventNewVisitPending, EventVisitApproved, EventVisitRejected,
		EventVisitAutoApproved, EventVisitCancelled:
		return true
	}
	return false
}

// TerminalStatus maps a status-changing event kind to the status it
// installs, or "" when the kind does not change status.
func (k EventKind) TerminalStatus() VisitStatus {
	switch k {
	case EventVisitApproved:
		return StatusApproved
	case EventVisitRejected:
		return StatusRejected
	case EventVisitAutoApproved:
		return StatusAutoApproved
	}
	return ""
}

// Event is one decoded frame from the stream: a kind plus the normalized
// payload. VisitID is extracted once at the decoder boundary so consumers
// never deal with the historical visit_id/_id field drift.
type Event struct {
	Kind    EventKind
	VisitID string
	Payload VisitEventPayload
}

// VisitEventPayload is the JSON body carried by every visit event. Fields
// are populated per kind; absent fields stay zero.
type VisitEventPayload struct {
	VisitID      string     `json:"visit_id,omitempty"`
	LegacyID     string     `json:"_id,omitempty"`
	ID           string     `json:"id,omitempty"`
	VisitorName  string     `json:"visitor_name,omitempty"`
	VisitorPhone string     `json:"visitor_phone,omitempty"`
	Purpose      string     `json:"purpose,omitempty"`
	PhotoURL     string     `json:"photo_url,omitempty"`
	OwnerID      string     `json:"owner_id,omitempty"`
	GuardID      string     `json:"guard_id,omitempty"`
	EntryTime    *time.Time `json:"entry_time,omitempty"`
	ApprovedAt   *time.Time `json:"approved_at,omitempty"`
	RejectedAt   *time.Time `json:"rejected_at,omitempty"`
}

// NormalizedID returns the visit id regardless of which historical field
// name the producer used.
func (p *VisitEventPayload) NormalizedID() string {
	if p.VisitID != "" {
		return p.VisitID
	}
	if p.ID != "" {
		return p.ID
	}
	return p.LegacyID
}
