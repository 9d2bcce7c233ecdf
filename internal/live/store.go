package live

import (
	"sync"

	"gatepass/internal/domain"
)

// Store holds the reconciled visit collections consumed by the UI: the
// pending view (visits awaiting a decision, arrival order) and the today
// view (today's visits including terminal ones), plus the connection state
// for the Live/Offline indicator.
//
// Events mutate the store only through Apply, whose reducer is a pure
// function of (state, event); REST snapshots re-seed it wholesale after a
// reconnect gap. Subscribers are notified after every visible change.
type Store struct {
	mu      sync.RWMutex
	pending []domain.Visit
	today   []domain.Visit
	conn    ConnState
	subs    []func()
}

// NewStore returns an empty store in StateIdle.
func NewStore() *Store {
	return &Store{}
}

// Subscribe registers fn to run after every state change. Subscribers run
// synchronously on the mutating goroutine and must be fast.
func (s *Store) Subscribe(fn func()) {
	s.mu.Lock()
	s.subs = append(s.subs, fn)
	s.mu.Unlock()
}

// Pending returns a copy of the pending view in arrival order.
func (s *Store) Pending() []domain.Visit {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Visit(nil), s.pending...)
}

// Today returns a copy of the today view.
func (s *Store) Today() []domain.Visit {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Visit(nil), s.today...)
}

// ConnState returns the connection state last published via SetConnState.
func (s *Store) ConnState() ConnState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conn
}

// SetConnState publishes the connection state for display.
func (s *Store) SetConnState(state ConnState) {
	s.mu.Lock()
	if s.conn == state {
		s.mu.Unlock()
		return
	}
	s.conn = state
	s.mu.Unlock()
	s.notify()
}

// Seed replaces both views with an authoritative REST snapshot. Used for
// initial population and for gap recovery after a reconnect, when events
// may have been missed and the local model is potentially stale.
func (s *Store) Seed(pending, today []domain.Visit) {
	s.mu.Lock()
	s.pending = append([]domain.Visit(nil), pending...)
	s.today = append([]domain.Visit(nil), today...)
	s.mu.Unlock()
	s.notify()
}

// Apply folds one decoded event into the store via the reducer. Anomalies
// (unknown ids, duplicate delivery, stale terminal transitions) are
// absorbed as no-ops: the transport is at-least-once and unordered across
// reconnects, so they are expected, not errors.
func (s *Store) Apply(ev domain.Event) {
	s.mu.Lock()
	pending, today, changed := reduce(s.pending, s.today, ev)
	if !changed {
		s.mu.Unlock()
		return
	}
	s.pending = pending
	s.today = today
	s.mu.Unlock()
	s.notify()
}

func (s *Store) notify() {
	s.mu.RLock()
	subs := append([]func(){}, s.subs...)
	s.mu.RUnlock()
	for _, fn := range subs {
		fn()
	}
}

// reduce applies one event to the two views and reports whether anything
// changed. It is pure: inputs are never mutated, there are no timer or
// network side effects, and it never fails. Callers own the returned
// slices only when changed is true.
func reduce(pending, today []domain.Visit, ev domain.Event) (p, t []domain.Visit, changed bool) {
	if ev.VisitID == "" {
		return pending, today, false
	}

	switch ev.Kind {
	case domain.EventNewVisitPending:
		if indexByID(pending, ev.VisitID) >= 0 || indexByID(today, ev.VisitID) >= 0 {
			// Duplicate delivery.
			return pending, today, false
		}
		v := visitFromPayload(ev)
		return prepend(pending, v), prepend(today, v), true

	case domain.EventVisitApproved, domain.EventVisitRejected, domain.EventVisitAutoApproved:
		return reduceTerminal(pending, today, ev)

	case domain.EventVisitCancelled:
		i := indexByID(pending, ev.VisitID)
		if i < 0 || pending[i].Status != domain.StatusPending {
			return pending, today, false
		}
		// The today view keeps the record: history is never deleted.
		return removeAt(pending, i), today, true
	}

	return pending, today, false
}

// reduceTerminal installs a terminal status for the referenced visit in
// both views atomically. Replays and out-of-order deliveries are no-ops:
// once terminal, a status never regresses.
func reduceTerminal(pending, today []domain.Visit, ev domain.Event) ([]domain.Visit, []domain.Visit, bool) {
	status := ev.Kind.TerminalStatus()
	pi := indexByID(pending, ev.VisitID)
	ti := indexByID(today, ev.VisitID)

	if pi < 0 && ti < 0 {
		// Visit predates this session. The pending view needs full visitor
		// data we do not have, so synthesize a minimal record in the today
		// view only.
		v := visitFromPayload(ev)
		v.Status = status
		return pending, prepend(today, v), true
	}

	current := domain.StatusPending
	if ti >= 0 {
		current = today[ti].Status
	} else {
		current = pending[pi].Status
	}
	if current.Terminal() {
		return pending, today, false
	}

	if ti >= 0 {
		updated := today[ti]
		updated.Status = status
		if updated.EntryTime == nil && ev.Payload.EntryTime != nil {
			updated.EntryTime = ev.Payload.EntryTime
		}
		today = replaceAt(today, ti, updated)
	} else {
		// Known only to the pending view (seeded from before today's
		// window). Promote the full record into today so it survives
		// leaving the pending queue.
		promoted := pending[pi]
		promoted.Status = status
		if promoted.EntryTime == nil && ev.Payload.EntryTime != nil {
			promoted.EntryTime = ev.Payload.EntryTime
		}
		today = prepend(today, promoted)
	}
	if pi >= 0 {
		// Terminal visits leave the pending view; it holds only visits
		// still awaiting a decision.
		pending = removeAt(pending, pi)
	}
	return pending, today, true
}

// visitFromPayload builds the local Visit record carried by an event.
func visitFromPayload(ev domain.Event) domain.Visit {
	v := domain.Visit{
		ID:               ev.VisitID,
		NameSnapshot:     ev.Payload.VisitorName,
		PhoneSnapshot:    ev.Payload.VisitorPhone,
		PhotoSnapshotURL: ev.Payload.PhotoURL,
		Purpose:          ev.Payload.Purpose,
		OwnerID:          ev.Payload.OwnerID,
		GuardID:          ev.Payload.GuardID,
		Status:           domain.StatusPending,
	}
	if ev.Payload.EntryTime != nil {
		v.EntryTime = ev.Payload.EntryTime
	}
	return v
}

func indexByID(vs []domain.Visit, id string) int {
	for i := range vs {
		if vs[i].ID == id {
			return i
		}
	}
	return -1
}

func prepend(vs []domain.Visit, v domain.Visit) []domain.Visit {
	out := make([]domain.Visit, 0, len(vs)+1)
	out = append(out, v)
	return append(out, vs...)
}

func removeAt(vs []domain.Visit, i int) []domain.Visit {
	out := make([]domain.Visit, 0, len(vs)-1)
	out = append(out, vs[:i]...)
	return append(out, vs[i+1:]...)
}

func replaceAt(vs []domain.Visit, i int, v domain.Visit) []domain.Visit {
	out := append([]domain.Visit(nil), vs...)
	out[i] = v
	return out
}
