package live

import (
	"encoding/json"
	"fmt"
	"strings"

	"gatepass/internal/domain"
	"gatepass/pkg/logger"
)

// Decoder turns raw frames into typed domain events and routes them to
// per-kind handlers. A malformed frame is logged and dropped; it never
// reaches a handler and never disturbs the connection.
type Decoder struct {
	log      *logger.Logger
	handlers map[domain.EventKind]func(domain.Event)

	// Default receives events whose kind is outside the known vocabulary,
	// keeping the client forward compatible with server-added kinds. Nil
	// means such events are decoded and discarded.
	Default func(domain.Event)
}

// NewDecoder returns a decoder with no handlers registered.
func NewDecoder(log *logger.Logger) *Decoder {
	return &Decoder{
		log:      log,
		handlers: make(map[domain.EventKind]func(domain.Event)),
	}
}

// Handle registers fn for a known event kind, replacing any previous
// handler for that kind.
func (d *Decoder) Handle(kind domain.EventKind, fn func(domain.Event)) {
	d.handlers[kind] = fn
}

// Decode parses one frame into a domain event. The kind comes from the
// frame's channel name; the body must be a JSON object. The visit id is
// normalized here, once, across the historical field spellings
// (visit_id, _id, id) so no reducer has to guess.
func (d *Decoder) Decode(f Frame) (domain.Event, error) {
	kind := domain.EventKind(strings.TrimSpace(f.Kind))
	if kind == "" {
		return domain.Event{}, fmt.Errorf("decode frame: missing event kind")
	}

	var payload domain.VisitEventPayload
	if err := json.Unmarshal(f.Data, &payload); err != nil {
		return domain.Event{}, fmt.Errorf("decode %s frame: %w", kind, err)
	}

	return domain.Event{
		Kind:    kind,
		VisitID: payload.NormalizedID(),
		Payload: payload,
	}, nil
}

// Dispatch decodes the frame and invokes the matching handler. Decode
// failures are dropped after logging; one bad frame must not disable the
// stream. Unknown kinds go to Default.
func (d *Decoder) Dispatch(f Frame) {
	ev, err := d.Decode(f)
	if err != nil {
		if d.log != nil {
			d.log.WithError(err).Warn("dropping undecodable stream frame")
		}
		return
	}

	if !ev.Kind.Known() {
		if d.Default != nil {
			d.Default(ev)
		} else if d.log != nil {
			d.log.WithField("kind", string(ev.Kind)).Debug("ignoring unrecognized event kind")
		}
		return
	}

	if fn, ok := d.handlers[ev.Kind]; ok {
		fn(ev)
	}
}
