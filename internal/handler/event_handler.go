package handler

import (
	"fmt"
	"net/http"
	"time"

	"gatepass/internal/container"
	"gatepass/internal/middleware"
	"gatepass/pkg/errors"
)

// keepAliveInterval is how often an idle stream gets a comment line so
// proxies and clients know the connection is alive.
const keepAliveInterval = 30 * time.Second

// EventHandler serves the live visit event stream
type EventHandler struct {
	container *container.Container
}

// NewEventHandler creates a new event handler
func NewEventHandler(container *container.Container) *EventHandler {
	return &EventHandler{
		container: container,
	}
}

// Stream handles GET /api/events. The connection stays open until the
// client goes away; visit events for the authenticated user are written
// as they happen.
func (h *EventHandler) Stream(w http.ResponseWriter, r *http.Request) {
	log := h.container.GetLogger()

	claims := middleware.UserFromContext(r.Context())
	if claims == nil {
		writeError(w, errors.NewAuthenticationError("authentication required"), log)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, errors.NewInternalError("streaming unsupported", nil), log)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	sub := h.container.GetHub().Subscribe(claims.UserID, claims.Role)
	defer h.container.GetHub().Unsubscribe(sub)

	// First byte out immediately so the client sees the stream open.
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-sub.Events():
			if !ok {
				// Hub dropped us, likely for falling behind.
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Kind, ev.Payload)
			flusher.Flush()
		case <-keepAlive.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		}
	}
}
