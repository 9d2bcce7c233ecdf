// Package live implements the event-driven synchronization layer shared by
// the guard and resident consoles: a reconnecting stream connection manager,
// the frame decoder, and the reconciliation store that folds server-pushed
// visit events into the locally held pending/today views.
package live

// Frame is one raw message off the event transport: an optional named kind
// and the text body. Comment/keep-alive frames never reach this layer.
type Frame struct {
	Kind string
	Data []byte
}

// FrameHandler receives each frame delivered while the transport is open.
type FrameHandler func(Frame)

// ErrorHandler is invoked once when an open transport fails. The transport
// is unusable afterwards until Open is called again.
type ErrorHandler func(error)

// Transport is a long-lived server-to-client push channel. Implementations
// deliver frames and the failure signal from a single goroutine; Open
// returns an error only when the connection cannot be established at all.
// Close is idempotent and must not trigger the ErrorHandler.
type Transport interface {
	Open(onFrame FrameHandler, onError ErrorHandler) error
	Close()
	Ready() bool
}
