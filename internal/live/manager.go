package live

import (
	"sync"
	"time"

	"gatepass/pkg/logger"
)

// ConnState is the connection lifecycle of a Manager. It is process-local
// state, never persisted.
type ConnState int

const (
	StateIdle ConnState = iota
	StateConnecting
	StateOpen
	StateReconnecting
	StateFailed
)

// String returns the lowercase name used in logs and the UI indicator.
func (s ConnState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateReconnecting:
		return "reconnecting"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// DefaultMaxAttempts is how many consecutive reconnects are tried before
// the manager gives up and settles in StateFailed.
const DefaultMaxAttempts = 5

// Timer is a cancellable pending callback.
type Timer interface {
	Stop() bool
}

// TimerFactory schedules fn to run once after d. Production code uses
// time.AfterFunc; tests inject a manual factory so reconnect waits are
// inspectable without real sleeps.
type TimerFactory func(d time.Duration, fn func()) Timer

type realTimer struct{ t *time.Timer }

func (r realTimer) Stop() bool { return r.t.Stop() }

func defaultTimerFactory(d time.Duration, fn func()) Timer {
	return realTimer{t: time.AfterFunc(d, fn)}
}

// ManagerOptions configures a Manager. Zero values pick the defaults.
type ManagerOptions struct {
	Backoff     Backoff
	MaxAttempts int
	Timers      TimerFactory

	// OnFrame receives every frame delivered while the transport is open.
	OnFrame FrameHandler

	// OnStateChange observes every transition, in order. Used by the UI
	// indicator and to trigger the post-reconnect snapshot refresh. It runs
	// under the manager's lock and must not call back into the Manager.
	OnStateChange func(prev, next ConnState)

	// OnExhausted fires exactly once per failure episode, when the attempt
	// cap is hit. Live updates are disabled but the application keeps
	// running; the caller surfaces a single notification.
	OnExhausted func()
}

// Manager owns one Transport and keeps it alive: it reconnects with
// exponential backoff on failure, gives up after MaxAttempts, and tears
// everything down on Disconnect. There is never more than one live
// connection per Manager.
type Manager struct {
	transport Transport
	backoff   Backoff
	max       int
	timers    TimerFactory
	log       *logger.Logger

	onFrame       FrameHandler
	onStateChange func(prev, next ConnState)
	onExhausted   func()

	mu      sync.Mutex
	state   ConnState
	attempt int
	retry   Timer
	// epoch invalidates callbacks from transports and timers that belong
	// to a torn-down generation of the connection.
	epoch uint64
}

// NewManager builds a Manager around the given transport. The transport is
// not opened until Connect.
func NewManager(t Transport, log *logger.Logger, opts ManagerOptions) *Manager {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.Timers == nil {
		opts.Timers = defaultTimerFactory
	}
	if opts.Backoff.Base <= 0 || opts.Backoff.Max <= 0 {
		opts.Backoff = NewBackoff(opts.Backoff.Base, opts.Backoff.Max)
	}
	return &Manager{
		transport:     t,
		backoff:       opts.Backoff,
		max:           opts.MaxAttempts,
		timers:        opts.Timers,
		log:           log,
		onFrame:       opts.OnFrame,
		onStateChange: opts.OnStateChange,
		onExhausted:   opts.OnExhausted,
		state:         StateIdle,
	}
}

// State returns the current connection state.
func (m *Manager) State() ConnState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Attempt returns the current reconnect attempt counter. It is zero while
// the connection is healthy.
func (m *Manager) Attempt() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempt
}

// Connect opens the transport. It is a no-op when already connecting or
// open, so a duplicate call never produces a second connection.
func (m *Manager) Connect() {
	m.mu.Lock()
	if m.state == StateConnecting || m.state == StateOpen {
		m.mu.Unlock()
		return
	}
	m.setStateLocked(StateConnecting)
	m.mu.Unlock()

	m.open()
}

// Disconnect closes any live connection, cancels any pending reconnect
// timer synchronously, resets the attempt counter and settles in
// StateIdle. It is idempotent and safe from any state. No connection
// attempt can start after Disconnect returns.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	m.epoch++
	if m.retry != nil {
		m.retry.Stop()
		m.retry = nil
	}
	m.attempt = 0
	wasLive := m.state == StateOpen || m.state == StateConnecting
	m.setStateLocked(StateIdle)
	m.mu.Unlock()

	if wasLive {
		m.transport.Close()
	}
}

// open attempts the transport and handles the synchronous outcome. Runs
// outside the lock because Transport.Open may call back inline.
func (m *Manager) open() {
	m.mu.Lock()
	epoch := m.epoch
	m.mu.Unlock()

	err := m.transport.Open(
		func(f Frame) { m.deliver(epoch, f) },
		func(err error) { m.handleFailure(epoch, err) },
	)

	m.mu.Lock()
	if epoch != m.epoch || m.state != StateConnecting {
		// Torn down while the dial was in flight.
		m.mu.Unlock()
		if err == nil {
			m.transport.Close()
		}
		return
	}
	if err == nil {
		m.attempt = 0
		m.setStateLocked(StateOpen)
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()
	m.handleFailure(epoch, err)
}

func (m *Manager) deliver(epoch uint64, f Frame) {
	m.mu.Lock()
	stale := epoch != m.epoch || m.state != StateOpen
	m.mu.Unlock()
	if stale || m.onFrame == nil {
		return
	}
	m.onFrame(f)
}

// handleFailure reacts to a transport error or unexpected close: schedule
// the next attempt per the backoff policy, or give up at the cap.
func (m *Manager) handleFailure(epoch uint64, err error) {
	m.mu.Lock()
	if epoch != m.epoch || m.state == StateIdle || m.state == StateFailed {
		m.mu.Unlock()
		return
	}
	if m.attempt >= m.max {
		m.setStateLocked(StateFailed)
		notify := m.onExhausted
		m.mu.Unlock()
		if m.log != nil {
			m.log.WithError(err).Warn("live updates disabled after repeated connection failures")
		}
		if notify != nil {
			notify()
		}
		return
	}

	delay := m.backoff.Delay(m.attempt)
	m.attempt++
	m.setStateLocked(StateReconnecting)
	m.retry = m.timers(delay, func() { m.retryFire(epoch) })
	attempt := m.attempt
	m.mu.Unlock()

	if m.log != nil {
		m.log.WithError(err).WithFields(map[string]interface{}{
			"attempt":  attempt,
			"delay_ms": delay.Milliseconds(),
		}).Debug("stream connection lost, reconnecting")
	}
}

func (m *Manager) retryFire(epoch uint64) {
	m.mu.Lock()
	if epoch != m.epoch || m.state != StateReconnecting {
		m.mu.Unlock()
		return
	}
	m.retry = nil
	m.setStateLocked(StateConnecting)
	m.mu.Unlock()

	m.open()
}

func (m *Manager) setStateLocked(next ConnState) {
	prev := m.state
	if prev == next {
		return
	}
	m.state = next
	if m.onStateChange != nil {
		// Transitions are serialized under the lock, so observers see
		// them in order.
		m.onStateChange(prev, next)
	}
}
