package live

import (
	"sync"
	"time"
)

// DefaultDebounce is how long the gate waits for authentication state to
// settle before acting on it. Auth state can flip several times during
// startup hydration; without the delay the gate would open a connection
// and immediately tear it down.
const DefaultDebounce = 250 * time.Millisecond

// connector is the slice of Manager the gate drives.
type connector interface {
	Connect()
	Disconnect()
}

// Gate translates authentication state into connection lifecycle. It is
// the only component that calls Connect/Disconnect on the manager.
type Gate struct {
	mgr      connector
	debounce time.Duration
	timers   TimerFactory

	mu      sync.Mutex
	want    bool
	applied bool
	timer   Timer
	closed  bool
}

// NewGate wires a gate to the manager. A non-positive debounce takes the
// default; tests inject a manual timer factory.
func NewGate(mgr connector, debounce time.Duration, timers TimerFactory) *Gate {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if timers == nil {
		timers = defaultTimerFactory
	}
	return &Gate{mgr: mgr, debounce: debounce, timers: timers}
}

// SetAuthenticated records the latest authentication state. The connection
// follows it after the debounce window; intermediate flips within the
// window collapse into the final value.
func (g *Gate) SetAuthenticated(authed bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return
	}
	if g.want == authed && g.timer == nil && g.applied == authed {
		return
	}
	g.want = authed
	if g.timer != nil {
		g.timer.Stop()
	}
	g.timer = g.timers(g.debounce, g.settle)
}

func (g *Gate) settle() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.timer = nil
	want := g.want
	if g.applied == want {
		g.mu.Unlock()
		return
	}
	g.applied = want
	g.mu.Unlock()

	if want {
		g.mgr.Connect()
	} else {
		g.mgr.Disconnect()
	}
}

// Close cancels any pending debounce and disconnects. Called on session
// end and on teardown of the view that owns the gate, so no connection
// outlives its context.
func (g *Gate) Close() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.closed = true
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
	g.applied = false
	g.want = false
	g.mu.Unlock()

	g.mgr.Disconnect()
}
