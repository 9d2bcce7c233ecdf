package live

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, ft *fakeTransport, clock *fakeClock, opts ManagerOptions) *Manager {
	t.Helper()
	opts.Timers = clock.factory
	return NewManager(ft, nil, opts)
}

func TestManager_ConnectOpensOnce(t *testing.T) {
	ft := &fakeTransport{}
	clock := &fakeClock{}
	m := newTestManager(t, ft, clock, ManagerOptions{})

	m.Connect()
	assert.Equal(t, StateOpen, m.State())
	assert.Equal(t, 0, m.Attempt())
	assert.Equal(t, 1, ft.opens)

	// A second call while open must not produce a second connection.
	m.Connect()
	assert.Equal(t, 1, ft.opens)
	assert.Equal(t, StateOpen, m.State())
}

func TestManager_ErrorSchedulesBackoffRetry(t *testing.T) {
	ft := &fakeTransport{}
	clock := &fakeClock{}
	m := newTestManager(t, ft, clock, ManagerOptions{})

	m.Connect()
	require.Equal(t, StateOpen, m.State())

	ft.emitError(errors.New("connection reset"))

	assert.Equal(t, StateReconnecting, m.State())
	assert.Equal(t, 1, m.Attempt())
	pending := clock.pending()
	require.Len(t, pending, 1)
	assert.Equal(t, 1*time.Second, pending[0].delay)

	// Timer elapses, reconnect succeeds: healthy again, counter reset.
	clock.fire()
	assert.Equal(t, StateOpen, m.State())
	assert.Equal(t, 0, m.Attempt())
	assert.Equal(t, 2, ft.opens)
}

func TestManager_BackoffDelaysGrow(t *testing.T) {
	ft := &fakeTransport{failures: 100}
	clock := &fakeClock{}
	m := newTestManager(t, ft, clock, ManagerOptions{MaxAttempts: 4})

	m.Connect()

	expected := []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second}
	for i, want := range expected {
		pending := clock.pending()
		require.Len(t, pending, 1, "attempt %d", i+1)
		assert.Equal(t, want, pending[0].delay, "attempt %d", i+1)
		clock.fire()
	}
}

func TestManager_ExhaustionStopsRetrying(t *testing.T) {
	ft := &fakeTransport{failures: 100}
	clock := &fakeClock{}
	exhausted := 0
	m := newTestManager(t, ft, clock, ManagerOptions{
		MaxAttempts: 3,
		OnExhausted: func() { exhausted++ },
	})

	m.Connect()
	for clock.fire() > 0 {
	}

	assert.Equal(t, StateFailed, m.State())
	assert.Empty(t, clock.pending(), "no timer may remain after exhaustion")
	assert.Equal(t, 1, exhausted, "exhaustion is reported exactly once")
	// Initial dial plus exactly MaxAttempts retries.
	assert.Equal(t, 4, ft.opens)
}

func TestManager_DisconnectCancelsPendingRetry(t *testing.T) {
	ft := &fakeTransport{}
	clock := &fakeClock{}
	m := newTestManager(t, ft, clock, ManagerOptions{})

	m.Connect()
	ft.emitError(errors.New("gone"))
	require.Equal(t, StateReconnecting, m.State())
	require.Len(t, clock.pending(), 1)

	m.Disconnect()

	assert.Equal(t, StateIdle, m.State())
	assert.Equal(t, 0, m.Attempt())
	assert.Empty(t, clock.pending(), "disconnect must cancel the retry synchronously")

	// A stale timer firing later must not resurrect the connection.
	opens := ft.opens
	clock.fire()
	assert.Equal(t, opens, ft.opens)
	assert.Equal(t, StateIdle, m.State())
}

func TestManager_DisconnectIdempotent(t *testing.T) {
	ft := &fakeTransport{}
	clock := &fakeClock{}
	m := newTestManager(t, ft, clock, ManagerOptions{})

	m.Disconnect()
	assert.Equal(t, StateIdle, m.State())

	m.Connect()
	m.Disconnect()
	m.Disconnect()
	assert.Equal(t, StateIdle, m.State())
	assert.Equal(t, 1, ft.closes)
}

func TestManager_FramesReachHandlerOnlyWhileOpen(t *testing.T) {
	ft := &fakeTransport{}
	clock := &fakeClock{}
	var got []Frame
	m := newTestManager(t, ft, clock, ManagerOptions{
		OnFrame: func(f Frame) { got = append(got, f) },
	})

	m.Connect()
	ft.emitFrame(Frame{Kind: "visit_approved", Data: []byte(`{"visit_id":"v1"}`)})
	require.Len(t, got, 1)

	m.Disconnect()
	ft.emitFrame(Frame{Kind: "visit_approved", Data: []byte(`{"visit_id":"v2"}`)})
	assert.Len(t, got, 1, "frames after teardown are dropped")
}

func TestManager_StateTransitionsObservedInOrder(t *testing.T) {
	ft := &fakeTransport{failures: 1}
	clock := &fakeClock{}
	var seen []ConnState
	m := newTestManager(t, ft, clock, ManagerOptions{
		OnStateChange: func(_, next ConnState) { seen = append(seen, next) },
	})

	m.Connect()
	clock.fire()

	assert.Equal(t, []ConnState{
		StateConnecting,
		StateReconnecting,
		StateConnecting,
		StateOpen,
	}, seen)
}

func TestManager_ConnectAfterFailedStartsFresh(t *testing.T) {
	ft := &fakeTransport{failures: 100}
	clock := &fakeClock{}
	m := newTestManager(t, ft, clock, ManagerOptions{MaxAttempts: 1})

	m.Connect()
	for clock.fire() > 0 {
	}
	require.Equal(t, StateFailed, m.State())

	// Explicit reconnect (e.g. user-driven retry) is allowed from failed.
	ft.mu.Lock()
	ft.failures = 0
	ft.mu.Unlock()
	m.Connect()
	assert.Equal(t, StateOpen, m.State())
}

func TestConnState_String(t *testing.T) {
	tests := []struct {
		state    ConnState
		expected string
	}{
		{StateIdle, "idle"},
		{StateConnecting, "connecting"},
		{StateOpen, "open"},
		{StateReconnecting, "reconnecting"},
		{StateFailed, "failed"},
		{ConnState(99), "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.state.String())
	}
}
