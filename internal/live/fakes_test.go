package live

import (
	"sync"
	"time"
)

// fakeTimer is a manually fired timer handle.
type fakeTimer struct {
	clock   *fakeClock
	delay   time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

// fakeClock captures scheduled timers so tests control when reconnect
// waits elapse.
type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (c *fakeClock) factory(d time.Duration, fn func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, delay: d, fn: fn}
	c.timers = append(c.timers, t)
	return t
}

// pending returns the timers that are scheduled but neither fired nor
// stopped.
func (c *fakeClock) pending() []*fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			out = append(out, t)
		}
	}
	return out
}

// fire runs every currently pending timer, in scheduling order.
func (c *fakeClock) fire() int {
	c.mu.Lock()
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	for _, t := range due {
		t.fn()
	}
	return len(due)
}

// fakeTransport is an in-memory Transport whose failures and frames are
// scripted by the test.
type fakeTransport struct {
	mu       sync.Mutex
	failures int // this many Opens fail synchronously before one succeeds
	opens    int
	closes   int
	isOpen   bool
	onFrame  FrameHandler
	onError  ErrorHandler
}

type fakeDialError struct{}

func (fakeDialError) Error() string { return "dial refused" }

func (ft *fakeTransport) Open(onFrame FrameHandler, onError ErrorHandler) error {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	ft.opens++
	if ft.failures > 0 {
		ft.failures--
		return fakeDialError{}
	}
	ft.isOpen = true
	ft.onFrame = onFrame
	ft.onError = onError
	return nil
}

func (ft *fakeTransport) Close() {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	ft.closes++
	ft.isOpen = false
}

func (ft *fakeTransport) Ready() bool {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	return ft.isOpen
}

// emitFrame delivers a frame as the live connection would.
func (ft *fakeTransport) emitFrame(f Frame) {
	ft.mu.Lock()
	h := ft.onFrame
	ft.mu.Unlock()
	if h != nil {
		h(f)
	}
}

// emitError simulates the transport failing mid-stream.
func (ft *fakeTransport) emitError(err error) {
	ft.mu.Lock()
	ft.isOpen = false
	h := ft.onError
	ft.mu.Unlock()
	if h != nil {
		h(err)
	}
}
