// Package transport provides the concrete stream transport used by the
// consoles: a server-sent-events client that feeds raw frames to the
// connection manager in internal/live.
package transport

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"gatepass/internal/live"
	"gatepass/pkg/logger"
)

// SSE is a live.Transport over a text/event-stream HTTP response. Each
// Open performs one GET and reads frames until the server closes the
// stream or Close is called. Reconnection is owned by the manager, not
// the transport.
type SSE struct {
	url    string
	token  string
	client *http.Client
	log    *logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	body   io.ReadCloser
	open   bool
}

// NewSSE builds a transport for the given stream URL. The bearer token is
// the connection credential; it is sent on every Open.
func NewSSE(url, token string, log *logger.Logger) *SSE {
	return &SSE{
		url:   url,
		token: token,
		// No client timeout: the stream is long-lived by design. Dial and
		// TLS handshake limits come from the default transport.
		client: &http.Client{},
		log:    log,
	}
}

// Open establishes the stream and starts delivering frames. It returns an
// error when the connection cannot be established; failures after a
// successful open are reported through onError exactly once.
func (s *SSE) Open(onFrame live.FrameHandler, onError live.ErrorHandler) error {
	ctx, cancel := context.WithCancel(context.Background())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		cancel()
		return fmt.Errorf("build stream request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		cancel()
		return fmt.Errorf("open stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		return fmt.Errorf("open stream: unexpected status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		resp.Body.Close()
		cancel()
		return fmt.Errorf("open stream: unexpected content type %q", ct)
	}

	s.mu.Lock()
	s.cancel = cancel
	s.body = resp.Body
	s.open = true
	s.mu.Unlock()

	go s.readLoop(ctx, resp.Body, onFrame, onError)
	return nil
}

// Close tears down the current stream. Idempotent; a Close-initiated read
// failure is not reported as a transport error.
func (s *SSE) Close() {
	s.mu.Lock()
	cancel, body := s.cancel, s.body
	s.cancel, s.body = nil, nil
	s.open = false
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if body != nil {
		body.Close()
	}
}

// Ready reports whether a stream is currently established.
func (s *SSE) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// readLoop parses the event-stream wire format: "event:" names the kind,
// "data:" lines accumulate the body, a blank line ends the frame. Comment
// lines (leading colon) are keep-alives and are skipped.
func (s *SSE) readLoop(ctx context.Context, body io.Reader, onFrame live.FrameHandler, onError live.ErrorHandler) {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)

	var kind string
	var data bytes.Buffer

	flush := func() {
		if data.Len() == 0 && kind == "" {
			return
		}
		frame := live.Frame{Kind: kind, Data: append([]byte(nil), bytes.TrimSuffix(data.Bytes(), []byte("\n"))...)}
		kind = ""
		data.Reset()
		onFrame(frame)
	}

	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			flush()
		case strings.HasPrefix(line, ":"):
			// Keep-alive comment.
		case strings.HasPrefix(line, "event:"):
			kind = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
			data.WriteByte('\n')
		default:
			// id:/retry: fields are not part of this protocol's contract.
		}
	}

	err := scanner.Err()

	s.mu.Lock()
	intentional := !s.open || ctx.Err() != nil
	s.open = false
	s.mu.Unlock()

	if intentional {
		return
	}
	if err == nil {
		// Server closed the stream without a protocol-level error. The
		// close itself is the only failure signal available.
		err = io.ErrUnexpectedEOF
	}
	if s.log != nil {
		s.log.WithError(err).Debug("event stream closed")
	}
	onError(err)
}
