package handler

import (
	"bufio"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatepass/internal/domain"
)

func TestStream_DeliversEventsForUser(t *testing.T) {
	stub := &stubVisitService{visit: sampleVisit()}
	router, c := newTestRouter(stub)

	srv := httptest.NewServer(router)
	defer srv.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/events", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer resident-token")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)

	// Opening comment arrives before any event.
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, ": connected\n", line)

	// Wait until the hub sees the subscription before publishing.
	require.Eventually(t, func() bool {
		return c.Hub.ConnectionCount() == 1
	}, time.Second, 5*time.Millisecond)

	c.Hub.SendToUser("resident-1", domain.EventNewVisitPending, map[string]string{
		"visit_id":     "v-42",
		"visitor_name": "Ravi",
	})

	var kind, data string
	deadline := time.After(2 * time.Second)
	lines := make(chan string)
	go func() {
		for {
			l, err := reader.ReadString('\n')
			if err != nil {
				close(lines)
				return
			}
			lines <- l
		}
	}()

	for kind == "" || data == "" {
		select {
		case l, ok := <-lines:
			if !ok {
				t.Fatal("stream closed before event arrived")
			}
			switch {
			case len(l) > 7 && l[:7] == "event: ":
				kind = l[7 : len(l)-1]
			case len(l) > 6 && l[:6] == "data: ":
				data = l[6 : len(l)-1]
			}
		case <-deadline:
			t.Fatal("timed out waiting for event")
		}
	}

	assert.Equal(t, "new_visit_pending", kind)
	assert.Contains(t, data, "v-42")
	assert.Contains(t, data, "Ravi")
}

func TestStream_RejectsUnauthenticated(t *testing.T) {
	stub := &stubVisitService{visit: sampleVisit()}
	router, _ := newTestRouter(stub)

	srv := httptest.NewServer(router)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/events")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestStream_AcceptsQueryParamToken(t *testing.T) {
	stub := &stubVisitService{visit: sampleVisit()}
	router, _ := newTestRouter(stub)

	srv := httptest.NewServer(router)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/events?token=resident-token")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
}
