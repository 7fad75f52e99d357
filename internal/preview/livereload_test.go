package preview

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docsite/internal/metrics"
)

type gaugeRecorder struct {
	metrics.NoopRecorder
	mu      sync.Mutex
	clients int
}

func (g *gaugeRecorder) SetLiveReloadClients(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.clients = n
}

func (g *gaugeRecorder) value() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.clients
}

// subscribe opens an SSE stream and returns its data payloads.
func subscribe(t *testing.T, url string) (<-chan string, *http.Response) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	events := make(chan string, 16)
	go func() {
		defer close(events)
		reader := bufio.NewReader(resp.Body)
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				return
			}
			if data, ok := strings.CutPrefix(strings.TrimSpace(line), "data: "); ok {
				events <- data
			}
		}
	}()
	return events, resp
}

func nextEvent(t *testing.T, events <-chan string) string {
	t.Helper()
	select {
	case ev, ok := <-events:
		require.True(t, ok, "stream closed")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return ""
	}
}

func TestHub_NewClientReceivesBaseline(t *testing.T) {
	hub := NewHub(nil, nil)
	defer hub.Shutdown()
	hub.BroadcastBuild("b1")

	server := httptest.NewServer(hub)
	defer server.Close()

	events, resp := subscribe(t, server.URL)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	assert.Equal(t, `{"build":"b1"}`, nextEvent(t, events))
}

func TestHub_BroadcastBuildAndError(t *testing.T) {
	hub := NewHub(nil, nil)
	defer hub.Shutdown()
	server := httptest.NewServer(hub)
	defer server.Close()

	events, _ := subscribe(t, server.URL)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	hub.BroadcastBuild("b2")
	assert.Equal(t, `{"build":"b2"}`, nextEvent(t, events))

	hub.BroadcastError("malformed document dev/protocol.mdx")
	assert.Equal(t, `{"error":"malformed document dev/protocol.mdx"}`, nextEvent(t, events))

	hub.BroadcastBuild("b2")
	hub.BroadcastBuild("b3")
	assert.Equal(t, `{"build":"b3"}`, nextEvent(t, events), "repeated build id is not re-sent")
}

func TestHub_ErrorBaselineIsLastGoodBuild(t *testing.T) {
	hub := NewHub(nil, nil)
	defer hub.Shutdown()
	hub.BroadcastBuild("good")
	hub.BroadcastError("boom")

	server := httptest.NewServer(hub)
	defer server.Close()
	events, _ := subscribe(t, server.URL)
	assert.Equal(t, `{"build":"good"}`, nextEvent(t, events))
}

func TestHub_ShutdownDisconnectsClients(t *testing.T) {
	rec := &gaugeRecorder{}
	hub := NewHub(rec, nil)
	server := httptest.NewServer(hub)
	defer server.Close()

	_, resp := subscribe(t, server.URL)
	require.Eventually(t, func() bool { return rec.value() == 1 }, time.Second, 10*time.Millisecond)

	hub.Shutdown()
	done := make(chan struct{})
	go func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream not closed after shutdown")
	}
	assert.Equal(t, 0, rec.value())
	assert.Equal(t, 0, hub.Clients())

	again, err := http.Get(server.URL)
	require.NoError(t, err)
	defer func() { _ = again.Body.Close() }()
	assert.Equal(t, http.StatusServiceUnavailable, again.StatusCode)
}

func TestHub_ClientDisconnectUpdatesGauge(t *testing.T) {
	rec := &gaugeRecorder{}
	hub := NewHub(rec, nil)
	defer hub.Shutdown()
	server := httptest.NewServer(hub)
	defer server.Close()

	_, resp := subscribe(t, server.URL)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)
	_ = resp.Body.Close()
	require.Eventually(t, func() bool { return hub.Clients() == 0 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, rec.value())
}
