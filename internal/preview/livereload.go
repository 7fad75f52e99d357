package preview

import (
	"bufio"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/metrics"
)

const heartbeatInterval = 30 * time.Second

// Event is one live-reload message. Exactly one field is set.
type Event struct {
	Build string `json:"build,omitempty"`
	Error string `json:"error,omitempty"`
}

// Hub fans live-reload events out to SSE clients.
type Hub struct {
	mu        sync.RWMutex
	nextID    int
	clients   map[int]*hubClient
	closed    bool
	lastBuild string
	lastError string
	recorder  metrics.Recorder
	logger    *slog.Logger
}

type hubClient struct {
	id   int
	ch   chan Event
	done chan struct{}
}

// NewHub returns an open hub. A nil recorder disables client gauges.
func NewHub(recorder metrics.Recorder, logger *slog.Logger) *Hub {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{clients: map[int]*hubClient{}, recorder: recorder, logger: logger}
}

// ServeHTTP streams events at /livereload. A new client first receives the
// last successful build id so it can tell later builds apart.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "stream unsupported", http.StatusInternalServerError)
		return
	}

	client := &hubClient{ch: make(chan Event, 8), done: make(chan struct{})}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		http.Error(w, "livereload shutting down", http.StatusServiceUnavailable)
		return
	}
	client.id = h.nextID
	h.nextID++
	h.clients[client.id] = client
	baseline := h.lastBuild
	n := len(h.clients)
	h.mu.Unlock()
	h.recorder.SetLiveReloadClients(n)
	defer h.remove(client.id)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(": connected\n\n"); err != nil {
		return
	}
	if baseline != "" {
		if err := writeEvent(bw, Event{Build: baseline}); err != nil {
			return
		}
	}
	if err := bw.Flush(); err != nil {
		return
	}
	flusher.Flush()

	hb := time.NewTicker(heartbeatInterval)
	defer hb.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-client.done:
			return
		case <-hb.C:
			if _, err := bw.WriteString(": ping\n\n"); err != nil {
				h.logger.Debug("livereload ping failed", logfields.Error(err))
				return
			}
		case ev := <-client.ch:
			if err := writeEvent(bw, ev); err != nil {
				h.logger.Debug("livereload write failed", logfields.Error(err))
				return
			}
		}
		if err := bw.Flush(); err != nil {
			return
		}
		flusher.Flush()
	}
}

func writeEvent(bw *bufio.Writer, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if _, err := bw.WriteString("data: "); err != nil {
		return err
	}
	if _, err := bw.Write(data); err != nil {
		return err
	}
	_, err = bw.WriteString("\n\n")
	return err
}

func (h *Hub) remove(id int) {
	h.mu.Lock()
	c, ok := h.clients[id]
	if ok {
		delete(h.clients, id)
		close(c.done)
	}
	n := len(h.clients)
	h.mu.Unlock()
	if ok {
		h.recorder.SetLiveReloadClients(n)
	}
}

// BroadcastBuild announces a successful build. Repeating the last build id
// is a no-op.
func (h *Hub) BroadcastBuild(buildID string) {
	h.mu.Lock()
	if h.closed || buildID == "" || buildID == h.lastBuild {
		h.mu.Unlock()
		return
	}
	h.lastBuild = buildID
	h.lastError = ""
	h.mu.Unlock()
	h.broadcast(Event{Build: buildID})
}

// BroadcastError announces a failed rebuild. Browsers keep showing the
// last good build.
func (h *Hub) BroadcastError(msg string) {
	h.mu.Lock()
	if h.closed || msg == "" || msg == h.lastError {
		h.mu.Unlock()
		return
	}
	h.lastError = msg
	h.mu.Unlock()
	h.broadcast(Event{Error: msg})
}

// broadcast drops clients whose buffers are full.
func (h *Hub) broadcast(ev Event) {
	h.mu.RLock()
	snapshot := make([]*hubClient, 0, len(h.clients))
	for _, c := range h.clients {
		snapshot = append(snapshot, c)
	}
	h.mu.RUnlock()

	dropped := 0
	for _, c := range snapshot {
		select {
		case c.ch <- ev:
		default:
			dropped++
			h.remove(c.id)
		}
	}
	h.logger.Debug("livereload broadcast",
		logfields.BuildID(ev.Build),
		logfields.Clients(len(snapshot)),
		slog.Int("dropped", dropped))
}

// Clients reports the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Shutdown disconnects every client and refuses new ones.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	clients := h.clients
	h.clients = map[int]*hubClient{}
	h.mu.Unlock()
	for _, c := range clients {
		close(c.done)
	}
	h.recorder.SetLiveReloadClients(0)
}
