package ws

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	diag "github.com/coreman2200/funtimes-stationchain/internal/diagnostics"
	"github.com/coreman2200/funtimes-stationchain/internal/protocol"
)

const writeWait = 200 * time.Millisecond

// Status is the station snapshot served on /health and with each /ws connect.
type Status struct {
	Station      int            `json:"station"`
	StationCount int            `json:"station_count"`
	LEDs         int            `json:"leds"`
	Steps        int            `json:"steps"`
	Frame        uint64         `json:"frame"`
	Driver       string         `json:"driver"`
	Attract      string         `json:"attract,omitempty"`
	RenderMS     float64        `json:"render_ms"`
	Amps         float64        `json:"amps"`
	Lines        protocol.Stats `json:"lines"`
}

// Hub fans frames and diagnostics out to websocket clients and turns
// /control messages into command bytes for the station loop.
type Hub struct {
	mu          sync.RWMutex
	clients     map[*websocket.Conn]bool
	diagClients map[*websocket.Conn]bool
	recent      *diag.Ring
	status      Status
	startTime   time.Time

	// FrameEvery sends one of every N frames to /ws clients.
	FrameEvery int
	// Sensor receives readings posted to /sensor. Nil disables the endpoint.
	Sensor chan<- float32

	control chan<- []byte
	closed  bool
	done    chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
	up      websocket.Upgrader
}

// NewHub sends /control payloads on control. A nil channel disables /control.
func NewHub(control chan<- []byte) *Hub {
	return &Hub{
		clients:     map[*websocket.Conn]bool{},
		diagClients: map[*websocket.Conn]bool{},
		recent:      diag.NewRing(32),
		startTime:   time.Now(),
		FrameEvery:  1,
		control:     control,
		done:        make(chan struct{}),
		up:          websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
}

// Routes registers the hub's handlers on mux.
func (h *Hub) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", h.HandleFramesWS)
	mux.HandleFunc("/diag", h.HandleDiagWS)
	mux.HandleFunc("/control", h.HandleControlWS)
	mux.HandleFunc("/health", h.HandleHealth)
	mux.HandleFunc("/sensor", h.HandleSensor)
}

// track counts a connection goroutine. It refuses once Close has begun.
// Callers hold h.mu.
func (h *Hub) track() bool {
	if h.closed {
		return false
	}
	h.wg.Add(1)
	return true
}

func (h *Hub) HandleFramesWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.track() {
		conn.Close()
		return
	}
	b, _ := json.Marshal(map[string]any{"status": h.status})
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = conn.WriteMessage(websocket.TextMessage, b)
	h.clients[conn] = true
	go h.drain(conn, h.clients)
}

func (h *Hub) HandleDiagWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.track() {
		conn.Close()
		return
	}
	for _, d := range h.recent.Recent() {
		b, _ := json.Marshal(d)
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		_ = conn.WriteMessage(websocket.TextMessage, b)
	}
	h.diagClients[conn] = true
	go h.drain(conn, h.diagClients)
}

// drain reads and discards until the peer goes away, then unregisters conn.
// The caller has already counted it with track.
func (h *Hub) drain(conn *websocket.Conn, set map[*websocket.Conn]bool) {
	defer h.wg.Done()
	defer func() {
		h.mu.Lock()
		delete(set, conn)
		h.mu.Unlock()
		conn.Close()
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// HandleControlWS accepts text messages of one or more command lines. A
// missing final newline is added.
func (h *Hub) HandleControlWS(w http.ResponseWriter, r *http.Request) {
	if h.control == nil {
		http.Error(w, "control disabled", http.StatusServiceUnavailable)
		return
	}
	conn, err := h.up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	h.mu.Lock()
	ok := h.track()
	h.mu.Unlock()
	if !ok {
		conn.Close()
		return
	}
	defer h.wg.Done()
	defer conn.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-h.done:
			conn.Close()
		case <-stop:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if len(data) == 0 {
			continue
		}
		if !bytes.HasSuffix(data, []byte{'\n'}) {
			data = append(data, '\n')
		}
		select {
		case h.control <- data:
		case <-h.done:
			return
		}
	}
}

// HandleSensor accepts a POSTed reading as a plain decimal body.
func (h *Hub) HandleSensor(w http.ResponseWriter, r *http.Request) {
	if h.Sensor == nil {
		http.Error(w, "sensor disabled", http.StatusServiceUnavailable)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "POST a reading", http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, 64))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(string(body)), 32)
	if err != nil {
		http.Error(w, "bad reading", http.StatusBadRequest)
		return
	}
	select {
	case h.Sensor <- float32(v):
		w.WriteHeader(http.StatusNoContent)
	case <-h.done:
		http.Error(w, "closing", http.StatusServiceUnavailable)
	case <-r.Context().Done():
	}
}

func (h *Hub) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	resp := map[string]any{
		"status":       h.status,
		"uptime_s":     time.Since(h.startTime).Seconds(),
		"clients":      len(h.clients),
		"diag_clients": len(h.diagClients),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (h *Hub) SetStatus(st Status) {
	h.mu.Lock()
	h.status = st
	h.mu.Unlock()
}

// BroadcastFrame sends rgb to frame clients. It does not keep rgb.
// Every conn write happens under h.mu, so each conn has a single writer.
func (h *Hub) BroadcastFrame(frame uint64, rgb []byte) {
	if h.FrameEvery > 1 && frame%uint64(h.FrameEvery) != 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.clients) == 0 {
		return
	}
	type msg struct {
		T       int64  `json:"t"`
		FrameID uint64 `json:"frame_id"`
		RGB     []byte `json:"rgb"`
	}
	b, _ := json.Marshal(msg{T: time.Now().UnixNano(), FrameID: frame, RGB: rgb})
	for c := range h.clients {
		c.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
			log.Debug().Err(err).Msg("write frame")
		}
	}
}

func (h *Hub) PushDiag(d diag.Diagnostic) {
	b, _ := json.Marshal(d)
	h.mu.Lock()
	defer h.mu.Unlock()
	h.recent.Push(d)
	for c := range h.diagClients {
		c.SetWriteDeadline(time.Now().Add(writeWait))
		_ = c.WriteMessage(websocket.TextMessage, b)
	}
}

// Close disconnects every client and waits for their goroutines.
func (h *Hub) Close() {
	h.once.Do(func() { close(h.done) })
	h.mu.Lock()
	h.closed = true
	for c := range h.clients {
		c.Close()
	}
	for c := range h.diagClients {
		c.Close()
	}
	h.mu.Unlock()
	h.wg.Wait()
}
