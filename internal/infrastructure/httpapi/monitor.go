package httpapi

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/doanphungtu/tudp-rn-debugger/internal/domain"
	"github.com/doanphungtu/tudp-rn-debugger/internal/usecase"
)

// Monitor event types.
const (
	EventRequestsChanged = "requests_changed"
	EventRequestsCleared = "requests_cleared"
	EventLoggingStarted  = "logging_started"
	EventLoggingStopped  = "logging_stopped"
)

type MonitorEvent struct {
	Type     string `json:"type"`
	ID       string `json:"id"`
	Count    int    `json:"count"`
	InFlight int    `json:"inFlight"`
}

type MonitorHub struct {
	mu       sync.RWMutex
	clients  map[*websocket.Conn]struct{}
	upgrader websocket.Upgrader
	wmu      sync.Mutex
	// listeners are in-process subscribers (e.g., SSE forwarders)
	lmu       sync.RWMutex
	listeners map[chan MonitorEvent]struct{}
}

func NewMonitorHub() *MonitorHub {
	return &MonitorHub{
		clients:   make(map[*websocket.Conn]struct{}),
		upgrader:  websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		listeners: make(map[chan MonitorEvent]struct{}),
	}
}

// Attach registers the hub as an observer of n and returns the unsubscribe func.
func (h *MonitorHub) Attach(n *usecase.NetworkLogger) func() {
	if n == nil {
		return func() {}
	}
	return n.Subscribe(func(recs []domain.Record) {
		inFlight := 0
		for i := range recs {
			if recs[i].State() == domain.StateInFlight {
				inFlight++
			}
		}
		h.Broadcast(MonitorEvent{Type: EventRequestsChanged, ID: "*", Count: len(recs), InFlight: inFlight})
	})
}

func (h *MonitorHub) HandleWS(w http.ResponseWriter, r *http.Request) {
	c, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	_ = c.SetReadDeadline(time.Time{})
	for {
		// keepalive reads to detect client close
		if _, _, err := c.ReadMessage(); err != nil {
			break
		}
	}
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	_ = c.Close()
}

func (h *MonitorHub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *MonitorHub) Broadcast(ev MonitorEvent) {
	data, _ := json.Marshal(ev)
	// snapshot clients to avoid holding read lock during writes
	h.mu.RLock()
	clients := make([]*websocket.Conn, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	// serialize writes to prevent concurrent writes to same conn
	h.wmu.Lock()
	for _, c := range clients {
		_ = c.SetWriteDeadline(time.Now().Add(2 * time.Second))
		_ = c.WriteMessage(websocket.TextMessage, data)
	}
	h.wmu.Unlock()
	// Unsubscribe closes channels under lmu, so sends must hold it too.
	h.lmu.RLock()
	for ch := range h.listeners {
		select {
		case ch <- ev:
		default: // drop if slow
		}
	}
	h.lmu.RUnlock()
}

// Subscribe returns a channel receiving monitor events. Caller must Unsubscribe.
func (h *MonitorHub) Subscribe() chan MonitorEvent {
	ch := make(chan MonitorEvent, 64)
	h.lmu.Lock()
	h.listeners[ch] = struct{}{}
	h.lmu.Unlock()
	return ch
}

// Unsubscribe removes a listener channel.
func (h *MonitorHub) Unsubscribe(ch chan MonitorEvent) {
	h.lmu.Lock()
	if _, ok := h.listeners[ch]; ok {
		delete(h.listeners, ch)
		close(ch)
	}
	h.lmu.Unlock()
}
