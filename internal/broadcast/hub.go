package broadcast

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/tanmay0100/Number-Game-sub001/pkg/contracts/events"
)

// observer is one registered connection. The websocket allows a single
// concurrent writer, so every outbound frame (pong replies and broadcasts
// alike) goes through the mutex.
type observer struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func (o *observer) write(data []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.ws.WriteMessage(websocket.TextMessage, data)
}

func (o *observer) writeJSON(v any) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.ws.WriteJSON(v)
}

// Hub manages the registry of connected observers. Every broadcast goes to
// every open connection; delivery is best-effort with no queueing or replay.
// An observer connected after an event missed it and reconciles via its own
// poll or a fresh connection's initial fetch.
type Hub struct {
	log      *zap.Logger
	upgrader websocket.Upgrader
	mu       sync.RWMutex
	conns    map[*observer]struct{}

	OnBroadcast   func() // metrics (counter++)
	OnSendFailure func() // metrics: observer write skipped
}

// NewHub creates a Hub with a custom origin policy (CORS).
func NewHub(log *zap.Logger, allowOrigin func(r *http.Request) bool) *Hub {
	return &Hub{
		log:      log,
		upgrader: websocket.Upgrader{CheckOrigin: allowOrigin},
		conns:    make(map[*observer]struct{}),
	}
}

// HandleWS owns one observer connection's lifecycle: register on upgrade,
// answer pings, unregister when the read loop ends.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	obs := &observer{ws: conn}
	h.mu.Lock()
	h.conns[obs] = struct{}{}
	h.mu.Unlock()

	for {
		var msg clientMsg
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		if msg.Type == "ping" {
			_ = obs.writeJSON(map[string]string{"type": "pong"})
		}
	}

	h.mu.Lock()
	delete(h.conns, obs)
	h.mu.Unlock()
}

// clientMsg is the only inbound shape observers send.
type clientMsg struct {
	Type string `json:"type"` // "ping"
}

// Observers returns the current connection count.
func (h *Hub) Observers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Broadcast serializes the envelope once and writes it to every connection.
// A connection that cannot accept the write is dropped, never retried, and
// never blocks delivery to the rest.
func (h *Hub) Broadcast(eventType string, data any) {
	env, err := events.NewEnvelope(eventType, data)
	if err != nil {
		h.log.Warn("broadcast marshal failed", zap.String("type", eventType), zap.Error(err))
		return
	}
	h.Send(env)
}

// Send pushes an already-built envelope to all observers.
func (h *Hub) Send(env events.Envelope) {
	b, err := json.Marshal(env)
	if err != nil {
		h.log.Warn("broadcast marshal failed", zap.String("type", env.Type), zap.Error(err))
		return
	}

	// snapshot so connect/disconnect cannot corrupt the iteration
	h.mu.RLock()
	conns := make([]*observer, 0, len(h.conns))
	for o := range h.conns {
		conns = append(conns, o)
	}
	h.mu.RUnlock()

	if h.OnBroadcast != nil {
		h.OnBroadcast()
	}

	var dead []*observer
	for _, o := range conns {
		if err := o.write(b); err != nil {
			if h.OnSendFailure != nil {
				h.OnSendFailure()
			}
			h.log.Debug("observer write skipped", zap.Error(err))
			dead = append(dead, o)
		}
	}

	if len(dead) > 0 {
		h.mu.Lock()
		for _, o := range dead {
			delete(h.conns, o)
			_ = o.ws.Close()
		}
		h.mu.Unlock()
	}
}
