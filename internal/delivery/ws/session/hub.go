package ws_session

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/suprdory/filmvote/core/internal/model"
	usecase_session "github.com/suprdory/filmvote/core/internal/usecase/session"
)

type sessionEvent struct {
	code  model.SessionCode
	event any
}

// Hub tracks the set of connections attached to each session and fans events
// out to them. Delivery is fire-and-forget: a client whose send buffer is
// full is dropped rather than allowed to stall the rest. Every send and every
// close of a client channel happens under the hub mutex.
type Hub struct {
	mu sync.RWMutex

	sessions map[model.SessionCode]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan sessionEvent

	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		sessions:   make(map[model.SessionCode]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan sessionEvent),
		logger:     logger,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.handleRegister(client)

		case client := <-h.unregister:
			h.handleUnregister(client)

		case ev := <-h.broadcast:
			h.fanOut(ev.code, ev.event)
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

func (h *Hub) handleRegister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.sessions[client.code]; !ok {
		h.sessions[client.code] = make(map[*Client]bool)
	}
	h.sessions[client.code][client] = true

	h.logger.Info("client registered", "session", client.code)
}

func (h *Hub) handleUnregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.sessions[client.code]; ok {
		if clients[client] {
			delete(clients, client)
			h.closeClientLocked(client)
		}
		if len(clients) == 0 {
			delete(h.sessions, client.code)
		}
	}

	h.logger.Info("client unregistered", "session", client.code)
}

// BroadcastState snapshots the session and pushes a state_update to every
// attached connection. The snapshot is taken under the session lock; fan-out
// happens here, without it.
func (h *Hub) BroadcastState(sess *usecase_session.Session) {
	h.broadcast <- sessionEvent{
		code:  sess.Code(),
		event: NewStateUpdate(sess.Snapshot()),
	}
}

// SendToClient delivers an event to a single connection. A full buffer drops
// the event, not the connection.
func (h *Hub) SendToClient(client *Client, event any) {
	raw, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to encode event", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if client.closed {
		return
	}
	select {
	case client.send <- raw:
	default:
		h.logger.Warn("send buffer full, dropping event", "session", client.code)
	}
}

// SendToPlayer delivers an event to every connection identified as playerID
// within the session. Used for kick notifications.
func (h *Hub) SendToPlayer(code model.SessionCode, playerID model.PlayerID, event any) {
	raw, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to encode event", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.sessions[code] {
		id, _ := client.Identity()
		if id != playerID {
			continue
		}
		select {
		case client.send <- raw:
		default:
			delete(h.sessions[code], client)
			h.closeClientLocked(client)
		}
	}
}

func (h *Hub) fanOut(code model.SessionCode, event any) {
	raw, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to encode event", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.sessions[code] {
		select {
		case client.send <- raw:
		default:
			delete(h.sessions[code], client)
			h.closeClientLocked(client)
		}
	}
}

func (h *Hub) closeClientLocked(client *Client) {
	if !client.closed {
		client.closed = true
		close(client.send)
	}
}
