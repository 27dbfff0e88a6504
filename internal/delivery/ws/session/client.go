package ws_session

import (
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/suprdory/filmvote/core/internal/model"
	usecase_session "github.com/suprdory/filmvote/core/internal/usecase/session"
)

// Client is the per-connection actor: it resolves the connection to a role
// within exactly one session, decodes inbound commands and forwards them to
// the session. All identity mutation happens on the read pump; the mutex
// exists because the hub reads identity during kick delivery.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	code model.SessionCode
	sess *usecase_session.Session

	mu       sync.Mutex
	playerID model.PlayerID
	isHost   bool

	// closed is owned by the hub and guarded by its mutex.
	closed bool

	defaultHybridThreshold int

	logger *slog.Logger
}

const sendBufferSize = 16

func NewClient(hub *Hub, conn *websocket.Conn, sess *usecase_session.Session, defaultHybridThreshold int, logger *slog.Logger) *Client {
	return &Client{
		hub:                    hub,
		conn:                   conn,
		send:                   make(chan []byte, sendBufferSize),
		code:                   sess.Code(),
		sess:                   sess,
		defaultHybridThreshold: defaultHybridThreshold,
		logger:                 logger,
	}
}

func (c *Client) Identity() (model.PlayerID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playerID, c.isHost
}

func (c *Client) setIdentity(id model.PlayerID, isHost bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playerID = id
	c.isHost = isHost
}

// BecomeHost marks the connection as the session creator and hands it the
// host reconnection token.
func (c *Client) BecomeHost() {
	c.setIdentity(model.EmptyPlayerID, true)
	c.sess.MarkHostConnected(true)
	c.sendEvent(PlayerIDEvent{
		Type:   EventPlayerID,
		ID:     c.sess.HostID(),
		IsHost: true,
	})
}

// ReadPump consumes inbound messages until the connection drops, then marks
// the identity disconnected and lets everyone else know.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()

		id, isHost := c.Identity()
		if isHost {
			c.sess.MarkHostConnected(false)
		}
		if id != model.EmptyPlayerID {
			c.sess.MarkDisconnected(id)
		}
		c.sess.Detach()
		c.hub.BroadcastState(c.sess)
	}()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		cmd, err := DecodeCommand(raw)
		if err != nil {
			c.logger.Warn("malformed command", "session", c.code, "error", err)
			c.sendEvent(ErrorEvent{Type: EventError, Message: "malformed command"})
			continue
		}
		c.handle(cmd)
	}
}

func (c *Client) WritePump() {
	defer c.conn.Close()

	for raw := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
			return
		}
	}
}

func (c *Client) handle(cmd Command) {
	switch cmd.Type {
	case CommandJoin:
		c.handleJoin(cmd)
	case CommandHostReconnect:
		c.handleHostReconnect(cmd)
	case CommandStart:
		c.handleStart(cmd)
	case CommandEliminate:
		c.handleEliminate(cmd)
	case CommandReorder:
		c.handleReorder(cmd)
	case CommandKickPlayer:
		c.handleKick(cmd)
	default:
		c.sendEvent(ErrorEvent{Type: EventError, Message: "unknown command type: " + cmd.Type})
	}
}

func (c *Client) handleJoin(cmd Command) {
	id, reconnected, err := c.sess.Join(cmd.Name, model.PlayerID(cmd.PlayerID))
	if err != nil {
		c.sendEvent(ErrorEventFor(err))
		return
	}

	_, isHost := c.Identity()
	c.setIdentity(id, isHost)

	if reconnected {
		c.sendEvent(ReconnectSuccessEvent{
			Type:   EventReconnectSuccess,
			Name:   cmd.Name,
			IsHost: isHost,
		})
	} else {
		c.sendEvent(PlayerIDEvent{
			Type:   EventPlayerID,
			ID:     string(id),
			IsHost: isHost,
		})
	}
	c.hub.BroadcastState(c.sess)
}

func (c *Client) handleHostReconnect(cmd Command) {
	if err := c.sess.HostReconnect(cmd.HostID); err != nil {
		c.sendEvent(ErrorEventFor(err))
		return
	}

	id, _ := c.Identity()
	c.setIdentity(id, true)
	c.sendEvent(ReconnectSuccessEvent{
		Type:   EventReconnectSuccess,
		IsHost: true,
	})
	c.hub.BroadcastState(c.sess)
}

func (c *Client) handleStart(cmd Command) {
	_, isHost := c.Identity()

	style := model.VoteStyle(cmd.VoteStyle)
	if style == "" {
		style = model.StyleOneByOne
	}
	threshold := c.defaultHybridThreshold
	if cmd.HybridThreshold != nil {
		threshold = *cmd.HybridThreshold
	}

	if err := c.sess.Start(isHost, cmd.Films, style, threshold); err != nil {
		c.sendEvent(ErrorEventFor(err))
		return
	}
	c.hub.BroadcastState(c.sess)
}

func (c *Client) handleEliminate(cmd Command) {
	id, _ := c.Identity()

	var err error
	if cmd.Group != "" {
		err = c.sess.EliminateGroup(id, model.GroupLabel(cmd.Group))
	} else {
		err = c.sess.EliminateOne(id, model.FilmID(cmd.Film))
	}
	if err != nil {
		c.sendEvent(ErrorEventFor(err))
		return
	}
	c.hub.BroadcastState(c.sess)
}

func (c *Client) handleReorder(cmd Command) {
	_, isHost := c.Identity()

	order := make([]model.PlayerID, len(cmd.Order))
	for i, id := range cmd.Order {
		order[i] = model.PlayerID(id)
	}

	if err := c.sess.Reorder(isHost, order); err != nil {
		c.sendEvent(ErrorEventFor(err))
		return
	}
	c.hub.BroadcastState(c.sess)
}

func (c *Client) handleKick(cmd Command) {
	_, isHost := c.Identity()

	kicked, err := c.sess.Kick(isHost, model.PlayerID(cmd.Player))
	if err != nil {
		c.sendEvent(ErrorEventFor(err))
		return
	}

	c.hub.SendToPlayer(c.code, kicked.ID, KickedEvent{
		Type:    EventKicked,
		Message: "You have been removed from the session by the host.",
	})
	c.hub.BroadcastState(c.sess)
}

func (c *Client) sendEvent(event any) {
	c.hub.SendToClient(c, event)
}
