package ws

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/LeGioNSoftware/MonkeyPaw/internal/model"
	"github.com/LeGioNSoftware/MonkeyPaw/internal/session"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Client is one player's websocket connection to a lobby
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	sess     *session.Session
	playerID model.PlayerID
	logger   *slog.Logger

	send        chan []byte
	connectedAt time.Time

	// sendMu guards send against the hub closing the channel while the
	// read goroutine is still answering a message
	sendMu     sync.Mutex
	sendClosed bool

	// set by the hub when a newer connection for the same player
	// takes over, so this one's teardown must not mark them offline
	replaced atomic.Bool

	// set on the read goroutine when the client asks to leave, read by
	// the handler after the read loop exits
	leaveRequested bool
}

// newClient wires a freshly upgraded connection to its lobby hub
func newClient(hub *Hub, conn *websocket.Conn, sess *session.Session, playerID model.PlayerID, logger *slog.Logger) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		sess:     sess,
		playerID: playerID,
		logger: logger.With(
			slog.String("lobby", string(hub.lobby)),
			slog.String("player_id", string(playerID)),
		),
		send:        make(chan []byte, 64),
		connectedAt: time.Now(),
	}
}

// readPump reads client messages until the connection drops, applying
// each one through the lobby session. It runs on the handler goroutine.
func (c *Client) readPump() {
	defer c.conn.Close()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("ws read failed", slog.String("error", err.Error()))
			}
			return
		}
		c.dispatch(data)
	}
}

// writePump forwards queued events to the connection and keeps it
// alive with pings
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// sendEvent queues an event for this connection only. Once the hub has
// released the connection the event is dropped.
func (c *Client) sendEvent(event any) {
	payload := marshalEvent(c.logger, event)
	if payload == nil {
		return
	}
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.sendClosed {
		return
	}
	select {
	case c.send <- payload:
	default:
		c.logger.Warn("ws message dropped - client buffer full")
	}
}

// closeSend closes the outbound queue exactly once; sendEvent calls
// racing the close are dropped instead of panicking on a closed channel
func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.sendClosed {
		return
	}
	c.sendClosed = true
	close(c.send)
}
