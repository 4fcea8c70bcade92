package relay

import (
	"encoding/json"
	"sync"
	"time"

	"chat-relay/internal/config"
	"chat-relay/internal/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Client pumps frames between one websocket connection and the router.
type Client struct {
	id     string
	conn   *websocket.Conn
	router *Router
	logger zerolog.Logger

	maxMessageSize int64
	send           chan []byte
	done           chan struct{}
	closeOnce      sync.Once
}

func NewClient(conn *websocket.Conn, router *Router, cfg config.RelayConfig, logger zerolog.Logger) *Client {
	id := uuid.NewString()
	return &Client{
		id:             id,
		conn:           conn,
		router:         router,
		logger:         logger.With().Str("conn_id", id).Logger(),
		maxMessageSize: cfg.MaxMessageSize,
		send:           make(chan []byte, cfg.SendQueueSize),
		done:           make(chan struct{}),
	}
}

// ID returns the opaque connection handle sessions are keyed by.
func (c *Client) ID() string {
	return c.id
}

// ReadPump decodes inbound frames and hands them to the router. It owns
// connection teardown: when the read side ends, for any reason, the
// router's disconnect handling runs exactly once.
func (c *Client) ReadPump() {
	defer func() {
		c.router.Disconnect(c.id)
		c.close()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error().Err(err).Msg("websocket read error")
			}
			break
		}

		var env models.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.logger.Warn().Err(err).Msg("dropping frame with invalid JSON")
			continue
		}

		c.router.HandleEvent(c, env)
	}
}

// WritePump drains the send queue onto the wire and keeps the connection
// alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.logger.Error().Err(err).Msg("websocket write error")
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

// deliver enqueues an encoded event without ever blocking the room that is
// fanning out. A full queue drops the event for this recipient only.
func (c *Client) deliver(data []byte) {
	select {
	case <-c.done:
	case c.send <- data:
	default:
		c.logger.Warn().Msg("send queue full, dropping event")
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}
