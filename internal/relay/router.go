package relay

import (
	"encoding/json"

	"chat-relay/internal/models"

	"github.com/rs/zerolog"
)

// Router validates and routes inbound events for authenticated
// connections. In-session failures never close the connection: events with
// no session, no active room or a malformed payload are dropped and
// logged, and the client hears nothing about it. Only the credential check
// at the transport boundary refuses connections.
type Router struct {
	registry  *Registry
	directory *Directory
	history   *HistoryCache
	logger    zerolog.Logger
}

// NewRouter wires the relay core. historyLimit caps each room's replay log
// (0 = unbounded).
func NewRouter(historyLimit int, logger zerolog.Logger) *Router {
	history := NewHistoryCache(historyLimit)
	return &Router{
		registry:  NewRegistry(),
		directory: NewDirectory(history, logger),
		history:   history,
		logger:    logger.With().Str("component", "router").Logger(),
	}
}

// Register creates the session for a freshly authenticated connection.
// Must run exactly once, before any event for that connection is handled.
func (r *Router) Register(c *Client, identity models.Identity, token string) *Session {
	return r.registry.Register(c.id, identity, token)
}

// HandleEvent dispatches one inbound envelope from the given connection.
func (r *Router) HandleEvent(c *Client, env models.Envelope) {
	switch env.Event {
	case models.EventJoinRoom:
		r.handleJoin(c, env.Data)
	case models.EventMessage:
		r.handleChat(c, models.KindText, env.Data)
	case models.EventImage:
		r.handleChat(c, models.KindImage, env.Data)
	default:
		r.logger.Debug().Str("event", env.Event).Str("conn_id", c.id).Msg("dropping unknown event")
	}
}

func (r *Router) handleJoin(c *Client, data json.RawMessage) {
	session := r.registry.Get(c.id)
	if session == nil {
		r.logger.Warn().Str("conn_id", c.id).Msg("join from unregistered connection")
		return
	}

	var req models.JoinRequest
	if err := json.Unmarshal(data, &req); err != nil || req.Room == "" {
		r.logger.Warn().Str("conn_id", c.id).Msg("dropping malformed join request")
		return
	}

	// A connection holds at most one room; switching rooms leaves the
	// previous one first.
	if prev := session.CurrentRoom(); prev != "" && prev != req.Room {
		r.directory.Leave(prev, c.id, session.Identity)
	}

	r.directory.Join(req.Room, c, session.Identity, session.Token)
	session.setRoom(req.Room)

	r.logger.Info().
		Str("sender", session.Identity.Sender).
		Str("room", req.Room).
		Msg("join-room handled")
}

func (r *Router) handleChat(c *Client, kind models.MessageKind, data json.RawMessage) {
	session := r.registry.Get(c.id)
	if session == nil {
		return
	}

	room := session.CurrentRoom()
	if room == "" {
		// Benign race: the client sent before its join-room. Drop, keep
		// the connection.
		r.logger.Debug().Str("conn_id", c.id).Msg("dropping event with no active room")
		return
	}

	var payload models.ChatPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		r.logger.Warn().Str("conn_id", c.id).Err(err).Msg("dropping malformed payload")
		return
	}

	msg := models.Message{
		Kind:   kind,
		Room:   room,
		Sender: session.Identity.Sender,
		UserID: session.Identity.UserID,
		Text:   payload.Text,
	}
	switch kind {
	case models.KindText:
		if payload.Text == "" {
			r.logger.Warn().Str("conn_id", c.id).Msg("dropping text message without text")
			return
		}
	case models.KindImage:
		if len(payload.Buffer) == 0 {
			r.logger.Warn().Str("conn_id", c.id).Msg("dropping image message without buffer")
			return
		}
		msg.Buffer = payload.Buffer
	}

	r.directory.Publish(room, msg)
}

// Disconnect tears down a connection's room membership and session. Safe
// to call any number of times; only the first call does anything.
func (r *Router) Disconnect(connID string) {
	session := r.registry.Destroy(connID)
	if session == nil {
		return
	}

	if room := session.CurrentRoom(); room != "" {
		r.directory.Leave(room, connID, session.Identity)
	}

	r.logger.Info().Str("sender", session.Identity.Sender).Str("conn_id", connID).Msg("disconnected")
}

// History exposes the replay log.
func (r *Router) History() *HistoryCache {
	return r.history
}

// Directory exposes the room table.
func (r *Router) Directory() *Directory {
	return r.directory
}

// Sessions exposes the session registry.
func (r *Router) Sessions() *Registry {
	return r.registry
}
