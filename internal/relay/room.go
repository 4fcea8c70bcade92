package relay

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"chat-relay/internal/models"

	"github.com/rs/zerolog"
)

// Room is one broadcast domain. Its mutex is the single-writer discipline
// for the room: membership changes, history appends and fan-out all happen
// inside it, so a joiner's replay and live publishes can never interleave.
// Delivery to each member is a non-blocking enqueue; a member whose send
// queue is full misses that event instead of stalling the room.
type Room struct {
	name    string
	history *HistoryCache
	logger  zerolog.Logger

	mu      sync.Mutex
	members map[string]*Client
	closed  bool
}

func newRoom(name string, history *HistoryCache, logger zerolog.Logger) *Room {
	return &Room{
		name:    name,
		history: history,
		logger:  logger.With().Str("room", name).Logger(),
		members: make(map[string]*Client),
	}
}

// Join adds c to the member set and runs the join side effects: the private
// auth ack and history replay to the joiner, and the join announcement to
// everyone else. Re-joining is a membership no-op but the side effects run
// again. Returns false if the room has already been removed from the
// directory, in which case the caller must retry on a fresh room.
func (r *Room) Join(c *Client, identity models.Identity, token string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return false
	}

	_, already := r.members[c.id]
	r.members[c.id] = c

	if data, ok := r.encode(models.EventAuth, models.AuthPayload{Token: token, UserID: identity.UserID}); ok {
		c.deliver(data)
	}

	announce := models.Message{
		Kind:   models.KindText,
		Room:   r.name,
		Sender: identity.Sender,
		UserID: identity.UserID,
		Text:   fmt.Sprintf("%s joined the room", identity.Sender),
		Date:   time.Now(),
	}
	if data, ok := r.encode(models.EventUserJoined, &announce); ok {
		r.fanout(data, c.id)
	}

	replay := models.HistoryPayload{Messages: r.history.Snapshot(r.name)}
	if data, ok := r.encode(models.EventHistory, replay); ok {
		c.deliver(data)
	}

	if !already {
		r.logger.Info().Str("sender", identity.Sender).Str("conn_id", c.id).Msg("member joined")
	}
	return true
}

// Publish stamps msg with the server clock, appends it to the room history
// and fans it out to every member, the sender included. Stamping inside
// the lock makes history order and timestamp order the same thing.
func (r *Room) Publish(msg models.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}

	msg.Date = time.Now()
	r.history.Append(r.name, msg)

	if data, ok := r.encode(msg.Event(), &msg); ok {
		r.fanout(data, "")
	}
}

// Leave removes the connection from the member set, announces the
// departure to the remainder and reports how many members are left.
// Leaving a room one is not in is a no-op.
func (r *Room) Leave(connID string, identity models.Identity) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.members[connID]; !ok {
		return len(r.members)
	}
	delete(r.members, connID)

	announce := models.Message{
		Kind:   models.KindText,
		Room:   r.name,
		Sender: identity.Sender,
		UserID: identity.UserID,
		Text:   fmt.Sprintf("%s left the room", identity.Sender),
		Date:   time.Now(),
	}
	if data, ok := r.encode(models.EventUserLeft, &announce); ok {
		r.fanout(data, connID)
	}

	r.logger.Info().Str("sender", identity.Sender).Str("conn_id", connID).Msg("member left")
	return len(r.members)
}

// size reports the current member count.
func (r *Room) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

// markClosed flags the room as removed. Must only be called by the
// directory while it holds its own lock.
func (r *Room) markClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.members) > 0 {
		return false
	}
	r.closed = true
	return true
}

// fanout enqueues data to every member except the excluded connection ID.
// Pass "" to reach everyone.
func (r *Room) fanout(data []byte, except string) {
	for id, member := range r.members {
		if id == except {
			continue
		}
		member.deliver(data)
	}
}

func (r *Room) encode(event string, payload any) ([]byte, bool) {
	env, err := models.NewEnvelope(event, payload)
	if err != nil {
		r.logger.Error().Err(err).Str("event", event).Msg("failed to encode event")
		return nil, false
	}
	data, err := json.Marshal(env)
	if err != nil {
		r.logger.Error().Err(err).Str("event", event).Msg("failed to encode envelope")
		return nil, false
	}
	return data, true
}
