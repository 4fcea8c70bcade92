package relay

import (
	"sync"

	"chat-relay/internal/models"

	"github.com/rs/zerolog"
)

// Directory maps room names to live rooms. Rooms exist implicitly: the
// first join creates one, and a room that loses its last member is removed
// from the table. Its history outlives it in the cache, so a later rejoin
// under the same name replays the earlier conversation.
type Directory struct {
	history *HistoryCache
	logger  zerolog.Logger

	mu    sync.Mutex
	rooms map[string]*Room
}

func NewDirectory(history *HistoryCache, logger zerolog.Logger) *Directory {
	return &Directory{
		history: history,
		logger:  logger,
		rooms:   make(map[string]*Room),
	}
}

// Join places the client in the named room, creating it if needed. The
// retry loop covers the window where a concurrent leave removed the room
// between lookup and lock.
func (d *Directory) Join(name string, c *Client, identity models.Identity, token string) {
	for {
		if d.getOrCreate(name).Join(c, identity, token) {
			return
		}
	}
}

// Publish routes a stamped-to-be message into the named room. Nothing
// happens if the room no longer exists.
func (d *Directory) Publish(name string, msg models.Message) {
	if room := d.get(name); room != nil {
		room.Publish(msg)
	}
}

// Leave removes the connection from the named room and garbage-collects
// the room once it is empty.
func (d *Directory) Leave(name, connID string, identity models.Identity) {
	room := d.get(name)
	if room == nil {
		return
	}
	if room.Leave(connID, identity) == 0 {
		d.remove(name)
	}
}

// Members reports the member count of the named room, 0 if it does not
// exist.
func (d *Directory) Members(name string) int {
	if room := d.get(name); room != nil {
		return room.size()
	}
	return 0
}

func (d *Directory) get(name string) *Room {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rooms[name]
}

func (d *Directory) getOrCreate(name string) *Room {
	d.mu.Lock()
	defer d.mu.Unlock()

	room, ok := d.rooms[name]
	if !ok {
		room = newRoom(name, d.history, d.logger)
		d.rooms[name] = room
	}
	return room
}

func (d *Directory) remove(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	room, ok := d.rooms[name]
	if !ok {
		return
	}
	// A join may have slipped in since the leave; keep the room then.
	if room.markClosed() {
		delete(d.rooms, name)
		d.logger.Debug().Str("room", name).Msg("removed empty room")
	}
}
