package relay

import (
	"sync"

	"chat-relay/internal/models"
)

// HistoryCache keeps the per-room ordered log of routed messages.
// Append order is insertion order and is never rewritten; a snapshot taken
// while the room's lock is held is exactly the sequence every current
// member has already received.
//
// Each room's log is a ring capped at limit entries (oldest evicted first).
// A limit of 0 keeps everything for the process lifetime.
type HistoryCache struct {
	mu    sync.RWMutex
	limit int
	logs  map[string][]models.HistoryEntry
}

func NewHistoryCache(limit int) *HistoryCache {
	if limit < 0 {
		limit = 0
	}
	return &HistoryCache{
		limit: limit,
		logs:  make(map[string][]models.HistoryEntry),
	}
}

// Append records a stamped message at the tail of the room's log.
func (h *HistoryCache) Append(room string, msg models.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	log := append(h.logs[room], models.HistoryEntry{Message: msg, Kind: msg.Kind})
	if h.limit > 0 && len(log) > h.limit {
		log = log[len(log)-h.limit:]
	}
	h.logs[room] = log
}

// Snapshot returns a copy of the room's log in original order. Unknown
// rooms yield an empty slice, not an error.
func (h *HistoryCache) Snapshot(room string) []models.HistoryEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	log := h.logs[room]
	out := make([]models.HistoryEntry, len(log))
	copy(out, log)
	return out
}

// Len reports the current size of the room's log.
func (h *HistoryCache) Len(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.logs[room])
}
