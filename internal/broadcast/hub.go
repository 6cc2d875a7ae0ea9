// Package broadcast tracks live client connections per user and fans
// payloads out to them.
package broadcast

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Sender is one live client connection. The hub only writes and closes;
// transport specifics (websocket upgrade, write deadlines) live with the
// adapter that implements this.
type Sender interface {
	Send(payload []byte) error
	Close() error
}

// Hub maps user ids to their open connections. All map access is serialized
// through one mutex; fan-out writes happen outside it against a snapshot.
type Hub struct {
	mu    sync.Mutex
	conns map[string]map[Sender]struct{}
}

func NewHub() *Hub {
	return &Hub{conns: make(map[string]map[Sender]struct{})}
}

func (h *Hub) Connect(userID string, s Sender) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.conns[userID]
	if !ok {
		set = make(map[Sender]struct{})
		h.conns[userID] = set
	}
	set[s] = struct{}{}
	log.Debug().Str("user_id", userID).Int("connections", len(set)).Msg("connection registered")
}

func (h *Hub) Disconnect(userID string, s Sender) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(userID, s)
}

// BroadcastToUser sends payload to every live connection of one user and
// returns the number of successful sends. Zero connections is a no-op, not
// an error. Failed connections are pruned after the pass.
func (h *Hub) BroadcastToUser(userID string, payload []byte) int {
	h.mu.Lock()
	snapshot := make([]Sender, 0, len(h.conns[userID]))
	for s := range h.conns[userID] {
		snapshot = append(snapshot, s)
	}
	h.mu.Unlock()

	sent := 0
	var dead []Sender
	for _, s := range snapshot {
		if err := s.Send(payload); err != nil {
			log.Warn().Err(err).Str("user_id", userID).Msg("connection send failed, pruning")
			dead = append(dead, s)
			continue
		}
		sent++
	}

	if len(dead) > 0 {
		h.mu.Lock()
		for _, s := range dead {
			h.removeLocked(userID, s)
		}
		h.mu.Unlock()
		for _, s := range dead {
			_ = s.Close()
		}
	}
	return sent
}

// BroadcastToAll sends payload to every connection of every user and returns
// the total successful send count.
func (h *Hub) BroadcastToAll(payload []byte) int {
	h.mu.Lock()
	users := make([]string, 0, len(h.conns))
	for userID := range h.conns {
		users = append(users, userID)
	}
	h.mu.Unlock()

	sent := 0
	for _, userID := range users {
		sent += h.BroadcastToUser(userID, payload)
	}
	return sent
}

// ConnectionCount reports the number of live connections across all users.
func (h *Hub) ConnectionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, set := range h.conns {
		n += len(set)
	}
	return n
}

func (h *Hub) removeLocked(userID string, s Sender) {
	set, ok := h.conns[userID]
	if !ok {
		return
	}
	delete(set, s)
	if len(set) == 0 {
		delete(h.conns, userID)
	}
}
