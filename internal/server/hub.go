package server

import (
	"encoding/json"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/sentinelsec/teamsync/internal/models"
)

// Hub maintains the active relay sessions, their room subscriptions, and the
// per-room typing sets.
type Hub struct {
	logger     *slog.Logger
	register   chan *session
	unregister chan *session

	mutex    sync.RWMutex
	sessions map[*session]bool
	rooms    map[string]map[*session]bool
	typing   map[string]map[string]bool
}

// NewHub creates a hub. Call Run on its own goroutine.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger:     logger,
		register:   make(chan *session),
		unregister: make(chan *session),
		sessions:   make(map[*session]bool),
		rooms:      make(map[string]map[*session]bool),
		typing:     make(map[string]map[string]bool),
	}
}

// Run processes session registration until Close.
func (h *Hub) Run() {
	for {
		select {
		case sess, ok := <-h.register:
			if !ok {
				return
			}
			h.registerSession(sess)
			h.broadcastOnline()
		case sess := <-h.unregister:
			h.unregisterSession(sess)
			h.broadcastOnline()
		}
	}
}

// Close shuts down every session.
func (h *Hub) Close() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for sess := range h.sessions {
		sess.closeSend()
		sess.conn.Close()
	}
	h.sessions = make(map[*session]bool)
	h.rooms = make(map[string]map[*session]bool)
	h.typing = make(map[string]map[string]bool)
}

func (h *Hub) registerSession(sess *session) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.sessions[sess] = true
	h.logger.Info("session registered", "user", sess.userID)
}

func (h *Hub) unregisterSession(sess *session) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if _, ok := h.sessions[sess]; !ok {
		return
	}
	delete(h.sessions, sess)
	sess.closeSend()

	for roomID := range sess.rooms {
		if room, exists := h.rooms[roomID]; exists {
			delete(room, sess)
			if len(room) == 0 {
				delete(h.rooms, roomID)
			}
		}
		h.clearTypingLocked(roomID, sess.userID)
	}

	h.logger.Info("session unregistered", "user", sess.userID)
}

// JoinRoom subscribes a session to a room's broadcasts.
func (h *Hub) JoinRoom(sess *session, roomID string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[*session]bool)
	}
	h.rooms[roomID][sess] = true
	sess.rooms[roomID] = true
}

// LeaveRoom drops a session's subscription to a room.
func (h *Hub) LeaveRoom(sess *session, roomID string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if room, exists := h.rooms[roomID]; exists {
		delete(room, sess)
		if len(room) == 0 {
			delete(h.rooms, roomID)
		}
	}
	delete(sess.rooms, roomID)
	h.clearTypingLocked(roomID, sess.userID)
}

// DropRoom removes all subscriptions and typing state for a room.
func (h *Hub) DropRoom(roomID string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for sess := range h.rooms[roomID] {
		delete(sess.rooms, roomID)
	}
	delete(h.rooms, roomID)
	delete(h.typing, roomID)
}

// SetTyping updates a user's typing flag for a room and returns the room's
// current typing set.
func (h *Hub) SetTyping(roomID, userID string, isTyping bool) []string {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if isTyping {
		if h.typing[roomID] == nil {
			h.typing[roomID] = make(map[string]bool)
		}
		h.typing[roomID][userID] = true
	} else {
		h.clearTypingLocked(roomID, userID)
	}

	users := make([]string, 0, len(h.typing[roomID]))
	for id := range h.typing[roomID] {
		users = append(users, id)
	}
	sort.Strings(users)
	return users
}

func (h *Hub) clearTypingLocked(roomID, userID string) {
	if set, ok := h.typing[roomID]; ok {
		delete(set, userID)
		if len(set) == 0 {
			delete(h.typing, roomID)
		}
	}
}

// BroadcastAll sends an event frame to every session.
func (h *Hub) BroadcastAll(frameType string, payload any) {
	data, err := encodeFrame(frameType, payload)
	if err != nil {
		h.logger.Warn("encode frame failed", "type", frameType, "error", err)
		return
	}

	h.mutex.RLock()
	defer h.mutex.RUnlock()
	for sess := range h.sessions {
		sess.enqueue(data)
	}
}

// BroadcastToRoom sends an event frame to every session subscribed to the
// room.
func (h *Hub) BroadcastToRoom(roomID, frameType string, payload any) {
	data, err := encodeFrame(frameType, payload)
	if err != nil {
		h.logger.Warn("encode frame failed", "type", frameType, "error", err)
		return
	}

	h.mutex.RLock()
	defer h.mutex.RUnlock()
	for sess := range h.rooms[roomID] {
		sess.enqueue(data)
	}
}

// OnlineUserIDs returns the sorted set of user ids with at least one live
// session.
func (h *Hub) OnlineUserIDs() []string {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	seen := make(map[string]bool, len(h.sessions))
	for sess := range h.sessions {
		seen[sess.userID] = true
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// The online set is replaced wholesale on every change, never merged.
func (h *Hub) broadcastOnline() {
	h.BroadcastAll(models.EventMembersOnline, models.MembersOnlineEvent{
		UserIDs: h.OnlineUserIDs(),
	})
}

func encodeFrame(frameType string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(models.Frame{
		Type:      frameType,
		Payload:   data,
		Timestamp: time.Now().UnixMilli(),
	})
}
