package server

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sentinelsec/teamsync/internal/models"
)

// session is one connected client of the relay.
type session struct {
	conn     *websocket.Conn
	hub      *Hub
	relay    *Relay
	userID   string
	username string
	rooms    map[string]bool

	mu     sync.Mutex
	closed bool
	send   chan []byte
}

// enqueue and closeSend are mutually exclusive, so callers outside the hub
// lock (history replay, direct frames) can never hit a closed channel.
func (s *session) enqueue(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.send <- data:
	default:
		// Slow consumer; the frame is dropped rather than blocking the hub.
	}
}

func (s *session) closeSend() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.send)
}

func (s *session) sendFrame(frameType string, payload any) {
	data, err := encodeFrame(frameType, payload)
	if err != nil {
		return
	}
	s.enqueue(data)
}

func (s *session) member() models.TeamMember {
	return models.TeamMember{
		ID:       s.userID,
		Username: s.username,
		Role:     models.RoleAnalyst,
		Status:   models.PresenceOnline,
		LastSeen: time.Now(),
	}
}

// readPump handles command frames from the socket until it closes.
func (s *session) readPump() {
	defer func() {
		s.hub.unregister <- s
		s.conn.Close()
	}()

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.relay.logger.Warn("session read error", "user", s.userID, "error", err)
			}
			break
		}

		var frame models.Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			s.relay.logger.Warn("malformed command frame dropped", "user", s.userID, "error", err)
			continue
		}
		s.relay.Handle(s, frame)
	}
}

// writePump drains the outbound queue onto the socket.
func (s *session) writePump() {
	defer s.conn.Close()

	for data := range s.send {
		if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			s.relay.logger.Warn("session write error", "user", s.userID, "error", err)
			return
		}
	}
	s.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
