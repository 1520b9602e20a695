package state

import "github.com/sentinelsec/teamsync/internal/models"

// State is the complete client-side view of the chat subsystem. Values are
// treated as immutable: the reducer never mutates a State it was given, it
// returns a new one sharing unchanged internals.
type State struct {
	Rooms            map[string]models.ChatRoom
	Messages         map[string][]models.ChatMessage
	Members          map[string]models.TeamMember
	OnlineUserIDs    []string
	Typing           map[string][]string
	ActiveRoomID     string
	ConnectionStatus models.ConnectionStatus
	CurrentUser      models.TeamMember
}

// NewState returns an empty state with the transport marked disconnected.
func NewState() State {
	return State{
		Rooms:            make(map[string]models.ChatRoom),
		Messages:         make(map[string][]models.ChatMessage),
		Members:          make(map[string]models.TeamMember),
		Typing:           make(map[string][]string),
		ConnectionStatus: models.StatusDisconnected,
	}
}

// Room returns the room with the given id.
func (s State) Room(id string) (models.ChatRoom, bool) {
	room, ok := s.Rooms[id]
	return room, ok
}

// RoomMessages returns the message sequence for a room in arrival order.
func (s State) RoomMessages(roomID string) []models.ChatMessage {
	return s.Messages[roomID]
}

// UnreadTotal is the sum of all rooms' unread counters. It is derived on
// every read rather than maintained independently.
func (s State) UnreadTotal() int {
	total := 0
	for _, room := range s.Rooms {
		total += room.UnreadCount
	}
	return total
}

// TypingUsers returns the users currently typing in a room.
func (s State) TypingUsers(roomID string) []string {
	return s.Typing[roomID]
}

func cloneRooms(m map[string]models.ChatRoom) map[string]models.ChatRoom {
	out := make(map[string]models.ChatRoom, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneMessages(m map[string][]models.ChatMessage) map[string][]models.ChatMessage {
	out := make(map[string][]models.ChatMessage, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneMembers(m map[string]models.TeamMember) map[string]models.TeamMember {
	out := make(map[string]models.TeamMember, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneTyping(m map[string][]string) map[string][]string {
	out := make(map[string][]string, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}
