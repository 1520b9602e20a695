package state

import "github.com/sentinelsec/teamsync/internal/models"

// Action is a single state transition input. Every mutation of chat state
// flows through the store's queue as one of the types below; the reducer
// applies each atomically.
type Action interface {
	actionName() string
}

type AddMessage struct {
	RoomID  string
	Message models.ChatMessage
}

type UpdateMessage struct {
	RoomID    string
	MessageID string
	Updates   models.MessageUpdate
}

type DeleteMessage struct {
	RoomID    string
	MessageID string
}

type SetMessages struct {
	RoomID   string
	Messages []models.ChatMessage
}

type AddRoom struct {
	Room models.ChatRoom
}

type UpdateRoom struct {
	RoomID  string
	Updates models.RoomUpdate
}

type RemoveRoom struct {
	RoomID string
}

type SetActiveRoom struct {
	RoomID string
}

type SetMembers struct {
	Members []models.TeamMember
}

type UpdateMember struct {
	Member models.TeamMember
}

type SetOnlineMembers struct {
	UserIDs []string
}

type SetTyping struct {
	RoomID  string
	UserIDs []string
}

type UpdateUnread struct {
	RoomID string
	Count  int
}

type MarkRoomRead struct {
	RoomID string
}

type SetConnectionStatus struct {
	Status models.ConnectionStatus
}

type SetCurrentUser struct {
	User models.TeamMember
}

func (AddMessage) actionName() string          { return "add_message" }
func (UpdateMessage) actionName() string       { return "update_message" }
func (DeleteMessage) actionName() string       { return "delete_message" }
func (SetMessages) actionName() string         { return "set_messages" }
func (AddRoom) actionName() string             { return "add_room" }
func (UpdateRoom) actionName() string          { return "update_room" }
func (RemoveRoom) actionName() string          { return "remove_room" }
func (SetActiveRoom) actionName() string       { return "set_active_room" }
func (SetMembers) actionName() string          { return "set_members" }
func (UpdateMember) actionName() string        { return "update_member" }
func (SetOnlineMembers) actionName() string    { return "set_online_members" }
func (SetTyping) actionName() string           { return "set_typing" }
func (UpdateUnread) actionName() string        { return "update_unread" }
func (MarkRoomRead) actionName() string        { return "mark_room_read" }
func (SetConnectionStatus) actionName() string { return "set_connection_status" }
func (SetCurrentUser) actionName() string      { return "set_current_user" }
