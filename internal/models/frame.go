package models

import "encoding/json"

// Frame is the wire envelope for both directions of the socket. Timestamp is
// unix milliseconds; inbound frames may omit it.
type Frame struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp,omitempty"`
}

// Server-originated event types.
const (
	EventMessage        = "message"
	EventMessageUpdated = "message_updated"
	EventMessageDeleted = "message_deleted"
	EventUserTyping     = "user_typing"
	EventRoomCreated    = "room_created"
	EventRoomUpdated    = "room_updated"
	EventRoomDeleted    = "room_deleted"
	EventRoomHistory    = "room_history"
	EventMemberJoined   = "member_joined"
	EventMembersOnline  = "members_online"
)

// Client-originated command types.
const (
	CmdSendMessage      = "send_message"
	CmdEditMessage      = "edit_message"
	CmdDeleteMessage    = "delete_message"
	CmdAddReaction      = "add_reaction"
	CmdRemoveReaction   = "remove_reaction"
	CmdCreateRoom       = "create_room"
	CmdUpdateRoom       = "update_room"
	CmdDeleteRoom       = "delete_room"
	CmdJoinRoom         = "join_room"
	CmdLeaveRoom        = "leave_room"
	CmdMarkRoomRead     = "mark_room_read"
	CmdTyping           = "typing"
	CmdShareFile        = "share_file"
	CmdShareScanResult  = "share_scan_result"
	CmdInviteMember     = "invite_member"
	CmdRemoveMember     = "remove_member"
	CmdUpdateMemberRole = "update_member_role"
)

// Event payloads.

type MessageEvent struct {
	RoomID  string      `json:"roomId"`
	Message ChatMessage `json:"message"`
}

type MessageUpdatedEvent struct {
	RoomID    string        `json:"roomId"`
	MessageID string        `json:"messageId"`
	Updates   MessageUpdate `json:"updates"`
}

type MessageDeletedEvent struct {
	RoomID    string `json:"roomId"`
	MessageID string `json:"messageId"`
}

type UserTypingEvent struct {
	RoomID  string   `json:"roomId"`
	UserIDs []string `json:"userIds"`
}

type RoomCreatedEvent struct {
	Room ChatRoom `json:"room"`
}

type RoomUpdatedEvent struct {
	RoomID  string     `json:"roomId"`
	Updates RoomUpdate `json:"updates"`
}

type RoomDeletedEvent struct {
	RoomID string `json:"roomId"`
}

type RoomHistoryEvent struct {
	RoomID   string        `json:"roomId"`
	Messages []ChatMessage `json:"messages"`
}

type MemberJoinedEvent struct {
	MemberID string     `json:"memberId"`
	Member   TeamMember `json:"member"`
}

type MembersOnlineEvent struct {
	UserIDs []string `json:"userIds"`
}

// Command payloads.

type SendMessagePayload struct {
	RoomID  string      `json:"roomId"`
	Content string      `json:"content"`
	Type    MessageType `json:"type"`
	ReplyTo string      `json:"replyTo,omitempty"`
}

type EditMessagePayload struct {
	RoomID    string `json:"roomId"`
	MessageID string `json:"messageId"`
	Content   string `json:"content"`
}

type DeleteMessagePayload struct {
	RoomID    string `json:"roomId"`
	MessageID string `json:"messageId"`
}

type ReactionPayload struct {
	RoomID    string `json:"roomId"`
	MessageID string `json:"messageId"`
	Emoji     string `json:"emoji"`
}

type CreateRoomPayload struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Type        RoomType `json:"roomType"`
	MemberIDs   []string `json:"memberIds,omitempty"`
}

type UpdateRoomPayload struct {
	RoomID  string     `json:"roomId"`
	Updates RoomUpdate `json:"updates"`
}

type RoomPayload struct {
	RoomID string `json:"roomId"`
}

type TypingPayload struct {
	RoomID   string `json:"roomId"`
	IsTyping bool   `json:"isTyping"`
}

type ShareFilePayload struct {
	RoomID   string `json:"roomId"`
	FileName string `json:"fileName"`
	FileSize int64  `json:"fileSize"`
	MimeType string `json:"mimeType,omitempty"`
}

type ShareScanResultPayload struct {
	RoomID   string `json:"roomId"`
	ScanID   string `json:"scanId"`
	Summary  string `json:"summary"`
	Severity string `json:"severity,omitempty"`
}

type MemberActionPayload struct {
	RoomID   string `json:"roomId"`
	MemberID string `json:"memberId"`
}

type UpdateMemberRolePayload struct {
	RoomID   string `json:"roomId"`
	MemberID string `json:"memberId"`
	Role     Role   `json:"role"`
}
